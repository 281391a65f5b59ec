package cmd

import (
	"fmt"
	"os"

	"github.com/averden/modelget/internal/output"
	"github.com/averden/modelget/internal/store"
	"github.com/spf13/cobra"
)

func newCleanCmd() *cobra.Command {
	var removeModel bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove cached part files",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			art := loadArtifact()
			st, err := store.New(art)
			if err != nil {
				output.PrintError(fmt.Sprintf("Error opening store: %v", err))
				os.Exit(1)
			}
			if err := st.RemoveParts(); err != nil {
				output.PrintError(fmt.Sprintf("Error removing part files: %v", err))
				os.Exit(1)
			}
			if removeModel {
				if err := os.Remove(st.FinalPath()); err != nil && !os.IsNotExist(err) {
					output.PrintError(fmt.Sprintf("Error removing model file: %v", err))
					os.Exit(1)
				}
			}
			output.PrintSuccess("Cached files cleaned up")
		},
	}

	cmd.Flags().BoolVar(&removeModel, "all", false, "Also remove the assembled model file")
	return cmd
}
