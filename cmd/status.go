package cmd

import (
	"fmt"
	"os"

	"github.com/averden/modelget/internal/output"
	"github.com/averden/modelget/internal/store"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show which parts are cached and whether the model is assembled",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			art := loadArtifact()
			st, err := store.New(art)
			if err != nil {
				output.PrintError(fmt.Sprintf("Error opening store: %v", err))
				os.Exit(1)
			}
			if st.FinalExists() {
				output.PrintSuccess(fmt.Sprintf("Model assembled at %s", st.FinalPath()))
				return
			}
			have, err := st.Scan()
			if err != nil {
				output.PrintError(fmt.Sprintf("Error scanning parts: %v", err))
				os.Exit(1)
			}
			var cachedBytes uint64
			for i := 0; i < art.PartCount; i++ {
				if info, err := os.Stat(art.PartPath(i)); err == nil {
					cachedBytes += uint64(info.Size())
				}
			}
			output.PrintInfo(fmt.Sprintf("%d of %d parts cached (%s), model not assembled", len(have), art.PartCount, output.FormatBytes(cachedBytes)))
			for i := 0; i < art.PartCount; i++ {
				marker := "missing"
				if have[i] {
					marker = "cached"
				}
				fmt.Printf("  %s  %s\n", art.PartName(i), marker)
			}
		},
	}
}
