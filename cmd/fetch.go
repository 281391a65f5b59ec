package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/averden/modelget/internal/download"
	"github.com/averden/modelget/internal/output"
	"github.com/spf13/cobra"
)

func newFetchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Download missing parts and assemble the model artifact",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			art := loadArtifact()
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			coord, err := download.NewFromArtifact(ctx, art)
			if err != nil {
				output.PrintError(fmt.Sprintf("Error preparing download: %v", err))
				os.Exit(1)
			}
			go func() {
				<-ctx.Done()
				coord.Cancel()
			}()

			done := make(chan error, 1)
			go func() {
				_, err := coord.EnsureAvailable(ctx)
				done <- err
			}()

			ticker := time.NewTicker(300 * time.Millisecond)
			defer ticker.Stop()
			for {
				select {
				case err := <-done:
					fmt.Print("\r\033[K")
					if err != nil {
						output.PrintError(fmt.Sprintf("Download failed: %v", err))
						output.PrintWarning("Completed parts are cached; run fetch again to resume")
						os.Exit(1)
					}
					output.PrintSuccess(fmt.Sprintf("Model available at %s", art.FinalPath()))
					return
				case <-ticker.C:
					fmt.Printf("\r\033[K%s", output.RenderSnapshot(coord.Progress()))
				}
			}
		},
	}
}
