package cmd

import (
	"fmt"
	"os"

	"github.com/averden/modelget/internal/config"
	"github.com/averden/modelget/internal/logx"
	"github.com/averden/modelget/internal/output"
	"github.com/spf13/cobra"
)

var (
	configFile string
	dataDir    string
	debug      bool
)

var Version = "dev"

var rootCmd = &cobra.Command{
	Use:     "modelget",
	Short:   "modelget fetches chunked model artifacts with resume support",
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logx.Init(debug)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to YAML artifact file (compiled-in default if not provided)")
	rootCmd.PersistentFlags().StringVarP(&dataDir, "dir", "d", "", "Data directory for parts and the assembled model")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(newFetchCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newCleanCmd())
}

func loadArtifact() config.Artifact {
	art := config.Default()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			output.PrintError(fmt.Sprintf("Error loading artifact file: %v", err))
			os.Exit(1)
		}
		art = loaded
	}
	if dataDir != "" {
		art.DataDir = dataDir
	}
	if err := art.Validate(); err != nil {
		output.PrintError(fmt.Sprintf("Invalid artifact configuration: %v", err))
		os.Exit(1)
	}
	return art
}
