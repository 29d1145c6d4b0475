package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"propgen/internal/config"
)

var (
	// Global flags
	verbose    bool
	configPath string

	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "propgen",
	Short: "propgen - techno-commercial proposal generator",
	Long: `propgen turns a client's RFQ document into a finished proposal:
it extracts the process description, synthesizes and renders a flow
diagram, hands the diagram to an external editor for refinement,
generates the prose sections, and composes everything into one
branded document.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize logger
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func main() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "propgen.yaml", "path to configuration file")

	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(synthCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(letterCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(composeCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
