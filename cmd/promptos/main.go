package main

import (
	"fmt"
	"os"

	"promptos/internal/config"
	"promptos/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	verbose    bool
	configPath string
	modelFlag  string
	userID     string

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "promptos",
	Short: "promptOS - AI writing assistant core",
	Long: `promptOS is the core engine of a system-wide AI writing assistant.

It generates emails, messages, and documents on demand, grounded in what is
on the user's screen, a small set of identity facts, and the user's writing
style. This CLI drives the same pipeline the overlay uses.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zapCfg := zap.NewProductionConfig()
		if verbose {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zapCfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		if err := logging.Initialize(config.DataDir()); err != nil {
			logger.Warn("category logging unavailable", zap.Error(err))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.CloseAll()
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default ~/.promptos/config.json)")
	rootCmd.PersistentFlags().StringVar(&userID, "user", "local", "Profile ID to operate on")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(factsCmd)
	rootCmd.AddCommand(contextCheckCmd)
	rootCmd.AddCommand(styleCmd)
	rootCmd.AddCommand(statsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
