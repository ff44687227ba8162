// Package main provides the Nihara CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	verbose bool
	apiKey  string

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "nihara",
	Short: "Nihara - your AI companion, in the terminal",
	Long: `Nihara is an AI companion powered by the Google Gemini API.

She chats, paints images, reads the stars, keeps a shared diary, and can
switch into live voice-styled conversation. Run without arguments for the
interactive interface, or use the subcommands to drive each mode directly.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// The interactive UI manages its own presentation.
		if cmd.Use == "nihara" && cmd.CalledAs() == "nihara" {
			logger = zap.NewNop()
			return nil
		}

		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractive()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "Gemini API key (or set GEMINI_API_KEY env)")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(predictCmd)
	rootCmd.AddCommand(imagineCmd)
	rootCmd.AddCommand(diaryCmd)
	rootCmd.AddCommand(personaCmd)
	rootCmd.AddCommand(toneCmd)
	rootCmd.AddCommand(nameCmd)
	rootCmd.AddCommand(upgradeCmd)
	rootCmd.AddCommand(statusCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
