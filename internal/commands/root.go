// Package commands implements the CLI command structure using Cobra.
package commands

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	providerName string
	model        string
	verbose      bool
)

// rootCmd is the base command for the CLI.
var rootCmd = &cobra.Command{
	Use:   "outline",
	Short: "Outline - structured LLM generation CLI",
	Long: `Outline sends prompts to LLM providers and returns plain or
schema-constrained output. API keys are read from the environment
(OPENAI_API_KEY, ANTHROPIC_API_KEY), with a .env file loaded when present.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Best effort; a missing .env file is the common case.
		_ = godotenv.Load()
	},
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&providerName, "provider", "", "provider ID (openai, anthropic); inferred from model when empty")
	rootCmd.PersistentFlags().StringVar(&model, "model", "", "model ID (e.g. gpt-4o, claude-sonnet-4-5)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable debug logging")
}
