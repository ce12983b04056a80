package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "shellrt",
	Short: "Actor runtime for functional-core / imperative-shell modules",
	Long: `shellrt hosts actors that own their state privately and advance it only by
calling pure module functions, communicating through typed topics and timers.

Available commands:
  run        Run the snake demo until interrupted or a tick limit is reached
  topics     Discover and validate registered topics
  version    Print the version

Configuration is read from the environment and an optional .env file.

Use "shellrt [command] --help" for more information about a specific command.`,
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
