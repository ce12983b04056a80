package cmd

import (
	"github.com/spf13/cobra"
)

// topicsCmd represents the topics command
var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "Explore and validate runtime topics",
	Long: `The topics command provides tools for discovering, inspecting, and validating
the topics actors communicate through. Every module registers its topics at
startup; the runtime registers its own framework topics.

Available subcommands:
  list      List all registered topics with optional filtering
  get       Get detailed information about a specific topic
  validate  Validate a topic name and definition

Examples:
  # List all topics
  shellrt topics list

  # List topics for a specific module
  shellrt topics list --module=snake

  # List framework-level topics only
  shellrt topics list --scope=framework

  # Get detailed information about a topic
  shellrt topics get snake.input.direction

  # Validate a topic name
  shellrt topics validate snake.state.update

Use "shellrt topics [command] --help" for more information about a specific command.`,
}

func init() {
	rootCmd.AddCommand(topicsCmd)
}
