package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nfrund/shellrt/cmd/shellrt/internal/topics"
)

var (
	getOutputFormat string
)

// topicsGetCmd represents the topics get command
var topicsGetCmd = &cobra.Command{
	Use:   "get <topic-name>",
	Short: "Get detailed information about a specific topic",
	Long: `Get detailed information about a registered topic: name, scope, module,
message type, description, example, and metadata.

Examples:
  shellrt topics get snake.input.direction                # Table format
  shellrt topics get runtime.actor.fault --format json    # JSON format

Output formats:
  table - Human-readable detailed format (default)
  json  - Machine-readable JSON format with all metadata`,
	Args: cobra.ExactArgs(1),
	Run:  topicsGetHandler,
}

func topicsGetHandler(cmd *cobra.Command, args []string) {
	topicName := args[0]

	manager, err := topics.Initialize()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to initialize topics: %v\n", err)
		os.Exit(1)
	}

	topic, found := manager.Get(topicName)
	if !found {
		fmt.Fprintf(os.Stderr, "Error: Topic '%s' not found\n", topicName)
		fmt.Fprintf(os.Stderr, "\nUse 'shellrt topics list' to see all available topics.\n")
		os.Exit(1)
	}

	if err := topics.DisplayTopicDetails(cmd.OutOrStdout(), topic, getOutputFormat); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to display topic details: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	topicsCmd.AddCommand(topicsGetCmd)

	topicsGetCmd.Flags().StringVarP(&getOutputFormat, "format", "f", "table", "Output format (table, json)")
}
