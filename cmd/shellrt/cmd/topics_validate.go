package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nfrund/shellrt/cmd/shellrt/internal/topics"
)

// topicsValidateCmd represents the topics validate command
var topicsValidateCmd = &cobra.Command{
	Use:   "validate <topic-name>",
	Short: "Validate a topic definition",
	Long: `Validate a topic to ensure it follows the naming conventions and has a
complete definition.

The validation process includes:
- Topic name format (lowercase segments separated by dots)
- Reserved prefix checking (system., internal., debug.)
- Scope rules (framework topics live under runtime., module topics do not)
- Definition completeness (description)

Examples:
  shellrt topics validate snake.input.direction
  shellrt topics validate Invalid.Topic          # Shows name format error`,
	Args: cobra.ExactArgs(1),
	Run:  topicsValidateHandler,
}

func topicsValidateHandler(cmd *cobra.Command, args []string) {
	topicName := args[0]
	out := cmd.OutOrStdout()

	manager, err := topics.Initialize()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to initialize topics: %v\n", err)
		os.Exit(1)
	}

	if err := manager.ValidateTopicName(topicName); err != nil {
		fmt.Fprintf(out, "❌ Topic name validation failed: %v\n", err)
		fmt.Fprintf(os.Stderr, "\nTopic names must follow the pattern: module.noun.verb\n")
		fmt.Fprintf(os.Stderr, "Examples: snake.input.direction, snake.state.update\n")
		os.Exit(1)
	}

	topic, found := manager.Get(topicName)
	if !found {
		fmt.Fprintf(out, "❌ Topic validation failed: topic '%s' not found\n", topicName)
		fmt.Fprintf(os.Stderr, "\nUse 'shellrt topics list' to see all available topics.\n")
		os.Exit(1)
	}
	if err := manager.Validate(topic); err != nil {
		fmt.Fprintf(out, "❌ Topic validation failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(out, "✅ Topic '%s' is valid\n", topic.Name())
	fmt.Fprintf(out, "   Scope: %s\n", topic.Scope())
	if topic.Module() != "" {
		fmt.Fprintf(out, "   Module: %s\n", topic.Module())
	} else {
		fmt.Fprintf(out, "   Module: (framework)\n")
	}
	fmt.Fprintf(out, "   Type: %s\n", topic.MessageType())
	fmt.Fprintf(out, "   Description: %s\n", topic.Description())
	if topic.Example() != "" {
		fmt.Fprintf(out, "   Example: %s\n", topic.Example())
	}
}

func init() {
	topicsCmd.AddCommand(topicsValidateCmd)
}
