package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nfrund/shellrt/cmd/shellrt/internal/topics"
	"github.com/nfrund/shellrt/internal/topicmgr"
)

var (
	listOutputFormat string
	listModuleFilter string
	listScopeFilter  string
)

// topicsListCmd represents the topics list command
var topicsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all registered topics",
	Long: `List all topics registered in the runtime, including the framework topics the
runtime registers for itself.

The command wires the application and runs every module's Register phase, then
displays the topics in either table or JSON format with optional filtering.
No actor is started.

Examples:
  shellrt topics list                         # All topics in table format
  shellrt topics list --format json           # All topics in JSON format
  shellrt topics list --module snake          # Only the snake module's topics
  shellrt topics list --scope framework       # Only framework-level topics

Output formats:
  table - Human-readable table format (default)
  json  - Machine-readable JSON format with metadata`,
	Run: topicsListHandler,
}

func topicsListHandler(cmd *cobra.Command, args []string) {
	manager, err := topics.Initialize()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to initialize topics: %v\n", err)
		os.Exit(1)
	}

	var scope topicmgr.TopicScope
	if listScopeFilter != "" {
		if scope = parseScope(listScopeFilter); scope == "" {
			fmt.Fprintf(os.Stderr, "Error: Invalid scope '%s'. Valid scopes: framework, module\n", listScopeFilter)
			os.Exit(1)
		}
	}

	out := cmd.OutOrStdout()
	topicList := filterTopics(manager, listModuleFilter, scope)

	if len(topicList) == 0 {
		message := "No topics found"
		filters := []string{}
		if listModuleFilter != "" {
			filters = append(filters, fmt.Sprintf("module '%s'", listModuleFilter))
		}
		if listScopeFilter != "" {
			filters = append(filters, fmt.Sprintf("scope '%s'", listScopeFilter))
		}
		if len(filters) > 0 {
			message += " matching: " + strings.Join(filters, ", ")
		}
		fmt.Fprintln(out, message)
		return
	}

	switch listOutputFormat {
	case "json":
		if err := topics.DisplayTopicsJSON(out, topicList); err != nil {
			fmt.Fprintf(os.Stderr, "Error: Failed to encode JSON: %v\n", err)
			os.Exit(1)
		}
	case "table":
		topics.DisplayTopicsTable(out, topicList)
	default:
		fmt.Fprintf(os.Stderr, "Error: Unsupported output format '%s'. Use 'table' or 'json'\n", listOutputFormat)
		os.Exit(1)
	}
}

// filterTopics applies the optional module and scope filters.
func filterTopics(manager *topicmgr.Manager, module string, scope topicmgr.TopicScope) []topicmgr.Topic {
	var candidates []topicmgr.Topic
	if module != "" {
		candidates = manager.ListByModule(module)
	} else {
		candidates = manager.List()
	}
	if scope == "" {
		return candidates
	}

	var filtered []topicmgr.Topic
	for _, topic := range candidates {
		if topic.Scope() == scope {
			filtered = append(filtered, topic)
		}
	}
	return filtered
}

// parseScope converts string scope to topicmgr.TopicScope
func parseScope(scopeStr string) topicmgr.TopicScope {
	switch strings.ToLower(scopeStr) {
	case "framework":
		return topicmgr.ScopeFramework
	case "module":
		return topicmgr.ScopeModule
	default:
		return ""
	}
}

func init() {
	topicsCmd.AddCommand(topicsListCmd)

	topicsListCmd.Flags().StringVarP(&listOutputFormat, "format", "f", "table", "Output format (table, json)")
	topicsListCmd.Flags().StringVarP(&listModuleFilter, "module", "m", "", "Filter topics by module name")
	topicsListCmd.Flags().StringVarP(&listScopeFilter, "scope", "s", "", "Filter topics by scope (framework, module)")
}
