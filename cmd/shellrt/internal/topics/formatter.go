package topics

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/nfrund/shellrt/internal/topicmgr"
)

// TopicDisplay represents a topic for display purposes
type TopicDisplay struct {
	Name        string                 `json:"name"`
	Scope       string                 `json:"scope"`
	Module      string                 `json:"module"`
	Description string                 `json:"description"`
	MessageType string                 `json:"message_type"`
	Example     string                 `json:"example"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

func toDisplay(topic topicmgr.Topic) TopicDisplay {
	return TopicDisplay{
		Name:        topic.Name(),
		Scope:       string(topic.Scope()),
		Module:      topic.Module(),
		Description: topic.Description(),
		MessageType: topic.MessageType().String(),
		Example:     topic.Example(),
		Metadata:    topic.Metadata(),
	}
}

// DisplayTopicsTable writes topics as an aligned table
func DisplayTopicsTable(w io.Writer, topics []topicmgr.Topic) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "NAME\tSCOPE\tMODULE\tTYPE\tDESCRIPTION")
	fmt.Fprintln(tw, "----\t-----\t------\t----\t-----------")

	if len(topics) == 0 {
		fmt.Fprintln(tw, "No topics found")
		return
	}
	for _, topic := range topics {
		module := topic.Module()
		if module == "" {
			module = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			topic.Name(),
			topic.Scope(),
			module,
			topic.MessageType(),
			truncateString(topic.Description(), 40))
	}
}

// DisplayTopicsJSON writes topics as JSON with a count
func DisplayTopicsJSON(w io.Writer, topics []topicmgr.Topic) error {
	topicDisplays := make([]TopicDisplay, len(topics))
	for i, topic := range topics {
		topicDisplays[i] = toDisplay(topic)
	}

	output := struct {
		Topics []TopicDisplay `json:"topics"`
		Count  int            `json:"count"`
	}{
		Topics: topicDisplays,
		Count:  len(topicDisplays),
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

// DisplayTopicDetails writes everything known about one topic
func DisplayTopicDetails(w io.Writer, topic topicmgr.Topic, format string) error {
	if format == "json" {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(toDisplay(topic))
	}

	fmt.Fprintf(w, "Name:        %s\n", topic.Name())
	fmt.Fprintf(w, "Scope:       %s\n", topic.Scope())
	fmt.Fprintf(w, "Module:      %s\n", topic.Module())
	fmt.Fprintf(w, "Type:        %s\n", topic.MessageType())
	fmt.Fprintf(w, "Description: %s\n", topic.Description())
	fmt.Fprintf(w, "Example:     %s\n", topic.Example())

	metadata := topic.Metadata()
	if len(metadata) > 0 {
		keys := make([]string, 0, len(metadata))
		for k := range metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		fmt.Fprintf(w, "Metadata:\n")
		for _, k := range keys {
			fmt.Fprintf(w, "  %s: %v\n", k, metadata[k])
		}
	}

	return nil
}

// truncateString truncates a string to maxLen characters, adding "..." if truncated
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return "..."
	}
	return s[:maxLen-3] + "..."
}
