package topics

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/shellrt/internal/topicmgr"
)

type Turn struct {
	Player int
}

func sampleTopics(t *testing.T) []topicmgr.Topic {
	t.Helper()
	mgr := topicmgr.NewManager()
	_, err := topicmgr.Register(mgr, topicmgr.Define[Turn](topicmgr.TopicConfig{
		Name:        "game.turn",
		Module:      "game",
		Description: "A player takes a turn and the board advances by one full step",
		Example:     `{"player":1}`,
	}))
	require.NoError(t, err)
	return mgr.List()
}

func TestDisplayTopicsTable(t *testing.T) {
	var buf bytes.Buffer
	DisplayTopicsTable(&buf, sampleTopics(t))

	out := buf.String()
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "game.turn")
	assert.Contains(t, out, "topics.Turn")
	assert.Contains(t, out, "...", "long descriptions are truncated")

	buf.Reset()
	DisplayTopicsTable(&buf, nil)
	assert.Contains(t, buf.String(), "No topics found")
}

func TestDisplayTopicsJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, DisplayTopicsJSON(&buf, sampleTopics(t)))

	var out struct {
		Topics []TopicDisplay `json:"topics"`
		Count  int            `json:"count"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, 1, out.Count)
	assert.Equal(t, "game.turn", out.Topics[0].Name)
	assert.Equal(t, "module", out.Topics[0].Scope)
	assert.Equal(t, "topics.Turn", out.Topics[0].MessageType)
}

func TestDisplayTopicDetails(t *testing.T) {
	topic := sampleTopics(t)[0]

	var buf bytes.Buffer
	require.NoError(t, DisplayTopicDetails(&buf, topic, "table"))
	assert.Contains(t, buf.String(), "Name:        game.turn")
	assert.Contains(t, buf.String(), "type_name: topics.Turn")

	buf.Reset()
	require.NoError(t, DisplayTopicDetails(&buf, topic, "json"))
	var display TopicDisplay
	require.NoError(t, json.Unmarshal(buf.Bytes(), &display))
	assert.Equal(t, "game", display.Module)
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", truncateString("short", 10))
	assert.Equal(t, "abcd...", truncateString("abcdefghij", 7))
	assert.Equal(t, "...", truncateString("abcdef", 2))
}
