package topicmgr_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/shellrt/internal/topicmgr"
)

type DirectionMsg struct {
	PlayerID  int
	Direction int
}

type ScoreMsg struct {
	Points int
}

func TestManager(t *testing.T) {
	t.Run("Register and Get", func(t *testing.T) {
		mgr := topicmgr.NewManager()
		topic := topicmgr.Define[DirectionMsg](topicmgr.TopicConfig{
			Name:        "snake.input.direction",
			Module:      "snake",
			Description: "A player changed direction",
		})

		registered, err := topicmgr.Register(mgr, topic)
		require.NoError(t, err)
		assert.Same(t, topic, registered)

		found, exists := mgr.Get("snake.input.direction")
		assert.True(t, exists, "Topic should exist after registration")
		assert.Equal(t, topic.MessageType(), found.MessageType())
		assert.Equal(t, topicmgr.ScopeModule, found.Scope())
	})

	t.Run("Same name and type is idempotent", func(t *testing.T) {
		mgr := topicmgr.NewManager()
		cfg := topicmgr.TopicConfig{Name: "snake.score", Description: "Score changed"}

		first, err := topicmgr.Register(mgr, topicmgr.Define[ScoreMsg](cfg))
		require.NoError(t, err)
		second, err := topicmgr.Register(mgr, topicmgr.Define[ScoreMsg](cfg))
		require.NoError(t, err)

		assert.Same(t, first, second, "the first registration stays canonical")
		assert.Equal(t, 1, mgr.Count())
	})

	t.Run("Same name with another type is rejected", func(t *testing.T) {
		mgr := topicmgr.NewManager()
		cfg := topicmgr.TopicConfig{Name: "snake.score", Description: "Score changed"}

		_, err := topicmgr.Register(mgr, topicmgr.Define[ScoreMsg](cfg))
		require.NoError(t, err)
		_, err = topicmgr.Register(mgr, topicmgr.Define[DirectionMsg](cfg))

		require.Error(t, err)
		assert.True(t, errors.Is(err, topicmgr.ErrTypeMismatch))
	})

	t.Run("Name derived from message type", func(t *testing.T) {
		mgr := topicmgr.NewManager()
		topic, err := topicmgr.Register(mgr, topicmgr.Define[DirectionMsg](topicmgr.TopicConfig{
			Description: "derived",
		}))
		require.NoError(t, err)
		assert.Equal(t, "direction_msg", topic.Name())
	})

	t.Run("Invalid definitions fail validation", func(t *testing.T) {
		mgr := topicmgr.NewManager()

		_, err := topicmgr.Register(mgr, topicmgr.Define[ScoreMsg](topicmgr.TopicConfig{
			Name:        "Bad Name",
			Description: "x",
		}))
		assert.True(t, errors.Is(err, topicmgr.ErrValidationFailed))

		_, err = topicmgr.Register(mgr, topicmgr.Define[ScoreMsg](topicmgr.TopicConfig{
			Name: "snake.score",
		}))
		assert.True(t, errors.Is(err, topicmgr.ErrValidationFailed), "description is required")

		_, err = topicmgr.Register(mgr, topicmgr.Define[ScoreMsg](topicmgr.TopicConfig{
			Name:        "system.score",
			Description: "reserved",
		}))
		assert.Error(t, err)

		_, err = topicmgr.Register(mgr, topicmgr.Define[ScoreMsg](topicmgr.TopicConfig{
			Name:        "snake.score",
			Scope:       topicmgr.ScopeFramework,
			Description: "framework topics need the runtime prefix",
		}))
		assert.Error(t, err)

		assert.Equal(t, 0, mgr.Count())
	})

	t.Run("Resolve", func(t *testing.T) {
		mgr := topicmgr.NewManager()
		_, err := topicmgr.Register(mgr, topicmgr.Define[ScoreMsg](topicmgr.TopicConfig{
			Name:        "snake.score",
			Description: "Score changed",
		}))
		require.NoError(t, err)

		topic, err := topicmgr.Resolve[ScoreMsg](mgr, "snake.score")
		require.NoError(t, err)
		assert.Equal(t, "snake.score", topic.Name())

		_, err = topicmgr.Resolve[DirectionMsg](mgr, "snake.score")
		assert.True(t, errors.Is(err, topicmgr.ErrTypeMismatch))

		_, err = topicmgr.Resolve[ScoreMsg](mgr, "snake.missing")
		assert.True(t, errors.Is(err, topicmgr.ErrTopicNotFound))
	})

	t.Run("CheckRegistered", func(t *testing.T) {
		mgr := topicmgr.NewManager()
		topic := topicmgr.Define[ScoreMsg](topicmgr.TopicConfig{Name: "snake.score", Description: "x"})

		assert.True(t, errors.Is(mgr.CheckRegistered(topic), topicmgr.ErrTopicNotFound))

		_, err := topicmgr.Register(mgr, topic)
		require.NoError(t, err)
		assert.NoError(t, mgr.CheckRegistered(topic))

		impostor := topicmgr.Define[DirectionMsg](topicmgr.TopicConfig{Name: "snake.score", Description: "x"})
		assert.True(t, errors.Is(mgr.CheckRegistered(impostor), topicmgr.ErrTypeMismatch))
	})

	t.Run("Listing and stats", func(t *testing.T) {
		mgr := topicmgr.NewManager()
		mgr.MustRegister(topicmgr.Define[ScoreMsg](topicmgr.TopicConfig{Name: "snake.score", Module: "snake", Description: "x"}))
		mgr.MustRegister(topicmgr.Define[DirectionMsg](topicmgr.TopicConfig{Name: "snake.input", Module: "snake", Description: "x"}))
		mgr.MustRegister(topicmgr.Define[string](topicmgr.TopicConfig{
			Name:        "runtime.actor.fault",
			Scope:       topicmgr.ScopeFramework,
			Description: "x",
		}))

		all := mgr.List()
		require.Len(t, all, 3)
		assert.Equal(t, "runtime.actor.fault", all[0].Name(), "List is sorted by name")

		assert.Len(t, mgr.ListByModule("snake"), 2)
		assert.Len(t, mgr.ListByScope(topicmgr.ScopeFramework), 1)
		assert.Len(t, mgr.FindTopics("snake.*"), 2)
		assert.Len(t, mgr.FindTopics("*"), 3)

		stats := mgr.GetStats()
		assert.Equal(t, 3, stats.TotalTopics)
		assert.Equal(t, 1, stats.FrameworkTopics)
		assert.Equal(t, 2, stats.ModuleBreakdown["snake"])
	})
}

func TestNameFor(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"struct", topicmgr.NameFor[DirectionMsg](), "direction_msg"},
		{"single word", topicmgr.NameFor[ScoreMsg](), "score_msg"},
		{"builtin", topicmgr.NameFor[string](), "string"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}
