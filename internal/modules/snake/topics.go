package snake

import (
	"github.com/nfrund/shellrt/internal/runtime"
	"github.com/nfrund/shellrt/internal/topicmgr"
)

// Module topics for the snake game

var (
	// TopicDirection carries player input to the game actor
	TopicDirection = topicmgr.Define[DirectionMsg](topicmgr.TopicConfig{
		Name:        "snake.input.direction",
		Module:      ModuleName,
		Description: "A player asks their snake to turn",
		Example:     `{"player_id":1,"direction":1}`,
		Metadata: map[string]interface{}{
			"event_type":     "direction",
			"payload_fields": []string{"player_id", "direction"},
		},
	})

	// TopicStateUpdate carries the board after every game step
	TopicStateUpdate = topicmgr.Define[StateUpdate](topicmgr.TopicConfig{
		Name:        "snake.state.update",
		Module:      ModuleName,
		Description: "Snake heads after a game step (published by the game actor)",
		Example:     `{"tick":12,"heads":{"1":{"X":4,"Y":5}}}`,
		Metadata: map[string]interface{}{
			"event_type":     "state_update",
			"payload_fields": []string{"tick", "heads"},
		},
	})
)

// Topics is the set of handles the snake actors use, resolved against one
// runtime's registry.
type Topics struct {
	Direction   *topicmgr.TypedTopic[DirectionMsg]
	StateUpdate *topicmgr.TypedTopic[StateUpdate]
}

// RegisterTopics registers all snake topics with the runtime's registry.
func RegisterTopics(rt *runtime.Runtime) (Topics, error) {
	direction, err := topicmgr.Register(rt.Topics(), TopicDirection)
	if err != nil {
		return Topics{}, err
	}
	update, err := topicmgr.Register(rt.Topics(), TopicStateUpdate)
	if err != nil {
		return Topics{}, err
	}
	return Topics{Direction: direction, StateUpdate: update}, nil
}
