package snake

import (
	"github.com/nfrund/shellrt/internal/core/dirqueue"
	"github.com/nfrund/shellrt/internal/core/motion"
)

// DirectionMsg asks for a player's snake to turn.
type DirectionMsg struct {
	PlayerID  int                `msgpack:"player_id"`
	Direction dirqueue.Direction `msgpack:"direction"`
}

// StateUpdate is published by the game after every step.
type StateUpdate struct {
	Tick  uint64               `msgpack:"tick"`
	Heads map[int]motion.Point `msgpack:"heads"`
}
