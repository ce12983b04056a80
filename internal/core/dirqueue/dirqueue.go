// Package dirqueue buffers direction changes per player between game ticks.
//
// State is opaque: it has no exported fields and is only built with New.
// Every function is pure; it never modifies the State it is given and returns
// a new value instead, so a caller holding an older State keeps seeing it
// unchanged.
package dirqueue

import (
	"fmt"
	"sort"

	"github.com/vmihailenco/msgpack/v5"
)

// MaxPending bounds how many direction changes a player can have buffered.
// Pushes beyond it are dropped.
const MaxPending = 3

// Direction is a heading on the grid.
type Direction uint8

const (
	None Direction = iota
	Up
	Down
	Left
	Right
)

// Opposite returns the reverse heading. None has no opposite.
func (d Direction) Opposite() Direction {
	switch d {
	case Up:
		return Down
	case Down:
		return Up
	case Left:
		return Right
	case Right:
		return Left
	default:
		return None
	}
}

// Valid reports whether d is one of the four headings.
func (d Direction) Valid() bool {
	return d >= Up && d <= Right
}

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "none"
	}
}

// ParseDirection parses the String form of a direction.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "up":
		return Up, nil
	case "down":
		return Down, nil
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	default:
		return None, fmt.Errorf("unknown direction %q", s)
	}
}

// State holds every player's pending directions.
type State struct {
	queues map[int][]Direction
}

// New returns an empty State.
func New() State {
	return State{}
}

// Push appends dir to player's queue, creating the queue on first use. The
// push is dropped when dir is not a heading, when it repeats or reverses the
// last queued direction, or when the queue is full.
func Push(s State, player int, dir Direction) State {
	if !dir.Valid() {
		return s
	}

	q := s.queues[player]
	if n := len(q); n > 0 {
		last := q[n-1]
		if dir == last || dir == last.Opposite() {
			return s
		}
	}
	if len(q) >= MaxPending {
		return s
	}

	next := make([]Direction, len(q), len(q)+1)
	copy(next, q)
	return s.with(player, append(next, dir))
}

// TryConsumeNext removes and returns the oldest direction queued for player.
// It reports false, and returns s unchanged, when nothing is queued.
func TryConsumeNext(s State, player int) (State, Direction, bool) {
	q := s.queues[player]
	if len(q) == 0 {
		return s, None, false
	}

	rest := make([]Direction, len(q)-1)
	copy(rest, q[1:])
	return s.with(player, rest), q[0], true
}

// Pending returns how many directions are queued for player.
func Pending(s State, player int) int {
	return len(s.queues[player])
}

// Players returns every player that has ever queued a direction, ascending.
func Players(s State) []int {
	players := make([]int, 0, len(s.queues))
	for p := range s.queues {
		players = append(players, p)
	}
	sort.Ints(players)
	return players
}

// with returns a copy of s where player's queue is q.
func (s State) with(player int, q []Direction) State {
	queues := make(map[int][]Direction, len(s.queues)+1)
	for p, existing := range s.queues {
		queues[p] = existing
	}
	queues[player] = q
	return State{queues: queues}
}

type wireQueue struct {
	Player int         `msgpack:"player"`
	Queue  []Direction `msgpack:"queue"`
}

// MarshalBinary encodes s so it can be carried inside a message. Players are
// written in ascending order, so equal states encode to equal bytes.
func (s State) MarshalBinary() ([]byte, error) {
	players := Players(s)
	wire := make([]wireQueue, 0, len(players))
	for _, p := range players {
		wire = append(wire, wireQueue{Player: p, Queue: s.queues[p]})
	}
	return msgpack.Marshal(wire)
}

// UnmarshalBinary restores a State written by MarshalBinary. Queues longer
// than MaxPending or holding a non-heading are rejected.
func (s *State) UnmarshalBinary(data []byte) error {
	var wire []wireQueue
	if err := msgpack.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("dirqueue: decode state: %w", err)
	}
	if len(wire) == 0 {
		*s = State{}
		return nil
	}

	queues := make(map[int][]Direction, len(wire))
	for _, w := range wire {
		if len(w.Queue) > MaxPending {
			return fmt.Errorf("dirqueue: player %d has %d queued directions", w.Player, len(w.Queue))
		}
		for _, d := range w.Queue {
			if !d.Valid() {
				return fmt.Errorf("dirqueue: player %d has invalid direction %d", w.Player, d)
			}
		}
		queues[w.Player] = w.Queue
	}
	*s = State{queues: queues}
	return nil
}
