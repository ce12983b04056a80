// Package motion moves snake heads across a grid whose edges wrap around.
//
// State is opaque and built with New. Functions never modify their input
// State.
package motion

import (
	"errors"
	"fmt"
	"sort"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/nfrund/shellrt/internal/core/dirqueue"
)

// ErrInvalidGrid is returned by New for a grid with no cells.
var ErrInvalidGrid = errors.New("motion: grid must have positive width and height")

// Point is a grid cell. X grows to the right, Y grows downward.
type Point struct {
	X int
	Y int
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

type snake struct {
	head    Point
	heading dirqueue.Direction
}

// State holds the grid size and every spawned snake.
type State struct {
	width  int
	height int
	snakes map[int]snake
}

// New returns an empty grid of width x height cells.
func New(width, height int) (State, error) {
	if width <= 0 || height <= 0 {
		return State{}, fmt.Errorf("%w: got %dx%d", ErrInvalidGrid, width, height)
	}
	return State{width: width, height: height}, nil
}

// Size returns the grid dimensions.
func Size(s State) (width, height int) {
	return s.width, s.height
}

// Spawn places player's snake at the given cell, wrapped onto the grid, with
// the given heading. An existing snake for player is replaced. An invalid
// heading leaves the snake standing still until it is steered. It panics on
// a State that did not come from New.
func Spawn(s State, player int, at Point, heading dirqueue.Direction) State {
	s.mustHaveGrid()
	if !heading.Valid() {
		heading = dirqueue.None
	}
	return s.with(player, snake{head: s.wrap(at), heading: heading})
}

// Steer turns player's snake. Reversals and unknown players are ignored.
func Steer(s State, player int, dir dirqueue.Direction) State {
	sn, ok := s.snakes[player]
	if !ok || !dir.Valid() || dir == sn.heading.Opposite() {
		return s
	}
	sn.heading = dir
	return s.with(player, sn)
}

// Step advances every snake one cell along its heading. It panics on a State
// that did not come from New.
func Step(s State) State {
	s.mustHaveGrid()
	if len(s.snakes) == 0 {
		return s
	}

	next := s.clone()
	for player, sn := range s.snakes {
		sn.head = s.wrap(advance(sn.head, sn.heading))
		next.snakes[player] = sn
	}
	return next
}

// Head returns the cell player's snake occupies.
func Head(s State, player int) (Point, bool) {
	sn, ok := s.snakes[player]
	return sn.head, ok
}

// Heading returns the direction player's snake is moving in.
func Heading(s State, player int) (dirqueue.Direction, bool) {
	sn, ok := s.snakes[player]
	return sn.heading, ok
}

// Heads returns every snake's head keyed by player.
func Heads(s State) map[int]Point {
	heads := make(map[int]Point, len(s.snakes))
	for player, sn := range s.snakes {
		heads[player] = sn.head
	}
	return heads
}

// Players returns every spawned player, ascending.
func Players(s State) []int {
	players := make([]int, 0, len(s.snakes))
	for p := range s.snakes {
		players = append(players, p)
	}
	sort.Ints(players)
	return players
}

func advance(p Point, d dirqueue.Direction) Point {
	switch d {
	case dirqueue.Up:
		p.Y--
	case dirqueue.Down:
		p.Y++
	case dirqueue.Left:
		p.X--
	case dirqueue.Right:
		p.X++
	}
	return p
}

func (s State) wrap(p Point) Point {
	return Point{X: mod(p.X, s.width), Y: mod(p.Y, s.height)}
}

func mod(a, n int) int {
	return ((a % n) + n) % n
}

// mustHaveGrid guards against a zero State built without New.
func (s State) mustHaveGrid() {
	if s.width <= 0 || s.height <= 0 {
		panic(fmt.Errorf("%w: state has a %dx%d grid, use New", ErrInvalidGrid, s.width, s.height))
	}
}

func (s State) clone() State {
	snakes := make(map[int]snake, len(s.snakes)+1)
	for p, sn := range s.snakes {
		snakes[p] = sn
	}
	return State{width: s.width, height: s.height, snakes: snakes}
}

func (s State) with(player int, sn snake) State {
	next := s.clone()
	next.snakes[player] = sn
	return next
}

type wireSnake struct {
	Player  int                `msgpack:"player"`
	Head    Point              `msgpack:"head"`
	Heading dirqueue.Direction `msgpack:"heading"`
}

type wireState struct {
	Width  int         `msgpack:"width"`
	Height int         `msgpack:"height"`
	Snakes []wireSnake `msgpack:"snakes"`
}

// MarshalBinary encodes s so it can be carried inside a message. Snakes are
// written in player order, so equal states encode to equal bytes.
func (s State) MarshalBinary() ([]byte, error) {
	wire := wireState{Width: s.width, Height: s.height}
	for _, p := range Players(s) {
		sn := s.snakes[p]
		wire.Snakes = append(wire.Snakes, wireSnake{Player: p, Head: sn.head, Heading: sn.heading})
	}
	return msgpack.Marshal(wire)
}

// UnmarshalBinary restores a State written by MarshalBinary. An empty grid
// or a head outside the grid is rejected.
func (s *State) UnmarshalBinary(data []byte) error {
	var wire wireState
	if err := msgpack.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("motion: decode state: %w", err)
	}
	if wire.Width <= 0 || wire.Height <= 0 {
		return fmt.Errorf("%w: got %dx%d", ErrInvalidGrid, wire.Width, wire.Height)
	}

	next := State{width: wire.Width, height: wire.Height}
	if len(wire.Snakes) > 0 {
		next.snakes = make(map[int]snake, len(wire.Snakes))
	}
	for _, w := range wire.Snakes {
		if w.Head != next.wrap(w.Head) {
			return fmt.Errorf("motion: player %d head %s is off the %dx%d grid", w.Player, w.Head, wire.Width, wire.Height)
		}
		heading := w.Heading
		if !heading.Valid() {
			heading = dirqueue.None
		}
		next.snakes[w.Player] = snake{head: w.Head, heading: heading}
	}
	*s = next
	return nil
}
