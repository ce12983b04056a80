package snake

import (
	"fmt"

	"github.com/nfrund/shellrt/internal/actor"
	"github.com/nfrund/shellrt/internal/core/dirqueue"
	"github.com/nfrund/shellrt/internal/core/motion"
	"github.com/nfrund/shellrt/internal/pubsub"
	"github.com/nfrund/shellrt/internal/runtime"
	"github.com/nfrund/shellrt/internal/timer"
)

// GameState is the game actor's state. Each field is a module state only its
// own package can build or read.
type GameState struct {
	Directions dirqueue.State
	Motion     motion.State
	Tick       uint64
}

// NewGameState spawns cfg.Players snakes spread along the middle row, all
// heading right.
func NewGameState(cfg Config) (GameState, error) {
	m, err := motion.New(cfg.Width, cfg.Height)
	if err != nil {
		return GameState{}, err
	}
	for p := 1; p <= cfg.Players; p++ {
		at := motion.Point{X: p * cfg.Width / (cfg.Players + 1), Y: cfg.Height / 2}
		m = motion.Spawn(m, p, at, dirqueue.Right)
	}
	return GameState{Directions: dirqueue.New(), Motion: m}, nil
}

// Enqueue buffers a direction change until the next step.
func Enqueue(gs GameState, msg DirectionMsg) GameState {
	gs.Directions = dirqueue.Push(gs.Directions, msg.PlayerID, msg.Direction)
	return gs
}

// Advance runs one game step: each player's next buffered direction, if any,
// is applied, then every snake moves one cell.
func Advance(gs GameState) GameState {
	for _, player := range motion.Players(gs.Motion) {
		var dir dirqueue.Direction
		var ok bool
		gs.Directions, dir, ok = dirqueue.TryConsumeNext(gs.Directions, player)
		if ok {
			gs.Motion = motion.Steer(gs.Motion, player, dir)
		}
	}
	gs.Motion = motion.Step(gs.Motion)
	gs.Tick++
	return gs
}

// Snapshot builds the update published after a step.
func Snapshot(gs GameState) StateUpdate {
	return StateUpdate{Tick: gs.Tick, Heads: motion.Heads(gs.Motion)}
}

func newGame(rt *runtime.Runtime, cfg Config, topics Topics) (*actor.Actor[GameState], error) {
	initial, err := NewGameState(cfg)
	if err != nil {
		return nil, err
	}

	input, err := runtime.Subscribe(rt, topics.Direction)
	if err != nil {
		return nil, err
	}
	updates, err := runtime.Publisher(rt, topics.StateUpdate)
	if err != nil {
		return nil, err
	}
	tick, err := rt.Every(ModuleName+".tick", cfg.TickInterval)
	if err != nil {
		return nil, err
	}

	return actor.New(ModuleName+".game", initial, []actor.Binding[GameState]{
		actor.OnMessage(input, onDirection),
		actor.OnElapsed(tick, onTick(updates)),
	}, rt.ActorOptions()...)
}

func onDirection(_ actor.Context, gs GameState, msg DirectionMsg) (GameState, error) {
	return Enqueue(gs, msg), nil
}

// onTick steps once per elapsed deadline, so coalesced ticks still keep game
// time in line with the clock. One update is published per event.
func onTick(updates *pubsub.Publisher[StateUpdate]) actor.Reducer[GameState, timer.Elapsed] {
	return func(ctx actor.Context, gs GameState, ev timer.Elapsed) (GameState, error) {
		for i := 0; i <= ev.Missed; i++ {
			gs = Advance(gs)
		}
		if ev.Missed > 0 {
			ctx.Logger.Debug("Caught up on missed ticks", "missed", ev.Missed, "tick", gs.Tick)
		}

		if err := updates.Publish(ctx, Snapshot(gs)); err != nil {
			return gs, fmt.Errorf("publish state update: %w", err)
		}
		return gs, nil
	}
}
