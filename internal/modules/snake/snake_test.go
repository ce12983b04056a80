package snake

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/shellrt/internal/actor"
	"github.com/nfrund/shellrt/internal/core/dirqueue"
	"github.com/nfrund/shellrt/internal/core/motion"
	"github.com/nfrund/shellrt/internal/runtime"
)

func newRuntime(t *testing.T, opts ...runtime.Option) *runtime.Runtime {
	t.Helper()
	rt, err := runtime.New(opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = rt.Shutdown(ctx)
	})
	return rt
}

// bootOnMock boots the module on a mock clock without starting the runtime,
// so tests drive each actor's turns by hand.
func bootOnMock(t *testing.T, cfg Config) (*SnakeModule, *runtime.Runtime, *clock.Mock) {
	t.Helper()
	mock := clock.NewMock()
	rt := newRuntime(t, runtime.WithClock(mock))

	m, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, m.Register(rt))
	require.NoError(t, m.Boot(context.Background(), rt))
	return m, rt, mock
}

func TestDirectionReachesQueue(t *testing.T) {
	ctx := context.Background()
	m, rt, _ := bootOnMock(t, DefaultConfig())

	pub, err := runtime.Publisher(rt, m.topics.Direction)
	require.NoError(t, err)
	require.NoError(t, pub.Publish(ctx, DirectionMsg{PlayerID: 1, Direction: dirqueue.Up}))

	require.NoError(t, m.game.ProcessInputs(ctx))
	gs := m.Game()

	_, dir, ok := dirqueue.TryConsumeNext(gs.Directions, 1)
	require.True(t, ok)
	assert.Equal(t, dirqueue.Up, dir)

	_, _, ok = dirqueue.TryConsumeNext(gs.Directions, 2)
	assert.False(t, ok)
	assert.Equal(t, uint64(0), gs.Tick, "no tick has elapsed")
}

func TestTickStepsAndPublishes(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig()
	m, rt, mock := bootOnMock(t, cfg)

	pub, err := runtime.Publisher(rt, m.topics.Direction)
	require.NoError(t, err)
	require.NoError(t, pub.Publish(ctx, DirectionMsg{PlayerID: 1, Direction: dirqueue.Up}))

	before, _ := motion.Head(m.Game().Motion, 1)
	mock.Add(cfg.TickInterval)

	require.NoError(t, m.game.ProcessInputs(ctx))
	gs := m.Game()
	assert.Equal(t, uint64(1), gs.Tick)

	head, _ := motion.Head(gs.Motion, 1)
	assert.Equal(t, motion.Point{X: before.X, Y: before.Y - 1}, head, "direction is applied before the step")
	assert.Equal(t, 0, dirqueue.Pending(gs.Directions, 1))

	require.NoError(t, m.observer.ProcessInputs(ctx))
	seen := m.Observed()
	assert.Equal(t, uint64(1), seen.Updates)
	assert.Equal(t, uint64(1), seen.LastTick)
	assert.Equal(t, motion.Heads(gs.Motion), seen.Heads)
}

func TestCoalescedTicksCatchUp(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig()
	m, _, mock := bootOnMock(t, cfg)

	mock.Add(3 * cfg.TickInterval)
	require.NoError(t, m.game.ProcessInputs(ctx))
	assert.Equal(t, uint64(3), m.Game().Tick)

	require.NoError(t, m.observer.ProcessInputs(ctx))
	seen := m.Observed()
	assert.Equal(t, uint64(1), seen.Updates, "one event, one update")
	assert.Equal(t, uint64(3), seen.LastTick)
}

func TestBotDrivesGame(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig()
	m, _, mock := bootOnMock(t, cfg)

	// One bot move and one game tick are due.
	mock.Add(cfg.BotInterval)
	require.NoError(t, m.bot.ProcessInputs(ctx))
	assert.Equal(t, uint64(1), m.bot.Snapshot())

	require.NoError(t, m.game.ProcessInputs(ctx))
	gs := m.Game()

	h1, _ := motion.Heading(gs.Motion, 1)
	h2, _ := motion.Heading(gs.Motion, 2)
	assert.Equal(t, BotMove(1, 0), h1)
	assert.Equal(t, BotMove(2, 0), h2)
}

func TestStopWithQueuedDirection(t *testing.T) {
	ctx := context.Background()
	m, rt, _ := bootOnMock(t, DefaultConfig())

	pub, err := runtime.Publisher(rt, m.topics.Direction)
	require.NoError(t, err)
	require.NoError(t, pub.Publish(ctx, DirectionMsg{PlayerID: 1, Direction: dirqueue.Up}))

	m.game.Stop()
	assert.ErrorIs(t, m.game.ProcessInputs(ctx), actor.ErrStopped)
	assert.Equal(t, 0, dirqueue.Pending(m.Game().Directions, 1))
	assert.Equal(t, 1, m.game.Stats().Pending, "the message stays queued")
}

func TestRunToMaxTicks(t *testing.T) {
	rt := newRuntime(t)
	cfg := DefaultConfig()
	cfg.TickInterval = 5 * time.Millisecond
	cfg.BotInterval = 7 * time.Millisecond
	cfg.MaxTicks = 5

	m, err := New(cfg)
	require.NoError(t, err)
	require.NoError(t, m.Register(rt))

	ctx := context.Background()
	require.NoError(t, m.Boot(ctx, rt))
	require.NoError(t, rt.Start(ctx))

	select {
	case <-m.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("observer never reached MaxTicks")
	}

	require.NoError(t, m.Shutdown(ctx))
	shutdownCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, rt.Shutdown(shutdownCtx))
	require.NoError(t, rt.Wait())

	assert.GreaterOrEqual(t, m.Observed().Updates, cfg.MaxTicks)
	assert.GreaterOrEqual(t, m.Game().Tick, m.Observed().LastTick)
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no players", func(c *Config) { c.Players = 0 }},
		{"too many players", func(c *Config) { c.Players = 9 }},
		{"tiny grid", func(c *Config) { c.Width = 1 }},
		{"zero tick", func(c *Config) { c.TickInterval = 0 }},
		{"zero bot interval", func(c *Config) { c.BotInterval = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			_, err := New(cfg)
			assert.Error(t, err)
		})
	}
}

func TestAdvanceIsDeterministic(t *testing.T) {
	gs, err := NewGameState(DefaultConfig())
	require.NoError(t, err)
	gs = Enqueue(gs, DirectionMsg{PlayerID: 2, Direction: dirqueue.Down})

	a := Advance(gs)
	b := Advance(gs)
	assert.Equal(t, a, b)
	assert.Equal(t, uint64(0), gs.Tick, "input is never modified")
	assert.Equal(t, 1, dirqueue.Pending(gs.Directions, 2))

	assert.Equal(t, Snapshot(a), Snapshot(b))
	assert.Equal(t, BotMove(3, 7), BotMove(3, 7))
}
