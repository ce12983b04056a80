package snake

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/nfrund/shellrt/internal/actor"
	"github.com/nfrund/shellrt/internal/module"
	"github.com/nfrund/shellrt/internal/runtime"
)

// ModuleName is the snake module's name and topic prefix.
const ModuleName = "snake"

// Config holds the game settings.
type Config struct {
	Players      int           `validate:"min=1,max=8"`
	Width        int           `validate:"min=2"`
	Height       int           `validate:"min=2"`
	TickInterval time.Duration `validate:"gt=0"`
	BotInterval  time.Duration `validate:"gt=0"`
	// MaxTicks closes Done once the observer has seen that many updates.
	// Zero means run until shut down.
	MaxTicks uint64
}

// DefaultConfig returns a small two-player game.
func DefaultConfig() Config {
	return Config{
		Players:      2,
		Width:        20,
		Height:       10,
		TickInterval: 200 * time.Millisecond,
		BotInterval:  350 * time.Millisecond,
	}
}

// SnakeModule implements the module.Module interface. It hosts three actors:
// the game, which owns the board; a bot, which plays for every player; and
// an observer, which follows the published state.
type SnakeModule struct {
	module.BaseModule

	cfg    Config
	topics Topics

	game     *actor.Actor[GameState]
	bot      *actor.Actor[uint64]
	observer *actor.Actor[ObserverState]

	done     chan struct{}
	doneOnce sync.Once
}

// New creates a new instance of the SnakeModule.
func New(cfg Config) (*SnakeModule, error) {
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid snake config: %w", err)
	}
	return &SnakeModule{cfg: cfg, done: make(chan struct{})}, nil
}

// Name returns the unique name for the module.
func (m *SnakeModule) Name() string {
	return ModuleName
}

// Register registers the snake topics.
func (m *SnakeModule) Register(rt *runtime.Runtime) error {
	topics, err := RegisterTopics(rt)
	if err != nil {
		return fmt.Errorf("register snake topics: %w", err)
	}
	m.topics = topics
	return nil
}

// Boot builds the actors and spawns them into the runtime.
func (m *SnakeModule) Boot(ctx context.Context, rt *runtime.Runtime) error {
	var err error
	if m.game, err = newGame(rt, m.cfg, m.topics); err != nil {
		return fmt.Errorf("create game actor: %w", err)
	}
	if m.bot, err = newBot(rt, m.cfg, m.topics); err != nil {
		return fmt.Errorf("create bot actor: %w", err)
	}
	if m.observer, err = newObserver(rt, m.topics, m.checkDone); err != nil {
		return fmt.Errorf("create observer actor: %w", err)
	}

	for _, a := range []actor.Runnable{m.observer, m.game, m.bot} {
		if err := rt.Spawn(a); err != nil {
			return err
		}
	}

	slog.Info("Snake module booted",
		"players", m.cfg.Players,
		"grid", fmt.Sprintf("%dx%d", m.cfg.Width, m.cfg.Height),
		"tick", m.cfg.TickInterval,
	)
	return nil
}

// Shutdown stops the bot first so no input arrives for a game that is going
// away. The runtime stops the rest.
func (m *SnakeModule) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down snake module...")
	if m.bot != nil {
		m.bot.Stop()
	}
	return nil
}

func (m *SnakeModule) checkDone(s ObserverState) {
	if m.cfg.MaxTicks > 0 && s.Updates >= m.cfg.MaxTicks {
		m.doneOnce.Do(func() { close(m.done) })
	}
}

// Done is closed once the observer has seen MaxTicks updates. It is never
// closed when MaxTicks is zero.
func (m *SnakeModule) Done() <-chan struct{} {
	return m.done
}

// Game returns a copy of the game state. Only valid after Boot.
func (m *SnakeModule) Game() GameState {
	return m.game.Snapshot()
}

// Observed returns what the observer has seen. Only valid after Boot.
func (m *SnakeModule) Observed() ObserverState {
	return m.observer.Snapshot()
}
