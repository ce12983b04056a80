// Package runtime owns everything actors share within one process: the topic
// registry, the message bus, the clock timers run on, and the set of actors
// it schedules. Nothing here is global; every Runtime is independent.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"

	"github.com/nfrund/shellrt/internal/actor"
	"github.com/nfrund/shellrt/internal/pubsub"
	"github.com/nfrund/shellrt/internal/timer"
	"github.com/nfrund/shellrt/internal/topicmgr"
)

var (
	// ErrAlreadyStarted is returned by a second call to Start.
	ErrAlreadyStarted = errors.New("runtime already started")

	// ErrShutdown is returned when spawning into a runtime that is shutting down.
	ErrShutdown = errors.New("runtime shut down")

	// ErrActorNotFound is returned by Stop for an unknown actor ID.
	ErrActorNotFound = errors.New("actor not found")

	// ErrDuplicateActor is returned when the same actor is spawned twice.
	ErrDuplicateActor = errors.New("actor already spawned")
)

// Option configures a Runtime.
type Option func(*Runtime)

// WithClock sets the clock timers are created on. Tests pass a mock.
func WithClock(clk clock.Clock) Option {
	return func(rt *Runtime) {
		rt.clock = clk
	}
}

// WithLogger sets the runtime's logger. Actors and the bus derive theirs from it.
func WithLogger(logger *slog.Logger) Option {
	return func(rt *Runtime) {
		rt.logger = logger
	}
}

// WithTracer sets the tracer used for publish and per-input spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(rt *Runtime) {
		rt.tracer = tracer
	}
}

// WithSubscriptionDefaults sets the queue options Subscribe starts from.
func WithSubscriptionDefaults(defaults pubsub.SubscriptionOptions) Option {
	return func(rt *Runtime) {
		rt.subDefaults = defaults
	}
}

// WithCatchUp sets the catch-up policy for periodic timers created by Every.
func WithCatchUp(policy timer.CatchUpPolicy) Option {
	return func(rt *Runtime) {
		rt.catchUp = policy
	}
}

// Runtime schedules actors, each on its own goroutine, and owns the shared
// structures they communicate through.
type Runtime struct {
	topics      *topicmgr.Manager
	bus         *pubsub.Bus
	clock       clock.Clock
	logger      *slog.Logger
	tracer      trace.Tracer
	subDefaults pubsub.SubscriptionOptions
	catchUp     timer.CatchUpPolicy
	faults      *pubsub.Publisher[ActorFault]

	mu       sync.Mutex
	actors   map[string]actor.Runnable
	order    []string
	group    *errgroup.Group
	groupCtx context.Context
	cancel   context.CancelFunc
	started  bool
	shutdown bool
}

// New creates a runtime with its own topic registry and bus.
func New(opts ...Option) (*Runtime, error) {
	rt := &Runtime{
		clock:  clock.New(),
		logger: slog.Default(),
		tracer: noop.NewTracerProvider().Tracer("shellrt-runtime"),
		actors: make(map[string]actor.Runnable),
	}
	for _, opt := range opts {
		opt(rt)
	}

	if err := validator.New().Struct(rt.subDefaults); err != nil {
		return nil, fmt.Errorf("invalid subscription defaults: %w", err)
	}

	rt.logger = rt.logger.With("component", "runtime")
	rt.topics = topicmgr.NewManager()
	rt.bus = pubsub.NewBus(rt.topics,
		pubsub.WithLogger(rt.logger),
		pubsub.WithTracer(rt.tracer),
	)

	faultTopic, err := topicmgr.Register(rt.topics, FaultTopic)
	if err != nil {
		return nil, fmt.Errorf("register fault topic: %w", err)
	}
	if rt.faults, err = pubsub.CreatePublisher(rt.bus, faultTopic); err != nil {
		return nil, err
	}

	return rt, nil
}

// Topics returns the runtime's topic registry.
func (rt *Runtime) Topics() *topicmgr.Manager {
	return rt.topics
}

// Bus returns the runtime's message bus.
func (rt *Runtime) Bus() *pubsub.Bus {
	return rt.bus
}

// Clock returns the clock timers are created on.
func (rt *Runtime) Clock() clock.Clock {
	return rt.clock
}

// Logger returns the runtime's logger.
func (rt *Runtime) Logger() *slog.Logger {
	return rt.logger
}

// Tracer returns the runtime's tracer.
func (rt *Runtime) Tracer() trace.Tracer {
	return rt.tracer
}

// ActorOptions returns the options an actor built for this runtime should
// use so its logs and spans line up with the rest of the runtime.
func (rt *Runtime) ActorOptions() []actor.Option {
	return []actor.Option{
		actor.WithLogger(rt.logger),
		actor.WithTracer(rt.tracer),
	}
}

// Every creates a periodic timer on the runtime's clock using the runtime's
// catch-up policy unless opts override it.
func (rt *Runtime) Every(name string, interval time.Duration, opts ...timer.Option) (*timer.Timer, error) {
	opts = append([]timer.Option{timer.WithCatchUp(rt.catchUp)}, opts...)
	return timer.New(rt.clock, name, timer.Every(interval), opts...)
}

// Once creates a one-shot timer that fires delay from now.
func (rt *Runtime) Once(name string, delay time.Duration) (*timer.Timer, error) {
	return timer.New(rt.clock, name, timer.After(delay))
}

// At creates a one-shot timer that fires at deadline.
func (rt *Runtime) At(name string, deadline time.Time) (*timer.Timer, error) {
	return timer.New(rt.clock, name, timer.At(deadline))
}

// Spawn registers an actor. Before Start it waits to be launched with the
// rest; after Start it is launched immediately.
func (rt *Runtime) Spawn(r actor.Runnable) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if rt.shutdown {
		return ErrShutdown
	}
	if _, exists := rt.actors[r.ID()]; exists {
		return fmt.Errorf("%w: %s (%s)", ErrDuplicateActor, r.Name(), r.ID())
	}

	rt.actors[r.ID()] = r
	rt.order = append(rt.order, r.ID())
	rt.logger.Debug("Actor spawned", "actor", r.Name(), "actor_id", r.ID())

	if rt.started {
		rt.launchLocked(r)
	}
	return nil
}

// Start launches every spawned actor. An actor's fatal error cancels the
// shared context, which stops all other actors; the runtime never restarts
// anything. Use Wait to collect the fault.
func (rt *Runtime) Start(ctx context.Context) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if rt.shutdown {
		return ErrShutdown
	}
	if rt.started {
		return ErrAlreadyStarted
	}

	ctx, rt.cancel = context.WithCancel(ctx)
	rt.group, rt.groupCtx = errgroup.WithContext(ctx)
	rt.started = true

	for _, id := range rt.order {
		rt.launchLocked(rt.actors[id])
	}
	rt.logger.Info("Runtime started", "actors", len(rt.order))
	return nil
}

func (rt *Runtime) launchLocked(r actor.Runnable) {
	ctx := rt.groupCtx
	rt.group.Go(func() error {
		err := r.Run(ctx)
		if err == nil {
			return nil
		}
		rt.reportFault(r, err)
		return err
	})
}

func (rt *Runtime) reportFault(r actor.Runnable, err error) {
	rt.logger.Error("Actor terminated with fault", "actor", r.Name(), "actor_id", r.ID(), "error", err)

	fault := ActorFault{
		ActorID:   r.ID(),
		ActorName: r.Name(),
		Error:     err.Error(),
		At:        rt.clock.Now(),
	}
	var actorErr *actor.ActorError
	if errors.As(err, &actorErr) {
		fault.Source = actorErr.Source
	}

	if pubErr := rt.faults.Publish(context.Background(), fault); pubErr != nil && !errors.Is(pubErr, pubsub.ErrBusClosed) {
		rt.logger.Warn("Failed to publish actor fault", "error", pubErr)
	}
}

// Wait blocks until every launched actor has returned and reports the first
// fault, if any. It returns nil immediately if Start was never called.
func (rt *Runtime) Wait() error {
	rt.mu.Lock()
	group := rt.group
	rt.mu.Unlock()

	if group == nil {
		return nil
	}
	return group.Wait()
}

// Stop stops a single actor. Its queued inputs stay undelivered.
func (rt *Runtime) Stop(id string) error {
	rt.mu.Lock()
	r, ok := rt.actors[id]
	rt.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrActorNotFound, id)
	}
	r.Stop()
	return nil
}

// Shutdown stops every actor, waits for them to return (bounded by ctx), and
// closes the bus. Actor faults are not returned here; see Wait.
func (rt *Runtime) Shutdown(ctx context.Context) error {
	rt.mu.Lock()
	if rt.shutdown {
		rt.mu.Unlock()
		return nil
	}
	rt.shutdown = true
	actors := make([]actor.Runnable, 0, len(rt.order))
	for _, id := range rt.order {
		actors = append(actors, rt.actors[id])
	}
	group, cancel := rt.group, rt.cancel
	rt.mu.Unlock()

	rt.logger.Info("Runtime shutting down", "actors", len(actors))
	for _, r := range actors {
		r.Stop()
	}
	if cancel != nil {
		cancel()
	}

	if group != nil {
		done := make(chan struct{})
		go func() {
			_ = group.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			return fmt.Errorf("waiting for actors: %w", ctx.Err())
		}
	}

	if err := rt.bus.Close(); err != nil {
		return fmt.Errorf("close bus: %w", err)
	}
	rt.logger.Info("Runtime stopped")
	return nil
}

// Actors returns statistics for every spawned actor in spawn order.
func (rt *Runtime) Actors() []actor.Stats {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	stats := make([]actor.Stats, 0, len(rt.order))
	for _, id := range rt.order {
		stats = append(stats, rt.actors[id].Stats())
	}
	return stats
}
