// Package actor hosts one piece of mutable state behind a single-threaded
// execution context. An actor advances its state only by running reducers on
// inputs it drains from its own subscriptions and timers.
package actor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Option configures an actor.
type Option func(*options)

type options struct {
	logger *slog.Logger
	tracer trace.Tracer
}

// WithLogger sets the base logger; the actor adds its name and ID.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithTracer records a span for every processed input.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) {
		o.tracer = tracer
	}
}

// Actor owns a state value of type S. Only its own turns read or replace it.
type Actor[S any] struct {
	id        string
	name      string
	createdAt time.Time
	logger    *slog.Logger
	tracer    trace.Tracer

	// turn serializes ProcessInputs and guards state.
	turn     sync.Mutex
	state    S
	bindings []Binding[S]

	wake     chan struct{}
	stopCh   chan struct{}
	stopOnce sync.Once
	started  atomic.Bool
	status   atomic.Int32

	errMu sync.Mutex
	err   error

	processed   atomic.Uint64
	lastInputAt atomic.Int64
}

var _ Runnable = (*Actor[struct{}])(nil)

// New creates a running actor with its initial state and input bindings.
// Message subscriptions are always drained before timers; within each group
// the declaration order is kept.
func New[S any](name string, initial S, bindings []Binding[S], opts ...Option) (*Actor[S], error) {
	if len(bindings) == 0 {
		return nil, fmt.Errorf("%w: actor %q has no inputs", ErrInvalidBinding, name)
	}
	for i, b := range bindings {
		if b == nil || !b.valid() {
			return nil, fmt.Errorf("%w: actor %q input %d is missing its source or reducer", ErrInvalidBinding, name, i)
		}
	}

	o := options{
		logger: slog.Default(),
		tracer: noop.NewTracerProvider().Tracer("shellrt-actor"),
	}
	for _, opt := range opts {
		opt(&o)
	}

	ordered := make([]Binding[S], len(bindings))
	copy(ordered, bindings)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].kind() < ordered[j].kind()
	})

	id := uuid.NewString()
	a := &Actor[S]{
		id:        id,
		name:      name,
		createdAt: time.Now(),
		logger:    o.logger.With("actor", name, "actor_id", id),
		tracer:    o.tracer,
		state:     initial,
		bindings:  ordered,
		wake:      make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
	}
	a.status.Store(int32(StatusRunning))

	for _, b := range ordered {
		b.setNotify(a.signal)
	}
	return a, nil
}

// ID returns the actor's unique identifier.
func (a *Actor[S]) ID() string {
	return a.id
}

// Name returns the actor's diagnostic name.
func (a *Actor[S]) Name() string {
	return a.name
}

// Status returns the current lifecycle state.
func (a *Actor[S]) Status() Status {
	return Status(a.status.Load())
}

// Err returns the fatal error that stopped the actor, or nil.
func (a *Actor[S]) Err() error {
	a.errMu.Lock()
	defer a.errMu.Unlock()
	return a.err
}

// signal marks the actor as having possibly pending input. It never blocks.
func (a *Actor[S]) signal() {
	select {
	case a.wake <- struct{}{}:
	default:
	}
}

// Run is the actor's execution context. It waits until some input may be
// pending, processes it, and repeats until the actor stops or ctx is done.
// It returns the actor's fatal error, or nil after a clean stop.
func (a *Actor[S]) Run(ctx context.Context) error {
	if !a.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	a.logger.Debug("Actor started", "inputs", len(a.bindings))
	defer a.logger.Debug("Actor loop ended")

	// Inputs may have queued between construction and Run.
	a.signal()

	for {
		select {
		case <-ctx.Done():
			a.Stop()
			return a.Err()
		case <-a.stopCh:
			return a.Err()
		case <-a.wake:
			if err := a.ProcessInputs(ctx); err != nil {
				if errors.Is(err, ErrStopped) {
					return a.Err()
				}
				return err
			}
		}
	}
}

// ProcessInputs runs one scheduling turn: each binding, in order, is drained
// of the inputs that were pending when its turn began. It is not reentrant;
// concurrent calls run one after the other. A reducer failure stops the actor
// and is returned as an *ActorError.
func (a *Actor[S]) ProcessInputs(ctx context.Context) error {
	a.turn.Lock()
	defer a.turn.Unlock()

	if a.Status() == StatusStopped {
		if err := a.Err(); err != nil {
			return err
		}
		return ErrStopped
	}

	for _, b := range a.bindings {
		budget := b.pending()
		for i := 0; i < budget; i++ {
			if a.Status() == StatusStopped {
				return nil
			}
			took, err := a.step(ctx, b)
			if err != nil {
				return a.fail(b.Name(), err)
			}
			if !took {
				break
			}
		}
	}
	return nil
}

func (a *Actor[S]) step(ctx context.Context, b Binding[S]) (took bool, err error) {
	ctx, span := a.tracer.Start(ctx, "actor.process."+b.Name(),
		trace.WithAttributes(
			attribute.String("actor.name", a.name),
			attribute.String("actor.id", a.id),
			attribute.String("actor.source", b.Name()),
		),
	)
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	rctx := Context{
		Context:   ctx,
		ActorID:   a.id,
		ActorName: a.name,
		Source:    b.Name(),
		Logger:    a.logger,
	}

	next, took, err := b.apply(rctx, a.state)
	if err != nil || !took {
		return took, err
	}

	a.state = next
	a.processed.Add(1)
	a.lastInputAt.Store(time.Now().UnixNano())
	return true, nil
}

func (a *Actor[S]) fail(source string, err error) error {
	actorErr := &ActorError{
		ActorID:   a.id,
		ActorName: a.name,
		Source:    source,
		Err:       err,
	}

	a.errMu.Lock()
	a.err = actorErr
	a.errMu.Unlock()

	a.logger.Error("Actor failed, stopping", "source", source, "error", err)
	a.Stop()
	return actorErr
}

// Stop moves the actor to Stopped. It is idempotent and safe to call while a
// turn is in progress: the input being handled completes, nothing after it
// runs. Inputs still queued are left undelivered.
func (a *Actor[S]) Stop() {
	a.stopOnce.Do(func() {
		a.status.Store(int32(StatusStopped))
		close(a.stopCh)
		for _, b := range a.bindings {
			b.detach()
		}
		a.logger.Debug("Actor stopped")
	})
}

// Snapshot returns a copy of the current state taken between inputs. It exists
// for the owning shell and tests; it is never handed to another actor.
func (a *Actor[S]) Snapshot() S {
	a.turn.Lock()
	defer a.turn.Unlock()
	return a.state
}

// Stats returns current runtime statistics for this actor.
func (a *Actor[S]) Stats() Stats {
	pending := 0
	for _, b := range a.bindings {
		pending += b.pending()
	}

	var lastInputAt time.Time
	if ns := a.lastInputAt.Load(); ns > 0 {
		lastInputAt = time.Unix(0, ns)
	}

	return Stats{
		ID:              a.id,
		Name:            a.name,
		Status:          a.Status(),
		InputsProcessed: a.processed.Load(),
		Pending:         pending,
		CreatedAt:       a.createdAt,
		LastInputAt:     lastInputAt,
	}
}
