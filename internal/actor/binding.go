package actor

import (
	"github.com/nfrund/shellrt/internal/pubsub"
	"github.com/nfrund/shellrt/internal/timer"
)

// Reducer advances an actor's state by one input. It receives the current
// state and returns the replacement. Reducers usually delegate to pure core
// functions; any publishing they do completes before they return. A non-nil
// error is a fatal defect for the actor.
type Reducer[S, T any] func(ctx Context, state S, in T) (S, error)

type sourceKind int

const (
	sourceMessage sourceKind = iota
	sourceTimer
)

// Binding connects one input source of an actor to the reducer that handles
// it. Bindings are created with OnMessage and OnElapsed.
type Binding[S any] interface {
	// Name identifies the source for logs and traces.
	Name() string

	kind() sourceKind
	pending() int
	// apply takes one input, if any, and runs the reducer on it.
	apply(ctx Context, state S) (S, bool, error)
	setNotify(fn func())
	detach()
	valid() bool
}

// OnMessage handles each message taken from sub with fn.
func OnMessage[S, T any](sub *pubsub.Subscription[T], fn Reducer[S, T]) Binding[S] {
	return &messageBinding[S, T]{sub: sub, fn: fn}
}

// OnElapsed handles each event taken from t with fn.
func OnElapsed[S any](t *timer.Timer, fn Reducer[S, timer.Elapsed]) Binding[S] {
	return &timerBinding[S]{timer: t, fn: fn}
}

type messageBinding[S, T any] struct {
	sub *pubsub.Subscription[T]
	fn  Reducer[S, T]
}

func (b *messageBinding[S, T]) Name() string     { return b.sub.Name() }
func (b *messageBinding[S, T]) kind() sourceKind { return sourceMessage }
func (b *messageBinding[S, T]) pending() int     { return b.sub.Len() }
func (b *messageBinding[S, T]) setNotify(fn func()) {
	b.sub.SetNotify(fn)
}
func (b *messageBinding[S, T]) detach()     { b.sub.Close() }
func (b *messageBinding[S, T]) valid() bool { return b.sub != nil && b.fn != nil }

func (b *messageBinding[S, T]) apply(ctx Context, state S) (S, bool, error) {
	msg, ok := b.sub.TryTake()
	if !ok {
		return state, false, nil
	}
	next, err := b.fn(ctx, state, msg)
	return next, true, err
}

type timerBinding[S any] struct {
	timer *timer.Timer
	fn    Reducer[S, timer.Elapsed]
}

func (b *timerBinding[S]) Name() string     { return b.timer.Name() }
func (b *timerBinding[S]) kind() sourceKind { return sourceTimer }
func (b *timerBinding[S]) pending() int     { return b.timer.Pending() }
func (b *timerBinding[S]) setNotify(fn func()) {
	b.timer.SetNotify(fn)
}
func (b *timerBinding[S]) detach()     { b.timer.Stop() }
func (b *timerBinding[S]) valid() bool { return b.timer != nil && b.fn != nil }

func (b *timerBinding[S]) apply(ctx Context, state S) (S, bool, error) {
	ev, ok := b.timer.TryTakeElapsedEvent()
	if !ok {
		return state, false, nil
	}
	next, err := b.fn(ctx, state, ev)
	return next, true, err
}
