package actor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Status is an actor's lifecycle state. Running is entered on construction;
// Stopped is terminal.
type Status int32

const (
	// StatusRunning means the actor accepts and processes inputs
	StatusRunning Status = iota

	// StatusStopped means no further reducer calls will occur
	StatusStopped
)

// String returns the string representation of Status.
func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

var (
	// ErrStopped is returned by ProcessInputs on a stopped actor.
	ErrStopped = errors.New("actor stopped")

	// ErrAlreadyRunning is returned when Run is called twice.
	ErrAlreadyRunning = errors.New("actor already running")

	// ErrInvalidBinding marks a configuration error in New.
	ErrInvalidBinding = errors.New("invalid actor binding")
)

// ActorError reports a fatal failure inside an actor: a reducer returned an
// error or panicked. The actor is stopped when it is produced.
type ActorError struct {
	ActorID   string
	ActorName string
	Source    string
	Err       error
}

func (e *ActorError) Error() string {
	return fmt.Sprintf("actor %s (%s) failed handling %s: %v", e.ActorName, e.ActorID, e.Source, e.Err)
}

func (e *ActorError) Unwrap() error {
	return e.Err
}

// PanicError carries a recovered panic from a reducer.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Context is handed to every reducer call. It carries the actor's identity,
// the input source, and a logger; the embedded context is the one publishes
// made from the reducer should use.
type Context struct {
	context.Context

	ActorID   string
	ActorName string
	// Source is the name of the subscription or timer the input came from.
	Source string
	Logger *slog.Logger
}

// Runnable is what a scheduler knows about an actor. It never sees the
// actor's state type.
type Runnable interface {
	ID() string
	Name() string
	// Run processes inputs until the actor is stopped or ctx is done.
	Run(ctx context.Context) error
	Stop()
	Status() Status
	// Err returns the fatal error that stopped the actor, if any.
	Err() error
	Stats() Stats
}

// Stats contains runtime statistics for an actor.
type Stats struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Status          Status    `json:"status"`
	InputsProcessed uint64    `json:"inputs_processed"`
	Pending         int       `json:"pending"`
	CreatedAt       time.Time `json:"created_at"`
	LastInputAt     time.Time `json:"last_input_at"`
}
