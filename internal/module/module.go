package module

import (
	"context"

	"github.com/nfrund/shellrt/internal/runtime"
)

// Module defines the contract for a self-contained application feature: a
// set of topics plus the actors that own its state.
type Module interface {
	// Name returns a unique identifier for the module.
	Name() string

	// Register is called during startup to register the module's topics with
	// the runtime. Every module registers before any module boots, so topics
	// from other modules can be resolved in Boot.
	Register(rt *runtime.Runtime) error

	// Boot is called after all modules have registered. This is the phase for
	// creating subscriptions, timers and actors and spawning them.
	Boot(ctx context.Context, rt *runtime.Runtime) error

	// Shutdown is called during graceful shutdown, before the runtime stops
	// its actors.
	Shutdown(ctx context.Context) error
}

// BaseModule provides default no-op implementations for Module methods.
// Modules can embed this to avoid implementing methods they don't need.
type BaseModule struct{}

func (m *BaseModule) Register(rt *runtime.Runtime) error { return nil }
func (m *BaseModule) Boot(ctx context.Context, rt *runtime.Runtime) error {
	return nil
}
func (m *BaseModule) Shutdown(ctx context.Context) error {
	return nil
}
