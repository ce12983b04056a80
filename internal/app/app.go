package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/do/v2"

	"github.com/nfrund/shellrt/internal/config"
	"github.com/nfrund/shellrt/internal/module"
	"github.com/nfrund/shellrt/internal/modules/snake"
	"github.com/nfrund/shellrt/internal/pubsub"
	"github.com/nfrund/shellrt/internal/runtime"
)

// ShutdownTimeout bounds how long Run waits for actors after it stops.
const ShutdownTimeout = 10 * time.Second

// Application is the wired runtime plus the modules that run in it.
type Application struct {
	Logger  *slog.Logger
	Runtime *runtime.Runtime
	Modules []module.Module
	Snake   *snake.SnakeModule

	tracing *Tracing
	faults  *pubsub.Subscription[runtime.ActorFault]
	failed  []runtime.ActorFault
}

// New resolves every service from a fresh injector.
func New(cfg *config.Config, opts Options) (*Application, error) {
	i := NewInjector(cfg, opts)

	logger, err := do.Invoke[*slog.Logger](i)
	if err != nil {
		return nil, err
	}
	tracing, err := do.Invoke[*Tracing](i)
	if err != nil {
		return nil, fmt.Errorf("set up tracing: %w", err)
	}
	rt, err := do.Invoke[*runtime.Runtime](i)
	if err != nil {
		return nil, fmt.Errorf("create runtime: %w", err)
	}
	modules, err := do.Invoke[[]module.Module](i)
	if err != nil {
		return nil, fmt.Errorf("create modules: %w", err)
	}
	snakeModule, err := do.Invoke[*snake.SnakeModule](i)
	if err != nil {
		return nil, err
	}

	return &Application{
		Logger:  logger,
		Runtime: rt,
		Modules: modules,
		Snake:   snakeModule,
		tracing: tracing,
	}, nil
}

// Register registers every module's topics without booting anything. The
// topics CLI uses it to inspect the registry.
func (a *Application) Register() error {
	for _, m := range a.Modules {
		if err := m.Register(a.Runtime); err != nil {
			return fmt.Errorf("register module %s: %w", m.Name(), err)
		}
		a.Logger.Debug("Module registered", "module", m.Name())
	}
	return nil
}

// Start registers and boots every module, then starts the runtime. Faults
// are collected from the moment modules boot.
func (a *Application) Start(ctx context.Context) error {
	if err := a.Register(); err != nil {
		return err
	}
	if a.faults == nil {
		faults, err := runtime.Subscribe(a.Runtime, runtime.FaultTopic)
		if err != nil {
			return fmt.Errorf("subscribe to actor faults: %w", err)
		}
		a.faults = faults
	}
	for _, m := range a.Modules {
		if err := m.Boot(ctx, a.Runtime); err != nil {
			return fmt.Errorf("boot module %s: %w", m.Name(), err)
		}
	}
	return a.Runtime.Start(ctx)
}

// Run starts the application and blocks until ctx is done, the snake module
// reaches its tick limit, or an actor faults. It always shuts down before
// returning, even when Start fails, and reports the fault, if any.
func (a *Application) Run(ctx context.Context) error {
	if err := a.Start(ctx); err != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return errors.Join(err, a.Shutdown(shutdownCtx))
	}

	faults := make(chan error, 1)
	go func() { faults <- a.Runtime.Wait() }()

	var runErr error
	select {
	case <-ctx.Done():
		a.Logger.Info("Interrupted, shutting down")
	case <-a.Snake.Done():
		a.Logger.Info("Tick limit reached, shutting down")
	case err := <-faults:
		runErr = err
		a.collectFaults()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := a.Shutdown(shutdownCtx); err != nil {
		runErr = errors.Join(runErr, err)
	}
	return runErr
}

func (a *Application) collectFaults() {
	if a.faults == nil {
		return
	}
	for {
		fault, ok := a.faults.TryTake()
		if !ok {
			return
		}
		a.failed = append(a.failed, fault)
		a.Logger.Error("Actor fault",
			"actor", fault.ActorName,
			"actor_id", fault.ActorID,
			"source", fault.Source,
			"error", fault.Error,
		)
	}
}

// Faults returns the actor faults Run observed.
func (a *Application) Faults() []runtime.ActorFault {
	return a.failed
}

// Shutdown shuts modules down in reverse order, then the runtime, then
// flushes tracing.
func (a *Application) Shutdown(ctx context.Context) error {
	var errs []error
	for i := len(a.Modules) - 1; i >= 0; i-- {
		if err := a.Modules[i].Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown module %s: %w", a.Modules[i].Name(), err))
		}
	}
	if err := a.Runtime.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if a.faults != nil {
		a.faults.Close()
	}
	a.tracing.Cleanup()
	return errors.Join(errs...)
}
