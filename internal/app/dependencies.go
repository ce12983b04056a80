package app

import (
	"context"
	"log/slog"

	"github.com/samber/do/v2"
	"go.opentelemetry.io/otel/trace"

	"github.com/nfrund/shellrt/internal/config"
	"github.com/nfrund/shellrt/internal/logging"
	"github.com/nfrund/shellrt/internal/pubsub"
	"github.com/nfrund/shellrt/internal/runtime"
)

// Options are settings that come from the command line rather than the
// environment.
type Options struct {
	// MaxTicks stops the application after that many game updates. Zero
	// means run until interrupted.
	MaxTicks uint64
}

// Tracing is the tracer shared by the bus and every actor, with the function
// that flushes it.
type Tracing struct {
	Tracer  trace.Tracer
	Cleanup func()
}

// NewInjector wires the core services. Modules are provided in modules.go.
func NewInjector(cfg *config.Config, opts Options) do.Injector {
	i := do.New()

	do.ProvideValue(i, cfg)
	do.ProvideValue(i, opts)
	do.Provide(i, provideLogger)
	do.Provide(i, provideTracing)
	do.Provide(i, provideRuntime)
	provideModules(i)

	return i
}

func provideLogger(i do.Injector) (*slog.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return logging.New(cfg.LogFormat, cfg.LogLevel), nil
}

func provideTracing(i do.Injector) (*Tracing, error) {
	cfg := do.MustInvoke[*config.Config](i)
	tracer, cleanup, err := pubsub.SetupOTel(context.Background(), cfg.Tracing)
	if err != nil {
		return nil, err
	}
	return &Tracing{Tracer: tracer, Cleanup: cleanup}, nil
}

func provideRuntime(i do.Injector) (*runtime.Runtime, error) {
	cfg := do.MustInvoke[*config.Config](i)
	logger := do.MustInvoke[*slog.Logger](i)
	tracing := do.MustInvoke[*Tracing](i)

	return runtime.New(
		runtime.WithLogger(logger),
		runtime.WithTracer(tracing.Tracer),
		runtime.WithSubscriptionDefaults(cfg.SubscriptionDefaults()),
		runtime.WithCatchUp(cfg.CatchUpPolicy()),
	)
}
