package topics

import (
	"context"
	"io"
	"log/slog"

	"github.com/nfrund/shellrt/internal/app"
	"github.com/nfrund/shellrt/internal/config"
	"github.com/nfrund/shellrt/internal/topicmgr"
)

// Initialize wires the application and registers every module's topics
// without booting any actor, then returns the populated registry.
func Initialize() (*topicmgr.Manager, error) {
	// Keep the CLI quiet; only the command's own output matters here.
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))

	cfg, err := config.New()
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = "error"

	application, err := app.New(cfg, app.Options{})
	if err != nil {
		return nil, err
	}
	// The registry stays readable after the runtime has shut down.
	defer func() { _ = application.Shutdown(context.Background()) }()

	if err := application.Register(); err != nil {
		return nil, err
	}
	return application.Runtime.Topics(), nil
}
