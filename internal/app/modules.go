package app

import (
	"github.com/samber/do/v2"

	"github.com/nfrund/shellrt/internal/config"
	"github.com/nfrund/shellrt/internal/module"
	"github.com/nfrund/shellrt/internal/modules/snake"
)

func provideModules(i do.Injector) {
	do.Provide(i, func(i do.Injector) (*snake.SnakeModule, error) {
		cfg := do.MustInvoke[*config.Config](i)
		opts := do.MustInvoke[Options](i)
		return snake.New(snake.Config{
			Players:      cfg.Players,
			Width:        cfg.GridWidth,
			Height:       cfg.GridHeight,
			TickInterval: cfg.TickInterval,
			BotInterval:  cfg.BotInterval,
			MaxTicks:     opts.MaxTicks,
		})
	})

	do.Provide(i, NewModules)
}

// NewModules returns the list of all active modules for the application.
// This is the single source of truth for which features are enabled.
func NewModules(i do.Injector) ([]module.Module, error) {
	snakeModule, err := do.Invoke[*snake.SnakeModule](i)
	if err != nil {
		return nil, err
	}

	return []module.Module{
		// Add new application modules here.
		snakeModule,
	}, nil
}
