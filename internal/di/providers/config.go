// Package providers contains dependency injection providers for the conversion tool.
package providers

import (
	"github.com/samber/do/v2"

	"github.com/ShoMaruoka/color-size-tool/internal/config"
	"github.com/ShoMaruoka/color-size-tool/internal/logger"
)

// ProvideConfig provides the application configuration. Command-line flags must be
// registered with do.ProvideValue before the first invocation.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	flags := do.MustInvoke[config.Flags](i)
	return config.Load(flags)
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		Format:      cfg.Logger.Format,
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	log.Debug("Configuration loaded",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"table_backend", cfg.Table.Backend,
		"product_backend", cfg.Products.Backend,
	)

	return log, nil
}
