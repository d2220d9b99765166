// Package di provides dependency injection configuration for the conversion tool.
package di

import (
	"github.com/samber/do/v2"

	"github.com/ShoMaruoka/color-size-tool/internal/config"
	"github.com/ShoMaruoka/color-size-tool/internal/di/providers"
)

// NewContainer creates and configures the DI container with all providers.
// Nothing is constructed until first invoked, so commands that never touch the
// HTTP server or the product store never open them.
func NewContainer(flags config.Flags) *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.ProvideValue(injector, flags)
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideValidator)

	// Storage layer
	do.Provide(injector, providers.ProvideSQLite)
	do.Provide(injector, providers.ProvideTablePersistence)
	do.Provide(injector, providers.ProvideProductStore)

	// Conversion
	do.Provide(injector, providers.ProvideTable)
	do.Provide(injector, providers.ProvideResolver)
	do.Provide(injector, providers.ProvideEditor)
	do.Provide(injector, providers.ProvideSession)

	// Server
	do.Provide(injector, providers.ProvideRateLimiter)
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}
