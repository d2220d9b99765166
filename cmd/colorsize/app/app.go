// Package app wires the colorsize commands to the DI container.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/ShoMaruoka/color-size-tool/internal/config"
	"github.com/ShoMaruoka/color-size-tool/internal/di"
)

// App holds global flags and the lazily built container.
type App struct {
	version  string
	flags    config.Flags
	format   string
	out      io.Writer
	injector *do.RootScope
}

// New creates an App writing command output to out.
func New(version string, out io.Writer) *App {
	return &App{version: version, out: out}
}

// ContextWithSignals returns a context canceled on SIGINT or SIGTERM.
func ContextWithSignals(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

// Execute runs the CLI with the given arguments.
func (a *App) Execute(ctx context.Context, args []string) error {
	rootCmd := a.createRootCommand()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(a.out)
	return rootCmd.ExecuteContext(ctx)
}

// Shutdown closes everything the container opened.
func (a *App) Shutdown() {
	if a.injector == nil {
		return
	}
	if err := a.injector.Shutdown(); err != nil {
		fmt.Fprintf(os.Stderr, "Shutdown error: %v\n", err)
	}
	a.injector = nil
}

func (a *App) createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "colorsize",
		Short:   "Color and size name conversion tool",
		Version: a.version,
		Long: `colorsize maps free-text color and size names to canonical numeric IDs.

It keeps the conversion table, resolves product batches against it, and lets
an operator fix the names that did not resolve before writing results back.`,
		PersistentPreRunE: a.setupCommand,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	rootCmd.AddGroup(&cobra.Group{ID: "core", Title: "Core Commands:"})
	rootCmd.AddGroup(&cobra.Group{ID: "table", Title: "Table Commands:"})

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.flags.EnvFile, "env-file", "", "env file to load (default .env)")
	pf.StringVar(&a.flags.Env, "env", "", "environment: development, staging, production")
	pf.StringVar(&a.flags.LogLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&a.flags.LogFormat, "log-format", "", "log format: json, text, pretty")
	pf.StringVar(&a.flags.SQLitePath, "sqlite", "", "SQLite database path")
	pf.StringVar(&a.flags.TableBackend, "table-backend", "", "conversion table backend: sqlite, badger, memory")
	pf.StringVar(&a.flags.BadgerPath, "badger-path", "", "BadgerDB directory for the badger table backend")
	pf.StringVar(&a.flags.ProductBackend, "product-backend", "", "product backend: sqlite, postgres")
	pf.StringVar(&a.flags.DatabaseURL, "database-url", "", "PostgreSQL connection URL")
	pf.StringVarP(&a.format, "format", "o", "table", "output format: table, json, yaml")

	rootCmd.SetVersionTemplate("colorsize {{.Version}}\n")

	rootCmd.AddCommand(
		a.newServeCommand(),
		a.newResolveCommand(),
		a.newImportCommand(),
		a.newRunsCommand(),
		a.newSeedCommand(),
		a.newEntriesCommand(),
		a.newExportCommand(),
	)

	return rootCmd
}

// setupCommand validates global flags and builds the container.
func (a *App) setupCommand(_ *cobra.Command, _ []string) error {
	format, err := parseFormat(a.format)
	if err != nil {
		return err
	}
	a.format = string(format)
	a.injector = di.NewContainer(a.flags)
	return nil
}
