package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/ShoMaruoka/color-size-tool/internal/config"
	"github.com/ShoMaruoka/color-size-tool/internal/editor"
	"github.com/ShoMaruoka/color-size-tool/internal/logger"
	"github.com/ShoMaruoka/color-size-tool/internal/resolver"
	"github.com/ShoMaruoka/color-size-tool/internal/session"
	"github.com/ShoMaruoka/color-size-tool/internal/table"
	"github.com/ShoMaruoka/color-size-tool/internal/validation"
)

// ProvideValidator provides the struct validator.
func ProvideValidator(_ do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvideTable provides the conversion table, loaded from its backend.
func ProvideTable(i do.Injector) (*table.Table, error) {
	persistence := do.MustInvoke[*TablePersistenceHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	tbl := table.New(persistence, log.Component("table"))
	if err := tbl.Load(context.Background()); err != nil {
		return nil, err
	}

	if tbl.Corrupt() {
		log.Error("Conversion table has duplicate active entries; deactivate one of each pair to continue",
			"duplicates", len(tbl.Duplicates()),
		)
	}
	if stale := tbl.StaleEntries(); len(stale) > 0 {
		log.Warn("Conversion entries were keyed under an older normalization ruleset", "entries", len(stale))
	}

	log.Info("Conversion table loaded",
		"entries", len(tbl.Entries(false)),
		"version", tbl.Version(),
	)
	return tbl, nil
}

// ProvideResolver provides the batch resolver.
func ProvideResolver(i do.Injector) (*resolver.Resolver, error) {
	cfg := do.MustInvoke[*config.Config](i)
	tbl := do.MustInvoke[*table.Table](i)
	log := do.MustInvoke[*logger.Logger](i)

	return resolver.New(tbl, cfg.Resolve.ChunkSize, log.Component("resolver")), nil
}

// ProvideEditor provides the table editor.
func ProvideEditor(i do.Injector) (*editor.Editor, error) {
	tbl := do.MustInvoke[*table.Table](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return editor.New(tbl, v, log.Component("editor")), nil
}

// ProvideSession provides the operator session.
func ProvideSession(i do.Injector) (*session.Session, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	products := do.MustInvoke[*ProductStoreHandle](i)
	db := do.MustInvoke[*SQLiteHandle](i)

	return session.New(session.Config{
		Table:           do.MustInvoke[*table.Table](i),
		Resolver:        do.MustInvoke[*resolver.Resolver](i),
		Editor:          do.MustInvoke[*editor.Editor](i),
		Loader:          products.Loader,
		Writer:          products.Writer,
		Runs:            db.Store,
		MaxStaleRetries: cfg.Resolve.MaxStaleRetries,
		Logger:          log.Component("session"),
	}), nil
}
