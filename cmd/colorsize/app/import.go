package app

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/ShoMaruoka/color-size-tool/internal/config"
	"github.com/ShoMaruoka/color-size-tool/internal/di/providers"
	"github.com/ShoMaruoka/color-size-tool/internal/store/sqlite"
)

// productFile is the document read by the import command. JSON parses too.
type productFile struct {
	Products []sqlite.ProductRow `yaml:"products"`
}

func (a *App) newImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "import FILE",
		GroupID: "core",
		Short:   "Load products into the SQLite product table",
		Long: `Upsert products from a YAML or JSON file into the SQLite product table.

The file holds a "products" list with product_key, color_name, size_name and
an optional composite_name. Only the sqlite product backend accepts imports.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := do.Invoke[*config.Config](a.injector)
			if err != nil {
				return err
			}
			if cfg.Products.Backend != config.ProductSQLite {
				return fmt.Errorf("import needs the %s product backend, not %s", config.ProductSQLite, cfg.Products.Backend)
			}

			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read products: %w", err)
			}
			var f productFile
			if err := yaml.Unmarshal(raw, &f); err != nil {
				return fmt.Errorf("parse products: %w", err)
			}

			db, err := do.Invoke[*providers.SQLiteHandle](a.injector)
			if err != nil {
				return err
			}
			n, err := db.ImportProducts(cmd.Context(), f.Products)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d products\n", n)
			return nil
		},
	}
}
