package app

import (
	"fmt"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/ShoMaruoka/color-size-tool/internal/config"
	"github.com/ShoMaruoka/color-size-tool/internal/logger"
	"github.com/ShoMaruoka/color-size-tool/internal/seed"
	"github.com/ShoMaruoka/color-size-tool/internal/table"
	"github.com/ShoMaruoka/color-size-tool/internal/validation"
)

func (a *App) newSeedCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "seed",
		GroupID: "table",
		Short:   "Import conversion rules into the table",
		Long: `Import color and size rules from a YAML seed file.

Without --file the SEED_FILE setting is used, and without that the built-in
sample rules. Rows already present with the same id are skipped, so seeding
twice is harmless. Rows that clash with existing entries are reported.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := do.Invoke[*config.Config](a.injector)
			if err != nil {
				return err
			}
			tbl, err := do.Invoke[*table.Table](a.injector)
			if err != nil {
				return err
			}
			v := do.MustInvoke[*validation.Validator](a.injector)
			log := do.MustInvoke[*logger.Logger](a.injector)

			var f *seed.File
			if cfg.Seed.File != "" {
				f, err = seed.LoadFile(cfg.Seed.File, v)
			} else {
				f, err = seed.Default(v)
			}
			if err != nil {
				return err
			}

			report, err := seed.Import(cmd.Context(), tbl, f, log.Component("seed"))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if a.format != string(formatTable) {
				return a.render(out, report, nil)
			}

			fmt.Fprintf(out, "Inserted %d, skipped %d\n", report.Inserted, report.Skipped)
			if len(report.Conflicts) == 0 {
				return nil
			}
			data := tableData{Headers: []string{"Kind", "Name", "ID", "Conflict"}}
			for _, c := range report.Conflicts {
				data.Rows = append(data.Rows, []string{string(c.Kind), c.Name, fmt.Sprint(c.ID), c.Reason})
			}
			return writeTable(out, data)
		},
	}

	cmd.Flags().StringVar(&a.flags.SeedFile, "file", "", "seed YAML file")
	return cmd
}
