package app

import (
	"fmt"
	"os"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/ShoMaruoka/color-size-tool/internal/seed"
	"github.com/ShoMaruoka/color-size-tool/internal/table"
)

func (a *App) newExportCommand() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:     "export",
		GroupID: "table",
		Short:   "Export the conversion table as YAML",
		Long:    "Write every entry, superseded ones included, as a YAML document.",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tbl, err := do.Invoke[*table.Table](a.injector)
			if err != nil {
				return err
			}

			data, err := seed.MarshalEntries(tbl.Version(), tbl.Entries(true))
			if err != nil {
				return fmt.Errorf("marshal entries: %w", err)
			}

			if out == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d entries to %s\n", len(tbl.Entries(true)), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "output file (default stdout)")
	return cmd
}
