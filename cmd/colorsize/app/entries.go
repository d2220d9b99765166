package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/ShoMaruoka/color-size-tool/internal/domain"
	"github.com/ShoMaruoka/color-size-tool/internal/editor"
	"github.com/ShoMaruoka/color-size-tool/internal/table"
)

func (a *App) newEntriesCommand() *cobra.Command {
	var (
		kind string
		all  bool
	)

	cmd := &cobra.Command{
		Use:     "entries",
		Aliases: []string{"entry"},
		GroupID: "table",
		Short:   "List and edit conversion entries",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var filter domain.AttributeKind
			if kind != "" {
				k, err := domain.ParseKind(kind)
				if err != nil {
					return err
				}
				filter = k
			}

			tbl, err := do.Invoke[*table.Table](a.injector)
			if err != nil {
				return err
			}

			entries := []domain.ConversionEntry{}
			for _, e := range tbl.Entries(all) {
				if filter == "" || e.Kind == filter {
					entries = append(entries, e)
				}
			}
			return a.renderEntries(cmd, entries)
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "only COLOR or SIZE entries")
	cmd.Flags().BoolVar(&all, "all", false, "include superseded entries")

	cmd.AddCommand(
		a.newEntriesAddCommand(),
		a.newEntriesCorrectCommand(),
		a.newEntriesDeactivateCommand(),
		a.newEntriesDuplicatesCommand(),
	)
	return cmd
}

func (a *App) newEntriesAddCommand() *cobra.Command {
	var (
		kind  string
		id    int64
		label string
	)

	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Map a new name to an id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := domain.ParseKind(kind)
			if err != nil {
				return err
			}
			return a.applyEdit(cmd, domain.Edit{Kind: k, Name: args[0], ID: id, Label: label})
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "COLOR or SIZE")
	cmd.Flags().Int64Var(&id, "id", 0, "numeric id the name maps to")
	cmd.Flags().StringVar(&label, "label", "", "display label")
	_ = cmd.MarkFlagRequired("kind")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func (a *App) newEntriesCorrectCommand() *cobra.Command {
	var label string

	cmd := &cobra.Command{
		Use:   "correct ENTRY_ID NAME",
		Short: "Replace the name of an entry, keeping its id",
		Long: `Supersede an active entry with one keyed by NAME.

The old entry stays in the table for audit and points at its replacement.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tbl, err := do.Invoke[*table.Table](a.injector)
			if err != nil {
				return err
			}
			target, ok := tbl.Get(args[0])
			if !ok {
				return fmt.Errorf("entry %s not found", args[0])
			}
			return a.applyEdit(cmd, domain.Edit{
				Kind:          target.Kind,
				Name:          args[1],
				TargetEntryID: target.EntryID,
				Label:         label,
			})
		},
	}

	cmd.Flags().StringVar(&label, "label", "", "new display label (default keeps the old one)")
	return cmd
}

func (a *App) newEntriesDeactivateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate ENTRY_ID",
		Short: "Take an entry out of lookups",
		Long: `Deactivate an entry without a replacement.

This is how a table with duplicate keys is repaired: deactivate all but one
entry of each duplicate group.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tbl, err := do.Invoke[*table.Table](a.injector)
			if err != nil {
				return err
			}
			entry, err := tbl.Deactivate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.renderEntries(cmd, []domain.ConversionEntry{entry})
		},
	}
}

func (a *App) newEntriesDuplicatesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "duplicates",
		Short: "List active entries that share a key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tbl, err := do.Invoke[*table.Table](a.injector)
			if err != nil {
				return err
			}

			dups := tbl.Duplicates()
			return a.render(cmd.OutOrStdout(), dups, func() tableData {
				data := tableData{Headers: []string{"Kind", "Canonical", "ID", "Entries"}}
				for _, d := range dups {
					id := ""
					if d.ID != 0 {
						id = fmt.Sprint(d.ID)
					}
					data.Rows = append(data.Rows, []string{
						string(d.Kind), d.Canonical, id, strings.Join(d.EntryIDs, ", "),
					})
				}
				return data
			})
		},
	}
}

func (a *App) applyEdit(cmd *cobra.Command, edit domain.Edit) error {
	ed, err := do.Invoke[*editor.Editor](a.injector)
	if err != nil {
		return err
	}

	result, err := ed.ApplyEdits(cmd.Context(), []domain.Edit{edit})
	if err != nil {
		return err
	}
	if len(result.Rejected) > 0 {
		r := result.Rejected[0]
		return fmt.Errorf("edit rejected (%s): %s", r.Code, r.Reason)
	}
	return a.renderEntries(cmd, result.Entries)
}

func (a *App) renderEntries(cmd *cobra.Command, entries []domain.ConversionEntry) error {
	return a.render(cmd.OutOrStdout(), entries, func() tableData {
		data := tableData{Headers: []string{"Entry", "Kind", "Canonical", "ID", "Label", "Source", "Status", "Updated"}}
		for _, e := range entries {
			status := "active"
			if !e.Active() {
				status = "superseded"
				if e.SupersededBy == "" {
					status = "deactivated"
				}
			}
			data.Rows = append(data.Rows, []string{
				e.EntryID,
				string(e.Kind),
				e.Canonical,
				fmt.Sprint(e.ID),
				e.Label,
				string(e.Source),
				status,
				e.UpdatedAt.Local().Format(time.DateTime),
			})
		}
		return data
	})
}
