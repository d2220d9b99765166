package app

import (
	"fmt"
	"time"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/ShoMaruoka/color-size-tool/internal/di/providers"
)

func (a *App) newRunsCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:     "runs",
		GroupID: "core",
		Short:   "List recent resolution runs",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := do.Invoke[*providers.SQLiteHandle](a.injector)
			if err != nil {
				return err
			}

			runs, err := db.ListRuns(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}

			return a.render(cmd.OutOrStdout(), runs, func() tableData {
				data := tableData{Headers: []string{
					"Run", "Started", "Version", "Attempts", "Records", "Resolved", "Partial", "Unresolved",
				}}
				for _, r := range runs {
					data.Rows = append(data.Rows, []string{
						r.RunID,
						r.StartedAt.Local().Format(time.DateTime),
						fmt.Sprint(r.TableVersion),
						fmt.Sprint(r.Attempts),
						fmt.Sprint(r.Records),
						fmt.Sprint(r.Resolved),
						fmt.Sprint(r.Partial),
						fmt.Sprint(r.Unresolved),
					})
				}
				return data
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum runs to show")
	return cmd
}
