package app

import (
	"fmt"
	"io"
	"time"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/ShoMaruoka/color-size-tool/internal/domain"
	"github.com/ShoMaruoka/color-size-tool/internal/session"
)

// resolveReport is the machine-readable output of the resolve command.
type resolveReport struct {
	Summary    domain.Summary               `json:"summary" yaml:"summary"`
	Exceptions []domain.ResolutionException `json:"exceptions" yaml:"exceptions"`
	Written    int                          `json:"written" yaml:"written"`
}

func (a *App) newResolveCommand() *cobra.Command {
	var (
		filter        domain.ProductFilter
		from, to      string
		hasColor      bool
		hasSize       bool
		commit        bool
		acceptPartial bool
	)

	cmd := &cobra.Command{
		Use:     "resolve",
		GroupID: "core",
		Short:   "Resolve a product batch against the conversion table",
		Long: `Load products, look up their color and size names, and report the names
that did not resolve.

With --commit the fully resolved products are written back. --accept-partial
also writes products where only one of the two names resolved.`,
		Example: `  colorsize resolve --color '*レッド*'
  colorsize resolve --from 2025-04-01 --has-color=false
  colorsize resolve --commit --accept-partial -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if filter.UpdatedFrom, err = parseFilterTime(from, false); err != nil {
				return fmt.Errorf("--from: %w", err)
			}
			if filter.UpdatedTo, err = parseFilterTime(to, true); err != nil {
				return fmt.Errorf("--to: %w", err)
			}
			if cmd.Flags().Changed("has-color") {
				filter.HasColorID = &hasColor
			}
			if cmd.Flags().Changed("has-size") {
				filter.HasSizeID = &hasSize
			}

			sess, err := do.Invoke[*session.Session](a.injector)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			if _, err := sess.Load(ctx, filter); err != nil {
				return err
			}
			summary, err := sess.Resolve(ctx)
			if err != nil {
				return err
			}

			report := resolveReport{Summary: summary, Exceptions: sess.Exceptions()}
			if report.Exceptions == nil {
				report.Exceptions = []domain.ResolutionException{}
			}

			if commit {
				if summary.Blocked {
					return fmt.Errorf("conversion table has duplicate keys; run 'colorsize entries duplicates' and deactivate the extras")
				}
				if acceptPartial {
					if err := acceptPartials(sess); err != nil {
						return err
					}
				}
				if report.Written, err = sess.Commit(ctx); err != nil {
					return err
				}
				report.Summary = sess.Summary()
			}

			return a.renderResolve(cmd.OutOrStdout(), report, commit)
		},
	}

	f := cmd.Flags()
	f.StringVar(&filter.KeyPattern, "key", "", "product key pattern, * matches anything")
	f.StringVar(&filter.ColorPattern, "color", "", "color name pattern")
	f.StringVar(&filter.SizePattern, "size", "", "size name pattern")
	f.IntVar(&filter.Limit, "limit", 0, "maximum products to load")
	f.IntVar(&filter.Offset, "offset", 0, "products to skip")
	f.StringVar(&from, "from", "", "only products updated at or after this time (RFC3339 or YYYY-MM-DD)")
	f.StringVar(&to, "to", "", "only products updated at or before this time; a bare date covers the whole day")
	f.BoolVar(&hasColor, "has-color", false, "only products whose stored color ID is set (true) or missing (false)")
	f.BoolVar(&hasSize, "has-size", false, "only products whose stored size ID is set (true) or missing (false)")
	f.BoolVar(&commit, "commit", false, "write resolved products back")
	f.BoolVar(&acceptPartial, "accept-partial", false, "with --commit, also write PARTIAL products")
	return cmd
}

// parseFilterTime reads an RFC3339 time or a UTC date. With endOfDay a date
// means its last instant.
func parseFilterTime(value string, endOfDay bool) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return nil, fmt.Errorf("expected RFC3339 or YYYY-MM-DD, got %q", value)
	}
	if endOfDay {
		t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return &t, nil
}

func acceptPartials(sess *session.Session) error {
	var keys []string
	for _, rec := range sess.Results() {
		if rec.Status == domain.StatusPartial {
			keys = append(keys, rec.ProductKey)
		}
	}
	if len(keys) == 0 {
		return nil
	}
	return sess.Override(keys...)
}

func (a *App) renderResolve(w io.Writer, report resolveReport, committed bool) error {
	err := a.render(w, report, func() tableData {
		data := tableData{Headers: []string{"Product", "Kind", "Name", "Reason"}}
		for _, e := range report.Exceptions {
			data.Rows = append(data.Rows, []string{e.ProductKey, string(e.Kind), e.RawText, string(e.Reason)})
		}
		return data
	})
	if err != nil || a.format != string(formatTable) {
		return err
	}

	s := report.Summary
	fmt.Fprintf(w, "%d products: %d resolved, %d partial, %d unresolved (%.1f%% converted)",
		s.Total, s.Resolved, s.Partial, s.Unresolved, s.ConversionRate*100)
	if committed {
		fmt.Fprintf(w, ", %d written", report.Written)
	}
	fmt.Fprintln(w)
	return nil
}
