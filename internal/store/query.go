package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/ShoMaruoka/color-size-tool/internal/domain"
	"github.com/ShoMaruoka/color-size-tool/internal/normalize"
)

// Dialect adapts the product query to a SQL backend.
type Dialect struct {
	// Placeholder returns the bind marker for the n-th argument (1-based).
	Placeholder func(n int) string
	// Time converts a filter bound into the driver's argument type.
	Time func(t time.Time) any
	// Like is the case-insensitive pattern operator.
	Like string
}

// TimeLayout is how SQLite stores times. Every value has the same width, so text
// comparison and ORDER BY agree with time order.
const TimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteDialect binds with ? and compares times as TimeLayout text.
var SQLiteDialect = Dialect{
	Placeholder: func(int) string { return "?" },
	Time:        func(t time.Time) any { return t.UTC().Format(TimeLayout) },
	Like:        "LIKE",
}

// PostgresDialect binds with $n and passes times through.
var PostgresDialect = Dialect{
	Placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
	Time:        func(t time.Time) any { return t.UTC() },
	Like:        "ILIKE",
}

// ProductColumns is the select list of ProductQuery. Scan order matters.
const ProductColumns = `p.product_key, p.color_name, p.size_name, p.composite_name`

// ProductQuery builds the product select for filter.
func ProductQuery(d Dialect, filter domain.ProductFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	bind := func(v any) string {
		args = append(args, v)
		return d.Placeholder(len(args))
	}
	like := func(column, pattern string) string {
		return column + " " + d.Like + " " + bind(LikePattern(pattern)) + ` ESCAPE '\'`
	}

	if filter.UpdatedFrom != nil {
		conds = append(conds, "p.updated_at >= "+bind(d.Time(*filter.UpdatedFrom)))
	}
	if filter.UpdatedTo != nil {
		conds = append(conds, "p.updated_at <= "+bind(d.Time(*filter.UpdatedTo)))
	}
	if filter.KeyPattern != "" {
		conds = append(conds, like("p.product_key", filter.KeyPattern))
	}
	if filter.ColorPattern != "" {
		conds = append(conds, like("p.color_name", filter.ColorPattern))
	}
	if filter.SizePattern != "" {
		conds = append(conds, like("p.size_name", filter.SizePattern))
	}
	if filter.HasColorID != nil {
		conds = append(conds, nullCheck("r.color_id", *filter.HasColorID))
	}
	if filter.HasSizeID != nil {
		conds = append(conds, nullCheck("r.size_id", *filter.HasSizeID))
	}

	var b strings.Builder
	b.WriteString("SELECT " + ProductColumns + " FROM products p")
	b.WriteString(" LEFT JOIN resolved_products r ON r.product_key = p.product_key")
	if len(conds) > 0 {
		b.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}
	b.WriteString(" ORDER BY p.updated_at DESC, p.product_key ASC")

	if filter.Limit > 0 {
		b.WriteString(" LIMIT " + bind(filter.Limit))
		if filter.Offset > 0 {
			b.WriteString(" OFFSET " + bind(filter.Offset))
		}
	}

	return b.String(), args
}

// likeEscaper quotes LIKE metacharacters so only * acts as a wildcard.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`, "*", "%")

// LikePattern turns an operator wildcard pattern ("レッド*") into a LIKE pattern
// for use with ESCAPE '\'. % and _ match themselves.
func LikePattern(pattern string) string {
	return likeEscaper.Replace(pattern)
}

func nullCheck(column string, present bool) string {
	if present {
		return column + " IS NOT NULL"
	}
	return column + " IS NULL"
}

// ProductRecord builds a record from stored columns. When both attribute columns
// are empty the composite value is split instead.
func ProductRecord(productKey, color, size, composite string) domain.ProductRecord {
	if color == "" && size == "" && composite != "" {
		color, size = normalize.SplitComposite(composite)
	}
	return domain.NewProductRecord(productKey, color, size)
}
