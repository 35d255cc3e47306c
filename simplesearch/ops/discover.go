package ops

import (
	"context"
	"fmt"
	"strconv"

	"github.com/simplesearch/simplesearch/simplesearch/storage"
)

// ValueCount is one distinct property value with the number of documents
// holding it.
type ValueCount struct {
	Value string `json:"value"`
	Count uint64 `json:"count"`
}

// ColumnOverview tells how many documents carry a non-empty value in a
// property column.
type ColumnOverview struct {
	Column   string `json:"column"`
	DocCount uint64 `json:"doc_count"`
	Unique   uint64 `json:"unique"`
}

// Source is the row set a discovery runs over: a SELECT statement with its
// named params, or the whole objects relation when Statement is empty.
type Source struct {
	Statement string
	Params    map[string]any
}

func (s Source) from(a storage.Adapter) string {
	if s.Statement == "" {
		return a.QuoteIdent(a.Tables().Objects)
	}
	return "(" + s.Statement + ") filtered"
}

func nonEmpty(col string) string {
	return fmt.Sprintf("%s IS NOT NULL AND %s <> ''", col, col)
}

// DiscoverValues returns the most frequent values of column, most frequent
// first and ties by value. top <= 0 means 20.
func DiscoverValues(ctx context.Context, q storage.Queryer, a storage.Adapter, src Source, column string, top int) ([]ValueCount, error) {
	if top <= 0 {
		top = 20
	}
	col := a.QuoteIdent(column)
	stmt := fmt.Sprintf("SELECT %s AS value, COUNT(*) AS doc_freq FROM %s WHERE %s GROUP BY %s ORDER BY doc_freq DESC, value ASC%s",
		col, src.from(a), nonEmpty(col), col, a.LimitOffset(top, -1))

	rows, err := storage.Query(ctx, q, a.PlaceholderStyle(), stmt, src.Params)
	if err != nil {
		return nil, fmt.Errorf("query values: %w", err)
	}
	out := make([]ValueCount, 0, len(rows))
	for _, r := range rows {
		n, err := toUint(r.Get("doc_freq"))
		if err != nil {
			return nil, fmt.Errorf("scan value count: %w", err)
		}
		out = append(out, ValueCount{Value: r.String("value"), Count: n})
	}
	return out, nil
}

// DiscoverColumns returns an overview of every given column.
func DiscoverColumns(ctx context.Context, q storage.Queryer, a storage.Adapter, src Source, columns []string) ([]ColumnOverview, error) {
	out := make([]ColumnOverview, 0, len(columns))
	for _, c := range columns {
		col := a.QuoteIdent(c)
		stmt := fmt.Sprintf("SELECT COUNT(*) AS doc_count, COUNT(DISTINCT %s) AS uniq FROM %s WHERE %s",
			col, src.from(a), nonEmpty(col))
		rows, err := storage.Query(ctx, q, a.PlaceholderStyle(), stmt, src.Params)
		if err != nil {
			return nil, fmt.Errorf("count docs for %s: %w", c, err)
		}
		ov := ColumnOverview{Column: c}
		if len(rows) > 0 {
			if ov.DocCount, err = toUint(rows[0].Get("doc_count")); err != nil {
				return nil, err
			}
			if ov.Unique, err = toUint(rows[0].Get("uniq")); err != nil {
				return nil, err
			}
		}
		out = append(out, ov)
	}
	return out, nil
}

func toUint(v any) (uint64, error) {
	switch x := v.(type) {
	case nil:
		return 0, nil
	case int64:
		return uint64(x), nil
	case int32:
		return uint64(x), nil
	case int:
		return uint64(x), nil
	case uint64:
		return x, nil
	case float64:
		return uint64(x), nil
	case string:
		return strconv.ParseUint(x, 10, 64)
	}
	return 0, fmt.Errorf("unexpected count type %T", v)
}

func toFloat(v any) (*float64, error) {
	var f float64
	switch x := v.(type) {
	case nil:
		return nil, nil
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int64:
		f = float64(x)
	case int:
		f = float64(x)
	case string:
		p, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return nil, err
		}
		f = p
	default:
		return nil, fmt.Errorf("unexpected numeric type %T", v)
	}
	return &f, nil
}
