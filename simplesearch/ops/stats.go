package ops

import (
	"context"
	"fmt"

	"github.com/simplesearch/simplesearch/simplesearch/storage"
)

// StatsResult contains statistics for a numeric property column
type StatsResult struct {
	Field  string   `json:"field"`
	Count  uint64   `json:"count"`
	Min    *float64 `json:"min,omitempty"`
	Max    *float64 `json:"max,omitempty"`
	Avg    *float64 `json:"avg,omitempty"`
	Median *float64 `json:"median,omitempty"`
}

// Stats computes count, min, max, average and median of column read as a
// number. Empty values are skipped.
func Stats(ctx context.Context, q storage.Queryer, a storage.Adapter, src Source, column string) (*StatsResult, error) {
	col := a.QuoteIdent(column)
	num := a.NumericCast(col)
	from := src.from(a)
	where := nonEmpty(col)

	stmt := fmt.Sprintf("SELECT COUNT(*) AS n, MIN(%s) AS lo, MAX(%s) AS hi, AVG(%s) AS mean FROM %s WHERE %s",
		num, num, num, from, where)
	rows, err := storage.Query(ctx, q, a.PlaceholderStyle(), stmt, src.Params)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}

	result := &StatsResult{Field: column}
	if len(rows) == 0 {
		return result, nil
	}
	r := rows[0]
	if result.Count, err = toUint(r.Get("n")); err != nil {
		return nil, err
	}
	if result.Min, err = toFloat(r.Get("lo")); err != nil {
		return nil, err
	}
	if result.Max, err = toFloat(r.Get("hi")); err != nil {
		return nil, err
	}
	if result.Avg, err = toFloat(r.Get("mean")); err != nil {
		return nil, err
	}

	if result.Count > 0 {
		median, err := medianOf(ctx, q, a, src, num, from, where, result.Count)
		if err != nil {
			return nil, fmt.Errorf("query median: %w", err)
		}
		result.Median = median
	}
	return result, nil
}

func medianOf(ctx context.Context, q storage.Queryer, a storage.Adapter, src Source, num, from, where string, count uint64) (*float64, error) {
	offset := int((count - 1) / 2)
	at := func(off int) (*float64, error) {
		stmt := fmt.Sprintf("SELECT %s AS v FROM %s WHERE %s ORDER BY v%s", num, from, where, a.LimitOffset(1, off))
		rows, err := storage.Query(ctx, q, a.PlaceholderStyle(), stmt, src.Params)
		if err != nil || len(rows) == 0 {
			return nil, err
		}
		return toFloat(rows[0].Get("v"))
	}

	v1, err := at(offset)
	if err != nil || v1 == nil {
		return nil, err
	}
	// For even count, average middle two values
	if count%2 == 0 {
		v2, err := at(offset + 1)
		if err != nil || v2 == nil {
			return nil, err
		}
		m := (*v1 + *v2) / 2
		return &m, nil
	}
	return v1, nil
}
