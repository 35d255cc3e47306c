package simplesearch

import (
	"context"
	"fmt"

	"github.com/simplesearch/simplesearch/simplesearch/ops"
)

type (
	ValueCount     = ops.ValueCount
	ColumnOverview = ops.ColumnOverview
	StatsResult    = ops.StatsResult
)

func (q *QueryBuilder) source() (ops.Source, error) {
	if q.err != nil {
		return ops.Source{}, q.err
	}
	stmt, params := q.SQL()
	return ops.Source{Statement: stmt, Params: params}, nil
}

func (q *QueryBuilder) requireColumn(property string) error {
	if !q.ix.schema.Has(property) {
		return Wrap(ErrNotFound, "discover", fmt.Errorf("unknown property: %s", property))
	}
	return nil
}

// Values returns the most frequent values of property among the query's
// rows.
func (q *QueryBuilder) Values(ctx context.Context, property string, top int) ([]ValueCount, error) {
	if err := q.requireColumn(property); err != nil {
		return nil, err
	}
	src, err := q.source()
	if err != nil {
		return nil, err
	}
	out, err := ops.DiscoverValues(ctx, q.ix.db, q.ix.adapter, src, property, top)
	if err != nil {
		return nil, Wrap(ErrSQL, "discover values", err)
	}
	return out, nil
}

// Overview counts, per property column, the query's rows holding a value.
func (q *QueryBuilder) Overview(ctx context.Context) ([]ColumnOverview, error) {
	src, err := q.source()
	if err != nil {
		return nil, err
	}
	out, err := ops.DiscoverColumns(ctx, q.ix.db, q.ix.adapter, src, q.ix.Columns())
	if err != nil {
		return nil, Wrap(ErrSQL, "discover columns", err)
	}
	return out, nil
}

// Stats summarizes property, read as a number, over the query's rows.
func (q *QueryBuilder) Stats(ctx context.Context, property string) (*StatsResult, error) {
	if err := q.requireColumn(property); err != nil {
		return nil, err
	}
	src, err := q.source()
	if err != nil {
		return nil, err
	}
	out, err := ops.Stats(ctx, q.ix.db, q.ix.adapter, src, property)
	if err != nil {
		return nil, Wrap(ErrSQL, "stats", err)
	}
	return out, nil
}
