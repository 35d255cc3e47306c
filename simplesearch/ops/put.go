package ops

import (
	"context"
	"fmt"
	"sort"

	"github.com/simplesearch/simplesearch/simplesearch/storage"
)

// PutPrepared holds the flattened data of one write.
type PutPrepared struct {
	Identifier string
	Columns    []string       // sorted property column names
	Values     []any          // flattened values, aligned with Columns
	Buckets    map[string]string
}

// PreparePut flattens properties into column values. Buckets are copied as
// given; FillBuckets completes them for a destructive replace.
func PreparePut(identifier string, properties map[string]any, buckets map[string]string) (*PutPrepared, error) {
	prep := &PutPrepared{
		Identifier: identifier,
		Columns:    make([]string, 0, len(properties)),
		Values:     make([]any, 0, len(properties)),
		Buckets:    make(map[string]string, len(buckets)),
	}
	for name := range properties {
		prep.Columns = append(prep.Columns, name)
	}
	sort.Strings(prep.Columns)
	for _, name := range prep.Columns {
		v, err := Flatten(properties[name])
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", name, err)
		}
		prep.Values = append(prep.Values, v)
	}
	for b, v := range buckets {
		prep.Buckets[b] = v
	}
	return prep, nil
}

// FillBuckets sets every bucket missing from the write to "".
func (p *PutPrepared) FillBuckets() {
	for _, b := range storage.Buckets {
		if _, ok := p.Buckets[b]; !ok {
			p.Buckets[b] = ""
		}
	}
}

// SuppliedBuckets returns the bucket names of the write in storage order.
func (p *PutPrepared) SuppliedBuckets() []string {
	out := make([]string, 0, len(p.Buckets))
	for _, b := range storage.Buckets {
		if _, ok := p.Buckets[b]; ok {
			out = append(out, b)
		}
	}
	return out
}

// UpsertObject writes the identifier row of the objects relation. Only the
// prepared columns are overwritten when the row exists.
func UpsertObject(ctx context.Context, conn storage.Execer, a storage.Adapter, prep *PutPrepared) error {
	params := make(map[string]any, len(prep.Columns)+1)
	params[storage.IdentifierParam] = prep.Identifier
	for i, v := range prep.Values {
		params[storage.ColumnParam(i)] = v
	}
	stmt := a.SQL().UpsertObject.Build(prep.Columns)
	if _, err := storage.Exec(ctx, conn, a.PlaceholderStyle(), stmt, params); err != nil {
		return fmt.Errorf("upsert object: %w", err)
	}
	return nil
}

// ReplaceFulltext overwrites all buckets of the identifier's fulltext row.
func ReplaceFulltext(ctx context.Context, conn storage.Execer, a storage.Adapter, prep *PutPrepared) error {
	prep.FillBuckets()
	params := make(map[string]any, len(storage.Buckets)+1)
	params[storage.IdentifierParam] = prep.Identifier
	for _, b := range storage.Buckets {
		params[b] = prep.Buckets[b]
	}
	for _, stmt := range a.SQL().ReplaceFulltext {
		if _, err := storage.Exec(ctx, conn, a.PlaceholderStyle(), stmt, params); err != nil {
			return fmt.Errorf("replace fulltext: %w", err)
		}
	}
	return nil
}

// AppendFulltext appends the supplied buckets onto the stored ones and
// returns the number of rows touched; zero means the identifier is unknown
// and -1 that the driver could not tell.
func AppendFulltext(ctx context.Context, conn storage.Execer, a storage.Adapter, prep *PutPrepared) (int64, error) {
	buckets := prep.SuppliedBuckets()
	if len(buckets) == 0 {
		return 0, nil
	}
	params := make(map[string]any, len(buckets)+1)
	params[storage.IdentifierParam] = prep.Identifier
	for _, b := range buckets {
		params[b] = prep.Buckets[b]
	}
	res, err := storage.Exec(ctx, conn, a.PlaceholderStyle(), a.FTS().AppendSQL(buckets), params)
	if err != nil {
		return 0, fmt.Errorf("append fulltext: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		// the driver cannot count; the update itself succeeded
		return -1, nil
	}
	return n, nil
}
