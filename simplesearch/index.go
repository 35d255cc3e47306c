package simplesearch

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"

	"github.com/simplesearch/simplesearch/simplesearch/ops"
	"github.com/simplesearch/simplesearch/simplesearch/storage"
)

// Index is an open, named document index. It holds a single database
// connection; methods are safe for concurrent use but run one write at a
// time.
type Index struct {
	name    string
	adapter storage.Adapter
	db      *sql.DB
	schema  *SchemaRegistry
	opts    Options
	log     *slog.Logger
	lock    *writeLock

	mu sync.Mutex // serializes writes
}

// Open connects through adapter, creates the objects and fulltext relations
// when missing and loads the property columns.
func Open(ctx context.Context, adapter storage.Adapter, name string, opts Options) (*Index, error) {
	if name == "" {
		return nil, SchemaError("index name cannot be empty")
	}

	db, err := adapter.Connect(ctx)
	if err != nil {
		return nil, Wrap(ErrIO, "connect to database", err)
	}
	db.SetMaxOpenConns(1)

	if err := adapter.CreateTables(ctx, db); err != nil {
		db.Close()
		return nil, Wrap(ErrIO, "create index relations", err)
	}

	columns, err := adapter.LoadColumns(ctx, db)
	if err != nil {
		db.Close()
		return nil, Wrap(ErrIO, "load property columns", err)
	}

	ix := &Index{
		name:    name,
		adapter: adapter,
		db:      db,
		schema:  NewSchemaRegistry(columns...),
		opts:    opts,
		log:     opts.logger().With(slog.String("index", name), slog.String("backend", string(adapter.Backend()))),
		lock:    newWriteLock(opts.WriteLock),
	}
	ix.log.Debug("index opened", slog.Int("columns", len(columns)))
	return ix, nil
}

// Close closes the index
func (ix *Index) Close() error {
	if ix.db != nil {
		if err := ix.db.Close(); err != nil {
			return Wrap(ErrIO, "close database", err)
		}
	}
	return ix.adapter.Close()
}

// IndexName returns the name the index was opened with.
func (ix *Index) IndexName() string {
	return ix.name
}

// Columns returns the property columns currently known to the index.
func (ix *Index) Columns() []string {
	return ix.schema.Columns()
}

// IndexData writes a document: new property columns are added, the objects
// row is upserted over the given properties only, and all fulltext buckets
// are replaced, with buckets missing from fulltext stored as "". The three
// steps commit together.
func (ix *Index) IndexData(ctx context.Context, identifier string, properties Properties, fulltext Fulltext) error {
	prep, err := ix.prepare(identifier, properties, fulltext)
	if err != nil {
		return err
	}
	ix.log.Debug("index data", slog.String("identifier", identifier), slog.Int("properties", len(prep.Columns)))

	return ix.write(ctx, prep.Columns, func(tx *sql.Tx) error {
		if err := ops.UpsertObject(ctx, tx, ix.adapter, prep); err != nil {
			return Wrap(ErrSQL, "write properties", err)
		}
		if err := ops.ReplaceFulltext(ctx, tx, ix.adapter, prep); err != nil {
			return Wrap(ErrSQL, "write fulltext", err)
		}
		return nil
	})
}

// InsertOrUpdateProperties upserts the given properties of identifier
// without touching its fulltext row.
func (ix *Index) InsertOrUpdateProperties(ctx context.Context, properties Properties, identifier string) error {
	prep, err := ix.prepare(identifier, properties, nil)
	if err != nil {
		return err
	}
	return ix.write(ctx, prep.Columns, func(tx *sql.Tx) error {
		if err := ops.UpsertObject(ctx, tx, ix.adapter, prep); err != nil {
			return Wrap(ErrSQL, "write properties", err)
		}
		return nil
	})
}

// AddToFulltext appends each given bucket, space separated, to the stored
// value. Buckets not given are unchanged. An identifier without a fulltext
// row is left alone.
func (ix *Index) AddToFulltext(ctx context.Context, fulltext Fulltext, identifier string) error {
	prep, err := ix.prepare(identifier, nil, fulltext)
	if err != nil {
		return err
	}
	if len(prep.Buckets) == 0 {
		return nil
	}
	return ix.write(ctx, nil, func(tx *sql.Tx) error {
		n, err := ops.AppendFulltext(ctx, tx, ix.adapter, prep)
		if err != nil {
			return Wrap(ErrSQL, "append fulltext", err)
		}
		if n == 0 {
			ix.log.Debug("append skipped, no fulltext row", slog.String("identifier", identifier))
		}
		return nil
	})
}

// RemoveData deletes identifier from both relations. Removing an unknown
// identifier is not an error.
func (ix *Index) RemoveData(ctx context.Context, identifier string) error {
	return ix.write(ctx, nil, func(tx *sql.Tx) error {
		if err := ops.DeleteByIdentifier(ctx, tx, ix.adapter, identifier); err != nil {
			return Wrap(ErrSQL, "remove data", err)
		}
		return nil
	})
}

// Flush drops and recreates both relations and forgets all property columns.
func (ix *Index) Flush(ctx context.Context) error {
	unlock, err := ix.lockWriter(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	if err := ix.adapter.DropTables(ctx, ix.db); err != nil {
		return Wrap(ErrSQL, "flush", err)
	}
	ix.schema.Reset()
	if err := ix.adapter.CreateTables(ctx, ix.db); err != nil {
		return Wrap(ErrSQL, "flush", err)
	}
	ix.log.Info("index flushed")
	return nil
}

// Optimize runs the backend's maintenance routine. On MySQL this flips a
// server-wide setting for its duration; avoid running it under heavy writes.
func (ix *Index) Optimize(ctx context.Context) error {
	unlock, err := ix.lockWriter(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	if err := ix.adapter.Optimize(ctx, ix.db); err != nil {
		return Wrap(ErrSQL, "optimize", err)
	}
	ix.log.Info("index optimized")
	return nil
}

// ExecuteStatement runs a statement with :name parameters and returns its
// rows. The result is empty, not nil, when there are none.
func (ix *Index) ExecuteStatement(ctx context.Context, query string, params map[string]any) ([]Row, error) {
	ix.log.Debug("execute statement", slog.String("sql", query), slog.Int("params", len(params)))
	rows, err := storage.Query(ctx, ix.db, ix.adapter.PlaceholderStyle(), query, params)
	if err != nil {
		return nil, Wrap(ErrSQL, "execute statement", err)
	}
	return rows, nil
}

// FindOneByIdentifier returns the objects row of identifier.
func (ix *Index) FindOneByIdentifier(ctx context.Context, identifier string) (Row, bool, error) {
	rows, err := ix.ExecuteStatement(ctx, ix.adapter.SQL().SelectObject, map[string]any{storage.IdentifierParam: identifier})
	if err != nil {
		return Row{}, false, err
	}
	if len(rows) == 0 {
		return Row{}, false, nil
	}
	return rows[0], true, nil
}

// FulltextOf returns the stored fulltext buckets of identifier.
func (ix *Index) FulltextOf(ctx context.Context, identifier string) (Fulltext, bool, error) {
	rows, err := ix.ExecuteStatement(ctx, ix.adapter.SQL().SelectFulltext, map[string]any{storage.IdentifierParam: identifier})
	if err != nil {
		return nil, false, err
	}
	if len(rows) == 0 {
		return nil, false, nil
	}
	return bucketsOf(rows[0]), true, nil
}

// Query starts a query over this index.
func (ix *Index) Query() *QueryBuilder {
	return newQueryBuilder(ix)
}

// Adapter returns the underlying storage adapter
func (ix *Index) Adapter() storage.Adapter {
	return ix.adapter
}

// prepare validates a write and flattens its values.
func (ix *Index) prepare(identifier string, properties Properties, fulltext Fulltext) (*ops.PutPrepared, error) {
	if identifier == "" {
		return nil, SchemaError("identifier cannot be empty")
	}
	for name := range properties {
		if err := ValidatePropertyName(name, ix.opts.StrictIdentifiers); err != nil {
			return nil, err
		}
	}
	buckets := make(map[string]string, len(fulltext))
	for b, v := range fulltext {
		if !b.Valid() {
			return nil, SchemaError("unknown fulltext bucket: " + string(b))
		}
		buckets[string(b)] = v
	}
	prep, err := ops.PreparePut(identifier, properties, buckets)
	if err != nil {
		return nil, Wrap(ErrSchema, "prepare write", err)
	}
	return prep, nil
}

// write runs fn in a transaction after adding the columns of keys that the
// registry does not know yet. The registry only learns about new columns
// once they are committed. Engines without transactional DDL get the
// columns before the transaction opens; an idle extra column is harmless.
func (ix *Index) write(ctx context.Context, keys []string, fn func(tx *sql.Tx) error) error {
	unlock, err := ix.lockWriter(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	missing := ix.schema.Diff(keys)
	if len(missing) > 0 && !ix.adapter.TransactionalDDL() {
		if err := ops.ApplyMigration(ctx, ix.db, ix.adapter, missing); err != nil {
			return Wrap(ErrSchema, "add property columns", err)
		}
		ix.schema.Add(missing...)
		ix.log.Info("property columns added", slog.Any("columns", missing))
		missing = nil
	}

	tx, err := ix.db.BeginTx(ctx, nil)
	if err != nil {
		return Wrap(ErrSQL, "begin transaction", err)
	}
	defer tx.Rollback()

	if len(missing) > 0 {
		if err := ops.ApplyMigration(ctx, tx, ix.adapter, missing); err != nil {
			return Wrap(ErrSchema, "add property columns", err)
		}
	}
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return Wrap(ErrSQL, "commit", err)
	}

	if len(missing) > 0 {
		ix.schema.Add(missing...)
		ix.log.Info("property columns added", slog.Any("columns", missing))
	}
	return nil
}

func bucketsOf(r Row) Fulltext {
	ft := make(Fulltext, len(Buckets))
	for _, b := range Buckets {
		ft[b] = r.String(string(b))
	}
	return ft
}
