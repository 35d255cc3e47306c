package simplesearch

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/simplesearch/simplesearch/simplesearch/storage"
	"github.com/simplesearch/simplesearch/simplesearch/storage/mysql"
	"github.com/simplesearch/simplesearch/simplesearch/storage/postgres"
	"github.com/simplesearch/simplesearch/simplesearch/storage/sqlite"
)

// DefaultStorageFolder holds SQLite index files when no folder is given.
const DefaultStorageFolder = "./data"

// OpenOptions selects and configures the backend of one index.
type OpenOptions struct {
	Backend storage.Backend

	// StorageFolder holds SQLite files, one per index named after the md5
	// of the index name.
	StorageFolder string
	// Driver picks the SQLite driver: "sqlite" (pure Go) or "sqlite3" (cgo).
	Driver string

	// DSN connects to MySQL or Postgres.
	DSN string
	// Schema is the Postgres schema holding the index; defaults to its name.
	Schema string

	// WriteLock overrides the lock file path. SQLite indexes default to
	// "<file>.lock"; server backends have none unless set.
	WriteLock string

	StrictIdentifiers bool
}

func (o OpenOptions) backend() storage.Backend {
	if o.Backend == "" {
		return storage.BackendSQLite
	}
	return o.Backend
}

// SQLitePath returns the database file of the named index.
func (o OpenOptions) SQLitePath(name string) string {
	folder := o.StorageFolder
	if folder == "" {
		folder = DefaultStorageFolder
	}
	sum := md5.Sum([]byte(name))
	return filepath.Join(folder, hex.EncodeToString(sum[:])+".db")
}

// NewAdapter builds the storage adapter for the named index.
func NewAdapter(name string, o OpenOptions) (storage.Adapter, error) {
	switch o.backend() {
	case storage.BackendSQLite:
		return sqlite.NewWithDriver(o.SQLitePath(name), o.Driver), nil
	case storage.BackendMySQL:
		if o.DSN == "" {
			return nil, New(ErrConfig, "mysql backend requires a dsn")
		}
		return mysql.New(o.DSN, name), nil
	case storage.BackendPostgres:
		if o.DSN == "" {
			return nil, New(ErrConfig, "postgres backend requires a dsn")
		}
		schema := o.Schema
		if schema == "" {
			schema = name
		}
		return postgres.New(o.DSN, schema), nil
	default:
		return nil, New(ErrConfig, fmt.Sprintf("unknown backend: %s", o.Backend))
	}
}

// Registry keeps one open Index per index name and backend. It is owned by
// the caller; Close releases every index it opened.
type Registry struct {
	opts Options

	mu      sync.Mutex
	indexes map[string]*Index
}

// NewRegistry returns an empty registry whose indexes share opts.
func NewRegistry(opts Options) *Registry {
	return &Registry{opts: opts, indexes: make(map[string]*Index)}
}

func registryKey(name string, b storage.Backend) string {
	return name + "#" + string(b)
}

// Open returns the cached index for name and o.Backend, opening it first
// if needed.
func (r *Registry) Open(ctx context.Context, name string, o OpenOptions) (*Index, error) {
	key := registryKey(name, o.backend())

	r.mu.Lock()
	defer r.mu.Unlock()
	if ix, ok := r.indexes[key]; ok {
		return ix, nil
	}

	adapter, err := NewAdapter(name, o)
	if err != nil {
		return nil, err
	}

	opts := r.opts
	opts.StrictIdentifiers = opts.StrictIdentifiers || o.StrictIdentifiers
	opts.WriteLock = o.WriteLock
	if o.backend() == storage.BackendSQLite {
		path := o.SQLitePath(name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, Wrap(ErrIO, "create storage folder", err)
		}
		if opts.WriteLock == "" {
			opts.WriteLock = path + ".lock"
		}
	}

	ix, err := Open(ctx, adapter, name, opts)
	if err != nil {
		return nil, err
	}
	r.indexes[key] = ix
	opts.logger().Debug("registry opened index", slog.String("index", name), slog.String("backend", string(o.backend())))
	return ix, nil
}

// Get returns an already open index.
func (r *Registry) Get(name string, b storage.Backend) (*Index, bool) {
	if b == "" {
		b = storage.BackendSQLite
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	ix, ok := r.indexes[registryKey(name, b)]
	return ix, ok
}

// Names returns the keys ("name#backend") of all open indexes, sorted.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.indexes))
	for k := range r.indexes {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// OptimizeAll optimizes every open index concurrently and returns the first
// failure.
func (r *Registry) OptimizeAll(ctx context.Context) error {
	r.mu.Lock()
	all := make([]*Index, 0, len(r.indexes))
	for _, ix := range r.indexes {
		all = append(all, ix)
	}
	r.mu.Unlock()

	g, ctx := errgroup.WithContext(ctx)
	for _, ix := range all {
		g.Go(func() error {
			return ix.Optimize(ctx)
		})
	}
	return g.Wait()
}

// Close closes every index and empties the registry.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var errs []error
	for key, ix := range r.indexes {
		if err := ix.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
		delete(r.indexes, key)
	}
	return errors.Join(errs...)
}
