package simplesearch

import (
	"log/slog"

	"github.com/simplesearch/simplesearch/simplesearch/storage"
)

// Bucket names one fulltext column.
type Bucket string

const (
	H1   Bucket = "h1"
	H2   Bucket = "h2"
	H3   Bucket = "h3"
	H4   Bucket = "h4"
	H5   Bucket = "h5"
	H6   Bucket = "h6"
	Text Bucket = "text"
)

// Buckets lists all fulltext buckets in storage order.
var Buckets = []Bucket{H1, H2, H3, H4, H5, H6, Text}

// Valid reports whether b is one of the seven buckets.
func (b Bucket) Valid() bool {
	for _, x := range Buckets {
		if b == x {
			return true
		}
	}
	return false
}

// Properties are the named scalar values of a document. Slices are stored
// comma-joined and time.Time values in UTC as "2006-01-02 15:04:05".
type Properties map[string]any

// Fulltext maps buckets to searchable text.
type Fulltext map[Bucket]string

// Document is one indexable unit.
type Document struct {
	Identifier string     `json:"identifier"`
	Properties Properties `json:"properties,omitempty"`
	Fulltext   Fulltext   `json:"fulltext,omitempty"`
}

// Row is a result row with its columns in driver order.
type Row = storage.Row

// Options configures an open index.
type Options struct {
	// Logger receives statement and maintenance logs. Nil discards them.
	Logger *slog.Logger
	// WriteLock is a lock file taken around every write so that several
	// processes can share one index. Empty disables it.
	WriteLock string
	// StrictIdentifiers limits property names to ^[A-Za-z_][A-Za-z0-9_]*$.
	StrictIdentifiers bool
}

// DefaultOptions returns options with logging discarded and no write lock.
func DefaultOptions() Options {
	return Options{Logger: slog.New(slog.DiscardHandler)}
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return o.Logger
}
