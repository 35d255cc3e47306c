package postgres

import (
	"fmt"
	"strings"

	"github.com/simplesearch/simplesearch/simplesearch/storage"
)

const (
	objectsTable  = "objects"
	fulltextTable = "fulltext"
)

// searchConfig is the text search configuration. 'simple' lowercases
// without stemming, which keeps matching language-neutral.
const searchConfig = "'simple'"

// documentExpr concatenates all buckets. It only uses immutable operators so
// the GIN expression index can be built on it; the buckets are NOT NULL.
func documentExpr() string {
	cols := make([]string, len(storage.Buckets))
	for i, b := range storage.Buckets {
		cols[i] = quoteIdent(b)
	}
	return strings.Join(cols, " || ' ' || ")
}

func vectorExpr() string {
	return fmt.Sprintf("to_tsvector(%s, %s)", searchConfig, documentExpr())
}

func ddlCreate() []string {
	id := quoteIdent(storage.IdentifierColumn)

	buckets := make([]string, 0, len(storage.Buckets))
	for _, b := range storage.Buckets {
		buckets = append(buckets, fmt.Sprintf("  %s TEXT NOT NULL DEFAULT ''", quoteIdent(b)))
	}

	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
  %s TEXT PRIMARY KEY
)`, quoteIdent(objectsTable), id),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
  %s TEXT PRIMARY KEY,
%s
)`, quoteIdent(fulltextTable), id, strings.Join(buckets, ",\n")),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s USING GIN (%s)",
			quoteIdent("idx_fulltext_document"), quoteIdent(fulltextTable), vectorExpr()),
	}
}
