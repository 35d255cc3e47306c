package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/simplesearch/simplesearch/simplesearch/storage/sqlbuilder"
)

type Backend string

const (
	BackendSQLite   Backend = "sqlite"
	BackendMySQL    Backend = "mysql"
	BackendPostgres Backend = "postgres"
)

// IdentifierColumn is the primary key of both relations. The double
// underscores keep it apart from a caller property called "identifier".
const IdentifierColumn = "__identifier__"

// Buckets lists the fulltext columns in storage order.
var Buckets = []string{"h1", "h2", "h3", "h4", "h5", "h6", "text"}

// IdentifierParam is the named parameter carrying the document identifier.
const IdentifierParam = "identifier"

// Adapter abstracts database-specific operations
type Adapter interface {
	Backend() Backend
	PlaceholderStyle() sqlbuilder.PlaceholderStyle
	IndexID() string

	Connect(ctx context.Context) (*sql.DB, error)
	Close() error

	// QuoteIdent quotes a table or column name for this engine.
	QuoteIdent(name string) string
	Tables() Tables
	// TransactionalDDL reports whether ALTER TABLE may run inside the
	// write transaction. Engines that commit implicitly on DDL return false.
	TransactionalDDL() bool
	IsDuplicateColumn(err error) bool

	CreateTables(ctx context.Context, db Execer) error
	DropTables(ctx context.Context, db Execer) error
	// LoadColumns returns the property columns of the objects relation,
	// excluding the identifier column.
	LoadColumns(ctx context.Context, db Queryer) ([]string, error)
	AddColumnSQL(column string) string
	Optimize(ctx context.Context, db *sql.DB) error

	// DateCompare renders "column op t" as a date comparison.
	DateCompare(column, op string, t time.Time) string
	// NumericCast renders column as a number for range comparisons.
	NumericCast(column string) string
	// LimitOffset renders the pagination clause with a leading space, or ""
	// when both are unset (negative).
	LimitOffset(limit, offset int) string

	SQL() SQL
	FTS() FTS
}

// Tables names the two relations of an index, unquoted.
type Tables struct {
	Objects  string
	Fulltext string
}

// DateLayout is the fixed layout of dates written to and compared against
// property columns.
const DateLayout = "2006-01-02 15:04:05"

// SQL holds named-parameter statement templates for one index.
type SQL struct {
	SelectObject   string
	SelectFulltext string
	DeleteObject   string
	DeleteFulltext string

	// ReplaceFulltext statements run in order and bind :identifier and one
	// parameter per bucket.
	ReplaceFulltext []string

	UpsertObject UpsertObjectSQL
}

// UpsertObjectSQL builds the objects upsert for a set of columns. The
// statement binds :identifier and ColumnParam(i) for columns[i]; only the
// supplied columns are overwritten on conflict.
type UpsertObjectSQL interface {
	Build(columns []string) string
}

// ColumnParam names the parameter bound to the i-th upserted column.
func ColumnParam(i int) string {
	return "c" + sqlbuilder.Itoa(i)
}

// IDParam names the parameter bound to the i-th identifier of an IN list.
func IDParam(i int) string {
	return "id" + sqlbuilder.Itoa(i)
}

// FTS handles the fulltext relation and its native search facilities.
type FTS interface {
	// MatchValue adapts a caller search word to the engine's match syntax.
	MatchValue(searchword string) string
	// MatchPredicate returns a WHERE fragment over the objects relation
	// restricting identifiers to fulltext rows matching the named param.
	MatchPredicate(param string) string
	// AppendSQL appends the bucket params onto the stored buckets of
	// :identifier, leaving other buckets untouched.
	AppendSQL(buckets []string) string
	// SelectRowsIn returns the fulltext rows of the given id params.
	SelectRowsIn(idParams []string) string
	// SnippetSQL returns a statement yielding a "snippet" column for the
	// first row among idParams matching req.Search. ok is false when the
	// engine has no native snippet function.
	SnippetSQL(req SnippetRequest, idParams []string) (stmt string, params map[string]any, ok bool)
}

// SnippetRequest carries the snippet settings to a native snippet function.
type SnippetRequest struct {
	Search   string
	Window   int
	Ellipsis string
	Begin    string
	End      string
}

// Tokens converts a window in characters into a token budget for native
// snippet functions, clamped to [lo, 64].
func (r SnippetRequest) Tokens(lo int) int {
	n := (r.Window + 5) / 6
	if n < lo {
		n = lo
	}
	if n > 64 {
		n = 64
	}
	return n
}
