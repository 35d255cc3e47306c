package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/simplesearch/simplesearch/simplesearch/storage"
	"github.com/simplesearch/simplesearch/simplesearch/storage/sqlbuilder"
)

// DefaultDriver is the pure-Go driver registered by modernc.org/sqlite.
const DefaultDriver = "sqlite"

type Adapter struct {
	Path       string
	DriverName string

	sqlt storage.SQL
}

func New(path string) *Adapter {
	return NewWithDriver(path, DefaultDriver)
}

func NewWithDriver(path, driver string) *Adapter {
	if driver == "" {
		driver = DefaultDriver
	}
	a := &Adapter{Path: path, DriverName: driver}
	a.sqlt = buildSQL()
	return a
}

func (a *Adapter) Backend() storage.Backend {
	return storage.BackendSQLite
}

func (a *Adapter) PlaceholderStyle() sqlbuilder.PlaceholderStyle {
	return sqlbuilder.PlaceholderQuestion
}

func (a *Adapter) IndexID() string {
	return a.Path
}

// dsn builds the connection string for the configured driver. Both drivers
// get a busy timeout and immediate write transactions, so that concurrent
// writers queue on the lock instead of failing on upgrade.
func (a *Adapter) dsn() string {
	var params string
	switch a.DriverName {
	case "sqlite3":
		params = "_busy_timeout=5000&_txlock=immediate&_journal_mode=WAL"
	default:
		params = "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate"
	}
	if strings.Contains(a.Path, "?") {
		return a.Path + "&" + params
	}
	return a.Path + "?" + params
}

func (a *Adapter) Connect(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open(a.DriverName, a.dsn())
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func (a *Adapter) Close() error {
	return nil
}

func (a *Adapter) QuoteIdent(name string) string {
	return quoteIdent(name)
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (a *Adapter) Tables() storage.Tables {
	return storage.Tables{Objects: objectsTable, Fulltext: fulltextTable}
}

func (a *Adapter) TransactionalDDL() bool { return true }

func (a *Adapter) IsDuplicateColumn(err error) bool {
	return err != nil && strings.Contains(err.Error(), "duplicate column name")
}

func (a *Adapter) SQL() storage.SQL {
	return a.sqlt
}

func (a *Adapter) FTS() storage.FTS {
	return FTS5{}
}

func (a *Adapter) CreateTables(ctx context.Context, db storage.Execer) error {
	for _, stmt := range ddlCreate {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create tables: %w", err)
		}
	}
	return nil
}

func (a *Adapter) DropTables(ctx context.Context, db storage.Execer) error {
	for _, stmt := range ddlDrop {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("drop tables: %w", err)
		}
	}
	return nil
}

func (a *Adapter) LoadColumns(ctx context.Context, db storage.Queryer) ([]string, error) {
	rows, err := storage.Query(ctx, db, a.PlaceholderStyle(), "PRAGMA table_info("+quoteIdent(objectsTable)+")", nil)
	if err != nil {
		return nil, err
	}
	cols := make([]string, 0, len(rows))
	for _, r := range rows {
		name := r.String("name")
		if name == storage.IdentifierColumn {
			continue
		}
		cols = append(cols, name)
	}
	return cols, nil
}

func (a *Adapter) AddColumnSQL(column string) string {
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s TEXT", quoteIdent(objectsTable), quoteIdent(column))
}

// Optimize merges the FTS5 b-trees and rebuilds the database file.
func (a *Adapter) Optimize(ctx context.Context, db *sql.DB) error {
	stmt := fmt.Sprintf("INSERT INTO %s(%s) VALUES('optimize')", quoteIdent(fulltextTable), quoteIdent(fulltextTable))
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("optimize fts: %w", err)
	}
	if _, err := db.ExecContext(ctx, "VACUUM"); err != nil {
		return fmt.Errorf("vacuum: %w", err)
	}
	return nil
}

func (a *Adapter) DateCompare(column, op string, t time.Time) string {
	return fmt.Sprintf("datetime(%s) %s datetime('%s')", column, op, t.UTC().Format(storage.DateLayout))
}

func (a *Adapter) NumericCast(column string) string {
	return "CAST(" + column + " AS REAL)"
}

func (a *Adapter) LimitOffset(limit, offset int) string {
	var sb strings.Builder
	switch {
	case limit >= 0:
		sb.WriteString(" LIMIT " + sqlbuilder.Itoa(limit))
	case offset >= 0:
		sb.WriteString(" LIMIT -1")
	}
	if offset >= 0 {
		sb.WriteString(" OFFSET " + sqlbuilder.Itoa(offset))
	}
	return sb.String()
}
