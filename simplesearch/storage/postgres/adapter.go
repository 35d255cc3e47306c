package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/simplesearch/simplesearch/simplesearch/storage"
	"github.com/simplesearch/simplesearch/simplesearch/storage/sqlbuilder"
)

// duplicateColumn is SQLSTATE duplicate_column.
const duplicateColumn = "42701"

type Adapter struct {
	DSN    string
	Schema string // used as dedicated schema via search_path

	sqlt storage.SQL
}

func New(dsn, schema string) *Adapter {
	a := &Adapter{DSN: dsn, Schema: schema}
	a.sqlt = buildSQL()
	return a
}

func (a *Adapter) Backend() storage.Backend { return storage.BackendPostgres }

func (a *Adapter) PlaceholderStyle() sqlbuilder.PlaceholderStyle { return sqlbuilder.PlaceholderDollar }

func (a *Adapter) IndexID() string { return "postgres:" + a.Schema }

func (a *Adapter) Close() error { return nil }

func (a *Adapter) SQL() storage.SQL { return a.sqlt }

func (a *Adapter) FTS() storage.FTS { return FTS{} }

func (a *Adapter) Tables() storage.Tables {
	return storage.Tables{Objects: objectsTable, Fulltext: fulltextTable}
}

func (a *Adapter) QuoteIdent(name string) string { return quoteIdent(name) }

func (a *Adapter) TransactionalDDL() bool { return true }

func (a *Adapter) IsDuplicateColumn(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == duplicateColumn
}

var schemaNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func quoteIdent(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func (a *Adapter) ensureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, "CREATE SCHEMA IF NOT EXISTS "+quoteIdent(a.Schema))
	return err
}

func (a *Adapter) Connect(ctx context.Context) (*sql.DB, error) {
	if a.Schema == "" || !schemaNameRe.MatchString(a.Schema) {
		return nil, fmt.Errorf("invalid postgres schema name %q (must match %s)", a.Schema, schemaNameRe.String())
	}
	// 1) Connect without search_path to ensure schema exists
	cfg0, err := pgx.ParseConfig(a.DSN)
	if err != nil {
		return nil, err
	}
	db0 := stdlib.OpenDB(*cfg0)
	if err := db0.PingContext(ctx); err != nil {
		_ = db0.Close()
		return nil, err
	}
	if err := a.ensureSchema(ctx, db0); err != nil {
		_ = db0.Close()
		return nil, err
	}
	_ = db0.Close()

	// 2) Connect with search_path pinned to the schema
	cfg, err := pgx.ParseConfig(a.DSN)
	if err != nil {
		return nil, err
	}
	// Include public as a fallback for built-ins; schema is first.
	if cfg.RuntimeParams == nil {
		cfg.RuntimeParams = make(map[string]string)
	}
	cfg.RuntimeParams["search_path"] = fmt.Sprintf("%s,public", quoteIdent(a.Schema))

	db := stdlib.OpenDB(*cfg)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func (a *Adapter) CreateTables(ctx context.Context, db storage.Execer) error {
	for _, stmt := range ddlCreate() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create tables: %w", err)
		}
	}
	return nil
}

func (a *Adapter) DropTables(ctx context.Context, db storage.Execer) error {
	stmt := fmt.Sprintf("DROP TABLE IF EXISTS %s, %s", quoteIdent(objectsTable), quoteIdent(fulltextTable))
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("drop tables: %w", err)
	}
	return nil
}

func (a *Adapter) LoadColumns(ctx context.Context, db storage.Queryer) ([]string, error) {
	const q = `SELECT column_name FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = :table
		ORDER BY ordinal_position`
	rows, err := storage.Query(ctx, db, a.PlaceholderStyle(), q, map[string]any{"table": objectsTable})
	if err != nil {
		return nil, err
	}
	cols := make([]string, 0, len(rows))
	for _, r := range rows {
		name := r.String("column_name")
		if name == storage.IdentifierColumn {
			continue
		}
		cols = append(cols, name)
	}
	return cols, nil
}

func (a *Adapter) AddColumnSQL(column string) string {
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s TEXT", quoteIdent(objectsTable), quoteIdent(column))
}

// Optimize rebuilds the GIN index and refreshes planner statistics.
// VACUUM cannot run inside a transaction, so it goes straight to db.
func (a *Adapter) Optimize(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		"REINDEX TABLE " + quoteIdent(fulltextTable),
		"VACUUM ANALYZE " + quoteIdent(objectsTable),
		"VACUUM ANALYZE " + quoteIdent(fulltextTable),
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("optimize: %w", err)
		}
	}
	return nil
}

func (a *Adapter) DateCompare(column, op string, t time.Time) string {
	return fmt.Sprintf("CAST(NULLIF(%s, '') AS TIMESTAMP) %s TIMESTAMP '%s'", column, op, t.UTC().Format(storage.DateLayout))
}

func (a *Adapter) NumericCast(column string) string {
	return "CAST(NULLIF(" + column + ", '') AS DOUBLE PRECISION)"
}

func (a *Adapter) LimitOffset(limit, offset int) string {
	var sb strings.Builder
	if limit >= 0 {
		sb.WriteString(" LIMIT " + sqlbuilder.Itoa(limit))
	}
	if offset >= 0 {
		sb.WriteString(" OFFSET " + sqlbuilder.Itoa(offset))
	}
	return sb.String()
}
