package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/simplesearch/simplesearch/simplesearch/storage"
	"github.com/simplesearch/simplesearch/simplesearch/storage/sqlbuilder"
)

// errDupFieldName is ER_DUP_FIELDNAME.
const errDupFieldName = 1060

// noLimit is the row count MySQL documents for "OFFSET without LIMIT".
const noLimit = "18446744073709551615"

var indexNameRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Adapter stores an index as two tables prefixed with the index name in the
// database named by DSN.
type Adapter struct {
	DSN   string
	Index string

	tables storage.Tables
	sqlt   storage.SQL
}

func New(dsn, index string) *Adapter {
	a := &Adapter{
		DSN:   dsn,
		Index: index,
		tables: storage.Tables{
			Objects:  index + "_objects",
			Fulltext: index + "_fulltext",
		},
	}
	a.sqlt = buildSQL(a.tables)
	return a
}

func (a *Adapter) Backend() storage.Backend { return storage.BackendMySQL }

func (a *Adapter) PlaceholderStyle() sqlbuilder.PlaceholderStyle { return sqlbuilder.PlaceholderQuestion }

func (a *Adapter) IndexID() string { return "mysql:" + a.Index }

func (a *Adapter) Close() error { return nil }

func (a *Adapter) SQL() storage.SQL { return a.sqlt }

func (a *Adapter) FTS() storage.FTS { return FTS{tables: a.tables} }

func (a *Adapter) Tables() storage.Tables { return a.tables }

func (a *Adapter) QuoteIdent(name string) string { return quoteIdent(name) }

func quoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// TransactionalDDL is false: MySQL commits the open transaction on ALTER TABLE.
func (a *Adapter) TransactionalDDL() bool { return false }

func (a *Adapter) IsDuplicateColumn(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == errDupFieldName
}

func (a *Adapter) Connect(ctx context.Context) (*sql.DB, error) {
	if !indexNameRe.MatchString(a.Index) {
		return nil, fmt.Errorf("invalid mysql index name %q (must match %s)", a.Index, indexNameRe.String())
	}
	cfg, err := mysql.ParseDSN(a.DSN)
	if err != nil {
		return nil, err
	}
	cfg.ParseTime = false
	cfg.MultiStatements = false
	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, err
	}
	db := sql.OpenDB(connector)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func (a *Adapter) CreateTables(ctx context.Context, db storage.Execer) error {
	for _, stmt := range ddlCreate(a.tables) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create tables: %w", err)
		}
	}
	return nil
}

func (a *Adapter) DropTables(ctx context.Context, db storage.Execer) error {
	stmt := fmt.Sprintf("DROP TABLE IF EXISTS %s, %s", quoteIdent(a.tables.Objects), quoteIdent(a.tables.Fulltext))
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("drop tables: %w", err)
	}
	return nil
}

func (a *Adapter) LoadColumns(ctx context.Context, db storage.Queryer) ([]string, error) {
	rows, err := storage.Query(ctx, db, a.PlaceholderStyle(), "SHOW COLUMNS FROM "+quoteIdent(a.tables.Objects), nil)
	if err != nil {
		return nil, err
	}
	cols := make([]string, 0, len(rows))
	for _, r := range rows {
		name := r.String("Field")
		if name == storage.IdentifierColumn {
			continue
		}
		cols = append(cols, name)
	}
	return cols, nil
}

func (a *Adapter) AddColumnSQL(column string) string {
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s TEXT NULL", quoteIdent(a.tables.Objects), quoteIdent(column))
}

// Optimize rebuilds the FULLTEXT index with innodb_optimize_fulltext_only
// switched on, then optimizes both tables normally. The server-wide switch
// is turned back off even when the rebuild fails.
func (a *Adapter) Optimize(ctx context.Context, db *sql.DB) (err error) {
	if _, err := db.ExecContext(ctx, "SET GLOBAL innodb_optimize_fulltext_only = 1"); err != nil {
		return fmt.Errorf("enable fulltext-only optimize: %w", err)
	}
	restored := false
	restore := func() error {
		restored = true
		if _, rerr := db.ExecContext(context.WithoutCancel(ctx), "SET GLOBAL innodb_optimize_fulltext_only = 0"); rerr != nil {
			return fmt.Errorf("disable fulltext-only optimize: %w", rerr)
		}
		return nil
	}
	defer func() {
		if !restored {
			err = errors.Join(err, restore())
		}
	}()

	if err := storage.Drain(ctx, db, "OPTIMIZE TABLE "+quoteIdent(a.tables.Fulltext)); err != nil {
		return fmt.Errorf("optimize fulltext index: %w", err)
	}
	if err := restore(); err != nil {
		return err
	}
	stmt := fmt.Sprintf("OPTIMIZE TABLE %s, %s", quoteIdent(a.tables.Objects), quoteIdent(a.tables.Fulltext))
	if err := storage.Drain(ctx, db, stmt); err != nil {
		return fmt.Errorf("optimize tables: %w", err)
	}
	return nil
}

func (a *Adapter) DateCompare(column, op string, t time.Time) string {
	return fmt.Sprintf("CAST(%s AS DATETIME) %s CAST('%s' AS DATETIME)", column, op, t.UTC().Format(storage.DateLayout))
}

func (a *Adapter) NumericCast(column string) string {
	return "CAST(" + column + " AS DECIMAL(65,10))"
}

func (a *Adapter) LimitOffset(limit, offset int) string {
	var sb strings.Builder
	switch {
	case limit >= 0:
		sb.WriteString(" LIMIT " + sqlbuilder.Itoa(limit))
	case offset >= 0:
		sb.WriteString(" LIMIT " + noLimit)
	}
	if offset >= 0 {
		sb.WriteString(" OFFSET " + sqlbuilder.Itoa(offset))
	}
	return sb.String()
}
