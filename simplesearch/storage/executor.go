package storage

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/simplesearch/simplesearch/simplesearch/storage/sqlbuilder"
)

// Queryer is satisfied by *sql.DB, *sql.Tx and *sql.Conn.
type Queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Execer is satisfied by *sql.DB, *sql.Tx and *sql.Conn.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Conn is the statement surface shared by a database handle and a transaction.
type Conn interface {
	Queryer
	Execer
}

// Row is one result row. Columns keeps the order reported by the driver.
type Row struct {
	Columns []string
	Values  map[string]any
}

// Get returns the value of column, or nil.
func (r Row) Get(column string) any {
	return r.Values[column]
}

// String returns the value of column as a string; NULL is "".
func (r Row) String(column string) string {
	v := r.Values[column]
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Identifier returns the value of the identifier column.
func (r Row) Identifier() string {
	return r.String(IdentifierColumn)
}

// MarshalJSON encodes the row as an object with columns in row order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range r.Columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(r.Values[c])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Query binds the named params of query and returns all result rows.
// The result is never nil.
func Query(ctx context.Context, q Queryer, style sqlbuilder.PlaceholderStyle, query string, params map[string]any) ([]Row, error) {
	stmt, args, err := sqlbuilder.Bind(style, query, params)
	if err != nil {
		return nil, err
	}
	rows, err := q.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	out := make([]Row, 0)
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := Row{Columns: cols, Values: make(map[string]any, len(cols))}
		for i, c := range cols {
			row.Values[c] = normalize(vals[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Exec binds the named params of query and executes it.
func Exec(ctx context.Context, e Execer, style sqlbuilder.PlaceholderStyle, query string, params map[string]any) (sql.Result, error) {
	stmt, args, err := sqlbuilder.Bind(style, query, params)
	if err != nil {
		return nil, err
	}
	return e.ExecContext(ctx, stmt, args...)
}

// Drain runs a statement that may return a result set and discards it.
func Drain(ctx context.Context, q Queryer, query string) error {
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
	}
	return rows.Err()
}

// normalize converts driver byte slices into strings.
func normalize(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
