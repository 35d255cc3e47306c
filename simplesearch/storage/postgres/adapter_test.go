package postgres

import (
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/simplesearch/simplesearch/simplesearch/storage"
)

func TestIsDuplicateColumn(t *testing.T) {
	a := New("dsn", "docs")
	assert.True(t, a.IsDuplicateColumn(fmt.Errorf("x: %w", &pgconn.PgError{Code: duplicateColumn})))
	assert.False(t, a.IsDuplicateColumn(&pgconn.PgError{Code: "42P01"}))
	assert.False(t, a.IsDuplicateColumn(nil))
}

func TestExpressions(t *testing.T) {
	a := New("dsn", "docs")
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("X", 3600))
	assert.Equal(t, `CAST(NULLIF("d", '') AS TIMESTAMP) >= TIMESTAMP '2024-01-02 02:04:05'`, a.DateCompare(`"d"`, ">=", at))
	assert.Equal(t, `ALTER TABLE "objects" ADD COLUMN IF NOT EXISTS "price" TEXT`, a.AddColumnSQL("price"))
	assert.Equal(t, " OFFSET 4", a.LimitOffset(-1, 4))
	assert.True(t, a.TransactionalDDL())
}

func TestSnippetSQL(t *testing.T) {
	req := storage.SnippetRequest{Search: "hello", Window: 60, Ellipsis: "...", Begin: "<b>", End: "</b>"}
	stmt, params, ok := FTS{}.SnippetSQL(req, []string{"id0", "id1"})
	assert.True(t, ok)
	assert.Contains(t, stmt, "ts_headline(")
	assert.Contains(t, stmt, `"__identifier__" IN (:id0, :id1) LIMIT 1`)
	assert.Equal(t, "hello", params["search"])
	assert.Equal(t, `StartSel="<b>", StopSel="</b>", FragmentDelimiter="...", MaxWords=10, MinWords=5, MaxFragments=1`, params["options"])
}

func TestConnectRejectsBadSchema(t *testing.T) {
	_, err := New("postgres://localhost:1/x", "bad-schema").Connect(t.Context())
	assert.ErrorContains(t, err, "invalid postgres schema name")
}
