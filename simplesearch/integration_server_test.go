package simplesearch_test

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simplesearch/simplesearch/simplesearch"
	"github.com/simplesearch/simplesearch/simplesearch/storage"
	"github.com/simplesearch/simplesearch/simplesearch/storage/mysql"
	"github.com/simplesearch/simplesearch/simplesearch/storage/postgres"
)

// Server backends run only when a DSN is given, e.g.
//
//	SIMPLESEARCH_MYSQL_DSN='root:pw@tcp(localhost:3306)/search'
//	SIMPLESEARCH_POSTGRES_DSN='postgres://postgres:pw@localhost:5432/search'
const (
	mysqlDSNEnv    = "SIMPLESEARCH_MYSQL_DSN"
	postgresDSNEnv = "SIMPLESEARCH_POSTGRES_DSN"
)

func uniqueName() string {
	return "ss_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

func TestMySQLBackend(t *testing.T) {
	dsn := os.Getenv(mysqlDSNEnv)
	if dsn == "" {
		t.Skipf("%s not set", mysqlDSNEnv)
	}
	runBackendSuite(t, mysql.New(dsn, uniqueName()))
}

func TestPostgresBackend(t *testing.T) {
	dsn := os.Getenv(postgresDSNEnv)
	if dsn == "" {
		t.Skipf("%s not set", postgresDSNEnv)
	}
	runBackendSuite(t, postgres.New(dsn, uniqueName()))
}

func runBackendSuite(t *testing.T, a storage.Adapter) {
	ctx := context.Background()
	ix, err := simplesearch.Open(ctx, a, "suite", simplesearch.DefaultOptions())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = ix.Flush(context.Background())
		_ = ix.Close()
	})
	seed(t, ix)

	t.Run("exact and any match", func(t *testing.T) {
		n, err := ix.Query().ExactMatch("title", "Hello").Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		rows, err := ix.Query().AnyMatch("kind", []any{"post", "none"}).Execute(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"B"}, identifiers(rows))
	})

	t.Run("numeric and date ranges", func(t *testing.T) {
		rows, err := ix.Query().Where("price:6..20").SortDesc("price").Execute(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"C", "B"}, identifiers(rows))

		n, err := ix.Query().Where("published>=2024-03-01").Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	t.Run("fulltext", func(t *testing.T) {
		rows, err := ix.Query().Fulltext("brave").Execute(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"C"}, identifiers(rows))

		s, err := ix.Query().FulltextMatchResult(ctx, "brave")
		require.NoError(t, err)
		assert.Contains(t, s, "<b>Brave</b>")
	})

	t.Run("append and properties", func(t *testing.T) {
		require.NoError(t, ix.AddToFulltext(ctx, simplesearch.Fulltext{simplesearch.Text: "appended marmalade"}, "B"))
		n, err := ix.Query().Fulltext("marmalade").Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		require.NoError(t, ix.InsertOrUpdateProperties(ctx, simplesearch.Properties{"color": "red"}, "B"))
		row, ok, err := ix.FindOneByIdentifier(ctx, "B")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "red", row.String("color"))
		assert.Equal(t, "post", row.String("kind"))
	})

	t.Run("stats", func(t *testing.T) {
		st, err := ix.Query().Stats(ctx, "price")
		require.NoError(t, err)
		assert.Equal(t, uint64(3), st.Count)
		assert.InDelta(t, 10, *st.Median, 1e-9)
	})

	t.Run("remove", func(t *testing.T) {
		require.NoError(t, ix.RemoveData(ctx, "A"))
		_, ok, err := ix.FindOneByIdentifier(ctx, "A")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
