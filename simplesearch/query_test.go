package simplesearch

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simplesearch/simplesearch/simplesearch/storage"
	"github.com/simplesearch/simplesearch/simplesearch/storage/mysql"
	"github.com/simplesearch/simplesearch/simplesearch/storage/postgres"
	"github.com/simplesearch/simplesearch/simplesearch/storage/sqlite"
	"github.com/simplesearch/simplesearch/simplesearch/storage/sqlbuilder"
)

func builderFor(a storage.Adapter) *QueryBuilder {
	ix := &Index{name: "docs", adapter: a, log: DefaultOptions().logger()}
	return ix.Query()
}

func md5Param(key string) string {
	sum := md5.Sum([]byte(key))
	return "p" + hex.EncodeToString(sum[:])
}

func TestRenderEmptyQuery(t *testing.T) {
	stmt, params := builderFor(sqlite.New("x.db")).SQL()
	assert.Equal(t, `SELECT "objects".* FROM "objects"`, stmt)
	assert.Empty(t, params)

	stmt, _ = builderFor(mysql.New("dsn", "docs")).SQL()
	assert.Equal(t, "SELECT `docs_objects`.* FROM `docs_objects`", stmt)
}

func TestRenderParameterNames(t *testing.T) {
	q := builderFor(sqlite.New("x.db")).
		ExactMatch("title", "Hello").
		ExactMatch("title", "World").
		Like("body", "x")
	stmt, params := q.SQL()

	first := md5Param("5:title#0")
	second := md5Param("5:title#1")
	third := md5Param("4:body#2")
	assert.Equal(t, `SELECT "objects".* FROM "objects" WHERE "title" = :`+first+` AND "title" = :`+second+` AND "body" LIKE :`+third, stmt)
	assert.Equal(t, map[string]any{first: "Hello", second: "World", third: "%x%"}, params)
}

func TestRenderAnyMatch(t *testing.T) {
	q := builderFor(sqlite.New("x.db")).
		AnyMatch("kind", nil).
		AnyMatch("kind", []any{}).
		AnyMatch("kind", []any{nil, "a"}).
		AnyMatch("kind", []any{"a", "b"}).
		LikeAnyMatch("tags", []any{"go"})
	stmt, params := q.SQL()

	a := md5Param("4:kind#0#0")
	b := md5Param("4:kind#0#1")
	g := md5Param("4:tags#1#0")
	assert.Equal(t, `SELECT "objects".* FROM "objects" WHERE ("kind" = :`+a+` OR "kind" = :`+b+`) AND ("tags" LIKE :`+g+`)`, stmt)
	assert.Equal(t, map[string]any{a: "a", b: "b", g: "%go%"}, params)
}

func TestRenderParameterNamesDoNotCollide(t *testing.T) {
	q := builderFor(sqlite.New("x.db")).
		ExactMatch("a#1", "x").
		AnyMatch("a", []any{"y"}).
		ExactMatch("FULLTEXT", "z").
		Fulltext("w")
	stmt, params := q.SQL()

	require.Len(t, params, 4)
	assert.Equal(t, "x", params[md5Param("3:a#1#0")])
	assert.Equal(t, "y", params[md5Param("1:a#1#0")])
	assert.Equal(t, "z", params[md5Param("8:FULLTEXT#2")])
	assert.Equal(t, "w", params[md5Param("FULLTEXT#3")])
	assert.Contains(t, stmt, `"a#1" = :`+md5Param("3:a#1#0"))
}

func TestRenderExactMatchNil(t *testing.T) {
	stmt, params := builderFor(sqlite.New("x.db")).ExactMatch("title", nil).ExactMatch("kind", "page").SQL()
	kind := md5Param("4:kind#1")
	assert.Equal(t, `SELECT "objects".* FROM "objects" WHERE "title" IS NULL AND "kind" = :`+kind, stmt)
	assert.Equal(t, map[string]any{kind: "page"}, params)

	stmt, _ = builderFor(mysql.New("dsn", "docs")).ExactMatch("title", nil).SQL()
	assert.Contains(t, stmt, "WHERE `title` IS NULL")
}

func TestRenderComparisons(t *testing.T) {
	day := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)

	tests := []struct {
		name    string
		adapter storage.Adapter
		want    []string
	}{
		{"sqlite", sqlite.New("x.db"), []string{
			`CAST("price" AS REAL) > :`,
			`"title" <= :`,
			`datetime("due") >= datetime('2024-02-03 04:05:06')`,
			`datetime("due") = datetime('2024-02-03 04:05:06')`,
		}},
		{"mysql", mysql.New("dsn", "docs"), []string{
			"CAST(`price` AS DECIMAL(65,10)) > :",
			"`title` <= :",
			"CAST(`due` AS DATETIME) >= CAST('2024-02-03 04:05:06' AS DATETIME)",
			"CAST(`due` AS DATETIME) = CAST('2024-02-03 04:05:06' AS DATETIME)",
		}},
		{"postgres", postgres.New("dsn", "docs"), []string{
			`CAST(NULLIF("price", '') AS DOUBLE PRECISION) > :`,
			`"title" <= :`,
			`CAST(NULLIF("due", '') AS TIMESTAMP) >= TIMESTAMP '2024-02-03 04:05:06'`,
			`CAST(NULLIF("due", '') AS TIMESTAMP) = TIMESTAMP '2024-02-03 04:05:06'`,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := builderFor(tt.adapter).
				GreaterThan("price", 10).
				LessThanOrEqual("title", "M").
				GreaterThanOrEqual("due", day).
				ExactMatch("due", day.In(time.FixedZone("X", 3600)))
			stmt, params := q.SQL()
			for _, w := range tt.want {
				assert.Contains(t, stmt, w)
			}
			assert.Equal(t, 10, params[md5Param("5:price#0")])
			assert.Equal(t, "M", params[md5Param("5:title#1")])
			assert.Len(t, params, 2)
		})
	}
}

func TestRenderFulltext(t *testing.T) {
	q := builderFor(sqlite.New("x.db")).Fulltext("  ").Fulltext(`hello "world`)
	stmt, params := q.SQL()
	name := md5Param("FULLTEXT#0")
	assert.Equal(t, `SELECT "objects".* FROM "objects" WHERE "__identifier__" IN (SELECT "__identifier__" FROM "fulltext" WHERE "fulltext" MATCH :`+name+`)`, stmt)
	assert.Equal(t, `hello """world"`, params[name])

	stmt, _ = builderFor(mysql.New("dsn", "docs")).Fulltext("hello").SQL()
	assert.Contains(t, stmt, "IN (SELECT `__identifier__` FROM `docs_fulltext` WHERE MATCH (`h1`, `h2`, `h3`, `h4`, `h5`, `h6`, `text`) AGAINST (:")

	stmt, _ = builderFor(postgres.New("dsn", "docs")).Fulltext("hello").SQL()
	assert.Contains(t, stmt, "plainto_tsquery('simple', CAST(:"+md5Param("FULLTEXT#0")+" AS TEXT))")
}

func TestRenderSortingAndPagination(t *testing.T) {
	tests := []struct {
		name    string
		adapter storage.Adapter
		limit   int
		offset  int
		suffix  string
	}{
		{"sqlite limit", sqlite.New("x.db"), 10, -1, ` ORDER BY "a" ASC, "b" DESC LIMIT 10`},
		{"sqlite offset only", sqlite.New("x.db"), -1, 5, ` ORDER BY "a" ASC, "b" DESC LIMIT -1 OFFSET 5`},
		{"mysql offset only", mysql.New("dsn", "docs"), -1, 5, " ORDER BY `a` ASC, `b` DESC LIMIT 18446744073709551615 OFFSET 5"},
		{"postgres both", postgres.New("dsn", "docs"), 10, 5, ` ORDER BY "a" ASC, "b" DESC LIMIT 10 OFFSET 5`},
		{"postgres neither", postgres.New("dsn", "docs"), -1, -1, ` ORDER BY "a" ASC, "b" DESC`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt, _ := builderFor(tt.adapter).SortAsc("a").SortDesc("b").Limit(tt.limit).From(tt.offset).SQL()
			assert.True(t, strings.HasSuffix(stmt, tt.suffix), stmt)
		})
	}
}

func TestRenderCustomCondition(t *testing.T) {
	stmt, _ := builderFor(sqlite.New("x.db")).CustomCondition("a = 1 OR b = 2").CustomCondition(" ").SQL()
	assert.Equal(t, `SELECT "objects".* FROM "objects" WHERE (a = 1 OR b = 2)`, stmt)
}

func TestRenderedStatementBinds(t *testing.T) {
	q := builderFor(postgres.New("dsn", "docs")).
		ExactMatch("title", "Hello").
		AnyMatch("kind", []any{"a", "b"}).
		Fulltext("hello")
	stmt, params := q.SQL()
	bound, args, err := sqlbuilder.Bind(sqlbuilder.PlaceholderDollar, stmt, params)
	require.NoError(t, err)
	assert.Contains(t, bound, `"title" = $1`)
	assert.Contains(t, bound, `("kind" = $2 OR "kind" = $3)`)
	assert.Contains(t, bound, "CAST($4 AS TEXT)")
	assert.Equal(t, []any{"Hello", "a", "b", "hello"}, args)
}

func TestWhereRecordsErrors(t *testing.T) {
	q := builderFor(sqlite.New("x.db")).Where("title:")
	assert.True(t, IsKind(q.Err(), ErrQueryParse))
	q.Where("kind:page")
	assert.True(t, IsKind(q.Err(), ErrQueryParse))

	q = builderFor(sqlite.New("x.db")).Where("a:1 OR b:2")
	assert.True(t, IsKind(q.Err(), ErrQueryRejected))

	q = builderFor(sqlite.New("x.db")).ExactMatch("x", map[string]any{"a": 1})
	assert.True(t, IsKind(q.Err(), ErrQueryRejected))
}

func TestWhereResolvesRelativeDates(t *testing.T) {
	q := builderFor(sqlite.New("x.db"))
	q.now = func() time.Time { return time.Date(2024, 5, 31, 12, 0, 0, 0, time.UTC) }
	stmt, _ := q.Where("created>=2w").SQL()
	assert.Contains(t, stmt, `datetime("created") >= datetime('2024-05-17 12:00:00')`)
}
