package simplesearch_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simplesearch/simplesearch/simplesearch"
	"github.com/simplesearch/simplesearch/simplesearch/storage"
	"github.com/simplesearch/simplesearch/simplesearch/storage/sqlite"
)

func newIndex(t *testing.T) (*simplesearch.Index, string) {
	t.Helper()
	return newIndexWith(t, sqlite.New(filepath.Join(t.TempDir(), "test.db")), simplesearch.DefaultOptions())
}

func newIndexWith(t *testing.T, a storage.Adapter, opts simplesearch.Options) (*simplesearch.Index, string) {
	t.Helper()
	ix, err := simplesearch.Open(context.Background(), a, "test", opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ix.Close() })
	return ix, a.IndexID()
}

func identifiers(rows []simplesearch.Row) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Identifier())
	}
	return out
}

// seed indexes the documents used by most query tests.
func seed(t *testing.T, ix *simplesearch.Index) {
	t.Helper()
	ctx := context.Background()
	docs := []simplesearch.Document{
		{
			Identifier: "A",
			Properties: simplesearch.Properties{"title": "Hello", "kind": "page", "price": 5, "published": time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)},
			Fulltext:   simplesearch.Fulltext{simplesearch.H1: "Hello World", simplesearch.Text: "Hello there"},
		},
		{
			Identifier: "B",
			Properties: simplesearch.Properties{"title": "Hello", "kind": "post", "price": 10, "published": time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)},
			Fulltext:   simplesearch.Fulltext{simplesearch.Text: "Goodbye everyone"},
		},
		{
			Identifier: "C",
			Properties: simplesearch.Properties{"title": "Other", "kind": "page", "price": 20, "published": time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)},
			Fulltext:   simplesearch.Fulltext{simplesearch.H2: "Brave new World"},
		},
	}
	for _, d := range docs {
		require.NoError(t, ix.IndexData(ctx, d.Identifier, d.Properties, d.Fulltext))
	}
}

func TestRoundTrip(t *testing.T) {
	ix, _ := newIndex(t)
	ctx := context.Background()

	props := simplesearch.Properties{
		"title":     "Hello",
		"tags":      []string{"go", "sql"},
		"mixed":     []any{"a", 1, true},
		"count":     7,
		"ratio":     0.25,
		"published": time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	require.NoError(t, ix.IndexData(ctx, "doc-1", props, simplesearch.Fulltext{simplesearch.H1: "Heading", simplesearch.Text: "Body"}))

	row, ok, err := ix.FindOneByIdentifier(ctx, "doc-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "doc-1", row.Identifier())
	assert.Equal(t, "Hello", row.String("title"))
	assert.Equal(t, "go,sql", row.String("tags"))
	assert.Equal(t, "a,1,true", row.String("mixed"))
	assert.Equal(t, "7", row.String("count"))
	assert.Equal(t, "0.25", row.String("ratio"))
	assert.Equal(t, "2024-01-02 03:04:05", row.String("published"))

	ft, ok, err := ix.FulltextOf(ctx, "doc-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, simplesearch.Fulltext{
		simplesearch.H1: "Heading", simplesearch.H2: "", simplesearch.H3: "", simplesearch.H4: "",
		simplesearch.H5: "", simplesearch.H6: "", simplesearch.Text: "Body",
	}, ft)

	_, ok, err = ix.FindOneByIdentifier(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUpsertIsPerColumn(t *testing.T) {
	ix, _ := newIndex(t)
	ctx := context.Background()

	require.NoError(t, ix.IndexData(ctx, "A", simplesearch.Properties{"title": "One", "kind": "page"}, nil))
	require.NoError(t, ix.IndexData(ctx, "A", simplesearch.Properties{"title": "Two"}, nil))

	row, ok, err := ix.FindOneByIdentifier(ctx, "A")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Two", row.String("title"))
	assert.Equal(t, "page", row.String("kind"))

	require.NoError(t, ix.InsertOrUpdateProperties(ctx, simplesearch.Properties{"kind": "post"}, "A"))
	row, _, err = ix.FindOneByIdentifier(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, "Two", row.String("title"))
	assert.Equal(t, "post", row.String("kind"))
}

func TestInsertOrUpdatePropertiesLeavesFulltext(t *testing.T) {
	ix, _ := newIndex(t)
	ctx := context.Background()

	require.NoError(t, ix.IndexData(ctx, "A", nil, simplesearch.Fulltext{simplesearch.Text: "alpha"}))
	require.NoError(t, ix.InsertOrUpdateProperties(ctx, simplesearch.Properties{"title": "T"}, "A"))

	ft, _, err := ix.FulltextOf(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, "alpha", ft[simplesearch.Text])

	// properties only, no fulltext row
	require.NoError(t, ix.InsertOrUpdateProperties(ctx, simplesearch.Properties{"title": "U"}, "B"))
	_, ok, err := ix.FulltextOf(ctx, "B")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDestructiveVersusAdditiveFulltext(t *testing.T) {
	ix, _ := newIndex(t)
	ctx := context.Background()

	require.NoError(t, ix.IndexData(ctx, "A", nil, simplesearch.Fulltext{simplesearch.H1: "head", simplesearch.Text: "alpha"}))
	require.NoError(t, ix.AddToFulltext(ctx, simplesearch.Fulltext{simplesearch.Text: "beta"}, "A"))

	ft, _, err := ix.FulltextOf(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, "alpha beta", ft[simplesearch.Text])
	assert.Equal(t, "head", ft[simplesearch.H1])

	require.NoError(t, ix.AddToFulltext(ctx, simplesearch.Fulltext{simplesearch.H3: "sub"}, "A"))
	ft, _, err = ix.FulltextOf(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, "sub", ft[simplesearch.H3])

	require.NoError(t, ix.IndexData(ctx, "A", nil, simplesearch.Fulltext{simplesearch.Text: "beta"}))
	ft, _, err = ix.FulltextOf(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, "beta", ft[simplesearch.Text])
	for _, b := range []simplesearch.Bucket{simplesearch.H1, simplesearch.H2, simplesearch.H3, simplesearch.H4, simplesearch.H5, simplesearch.H6} {
		assert.Equal(t, "", ft[b], "bucket %s", b)
	}
}

func TestAddToFulltextUnknownIdentifierIsNoop(t *testing.T) {
	ix, _ := newIndex(t)
	ctx := context.Background()

	require.NoError(t, ix.AddToFulltext(ctx, simplesearch.Fulltext{simplesearch.Text: "x"}, "ghost"))
	_, ok, err := ix.FulltextOf(ctx, "ghost")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, ix.AddToFulltext(ctx, nil, "ghost"))
}

func TestSchemaEvolutionAndFlush(t *testing.T) {
	ix, path := newIndex(t)
	ctx := context.Background()

	assert.Empty(t, ix.Columns())
	require.NoError(t, ix.IndexData(ctx, "A", simplesearch.Properties{"category": "news"}, nil))
	require.NoError(t, ix.IndexData(ctx, "B", simplesearch.Properties{"title": "B"}, nil))
	assert.Equal(t, []string{"category", "title"}, ix.Columns())

	row, ok, err := ix.FindOneByIdentifier(ctx, "B")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, row.Columns, "category")
	assert.Equal(t, "", row.String("category"))

	// a second handle on the same file loads the columns from the database
	other, err := simplesearch.Open(ctx, sqlite.New(path), "test", simplesearch.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{"category", "title"}, other.Columns())
	require.NoError(t, other.Close())

	require.NoError(t, ix.Flush(ctx))
	assert.Empty(t, ix.Columns())
	_, ok, err = ix.FindOneByIdentifier(ctx, "A")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, ix.IndexData(ctx, "C", simplesearch.Properties{"title": "C"}, nil))
	row, _, err = ix.FindOneByIdentifier(ctx, "C")
	require.NoError(t, err)
	assert.NotContains(t, row.Columns, "category")
}

func TestStaleRegistryToleratesExistingColumn(t *testing.T) {
	_, path := newIndex(t)
	ctx := context.Background()

	first, err := simplesearch.Open(ctx, sqlite.New(path), "test", simplesearch.DefaultOptions())
	require.NoError(t, err)
	defer first.Close()
	second, err := simplesearch.Open(ctx, sqlite.New(path), "test", simplesearch.DefaultOptions())
	require.NoError(t, err)
	defer second.Close()

	require.NoError(t, first.IndexData(ctx, "A", simplesearch.Properties{"color": "red"}, nil))
	// second still believes "color" is missing
	require.NoError(t, second.IndexData(ctx, "B", simplesearch.Properties{"color": "blue"}, nil))
	assert.Contains(t, second.Columns(), "color")
}

func TestRemoveData(t *testing.T) {
	ix, _ := newIndex(t)
	ctx := context.Background()
	seed(t, ix)

	require.NoError(t, ix.RemoveData(ctx, "A"))
	_, ok, err := ix.FindOneByIdentifier(ctx, "A")
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = ix.FulltextOf(ctx, "A")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, ix.RemoveData(ctx, "A"))

	n, err := ix.Query().Fulltext("World").Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestConcreteScenario(t *testing.T) {
	ix, _ := newIndex(t)
	ctx := context.Background()

	require.NoError(t, ix.IndexData(ctx, "A",
		simplesearch.Properties{"title": "Hello"},
		simplesearch.Fulltext{simplesearch.H1: "Hello World", simplesearch.Text: "Hello there"}))

	rows, err := ix.Query().ExactMatch("title", "Hello").Execute(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "A", rows[0].Identifier())
	assert.Equal(t, "Hello", rows[0].String("title"))

	rows, err = ix.Query().Fulltext("World").Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, identifiers(rows))

	s, err := ix.Query().Fulltext("World").FulltextMatchResult(ctx, "World", simplesearch.WithWindow(20))
	require.NoError(t, err)
	assert.Contains(t, s, "<b>World</b>")
}

func TestPredicateComposition(t *testing.T) {
	ix, _ := newIndex(t)
	ctx := context.Background()
	seed(t, ix)

	rows, err := ix.Query().ExactMatch("title", "Hello").Fulltext("World").Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, identifiers(rows))

	all, err := ix.Query().SortAsc(storage.IdentifierColumn).Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, identifiers(all))

	for _, values := range [][]any{nil, {}, {nil, "page"}} {
		rows, err = ix.Query().AnyMatch("kind", values).SortAsc(storage.IdentifierColumn).Execute(ctx)
		require.NoError(t, err)
		assert.Equal(t, identifiers(all), identifiers(rows))
	}

	rows, err = ix.Query().AnyMatch("kind", []any{"post", "none"}).Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, identifiers(rows))

	rows, err = ix.Query().LikeAnyMatch("title", []any{"ell", "zzz"}).SortDesc(storage.IdentifierColumn).Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "A"}, identifiers(rows))

	rows, err = ix.Query().Like("title", "the").Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"C"}, identifiers(rows))

	rows, err = ix.Query().ExactMatch("kind", "page").ExactMatch("kind", "page").CustomCondition(`"title" <> 'Hello'`).Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"C"}, identifiers(rows))

	rows, err = ix.Query().ExactMatch("kind", "nothing").Execute(ctx)
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestFulltextIgnoresBlankAndQuotesSyntax(t *testing.T) {
	ix, _ := newIndex(t)
	ctx := context.Background()
	seed(t, ix)

	n, err := ix.Query().Fulltext("   ").Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	// FTS5 operators in the search word are taken literally
	n, err = ix.Query().Fulltext("World OR").Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	n, err = ix.Query().Fulltext("-World").Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, ix.IndexData(ctx, "P", nil, simplesearch.Fulltext{simplesearch.Text: "don't stop, hello! C# rocks"}))
	for _, w := range []string{"don't", "stop,", "hello!", "C#", "a/b", "x@y"} {
		_, err := ix.Query().Fulltext(w).Count(ctx)
		require.NoError(t, err, w)
		_, err = ix.Query().ExactMatch(storage.IdentifierColumn, "P").FulltextMatchResult(ctx, w)
		require.NoError(t, err, w)
	}
	n, err = ix.Query().Fulltext("rocks").Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestExactMatchNilFindsMissingProperty(t *testing.T) {
	ix, _ := newIndex(t)
	ctx := context.Background()
	seed(t, ix)
	require.NoError(t, ix.IndexData(ctx, "D", simplesearch.Properties{"kind": "note"}, nil))

	rows, err := ix.Query().ExactMatch("title", nil).Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"D"}, identifiers(rows))
}

func TestNumericAndDateComparisons(t *testing.T) {
	ix, _ := newIndex(t)
	ctx := context.Background()
	seed(t, ix)

	rows, err := ix.Query().GreaterThan("price", 6).SortAsc(storage.IdentifierColumn).Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "C"}, identifiers(rows))

	rows, err = ix.Query().GreaterThanOrEqual("price", 10).LessThanOrEqual("price", 10).Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, identifiers(rows))

	rows, err = ix.Query().LessThan("price", 5.5).Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, identifiers(rows))

	rows, err = ix.Query().GreaterThan("published", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)).SortAsc(storage.IdentifierColumn).Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "C"}, identifiers(rows))

	rows, err = ix.Query().ExactMatch("published", time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)).Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, identifiers(rows))

	rows, err = ix.Query().LessThan("title", "Other").Execute(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"A", "B"}, identifiers(rows))
}

func TestSortingAndPagination(t *testing.T) {
	ix, _ := newIndex(t)
	ctx := context.Background()
	seed(t, ix)

	rows, err := ix.Query().SortAsc("title").SortDesc(storage.IdentifierColumn).Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "A", "C"}, identifiers(rows))

	rows, err = ix.Query().SortAsc(storage.IdentifierColumn).Limit(2).Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, identifiers(rows))

	rows, err = ix.Query().SortAsc(storage.IdentifierColumn).Limit(1).From(1).Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, identifiers(rows))

	rows, err = ix.Query().SortAsc(storage.IdentifierColumn).From(2).Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"C"}, identifiers(rows))

	rows, err = ix.Query().SortAsc(storage.IdentifierColumn).Limit(1).ClearLimit().From(1).ClearFrom().Execute(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestWhereExpressions(t *testing.T) {
	ix, _ := newIndex(t)
	ctx := context.Background()
	seed(t, ix)

	tests := []struct {
		expr string
		want []string
	}{
		{"kind:page", []string{"A", "C"}},
		{"kind:page World", []string{"A", "C"}},
		{"kind:page price>6", []string{"C"}},
		{"price:5..10", []string{"A", "B"}},
		{"(kind:post OR title:Other)", nil},
		{"(kind:post OR kind:page) title:Hello", []string{"A", "B"}},
		{"title:*ell*", []string{"A", "B"}},
		{"(title:*ell* OR title:*the*)", []string{"A", "B", "C"}},
		{"published:2024-01-01..2024-03-01", []string{"A", "B"}},
		{"published<2024-02-01", []string{"A"}},
		{`"Brave new"`, []string{"C"}},
	}
	for _, tt := range tests {
		q := ix.Query().Where(tt.expr).SortAsc(storage.IdentifierColumn)
		rows, err := q.Execute(ctx)
		if tt.want == nil {
			assert.True(t, simplesearch.IsKind(err, simplesearch.ErrQueryRejected), "%s: %v", tt.expr, err)
			continue
		}
		require.NoError(t, err, tt.expr)
		assert.Equal(t, tt.want, identifiers(rows), tt.expr)
	}

	_, err := ix.Query().Where("title:").Execute(ctx)
	assert.True(t, simplesearch.IsKind(err, simplesearch.ErrQueryParse), "%v", err)

	_, err = ix.Query().Where("NOT kind:page").Execute(ctx)
	assert.True(t, simplesearch.IsKind(err, simplesearch.ErrQueryParse), "%v", err)
}

func TestFulltextMatchResultNative(t *testing.T) {
	ix, _ := newIndex(t)
	ctx := context.Background()
	seed(t, ix)

	s, err := ix.Query().Fulltext("World").SortDesc(storage.IdentifierColumn).FulltextMatchResult(ctx, "World")
	require.NoError(t, err)
	assert.Contains(t, s, "<b>World</b>")

	s, err = ix.Query().ExactMatch("kind", "post").FulltextMatchResult(ctx, "World")
	require.NoError(t, err)
	assert.Equal(t, "", s)

	s, err = ix.Query().FulltextMatchResult(ctx, "  ")
	require.NoError(t, err)
	assert.Equal(t, "", s)
}

// kwicAdapter hides the native snippet function of SQLite so that the
// local excerpt path runs.
type kwicAdapter struct {
	*sqlite.Adapter
}

func (k kwicAdapter) FTS() storage.FTS { return kwicFTS{k.Adapter.FTS()} }

type kwicFTS struct {
	storage.FTS
}

func (kwicFTS) SnippetSQL(storage.SnippetRequest, []string) (string, map[string]any, bool) {
	return "", nil, false
}

func TestFulltextMatchResultExcerpt(t *testing.T) {
	a := kwicAdapter{sqlite.New(filepath.Join(t.TempDir(), "kwic.db"))}
	ix, _ := newIndexWith(t, a, simplesearch.DefaultOptions())
	ctx := context.Background()
	seed(t, ix)

	s, err := ix.Query().ExactMatch("title", "Hello").SortAsc(storage.IdentifierColumn).
		FulltextMatchResult(ctx, "World", simplesearch.WithWindow(20))
	require.NoError(t, err)
	assert.Equal(t, "Hello <b>World</b> Hello...", s)

	s, err = ix.Query().FulltextMatchResult(ctx, "goodbye", simplesearch.WithMarkers("[", "]"), simplesearch.WithEllipsis("…"))
	require.NoError(t, err)
	assert.Equal(t, "[Goodbye] everyone", s)

	require.NoError(t, ix.IndexData(ctx, "D", nil, simplesearch.Fulltext{simplesearch.Text: "<p>Tagged <em>markup</em> here</p>"}))
	s, err = ix.Query().ExactMatch(storage.IdentifierColumn, "D").FulltextMatchResult(ctx, "markup")
	require.NoError(t, err)
	assert.Equal(t, "Tagged <b>markup</b> here", s)

	s, err = ix.Query().FulltextMatchResult(ctx, "absent")
	require.NoError(t, err)
	assert.Equal(t, "", s)
}

func TestExecuteStatement(t *testing.T) {
	ix, _ := newIndex(t)
	ctx := context.Background()
	seed(t, ix)

	rows, err := ix.ExecuteStatement(ctx, `SELECT "__identifier__", "title" FROM "objects" WHERE "kind" = :kind AND "title" = :title ORDER BY "__identifier__"`,
		map[string]any{":kind": "page", "title": "Hello"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"__identifier__", "title"}, rows[0].Columns)

	rows, err = ix.ExecuteStatement(ctx, `SELECT * FROM "objects" WHERE "kind" = :kind`, map[string]any{"kind": "none"})
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)

	_, err = ix.ExecuteStatement(ctx, `SELECT * FROM "objects" WHERE "kind" = :kind`, nil)
	assert.True(t, simplesearch.IsKind(err, simplesearch.ErrSQL))

	_, err = ix.ExecuteStatement(ctx, `SELECT * FROM "nope"`, nil)
	assert.True(t, simplesearch.IsKind(err, simplesearch.ErrSQL))
}

func TestValidation(t *testing.T) {
	ix, _ := newIndex(t)
	ctx := context.Background()

	err := ix.IndexData(ctx, "", nil, nil)
	assert.True(t, simplesearch.IsKind(err, simplesearch.ErrSchema))

	err = ix.IndexData(ctx, "A", nil, simplesearch.Fulltext{"h7": "x"})
	assert.True(t, simplesearch.IsKind(err, simplesearch.ErrSchema))

	err = ix.IndexData(ctx, "A", simplesearch.Properties{storage.IdentifierColumn: "x"}, nil)
	assert.True(t, simplesearch.IsKind(err, simplesearch.ErrSchema))

	err = ix.IndexData(ctx, "A", simplesearch.Properties{"nested": map[string]any{"a": 1}}, nil)
	assert.True(t, simplesearch.IsKind(err, simplesearch.ErrSchema))

	// names are used verbatim, quoted
	require.NoError(t, ix.IndexData(ctx, "A", simplesearch.Properties{`odd "name"`: "v", "with space": "w"}, nil))
	row, _, err := ix.FindOneByIdentifier(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, "v", row.String(`odd "name"`))
	assert.Equal(t, "w", row.String("with space"))
}

func TestStrictIdentifiers(t *testing.T) {
	opts := simplesearch.DefaultOptions()
	opts.StrictIdentifiers = true
	ix, _ := newIndexWith(t, sqlite.New(filepath.Join(t.TempDir(), "strict.db")), opts)
	ctx := context.Background()

	err := ix.IndexData(ctx, "A", simplesearch.Properties{"bad name": "x"}, nil)
	require.Error(t, err)
	assert.True(t, simplesearch.IsKind(err, simplesearch.ErrQueryRejected))
	assert.Empty(t, ix.Columns())

	require.NoError(t, ix.IndexData(ctx, "A", simplesearch.Properties{"good_name1": "x"}, nil))
}

func TestBatchApply(t *testing.T) {
	ix, _ := newIndex(t)
	ctx := context.Background()
	seed(t, ix)

	b := simplesearch.NewBatch()
	require.NoError(t, b.Put(simplesearch.Document{Identifier: "D", Properties: simplesearch.Properties{"rating": 4}}))
	require.NoError(t, b.PutJSON([]byte(`{"identifier":"E","properties":{"title":"E"},"fulltext":{"text":"from json"}}`)))
	require.NoError(t, b.Remove("A"))
	assert.Error(t, b.Remove(""))
	assert.Error(t, b.PutJSON([]byte(`{"properties":{}}`)))
	assert.Error(t, b.PutJSON([]byte(`not json`)))

	n, err := b.Execute(ctx, ix)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Contains(t, ix.Columns(), "rating")

	rows, err := ix.Query().SortAsc(storage.IdentifierColumn).Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "C", "D", "E"}, identifiers(rows))

	rows, err = ix.Query().Fulltext("json").Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"E"}, identifiers(rows))

	n, err = ix.Apply(ctx, simplesearch.NewBatch())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestFailedBatchLeavesNoColumns(t *testing.T) {
	ix, _ := newIndex(t)
	ctx := context.Background()

	b := simplesearch.NewBatch()
	require.NoError(t, b.Put(simplesearch.Document{Identifier: "A", Properties: simplesearch.Properties{"fresh": "x"}}))
	require.NoError(t, b.Put(simplesearch.Document{Identifier: "B", Fulltext: simplesearch.Fulltext{"bogus": "x"}}))

	_, err := ix.Apply(ctx, b)
	require.Error(t, err)
	assert.Empty(t, ix.Columns())
}

func TestOptimize(t *testing.T) {
	ix, _ := newIndex(t)
	ctx := context.Background()
	seed(t, ix)

	require.NoError(t, ix.Optimize(ctx))
	n, err := ix.Query().Fulltext("World").Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestWriteLockSerializesWriters(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "shared.db")
	lockPath := filepath.Join(dir, "locks", "shared.lock")
	ctx := context.Background()

	opts := simplesearch.DefaultOptions()
	opts.WriteLock = lockPath

	var handles []*simplesearch.Index
	for i := 0; i < 3; i++ {
		ix, err := simplesearch.Open(ctx, sqlite.New(dbPath), "shared", opts)
		require.NoError(t, err)
		t.Cleanup(func() { _ = ix.Close() })
		handles = append(handles, ix)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 30)
	for i, ix := range handles {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				id := string(rune('a'+i)) + string(rune('0'+j))
				errs <- ix.IndexData(ctx, id, simplesearch.Properties{"writer": i, "field" + string(rune('a'+i)): j}, simplesearch.Fulltext{simplesearch.Text: "shared"})
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	_, err := os.Stat(lockPath)
	require.NoError(t, err)

	n, err := handles[0].Query().Fulltext("shared").Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 30, n)
}

func TestWriteLockHonorsContext(t *testing.T) {
	opts := simplesearch.DefaultOptions()
	opts.WriteLock = filepath.Join(t.TempDir(), "w.lock")
	ix, _ := newIndexWith(t, sqlite.New(filepath.Join(t.TempDir(), "w.db")), opts)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := ix.IndexData(ctx, "A", nil, nil)
	require.Error(t, err)
}

func TestDiscovery(t *testing.T) {
	ix, _ := newIndex(t)
	ctx := context.Background()
	seed(t, ix)

	values, err := ix.Query().Values(ctx, "kind", 0)
	require.NoError(t, err)
	assert.Equal(t, []simplesearch.ValueCount{{Value: "page", Count: 2}, {Value: "post", Count: 1}}, values)

	values, err = ix.Query().Values(ctx, "kind", 1)
	require.NoError(t, err)
	assert.Len(t, values, 1)

	_, err = ix.Query().Values(ctx, "missing", 5)
	assert.True(t, simplesearch.IsKind(err, simplesearch.ErrNotFound))

	stats, err := ix.Query().Stats(ctx, "price")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), stats.Count)
	require.NotNil(t, stats.Min)
	require.NotNil(t, stats.Max)
	require.NotNil(t, stats.Median)
	assert.InDelta(t, 5, *stats.Min, 1e-9)
	assert.InDelta(t, 20, *stats.Max, 1e-9)
	assert.InDelta(t, 35.0/3, *stats.Avg, 1e-9)
	assert.InDelta(t, 10, *stats.Median, 1e-9)

	stats, err = ix.Query().Where("kind:page").Stats(ctx, "price")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), stats.Count)
	assert.InDelta(t, 12.5, *stats.Median, 1e-9)

	overview, err := ix.Query().Overview(ctx)
	require.NoError(t, err)
	assert.Equal(t, []simplesearch.ColumnOverview{
		{Column: "kind", DocCount: 3, Unique: 2},
		{Column: "price", DocCount: 3, Unique: 3},
		{Column: "published", DocCount: 3, Unique: 3},
		{Column: "title", DocCount: 3, Unique: 2},
	}, overview)
}

func TestRegistry(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	reg := simplesearch.NewRegistry(simplesearch.DefaultOptions())

	o := simplesearch.OpenOptions{StorageFolder: filepath.Join(dir, "data")}
	first, err := reg.Open(ctx, "articles", o)
	require.NoError(t, err)
	again, err := reg.Open(ctx, "articles", o)
	require.NoError(t, err)
	assert.Same(t, first, again)

	_, err = reg.Open(ctx, "products", simplesearch.OpenOptions{Backend: storage.BackendSQLite, StorageFolder: filepath.Join(dir, "data")})
	require.NoError(t, err)
	assert.Equal(t, []string{"articles#sqlite", "products#sqlite"}, reg.Names())

	got, ok := reg.Get("articles", "")
	require.True(t, ok)
	assert.Same(t, first, got)
	_, ok = reg.Get("articles", storage.BackendMySQL)
	assert.False(t, ok)

	_, err = os.Stat(o.SQLitePath("articles"))
	require.NoError(t, err)

	require.NoError(t, first.IndexData(ctx, "1", simplesearch.Properties{"title": "x"}, simplesearch.Fulltext{simplesearch.Text: "registry"}))
	_, err = os.Stat(o.SQLitePath("articles") + ".lock")
	require.NoError(t, err)

	require.NoError(t, reg.OptimizeAll(ctx))
	require.NoError(t, reg.Close())
	assert.Empty(t, reg.Names())

	_, err = reg.Open(ctx, "x", simplesearch.OpenOptions{Backend: "oracle"})
	assert.True(t, simplesearch.IsKind(err, simplesearch.ErrConfig))
	_, err = reg.Open(ctx, "x", simplesearch.OpenOptions{Backend: storage.BackendMySQL})
	assert.True(t, simplesearch.IsKind(err, simplesearch.ErrConfig))
}
