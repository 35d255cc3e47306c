package postgres

import (
	"fmt"
	"strings"

	"github.com/simplesearch/simplesearch/simplesearch/storage"
)

// FTS matches the concatenated buckets through the GIN expression index and
// produces snippets with ts_headline.
type FTS struct{}

// MatchValue passes the words through; plainto_tsquery ignores operators.
func (f FTS) MatchValue(searchword string) string {
	return searchword
}

func tsQueryExpr(param string) string {
	return fmt.Sprintf("plainto_tsquery(%s, CAST(:%s AS TEXT))", searchConfig, param)
}

func (f FTS) MatchPredicate(param string) string {
	id := quoteIdent(storage.IdentifierColumn)
	return fmt.Sprintf("%s IN (SELECT %s FROM %s WHERE %s @@ %s)",
		id, id, quoteIdent(fulltextTable), vectorExpr(), tsQueryExpr(param))
}

func (f FTS) AppendSQL(buckets []string) string {
	sets := make([]string, 0, len(buckets))
	for _, b := range buckets {
		q := quoteIdent(b)
		sets = append(sets, fmt.Sprintf("%s = CASE WHEN %s = '' THEN CAST(:%s AS TEXT) ELSE %s || ' ' || CAST(:%s AS TEXT) END", q, q, b, q, b))
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE %s = :%s",
		quoteIdent(fulltextTable), strings.Join(sets, ", "), quoteIdent(storage.IdentifierColumn), storage.IdentifierParam)
}

func (f FTS) SelectRowsIn(idParams []string) string {
	id := quoteIdent(storage.IdentifierColumn)
	return fmt.Sprintf("SELECT %s, %s FROM %s WHERE %s IN (%s)",
		id, bucketList(), quoteIdent(fulltextTable), id, joinParams(idParams))
}

func (f FTS) SnippetSQL(req storage.SnippetRequest, idParams []string) (string, map[string]any, bool) {
	stmt := fmt.Sprintf("SELECT ts_headline(%s, %s, %s, CAST(:options AS TEXT)) AS snippet FROM %s WHERE %s @@ %s AND %s IN (%s) LIMIT 1",
		searchConfig, documentExpr(), tsQueryExpr("search"),
		quoteIdent(fulltextTable), vectorExpr(), tsQueryExpr("search"),
		quoteIdent(storage.IdentifierColumn), joinParams(idParams))
	params := map[string]any{
		"search":  req.Search,
		"options": headlineOptions(req),
	}
	return stmt, params, true
}

// headlineOptions renders the ts_headline option string. MaxWords must
// exceed MinWords, hence the lower bound of two tokens.
func headlineOptions(req storage.SnippetRequest) string {
	maxWords := req.Tokens(2)
	opts := []string{
		"StartSel=" + headlineValue(req.Begin),
		"StopSel=" + headlineValue(req.End),
		"FragmentDelimiter=" + headlineValue(req.Ellipsis),
		fmt.Sprintf("MaxWords=%d", maxWords),
		fmt.Sprintf("MinWords=%d", maxWords/2),
		"MaxFragments=1",
	}
	return strings.Join(opts, ", ")
}

func headlineValue(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

func bucketList() string {
	cols := make([]string, len(storage.Buckets))
	for i, b := range storage.Buckets {
		cols[i] = quoteIdent(b)
	}
	return strings.Join(cols, ", ")
}

func joinParams(names []string) string {
	ph := make([]string, len(names))
	for i, n := range names {
		ph[i] = ":" + n
	}
	return strings.Join(ph, ", ")
}
