package mysql

import (
	"fmt"
	"strings"

	"github.com/simplesearch/simplesearch/simplesearch/storage"
)

// FTS searches the FULLTEXT key in natural language mode. MySQL has no
// snippet function, so SnippetSQL reports false and callers fall back to KWIC.
type FTS struct {
	tables storage.Tables
}

func (f FTS) MatchValue(searchword string) string {
	return searchword
}

func (f FTS) MatchPredicate(param string) string {
	id := quoteIdent(storage.IdentifierColumn)
	return fmt.Sprintf("%s IN (SELECT %s FROM %s WHERE MATCH (%s) AGAINST (:%s))",
		id, id, quoteIdent(f.tables.Fulltext), bucketList(), param)
}

func (f FTS) AppendSQL(buckets []string) string {
	sets := make([]string, 0, len(buckets))
	for _, b := range buckets {
		q := quoteIdent(b)
		sets = append(sets, fmt.Sprintf("%s = CASE WHEN %s = '' THEN :%s ELSE CONCAT(%s, ' ', :%s) END", q, q, b, q, b))
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE %s = :%s",
		quoteIdent(f.tables.Fulltext), strings.Join(sets, ", "), quoteIdent(storage.IdentifierColumn), storage.IdentifierParam)
}

func (f FTS) SelectRowsIn(idParams []string) string {
	ph := make([]string, len(idParams))
	for i, n := range idParams {
		ph[i] = ":" + n
	}
	id := quoteIdent(storage.IdentifierColumn)
	return fmt.Sprintf("SELECT %s, %s FROM %s WHERE %s IN (%s)",
		id, bucketList(), quoteIdent(f.tables.Fulltext), id, strings.Join(ph, ", "))
}

func (f FTS) SnippetSQL(storage.SnippetRequest, []string) (string, map[string]any, bool) {
	return "", nil, false
}
