package sqlite

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/simplesearch/simplesearch/simplesearch/storage"
)

type FTS5 struct{}

// MatchValue quotes terms that FTS5 would otherwise read as query syntax.
// Plain words pass through, so implicit AND between words is kept.
func (f FTS5) MatchValue(searchword string) string {
	terms := strings.Fields(searchword)
	for i, t := range terms {
		terms[i] = quoteFTSTerm(t)
	}
	return strings.Join(terms, " ")
}

func (f FTS5) MatchPredicate(param string) string {
	id := quoteIdent(storage.IdentifierColumn)
	ft := quoteIdent(fulltextTable)
	return fmt.Sprintf("%s IN (SELECT %s FROM %s WHERE %s MATCH :%s)", id, id, ft, ft, param)
}

func (f FTS5) AppendSQL(buckets []string) string {
	sets := make([]string, 0, len(buckets))
	for _, b := range buckets {
		q := quoteIdent(b)
		sets = append(sets, fmt.Sprintf("%s = CASE WHEN COALESCE(%s, '') = '' THEN :%s ELSE %s || ' ' || :%s END", q, q, b, q, b))
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE %s = :%s",
		quoteIdent(fulltextTable), strings.Join(sets, ", "), quoteIdent(storage.IdentifierColumn), storage.IdentifierParam)
}

func (f FTS5) SelectRowsIn(idParams []string) string {
	return fmt.Sprintf("SELECT %s FROM %s WHERE %s IN (%s)",
		bucketColumns(), quoteIdent(fulltextTable), quoteIdent(storage.IdentifierColumn), joinParams(idParams))
}

// SnippetSQL uses the FTS5 snippet() auxiliary function over the best
// matching column.
func (f FTS5) SnippetSQL(req storage.SnippetRequest, idParams []string) (string, map[string]any, bool) {
	ft := quoteIdent(fulltextTable)
	stmt := fmt.Sprintf("SELECT snippet(%s, -1, :begin, :end, :ellipsis, %d) AS snippet FROM %s WHERE %s MATCH :search AND %s IN (%s) LIMIT 1",
		ft, req.Tokens(1), ft, ft, quoteIdent(storage.IdentifierColumn), joinParams(idParams))
	params := map[string]any{
		"begin":    req.Begin,
		"end":      req.End,
		"ellipsis": req.Ellipsis,
		"search":   f.MatchValue(req.Search),
	}
	return stmt, params, true
}

func joinParams(names []string) string {
	ph := make([]string, len(names))
	for i, n := range names {
		ph[i] = ":" + n
	}
	return strings.Join(ph, ", ")
}

// quoteFTSTerm leaves a term bare only when FTS5 reads it as a single
// token: letters, digits and '_', and not one of the operator keywords.
func quoteFTSTerm(term string) string {
	need := strings.IndexFunc(term, func(c rune) bool {
		return !unicode.IsLetter(c) && !unicode.IsDigit(c) && c != '_'
	}) >= 0
	switch strings.ToUpper(term) {
	case "AND", "OR", "NOT", "NEAR":
		need = true
	}
	if !need {
		return term
	}
	esc := strings.ReplaceAll(term, "\"", "\"\"")
	return fmt.Sprintf("\"%s\"", esc)
}
