package simplesearch

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/simplesearch/simplesearch/simplesearch/ops"
	"github.com/simplesearch/simplesearch/simplesearch/query"
	"github.com/simplesearch/simplesearch/simplesearch/snippet"
	"github.com/simplesearch/simplesearch/simplesearch/storage"
)

// QueryBuilder accumulates conditions, sort keys and pagination over the
// objects relation of an index. Conditions are ANDed. Methods return the
// builder for chaining; the first error is kept and returned by Execute.
type QueryBuilder struct {
	ix      *Index
	where   []string
	params  map[string]any
	sorting []string
	limit   int
	offset  int
	now     func() time.Time
	err     error
}

func newQueryBuilder(ix *Index) *QueryBuilder {
	return &QueryBuilder{
		ix:     ix,
		params: make(map[string]any),
		limit:  -1,
		offset: -1,
		now:    time.Now,
	}
}

// SortAsc orders by property ascending, after any earlier sort keys.
func (q *QueryBuilder) SortAsc(property string) *QueryBuilder {
	q.sorting = append(q.sorting, q.quote(property)+" ASC")
	return q
}

// SortDesc orders by property descending, after any earlier sort keys.
func (q *QueryBuilder) SortDesc(property string) *QueryBuilder {
	q.sorting = append(q.sorting, q.quote(property)+" DESC")
	return q
}

func (q *QueryBuilder) Limit(n int) *QueryBuilder {
	if n < 0 {
		return q.ClearLimit()
	}
	q.limit = n
	return q
}

func (q *QueryBuilder) ClearLimit() *QueryBuilder {
	q.limit = -1
	return q
}

// From skips the first offset rows.
func (q *QueryBuilder) From(offset int) *QueryBuilder {
	if offset < 0 {
		return q.ClearFrom()
	}
	q.offset = offset
	return q
}

func (q *QueryBuilder) ClearFrom() *QueryBuilder {
	q.offset = -1
	return q
}

// ExactMatch adds property = value. A time.Time value is compared as a date
// and a nil value matches rows where property is NULL.
func (q *QueryBuilder) ExactMatch(property string, value any) *QueryBuilder {
	if value == nil {
		return q.add(q.quote(property) + " IS NULL")
	}
	if t, ok := value.(time.Time); ok {
		return q.add(q.ix.adapter.DateCompare(q.quote(property), "=", t))
	}
	name := q.paramName(property)
	if !q.bind(name, value) {
		return q
	}
	return q.add(fmt.Sprintf("%s = :%s", q.quote(property), name))
}

// Like adds property LIKE %value%.
func (q *QueryBuilder) Like(property string, value any) *QueryBuilder {
	name := q.paramName(property)
	if !q.bindLike(name, value) {
		return q
	}
	return q.add(fmt.Sprintf("%s LIKE :%s", q.quote(property), name))
}

// AnyMatch adds an OR group of equality matches. A nil or empty list, or
// one whose first value is nil, adds nothing.
func (q *QueryBuilder) AnyMatch(property string, values []any) *QueryBuilder {
	return q.anyOf(property, values, "%s = :%s", q.bind)
}

// LikeAnyMatch adds an OR group of %value% matches, with the same empty list
// rule as AnyMatch.
func (q *QueryBuilder) LikeAnyMatch(property string, values []any) *QueryBuilder {
	return q.anyOf(property, values, "%s LIKE :%s", q.bindLike)
}

func (q *QueryBuilder) anyOf(property string, values []any, format string, bind func(string, any) bool) *QueryBuilder {
	if len(values) == 0 || values[0] == nil {
		return q
	}
	col := q.quote(property)
	base := paramKey(property, len(q.where))
	parts := make([]string, 0, len(values))
	for i, v := range values {
		name := hashParam(base + "#" + strconv.Itoa(i))
		if !bind(name, v) {
			return q
		}
		parts = append(parts, fmt.Sprintf(format, col, name))
	}
	return q.add("(" + strings.Join(parts, " OR ") + ")")
}

func (q *QueryBuilder) GreaterThan(property string, value any) *QueryBuilder {
	return q.compare(property, ">", value)
}

func (q *QueryBuilder) GreaterThanOrEqual(property string, value any) *QueryBuilder {
	return q.compare(property, ">=", value)
}

func (q *QueryBuilder) LessThan(property string, value any) *QueryBuilder {
	return q.compare(property, "<", value)
}

func (q *QueryBuilder) LessThanOrEqual(property string, value any) *QueryBuilder {
	return q.compare(property, "<=", value)
}

// compare renders dates through the adapter's date expression and numbers
// against a numeric cast of the text column; anything else compares as text.
func (q *QueryBuilder) compare(property, op string, value any) *QueryBuilder {
	col := q.quote(property)
	if t, ok := value.(time.Time); ok {
		return q.add(q.ix.adapter.DateCompare(col, op, t))
	}
	name := q.paramName(property)
	if isNumber(value) {
		q.params[name] = value
		return q.add(fmt.Sprintf("%s %s :%s", q.ix.adapter.NumericCast(col), op, name))
	}
	if !q.bind(name, value) {
		return q
	}
	return q.add(fmt.Sprintf("%s %s :%s", col, op, name))
}

// Fulltext restricts the result to documents whose fulltext row matches
// searchword. A blank searchword adds nothing.
func (q *QueryBuilder) Fulltext(searchword string) *QueryBuilder {
	if strings.TrimSpace(searchword) == "" {
		return q
	}
	fts := q.ix.adapter.FTS()
	name := hashParam("FULLTEXT#" + strconv.Itoa(len(q.where)))
	q.params[name] = fts.MatchValue(searchword)
	return q.add(fts.MatchPredicate(name))
}

// CustomCondition adds fragment as is. The caller is responsible for it
// being safe SQL.
func (q *QueryBuilder) CustomCondition(fragment string) *QueryBuilder {
	if strings.TrimSpace(fragment) == "" {
		return q
	}
	return q.add("(" + fragment + ")")
}

// Where compiles a filter expression such as
//
//	kind:page (tag:go OR tag:sql) price:10..50 created>7d "exact phrase"
//
// onto the builder.
func (q *QueryBuilder) Where(expr string) *QueryBuilder {
	if q.err != nil || strings.TrimSpace(expr) == "" {
		return q
	}
	parsed, err := query.Parse(expr)
	if err != nil {
		q.err = QueryParseError("parse filter", err)
		return q
	}
	if err := query.Compile(parsed, whereTarget{q}, q.now().UTC()); err != nil {
		q.err = Wrap(ErrQueryRejected, "compile filter", err)
	}
	return q
}

// Err returns the first error recorded while building.
func (q *QueryBuilder) Err() error {
	return q.err
}

// SQL renders the statement and its parameters.
func (q *QueryBuilder) SQL() (string, map[string]any) {
	a := q.ix.adapter
	objects := a.QuoteIdent(a.Tables().Objects)

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(objects)
	sb.WriteString(".* FROM ")
	sb.WriteString(objects)
	if len(q.where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(q.where, " AND "))
	}
	if len(q.sorting) > 0 {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(q.sorting, ", "))
	}
	sb.WriteString(a.LimitOffset(q.limit, q.offset))

	params := make(map[string]any, len(q.params))
	for k, v := range q.params {
		params[k] = v
	}
	return sb.String(), params
}

// Execute runs the query. The result is empty, not nil, when nothing
// matches.
func (q *QueryBuilder) Execute(ctx context.Context) ([]Row, error) {
	if q.err != nil {
		return nil, q.err
	}
	stmt, params := q.SQL()
	return q.ix.ExecuteStatement(ctx, stmt, params)
}

// Count returns the number of rows Execute yields.
func (q *QueryBuilder) Count(ctx context.Context) (int, error) {
	rows, err := q.Execute(ctx)
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// SnippetOption configures FulltextMatchResult.
type SnippetOption func(*snippet.Options)

// WithWindow sets the excerpt length in characters.
func WithWindow(n int) SnippetOption {
	return func(o *snippet.Options) { o.Window = n }
}

func WithEllipsis(s string) SnippetOption {
	return func(o *snippet.Options) { o.Ellipsis = s }
}

// WithMarkers sets the strings placed around each hit.
func WithMarkers(begin, end string) SnippetOption {
	return func(o *snippet.Options) {
		o.Begin = begin
		o.End = end
	}
}

// FulltextMatchResult runs the query and returns a highlighted excerpt of
// searchword from the first result that yields one, or "" if none does.
// Engines with a native snippet function use it; the others load the
// fulltext buckets and cut the excerpt locally.
func (q *QueryBuilder) FulltextMatchResult(ctx context.Context, searchword string, opts ...SnippetOption) (string, error) {
	o := snippet.DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.Window <= 0 {
		o.Window = DefaultSnippetWindow
	}
	if strings.TrimSpace(searchword) == "" {
		return "", nil
	}

	rows, err := q.Execute(ctx)
	if err != nil {
		return "", err
	}
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.Identifier())
	}

	fts := q.ix.adapter.FTS()
	req := storage.SnippetRequest{
		Search:   searchword,
		Window:   o.Window,
		Ellipsis: o.Ellipsis,
		Begin:    o.Begin,
		End:      o.End,
	}
	for start := 0; start < len(ids); start += identifierChunk {
		chunk := ids[start:min(start+identifierChunk, len(ids))]
		names := make([]string, len(chunk))
		for i := range chunk {
			names[i] = storage.IDParam(i)
		}

		if stmt, params, ok := fts.SnippetSQL(req, names); ok {
			for i, id := range chunk {
				params[names[i]] = id
			}
			out, err := q.ix.ExecuteStatement(ctx, stmt, params)
			if err != nil {
				return "", err
			}
			if len(out) > 0 {
				if s := out[0].String("snippet"); s != "" {
					return s, nil
				}
			}
			continue
		}

		s, err := q.extractChunk(ctx, fts, chunk, names, searchword, o)
		if err != nil {
			return "", err
		}
		if s != "" {
			return s, nil
		}
	}
	return "", nil
}

// extractChunk loads the fulltext rows of chunk and returns the excerpt of
// the first one, in result order, that contains a search term.
func (q *QueryBuilder) extractChunk(ctx context.Context, fts storage.FTS, chunk, names []string, searchword string, o snippet.Options) (string, error) {
	params := make(map[string]any, len(chunk))
	for i, id := range chunk {
		params[names[i]] = id
	}
	rows, err := q.ix.ExecuteStatement(ctx, fts.SelectRowsIn(names), params)
	if err != nil {
		return "", err
	}
	byID := make(map[string]Row, len(rows))
	for _, r := range rows {
		byID[r.Identifier()] = r
	}
	for _, id := range chunk {
		r, ok := byID[id]
		if !ok {
			continue
		}
		parts := make([]string, 0, len(storage.Buckets))
		for _, b := range storage.Buckets {
			if v := strings.TrimSpace(r.String(b)); v != "" {
				parts = append(parts, snippet.StripTags(v))
			}
		}
		if s := snippet.Extract(strings.Join(parts, " "), searchword, o); s != "" {
			q.ix.log.Debug("snippet extracted", slog.String("identifier", id))
			return s, nil
		}
	}
	return "", nil
}

func (q *QueryBuilder) add(fragment string) *QueryBuilder {
	q.where = append(q.where, fragment)
	return q
}

func (q *QueryBuilder) quote(property string) string {
	return q.ix.adapter.QuoteIdent(property)
}

// paramName derives a parameter name unique to the property and the
// position of the condition being added.
func (q *QueryBuilder) paramName(property string) string {
	return hashParam(paramKey(property, len(q.where)))
}

// paramKey length-prefixes property so that a name containing '#' cannot
// stand in for another property's position or OR-group member. Keys of
// properties start with a digit, the fulltext key does not.
func paramKey(property string, position int) string {
	return strconv.Itoa(len(property)) + ":" + property + "#" + strconv.Itoa(position)
}

func (q *QueryBuilder) bind(name string, value any) bool {
	v, err := ops.Flatten(value)
	if err != nil {
		q.fail(err)
		return false
	}
	q.params[name] = v
	return true
}

func (q *QueryBuilder) bindLike(name string, value any) bool {
	s, err := ops.FlattenString(value)
	if err != nil {
		q.fail(err)
		return false
	}
	q.params[name] = "%" + s + "%"
	return true
}

func (q *QueryBuilder) fail(err error) {
	if q.err == nil {
		q.err = Wrap(ErrQueryRejected, "bind value", err)
	}
}

func hashParam(key string) string {
	sum := md5.Sum([]byte(key))
	return "p" + hex.EncodeToString(sum[:])
}

func isNumber(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	}
	return false
}

// whereTarget feeds compiled filter expressions into the builder.
type whereTarget struct {
	q *QueryBuilder
}

func (w whereTarget) ExactMatch(field string, value any) { w.q.ExactMatch(field, value) }
func (w whereTarget) Like(field string, value any)       { w.q.Like(field, value) }
func (w whereTarget) AnyMatch(field string, values []any) {
	w.q.AnyMatch(field, values)
}
func (w whereTarget) LikeAnyMatch(field string, values []any) {
	w.q.LikeAnyMatch(field, values)
}
func (w whereTarget) Fulltext(searchword string) { w.q.Fulltext(searchword) }

func (w whereTarget) Compare(field string, op query.Op, value any) {
	switch op {
	case query.Greater:
		w.q.GreaterThan(field, value)
	case query.GreaterOrEqual:
		w.q.GreaterThanOrEqual(field, value)
	case query.Less:
		w.q.LessThan(field, value)
	case query.LessOrEqual:
		w.q.LessThanOrEqual(field, value)
	}
}
