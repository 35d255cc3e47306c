package sqlbuilder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderArg(t *testing.T) {
	b := New(PlaceholderDollar)
	assert.Equal(t, "$1", b.Arg("a"))
	assert.Equal(t, "$2", b.Arg(2))
	assert.Equal(t, 2, b.Len())
	assert.Equal(t, []any{"a", 2}, b.Args())

	q := New(PlaceholderQuestion)
	assert.Equal(t, "?", q.Arg("a"))
	assert.Equal(t, "?", q.Arg("b"))
}

func TestBindQuestion(t *testing.T) {
	stmt, args, err := Bind(PlaceholderQuestion,
		`SELECT * FROM objects WHERE "title" = :title AND "n" > :n`,
		map[string]any{"title": "Hello", ":n": 3})
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM objects WHERE "title" = ? AND "n" > ?`, stmt)
	assert.Equal(t, []any{"Hello", 3}, args)
}

func TestBindDollarRepeatedParam(t *testing.T) {
	stmt, args, err := Bind(PlaceholderDollar,
		`UPDATE f SET h1 = CASE WHEN h1 = '' THEN :h1 ELSE h1 || ' ' || :h1 END WHERE id = :identifier`,
		map[string]any{"h1": "x", "identifier": "A"})
	require.NoError(t, err)
	assert.Equal(t, `UPDATE f SET h1 = CASE WHEN h1 = '' THEN $1 ELSE h1 || ' ' || $2 END WHERE id = $3`, stmt)
	assert.Equal(t, []any{"x", "x", "A"}, args)
}

func TestBindSkipsQuotedAndCasts(t *testing.T) {
	stmt, args, err := Bind(PlaceholderQuestion,
		`SELECT datetime("a:b") >= datetime('2024-01-01 10:00:00'), 'it''s :x', x::text, `+"`c:d`"+` FROM t WHERE id = :id`,
		map[string]any{"id": 1})
	require.NoError(t, err)
	assert.Equal(t, `SELECT datetime("a:b") >= datetime('2024-01-01 10:00:00'), 'it''s :x', x::text, `+"`c:d`"+` FROM t WHERE id = ?`, stmt)
	assert.Equal(t, []any{1}, args)
}

func TestBindMissingParam(t *testing.T) {
	_, _, err := Bind(PlaceholderQuestion, `SELECT :missing`, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ":missing")
}

func TestBindLeavesBareColon(t *testing.T) {
	stmt, args, err := Bind(PlaceholderQuestion, `SELECT ': ' || :a, 1 :2`, map[string]any{"a": "v"})
	require.NoError(t, err)
	assert.Equal(t, `SELECT ': ' || ?, 1 :2`, stmt)
	assert.Len(t, args, 1)
}
