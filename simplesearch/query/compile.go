package query

import (
	"fmt"
	"time"
)

// Target receives the conditions of a compiled filter and ANDs them.
type Target interface {
	ExactMatch(property string, value any)
	Like(property string, value any)
	AnyMatch(property string, values []any)
	LikeAnyMatch(property string, values []any)
	// Compare adds "property op value"; value is a float64 or a time.Time.
	Compare(property string, op Op, value any)
	Fulltext(searchword string)
}

// Compile walks expr and adds its conditions to t. Ages resolve against
// now. OR is accepted only between matches on one property.
func Compile(expr Expr, t Target, now time.Time) error {
	switch e := expr.(type) {
	case And:
		if err := Compile(e.Left, t, now); err != nil {
			return err
		}
		return Compile(e.Right, t, now)

	case Or:
		return compileOr(e, t)

	case Match:
		if e.Wildcard {
			t.Like(e.Property, e.Value)
		} else {
			t.ExactMatch(e.Property, e.Value)
		}

	case Words:
		t.Fulltext(e.Search)

	case Compare:
		t.Compare(e.Property, e.Op, e.Bound.resolve(now))

	case Between:
		lo, hi := e.Lo.resolve(now), e.Hi.resolve(now)
		if after(lo, hi) {
			return fmt.Errorf("range of %q is empty", e.Property)
		}
		t.Compare(e.Property, GreaterOrEqual, lo)
		t.Compare(e.Property, LessOrEqual, hi)

	default:
		return fmt.Errorf("unsupported filter node %T", expr)
	}
	return nil
}

// compileOr turns an OR group of matches on one property into a single
// AnyMatch or LikeAnyMatch.
func compileOr(e Or, t Target) error {
	var leaves []Expr
	flattenOr(e, &leaves)

	matches := make([]Match, 0, len(leaves))
	for _, leaf := range leaves {
		m, ok := leaf.(Match)
		if !ok {
			return fmt.Errorf("OR only joins property matches")
		}
		matches = append(matches, m)
	}

	first := matches[0]
	values := make([]any, 0, len(matches))
	for _, m := range matches {
		switch {
		case m.Property != first.Property:
			return fmt.Errorf("OR mixes properties %q and %q", first.Property, m.Property)
		case m.Wildcard != first.Wildcard:
			return fmt.Errorf("OR mixes exact and wildcard matches on %q", first.Property)
		}
		values = append(values, m.Value)
	}

	if first.Wildcard {
		t.LikeAnyMatch(first.Property, values)
	} else {
		t.AnyMatch(first.Property, values)
	}
	return nil
}

func flattenOr(e Expr, out *[]Expr) {
	if or, ok := e.(Or); ok {
		flattenOr(or.Left, out)
		flattenOr(or.Right, out)
		return
	}
	*out = append(*out, e)
}

func after(lo, hi any) bool {
	switch l := lo.(type) {
	case float64:
		h, ok := hi.(float64)
		return ok && l > h
	case time.Time:
		h, ok := hi.(time.Time)
		return ok && l.After(h)
	}
	return false
}
