package query

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// Parse reads a filter. Terms written side by side are ANDed, and the
// implicit AND binds tighter than OR.
func Parse(input string) (Expr, error) {
	items, err := lex(input)
	if err != nil {
		return nil, err
	}
	p := &parser{items: items}
	expr, err := p.or()
	if err != nil {
		return nil, err
	}
	if it := p.peek(); it.typ != itemEnd {
		return nil, fmt.Errorf("unexpected %s at offset %d", it, it.pos)
	}
	return expr, nil
}

type parser struct {
	items []item
	i     int
}

func (p *parser) peek() item {
	return p.items[p.i]
}

// take consumes the current item. itemEnd is never consumed.
func (p *parser) take() item {
	it := p.items[p.i]
	if it.typ != itemEnd {
		p.i++
	}
	return it
}

func (p *parser) accept(typ itemType) bool {
	if p.peek().typ != typ {
		return false
	}
	p.take()
	return true
}

func (p *parser) or() (Expr, error) {
	left, err := p.and()
	if err != nil {
		return nil, err
	}
	for p.accept(itemOr) {
		right, err := p.and()
		if err != nil {
			return nil, err
		}
		left = Or{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) and() (Expr, error) {
	left, err := p.term()
	if err != nil {
		return nil, err
	}
	for p.accept(itemAnd) || p.startsTerm() {
		right, err := p.term()
		if err != nil {
			return nil, err
		}
		left = And{Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) startsTerm() bool {
	switch p.peek().typ {
	case itemWord, itemPhrase, itemNumber, itemOpen:
		return true
	}
	return false
}

func (p *parser) term() (Expr, error) {
	it := p.take()
	switch it.typ {
	case itemOpen:
		expr, err := p.or()
		if err != nil {
			return nil, err
		}
		if !p.accept(itemClose) {
			return nil, fmt.Errorf("group opened at offset %d is not closed", it.pos)
		}
		return expr, nil

	case itemPhrase, itemNumber:
		return Words{Search: it.val}, nil

	case itemWord:
		switch p.peek().typ {
		case itemFieldSep:
			p.take()
			return p.value(it.val)
		case itemCompare:
			return p.comparison(it.val)
		case itemRangeSep:
			return nil, fmt.Errorf("range after %q needs the form property:lo..hi", it.val)
		}
		return Words{Search: it.val}, nil

	case itemEnd:
		return nil, fmt.Errorf("filter ends where a property or fulltext term is expected")
	}
	return nil, fmt.Errorf("expected a property or fulltext term at offset %d, found %s", it.pos, it)
}

// value reads what follows property: a match value or a lo..hi range.
func (p *parser) value(property string) (Expr, error) {
	lo := p.take()
	switch lo.typ {
	case itemWord, itemPhrase, itemNumber:
	default:
		return nil, fmt.Errorf("property %q has no value", property)
	}
	if !p.accept(itemRangeSep) {
		return match(property, lo.val), nil
	}

	hi := p.take()
	if lo.typ == itemNumber {
		if hi.typ != itemNumber {
			return nil, fmt.Errorf("range of %q needs a number after '..', found %s", property, hi)
		}
		return Between{Property: property, Lo: Number{Value: lo.num, Text: lo.val}, Hi: Number{Value: hi.num, Text: hi.val}}, nil
	}
	if hi.typ != itemWord && hi.typ != itemPhrase {
		return nil, fmt.Errorf("range of %q needs a date after '..', found %s", property, hi)
	}
	from, err := parseDate(lo.val)
	if err != nil {
		return nil, fmt.Errorf("range of %q: %w", property, err)
	}
	to, err := parseDate(hi.val)
	if err != nil {
		return nil, fmt.Errorf("range of %q: %w", property, err)
	}
	if len(hi.val) == len(dateOnly) {
		// a bare end date covers the whole day
		to = to.Add(24*time.Hour - time.Second)
	}
	return Between{Property: property, Lo: Date{At: from}, Hi: Date{At: to}}, nil
}

func (p *parser) comparison(property string) (Expr, error) {
	op := p.take().op
	it := p.take()
	switch it.typ {
	case itemNumber:
		return Compare{Property: property, Op: op, Bound: Number{Value: it.num, Text: it.val}}, nil
	case itemWord, itemPhrase:
		if ago, ok := parseAgo(it.val); ok {
			return Compare{Property: property, Op: op, Bound: ago}, nil
		}
		at, err := parseDate(it.val)
		if err != nil {
			return nil, fmt.Errorf("%s%s: %w", property, op, err)
		}
		return Compare{Property: property, Op: op, Bound: Date{At: at}}, nil
	}
	return nil, fmt.Errorf("property %q has nothing to compare with after %s", property, op)
}

func match(property, value string) Match {
	if !strings.Contains(value, "*") {
		return Match{Property: property, Value: value}
	}
	pattern := strings.ReplaceAll(strings.Trim(value, "*"), "*", "%")
	return Match{Property: property, Value: pattern, Wildcard: true}
}

var units = map[string]Unit{
	"h": Hours, "hour": Hours, "hours": Hours,
	"d": Days, "day": Days, "days": Days,
	"w": Weeks, "week": Weeks, "weeks": Weeks,
	"m": Months, "month": Months, "months": Months,
	"y": Years, "year": Years, "years": Years,
}

// parseAgo reads an age such as 7d, 12h or 2weeks.
func parseAgo(s string) (Ago, bool) {
	i := strings.IndexFunc(s, func(r rune) bool { return !unicode.IsDigit(r) })
	if i <= 0 {
		return Ago{}, false
	}
	unit, ok := units[strings.ToLower(s[i:])]
	if !ok {
		return Ago{}, false
	}
	n, err := strconv.Atoi(s[:i])
	if err != nil {
		return Ago{}, false
	}
	return Ago{Amount: n, Unit: unit}, true
}

const dateOnly = "2006-01-02"

var dateLayouts = []string{dateOnly, "2006-01-02 15:04:05", time.RFC3339}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%q is neither a date nor an age like 7d", s)
}
