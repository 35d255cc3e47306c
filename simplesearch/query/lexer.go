package query

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

type itemType int

const (
	itemWord     itemType = iota // property name, value or fulltext word
	itemPhrase                   // "quoted fulltext"
	itemNumber
	itemFieldSep // ':' between property and value
	itemRangeSep // '..' between the ends of a range
	itemCompare  // >, >=, <, <=
	itemAnd
	itemOr
	itemOpen
	itemClose
	itemEnd
)

// item is a lexeme of a filter. pos is its byte offset in the input.
type item struct {
	typ itemType
	pos int
	val string
	num float64
	op  Op
}

func (it item) String() string {
	switch it.typ {
	case itemEnd:
		return "end of filter"
	case itemPhrase:
		return strconv.Quote(it.val)
	}
	return "'" + it.val + "'"
}

// symbols are matched in order, so two-byte operators come first.
var symbols = []item{
	{typ: itemRangeSep, val: ".."},
	{typ: itemCompare, val: ">=", op: GreaterOrEqual},
	{typ: itemCompare, val: "<=", op: LessOrEqual},
	{typ: itemCompare, val: ">", op: Greater},
	{typ: itemCompare, val: "<", op: Less},
	{typ: itemFieldSep, val: ":"},
	{typ: itemOpen, val: "("},
	{typ: itemClose, val: ")"},
	{typ: itemAnd, val: "&"},
	{typ: itemOr, val: "|"},
}

type lexer struct {
	input string
	pos   int
}

// lex splits a filter into items. The last item is always itemEnd.
func lex(input string) ([]item, error) {
	l := &lexer{input: input}
	var items []item
	for {
		it, err := l.next()
		if err != nil {
			return nil, err
		}
		items = append(items, it)
		if it.typ == itemEnd {
			return items, nil
		}
	}
}

func (l *lexer) next() (item, error) {
	l.pos += len(l.input[l.pos:]) - len(strings.TrimLeftFunc(l.input[l.pos:], unicode.IsSpace))
	rest := l.input[l.pos:]
	start := l.pos
	if rest == "" {
		return item{typ: itemEnd, pos: start}, nil
	}

	for _, s := range symbols {
		if strings.HasPrefix(rest, s.val) {
			l.pos += len(s.val)
			s.pos = start
			return s, nil
		}
	}

	r, _ := utf8.DecodeRuneInString(rest)
	switch {
	case r == '"':
		return l.phrase()
	case r == '!':
		return item{}, fmt.Errorf("negation is not supported ('!' at offset %d)", start)
	case isWordRune(r):
		return l.word()
	}
	return item{}, fmt.Errorf("unexpected %q at offset %d", r, start)
}

// word reads a run of word runes, stopping before "..". AND and OR in any
// case are joins; NOT is refused.
func (l *lexer) word() (item, error) {
	start := l.pos
	for l.pos < len(l.input) && !strings.HasPrefix(l.input[l.pos:], "..") {
		r, w := utf8.DecodeRuneInString(l.input[l.pos:])
		if !isWordRune(r) {
			break
		}
		l.pos += w
	}
	val := l.input[start:l.pos]

	switch strings.ToUpper(val) {
	case "AND":
		return item{typ: itemAnd, pos: start, val: val}, nil
	case "OR":
		return item{typ: itemOr, pos: start, val: val}, nil
	case "NOT":
		return item{}, fmt.Errorf("negation is not supported (%s at offset %d)", val, start)
	}
	if isNumeric(val) {
		num, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return item{}, fmt.Errorf("invalid number %s at offset %d", val, start)
		}
		return item{typ: itemNumber, pos: start, val: val, num: num}, nil
	}
	return item{typ: itemWord, pos: start, val: val}, nil
}

// phrase reads a double-quoted fulltext phrase with backslash escapes.
func (l *lexer) phrase() (item, error) {
	start := l.pos
	l.pos++
	var sb strings.Builder
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		l.pos++
		switch {
		case c == '"':
			return item{typ: itemPhrase, pos: start, val: sb.String()}, nil
		case c == '\\' && l.pos < len(l.input):
			e := l.input[l.pos]
			l.pos++
			switch e {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			default:
				sb.WriteByte(e)
			}
		default:
			sb.WriteByte(c)
		}
	}
	return item{}, fmt.Errorf("phrase starting at offset %d is not closed", start)
}

func isWordRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return true
	}
	return strings.ContainsRune("_*?/-.", r)
}

// isNumeric accepts an optional minus, digits and at most one dot. Words
// like 7d or 2024-01-01 stay words.
func isNumeric(s string) bool {
	s = strings.TrimPrefix(s, "-")
	if s == "" || s[0] < '0' || s[0] > '9' {
		return false
	}
	dots := 0
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '.':
			dots++
		case s[i] < '0' || s[i] > '9':
			return false
		}
	}
	return dots <= 1
}
