package sqlbuilder

import (
	"fmt"
	"strings"
)

type PlaceholderStyle int

const (
	PlaceholderQuestion PlaceholderStyle = iota
	PlaceholderDollar
)

type Builder struct {
	Style PlaceholderStyle
	args  []any
}

func New(style PlaceholderStyle) *Builder {
	return &Builder{Style: style, args: make([]any, 0)}
}

func (b *Builder) Arg(v any) string {
	b.args = append(b.args, v)
	switch b.Style {
	case PlaceholderDollar:
		return "$" + itoa(len(b.args))
	default:
		return "?"
	}
}

func (b *Builder) Args() []any { return b.args }
func (b *Builder) Len() int    { return len(b.args) }

// Param returns the named placeholder for name, e.g. ":h1".
func Param(name string) string {
	return ":" + name
}

// Bind rewrites :name parameters in query into the builder's placeholder
// style and returns the positional arguments in order of appearance.
// Parameters inside quoted strings or quoted identifiers are left alone, as
// are Postgres "::" casts. A parameter missing from params is an error.
// Keys of params may be given with or without the leading colon.
func Bind(style PlaceholderStyle, query string, params map[string]any) (string, []any, error) {
	b := New(style)
	var sb strings.Builder
	sb.Grow(len(query))

	in := []rune(query)
	for i := 0; i < len(in); i++ {
		ch := in[i]
		switch ch {
		case '\'', '"', '`':
			end := skipQuoted(in, i)
			sb.WriteString(string(in[i:end]))
			i = end - 1
			continue
		case ':':
			if i+1 < len(in) && in[i+1] == ':' {
				sb.WriteString("::")
				i++
				continue
			}
			if i+1 < len(in) && isParamStart(in[i+1]) {
				j := i + 1
				for j < len(in) && isParamChar(in[j]) {
					j++
				}
				name := string(in[i+1 : j])
				v, ok := params[name]
				if !ok {
					v, ok = params[":"+name]
				}
				if !ok {
					return "", nil, fmt.Errorf("missing value for parameter :%s", name)
				}
				sb.WriteString(b.Arg(v))
				i = j - 1
				continue
			}
		}
		sb.WriteRune(ch)
	}
	return sb.String(), b.Args(), nil
}

// skipQuoted returns the index just past the quoted run starting at start.
// A doubled quote character inside the run is an escaped quote.
func skipQuoted(in []rune, start int) int {
	q := in[start]
	i := start + 1
	for i < len(in) {
		if in[i] == q {
			if i+1 < len(in) && in[i+1] == q {
				i += 2
				continue
			}
			return i + 1
		}
		i++
	}
	return len(in)
}

func isParamStart(ch rune) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isParamChar(ch rune) bool {
	return isParamStart(ch) || (ch >= '0' && ch <= '9')
}

// itoa converts int to string without fmt overhead
func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [32]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + (n % 10))
		n /= 10
	}
	return string(buf[i:])
}

// Itoa is the exported form of itoa, used for numbered parameter names.
func Itoa(n int) string {
	return itoa(n)
}
