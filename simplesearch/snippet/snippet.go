// Package snippet builds keyword-in-context excerpts for engines without a
// native snippet function.
package snippet

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultWindow is the excerpt length, in characters, used when none is given.
const DefaultWindow = 60

// Options configures an excerpt.
type Options struct {
	Window   int // excerpt length in characters
	Ellipsis string
	Begin    string // inserted before each hit
	End      string // inserted after each hit
}

// DefaultOptions returns a 60 character window with "..." and <b></b>.
func DefaultOptions() Options {
	return Options{
		Window:   DefaultWindow,
		Ellipsis: "...",
		Begin:    "<b>",
		End:      "</b>",
	}
}

const patternCacheSize = 256

var patterns, _ = lru.New[string, *regexp.Regexp](patternCacheSize)

// pattern compiles a case-insensitive alternation of terms, longest first so
// that a term never shadows a longer one sharing its prefix.
func pattern(terms []string) *regexp.Regexp {
	sorted := append([]string(nil), terms...)
	sort.SliceStable(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })
	key := strings.Join(sorted, "\x00")
	if re, ok := patterns.Get(key); ok {
		return re
	}
	quoted := make([]string, len(sorted))
	for i, t := range sorted {
		quoted[i] = regexp.QuoteMeta(t)
	}
	re := regexp.MustCompile("(?i)(?:" + strings.Join(quoted, "|") + ")")
	patterns.Add(key, re)
	return re
}

// Terms splits a search word on whitespace.
func Terms(searchword string) []string {
	return strings.Fields(searchword)
}

// Highlight wraps every case-insensitive occurrence of any term in begin and
// end markers. All terms are matched in a single pass, so markers are never
// matched themselves.
func Highlight(text string, terms []string, begin, end string) string {
	if len(terms) == 0 {
		return text
	}
	return pattern(terms).ReplaceAllStringFunc(text, func(m string) string {
		return begin + m + end
	})
}

// Locate returns the character offsets of every term occurrence in text.
func Locate(text string, terms []string) []int {
	if len(terms) == 0 {
		return nil
	}
	idx := pattern(terms).FindAllStringIndex(text, -1)
	out := make([]int, 0, len(idx))
	for _, m := range idx {
		out = append(out, utf8.RuneCountInString(text[:m[0]]))
	}
	return out
}

// Anchor picks the offset to center the excerpt on. With more than two
// occurrences it is the start of the closest pair; ties go to the first pair.
func Anchor(locations []int) int {
	if len(locations) == 0 {
		return 0
	}
	if len(locations) <= 2 {
		return locations[0]
	}
	best := 0
	gap := locations[1] - locations[0]
	for i := 1; i < len(locations)-1; i++ {
		if d := locations[i+1] - locations[i]; d < gap {
			gap = d
			best = i
		}
	}
	return locations[best]
}

// Extract returns an excerpt of text of at most opts.Window characters around
// the densest cluster of searchword terms, with hits highlighted. It returns
// "" when no term occurs in text. Text that fits the window is returned
// whole.
func Extract(text, searchword string, opts Options) string {
	if opts.Window <= 0 {
		opts.Window = DefaultWindow
	}
	terms := Terms(searchword)
	if len(terms) == 0 {
		return ""
	}
	locations := Locate(text, terms)
	if len(locations) == 0 {
		return ""
	}

	marked := Highlight(text, terms, opts.Begin, opts.End)
	if utf8.RuneCountInString(marked) <= opts.Window {
		return marked
	}

	runes := []rune(text)
	start := Anchor(locations) - opts.Window/3
	if start < 0 {
		start = 0
	}
	if len(runes)-start < opts.Window {
		start = len(runes) - opts.Window
		if start < 0 {
			start = 0
		}
	}
	end := start + opts.Window
	if end > len(runes) {
		end = len(runes)
	}

	segment := string(runes[start:end])
	var prefix, suffix string
	if end < len(runes) {
		if i := strings.LastIndex(segment, " "); i > 0 {
			segment = segment[:i]
		}
		suffix = opts.Ellipsis
	}
	if start > 0 {
		if i := strings.Index(segment, " "); i >= 0 {
			segment = segment[i+1:]
		}
		prefix = opts.Ellipsis
	}
	return prefix + Highlight(segment, terms, opts.Begin, opts.End) + suffix
}

var tagRe = regexp.MustCompile(`<[^>]*>`)

// StripTags removes markup tags, leaving their text content.
func StripTags(s string) string {
	return tagRe.ReplaceAllString(s, "")
}
