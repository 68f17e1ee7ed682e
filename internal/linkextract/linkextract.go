// Package linkextract finds http and https links in free-form message text.
package linkextract

import (
	"iter"
	"regexp"
)

// urlPattern matches a scheme followed by everything up to the next whitespace.
// RE2's \s is ASCII only, so vertical tab, NEL and Unicode separators are listed explicitly.
var urlPattern = regexp.MustCompile(`https?://[^\s\v\x{85}\p{Z}]+`)

// Span is one link occurrence. Start and End are byte offsets into the
// scanned text and URL is always text[Start:End].
type Span struct {
	Start int
	End   int
	URL   string
}

// Spans returns the link occurrences of text from left to right.
// The sequence is lazy and can be ranged over any number of times.
func Spans(text string) iter.Seq[Span] {
	return func(yield func(Span) bool) {
		pos := 0
		for pos < len(text) {
			loc := urlPattern.FindStringIndex(text[pos:])
			if loc == nil {
				return
			}
			start, end := pos+loc[0], pos+loc[1]
			if !yield(Span{Start: start, End: end, URL: text[start:end]}) {
				return
			}
			pos = end
		}
	}
}

// Extract collects every span of text. It returns nil when there are none.
func Extract(text string) []Span {
	var spans []Span
	for s := range Spans(text) {
		spans = append(spans, s)
	}
	return spans
}
