package linkextract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func urls(spans []Span) []string {
	var out []string
	for _, s := range spans {
		out = append(out, s.URL)
	}
	return out
}

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"empty", "", nil},
		{"no links", "just some words, no links at all", nil},
		{"bare scheme", "http:// and https://", nil},
		{"single", "Check https://example.com now", []string{"https://example.com"}},
		{"http", "go http://a.org/x?y=1", []string{"http://a.org/x?y=1"}},
		{"greedy punctuation", "see https://a.com/path.", []string{"https://a.com/path."}},
		{"single space separator", "https://a.com https://b.com", []string{"https://a.com", "https://b.com"}},
		{"newline separator", "https://a.com\nhttps://b.com", []string{"https://a.com", "https://b.com"}},
		{"glued links are one span", "https://a.comhttps://b.com", []string{"https://a.comhttps://b.com"}},
		{"duplicates kept", "https://a.com twice https://a.com", []string{"https://a.com", "https://a.com"}},
		{"other scheme ignored", "ftp://a.com and mailto:x@y.z", nil},
		{"uppercase scheme ignored", "HTTPS://A.COM", nil},
		{"unicode separator", "https://a.com\u00a0tail", []string{"https://a.com"}},
		{"non-ascii path", "link https://пример.рф/путь end", []string{"https://пример.рф/путь"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, urls(Extract(tt.text)))
		})
	}
}

func TestSpanOffsets(t *testing.T) {
	text := "Visit https://a.com twice https://a.com"
	spans := Extract(text)
	require.Len(t, spans, 2)

	assert.Equal(t, Span{Start: 6, End: 19, URL: "https://a.com"}, spans[0])
	assert.Equal(t, Span{Start: 26, End: 39, URL: "https://a.com"}, spans[1])
	for _, s := range spans {
		assert.Equal(t, s.URL, text[s.Start:s.End])
		assert.LessOrEqual(t, s.End, len(text))
	}
}

func TestSpansRestartable(t *testing.T) {
	seq := Spans("a https://x.io b https://y.io c https://z.io")

	first := 0
	for range seq {
		first++
	}
	second := 0
	for s := range seq {
		second++
		if s.URL == "https://y.io" {
			break
		}
	}

	assert.Equal(t, 3, first)
	assert.Equal(t, 2, second)
}
