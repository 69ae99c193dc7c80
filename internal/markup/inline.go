package markup

import (
	"strings"

	"github.com/starford/raido/internal/models"
)

// Inline marker order is fixed so that rendering and parsing agree:
// link wraps bold wraps italic wraps strikethrough wraps code. Code is
// innermost and its content is taken literally in both directions.

// RenderSpans serializes rich-text spans back to inline markup.
func RenderSpans(spans []models.RichTextSpan) string {
	var b strings.Builder
	for _, s := range spans {
		t := s.Text
		if s.Code {
			t = "`" + t + "`"
		}
		if s.Strikethrough {
			t = "~~" + t + "~~"
		}
		if s.Italic {
			t = "_" + t + "_"
		}
		if s.Bold {
			t = "**" + t + "**"
		}
		if s.Link != "" {
			t = "[" + t + "](" + s.Link + ")"
		}
		b.WriteString(t)
	}
	return b.String()
}

// ParseSpans parses inline markup into rich-text spans. It is total:
// unmatched markers are kept as literal text.
func ParseSpans(s string) []models.RichTextSpan {
	return parseInline(s, models.RichTextSpan{})
}

func parseInline(s string, base models.RichTextSpan) []models.RichTextSpan {
	var out []models.RichTextSpan
	var plain strings.Builder

	flush := func() {
		if plain.Len() == 0 {
			return
		}
		sp := base
		sp.Text = plain.String()
		out = append(out, sp)
		plain.Reset()
	}

	i := 0
	for i < len(s) {
		switch {
		case strings.HasPrefix(s[i:], "**"):
			if j := findClose(s, i+2, "**"); j >= 0 {
				flush()
				inner := base
				inner.Bold = true
				out = append(out, parseInline(s[i+2:j], inner)...)
				i = j + 2
				continue
			}
		case strings.HasPrefix(s[i:], "~~"):
			if j := findClose(s, i+2, "~~"); j >= 0 {
				flush()
				inner := base
				inner.Strikethrough = true
				out = append(out, parseInline(s[i+2:j], inner)...)
				i = j + 2
				continue
			}
		case s[i] == '_' || s[i] == '*':
			marker := string(s[i])
			if j := findClose(s, i+1, marker); j > i+1 {
				flush()
				inner := base
				inner.Italic = true
				out = append(out, parseInline(s[i+1:j], inner)...)
				i = j + 1
				continue
			}
		case s[i] == '`':
			if j := strings.IndexByte(s[i+1:], '`'); j >= 0 {
				flush()
				sp := base
				sp.Code = true
				sp.Text = s[i+1 : i+1+j]
				out = append(out, sp)
				i = i + 1 + j + 1
				continue
			}
		case s[i] == '[':
			if text, url, next, ok := parseLink(s, i); ok {
				flush()
				inner := base
				inner.Link = url
				out = append(out, parseInline(text, inner)...)
				i = next
				continue
			}
		}
		plain.WriteByte(s[i])
		i++
	}
	flush()
	return out
}

// findClose returns the index of the closing marker, or -1. An immediately
// adjacent close ("****") does not count as a span.
func findClose(s string, from int, marker string) int {
	j := strings.Index(s[from:], marker)
	if j < 0 {
		return -1
	}
	return from + j
}

// parseLink matches [text](url) starting at i. Nested brackets inside the
// text are not supported; the first "](" closes the text segment.
func parseLink(s string, i int) (text, url string, next int, ok bool) {
	close := strings.Index(s[i:], "](")
	if close < 0 {
		return "", "", 0, false
	}
	urlStart := i + close + 2
	end := strings.IndexByte(s[urlStart:], ')')
	if end < 0 {
		return "", "", 0, false
	}
	return s[i+1 : i+close], s[urlStart : urlStart+end], urlStart + end + 1, true
}
