package ai

import "strings"

// span is a run of structural text or one string literal, delimiters
// included. Unterminated literals run to the end of the input.
type span struct {
	text   string
	quoted bool
	closed bool
}

// splitSpans partitions s into structural runs and string literals. A quote
// inside a literal only terminates it when the text that follows could
// continue a JSON document; any other quote is treated as interior content.
func splitSpans(s string) []span {
	var spans []span
	start := 0
	inString := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !inString {
			if c == '"' {
				if i > start {
					spans = append(spans, span{text: s[start:i]})
				}
				start = i
				inString = true
			}
			continue
		}
		switch c {
		case '\\':
			i++
		case '"':
			if closesString(s, i+1) {
				spans = append(spans, span{text: s[start : i+1], quoted: true, closed: true})
				start = i + 1
				inString = false
			}
		}
	}
	if start < len(s) {
		spans = append(spans, span{text: s[start:], quoted: inString})
	}
	return spans
}

func closesString(s string, j int) bool {
	k := skipSpace(s, j)
	if k >= len(s) {
		return true
	}
	switch s[k] {
	case '}', ']', ':':
		return true
	case ',':
		k = skipSpace(s, k+1)
		if k >= len(s) {
			return true
		}
		c := s[k]
		if c == '"' || c == '{' || c == '[' || c == '}' || c == ']' || c == '-' || (c >= '0' && c <= '9') {
			return true
		}
		rest := s[k:]
		return strings.HasPrefix(rest, "true") || strings.HasPrefix(rest, "false") || strings.HasPrefix(rest, "null")
	}
	return false
}

func skipSpace(s string, i int) int {
	for i < len(s) {
		switch s[i] {
		case ' ', '\t', '\n', '\r':
			i++
		default:
			return i
		}
	}
	return i
}

// rewrite rebuilds s, passing structural runs to structural and the content
// of each string literal (without its quotes) to content. Nil functions leave
// their spans untouched.
func rewrite(s string, structural, content func(string) string) string {
	var b strings.Builder
	b.Grow(len(s) + 16)
	for _, sp := range splitSpans(s) {
		switch {
		case !sp.quoted:
			if structural != nil {
				b.WriteString(structural(sp.text))
			} else {
				b.WriteString(sp.text)
			}
		case content == nil:
			b.WriteString(sp.text)
		default:
			body := sp.text[1:]
			if sp.closed {
				body = body[:len(body)-1]
			}
			b.WriteByte('"')
			b.WriteString(content(body))
			if sp.closed {
				b.WriteByte('"')
			}
		}
	}
	return b.String()
}
