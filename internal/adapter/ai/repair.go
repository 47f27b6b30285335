package ai

import (
	"fmt"
	"regexp"
	"strings"
)

// RepairStep is one named, idempotent string-to-string transformation.
type RepairStep struct {
	Name  string
	Apply func(string) string
}

// RepairSteps is the fixed order in which malformed payloads are repaired.
var RepairSteps = []RepairStep{
	{Name: "trailing_commas", Apply: RemoveTrailingCommas},
	{Name: "adjacent_objects", Apply: InsertObjectCommas},
	{Name: "interior_quotes", Apply: EscapeInteriorQuotes},
	{Name: "stray_backslashes", Apply: EscapeStrayBackslashes},
	{Name: "raw_newlines", Apply: EscapeControlCharacters},
}

// Repair runs every step in order and reports the names of the steps that
// changed the text.
func Repair(s string) (string, []string) {
	var applied []string
	for _, step := range RepairSteps {
		next := step.Apply(s)
		if next != s {
			applied = append(applied, step.Name)
			s = next
		}
	}
	return s, applied
}

var (
	trailingComma = regexp.MustCompile(`(?:,\s*)+([}\]])`)
	adjacentObj   = regexp.MustCompile(`\}(\s*)\{`)
)

// RemoveTrailingCommas drops commas that directly precede a closing brace or
// bracket outside string literals.
func RemoveTrailingCommas(s string) string {
	return rewrite(s, func(t string) string {
		return trailingComma.ReplaceAllString(t, "$1")
	}, nil)
}

// InsertObjectCommas separates objects written back to back as "}{".
func InsertObjectCommas(s string) string {
	return rewrite(s, func(t string) string {
		return adjacentObj.ReplaceAllString(t, "},$1{")
	}, nil)
}

// EscapeInteriorQuotes escapes unescaped double quotes inside string literals.
func EscapeInteriorQuotes(s string) string {
	return rewrite(s, nil, func(body string) string {
		if !strings.Contains(body, `"`) {
			return body
		}
		var b strings.Builder
		b.Grow(len(body) + 8)
		for i := 0; i < len(body); i++ {
			switch c := body[i]; c {
			case '\\':
				b.WriteByte(c)
				if i+1 < len(body) {
					i++
					b.WriteByte(body[i])
				}
			case '"':
				b.WriteString(`\"`)
			default:
				b.WriteByte(c)
			}
		}
		return b.String()
	})
}

// EscapeStrayBackslashes doubles backslashes inside string literals that do
// not begin a valid JSON escape sequence.
func EscapeStrayBackslashes(s string) string {
	return rewrite(s, nil, func(body string) string {
		if !strings.Contains(body, `\`) {
			return body
		}
		var b strings.Builder
		b.Grow(len(body) + 8)
		for i := 0; i < len(body); i++ {
			c := body[i]
			if c != '\\' {
				b.WriteByte(c)
				continue
			}
			if n := validEscapeLen(body[i:]); n > 0 {
				b.WriteString(body[i : i+n])
				i += n - 1
				continue
			}
			b.WriteString(`\\`)
		}
		return b.String()
	})
}

// validEscapeLen returns the length of the escape sequence at the start of s,
// or 0 when s does not start with one.
func validEscapeLen(s string) int {
	if len(s) < 2 {
		return 0
	}
	switch s[1] {
	case '"', '\\', '/', 'b', 'f', 'n', 'r', 't':
		return 2
	case 'u':
		if len(s) < 6 {
			return 0
		}
		for _, h := range s[2:6] {
			if !isHex(h) {
				return 0
			}
		}
		return 6
	}
	return 0
}

func isHex(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

// EscapeControlCharacters replaces literal newlines, carriage returns, tabs
// and other control characters inside string literals with their escapes.
func EscapeControlCharacters(s string) string {
	return rewrite(s, nil, func(body string) string {
		if strings.IndexFunc(body, func(r rune) bool { return r < 0x20 }) < 0 {
			return body
		}
		var b strings.Builder
		b.Grow(len(body) + 8)
		for _, r := range body {
			switch {
			case r == '\n':
				b.WriteString(`\n`)
			case r == '\r':
				b.WriteString(`\r`)
			case r == '\t':
				b.WriteString(`\t`)
			case r < 0x20:
				fmt.Fprintf(&b, `\u%04x`, r)
			default:
				b.WriteRune(r)
			}
		}
		return b.String()
	})
}
