// Package ai isolates and repairs the JSON payload embedded in free-form
// model completions.
package ai

import (
	"regexp"
	"strings"
)

const fence = "```"

// ExtractSource records which rule isolated the candidate payload.
type ExtractSource string

const (
	SourceJSONFence ExtractSource = "json_fence"
	SourceFence     ExtractSource = "fence"
	SourceBare      ExtractSource = "bare"
)

var languageTag = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_+.-]*$`)

// ExtractJSON returns the substring of raw most likely to be the intended
// JSON payload. A ```json fence wins over any other fence, which wins over
// the whole text. An unclosed fence extends to the end of the text.
func ExtractJSON(raw string) (string, ExtractSource) {
	if i := strings.Index(raw, fence+"json"); i >= 0 {
		body := raw[i+len(fence+"json"):]
		if nl := strings.IndexByte(body, '\n'); nl >= 0 && !strings.ContainsAny(body[:nl], "{[\"") {
			// ```json5, ```jsonc and trailing spaces on the opening line.
			body = body[nl+1:]
		}
		return untilFence(body), SourceJSONFence
	}
	if i := strings.Index(raw, fence); i >= 0 {
		return untilFence(dropLanguageTag(raw[i+len(fence):])), SourceFence
	}
	return strings.TrimSpace(raw), SourceBare
}

func untilFence(body string) string {
	if j := strings.Index(body, fence); j >= 0 {
		body = body[:j]
	}
	return strings.TrimSpace(body)
}

// dropLanguageTag removes a bare info string such as "javascript" from the
// opening fence line.
func dropLanguageTag(body string) string {
	nl := strings.IndexByte(body, '\n')
	if nl < 0 {
		return body
	}
	if tag := strings.TrimSpace(body[:nl]); tag == "" || languageTag.MatchString(tag) {
		return body[nl+1:]
	}
	return body
}
