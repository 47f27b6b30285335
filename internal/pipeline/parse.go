package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fairyhunter13/resume-matcher/internal/adapter/ai"
	"github.com/fairyhunter13/resume-matcher/internal/domain"
)

// parsed is a successfully decoded completion and how it was obtained.
type parsed struct {
	value    any
	source   ai.ExtractSource
	repairs  []string
	balanced bool
}

type attempt struct {
	text     string
	repairs  []string
	balanced bool
}

// parseCompletion isolates, repairs and decodes the JSON payload of raw.
// The extracted candidate is tried as-is, then repaired. When both fail the
// largest bracket-balanced substring of the expected shape is tried the same
// way.
func parseCompletion(pol Policy, raw string) (parsed, error) {
	candidate, source := ai.ExtractJSON(raw)
	repaired, steps := ai.Repair(candidate)
	attempts := []attempt{{text: candidate}}
	if len(steps) > 0 {
		attempts = append(attempts, attempt{text: repaired, repairs: steps})
	}

	open := byte('{')
	if pol.Shape == ShapeArray {
		open = '['
	}
	if sub, ok := ai.LargestBalanced(raw, open); ok && sub != candidate {
		attempts = append(attempts, attempt{text: sub, balanced: true})
		if fixed, subSteps := ai.Repair(sub); len(subSteps) > 0 {
			attempts = append(attempts, attempt{text: fixed, repairs: subSteps, balanced: true})
		}
	}

	var lastErr error
	var lastText string
	for _, a := range attempts {
		v, err := decodeGeneric(a.text)
		if err == nil {
			return parsed{value: v, source: source, repairs: a.repairs, balanced: a.balanced}, nil
		}
		lastErr, lastText = err, a.text
	}

	offset := int64(-1)
	var se *json.SyntaxError
	if errors.As(lastErr, &se) {
		offset = se.Offset
	}
	return parsed{}, &domain.UnrecoverableParseError{
		Schema:            pol.ID,
		OriginalText:      raw,
		LastAttemptedText: lastText,
		Offset:            offset,
		Err:               lastErr,
	}
}

var errTrailingData = errors.New("unexpected data after JSON value")

// decodeGeneric decodes exactly one JSON value, keeping numbers as
// json.Number.
func decodeGeneric(s string) (any, error) {
	if strings.TrimSpace(s) == "" {
		return nil, io.ErrUnexpectedEOF
	}
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w at offset %d", errTrailingData, dec.InputOffset())
	}
	return v, nil
}

// coerceShape unwraps the common near-misses: an array wrapped in an object
// with a single array field, and an object wrapped in a one-element array.
func coerceShape(v any, shape Shape) (any, bool) {
	switch shape {
	case ShapeArray:
		switch t := v.(type) {
		case []any:
			return t, true
		case map[string]any:
			if len(t) == 1 {
				for _, inner := range t {
					if arr, ok := inner.([]any); ok {
						return arr, true
					}
				}
			}
		}
	case ShapeObject:
		switch t := v.(type) {
		case map[string]any:
			return t, true
		case []any:
			if len(t) == 1 {
				if obj, ok := t[0].(map[string]any); ok {
					return obj, true
				}
			}
		}
	}
	return nil, false
}
