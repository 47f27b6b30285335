package domain

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrUpstream          = errors.New("upstream error")
	ErrUpstreamTimeout   = errors.New("upstream timeout")
	ErrUpstreamRateLimit = errors.New("upstream rate limit")
	ErrUnparseable       = errors.New("unparseable completion")
	ErrSchemaInvalid     = errors.New("schema invalid")
	ErrNoQuestions       = errors.New("no questions generated")
	ErrInternal          = errors.New("internal error")
)

// MissingInputError reports required domain text that the caller omitted.
// It is raised before any request is built or sent.
type MissingInputError struct {
	Schema SchemaID
	Fields []string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("%s: missing required input: %s", e.Schema, strings.Join(e.Fields, ", "))
}

// Is maps the error onto ErrInvalidArgument.
func (e *MissingInputError) Is(target error) bool { return target == ErrInvalidArgument }

// ProviderError is a transport or HTTP failure at the completion provider.
// StatusCode is 0 when no response was received.
type ProviderError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("completion provider unreachable: %v", e.Err)
	}
	if e.Body == "" {
		return fmt.Sprintf("completion provider status %d", e.StatusCode)
	}
	return fmt.Sprintf("completion provider status %d: %s", e.StatusCode, e.Body)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Is maps the error onto ErrUpstream and, where the status says so, onto the
// rate-limit or timeout sentinels.
func (e *ProviderError) Is(target error) bool {
	switch target {
	case ErrUpstream:
		return true
	case ErrUpstreamRateLimit:
		return e.StatusCode == 429
	case ErrUpstreamTimeout:
		return e.isTimeout()
	}
	return false
}

func (e *ProviderError) isTimeout() bool {
	if e.StatusCode == 408 || e.StatusCode == 504 {
		return true
	}
	if e.StatusCode != 0 || e.Err == nil {
		return false
	}
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}

// Retryable reports whether a caller may reasonably try the call again.
func (e *ProviderError) Retryable() bool {
	return e.StatusCode == 0 || e.StatusCode == 429 || e.StatusCode >= 500
}

// UnrecoverableParseError is returned when extraction and repair could not
// produce parseable JSON. Offset is the parser's byte offset into
// LastAttemptedText, or -1 when unknown.
type UnrecoverableParseError struct {
	Schema            SchemaID
	OriginalText      string
	LastAttemptedText string
	Offset            int64
	Err               error
}

func (e *UnrecoverableParseError) Error() string {
	return fmt.Sprintf("%s: could not parse completion (offset %d): %v", e.Schema, e.Offset, e.Err)
}

func (e *UnrecoverableParseError) Unwrap() error { return e.Err }

// Is maps the error onto ErrUnparseable.
func (e *UnrecoverableParseError) Is(target error) bool { return target == ErrUnparseable }

// FieldViolation names one missing or invalid field by its dotted JSON path.
type FieldViolation struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// SchemaValidationError lists every required-field or range violation found
// in a parsed completion.
type SchemaValidationError struct {
	Schema SchemaID
	Fields []FieldViolation
}

func (e *SchemaValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+"("+f.Rule+")")
	}
	return fmt.Sprintf("%s: schema validation failed: %s", e.Schema, strings.Join(parts, ", "))
}

// Is maps the error onto ErrSchemaInvalid.
func (e *SchemaValidationError) Is(target error) bool { return target == ErrSchemaInvalid }

// FieldNames returns the violated field paths in order.
func (e *SchemaValidationError) FieldNames() []string {
	out := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		out = append(out, f.Field)
	}
	return out
}

// NoQuestionsGeneratedError is returned when an array schema parses to an
// empty list and has no fallback.
type NoQuestionsGeneratedError struct {
	Schema SchemaID
}

func (e *NoQuestionsGeneratedError) Error() string {
	return fmt.Sprintf("%s: completion contained no items", e.Schema)
}

// Is maps the error onto ErrNoQuestions.
func (e *NoQuestionsGeneratedError) Is(target error) bool { return target == ErrNoQuestions }
