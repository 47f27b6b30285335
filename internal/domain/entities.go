// Package domain holds the result types, ports and error taxonomy shared by
// the completion pipeline and its adapters.
package domain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// Context aliases the standard context type for adapters that implement ports.
type Context = context.Context

// SchemaID names one parametrization of the completion pipeline.
type SchemaID string

const (
	SchemaCompatibilityAnalysis SchemaID = "compatibility_analysis"
	SchemaQuiz                  SchemaID = "quiz"
	SchemaInterviewQuestions    SchemaID = "interview_questions"
	SchemaMCQSingle             SchemaID = "mcq_single"
	SchemaMCQBatch              SchemaID = "mcq_batch"
	SchemaSkillBatch            SchemaID = "skill_batch"
	SchemaKeySkills             SchemaID = "key_skills"
	SchemaResumeSkills          SchemaID = "resume_skills"
	SchemaSkillsOverview        SchemaID = "skills_overview"
)

// AllSchemas lists every schema in registry order.
var AllSchemas = []SchemaID{
	SchemaCompatibilityAnalysis,
	SchemaQuiz,
	SchemaInterviewQuestions,
	SchemaMCQSingle,
	SchemaMCQBatch,
	SchemaSkillBatch,
	SchemaKeySkills,
	SchemaResumeSkills,
	SchemaSkillsOverview,
}

// ParseSchemaID validates a schema name supplied by a caller.
func ParseSchemaID(s string) (SchemaID, error) {
	id := SchemaID(strings.TrimSpace(strings.ToLower(s)))
	for _, known := range AllSchemas {
		if id == known {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w: unknown schema %q", ErrInvalidArgument, s)
}

// CompletionRequest is one fully built provider call. It is never mutated
// after construction.
type CompletionRequest struct {
	Schema            SchemaID
	Prompt            string
	SystemInstruction string
	Temperature       float64
	MaxTokens         int
}

// CompletionProvider sends a request to a text-generation endpoint and returns
// the first completion's text unmodified.
type CompletionProvider interface {
	Complete(ctx Context, req CompletionRequest) (string, error)
}

// QuizScore is the locally computed quiz result used as ground truth for the
// quizPerformance category of an analysis.
type QuizScore struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

// DefaultQuizLength is the number of questions in a generated quiz and the
// denominator assumed when Total is not set.
const DefaultQuizLength = 10

// OutOfTen scales the score to the 0-10 range, rounded to the nearest integer.
func (q QuizScore) OutOfTen() int {
	total := q.Total
	if total <= 0 {
		total = DefaultQuizLength
	}
	correct := q.Correct
	if correct < 0 {
		correct = 0
	}
	if correct > total {
		correct = total
	}
	return int(math.Round(float64(correct) * 10 / float64(total)))
}

// Percent is the 0-100 value the analysis quizPerformance must equal.
func (q QuizScore) Percent() int { return q.OutOfTen() * 10 }

// SkillDescriptor is one skill handed to the batch question generator.
type SkillDescriptor struct {
	Skill      string `json:"skill" validate:"required"`
	Category   string `json:"category,omitempty"`
	Importance string `json:"importance,omitempty"`
}

// Inputs carries the caller-supplied domain text for any schema. Each schema
// reads only the fields it needs.
type Inputs struct {
	Resume         string
	JobDescription string
	Quiz           QuizScore
	Skill          string
	Skills         []SkillDescriptor
	BatchSize      int
}

var percentType = reflect.TypeOf(Percent(0))

// Percent is a 0-100 integer score. It accepts JSON numbers and numeric
// strings, rounding fractional values.
type Percent int

// UnmarshalJSON implements json.Unmarshaler.
func (p *Percent) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "%")
		b = []byte(s)
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return &json.UnmarshalTypeError{Value: string(b), Type: percentType}
	}
	*p = Percent(math.Round(f))
	return nil
}
