// Package pipeline turns domain inputs into a completion request, sends it to
// a provider and turns the free-form answer into a validated typed result.
// One Pipeline serves every schema; schemas differ only by their Policy.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fairyhunter13/resume-matcher/internal/adapter/ai"
	"github.com/fairyhunter13/resume-matcher/internal/adapter/observability"
	"github.com/fairyhunter13/resume-matcher/internal/domain"
	"github.com/fairyhunter13/resume-matcher/pkg/textx"
)

// Outcome labels recorded per invocation.
const (
	OutcomeOK            = "ok"
	OutcomeFallback      = "fallback"
	OutcomeMissingInput  = "missing_input"
	OutcomeProviderError = "provider_error"
	OutcomeUnparseable   = "unparseable"
	OutcomeSchemaInvalid = "schema_invalid"
	OutcomeNoQuestions   = "no_questions"
	OutcomeError         = "error"
)

// Pipeline is safe for concurrent use. It holds no per-invocation state.
type Pipeline struct {
	provider     domain.CompletionProvider
	providerName string
	registry     *Registry
	validate     *validator.Validate
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithRegistry replaces the embedded schema policies.
func WithRegistry(r *Registry) Option { return func(p *Pipeline) { p.registry = r } }

// WithProviderName sets the provider label used in logs and spans.
func WithProviderName(name string) Option { return func(p *Pipeline) { p.providerName = name } }

// New builds a pipeline around provider.
func New(provider domain.CompletionProvider, opts ...Option) (*Pipeline, error) {
	if provider == nil {
		return nil, fmt.Errorf("op=pipeline.New: %w: nil provider", domain.ErrInvalidArgument)
	}
	p := &Pipeline{provider: provider, providerName: "default", validate: newValidator()}
	for _, o := range opts {
		o(p)
	}
	if p.registry == nil {
		reg, err := DefaultRegistry()
		if err != nil {
			return nil, fmt.Errorf("op=pipeline.New: %w", err)
		}
		p.registry = reg
	}
	return p, nil
}

// Registry exposes the schema policies in use.
func (p *Pipeline) Registry() *Registry { return p.registry }

// Invoke runs one schema end to end. The result is one of the typed result
// pointers in the domain package, matching the schema.
func (p *Pipeline) Invoke(ctx context.Context, schema domain.SchemaID, in domain.Inputs) (any, error) {
	ctx, span := otel.Tracer("pipeline").Start(ctx, "pipeline.Invoke",
		trace.WithAttributes(
			attribute.String("pipeline.schema", string(schema)),
			attribute.String("ai.provider", p.providerName),
		))
	defer span.End()
	lg := observability.LoggerFromContext(ctx).With(slog.String("schema", string(schema)))

	res, fellBack, err := p.invoke(ctx, lg, span, schema, in)
	outcome := outcomeOf(err, fellBack)
	observability.RecordPipelineOutcome(string(schema), outcome)
	span.SetAttributes(attribute.String("pipeline.outcome", outcome))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		lg.Warn("pipeline invocation failed", slog.String("outcome", outcome), slog.Any("error", err))
		return nil, err
	}
	lg.Info("pipeline invocation completed", slog.String("outcome", outcome))
	return res, nil
}

func (p *Pipeline) invoke(ctx context.Context, lg *slog.Logger, span trace.Span, schema domain.SchemaID, in domain.Inputs) (any, bool, error) {
	pol, err := p.registry.Policy(schema)
	if err != nil {
		return nil, false, err
	}
	req, err := BuildRequest(pol, in)
	if err != nil {
		return nil, false, err
	}

	raw, err := p.provider.Complete(ctx, req)
	if err != nil {
		var pe *domain.ProviderError
		if !errors.As(err, &pe) {
			err = &domain.ProviderError{Err: err}
		}
		return nil, false, err
	}
	span.SetAttributes(attribute.Int("pipeline.completion_chars", len(raw)))

	if pol.Shape == ShapeText {
		return finalizeText(pol, raw)
	}

	pr, err := parseCompletion(pol, raw)
	if err != nil {
		var upe *domain.UnrecoverableParseError
		if errors.As(err, &upe) {
			lg.Debug("completion unparseable",
				slog.Int64("offset", upe.Offset),
				slog.String("last_attempted", textx.Truncate(upe.LastAttemptedText, 500)))
		}
		if pol.AllowFallback {
			return p.fallback(lg, pol, in, err)
		}
		return nil, false, err
	}
	if len(pr.repairs) > 0 {
		observability.RecordRepairs(string(schema), pr.repairs)
		lg.Debug("completion repaired", slog.Any("steps", pr.repairs), slog.Bool("balanced_substring", pr.balanced))
	}
	span.SetAttributes(
		attribute.String("pipeline.extract_source", string(pr.source)),
		attribute.StringSlice("pipeline.repairs", pr.repairs),
	)

	res, overridden, err := p.finalize(pol, pr.value, in)
	if err != nil {
		var nq *domain.NoQuestionsGeneratedError
		if pol.AllowFallback && errors.As(err, &nq) {
			return p.fallback(lg, pol, in, err)
		}
		return nil, false, err
	}
	if a, ok := res.(*domain.CompatibilityAnalysis); ok {
		if overridden {
			observability.RecordQuizOverride()
			lg.Info("quiz performance overridden",
				slog.Int("quiz_percent", in.Quiz.Percent()),
				slog.Int("score", int(a.Score)))
		}
		observability.ObserveAnalysisScore(int(a.Score))
	}
	return res, false, nil
}

func (p *Pipeline) fallback(lg *slog.Logger, pol Policy, in domain.Inputs, cause error) (any, bool, error) {
	observability.RecordFallback(string(pol.ID))
	lg.Warn("returning placeholder result", slog.Any("cause", cause))
	return placeholder(pol.ID, in), true, nil
}

func finalizeText(pol Policy, raw string) (any, bool, error) {
	html, _ := ai.ExtractJSON(raw)
	if html == "" {
		return nil, false, &domain.SchemaValidationError{
			Schema: pol.ID,
			Fields: []domain.FieldViolation{{Field: "$", Rule: "required"}},
		}
	}
	return &domain.SkillsOverview{HTML: html}, false, nil
}

func outcomeOf(err error, fellBack bool) string {
	switch {
	case err == nil && fellBack:
		return OutcomeFallback
	case err == nil:
		return OutcomeOK
	case errors.Is(err, domain.ErrInvalidArgument):
		return OutcomeMissingInput
	case errors.Is(err, domain.ErrUpstream):
		return OutcomeProviderError
	case errors.Is(err, domain.ErrUnparseable):
		return OutcomeUnparseable
	case errors.Is(err, domain.ErrSchemaInvalid):
		return OutcomeSchemaInvalid
	case errors.Is(err, domain.ErrNoQuestions):
		return OutcomeNoQuestions
	}
	return OutcomeError
}
