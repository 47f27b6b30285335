// Package usecase contains application business logic services.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/fairyhunter13/resume-matcher/internal/adapter/observability"
	"github.com/fairyhunter13/resume-matcher/internal/config"
	"github.com/fairyhunter13/resume-matcher/internal/domain"
)

// Invoker runs one schema of the completion pipeline.
type Invoker interface {
	Invoke(ctx context.Context, schema domain.SchemaID, in domain.Inputs) (any, error)
}

// MatchService is the entry point used by the HTTP API and the CLI. It
// retries retryable provider failures and stamps report identifiers.
type MatchService struct {
	Pipeline Invoker
	Retry    config.RetryConfig
	newID    func() string
}

// NewMatchService constructs a MatchService.
func NewMatchService(p Invoker, retry config.RetryConfig) MatchService {
	return MatchService{Pipeline: p, Retry: retry, newID: uuid.NewString}
}

// Shown when the model leaves an analysis list empty.
const (
	DefaultStrength     = "Your resume shows relevant experience for this role."
	DefaultAreaOfGrowth = "Review the skills analysis for specific areas to develop."
)

// ReadinessCheck represents a single readiness probe result used by handlers.
type ReadinessCheck struct {
	Name    string `json:"name"`
	OK      bool   `json:"ok"`
	Details string `json:"details,omitempty"`
}

func (s MatchService) retryPolicy(ctx context.Context) backoff.BackOff {
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = s.Retry.InitialInterval
	expo.MaxInterval = s.Retry.MaxInterval
	expo.MaxElapsedTime = s.Retry.MaxElapsedTime
	if s.Retry.Multiplier > 0 {
		expo.Multiplier = s.Retry.Multiplier
	}
	retries := s.Retry.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(expo, uint64(retries)), ctx)
}

// Run invokes schema, retrying only provider failures that are retryable.
// Parse and validation failures are returned on the first attempt.
func (s MatchService) Run(ctx context.Context, schema domain.SchemaID, in domain.Inputs) (any, error) {
	lg := observability.LoggerFromContext(ctx)
	var (
		res     any
		lastErr error
		attempt int
	)
	op := func() error {
		attempt++
		r, err := s.Pipeline.Invoke(ctx, schema, in)
		if err == nil {
			res = r
			return nil
		}
		lastErr = err
		var pe *domain.ProviderError
		if errors.As(err, &pe) && pe.Retryable() && ctx.Err() == nil {
			lg.Warn("retryable provider failure",
				slog.String("schema", string(schema)),
				slog.Int("attempt", attempt),
				slog.Int("status", pe.StatusCode))
			return err
		}
		return backoff.Permanent(err)
	}
	if err := backoff.Retry(op, s.retryPolicy(ctx)); err != nil {
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, err
	}
	if a, ok := res.(*domain.CompatibilityAnalysis); ok {
		s.completeAnalysis(a)
	}
	return res, nil
}

func (s MatchService) completeAnalysis(a *domain.CompatibilityAnalysis) {
	if a.ReportID == "" {
		a.ReportID = s.id()
	}
	if len(a.Strengths) == 0 {
		a.Strengths = []string{DefaultStrength}
	}
	if len(a.AreasForGrowth) == 0 {
		a.AreasForGrowth = []string{DefaultAreaOfGrowth}
	}
}

func (s MatchService) id() string {
	if s.newID == nil {
		return uuid.NewString()
	}
	return s.newID()
}

func runAs[T any](ctx context.Context, s MatchService, schema domain.SchemaID, in domain.Inputs) (*T, error) {
	res, err := s.Run(ctx, schema, in)
	if err != nil {
		return nil, err
	}
	out, ok := res.(*T)
	if !ok {
		return nil, fmt.Errorf("%w: schema %s produced %T", domain.ErrInternal, schema, res)
	}
	return out, nil
}

// Analyze produces a compatibility report with a fresh report ID.
func (s MatchService) Analyze(ctx context.Context, resume, jobDescription string, quiz domain.QuizScore) (*domain.CompatibilityAnalysis, error) {
	return runAs[domain.CompatibilityAnalysis](ctx, s, domain.SchemaCompatibilityAnalysis,
		domain.Inputs{Resume: resume, JobDescription: jobDescription, Quiz: quiz})
}

// GenerateQuiz writes a quiz for a job description.
func (s MatchService) GenerateQuiz(ctx context.Context, jobDescription string) (*domain.QuizQuestionSet, error) {
	return runAs[domain.QuizQuestionSet](ctx, s, domain.SchemaQuiz, domain.Inputs{JobDescription: jobDescription})
}

// GenerateInterviewQuestions writes interview questions for a candidate.
func (s MatchService) GenerateInterviewQuestions(ctx context.Context, jobDescription, resume string) (*domain.InterviewQuestionSet, error) {
	return runAs[domain.InterviewQuestionSet](ctx, s, domain.SchemaInterviewQuestions,
		domain.Inputs{JobDescription: jobDescription, Resume: resume})
}

// GenerateMCQ writes one practice question for a skill.
func (s MatchService) GenerateMCQ(ctx context.Context, jobDescription, skill string) (*domain.Question, error) {
	return runAs[domain.Question](ctx, s, domain.SchemaMCQSingle,
		domain.Inputs{JobDescription: jobDescription, Skill: skill})
}

// GenerateMCQBatch writes a batch of practice questions.
func (s MatchService) GenerateMCQBatch(ctx context.Context, jobDescription string, skills []domain.SkillDescriptor, batchSize int) (*domain.MCQBatch, error) {
	return runAs[domain.MCQBatch](ctx, s, domain.SchemaMCQBatch,
		domain.Inputs{JobDescription: jobDescription, Skills: skills, BatchSize: batchSize})
}

// ExtractPracticeSkills lists skills worth practising for a job.
func (s MatchService) ExtractPracticeSkills(ctx context.Context, jobDescription string) (*domain.SkillBatch, error) {
	return runAs[domain.SkillBatch](ctx, s, domain.SchemaSkillBatch, domain.Inputs{JobDescription: jobDescription})
}

// ExtractKeySkills lists the most important skills of a job.
func (s MatchService) ExtractKeySkills(ctx context.Context, jobDescription string) (*domain.KeySkills, error) {
	return runAs[domain.KeySkills](ctx, s, domain.SchemaKeySkills, domain.Inputs{JobDescription: jobDescription})
}

// ExtractResumeSkills compares resume skills with a job.
func (s MatchService) ExtractResumeSkills(ctx context.Context, resume, jobDescription string) (*domain.ResumeSkills, error) {
	return runAs[domain.ResumeSkills](ctx, s, domain.SchemaResumeSkills,
		domain.Inputs{Resume: resume, JobDescription: jobDescription})
}

// SkillsOverview writes an HTML skills overview.
func (s MatchService) SkillsOverview(ctx context.Context, resume, jobDescription string) (*domain.SkillsOverview, error) {
	return runAs[domain.SkillsOverview](ctx, s, domain.SchemaSkillsOverview,
		domain.Inputs{Resume: resume, JobDescription: jobDescription})
}
