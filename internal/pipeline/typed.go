package pipeline

import (
	"context"
	"fmt"

	"github.com/fairyhunter13/resume-matcher/internal/domain"
)

func invokeAs[T any](ctx context.Context, p *Pipeline, schema domain.SchemaID, in domain.Inputs) (*T, error) {
	res, err := p.Invoke(ctx, schema, in)
	if err != nil {
		return nil, err
	}
	out, ok := res.(*T)
	if !ok {
		return nil, fmt.Errorf("%w: schema %s produced %T", domain.ErrInternal, schema, res)
	}
	return out, nil
}

// Analyze scores a resume against a job description. quiz is the ground
// truth for the quizPerformance category.
func (p *Pipeline) Analyze(ctx context.Context, resume, jobDescription string, quiz domain.QuizScore) (*domain.CompatibilityAnalysis, error) {
	return invokeAs[domain.CompatibilityAnalysis](ctx, p, domain.SchemaCompatibilityAnalysis,
		domain.Inputs{Resume: resume, JobDescription: jobDescription, Quiz: quiz})
}

// GenerateQuiz writes a multiple-choice quiz for a job description.
func (p *Pipeline) GenerateQuiz(ctx context.Context, jobDescription string) (*domain.QuizQuestionSet, error) {
	return invokeAs[domain.QuizQuestionSet](ctx, p, domain.SchemaQuiz, domain.Inputs{JobDescription: jobDescription})
}

// GenerateInterviewQuestions writes topic-grouped interview questions. It
// returns a placeholder set instead of failing on unusable completions.
func (p *Pipeline) GenerateInterviewQuestions(ctx context.Context, jobDescription, resume string) (*domain.InterviewQuestionSet, error) {
	return invokeAs[domain.InterviewQuestionSet](ctx, p, domain.SchemaInterviewQuestions,
		domain.Inputs{JobDescription: jobDescription, Resume: resume})
}

// GenerateMCQ writes one question about skill.
func (p *Pipeline) GenerateMCQ(ctx context.Context, jobDescription, skill string) (*domain.Question, error) {
	return invokeAs[domain.Question](ctx, p, domain.SchemaMCQSingle,
		domain.Inputs{JobDescription: jobDescription, Skill: skill})
}

// GenerateMCQBatch writes batchSize questions across at most
// MaxSkillsPerBatch skills. A zero batchSize means DefaultBatchSize.
func (p *Pipeline) GenerateMCQBatch(ctx context.Context, jobDescription string, skills []domain.SkillDescriptor, batchSize int) (*domain.MCQBatch, error) {
	return invokeAs[domain.MCQBatch](ctx, p, domain.SchemaMCQBatch,
		domain.Inputs{JobDescription: jobDescription, Skills: skills, BatchSize: batchSize})
}

// ExtractPracticeSkills lists the skills worth practising for a job.
func (p *Pipeline) ExtractPracticeSkills(ctx context.Context, jobDescription string) (*domain.SkillBatch, error) {
	return invokeAs[domain.SkillBatch](ctx, p, domain.SchemaSkillBatch, domain.Inputs{JobDescription: jobDescription})
}

// ExtractKeySkills lists the most important skills of a job.
func (p *Pipeline) ExtractKeySkills(ctx context.Context, jobDescription string) (*domain.KeySkills, error) {
	return invokeAs[domain.KeySkills](ctx, p, domain.SchemaKeySkills, domain.Inputs{JobDescription: jobDescription})
}

// ExtractResumeSkills compares resume skills with a job.
func (p *Pipeline) ExtractResumeSkills(ctx context.Context, resume, jobDescription string) (*domain.ResumeSkills, error) {
	return invokeAs[domain.ResumeSkills](ctx, p, domain.SchemaResumeSkills,
		domain.Inputs{Resume: resume, JobDescription: jobDescription})
}

// SkillsOverview writes an HTML overview of the candidate's skill fit.
func (p *Pipeline) SkillsOverview(ctx context.Context, resume, jobDescription string) (*domain.SkillsOverview, error) {
	return invokeAs[domain.SkillsOverview](ctx, p, domain.SchemaSkillsOverview,
		domain.Inputs{Resume: resume, JobDescription: jobDescription})
}
