package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/fairyhunter13/resume-matcher/internal/config"
	"github.com/fairyhunter13/resume-matcher/internal/domain"
	"github.com/fairyhunter13/resume-matcher/internal/usecase"
)

// Server aggregates handlers dependencies.
type Server struct {
	Cfg           config.Config
	Match         usecase.MatchService
	ProviderCheck func(ctx context.Context) error
}

// NewServer constructs an HTTP server with all handlers and checks wired.
func NewServer(cfg config.Config, match usecase.MatchService, providerCheck func(context.Context) error) *Server {
	return &Server{Cfg: cfg, Match: match, ProviderCheck: providerCheck}
}

type quizScoreBody struct {
	Correct int `json:"correct" validate:"min=0,max=1000"`
	Total   int `json:"total" validate:"min=0,max=1000"`
}

type analysisRequest struct {
	Resume         string        `json:"resume"`
	JobDescription string        `json:"jobDescription"`
	Quiz           quizScoreBody `json:"quiz"`
}

type jobRequest struct {
	JobDescription string `json:"jobDescription"`
}

type resumeJobRequest struct {
	Resume         string `json:"resume"`
	JobDescription string `json:"jobDescription"`
}

type mcqRequest struct {
	JobDescription string `json:"jobDescription"`
	Skill          string `json:"skill" validate:"max=200"`
}

type mcqBatchRequest struct {
	JobDescription string                   `json:"jobDescription"`
	Skills         []domain.SkillDescriptor `json:"skills" validate:"max=50,dive"`
	BatchSize      int                      `json:"batchSize" validate:"min=0,max=20"`
}

// serve decodes a request body, enforces the input cap on the fields named by
// texts and writes the result of run as JSON.
func serve[Req any, Res any](s *Server, texts func(*Req) map[string]string, run func(context.Context, *Req) (Res, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req Req
		if !decodeRequest(w, r, &req) {
			return
		}
		if !checkInputLength(w, r, s.Cfg.MaxInputChars, texts(&req)) {
			return
		}
		res, err := run(r.Context(), &req)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// AnalysisHandler scores a resume against a job description.
func (s *Server) AnalysisHandler() http.HandlerFunc {
	return serve(s,
		func(req *analysisRequest) map[string]string {
			return map[string]string{"resume": req.Resume, "jobDescription": req.JobDescription}
		},
		func(ctx context.Context, req *analysisRequest) (*domain.CompatibilityAnalysis, error) {
			quiz := domain.QuizScore{Correct: req.Quiz.Correct, Total: req.Quiz.Total}
			return s.Match.Analyze(ctx, clean(req.Resume), clean(req.JobDescription), quiz)
		})
}

// QuizHandler generates a quiz for a job description.
func (s *Server) QuizHandler() http.HandlerFunc {
	return serve(s, jobTexts, func(ctx context.Context, req *jobRequest) (*domain.QuizQuestionSet, error) {
		return s.Match.GenerateQuiz(ctx, clean(req.JobDescription))
	})
}

// InterviewQuestionsHandler generates topic-grouped interview questions.
func (s *Server) InterviewQuestionsHandler() http.HandlerFunc {
	return serve(s, resumeJobTexts, func(ctx context.Context, req *resumeJobRequest) (*domain.InterviewQuestionSet, error) {
		return s.Match.GenerateInterviewQuestions(ctx, clean(req.JobDescription), clean(req.Resume))
	})
}

// MCQHandler generates one question for a skill.
func (s *Server) MCQHandler() http.HandlerFunc {
	return serve(s,
		func(req *mcqRequest) map[string]string { return map[string]string{"jobDescription": req.JobDescription} },
		func(ctx context.Context, req *mcqRequest) (*domain.Question, error) {
			return s.Match.GenerateMCQ(ctx, clean(req.JobDescription), clean(req.Skill))
		})
}

// MCQBatchHandler generates a batch of practice questions.
func (s *Server) MCQBatchHandler() http.HandlerFunc {
	return serve(s,
		func(req *mcqBatchRequest) map[string]string { return map[string]string{"jobDescription": req.JobDescription} },
		func(ctx context.Context, req *mcqBatchRequest) (*domain.MCQBatch, error) {
			skills := make([]domain.SkillDescriptor, 0, len(req.Skills))
			for _, sk := range req.Skills {
				skills = append(skills, domain.SkillDescriptor{
					Skill:      clean(sk.Skill),
					Category:   clean(sk.Category),
					Importance: clean(sk.Importance),
				})
			}
			return s.Match.GenerateMCQBatch(ctx, clean(req.JobDescription), skills, req.BatchSize)
		})
}

// SkillBatchHandler extracts practice skills grouped by category.
func (s *Server) SkillBatchHandler() http.HandlerFunc {
	return serve(s, jobTexts, func(ctx context.Context, req *jobRequest) (*domain.SkillBatch, error) {
		return s.Match.ExtractPracticeSkills(ctx, clean(req.JobDescription))
	})
}

// KeySkillsHandler extracts the most important skills of a job.
func (s *Server) KeySkillsHandler() http.HandlerFunc {
	return serve(s, jobTexts, func(ctx context.Context, req *jobRequest) (*domain.KeySkills, error) {
		return s.Match.ExtractKeySkills(ctx, clean(req.JobDescription))
	})
}

// ResumeSkillsHandler compares resume skills with a job.
func (s *Server) ResumeSkillsHandler() http.HandlerFunc {
	return serve(s, resumeJobTexts, func(ctx context.Context, req *resumeJobRequest) (*domain.ResumeSkills, error) {
		return s.Match.ExtractResumeSkills(ctx, clean(req.Resume), clean(req.JobDescription))
	})
}

// SkillsOverviewHandler writes an HTML skills overview.
func (s *Server) SkillsOverviewHandler() http.HandlerFunc {
	return serve(s, resumeJobTexts, func(ctx context.Context, req *resumeJobRequest) (*domain.SkillsOverview, error) {
		return s.Match.SkillsOverview(ctx, clean(req.Resume), clean(req.JobDescription))
	})
}

func jobTexts(req *jobRequest) map[string]string {
	return map[string]string{"jobDescription": req.JobDescription}
}

func resumeJobTexts(req *resumeJobRequest) map[string]string {
	return map[string]string{"resume": req.Resume, "jobDescription": req.JobDescription}
}

// HealthzHandler reports liveness.
func (s *Server) HealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// ReadyzHandler probes the completion provider.
func (s *Server) ReadyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		checks := make([]usecase.ReadinessCheck, 0, 1)
		if s.ProviderCheck != nil {
			if err := s.ProviderCheck(ctx); err != nil {
				checks = append(checks, usecase.ReadinessCheck{Name: "provider", OK: false, Details: err.Error()})
			} else {
				checks = append(checks, usecase.ReadinessCheck{Name: "provider", OK: true})
			}
		}
		st := http.StatusOK
		for _, c := range checks {
			if !c.OK {
				st = http.StatusServiceUnavailable
				break
			}
		}
		writeJSON(w, st, map[string]any{"checks": checks})
	}
}
