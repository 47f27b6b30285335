// Package stub provides a deterministic completion provider for local runs
// and tests. Replies mimic the formatting quirks of real models (code
// fences, surrounding prose) so the parsing stages are exercised end to end.
package stub

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/fairyhunter13/resume-matcher/internal/domain"
)

// Client is a fast, deterministic CompletionProvider.
type Client struct {
	// Latency simulates provider round-trip time. Zero disables it.
	Latency time.Duration
}

// New returns a stub client with no simulated latency.
func New() *Client { return &Client{} }

var quizPercent = regexp.MustCompile(`"quizPerformance": (\d+)`)

// Complete returns a canned completion for the request's schema.
func (c *Client) Complete(ctx domain.Context, req domain.CompletionRequest) (string, error) {
	if c.Latency > 0 {
		t := time.NewTimer(c.Latency)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return "", &domain.ProviderError{Err: ctx.Err()}
		case <-t.C:
		}
	} else if err := ctx.Err(); err != nil {
		return "", &domain.ProviderError{Err: err}
	}

	switch req.Schema {
	case domain.SchemaCompatibilityAnalysis:
		quiz := 70
		if m := quizPercent.FindStringSubmatch(req.Prompt); m != nil {
			quiz, _ = strconv.Atoi(m[1])
		}
		return fmt.Sprintf(analysisReply, quiz), nil
	case domain.SchemaQuiz:
		return "Here is the quiz you asked for:\n```json\n" + quizReply + "\n```", nil
	case domain.SchemaInterviewQuestions:
		return "```json\n" + interviewReply + "\n```", nil
	case domain.SchemaMCQSingle:
		return mcqSingleReply, nil
	case domain.SchemaMCQBatch:
		return "```\n" + mcqBatchReply + "\n```", nil
	case domain.SchemaSkillBatch:
		return skillBatchReply, nil
	case domain.SchemaKeySkills:
		return "The key skills are: " + keySkillsReply, nil
	case domain.SchemaResumeSkills:
		return resumeSkillsReply, nil
	case domain.SchemaSkillsOverview:
		return "```html\n" + overviewReply + "\n```", nil
	}
	return "", &domain.ProviderError{StatusCode: 400, Body: fmt.Sprintf("stub: unknown schema %q", req.Schema)}
}

// Ping always succeeds.
func (c *Client) Ping(context.Context) error { return nil }

const analysisReply = `{
  "summary": "<p>Solid backend profile with a good match on the core stack.</p>",
  "analysis": "<h2>Analysis</h2><p>Strong Go and PostgreSQL experience; limited Kubernetes exposure.</p>",
  "recommendations": "<ul><li>Deploy a service to a managed Kubernetes cluster.</li></ul>",
  "learningResources": "<h2>Resources</h2><ul><li>Kubernetes documentation tutorials</li></ul>",
  "learningRoadmap": "<h3>Phase 1: Foundations (2-3 weeks)</h3><p>Pods, deployments and services.</p>",
  "skillsMatchPercentage": 72,
  "score": 72,
  "categoryScores": {
    "technicalSkills": 75,
    "experience": 70,
    "education": 70,
    "quizPerformance": %d,
    "careerTrajectory": 75
  },
  "skillsAnalysis": [
    {"skill": "Go", "relevance": 95, "match": 85, "gap": 10},
    {"skill": "PostgreSQL", "relevance": 80, "match": 80, "gap": 0},
    {"skill": "Kubernetes", "relevance": 75, "match": 40, "gap": 35}
  ],
  "strengths": ["Production Go services", "Relational data modelling"],
  "areasForGrowth": ["Container orchestration"]
}`

const quizReply = `[
  {
    "question": "A service leaks goroutines under load. Which tool shows where they are blocked?",
    "options": ["go vet", "pprof goroutine profile", "gofmt", "go mod tidy"],
    "correctAnswer": 1,
    "explanation": "The goroutine profile lists every goroutine with its stack.",
    "difficulty": "intermediate",
    "category": "Go"
  },
  {
    "question": "A query filters on (tenant_id, created_at). Which index serves it best?",
    "options": ["created_at only", "tenant_id only", "(tenant_id, created_at)", "(created_at, tenant_id)"],
    "correctAnswer": 2,
    "explanation": "Equality column first, then the range column.",
    "difficulty": "advanced",
    "category": "PostgreSQL"
  }
]`

const interviewReply = `[
  {
    "topicName": "Go Services",
    "questions": [
      {
        "question": "How do you shut down an HTTP server without dropping requests?",
        "type": "Technical",
        "difficulty": "Intermediate",
        "sampleAnswer": "Stop accepting connections, then call Shutdown with a deadline so in-flight requests finish.",
        "tips": "Mention signal handling."
      }
    ]
  },
  {
    "topicName": "Collaboration",
    "questions": [
      {
        "question": "Tell me about a design you changed after review feedback.",
        "type": "Behavioral",
        "difficulty": "Basic",
        "Answer": "I split a large migration into reversible steps after a reviewer flagged the rollback risk."
      }
    ]
  }
]`

const mcqSingleReply = `{
  "question": "Which Kubernetes probe failure causes a container restart?",
  "options": ["readiness", "liveness", "startup success", "none of them"],
  "correctAnswer": 1,
  "explanation": "Failed liveness probes make the kubelet restart the container.",
  "difficulty": "easy"
}`

const mcqBatchReply = `[
  {
    "question": "What does context cancellation propagate to?",
    "options": ["Parent contexts", "Derived contexts", "All goroutines", "Nothing"],
    "correctAnswer": 1,
    "explanation": "Cancelling a context cancels every context derived from it.",
    "difficulty": "intermediate",
    "skill": "Go",
  },
]`

const skillBatchReply = `[
  {"skill": "Go", "category": "Programming Languages", "importance": "Critical"},
  {"skill": "PostgreSQL", "category": "Databases", "importance": "important"},
  {"skill": "Kubernetes", "category": "Cloud", "importance": "important"},
  {"skill": "Technical writing", "category": "Soft Skills", "importance": "beneficial"}
]`

const keySkillsReply = `["Go", "PostgreSQL", "Kubernetes", "Distributed systems"]`

const resumeSkillsReply = `{
  "skills": ["Go", "PostgreSQL", "Kafka"],
  "matchAnalysis": {
    "Go": {"level": 4, "relevance": "Six years building Go services."},
    "Kubernetes": {"level": 1, "relevance": "No direct experience listed."}
  },
  "missingSkills": ["Kubernetes"]
}`

const overviewReply = `<h2>Skills Overview</h2>
<p>The candidate covers the core backend stack and needs deeper orchestration experience.</p>
<h3>Strengths</h3><ul><li>Go</li><li>PostgreSQL</li></ul>
<h3>Skill gaps</h3><ul><li>Kubernetes</li></ul>`
