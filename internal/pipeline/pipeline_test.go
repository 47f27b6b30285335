package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/resume-matcher/internal/domain"
)

const (
	testResume = "Backend engineer, 6 years of Go, PostgreSQL and Kafka."
	testJD     = "Senior Go engineer. Must know Kubernetes, PostgreSQL and distributed systems."
)

type scriptedProvider struct {
	mu      sync.Mutex
	replies map[domain.SchemaID]string
	err     error
	calls   []domain.CompletionRequest
}

func reply(schema domain.SchemaID, text string) *scriptedProvider {
	return &scriptedProvider{replies: map[domain.SchemaID]string{schema: text}}
}

func (s *scriptedProvider) Complete(_ domain.Context, req domain.CompletionRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, req)
	if s.err != nil {
		return "", s.err
	}
	return s.replies[req.Schema], nil
}

func (s *scriptedProvider) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func newTestPipeline(t *testing.T, prov domain.CompletionProvider) *Pipeline {
	t.Helper()
	p, err := New(prov, WithProviderName("scripted"))
	require.NoError(t, err)
	return p
}

func quizItem(q string, options ...string) string {
	quoted := make([]string, len(options))
	for i, o := range options {
		quoted[i] = fmt.Sprintf("%q", o)
	}
	return fmt.Sprintf(`{"question": %q, "options": [%s], "correctAnswer": 1, "explanation": "because", "difficulty": "intermediate", "category": "Go"}`,
		q, strings.Join(quoted, ", "))
}

func TestNew_NilProvider(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestInvoke_FencedValidJSONNeedsNoRepair(t *testing.T) {
	raw := "Here is your quiz:\n```json\n[" + quizItem("What does a nil map read return?", "panic", "zero value", "error", "nil pointer") + "]\n```\nGood luck!"
	p := newTestPipeline(t, reply(domain.SchemaQuiz, raw))

	set, err := p.GenerateQuiz(context.Background(), testJD)
	require.NoError(t, err)
	require.Len(t, set.Questions, 1)
	q := set.Questions[0]
	assert.Equal(t, "What does a nil map read return?", q.Question)
	assert.Equal(t, []string{"panic", "zero value", "error", "nil pointer"}, q.Options)
	assert.Equal(t, 1, q.CorrectAnswer)
	assert.Equal(t, domain.QuestionTypeSingleChoice, q.QuestionType)

	pr, err := parseCompletion(mustPolicy(t, p, domain.SchemaQuiz), raw)
	require.NoError(t, err)
	assert.Empty(t, pr.repairs)
	assert.False(t, pr.balanced)
}

func TestInvoke_RepairsInterviewPayload(t *testing.T) {
	raw := "Here are your questions:\n```json\n[\n  {\n    \"topicName\": \"Go Concurrency\",\n    \"questions\": [\n      {\n" +
		"        \"question\": \"What does the \"select\" statement do?\",\n" +
		"        \"type\": \"Technical\",\n" +
		"        \"difficulty\": \"Intermediate\",\n" +
		"        \"Answer\": \"It waits on several channel operations.\nIt runs the first one that is ready.\",\n" +
		"        \"tips\": \"Mention the default case\",\n" +
		"      },\n    ]\n  },\n]\n```\n"
	p := newTestPipeline(t, reply(domain.SchemaInterviewQuestions, raw))

	set, err := p.GenerateInterviewQuestions(context.Background(), testJD, testResume)
	require.NoError(t, err)
	assert.False(t, set.Placeholder)
	require.Len(t, set.Topics, 1)
	require.Len(t, set.Questions, 1)
	q := set.Questions[0]
	assert.Equal(t, `What does the "select" statement do?`, q.Question)
	assert.Equal(t, "It waits on several channel operations.\nIt runs the first one that is ready.", q.SampleAnswer)
	assert.Equal(t, "topic-0-question-0", q.ID)
	assert.Equal(t, "Go Concurrency", q.TopicName)

	pr, err := parseCompletion(mustPolicy(t, p, domain.SchemaInterviewQuestions), raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"trailing_commas", "interior_quotes", "raw_newlines"}, pr.repairs)
}

func TestInvoke_InterviewIDsFollowTopicOrder(t *testing.T) {
	raw := `[
	  {"topicName": "A", "questions": [
	    {"question": "a0", "type": "Technical", "difficulty": "Basic", "sampleAnswer": "x"},
	    {"question": "a1", "type": "Behavioral", "difficulty": "Advanced", "sampleAnswer": "y"}
	  ]},
	  {"topicName": "B", "questions": [
	    {"question": "b0", "type": "Situational", "difficulty": "intermediate", "sampleAnswer": "z"}
	  ]}
	]`
	p := newTestPipeline(t, reply(domain.SchemaInterviewQuestions, raw))

	set, err := p.GenerateInterviewQuestions(context.Background(), testJD, testResume)
	require.NoError(t, err)
	ids := make([]string, 0, len(set.Questions))
	for _, q := range set.Questions {
		ids = append(ids, q.ID+"/"+q.TopicName)
	}
	assert.Equal(t, []string{"topic-0-question-0/A", "topic-0-question-1/A", "topic-1-question-0/B"}, ids)
}

func TestInvoke_UnparseableFallsBackOrFails(t *testing.T) {
	const garbage = "I'm sorry, I can't help with generating that content right now."

	t.Run("interview placeholder", func(t *testing.T) {
		p := newTestPipeline(t, reply(domain.SchemaInterviewQuestions, garbage))
		set, err := p.GenerateInterviewQuestions(context.Background(), testJD, testResume)
		require.NoError(t, err)
		assert.True(t, set.Placeholder)
		require.Len(t, set.Questions, 1)
		q := set.Questions[0]
		assert.Equal(t, PlaceholderTopic, q.TopicName)
		assert.Equal(t, PlaceholderInterviewText, q.Question)
		assert.Equal(t, "Technical", q.Type)
		assert.Equal(t, "Intermediate", q.Difficulty)
		assert.Equal(t, PlaceholderSampleAnswer, q.SampleAnswer)
	})

	t.Run("mcq batch placeholder", func(t *testing.T) {
		p := newTestPipeline(t, reply(domain.SchemaMCQBatch, garbage))
		batch, err := p.GenerateMCQBatch(context.Background(), testJD, []domain.SkillDescriptor{{Skill: "Kubernetes"}}, 0)
		require.NoError(t, err)
		assert.True(t, batch.Placeholder)
		require.Len(t, batch.Questions, 1)
		assert.Len(t, batch.Questions[0].Options, 4)
		assert.Equal(t, "Kubernetes", batch.Questions[0].Skill)
	})

	t.Run("quiz fails", func(t *testing.T) {
		p := newTestPipeline(t, reply(domain.SchemaQuiz, garbage))
		_, err := p.GenerateQuiz(context.Background(), testJD)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrUnparseable)
		var upe *domain.UnrecoverableParseError
		require.ErrorAs(t, err, &upe)
		assert.Equal(t, garbage, upe.OriginalText)
		assert.Equal(t, domain.SchemaQuiz, upe.Schema)
		assert.NotEmpty(t, upe.LastAttemptedText)
	})
}

func TestInvoke_EmptyArray(t *testing.T) {
	t.Run("quiz", func(t *testing.T) {
		p := newTestPipeline(t, reply(domain.SchemaQuiz, "[]"))
		_, err := p.GenerateQuiz(context.Background(), testJD)
		assert.ErrorIs(t, err, domain.ErrNoQuestions)
	})
	t.Run("key skills", func(t *testing.T) {
		p := newTestPipeline(t, reply(domain.SchemaKeySkills, "```json\n[]\n```"))
		_, err := p.ExtractKeySkills(context.Background(), testJD)
		assert.ErrorIs(t, err, domain.ErrNoQuestions)
	})
	t.Run("interview falls back", func(t *testing.T) {
		p := newTestPipeline(t, reply(domain.SchemaInterviewQuestions, "[]"))
		set, err := p.GenerateInterviewQuestions(context.Background(), testJD, testResume)
		require.NoError(t, err)
		assert.True(t, set.Placeholder)
	})
}

func TestInvoke_QuizOverride(t *testing.T) {
	analysis := func(quizPerf, score int) string {
		return fmt.Sprintf(`{
		  "score": %d,
		  "categoryScores": {"technicalSkills": 65, "experience": 70, "education": 80, "quizPerformance": %d, "careerTrajectory": 75},
		  "skillsAnalysis": [{"skill": "Go", "relevance": 90, "match": 80, "gap": 10}],
		  "strengths": ["Go"],
		  "areasForGrowth": ["Kubernetes"],
		  "summary": "<p>ok</p>"
		}`, score, quizPerf)
	}

	t.Run("drift beyond tolerance is overwritten", func(t *testing.T) {
		p := newTestPipeline(t, reply(domain.SchemaCompatibilityAnalysis, analysis(0, 60)))
		a, err := p.Analyze(context.Background(), testResume, testJD, domain.QuizScore{Correct: 8, Total: 10})
		require.NoError(t, err)
		assert.Equal(t, domain.Percent(80), a.CategoryScores.QuizPerformance)
		// 0.35*65 + 0.25*70 + 0.15*80 + 0.15*80 + 0.10*75 = 71.75
		assert.Equal(t, domain.Percent(72), a.Score)
		assert.True(t, a.QuizOverridden)
	})

	t.Run("drift within tolerance is kept", func(t *testing.T) {
		p := newTestPipeline(t, reply(domain.SchemaCompatibilityAnalysis, analysis(75, 70)))
		a, err := p.Analyze(context.Background(), testResume, testJD, domain.QuizScore{Correct: 8, Total: 10})
		require.NoError(t, err)
		assert.Equal(t, domain.Percent(75), a.CategoryScores.QuizPerformance)
		assert.Equal(t, domain.Percent(70), a.Score)
		assert.False(t, a.QuizOverridden)
	})

	t.Run("out of range model value is replaced", func(t *testing.T) {
		p := newTestPipeline(t, reply(domain.SchemaCompatibilityAnalysis, analysis(450, 70)))
		a, err := p.Analyze(context.Background(), testResume, testJD, domain.QuizScore{Correct: 3, Total: 10})
		require.NoError(t, err)
		assert.Equal(t, domain.Percent(30), a.CategoryScores.QuizPerformance)
	})

	t.Run("prompt carries the ground truth", func(t *testing.T) {
		prov := reply(domain.SchemaCompatibilityAnalysis, analysis(80, 72))
		p := newTestPipeline(t, prov)
		_, err := p.Analyze(context.Background(), testResume, testJD, domain.QuizScore{Correct: 8, Total: 10})
		require.NoError(t, err)
		require.Equal(t, 1, prov.callCount())
		assert.Contains(t, prov.calls[0].Prompt, "scored 8/10")
		assert.Contains(t, prov.calls[0].Prompt, `"quizPerformance": 80`)
	})
}

func TestInvoke_AnalysisSchemaViolations(t *testing.T) {
	raw := `{
	  "score": 70,
	  "categoryScores": {"technicalSkills": 65, "experience": 70, "quizPerformance": 80, "careerTrajectory": 75, "bonus": 5},
	  "skillsAnalysis": [{"skill": "Go", "relevance": 90, "match": 80}],
	  "strengths": [],
	  "areasForGrowth": []
	}`
	p := newTestPipeline(t, reply(domain.SchemaCompatibilityAnalysis, raw))

	_, err := p.Analyze(context.Background(), testResume, testJD, domain.QuizScore{Correct: 8, Total: 10})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSchemaInvalid)
	var sve *domain.SchemaValidationError
	require.ErrorAs(t, err, &sve)
	assert.ElementsMatch(t, []string{
		"categoryScores.education",
		"skillsAnalysis[0].gap",
		"categoryScores.bonus",
	}, sve.FieldNames())
}

func TestInvoke_AnalysisRangeViolation(t *testing.T) {
	raw := `{"score": 70,
	  "categoryScores": {"technicalSkills": 165, "experience": 70, "education": 80, "quizPerformance": 80, "careerTrajectory": 75},
	  "skillsAnalysis": [], "strengths": ["a"], "areasForGrowth": ["b"]}`
	p := newTestPipeline(t, reply(domain.SchemaCompatibilityAnalysis, raw))

	_, err := p.Analyze(context.Background(), testResume, testJD, domain.QuizScore{Correct: 8, Total: 10})
	var sve *domain.SchemaValidationError
	require.ErrorAs(t, err, &sve)
	assert.Equal(t, []domain.FieldViolation{{Field: "categoryScores.technicalSkills", Rule: "max"}}, sve.Fields)
}

func TestInvoke_AnalysisStringScores(t *testing.T) {
	raw := `{"score": "70%",
	  "categoryScores": {"technicalSkills": 65.4, "experience": "70", "education": 80, "quizPerformance": 80, "careerTrajectory": 75},
	  "skillsAnalysis": [], "strengths": [], "areasForGrowth": []}`
	p := newTestPipeline(t, reply(domain.SchemaCompatibilityAnalysis, raw))

	a, err := p.Analyze(context.Background(), testResume, testJD, domain.QuizScore{Correct: 8, Total: 10})
	require.NoError(t, err)
	assert.Equal(t, domain.Percent(70), a.Score)
	assert.Equal(t, domain.Percent(65), a.CategoryScores.TechnicalSkills)
	assert.Empty(t, a.Strengths)
	assert.Empty(t, a.AreasForGrowth)
}

func TestInvoke_OptionCountBoundary(t *testing.T) {
	t.Run("three options rejected", func(t *testing.T) {
		raw := "[" + quizItem("q1", "a", "b", "c", "d") + "," + quizItem("q2", "a", "b", "c") + "]"
		p := newTestPipeline(t, reply(domain.SchemaQuiz, raw))
		_, err := p.GenerateQuiz(context.Background(), testJD)
		var sve *domain.SchemaValidationError
		require.ErrorAs(t, err, &sve)
		assert.Equal(t, []domain.FieldViolation{{Field: "[1].options", Rule: "len"}}, sve.Fields)
	})
	t.Run("four options accepted", func(t *testing.T) {
		raw := "[" + quizItem("q1", "a", "b", "c", "d") + "]"
		p := newTestPipeline(t, reply(domain.SchemaQuiz, raw))
		_, err := p.GenerateQuiz(context.Background(), testJD)
		assert.NoError(t, err)
	})
}

func TestInvoke_QuizMissingFieldsReportedTogether(t *testing.T) {
	raw := `[{"question": "q", "options": ["a","b","c","d"], "correctAnswer": 7, "difficulty": "legendary"}]`
	p := newTestPipeline(t, reply(domain.SchemaQuiz, raw))

	_, err := p.GenerateQuiz(context.Background(), testJD)
	var sve *domain.SchemaValidationError
	require.ErrorAs(t, err, &sve)
	assert.ElementsMatch(t, []string{"[0].explanation", "[0].category"}, sve.FieldNames())
}

func TestInvoke_QuestionRulesAfterRequiredFields(t *testing.T) {
	raw := `[{"question": "q", "options": ["a","b","c","d"], "correctAnswer": 7, "explanation": "e", "difficulty": "legendary", "category": "c"}]`
	p := newTestPipeline(t, reply(domain.SchemaQuiz, raw))

	_, err := p.GenerateQuiz(context.Background(), testJD)
	var sve *domain.SchemaValidationError
	require.ErrorAs(t, err, &sve)
	assert.ElementsMatch(t, []domain.FieldViolation{
		{Field: "[0].correctAnswer", Rule: "max"},
		{Field: "[0].difficulty", Rule: "difficulty"},
	}, sve.Fields)
}

func TestInvoke_KeySkillsInsideProse(t *testing.T) {
	raw := `Sure! The key skills are ["Go", "Kubernetes", "PostgreSQL"]. Let me know if you need more.`
	p := newTestPipeline(t, reply(domain.SchemaKeySkills, raw))

	ks, err := p.ExtractKeySkills(context.Background(), testJD)
	require.NoError(t, err)
	assert.Equal(t, []string{"Go", "Kubernetes", "PostgreSQL"}, ks.Skills)

	pr, err := parseCompletion(mustPolicy(t, p, domain.SchemaKeySkills), raw)
	require.NoError(t, err)
	assert.True(t, pr.balanced)
}

func TestInvoke_KeySkillsRejectsNonStrings(t *testing.T) {
	p := newTestPipeline(t, reply(domain.SchemaKeySkills, `["Go", 3, ""]`))
	_, err := p.ExtractKeySkills(context.Background(), testJD)
	var sve *domain.SchemaValidationError
	require.ErrorAs(t, err, &sve)
	assert.Equal(t, []domain.FieldViolation{{Field: "[1]", Rule: "string"}, {Field: "[2]", Rule: "required"}}, sve.Fields)
}

func TestInvoke_SkillBatchNormalizesImportance(t *testing.T) {
	raw := `{"skills": [
	  {"skill": "Go", "category": "Languages", "importance": "Critical"},
	  {"skill": "SQL", "category": "Databases", "importance": " important "},
	  {"skill": "Rust", "category": "Languages", "importance": "beneficial"}
	]}`
	p := newTestPipeline(t, reply(domain.SchemaSkillBatch, raw))

	batch, err := p.ExtractPracticeSkills(context.Background(), testJD)
	require.NoError(t, err)
	require.Len(t, batch.Skills, 3)
	assert.Equal(t, domain.ImportanceCritical, batch.Skills[0].Importance)
	assert.Equal(t, domain.ImportanceImportant, batch.Skills[1].Importance)
	assert.Len(t, batch.ByCategory["Languages"], 2)
	assert.Len(t, batch.ByCategory["Databases"], 1)
}

func TestInvoke_SkillBatchRejectsUnknownImportance(t *testing.T) {
	raw := `[{"skill": "Go", "category": "Languages", "importance": "nice to have"}]`
	p := newTestPipeline(t, reply(domain.SchemaSkillBatch, raw))

	_, err := p.ExtractPracticeSkills(context.Background(), testJD)
	var sve *domain.SchemaValidationError
	require.ErrorAs(t, err, &sve)
	assert.Equal(t, []domain.FieldViolation{{Field: "[0].importance", Rule: "oneof"}}, sve.Fields)
}

func TestInvoke_MCQSingle(t *testing.T) {
	raw := `[{"question": "Which probe restarts a pod?", "options": ["liveness", "readiness", "startup", "none"], "correctAnswer": 0, "explanation": "Liveness failures restart the container.", "difficulty": "Easy"}]`
	p := newTestPipeline(t, reply(domain.SchemaMCQSingle, raw))

	q, err := p.GenerateMCQ(context.Background(), testJD, "Kubernetes")
	require.NoError(t, err)
	assert.Equal(t, "Kubernetes", q.Skill)
	assert.Equal(t, domain.QuestionTypeSingleChoice, q.QuestionType)
	assert.Equal(t, 0, q.CorrectAnswer)
}

func TestInvoke_ResumeSkills(t *testing.T) {
	raw := "```json\n{\"skills\": [\"Go\", \"PostgreSQL\"], \"matchAnalysis\": {\"Go\": {\"level\": 4, \"relevance\": \"core\"}, \"Kubernetes\": {\"level\": 9, \"relevance\": \"x\"}}, \"missingSkills\": [\"Kubernetes\"]}\n```"
	p := newTestPipeline(t, reply(domain.SchemaResumeSkills, raw))

	_, err := p.ExtractResumeSkills(context.Background(), testResume, testJD)
	var sve *domain.SchemaValidationError
	require.ErrorAs(t, err, &sve)
	assert.Equal(t, []domain.FieldViolation{{Field: "matchAnalysis[Kubernetes].level", Rule: "max"}}, sve.Fields)
}

func TestInvoke_SkillsOverviewStripsFence(t *testing.T) {
	p := newTestPipeline(t, reply(domain.SchemaSkillsOverview, "```html\n<h2>Overview</h2><p>Strong Go.</p>\n```"))

	ov, err := p.SkillsOverview(context.Background(), testResume, testJD)
	require.NoError(t, err)
	assert.Equal(t, "<h2>Overview</h2><p>Strong Go.</p>", ov.HTML)
}

func TestInvoke_SkillsOverviewEmpty(t *testing.T) {
	p := newTestPipeline(t, reply(domain.SchemaSkillsOverview, "  \n"))
	_, err := p.SkillsOverview(context.Background(), testResume, testJD)
	assert.ErrorIs(t, err, domain.ErrSchemaInvalid)
}

func TestInvoke_MissingInputSkipsProvider(t *testing.T) {
	prov := &scriptedProvider{replies: map[domain.SchemaID]string{}}
	p := newTestPipeline(t, prov)

	_, err := p.Analyze(context.Background(), "  ", testJD, domain.QuizScore{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	var mie *domain.MissingInputError
	require.ErrorAs(t, err, &mie)
	assert.Equal(t, []string{"resume"}, mie.Fields)
	assert.Zero(t, prov.callCount())
}

func TestInvoke_UnknownSchema(t *testing.T) {
	p := newTestPipeline(t, &scriptedProvider{})
	_, err := p.Invoke(context.Background(), domain.SchemaID("poem"), domain.Inputs{JobDescription: testJD})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestInvoke_ProviderErrorsPropagate(t *testing.T) {
	t.Run("rate limit", func(t *testing.T) {
		prov := &scriptedProvider{err: &domain.ProviderError{StatusCode: 429, Body: "slow down"}}
		p := newTestPipeline(t, prov)
		_, err := p.GenerateInterviewQuestions(context.Background(), testJD, testResume)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrUpstreamRateLimit)
		assert.ErrorIs(t, err, domain.ErrUpstream)
	})
	t.Run("plain error wrapped", func(t *testing.T) {
		cause := errors.New("connection reset")
		prov := &scriptedProvider{err: cause}
		p := newTestPipeline(t, prov)
		_, err := p.GenerateQuiz(context.Background(), testJD)
		assert.ErrorIs(t, err, domain.ErrUpstream)
		assert.ErrorIs(t, err, cause)
	})
}

func TestInvoke_RequestUsesPolicy(t *testing.T) {
	for _, id := range domain.AllSchemas {
		t.Run(string(id), func(t *testing.T) {
			prov := &scriptedProvider{err: errors.New("stop")}
			p := newTestPipeline(t, prov)
			in := domain.Inputs{
				Resume:         testResume,
				JobDescription: testJD,
				Skill:          "Go",
				Skills:         []domain.SkillDescriptor{{Skill: "Go"}},
			}
			_, _ = p.Invoke(context.Background(), id, in)
			require.Equal(t, 1, prov.callCount())
			pol := mustPolicy(t, p, id)
			req := prov.calls[0]
			assert.Equal(t, id, req.Schema)
			assert.Equal(t, pol.Temperature, req.Temperature)
			assert.Equal(t, pol.MaxTokens, req.MaxTokens)
			assert.NotEmpty(t, req.SystemInstruction)
			assert.NotEmpty(t, req.Prompt)
		})
	}
}

func TestInvoke_ConcurrentSchemas(t *testing.T) {
	prov := &scriptedProvider{replies: map[domain.SchemaID]string{
		domain.SchemaKeySkills: `["Go"]`,
		domain.SchemaQuiz:      "[" + quizItem("q", "a", "b", "c", "d") + "]",
	}}
	p := newTestPipeline(t, prov)

	var wg sync.WaitGroup
	errs := make(chan error, 40)
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := p.ExtractKeySkills(context.Background(), testJD)
			errs <- err
		}()
		go func() {
			defer wg.Done()
			_, err := p.GenerateQuiz(context.Background(), testJD)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, 40, prov.callCount())
}

func mustPolicy(t *testing.T, p *Pipeline, id domain.SchemaID) Policy {
	t.Helper()
	pol, err := p.Registry().Policy(id)
	require.NoError(t, err)
	return pol
}
