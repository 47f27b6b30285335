package pipeline

import (
	"fmt"
	"strings"

	"github.com/fairyhunter13/resume-matcher/internal/domain"
)

// Batch question generation limits.
const (
	DefaultBatchSize  = 10
	MaxSkillsPerBatch = 5
)

// formatRules is appended to every JSON schema prompt. Models that follow it
// produce output that never reaches the repair stage.
const formatRules = `

FORMATTING RULES:
- Return ONLY the JSON described above. No markdown code fences, no commentary.
- Use double quotes for every key and string value.
- Escape double quotes inside strings as \" and backslashes as \\.
- Write line breaks inside strings as \n, never as raw newlines.
- Do not leave trailing commas after the last element of an object or array.`

const analysisSystem = `You are an expert technical recruiter and career coach. You compare a candidate's resume with a job description and produce an honest, evidence-based compatibility report with a concrete learning plan for every gap.`

const analysisTemplate = `Compare the resume with the job description.

RESUME:
%s

JOB DESCRIPTION:
%s

The candidate scored %d/10 on the technical quiz for this job. Use exactly %d for categoryScores.quizPerformance.

Score each category from 0 to 100. The overall score is the weighted sum:
technicalSkills 35%%, experience 25%%, education 15%%, quizPerformance 15%%, careerTrajectory 10%%.

Include skillsAnalysis for the top 10 skills of the job description. For each skill give relevance (how important it is for the job), match (how well the resume covers it) and gap, all from 0 to 100.

The summary, analysis, recommendations, learningResources and learningRoadmap fields hold HTML using h2, h3, p, ul and li. The roadmap is split into phases with a time estimate for each phase.

Return a JSON object in exactly this format:
{
  "summary": "<p>...</p>",
  "analysis": "<h2>...</h2>",
  "recommendations": "<ul>...</ul>",
  "learningResources": "<h2>...</h2>",
  "learningRoadmap": "<h3>Phase 1: Foundations</h3>",
  "skillsMatchPercentage": 75,
  "score": 70,
  "categoryScores": {
    "technicalSkills": 65,
    "experience": 70,
    "education": 80,
    "quizPerformance": %d,
    "careerTrajectory": 75
  },
  "skillsAnalysis": [
    {"skill": "Go", "relevance": 90, "match": 70, "gap": 20}
  ],
  "strengths": ["..."],
  "areasForGrowth": ["..."]
}`

const quizSystem = `You are a senior technical interviewer who writes quizzes that test how a candidate would handle the real tasks of a role. Questions are scenario based, non-trivial and have exactly one correct answer.`

const quizTemplate = `Create %d multiple-choice questions for the job description below.

JOB DESCRIPTION:
%s

Each question has exactly 4 options and one correct answer. correctAnswer is the zero-based index of the correct option. difficulty is "intermediate" or "advanced". category names the skill area being tested.

Return a JSON array of %d objects in exactly this format:
[
  {
    "question": "Scenario-based question",
    "options": ["A", "B", "C", "D"],
    "correctAnswer": 1,
    "explanation": "Why the answer is right and the others are not",
    "difficulty": "intermediate",
    "category": "Data Modeling"
  }
]`

const interviewSystem = `You are an interview coach preparing a candidate for a specific role. You group questions by topic and write a strong sample answer for every question, grounded in the candidate's own experience where possible.`

const interviewTemplate = `Prepare interview questions for this candidate.

JOB DESCRIPTION:
%s

RESUME:
%s

Pick 4 to 6 topics that matter most for the role. Each topic has 3 to 5 questions. type is "Technical", "Behavioral" or "Situational". difficulty is "Basic", "Intermediate" or "Advanced".

Return a JSON array in exactly this format:
[
  {
    "topicName": "Distributed Systems",
    "questions": [
      {
        "question": "How would you ...?",
        "type": "Technical",
        "difficulty": "Intermediate",
        "sampleAnswer": "In my last role I ...",
        "tips": "Mention trade-offs"
      }
    ]
  }
]`

const mcqSystem = `You are an expert assessor who writes precise single-answer multiple-choice questions about one skill at a time.`

const mcqSingleTemplate = `Write one multiple-choice question that tests the skill "%s" as it is used in the job below.

JOB DESCRIPTION:
%s

The question has exactly 4 options and one correct answer. correctAnswer is the zero-based index of the correct option. difficulty is "easy", "intermediate" or "advanced".

Return a JSON object in exactly this format:
{
  "question": "...",
  "options": ["A", "B", "C", "D"],
  "correctAnswer": 0,
  "explanation": "...",
  "difficulty": "intermediate",
  "skill": "%s"
}`

const mcqBatchTemplate = `Write %d multiple-choice questions spread across these skills, as they are used in the job below:
%s

JOB DESCRIPTION:
%s

Every question has exactly 4 options and one correct answer. correctAnswer is the zero-based index of the correct option. difficulty is "easy", "intermediate" or "advanced". skill names which of the skills above the question tests.

Return a JSON array in exactly this format:
[
  {
    "question": "...",
    "options": ["A", "B", "C", "D"],
    "correctAnswer": 2,
    "explanation": "...",
    "difficulty": "intermediate",
    "skill": "..."
  }
]`

const skillsSystem = `You are a technical recruiter who extracts the concrete, testable skills a job description asks for.`

const skillBatchTemplate = `List the 8 to 12 skills from the job description below that a candidate should practise.

JOB DESCRIPTION:
%s

category groups related skills (for example "Programming Languages", "Cloud", "Soft Skills"). importance is "critical", "important" or "beneficial".

Return a JSON array in exactly this format:
[
  {"skill": "SQL", "category": "Databases", "importance": "critical"}
]`

const keySkillsTemplate = `List the 5 to 10 most important skills in the job description below, most important first.

JOB DESCRIPTION:
%s

Return a JSON array of strings in exactly this format:
["Skill one", "Skill two"]`

const resumeSkillsTemplate = `Compare the skills in the resume with the skills the job description asks for.

RESUME:
%s

JOB DESCRIPTION:
%s

skills lists every skill found in the resume. matchAnalysis rates each skill the job asks for: level is 0 (absent) to 5 (expert) and relevance explains the rating in one sentence. missingSkills lists skills the job asks for that the resume does not show.

Return a JSON object in exactly this format:
{
  "skills": ["Go", "PostgreSQL"],
  "matchAnalysis": {
    "Go": {"level": 4, "relevance": "Five years of backend work in Go"}
  },
  "missingSkills": ["Kubernetes"]
}`

const overviewSystem = `You are a career coach who writes short, skimmable HTML summaries of a candidate's skill profile against a job.`

const overviewTemplate = `Write an overview of how the candidate's skills fit the job.

RESUME:
%s

JOB DESCRIPTION:
%s

Use HTML only: an h2 heading, a short paragraph, then an h3 "Strengths" list and an h3 "Skill gaps" list. Do not wrap the HTML in code fences and do not add anything before or after it.`

// BuildRequest validates the inputs the schema needs and renders the
// completion request. It never calls the provider.
func BuildRequest(pol Policy, in domain.Inputs) (domain.CompletionRequest, error) {
	if missing := missingInputs(pol.ID, in); len(missing) > 0 {
		return domain.CompletionRequest{}, &domain.MissingInputError{Schema: pol.ID, Fields: missing}
	}

	var system, prompt string
	switch pol.ID {
	case domain.SchemaCompatibilityAnalysis:
		pct := in.Quiz.Percent()
		system = analysisSystem
		prompt = fmt.Sprintf(analysisTemplate, in.Resume, in.JobDescription, in.Quiz.OutOfTen(), pct, pct)
	case domain.SchemaQuiz:
		system = quizSystem
		prompt = fmt.Sprintf(quizTemplate, domain.DefaultQuizLength, in.JobDescription, domain.DefaultQuizLength)
	case domain.SchemaInterviewQuestions:
		system = interviewSystem
		prompt = fmt.Sprintf(interviewTemplate, in.JobDescription, in.Resume)
	case domain.SchemaMCQSingle:
		skill := strings.TrimSpace(in.Skill)
		system = mcqSystem
		prompt = fmt.Sprintf(mcqSingleTemplate, skill, in.JobDescription, skill)
	case domain.SchemaMCQBatch:
		system = mcqSystem
		prompt = fmt.Sprintf(mcqBatchTemplate, batchSize(in), skillList(batchSkills(in.Skills)), in.JobDescription)
	case domain.SchemaSkillBatch:
		system = skillsSystem
		prompt = fmt.Sprintf(skillBatchTemplate, in.JobDescription)
	case domain.SchemaKeySkills:
		system = skillsSystem
		prompt = fmt.Sprintf(keySkillsTemplate, in.JobDescription)
	case domain.SchemaResumeSkills:
		system = skillsSystem
		prompt = fmt.Sprintf(resumeSkillsTemplate, in.Resume, in.JobDescription)
	case domain.SchemaSkillsOverview:
		system = overviewSystem
		prompt = fmt.Sprintf(overviewTemplate, in.Resume, in.JobDescription)
	default:
		return domain.CompletionRequest{}, fmt.Errorf("%w: no prompt for schema %q", domain.ErrInvalidArgument, pol.ID)
	}
	if pol.Shape != ShapeText {
		prompt += formatRules
	}

	return domain.CompletionRequest{
		Schema:            pol.ID,
		Prompt:            prompt,
		SystemInstruction: system,
		Temperature:       pol.Temperature,
		MaxTokens:         pol.MaxTokens,
	}, nil
}

func missingInputs(id domain.SchemaID, in domain.Inputs) []string {
	var missing []string
	need := func(field, v string) {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, field)
		}
	}
	switch id {
	case domain.SchemaCompatibilityAnalysis, domain.SchemaResumeSkills, domain.SchemaSkillsOverview:
		need("resume", in.Resume)
		need("jobDescription", in.JobDescription)
	case domain.SchemaInterviewQuestions:
		need("jobDescription", in.JobDescription)
		need("resume", in.Resume)
	case domain.SchemaQuiz, domain.SchemaSkillBatch, domain.SchemaKeySkills:
		need("jobDescription", in.JobDescription)
	case domain.SchemaMCQSingle:
		need("jobDescription", in.JobDescription)
		need("skill", in.Skill)
	case domain.SchemaMCQBatch:
		need("jobDescription", in.JobDescription)
		if len(batchSkills(in.Skills)) == 0 {
			missing = append(missing, "skills")
		}
		if in.BatchSize < 0 {
			missing = append(missing, "batchSize")
		}
	}
	return missing
}

// batchSkills drops unnamed skills and keeps at most MaxSkillsPerBatch.
func batchSkills(skills []domain.SkillDescriptor) []domain.SkillDescriptor {
	out := make([]domain.SkillDescriptor, 0, len(skills))
	for _, s := range skills {
		if strings.TrimSpace(s.Skill) == "" {
			continue
		}
		out = append(out, s)
		if len(out) == MaxSkillsPerBatch {
			break
		}
	}
	return out
}

func batchSize(in domain.Inputs) int {
	if in.BatchSize == 0 {
		return DefaultBatchSize
	}
	return in.BatchSize
}

func skillList(skills []domain.SkillDescriptor) string {
	var b strings.Builder
	for _, s := range skills {
		b.WriteString("- ")
		b.WriteString(strings.TrimSpace(s.Skill))
		if s.Category != "" || s.Importance != "" {
			b.WriteString(" (")
			b.WriteString(strings.Trim(strings.Join([]string{s.Category, s.Importance}, ", "), ", "))
			b.WriteString(")")
		}
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}
