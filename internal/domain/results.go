package domain

// QuestionTypeSingleChoice tags every generated quiz question.
const QuestionTypeSingleChoice = "Multiple Choice (single answer)"

// CategoryScores holds the five weighted analysis categories.
type CategoryScores struct {
	TechnicalSkills  Percent `json:"technicalSkills" validate:"min=0,max=100"`
	Experience       Percent `json:"experience" validate:"min=0,max=100"`
	Education        Percent `json:"education" validate:"min=0,max=100"`
	QuizPerformance  Percent `json:"quizPerformance" validate:"min=0,max=100"`
	CareerTrajectory Percent `json:"careerTrajectory" validate:"min=0,max=100"`
}

// SkillAnalysis scores one job skill against the resume.
type SkillAnalysis struct {
	Skill     string  `json:"skill" validate:"required"`
	Relevance Percent `json:"relevance" validate:"min=0,max=100"`
	Match     Percent `json:"match" validate:"min=0,max=100"`
	Gap       Percent `json:"gap" validate:"min=0,max=100"`
}

// CompatibilityAnalysis is the resume-to-job compatibility report.
type CompatibilityAnalysis struct {
	ReportID              string          `json:"reportId,omitempty"`
	Score                 Percent         `json:"score" validate:"min=0,max=100"`
	CategoryScores        CategoryScores  `json:"categoryScores"`
	SkillsAnalysis        []SkillAnalysis `json:"skillsAnalysis" validate:"dive"`
	Strengths             []string        `json:"strengths"`
	AreasForGrowth        []string        `json:"areasForGrowth"`
	SkillsMatchPercentage *Percent        `json:"skillsMatchPercentage,omitempty" validate:"omitempty,min=0,max=100"`
	Summary               string          `json:"summary,omitempty"`
	Analysis              string          `json:"analysis,omitempty"`
	Recommendations       string          `json:"recommendations,omitempty"`
	LearningResources     string          `json:"learningResources,omitempty"`
	LearningRoadmap       string          `json:"learningRoadmap,omitempty"`
	// QuizOverridden is set when the model's quizPerformance was replaced by
	// the ground truth and the overall score recomputed.
	QuizOverridden bool `json:"quizOverridden,omitempty"`
}

// Question is a single-answer multiple-choice question.
type Question struct {
	Question      string   `json:"question" validate:"required"`
	Options       []string `json:"options" validate:"len=4"`
	CorrectAnswer int      `json:"correctAnswer" validate:"min=0,max=3"`
	Explanation   string   `json:"explanation"`
	Difficulty    string   `json:"difficulty" validate:"difficulty"`
	Category      string   `json:"category,omitempty"`
	Type          string   `json:"type,omitempty"`
	Skill         string   `json:"skill,omitempty"`
	QuestionType  string   `json:"questionType,omitempty"`
	Placeholder   bool     `json:"placeholder,omitempty"`
}

// QuizQuestionSet is a generated quiz.
type QuizQuestionSet struct {
	Questions []Question `json:"questions"`
}

// MCQBatch is a batch of practice questions, one or more per skill.
type MCQBatch struct {
	Questions   []Question `json:"questions"`
	Placeholder bool       `json:"placeholder,omitempty"`
}

// InterviewQuestion is one practice interview question. ID and TopicName are
// filled in when the topic tree is flattened.
type InterviewQuestion struct {
	ID           string `json:"id,omitempty"`
	TopicName    string `json:"topicName,omitempty"`
	Question     string `json:"question" validate:"required"`
	Type         string `json:"type" validate:"required"`
	Difficulty   string `json:"difficulty" validate:"difficulty"`
	SampleAnswer string `json:"sampleAnswer" validate:"required"`
	Tips         string `json:"tips,omitempty"`
}

// InterviewTopic groups interview questions under a skill or area.
type InterviewTopic struct {
	TopicName string              `json:"topicName" validate:"required"`
	Questions []InterviewQuestion `json:"questions" validate:"min=1,dive"`
}

// InterviewQuestionSet holds both the topic tree and its flattened questions.
type InterviewQuestionSet struct {
	Topics      []InterviewTopic    `json:"topics"`
	Questions   []InterviewQuestion `json:"questions"`
	Placeholder bool                `json:"placeholder,omitempty"`
}

// SkillImportance values accepted for a practice skill.
const (
	ImportanceCritical   = "critical"
	ImportanceImportant  = "important"
	ImportanceBeneficial = "beneficial"
)

// PracticeSkill is one skill extracted for the practice quiz.
type PracticeSkill struct {
	Skill      string `json:"skill" validate:"required"`
	Category   string `json:"category" validate:"required"`
	Importance string `json:"importance" validate:"oneof=critical important beneficial"`
}

// SkillBatch is the extracted practice skill list plus a by-category index.
type SkillBatch struct {
	Skills     []PracticeSkill            `json:"skills"`
	ByCategory map[string][]PracticeSkill `json:"byCategory"`
}

// KeySkills is a flat list of the most important skills in a job description.
type KeySkills struct {
	Skills []string `json:"skills"`
}

// SkillMatch rates how well the resume covers one skill.
type SkillMatch struct {
	Level     int    `json:"level" validate:"min=0,max=5"`
	Relevance string `json:"relevance"`
}

// ResumeSkills compares the skills in a resume with a job description.
type ResumeSkills struct {
	Skills        []string              `json:"skills"`
	MatchAnalysis map[string]SkillMatch `json:"matchAnalysis" validate:"dive"`
	MissingSkills []string              `json:"missingSkills"`
}

// SkillsOverview is free-form HTML describing the candidate's skill gaps.
type SkillsOverview struct {
	HTML string `json:"html"`
}
