package pipeline

import "github.com/fairyhunter13/resume-matcher/internal/domain"

// Placeholder text shown when a fallback-enabled schema yields nothing usable.
const (
	PlaceholderTopic          = "General Questions"
	PlaceholderInterviewText  = "The interview question generator encountered an error. Please regenerate questions."
	PlaceholderSampleAnswer   = "Please try regenerating the questions for better results."
	PlaceholderMCQText        = "The practice question generator encountered an error. Please regenerate questions."
	PlaceholderMCQExplanation = "No question could be generated for this batch. Regenerate to try again."
)

func interviewPlaceholder() *domain.InterviewQuestionSet {
	q := domain.InterviewQuestion{
		ID:           "emergency-0",
		TopicName:    PlaceholderTopic,
		Question:     PlaceholderInterviewText,
		Type:         "Technical",
		Difficulty:   "Intermediate",
		SampleAnswer: PlaceholderSampleAnswer,
	}
	return &domain.InterviewQuestionSet{
		Topics:      []domain.InterviewTopic{{TopicName: PlaceholderTopic, Questions: []domain.InterviewQuestion{q}}},
		Questions:   []domain.InterviewQuestion{q},
		Placeholder: true,
	}
}

func mcqBatchPlaceholder(in domain.Inputs) *domain.MCQBatch {
	skill := "General"
	if s := batchSkills(in.Skills); len(s) > 0 {
		skill = s[0].Skill
	}
	return &domain.MCQBatch{
		Questions: []domain.Question{{
			Question:      PlaceholderMCQText,
			Options:       []string{"Regenerate the questions", "Not available", "Not available", "Not available"},
			CorrectAnswer: 0,
			Explanation:   PlaceholderMCQExplanation,
			Difficulty:    "intermediate",
			Category:      "General",
			Skill:         skill,
			QuestionType:  domain.QuestionTypeSingleChoice,
			Placeholder:   true,
		}},
		Placeholder: true,
	}
}

// placeholder returns the fallback result for a schema, or nil when the
// schema has none.
func placeholder(id domain.SchemaID, in domain.Inputs) any {
	switch id {
	case domain.SchemaInterviewQuestions:
		return interviewPlaceholder()
	case domain.SchemaMCQBatch:
		return mcqBatchPlaceholder(in)
	}
	return nil
}
