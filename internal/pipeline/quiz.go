package pipeline

import "github.com/fairyhunter13/resume-matcher/internal/domain"

// QuizTolerance is how far, in percentage points, the model's
// quizPerformance may drift from the locally computed quiz score.
const QuizTolerance = 5

// Category weights in percent. They sum to 100.
const (
	weightTechnicalSkills  = 35
	weightExperience       = 25
	weightEducation        = 15
	weightQuizPerformance  = 15
	weightCareerTrajectory = 10
)

// WeightedScore is the overall score implied by the category scores,
// rounded half up.
func WeightedScore(c domain.CategoryScores) int {
	sum := weightTechnicalSkills*int(c.TechnicalSkills) +
		weightExperience*int(c.Experience) +
		weightEducation*int(c.Education) +
		weightQuizPerformance*int(c.QuizPerformance) +
		weightCareerTrajectory*int(c.CareerTrajectory)
	if sum < 0 {
		return -((-sum + 50) / 100)
	}
	return (sum + 50) / 100
}

// EnforceQuizScore replaces quizPerformance with the ground truth when the
// model drifted more than QuizTolerance points and recomputes the overall
// score. It reports whether the analysis was changed.
func EnforceQuizScore(a *domain.CompatibilityAnalysis, quiz domain.QuizScore) bool {
	want := quiz.Percent()
	diff := int(a.CategoryScores.QuizPerformance) - want
	if diff < 0 {
		diff = -diff
	}
	if diff <= QuizTolerance {
		return false
	}
	a.CategoryScores.QuizPerformance = domain.Percent(want)
	a.Score = domain.Percent(WeightedScore(a.CategoryScores))
	a.QuizOverridden = true
	return true
}
