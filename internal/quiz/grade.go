package quiz

import (
	"strings"

	"study-assistant/internal/models"
)

// Grade scores a submitted test. Answers are keyed by 1-based item index
// within their kind; a missing answer counts as wrong. Multiple-choice
// answers must match the option exactly, blanks are compared trimmed and
// case-insensitively.
func Grade(test *models.Test, mcqAnswers, blankAnswers map[int]string) *models.GradeReport {
	report := &models.GradeReport{
		Results: make([]models.ItemResult, 0, test.Total()),
		Total:   test.Total(),
	}

	for i, q := range test.MCQs {
		submitted := mcqAnswers[i+1]
		report.Add(models.ItemResult{
			Index:     i + 1,
			Kind:      models.ItemMCQ,
			Submitted: submitted,
			Correct:   q.Answer,
			IsCorrect: submitted == q.Answer,
		})
	}
	for i, q := range test.Blanks {
		submitted := blankAnswers[i+1]
		report.Add(models.ItemResult{
			Index:     i + 1,
			Kind:      models.ItemBlank,
			Submitted: submitted,
			Correct:   q.Answer,
			IsCorrect: BlankMatches(submitted, q.Answer),
		})
	}
	return report
}

// BlankMatches compares a fill-in answer with the expected one.
func BlankMatches(submitted, answer string) bool {
	return normalize(submitted) == normalize(answer)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
