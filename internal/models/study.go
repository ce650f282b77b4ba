package models

// QuizItem is a multiple-choice question. Options hold Answer exactly once.
type QuizItem struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer"`
}

// BlankItem is a fill-in-the-blank question.
type BlankItem struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type Test struct {
	MCQs      []QuizItem  `json:"mcqs"`
	Blanks    []BlankItem `json:"blanks"`
	Submitted bool        `json:"submitted"`
}

// Total is the number of gradable items.
func (t *Test) Total() int {
	return len(t.MCQs) + len(t.Blanks)
}

type ItemKind string

const (
	ItemMCQ   ItemKind = "mcq"
	ItemBlank ItemKind = "blank"
)

type ItemResult struct {
	Index     int      `json:"index"`
	Kind      ItemKind `json:"kind"`
	Submitted string   `json:"submitted"`
	Correct   string   `json:"correct"`
	IsCorrect bool     `json:"is_correct"`
}

type GradeReport struct {
	Results []ItemResult `json:"results"`
	Score   int          `json:"score"`
	Total   int          `json:"total"`
}

// Add appends res and counts it toward the score when correct.
func (r *GradeReport) Add(res ItemResult) {
	r.Results = append(r.Results, res)
	if res.IsCorrect {
		r.Score++
	}
}

type FlashCard struct {
	Term       string `json:"term"`
	Definition string `json:"definition"`
}

type QuestionTier struct {
	Label     string   `json:"label"`
	Marks     int      `json:"marks"`
	Questions []string `json:"questions"`
}

// QuestionBank keeps tiers in ascending mark order.
type QuestionBank struct {
	Tiers []QuestionTier `json:"tiers"`
}

// Tier returns the tier with the given label, or nil.
func (b *QuestionBank) Tier(label string) *QuestionTier {
	for i := range b.Tiers {
		if b.Tiers[i].Label == label {
			return &b.Tiers[i]
		}
	}
	return nil
}
