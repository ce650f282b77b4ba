package generator

import (
	"context"
	"fmt"
	"strings"

	"study-assistant/internal/config"
	"study-assistant/internal/helper"
	"study-assistant/internal/keywords"
	"study-assistant/internal/llmservice"
	"study-assistant/internal/models"

	"github.com/rs/zerolog/log"
)

// tierBounds maps a sentence length to a tier: a sentence with w words
// belongs to the first tier whose maxWords is >= w, provided w > 5.
var tierBounds = []struct {
	label    string
	marks    int
	maxWords int
}{
	{models.TierOneMark, 1, 10},
	{models.TierTwoMark, 2, 15},
	{models.TierThreeMark, 3, 25},
	{models.TierFiveMark, 5, -1},
}

const minTierWords = 5

// QuestionBankGenerator turns sentences into questions graded by length.
type QuestionBankGenerator struct {
	model     llmservice.Generator
	limit     int
	maxTokens int
}

func NewQuestionBankGenerator(model llmservice.Generator, cfg config.QuizConfig) *QuestionBankGenerator {
	return &QuestionBankGenerator{model: model, limit: cfg.LimitPerTier, maxTokens: cfg.QuestionMaxTokens}
}

func (g *QuestionBankGenerator) Generate(ctx context.Context, text string) (*models.QuestionBank, error) {
	bank := &models.QuestionBank{Tiers: make([]models.QuestionTier, len(tierBounds))}
	for i, t := range tierBounds {
		bank.Tiers[i] = models.QuestionTier{Label: t.label, Marks: t.marks, Questions: []string{}}
	}

	for _, sentence := range keywords.SplitSentences(text) {
		tier := tierFor(helper.CountWords(sentence))
		if tier < 0 || len(bank.Tiers[tier].Questions) >= g.limit {
			continue
		}

		q, err := g.model.Generate(ctx, fmt.Sprintf(models.QuestionPromptTemplate, sentence), g.maxTokens)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Warn().Err(err).Str("tier", bank.Tiers[tier].Label).Msg("Question generation failed, skipping sentence")
			continue
		}
		if q = strings.TrimSpace(q); q != "" {
			bank.Tiers[tier].Questions = append(bank.Tiers[tier].Questions, q)
		}

		if g.full(bank) {
			break
		}
	}
	return bank, nil
}

func (g *QuestionBankGenerator) full(bank *models.QuestionBank) bool {
	for _, t := range bank.Tiers {
		if len(t.Questions) < g.limit {
			return false
		}
	}
	return true
}

// tierFor returns the tier index for a sentence of w words, or -1.
func tierFor(w int) int {
	if w <= minTierWords {
		return -1
	}
	for i, t := range tierBounds {
		if t.maxWords < 0 || w <= t.maxWords {
			return i
		}
	}
	return -1
}
