package generator

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"study-assistant/internal/config"
	"study-assistant/internal/llmservice"
	"study-assistant/internal/models"

	"github.com/rs/zerolog/log"
)

const (
	maxTermWords        = 3
	minDefinitionLength = 10
	candidatesPerCard   = 3
)

// KeywordSource returns the topN ranked key phrases of a text.
type KeywordSource interface {
	Phrases(ctx context.Context, text string, topN int) ([]string, error)
}

// FlashcardGenerator defines the key terms of a document.
type FlashcardGenerator struct {
	keywords KeywordSource
	model    llmservice.Generator
	cfg      config.FlashcardConfig
}

func NewFlashcardGenerator(kw KeywordSource, model llmservice.Generator, cfg config.FlashcardConfig) *FlashcardGenerator {
	return &FlashcardGenerator{keywords: kw, model: model, cfg: cfg}
}

// Generate asks the model to define up to cfg.Count terms. Terms whose
// definition fails or comes back too short are skipped.
func (g *FlashcardGenerator) Generate(ctx context.Context, text string) ([]models.FlashCard, error) {
	terms, err := g.keywords.Phrases(ctx, text, g.cfg.Count*candidatesPerCard)
	if err != nil {
		return nil, err
	}

	cards := []models.FlashCard{}
	used := make(map[string]bool)
	for _, term := range terms {
		term = strings.TrimSpace(term)
		if used[strings.ToLower(term)] || len(strings.Fields(term)) > maxTermWords {
			continue
		}

		def, err := g.model.Generate(ctx, fmt.Sprintf(models.FlashcardPromptTemplate, term), g.cfg.MaxTokens)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Warn().Err(err).Str("term", term).Msg("Flashcard definition failed")
			continue
		}
		def = strings.TrimSpace(def)
		log.Debug().Str("term", term).Str("definition", def).Msg("Flashcard generated")

		if utf8.RuneCountInString(def) > minDefinitionLength {
			cards = append(cards, models.FlashCard{Term: term, Definition: def})
			used[strings.ToLower(term)] = true
		}
		if len(cards) >= g.cfg.Count {
			break
		}
	}
	return cards, nil
}
