package generator

import (
	"context"
	"fmt"
	"strings"

	"study-assistant/internal/apperrors"
	"study-assistant/internal/config"
	"study-assistant/internal/helper"
	"study-assistant/internal/llmservice"
	"study-assistant/internal/models"

	"github.com/rs/zerolog/log"
)

// Summarizer condenses the head of a document window by window.
type Summarizer struct {
	model llmservice.Generator
	cfg   config.SummaryConfig
}

func NewSummarizer(model llmservice.Generator, cfg config.SummaryConfig) *Summarizer {
	return &Summarizer{model: model, cfg: cfg}
}

// Summarize keeps the first MaxInputChars runes of text, summarizes each
// ChunkChars window and joins the partial summaries with a space.
func (s *Summarizer) Summarize(ctx context.Context, text string) (string, error) {
	windows := helper.SplitRunes(helper.TruncateRunes(text, s.cfg.MaxInputChars), s.cfg.ChunkChars)
	if len(windows) == 0 {
		return "", apperrors.EmptyDocument("summarize")
	}

	parts := make([]string, 0, len(windows))
	for i, w := range windows {
		out, err := s.model.Generate(ctx, fmt.Sprintf(models.SummaryPromptTemplate, w), s.cfg.MaxTokens)
		if err != nil {
			return "", err
		}
		log.Debug().Int("window", i+1).Int("of", len(windows)).Msg("Window summarized")
		parts = append(parts, strings.TrimSpace(out))
	}
	return strings.Join(parts, " "), nil
}
