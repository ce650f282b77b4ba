package generator

import (
	"context"
	"fmt"

	"study-assistant/internal/config"
	"study-assistant/internal/helper"
	"study-assistant/internal/llmservice"
	"study-assistant/internal/models"
	"study-assistant/internal/parser"

	"github.com/rs/zerolog/log"
)

// ImageExplainer captions a diagram and explains it against the document.
type ImageExplainer struct {
	captioner llmservice.VisionGenerator
	explainer llmservice.Generator
	cfg       config.ImageConfig
}

func NewImageExplainer(captioner llmservice.VisionGenerator, explainer llmservice.Generator, cfg config.ImageConfig) *ImageExplainer {
	return &ImageExplainer{captioner: captioner, explainer: explainer, cfg: cfg}
}

func (e *ImageExplainer) Explain(ctx context.Context, img *parser.Image, documentText string) (*models.ImageExplanation, error) {
	caption, err := e.captioner.GenerateWithImage(ctx, models.CaptionPrompt, img.MIME, img.Data, e.cfg.CaptionMaxTokens)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("image", img.Name).Str("caption", caption).Msg("Image captioned")

	prompt := fmt.Sprintf(models.ImageExplainPromptTemplate, helper.TruncateRunes(documentText, e.cfg.DocumentChars), caption)
	explanation, err := e.explainer.Generate(ctx, prompt, e.cfg.ExplanationTokens)
	if err != nil {
		return nil, err
	}

	return &models.ImageExplanation{Caption: caption, Explanation: explanation}, nil
}
