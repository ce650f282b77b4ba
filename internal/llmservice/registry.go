package llmservice

import (
	"net/http"

	"study-assistant/internal/apperrors"
	"study-assistant/internal/config"
	"study-assistant/internal/embedding"

	"github.com/rs/zerolog/log"
)

// Registry holds every model client. It is built once at startup, shared
// read-only by the generators and closed on shutdown.
type Registry struct {
	Summarizer  Generator
	QA          Generator
	QuestionGen Generator
	Explainer   Generator
	Captioner   VisionGenerator
	Embedder    embedding.Embedder

	transport *http.Transport
}

func NewRegistry(cfg *config.Config) (*Registry, error) {
	r := &Registry{
		transport: http.DefaultTransport.(*http.Transport).Clone(),
	}

	roles := []struct {
		name string
		cfg  config.LLMConfig
		dst  func(*Client)
	}{
		{"summarizer", cfg.Models.Summarizer, func(c *Client) { r.Summarizer = c }},
		{"qa", cfg.Models.QA, func(c *Client) { r.QA = c }},
		{"question_gen", cfg.Models.QuestionGen, func(c *Client) { r.QuestionGen = c }},
		{"explainer", cfg.Models.Explainer, func(c *Client) { r.Explainer = c }},
		{"captioner", cfg.Models.Captioner, func(c *Client) { r.Captioner = c }},
	}
	for _, role := range roles {
		llm, err := NewModel(role.cfg, r.httpClient(role.cfg))
		if err != nil {
			r.Close()
			return nil, apperrors.ModelUnavailable(role.name, err)
		}
		role.dst(NewClient(role.name, llm, role.cfg))
		log.Info().Str("role", role.name).Str("provider", role.cfg.Provider).Str("model", role.cfg.Model).Msg("Model client ready")
	}

	embedder, err := embedding.NewEmbedder(cfg.EmbedLLM, r.httpClient(cfg.EmbedLLM))
	if err != nil {
		r.Close()
		return nil, apperrors.ModelUnavailable("embedder", err)
	}
	r.Embedder = embedder
	log.Info().Str("provider", cfg.EmbedLLM.Provider).Str("model", cfg.EmbedLLM.Model).Msg("Embedder ready")

	return r, nil
}

func (r *Registry) httpClient(cfg config.LLMConfig) *http.Client {
	return &http.Client{Timeout: cfg.Timeout, Transport: r.transport}
}

// Close drops pooled connections to the model endpoints.
func (r *Registry) Close() {
	if r.transport != nil {
		r.transport.CloseIdleConnections()
	}
}
