package llmservice

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"study-assistant/internal/apperrors"
	"study-assistant/internal/config"
	"study-assistant/internal/metrics"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
)

// Generator produces text from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// VisionGenerator produces text from a prompt and one image.
type VisionGenerator interface {
	GenerateWithImage(ctx context.Context, prompt, mimeType string, image []byte, maxTokens int) (string, error)
}

// Client binds a langchaingo model to one role of the assistant.
type Client struct {
	role        string
	llm         llms.Model
	temperature float64
	maxTokens   int
}

// NewClient binds llm to role. cfg.MaxTokens is used for calls that pass no
// token limit of their own.
func NewClient(role string, llm llms.Model, cfg config.LLMConfig) *Client {
	return &Client{role: role, llm: llm, temperature: cfg.Temperature, maxTokens: cfg.MaxTokens}
}

// NewModel builds the langchaingo model for cfg.Provider.
func NewModel(cfg config.LLMConfig, httpClient *http.Client) (llms.Model, error) {
	switch cfg.Provider {
	case "ollama":
		opts := []ollama.Option{
			ollama.WithServerURL(cfg.BaseURL),
			ollama.WithModel(cfg.Model),
		}
		if httpClient != nil {
			opts = append(opts, ollama.WithHTTPClient(httpClient))
		}
		return ollama.New(opts...)
	case "openai":
		opts := []openai.Option{
			openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
			openai.WithModel(cfg.Model),
		}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		if httpClient != nil {
			opts = append(opts, openai.WithHTTPClient(httpClient))
		}
		return openai.New(opts...)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

func (c *Client) Role() string {
	return c.role
}

func (c *Client) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeHuman, prompt),
	}
	return c.GenerateContent(ctx, messages, maxTokens)
}

func (c *Client) GenerateWithImage(ctx context.Context, prompt, mimeType string, image []byte, maxTokens int) (string, error) {
	messages := []llms.MessageContent{
		{
			Role: schema.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.BinaryPart(mimeType, image),
				llms.TextPart(prompt),
			},
		},
	}
	return c.GenerateContent(ctx, messages, maxTokens)
}

// call llm
func (c *Client) GenerateContent(ctx context.Context, messages []llms.MessageContent, maxTokens int) (string, error) {
	var opts []llms.CallOption
	if maxTokens <= 0 {
		maxTokens = c.maxTokens
	}
	if maxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(maxTokens))
	}
	if c.temperature > 0 {
		opts = append(opts, llms.WithTemperature(c.temperature))
	}

	start := time.Now()
	res, err := c.llm.GenerateContent(ctx, messages, opts...)
	if err == nil && (res == nil || len(res.Choices) == 0) {
		err = errors.New("model returned no choices")
	}
	metrics.ObserveInference(c.role, start, err)
	if err != nil {
		log.Debug().Err(err).Str("role", c.role).Dur("elapsed", time.Since(start)).Msg("Inference failed")
		if unreachable(err) {
			return "", apperrors.ModelUnavailable(c.role, err)
		}
		return "", apperrors.InferenceFailure(c.role, err)
	}

	log.Debug().Str("role", c.role).Dur("elapsed", time.Since(start)).Msg("Inference done")
	return strings.TrimSpace(res.Choices[0].Content), nil
}

// unreachable reports whether err means no connection to the model endpoint
// could be made.
func unreachable(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}
