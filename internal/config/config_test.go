package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigAppliesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, 10*time.Minute, cfg.Store.SweepInterval)
	assert.Equal(t, 150, cfg.RAG.MaxChunkTokens)
	assert.Equal(t, 3000, cfg.Summary.MaxInputChars)
	assert.Equal(t, 800, cfg.Summary.ChunkChars)
	assert.Equal(t, 5, cfg.Quiz.MCQCount)
	assert.Equal(t, 3, cfg.Quiz.LimitPerTier)
	assert.Equal(t, 10, cfg.Flashcard.Count)
	assert.Equal(t, 2000, cfg.Image.DocumentChars)
	assert.Equal(t, "nomic-embed-text", cfg.EmbedLLM.Model)
	assert.Equal(t, "llava", cfg.Models.Captioner.Model)
	assert.Equal(t, cfg.LLM.Model, cfg.Models.QA.Model)
}

func TestLoadConfigRoleInheritsFromLLM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yamlData := `
llm:
  provider: openai
  base_url: https://example.test/v1
  key: secret
  model: gpt-4o-mini
  timeout: 30s
models:
  summarizer:
    model: distilbart
    max_tokens: 150
`
	require.NoError(t, os.WriteFile(path, []byte(yamlData), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	sum := cfg.Models.Summarizer
	assert.Equal(t, "openai", sum.Provider)
	assert.Equal(t, "https://example.test/v1", sum.BaseURL)
	assert.Equal(t, "secret", sum.Key)
	assert.Equal(t, "distilbart", sum.Model)
	assert.Equal(t, 150, sum.MaxTokens)
	assert.Equal(t, 150, cfg.Summary.MaxTokens)
	assert.Equal(t, 32, cfg.RAG.AnswerMaxTokens)
	assert.Equal(t, 30*time.Second, sum.Timeout)
	assert.Equal(t, "gpt-4o-mini", cfg.Models.QuestionGen.Model)
}

func TestShippedConfigTokenLimits(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("..", "..", "configs", "config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 32, cfg.Models.QA.MaxTokens)
	assert.Equal(t, 32, cfg.RAG.AnswerMaxTokens)
	assert.Equal(t, 150, cfg.Summary.MaxTokens)
	assert.Equal(t, 64, cfg.Quiz.QuestionMaxTokens)
	assert.Equal(t, 50, cfg.Image.CaptionMaxTokens)
	assert.Equal(t, 150, cfg.Image.ExplanationTokens)
	assert.Equal(t, 70, cfg.Flashcard.MaxTokens)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("STUDY_LLM_API_KEY", "from-env")
	t.Setenv("STUDY_SERVER_ADDR", ":9999")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.LLM.Key)
	assert.Equal(t, "from-env", cfg.Models.Explainer.Key)
	assert.Equal(t, ":9999", cfg.Server.Addr)
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o600))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestRedacted(t *testing.T) {
	cfg := &Config{}
	cfg.LLM.Key = "sk-secret"
	cfg.Database.DSN = "postgres://user:pw@db/study"
	cfg.VectorDB.EncryptionKey = "0123456789abcdef0123456789abcdef"
	cfg.ApplyDefaults()

	out := cfg.Redacted()
	assert.Equal(t, "[redacted]", out.LLM.Key)
	assert.Equal(t, "[redacted]", out.Models.QA.Key)
	assert.Equal(t, "[redacted]", out.Database.DSN)
	assert.Equal(t, "[redacted]", out.VectorDB.EncryptionKey)
	assert.Empty(t, out.Redis.URL)

	assert.Equal(t, "sk-secret", cfg.LLM.Key)
	assert.Equal(t, "sk-secret", cfg.Models.QA.Key)
}
