package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Store     StoreConfig     `yaml:"store"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	VectorDB  VectorDBConfig  `yaml:"vector_db"`
	LLM       LLMConfig       `yaml:"llm"`
	Models    ModelsConfig    `yaml:"models"`
	EmbedLLM  LLMConfig       `yaml:"embed_llm"`
	RAG       RAGConfig       `yaml:"rag"`
	Summary   SummaryConfig   `yaml:"summary"`
	Quiz      QuizConfig      `yaml:"quiz"`
	Flashcard FlashcardConfig `yaml:"flashcard"`
	Image     ImageConfig     `yaml:"image"`
}

type ServerConfig struct {
	Addr           string  `yaml:"addr"`
	Mode           string  `yaml:"mode"`
	MaxUploadBytes int64   `yaml:"max_upload_bytes"`
	RateLimit      float64 `yaml:"rate_limit"`
	RateBurst      int     `yaml:"rate_burst"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// StoreConfig selects where session state lives: memory, redis or postgres.
type StoreConfig struct {
	Driver        string        `yaml:"driver"`
	TTL           time.Duration `yaml:"ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // pgdriver or postgres (lib/pq)
	DSN    string `yaml:"dsn"`
	Debug  bool   `yaml:"debug"`
}

type RedisConfig struct {
	URL    string `yaml:"url"`
	Prefix string `yaml:"prefix"`
}

type VectorDBConfig struct {
	Path          string `yaml:"path"`
	InMemory      bool   `yaml:"in_memory"`
	EncryptionKey string `yaml:"encryption_key"`
	ExportPath    string `yaml:"export_path"`
}

// LLMConfig describes one model endpoint. Empty fields of a role-specific
// entry are inherited from the top-level llm section.
type LLMConfig struct {
	Provider    string        `yaml:"provider"` // ollama or openai
	BaseURL     string        `yaml:"base_url"`
	Key         string        `yaml:"key"`
	Model       string        `yaml:"model"`
	MaxTokens   int           `yaml:"max_tokens"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

type ModelsConfig struct {
	Summarizer  LLMConfig `yaml:"summarizer"`
	QA          LLMConfig `yaml:"qa"`
	QuestionGen LLMConfig `yaml:"question_gen"`
	Explainer   LLMConfig `yaml:"explainer"`
	Captioner   LLMConfig `yaml:"captioner"`
}

type RAGConfig struct {
	MaxChunkTokens int `yaml:"max_chunk_tokens"`
	PassageResults int `yaml:"passage_results"`
	// taken from models.qa.max_tokens
	AnswerMaxTokens int `yaml:"-"`
}

type SummaryConfig struct {
	MaxInputChars int `yaml:"max_input_chars"`
	ChunkChars    int `yaml:"chunk_chars"`
	// taken from models.summarizer.max_tokens
	MaxTokens int `yaml:"-"`
}

type QuizConfig struct {
	MCQCount      int `yaml:"mcq_count"`
	BlankCount    int `yaml:"blank_count"`
	LimitPerTier  int `yaml:"limit_per_tier"`
	MaxCandidates int `yaml:"max_candidates"`
	// taken from models.question_gen.max_tokens
	QuestionMaxTokens int `yaml:"-"`
}

type FlashcardConfig struct {
	Count     int `yaml:"count"`
	MaxTokens int `yaml:"max_tokens"`
}

// ImageConfig limits the diagram explanation. The caption limit comes from
// models.captioner.max_tokens; the explanation limit defaults to
// models.explainer.max_tokens.
type ImageConfig struct {
	DocumentChars     int `yaml:"document_chars"`
	CaptionMaxTokens  int `yaml:"-"`
	ExplanationTokens int `yaml:"explanation_max_tokens"`
}

const (
	defaultAddr           = ":8080"
	defaultMaxUploadBytes = 32 << 20
	defaultStoreTTL       = 24 * time.Hour
	defaultSweepInterval  = 10 * time.Minute
	defaultLLMTimeout     = 120 * time.Second
	defaultChunkTokens    = 150
	defaultPassageResults = 3
)

// LoadConfig reads the YAML file at path, loads .env if present and applies
// environment overrides and defaults.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	case errors.Is(err, fs.ErrNotExist):
		// run on defaults and environment only
	default:
		return nil, err
	}

	cfg.applyEnv()
	cfg.ApplyDefaults()
	return &cfg, nil
}

func (c *Config) applyEnv() {
	overrides := map[string]*string{
		"STUDY_LLM_API_KEY":           &c.LLM.Key,
		"STUDY_LLM_BASE_URL":          &c.LLM.BaseURL,
		"STUDY_DATABASE_DSN":          &c.Database.DSN,
		"STUDY_REDIS_URL":             &c.Redis.URL,
		"STUDY_VECTOR_ENCRYPTION_KEY": &c.VectorDB.EncryptionKey,
		"STUDY_SERVER_ADDR":           &c.Server.Addr,
	}
	for key, field := range overrides {
		if v := os.Getenv(key); v != "" {
			*field = v
		}
	}
}

// ApplyDefaults fills every zero value with the documented default.
func (c *Config) ApplyDefaults() {
	setString(&c.Server.Addr, defaultAddr)
	setString(&c.Server.Mode, "release")
	setInt64(&c.Server.MaxUploadBytes, defaultMaxUploadBytes)
	if c.Server.RateLimit <= 0 {
		c.Server.RateLimit = 5
	}
	setInt(&c.Server.RateBurst, 10)

	setString(&c.Log.Level, "info")

	setString(&c.Store.Driver, "memory")
	if c.Store.TTL <= 0 {
		c.Store.TTL = defaultStoreTTL
	}
	if c.Store.SweepInterval <= 0 {
		c.Store.SweepInterval = defaultSweepInterval
	}
	setString(&c.Database.Driver, "pgdriver")
	setString(&c.Redis.Prefix, "study:session:")
	setString(&c.VectorDB.Path, "./chromemdb")

	setString(&c.LLM.Provider, "ollama")
	setString(&c.LLM.BaseURL, "http://localhost:11434")
	setString(&c.LLM.Model, "llama3")
	if c.LLM.Timeout <= 0 {
		c.LLM.Timeout = defaultLLMTimeout
	}

	setString(&c.EmbedLLM.Model, "nomic-embed-text")
	c.EmbedLLM = c.LLM.Inherit(c.EmbedLLM)
	c.Models.Summarizer = c.LLM.Inherit(c.Models.Summarizer)
	c.Models.QA = c.LLM.Inherit(c.Models.QA)
	c.Models.QuestionGen = c.LLM.Inherit(c.Models.QuestionGen)
	c.Models.Explainer = c.LLM.Inherit(c.Models.Explainer)
	setString(&c.Models.Captioner.Model, "llava")
	c.Models.Captioner = c.LLM.Inherit(c.Models.Captioner)

	setInt(&c.Models.Summarizer.MaxTokens, 150)
	setInt(&c.Models.QA.MaxTokens, 32)
	setInt(&c.Models.QuestionGen.MaxTokens, 64)
	setInt(&c.Models.Explainer.MaxTokens, 150)
	setInt(&c.Models.Captioner.MaxTokens, 50)
	c.RAG.AnswerMaxTokens = c.Models.QA.MaxTokens
	c.Summary.MaxTokens = c.Models.Summarizer.MaxTokens
	c.Quiz.QuestionMaxTokens = c.Models.QuestionGen.MaxTokens
	c.Image.CaptionMaxTokens = c.Models.Captioner.MaxTokens

	setInt(&c.RAG.MaxChunkTokens, defaultChunkTokens)
	setInt(&c.RAG.PassageResults, defaultPassageResults)

	setInt(&c.Summary.MaxInputChars, 3000)
	setInt(&c.Summary.ChunkChars, 800)

	setInt(&c.Quiz.MCQCount, 5)
	setInt(&c.Quiz.BlankCount, 5)
	setInt(&c.Quiz.LimitPerTier, 3)
	setInt(&c.Quiz.MaxCandidates, 200)

	setInt(&c.Flashcard.Count, 10)
	setInt(&c.Flashcard.MaxTokens, 70)

	setInt(&c.Image.DocumentChars, 2000)
	setInt(&c.Image.ExplanationTokens, c.Models.Explainer.MaxTokens)
}

// Inherit returns role with empty fields taken from c.
func (c LLMConfig) Inherit(role LLMConfig) LLMConfig {
	setString(&role.Provider, c.Provider)
	setString(&role.BaseURL, c.BaseURL)
	setString(&role.Key, c.Key)
	setString(&role.Model, c.Model)
	if role.Timeout <= 0 {
		role.Timeout = c.Timeout
	}
	if role.Temperature == 0 {
		role.Temperature = c.Temperature
	}
	return role
}

func setString(field *string, def string) {
	if *field == "" {
		*field = def
	}
}

func setInt(field *int, def int) {
	if *field <= 0 {
		*field = def
	}
}

func setInt64(field *int64, def int64) {
	if *field <= 0 {
		*field = def
	}
}

const redacted = "[redacted]"

// Redacted returns a copy of c safe to log: keys, DSNs and URLs that may
// carry credentials are masked.
func (c Config) Redacted() Config {
	mask := func(s *string) {
		if *s != "" {
			*s = redacted
		}
	}
	for _, llm := range []*LLMConfig{
		&c.LLM, &c.EmbedLLM,
		&c.Models.Summarizer, &c.Models.QA, &c.Models.QuestionGen, &c.Models.Explainer, &c.Models.Captioner,
	} {
		mask(&llm.Key)
	}
	mask(&c.Database.DSN)
	mask(&c.Redis.URL)
	mask(&c.VectorDB.EncryptionKey)
	return c
}
