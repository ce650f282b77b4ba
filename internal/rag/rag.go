package rag

import (
	"context"
	"fmt"
	"strings"

	"study-assistant/internal/apperrors"
	"study-assistant/internal/config"
	"study-assistant/internal/embedding"
	"study-assistant/internal/llmservice"
	"study-assistant/internal/models"

	"github.com/rs/zerolog/log"
)

// RAG answers questions about a document from the single chunk most similar
// to the question.
type RAG struct {
	embedder embedding.Embedder
	qa       llmservice.Generator
	cfg      config.RAGConfig
}

func NewRAG(embedder embedding.Embedder, qa llmservice.Generator, cfg config.RAGConfig) *RAG {
	return &RAG{embedder: embedder, qa: qa, cfg: cfg}
}

// Chunk splits text with the configured word budget.
func (r *RAG) Chunk(text string) []models.Chunk {
	return ChunkText(text, r.cfg.MaxChunkTokens)
}

// SelectContext embeds every chunk and the question and returns the chunk
// with the highest cosine similarity. Ties go to the earliest chunk.
func (r *RAG) SelectContext(ctx context.Context, question string, chunks []models.Chunk) (models.Chunk, float32, error) {
	if len(chunks) == 0 {
		return models.Chunk{}, 0, apperrors.EmptyDocument("select context")
	}

	vectors, err := r.embedder.EmbedDocuments(ctx, Contents(chunks))
	if err != nil {
		return models.Chunk{}, 0, apperrors.InferenceFailure("embed chunks", err)
	}
	if len(vectors) != len(chunks) {
		return models.Chunk{}, 0, apperrors.InferenceFailure("embed chunks",
			fmt.Errorf("got %d vectors for %d chunks", len(vectors), len(chunks)))
	}

	query, err := r.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return models.Chunk{}, 0, apperrors.InferenceFailure("embed question", err)
	}

	idx, score := embedding.ArgMax(query, vectors)
	log.Debug().Int("chunk_id", chunks[idx].ChunkID).Float32("similarity", score).Int("chunks", len(chunks)).Msg("Context selected")
	return chunks[idx], score, nil
}

// Answer chunks text, selects the context for question and extracts the
// answer span from it. A reply that is not a span of the context becomes
// models.NoAnswer.
func (r *RAG) Answer(ctx context.Context, text, question string) (*models.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, apperrors.InvalidInput("answer", fmt.Errorf("question is empty"))
	}

	chunk, _, err := r.SelectContext(ctx, question, r.Chunk(text))
	if err != nil {
		return nil, err
	}

	answer := &models.Answer{Question: question, Context: chunk.Content, Answer: models.NoAnswer}
	if strings.TrimSpace(chunk.Content) == "" {
		return answer, nil
	}

	prompt := fmt.Sprintf(models.QAPromptTemplate, models.NoAnswer, chunk.Content, question)
	reply, err := r.qa.Generate(ctx, prompt, r.cfg.AnswerMaxTokens)
	if err != nil {
		return nil, err
	}
	answer.Answer = ExtractSpan(chunk.Content, reply)
	return answer, nil
}

var answerPrefixes = []string{"answer:", "a:"}

// ExtractSpan normalizes a model reply and locates it inside context,
// returning the context's own spelling of the span.
func ExtractSpan(context, reply string) string {
	s := strings.TrimSpace(reply)
	lower := strings.ToLower(s)
	for _, p := range answerPrefixes {
		if strings.HasPrefix(lower, p) {
			s = strings.TrimSpace(s[len(p):])
			break
		}
	}
	s = strings.Trim(s, "\"'`“”‘’")
	s = strings.TrimRight(s, ".,;:!? \t\n")
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, models.NoAnswer) {
		return models.NoAnswer
	}

	lc, ls := strings.ToLower(context), strings.ToLower(s)
	idx := strings.Index(lc, ls)
	if idx < 0 {
		return models.NoAnswer
	}
	if len(lc) != len(context) || len(ls) != len(s) {
		// lowering changed byte offsets, keep the model's spelling
		return s
	}
	return context[idx : idx+len(s)]
}
