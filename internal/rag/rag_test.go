package rag

import (
	"context"
	"strings"
	"testing"

	"study-assistant/internal/apperrors"
	"study-assistant/internal/config"
	"study-assistant/internal/models"
	"study-assistant/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkTextReconstructs(t *testing.T) {
	texts := []string{
		"",
		"One sentence only",
		"Berlin is in Germany. The capital of France is Paris. Rome is old",
		"A. B. . C",
		strings.Repeat("word ", 400) + ". tail",
	}
	for _, text := range texts {
		chunks := ChunkText(text, 5)
		require.NotEmpty(t, chunks)
		assert.Equal(t, text, strings.Join(Contents(chunks), ". "))
	}
}

func TestChunkTextWordBudget(t *testing.T) {
	text := "Berlin is in Germany. The capital of France is Paris. Rome is old"
	chunks := ChunkText(text, 5)
	require.Len(t, chunks, 3)
	assert.Equal(t, "Berlin is in Germany", chunks[0].Content)
	assert.Equal(t, "The capital of France is Paris", chunks[1].Content)
	assert.Equal(t, "Rome is old", chunks[2].Content)
	for i, c := range chunks {
		assert.Equal(t, i+1, c.ChunkID)
	}

	chunks = ChunkText(text, 150)
	require.Len(t, chunks, 1)
	assert.Equal(t, 13, chunks[0].WordCount)
}

func TestChunkTextLongSentenceStandsAlone(t *testing.T) {
	long := strings.TrimSpace(strings.Repeat("x ", 20))
	chunks := ChunkText("short one. "+long+". short two", 10)
	require.Len(t, chunks, 3)
	assert.Equal(t, long, chunks[1].Content)
	assert.Equal(t, 20, chunks[1].WordCount)
}

func TestChunkTextEmpty(t *testing.T) {
	chunks := ChunkText("", 150)
	require.Len(t, chunks, 1)
	assert.Equal(t, "", chunks[0].Content)
}

func newTestRAG(qa *testutil.Generator) *RAG {
	return NewRAG(testutil.NewBagOfWords(), qa, config.RAGConfig{MaxChunkTokens: 5})
}

func TestAnswerEndToEnd(t *testing.T) {
	qa := &testutil.Generator{Reply: "Paris."}
	r := NewRAG(testutil.NewBagOfWords(), qa, config.RAGConfig{MaxChunkTokens: 150, AnswerMaxTokens: 32})

	answer, err := r.Answer(context.Background(), "The capital of France is Paris.", "What is the capital of France?")
	require.NoError(t, err)
	assert.Equal(t, "The capital of France is Paris.", answer.Context)
	assert.Equal(t, "Paris", answer.Answer)

	require.Len(t, qa.Prompts, 1)
	assert.Equal(t, []int{32}, qa.Tokens)
	assert.Contains(t, qa.Prompts[0], "The capital of France is Paris.")
	assert.Contains(t, qa.Prompts[0], "What is the capital of France?")
}

func TestSelectContextPicksMostSimilarChunk(t *testing.T) {
	r := newTestRAG(&testutil.Generator{})
	chunks := r.Chunk("Berlin is in Germany. The capital of France is Paris. Rome is old")

	first, _, err := r.SelectContext(context.Background(), "What is the capital of France?", chunks)
	require.NoError(t, err)
	assert.Equal(t, 2, first.ChunkID)

	for i := 0; i < 5; i++ {
		again, _, err := r.SelectContext(context.Background(), "What is the capital of France?", chunks)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestAnswerNotInContext(t *testing.T) {
	qa := &testutil.Generator{Reply: "Madrid"}
	r := newTestRAG(qa)

	answer, err := r.Answer(context.Background(), "The capital of France is Paris.", "What is the capital of France?")
	require.NoError(t, err)
	assert.Equal(t, models.NoAnswer, answer.Answer)
}

func TestAnswerBlankDocument(t *testing.T) {
	qa := &testutil.Generator{Reply: "anything"}
	r := newTestRAG(qa)

	answer, err := r.Answer(context.Background(), "   ", "What?")
	require.NoError(t, err)
	assert.Equal(t, models.NoAnswer, answer.Answer)
	assert.Empty(t, qa.Prompts)
}

func TestAnswerErrors(t *testing.T) {
	r := newTestRAG(&testutil.Generator{})
	_, err := r.Answer(context.Background(), "text", "  ")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	embedder := testutil.NewBagOfWords()
	embedder.Err = testutil.ErrModelDown
	r = NewRAG(embedder, &testutil.Generator{}, config.RAGConfig{MaxChunkTokens: 150})
	_, err = r.Answer(context.Background(), "text", "question")
	assert.ErrorIs(t, err, apperrors.ErrInferenceFailure)
}

func TestExtractSpan(t *testing.T) {
	ctx := "The capital of France is Paris."
	assert.Equal(t, "Paris", ExtractSpan(ctx, "paris"))
	assert.Equal(t, "Paris", ExtractSpan(ctx, " \"Paris.\" "))
	assert.Equal(t, "Paris", ExtractSpan(ctx, "Answer: Paris"))
	assert.Equal(t, "capital of France", ExtractSpan(ctx, "Capital of france"))
	assert.Equal(t, models.NoAnswer, ExtractSpan(ctx, ""))
	assert.Equal(t, models.NoAnswer, ExtractSpan(ctx, "No answer."))
	assert.Equal(t, models.NoAnswer, ExtractSpan(ctx, "Lyon"))
}
