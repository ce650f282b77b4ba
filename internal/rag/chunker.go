package rag

import (
	"strings"

	"study-assistant/internal/helper"
	"study-assistant/internal/models"
)

// ChunkText splits text on ". " and packs consecutive sentences into chunks
// whose word count stays under maxTokens. A sentence longer than the budget
// becomes a chunk of its own. Joining the chunk contents with ". " gives back
// text unchanged, and the result always holds at least one chunk.
func ChunkText(text string, maxTokens int) []models.Chunk {
	sentences := strings.Split(text, models.SentenceSeparator)

	var chunks []models.Chunk
	var current []string
	words := 0
	flush := func() {
		chunks = append(chunks, models.Chunk{
			Content:   strings.Join(current, models.SentenceSeparator),
			ChunkID:   len(chunks) + 1,
			WordCount: words,
		})
	}

	for _, sentence := range sentences {
		n := helper.CountWords(sentence)
		if len(current) > 0 && words+n >= maxTokens {
			flush()
			current, words = nil, 0
		}
		current = append(current, sentence)
		words += n
	}
	flush()

	return chunks
}

// Contents returns the text of each chunk in order.
func Contents(chunks []models.Chunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Content
	}
	return out
}
