package keywords

import (
	"context"
	"testing"

	"study-assistant/internal/apperrors"
	"study-assistant/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCandidates(t *testing.T) {
	got := Candidates("The cell membrane protects the cell.", 0)
	assert.Equal(t, []string{"cell", "cell membrane", "membrane", "membrane protects", "protects", "protects cell"}, got)

	assert.Len(t, Candidates("alpha beta gamma delta", 3), 3)
	assert.Empty(t, Candidates("the of and a", 0))
}

func TestExtractRanksBySimilarity(t *testing.T) {
	text := "Photosynthesis converts light. Photosynthesis needs chlorophyll. Plants grow."
	ex := NewExtractor(testutil.NewBagOfWords(), 100)

	kws, err := ex.Extract(context.Background(), text, 3)
	require.NoError(t, err)
	require.Len(t, kws, 3)
	// bigrams holding the repeated word sit closest to the document
	assert.Equal(t, "photosynthesis converts", kws[0].Phrase)
	for _, kw := range kws {
		assert.Contains(t, kw.Phrase, "photosynthesis")
	}
	for i := 1; i < len(kws); i++ {
		assert.GreaterOrEqual(t, kws[i-1].Score, kws[i].Score)
	}

	phrases, err := ex.Phrases(context.Background(), text, 50)
	require.NoError(t, err)
	assert.Len(t, phrases, len(Candidates(text, 100)))
}

func TestExtractEmptyAndErrors(t *testing.T) {
	embedder := testutil.NewBagOfWords()
	ex := NewExtractor(embedder, 100)

	kws, err := ex.Extract(context.Background(), "the and of", 5)
	require.NoError(t, err)
	assert.Empty(t, kws)
	assert.Zero(t, embedder.Calls)

	embedder.Err = testutil.ErrModelDown
	_, err = ex.Extract(context.Background(), "real words here", 5)
	assert.ErrorIs(t, err, apperrors.ErrInferenceFailure)
}

func TestSplitSentences(t *testing.T) {
	text := "Dr. Smith studies cells. They divide!  Do they grow?\n\nYes \"they do.\" The end"
	assert.Equal(t, []string{
		"Dr. Smith studies cells.",
		"They divide!",
		"Do they grow?",
		"Yes \"they do.\"",
		"The end",
	}, SplitSentences(text))

	assert.Equal(t, []string{"J. R. Tolkien wrote books."}, SplitSentences("J. R. Tolkien wrote books."))
	assert.Equal(t, []string{"Is the answer no?", "Yes."}, SplitSentences("Is the answer no? Yes."))
	assert.Equal(t, []string{"I said no.", "Then I left."}, SplitSentences("I said no. Then I left."))
	assert.Equal(t, []string{"Oranges contain vitamin C.", "It helps healing."},
		SplitSentences("Oranges contain vitamin C. It helps healing."))
	assert.Equal(t, []string{"See fig. 2 for details."}, SplitSentences("See fig. 2 for details."))
	assert.Equal(t, []string{"Really?!", "Yes."}, SplitSentences("Really?! Yes."))
	assert.Empty(t, SplitSentences("   \n\n  "))
}

func TestIsStopWord(t *testing.T) {
	assert.True(t, IsStopWord("the"))
	assert.False(t, IsStopWord("paris"))
}
