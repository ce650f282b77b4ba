package keywords

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"study-assistant/internal/apperrors"
	"study-assistant/internal/embedding"

	"github.com/rs/zerolog/log"
)

// tokenRe keeps words of two or more letters or digits.
var tokenRe = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// Keyword is a candidate phrase and its similarity to the whole document.
type Keyword struct {
	Phrase string  `json:"phrase"`
	Score  float32 `json:"score"`
}

// Extractor ranks the one and two word phrases of a document by how close
// their embeddings are to the embedding of the document itself.
type Extractor struct {
	embedder      embedding.Embedder
	maxCandidates int
}

func NewExtractor(embedder embedding.Embedder, maxCandidates int) *Extractor {
	return &Extractor{embedder: embedder, maxCandidates: maxCandidates}
}

// Extract returns up to topN lower-cased phrases, best first.
func (e *Extractor) Extract(ctx context.Context, text string, topN int) ([]Keyword, error) {
	candidates := Candidates(text, e.maxCandidates)
	if len(candidates) == 0 || topN <= 0 {
		return nil, nil
	}

	docVec, err := e.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, apperrors.InferenceFailure("embed document", err)
	}
	vectors, err := e.embedder.EmbedDocuments(ctx, candidates)
	if err != nil {
		return nil, apperrors.InferenceFailure("embed candidates", err)
	}
	if len(vectors) != len(candidates) {
		return nil, apperrors.InferenceFailure("embed candidates",
			fmt.Errorf("got %d vectors for %d candidates", len(vectors), len(candidates)))
	}

	ranked := make([]Keyword, len(candidates))
	for i, c := range candidates {
		ranked[i] = Keyword{Phrase: c, Score: embedding.Cosine(docVec, vectors[i])}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })

	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	log.Debug().Int("candidates", len(candidates)).Int("kept", len(ranked)).Msg("Keywords extracted")
	return ranked, nil
}

// Phrases extracts keywords and returns only the phrase text.
func (e *Extractor) Phrases(ctx context.Context, text string, topN int) ([]string, error) {
	kws, err := e.Extract(ctx, text, topN)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(kws))
	for i, kw := range kws {
		out[i] = kw.Phrase
	}
	return out, nil
}

// Candidates lists the distinct unigrams and bigrams of text after stop word
// removal, most frequent first with ties in order of first appearance. At
// most limit phrases are returned when limit is positive.
func Candidates(text string, limit int) []string {
	var tokens []string
	for _, tok := range tokenRe.FindAllString(strings.ToLower(text), -1) {
		if !IsStopWord(tok) {
			tokens = append(tokens, tok)
		}
	}

	counts := make(map[string]int)
	var order []string
	add := func(phrase string) {
		if _, seen := counts[phrase]; !seen {
			order = append(order, phrase)
		}
		counts[phrase]++
	}
	for i, tok := range tokens {
		add(tok)
		if i+1 < len(tokens) {
			add(tok + " " + tokens[i+1])
		}
	}

	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	if limit > 0 && len(order) > limit {
		order = order[:limit]
	}
	return order
}
