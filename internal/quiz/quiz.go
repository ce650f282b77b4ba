package quiz

import (
	"context"
	"math/rand"
	"strings"
	"sync"

	"study-assistant/internal/keywords"
	"study-assistant/internal/models"
)

const (
	maxDistractors   = 3
	keywordsPerItem  = 3
	minSentenceWords = 5
	maxKeywordWords  = 2
)

// KeywordSource returns the topN ranked key phrases of a text.
type KeywordSource interface {
	Phrases(ctx context.Context, text string, topN int) ([]string, error)
}

// Builder turns a document into test items. Option order is drawn from rng,
// so a seeded rng gives reproducible tests.
type Builder struct {
	keywords KeywordSource

	mu  sync.Mutex
	rng *rand.Rand
}

func NewBuilder(kw KeywordSource, rng *rand.Rand) *Builder {
	return &Builder{keywords: kw, rng: rng}
}

// GenerateTest builds mcqCount multiple-choice and blankCount fill-in items.
// Keywords are extracted once and shared by both kinds.
func (b *Builder) GenerateTest(ctx context.Context, text string, mcqCount, blankCount int) (*models.Test, error) {
	phrases, err := b.keywords.Phrases(ctx, text, max(mcqCount, blankCount)*keywordsPerItem)
	if err != nil {
		return nil, err
	}
	sentences := keywords.SplitSentences(text)

	return &models.Test{
		MCQs:   b.buildMCQs(sentences, quizKeywords(phrases, mcqCount*keywordsPerItem), mcqCount),
		Blanks: buildBlanks(sentences, quizKeywords(phrases, blankCount*keywordsPerItem), blankCount),
	}, nil
}

func (b *Builder) GenerateMCQs(ctx context.Context, text string, count int) ([]models.QuizItem, error) {
	phrases, err := b.keywords.Phrases(ctx, text, count*keywordsPerItem)
	if err != nil {
		return nil, err
	}
	return b.buildMCQs(keywords.SplitSentences(text), quizKeywords(phrases, len(phrases)), count), nil
}

func (b *Builder) GenerateBlanks(ctx context.Context, text string, count int) ([]models.BlankItem, error) {
	phrases, err := b.keywords.Phrases(ctx, text, count*keywordsPerItem)
	if err != nil {
		return nil, err
	}
	return buildBlanks(keywords.SplitSentences(text), quizKeywords(phrases, len(phrases)), count), nil
}

// quizKeywords keeps the first topN phrases that are not stop words and have
// at most two words.
func quizKeywords(phrases []string, topN int) []string {
	if topN < len(phrases) {
		phrases = phrases[:topN]
	}
	out := make([]string, 0, len(phrases))
	for _, p := range phrases {
		if keywords.IsStopWord(strings.ToLower(p)) || len(strings.Fields(p)) > maxKeywordWords {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (b *Builder) buildMCQs(sentences, kws []string, count int) []models.QuizItem {
	var items []models.QuizItem
	if count <= 0 {
		return items
	}
	used := make(map[string]bool)

	for _, kw := range kws {
		if used[strings.ToLower(kw)] {
			continue
		}
		for _, sentence := range sentences {
			if !strings.Contains(sentence, kw) || len(strings.Fields(sentence)) <= minSentenceWords {
				continue
			}
			items = append(items, models.QuizItem{
				Question: strings.TrimSpace(strings.ReplaceAll(sentence, kw, models.Blank)),
				Options:  b.options(kw, kws),
				Answer:   kw,
			})
			used[strings.ToLower(kw)] = true
			break
		}
		if len(items) >= count {
			break
		}
	}
	return items
}

// options samples up to three distractors and shuffles them with answer.
// A distractor is any other keyword that is not part of the answer.
func (b *Builder) options(answer string, kws []string) []string {
	seen := map[string]bool{answer: true}
	var distractors []string
	lowerAnswer := strings.ToLower(answer)
	for _, kw := range kws {
		if seen[kw] || strings.Contains(lowerAnswer, strings.ToLower(kw)) {
			continue
		}
		seen[kw] = true
		distractors = append(distractors, kw)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	n := min(maxDistractors, len(distractors))
	options := make([]string, 0, n+1)
	for _, i := range b.rng.Perm(len(distractors))[:n] {
		options = append(options, distractors[i])
	}
	options = append(options, answer)
	b.rng.Shuffle(len(options), func(i, j int) { options[i], options[j] = options[j], options[i] })
	return options
}

func buildBlanks(sentences, kws []string, count int) []models.BlankItem {
	var items []models.BlankItem
	if count <= 0 {
		return items
	}
	used := make(map[string]bool)

	for _, sentence := range sentences {
		for _, kw := range kws {
			if !strings.Contains(sentence, kw) || used[strings.ToLower(kw)] {
				continue
			}
			items = append(items, models.BlankItem{
				Question: strings.TrimSpace(strings.ReplaceAll(sentence, kw, models.Blank)),
				Answer:   kw,
			})
			used[strings.ToLower(kw)] = true
			break
		}
		if len(items) >= count {
			break
		}
	}
	return items
}
