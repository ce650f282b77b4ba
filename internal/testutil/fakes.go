// Package testutil holds deterministic stand-ins for the model clients.
package testutil

import (
	"context"
	"errors"
	"strings"
	"sync"
	"unicode"
)

const embedDims = 512

// BagOfWords embeds text as word counts over a vocabulary that grows as new
// words are seen. Identical inputs always map to identical vectors.
type BagOfWords struct {
	mu    sync.Mutex
	vocab map[string]int
	Err   error
	Calls int
}

func NewBagOfWords() *BagOfWords {
	return &BagOfWords{vocab: make(map[string]int)}
}

func (b *BagOfWords) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		v, err := b.EmbedQuery(ctx, t)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (b *BagOfWords) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Calls++
	if b.Err != nil {
		return nil, b.Err
	}

	v := make([]float32, embedDims)
	for _, w := range Tokens(text) {
		idx, ok := b.vocab[w]
		if !ok {
			idx = len(b.vocab) % embedDims
			b.vocab[w] = idx
		}
		v[idx]++
	}
	return v, nil
}

// Tokens lower-cases text and splits it on anything but letters and digits.
func Tokens(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Generator answers prompts with Reply, or with the result of Fn when set.
type Generator struct {
	mu      sync.Mutex
	Reply   string
	Err     error
	Fn      func(prompt string) (string, error)
	Prompts []string
	Tokens  []int
}

func (g *Generator) Generate(_ context.Context, prompt string, maxTokens int) (string, error) {
	g.mu.Lock()
	g.Prompts = append(g.Prompts, prompt)
	g.Tokens = append(g.Tokens, maxTokens)
	g.mu.Unlock()

	if g.Err != nil {
		return "", g.Err
	}
	if g.Fn != nil {
		return g.Fn(prompt)
	}
	return g.Reply, nil
}

// Vision is a captioner fake.
type Vision struct {
	Generator
	MIME  string
	Image []byte
}

func (v *Vision) GenerateWithImage(ctx context.Context, prompt, mimeType string, image []byte, maxTokens int) (string, error) {
	v.MIME, v.Image = mimeType, image
	return v.Generate(ctx, prompt, maxTokens)
}

var ErrModelDown = errors.New("model endpoint unreachable")
