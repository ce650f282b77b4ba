package embedding

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float32{1, 2, 3}, []float32{2, 4, 6}), 1e-6)
	assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-6)
	assert.InDelta(t, -1.0, Cosine([]float32{1, 1}, []float32{-1, -1}), 1e-6)
	assert.Equal(t, float32(0), Cosine([]float32{0, 0}, []float32{1, 1}))
	assert.Equal(t, float32(0), Cosine([]float32{1}, []float32{1, 1}))
	assert.Equal(t, float32(0), Cosine(nil, nil))
}

func TestArgMaxKeepsFirstOnTie(t *testing.T) {
	query := []float32{1, 0}
	candidates := [][]float32{{0, 1}, {2, 0}, {5, 0}}

	idx, score := ArgMax(query, candidates)
	assert.Equal(t, 1, idx)
	assert.InDelta(t, 1.0, score, 1e-6)

	idx, _ = ArgMax(query, nil)
	assert.Equal(t, -1, idx)
}
