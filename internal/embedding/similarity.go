package embedding

import (
	"gonum.org/v1/gonum/blas/gonum"
)

var gonumEngine = gonum.Implementation{}

// Cosine returns the cosine similarity of a and b. Mismatched lengths and
// zero vectors score 0.
func Cosine(a, b []float32) float32 {
	n := len(a)
	if n == 0 || n != len(b) {
		return 0
	}
	na := gonumEngine.Snrm2(n, a, 1)
	nb := gonumEngine.Snrm2(n, b, 1)
	if na == 0 || nb == 0 {
		return 0
	}
	return gonumEngine.Sdot(n, a, 1, b, 1) / (na * nb)
}

// ArgMax returns the index of the vector in candidates most similar to query.
// Ties keep the earliest index. Returns -1 when candidates is empty.
func ArgMax(query []float32, candidates [][]float32) (int, float32) {
	best, bestScore := -1, float32(0)
	for i, c := range candidates {
		score := Cosine(query, c)
		if best == -1 || score > bestScore {
			best, bestScore = i, score
		}
	}
	return best, bestScore
}
