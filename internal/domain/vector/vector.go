// Package vector holds the similarity math shared by the embedding adapters and the ranker.
package vector

import (
	"fmt"
	"math"

	"github.com/kailas-cloud/hybridrag/internal/domain"
)

// Cosine returns dot(a,b) / (|a| * |b|), clamped to [-1, 1].
// Fails with domain.ErrVectorDimMismatch on length mismatch or empty input
// and with domain.ErrZeroVector when either vector has zero norm.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d != %d", domain.ErrVectorDimMismatch, len(a), len(b))
	}
	if len(a) == 0 {
		return 0, fmt.Errorf("%w: empty vectors", domain.ErrVectorDimMismatch)
	}

	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0, domain.ErrZeroVector
	}

	// sqrt(na*nb) rather than sqrt(na)*sqrt(nb): for a == b this yields exactly 1.
	s := dot / math.Sqrt(na*nb)
	if math.IsNaN(s) || math.IsInf(s, 0) {
		return 0, fmt.Errorf("%w: non-finite similarity", domain.ErrZeroVector)
	}
	return math.Max(-1, math.Min(1, s)), nil
}

// Norm returns the L2 norm of v.
func Norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// Normalize returns a unit-length copy of v.
func Normalize(v []float32) ([]float32, error) {
	n := Norm(v)
	if n == 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return nil, domain.ErrZeroVector
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / n)
	}
	return out, nil
}
