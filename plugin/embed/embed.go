// Package embed provides the deterministic local embedder used to vectorize
// note content. It stands in for a real embedding model so the rebuild
// pipeline and similarity search can run without external ML infrastructure.
package embed

import (
	"context"
	"math"
	"strings"
)

// DefaultDimensions is the width of generated vectors. It must match the
// vector column width in the postgres schema.
const DefaultDimensions = 1536

// Embedder converts note content into a fixed-length vector.
type Embedder interface {
	Embed(ctx context.Context, content string) ([]float32, error)
	Dimensions() int
}

// Local is a pure, deterministic Embedder. Identical content always yields
// bit-identical vectors; no uniqueness guarantee is claimed for distinct content.
type Local struct {
	dimensions int
}

// NewLocal creates a local embedder with the given vector width.
func NewLocal(dimensions int) *Local {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &Local{dimensions: dimensions}
}

func (l *Local) Dimensions() int {
	return l.dimensions
}

func (l *Local) Embed(_ context.Context, content string) ([]float32, error) {
	return BuildVector(content, l.dimensions), nil
}

// BuildVector derives a fixed-length vector from content. Each character is
// hashed into a bucket and accumulated, then the vector is L2-normalized and
// rounded to 6 decimal places for storage compactness and reproducibility.
func BuildVector(content string, dimensions int) []float32 {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	vector := make([]float32, dimensions)

	normalized := strings.ToLower(strings.TrimSpace(content))
	if normalized == "" {
		return vector
	}

	acc := make([]float64, dimensions)
	for position, r := range []rune(normalized) {
		bucket := (int(r)*31 + position*17) % dimensions
		acc[bucket] += float64(int(r)%97) / 100
	}

	var sum float64
	for _, v := range acc {
		sum += v * v
	}
	magnitude := math.Sqrt(sum)
	if magnitude == 0 {
		return vector
	}

	for i, v := range acc {
		vector[i] = float32(math.Round(v/magnitude*1e6) / 1e6)
	}
	return vector
}
