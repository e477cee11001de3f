// Package ai wraps the external text-generation and embedding capabilities.
//
// The game core only sees the two interfaces below; concrete clients talk to
// an OpenAI-compatible API (primary) and the Anthropic messages API
// (fallback). No provider SDK — just JSON over HTTP.
package ai

import (
	"context"
	"math"
)

// TextGenerator produces free text for a single instruction payload.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// Embedder turns text into a vector. A nil vector with a nil error means the
// capability is not configured; callers must fall back, not fail.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// NoopEmbedder is the "unavailable" embedder used when no embedding provider
// is configured.
type NoopEmbedder struct{}

func (NoopEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	return nil, nil
}

// Cosine returns the cosine similarity of two equal-length vectors.
// Returns 0 for empty or mismatched inputs.
func Cosine(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
