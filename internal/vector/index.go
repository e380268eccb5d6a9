// Package vector provides similarity search over a row-ordered embedding
// matrix. Hits are reported by row position; callers join positions back to
// their own metadata, so insertion order is the contract.
package vector

import "context"

// VectorIndex defines vector storage and similarity search. Vectors are
// addressed by insertion position, starting at 0.
type VectorIndex interface {
	Add(ctx context.Context, vectors [][]float32) error
	Search(ctx context.Context, query []float32, k int) ([]*VectorResult, error)
	Size() int
	Close() error
}

// VectorResult is a single search hit. Position is the row number of the
// matching vector in insertion order.
type VectorResult struct {
	Position int
	Score    float64 // inner product; cosine similarity for normalized vectors
}
