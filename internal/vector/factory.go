package vector

import "fmt"

// IndexType selects the vector index backend.
type IndexType string

const (
	// IndexTypeMemory uses in-memory brute-force search. Good for small corpora (<10k vectors).
	IndexTypeMemory IndexType = "memory"
	// IndexTypeFAISS uses FAISS for ANN search at scale.
	// Requires the FAISS C library and building with -tags=faiss.
	IndexTypeFAISS IndexType = "faiss"
)

// NewVectorIndex creates a vector index of the specified type.
// Supported types: "memory" (default), "faiss".
func NewVectorIndex(indexType string, dimensions int) (VectorIndex, error) {
	switch IndexType(indexType) {
	case IndexTypeMemory, "":
		return NewMemoryIndex(dimensions)
	case IndexTypeFAISS:
		return NewFAISSIndex(dimensions)
	default:
		return nil, fmt.Errorf("unknown index type: %s (supported: memory, faiss)", indexType)
	}
}

// IsFAISSAvailable reports whether FAISS support is compiled in
// (build tag -tags=faiss with CGO enabled).
func IsFAISSAvailable() bool {
	idx, err := NewFAISSIndex(1)
	if err != nil {
		return false
	}
	_ = idx.Close()
	return true
}
