// Package knowledge provides the tiered retrieval index over normalized
// records: one vector per record text, searched by inner product, with the
// vectorizer capability degrading from a semantic model down to TF-IDF.
package knowledge

import (
	"context"

	"github.com/hyperjump/tenmon/internal/embedding"
)

// Vectorizer kinds recorded in the index manifest. Artifacts written by one
// kind cannot be served by an instance of the other.
const (
	VectorizerSemantic = "semantic"
	VectorizerTFIDF    = "tfidf"
)

// Vectorizer turns record text into fixed-dimension unit vectors. Fit runs
// once over the corpus at build time; query-time vectorization must agree
// with the fitted state.
type Vectorizer interface {
	Kind() string
	Fit(texts []string) error
	Vectorize(ctx context.Context, text string) ([]float32, error)
	VectorizeBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}

// SemanticVectorizer adapts a sentence embedder to the Vectorizer interface.
type SemanticVectorizer struct {
	embedder embedding.Embedder
}

// NewSemanticVectorizer wraps a sentence embedder.
func NewSemanticVectorizer(embedder embedding.Embedder) *SemanticVectorizer {
	return &SemanticVectorizer{embedder: embedder}
}

// Kind returns "semantic".
func (v *SemanticVectorizer) Kind() string {
	return VectorizerSemantic
}

// Fit is a no-op; the embedding model is pre-trained.
func (v *SemanticVectorizer) Fit(texts []string) error {
	return nil
}

// Vectorize embeds a single text.
func (v *SemanticVectorizer) Vectorize(ctx context.Context, text string) ([]float32, error) {
	return v.embedder.Embed(ctx, text)
}

// VectorizeBatch embeds a batch of texts.
func (v *SemanticVectorizer) VectorizeBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return v.embedder.EmbedBatch(ctx, texts)
}

// Dimensions returns the embedding dimension.
func (v *SemanticVectorizer) Dimensions() int {
	return v.embedder.Dimensions()
}

// Close releases the underlying embedder.
func (v *SemanticVectorizer) Close() error {
	return v.embedder.Close()
}
