package knowledge

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/tenmon/internal/config"
	"github.com/hyperjump/tenmon/internal/embedding"
	"github.com/hyperjump/tenmon/internal/models"
	"github.com/hyperjump/tenmon/internal/vector"
)

// Tier identifies the active similarity capability, best first.
type Tier string

const (
	// TierSemanticANN is a semantic embedder over a FAISS index.
	TierSemanticANN Tier = "semantic-ann"
	// TierSemanticLinear is a semantic embedder over a brute-force scan.
	TierSemanticLinear Tier = "semantic-linear"
	// TierTFIDF is lexical TF-IDF over a brute-force scan.
	TierTFIDF Tier = "tfidf"
)

// Index is the retrieval index over normalized records. A build produces an
// immutable snapshot (documents, vector index, and the vectorizer fitted to
// that corpus) that is swapped in atomically, so searches always see a
// complete, self-consistent corpus. The capability tier is fixed at
// construction.
type Index struct {
	vectorizer Vectorizer // capability prototype, never fitted in place
	vectorType string
	dir        string
	tier       Tier
	logger     *zap.Logger

	mu   sync.RWMutex
	snap *snapshot
}

type snapshot struct {
	docs       []models.EmbeddingDocument
	vectors    vector.VectorIndex // nil when the snapshot is empty
	vectorizer Vectorizer         // vectorizes queries against this corpus
	matrix     [][]float32
	dims       int
	createdAt  time.Time
}

// Stats summarizes the current snapshot for status reporting.
type Stats struct {
	TotalDocuments     int       `json:"total_documents"`
	EmbeddingDimension int       `json:"embedding_dimension"`
	Tier               string    `json:"tier"`
	FAISSAvailable     bool      `json:"faiss_available"`
	IndexReady         bool      `json:"index_ready"`
	CreatedAt          time.Time `json:"created_at,omitempty"`
}

// NewIndex builds an index at the best capability the configuration and
// build permit. An unavailable ONNX runtime demotes to TF-IDF; a missing
// FAISS build demotes ANN to linear scan. Demotions log a warning and the
// service keeps running.
func NewIndex(cfg *config.Config, logger *zap.Logger) *Index {
	if logger == nil {
		logger = zap.NewNop()
	}
	var vz Vectorizer
	switch cfg.Embedding.Provider {
	case "onnx":
		emb, err := embedding.NewONNXEmbedder(cfg.Embedding.ModelPath, cfg.Embedding.Dimensions, cfg.Embedding.MaxTokens, cfg.Embedding.CacheSize)
		if err != nil {
			logger.Warn("semantic embedder unavailable, falling back to TF-IDF", zap.Error(err))
			vz = NewTFIDFVectorizer()
		} else {
			vz = NewSemanticVectorizer(emb)
		}
	case "mock":
		vz = NewSemanticVectorizer(embedding.NewMockEmbedder(cfg.Embedding.Dimensions))
	case "none", "tfidf":
		vz = NewTFIDFVectorizer()
	default:
		logger.Warn("unknown embedding provider, falling back to TF-IDF", zap.String("provider", cfg.Embedding.Provider))
		vz = NewTFIDFVectorizer()
	}
	return NewIndexWith(vz, cfg.Vector.Type, cfg.Storage.IndexDir, logger)
}

// NewIndexWith builds an index with an explicit vectorizer. TF-IDF always
// uses the in-memory scan; a FAISS request without FAISS compiled in
// demotes to the scan as well.
func NewIndexWith(vz Vectorizer, vectorType, dir string, logger *zap.Logger) *Index {
	if logger == nil {
		logger = zap.NewNop()
	}
	tier := TierTFIDF
	if vz.Kind() == VectorizerSemantic {
		tier = TierSemanticLinear
		if vectorType == string(vector.IndexTypeFAISS) {
			if vector.IsFAISSAvailable() {
				tier = TierSemanticANN
			} else {
				logger.Warn("FAISS not compiled in, using linear scan")
				vectorType = string(vector.IndexTypeMemory)
			}
		} else {
			vectorType = string(vector.IndexTypeMemory)
		}
	} else {
		vectorType = string(vector.IndexTypeMemory)
	}
	return &Index{
		vectorizer: vz,
		vectorType: vectorType,
		dir:        dir,
		tier:       tier,
		logger:     logger,
	}
}

// Build recomputes the index from records and swaps the new snapshot in.
// TF-IDF is fitted into a fresh vectorizer that joins the snapshot on swap,
// so concurrent searches keep vectorizing against the vocabulary their
// snapshot was built with. The artifact set is persisted afterwards; a
// persistence failure leaves the in-memory snapshot serving and is only
// logged.
func (x *Index) Build(ctx context.Context, records []models.NormalizedRecord) error {
	texts := make([]string, len(records))
	for i, rec := range records {
		texts[i] = rec.Text
	}
	vz := x.vectorizer
	if vz.Kind() == VectorizerTFIDF {
		vz = NewTFIDFVectorizer()
	}
	if err := vz.Fit(texts); err != nil {
		return fmt.Errorf("fit vectorizer: %w", err)
	}

	dims := vz.Dimensions()
	var matrix [][]float32
	var vidx vector.VectorIndex
	if len(records) > 0 && dims > 0 {
		var err error
		matrix, err = vz.VectorizeBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("vectorize corpus: %w", err)
		}
		vidx, err = vector.NewVectorIndex(x.vectorType, dims)
		if err != nil {
			return fmt.Errorf("create vector index: %w", err)
		}
		if err := vidx.Add(ctx, matrix); err != nil {
			vidx.Close()
			return fmt.Errorf("populate vector index: %w", err)
		}
	}

	docs := make([]models.EmbeddingDocument, len(records))
	for i := range records {
		docs[i] = models.EmbeddingDocument{Index: i, Record: records[i]}
		if matrix != nil {
			docs[i].Vector = matrix[i]
		}
	}

	snap := &snapshot{
		docs:       docs,
		vectors:    vidx,
		vectorizer: vz,
		matrix:     matrix,
		dims:       dims,
		createdAt:  time.Now().UTC(),
	}
	x.swap(snap)
	x.logger.Info("embedding index built",
		zap.Int("documents", len(docs)),
		zap.Int("dimensions", dims),
		zap.String("tier", string(x.tier)))

	if err := x.persist(snap); err != nil {
		x.logger.Warn("failed to persist index artifacts", zap.Error(err))
	}
	return nil
}

// Load restores the most recent persisted snapshot. It returns false, with
// the current snapshot untouched, when artifacts are missing, torn, or were
// written by an incompatible vectorizer kind.
func (x *Index) Load() bool {
	set, err := loadArtifacts(x.dir)
	if err != nil {
		x.logger.Warn("no usable index artifacts",
			zap.String("dir", x.dir),
			zap.Error(err))
		return false
	}
	if set.manifest.Vectorizer != x.vectorizer.Kind() {
		x.logger.Warn("index artifacts need a different vectorizer",
			zap.String("artifact", set.manifest.Vectorizer),
			zap.String("capability", x.vectorizer.Kind()))
		return false
	}

	vz := x.vectorizer
	if set.vocab != nil {
		if _, ok := x.vectorizer.(*TFIDFVectorizer); !ok {
			return false
		}
		tv := NewTFIDFVectorizer()
		if err := tv.SetVocabulary(set.vocab.Terms, set.vocab.IDF); err != nil {
			x.logger.Warn("invalid persisted vocabulary", zap.Error(err))
			return false
		}
		vz = tv
	} else if set.manifest.TotalDocuments > 0 && set.manifest.EmbeddingDimension != x.vectorizer.Dimensions() {
		x.logger.Warn("index artifacts have a different embedding dimension",
			zap.Int("artifact", set.manifest.EmbeddingDimension),
			zap.Int("capability", x.vectorizer.Dimensions()))
		return false
	}

	var vidx vector.VectorIndex
	if set.manifest.TotalDocuments > 0 && set.manifest.EmbeddingDimension > 0 {
		var err error
		vidx, err = vector.NewVectorIndex(x.vectorType, set.manifest.EmbeddingDimension)
		if err != nil {
			x.logger.Warn("failed to create vector index", zap.Error(err))
			return false
		}
		if err := vidx.Add(context.Background(), set.matrix); err != nil {
			vidx.Close()
			x.logger.Warn("failed to rebuild vector index", zap.Error(err))
			return false
		}
	}

	docs := make([]models.EmbeddingDocument, len(set.records))
	for i := range set.records {
		docs[i] = models.EmbeddingDocument{Index: i, Record: set.records[i]}
		if i < len(set.matrix) {
			docs[i].Vector = set.matrix[i]
		}
	}

	x.swap(&snapshot{
		docs:       docs,
		vectors:    vidx,
		vectorizer: vz,
		matrix:     set.matrix,
		dims:       set.manifest.EmbeddingDimension,
		createdAt:  set.manifest.CreatedAt,
	})
	x.logger.Info("embedding index loaded",
		zap.Int("documents", len(docs)),
		zap.Int("dimensions", set.manifest.EmbeddingDimension),
		zap.String("tier", string(x.tier)))
	return true
}

// Search returns the top-k documents by similarity to query. It degrades to
// an empty result set, never an error: an empty index, a failed query
// vectorization, or a backend fault all come back as no results.
func (x *Index) Search(ctx context.Context, query string, topK int) []models.SimilarityResult {
	x.mu.RLock()
	defer x.mu.RUnlock()

	snap := x.snap
	if snap == nil || snap.vectors == nil || len(snap.docs) == 0 || topK <= 0 {
		return nil
	}

	qvec, err := snap.vectorizer.Vectorize(ctx, query)
	if err != nil {
		x.logger.Warn("query vectorization failed", zap.Error(err))
		return nil
	}
	if len(qvec) != snap.dims {
		return nil
	}

	hits, err := snap.vectors.Search(ctx, qvec, topK)
	if err != nil {
		x.logger.Warn("vector search failed", zap.Error(err))
		return nil
	}

	results := make([]models.SimilarityResult, 0, len(hits))
	for _, hit := range hits {
		if hit.Position < 0 || hit.Position >= len(snap.docs) {
			continue
		}
		results = append(results, models.SimilarityResult{
			Rank:     len(results) + 1,
			Score:    hit.Score,
			Document: snap.docs[hit.Position],
		})
	}
	return results
}

// Size returns the number of indexed documents.
func (x *Index) Size() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if x.snap == nil {
		return 0
	}
	return len(x.snap.docs)
}

// Dimensions returns the vector dimension of the current snapshot, or the
// vectorizer's dimension when nothing is indexed yet.
func (x *Index) Dimensions() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if x.snap == nil {
		return x.vectorizer.Dimensions()
	}
	return x.snap.dims
}

// Tier returns the capability tier fixed at construction.
func (x *Index) Tier() Tier {
	return x.tier
}

// Stats reports the current snapshot state.
func (x *Index) Stats() Stats {
	x.mu.RLock()
	defer x.mu.RUnlock()
	stats := Stats{
		Tier:           string(x.tier),
		FAISSAvailable: vector.IsFAISSAvailable(),
	}
	if x.snap != nil {
		stats.TotalDocuments = len(x.snap.docs)
		stats.EmbeddingDimension = x.snap.dims
		stats.IndexReady = true
		stats.CreatedAt = x.snap.createdAt
	} else {
		stats.EmbeddingDimension = x.vectorizer.Dimensions()
	}
	return stats
}

// Close releases the snapshot's vector index and the vectorizer.
func (x *Index) Close() error {
	x.mu.Lock()
	snap := x.snap
	x.snap = nil
	x.mu.Unlock()
	if snap != nil && snap.vectors != nil {
		_ = snap.vectors.Close()
	}
	return x.vectorizer.Close()
}

func (x *Index) swap(snap *snapshot) {
	x.mu.Lock()
	old := x.snap
	x.snap = snap
	x.mu.Unlock()
	// No reader can still hold the old snapshot once the write lock was
	// acquired, so its backing index is safe to free.
	if old != nil && old.vectors != nil {
		_ = old.vectors.Close()
	}
}

func (x *Index) persist(snap *snapshot) error {
	manifest := Manifest{
		CreatedAt:          snap.createdAt,
		TotalDocuments:     len(snap.docs),
		EmbeddingDimension: snap.dims,
		Vectorizer:         x.vectorizer.Kind(),
	}
	records := make([]models.NormalizedRecord, len(snap.docs))
	for i, doc := range snap.docs {
		records[i] = doc.Record
	}
	// The row count must always equal the document count, even when the
	// corpus produced no usable vectors.
	matrix := snap.matrix
	if matrix == nil && len(snap.docs) > 0 {
		matrix = make([][]float32, len(snap.docs))
		for i := range matrix {
			matrix[i] = make([]float32, snap.dims)
		}
	}
	var vocab *vocabArtifact
	if tv, ok := snap.vectorizer.(*TFIDFVectorizer); ok {
		terms, idf := tv.Vocabulary()
		vocab = &vocabArtifact{Terms: terms, IDF: idf}
	}
	return saveArtifacts(x.dir, manifest, matrix, records, vocab)
}
