// Package retrieval turns index hits into user-facing answers. The primary
// path quotes the best-matching record above a similarity threshold; a
// keyword fallback over generated question-answer pairs catches queries the
// vector path cannot place.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/hyperjump/tenmon/internal/config"
	"github.com/hyperjump/tenmon/internal/models"
	"github.com/hyperjump/tenmon/pkg/utils"
)

// ErrNoMatch is returned when neither the vector path nor the keyword
// fallback produces an answer.
var ErrNoMatch = errors.New("no matching answer")

// Searcher is the slice of the embedding index the generator needs.
type Searcher interface {
	Search(ctx context.Context, query string, topK int) []models.SimilarityResult
	Size() int
}

// Generator answers queries against the index and the knowledge base.
type Generator struct {
	index  Searcher
	cfg    config.RetrievalConfig
	logger *zap.Logger

	mu    sync.RWMutex
	pairs []models.QAPair
}

// NewGenerator creates a generator over index with the given answer policy.
// A nil index disables the vector path; the keyword fallback still works.
func NewGenerator(index Searcher, cfg config.RetrievalConfig, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{index: index, cfg: cfg, logger: logger}
}

// Answer resolves query to a RetrievalAnswer. The vector path wins when the
// top hit's similarity strictly exceeds the acceptance threshold; confidence
// is the boosted, capped similarity. Otherwise the keyword fallback matches
// query words against knowledge-base questions by Jaccard overlap. Returns
// ErrNoMatch when both paths come up empty.
func (g *Generator) Answer(ctx context.Context, query string) (*models.RetrievalAnswer, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("empty query")
	}

	if g.index != nil {
		results := g.index.Search(ctx, query, g.cfg.TopK)
		if len(results) > 0 && results[0].Score > g.cfg.SimilarityThreshold {
			doc := results[0].Document
			text := fmt.Sprintf("Based on trained model data (similarity: %.2f):\n\n%s\n\nSource: %s",
				results[0].Score, doc.Record.Text, doc.Record.Source)
			return &models.RetrievalAnswer{
				Text:              text,
				Confidence:        math.Min(results[0].Score+g.cfg.ConfidenceBoost, g.cfg.ConfidenceCap),
				Source:            doc.Record.Source,
				MatchedSimilarity: results[0].Score,
			}, nil
		}
	}

	if pair, score, ok := g.keywordMatch(query); ok {
		g.logger.Debug("answered via keyword fallback",
			zap.Float64("score", score),
			zap.String("kind", pair.Kind))
		return &models.RetrievalAnswer{
			Text:              fmt.Sprintf("%s\n\nSource: %s", pair.Answer, pair.Source),
			Confidence:        score,
			Source:            pair.Source,
			MatchedSimilarity: score,
		}, nil
	}

	return nil, ErrNoMatch
}

// keywordMatch finds the knowledge-base question with the highest Jaccard
// word overlap against query. Matches at or below the keyword threshold are
// rejected.
func (g *Generator) keywordMatch(query string) (models.QAPair, float64, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	queryWords := utils.WordSet(query)
	var best models.QAPair
	bestScore := 0.0
	for _, pair := range g.pairs {
		score := utils.Jaccard(queryWords, utils.WordSet(pair.Question))
		if score > bestScore {
			bestScore = score
			best = pair
		}
	}
	if bestScore > g.cfg.KeywordThreshold {
		return best, bestScore, true
	}
	return models.QAPair{}, 0, false
}

// SetKnowledgeBase replaces the fallback question-answer pairs.
func (g *Generator) SetKnowledgeBase(pairs []models.QAPair) {
	g.mu.Lock()
	g.pairs = pairs
	g.mu.Unlock()
}

// KnowledgeBaseSize returns the number of loaded question-answer pairs.
func (g *Generator) KnowledgeBaseSize() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.pairs)
}

// ReloadKnowledgeBase reads the persisted knowledge base from dir and
// installs it. On failure the currently loaded pairs keep serving.
func (g *Generator) ReloadKnowledgeBase(dir string) error {
	pairs, err := LoadKnowledgeBase(dir)
	if err != nil {
		return err
	}
	g.SetKnowledgeBase(pairs)
	return nil
}
