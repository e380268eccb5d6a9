// Package catalog maintains a keyword-searchable Bleve index over normalized
// records, with spelling suggestions drawn from the index's term dictionary.
package catalog

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	blevequery "github.com/blevesearch/bleve/v2/search/query"
	"go.uber.org/zap"

	"github.com/hyperjump/tenmon/internal/models"
)

// catalogDoc is the indexed shape of a normalized record. Text is analyzed;
// type and source are keyword fields so filters match exact values.
type catalogDoc struct {
	Type   string `json:"type"`
	Source string `json:"source"`
	Text   string `json:"text"`
}

// Catalog is a Bleve-backed keyword index of normalized records.
type Catalog struct {
	index  bleve.Index
	logger *zap.Logger
}

// New creates or opens a catalog index at path. An existing index is opened
// and reused; remove the directory to force a rebuild after mapping changes.
func New(path string, logger *zap.Logger) (*Catalog, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("open catalog index: %w", openErr)
		}
		return &Catalog{index: index, logger: logger}, nil
	}

	im := bleve.NewIndexMapping()
	doc := bleve.NewDocumentMapping()
	textField := bleve.NewTextFieldMapping()
	// Standard analyzer (lowercase + tokenize, no stemming) so a query like
	// "curiosity" matches the indexed word exactly; the English analyzer
	// stems terms into forms raw query words no longer hit.
	textField.Analyzer = standard.Name
	doc.AddFieldMappingsAt("text", textField)
	keywordField := bleve.NewKeywordFieldMapping()
	doc.AddFieldMappingsAt("type", keywordField)
	doc.AddFieldMappingsAt("source", keywordField)
	im.AddDocumentMapping("record", doc)
	im.DefaultType = "record"
	im.DefaultMapping = doc

	index, err := bleve.New(path, im)
	if err != nil {
		return nil, fmt.Errorf("create catalog index: %w", err)
	}
	return &Catalog{index: index, logger: logger}, nil
}

// Index adds or replaces one record.
func (c *Catalog) Index(_ context.Context, rec models.NormalizedRecord) error {
	return c.index.Index(rec.ID, catalogDoc{Type: rec.Type, Source: rec.Source, Text: rec.Text})
}

// IndexBatch adds or replaces records in one batch.
func (c *Catalog) IndexBatch(_ context.Context, records []models.NormalizedRecord) error {
	if len(records) == 0 {
		return nil
	}
	batch := c.index.NewBatch()
	for _, rec := range records {
		if err := batch.Index(rec.ID, catalogDoc{Type: rec.Type, Source: rec.Source, Text: rec.Text}); err != nil {
			return fmt.Errorf("batch record %s: %w", rec.ID, err)
		}
	}
	if err := c.index.Batch(batch); err != nil {
		return fmt.Errorf("apply catalog batch: %w", err)
	}
	c.logger.Debug("catalog batch indexed", zap.Int("records", len(records)))
	return nil
}

// Delete removes a record by id.
func (c *Catalog) Delete(_ context.Context, id string) error {
	return c.index.Delete(id)
}

// Search runs a match query over record text, optionally filtered by record
// type. Multi-term queries are re-ranked by term coverage so records missing
// query terms sink below records matching all of them. When nothing matches,
// the response carries spelling suggestions for near-miss terms.
func (c *Catalog) Search(ctx context.Context, q models.CatalogQuery) (*models.CatalogResponse, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()

	match := bleve.NewMatchQuery(q.Query)
	match.SetField("text")
	var root blevequery.Query = match
	if q.Type != "" {
		tq := bleve.NewTermQuery(q.Type)
		tq.SetField("type")
		root = bleve.NewConjunctionQuery(match, tq)
	}

	// Request more than the limit so coverage re-ranking sees enough
	// candidates before truncation.
	reqSize := q.Limit * 2
	if reqSize < 50 {
		reqSize = 50
	}
	req := bleve.NewSearchRequestOptions(root, reqSize, 0, false)
	req.Fields = []string{"type", "source", "text"}
	req.Highlight = bleve.NewHighlight()
	req.Highlight.Fields = []string{"text"}

	res, err := c.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("catalog search: %w", err)
	}

	terms := queryTerms(q.Query)
	coverage := map[string]int{}
	if len(terms) > 1 {
		coverage = c.termCoverage(ctx, terms, reqSize)
	}

	hits := make([]*models.CatalogHit, 0, len(res.Hits))
	for _, hit := range res.Hits {
		score := hit.Score
		if len(terms) > 1 {
			matched := coverage[hit.ID]
			if matched == 0 {
				matched = 1
			}
			// Squared coverage penalizes partial matches hard: a record
			// hitting 1 of 2 terms keeps only a quarter of its score.
			frac := float64(matched) / float64(len(terms))
			score *= frac * frac
		}
		hits = append(hits, &models.CatalogHit{
			ID:         hit.ID,
			Type:       fieldString(hit.Fields, "type"),
			Source:     fieldString(hit.Fields, "source"),
			Score:      score,
			Text:       fieldString(hit.Fields, "text"),
			Highlights: hit.Fragments,
		})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > q.Limit {
		hits = hits[:q.Limit]
	}
	for i, hit := range hits {
		hit.Rank = i + 1
	}

	resp := &models.CatalogResponse{
		Hits:      hits,
		Total:     int(res.Total),
		QueryTime: time.Since(start).Milliseconds(),
		Query:     q.Query,
	}
	if len(hits) == 0 {
		resp.Suggestions = c.suggestQuery(q.Query)
	}
	c.logger.Debug("catalog search",
		zap.String("query", q.Query),
		zap.Int("hits", len(hits)),
		zap.Duration("took", time.Since(start)))
	return resp, nil
}

// termCoverage counts how many query terms each candidate record matches.
func (c *Catalog) termCoverage(ctx context.Context, terms []string, size int) map[string]int {
	coverage := make(map[string]int)
	for _, term := range terms {
		mq := bleve.NewMatchQuery(term)
		mq.SetField("text")
		req := bleve.NewSearchRequestOptions(mq, size, 0, false)
		res, err := c.index.SearchInContext(ctx, req)
		if err != nil {
			continue
		}
		for _, hit := range res.Hits {
			coverage[hit.ID]++
		}
	}
	return coverage
}

// DocCount returns the number of indexed records.
func (c *Catalog) DocCount() (uint64, error) {
	return c.index.DocCount()
}

// Close closes the underlying index.
func (c *Catalog) Close() error {
	return c.index.Close()
}

func fieldString(fields map[string]interface{}, key string) string {
	if v, ok := fields[key].(string); ok {
		return v
	}
	return ""
}
