package models

import "fmt"

// CatalogQuery is a keyword search request against the record catalog.
type CatalogQuery struct {
	Query string `json:"query"`
	Type  string `json:"type,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

// Validate ensures the query has valid fields and sets defaults.
// Returns an error if the query text is empty; otherwise normalizes the limit.
func (q *CatalogQuery) Validate() error {
	if q.Query == "" {
		return fmt.Errorf("query cannot be empty")
	}
	if q.Limit <= 0 {
		q.Limit = 10
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	return nil
}

// CatalogHit is a single keyword search hit against the record catalog.
type CatalogHit struct {
	ID         string              `json:"id"`
	Type       string              `json:"type"`
	Source     string              `json:"source"`
	Score      float64             `json:"score"`
	Text       string              `json:"text"`
	Highlights map[string][]string `json:"highlights,omitempty"`
	Rank       int                 `json:"rank"`
}

// CatalogResponse is the response for a catalog search request.
type CatalogResponse struct {
	Hits      []*CatalogHit `json:"hits"`
	Total     int           `json:"total"`
	QueryTime int64         `json:"query_time_ms"`
	Query     string        `json:"query"`
	// Suggestions contains "Did you mean?" spelling suggestions, populated
	// only when the search returned no hits and near-miss terms exist.
	Suggestions []string `json:"suggestions,omitempty"`
}
