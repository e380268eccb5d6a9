package models

// RetrievalAnswer is the response generator's output for a matched query.
// MatchedSimilarity is the raw similarity of the winning document;
// Confidence is the boosted, capped policy score.
type RetrievalAnswer struct {
	Text              string  `json:"text"`
	Confidence        float64 `json:"confidence"`
	Source            string  `json:"source"`
	MatchedSimilarity float64 `json:"matched_similarity"`
}
