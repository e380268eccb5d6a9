// Package models defines core data structures for records, jobs, and retrieval results.
package models

// Record types known to the normalizer. Unknown types normalize to empty text
// and are dropped before indexing.
const (
	TypeAPOD       = "apod"
	TypeNEO        = "neo"
	TypeMarsPhoto  = "mars_photo"
	TypeExoplanet  = "exoplanet"
	TypeTechnology = "technology"
	TypeLaunch     = "launch"
	TypeRocket     = "rocket"
	TypeCapsule    = "capsule"
	TypeCrew       = "crew"
	TypePayload    = "payload"
	TypeStarlink   = "starlink"
)

// KnownRecordTypes lists every record type the normalizer has a template for.
var KnownRecordTypes = []string{
	TypeAPOD, TypeNEO, TypeMarsPhoto, TypeExoplanet, TypeTechnology,
	TypeLaunch, TypeRocket, TypeCapsule, TypeCrew, TypePayload, TypeStarlink,
}

// RawRecord is a record as fetched from a source, before normalization.
// Payload carries the type-specific fields.
type RawRecord struct {
	Type    string         `json:"type"`
	Source  string         `json:"source"`
	Payload map[string]any `json:"payload"`
}

// NormalizedRecord is the uniform shape every record takes before entering
// the index. Text is the only field the index operates on; records with
// empty text never reach it. Immutable after creation.
type NormalizedRecord struct {
	ID      string         `json:"id" db:"id"`
	Type    string         `json:"type" db:"record_type"`
	Source  string         `json:"source" db:"source"`
	Text    string         `json:"text" db:"text"`
	Payload map[string]any `json:"payload,omitempty" db:"payload"`
}

// EmbeddingDocument joins a vector matrix row with its record metadata.
// Index is the row position and the sole join key between vector storage
// and record storage; any reordering invalidates it.
type EmbeddingDocument struct {
	Index  int              `json:"index"`
	Vector []float32        `json:"-"`
	Record NormalizedRecord `json:"record"`
}

// SimilarityResult is a single similarity hit. Ephemeral, produced per query.
type SimilarityResult struct {
	Rank     int               `json:"rank"`
	Score    float64           `json:"score"`
	Document EmbeddingDocument `json:"document"`
}

// QAPair is a generated question-answer training example. The question text
// doubles as the match target for the keyword fallback.
type QAPair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Kind     string `json:"kind"`
	Source   string `json:"source"`
	Category string `json:"category"`
}
