package normalize

import "github.com/hyperjump/tenmon/internal/models"

// Quality scores a batch for completeness. Each of ID, Type, Source, Text
// and a non-empty Payload contributes 0.2 per record; the batch score is
// the per-record average. An empty batch scores 0.
func Quality(records []models.NormalizedRecord) float64 {
	if len(records) == 0 {
		return 0
	}
	total := 0.0
	for _, rec := range records {
		score := 0.0
		if rec.ID != "" {
			score += 0.2
		}
		if rec.Type != "" {
			score += 0.2
		}
		if rec.Source != "" {
			score += 0.2
		}
		if rec.Text != "" {
			score += 0.2
		}
		if len(rec.Payload) > 0 {
			score += 0.2
		}
		total += score
	}
	return total / float64(len(records))
}
