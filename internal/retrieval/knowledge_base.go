package retrieval

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/hyperjump/tenmon/internal/models"
)

const knowledgeBaseFile = "knowledge_base.json"

// knowledgeBase is the persisted question-answer artifact, including a
// per-category summary for inspection.
type knowledgeBase struct {
	Metadata   kbMetadata            `json:"metadata"`
	Categories map[string]kbCategory `json:"categories"`
	QAPairs    []models.QAPair       `json:"qa_pairs"`
}

type kbMetadata struct {
	CreatedAt    time.Time `json:"created_at"`
	TotalEntries int       `json:"total_entries"`
	DataSources  []string  `json:"data_sources"`
}

type kbCategory struct {
	Count   int      `json:"count"`
	Sources []string `json:"sources"`
}

// BuildKnowledgeBase generates question-answer pairs from normalized
// records. Every record yields a general pair; launches, astronomy
// pictures, Mars photos and exoplanets additionally yield a type-specific
// question so the keyword fallback can catch natural phrasings.
func BuildKnowledgeBase(records []models.NormalizedRecord) []models.QAPair {
	pairs := make([]models.QAPair, 0, len(records))
	for _, rec := range records {
		pairs = append(pairs, models.QAPair{
			Question: fmt.Sprintf("Tell me about %s data from %s", rec.Type, rec.Source),
			Answer:   rec.Text,
			Kind:     "general_info",
			Source:   rec.Source,
			Category: rec.Type,
		})

		switch rec.Type {
		case models.TypeLaunch:
			if name := payloadString(rec, "name"); name != "" {
				pairs = append(pairs, models.QAPair{
					Question: fmt.Sprintf("What happened with the %s launch?", name),
					Answer:   rec.Text,
					Kind:     "launch_specific",
					Source:   rec.Source,
					Category: rec.Type,
				})
			}
		case models.TypeAPOD:
			if title := payloadString(rec, "title"); title != "" {
				pairs = append(pairs, models.QAPair{
					Question: fmt.Sprintf("Explain the astronomy picture %s", title),
					Answer:   rec.Text,
					Kind:     "astronomy_explanation",
					Source:   rec.Source,
					Category: rec.Type,
				})
			}
		case models.TypeMarsPhoto:
			pairs = append(pairs, models.QAPair{
				Question: "Show me information about Mars rover photos",
				Answer:   rec.Text,
				Kind:     "mars_mission",
				Source:   rec.Source,
				Category: rec.Type,
			})
		case models.TypeExoplanet:
			if name := payloadString(rec, "planet_name"); name != "" {
				pairs = append(pairs, models.QAPair{
					Question: fmt.Sprintf("Tell me about the exoplanet %s", name),
					Answer:   rec.Text,
					Kind:     "exoplanet_info",
					Source:   rec.Source,
					Category: rec.Type,
				})
			}
		}
	}
	return pairs
}

// SaveKnowledgeBase writes the pairs and their category summary to dir.
func SaveKnowledgeBase(dir string, pairs []models.QAPair) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating knowledge base directory: %w", err)
	}

	kb := knowledgeBase{
		Metadata: kbMetadata{
			CreatedAt:    time.Now().UTC(),
			TotalEntries: len(pairs),
			DataSources:  collectSources(pairs),
		},
		Categories: summarizeCategories(pairs),
		QAPairs:    pairs,
	}

	data, err := json.MarshalIndent(kb, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding knowledge base: %w", err)
	}
	path := filepath.Join(dir, knowledgeBaseFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", knowledgeBaseFile, err)
	}
	return nil
}

// LoadKnowledgeBase reads the persisted pairs from dir.
func LoadKnowledgeBase(dir string) ([]models.QAPair, error) {
	data, err := os.ReadFile(filepath.Join(dir, knowledgeBaseFile))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", knowledgeBaseFile, err)
	}
	var kb knowledgeBase
	if err := json.Unmarshal(data, &kb); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", knowledgeBaseFile, err)
	}
	return kb.QAPairs, nil
}

func summarizeCategories(pairs []models.QAPair) map[string]kbCategory {
	counts := make(map[string]int)
	sources := make(map[string]map[string]struct{})
	for _, pair := range pairs {
		counts[pair.Category]++
		if sources[pair.Category] == nil {
			sources[pair.Category] = make(map[string]struct{})
		}
		sources[pair.Category][pair.Source] = struct{}{}
	}

	categories := make(map[string]kbCategory, len(counts))
	for category, count := range counts {
		categories[category] = kbCategory{
			Count:   count,
			Sources: sortedKeys(sources[category]),
		}
	}
	return categories
}

func collectSources(pairs []models.QAPair) []string {
	seen := make(map[string]struct{})
	for _, pair := range pairs {
		seen[pair.Source] = struct{}{}
	}
	return sortedKeys(seen)
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func payloadString(rec models.NormalizedRecord, key string) string {
	if rec.Payload == nil {
		return ""
	}
	value, ok := rec.Payload[key].(string)
	if !ok {
		return ""
	}
	return value
}
