// Package cli provides CLI output utilities for Tenmon.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/hyperjump/tenmon/internal/models"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
	// OutputCompact is one entry per line, for piping into other tools.
	OutputCompact OutputFormat = "compact"
)

// ParseOutputFormat validates a -output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch s {
	case "", "text":
		return OutputText, nil
	case "json":
		return OutputJSON, nil
	case "compact":
		return OutputCompact, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text, compact, or json", s)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteAnswer writes a retrieval answer to w. A nil answer means no match;
// noMatchText is printed instead (the same text the HTTP API returns).
func WriteAnswer(w io.Writer, answer *models.RetrievalAnswer, noMatchText string, format OutputFormat) error {
	if format == OutputJSON {
		if answer == nil {
			return writeJSON(w, map[string]any{"matched": false, "response": noMatchText})
		}
		return writeJSON(w, map[string]any{
			"matched":            true,
			"response":           answer.Text,
			"confidence":         answer.Confidence,
			"source":             answer.Source,
			"matched_similarity": answer.MatchedSimilarity,
		})
	}
	if answer == nil {
		fmt.Fprintln(w, noMatchText)
		return nil
	}
	if format == OutputCompact {
		fmt.Fprintf(w, "%.4f\t%s\t%s\n", answer.Confidence, answer.Source, TruncateWords(answer.Text, 30))
		return nil
	}
	fmt.Fprintf(w, "\n%s\n\n", answer.Text)
	fmt.Fprintf(w, "Confidence: %.2f | Similarity: %.4f\n", answer.Confidence, answer.MatchedSimilarity)
	return nil
}

// WriteCatalogResults writes catalog search results to w in the given format.
func WriteCatalogResults(w io.Writer, response *models.CatalogResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, response)
	case OutputCompact:
		for _, hit := range response.Hits {
			fmt.Fprintf(w, "%d\t%.4f\t%s\t%s\t%s\n", hit.Rank, hit.Score, hit.ID, hit.Type, TruncateWords(hit.Text, 12))
		}
		return nil
	default:
		writeCatalogResultsText(w, response)
		return nil
	}
}

func writeCatalogResultsText(w io.Writer, response *models.CatalogResponse) {
	fmt.Fprintf(w, "\nFound %d results for %q in %dms\n\n", response.Total, response.Query, response.QueryTime)
	for _, hit := range response.Hits {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "Rank: %d | Score: %.4f | Type: %s | Source: %s\n", hit.Rank, hit.Score, hit.Type, hit.Source)
		fmt.Fprintf(w, "ID: %s\n", hit.ID)
		fmt.Fprintf(w, "\n%s\n\n", Truncate(hit.Text, 200))
	}
	if len(response.Suggestions) > 0 {
		fmt.Fprintf(w, "Did you mean: %s?\n", strings.Join(response.Suggestions, ", "))
	}
}

// WriteJob writes a training job snapshot to w.
func WriteJob(w io.Writer, job *models.TrainingJob, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, job)
	}
	fmt.Fprintln(w, JobProgressLine(job))
	if len(job.Metrics) > 0 {
		fmt.Fprintln(w, "metrics:")
		for _, key := range sortedMetricKeys(job.Metrics) {
			fmt.Fprintf(w, "  %-20s %.4f\n", key, job.Metrics[key])
		}
	}
	return nil
}

// JobProgressLine renders one status line for a job, suitable for polling output.
func JobProgressLine(job *models.TrainingJob) string {
	return fmt.Sprintf("[%3.0f%%] %-9s %s", job.Progress*100, job.Status, job.CurrentStep)
}

// WriteModels writes trained model records to w in the given format.
func WriteModels(w io.Writer, records []*models.TrainedModelRecord, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, records)
	case OutputCompact:
		for _, rec := range records {
			fmt.Fprintf(w, "%s\t%s\t%d\t%t\n", rec.ModelID, rec.ModelName, rec.TrainingDataSize, rec.ReadyForInference)
		}
		return nil
	default:
		if len(records) == 0 {
			fmt.Fprintln(w, "No trained models. Run \"tenmon train\" first.")
			return nil
		}
		for _, rec := range records {
			ready := "no"
			if rec.ReadyForInference {
				ready = "yes"
			}
			fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
			fmt.Fprintf(w, "%s (%s)\n", rec.ModelName, rec.ModelID)
			fmt.Fprintf(w, "Records: %d | Ready: %s | Created: %s\n",
				rec.TrainingDataSize, ready, rec.CreatedAt.Format("2006-01-02 15:04:05"))
			for _, key := range sortedMetricKeys(rec.PerformanceMetrics) {
				fmt.Fprintf(w, "  %-20s %.4f\n", key, rec.PerformanceMetrics[key])
			}
		}
		return nil
	}
}

func sortedMetricKeys(metrics map[string]float64) []string {
	keys := make([]string, 0, len(metrics))
	for key := range metrics {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Truncate truncates s to maxLen and appends "..." if truncated.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// TruncateWords returns up to maxWords from the space-separated string.
func TruncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ") + "..."
}
