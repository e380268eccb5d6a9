package catalog

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
)

const (
	// maxEditDistance bounds how far a suggested term may drift from the
	// query term.
	maxEditDistance = 2
	// maxCandidates bounds how many corrections are considered per term.
	maxCandidates = 5
)

// suggestion is a candidate correction for one query term.
type suggestion struct {
	term     string
	distance int
	freq     int
}

// suggestQuery proposes a corrected query for terms absent from the index
// dictionary. The result is empty when every term is known or no term has a
// close enough neighbor.
func (c *Catalog) suggestQuery(query string) []string {
	terms := queryTerms(query)
	if len(terms) == 0 {
		return nil
	}
	dict, err := c.termDictionary()
	if err != nil {
		c.logger.Debug("term dictionary unavailable", zap.Error(err))
		return nil
	}
	if len(dict) == 0 {
		return nil
	}

	corrected := make([]string, len(terms))
	changed := false
	for i, term := range terms {
		corrected[i] = term
		if _, known := dict[term]; known {
			continue
		}
		if candidates := suggestTerm(term, dict); len(candidates) > 0 {
			corrected[i] = candidates[0].term
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return []string{strings.Join(corrected, " ")}
}

// suggestTerm ranks dictionary terms within maxEditDistance of term, closest
// first, more frequent first among equals.
func suggestTerm(term string, dict map[string]int) []suggestion {
	var out []suggestion
	for candidate, freq := range dict {
		if candidate == term {
			continue
		}
		// Length difference is a lower bound on edit distance.
		if diff := len(candidate) - len(term); diff > maxEditDistance || diff < -maxEditDistance {
			continue
		}
		d := levenshtein(term, candidate)
		if d > maxEditDistance {
			continue
		}
		out = append(out, suggestion{term: candidate, distance: d, freq: freq})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].distance != out[j].distance {
			return out[i].distance < out[j].distance
		}
		if out[i].freq != out[j].freq {
			return out[i].freq > out[j].freq
		}
		return out[i].term < out[j].term
	})
	if len(out) > maxCandidates {
		out = out[:maxCandidates]
	}
	return out
}

// termDictionary reads the analyzed text field dictionary as term to
// frequency.
func (c *Catalog) termDictionary() (map[string]int, error) {
	dict, err := c.index.FieldDict("text")
	if err != nil {
		return nil, fmt.Errorf("field dictionary: %w", err)
	}
	defer dict.Close()

	terms := make(map[string]int)
	for {
		entry, err := dict.Next()
		if err != nil || entry == nil {
			break
		}
		terms[entry.Term] = int(entry.Count)
	}
	return terms, nil
}

// queryTerms splits a query into lowercase terms.
func queryTerms(query string) []string {
	return strings.Fields(strings.ToLower(query))
}
