package knowledge

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/hyperjump/tenmon/pkg/utils"
)

// TFIDFVectorizer is the degraded-capability vectorizer: term frequency
// scaled by inverse document frequency over a fitted vocabulary. Dimensions
// equal the vocabulary size, so it is only meaningful after Fit (or
// SetVocabulary when loading persisted artifacts).
type TFIDFVectorizer struct {
	mu    sync.RWMutex
	terms []string
	index map[string]int
	idf   []float64
}

// NewTFIDFVectorizer creates an unfitted TF-IDF vectorizer.
func NewTFIDFVectorizer() *TFIDFVectorizer {
	return &TFIDFVectorizer{index: make(map[string]int)}
}

// Kind returns "tfidf".
func (v *TFIDFVectorizer) Kind() string {
	return VectorizerTFIDF
}

// Fit builds the vocabulary and IDF weights from the corpus. The vocabulary
// is sorted so vector columns are stable across runs. IDF uses add-one
// smoothing: log(N / (1 + df)).
func (v *TFIDFVectorizer) Fit(texts []string) error {
	df := make(map[string]int)
	for _, text := range texts {
		seen := make(map[string]struct{})
		for _, tok := range utils.Tokenize(text) {
			seen[tok] = struct{}{}
		}
		for tok := range seen {
			df[tok]++
		}
	}

	terms := make([]string, 0, len(df))
	for tok := range df {
		terms = append(terms, tok)
	}
	sort.Strings(terms)

	index := make(map[string]int, len(terms))
	idf := make([]float64, len(terms))
	n := float64(len(texts))
	for i, term := range terms {
		index[term] = i
		idf[i] = math.Log(n / (1 + float64(df[term])))
	}

	v.mu.Lock()
	v.terms = terms
	v.index = index
	v.idf = idf
	v.mu.Unlock()
	return nil
}

// Vectorize returns the unit-length TF-IDF vector for text. Term frequency
// is normalized by document length. Texts with no known terms come back as
// a zero vector.
func (v *TFIDFVectorizer) Vectorize(ctx context.Context, text string) ([]float32, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	vec := make([]float32, len(v.terms))
	tokens := utils.Tokenize(text)
	if len(tokens) == 0 || len(v.terms) == 0 {
		return vec, nil
	}

	counts := make(map[int]int)
	for _, tok := range tokens {
		if col, ok := v.index[tok]; ok {
			counts[col]++
		}
	}
	docLen := float64(len(tokens))
	for col, count := range counts {
		vec[col] = float32((float64(count) / docLen) * v.idf[col])
	}
	utils.NormalizeL2(vec)
	return vec, nil
}

// VectorizeBatch vectorizes each text against the fitted vocabulary.
func (v *TFIDFVectorizer) VectorizeBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := v.Vectorize(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

// Dimensions returns the vocabulary size (0 before Fit).
func (v *TFIDFVectorizer) Dimensions() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.terms)
}

// Vocabulary returns the fitted terms and their IDF weights for persistence.
func (v *TFIDFVectorizer) Vocabulary() (terms []string, idf []float64) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]string(nil), v.terms...), append([]float64(nil), v.idf...)
}

// SetVocabulary installs a persisted vocabulary, replacing any fitted state.
func (v *TFIDFVectorizer) SetVocabulary(terms []string, idf []float64) error {
	if len(terms) != len(idf) {
		return fmt.Errorf("vocabulary size mismatch: %d terms, %d idf weights", len(terms), len(idf))
	}
	index := make(map[string]int, len(terms))
	for i, term := range terms {
		index[term] = i
	}
	v.mu.Lock()
	v.terms = append([]string(nil), terms...)
	v.index = index
	v.idf = append([]float64(nil), idf...)
	v.mu.Unlock()
	return nil
}

// Close is a no-op for TFIDFVectorizer.
func (v *TFIDFVectorizer) Close() error {
	return nil
}
