package catalog

import "testing"

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"rover", "rover", 0},
		{"", "mars", 4},
		{"mars", "", 4},
		{"kitten", "sitting", 3},
		{"curiosty", "curiosity", 1},
		{"starlink", "starlnik", 2},
		{"apod", "apogee", 3},
		{"héllo", "hello", 1},
	}
	for _, tt := range tests {
		if got := levenshtein(tt.a, tt.b); got != tt.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
		// Distance is symmetric.
		if got := levenshtein(tt.b, tt.a); got != tt.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", tt.b, tt.a, got, tt.want)
		}
	}
}
