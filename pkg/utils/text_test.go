package utils

import (
	"testing"
)

func TestTruncate(t *testing.T) {
	if Truncate("hello", 10) != "hello" {
		t.Error("short string unchanged")
	}
	if Truncate("hello world", 5) != "hello..." {
		t.Errorf("got %s", Truncate("hello world", 5))
	}
	if Truncate("x", 0) != "x" {
		t.Error("maxLen 0 returns as-is")
	}
}

func TestNormalizeWhitespace(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"  hello  ", "hello"},
		{"a\t b\n\nc", "a b c"},
		{"already clean", "already clean"},
	}
	for _, tt := range tests {
		if got := NormalizeWhitespace(tt.in); got != tt.want {
			t.Errorf("NormalizeWhitespace(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTokenize(t *testing.T) {
	got := Tokenize("SpaceX Launch: Starlink-4 was successful.")
	want := []string{"spacex", "launch", "starlink", "4", "was", "successful"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d = %q, want %q", i, got[i], want[i])
		}
	}
	if Tokenize("") != nil {
		t.Error("empty string yields nil tokens")
	}
}

func TestWordSet(t *testing.T) {
	set := WordSet("Eagle Nebula eagle")
	if len(set) != 2 {
		t.Fatalf("got %d words, want 2", len(set))
	}
	if _, ok := set["eagle"]; !ok {
		t.Error("missing lowercased word")
	}
}

func TestJaccard(t *testing.T) {
	a := WordSet("eagle nebula pillars")
	b := WordSet("eagle nebula")
	got := Jaccard(a, b)
	if got < 0.66 || got > 0.67 {
		t.Errorf("Jaccard = %f, want 2/3", got)
	}
	if Jaccard(nil, nil) != 0 {
		t.Error("empty sets score 0")
	}
	if Jaccard(a, a) != 1.0 {
		t.Error("identical sets score 1")
	}
}
