package embedding

import (
	"math"
	"testing"
)

func TestSimpleTokenizer_Tokenize(t *testing.T) {
	tok := &SimpleTokenizer{}
	ids, attn, types := tok.Tokenize("dragon capsule reused", 10)
	if len(ids) != 10 || len(attn) != 10 || len(types) != 10 {
		t.Fatalf("lengths = %d/%d/%d, want 10", len(ids), len(attn), len(types))
	}
	if ids[0] != 101 {
		t.Errorf("expected CLS 101, got %d", ids[0])
	}
	if attn[0] != 1 {
		t.Error("attention[0] should be 1")
	}
	// three words then [SEP]
	if ids[4] != 102 {
		t.Errorf("expected SEP 102 at position 4, got %d", ids[4])
	}
}

func TestSimpleTokenizer_TruncatesLongText(t *testing.T) {
	tok := &SimpleTokenizer{}
	ids, attn, _ := tok.Tokenize("a b c d e f g h i j", 5)
	if len(ids) != 5 {
		t.Fatalf("len(ids)=%d, want 5", len(ids))
	}
	// last slot is reserved for [SEP]
	if ids[4] != 102 {
		t.Errorf("expected SEP in final slot, got %d", ids[4])
	}
	for i, a := range attn {
		if a != 1 {
			t.Errorf("attention[%d] = %d, want 1", i, a)
		}
	}
}

func TestSplitWords(t *testing.T) {
	words := SplitWords("  falcon  9\tbooster\n")
	if len(words) != 3 {
		t.Errorf("expected 3 words, got %v", words)
	}
	if len(SplitWords("")) != 0 {
		t.Error("empty string should yield no words")
	}
}

func TestHashString(t *testing.T) {
	h := HashString("apod")
	if h < 0 {
		t.Error("hash should be non-negative")
	}
	if HashString("apod") != HashString("apod") {
		t.Error("hash should be deterministic")
	}
	if HashString("apod") == HashString("neo") {
		t.Error("distinct words should hash differently")
	}
}

func TestHashStringMasksOverflow(t *testing.T) {
	// Grow the input until the raw accumulator wraps negative; the exported
	// hash must be the sign-bit-masked value, never a negation (negating
	// math.MinInt stays negative).
	var s string
	raw := 0
	for i := 0; raw >= 0; i++ {
		s += "z"
		raw = 31*raw + int('z')
		if i > 64 {
			t.Fatal("accumulator never overflowed")
		}
	}
	want := raw & math.MaxInt
	if got := HashString(s); got != want {
		t.Errorf("HashString = %d, want masked %d", got, want)
	}
	if HashString(s) < 0 {
		t.Error("hash must be non-negative")
	}
}
