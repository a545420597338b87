package speechtext

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestNormalizeCollapsesWhitespace(t *testing.T) {
	got := Normalize("  a\tb\n\nc  d ")
	if got != "a b c d" {
		t.Fatalf("Normalize() = %q", got)
	}
}

func TestExpandForSpeechDecimalsAndAmpersand(t *testing.T) {
	got := ExpandForSpeech("pi is 3.14 & rising")
	if got != "pi is 3 point 14 and rising" {
		t.Fatalf("ExpandForSpeech() = %q", got)
	}
}

func TestExpandForSpeechSpellsAcronyms(t *testing.T) {
	got := ExpandForSpeech("NASA launched")
	if got != "N A S A. launched" {
		t.Fatalf("ExpandForSpeech() = %q", got)
	}
}

func TestExpandForSpeechSeparatesSentences(t *testing.T) {
	got := ExpandForSpeech("done.Next one")
	if got != "done. Next one" {
		t.Fatalf("ExpandForSpeech() = %q", got)
	}
}

func TestChunkShortTextIsSingleUnit(t *testing.T) {
	units := Chunk("just one short sentence.", 200)
	if len(units) != 1 {
		t.Fatalf("expected 1 unit, got %d: %v", len(units), units)
	}
}

func TestChunkPrefersSentenceBoundaries(t *testing.T) {
	text := "First sentence here. Second sentence here. Third sentence here."
	units := Chunk(text, 45)
	if len(units) < 2 {
		t.Fatalf("expected multiple units, got %v", units)
	}
	for _, u := range units {
		if utf8.RuneCountInString(u) > 45 {
			t.Fatalf("unit exceeds limit: %q", u)
		}
		if !strings.HasSuffix(u, ".") {
			t.Fatalf("unit not cut at sentence boundary: %q", u)
		}
	}
}

func TestChunkConcatenationLosesNothing(t *testing.T) {
	text := "Alpha beta gamma. Delta epsilon zeta eta! Theta iota kappa? Lambda mu nu xi omicron pi rho sigma tau."
	for _, max := range []int{10, 25, 40, 200} {
		units := Chunk(text, max)
		joined := strings.Join(units, " ")
		if joined != Normalize(text) {
			t.Fatalf("maxChars=%d: joined units %q != normalized input %q", max, joined, Normalize(text))
		}
	}
}

func TestChunkSplitsOversizedWords(t *testing.T) {
	word := strings.Repeat("x", 55)
	units := Chunk(word, 20)
	var total int
	for _, u := range units {
		n := utf8.RuneCountInString(u)
		if n > 20 {
			t.Fatalf("unit exceeds limit: %d runes", n)
		}
		total += n
	}
	if total != 55 {
		t.Fatalf("characters dropped or duplicated: got %d, want 55", total)
	}
}

func TestChunkEmptyText(t *testing.T) {
	if units := Chunk("   ", 200); units != nil {
		t.Fatalf("expected nil units, got %v", units)
	}
}
