// Package speechtext prepares raw document text for synthesis: it
// normalizes whitespace, expands constructs that synthesis engines read
// badly, and cuts text into bounded speakable units at sentence
// boundaries so prosody survives chunking.
package speechtext

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	decimalRe    = regexp.MustCompile(`(\d+)\.(\d+)`)
	acronymRe    = regexp.MustCompile(`\b([A-Z]{2,})\b`)
	terminalRe   = regexp.MustCompile(`([.!?])([^\s.!?])`)
)

// Normalize collapses all whitespace runs to single spaces and trims.
func Normalize(text string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}

// ExpandForSpeech applies best-effort normalization before chunking:
// decimals become spoken ("3.14" -> "3 point 14"), ampersands become
// "and", terminal punctuation always gets a following space, and
// ALL-CAPS acronyms are spelled out letter by letter with a trailing
// period to coax a pause from the engine. Not guaranteed correct for
// every language; it only has to not make things worse.
func ExpandForSpeech(text string) string {
	text = decimalRe.ReplaceAllString(text, "$1 point $2")
	text = strings.ReplaceAll(text, "&", " and ")
	text = acronymRe.ReplaceAllStringFunc(text, func(acronym string) string {
		letters := strings.Split(acronym, "")
		return strings.Join(letters, " ") + "."
	})
	text = terminalRe.ReplaceAllString(text, "$1 $2")
	return Normalize(text)
}

// Chunk splits normalized text into units no longer than maxChars runes,
// preferring sentence boundaries and falling back to word and finally
// rune boundaries for oversized sentences. No characters are dropped or
// duplicated across unit boundaries; for text whose words all fit within
// maxChars, joining the units with single spaces reproduces the
// normalized input exactly.
func Chunk(text string, maxChars int) []string {
	text = Normalize(text)
	if text == "" {
		return nil
	}
	if maxChars <= 0 {
		maxChars = 200
	}

	var units []string
	var current strings.Builder
	currentLen := 0

	flush := func() {
		if current.Len() > 0 {
			units = append(units, current.String())
			current.Reset()
			currentLen = 0
		}
	}

	for _, sentence := range splitSentences(text) {
		sentenceLen := utf8.RuneCountInString(sentence)
		if sentenceLen > maxChars {
			flush()
			units = append(units, splitWords(sentence, maxChars)...)
			continue
		}
		if currentLen > 0 && currentLen+1+sentenceLen > maxChars {
			flush()
		}
		if currentLen > 0 {
			current.WriteByte(' ')
			currentLen++
		}
		current.WriteString(sentence)
		currentLen += sentenceLen
	}
	flush()
	return units
}

// splitSentences cuts after runs of terminal punctuation. The trailing
// fragment without terminal punctuation is kept as its own sentence.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		if runes[i] != '.' && runes[i] != '!' && runes[i] != '?' {
			continue
		}
		// swallow the whole punctuation run
		for i+1 < len(runes) && (runes[i+1] == '.' || runes[i+1] == '!' || runes[i+1] == '?') {
			i++
		}
		s := strings.TrimSpace(string(runes[start : i+1]))
		if s != "" {
			sentences = append(sentences, s)
		}
		start = i + 1
	}
	if tail := strings.TrimSpace(string(runes[start:])); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

func splitWords(sentence string, maxChars int) []string {
	var units []string
	var current strings.Builder
	currentLen := 0

	flush := func() {
		if current.Len() > 0 {
			units = append(units, current.String())
			current.Reset()
			currentLen = 0
		}
	}

	for _, word := range strings.Fields(sentence) {
		wordLen := utf8.RuneCountInString(word)
		if wordLen > maxChars {
			flush()
			runes := []rune(word)
			for len(runes) > maxChars {
				units = append(units, string(runes[:maxChars]))
				runes = runes[maxChars:]
			}
			if len(runes) > 0 {
				current.WriteString(string(runes))
				currentLen = len(runes)
			}
			continue
		}
		if currentLen > 0 && currentLen+1+wordLen > maxChars {
			flush()
		}
		if currentLen > 0 {
			current.WriteByte(' ')
			currentLen++
		}
		current.WriteString(word)
		currentLen += wordLen
	}
	flush()
	return units
}
