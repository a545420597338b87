// Package extractive is the local fallback summarizer: sentence scoring
// by position, length, and signal keywords, no model calls. It covers
// documents when the remote summarizer is unconfigured or down.
package extractive

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"
)

const maxChunkChars = 4000

type Summarizer struct{}

func New() *Summarizer { return &Summarizer{} }

func (s *Summarizer) Summarize(_ context.Context, text string) (string, error) {
	chunks := splitParagraphChunks(text, maxChunkChars)
	if len(chunks) == 1 {
		return summarizeChunk(text), nil
	}

	summaries := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		summaries = append(summaries, summarizeChunk(chunk))
	}
	combined := strings.Join(summaries, "\n\n")
	if len(combined) > maxChunkChars {
		return summarizeChunk(combined), nil
	}
	return combined, nil
}

func summarizeChunk(text string) string {
	if len(text) < 200 {
		return text
	}
	return extractSummary(text)
}

var (
	sentenceRe   = regexp.MustCompile(`[^.!?]+[.!?]+`)
	importanceRe = regexp.MustCompile(`(?i)important|significant|key|main|primary|essential|crucial|critical|fundamental`)
	conclusionRe = regexp.MustCompile(`(?i)conclude|summary|therefore|thus|result|finding`)
)

type scoredSentence struct {
	text  string
	score float64
	index int
}

// extractSummary keeps the top ~30% of sentences (at least 3), scored
// by position in the document, sentence length, and importance-signal
// keywords, emitted in original order.
func extractSummary(text string) string {
	sentences := sentenceRe.FindAllString(text, -1)
	if len(sentences) <= 3 {
		return text
	}

	total := len(sentences)
	scored := make([]scoredSentence, total)
	for i, sentence := range sentences {
		positionScore := 1.0
		switch {
		case i == 0 || i == total-1:
			positionScore = 2.0
		case float64(i) < float64(total)*0.2:
			positionScore = 1.5
		case float64(i) > float64(total)*0.8:
			positionScore = 1.2
		}

		words := len(strings.Fields(sentence))
		lengthScore := 1.0
		switch {
		case words < 5:
			lengthScore = 0.5
		case words > 25:
			lengthScore = 0.7
		}

		keywordScore := 1.0
		switch {
		case importanceRe.MatchString(sentence):
			keywordScore = 1.5
		case conclusionRe.MatchString(sentence):
			keywordScore = 1.4
		}

		scored[i] = scoredSentence{
			text:  strings.TrimSpace(sentence),
			score: positionScore * lengthScore * keywordScore,
			index: i,
		}
	}

	sort.SliceStable(scored, func(a, b int) bool { return scored[a].score > scored[b].score })
	keep := int(math.Floor(float64(total) * 0.3))
	if keep < 3 {
		keep = 3
	}
	selected := scored[:keep]
	sort.Slice(selected, func(a, b int) bool { return selected[a].index < selected[b].index })

	parts := make([]string, len(selected))
	for i, s := range selected {
		parts[i] = s.text
	}
	return strings.Join(parts, " ")
}

var paragraphRe = regexp.MustCompile(`\n\s*\n`)

func splitParagraphChunks(text string, maxChars int) []string {
	if len(text) <= maxChars {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder
	for _, paragraph := range paragraphRe.Split(text, -1) {
		if current.Len() > 0 && current.Len()+len(paragraph) > maxChars {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(paragraph)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}
