package gemini

import (
	"context"
	"regexp"
	"strings"
)

// Summarizer produces remote summaries, chunking long documents to fit
// the model's input limit.
type Summarizer struct {
	client     *Client
	chunkChars int
}

func NewSummarizer(client *Client, chunkChars int) *Summarizer {
	if chunkChars <= 0 {
		chunkChars = 30000
	}
	return &Summarizer{client: client, chunkChars: chunkChars}
}

func (s *Summarizer) Summarize(ctx context.Context, text string) (string, error) {
	if len(text) <= s.chunkChars {
		return s.summarizeOne(ctx, text)
	}

	chunks := splitParagraphChunks(text, s.chunkChars)
	summaries := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		summary, err := s.summarizeOne(ctx, chunk)
		if err != nil {
			return "", err
		}
		summaries = append(summaries, summary)
	}

	combined := strings.Join(summaries, "\n\n")
	if len(combined) > s.chunkChars {
		return s.summarizeOne(ctx, combined)
	}
	return combined, nil
}

func (s *Summarizer) summarizeOne(ctx context.Context, text string) (string, error) {
	return s.client.generateContent(ctx, "summarize", buildSummaryPrompt(text), 1024)
}

var paragraphRe = regexp.MustCompile(`\n\s*\n`)

// splitParagraphChunks packs whole paragraphs into chunks up to
// maxChars. A single oversized paragraph becomes its own chunk; the
// model tolerates mild overshoot better than a mid-sentence cut.
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
