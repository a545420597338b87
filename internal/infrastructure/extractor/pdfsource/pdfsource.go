// Package pdfsource extracts speakable text from uploaded PDF files.
// The structured content-stream parse is the primary path; a byte-scan
// heuristic recovers text from files the parser rejects, since a bad
// xref table is no reason to lose a readable document.
package pdfsource

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/voicepaper/voicepaper/internal/core/domain"
	"github.com/voicepaper/voicepaper/internal/core/ports"
)

type Extractor struct {
	storage ports.ObjectStorage
	pageCap int
	logger  *slog.Logger
}

func NewExtractor(storage ports.ObjectStorage, pageCap int, logger *slog.Logger) *Extractor {
	if pageCap <= 0 {
		pageCap = 50
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{storage: storage, pageCap: pageCap, logger: logger}
}

// Extract returns the document's text and estimated page count.
func (e *Extractor) Extract(ctx context.Context, doc *domain.Document) (string, int, error) {
	reader, err := e.storage.Open(ctx, doc.StoragePath)
	if err != nil {
		return "", 0, fmt.Errorf("open source document: %w", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return "", 0, fmt.Errorf("read source document: %w", err)
	}

	text, pages, err := e.parse(raw)
	if err != nil || text == "" {
		if err != nil {
			e.logger.Warn("structured pdf parse failed, trying byte scan",
				"document_id", doc.ID, "error", err)
		}
		text = scanText(raw)
		pages = EstimatePageCount(raw)
	}
	if text == "" {
		return "", 0, domain.WrapError(domain.ErrPdfUnreadable, "extract pdf text",
			fmt.Errorf("no extractable text in %s", doc.Filename))
	}
	return text, pages, nil
}

// parse walks the content streams page by page up to the page cap. The
// underlying parser panics on some malformed files; those become errors
// so the byte-scan fallback gets its turn.
func (e *Extractor) parse(raw []byte) (text string, pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf parser panic: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", 0, fmt.Errorf("parse pdf: %w", err)
	}

	pages = reader.NumPage()
	limit := pages
	if limit > e.pageCap {
		limit = e.pageCap
	}

	var b strings.Builder
	for i := 1; i <= limit; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			e.logger.Debug("page text extraction failed", "page", i, "error", err)
			continue
		}
		b.WriteString(content)
		b.WriteByte(' ')
	}
	return cleanup(b.String()), pages, nil
}

// scanText pulls printable runs out of the raw bytes: parenthesized
// string literals, UTF-16 segments, and text-object dictionaries. Crude,
// but it reads files whose cross-reference structure is broken.
func scanText(raw []byte) string {
	var out strings.Builder
	var buf strings.Builder
	inText := false

	for i := 0; i+4 < len(raw); i++ {
		b := raw[i]
		switch {
		case (b == '(' && raw[i+1] != '\\') ||
			(b == 0xFE && raw[i+1] == 0xFF) ||
			(b == '/' && raw[i+1] == 'T' && raw[i+2] == 'e'):
			inText = true
			buf.Reset()
		case (b == ')' && inText) || (b == '>' && raw[i+1] == '>'):
			inText = false
			out.WriteString(buf.String())
			out.WriteByte(' ')
		case inText:
			if (b >= 0x20 && b <= 0x7E) || b > 0xBF || b == '\n' || b == '\r' {
				buf.WriteByte(b)
			}
		}
	}
	return cleanup(out.String())
}

var (
	whitespaceRe   = regexp.MustCompile(`\s+`)
	wordPunctRe    = regexp.MustCompile(`(\w)\s(\W)`)
	escapeRe       = regexp.MustCompile(`\\n|\\r`)
	nonPrintableRe = regexp.MustCompile(`[^\x20-\x7E\x{A0}-\x{FF}]`)
)

func cleanup(text string) string {
	text = whitespaceRe.ReplaceAllString(text, " ")
	text = wordPunctRe.ReplaceAllString(text, "$1$2")
	text = escapeRe.ReplaceAllString(text, " ")
	text = nonPrintableRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// EstimatePageCount counts /Page tokens in the raw bytes. Each page
// shows up roughly twice between the object and the page tree, so the
// count is halved. Never less than 1.
func EstimatePageCount(raw []byte) int {
	count := bytes.Count(raw, []byte("/Page"))
	if pages := count / 2; pages > 1 {
		return pages
	}
	return 1
}

// Classifier adapts ClassifyQuality to the quality classifier port.
type Classifier struct{}

func (Classifier) ClassifyQuality(text string) domain.QualityFlag {
	return ClassifyQuality(text)
}

var artifactRe = regexp.MustCompile(`\b(?:endobj|xref|startxref|\d+ 0 obj)\b`)

// functionWords anchor the "is this prose" check: genuine running text
// in most Latin-script documents contains at least one of these.
var functionWords = []string{"the", "and", "of", "to", "in", "is", "that", "for"}

// ClassifyQuality flags extractions that probably came from a scanned
// or image-only PDF. Advisory only; a flagged document still plays.
func ClassifyQuality(text string) domain.QualityFlag {
	if artifactRe.MatchString(text) {
		return domain.QualityLikelyScanned
	}
	if len(text) < 100 {
		return domain.QualityLikelyScanned
	}

	words := strings.Fields(strings.ToLower(text))
	distinct := make(map[string]struct{})
	for _, w := range words {
		if len(w) > 2 {
			distinct[w] = struct{}{}
		}
	}
	if len(distinct) < 20 {
		return domain.QualityLimitedText
	}

	for _, fw := range functionWords {
		for _, w := range words {
			if w == fw {
				return domain.QualityClean
			}
		}
	}
	return domain.QualityLimitedText
}
