package ports

import (
	"context"
	"io"

	"github.com/voicepaper/voicepaper/internal/core/domain"
)

// DocumentIngestor is the inbound contract for document upload orchestration.
type DocumentIngestor interface {
	Upload(ctx context.Context, filename, mimeType string, size int64, body io.Reader) (*domain.Document, error)
}

// DocumentLibrary is the inbound read/delete model for stored documents.
type DocumentLibrary interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	List(ctx context.Context, limit int) ([]domain.DocumentRef, error)
	Delete(ctx context.Context, id string) error
}

// DocumentProcessor is the inbound contract for asynchronous processing.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID string) error
}

// SummaryService summarizes text, falling back locally when the remote
// summarizer is unavailable.
type SummaryService interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// NewsService fetches parsed trending articles for a known category.
type NewsService interface {
	TrendingArticles(ctx context.Context, category string) ([]domain.Article, error)
}
