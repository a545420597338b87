package ports

import (
	"context"
	"io"

	"github.com/voicepaper/voicepaper/internal/core/domain"
)

// DocumentRepository persists and reads document state.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	List(ctx context.Context, limit int) ([]domain.DocumentRef, error)
	Delete(ctx context.Context, id string) error
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	SaveExtraction(ctx context.Context, id string, ext domain.Extraction) error
}

// ObjectStorage stores the uploaded PDF blobs.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// MessageQueue publishes/consumes upload events between api and worker.
type MessageQueue interface {
	PublishDocumentUploaded(ctx context.Context, documentID string) error
	SubscribeDocumentUploaded(ctx context.Context, handler func(context.Context, string) error) error
}

// TextExtractor turns a stored PDF into a transcript and a page estimate.
type TextExtractor interface {
	Extract(ctx context.Context, doc *domain.Document) (text string, pages int, err error)
}

// QualityClassifier flags likely scanned or text-poor extractions.
type QualityClassifier interface {
	ClassifyQuality(text string) domain.QualityFlag
}

// Summarizer is the opaque remote summarize(text) call.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// ArticleFetcher generates trending articles for a category.
type ArticleFetcher interface {
	FetchArticles(ctx context.Context, category string) ([]domain.Article, error)
}

// NewsProxy forwards one category request upstream and returns the raw
// response body for pass-through.
type NewsProxy interface {
	FetchRaw(ctx context.Context, category string) ([]byte, error)
}
