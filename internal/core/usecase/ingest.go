package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/voicepaper/voicepaper/internal/core/domain"
	"github.com/voicepaper/voicepaper/internal/core/ports"
)

type IngestDocumentUseCase struct {
	repo     ports.DocumentRepository
	storage  ports.ObjectStorage
	queue    ports.MessageQueue
	maxBytes int64
}

func NewIngestDocumentUseCase(
	repo ports.DocumentRepository,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
	maxBytes int64,
) *IngestDocumentUseCase {
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	return &IngestDocumentUseCase{
		repo:     repo,
		storage:  storage,
		queue:    queue,
		maxBytes: maxBytes,
	}
}

// Upload stores the PDF blob, records the document as uploaded, and
// hands it to the worker. The size cap is enforced before any parsing.
func (uc *IngestDocumentUseCase) Upload(
	ctx context.Context,
	filename, mimeType string,
	size int64,
	body io.Reader,
) (*domain.Document, error) {
	if !isPDF(filename, mimeType) {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload document",
			fmt.Errorf("unsupported file type %q", mimeType))
	}
	if size > uc.maxBytes {
		return nil, domain.WrapError(domain.ErrFileTooLarge, "upload document",
			fmt.Errorf("%d bytes exceeds limit %d", size, uc.maxBytes))
	}

	id := uuid.NewString()
	storageKey := fmt.Sprintf("%s_%s", id, sanitizeFilename(filename))
	now := time.Now().UTC()

	// Declared sizes are not trusted: cap the actual byte stream too.
	limited := &cappedReader{r: body, remaining: uc.maxBytes}
	if err := uc.storage.Save(ctx, storageKey, limited); err != nil {
		if errors.Is(err, errCapExceeded) {
			return nil, domain.WrapError(domain.ErrFileTooLarge, "upload document", err)
		}
		return nil, fmt.Errorf("save to object storage: %w", err)
	}

	doc := &domain.Document{
		ID:          id,
		Filename:    filename,
		MimeType:    mimeType,
		StoragePath: storageKey,
		Status:      domain.StatusUploaded,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := uc.repo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document metadata: %w", err)
	}

	if err := uc.queue.PublishDocumentUploaded(ctx, doc.ID); err != nil {
		return nil, fmt.Errorf("publish upload event: %w", err)
	}

	return doc, nil
}

func isPDF(filename, mimeType string) bool {
	if mimeType == "application/pdf" {
		return true
	}
	return strings.EqualFold(filepath.Ext(filename), ".pdf")
}

var errCapExceeded = errors.New("upload exceeds size limit")

type cappedReader struct {
	r         io.Reader
	remaining int64
}

func (c *cappedReader) Read(p []byte) (int, error) {
	if c.remaining <= 0 {
		return 0, errCapExceeded
	}
	if int64(len(p)) > c.remaining+1 {
		p = p[:c.remaining+1]
	}
	n, err := c.r.Read(p)
	c.remaining -= int64(n)
	if c.remaining < 0 {
		return n, errCapExceeded
	}
	return n, err
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" {
		return "document.pdf"
	}
	return base
}
