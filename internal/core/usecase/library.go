package usecase

import (
	"context"
	"log/slog"

	"github.com/voicepaper/voicepaper/internal/core/domain"
	"github.com/voicepaper/voicepaper/internal/core/ports"
)

type LibraryUseCase struct {
	repo    ports.DocumentRepository
	storage ports.ObjectStorage
	logger  *slog.Logger
}

func NewLibraryUseCase(repo ports.DocumentRepository, storage ports.ObjectStorage, logger *slog.Logger) *LibraryUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &LibraryUseCase{repo: repo, storage: storage, logger: logger}
}

func (uc *LibraryUseCase) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	return uc.repo.GetByID(ctx, id)
}

func (uc *LibraryUseCase) List(ctx context.Context, limit int) ([]domain.DocumentRef, error) {
	refs, err := uc.repo.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	if refs == nil {
		refs = []domain.DocumentRef{}
	}
	return refs, nil
}

// Delete removes the metadata row first, then the blob. An orphaned
// blob after a crash is harmless; an orphaned row pointing at nothing
// is a broken library entry.
func (uc *LibraryUseCase) Delete(ctx context.Context, id string) error {
	doc, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}
	if err := uc.storage.Delete(ctx, doc.StoragePath); err != nil {
		uc.logger.Warn("blob cleanup failed", "document_id", id, "error", err)
	}
	return nil
}
