package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/voicepaper/voicepaper/internal/core/domain"
	"github.com/voicepaper/voicepaper/internal/core/ports"
)

type ProcessDocumentUseCase struct {
	repo       ports.DocumentRepository
	extractor  ports.TextExtractor
	classifier ports.QualityClassifier
	summaries  ports.SummaryService
	logger     *slog.Logger
}

func NewProcessDocumentUseCase(
	repo ports.DocumentRepository,
	extractor ports.TextExtractor,
	classifier ports.QualityClassifier,
	summaries ports.SummaryService,
	logger *slog.Logger,
) *ProcessDocumentUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProcessDocumentUseCase{
		repo:       repo,
		extractor:  extractor,
		classifier: classifier,
		summaries:  summaries,
		logger:     logger,
	}
}

// ProcessByID runs the extraction pipeline for one uploaded document:
// uploaded -> processing -> ready, or failed with the cause recorded.
func (uc *ProcessDocumentUseCase) ProcessByID(ctx context.Context, documentID string) error {
	if err := uc.markStatus(ctx, documentID, domain.StatusProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	extraction, err := uc.processPipeline(ctx, documentID)
	if err != nil {
		if failErr := uc.markFailed(ctx, documentID, err); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.repo.SaveExtraction(ctx, documentID, extraction); err != nil {
		saveErr := fmt.Errorf("save extraction: %w", err)
		if failErr := uc.markFailed(ctx, documentID, saveErr); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", saveErr, failErr)
		}
		return saveErr
	}

	if err := uc.markStatus(ctx, documentID, domain.StatusReady, ""); err != nil {
		return fmt.Errorf("set status=ready: %w", err)
	}

	return nil
}

func (uc *ProcessDocumentUseCase) processPipeline(ctx context.Context, documentID string) (domain.Extraction, error) {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return domain.Extraction{}, fmt.Errorf("fetch document by id: %w", err)
	}

	text, pages, err := uc.extractor.Extract(ctx, doc)
	if err != nil {
		return domain.Extraction{}, fmt.Errorf("extract text: %w", err)
	}

	quality := uc.classifier.ClassifyQuality(text)

	// The summary is an enhancement; a document without one still
	// reads aloud fine, so summarizer failure never fails the pipeline.
	summary, err := uc.summaries.Summarize(ctx, text)
	if err != nil {
		uc.logger.Warn("summary generation failed, continuing without",
			"document_id", documentID, "error", err)
		summary = ""
	}

	return domain.Extraction{
		Transcript:   text,
		PageEstimate: pages,
		Quality:      quality,
		Summary:      summary,
	}, nil
}

func (uc *ProcessDocumentUseCase) markStatus(ctx context.Context, documentID string, status domain.DocumentStatus, errMessage string) error {
	return uc.repo.UpdateStatus(ctx, documentID, status, errMessage)
}

func (uc *ProcessDocumentUseCase) markFailed(ctx context.Context, documentID string, processErr error) error {
	if processErr == nil {
		return nil
	}
	return uc.markStatus(ctx, documentID, domain.StatusFailed, processErr.Error())
}
