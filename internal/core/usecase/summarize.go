package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/voicepaper/voicepaper/internal/core/domain"
	"github.com/voicepaper/voicepaper/internal/core/ports"
)

type SummarizeUseCase struct {
	remote   ports.Summarizer
	fallback ports.Summarizer
	timeout  time.Duration
	logger   *slog.Logger
}

// NewSummarizeUseCase composes the remote summarizer with the local
// extractive fallback. remote may be nil when no API key is configured.
func NewSummarizeUseCase(remote, fallback ports.Summarizer, timeout time.Duration, logger *slog.Logger) *SummarizeUseCase {
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SummarizeUseCase{
		remote:   remote,
		fallback: fallback,
		timeout:  timeout,
		logger:   logger,
	}
}

func (uc *SummarizeUseCase) Summarize(ctx context.Context, text string) (string, error) {
	if text == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "summarize", errors.New("empty text"))
	}

	if uc.remote != nil {
		remoteCtx, cancel := context.WithTimeout(ctx, uc.timeout)
		summary, err := uc.remote.Summarize(remoteCtx, text)
		cancel()
		if err == nil {
			return summary, nil
		}
		uc.logger.Warn("remote summarizer failed, using local fallback", "error", err)
	}

	summary, err := uc.fallback.Summarize(ctx, text)
	if err != nil {
		return "", domain.WrapError(domain.ErrSummaryUnavailable, "summarize", err)
	}
	return summary, nil
}
