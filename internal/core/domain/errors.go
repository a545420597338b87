package domain

import (
	"errors"
	"fmt"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrTemporary        = errors.New("temporary failure")

	// ErrFileTooLarge rejects uploads before any parsing happens.
	ErrFileTooLarge = errors.New("file too large")
	// ErrPdfUnreadable marks outright unparsable PDF input.
	ErrPdfUnreadable = errors.New("pdf unreadable")
	// ErrUnsupportedPlatform means no speech synthesis capability exists.
	ErrUnsupportedPlatform = errors.New("speech synthesis unsupported")
	// ErrRecognitionDenied means microphone access was refused.
	ErrRecognitionDenied = errors.New("recognition access denied")
	// ErrRecognitionService covers transient recognition backend failures.
	ErrRecognitionService = errors.New("recognition service error")
	// ErrSummaryUnavailable marks the remote summarizer as unreachable; the
	// caller falls back to the local heuristic instead of failing the user.
	ErrSummaryUnavailable = errors.New("summarization unavailable")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
