package httpadapter

import (
	"net/http"

	"github.com/voicepaper/voicepaper/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrRecognitionDenied):
		return http.StatusForbidden
	case domain.IsKind(err, domain.ErrDocumentNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case domain.IsKind(err, domain.ErrPdfUnreadable):
		return http.StatusUnprocessableEntity
	case domain.IsKind(err, domain.ErrUnsupportedPlatform):
		return http.StatusNotImplemented
	case domain.IsKind(err, domain.ErrTemporary),
		domain.IsKind(err, domain.ErrRecognitionService),
		domain.IsKind(err, domain.ErrSummaryUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
