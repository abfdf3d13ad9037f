package httpadapter

import (
	"log/slog"
	"net/http"

	"github.com/reportaway/reportaway/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrCaseNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrAnalysisActive):
		return http.StatusConflict
	case domain.IsKind(err, domain.ErrNoDocuments):
		return http.StatusUnprocessableEntity
	case domain.IsKind(err, domain.ErrModelRefusal), domain.IsKind(err, domain.ErrExtractionFailed):
		return http.StatusBadGateway
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func logServerError(r *http.Request, err error) {
	slog.Error("request failed",
		"request_id", requestIDFromContext(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
		"error", err,
	)
}
