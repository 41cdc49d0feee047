package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/toladipo/docbrief/internal/common"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type errorBody struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// writeError maps domain errors to HTTP statuses. Unknown errors are 500s
// with a generic message; details stay in the logs.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := http.StatusInternalServerError
	code := "INTERNAL"
	msg := "internal error"

	switch {
	case errors.Is(err, common.ErrUnsupportedFormat):
		status, code, msg = http.StatusUnsupportedMediaType, "UNSUPPORTED_FORMAT", "unsupported document format"
	case errors.Is(err, common.ErrEmptyDocument):
		status, code, msg = http.StatusUnprocessableEntity, "EMPTY_DOCUMENT", "document has no extractable text"
	case errors.Is(err, common.ErrInvalidInput):
		status, code, msg = http.StatusBadRequest, "INVALID_INPUT", "invalid request"
	case errors.Is(err, common.ErrNotFound):
		status, code, msg = http.StatusNotFound, "NOT_FOUND", "not found"
	case errors.Is(err, common.ErrIndexingFailed):
		status, code, msg = http.StatusBadGateway, "INDEXING_FAILED", "document indexing failed"
	case errors.Is(err, common.ErrLLMRequestFailed):
		status, code, msg = http.StatusBadGateway, "LLM_FAILED", "language model request failed"
	case errors.Is(err, common.ErrRenderFailed):
		status, code, msg = http.StatusInternalServerError, "RENDER_FAILED", "pdf rendering failed"
	}

	var appErr *common.AppError
	if errors.As(err, &appErr) && appErr.Code != "" {
		code = appErr.Code
		msg = appErr.Message
	}

	rid := common.RequestIDFromContext(r.Context())
	logger.Error("http.request_failed",
		"req_id", rid,
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
		"error", err,
	)
	writeJSON(w, status, errorBody{Error: msg, Code: code, RequestID: rid})
}

// withRequestID tags every request with a uuid and logs its outcome.
func withRequestID(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := r.Header.Get("X-Request-ID")
		if rid == "" {
			rid = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", rid)
		ctx := common.WithRequestID(r.Context(), rid)

		logger.Info("http.request",
			"req_id", rid,
			"method", r.Method,
			"path", r.URL.Path,
			"content_length", r.ContentLength,
		)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
