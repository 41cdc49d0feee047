package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Processing error taxonomy. Failures local to one document, one batch, or
// one chunk wrap one of these and never abort sibling work; only
// configuration errors are fatal at the top of a request.
var (
	// ErrUnsupportedFormat means the sniffed content type is outside the
	// supported set. Unrecoverable for that document.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrEmptyDocument means a file parsed cleanly but yielded no text.
	// Recoverable: callers treat it as zero segments.
	ErrEmptyDocument = errors.New("empty document")

	// ErrIndexingFailed means embedding or upsert for one document failed
	// after retries. Other documents in the same upload are unaffected.
	ErrIndexingFailed = errors.New("indexing failed")

	// ErrLLMRequestFailed means a completion call failed after retries.
	// The affected batch's fields are downgraded to missing.
	ErrLLMRequestFailed = errors.New("llm request failed")

	// ErrSchemaValidationFailed means a batch response did not validate
	// against the expected field types. Treated like missing, never coerced.
	ErrSchemaValidationFailed = errors.New("schema validation failed")

	// ErrRenderFailed means the template and the data disagree on shape.
	ErrRenderFailed = errors.New("render failed")

	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WrapError attaches context and a cause to a sentinel from the taxonomy.
// errors.Is matches both the sentinel and the cause.
func WrapError(sentinel error, message string, cause error) error {
	if cause == nil {
		return fmt.Errorf("%s: %w", message, sentinel)
	}
	return fmt.Errorf("%s: %w: %w", message, sentinel, cause)
}
