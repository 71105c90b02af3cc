// internal/common/errors/handler.go
package errors

import (
	stderrors "errors"
	"net/http"
	"time"
)

// ErrorHandler normalizes application errors and maps them to HTTP responses.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// HTTPResponse is the JSON error body returned by the API.
type HTTPResponse struct {
	Detail string `json:"detail"`
	Code   string `json:"code,omitempty"`
}

// Handle normalizes err, logs it, and returns the HTTP status plus body the
// caller should write.
func (h *ErrorHandler) Handle(err error) (int, HTTPResponse) {
	stdErr := h.normalizeError(err)
	status := StatusFor(stdErr.Code)

	h.logger.Error("request failed", map[string]interface{}{
		"errorCode": string(stdErr.Code),
		"category":  GetErrorCategory(stdErr.Code),
		"message":   stdErr.Message,
		"details":   stdErr.Details,
		"retryable": stdErr.Retryable,
		"status":    status,
	})

	return status, HTTPResponse{
		Detail: stdErr.Message,
		Code:   string(stdErr.Code),
	}
}

// normalizeError ensures we always have a StandardError.
func (h *ErrorHandler) normalizeError(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// StatusFor maps an error code to its HTTP status.
func StatusFor(code ErrorCode) int {
	switch code {
	case ErrCodeEmailTaken, ErrCodePhoneTaken, ErrCodeInvalidRequest, ErrCodeExtractionMalformed:
		return http.StatusBadRequest
	case ErrCodeInvalidCredentials, ErrCodeTokenInvalid:
		return http.StatusUnauthorized
	case ErrCodeUserNotFound:
		return http.StatusNotFound
	case ErrCodePlacesUnavailable, ErrCodeWebSearchUnavailable,
		ErrCodeTaxRegistryUnavailable, ErrCodeGenAIUnavailable,
		ErrCodeGenAITimeout, ErrCodePageFetchFailed,
		ErrCodeDatabaseConnectionFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
