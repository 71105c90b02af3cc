// Package errors provides standardized error handling for the API server and
// the shopping-agent pipeline.
package errors

import (
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Fatal before any external call is made.
	ErrCodeConfigurationMissing ErrorCode = "CONFIGURATION_MISSING"

	// Upstream failures, caught at the adapter boundary. The pipeline
	// degrades to an empty result for that one call and continues.
	ErrCodePlacesUnavailable      ErrorCode = "PLACES_UNAVAILABLE"
	ErrCodeWebSearchUnavailable   ErrorCode = "WEB_SEARCH_UNAVAILABLE"
	ErrCodeTaxRegistryUnavailable ErrorCode = "TAX_REGISTRY_UNAVAILABLE"
	ErrCodePageFetchFailed        ErrorCode = "PAGE_FETCH_FAILED"
	ErrCodeGenAIUnavailable       ErrorCode = "GENAI_UNAVAILABLE"
	ErrCodeGenAITimeout           ErrorCode = "GENAI_TIMEOUT"

	// Structured extraction output could not be parsed; the pipeline falls
	// back to naive keyword derivation instead of failing.
	ErrCodeExtractionMalformed ErrorCode = "EXTRACTION_MALFORMED"

	// Terminal state, not a failure: surfaced to users as an apology.
	ErrCodeNoResultsFound ErrorCode = "NO_RESULTS_FOUND"

	// User account errors.
	ErrCodeEmailTaken         ErrorCode = "EMAIL_ALREADY_REGISTERED"
	ErrCodePhoneTaken         ErrorCode = "PHONE_ALREADY_REGISTERED"
	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeTokenInvalid       ErrorCode = "TOKEN_INVALID"
	ErrCodeUserNotFound       ErrorCode = "USER_NOT_FOUND"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"

	ErrCodeInvalidRequest ErrorCode = "INVALID_REQUEST"
	ErrCodeInternal       ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewConfigurationMissingError creates a fatal startup error for an absent
// required credential or setting.
func NewConfigurationMissingError(setting string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConfigurationMissing,
		Message:   "Required configuration is missing",
		Details:   fmt.Sprintf("setting: %s", setting),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewPlacesUnavailableError creates a retryable places-lookup error.
func NewPlacesUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePlacesUnavailable,
		Message:   "Places lookup failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewWebSearchUnavailableError creates a retryable web-search error.
func NewWebSearchUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeWebSearchUnavailable,
		Message:   "Web search failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewTaxRegistryUnavailableError creates a retryable registry-check error.
func NewTaxRegistryUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTaxRegistryUnavailable,
		Message:   "Tax registry verification failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewPageFetchFailedError creates a retryable page-fetch error.
func NewPageFetchFailedError(url string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePageFetchFailed,
		Message:   "Webpage fetch failed",
		Details:   fmt.Sprintf("url: %s, error: %s", url, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewGenAIUnavailableError creates a retryable language-model error.
func NewGenAIUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeGenAIUnavailable,
		Message:   "Language model completion failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewGenAITimeoutError creates a retryable language-model timeout error.
func NewGenAITimeoutError() *StandardError {
	return &StandardError{
		Code:      ErrCodeGenAITimeout,
		Message:   "Language model request timed out",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewExtractionMalformedError creates a non-retryable extraction error. The
// caller is expected to fall back, not to propagate.
func NewExtractionMalformedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeExtractionMalformed,
		Message:   "Structured extraction output was not parseable",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewEmailTakenError creates a non-retryable duplicate-email error.
func NewEmailTakenError(email string) *StandardError {
	return &StandardError{
		Code:      ErrCodeEmailTaken,
		Message:   "Email already registered",
		Details:   fmt.Sprintf("email: %s", email),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewPhoneTakenError creates a non-retryable duplicate-phone error.
func NewPhoneTakenError(phone string) *StandardError {
	return &StandardError{
		Code:      ErrCodePhoneTaken,
		Message:   "Phone number already registered",
		Details:   fmt.Sprintf("phone: %s", phone),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidCredentialsError creates a non-retryable login error. The message
// is deliberately generic.
func NewInvalidCredentialsError() *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidCredentials,
		Message:   "Incorrect email or password",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewTokenInvalidError creates a non-retryable bearer-token error.
func NewTokenInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeTokenInvalid,
		Message:   "Could not validate credentials",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUserNotFoundError creates a non-retryable missing-user error.
func NewUserNotFoundError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUserNotFound,
		Message:   "User not found",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Database query execution error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidRequestError creates a non-retryable request validation error.
func NewInvalidRequestError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidRequest,
		Message:   "Invalid request",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInternalError wraps an unexpected error.
func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Classification Helpers
// ==========================

// IsUpstreamUnavailable reports whether the code belongs to the family of
// external-service failures that degrade to empty results.
func IsUpstreamUnavailable(code ErrorCode) bool {
	switch code {
	case ErrCodePlacesUnavailable,
		ErrCodeWebSearchUnavailable,
		ErrCodeTaxRegistryUnavailable,
		ErrCodePageFetchFailed,
		ErrCodeGenAIUnavailable,
		ErrCodeGenAITimeout:
		return true
	}
	return false
}

// GetErrorCategory returns a coarse category for logging and metrics labels.
func GetErrorCategory(code ErrorCode) string {
	switch {
	case code == ErrCodeConfigurationMissing:
		return "configuration"
	case IsUpstreamUnavailable(code):
		return "upstream"
	case code == ErrCodeExtractionMalformed:
		return "extraction"
	case code == ErrCodeEmailTaken, code == ErrCodePhoneTaken,
		code == ErrCodeInvalidCredentials, code == ErrCodeTokenInvalid,
		code == ErrCodeUserNotFound:
		return "auth"
	case code == ErrCodeDatabaseConnectionFailed, code == ErrCodeQueryExecutionFailed:
		return "database"
	default:
		return "internal"
	}
}
