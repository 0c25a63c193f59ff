package dto

import (
	"net/http"
	"strings"
)

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
	// ErrCodeNotImplemented is used when an optional feature is not configured
	ErrCodeNotImplemented = "ERR_NOT_IMPLEMENTED"
	// ErrCodeUpstream is used when a backend such as object storage fails
	ErrCodeUpstream = "ERR_UPSTREAM"
	// ErrCodeTimeout is used when a backend does not answer in time
	ErrCodeTimeout = "ERR_TIMEOUT"
)

// Validation error codes
const (
	// ErrCodeValidation is the base code for validation errors
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeValidationRequired is used when a required field is missing
	ErrCodeValidationRequired = "ERR_VALIDATION_REQUIRED"
	// ErrCodeValidationFormat is used when a field has invalid format
	ErrCodeValidationFormat = "ERR_VALIDATION_FORMAT"
	// ErrCodeValidationRange is used when a value is out of range
	ErrCodeValidationRange = "ERR_VALIDATION_RANGE"
)

// Authentication error codes
const (
	// ErrCodeUnauthorized is used when authentication is required but missing/invalid
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	// ErrCodeForbidden is used when the caller lacks the required role
	ErrCodeForbidden = "ERR_FORBIDDEN"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeAlreadyExists is used when trying to create a duplicate resource
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "ERR_CONFLICT"
	// ErrCodeConcurrencyConflict is used when optimistic locking fails
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
	// ErrCodeAlreadySubmitted is used when a design version was already submitted
	ErrCodeAlreadySubmitted = "ERR_ALREADY_SUBMITTED"
)

// Business rule error codes
const (
	// ErrCodeInvalidState is used when an operation is invalid for current state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	// ErrCodeBusinessRule is used for generic business rule violations
	ErrCodeBusinessRule = "ERR_BUSINESS_RULE"
	// ErrCodeNoActivePolicy is used when canonical pricing has no policy to apply
	ErrCodeNoActivePolicy = "ERR_NO_ACTIVE_POLICY"
)

// Input error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
	// ErrCodeFileTooLarge is used when an upload exceeds the size limit
	ErrCodeFileTooLarge = "ERR_FILE_TOO_LARGE"
	// ErrCodeInvalidContentType is used when an upload is not a supported image
	ErrCodeInvalidContentType = "ERR_INVALID_CONTENT_TYPE"
	// ErrCodeEmptyFile is used when an upload has no content
	ErrCodeEmptyFile = "ERR_EMPTY_FILE"
)

// Rate limiting error codes
const (
	// ErrCodeRateLimited is used when rate limit is exceeded
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// General errors
	ErrCodeUnknown:        http.StatusInternalServerError,
	ErrCodeInternal:       http.StatusInternalServerError,
	ErrCodeNotImplemented: http.StatusNotImplemented,
	ErrCodeUpstream:       http.StatusBadGateway,
	ErrCodeTimeout:        http.StatusGatewayTimeout,

	// Validation errors -> 400 Bad Request
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeValidationRequired: http.StatusBadRequest,
	ErrCodeValidationFormat:   http.StatusBadRequest,
	ErrCodeValidationRange:    http.StatusBadRequest,

	// Auth errors
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,

	// Resource errors
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeAlreadySubmitted:    http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity
	ErrCodeInvalidState:   http.StatusUnprocessableEntity,
	ErrCodeBusinessRule:   http.StatusUnprocessableEntity,
	ErrCodeNoActivePolicy: http.StatusUnprocessableEntity,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeInvalidInput:       http.StatusBadRequest,
	ErrCodeInvalidJSON:        http.StatusBadRequest,
	ErrCodeFileTooLarge:       http.StatusBadRequest,
	ErrCodeInvalidContentType: http.StatusBadRequest,
	ErrCodeEmptyFile:          http.StatusBadRequest,

	// Rate limiting -> 429 Too Many Requests
	ErrCodeRateLimited: http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// LegacyErrorCodeMapping maps domain error codes to standardized codes
var LegacyErrorCodeMapping = map[string]string{
	"NOT_FOUND":            ErrCodeNotFound,
	"ALREADY_EXISTS":       ErrCodeAlreadyExists,
	"ALREADY_SUBMITTED":    ErrCodeAlreadySubmitted,
	"INVALID_INPUT":        ErrCodeInvalidInput,
	"INVALID_STATE":        ErrCodeInvalidState,
	"UNAUTHORIZED":         ErrCodeUnauthorized,
	"FORBIDDEN":            ErrCodeForbidden,
	"CONCURRENCY_CONFLICT": ErrCodeConcurrencyConflict,
	"VALIDATION_ERROR":     ErrCodeValidation,
	"BAD_REQUEST":          ErrCodeBadRequest,
	"INTERNAL_ERROR":       ErrCodeInternal,
	"FILE_TOO_LARGE":       ErrCodeFileTooLarge,
	"INVALID_CONTENT_TYPE": ErrCodeInvalidContentType,
	"EMPTY_FILE":           ErrCodeEmptyFile,
	"NO_ACTIVE_POLICY":     ErrCodeNoActivePolicy,
	"POLICY_REQUIRED":      ErrCodeNoActivePolicy,
	"INVALID_BREAKDOWN":    ErrCodeBusinessRule,
	"NO_ACTIVE_DRAG":       ErrCodeInvalidState,
	"PROOFS_DISABLED":      ErrCodeNotImplemented,
	"EXPORT_DISABLED":      ErrCodeNotImplemented,
	"PROOF_RENDER_TIMEOUT": ErrCodeTimeout,
	"RATE_LIMITED":         ErrCodeRateLimited,
}

// NormalizeErrorCode converts a domain error code to the standardized format.
// Remaining INVALID_* and DUPLICATE_* codes are input errors, pipeline stage
// failures are upstream errors. Other codes are returned as-is.
func NormalizeErrorCode(code string) string {
	if newCode, ok := LegacyErrorCodeMapping[code]; ok {
		return newCode
	}
	switch {
	case strings.HasPrefix(code, "ERR_"):
		return code
	case strings.HasPrefix(code, "PIPELINE_") && strings.HasSuffix(code, "_FAILED"):
		return ErrCodeUpstream
	case strings.HasPrefix(code, "INVALID_"), strings.HasPrefix(code, "DUPLICATE_"):
		return ErrCodeInvalidInput
	}
	return code
}
