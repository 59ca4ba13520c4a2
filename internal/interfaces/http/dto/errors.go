package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	// ErrCodeValidation is the base code for validation errors
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeValidationFormat is used when a field has invalid format
	ErrCodeValidationFormat = "ERR_VALIDATION_FORMAT"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeInvoiceNotFound is used when the referenced invoice does not exist
	ErrCodeInvoiceNotFound = "ERR_INVOICE_NOT_FOUND"
	// ErrCodeNoticeNotFound is used when the referenced dunning notice does not exist
	ErrCodeNoticeNotFound = "ERR_NOTICE_NOT_FOUND"
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "ERR_CONFLICT"
	// ErrCodeConcurrencyConflict is used when optimistic locking fails
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
	// ErrCodeConcurrentEscalation is used when a concurrent escalation won the race
	ErrCodeConcurrentEscalation = "ERR_CONCURRENT_ESCALATION"
)

// Business rule error codes
const (
	// ErrCodeBusinessRule is used for generic business rule violations
	ErrCodeBusinessRule = "ERR_BUSINESS_RULE"
	// ErrCodeMaxLevelReached is used when an invoice is already at the top dunning level
	ErrCodeMaxLevelReached = "ERR_MAX_LEVEL_REACHED"
	// ErrCodeInvoiceAlreadySettled is used when escalating a paid or cancelled invoice
	ErrCodeInvoiceAlreadySettled = "ERR_INVOICE_ALREADY_SETTLED"
	// ErrCodeInvalidTransition is used when a notice status change is not allowed
	ErrCodeInvalidTransition = "ERR_INVALID_TRANSITION"
	// ErrCodeUnknownLevel is used when the policy defines no terms for a level
	ErrCodeUnknownLevel = "ERR_UNKNOWN_DUNNING_LEVEL"
)

// Input error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
)

// Upstream error codes
const (
	// ErrCodeSourceUnavailable is used when the invoice source cannot be reached
	ErrCodeSourceUnavailable = "ERR_SOURCE_UNAVAILABLE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// General errors
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	// Validation errors -> 400 Bad Request
	ErrCodeValidation:       http.StatusBadRequest,
	ErrCodeValidationFormat: http.StatusBadRequest,

	// Resource errors
	ErrCodeNotFound:             http.StatusNotFound,
	ErrCodeInvoiceNotFound:      http.StatusNotFound,
	ErrCodeNoticeNotFound:       http.StatusNotFound,
	ErrCodeConflict:             http.StatusConflict,
	ErrCodeConcurrencyConflict:  http.StatusConflict,
	ErrCodeConcurrentEscalation: http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity
	ErrCodeBusinessRule:          http.StatusUnprocessableEntity,
	ErrCodeMaxLevelReached:       http.StatusUnprocessableEntity,
	ErrCodeInvoiceAlreadySettled: http.StatusUnprocessableEntity,
	ErrCodeInvalidTransition:     http.StatusUnprocessableEntity,
	ErrCodeUnknownLevel:          http.StatusUnprocessableEntity,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,

	// Upstream errors -> 503 Service Unavailable
	ErrCodeSourceUnavailable: http.StatusServiceUnavailable,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to the standardized
// ERR_* codes used on the wire.
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":               ErrCodeNotFound,
	"INVOICE_NOT_FOUND":       ErrCodeInvoiceNotFound,
	"NOTICE_NOT_FOUND":        ErrCodeNoticeNotFound,
	"CONCURRENCY_CONFLICT":    ErrCodeConcurrencyConflict,
	"CONCURRENT_ESCALATION":   ErrCodeConcurrentEscalation,
	"MAX_LEVEL_REACHED":       ErrCodeMaxLevelReached,
	"INVOICE_ALREADY_SETTLED": ErrCodeInvoiceAlreadySettled,
	"INVALID_TRANSITION":      ErrCodeInvalidTransition,
	"UNKNOWN_DUNNING_LEVEL":   ErrCodeUnknownLevel,
	"SOURCE_UNAVAILABLE":      ErrCodeSourceUnavailable,
	"VALIDATION_ERROR":        ErrCodeValidation,
	"BAD_REQUEST":             ErrCodeBadRequest,
	"INTERNAL_ERROR":          ErrCodeInternal,
}

// NormalizeErrorCode converts a domain error code to the standardized format
// If the code is already in the new format or unknown, returns it as-is
func NormalizeErrorCode(code string) string {
	if newCode, ok := DomainErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
