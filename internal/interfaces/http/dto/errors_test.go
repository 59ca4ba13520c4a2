package dto

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		expected int
	}{
		{"invoice not found maps to 404", ErrCodeInvoiceNotFound, http.StatusNotFound},
		{"notice not found maps to 404", ErrCodeNoticeNotFound, http.StatusNotFound},
		{"max level reached maps to 422", ErrCodeMaxLevelReached, http.StatusUnprocessableEntity},
		{"settled invoice maps to 422", ErrCodeInvoiceAlreadySettled, http.StatusUnprocessableEntity},
		{"invalid transition maps to 422", ErrCodeInvalidTransition, http.StatusUnprocessableEntity},
		{"concurrent escalation maps to 409", ErrCodeConcurrentEscalation, http.StatusConflict},
		{"concurrency conflict maps to 409", ErrCodeConcurrencyConflict, http.StatusConflict},
		{"source unavailable maps to 503", ErrCodeSourceUnavailable, http.StatusServiceUnavailable},
		{"validation maps to 400", ErrCodeValidation, http.StatusBadRequest},
		{"unknown code falls back to 500", "ERR_SOMETHING_ELSE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestNormalizeErrorCode(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		expected string
	}{
		{"domain max level", "MAX_LEVEL_REACHED", ErrCodeMaxLevelReached},
		{"domain settled", "INVOICE_ALREADY_SETTLED", ErrCodeInvoiceAlreadySettled},
		{"domain transition", "INVALID_TRANSITION", ErrCodeInvalidTransition},
		{"domain concurrent escalation", "CONCURRENT_ESCALATION", ErrCodeConcurrentEscalation},
		{"domain notice not found", "NOTICE_NOT_FOUND", ErrCodeNoticeNotFound},
		{"domain invoice not found", "INVOICE_NOT_FOUND", ErrCodeInvoiceNotFound},
		{"domain source unavailable", "SOURCE_UNAVAILABLE", ErrCodeSourceUnavailable},
		{"already normalized", ErrCodeNotFound, ErrCodeNotFound},
		{"unknown passes through", "SOMETHING_CUSTOM", "SOMETHING_CUSTOM"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeErrorCode(tt.code))
		})
	}
}

func TestNewErrorResponse(t *testing.T) {
	resp := NewErrorResponse("NOT_FOUND", "Resource not found")

	assert.False(t, resp.Success)
	assert.Nil(t, resp.Data)
	assert.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code) // Should be normalized
	assert.Equal(t, "Resource not found", resp.Error.Message)
	assert.NotZero(t, resp.Error.Timestamp)
}

func TestNewErrorResponseWithRequestID(t *testing.T) {
	requestID := "req-123-456"
	resp := NewErrorResponseWithRequestID(ErrCodeNoticeNotFound, "Dunning notice not found", requestID)

	assert.False(t, resp.Success)
	assert.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeNoticeNotFound, resp.Error.Code)
	assert.Equal(t, "Dunning notice not found", resp.Error.Message)
	assert.Equal(t, requestID, resp.Error.RequestID)
	assert.NotZero(t, resp.Error.Timestamp)
}

func TestNewValidationErrorResponse(t *testing.T) {
	details := []ValidationDetail{
		{Field: "as_of", Message: "Must be a date in YYYY-MM-DD format"},
	}

	resp := NewValidationErrorResponse("Request validation failed", "req-789", details)

	assert.False(t, resp.Success)
	assert.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "req-789", resp.Error.RequestID)
	assert.Len(t, resp.Error.Details, 1)
	assert.Equal(t, "as_of", resp.Error.Details[0].Field)
}

func TestErrorResponseJSON(t *testing.T) {
	resp := NewErrorResponseWithRequestID(ErrCodeInvoiceNotFound, "Invoice not found", "req-test-123")

	data, err := json.Marshal(resp)
	assert.NoError(t, err)

	var decoded Response
	err = json.Unmarshal(data, &decoded)
	assert.NoError(t, err)

	assert.False(t, decoded.Success)
	assert.NotNil(t, decoded.Error)
	assert.Equal(t, ErrCodeInvoiceNotFound, decoded.Error.Code)
	assert.Equal(t, "Invoice not found", decoded.Error.Message)
	assert.Equal(t, "req-test-123", decoded.Error.RequestID)
}

func TestErrorResponseTimestamp(t *testing.T) {
	before := time.Now()
	resp := NewErrorResponse(ErrCodeInternal, "Server error")
	after := time.Now()

	assert.True(t, !resp.Error.Timestamp.Before(before), "Timestamp should not be before call")
	assert.True(t, !resp.Error.Timestamp.After(after), "Timestamp should not be after call")
}
