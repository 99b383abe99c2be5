package dto

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		code string
		want int
	}{
		{"not found", ErrCodeNotFound, http.StatusNotFound},
		{"legacy not found", "NOT_FOUND", http.StatusNotFound},
		{"concurrent modification", ErrCodeConcurrentConflict, http.StatusConflict},
		{"legacy concurrency conflict", "CONCURRENCY_CONFLICT", http.StatusConflict},
		{"not yet due", ErrCodeNotYetDue, http.StatusUnprocessableEntity},
		{"items missing status", ErrCodeItemsMissingStatus, http.StatusUnprocessableEntity},
		{"items invalid cost", ErrCodeItemsInvalidCost, http.StatusUnprocessableEntity},
		{"meter reading invalid", ErrCodeMeterReadingInvalid, http.StatusUnprocessableEntity},
		{"meters missing reading", ErrCodeMetersMissingReading, http.StatusUnprocessableEntity},
		{"invalid state", ErrCodeInvalidState, http.StatusConflict},
		{"invalid input", ErrCodeInvalidInput, http.StatusBadRequest},
		{"item not found", ErrCodeItemNotFound, http.StatusNotFound},
		{"invoice already linked", ErrCodeInvoiceLinked, http.StatusConflict},
		{"unknown code falls back to 500", "SOMETHING_ELSE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetHTTPStatus(tt.code))
		})
	}
}

func TestNormalizeErrorCode(t *testing.T) {
	assert.Equal(t, ErrCodeUnauthorized, NormalizeErrorCode("UNAUTHORIZED"))
	assert.Equal(t, ErrCodeConcurrentConflict, NormalizeErrorCode("CONCURRENCY_CONFLICT"))
	assert.Equal(t, "NOT_YET_DUE", NormalizeErrorCode("NOT_YET_DUE"))
}

func TestNewSuccessResponseWithMeta(t *testing.T) {
	resp := NewSuccessResponseWithMeta([]string{"a"}, 45, 2, 20)
	assert.True(t, resp.Success)
	assert.Equal(t, int64(45), resp.Meta.Total)
	assert.Equal(t, 3, resp.Meta.TotalPages)
}

func TestNewValidationErrorResponse(t *testing.T) {
	resp := NewValidationErrorResponse("invalid request", "req-1", []ValidationDetail{
		{Field: "contract_id", Message: "contract_id is required"},
	})
	assert.False(t, resp.Success)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
	assert.Equal(t, "req-1", resp.Error.RequestID)
	assert.Len(t, resp.Error.Details, 1)
}
