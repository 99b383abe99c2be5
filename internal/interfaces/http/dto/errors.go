package dto

import "net/http"

// API error codes returned in the error envelope.
const (
	// Generic codes
	ErrCodeValidation   = "ERR_VALIDATION"
	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
	ErrCodeNotFound     = "ERR_NOT_FOUND"
	ErrCodeConflict     = "ERR_CONFLICT"
	ErrCodeInternal     = "ERR_INTERNAL"

	// Domain codes
	ErrCodeInvalidInput         = "INVALID_INPUT"
	ErrCodeInvalidState         = "INVALID_STATE"
	ErrCodeAlreadyExists        = "ALREADY_EXISTS"
	ErrCodeConcurrentConflict   = "CONCURRENT_MODIFICATION"
	ErrCodeNotYetDue            = "NOT_YET_DUE"
	ErrCodeItemsMissingStatus   = "ITEMS_MISSING_STATUS"
	ErrCodeItemsInvalidCost     = "ITEMS_INVALID_COST"
	ErrCodeMeterReadingInvalid  = "METER_READING_INVALID"
	ErrCodeMetersMissingReading = "METERS_MISSING_READING"
	ErrCodeItemNotFound         = "ITEM_NOT_FOUND"
	ErrCodeConditionRequired    = "CONDITION_REQUIRED"
	ErrCodeInvalidCost          = "INVALID_COST"
	ErrCodeInvalidReading       = "INVALID_READING"
	ErrCodeDuplicateAsset       = "DUPLICATE_ASSET"
	ErrCodeInvoiceLinked        = "INVOICE_ALREADY_LINKED"
)

// ErrorCodeHTTPStatus maps API error codes to HTTP status codes.
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeValidation:   http.StatusBadRequest,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeNotFound:     http.StatusNotFound,
	ErrCodeConflict:     http.StatusConflict,
	ErrCodeInternal:     http.StatusInternalServerError,

	ErrCodeInvalidInput:       http.StatusBadRequest,
	ErrCodeInvalidState:       http.StatusConflict,
	ErrCodeAlreadyExists:      http.StatusConflict,
	ErrCodeConcurrentConflict: http.StatusConflict,
	ErrCodeInvoiceLinked:      http.StatusConflict,

	// Business-rule violations surface as 422 so clients can tell
	// them apart from malformed requests.
	ErrCodeNotYetDue:            http.StatusUnprocessableEntity,
	ErrCodeItemsMissingStatus:   http.StatusUnprocessableEntity,
	ErrCodeItemsInvalidCost:     http.StatusUnprocessableEntity,
	ErrCodeMeterReadingInvalid:  http.StatusUnprocessableEntity,
	ErrCodeMetersMissingReading: http.StatusUnprocessableEntity,
	ErrCodeConditionRequired:    http.StatusUnprocessableEntity,
	ErrCodeInvalidCost:          http.StatusUnprocessableEntity,
	ErrCodeInvalidReading:       http.StatusUnprocessableEntity,
	ErrCodeDuplicateAsset:       http.StatusUnprocessableEntity,

	ErrCodeItemNotFound: http.StatusNotFound,
}

// LegacyErrorCodeMapping normalizes alternate spellings emitted by
// older domain code to their canonical API codes.
var LegacyErrorCodeMapping = map[string]string{
	"UNAUTHORIZED":         ErrCodeUnauthorized,
	"FORBIDDEN":            ErrCodeForbidden,
	"NOT_FOUND":            ErrCodeNotFound,
	"CONCURRENCY_CONFLICT": ErrCodeConcurrentConflict,
	"VALIDATION_ERROR":     ErrCodeValidation,
	"INTERNAL_ERROR":       ErrCodeInternal,
}

// NormalizeErrorCode maps legacy domain codes to their canonical form.
func NormalizeErrorCode(code string) string {
	if canonical, ok := LegacyErrorCodeMapping[code]; ok {
		return canonical
	}
	return code
}

// GetHTTPStatus returns the HTTP status for an error code, defaulting
// to 500 for unknown codes.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[NormalizeErrorCode(code)]; ok {
		return status
	}
	return http.StatusInternalServerError
}
