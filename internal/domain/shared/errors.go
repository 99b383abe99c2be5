package shared

// DomainError is the error type every domain rule violation surfaces as.
// The code is stable and machine-readable; the HTTP layer maps it to a
// status, the message is what the operator sees.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError builds a DomainError with the given code and message
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Sentinel errors for the failure modes shared across contexts.
// Operations with more to say build their own DomainError with a
// specific code instead.
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "The requested resource does not exist")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "A resource with this identity already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "The provided input is not valid")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "The resource was changed by a concurrent request")
	ErrUnauthorized        = NewDomainError("UNAUTHORIZED", "Authentication is required for this action")
	ErrForbidden           = NewDomainError("FORBIDDEN", "This action is not permitted")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "The operation is not allowed in the current state")
)
