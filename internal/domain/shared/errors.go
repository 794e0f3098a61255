package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrUnauthorized        = NewDomainError("UNAUTHORIZED", "Not authorized to perform this action")
	ErrForbidden           = NewDomainError("FORBIDDEN", "Access to this resource is forbidden")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
)

// Checkout and ledger synchronization errors
var (
	ErrEmptyCart           = NewDomainError("EMPTY_CART", "Cart must contain at least one item")
	ErrUnknownSKU          = NewDomainError("UNKNOWN_SKU", "One or more SKUs could not be resolved")
	ErrMissingPONumber     = NewDomainError("MISSING_PO_NUMBER", "PO number is required for purchase order payments")
	ErrInvalidEmail        = NewDomainError("INVALID_EMAIL", "A syntactically valid email address is required")
	ErrUnsupportedCurrency = NewDomainError("UNSUPPORTED_CURRENCY", "Currency is not supported")
	ErrPaymentFailed       = NewDomainError("PAYMENT_FAILED", "Payment authorization failed")
	ErrAmountLimitExceeded = NewDomainError("AMOUNT_LIMIT_EXCEEDED", "Charge amount exceeds the allowed ceiling")
	ErrAlreadySynced       = NewDomainError("ALREADY_SYNCED", "External ledger record already linked")
)
