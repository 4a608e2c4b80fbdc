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
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
)

// Errors raised by the routing and settlement subsystem
var (
	// ErrIllegalTransition is returned when a state machine rejects the requested move
	ErrIllegalTransition = NewDomainError("ILLEGAL_TRANSITION", "Requested status transition is not allowed")
	// ErrDuplicateSaleEntry is returned when a SALE ledger entry already exists for a production order
	ErrDuplicateSaleEntry = NewDomainError("DUPLICATE_SALE_ENTRY", "A SALE ledger entry already exists for this production order")
	// ErrInsufficientBalance is returned when a payout exceeds the supplier's available ledger balance
	ErrInsufficientBalance = NewDomainError("INSUFFICIENT_BALANCE", "Insufficient balance to approve this payout")
	// ErrNoSupplierAvailable is returned when routing cannot satisfy the requested quantity
	ErrNoSupplierAvailable = NewDomainError("NO_SUPPLIER_AVAILABLE", "No supplier can currently fulfill this SKU at the requested quantity")
	// ErrWebhookSignatureInvalid is returned when a webhook payload fails signature verification
	ErrWebhookSignatureInvalid = NewDomainError("WEBHOOK_SIGNATURE_INVALID", "Webhook signature verification failed")
	// ErrUpstreamSupplier is returned when an adapter cannot reach the supplier after retries
	ErrUpstreamSupplier = NewDomainError("UPSTREAM_SUPPLIER_ERROR", "Supplier integration is currently unavailable")
)
