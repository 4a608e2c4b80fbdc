package dto

import (
	"net/http"
	"strings"
)

// Transport-level error codes. Domain error codes pass through unchanged;
// these cover failures raised by the HTTP layer itself.
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "INTERNAL_ERROR"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeValidation is used when request binding or validation fails
	ErrCodeValidation = "VALIDATION"
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "NOT_FOUND"
	// ErrCodeUnauthorized is used when a caller cannot be authenticated
	ErrCodeUnauthorized = "UNAUTHORIZED"
)

// errorCodeHTTPStatus maps error codes to HTTP status codes. Conflicting
// business state maps to 409 rather than 422 so retrying clients can tell
// "fix your request" (400) apart from "someone got there first" (409).
var errorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:   http.StatusInternalServerError,
	ErrCodeBadRequest: http.StatusBadRequest,
	ErrCodeValidation: http.StatusBadRequest,

	"NOT_FOUND": http.StatusNotFound,

	"ALREADY_EXISTS":        http.StatusConflict,
	"CONCURRENCY_CONFLICT":  http.StatusConflict,
	"ILLEGAL_TRANSITION":    http.StatusConflict,
	"DUPLICATE_SALE_ENTRY":  http.StatusConflict,
	"INSUFFICIENT_BALANCE":  http.StatusConflict,
	"NO_SUPPLIER_AVAILABLE": http.StatusConflict,
	"PROVISIONAL_ROUTING":   http.StatusConflict,
	"LINE_ALREADY_ROUTED":   http.StatusConflict,
	"INVALID_STATE":         http.StatusConflict,

	"WEBHOOK_SIGNATURE_INVALID": http.StatusUnauthorized,
	"UNAUTHORIZED":              http.StatusUnauthorized,

	"UPSTREAM_SUPPLIER_ERROR": http.StatusBadGateway,
}

// GetHTTPStatus returns the HTTP status code for an error code. Domain
// validation codes all start with INVALID_ and map to 400; anything truly
// unknown is treated as an internal error.
func GetHTTPStatus(code string) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	if strings.HasPrefix(code, "INVALID_") {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
