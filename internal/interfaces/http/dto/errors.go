package dto

import "net/http"

// Error codes returned in the error envelope. Domain errors keep their own
// code; these constants name the ones the HTTP layer maps or produces.

// General error codes
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "INTERNAL_ERROR"
	// ErrCodeServiceUnavailable is used when the data service cannot be reached
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// Input error codes
const (
	// ErrCodeValidation is used when request binding or validation fails
	ErrCodeValidation = "VALIDATION_ERROR"
	// ErrCodeInvalidAmount is used for non-positive quantities or bad prices
	ErrCodeInvalidAmount = "INVALID_AMOUNT"
	// ErrCodeInvalidPaymentMethod is used for unknown payment methods
	ErrCodeInvalidPaymentMethod = "INVALID_PAYMENT_METHOD"
	// ErrCodeInvalidStatus is used for unknown order statuses
	ErrCodeInvalidStatus = "INVALID_STATUS"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "NOT_FOUND"
)

// Business rule error codes
const (
	// ErrCodeOutOfStock is used when an order asks for more than is on hand
	ErrCodeOutOfStock = "OUT_OF_STOCK"
	// ErrCodeInvalidReference is used when a customer or product id does not resolve
	ErrCodeInvalidReference = "INVALID_REFERENCE"
	// ErrCodeIllegalTransition is used when a status change is not allowed
	ErrCodeIllegalTransition = "ILLEGAL_TRANSITION"
	// ErrCodeImmutable is used when editing an order that left pending
	ErrCodeImmutable = "IMMUTABLE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,

	// Input errors -> 400 Bad Request
	ErrCodeValidation:           http.StatusBadRequest,
	ErrCodeInvalidAmount:        http.StatusBadRequest,
	ErrCodeInvalidPaymentMethod: http.StatusBadRequest,
	ErrCodeInvalidStatus:        http.StatusBadRequest,

	ErrCodeNotFound: http.StatusNotFound,

	// Rejected against current data -> 422 Unprocessable Entity
	ErrCodeOutOfStock:       http.StatusUnprocessableEntity,
	ErrCodeInvalidReference: http.StatusUnprocessableEntity,

	// Conflicts with the order's state -> 409 Conflict
	ErrCodeIllegalTransition: http.StatusConflict,
	ErrCodeImmutable:         http.StatusConflict,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// LegacyErrorCodeMapping maps codes raised by shared domain errors onto the
// codes above
var LegacyErrorCodeMapping = map[string]string{
	"INVALID_INPUT":   ErrCodeValidation,
	"INVALID_STATE":   ErrCodeIllegalTransition,
	"INVALID_PRODUCT": ErrCodeValidation,
}

// NormalizeErrorCode converts a legacy error code to the standardized format
// If the code is already in the new format or unknown, returns it as-is
func NormalizeErrorCode(code string) string {
	if newCode, ok := LegacyErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
