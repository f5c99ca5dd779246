package trade

import (
	"errors"
	"fmt"
)

// ValidationKind names the invariant an order input violated
type ValidationKind string

const (
	KindOutOfStock           ValidationKind = "OUT_OF_STOCK"
	KindInvalidReference     ValidationKind = "INVALID_REFERENCE"
	KindInvalidAmount        ValidationKind = "INVALID_AMOUNT"
	KindInvalidPaymentMethod ValidationKind = "INVALID_PAYMENT_METHOD"
)

// TransitionKind names the lifecycle rule a change violated
type TransitionKind string

const (
	KindIllegalTransition TransitionKind = "ILLEGAL_TRANSITION"
	KindImmutable         TransitionKind = "IMMUTABLE"
)

// Sentinels for errors.Is. They match any error of the same kind.
var (
	ErrOutOfStock           = &ValidationError{Kind: KindOutOfStock, Message: "quantity exceeds stock on hand"}
	ErrInvalidReference     = &ValidationError{Kind: KindInvalidReference, Message: "unknown customer or product"}
	ErrInvalidAmount        = &ValidationError{Kind: KindInvalidAmount, Message: "invalid quantity or unit price"}
	ErrInvalidPaymentMethod = &ValidationError{Kind: KindInvalidPaymentMethod, Message: "unknown payment method"}
	ErrIllegalTransition    = &TransitionError{Kind: KindIllegalTransition, Message: "status change not allowed"}
	ErrImmutable            = &TransitionError{Kind: KindImmutable, Message: "order can no longer be edited"}
)

// ValidationError rejects an order input. No state is written when it is returned.
type ValidationError struct {
	Kind    ValidationKind
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ErrorCode implements shared.CodedError
func (e *ValidationError) ErrorCode() string {
	return string(e.Kind)
}

// Is matches any ValidationError of the same kind
func (e *ValidationError) Is(target error) bool {
	var t *ValidationError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

func newValidationError(kind ValidationKind, field, format string, args ...any) *ValidationError {
	return &ValidationError{Kind: kind, Field: field, Message: fmt.Sprintf(format, args...)}
}

// TransitionError rejects a lifecycle change. The order is left unchanged.
type TransitionError struct {
	Kind    TransitionKind
	From    OrderStatus
	To      OrderStatus
	Message string
}

func (e *TransitionError) Error() string {
	return e.Message
}

// ErrorCode implements shared.CodedError
func (e *TransitionError) ErrorCode() string {
	return string(e.Kind)
}

// Is matches any TransitionError of the same kind
func (e *TransitionError) Is(target error) bool {
	var t *TransitionError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}
