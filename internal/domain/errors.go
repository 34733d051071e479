package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Match with errors.Is.
var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrRemoteCall = errors.New("remote call failed")
)

var (
	ErrEmptyCart         = Validation("Your cart is empty")
	ErrBlankPromoCode    = Validation("Please enter a promo code")
	ErrUnknownPromoCode  = NotFound("Invalid promo code")
	ErrUnknownDelivery   = Validation("Unknown delivery option")
	ErrPromoPending      = Conflict("A promo code is already being applied")
	ErrSubmitInProgress  = Conflict("Your order is already being submitted")
	ErrIllegalTransition = Conflict("Illegal transition of checkout status")
	ErrNotCheckingOut    = Conflict("Checkout has not been started")
	ErrPromoCancelled    = Conflict("Promo code check was cancelled")
	ErrProductNotFound   = NotFound("Product not found")
	ErrCartItemNotFound  = NotFound("Cart item not found")
	ErrDuplicateCartItem = Conflict("Product is already in the remote cart")
	ErrOrderNotFound     = NotFound("Order not found")
	ErrDuplicateOrder    = Conflict("An order with this name already exists")
)

// Error carries a kind, a message fit for the user and an optional cause.
type Error struct {
	kind    error
	message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Message is the human-readable text without the cause chain.
func (e *Error) Message() string {
	return e.message
}

func (e *Error) Is(target error) bool {
	return target == e.kind
}

func (e *Error) Unwrap() error {
	return e.cause
}

func Validation(message string) *Error {
	return &Error{kind: ErrValidation, message: message}
}

func NotFound(message string) *Error {
	return &Error{kind: ErrNotFound, message: message}
}

func Conflict(message string) *Error {
	return &Error{kind: ErrConflict, message: message}
}

// RemoteCall wraps a failure of an external store. A cause that already is a
// RemoteCall error is returned as is.
func RemoteCall(op string, cause error) error {
	if cause == nil {
		return nil
	}
	var de *Error
	if errors.As(cause, &de) && de.kind == ErrRemoteCall {
		return cause
	}
	return &Error{kind: ErrRemoteCall, message: fmt.Sprintf("failed to %s", op), cause: cause}
}

// UserMessage extracts the message to show for err.
func UserMessage(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message()
	}
	return "Something went wrong, please try again"
}
