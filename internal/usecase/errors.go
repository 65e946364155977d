package usecase

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	ErrorUnknownUser             ErrorCode = "UNKNOWN_USER"
	ErrorProductNotFound         ErrorCode = "PRODUCT_NOT_FOUND"
	ErrorEmptyBasket             ErrorCode = "EMPTY_BASKET"
	ErrorInvalidStatusTransition ErrorCode = "INVALID_STATUS_TRANSITION"
	ErrorOrderNotFound           ErrorCode = "ORDER_NOT_FOUND"
	ErrorInvalidCallback         ErrorCode = "INVALID_CALLBACK"
	ErrorInvalidInput            ErrorCode = "INVALID_INPUT"
	ErrorConflict                ErrorCode = "CONFLICT"
	ErrorUnavailable             ErrorCode = "UNAVAILABLE"
	ErrorInternal                ErrorCode = "INTERNAL"
)

// Retryable reports whether the failure may succeed when the same event is
// processed again.
func (c ErrorCode) Retryable() bool {
	return c == ErrorConflict || c == ErrorUnavailable
}

type Error struct {
	Code   ErrorCode
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("usecase: %s (%s)", e.Code, e.Reason)
	}
	return fmt.Sprintf("usecase: %s (%s): %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newError(code ErrorCode, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}

// Code extracts the ErrorCode of err, INTERNAL for foreign errors and "" for nil.
func Code(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var ue *Error
	if errors.As(err, &ue) {
		return ue.Code
	}
	return ErrorInternal
}
