// Package apperr defines the application's error vocabulary. Services
// return tagged errors; the HTTP layer maps each kind to a status code
// and a stable JSON envelope, so handlers never invent ad-hoc error
// shapes.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for transport mapping.
type Kind string

const (
	KindValidation        Kind = "validation"
	KindNotFound          Kind = "not_found"
	KindConflict          Kind = "conflict"
	KindInsufficientStock Kind = "insufficient_stock"
	KindTxFailure         Kind = "tx_failure"
)

// Error is a classified application error with an optional structured
// detail payload that survives to the JSON response.
type Error struct {
	Kind    Kind
	Message string
	Detail  map[string]interface{}
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// WithDetail attaches a structured detail field and returns the error
// for chaining.
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Detail == nil {
		e.Detail = make(map[string]interface{})
	}
	e.Detail[key] = value
	return e
}

// Validation reports invalid caller input.
func Validation(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports a missing entity, identified for the caller.
func NotFound(entity, ref string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s not found: %s", entity, ref),
		Detail:  map[string]interface{}{"entity": entity, "ref": ref},
	}
}

// Conflict reports a uniqueness or state conflict.
func Conflict(format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// InsufficientStock reports that a sale asked for more units than the
// named medicine has on hand. Available and requested quantities ride
// along so the front desk can show the shortfall.
func InsufficientStock(medicine string, requested, available int) *Error {
	return &Error{
		Kind:    KindInsufficientStock,
		Message: fmt.Sprintf("insufficient stock for %s: requested %d, available %d", medicine, requested, available),
		Detail: map[string]interface{}{
			"medicine":  medicine,
			"requested": requested,
			"available": available,
		},
	}
}

// TxFailure wraps a transaction-level failure. The caller sees a clean
// message; the cause stays available for logging.
func TxFailure(cause error) *Error {
	return &Error{Kind: KindTxFailure, Message: "transaction failed", cause: cause}
}

// Wrap attaches a cause to an existing error, preserving its kind.
func (e *Error) Wrap(cause error) *Error {
	e.cause = cause
	return e
}

// KindOf extracts the Kind from an error chain, or "" if the error is
// not an application error.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}

// IsNotFound reports whether err is a not-found application error.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// IsValidation reports whether err is a validation application error.
func IsValidation(err error) bool {
	return KindOf(err) == KindValidation
}
