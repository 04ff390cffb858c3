// Package apperr defines the recoverable error kinds returned by the services.
// Handlers translate a Kind into an HTTP status; nothing in this package knows about HTTP.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindUnknown Kind = iota
	// KindValidation: missing required field, bad enum value, out of range number,
	// disallowed status transition.
	KindValidation
	// KindReference: a foreign key points at a missing or soft-deleted row.
	KindReference
	// KindConsistency: cross-entity rule broken (order/cart/restaurant mismatch, parent cycle).
	KindConsistency
	// KindConflict: uniqueness violation or a concurrent update that won the race.
	KindConflict
	KindNotFound
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation_error"
	case KindReference:
		return "reference_error"
	case KindConsistency:
		return "consistency_error"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	default:
		return "internal_error"
	}
}

type Error struct {
	Kind   Kind
	Field  string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(field, reason string) *Error {
	return &Error{Kind: KindValidation, Field: field, Reason: reason}
}

func Reference(field, reason string) *Error {
	return &Error{Kind: KindReference, Field: field, Reason: reason}
}

func Consistency(field, reason string) *Error {
	return &Error{Kind: KindConsistency, Field: field, Reason: reason}
}

func Conflict(field, reason string) *Error {
	return &Error{Kind: KindConflict, Field: field, Reason: reason}
}

func NotFound(what string) *Error {
	return &Error{Kind: KindNotFound, Reason: what + " not found"}
}

func Forbidden(reason string) *Error {
	return &Error{Kind: KindForbidden, Reason: reason}
}

// KindOf returns the Kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
