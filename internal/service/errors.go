package service

import (
	"errors"
	"fmt"

	"github.com/iliyamo/venue-booking/internal/repository"
)

// Kind classifies a business failure.  The transport layer maps each kind
// to one response status.
type Kind string

const (
	KindNotFound         Kind = "NOT_FOUND"
	KindAccessDenied     Kind = "ACCESS_DENIED"
	KindCapacityExceeded Kind = "CAPACITY_EXCEEDED"
	KindSlotConflict     Kind = "SLOT_CONFLICT"
	KindInvalidArgument  Kind = "INVALID_ARGUMENT"
	KindConflict         Kind = "CONFLICT"
)

// Error is a typed business failure with a stable kind and a message fit
// for the caller.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

// Is matches any *Error of the same kind, so errors.Is(err,
// ErrSlotConflict) holds for every slot conflict regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrNotFound         = &Error{Kind: KindNotFound}
	ErrAccessDenied     = &Error{Kind: KindAccessDenied}
	ErrCapacityExceeded = &Error{Kind: KindCapacityExceeded}
	ErrSlotConflict     = &Error{Kind: KindSlotConflict}
	ErrInvalidArgument  = &Error{Kind: KindInvalidArgument}
	ErrConflict         = &Error{Kind: KindConflict}
)

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// storeErr turns repository.ErrNotFound into a NotFound naming what was
// missing and wraps anything else.
func storeErr(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrNotFound) {
		return newError(KindNotFound, "%s not found", what)
	}
	return fmt.Errorf("%s: %w", what, err)
}

// PartialOrderError reports an order that was committed while its linked
// reservation could not be made.  The order stays PENDING with no
// reservation; Err carries the reservation failure.
type PartialOrderError struct {
	OrderID uint64
	Err     error
}

func (e *PartialOrderError) Error() string {
	return fmt.Sprintf("order %d created without reservation: %v", e.OrderID, e.Err)
}

func (e *PartialOrderError) Unwrap() error { return e.Err }
