package entities

import (
	"errors"
	"fmt"
)

var (
	ErrPerformanceNotFound = errors.New("performance not found")
	ErrTicketNotFound      = errors.New("ticket not found")
	ErrAttendeeNotFound    = errors.New("attendee not found")

	ErrSoldOut         = errors.New("performance sold out")
	ErrNoCapacity      = errors.New("no capacity left")
	ErrDuplicateTicket = errors.New("ticket already exists for this attendee")
	ErrTicketNotValid  = errors.New("ticket is not valid")

	ErrInvalidInput = errors.New("invalid input")
)

// TransientError marks a store failure (timeout, lost connection, serialization
// conflict) after which the whole operation can be retried from the top.
type TransientError struct {
	Err error
}

func NewTransientError(err error) error {
	return TransientError{Err: err}
}

func (e TransientError) Error() string {
	return fmt.Sprintf("transient: %v", e.Err)
}

func (e TransientError) Unwrap() error {
	return e.Err
}

func IsTransient(err error) bool {
	var transient TransientError
	return errors.As(err, &transient)
}

type ErrorKind string

const (
	KindNotFound     ErrorKind = "not_found"
	KindConflict     ErrorKind = "conflict"
	KindInvalidInput ErrorKind = "invalid_input"
	KindTransient    ErrorKind = "transient"
	KindInternal     ErrorKind = "internal"
)

func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case IsTransient(err):
		return KindTransient
	case errors.Is(err, ErrPerformanceNotFound),
		errors.Is(err, ErrTicketNotFound),
		errors.Is(err, ErrAttendeeNotFound):
		return KindNotFound
	case errors.Is(err, ErrSoldOut),
		errors.Is(err, ErrNoCapacity),
		errors.Is(err, ErrDuplicateTicket),
		errors.Is(err, ErrTicketNotValid):
		return KindConflict
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	default:
		return KindInternal
	}
}
