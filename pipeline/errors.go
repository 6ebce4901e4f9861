package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrRegistrySealed is returned by Register once a registry has been
	// used for dispatch (or sealed explicitly).
	ErrRegistrySealed = errors.New("pipeline: registry is sealed")
	// ErrDuplicateDescriptor is returned when a descriptor ID is registered twice.
	ErrDuplicateDescriptor = errors.New("pipeline: duplicate descriptor")
	// ErrInvalidDescriptor is returned for descriptors missing an ID, Kind or Handler.
	ErrInvalidDescriptor = errors.New("pipeline: invalid descriptor")
	// ErrEventMismatch is returned by HandlerFunc when given the wrong event type.
	ErrEventMismatch = errors.New("pipeline: event type mismatch")
	// ErrInvalidTransaction is returned when a Factory yields no transaction,
	// or a scope other than the one bound to the transaction.
	ErrInvalidTransaction = errors.New("pipeline: invalid transaction")
)

// HandlerFault reports a handler that returned an error. It aborts the
// operation and is never retried.
type HandlerFault struct {
	Handler string
	Kind    Kind
	Err     error
}

func (e *HandlerFault) Error() string {
	return fmt.Sprintf("pipeline: handler %s failed during %s: %v", e.Handler, e.Kind, e.Err)
}

func (e *HandlerFault) Unwrap() error { return e.Err }

// Rejection is implemented by errors that carry an OAuth error triple, so a
// handler running a nested operation can propagate the original rejection.
type Rejection interface {
	error
	Rejection() (code, description, uri string)
}
