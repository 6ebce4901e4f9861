package pipeline

import (
	"context"
	"fmt"
)

// Handler runs against one stage context.
type Handler interface {
	Handle(ctx context.Context, ev Event) error
}

// HandlerFunc adapts a typed function to Handler. E is usually a pointer to a
// concrete stage context, or an interface shared by several of them.
type HandlerFunc[E Event] func(ctx context.Context, ev E) error

// Handle implements Handler. An event of the wrong type is reported as an
// error, which the dispatcher turns into a HandlerFault.
func (f HandlerFunc[E]) Handle(ctx context.Context, ev Event) error {
	typed, ok := ev.(E)
	if !ok {
		var want E
		return fmt.Errorf("%w: handler expects %T, got %T", ErrEventMismatch, want, ev)
	}
	return f(ctx, typed)
}

// Filter decides whether a descriptor takes part in a dispatch. Filters see
// the event, and through it the transaction and options snapshot.
type Filter interface {
	IsActive(ev Event) bool
}

// FilterFunc adapts a function to Filter.
type FilterFunc func(ev Event) bool

func (f FilterFunc) IsActive(ev Event) bool { return f(ev) }

// Descriptor is the registration record of a handler.
type Descriptor struct {
	// ID must be unique within a registry.
	ID   string
	Kind Kind
	// Order sorts handlers ascending. Equal orders keep registration order.
	Order   int
	Filters []Filter
	Handler Handler
}

func (d *Descriptor) active(ev Event) bool {
	for _, f := range d.Filters {
		if !f.IsActive(ev) {
			return false
		}
	}
	return true
}
