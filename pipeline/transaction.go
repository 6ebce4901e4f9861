package pipeline

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Transaction carries the state of a single operation across all of its
// stages. It is owned by the goroutine running the operation and is not safe
// for concurrent use.
type Transaction struct {
	ID        string
	Operation string
	Options   *Options
	Logger    *slog.Logger

	scope *Scope
	keys  []string
	props map[string]any
}

// NewTransaction creates a transaction bound to scope.
func NewTransaction(operation string, opts *Options, scope *Scope) *Transaction {
	if opts == nil {
		opts = &Options{}
	}
	id := uuid.NewString()
	return &Transaction{
		ID:        id,
		Operation: operation,
		Options:   opts,
		Logger:    opts.Log(),
		scope:     scope,
		props:     make(map[string]any),
	}
}

// Scope returns the scope whose lifetime matches the transaction.
func (t *Transaction) Scope() *Scope { return t.scope }

// SetProperty stores value under key. Insertion order is preserved.
func (t *Transaction) SetProperty(key string, value any) {
	if _, ok := t.props[key]; !ok {
		t.keys = append(t.keys, key)
	}
	t.props[key] = value
}

// Property returns the value stored under key.
func (t *Transaction) Property(key string) (any, bool) {
	v, ok := t.props[key]
	return v, ok
}

// RemoveProperty deletes key.
func (t *Transaction) RemoveProperty(key string) {
	if _, ok := t.props[key]; !ok {
		return
	}
	delete(t.props, key)
	for i, k := range t.keys {
		if k == key {
			t.keys = append(t.keys[:i], t.keys[i+1:]...)
			return
		}
	}
}

// PropertyKeys returns the keys in insertion order.
func (t *Transaction) PropertyKeys() []string { return append([]string(nil), t.keys...) }

// Property returns the value stored under key if it has type T.
func Property[T any](t *Transaction, key string) (T, bool) {
	v, ok := t.props[key].(T)
	return v, ok
}

// Factory creates the transaction and scope backing one operation.
type Factory interface {
	CreateTransaction(ctx context.Context, operation string, opts *Options) (*Transaction, *Scope, error)
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func(ctx context.Context, operation string, opts *Options) (*Transaction, *Scope, error)

func (f FactoryFunc) CreateTransaction(ctx context.Context, operation string, opts *Options) (*Transaction, *Scope, error) {
	return f(ctx, operation, opts)
}

// DefaultFactory allocates a fresh Scope and Transaction per call.
var DefaultFactory Factory = FactoryFunc(func(_ context.Context, operation string, opts *Options) (*Transaction, *Scope, error) {
	scope := NewScope()
	return NewTransaction(operation, opts, scope), scope, nil
})
