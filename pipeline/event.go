package pipeline

import (
	"log/slog"

	"github.com/ggoodman/oidc-validation-go/protocol"
)

// Kind identifies a stage context type. Handlers are registered against a
// Kind and only ever see events of that Kind.
type Kind string

// Event is a stage context. Implementations embed BaseContext.
type Event interface {
	Kind() Kind
	Context() *BaseContext
}

type state uint8

const (
	stateContinue state = iota
	stateRejected
	stateSkipped
)

// BaseContext holds what every stage shares: the transaction, the protocol
// messages and the control state set by handlers.
type BaseContext struct {
	Transaction *Transaction
	Request     *protocol.Request
	Response    *protocol.Response

	state            state
	errorCode        string
	errorDescription string
	errorURI         string
}

// NewBaseContext returns a context in the continue state.
func NewBaseContext(tx *Transaction) BaseContext {
	return BaseContext{Transaction: tx}
}

// Context implements Event.
func (c *BaseContext) Context() *BaseContext { return c }

// Options is shorthand for c.Transaction.Options.
func (c *BaseContext) Options() *Options { return c.Transaction.Options }

// Logger is shorthand for c.Transaction.Logger.
func (c *BaseContext) Logger() *slog.Logger { return c.Transaction.Logger }

// Reject marks the stage as rejected. An empty code defaults to server_error.
// Rejection overrides a previous skip.
func (c *BaseContext) Reject(code, description, uri string) {
	if code == "" {
		code = protocol.ErrorServerError
	}
	c.state = stateRejected
	c.errorCode = code
	c.errorDescription = description
	c.errorURI = uri
}

// Skip stops the remaining handlers of the stage. It has no effect on a
// rejected context.
func (c *BaseContext) Skip() {
	if c.state == stateRejected {
		return
	}
	c.state = stateSkipped
}

// IsRejected reports whether a handler rejected the stage.
func (c *BaseContext) IsRejected() bool { return c.state == stateRejected }

// IsSkipped reports whether a handler skipped the rest of the stage.
func (c *BaseContext) IsSkipped() bool { return c.state == stateSkipped }

// ErrorCode returns the rejection code.
func (c *BaseContext) ErrorCode() string { return c.errorCode }

// ErrorDescription returns the rejection description.
func (c *BaseContext) ErrorDescription() string { return c.errorDescription }

// ErrorURI returns the rejection URI.
func (c *BaseContext) ErrorURI() string { return c.errorURI }
