package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ggoodman/oidc-validation-go/pipeline"
)

var (
	// ErrInputInvalid is returned before any work is done when an argument
	// is malformed (relative address, empty token, ...).
	ErrInputInvalid = errors.New("validation: invalid input")

	// ErrInternal marks failures of the pipeline itself rather than of the
	// remote party or the token: handler faults and missing stage results.
	ErrInternal = errors.New("validation: internal error")

	// ErrMissingResult is returned when a stage completes without producing
	// its result. It wraps ErrInternal.
	ErrMissingResult = fmt.Errorf("%w: missing result", ErrInternal)

	// ErrRejected matches every *Error with errors.Is.
	ErrRejected = errors.New("validation: rejected")
)

// Error is returned when a handler rejects an operation. Code is an OAuth 2.0
// error code such as invalid_token or server_error.
type Error struct {
	Code        string
	Description string
	URI         string
	// Operation and Stage locate the rejection.
	Operation string
	Stage     string
}

var _ pipeline.Rejection = (*Error)(nil)

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "validation: %s rejected during %s: %s", e.Operation, e.Stage, e.Code)
	if e.Description != "" {
		b.WriteString(": ")
		b.WriteString(e.Description)
	}
	return b.String()
}

// Is reports whether target is ErrRejected.
func (e *Error) Is(target error) bool { return target == ErrRejected }

// Rejection returns the OAuth error triple.
func (e *Error) Rejection() (code, description, uri string) {
	return e.Code, e.Description, e.URI
}

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInputInvalid, fmt.Sprintf(format, args...))
}
