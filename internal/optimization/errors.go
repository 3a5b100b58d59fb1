package optimization

import "fmt"

// Error is a formulation-layer error carrying operation and component
// context. Shape and contract violations fail fast with this type; solver
// non-convergence is never an Error, it travels inside Result.
type Error struct {
	// Message describes what went wrong.
	Message string
	// Op is the operation that failed, e.g. "optimize".
	Op string
	// Component is the component the failure belongs to, e.g. "driver".
	Component string
	// Err is the underlying cause, if any.
	Err error
}

// Error returns the string representation of the error.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	prefix := e.Component
	if e.Op != "" {
		if prefix != "" {
			prefix += ": "
		}
		prefix += e.Op
	}
	msg := e.Message
	if prefix != "" {
		msg = prefix + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying error, if any.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// WithOperation adds operation context to the error.
func (e *Error) WithOperation(op string) *Error {
	e.Op = op
	return e
}

// WithComponent adds component context to the error.
func (e *Error) WithComponent(component string) *Error {
	e.Component = component
	return e
}

// NewErrorf creates a new formulation error with a formatted message.
func NewErrorf(format string, args ...interface{}) *Error {
	return &Error{Message: fmt.Sprintf(format, args...)}
}

// WrapError wraps an existing error with additional context. If err is nil,
// WrapError returns nil.
func WrapError(err error, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Message: message, Err: err}
}
