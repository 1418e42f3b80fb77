package errors

import (
	goErrors "errors"
	"fmt"
)

// New returns an error with the given message. It's a drop-in replacement
// for the standard library's errors.New so that callers don't have to
// import both packages.
func New(msg string) error {
	return goErrors.New(msg)
}

// ContextError attaches a short description of the operation that failed to
// the underlying error. Chains of ContextErrors read outermost-first, e.g.
// "load database: read file: permission denied".
type ContextError struct {
	Context string
	Err     error
}

func (err ContextError) Error() string {
	return fmt.Sprintf("%s: %s", err.Context, err.Err)
}

// Unwrap makes ContextError compatible with the standard library's errors
// helpers.
func (err ContextError) Unwrap() error {
	return err.Err
}

// WithContext wraps err with a short description of the operation that
// produced it.
func WithContext(err error, context string) error {
	return ContextError{Context: context, Err: err}
}

// RootCause returns the innermost error in a chain of ContextErrors. It's
// used for making decisions based on the type of the original failure.
func RootCause(err error) error {
	for {
		ctxErr, ok := err.(ContextError)
		if !ok {
			return err
		}
		err = ctxErr.Err
	}
}

// FriendlyError is an error whose message is meant to be shown to the user
// directly, without any "context: " prefixes.
type FriendlyError struct {
	Message string
}

func (err FriendlyError) Error() string {
	return err.Message
}

// FriendlyMessage returns the message to show users.
func (err FriendlyError) FriendlyMessage() string {
	return err.Message
}

// NewFriendlyError creates an error with a message meant for human
// consumption.
func NewFriendlyError(format string, args ...interface{}) error {
	return FriendlyError{Message: fmt.Sprintf(format, args...)}
}

type friendlier interface {
	FriendlyMessage() string
}

// GetPrintableMessage returns the user-facing form of err. Errors that
// implement FriendlyMessage get their message printed verbatim; everything
// else falls back to the plain Error string.
func GetPrintableMessage(err error) string {
	if friendly, ok := err.(friendlier); ok {
		return friendly.FriendlyMessage()
	}
	if friendly, ok := RootCause(err).(friendlier); ok {
		return friendly.FriendlyMessage()
	}
	return err.Error()
}
