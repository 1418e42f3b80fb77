package errors

import (
	"fmt"
)

// MissingFieldError represents a missing required configuration field.
type MissingFieldError struct {
	Field string
}

func (err MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field: %s", err.Field)
}

// FriendlyMessage returns the message to show users.
func (err MissingFieldError) FriendlyMessage() string {
	return fmt.Sprintf("The required configuration field %q is not set.\n"+
		"Set it in seratosync.yaml or as an environment variable.", err.Field)
}

// FileNotFound represents when we were unable to access a file
// because the path didn't exist.
type FileNotFound struct {
	Path string
}

func (err FileNotFound) Error() string {
	return fmt.Sprintf("%q does not exist", err.Path)
}

// MalformedInput represents a binary record stream that failed to decode.
// It's fatal for the database, and recoverable (skip that crate) for an
// individual crate file.
type MalformedInput struct {
	Reason string
}

func (err MalformedInput) Error() string {
	return fmt.Sprintf("malformed input: %s", err.Reason)
}

// UnresolvedPath represents a track path that doesn't fall under the
// configured source music root. It's always recoverable: the caller logs it
// and leaves the path unchanged.
type UnresolvedPath struct {
	Path string
}

func (err UnresolvedPath) Error() string {
	return fmt.Sprintf("%q is outside the source music root", err.Path)
}
