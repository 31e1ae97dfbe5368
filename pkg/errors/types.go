package errors

import (
	"fmt"
)

// FileNotFound represents when we were unable to access a file
// because the path didn't exist.
type FileNotFound struct {
	Path string
}

func (err FileNotFound) Error() string {
	return fmt.Sprintf("%q does not exist", err.Path)
}

// InvalidFieldError represents a field whose value can't be used.
type InvalidFieldError struct {
	Field  string
	Value  string
	Reason string
}

func (err InvalidFieldError) Error() string {
	return fmt.Sprintf("invalid value %q for %s: %s", err.Value, err.Field, err.Reason)
}
