// Package errors contains the error helpers used throughout foldersync.
// Errors are wrapped with a short description of the failed step so that the
// final message reads like a trace, e.g. "copy: open destination: permission
// denied".
package errors

import (
	"fmt"

	pkgErrors "github.com/pkg/errors"
)

// New returns an error with the given message.
func New(msg string) error {
	return pkgErrors.New(msg)
}

// Errorf returns an error formatted according to the format specifier.
func Errorf(format string, args ...interface{}) error {
	return pkgErrors.Errorf(format, args...)
}

// WithContext annotates err with a description of what was being attempted.
// It returns nil if err is nil.
// No stack trace is recorded, so two errors wrapped with the same context
// compare as equal.
func WithContext(err error, context string) error {
	return pkgErrors.WithMessage(err, context)
}

// RootCause returns the innermost error that was wrapped by WithContext.
func RootCause(err error) error {
	return pkgErrors.Cause(err)
}

// FriendlyError is an error whose message is meant to be shown to the user
// as is.
type FriendlyError struct {
	msg string
}

// NewFriendlyError creates a FriendlyError with the formatted message.
func NewFriendlyError(format string, args ...interface{}) error {
	return FriendlyError{fmt.Sprintf(format, args...)}
}

func (err FriendlyError) Error() string {
	return err.msg
}

// FriendlyMessage returns the message to show the user.
func (err FriendlyError) FriendlyMessage() string {
	return err.msg
}

type friendlyMessager interface {
	FriendlyMessage() string
}

// GetPrintableMessage returns the message that should be shown to the user
// for err. Friendly errors are printed without the context that was added
// while the error propagated.
func GetPrintableMessage(err error) string {
	if friendly, ok := RootCause(err).(friendlyMessager); ok {
		return friendly.FriendlyMessage()
	}
	return err.Error()
}
