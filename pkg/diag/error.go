package diag

import (
	"errors"
	"fmt"
	"unicode"
	"unicode/utf8"
)

// Error represents an error with context that can be showed.
type Error[T ErrorTag] struct {
	Message string
	Context Context
	// Indicates whether the error occurred at the end of the source, in which
	// case more input may make it go away.
	Partial bool
}

// ErrorTag is used to parameterize [Error] into different concrete types. The
// ErrorTag method is called with a zero receiver, and its return value is used
// in [Error.Error] and [Error.Show].
type ErrorTag interface {
	ErrorTag() string
}

// RangeError combines error with [Ranger].
type RangeError interface {
	error
	Ranger
}

// Error returns a plain text representation of the error.
func (e *Error[T]) Error() string {
	return errorTag[T]() + ": " + e.Context.Describe() + ": " + e.Message
}

func errorTag[T ErrorTag]() string {
	var t T
	return t.ErrorTag()
}

// Range returns the range of the error.
func (e *Error[T]) Range() Ranging {
	return e.Context.Range()
}

// Position returns the line and column where the error starts.
func (e *Error[T]) Position() Position {
	return PositionOf(e.Context.Source, e.Context.From)
}

var (
	messageStart = "\033[31;1m"
	messageEnd   = "\033[m"
)

// Show shows the error.
func (e *Error[T]) Show(indent string) string {
	return fmt.Sprintf("%s: %s%s%s\n%s%s",
		title(errorTag[T]()), messageStart, e.Message, messageEnd,
		indent+"  ", e.Context.ShowCompact(indent+"  "))
}

// Unpack returns the *Error[T] that err wraps, or nil if there is none.
func Unpack[T ErrorTag](err error) *Error[T] {
	var e *Error[T]
	if errors.As(err, &e) {
		return e
	}
	return nil
}

func title(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToTitle(r)) + s[size:]
}
