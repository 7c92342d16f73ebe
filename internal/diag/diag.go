// Package diag defines located diagnostics. Every failure the model builder,
// reflector or selector resolver reports is a *Error pointing at the user
// declaration that caused it.
package diag

import (
	"errors"
	"fmt"

	"github.com/jward/jbind/internal/classinfo"
)

// Code is a machine-readable error category.
type Code string

const (
	CodeNameMismatch         Code = "name_mismatch"
	CodeDuplicateClass       Code = "duplicate_class"
	CodeUnknownClass         Code = "unknown_class"
	CodeToolSpawn            Code = "tool_spawn"
	CodeToolExit             Code = "tool_exit"
	CodeToolTimeout          Code = "tool_timeout"
	CodeToolEncoding         Code = "tool_encoding"
	CodeParse                Code = "parse"
	CodeNoConstructor        Code = "no_constructor"
	CodeAmbiguousConstructor Code = "ambiguous_constructor"
	CodeNoMethod             Code = "no_method"
	CodeAmbiguousMethod      Code = "ambiguous_method"
	CodeUnsupported          Code = "unsupported"
)

// Sentinels for errors.Is. They match any *Error with the same code.
var (
	ErrNameMismatch         = &Error{Code: CodeNameMismatch}
	ErrDuplicateClass       = &Error{Code: CodeDuplicateClass}
	ErrUnknownClass         = &Error{Code: CodeUnknownClass}
	ErrToolSpawn            = &Error{Code: CodeToolSpawn}
	ErrToolExit             = &Error{Code: CodeToolExit}
	ErrToolTimeout          = &Error{Code: CodeToolTimeout}
	ErrToolEncoding         = &Error{Code: CodeToolEncoding}
	ErrParse                = &Error{Code: CodeParse}
	ErrNoConstructor        = &Error{Code: CodeNoConstructor}
	ErrAmbiguousConstructor = &Error{Code: CodeAmbiguousConstructor}
	ErrNoMethod             = &Error{Code: CodeNoMethod}
	ErrAmbiguousMethod      = &Error{Code: CodeAmbiguousMethod}
	ErrUnsupported          = &Error{Code: CodeUnsupported}
)

// Error is a diagnostic located at a user declaration.
type Error struct {
	Span    classinfo.Span
	Code    Code
	Message string

	// Class is the qualified name being processed, when there is one.
	Class classinfo.DotId
	// Command is the exact tool command line for tool failures.
	Command string
	// Member and Count describe selector failures.
	Member string
	Count  int

	Err error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Code)
	}
	if e.Span.IsZero() {
		return msg
	}
	return e.Span.String() + ": " + msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Errorf builds a located error.
func Errorf(span classinfo.Span, code Code, format string, args ...any) *Error {
	return &Error{Span: span, Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}
