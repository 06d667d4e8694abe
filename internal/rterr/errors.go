// Package rterr defines the runtime (as opposed to static-validation) error
// taxonomy: the fail-fast Error and the structurally identical but
// accumulated Warning (§7).
package rterr

import "fmt"

// Kind is a stable, string-identified transform error/warning kind.
type Kind string

const (
	InvalidInput       Kind = "InvalidInput"
	InvalidRecordsPath Kind = "InvalidRecordsPath"
	InvalidRef         Kind = "InvalidRef"
	InvalidTarget      Kind = "InvalidTarget"
	MissingRequired    Kind = "MissingRequired"
	TypeCastFailed     Kind = "TypeCastFailed"
	ExprError          Kind = "ExprError"
)

// Error is a fail-fast transform error, returned as the call's error.
type Error struct {
	Kind    Kind
	Message string
	Path    string
}

// New builds an Error with no path attached.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf builds an Error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return New(kind, fmt.Sprintf(format, args...))
}

// WithPath returns a copy of e with Path set to the rule-file location the
// error belongs to (e.g. "mappings[0]" or "mappings[0].expr.args[1]").
func (e *Error) WithPath(path string) *Error {
	if e == nil {
		return nil
	}
	cp := *e
	cp.Path = path
	return &cp
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s (path: %s)", e.Message, e.Path)
	}
	return e.Message
}

// Warning is the same shape as Error, but collected rather than thrown:
// recoverable per-record conditions (a non-boolean when/record_when) are
// reported this way instead of aborting the record.
type Warning struct {
	Kind    Kind
	Message string
	Path    string
}

func NewWarning(kind Kind, message, path string) Warning {
	return Warning{Kind: kind, Message: message, Path: path}
}

func (w Warning) String() string {
	if w.Path != "" {
		return fmt.Sprintf("%s: %s (path: %s)", w.Kind, w.Message, w.Path)
	}
	return fmt.Sprintf("%s: %s", w.Kind, w.Message)
}
