// Package diag implements the fatal, source-located diagnostics reported by
// every stage of the compiler.
package diag

import (
	"fmt"
	"strings"

	"github.com/you-not-fish/lygos/internal/src"
)

// Label attaches a message to a source position.
type Label struct {
	Pos src.Pos
	Msg string
}

// Error is a fatal compiler diagnostic. The first label is the primary
// location; further labels give context.
type Error struct {
	Msg    string
	Labels []Label
	Help   string
	Note   string
}

// Errorf creates a diagnostic without any labels.
func Errorf(format string, args ...interface{}) *Error {
	return &Error{Msg: fmt.Sprintf(format, args...)}
}

// At creates a diagnostic with a single primary label.
func At(pos src.Pos, label, format string, args ...interface{}) *Error {
	return Errorf(format, args...).WithLabel(pos, label)
}

// WithLabel appends a label at pos.
func (e *Error) WithLabel(pos src.Pos, format string, args ...interface{}) *Error {
	e.Labels = append(e.Labels, Label{Pos: pos, Msg: fmt.Sprintf(format, args...)})
	return e
}

// WithHelp sets the help text.
func (e *Error) WithHelp(format string, args ...interface{}) *Error {
	e.Help = fmt.Sprintf(format, args...)
	return e
}

// WithNote sets the note text.
func (e *Error) WithNote(format string, args ...interface{}) *Error {
	e.Note = fmt.Sprintf(format, args...)
	return e
}

// Pos returns the primary position, or src.NoPos if the diagnostic has no
// labels.
func (e *Error) Pos() src.Pos {
	if len(e.Labels) == 0 {
		return src.NoPos
	}
	return e.Labels[0].Pos
}

// Error implements the error interface.
func (e *Error) Error() string {
	if pos := e.Pos(); pos.IsValid() {
		return fmt.Sprintf("%s: %s", pos, e.Msg)
	}
	return e.Msg
}

// HasLabel reports whether any label message contains substr.
func (e *Error) HasLabel(substr string) bool {
	for _, l := range e.Labels {
		if strings.Contains(l.Msg, substr) {
			return true
		}
	}
	return false
}

// Internal panics with an internal compiler error. It marks invariant
// violations that valid input cannot trigger.
func Internal(format string, args ...interface{}) {
	panic("internal error: " + fmt.Sprintf(format, args...))
}
