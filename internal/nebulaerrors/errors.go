// Package nebulaerrors defines the closed set of error kinds Nebula programs
// can raise and formats them with source context, mirroring the teacher
// repository's internal/errors package (position + message + source line +
// caret).
package nebulaerrors

import (
	"fmt"
	"strings"

	"github.com/nebula-lang/nebula/pkg/token"
)

// Kind is the closed set of error categories from the language spec.
type Kind int

const (
	LexError Kind = iota
	SyntaxError
	NameError
	AttributeError
	TypeError
	ArityError
	IOError
	UserError
)

var kindNames = [...]string{
	LexError:       "LexError",
	SyntaxError:    "SyntaxError",
	NameError:      "NameError",
	AttributeError: "AttributeError",
	TypeError:      "TypeError",
	ArityError:     "ArityError",
	IOError:        "IOError",
	UserError:      "UserError",
}

func (k Kind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Error"
}

// Error is the single error type used throughout Nebula. Every raised
// condition carries a Kind, a human message, and (when available) the
// source position and original program text for caret-style reporting.
type Error struct {
	Kind    Kind
	Message string
	Pos     token.Position
	Source  string
	File    string

	// Value holds the raw thrown value for UserError (throw expr), so
	// catch blocks and the top-level runner can inspect it beyond its
	// string form if they need to.
	Value any
}

// New creates an Error without source context (used deep inside the
// evaluator, where the caller attaches context before surfacing it).
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// At creates an Error with a source position.
func At(kind Kind, pos token.Position, format string, args ...any) *Error {
	return &Error{Kind: kind, Pos: pos, Message: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	return e.Format(false)
}

// WithSource attaches the original source text and file name for caret
// formatting and returns the same error for chaining.
func (e *Error) WithSource(source, file string) *Error {
	e.Source = source
	e.File = file
	return e
}

// Format renders the error with a source line and caret, matching the
// teacher's CompilerError.Format. If color is true, ANSI codes highlight
// the caret and message.
func (e *Error) Format(color bool) string {
	var sb strings.Builder

	header := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Pos.Line > 0 {
		if e.File != "" {
			sb.WriteString(fmt.Sprintf("%s in %s:%d:%d\n", e.Kind, e.File, e.Pos.Line, e.Pos.Column))
		} else {
			sb.WriteString(fmt.Sprintf("%s at %d:%d\n", e.Kind, e.Pos.Line, e.Pos.Column))
		}
	} else {
		sb.WriteString(header + "\n")
		return strings.TrimRight(sb.String(), "\n")
	}

	if line := sourceLine(e.Source, e.Pos.Line); line != "" {
		lineNumStr := fmt.Sprintf("%4d | ", e.Pos.Line)
		sb.WriteString(lineNumStr)
		sb.WriteString(line)
		sb.WriteString("\n")

		sb.WriteString(strings.Repeat(" ", len(lineNumStr)+max0(e.Pos.Column-1)))
		if color {
			sb.WriteString("\033[1;31m")
		}
		sb.WriteString("^")
		if color {
			sb.WriteString("\033[0m")
		}
		sb.WriteString("\n")
	}

	if color {
		sb.WriteString("\033[1m")
	}
	sb.WriteString(e.Message)
	if color {
		sb.WriteString("\033[0m")
	}

	return sb.String()
}

func max0(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func sourceLine(source string, lineNum int) string {
	if source == "" || lineNum < 1 {
		return ""
	}
	lines := strings.Split(source, "\n")
	if lineNum > len(lines) {
		return ""
	}
	return lines[lineNum-1]
}

// Is reports whether err is a Nebula *Error of the given kind.
func Is(err error, kind Kind) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == kind
}
