package interp

import "github.com/nebula-lang/nebula/internal/value"

// SignalKind distinguishes the three non-local control-flow outcomes a
// statement evaluation can produce, kept as a distinct channel from Go
// errors so `throw` and `break`/`continue`/`return` never conflate: a
// try/catch must never intercept a loop's break.
type SignalKind int

const (
	SigNone SignalKind = iota
	SigBreak
	SigContinue
	SigReturn
)

// Signal is returned alongside a Value from every statement-evaluating
// function. A nil *Signal means normal fall-through; Value is only
// meaningful for SigReturn.
type Signal struct {
	Kind  SignalKind
	Value value.Value
}
