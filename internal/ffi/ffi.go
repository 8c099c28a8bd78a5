// Package ffi defines the foreign-function interface surface: the payload
// captured from an `ffi { ... }` block is handed to a pluggable Sink, and
// the core evaluator never inspects or interprets that payload itself.
package ffi

import "context"

// Sink executes a raw FFI payload against a snapshot of the enclosing
// scope's non-callable bindings. Payload is the verbatim text the parser
// captured between an `ffi {` and its matching closing brace. Bindings is a
// JSON-encodable snapshot built by the evaluator; the returned map holds
// the names the payload updated (or introduced), which the evaluator merges
// back into the scope it took the snapshot from. Payload semantics are
// entirely host-defined.
type Sink interface {
	Run(ctx context.Context, payload string, bindings map[string]any) (map[string]any, error)
}

// NullSink rejects every payload, used when no FFI sink has been
// registered — an `ffi {...}` block in a program that never calls
// pkg/nebula.RegisterFFISink fails loudly instead of silently no-oping.
type NullSink struct{}

func (NullSink) Run(ctx context.Context, payload string, bindings map[string]any) (map[string]any, error) {
	return nil, errNoSink
}

var errNoSink = sinkError("no FFI sink registered")

type sinkError string

func (e sinkError) Error() string { return string(e) }
