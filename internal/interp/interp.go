// Package interp implements the tree-walking evaluator: the third and
// final pipeline stage, turning a parsed AST into values and side effects
// against the scope chain and class table it shares with the rest of a
// running program.
package interp

import (
	"bufio"
	"io"
	"os"

	"github.com/nebula-lang/nebula/internal/ast"
	"github.com/nebula-lang/nebula/internal/class"
	"github.com/nebula-lang/nebula/internal/ffi"
	"github.com/nebula-lang/nebula/internal/module"
	"github.com/nebula-lang/nebula/internal/nebulaerrors"
	"github.com/nebula-lang/nebula/internal/scope"
	"github.com/nebula-lang/nebula/internal/value"
)

// Interp holds everything an evaluation needs beyond the AST itself: the
// global scope, the process-wide class table, the module loader, the FFI
// sink, and the program's I/O streams.
type Interp struct {
	Global  *scope.Scope
	Classes *class.Table
	Loader  *module.Loader
	FFISink ffi.Sink

	Out io.Writer
	In  *bufio.Reader

	// File is the path of the initially executed source file, used both
	// for error context and as the module loader's include base.
	File   string
	Source string

	// classStack tracks the qualified class name of the method currently
	// executing, if any, so a bare reference to a nested class from inside
	// a method body resolves through the owning class's name map. The
	// evaluator is single-threaded and synchronous (per the concurrency
	// model), so a plain slice pushed/popped around each call is safe.
	classStack []string

	// argv backs the __argc/__argv globals, defaulting to os.Args.
	argv []string

	// included tracks resolved paths the statement-form `include` has
	// already evaluated, and moduleCache holds the dict returned by the
	// call form — both implement at-most-once import resolution.
	included    map[string]bool
	moduleCache map[string]*value.Dict
}

// Option configures an Interp at construction time.
type Option func(*Interp)

// WithOutput sets the writer print/printf/input-prompt output goes to,
// defaulting to os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(it *Interp) { it.Out = w }
}

// WithInput sets the reader `input` reads from, defaulting to os.Stdin.
func WithInput(r io.Reader) Option {
	return func(it *Interp) { it.In = bufio.NewReader(r) }
}

// WithFFISink installs the FFI sink an `ffi { ... }` block delegates to,
// defaulting to ffi.NullSink (every FFI block errors).
func WithFFISink(sink ffi.Sink) Option {
	return func(it *Interp) { it.FFISink = sink }
}

// WithArgs seeds the __argc/__argv globals from argv, defaulting to
// os.Args.
func WithArgs(argv []string) Option {
	return func(it *Interp) { it.argv = argv }
}

// New returns an Interp with a fresh global scope, empty class table, and
// a module loader rooted at baseDir (the directory of the entry source
// file, or "" for REPL/inline evaluation).
func New(baseDir string, opts ...Option) *Interp {
	it := &Interp{
		Global:  scope.New(),
		Classes: class.New(),
		Loader:  module.NewLoader(baseDir),
		FFISink: ffi.NullSink{},
		Out:     os.Stdout,
		In:      bufio.NewReader(os.Stdin),
		argv:    os.Args,

		included:    map[string]bool{},
		moduleCache: map[string]*value.Dict{},
	}
	for _, opt := range opts {
		opt(it)
	}
	registerBuiltins(it)
	return it
}

// Run evaluates every top-level statement of program against the global
// scope in order, returning the value of the final expression statement
// (or the value of a top-level `return`, per §4.3) and Null otherwise.
func (it *Interp) Run(program *ast.Program) (value.Value, error) {
	var last value.Value = value.Nil
	for _, stmt := range program.Statements {
		v, sig, err := it.evalStatement(stmt, it.Global)
		if err != nil {
			if ne, ok := err.(*nebulaerrors.Error); ok {
				return nil, ne.WithSource(it.Source, it.File)
			}
			return nil, err
		}
		if sig != nil && sig.Kind == SigReturn {
			return sig.Value, nil
		}
		// A top-level break/continue has no enclosing loop; it is simply
		// not an error, matching the REPL's "continues after any error"
		// posture for stray control flow, but contributes no value.
		if sig != nil {
			last = value.Nil
			continue
		}
		last = v
	}
	return last, nil
}
