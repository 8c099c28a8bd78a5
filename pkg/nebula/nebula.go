// Package nebula is the embeddable entry point to the Nebula interpreter:
// construct an Engine, feed it source text or files, and read back results.
// The pipeline stages themselves live under internal/ and are not part of
// the public surface.
package nebula

import (
	"io"
	"os"
	"path/filepath"

	"github.com/nebula-lang/nebula/internal/ffi"
	"github.com/nebula-lang/nebula/internal/interp"
	"github.com/nebula-lang/nebula/internal/lexer"
	"github.com/nebula-lang/nebula/internal/nebulaerrors"
	"github.com/nebula-lang/nebula/internal/parser"
	"github.com/nebula-lang/nebula/internal/value"
)

// Engine wraps one interpreter: a global scope, a class table, a module
// loader, and an FFI sink, persisting across Run calls so a REPL can build
// state submission by submission.
type Engine struct {
	it   *interp.Interp
	opts []interp.Option

	baseDir string
	stderr  io.Writer
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithStdout redirects print/printf output.
func WithStdout(w io.Writer) Option {
	return func(e *Engine) { e.opts = append(e.opts, interp.WithOutput(w)) }
}

// WithStdin redirects what `input` reads.
func WithStdin(r io.Reader) Option {
	return func(e *Engine) { e.opts = append(e.opts, interp.WithInput(r)) }
}

// WithArgs seeds the __argc/__argv globals.
func WithArgs(argv []string) Option {
	return func(e *Engine) { e.opts = append(e.opts, interp.WithArgs(argv)) }
}

// WithFFISink installs the sink `ffi { ... }` blocks delegate to.
func WithFFISink(sink ffi.Sink) Option {
	return func(e *Engine) { e.opts = append(e.opts, interp.WithFFISink(sink)) }
}

// WithBaseDir sets the directory relative includes resolve against,
// normally the entry source file's directory.
func WithBaseDir(dir string) Option {
	return func(e *Engine) { e.baseDir = dir }
}

// New returns an Engine with a fresh interpreter.
func New(opts ...Option) *Engine {
	e := &Engine{stderr: os.Stderr}
	for _, opt := range opts {
		opt(e)
	}
	e.it = interp.New(e.baseDir, e.opts...)
	return e
}

// Reset discards all interpreter state — scopes, classes, loaded modules —
// and starts over, keeping the construction options. Backs the REPL's
// :reset command.
func (e *Engine) Reset() {
	e.it = interp.New(e.baseDir, e.opts...)
}

// RegisterFFISink swaps the FFI sink on the live interpreter.
func (e *Engine) RegisterFFISink(sink ffi.Sink) {
	e.it.FFISink = sink
}

// Result is the value a Run produced, opaque beyond its string form and
// null-ness so the internal value model stays internal.
type Result struct {
	v value.Value
}

// IsNull reports whether the result is the null value (or absent).
func (r Result) IsNull() bool {
	if r.v == nil {
		return true
	}
	_, isNull := r.v.(*value.Null)
	return isNull
}

// String renders the result the way the REPL prints it.
func (r Result) String() string {
	if r.v == nil {
		return ""
	}
	return r.v.String()
}

// Run tokenizes, parses, and evaluates source against the engine's
// persistent state, returning the final top-level value.
func (e *Engine) Run(source string) (Result, error) {
	return e.run(source, "")
}

// RunFile reads and runs a source file, pointing relative includes at the
// file's directory.
func (e *Engine) RunFile(path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, nebulaerrors.New(nebulaerrors.IOError, "cannot read %s: %v", path, err)
	}
	if e.it.Loader.BaseDir == "" {
		e.it.Loader.BaseDir = filepath.Dir(path)
	}
	return e.run(string(data), path)
}

func (e *Engine) run(source, file string) (Result, error) {
	l := lexer.New(source)
	p := parser.New(l)
	if file != "" {
		p.WithFile(filepath.Base(file))
	}
	program := p.ParseProgram()

	if errs := l.Errors(); len(errs) > 0 {
		return Result{}, errs[0].WithSource(l.Stripped(), file)
	}
	if errs := p.Errors(); len(errs) > 0 {
		return Result{}, errs[0]
	}

	e.it.File = file
	e.it.Source = l.Stripped()
	v, err := e.it.Run(program)
	if err != nil {
		return Result{}, err
	}
	return Result{v: v}, nil
}
