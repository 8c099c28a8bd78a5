package ffi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
)

// WASISink is the default Sink: it treats an FFI payload as a path to a
// WASI-targeted WebAssembly guest module, compiles it once, and
// instantiates it per call with the scope snapshot piped through a JSON
// envelope — `{"bindings": {...}}` on the guest's stdin, and either
// `{"bindings": {...}}` or `{"error": "..."}` expected on its stdout.
type WASISink struct {
	rt      wazero.Runtime
	modules map[string]wazero.CompiledModule
	loadFn  func(path string) ([]byte, error)
}

// NewWASISink returns a Sink backed by a fresh wazero runtime with WASI
// preview1 instantiated. loadFn reads the WASM bytes for a guest module
// path; callers typically pass os.ReadFile.
func NewWASISink(ctx context.Context, loadFn func(path string) ([]byte, error)) (*WASISink, error) {
	rt := wazero.NewRuntime(ctx)
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		rt.Close(ctx)
		return nil, fmt.Errorf("ffi: instantiate wasi_snapshot_preview1: %w", err)
	}
	return &WASISink{rt: rt, modules: map[string]wazero.CompiledModule{}, loadFn: loadFn}, nil
}

// Close releases the underlying wazero runtime and every compiled guest
// module.
func (s *WASISink) Close(ctx context.Context) error {
	return s.rt.Close(ctx)
}

// Run treats payload as a guest module path (trimmed of surrounding
// whitespace), compiling it on first use and caching the compiled module
// for subsequent calls against the same path.
func (s *WASISink) Run(ctx context.Context, payload string, bindings map[string]any) (map[string]any, error) {
	path := trimSpace(payload)

	compiled, ok := s.modules[path]
	if !ok {
		bytes, err := s.loadFn(path)
		if err != nil {
			return nil, fmt.Errorf("ffi: read guest module %q: %w", path, err)
		}
		compiled, err = s.rt.CompileModule(ctx, bytes)
		if err != nil {
			return nil, fmt.Errorf("ffi: compile guest module %q: %w", path, err)
		}
		s.modules[path] = compiled
	}

	input, err := json.Marshal(map[string]any{"bindings": bindings})
	if err != nil {
		return nil, fmt.Errorf("ffi: encode bindings: %w", err)
	}

	var stdout bytes.Buffer
	cfg := wazero.NewModuleConfig().
		WithStdin(bytes.NewReader(input)).
		WithStdout(&stdout).
		WithName(""). // anonymous: allows concurrent instantiations of the same module
		WithArgs("nebula-ffi")

	if _, err := s.rt.InstantiateModule(ctx, compiled, cfg); err != nil {
		return nil, fmt.Errorf("ffi: run guest module %q: %w", path, err)
	}

	var envelope struct {
		Bindings map[string]any `json:"bindings"`
		Error    string         `json:"error"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &envelope); err != nil {
		return nil, fmt.Errorf("ffi: decode guest response: %w (raw: %s)", err, stdout.Bytes())
	}
	if envelope.Error != "" {
		return nil, fmt.Errorf("ffi: guest error: %s", envelope.Error)
	}
	return envelope.Bindings, nil
}

func trimSpace(s string) string {
	start, end := 0, len(s)
	for start < end && isSpace(s[start]) {
		start++
	}
	for end > start && isSpace(s[end-1]) {
		end--
	}
	return s[start:end]
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
