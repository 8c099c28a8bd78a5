package interp

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nebula-lang/nebula/internal/lexer"
	"github.com/nebula-lang/nebula/internal/parser"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

// runInDir evaluates src with the module loader rooted at dir.
func runInDir(t *testing.T, dir, src string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	it := New(dir, WithOutput(&out))

	l := lexer.New(src)
	p := parser.New(l)
	prog := p.ParseProgram()
	require.Empty(t, p.Errors())

	_, err := it.Run(prog)
	return out.String(), err
}

func TestIncludeStatementLeaksBindings(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "mathlib.fn", `
		pi = 3;
		def double(x){ return x * 2; }
	`)

	out, err := runInDir(t, dir, `
		include "mathlib.fn"
		print(pi);
		print(double(4));`)
	require.NoError(t, err)
	require.Equal(t, "3\n8\n", out)
}

func TestIncludeStatementRunsAtMostOnce(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "noisy.fn", `print("loaded");`)

	out, err := runInDir(t, dir, `
		include "noisy.fn"
		include "noisy.fn"`)
	require.NoError(t, err)
	require.Equal(t, "loaded\n", out)
}

func TestIncludeCallReturnsModuleObject(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "shapes.fn", `
		hidden = 1;
		def area(w, h){ return w * h; }
		class Point { x = 0; y = 0 }
	`)

	out, err := runInDir(t, dir, `
		m = include("shapes");
		f = m["area"];
		print(f(3, 4));
		P = m["Point"];
		p = P(1, 2);
		print(p.x);
		print(p.y);
		print("hidden" in m);`)
	require.NoError(t, err)
	require.Equal(t, "12\n1\n2\nfalse\n", out)
}

func TestIncludeCallAppendsExtension(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "util.fn", `def id(x){ return x; }`)

	out, err := runInDir(t, dir, `
		m = include("util");
		f = m["id"];
		print(f(5));`)
	require.NoError(t, err)
	require.Equal(t, "5\n", out)
}

func TestCrossModuleInheritance(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.fn", `
		class Animal { name = "?"; def speak(self){ return self.name; } }
	`)

	out, err := runInDir(t, dir, `
		m = include("base");
		class Dog(Animal) { }
		d = Dog("rex");
		print(d.speak());`)
	require.NoError(t, err)
	require.Equal(t, "rex\n", out)
}

func TestCircularIncludeFails(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.fn", `include "b.fn"`)
	writeFile(t, dir, "b.fn", `include "a.fn"`)

	_, err := runInDir(t, dir, `include "a.fn"`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "circular include")
}

func TestIncludeMissingFileIsIOError(t *testing.T) {
	dir := t.TempDir()
	_, err := runInDir(t, dir, `include "nope.fn"`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "not found")
}

func TestFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")

	out, err := runInDir(t, dir, `
		f = open("`+path+`", "w");
		f.write("alpha");
		f.write(chr(10));
		f.write("beta");
		f.close();

		g = open("`+path+`");
		print(g.read());
		g.close();
		try { g.close(); } catch (e) { print("already closed"); }

		h = open("`+path+`");
		print(h.readline());
		print(h.readline());
		h.close();

		k = open("`+path+`");
		print(k.readlines());
		k.close();`)
	require.NoError(t, err)
	require.Equal(t, "alpha\nbeta\nalready closed\nalpha\nbeta\n['alpha', 'beta']\n", out)
}

// recordingSink captures what the evaluator hands the FFI sink and returns
// a fixed set of updated bindings.
type recordingSink struct {
	payload  string
	bindings map[string]any
	result   map[string]any
}

func (s *recordingSink) Run(ctx context.Context, payload string, bindings map[string]any) (map[string]any, error) {
	s.payload = payload
	s.bindings = bindings
	return s.result, nil
}

func TestFFISnapshotAndMergeBack(t *testing.T) {
	sink := &recordingSink{result: map[string]any{"x": int64(99), "fresh": "new"}}

	out, _ := runProgram(t, `
		x = 1;
		label = "a";
		f = lambda () { return 0; };
		ffi { host code here }
		print(x);
		print(fresh);`, WithFFISink(sink))

	require.Equal(t, "99\nnew\n", out)
	require.Contains(t, sink.payload, "host code here")
	require.Equal(t, int64(1), sink.bindings["x"])
	require.Equal(t, "a", sink.bindings["label"])
	_, hasFn := sink.bindings["f"]
	require.False(t, hasFn, "callable bindings must not be snapshotted")
}
