package interp

import (
	"path/filepath"
	"strings"

	"github.com/nebula-lang/nebula/internal/ast"
	"github.com/nebula-lang/nebula/internal/lexer"
	"github.com/nebula-lang/nebula/internal/nebulaerrors"
	"github.com/nebula-lang/nebula/internal/parser"
	"github.com/nebula-lang/nebula/internal/scope"
	"github.com/nebula-lang/nebula/internal/value"
	"github.com/nebula-lang/nebula/pkg/token"
)

// evalIncludeStmt implements the statement form `include "path"`: the loaded
// file's top-level statements evaluate into the CURRENT scope, so every
// binding it makes leaks in. A file already included this way is skipped —
// at-most-once resolution.
func (it *Interp) evalIncludeStmt(n *ast.Include, sc *scope.Scope) (value.Value, error) {
	resolved, source, program, err := it.loadParsed(n.Path, false, n.Pos())
	if err != nil {
		return nil, err
	}
	if it.included[resolved] {
		return value.Nil, nil
	}

	it.Loader.BeginLoad(resolved)
	for _, stmt := range program.Statements {
		if _, _, err := it.evalStatement(stmt, sc); err != nil {
			it.Loader.EndLoad(resolved, source)
			return nil, err
		}
	}
	it.Loader.EndLoad(resolved, source)
	it.included[resolved] = true
	return value.Nil, nil
}

// includeModule implements the call form `include(expr)`: the file
// evaluates into a fresh scope over the globals, and the returned module
// object is a dict mapping names to its top-level functions and class
// constructors. Classes register into the shared table during evaluation,
// so cross-module inheritance works, but only constructors and functions
// appear in the dict. The module object is cached by resolved path.
func (it *Interp) includeModule(path string, pos token.Position) (value.Value, error) {
	resolved, source, program, err := it.loadParsed(path, true, pos)
	if err != nil {
		return nil, err
	}
	if mod, ok := it.moduleCache[resolved]; ok {
		return mod, nil
	}

	modScope := scope.NewEnclosed(it.Global)
	it.Loader.BeginLoad(resolved)
	for _, stmt := range program.Statements {
		if _, _, err := it.evalStatement(stmt, modScope); err != nil {
			it.Loader.EndLoad(resolved, source)
			return nil, err
		}
	}
	it.Loader.EndLoad(resolved, source)

	mod := value.NewDict()
	for _, stmt := range program.Statements {
		switch s := stmt.(type) {
		case *ast.FunctionDef:
			if strings.Contains(s.Name, ".") {
				continue // methods live on their class, not in the module dict
			}
			if v, ok := modScope.Get(s.Name); ok {
				mod.Set(&value.Str{Value: s.Name}, v)
			}
		case *ast.ClassDef:
			mod.Set(&value.Str{Value: s.Name}, &value.Ctor{ClassName: s.Name})
		}
	}
	it.moduleCache[resolved] = mod
	return mod, nil
}

// loadParsed resolves and reads path through the module loader, then
// parses the source, surfacing the first lexical or syntax error with the
// included file's name attached.
func (it *Interp) loadParsed(path string, ensureExt bool, pos token.Position) (string, string, *ast.Program, error) {
	resolved, source, _, err := it.Loader.Load(path, ensureExt)
	if err != nil {
		return "", "", nil, nebulaerrors.At(nebulaerrors.IOError, pos, "%v", err)
	}

	l := lexer.New(source)
	p := parser.New(l).WithFile(filepath.Base(resolved))
	program := p.ParseProgram()
	if errs := l.Errors(); len(errs) > 0 {
		return "", "", nil, errs[0].WithSource(l.Stripped(), filepath.Base(resolved))
	}
	if errs := p.Errors(); len(errs) > 0 {
		return "", "", nil, errs[0]
	}
	return resolved, source, program, nil
}
