package interp

import (
	"strings"

	"github.com/nebula-lang/nebula/internal/ast"
	"github.com/nebula-lang/nebula/internal/class"
	"github.com/nebula-lang/nebula/internal/nebulaerrors"
	"github.com/nebula-lang/nebula/internal/scope"
	"github.com/nebula-lang/nebula/internal/value"
)

// evalBlock runs every statement of b in order against sc, stopping early
// (without running later statements) the moment a control signal or error
// surfaces. Block bodies share the enclosing scope rather than opening a
// fresh one: Nebula has no block scoping, only call-frame scoping (§4.6).
func (it *Interp) evalBlock(b *ast.Block, sc *scope.Scope) (value.Value, *Signal, error) {
	var last value.Value = value.Nil
	for _, stmt := range b.Statements {
		v, sig, err := it.evalStatement(stmt, sc)
		if err != nil {
			return nil, nil, err
		}
		if sig != nil {
			return v, sig, nil
		}
		last = v
	}
	return last, nil, nil
}

// evalStatement dispatches on the statement's concrete AST type. Every
// case returns the triple (value, control signal, error); exactly one of
// signal and error is non-nil on an early exit, and both are nil on
// ordinary fall-through.
func (it *Interp) evalStatement(stmt ast.Statement, sc *scope.Scope) (value.Value, *Signal, error) {
	switch n := stmt.(type) {
	case *ast.ExpressionStatement:
		// A match at statement position evaluates through the signal-aware
		// path, so break/continue/return inside a case body unwind to the
		// enclosing loop or call frame instead of being swallowed.
		if m, ok := n.Expr.(*ast.Match); ok {
			return it.evalMatchStmt(m, sc)
		}
		v, err := it.evalExpression(n.Expr, sc)
		if err != nil {
			return nil, nil, err
		}
		// Assignments are statements for the REPL's purposes: they bind,
		// but they don't produce a printable top-level value.
		switch n.Expr.(type) {
		case *ast.Assign, *ast.SetAttr, *ast.SetIndex,
			*ast.AugAssign, *ast.AugAssignAttr, *ast.AugAssignIndex:
			return value.Nil, nil, nil
		}
		return v, nil, nil

	case *ast.Block:
		return it.evalBlock(n, sc)

	case *ast.IfChain:
		return it.evalIfChain(n, sc)

	case *ast.For:
		return it.evalFor(n, sc)

	case *ast.While:
		return it.evalWhile(n, sc)

	case *ast.Break:
		return value.Nil, &Signal{Kind: SigBreak}, nil

	case *ast.Continue:
		return value.Nil, &Signal{Kind: SigContinue}, nil

	case *ast.Return:
		v := value.Value(value.Nil)
		if n.Value != nil {
			var err error
			v, err = it.evalExpression(n.Value, sc)
			if err != nil {
				return nil, nil, err
			}
		}
		return v, &Signal{Kind: SigReturn, Value: v}, nil

	case *ast.Global:
		for _, name := range n.Names {
			sc.Alias(name)
		}
		return value.Nil, nil, nil

	case *ast.TryCatch:
		return it.evalTryCatch(n, sc)

	case *ast.Throw:
		v, err := it.evalExpression(n.Value, sc)
		if err != nil {
			return nil, nil, err
		}
		return nil, nil, &nebulaerrors.Error{
			Kind: nebulaerrors.UserError, Message: v.String(), Pos: n.Pos(), Value: v,
		}

	case *ast.FunctionDef:
		it.defineFunctionDef(n, sc)
		return value.Nil, nil, nil

	case *ast.ClassDef:
		if err := it.evalClassDef(n, sc, ""); err != nil {
			return nil, nil, err
		}
		return value.Nil, nil, nil

	case *ast.Include:
		v, err := it.evalIncludeStmt(n, sc)
		return v, nil, err

	case *ast.FFIStmt:
		v, err := it.evalFFIStmt(n, sc)
		return v, nil, err

	default:
		return nil, nil, nebulaerrors.At(nebulaerrors.SyntaxError, stmt.Pos(), "unsupported statement %T", stmt)
	}
}

func (it *Interp) evalIfChain(n *ast.IfChain, sc *scope.Scope) (value.Value, *Signal, error) {
	for i, cond := range n.Conds {
		v, err := it.evalExpression(cond, sc)
		if err != nil {
			return nil, nil, err
		}
		if v.Truthy() {
			return it.evalBlock(n.Bodies[i], sc)
		}
	}
	if n.Else != nil {
		return it.evalBlock(n.Else, sc)
	}
	return value.Nil, nil, nil
}

// evalFor implements §4.3's counted iteration: the iterable is evaluated
// once (must be a list), then indices 0, step, 2*step, ... are visited,
// binding Var on each pass, default step 1.
func (it *Interp) evalFor(n *ast.For, sc *scope.Scope) (value.Value, *Signal, error) {
	iterVal, err := it.evalExpression(n.Iterable, sc)
	if err != nil {
		return nil, nil, err
	}
	list, ok := iterVal.(*value.List)
	if !ok {
		return nil, nil, nebulaerrors.At(nebulaerrors.TypeError, n.Iterable.Pos(), "for loop target must be a list, got %s", iterVal.Type())
	}

	step := int64(1)
	if n.Step != nil {
		stepVal, err := it.evalExpression(n.Step, sc)
		if err != nil {
			return nil, nil, err
		}
		si, ok := stepVal.(*value.Int)
		if !ok || si.Value == 0 {
			return nil, nil, nebulaerrors.At(nebulaerrors.TypeError, n.Step.Pos(), "for loop step must be a nonzero integer")
		}
		step = si.Value
	}

	elems := *list.Elems
	for idx := int64(0); step > 0 && idx < int64(len(elems)); idx += step {
		sc.Define(n.Var, elems[idx])
		v, sig, err := it.evalBlock(n.Body, sc)
		if err != nil {
			return nil, nil, err
		}
		if sig != nil {
			switch sig.Kind {
			case SigBreak:
				return value.Nil, nil, nil
			case SigContinue:
				continue
			case SigReturn:
				return v, sig, nil
			}
		}
	}
	return value.Nil, nil, nil
}

func (it *Interp) evalWhile(n *ast.While, sc *scope.Scope) (value.Value, *Signal, error) {
	for {
		condVal, err := it.evalExpression(n.Cond, sc)
		if err != nil {
			return nil, nil, err
		}
		if !condVal.Truthy() {
			return value.Nil, nil, nil
		}
		v, sig, err := it.evalBlock(n.Body, sc)
		if err != nil {
			return nil, nil, err
		}
		if sig != nil {
			switch sig.Kind {
			case SigBreak:
				return value.Nil, nil, nil
			case SigContinue:
				continue
			case SigReturn:
				return v, sig, nil
			}
		}
	}
}

// evalTryCatch runs Try; any error surfacing from it (including a throw)
// binds its string message to ErrName and runs Catch instead. Control
// signals from Try (break/continue/return) are never intercepted here —
// they propagate straight through, per §7's "control signals ... are
// never caught by try/catch".
func (it *Interp) evalTryCatch(n *ast.TryCatch, sc *scope.Scope) (value.Value, *Signal, error) {
	v, sig, err := it.evalBlock(n.Try, sc)
	if err == nil {
		return v, sig, nil
	}
	msg := err.Error()
	if ne, ok := err.(*nebulaerrors.Error); ok {
		msg = ne.Message
	}
	sc.Define(n.ErrName, &value.Str{Value: msg})
	return it.evalBlock(n.Catch, sc)
}

// defineFunctionDef builds a Function closing over sc. A name containing
// '.' declares a method on the class named by everything before the last
// '.', the parser having already prepended a synthetic `self` parameter;
// otherwise the function binds as an ordinary variable in sc.
func (it *Interp) defineFunctionDef(n *ast.FunctionDef, sc *scope.Scope) {
	if idx := strings.LastIndex(n.Name, "."); idx >= 0 {
		className, methodName := n.Name[:idx], n.Name[idx+1:]
		fn := makeFunction(n.Params, n.Body, sc, methodName, className)
		it.Classes.AddMethod(className, methodName, fn)
		return
	}
	fn := makeFunction(n.Params, n.Body, sc, n.Name, "")
	sc.Define(n.Name, fn)
}

func makeFunction(params []ast.Param, body *ast.Block, sc *scope.Scope, name, class string) *value.Function {
	return &value.Function{
		Name:    name,
		Params:  convertParams(params),
		Body:    body,
		Closure: sc,
		Class:   class,
	}
}

// convertParams mirrors ast.Param into value.Param. A nil Default must stay
// an untyped nil: wrapping a nil ast.Expression in the any-typed field would
// make later `!= nil` checks pass and crash default evaluation.
func convertParams(params []ast.Param) []value.Param {
	out := make([]value.Param, len(params))
	for i, p := range params {
		out[i] = value.Param{Name: p.Name, Variadic: p.Variadic, KwVariadic: p.KwVariadic}
		if p.Default != nil {
			out[i].Default = p.Default
		}
	}
	return out
}

// evalClassDef registers n (and recursively its nested classes) into the
// class table under outer's qualified name, rewriting bare references to
// nested siblings through the resulting nested-name map (§4.5).
func (it *Interp) evalClassDef(n *ast.ClassDef, sc *scope.Scope, outer string) error {
	qualified := class.QualifiedName(outer, n.Name)
	rec := it.Classes.Declare(qualified)
	rec.Parents = rewriteParents(n.Parents, outer, it.Classes)

	rec.Fields = rec.Fields[:0]
	for _, f := range n.Fields {
		rec.Fields = append(rec.Fields, classField(f))
	}

	for _, m := range n.Methods {
		fn := makeFunction(m.Params, m.Body, sc, m.Name, qualified)
		rec.Methods[m.Name] = fn
	}

	for _, nested := range n.Nested {
		nestedQualified := class.QualifiedName(qualified, nested.Name)
		rec.NestedQualified[nested.Name] = nestedQualified
		if err := it.evalClassDef(nested, sc, qualified); err != nil {
			return err
		}
	}
	return nil
}

func classField(f ast.FieldDecl) class.FieldDecl {
	fd := class.FieldDecl{Name: f.Name}
	if f.Default != nil {
		fd.Default = f.Default
	}
	return fd
}

// rewriteParents resolves each bare parent name against outer's own
// nested-class map first (a parent may be a sibling nested class), then
// falls back to treating it as a top-level qualified name.
func rewriteParents(parents []string, outer string, classes *class.Table) []string {
	if outer == "" || len(parents) == 0 {
		return parents
	}
	outerRec, ok := classes.Lookup(outer)
	if !ok {
		return parents
	}
	out := make([]string, len(parents))
	for i, p := range parents {
		if qualified, ok := outerRec.NestedQualified[p]; ok {
			out[i] = qualified
		} else {
			out[i] = p
		}
	}
	return out
}
