package interp

import (
	"strings"

	"github.com/nebula-lang/nebula/internal/ast"
	"github.com/nebula-lang/nebula/internal/nebulaerrors"
	"github.com/nebula-lang/nebula/internal/scope"
	"github.com/nebula-lang/nebula/internal/value"
)

// evalExpression dispatches on the expression's concrete AST type.
// Expressions never produce a control signal — only statements do — so
// the signature stays a plain (Value, error) pair throughout.
func (it *Interp) evalExpression(expr ast.Expression, sc *scope.Scope) (value.Value, error) {
	switch n := expr.(type) {
	case *ast.IntLit:
		return &value.Int{Value: n.Value}, nil
	case *ast.FloatLit:
		return &value.Float{Value: n.Value}, nil
	case *ast.StringLit:
		return &value.Str{Value: n.Value}, nil

	case *ast.ListLit:
		return it.evalListLit(n, sc)
	case *ast.DictLit:
		return it.evalDictLit(n, sc)
	case *ast.ListComp:
		return it.evalListComp(n, sc)
	case *ast.DictComp:
		return it.evalDictComp(n, sc)

	case *ast.Ident:
		v, ok := sc.Get(n.Name)
		if !ok {
			return nil, nebulaerrors.At(nebulaerrors.NameError, n.Pos(), "undefined name %q", n.Name)
		}
		return v, nil

	case *ast.Assign:
		v, err := it.evalExpression(n.Value, sc)
		if err != nil {
			return nil, err
		}
		sc.Assign(n.Name, v)
		return v, nil

	case *ast.SetAttr:
		return it.evalSetAttr(n, sc)
	case *ast.SetIndex:
		return it.evalSetIndex(n, sc)

	case *ast.AugAssign:
		cur, ok := sc.Get(n.Name)
		if !ok {
			return nil, nebulaerrors.At(nebulaerrors.NameError, n.Pos(), "undefined name %q", n.Name)
		}
		rhs, err := it.evalExpression(n.Value, sc)
		if err != nil {
			return nil, err
		}
		next, err := it.applyAugOp(n.Op, cur, rhs, n.Pos())
		if err != nil {
			return nil, err
		}
		sc.Assign(n.Name, next)
		return next, nil

	case *ast.AugAssignAttr:
		return it.evalAugAssignAttr(n, sc)
	case *ast.AugAssignIndex:
		return it.evalAugAssignIndex(n, sc)

	case *ast.BinOp:
		left, err := it.evalExpression(n.Left, sc)
		if err != nil {
			return nil, err
		}
		right, err := it.evalExpression(n.Right, sc)
		if err != nil {
			return nil, err
		}
		return arithOp(n.Op, left, right, n.Pos())

	case *ast.Compare:
		left, err := it.evalExpression(n.Left, sc)
		if err != nil {
			return nil, err
		}
		right, err := it.evalExpression(n.Right, sc)
		if err != nil {
			return nil, err
		}
		return compareOp(n.Op, left, right, n.Pos())

	case *ast.And:
		left, err := it.evalExpression(n.Left, sc)
		if err != nil {
			return nil, err
		}
		if !left.Truthy() {
			return &value.Bool{Value: false}, nil
		}
		return it.evalExpression(n.Right, sc)

	case *ast.Or:
		left, err := it.evalExpression(n.Left, sc)
		if err != nil {
			return nil, err
		}
		if left.Truthy() {
			return &value.Bool{Value: true}, nil
		}
		return it.evalExpression(n.Right, sc)

	case *ast.Not:
		v, err := it.evalExpression(n.Right, sc)
		if err != nil {
			return nil, err
		}
		return &value.Bool{Value: !v.Truthy()}, nil

	case *ast.Neg:
		v, err := it.evalExpression(n.Right, sc)
		if err != nil {
			return nil, err
		}
		switch t := v.(type) {
		case *value.Int:
			return &value.Int{Value: -t.Value}, nil
		case *value.Float:
			return &value.Float{Value: -t.Value}, nil
		default:
			return nil, nebulaerrors.At(nebulaerrors.TypeError, n.Pos(), "cannot negate %s", v.Type())
		}

	case *ast.In:
		return it.evalIn(n, sc)

	case *ast.Ternary:
		condVal, err := it.evalExpression(n.Cond, sc)
		if err != nil {
			return nil, err
		}
		if condVal.Truthy() {
			return it.evalExpression(n.Then, sc)
		}
		return it.evalExpression(n.Else, sc)

	case *ast.Unpack:
		// Reached only for a stray top-level `*expr`; argument and list
		// splicing are handled by their callers before generic dispatch.
		return it.evalExpression(n.Value, sc)

	case *ast.KwUnpack:
		v, err := it.evalExpression(n.Value, sc)
		if err != nil {
			return nil, err
		}
		d, ok := v.(*value.Dict)
		if !ok {
			return nil, nebulaerrors.At(nebulaerrors.TypeError, n.Pos(), "** requires a dict, got %s", v.Type())
		}
		return &value.KwUnpackMarker{Dict: d}, nil

	case *ast.Call:
		return it.evalCall(n, sc)

	case *ast.GetAttr:
		return it.evalGetAttr(n, sc)

	case *ast.Index:
		return it.evalIndex(n, sc)

	case *ast.Slice:
		return it.evalSlice(n, sc)

	case *ast.Lambda:
		return makeFunction(n.Params, n.Body, sc, "", ""), nil

	case *ast.Match:
		return it.evalMatch(n, sc)

	default:
		return nil, nebulaerrors.At(nebulaerrors.SyntaxError, expr.Pos(), "unsupported expression %T", expr)
	}
}

func (it *Interp) evalListLit(n *ast.ListLit, sc *scope.Scope) (value.Value, error) {
	elems, err := it.evalExprListWithSplice(n.Elements, sc)
	if err != nil {
		return nil, err
	}
	return value.NewList(elems), nil
}

// evalExprListWithSplice evaluates a list of expressions, expanding any
// *ast.Unpack element in place (valid in both call arguments and list
// literal elements per the Unpack AST doc).
func (it *Interp) evalExprListWithSplice(exprs []ast.Expression, sc *scope.Scope) ([]value.Value, error) {
	var out []value.Value
	for _, e := range exprs {
		if up, ok := e.(*ast.Unpack); ok {
			v, err := it.evalExpression(up.Value, sc)
			if err != nil {
				return nil, err
			}
			list, ok := v.(*value.List)
			if !ok {
				return nil, nebulaerrors.At(nebulaerrors.TypeError, up.Pos(), "* requires a list, got %s", v.Type())
			}
			out = append(out, *list.Elems...)
			continue
		}
		v, err := it.evalExpression(e, sc)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (it *Interp) evalDictLit(n *ast.DictLit, sc *scope.Scope) (value.Value, error) {
	d := value.NewDict()
	for i, keyExpr := range n.Keys {
		k, err := it.evalExpression(keyExpr, sc)
		if err != nil {
			return nil, err
		}
		if !value.Hashable(k) {
			return nil, nebulaerrors.At(nebulaerrors.TypeError, keyExpr.Pos(), "unhashable dict key of type %s", k.Type())
		}
		v, err := it.evalExpression(n.Values[i], sc)
		if err != nil {
			return nil, err
		}
		d.Set(k, v)
	}
	return d, nil
}

func (it *Interp) evalSetAttr(n *ast.SetAttr, sc *scope.Scope) (value.Value, error) {
	obj, err := it.evalExpression(n.Object, sc)
	if err != nil {
		return nil, err
	}
	v, err := it.evalExpression(n.Value, sc)
	if err != nil {
		return nil, err
	}
	switch o := obj.(type) {
	case *value.Instance:
		o.Fields.Set(&value.Str{Value: n.Attr}, v)
	case *value.Dict:
		o.Set(&value.Str{Value: n.Attr}, v)
	default:
		return nil, nebulaerrors.At(nebulaerrors.TypeError, n.Pos(), "cannot set attribute %q on %s", n.Attr, obj.Type())
	}
	return v, nil
}

func (it *Interp) evalIn(n *ast.In, sc *scope.Scope) (value.Value, error) {
	left, err := it.evalExpression(n.Left, sc)
	if err != nil {
		return nil, err
	}
	right, err := it.evalExpression(n.Right, sc)
	if err != nil {
		return nil, err
	}
	contained, err := membership(left, right)
	if err != nil {
		return nil, err
	}
	if n.Negated {
		contained = !contained
	}
	return &value.Bool{Value: contained}, nil
}

func membership(needle, haystack value.Value) (bool, error) {
	switch h := haystack.(type) {
	case *value.List:
		for _, e := range *h.Elems {
			if value.Equal(needle, e) {
				return true, nil
			}
		}
		return false, nil
	case *value.Str:
		s, ok := needle.(*value.Str)
		if !ok {
			return false, nebulaerrors.New(nebulaerrors.TypeError, "'in' on a string requires a string operand, got %s", needle.Type())
		}
		return strings.Contains(h.Value, s.Value), nil
	case *value.Dict:
		_, ok := h.Get(needle)
		return ok, nil
	default:
		return false, nebulaerrors.New(nebulaerrors.TypeError, "'in' target must be a list, string, or dict, got %s", haystack.Type())
	}
}

// evalMatch is the expression-position path for match: the chosen body's
// value surfaces, but there is no signal channel here for a break/continue/
// return inside a case to unwind through. Statement-position matches go
// through evalMatchStmt instead, which threads the signal.
func (it *Interp) evalMatch(n *ast.Match, sc *scope.Scope) (value.Value, error) {
	v, _, err := it.evalMatchStmt(n, sc)
	return v, err
}

// evalMatchStmt evaluates a match with the full statement triple, so a
// break/continue/return inside a case body unwinds to the nearest
// enclosing loop or call frame like any other statement would.
func (it *Interp) evalMatchStmt(n *ast.Match, sc *scope.Scope) (value.Value, *Signal, error) {
	subject, err := it.evalExpression(n.Subject, sc)
	if err != nil {
		return nil, nil, err
	}
	for _, c := range n.Cases {
		for _, pat := range c.Patterns {
			patVal, err := it.evalExpression(pat, sc)
			if err != nil {
				return nil, nil, err
			}
			if value.Equal(subject, patVal) {
				return it.evalBlock(c.Body, sc)
			}
		}
	}
	if n.Else != nil {
		return it.evalBlock(n.Else, sc)
	}
	return value.Nil, nil, nil
}
