package interp

import (
	"github.com/nebula-lang/nebula/internal/ast"
	"github.com/nebula-lang/nebula/internal/nebulaerrors"
	"github.com/nebula-lang/nebula/internal/scope"
	"github.com/nebula-lang/nebula/internal/value"
)

// evalListComp implements [ expr | var, iterable, step | cond... ]: the
// iterable must be a list, the loop variable binds in the enclosing scope
// (comprehensions share the loop-variable-leaks behavior of for loops), and
// every condition must hold for an element to contribute.
func (it *Interp) evalListComp(n *ast.ListComp, sc *scope.Scope) (value.Value, error) {
	elems, step, err := it.compSource(n.Iterable, n.Step, sc)
	if err != nil {
		return nil, err
	}

	var out []value.Value
	for idx := int64(0); step > 0 && idx < int64(len(elems)); idx += step {
		sc.Define(n.Var, elems[idx])
		keep := true
		for _, cond := range n.Conds {
			v, err := it.evalExpression(cond, sc)
			if err != nil {
				return nil, err
			}
			if !v.Truthy() {
				keep = false
				break
			}
		}
		if !keep {
			continue
		}
		v, err := it.evalExpression(n.Expr, sc)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return value.NewList(out), nil
}

// evalDictComp implements { key_expr | value_expr, var, iterable | cond? }.
func (it *Interp) evalDictComp(n *ast.DictComp, sc *scope.Scope) (value.Value, error) {
	elems, step, err := it.compSource(n.Iterable, nil, sc)
	if err != nil {
		return nil, err
	}

	d := value.NewDict()
	for idx := int64(0); step > 0 && idx < int64(len(elems)); idx += step {
		sc.Define(n.Var, elems[idx])
		if n.Cond != nil {
			v, err := it.evalExpression(n.Cond, sc)
			if err != nil {
				return nil, err
			}
			if !v.Truthy() {
				continue
			}
		}
		k, err := it.evalExpression(n.KeyExpr, sc)
		if err != nil {
			return nil, err
		}
		if !value.Hashable(k) {
			return nil, nebulaerrors.At(nebulaerrors.TypeError, n.KeyExpr.Pos(), "unhashable dict key of type %s", k.Type())
		}
		v, err := it.evalExpression(n.ValExpr, sc)
		if err != nil {
			return nil, err
		}
		d.Set(k, v)
	}
	return d, nil
}

// compSource evaluates a comprehension's iterable and optional step,
// sharing the for loop's constraints: list iterable, nonzero integer step.
func (it *Interp) compSource(iterable, stepExpr ast.Expression, sc *scope.Scope) ([]value.Value, int64, error) {
	iterVal, err := it.evalExpression(iterable, sc)
	if err != nil {
		return nil, 0, err
	}
	list, ok := iterVal.(*value.List)
	if !ok {
		return nil, 0, nebulaerrors.At(nebulaerrors.TypeError, iterable.Pos(), "comprehension source must be a list, got %s", iterVal.Type())
	}

	step := int64(1)
	if stepExpr != nil {
		stepVal, err := it.evalExpression(stepExpr, sc)
		if err != nil {
			return nil, 0, err
		}
		si, ok := stepVal.(*value.Int)
		if !ok || si.Value == 0 {
			return nil, 0, nebulaerrors.At(nebulaerrors.TypeError, stepExpr.Pos(), "comprehension step must be a nonzero integer")
		}
		step = si.Value
	}
	return *list.Elems, step, nil
}
