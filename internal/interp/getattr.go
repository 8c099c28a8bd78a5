package interp

import (
	"strings"

	"github.com/nebula-lang/nebula/internal/ast"
	"github.com/nebula-lang/nebula/internal/nebulaerrors"
	"github.com/nebula-lang/nebula/internal/scope"
	"github.com/nebula-lang/nebula/internal/value"
	"github.com/nebula-lang/nebula/pkg/token"
)

func (it *Interp) evalGetAttr(n *ast.GetAttr, sc *scope.Scope) (value.Value, error) {
	obj, err := it.evalExpression(n.Object, sc)
	if err != nil {
		return nil, err
	}
	return it.getAttr(obj, n.Attr, n.Pos())
}

// getAttr resolves obj.attr. For instances the order is methods (own class
// first, then each parent depth-first), then fields, then AttributeError;
// strings, lists, and file handles dispatch into their built-in method
// tables; dicts expose their string-keyed entries as attributes.
func (it *Interp) getAttr(obj value.Value, attr string, pos token.Position) (value.Value, error) {
	switch o := obj.(type) {
	case *value.Instance:
		if fn, ok := it.Classes.ResolveMethod(o.TypeName, attr); ok {
			return &value.BoundMethod{Receiver: o, Method: fn}, nil
		}
		if v, ok := o.Fields.Get(&value.Str{Value: attr}); ok {
			return v, nil
		}
		if _, ok := it.Classes.ResolveField(o.TypeName, attr); ok {
			return value.Nil, nil
		}
		avail := it.Classes.AvailableNames(o.TypeName)
		return nil, nebulaerrors.At(nebulaerrors.AttributeError, pos,
			"%s has no attribute %q (available: %s)", o.TypeName, attr, strings.Join(avail, ", "))

	case *value.Str:
		if m, ok := stringMethod(o, attr); ok {
			return m, nil
		}
		return nil, nebulaerrors.At(nebulaerrors.AttributeError, pos,
			"str has no attribute %q (available: reverse, upper, lower, join, split, strip)", attr)

	case *value.List:
		if m, ok := listMethod(o, attr); ok {
			return m, nil
		}
		return nil, nebulaerrors.At(nebulaerrors.AttributeError, pos,
			"list has no attribute %q (available: append, extend, remove, sort, reverse, pop, index)", attr)

	case *value.FileHandle:
		if m, ok := fileMethod(o, attr); ok {
			return m, nil
		}
		return nil, nebulaerrors.At(nebulaerrors.AttributeError, pos,
			"file has no attribute %q (available: read, write, close, readlines, readline)", attr)

	case *value.Dict:
		if v, ok := o.Get(&value.Str{Value: attr}); ok {
			return v, nil
		}
		return nil, nebulaerrors.At(nebulaerrors.AttributeError, pos, "dict has no key %q", attr)

	default:
		return nil, nebulaerrors.At(nebulaerrors.AttributeError, pos, "%s has no attributes", obj.Type())
	}
}

func (it *Interp) evalAugAssignAttr(n *ast.AugAssignAttr, sc *scope.Scope) (value.Value, error) {
	obj, err := it.evalExpression(n.Object, sc)
	if err != nil {
		return nil, err
	}
	cur, err := it.getAttr(obj, n.Attr, n.Pos())
	if err != nil {
		return nil, err
	}
	rhs, err := it.evalExpression(n.Value, sc)
	if err != nil {
		return nil, err
	}
	next, err := it.applyAugOp(n.Op, cur, rhs, n.Pos())
	if err != nil {
		return nil, err
	}

	switch o := obj.(type) {
	case *value.Instance:
		o.Fields.Set(&value.Str{Value: n.Attr}, next)
	case *value.Dict:
		o.Set(&value.Str{Value: n.Attr}, next)
	default:
		return nil, nebulaerrors.At(nebulaerrors.TypeError, n.Pos(), "cannot set attribute %q on %s", n.Attr, obj.Type())
	}
	return next, nil
}
