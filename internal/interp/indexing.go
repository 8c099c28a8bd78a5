package interp

import (
	"github.com/nebula-lang/nebula/internal/ast"
	"github.com/nebula-lang/nebula/internal/nebulaerrors"
	"github.com/nebula-lang/nebula/internal/scope"
	"github.com/nebula-lang/nebula/internal/value"
)

// normalizeIndex folds a negative index (counting from the end, per §5)
// into a non-negative one against a collection of the given length.
func normalizeIndex(idx, length int64) int64 {
	if idx < 0 {
		return idx + length
	}
	return idx
}

func (it *Interp) evalIndex(n *ast.Index, sc *scope.Scope) (value.Value, error) {
	obj, err := it.evalExpression(n.Object, sc)
	if err != nil {
		return nil, err
	}
	key, err := it.evalExpression(n.Key, sc)
	if err != nil {
		return nil, err
	}
	return indexValue(obj, key)
}

func indexValue(obj, key value.Value) (value.Value, error) {
	switch o := obj.(type) {
	case *value.List:
		ik, ok := key.(*value.Int)
		if !ok {
			return nil, nebulaerrors.New(nebulaerrors.TypeError, "list index must be an integer, got %s", key.Type())
		}
		elems := *o.Elems
		i := normalizeIndex(ik.Value, int64(len(elems)))
		if i < 0 || i >= int64(len(elems)) {
			return nil, nebulaerrors.New(nebulaerrors.TypeError, "list index %d out of range", ik.Value)
		}
		return elems[i], nil

	case *value.Str:
		ik, ok := key.(*value.Int)
		if !ok {
			return nil, nebulaerrors.New(nebulaerrors.TypeError, "string index must be an integer, got %s", key.Type())
		}
		runes := []rune(o.Value)
		i := normalizeIndex(ik.Value, int64(len(runes)))
		if i < 0 || i >= int64(len(runes)) {
			return nil, nebulaerrors.New(nebulaerrors.TypeError, "string index %d out of range", ik.Value)
		}
		return &value.Str{Value: string(runes[i])}, nil

	case *value.Dict:
		if !value.Hashable(key) {
			return nil, nebulaerrors.New(nebulaerrors.TypeError, "unhashable dict key of type %s", key.Type())
		}
		v, ok := o.Get(key)
		if !ok {
			return nil, nebulaerrors.New(nebulaerrors.NameError, "key %s not found in dict", key.String())
		}
		return v, nil

	default:
		return nil, nebulaerrors.New(nebulaerrors.TypeError, "cannot index into %s", obj.Type())
	}
}

// evalSlice implements obj[start:stop:step], operating on lists and
// strings. Absent Start defaults to 0, absent Stop to the collection's
// length, absent Step to 1; a negative Step walks from Start down to just
// above Stop, and by default from the last element to the first.
func (it *Interp) evalSlice(n *ast.Slice, sc *scope.Scope) (value.Value, error) {
	obj, err := it.evalExpression(n.Object, sc)
	if err != nil {
		return nil, err
	}

	var length int64
	switch o := obj.(type) {
	case *value.List:
		length = int64(len(*o.Elems))
	case *value.Str:
		length = int64(len([]rune(o.Value)))
	default:
		return nil, nebulaerrors.At(nebulaerrors.TypeError, n.Pos(), "cannot slice %s", obj.Type())
	}

	start, stop, step, err := it.sliceBounds(n, sc, length)
	if err != nil {
		return nil, err
	}

	switch o := obj.(type) {
	case *value.List:
		elems := *o.Elems
		var out []value.Value
		if step > 0 {
			for i := start; i < stop; i += step {
				out = append(out, elems[i])
			}
		} else {
			for i := start; i > stop; i += step {
				out = append(out, elems[i])
			}
		}
		return value.NewList(out), nil

	case *value.Str:
		runes := []rune(o.Value)
		var out []rune
		if step > 0 {
			for i := start; i < stop; i += step {
				out = append(out, runes[i])
			}
		} else {
			for i := start; i > stop; i += step {
				out = append(out, runes[i])
			}
		}
		return &value.Str{Value: string(out)}, nil
	}
	return value.Nil, nil
}

func (it *Interp) sliceBounds(n *ast.Slice, sc *scope.Scope, length int64) (start, stop, step int64, err error) {
	step = 1
	if n.Step != nil {
		sv, err := it.evalExpression(n.Step, sc)
		if err != nil {
			return 0, 0, 0, err
		}
		si, ok := sv.(*value.Int)
		if !ok || si.Value == 0 {
			return 0, 0, 0, nebulaerrors.At(nebulaerrors.TypeError, n.Pos(), "slice step must be a nonzero integer")
		}
		step = si.Value
	}

	if step > 0 {
		start, stop = 0, length
	} else {
		start, stop = length-1, -1
	}

	if n.Start != nil {
		sv, err := it.evalExpression(n.Start, sc)
		if err != nil {
			return 0, 0, 0, err
		}
		si, ok := sv.(*value.Int)
		if !ok {
			return 0, 0, 0, nebulaerrors.At(nebulaerrors.TypeError, n.Pos(), "slice bound must be an integer")
		}
		start = clamp(normalizeIndex(si.Value, length), length, step)
	}
	if n.Stop != nil {
		sv, err := it.evalExpression(n.Stop, sc)
		if err != nil {
			return 0, 0, 0, err
		}
		si, ok := sv.(*value.Int)
		if !ok {
			return 0, 0, 0, nebulaerrors.At(nebulaerrors.TypeError, n.Pos(), "slice bound must be an integer")
		}
		stop = clamp(normalizeIndex(si.Value, length), length, step)
	}
	return start, stop, step, nil
}

func clamp(i, length, step int64) int64 {
	if step > 0 {
		if i < 0 {
			return 0
		}
		if i > length {
			return length
		}
		return i
	}
	if i < -1 {
		return -1
	}
	if i >= length {
		return length - 1
	}
	return i
}

func (it *Interp) evalSetIndex(n *ast.SetIndex, sc *scope.Scope) (value.Value, error) {
	obj, err := it.evalExpression(n.Object, sc)
	if err != nil {
		return nil, err
	}
	key, err := it.evalExpression(n.Index, sc)
	if err != nil {
		return nil, err
	}
	v, err := it.evalExpression(n.Value, sc)
	if err != nil {
		return nil, err
	}
	if err := setIndex(obj, key, v); err != nil {
		return nil, err
	}
	return v, nil
}

func setIndex(obj, key, v value.Value) error {
	switch o := obj.(type) {
	case *value.List:
		ik, ok := key.(*value.Int)
		if !ok {
			return nebulaerrors.New(nebulaerrors.TypeError, "list index must be an integer, got %s", key.Type())
		}
		elems := *o.Elems
		i := normalizeIndex(ik.Value, int64(len(elems)))
		if i < 0 || i >= int64(len(elems)) {
			return nebulaerrors.New(nebulaerrors.TypeError, "list index %d out of range", ik.Value)
		}
		elems[i] = v
		return nil
	case *value.Dict:
		if !value.Hashable(key) {
			return nebulaerrors.New(nebulaerrors.TypeError, "unhashable dict key of type %s", key.Type())
		}
		o.Set(key, v)
		return nil
	default:
		return nebulaerrors.New(nebulaerrors.TypeError, "cannot assign into %s", obj.Type())
	}
}

func (it *Interp) evalAugAssignIndex(n *ast.AugAssignIndex, sc *scope.Scope) (value.Value, error) {
	obj, err := it.evalExpression(n.Object, sc)
	if err != nil {
		return nil, err
	}
	key, err := it.evalExpression(n.Index, sc)
	if err != nil {
		return nil, err
	}
	cur, err := indexValue(obj, key)
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
	if err := setIndex(obj, key, next); err != nil {
		return nil, err
	}
	return next, nil
}
