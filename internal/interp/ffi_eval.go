package interp

import (
	"context"
	"math"

	"github.com/nebula-lang/nebula/internal/ast"
	"github.com/nebula-lang/nebula/internal/nebulaerrors"
	"github.com/nebula-lang/nebula/internal/scope"
	"github.com/nebula-lang/nebula/internal/value"
)

// evalFFIStmt hands the raw payload of an `ffi { ... }` block, together
// with a snapshot of every non-callable binding reachable from the current
// scope, to the registered sink, then merges the sink's returned bindings
// back into the scope. The core never interprets the payload.
func (it *Interp) evalFFIStmt(n *ast.FFIStmt, sc *scope.Scope) (value.Value, error) {
	snapshot := map[string]any{}
	for name, v := range sc.Flatten() {
		if callable(v) {
			continue
		}
		if nv, ok := valueToNative(v); ok {
			snapshot[name] = nv
		}
	}

	updated, err := it.FFISink.Run(context.Background(), n.Raw, snapshot)
	if err != nil {
		return nil, nebulaerrors.At(nebulaerrors.IOError, n.Pos(), "ffi: %v", err)
	}
	for name, nv := range updated {
		sc.Assign(name, nativeToValue(nv))
	}
	return value.Nil, nil
}

func callable(v value.Value) bool {
	switch v.(type) {
	case *value.Function, *value.NativeFn, *value.BoundMethod, *value.Ctor:
		return true
	}
	return false
}

// valueToNative converts a Nebula value to a JSON-encodable Go value.
// Instances, file handles, and unpack markers have no sensible wire form
// and are omitted from the snapshot.
func valueToNative(v value.Value) (any, bool) {
	switch t := v.(type) {
	case *value.Int:
		return t.Value, true
	case *value.Float:
		return t.Value, true
	case *value.Str:
		return t.Value, true
	case *value.Bool:
		return t.Value, true
	case *value.Null:
		return nil, true
	case *value.List:
		out := make([]any, 0, len(*t.Elems))
		for _, e := range *t.Elems {
			nv, ok := valueToNative(e)
			if !ok {
				return nil, false
			}
			out = append(out, nv)
		}
		return out, true
	case *value.Dict:
		out := map[string]any{}
		for _, k := range t.Keys {
			nv, ok := valueToNative(t.Values[k])
			if !ok {
				return nil, false
			}
			out[t.Lookup[k].String()] = nv
		}
		return out, true
	default:
		return nil, false
	}
}

// nativeToValue converts a decoded JSON value back into a Nebula value.
// JSON numbers arrive as float64; integral ones fold back to Int so a
// round-trip through the sink doesn't silently float-ify counters.
func nativeToValue(nv any) value.Value {
	switch t := nv.(type) {
	case nil:
		return value.Nil
	case bool:
		return &value.Bool{Value: t}
	case string:
		return &value.Str{Value: t}
	case int64:
		return &value.Int{Value: t}
	case float64:
		if t == math.Trunc(t) && !math.IsInf(t, 0) {
			return &value.Int{Value: int64(t)}
		}
		return &value.Float{Value: t}
	case []any:
		elems := make([]value.Value, len(t))
		for i, e := range t {
			elems[i] = nativeToValue(e)
		}
		return value.NewList(elems)
	case map[string]any:
		d := value.NewDict()
		for k, e := range t {
			d.Set(&value.Str{Value: k}, nativeToValue(e))
		}
		return d
	default:
		return value.Nil
	}
}
