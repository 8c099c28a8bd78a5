package interp

import (
	"strings"

	"github.com/nebula-lang/nebula/internal/ast"
	"github.com/nebula-lang/nebula/internal/nebulaerrors"
	"github.com/nebula-lang/nebula/internal/scope"
	"github.com/nebula-lang/nebula/internal/value"
	"github.com/nebula-lang/nebula/pkg/token"
)

// kwBundle holds a call's keyword arguments in declaration order, so that a
// **rest parameter absorbs them in the same order the caller wrote them.
type kwBundle struct {
	names []string
	vals  map[string]value.Value
}

func newKwBundle() *kwBundle {
	return &kwBundle{vals: map[string]value.Value{}}
}

func (k *kwBundle) set(name string, v value.Value) {
	if _, exists := k.vals[name]; !exists {
		k.names = append(k.names, name)
	}
	k.vals[name] = v
}

// take removes and returns the argument bound to name, if any.
func (k *kwBundle) take(name string) (value.Value, bool) {
	v, ok := k.vals[name]
	if !ok {
		return nil, false
	}
	delete(k.vals, name)
	for i, n := range k.names {
		if n == name {
			k.names = append(k.names[:i], k.names[i+1:]...)
			break
		}
	}
	return v, true
}

func (k *kwBundle) empty() bool { return len(k.names) == 0 }

// drain converts every remaining keyword argument into a dict, in caller
// order, emptying the bundle. Used to bind a **rest parameter.
func (k *kwBundle) drain() *value.Dict {
	d := value.NewDict()
	for _, name := range k.names {
		d.Set(&value.Str{Value: name}, k.vals[name])
	}
	k.names = nil
	k.vals = map[string]value.Value{}
	return d
}

// evalCall implements the full call protocol: argument evaluation with
// */​** splicing, constructor dispatch for class names, receiver
// prepending for bound methods, and the parameter binding algorithm.
func (it *Interp) evalCall(n *ast.Call, sc *scope.Scope) (value.Value, error) {
	// A bare name that resolves in the class table (and isn't shadowed by a
	// scope binding) is a constructor call.
	if id, ok := n.Callee.(*ast.Ident); ok && !sc.Has(id.Name) {
		if qualified, ok := it.resolveClassName(id.Name); ok {
			positional, kw, err := it.evalCallArgs(n, sc)
			if err != nil {
				return nil, err
			}
			return it.construct(qualified, positional, kw, sc, n.Pos())
		}
	}

	callee, err := it.evalExpression(n.Callee, sc)
	if err != nil {
		return nil, err
	}
	positional, kw, err := it.evalCallArgs(n, sc)
	if err != nil {
		return nil, err
	}
	return it.callValue(callee, positional, kw, sc, n.Pos())
}

// evalCallArgs evaluates a call's arguments left-to-right: *expr splices a
// list into the positional arguments in place, **expr merges a dict into
// the keyword bundle, and explicit name=expr pairs come last (the parser
// has already separated them).
func (it *Interp) evalCallArgs(n *ast.Call, sc *scope.Scope) ([]value.Value, *kwBundle, error) {
	kw := newKwBundle()
	var positional []value.Value

	for _, a := range n.Args {
		switch arg := a.(type) {
		case *ast.Unpack:
			v, err := it.evalExpression(arg.Value, sc)
			if err != nil {
				return nil, nil, err
			}
			list, ok := v.(*value.List)
			if !ok {
				return nil, nil, nebulaerrors.At(nebulaerrors.TypeError, arg.Pos(), "* requires a list, got %s", v.Type())
			}
			positional = append(positional, *list.Elems...)

		case *ast.KwUnpack:
			v, err := it.evalExpression(arg.Value, sc)
			if err != nil {
				return nil, nil, err
			}
			d, ok := v.(*value.Dict)
			if !ok {
				return nil, nil, nebulaerrors.At(nebulaerrors.TypeError, arg.Pos(), "** requires a dict, got %s", v.Type())
			}
			for _, k := range d.Keys {
				keyVal := d.Lookup[k]
				ks, ok := keyVal.(*value.Str)
				if !ok {
					return nil, nil, nebulaerrors.At(nebulaerrors.TypeError, arg.Pos(), "** dict keys must be strings, got %s", keyVal.Type())
				}
				kw.set(ks.Value, d.Values[k])
			}

		default:
			v, err := it.evalExpression(a, sc)
			if err != nil {
				return nil, nil, err
			}
			positional = append(positional, v)
		}
	}

	for _, k := range n.KwArgs {
		v, err := it.evalExpression(k.Value, sc)
		if err != nil {
			return nil, nil, err
		}
		kw.set(k.Name, v)
	}
	return positional, kw, nil
}

// callValue dispatches a fully-evaluated call on the callee's kind.
func (it *Interp) callValue(callee value.Value, positional []value.Value, kw *kwBundle, sc *scope.Scope, pos token.Position) (value.Value, error) {
	switch c := callee.(type) {
	case *value.Function:
		return it.callFunction(c, positional, kw, pos)

	case *value.BoundMethod:
		withReceiver := append([]value.Value{c.Receiver}, positional...)
		return it.callFunction(c.Method, withReceiver, kw, pos)

	case *value.Ctor:
		return it.construct(c.ClassName, positional, kw, sc, pos)

	case *value.NativeFn:
		if !kw.empty() {
			return nil, nebulaerrors.At(nebulaerrors.ArityError, pos, "%s does not accept keyword argument %q", c.Name, kw.names[0])
		}
		return c.Fn(positional)

	default:
		return nil, nebulaerrors.At(nebulaerrors.TypeError, pos, "%s is not callable", callee.Type())
	}
}

// callFunction binds arguments to fn's parameters per the call protocol:
// keyword match first, then next positional, then the default expression
// (evaluated now, in the call frame over fn's captured scope), else a
// missing-argument error. *name absorbs leftover positionals, **name
// absorbs leftover keywords; anything left after that is an arity error.
func (it *Interp) callFunction(fn *value.Function, positional []value.Value, kw *kwBundle, pos token.Position) (value.Value, error) {
	closure, _ := fn.Closure.(*scope.Scope)
	if closure == nil {
		closure = it.Global
	}
	frame := scope.NewEnclosed(closure)

	posIdx := 0
	for _, p := range fn.Params {
		switch {
		case p.Variadic:
			rest := make([]value.Value, len(positional)-posIdx)
			copy(rest, positional[posIdx:])
			posIdx = len(positional)
			frame.Define(p.Name, value.NewList(rest))

		case p.KwVariadic:
			frame.Define(p.Name, kw.drain())

		default:
			if v, ok := kw.take(p.Name); ok {
				frame.Define(p.Name, v)
				continue
			}
			if posIdx < len(positional) {
				frame.Define(p.Name, positional[posIdx])
				posIdx++
				continue
			}
			if p.Default != nil {
				v, err := it.evalExpression(p.Default.(ast.Expression), frame)
				if err != nil {
					return nil, err
				}
				frame.Define(p.Name, v)
				continue
			}
			return nil, nebulaerrors.At(nebulaerrors.ArityError, pos, "missing required argument %q to %s", p.Name, fn.String())
		}
	}
	if !kw.empty() {
		return nil, nebulaerrors.At(nebulaerrors.ArityError, pos, "unexpected keyword argument %q to %s", kw.names[0], fn.String())
	}
	if posIdx < len(positional) {
		return nil, nebulaerrors.At(nebulaerrors.ArityError, pos, "too many arguments to %s: expected %d, got %d", fn.String(), posIdx, len(positional))
	}

	if fn.Class != "" {
		it.classStack = append(it.classStack, fn.Class)
		defer func() { it.classStack = it.classStack[:len(it.classStack)-1] }()
	}

	last, sig, err := it.evalBlock(fn.Body.(*ast.Block), frame)
	if err != nil {
		return nil, err
	}
	if sig != nil {
		if sig.Kind == SigReturn {
			return sig.Value, nil
		}
		// A stray break/continue ends the call; there is no loop across
		// the call boundary for it to reach.
		return value.Nil, nil
	}
	// Implicit fall-through yields the body's last evaluated value.
	return last, nil
}

// construct builds an instance of the named class: arguments bind to the
// class's full field list (own fields first, then inherited) the same way
// call arguments bind to parameters, and field defaults are evaluated now,
// in the calling scope — never at class definition time. Cardinality
// mismatches against a constructor are type errors, not arity errors.
func (it *Interp) construct(qualified string, positional []value.Value, kw *kwBundle, sc *scope.Scope, pos token.Position) (value.Value, error) {
	inst := value.NewInstance(qualified)
	fields := it.Classes.AllFields(qualified)

	posIdx := 0
	for _, f := range fields {
		key := &value.Str{Value: f.Name}
		if v, ok := kw.take(f.Name); ok {
			inst.Fields.Set(key, v)
			continue
		}
		if posIdx < len(positional) {
			inst.Fields.Set(key, positional[posIdx])
			posIdx++
			continue
		}
		if f.Default != nil {
			v, err := it.evalExpression(f.Default.(ast.Expression), sc)
			if err != nil {
				return nil, err
			}
			inst.Fields.Set(key, v)
			continue
		}
		inst.Fields.Set(key, value.Nil)
	}
	if !kw.empty() {
		return nil, nebulaerrors.At(nebulaerrors.TypeError, pos, "%s() got an unexpected field %q", qualified, kw.names[0])
	}
	if posIdx < len(positional) {
		return nil, nebulaerrors.At(nebulaerrors.TypeError, pos, "%s() takes %d arguments, got %d", qualified, posIdx, len(positional))
	}
	return inst, nil
}

// resolveClassName maps a bare name to a qualified class name. Inside a
// method, the owning class's nested-name map (and each lexical ancestor's)
// is consulted first, so a method of Outer can name Inner directly; outside
// any method only top-level qualified names resolve.
func (it *Interp) resolveClassName(name string) (string, bool) {
	if len(it.classStack) > 0 {
		for prefix := it.classStack[len(it.classStack)-1]; prefix != ""; {
			if rec, ok := it.Classes.Lookup(prefix); ok {
				if q, ok := rec.NestedQualified[name]; ok {
					return q, true
				}
			}
			idx := strings.LastIndex(prefix, ".")
			if idx < 0 {
				break
			}
			prefix = prefix[:idx]
		}
	}
	if _, ok := it.Classes.Lookup(name); ok {
		return name, true
	}
	return "", false
}
