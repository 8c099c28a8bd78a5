// Package value defines the runtime value model: every value a Nebula
// program can produce, store, or pass around during evaluation.
package value

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Value is the interface implemented by every runtime value. It is
// intentionally narrow — type identity, string form, and truthiness — so
// that adding a case means adding a type, not widening a switch buried
// somewhere else.
type Value interface {
	Type() string
	String() string
	Truthy() bool
}

// Int is an integer value.
type Int struct {
	Value int64
}

func (i *Int) Type() string   { return "int" }
func (i *Int) String() string { return strconv.FormatInt(i.Value, 10) }
func (i *Int) Truthy() bool   { return i.Value != 0 }

// Float is a floating-point value.
type Float struct {
	Value float64
}

func (f *Float) Type() string   { return "float" }
func (f *Float) String() string { return strconv.FormatFloat(f.Value, 'g', -1, 64) }
func (f *Float) Truthy() bool   { return f.Value != 0 }

// Str is a string value.
type Str struct {
	Value string
}

func (s *Str) Type() string   { return "str" }
func (s *Str) String() string { return s.Value }
func (s *Str) Truthy() bool   { return s.Value != "" }

// Bool is a boolean value.
type Bool struct {
	Value bool
}

func (b *Bool) Type() string { return "bool" }
func (b *Bool) String() string {
	if b.Value {
		return "true"
	}
	return "false"
}
func (b *Bool) Truthy() bool { return b.Value }

// Null is the sole null value; all Null instances compare equal.
type Null struct{}

func (n *Null) Type() string   { return "null" }
func (n *Null) String() string { return "null" }
func (n *Null) Truthy() bool   { return false }

// Nil is the shared Null instance, since Null carries no state.
var Nil = &Null{}

// List is a mutable, reference-shared sequence. Two List values that share
// the underlying Elems pointer alias the same storage (invariant: list
// assignment and argument passing share, never copy, the backing slice).
type List struct {
	Elems *[]Value
}

// NewList wraps a fresh slice in a List.
func NewList(elems []Value) *List {
	return &List{Elems: &elems}
}

func (l *List) Type() string { return "list" }
func (l *List) String() string {
	parts := make([]string, len(*l.Elems))
	for i, e := range *l.Elems {
		parts[i] = elemString(e)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
func (l *List) Truthy() bool { return len(*l.Elems) > 0 }

// Dict is an insertion-ordered mapping from a stable string encoding of a
// hashable key to its value. Keys preserves insertion order for iteration
// and String(); Lookup resolves the encoded key back to the original
// scalar/string key Value.
type Dict struct {
	Keys   []string
	Lookup map[string]Value
	Values map[string]Value
}

// NewDict returns an empty, ready-to-use Dict.
func NewDict() *Dict {
	return &Dict{Lookup: map[string]Value{}, Values: map[string]Value{}}
}

func (d *Dict) Type() string { return "dict" }
func (d *Dict) String() string {
	parts := make([]string, 0, len(d.Keys))
	for _, k := range d.Keys {
		parts = append(parts, elemString(d.Lookup[k])+": "+elemString(d.Values[k]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
func (d *Dict) Truthy() bool { return len(d.Keys) > 0 }

// Get returns the value stored under key and whether it was present.
func (d *Dict) Get(key Value) (Value, bool) {
	k := EncodeKey(key)
	v, ok := d.Values[k]
	return v, ok
}

// Set stores value under key, appending to Keys only on first insertion.
func (d *Dict) Set(key, val Value) {
	k := EncodeKey(key)
	if _, exists := d.Values[k]; !exists {
		d.Keys = append(d.Keys, k)
		d.Lookup[k] = key
	}
	d.Values[k] = val
}

// Delete removes key if present.
func (d *Dict) Delete(key Value) {
	k := EncodeKey(key)
	if _, exists := d.Values[k]; !exists {
		return
	}
	delete(d.Values, k)
	delete(d.Lookup, k)
	for i, existing := range d.Keys {
		if existing == k {
			d.Keys = append(d.Keys[:i], d.Keys[i+1:]...)
			break
		}
	}
}

// EncodeKey produces the stable string form a Dict uses to index a
// hashable key value. Only scalars (int, float, str, bool, null) are
// hashable; callers must reject List/Dict/Function keys before calling.
func EncodeKey(key Value) string {
	switch k := key.(type) {
	case *Str:
		return "s:" + k.Value
	case *Int:
		return "i:" + strconv.FormatInt(k.Value, 10)
	case *Float:
		return "f:" + strconv.FormatFloat(k.Value, 'g', -1, 64)
	case *Bool:
		return "b:" + strconv.FormatBool(k.Value)
	case *Null:
		return "n:"
	default:
		return "?:" + key.String()
	}
}

// Hashable reports whether a value is valid as a Dict key.
func Hashable(v Value) bool {
	switch v.(type) {
	case *Str, *Int, *Float, *Bool, *Null:
		return true
	default:
		return false
	}
}

// Function is a user-defined function or method, closing over the scope it
// was defined in. Closure is declared as `any` here to avoid an import cycle
// with package scope, which itself stores Value; the interpreter asserts
// it back to *scope.Scope.
type Function struct {
	Name    string
	Params  []Param
	Body    any // *ast.Block, typed any for the same reason as Closure
	Closure any // *scope.Scope

	// Class is the qualified class name this function was registered as a
	// method of, empty for free functions and lambdas. The evaluator pushes
	// it onto its class-context stack for the duration of the call so a
	// bare reference to a sibling nested class inside the method body
	// resolves through the owning class's nested-name map.
	Class string
}

// Param mirrors ast.Param without importing package ast, for the same
// import-cycle reason as Body/Closure above.
type Param struct {
	Name       string
	Default    any // ast.Expression
	Variadic   bool
	KwVariadic bool
}

func (f *Function) Type() string   { return "function" }
func (f *Function) String() string { return fmt.Sprintf("<function %s>", nameOr(f.Name)) }
func (f *Function) Truthy() bool   { return true }

func nameOr(name string) string {
	if name == "" {
		return "<lambda>"
	}
	return name
}

// NativeFn is a Go-implemented builtin exposed to Nebula code (string/list
// methods, file handle methods).
type NativeFn struct {
	Name string
	Fn   func(args []Value) (Value, error)
}

func (n *NativeFn) Type() string   { return "native_function" }
func (n *NativeFn) String() string { return fmt.Sprintf("<native %s>", n.Name) }
func (n *NativeFn) Truthy() bool   { return true }

// BoundMethod pairs a receiver instance with a method Function, produced by
// attribute resolution on an Instance; calling it prepends Receiver to the
// positional arguments.
type BoundMethod struct {
	Receiver Value
	Method   *Function
}

func (b *BoundMethod) Type() string   { return "bound_method" }
func (b *BoundMethod) String() string { return fmt.Sprintf("<bound method %s>", b.Method.Name) }
func (b *BoundMethod) Truthy() bool   { return true }

// Ctor names a registered class so its constructor can travel as a value:
// module objects map class names to Ctors, and calling one constructs an
// instance through the shared class table.
type Ctor struct {
	ClassName string
}

func (c *Ctor) Type() string   { return "class" }
func (c *Ctor) String() string { return fmt.Sprintf("<class %s>", c.ClassName) }
func (c *Ctor) Truthy() bool   { return true }

// Instance is a class instance: a field dict plus identity and type name.
type Instance struct {
	ID       uuid.UUID
	TypeName string
	Fields   *Dict
}

// NewInstance returns an Instance with a fresh identity and empty fields.
func NewInstance(typeName string) *Instance {
	return &Instance{ID: uuid.New(), TypeName: typeName, Fields: NewDict()}
}

func (i *Instance) Type() string   { return "instance" }
func (i *Instance) String() string { return fmt.Sprintf("<%s instance>", i.TypeName) }
func (i *Instance) Truthy() bool   { return true }

// FileHandle wraps an open file with idempotent-close semantics.
type FileHandle struct {
	ID     uuid.UUID
	Path   string
	File   any // the interpreter's file backend (an *os.File plus its buffered reader); typed any to keep this package free of os-specific behavior
	Closed bool
}

func (fh *FileHandle) Type() string   { return "file" }
func (fh *FileHandle) String() string { return fmt.Sprintf("<file %s>", fh.Path) }
func (fh *FileHandle) Truthy() bool   { return !fh.Closed }

// KwUnpackMarker is the value produced by evaluating `**expr` outside a
// call's argument list, e.g. on an assignment right-hand side; an
// assignment binds the marker like any other value, and the wrapped dict's
// entries are not merged into the scope.
type KwUnpackMarker struct {
	Dict *Dict
}

func (k *KwUnpackMarker) Type() string   { return "kwunpack" }
func (k *KwUnpackMarker) String() string { return "<kwunpack>" }
func (k *KwUnpackMarker) Truthy() bool   { return k.Dict.Truthy() }

func elemString(v Value) string {
	if s, ok := v.(*Str); ok {
		return "'" + s.Value + "'"
	}
	return v.String()
}

// Equal implements structural equality for ==/!=, defined over all values
// per the evaluator's comparison semantics.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case *Int:
		switch bv := b.(type) {
		case *Int:
			return av.Value == bv.Value
		case *Float:
			return float64(av.Value) == bv.Value
		}
		return false
	case *Float:
		switch bv := b.(type) {
		case *Int:
			return av.Value == float64(bv.Value)
		case *Float:
			return av.Value == bv.Value
		}
		return false
	case *Str:
		bv, ok := b.(*Str)
		return ok && av.Value == bv.Value
	case *Bool:
		bv, ok := b.(*Bool)
		return ok && av.Value == bv.Value
	case *Null:
		_, ok := b.(*Null)
		return ok
	case *List:
		bv, ok := b.(*List)
		if !ok || len(*av.Elems) != len(*bv.Elems) {
			return false
		}
		for i := range *av.Elems {
			if !Equal((*av.Elems)[i], (*bv.Elems)[i]) {
				return false
			}
		}
		return true
	case *Dict:
		bv, ok := b.(*Dict)
		if !ok || len(av.Keys) != len(bv.Keys) {
			return false
		}
		for _, k := range av.Keys {
			bval, exists := bv.Values[k]
			if !exists || !Equal(av.Values[k], bval) {
				return false
			}
		}
		return true
	case *Instance:
		bv, ok := b.(*Instance)
		return ok && av.ID == bv.ID
	case *FileHandle:
		bv, ok := b.(*FileHandle)
		return ok && av.ID == bv.ID
	default:
		return a == b
	}
}
