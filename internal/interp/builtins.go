package interp

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/nebula-lang/nebula/internal/nebulaerrors"
	"github.com/nebula-lang/nebula/internal/value"
	"github.com/nebula-lang/nebula/pkg/token"
)

// floatInputRe decides whether `input` returns a Float: only strings of the
// exact shape -?digits.digits do, preserving the reference behavior where
// "42" stays a string.
var floatInputRe = regexp.MustCompile(`^-?\d+\.\d+$`)

// displayString renders a value for user-facing output: strings verbatim,
// everything else through its representation.
func displayString(v value.Value) string {
	return v.String()
}

// decodeEscapes interprets the backslash escapes printf's separator and
// end-of-line arguments may carry.
func decodeEscapes(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) {
			sb.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		case '\\':
			sb.WriteByte('\\')
		default:
			sb.WriteByte('\\')
			sb.WriteByte(s[i])
		}
	}
	return sb.String()
}

// registerBuiltins pre-binds the global constants and native functions
// every program starts with.
func registerBuiltins(it *Interp) {
	g := it.Global

	g.Define("True", &value.Bool{Value: true})
	g.Define("False", &value.Bool{Value: false})
	g.Define("None", value.Nil)
	g.Define("true", &value.Bool{Value: true})
	g.Define("false", &value.Bool{Value: false})

	g.Define("__argc", &value.Int{Value: int64(len(it.argv))})
	argv := make([]value.Value, len(it.argv))
	for i, a := range it.argv {
		argv[i] = &value.Str{Value: a}
	}
	g.Define("__argv", value.NewList(argv))

	bind := func(name string, fn func(args []value.Value) (value.Value, error)) {
		g.Define(name, &value.NativeFn{Name: name, Fn: fn})
	}

	bind("print", func(args []value.Value) (value.Value, error) {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = displayString(a)
		}
		fmt.Fprintln(it.Out, strings.Join(parts, " "))
		return value.Nil, nil
	})

	bind("printf", func(args []value.Value) (value.Value, error) {
		if len(args) < 2 {
			return nil, nebulaerrors.New(nebulaerrors.ArityError, "printf requires at least a separator and an end argument")
		}
		sep := decodeEscapes(displayString(args[len(args)-2]))
		end := decodeEscapes(displayString(args[len(args)-1]))
		parts := make([]string, len(args)-2)
		for i, a := range args[:len(args)-2] {
			parts[i] = displayString(a)
		}
		fmt.Fprint(it.Out, strings.Join(parts, sep)+end)
		return value.Nil, nil
	})

	bind("input", func(args []value.Value) (value.Value, error) {
		if err := arity("input", args, 0, 1); err != nil {
			return nil, err
		}
		if len(args) == 1 {
			fmt.Fprint(it.Out, displayString(args[0]))
		}
		line, err := it.In.ReadString('\n')
		if err != nil && line == "" {
			return nil, nebulaerrors.New(nebulaerrors.IOError, "input: %v", err)
		}
		line = strings.TrimRight(line, "\r\n")
		if floatInputRe.MatchString(line) {
			f, _ := strconv.ParseFloat(line, 64)
			return &value.Float{Value: f}, nil
		}
		return &value.Str{Value: line}, nil
	})

	bind("range", func(args []value.Value) (value.Value, error) {
		if err := arity("range", args, 1, 3); err != nil {
			return nil, err
		}
		bounds := make([]int64, len(args))
		for i, a := range args {
			n, ok := a.(*value.Int)
			if !ok {
				return nil, nebulaerrors.New(nebulaerrors.TypeError, "range arguments must be integers, got %s", a.Type())
			}
			bounds[i] = n.Value
		}
		start, stop, step := int64(0), int64(0), int64(1)
		switch len(bounds) {
		case 1:
			stop = bounds[0]
		case 2:
			start, stop = bounds[0], bounds[1]
		case 3:
			start, stop, step = bounds[0], bounds[1], bounds[2]
			if step == 0 {
				return nil, nebulaerrors.New(nebulaerrors.TypeError, "range step must be nonzero")
			}
		}
		var out []value.Value
		if step > 0 {
			for i := start; i < stop; i += step {
				out = append(out, &value.Int{Value: i})
			}
		} else {
			for i := start; i > stop; i += step {
				out = append(out, &value.Int{Value: i})
			}
		}
		return value.NewList(out), nil
	})

	bind("type", func(args []value.Value) (value.Value, error) {
		if err := arity("type", args, 1, 1); err != nil {
			return nil, err
		}
		return &value.Str{Value: args[0].Type()}, nil
	})

	bind("int", func(args []value.Value) (value.Value, error) {
		if err := arity("int", args, 1, 1); err != nil {
			return nil, err
		}
		switch v := args[0].(type) {
		case *value.Int:
			return v, nil
		case *value.Float:
			return &value.Int{Value: int64(v.Value)}, nil
		case *value.Bool:
			if v.Value {
				return &value.Int{Value: 1}, nil
			}
			return &value.Int{Value: 0}, nil
		case *value.Str:
			s := strings.TrimSpace(v.Value)
			if n, err := strconv.ParseInt(s, 10, 64); err == nil {
				return &value.Int{Value: n}, nil
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return &value.Int{Value: int64(f)}, nil
			}
			return nil, nebulaerrors.New(nebulaerrors.TypeError, "cannot convert %q to int", v.Value)
		default:
			return nil, nebulaerrors.New(nebulaerrors.TypeError, "cannot convert %s to int", args[0].Type())
		}
	})

	bind("float", func(args []value.Value) (value.Value, error) {
		if err := arity("float", args, 1, 1); err != nil {
			return nil, err
		}
		switch v := args[0].(type) {
		case *value.Float:
			return v, nil
		case *value.Int:
			return &value.Float{Value: float64(v.Value)}, nil
		case *value.Bool:
			if v.Value {
				return &value.Float{Value: 1}, nil
			}
			return &value.Float{Value: 0}, nil
		case *value.Str:
			f, err := strconv.ParseFloat(strings.TrimSpace(v.Value), 64)
			if err != nil {
				return nil, nebulaerrors.New(nebulaerrors.TypeError, "cannot convert %q to float", v.Value)
			}
			return &value.Float{Value: f}, nil
		default:
			return nil, nebulaerrors.New(nebulaerrors.TypeError, "cannot convert %s to float", args[0].Type())
		}
	})

	bind("str", func(args []value.Value) (value.Value, error) {
		if err := arity("str", args, 1, 1); err != nil {
			return nil, err
		}
		return &value.Str{Value: displayString(args[0])}, nil
	})

	bind("list", func(args []value.Value) (value.Value, error) {
		if err := arity("list", args, 1, 1); err != nil {
			return nil, err
		}
		switch v := args[0].(type) {
		case *value.List:
			elems := make([]value.Value, len(*v.Elems))
			copy(elems, *v.Elems)
			return value.NewList(elems), nil
		case *value.Str:
			runes := []rune(v.Value)
			elems := make([]value.Value, len(runes))
			for i, r := range runes {
				elems[i] = &value.Str{Value: string(r)}
			}
			return value.NewList(elems), nil
		case *value.Dict:
			elems := make([]value.Value, 0, len(v.Keys))
			for _, k := range v.Keys {
				elems = append(elems, v.Lookup[k])
			}
			return value.NewList(elems), nil
		default:
			return nil, nebulaerrors.New(nebulaerrors.TypeError, "cannot convert %s to list", args[0].Type())
		}
	})

	bind("dict", func(args []value.Value) (value.Value, error) {
		if err := arity("dict", args, 1, 1); err != nil {
			return nil, err
		}
		switch v := args[0].(type) {
		case *value.Dict:
			d := value.NewDict()
			for _, k := range v.Keys {
				d.Set(v.Lookup[k], v.Values[k])
			}
			return d, nil
		default:
			return nil, nebulaerrors.New(nebulaerrors.TypeError, "cannot convert %s to dict", args[0].Type())
		}
	})

	bind("length", func(args []value.Value) (value.Value, error) {
		if err := arity("length", args, 1, 1); err != nil {
			return nil, err
		}
		switch v := args[0].(type) {
		case *value.Str:
			return &value.Int{Value: int64(len([]rune(v.Value)))}, nil
		case *value.List:
			return &value.Int{Value: int64(len(*v.Elems))}, nil
		case *value.Dict:
			return &value.Int{Value: int64(len(v.Keys))}, nil
		default:
			return nil, nebulaerrors.New(nebulaerrors.TypeError, "length requires a string, list, or dict, got %s", args[0].Type())
		}
	})

	bind("open", func(args []value.Value) (value.Value, error) {
		if err := arity("open", args, 1, 2); err != nil {
			return nil, err
		}
		path, ok := args[0].(*value.Str)
		if !ok {
			return nil, nebulaerrors.New(nebulaerrors.TypeError, "open path must be a string, got %s", args[0].Type())
		}
		mode := "r"
		if len(args) == 2 {
			m, ok := args[1].(*value.Str)
			if !ok {
				return nil, nebulaerrors.New(nebulaerrors.TypeError, "open mode must be a string, got %s", args[1].Type())
			}
			mode = m.Value
		}

		var f *os.File
		var err error
		switch mode {
		case "r":
			f, err = os.Open(path.Value)
		case "w":
			f, err = os.Create(path.Value)
		case "a":
			f, err = os.OpenFile(path.Value, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		default:
			return nil, nebulaerrors.New(nebulaerrors.TypeError, "unsupported open mode %q", mode)
		}
		if err != nil {
			return nil, nebulaerrors.New(nebulaerrors.IOError, "open %s: %v", path.Value, err)
		}
		return newFileHandle(path.Value, f), nil
	})

	bind("map", func(args []value.Value) (value.Value, error) {
		if err := arity("map", args, 2, 2); err != nil {
			return nil, err
		}
		list, ok := args[1].(*value.List)
		if !ok {
			return nil, nebulaerrors.New(nebulaerrors.TypeError, "map requires a list, got %s", args[1].Type())
		}
		out := make([]value.Value, 0, len(*list.Elems))
		for _, e := range *list.Elems {
			v, err := it.callValue(args[0], []value.Value{e}, newKwBundle(), it.Global, token.Position{})
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return value.NewList(out), nil
	})

	bind("filter", func(args []value.Value) (value.Value, error) {
		if err := arity("filter", args, 2, 2); err != nil {
			return nil, err
		}
		list, ok := args[1].(*value.List)
		if !ok {
			return nil, nebulaerrors.New(nebulaerrors.TypeError, "filter requires a list, got %s", args[1].Type())
		}
		var out []value.Value
		for _, e := range *list.Elems {
			v, err := it.callValue(args[0], []value.Value{e}, newKwBundle(), it.Global, token.Position{})
			if err != nil {
				return nil, err
			}
			if v.Truthy() {
				out = append(out, e)
			}
		}
		return value.NewList(out), nil
	})

	bind("reduce", func(args []value.Value) (value.Value, error) {
		if err := arity("reduce", args, 2, 3); err != nil {
			return nil, err
		}
		list, ok := args[1].(*value.List)
		if !ok {
			return nil, nebulaerrors.New(nebulaerrors.TypeError, "reduce requires a list, got %s", args[1].Type())
		}
		elems := *list.Elems
		var acc value.Value
		start := 0
		if len(args) == 3 {
			acc = args[2]
		} else {
			if len(elems) == 0 {
				return nil, nebulaerrors.New(nebulaerrors.TypeError, "reduce of empty list with no initial value")
			}
			acc = elems[0]
			start = 1
		}
		for _, e := range elems[start:] {
			v, err := it.callValue(args[0], []value.Value{acc, e}, newKwBundle(), it.Global, token.Position{})
			if err != nil {
				return nil, err
			}
			acc = v
		}
		return acc, nil
	})

	bind("chr", func(args []value.Value) (value.Value, error) {
		if err := arity("chr", args, 1, 1); err != nil {
			return nil, err
		}
		n, ok := args[0].(*value.Int)
		if !ok {
			return nil, nebulaerrors.New(nebulaerrors.TypeError, "chr requires an integer, got %s", args[0].Type())
		}
		return &value.Str{Value: string(rune(n.Value))}, nil
	})

	bind("ord", func(args []value.Value) (value.Value, error) {
		if err := arity("ord", args, 1, 1); err != nil {
			return nil, err
		}
		s, ok := args[0].(*value.Str)
		if !ok {
			return nil, nebulaerrors.New(nebulaerrors.TypeError, "ord requires a string, got %s", args[0].Type())
		}
		runes := []rune(s.Value)
		if len(runes) != 1 {
			return nil, nebulaerrors.New(nebulaerrors.TypeError, "ord requires a single character, got %d", len(runes))
		}
		return &value.Int{Value: int64(runes[0])}, nil
	})

	bind("include", func(args []value.Value) (value.Value, error) {
		if err := arity("include", args, 1, 1); err != nil {
			return nil, err
		}
		path, ok := args[0].(*value.Str)
		if !ok {
			return nil, nebulaerrors.New(nebulaerrors.TypeError, "include path must be a string, got %s", args[0].Type())
		}
		return it.includeModule(path.Value, token.Position{})
	})
}

// newFileHandle wraps an opened OS file as a FileHandle value with a fresh
// identity.
func newFileHandle(path string, f *os.File) *value.FileHandle {
	return &value.FileHandle{ID: uuid.New(), Path: path, File: newFileBackend(f)}
}
