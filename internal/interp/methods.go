package interp

import (
	"bufio"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/nebula-lang/nebula/internal/nebulaerrors"
	"github.com/nebula-lang/nebula/internal/value"
)

// native wraps a Go function as a NativeFn value.
func native(name string, fn func(args []value.Value) (value.Value, error)) *value.NativeFn {
	return &value.NativeFn{Name: name, Fn: fn}
}

func arity(name string, args []value.Value, min, max int) error {
	if len(args) < min || (max >= 0 && len(args) > max) {
		return nebulaerrors.New(nebulaerrors.ArityError, "%s: wrong number of arguments (got %d)", name, len(args))
	}
	return nil
}

// ---------------------------------------------------------------------
// string methods
// ---------------------------------------------------------------------

func stringMethod(s *value.Str, name string) (value.Value, bool) {
	switch name {
	case "reverse":
		return native("str.reverse", func(args []value.Value) (value.Value, error) {
			if err := arity("reverse", args, 0, 0); err != nil {
				return nil, err
			}
			runes := []rune(s.Value)
			for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
				runes[i], runes[j] = runes[j], runes[i]
			}
			return &value.Str{Value: string(runes)}, nil
		}), true

	case "upper":
		return native("str.upper", func(args []value.Value) (value.Value, error) {
			if err := arity("upper", args, 0, 0); err != nil {
				return nil, err
			}
			return &value.Str{Value: strings.ToUpper(s.Value)}, nil
		}), true

	case "lower":
		return native("str.lower", func(args []value.Value) (value.Value, error) {
			if err := arity("lower", args, 0, 0); err != nil {
				return nil, err
			}
			return &value.Str{Value: strings.ToLower(s.Value)}, nil
		}), true

	case "join":
		// sep.join(list) -> string, the receiver being the separator.
		return native("str.join", func(args []value.Value) (value.Value, error) {
			if err := arity("join", args, 1, 1); err != nil {
				return nil, err
			}
			list, ok := args[0].(*value.List)
			if !ok {
				return nil, nebulaerrors.New(nebulaerrors.TypeError, "join requires a list, got %s", args[0].Type())
			}
			parts := make([]string, len(*list.Elems))
			for i, e := range *list.Elems {
				parts[i] = displayString(e)
			}
			return &value.Str{Value: strings.Join(parts, s.Value)}, nil
		}), true

	case "split":
		return native("str.split", func(args []value.Value) (value.Value, error) {
			if err := arity("split", args, 0, 1); err != nil {
				return nil, err
			}
			var parts []string
			if len(args) == 0 {
				parts = strings.Fields(s.Value)
			} else {
				sep, ok := args[0].(*value.Str)
				if !ok {
					return nil, nebulaerrors.New(nebulaerrors.TypeError, "split separator must be a string, got %s", args[0].Type())
				}
				parts = strings.Split(s.Value, sep.Value)
			}
			out := make([]value.Value, len(parts))
			for i, p := range parts {
				out[i] = &value.Str{Value: p}
			}
			return value.NewList(out), nil
		}), true

	case "strip":
		return native("str.strip", func(args []value.Value) (value.Value, error) {
			if err := arity("strip", args, 0, 0); err != nil {
				return nil, err
			}
			return &value.Str{Value: strings.TrimSpace(s.Value)}, nil
		}), true
	}
	return nil, false
}

// ---------------------------------------------------------------------
// list methods
// ---------------------------------------------------------------------

func listMethod(l *value.List, name string) (value.Value, bool) {
	switch name {
	case "append":
		return native("list.append", func(args []value.Value) (value.Value, error) {
			if err := arity("append", args, 1, 1); err != nil {
				return nil, err
			}
			*l.Elems = append(*l.Elems, args[0])
			return value.Nil, nil
		}), true

	case "extend":
		return native("list.extend", func(args []value.Value) (value.Value, error) {
			if err := arity("extend", args, 1, 1); err != nil {
				return nil, err
			}
			other, ok := args[0].(*value.List)
			if !ok {
				return nil, nebulaerrors.New(nebulaerrors.TypeError, "extend requires a list, got %s", args[0].Type())
			}
			*l.Elems = append(*l.Elems, *other.Elems...)
			return value.Nil, nil
		}), true

	case "remove":
		return native("list.remove", func(args []value.Value) (value.Value, error) {
			if err := arity("remove", args, 1, 1); err != nil {
				return nil, err
			}
			elems := *l.Elems
			for i, e := range elems {
				if value.Equal(e, args[0]) {
					*l.Elems = append(elems[:i], elems[i+1:]...)
					return value.Nil, nil
				}
			}
			return nil, nebulaerrors.New(nebulaerrors.TypeError, "remove: %s not in list", displayString(args[0]))
		}), true

	case "sort":
		return native("list.sort", func(args []value.Value) (value.Value, error) {
			if err := arity("sort", args, 0, 1); err != nil {
				return nil, err
			}
			reversed := false
			if len(args) == 1 {
				reversed = args[0].Truthy()
			}
			if err := sortList(l, reversed); err != nil {
				return nil, err
			}
			return value.Nil, nil
		}), true

	case "reverse":
		return native("list.reverse", func(args []value.Value) (value.Value, error) {
			if err := arity("reverse", args, 0, 0); err != nil {
				return nil, err
			}
			elems := *l.Elems
			for i, j := 0, len(elems)-1; i < j; i, j = i+1, j-1 {
				elems[i], elems[j] = elems[j], elems[i]
			}
			return value.Nil, nil
		}), true

	case "pop":
		return native("list.pop", func(args []value.Value) (value.Value, error) {
			if err := arity("pop", args, 0, 1); err != nil {
				return nil, err
			}
			elems := *l.Elems
			if len(elems) == 0 {
				return nil, nebulaerrors.New(nebulaerrors.TypeError, "pop from empty list")
			}
			idx := int64(len(elems) - 1)
			if len(args) == 1 {
				i, ok := args[0].(*value.Int)
				if !ok {
					return nil, nebulaerrors.New(nebulaerrors.TypeError, "pop index must be an integer, got %s", args[0].Type())
				}
				idx = normalizeIndex(i.Value, int64(len(elems)))
				if idx < 0 || idx >= int64(len(elems)) {
					return nil, nebulaerrors.New(nebulaerrors.TypeError, "pop index %d out of range", i.Value)
				}
			}
			popped := elems[idx]
			*l.Elems = append(elems[:idx], elems[idx+1:]...)
			return popped, nil
		}), true

	case "index":
		return native("list.index", func(args []value.Value) (value.Value, error) {
			if err := arity("index", args, 1, 1); err != nil {
				return nil, err
			}
			for i, e := range *l.Elems {
				if value.Equal(e, args[0]) {
					return &value.Int{Value: int64(i)}, nil
				}
			}
			return nil, nebulaerrors.New(nebulaerrors.TypeError, "index: %s not in list", displayString(args[0]))
		}), true
	}
	return nil, false
}

// sortList orders a homogeneous list of numbers or strings in place.
func sortList(l *value.List, reversed bool) error {
	elems := *l.Elems
	allNum, allStr := true, true
	for _, e := range elems {
		switch e.(type) {
		case *value.Int, *value.Float:
			allStr = false
		case *value.Str:
			allNum = false
		default:
			return nebulaerrors.New(nebulaerrors.TypeError, "sort: unorderable element of type %s", e.Type())
		}
	}
	switch {
	case allNum:
		sort.SliceStable(elems, func(i, j int) bool {
			return numFloat(elems[i]) < numFloat(elems[j])
		})
	case allStr:
		sort.SliceStable(elems, func(i, j int) bool {
			return elems[i].(*value.Str).Value < elems[j].(*value.Str).Value
		})
	default:
		return nebulaerrors.New(nebulaerrors.TypeError, "sort: cannot order mixed numbers and strings")
	}
	if reversed {
		for i, j := 0, len(elems)-1; i < j; i, j = i+1, j-1 {
			elems[i], elems[j] = elems[j], elems[i]
		}
	}
	return nil
}

func numFloat(v value.Value) float64 {
	switch n := v.(type) {
	case *value.Int:
		return float64(n.Value)
	case *value.Float:
		return n.Value
	}
	return 0
}

// ---------------------------------------------------------------------
// file handle methods
// ---------------------------------------------------------------------

// fileBackend is what a FileHandle's File field actually holds: the OS file
// plus a buffered reader shared by read/readline/readlines so partial reads
// compose.
type fileBackend struct {
	f *os.File
	r *bufio.Reader
}

func newFileBackend(f *os.File) *fileBackend {
	return &fileBackend{f: f, r: bufio.NewReader(f)}
}

func fileMethod(fh *value.FileHandle, name string) (value.Value, bool) {
	backend, _ := fh.File.(*fileBackend)

	requireOpen := func(op string) error {
		if fh.Closed || backend == nil {
			return nebulaerrors.New(nebulaerrors.IOError, "%s on closed file %s", op, fh.Path)
		}
		return nil
	}

	switch name {
	case "read":
		return native("file.read", func(args []value.Value) (value.Value, error) {
			if err := arity("read", args, 0, 0); err != nil {
				return nil, err
			}
			if err := requireOpen("read"); err != nil {
				return nil, err
			}
			data, err := io.ReadAll(backend.r)
			if err != nil {
				return nil, nebulaerrors.New(nebulaerrors.IOError, "read %s: %v", fh.Path, err)
			}
			return &value.Str{Value: string(data)}, nil
		}), true

	case "write":
		return native("file.write", func(args []value.Value) (value.Value, error) {
			if err := arity("write", args, 1, 1); err != nil {
				return nil, err
			}
			if err := requireOpen("write"); err != nil {
				return nil, err
			}
			if _, err := backend.f.WriteString(displayString(args[0])); err != nil {
				return nil, nebulaerrors.New(nebulaerrors.IOError, "write %s: %v", fh.Path, err)
			}
			return value.Nil, nil
		}), true

	case "close":
		return native("file.close", func(args []value.Value) (value.Value, error) {
			if err := arity("close", args, 0, 0); err != nil {
				return nil, err
			}
			if fh.Closed {
				return nil, nebulaerrors.New(nebulaerrors.IOError, "file %s already closed", fh.Path)
			}
			fh.Closed = true
			if backend != nil {
				if err := backend.f.Close(); err != nil {
					return nil, nebulaerrors.New(nebulaerrors.IOError, "close %s: %v", fh.Path, err)
				}
			}
			return value.Nil, nil
		}), true

	case "readline":
		return native("file.readline", func(args []value.Value) (value.Value, error) {
			if err := arity("readline", args, 0, 0); err != nil {
				return nil, err
			}
			if err := requireOpen("readline"); err != nil {
				return nil, err
			}
			line, err := backend.r.ReadString('\n')
			if err != nil && err != io.EOF {
				return nil, nebulaerrors.New(nebulaerrors.IOError, "readline %s: %v", fh.Path, err)
			}
			return &value.Str{Value: strings.TrimRight(line, "\r\n")}, nil
		}), true

	case "readlines":
		return native("file.readlines", func(args []value.Value) (value.Value, error) {
			if err := arity("readlines", args, 0, 0); err != nil {
				return nil, err
			}
			if err := requireOpen("readlines"); err != nil {
				return nil, err
			}
			data, err := io.ReadAll(backend.r)
			if err != nil {
				return nil, nebulaerrors.New(nebulaerrors.IOError, "readlines %s: %v", fh.Path, err)
			}
			text := strings.TrimRight(string(data), "\n")
			var out []value.Value
			if text != "" {
				for _, line := range strings.Split(text, "\n") {
					out = append(out, &value.Str{Value: strings.TrimRight(line, "\r")})
				}
			}
			return value.NewList(out), nil
		}), true
	}
	return nil, false
}
