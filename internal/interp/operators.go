package interp

import (
	"strings"

	"github.com/nebula-lang/nebula/internal/nebulaerrors"
	"github.com/nebula-lang/nebula/internal/value"
	"github.com/nebula-lang/nebula/pkg/token"
)

// numeric widens two Int/Float operands to a common representation, per
// §5's "int+float promotes to float" rule. ok is false for any other
// operand pairing.
func numeric(a, b value.Value) (af, bf float64, bothInt bool, ok bool) {
	switch av := a.(type) {
	case *value.Int:
		switch bv := b.(type) {
		case *value.Int:
			return float64(av.Value), float64(bv.Value), true, true
		case *value.Float:
			return float64(av.Value), bv.Value, false, true
		}
	case *value.Float:
		switch bv := b.(type) {
		case *value.Int:
			return av.Value, float64(bv.Value), false, true
		case *value.Float:
			return av.Value, bv.Value, false, true
		}
	}
	return 0, 0, false, false
}

// arithOp evaluates +, -, *, /, % per §5: arithmetic on numbers, `+` also
// concatenates strings and lists, `%` is Go-style remainder on integers.
func arithOp(op string, left, right value.Value, pos token.Position) (value.Value, error) {
	if op == "+" {
		if ls, ok := left.(*value.Str); ok {
			if rs, ok := right.(*value.Str); ok {
				return &value.Str{Value: ls.Value + rs.Value}, nil
			}
			return nil, nebulaerrors.At(nebulaerrors.TypeError, pos, "cannot concatenate str and %s", right.Type())
		}
		if ll, ok := left.(*value.List); ok {
			rl, ok := right.(*value.List)
			if !ok {
				return nil, nebulaerrors.At(nebulaerrors.TypeError, pos, "cannot concatenate list and %s", right.Type())
			}
			combined := make([]value.Value, 0, len(*ll.Elems)+len(*rl.Elems))
			combined = append(combined, *ll.Elems...)
			combined = append(combined, *rl.Elems...)
			return value.NewList(combined), nil
		}
	}

	af, bf, bothInt, ok := numeric(left, right)
	if !ok {
		return nil, nebulaerrors.At(nebulaerrors.TypeError, pos, "unsupported operand types for %s: %s and %s", op, left.Type(), right.Type())
	}

	switch op {
	case "+":
		return numResult(af+bf, bothInt), nil
	case "-":
		return numResult(af-bf, bothInt), nil
	case "*":
		return numResult(af*bf, bothInt), nil
	case "/":
		if bf == 0 {
			return nil, nebulaerrors.At(nebulaerrors.TypeError, pos, "division by zero")
		}
		return &value.Float{Value: af / bf}, nil
	case "%":
		if !bothInt {
			return nil, nebulaerrors.At(nebulaerrors.TypeError, pos, "%% requires integer operands")
		}
		bi := int64(bf)
		if bi == 0 {
			return nil, nebulaerrors.At(nebulaerrors.TypeError, pos, "modulo by zero")
		}
		return &value.Int{Value: int64(af) % bi}, nil
	default:
		return nil, nebulaerrors.At(nebulaerrors.SyntaxError, pos, "unknown operator %q", op)
	}
}

func numResult(f float64, asInt bool) value.Value {
	if asInt {
		return &value.Int{Value: int64(f)}
	}
	return &value.Float{Value: f}
}

// compareOp evaluates ==, !=, <, >, <=, >=. Equality is defined over every
// value kind via value.Equal; ordering is defined only over numbers and
// strings.
func compareOp(op string, left, right value.Value, pos token.Position) (value.Value, error) {
	switch op {
	case "==":
		return &value.Bool{Value: value.Equal(left, right)}, nil
	case "!=":
		return &value.Bool{Value: !value.Equal(left, right)}, nil
	}

	if ls, ok := left.(*value.Str); ok {
		rs, ok := right.(*value.Str)
		if !ok {
			return nil, nebulaerrors.At(nebulaerrors.TypeError, pos, "cannot compare str and %s", right.Type())
		}
		c := strings.Compare(ls.Value, rs.Value)
		return &value.Bool{Value: compareResult(op, c)}, nil
	}

	af, bf, _, ok := numeric(left, right)
	if !ok {
		return nil, nebulaerrors.At(nebulaerrors.TypeError, pos, "cannot compare %s and %s", left.Type(), right.Type())
	}
	c := 0
	switch {
	case af < bf:
		c = -1
	case af > bf:
		c = 1
	}
	return &value.Bool{Value: compareResult(op, c)}, nil
}

func compareResult(op string, c int) bool {
	switch op {
	case "<":
		return c < 0
	case ">":
		return c > 0
	case "<=":
		return c <= 0
	case ">=":
		return c >= 0
	default:
		return false
	}
}

// applyAugOp implements the compound-assignment operators, including the
// ++/-- shorthand whose parsed Value is always IntLit(1).
func (it *Interp) applyAugOp(op string, cur, rhs value.Value, pos token.Position) (value.Value, error) {
	switch op {
	case "+=", "++":
		return arithOp("+", cur, rhs, pos)
	case "-=", "--":
		return arithOp("-", cur, rhs, pos)
	case "*=":
		return arithOp("*", cur, rhs, pos)
	case "/=":
		return arithOp("/", cur, rhs, pos)
	case "%=":
		return arithOp("%", cur, rhs, pos)
	default:
		return nil, nebulaerrors.At(nebulaerrors.SyntaxError, pos, "unknown compound operator %q", op)
	}
}
