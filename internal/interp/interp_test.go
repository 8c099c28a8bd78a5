package interp

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nebula-lang/nebula/internal/lexer"
	"github.com/nebula-lang/nebula/internal/nebulaerrors"
	"github.com/nebula-lang/nebula/internal/parser"
	"github.com/nebula-lang/nebula/internal/value"
)

// runProgram evaluates src in a fresh interpreter and returns everything it
// printed plus the final top-level value.
func runProgram(t *testing.T, src string, opts ...Option) (string, value.Value) {
	t.Helper()
	var out bytes.Buffer
	opts = append([]Option{WithOutput(&out), WithArgs([]string{"nebula", "test.fn"})}, opts...)
	it := New("", opts...)

	l := lexer.New(src)
	p := parser.New(l)
	prog := p.ParseProgram()
	require.Empty(t, l.Errors(), "lex errors for %q", src)
	require.Empty(t, p.Errors(), "parse errors for %q", src)

	v, err := it.Run(prog)
	require.NoError(t, err)
	return out.String(), v
}

// runError evaluates src expecting an error of the given kind.
func runError(t *testing.T, src string, kind nebulaerrors.Kind) *nebulaerrors.Error {
	t.Helper()
	var out bytes.Buffer
	it := New("", WithOutput(&out))

	l := lexer.New(src)
	p := parser.New(l)
	prog := p.ParseProgram()
	require.Empty(t, p.Errors(), "parse errors for %q", src)

	_, err := it.Run(prog)
	require.Error(t, err)
	ne, ok := err.(*nebulaerrors.Error)
	require.True(t, ok, "expected *nebulaerrors.Error, got %T: %v", err, err)
	require.Equal(t, kind, ne.Kind, "wrong error kind: %v", ne)
	return ne
}

func TestArithmeticPrecedence(t *testing.T) {
	out, _ := runProgram(t, `print(2 + 3 * 4);`)
	require.Equal(t, "14\n", out)
}

func TestTrueDivisionProducesFloat(t *testing.T) {
	out, _ := runProgram(t, `print(7 / 2); print(type(7 / 2)); print(6 / 3);`)
	require.Equal(t, "3.5\nfloat\n2\n", out)
}

func TestClosureCapture(t *testing.T) {
	out, _ := runProgram(t, `
		def make(n){ return lambda(){ return n; }; }
		f = make(7);
		print(f());`)
	require.Equal(t, "7\n", out)
}

func TestClosureSharesMutableState(t *testing.T) {
	out, _ := runProgram(t, `
		def counter(){ n = 0; return lambda(){ n += 1; return n; }; }
		c = counter();
		c(); c();
		print(c());`)
	require.Equal(t, "3\n", out)
}

func TestClassWithInheritance(t *testing.T) {
	out, _ := runProgram(t, `
		class A { x = 1; def show(self){ print(self.x); } }
		class B(A) { }
		b = B();
		b.show();`)
	require.Equal(t, "1\n", out)
}

func TestReturnThroughLoops(t *testing.T) {
	out, _ := runProgram(t, `
		def find(xs, t){ for (v, xs){ if (v == t){ return true; } } return false; }
		print(find([1,2,3], 2));`)
	require.Equal(t, "true\n", out)
}

func TestKeywordAndVarargs(t *testing.T) {
	out, _ := runProgram(t, `
		def f(a, *rest, **kw){ print(a); print(rest); print(kw); }
		f(1, 2, 3, x=4);`)
	require.Equal(t, "1\n[2, 3]\n{'x': 4}\n", out)
}

func TestTryThrow(t *testing.T) {
	out, _ := runProgram(t, `try { throw "bad"; } catch (e) { print(e); }`)
	require.Equal(t, "bad\n", out)
}

func TestTryCatchesRuntimeErrors(t *testing.T) {
	out, _ := runProgram(t, `
		try { print(nope); } catch (e) { print("caught"); }
		try { x = 1 / 0; } catch (e) { print(e); }`)
	require.Equal(t, "caught\ndivision by zero\n", out)
}

func TestControlSignalsAreNotCaughtByTry(t *testing.T) {
	out, _ := runProgram(t, `
		total = 0;
		for (v, range(10)) {
			try {
				if (v == 3) { continue; }
				if (v == 5) { break; }
			} catch (e) { print("wrong"); }
			total += v;
		}
		print(total);`)
	require.Equal(t, "7\n", out) // 0+1+2+4
}

func TestTruthiness(t *testing.T) {
	out, _ := runProgram(t, `
		print(not 0);
		print(not "");
		print(not []);
		print(not {});
		print(not None);
		print(not 1);
		print(0 or 5);
		print(1 or 5);
		print(0 and 5);
		print(2 and 5);`)
	require.Equal(t, "true\ntrue\ntrue\ntrue\ntrue\nfalse\n5\ntrue\nfalse\n5\n", out)
}

func TestShortCircuitSkipsRightOperand(t *testing.T) {
	out, _ := runProgram(t, `
		def boom(){ throw "evaluated"; }
		print(False and boom());
		print(True or boom());`)
	require.Equal(t, "false\ntrue\n", out)
}

func TestTernaryIsLazy(t *testing.T) {
	out, _ := runProgram(t, `
		def boom(){ throw "evaluated"; }
		print(1 > 2 ? boom() : "b");`)
	require.Equal(t, "b\n", out)
}

func TestRange(t *testing.T) {
	out, _ := runProgram(t, `
		print(range(4));
		print(range(2, 5));
		print(range(0, 10, 3));
		print(range(3, 0, -1));
		print(length(range(7)));`)
	require.Equal(t, "[0, 1, 2, 3]\n[2, 3, 4]\n[0, 3, 6, 9]\n[3, 2, 1]\n7\n", out)
}

func TestForStep(t *testing.T) {
	out, _ := runProgram(t, `
		s = "";
		for (v, ["a","b","c","d","e"], 2) { s += v; }
		print(s);`)
	require.Equal(t, "ace\n", out)
}

func TestWhile(t *testing.T) {
	out, _ := runProgram(t, `
		n = 0;
		while (n < 5) { n++; }
		print(n);`)
	require.Equal(t, "5\n", out)
}

func TestGlobalAliasesTopLevelCell(t *testing.T) {
	out, _ := runProgram(t, `
		count = 0;
		def bump(){ global count; count = count + 1; }
		bump(); bump();
		print(count);`)
	require.Equal(t, "2\n", out)
}

func TestMembership(t *testing.T) {
	out, _ := runProgram(t, `
		print(2 in [1, 2, 3]);
		print("ell" in "hello");
		print("z" not in "hello");
		print("k" in {"k": 1});`)
	require.Equal(t, "true\ntrue\ntrue\ntrue\n", out)
}

func TestFloatReassembly(t *testing.T) {
	out, _ := runProgram(t, `x = 0.5; print(x); print(type(x));`)
	require.Equal(t, "0.5\nfloat\n", out)
}

func TestEmptyBracesAreAnEmptyDict(t *testing.T) {
	out, _ := runProgram(t, `x = {}; print(x); print(type(x)); print(length(x));`)
	require.Equal(t, "{}\ndict\n0\n", out)
}

func TestSlicing(t *testing.T) {
	out, _ := runProgram(t, `
		xs = [1, 2, 3, 4];
		print(xs[1:3]);
		print(xs[::2]);
		print("hello"[::-1]);
		print("hello"[1:4]);`)
	require.Equal(t, "[2, 3]\n[1, 3]\nolleh\nell\n", out)
}

func TestFullSliceCopies(t *testing.T) {
	out, _ := runProgram(t, `
		xs = [1, 2, 3];
		ys = xs[:];
		ys.append(9);
		print(length(xs));
		print(length(ys));`)
	require.Equal(t, "3\n4\n", out)
}

func TestListsShareByReference(t *testing.T) {
	out, _ := runProgram(t, `
		xs = [1, 2];
		ys = xs;
		ys.append(3);
		print(xs);`)
	require.Equal(t, "[1, 2, 3]\n", out)
}

func TestIndexingAndAssignment(t *testing.T) {
	out, _ := runProgram(t, `
		xs = [1, 2, 3];
		xs[0] = 10;
		xs[-1] = 30;
		print(xs);
		d = {"n": 1};
		d["n"] += 2;
		d["m"] = 5;
		print(d["n"]);
		print(d["m"]);`)
	require.Equal(t, "[10, 2, 30]\n3\n5\n", out)
}

func TestAttributeAugAssign(t *testing.T) {
	out, _ := runProgram(t, `
		class P { x = 0 }
		p = P();
		p.x += 5;
		p.x++;
		print(p.x);`)
	require.Equal(t, "6\n", out)
}

func TestDefaultsEvaluateAtCallTime(t *testing.T) {
	out, _ := runProgram(t, `
		base = 10;
		def f(n = base + 1){ return n; }
		print(f());
		base = 20;
		print(f());
		print(f(3));`)
	require.Equal(t, "11\n21\n3\n", out)
}

func TestKeywordArguments(t *testing.T) {
	out, _ := runProgram(t, `
		def greet(name, greeting = "hi"){ return greeting + " " + name; }
		print(greet("bob"));
		print(greet("bob", greeting = "yo"));
		print(greet(greeting = "hey", name = "ann"));`)
	require.Equal(t, "hi bob\nyo bob\nhey ann\n", out)
}

func TestArgumentUnpacking(t *testing.T) {
	out, _ := runProgram(t, `
		def add(a, b, c){ return a + b + c; }
		args = [1, 2, 3];
		print(add(*args));
		kw = {"b": 2, "c": 3};
		print(add(1, **kw));`)
	require.Equal(t, "6\n6\n", out)
}

func TestArityErrors(t *testing.T) {
	runError(t, `def f(a){ } f();`, nebulaerrors.ArityError)
	runError(t, `def f(a){ } f(1, 2);`, nebulaerrors.ArityError)
	runError(t, `def f(a){ } f(1, b=2);`, nebulaerrors.ArityError)
}

func TestNameError(t *testing.T) {
	runError(t, `print(missing);`, nebulaerrors.NameError)
}

func TestOrderingTypeMismatch(t *testing.T) {
	runError(t, `x = 1 < "a";`, nebulaerrors.TypeError)
}

func TestAttributeErrorListsAvailableNames(t *testing.T) {
	ne := runError(t, `
		class A { x = 1; def show(self){ } }
		a = A();
		a.nope;`, nebulaerrors.AttributeError)
	require.Contains(t, ne.Message, "x")
	require.Contains(t, ne.Message, "show")
}

func TestCyclicParentsDoNotLoop(t *testing.T) {
	ne := runError(t, `
		class A(B) { }
		class B(A) { }
		a = A();
		a.nope;`, nebulaerrors.AttributeError)
	require.Contains(t, ne.Message, "nope")
}

func TestDiamondInheritance(t *testing.T) {
	out, _ := runProgram(t, `
		class Base { def who(self){ return "base"; } }
		class Left(Base) { def who(self){ return "left"; } }
		class Right(Base) { def who(self){ return "right"; } }
		class Join(Left, Right) { }
		j = Join();
		print(j.who());`)
	require.Equal(t, "left\n", out)
}

func TestNestedClasses(t *testing.T) {
	out, _ := runProgram(t, `
		class Outer {
			class Inner { v = 42 }
			def makeInner(self){ return Inner(); }
		}
		o = Outer();
		i = o.makeInner();
		print(i.v);`)
	require.Equal(t, "42\n", out)
}

func TestNestedClassInheritance(t *testing.T) {
	out, _ := runProgram(t, `
		class Outer {
			class Base { v = 7 }
			class Sub(Base) { }
			def makeSub(self){ return Sub(); }
		}
		o = Outer();
		s = o.makeSub();
		print(s.v);`)
	require.Equal(t, "7\n", out)
}

func TestMethodDefinitionOutsideClassBody(t *testing.T) {
	out, _ := runProgram(t, `
		class Point { x = 0; y = 0 }
		def Point.sum(){ return self.x + self.y; }
		p = Point(3, 4);
		print(p.sum());`)
	require.Equal(t, "7\n", out)
}

func TestConstructorArguments(t *testing.T) {
	out, _ := runProgram(t, `
		class Point { x = 0; y = 0 }
		a = Point();
		b = Point(1);
		c = Point(1, 2);
		d = Point(y = 9);
		print(a.x); print(b.x); print(c.y); print(d.y); print(d.x);`)
	require.Equal(t, "0\n1\n2\n9\n0\n", out)
}

func TestConstructorCardinalityIsTypeError(t *testing.T) {
	runError(t, `class P { x = 0 } p = P(1, 2);`, nebulaerrors.TypeError)
	runError(t, `class P { x = 0 } p = P(z = 1);`, nebulaerrors.TypeError)
}

func TestMatchExpression(t *testing.T) {
	out, _ := runProgram(t, `
		def label(n){
			return match (n) {
				case 1 { "one" }
				case 2 | 3 { "few" }
				else { "many" }
			};
		}
		print(label(1)); print(label(3)); print(label(9));`)
	require.Equal(t, "one\nfew\nmany\n", out)
}

func TestBreakInsideMatchBreaksEnclosingLoop(t *testing.T) {
	out, _ := runProgram(t, `
		hits = 0;
		for (i, [1, 2, 3]) {
			match (i) {
				case 2 { break; }
			}
			hits += 1;
		}
		print(hits);`)
	require.Equal(t, "1\n", out)
}

func TestContinueInsideMatchSkipsIteration(t *testing.T) {
	out, _ := runProgram(t, `
		total = 0;
		for (v, range(5)) {
			match (v % 2) {
				case 1 { continue; }
			}
			total += v;
		}
		print(total);`)
	require.Equal(t, "6\n", out) // 0+2+4
}

func TestReturnInsideMatchUnwindsToCallFrame(t *testing.T) {
	out, _ := runProgram(t, `
		def label(n){
			match (n) {
				case 1 { return "one"; }
			}
			return "other";
		}
		print(label(1));
		print(label(2));`)
	require.Equal(t, "one\nother\n", out)
}

func TestImplicitReturnYieldsLastValue(t *testing.T) {
	out, _ := runProgram(t, `
		def double(x){ x * 2; }
		print(double(4));
		def noise(){ print("side"); }
		print(noise());`)
	require.Equal(t, "8\nside\nnull\n", out)
}

func TestListComprehension(t *testing.T) {
	out, _ := runProgram(t, `
		print([v * v | v, range(5)]);
		print([v | v, range(10) | v % 2 == 0 | v > 2]);
		print([v | v, range(10), 3]);`)
	require.Equal(t, "[0, 1, 4, 9, 16]\n[4, 6, 8]\n[0, 3, 6, 9]\n", out)
}

func TestDictComprehension(t *testing.T) {
	out, _ := runProgram(t, `
		print({v | v * 2, v, range(3)});
		print({v | v, v, range(6) | v % 2 == 1});`)
	require.Equal(t, "{0: 0, 1: 2, 2: 4}\n{1: 1, 3: 3, 5: 5}\n", out)
}

func TestStringMethods(t *testing.T) {
	out, _ := runProgram(t, `
		print("hello".upper());
		print("HELLO".lower());
		print("abc".reverse());
		print(", ".join(["a", "b", "c"]));
		print("a b  c".split());
		print("a,b".split(","));
		print("  pad  ".strip());`)
	require.Equal(t, "HELLO\nhello\ncba\na, b, c\n['a', 'b', 'c']\n['a', 'b']\npad\n", out)
}

func TestListMethods(t *testing.T) {
	out, _ := runProgram(t, `
		xs = [3, 1, 2];
		xs.append(5);
		xs.extend([4]);
		xs.sort();
		print(xs);
		xs.sort(True);
		print(xs);
		xs.reverse();
		print(xs);
		xs.remove(3);
		print(xs);
		print(xs.pop());
		print(xs.index(2));`)
	require.Equal(t, "[1, 2, 3, 4, 5]\n[5, 4, 3, 2, 1]\n[1, 2, 3, 4, 5]\n[1, 2, 4, 5]\n5\n1\n", out)
}

func TestReverseRoundTrip(t *testing.T) {
	out, _ := runProgram(t, `
		xs = [1, 2, 3];
		xs.reverse(); xs.reverse();
		print(xs);
		print("abc".reverse().reverse());`)
	require.Equal(t, "[1, 2, 3]\nabc\n", out)
}

func TestCoercionRoundTrips(t *testing.T) {
	out, _ := runProgram(t, `
		print(int(str(42)));
		print(int(str(-7)));
		print(int("3.9"));
		print(float(2));
		print(str([1, 2]));
		print(list("ab"));
		print(list({"a": 1, "b": 2}));`)
	require.Equal(t, "42\n-7\n3\n2\n[1, 2]\n['a', 'b']\n['a', 'b']\n", out)
}

func TestHigherOrderBuiltins(t *testing.T) {
	out, _ := runProgram(t, `
		print(map(lambda (x) { return x * 2; }, [1, 2, 3]));
		print(filter(lambda (x) { return x % 2 == 1; }, range(6)));
		print(reduce(lambda (a, b) { return a + b; }, [1, 2, 3, 4]));
		print(reduce(lambda (a, b) { return a + b; }, [1, 2, 3], 10));`)
	require.Equal(t, "[2, 4, 6]\n[1, 3, 5]\n10\n16\n", out)
}

func TestChrOrd(t *testing.T) {
	out, _ := runProgram(t, `print(chr(65)); print(ord("A")); print(chr(ord("z")));`)
	require.Equal(t, "A\n65\nz\n", out)
}

func TestTypeBuiltin(t *testing.T) {
	out, _ := runProgram(t, `
		print(type(1));
		print(type(1.5));
		print(type("s"));
		print(type([]));
		print(type({}));
		print(type(True));
		print(type(None));
		print(type(lambda () { }));`)
	require.Equal(t, "int\nfloat\nstr\nlist\ndict\nbool\nnull\nfunction\n", out)
}

func TestPrintf(t *testing.T) {
	out, _ := runProgram(t, `printf(1, 2, 3, ", ", "!\n");`)
	require.Equal(t, "1, 2, 3!\n", out)
}

func TestInput(t *testing.T) {
	in := bytes.NewBufferString("hello\n3.14\n42\n")
	out, _ := runProgram(t, `
		print(input());
		print(type(input()));
		print(type(input()));`, WithInput(in))
	require.Equal(t, "hello\nfloat\nstr\n", out)
}

func TestArgvGlobals(t *testing.T) {
	out, _ := runProgram(t, `print(__argc); print(__argv[1]);`)
	require.Equal(t, "2\ntest.fn\n", out)
}

func TestTopLevelExpressionValue(t *testing.T) {
	_, v := runProgram(t, `1 + 2`)
	n, ok := v.(*value.Int)
	require.True(t, ok)
	require.Equal(t, int64(3), n.Value)
}

func TestTopLevelReturnYieldsValue(t *testing.T) {
	_, v := runProgram(t, `return 9;`)
	n, ok := v.(*value.Int)
	require.True(t, ok)
	require.Equal(t, int64(9), n.Value)
}

func TestBoundMethodAsValue(t *testing.T) {
	out, _ := runProgram(t, `
		class Greeter { name = "x"; def hello(self){ return "hi " + self.name; } }
		g = Greeter("bob");
		m = g.hello;
		print(m());`)
	require.Equal(t, "hi bob\n", out)
}

func TestStringOrdering(t *testing.T) {
	out, _ := runProgram(t, `print("apple" < "banana"); print("b" >= "b");`)
	require.Equal(t, "true\ntrue\n", out)
}

func TestStructuralEquality(t *testing.T) {
	out, _ := runProgram(t, `
		print([1, 2] == [1, 2]);
		print({"a": 1} == {"a": 1});
		print(1 == 1.0);
		print("1" == 1);`)
	require.Equal(t, "true\ntrue\ntrue\nfalse\n", out)
}
