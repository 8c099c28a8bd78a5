package parser

import (
	"testing"

	"github.com/nebula-lang/nebula/internal/ast"
	"github.com/nebula-lang/nebula/internal/lexer"
)

func parseProgram(t *testing.T, input string) *ast.Program {
	t.Helper()
	p := New(lexer.New(input))
	prog := p.ParseProgram()
	if len(p.Errors()) != 0 {
		t.Fatalf("unexpected parse errors for %q: %v", input, p.Errors())
	}
	return prog
}

func singleExprStmt(t *testing.T, prog *ast.Program) ast.Expression {
	t.Helper()
	if len(prog.Statements) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(prog.Statements))
	}
	es, ok := prog.Statements[0].(*ast.ExpressionStatement)
	if !ok {
		t.Fatalf("expected *ast.ExpressionStatement, got %T", prog.Statements[0])
	}
	return es.Expr
}

func TestArithmeticPrecedence(t *testing.T) {
	prog := parseProgram(t, "1 + 2 * 3")
	expr := singleExprStmt(t, prog)
	bin, ok := expr.(*ast.BinOp)
	if !ok || bin.Op != "+" {
		t.Fatalf("expected top-level '+', got %#v", expr)
	}
	right, ok := bin.Right.(*ast.BinOp)
	if !ok || right.Op != "*" {
		t.Fatalf("expected right side to be '*', got %#v", bin.Right)
	}
}

func TestArithmeticLeftAssociative(t *testing.T) {
	prog := parseProgram(t, "1 - 2 - 3")
	expr := singleExprStmt(t, prog)
	bin, ok := expr.(*ast.BinOp)
	if !ok || bin.Op != "-" {
		t.Fatalf("expected top-level '-', got %#v", expr)
	}
	if _, ok := bin.Left.(*ast.BinOp); !ok {
		t.Fatalf("expected left-associative nesting, got %#v", bin.Left)
	}
	if _, ok := bin.Right.(*ast.IntLit); !ok {
		t.Fatalf("expected flat right operand, got %#v", bin.Right)
	}
}

func TestTernaryIsRightAssociative(t *testing.T) {
	prog := parseProgram(t, "a ? b : c ? d : e")
	expr := singleExprStmt(t, prog)
	top, ok := expr.(*ast.Ternary)
	if !ok {
		t.Fatalf("expected *ast.Ternary, got %#v", expr)
	}
	if _, ok := top.Else.(*ast.Ternary); !ok {
		t.Fatalf("expected nested ternary in Else branch, got %#v", top.Else)
	}
}

func TestFloatReassemblyFromDottedNumbers(t *testing.T) {
	prog := parseProgram(t, "3.14")
	expr := singleExprStmt(t, prog)
	f, ok := expr.(*ast.FloatLit)
	if !ok || f.Value != 3.14 {
		t.Fatalf("expected FloatLit(3.14), got %#v", expr)
	}
}

func TestMembershipNonChained(t *testing.T) {
	prog := parseProgram(t, "x not in y")
	expr := singleExprStmt(t, prog)
	in, ok := expr.(*ast.In)
	if !ok || !in.Negated {
		t.Fatalf("expected negated In, got %#v", expr)
	}
}

func TestAssignToIdent(t *testing.T) {
	prog := parseProgram(t, "x = 5")
	es := prog.Statements[0].(*ast.ExpressionStatement)
	assign, ok := es.Expr.(*ast.Assign)
	if !ok || assign.Name != "x" {
		t.Fatalf("expected Assign(x), got %#v", es.Expr)
	}
}

func TestAssignToAttributeAndIndex(t *testing.T) {
	prog := parseProgram(t, "obj.field = 1")
	es := prog.Statements[0].(*ast.ExpressionStatement)
	if _, ok := es.Expr.(*ast.SetAttr); !ok {
		t.Fatalf("expected SetAttr, got %#v", es.Expr)
	}

	prog = parseProgram(t, "list[0] = 1")
	es = prog.Statements[0].(*ast.ExpressionStatement)
	if _, ok := es.Expr.(*ast.SetIndex); !ok {
		t.Fatalf("expected SetIndex, got %#v", es.Expr)
	}
}

func TestIncrementDesugarsToAugAssign(t *testing.T) {
	prog := parseProgram(t, "x++")
	es := prog.Statements[0].(*ast.ExpressionStatement)
	aug, ok := es.Expr.(*ast.AugAssign)
	if !ok || aug.Op != "+=" {
		t.Fatalf("expected AugAssign(+=), got %#v", es.Expr)
	}
	if lit, ok := aug.Value.(*ast.IntLit); !ok || lit.Value != 1 {
		t.Fatalf("expected increment amount of 1, got %#v", aug.Value)
	}
}

func TestIfElifElse(t *testing.T) {
	prog := parseProgram(t, `
	if (a) { 1 }
	elif (b) { 2 }
	else { 3 }
	`)
	chain, ok := prog.Statements[0].(*ast.IfChain)
	if !ok {
		t.Fatalf("expected *ast.IfChain, got %#v", prog.Statements[0])
	}
	if len(chain.Conds) != 2 || chain.Else == nil {
		t.Fatalf("expected 2 conds and an else branch, got %+v", chain)
	}
}

func TestForLoopWithStep(t *testing.T) {
	prog := parseProgram(t, "for (i, range(10), 2) { x }")
	forStmt, ok := prog.Statements[0].(*ast.For)
	if !ok || forStmt.Var != "i" || forStmt.Step == nil {
		t.Fatalf("expected For with step, got %#v", prog.Statements[0])
	}
}

func TestBreakAndContinue(t *testing.T) {
	prog := parseProgram(t, "while (true) { break; continue; }")
	while := prog.Statements[0].(*ast.While)
	if len(while.Body.Statements) != 2 {
		t.Fatalf("expected 2 statements in loop body, got %d", len(while.Body.Statements))
	}
	if _, ok := while.Body.Statements[0].(*ast.Break); !ok {
		t.Fatalf("expected Break, got %#v", while.Body.Statements[0])
	}
	if _, ok := while.Body.Statements[1].(*ast.Continue); !ok {
		t.Fatalf("expected Continue, got %#v", while.Body.Statements[1])
	}
}

func TestTryCatchThrow(t *testing.T) {
	prog := parseProgram(t, `try { throw "boom" } catch (e) { log(e) }`)
	tc, ok := prog.Statements[0].(*ast.TryCatch)
	if !ok || tc.ErrName != "e" {
		t.Fatalf("expected TryCatch binding e, got %#v", prog.Statements[0])
	}
	if len(tc.Try.Statements) != 1 {
		t.Fatalf("expected 1 statement in try block")
	}
	if _, ok := tc.Try.Statements[0].(*ast.Throw); !ok {
		t.Fatalf("expected Throw in try block, got %#v", tc.Try.Statements[0])
	}
}

func TestFunctionDefWithVarargsAndKwargs(t *testing.T) {
	prog := parseProgram(t, "def f(a, b=1, *rest, **kw) { return a }")
	fn, ok := prog.Statements[0].(*ast.FunctionDef)
	if !ok || fn.Name != "f" {
		t.Fatalf("expected FunctionDef(f), got %#v", prog.Statements[0])
	}
	if len(fn.Params) != 4 {
		t.Fatalf("expected 4 params, got %d", len(fn.Params))
	}
	if fn.Params[1].Default == nil {
		t.Fatalf("expected default on second param")
	}
	if !fn.Params[2].Variadic {
		t.Fatalf("expected third param to be variadic")
	}
	if !fn.Params[3].KwVariadic {
		t.Fatalf("expected fourth param to be kw-variadic")
	}
}

func TestMethodDefPrependsSelf(t *testing.T) {
	prog := parseProgram(t, "def Dog.bark(volume) { return volume }")
	fn := prog.Statements[0].(*ast.FunctionDef)
	if fn.Name != "Dog.bark" {
		t.Fatalf("expected method name Dog.bark, got %q", fn.Name)
	}
	if len(fn.Params) != 2 || fn.Params[0].Name != "self" {
		t.Fatalf("expected synthetic self param prepended, got %+v", fn.Params)
	}
}

func TestClassDefWithParentsFieldsAndNested(t *testing.T) {
	prog := parseProgram(t, `
	class Animal(Base) {
		name = "unnamed"
		def speak() { return name }
		class Nested { x }
	}
	`)
	cd, ok := prog.Statements[0].(*ast.ClassDef)
	if !ok || cd.Name != "Animal" {
		t.Fatalf("expected ClassDef(Animal), got %#v", prog.Statements[0])
	}
	if len(cd.Parents) != 1 || cd.Parents[0] != "Base" {
		t.Fatalf("expected parent Base, got %v", cd.Parents)
	}
	if len(cd.Fields) != 1 || cd.Fields[0].Name != "name" {
		t.Fatalf("expected field name, got %+v", cd.Fields)
	}
	if len(cd.Methods) != 1 {
		t.Fatalf("expected 1 method, got %d", len(cd.Methods))
	}
	if len(cd.Nested) != 1 || cd.Nested[0].Name != "Nested" {
		t.Fatalf("expected nested class Nested, got %+v", cd.Nested)
	}
}

func TestIncludeStatementForm(t *testing.T) {
	prog := parseProgram(t, `include "util.fn"`)
	inc, ok := prog.Statements[0].(*ast.Include)
	if !ok || inc.Path != "util.fn" {
		t.Fatalf("expected Include(util.fn), got %#v", prog.Statements[0])
	}
}

func TestIncludeCallForm(t *testing.T) {
	prog := parseProgram(t, `include(path)`)
	es := prog.Statements[0].(*ast.ExpressionStatement)
	call, ok := es.Expr.(*ast.Call)
	if !ok {
		t.Fatalf("expected Call, got %#v", es.Expr)
	}
	ident, ok := call.Callee.(*ast.Ident)
	if !ok || ident.Name != "include" {
		t.Fatalf("expected callee include, got %#v", call.Callee)
	}
}

func TestFFIStatementCarriesRawPayload(t *testing.T) {
	prog := parseProgram(t, `ffi { raw host code here }`)
	stmt, ok := prog.Statements[0].(*ast.FFIStmt)
	if !ok {
		t.Fatalf("expected FFIStmt, got %#v", prog.Statements[0])
	}
	want := " raw host code here "
	if stmt.Raw != want {
		t.Fatalf("expected raw payload %q, got %q", want, stmt.Raw)
	}
}

func TestBlockVsDictDisambiguation(t *testing.T) {
	prog := parseProgram(t, "{ x = 1 }")
	if _, ok := prog.Statements[0].(*ast.Block); !ok {
		t.Fatalf("expected leading '{...}' with no ':' to parse as a Block, got %#v", prog.Statements[0])
	}

	prog = parseProgram(t, `y = { "a": 1 }`)
	es := prog.Statements[0].(*ast.ExpressionStatement)
	assign := es.Expr.(*ast.Assign)
	if _, ok := assign.Value.(*ast.DictLit); !ok {
		t.Fatalf("expected dict literal RHS, got %#v", assign.Value)
	}
}

func TestEmptyDictLiteral(t *testing.T) {
	prog := parseProgram(t, "x = {}")
	es := prog.Statements[0].(*ast.ExpressionStatement)
	assign := es.Expr.(*ast.Assign)
	dict, ok := assign.Value.(*ast.DictLit)
	if !ok || len(dict.Keys) != 0 {
		t.Fatalf("expected empty DictLit, got %#v", assign.Value)
	}
}

func TestListComprehension(t *testing.T) {
	prog := parseProgram(t, "[x * 2 | x, range(10) | x > 2]")
	expr := singleExprStmt(t, prog)
	comp, ok := expr.(*ast.ListComp)
	if !ok || comp.Var != "x" || len(comp.Conds) != 1 {
		t.Fatalf("expected ListComp with 1 condition, got %#v", expr)
	}
}

func TestDictComprehension(t *testing.T) {
	prog := parseProgram(t, "{k | k * 2, k, range(5)}")
	expr := singleExprStmt(t, prog)
	comp, ok := expr.(*ast.DictComp)
	if !ok || comp.Var != "k" {
		t.Fatalf("expected DictComp, got %#v", expr)
	}
}

func TestCallWithPositionalUnpackAndKwargs(t *testing.T) {
	prog := parseProgram(t, "f(1, *rest, name=value, **extra)")
	expr := singleExprStmt(t, prog)
	call, ok := expr.(*ast.Call)
	if !ok {
		t.Fatalf("expected Call, got %#v", expr)
	}
	if len(call.Args) != 3 {
		t.Fatalf("expected 3 positional args (including unpack forms), got %d", len(call.Args))
	}
	if _, ok := call.Args[1].(*ast.Unpack); !ok {
		t.Fatalf("expected Unpack at args[1], got %#v", call.Args[1])
	}
	if len(call.KwArgs) != 1 || call.KwArgs[0].Name != "name" {
		t.Fatalf("expected kwarg name=value, got %+v", call.KwArgs)
	}
}

func TestSliceExpression(t *testing.T) {
	prog := parseProgram(t, "a[1:5:2]")
	expr := singleExprStmt(t, prog)
	sl, ok := expr.(*ast.Slice)
	if !ok || sl.Start == nil || sl.Stop == nil || sl.Step == nil {
		t.Fatalf("expected fully-specified Slice, got %#v", expr)
	}

	prog = parseProgram(t, "a[:5]")
	expr = singleExprStmt(t, prog)
	sl, ok = expr.(*ast.Slice)
	if !ok || sl.Start != nil || sl.Stop == nil {
		t.Fatalf("expected open-start Slice, got %#v", expr)
	}
}

func TestPlainIndexIsNotSlice(t *testing.T) {
	prog := parseProgram(t, "a[0]")
	expr := singleExprStmt(t, prog)
	if _, ok := expr.(*ast.Index); !ok {
		t.Fatalf("expected Index, got %#v", expr)
	}
}

func TestLambdaExpression(t *testing.T) {
	prog := parseProgram(t, "f = lambda (x) { return x }")
	es := prog.Statements[0].(*ast.ExpressionStatement)
	assign := es.Expr.(*ast.Assign)
	lam, ok := assign.Value.(*ast.Lambda)
	if !ok || len(lam.Params) != 1 {
		t.Fatalf("expected Lambda with 1 param, got %#v", assign.Value)
	}
}

func TestMatchExpression(t *testing.T) {
	prog := parseProgram(t, `
	x = match (n) {
		case 1 | 2 { "low" }
		else { "high" }
	}
	`)
	es := prog.Statements[0].(*ast.ExpressionStatement)
	assign := es.Expr.(*ast.Assign)
	m, ok := assign.Value.(*ast.Match)
	if !ok {
		t.Fatalf("expected Match, got %#v", assign.Value)
	}
	if len(m.Cases) != 1 || len(m.Cases[0].Patterns) != 2 {
		t.Fatalf("expected 1 case with 2 patterns, got %+v", m.Cases)
	}
	if m.Else == nil {
		t.Fatalf("expected else arm")
	}
}

func TestGlobalStatement(t *testing.T) {
	prog := parseProgram(t, "global counter, total")
	g, ok := prog.Statements[0].(*ast.Global)
	if !ok || len(g.Names) != 2 {
		t.Fatalf("expected Global with 2 names, got %#v", prog.Statements[0])
	}
}

func TestReturnWithoutValue(t *testing.T) {
	prog := parseProgram(t, "def f() { return }")
	fn := prog.Statements[0].(*ast.FunctionDef)
	ret, ok := fn.Body.Statements[0].(*ast.Return)
	if !ok || ret.Value != nil {
		t.Fatalf("expected bare Return, got %#v", fn.Body.Statements[0])
	}
}

func TestParseErrorsAreRecoveredFrom(t *testing.T) {
	p := New(lexer.New("x = ; y = 2"))
	prog := p.ParseProgram()
	if len(p.Errors()) == 0 {
		t.Fatalf("expected at least one syntax error")
	}
	if len(prog.Statements) == 0 {
		t.Fatalf("expected parser to keep producing statements after an error")
	}
}
