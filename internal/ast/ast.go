// Package ast defines the Abstract Syntax Tree node types produced by the
// parser and walked by the evaluator.
//
// Every node kind is its own concrete Go type implementing the Node
// interface (and Expression or Statement), never a single struct carrying a
// string/int "Kind" tag — so a missing case in a type switch is a compile
// error in the evaluator, not a silent no-op at runtime.
package ast

import (
	"fmt"
	"strings"

	"github.com/nebula-lang/nebula/pkg/token"
)

// Node is the base interface satisfied by every AST node.
type Node interface {
	TokenLiteral() string
	String() string
	Pos() token.Position
}

// Expression is a node that produces a value.
type Expression interface {
	Node
	expressionNode()
}

// Statement is a node that performs an action without itself being a value.
type Statement interface {
	Node
	statementNode()
}

// Program is the root node: the full sequence of top-level statements.
type Program struct {
	Statements []Statement
}

func (p *Program) TokenLiteral() string {
	if len(p.Statements) > 0 {
		return p.Statements[0].TokenLiteral()
	}
	return ""
}

func (p *Program) String() string {
	var sb strings.Builder
	for _, s := range p.Statements {
		sb.WriteString(s.String())
		sb.WriteString("\n")
	}
	return sb.String()
}

func (p *Program) Pos() token.Position {
	if len(p.Statements) > 0 {
		return p.Statements[0].Pos()
	}
	return token.Position{Line: 1, Column: 1}
}

// Block is a brace-delimited sequence of statements: a function body, loop
// body, branch body, and so on.
type Block struct {
	Token      token.Token
	Statements []Statement
}

func (b *Block) statementNode()       {}
func (b *Block) TokenLiteral() string { return b.Token.Literal }
func (b *Block) Pos() token.Position  { return b.Token.Pos }
func (b *Block) String() string {
	var sb strings.Builder
	sb.WriteString("{ ")
	for _, s := range b.Statements {
		sb.WriteString(s.String())
		sb.WriteString(" ")
	}
	sb.WriteString("}")
	return sb.String()
}

// Param is one formal parameter of a function or lambda.
type Param struct {
	Name       string
	Default    Expression // nil if no default
	Variadic   bool       // *name
	KwVariadic bool       // **name
}

func (p Param) String() string {
	switch {
	case p.Variadic:
		return "*" + p.Name
	case p.KwVariadic:
		return "**" + p.Name
	case p.Default != nil:
		return p.Name + "=" + p.Default.String()
	default:
		return p.Name
	}
}

func joinParams(params []Param) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.String()
	}
	return strings.Join(parts, ", ")
}

// ---------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------

// IntLit is an integer literal.
type IntLit struct {
	Token token.Token
	Value int64
}

func (n *IntLit) expressionNode()      {}
func (n *IntLit) TokenLiteral() string { return n.Token.Literal }
func (n *IntLit) Pos() token.Position  { return n.Token.Pos }
func (n *IntLit) String() string       { return n.Token.Literal }

// FloatLit is a floating-point literal, including one reassembled at parse
// time from two adjacent NUMBER tokens split by a SYMBOL '.'.
type FloatLit struct {
	Token token.Token
	Value float64
}

func (n *FloatLit) expressionNode()      {}
func (n *FloatLit) TokenLiteral() string { return n.Token.Literal }
func (n *FloatLit) Pos() token.Position  { return n.Token.Pos }
func (n *FloatLit) String() string       { return fmt.Sprintf("%g", n.Value) }

// StringLit is a quoted string literal.
type StringLit struct {
	Token token.Token
	Value string
}

func (n *StringLit) expressionNode()      {}
func (n *StringLit) TokenLiteral() string { return n.Token.Literal }
func (n *StringLit) Pos() token.Position  { return n.Token.Pos }
func (n *StringLit) String() string       { return `"` + n.Value + `"` }

// ListLit is a bracketed list literal: [e1, e2, ...].
type ListLit struct {
	Token    token.Token
	Elements []Expression
}

func (n *ListLit) expressionNode()      {}
func (n *ListLit) TokenLiteral() string { return n.Token.Literal }
func (n *ListLit) Pos() token.Position  { return n.Token.Pos }
func (n *ListLit) String() string {
	parts := make([]string, len(n.Elements))
	for i, e := range n.Elements {
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// DictLit is a braced dict literal: {k1: v1, k2: v2, ...}.
type DictLit struct {
	Token  token.Token
	Keys   []Expression
	Values []Expression
}

func (n *DictLit) expressionNode()      {}
func (n *DictLit) TokenLiteral() string { return n.Token.Literal }
func (n *DictLit) Pos() token.Position  { return n.Token.Pos }
func (n *DictLit) String() string {
	parts := make([]string, len(n.Keys))
	for i := range n.Keys {
		parts[i] = n.Keys[i].String() + ": " + n.Values[i].String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// ListComp is a pipe-delimited list comprehension:
// [ expr | var, iterable, step | cond1 | cond2 ... ].
type ListComp struct {
	Token    token.Token
	Expr     Expression
	Var      string
	Iterable Expression
	Step     Expression // nil means default step of 1
	Conds    []Expression
}

func (n *ListComp) expressionNode()      {}
func (n *ListComp) TokenLiteral() string { return n.Token.Literal }
func (n *ListComp) Pos() token.Position  { return n.Token.Pos }
func (n *ListComp) String() string {
	return fmt.Sprintf("[%s | %s, %s]", n.Expr, n.Var, n.Iterable)
}

// DictComp is a pipe-delimited dict comprehension:
// { key_expr | value_expr, var, iterable | cond? }.
type DictComp struct {
	Token    token.Token
	KeyExpr  Expression
	ValExpr  Expression
	Var      string
	Iterable Expression
	Cond     Expression // nil if absent
}

func (n *DictComp) expressionNode()      {}
func (n *DictComp) TokenLiteral() string { return n.Token.Literal }
func (n *DictComp) Pos() token.Position  { return n.Token.Pos }
func (n *DictComp) String() string {
	return fmt.Sprintf("{%s | %s, %s, %s}", n.KeyExpr, n.ValExpr, n.Var, n.Iterable)
}

// Ident is a bare name reference, resolved through the scope chain.
type Ident struct {
	Token token.Token
	Name  string
}

func (n *Ident) expressionNode()      {}
func (n *Ident) TokenLiteral() string { return n.Token.Literal }
func (n *Ident) Pos() token.Position  { return n.Token.Pos }
func (n *Ident) String() string       { return n.Name }

// Assign is a simple variable binding: name = expr.
type Assign struct {
	Token token.Token
	Name  string
	Value Expression
}

func (n *Assign) expressionNode()      {}
func (n *Assign) TokenLiteral() string { return n.Token.Literal }
func (n *Assign) Pos() token.Position  { return n.Token.Pos }
func (n *Assign) String() string       { return n.Name + " = " + n.Value.String() }

// SetAttr is obj.attr = expr.
type SetAttr struct {
	Token  token.Token
	Object Expression
	Attr   string
	Value  Expression
}

func (n *SetAttr) expressionNode()      {}
func (n *SetAttr) TokenLiteral() string { return n.Token.Literal }
func (n *SetAttr) Pos() token.Position  { return n.Token.Pos }
func (n *SetAttr) String() string {
	return fmt.Sprintf("%s.%s = %s", n.Object, n.Attr, n.Value)
}

// SetIndex is obj[key] = expr.
type SetIndex struct {
	Token  token.Token
	Object Expression
	Index  Expression
	Value  Expression
}

func (n *SetIndex) expressionNode()      {}
func (n *SetIndex) TokenLiteral() string { return n.Token.Literal }
func (n *SetIndex) Pos() token.Position  { return n.Token.Pos }
func (n *SetIndex) String() string {
	return fmt.Sprintf("%s[%s] = %s", n.Object, n.Index, n.Value)
}

// AugAssign is a compound assignment to a variable: += -= *= /= %= ++ --.
type AugAssign struct {
	Token token.Token
	Name  string
	Op    string
	Value Expression // for ++/--, the parser stores IntLit(1) here and rewrites Op to += or -=
}

func (n *AugAssign) expressionNode()      {}
func (n *AugAssign) TokenLiteral() string { return n.Token.Literal }
func (n *AugAssign) Pos() token.Position  { return n.Token.Pos }
func (n *AugAssign) String() string       { return n.Name + " " + n.Op + " " + n.Value.String() }

// AugAssignAttr is a compound assignment to an attribute target.
type AugAssignAttr struct {
	Token  token.Token
	Object Expression
	Attr   string
	Op     string
	Value  Expression
}

func (n *AugAssignAttr) expressionNode()      {}
func (n *AugAssignAttr) TokenLiteral() string { return n.Token.Literal }
func (n *AugAssignAttr) Pos() token.Position  { return n.Token.Pos }
func (n *AugAssignAttr) String() string {
	return fmt.Sprintf("%s.%s %s %s", n.Object, n.Attr, n.Op, n.Value)
}

// AugAssignIndex is a compound assignment to an indexed target.
type AugAssignIndex struct {
	Token  token.Token
	Object Expression
	Index  Expression
	Op     string
	Value  Expression
}

func (n *AugAssignIndex) expressionNode()      {}
func (n *AugAssignIndex) TokenLiteral() string { return n.Token.Literal }
func (n *AugAssignIndex) Pos() token.Position  { return n.Token.Pos }
func (n *AugAssignIndex) String() string {
	return fmt.Sprintf("%s[%s] %s %s", n.Object, n.Index, n.Op, n.Value)
}

// BinOp is an arithmetic binary operation: + - * / %.
type BinOp struct {
	Token token.Token
	Op    string
	Left  Expression
	Right Expression
}

func (n *BinOp) expressionNode()      {}
func (n *BinOp) TokenLiteral() string { return n.Token.Literal }
func (n *BinOp) Pos() token.Position  { return n.Token.Pos }
func (n *BinOp) String() string {
	return fmt.Sprintf("(%s %s %s)", n.Left, n.Op, n.Right)
}

// Compare is a relational comparison: == != < > <= >=.
type Compare struct {
	Token token.Token
	Op    string
	Left  Expression
	Right Expression
}

func (n *Compare) expressionNode()      {}
func (n *Compare) TokenLiteral() string { return n.Token.Literal }
func (n *Compare) Pos() token.Position  { return n.Token.Pos }
func (n *Compare) String() string {
	return fmt.Sprintf("(%s %s %s)", n.Left, n.Op, n.Right)
}

// And is a short-circuiting logical conjunction.
type And struct {
	Token token.Token
	Left  Expression
	Right Expression
}

func (n *And) expressionNode()      {}
func (n *And) TokenLiteral() string { return n.Token.Literal }
func (n *And) Pos() token.Position  { return n.Token.Pos }
func (n *And) String() string       { return fmt.Sprintf("(%s and %s)", n.Left, n.Right) }

// Or is a short-circuiting logical disjunction.
type Or struct {
	Token token.Token
	Left  Expression
	Right Expression
}

func (n *Or) expressionNode()      {}
func (n *Or) TokenLiteral() string { return n.Token.Literal }
func (n *Or) Pos() token.Position  { return n.Token.Pos }
func (n *Or) String() string       { return fmt.Sprintf("(%s or %s)", n.Left, n.Right) }

// Not is boolean negation.
type Not struct {
	Token token.Token
	Right Expression
}

func (n *Not) expressionNode()      {}
func (n *Not) TokenLiteral() string { return n.Token.Literal }
func (n *Not) Pos() token.Position  { return n.Token.Pos }
func (n *Not) String() string       { return "not " + n.Right.String() }

// Neg is unary arithmetic negation: -E.
type Neg struct {
	Token token.Token
	Right Expression
}

func (n *Neg) expressionNode()      {}
func (n *Neg) TokenLiteral() string { return n.Token.Literal }
func (n *Neg) Pos() token.Position  { return n.Token.Pos }
func (n *Neg) String() string       { return "-" + n.Right.String() }

// In is a membership test: E in E, or (when Negated) E not in E.
type In struct {
	Token    token.Token
	Left     Expression
	Right    Expression
	Negated  bool
}

func (n *In) expressionNode()      {}
func (n *In) TokenLiteral() string { return n.Token.Literal }
func (n *In) Pos() token.Position  { return n.Token.Pos }
func (n *In) String() string {
	if n.Negated {
		return fmt.Sprintf("(%s not in %s)", n.Left, n.Right)
	}
	return fmt.Sprintf("(%s in %s)", n.Left, n.Right)
}

// Ternary is c ? a : b with lazily-evaluated branches.
type Ternary struct {
	Token token.Token
	Cond  Expression
	Then  Expression
	Else  Expression
}

func (n *Ternary) expressionNode()      {}
func (n *Ternary) TokenLiteral() string { return n.Token.Literal }
func (n *Ternary) Pos() token.Position  { return n.Token.Pos }
func (n *Ternary) String() string {
	return fmt.Sprintf("(%s ? %s : %s)", n.Cond, n.Then, n.Else)
}

// Unpack is a positional splice operand: *expr, valid in call arguments and
// list literal elements.
type Unpack struct {
	Token token.Token
	Value Expression
}

func (n *Unpack) expressionNode()      {}
func (n *Unpack) TokenLiteral() string { return n.Token.Literal }
func (n *Unpack) Pos() token.Position  { return n.Token.Pos }
func (n *Unpack) String() string       { return "*" + n.Value.String() }

// KwUnpack is a keyword splice operand: **expr, valid in call arguments and
// as an assignment RHS (producing a KwUnpackMarker value).
type KwUnpack struct {
	Token token.Token
	Value Expression
}

func (n *KwUnpack) expressionNode()      {}
func (n *KwUnpack) TokenLiteral() string { return n.Token.Literal }
func (n *KwUnpack) Pos() token.Position  { return n.Token.Pos }
func (n *KwUnpack) String() string       { return "**" + n.Value.String() }

// KwArg is a single keyword argument in a call: name = expr.
type KwArg struct {
	Name  string
	Value Expression
}

// Call is a function/method/constructor invocation: f(args...).
type Call struct {
	Token   token.Token
	Callee  Expression
	Args    []Expression // includes Unpack/KwUnpack nodes in argument order
	KwArgs  []KwArg
}

func (n *Call) expressionNode()      {}
func (n *Call) TokenLiteral() string { return n.Token.Literal }
func (n *Call) Pos() token.Position  { return n.Token.Pos }
func (n *Call) String() string {
	parts := make([]string, 0, len(n.Args)+len(n.KwArgs))
	for _, a := range n.Args {
		parts = append(parts, a.String())
	}
	for _, kw := range n.KwArgs {
		parts = append(parts, kw.Name+"="+kw.Value.String())
	}
	return fmt.Sprintf("%s(%s)", n.Callee, strings.Join(parts, ", "))
}

// GetAttr is obj.attr, resolved at evaluation time against methods, then
// fields, then the built-in dispatch table.
type GetAttr struct {
	Token  token.Token
	Object Expression
	Attr   string
}

func (n *GetAttr) expressionNode()      {}
func (n *GetAttr) TokenLiteral() string { return n.Token.Literal }
func (n *GetAttr) Pos() token.Position  { return n.Token.Pos }
func (n *GetAttr) String() string       { return n.Object.String() + "." + n.Attr }

// Index is a single-element subscript: obj[key].
type Index struct {
	Token  token.Token
	Object Expression
	Key    Expression
}

func (n *Index) expressionNode()      {}
func (n *Index) TokenLiteral() string { return n.Token.Literal }
func (n *Index) Pos() token.Position  { return n.Token.Pos }
func (n *Index) String() string       { return fmt.Sprintf("%s[%s]", n.Object, n.Key) }

// Slice is obj[start:stop:step]; any component may be nil, meaning absent.
type Slice struct {
	Token  token.Token
	Object Expression
	Start  Expression
	Stop   Expression
	Step   Expression
}

func (n *Slice) expressionNode()      {}
func (n *Slice) TokenLiteral() string { return n.Token.Literal }
func (n *Slice) Pos() token.Position  { return n.Token.Pos }
func (n *Slice) String() string {
	rng := func(e Expression) string {
		if e == nil {
			return ""
		}
		return e.String()
	}
	return fmt.Sprintf("%s[%s:%s:%s]", n.Object, rng(n.Start), rng(n.Stop), rng(n.Step))
}

// Lambda is an anonymous function literal: lambda (params) { body }.
type Lambda struct {
	Token  token.Token
	Params []Param
	Body   *Block
}

func (n *Lambda) expressionNode()      {}
func (n *Lambda) TokenLiteral() string { return n.Token.Literal }
func (n *Lambda) Pos() token.Position  { return n.Token.Pos }
func (n *Lambda) String() string {
	return fmt.Sprintf("lambda (%s) %s", joinParams(n.Params), n.Body)
}

// MatchCase is one `case p1 | p2 ... { body }` arm of a Match expression.
type MatchCase struct {
	Patterns []Expression
	Body     *Block
}

// Match evaluates patterns left-to-right against a subject and runs the
// body of the first equal pattern, falling back to Else.
type Match struct {
	Token   token.Token
	Subject Expression
	Cases   []MatchCase
	Else    *Block // nil if no else arm
}

func (n *Match) expressionNode()      {}
func (n *Match) TokenLiteral() string { return n.Token.Literal }
func (n *Match) Pos() token.Position  { return n.Token.Pos }
func (n *Match) String() string {
	return fmt.Sprintf("match (%s) { ... }", n.Subject)
}

// ---------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------

// ExpressionStatement wraps an expression evaluated for its side effects,
// the catch-all statement form for anything not matching a leading keyword.
type ExpressionStatement struct {
	Token token.Token
	Expr  Expression
}

func (n *ExpressionStatement) statementNode()     {}
func (n *ExpressionStatement) TokenLiteral() string { return n.Token.Literal }
func (n *ExpressionStatement) Pos() token.Position  { return n.Token.Pos }
func (n *ExpressionStatement) String() string       { return n.Expr.String() }

// IfChain is an if/elif*/else chain; Conds[i] guards Bodies[i], evaluated in
// order, first truthy branch wins. Else is nil if absent.
type IfChain struct {
	Token  token.Token
	Conds  []Expression
	Bodies []*Block
	Else   *Block
}

func (n *IfChain) statementNode()     {}
func (n *IfChain) TokenLiteral() string { return n.Token.Literal }
func (n *IfChain) Pos() token.Position  { return n.Token.Pos }
func (n *IfChain) String() string {
	var sb strings.Builder
	for i, c := range n.Conds {
		if i == 0 {
			sb.WriteString("if ")
		} else {
			sb.WriteString("elif ")
		}
		sb.WriteString(c.String())
		sb.WriteString(" ")
		sb.WriteString(n.Bodies[i].String())
		sb.WriteString(" ")
	}
	if n.Else != nil {
		sb.WriteString("else ")
		sb.WriteString(n.Else.String())
	}
	return sb.String()
}

// For is a counted iteration: for (var, iterable, step?) { body }.
// Iterable must evaluate to a list; Step defaults to 1 when nil.
type For struct {
	Token    token.Token
	Var      string
	Iterable Expression
	Step     Expression
	Body     *Block
}

func (n *For) statementNode()     {}
func (n *For) TokenLiteral() string { return n.Token.Literal }
func (n *For) Pos() token.Position  { return n.Token.Pos }
func (n *For) String() string {
	return fmt.Sprintf("for (%s, %s) %s", n.Var, n.Iterable, n.Body)
}

// While loops while Cond remains truthy.
type While struct {
	Token token.Token
	Cond  Expression
	Body  *Block
}

func (n *While) statementNode()     {}
func (n *While) TokenLiteral() string { return n.Token.Literal }
func (n *While) Pos() token.Position  { return n.Token.Pos }
func (n *While) String() string       { return fmt.Sprintf("while (%s) %s", n.Cond, n.Body) }

// Break raises a non-local control signal caught by the nearest enclosing loop.
type Break struct {
	Token token.Token
}

func (n *Break) statementNode()     {}
func (n *Break) TokenLiteral() string { return n.Token.Literal }
func (n *Break) Pos() token.Position  { return n.Token.Pos }
func (n *Break) String() string       { return "break" }

// Continue raises a non-local control signal caught by the nearest
// enclosing loop.
type Continue struct {
	Token token.Token
}

func (n *Continue) statementNode()     {}
func (n *Continue) TokenLiteral() string { return n.Token.Literal }
func (n *Continue) Pos() token.Position  { return n.Token.Pos }
func (n *Continue) String() string       { return "continue" }

// Return raises a non-local control signal caught by the nearest enclosing
// call frame; Value is nil for a bare `return`.
type Return struct {
	Token token.Token
	Value Expression
}

func (n *Return) statementNode()     {}
func (n *Return) TokenLiteral() string { return n.Token.Literal }
func (n *Return) Pos() token.Position  { return n.Token.Pos }
func (n *Return) String() string {
	if n.Value == nil {
		return "return"
	}
	return "return " + n.Value.String()
}

// Global declares that Names refer to the top-level scope's cells for the
// remainder of the enclosing function body.
type Global struct {
	Token token.Token
	Names []string
}

func (n *Global) statementNode()     {}
func (n *Global) TokenLiteral() string { return n.Token.Literal }
func (n *Global) Pos() token.Position  { return n.Token.Pos }
func (n *Global) String() string       { return "global " + strings.Join(n.Names, ", ") }

// TryCatch runs Try; any error surfacing from it (including Throw) binds
// its message to ErrName and runs Catch.
type TryCatch struct {
	Token   token.Token
	Try     *Block
	ErrName string
	Catch   *Block
}

func (n *TryCatch) statementNode()     {}
func (n *TryCatch) TokenLiteral() string { return n.Token.Literal }
func (n *TryCatch) Pos() token.Position  { return n.Token.Pos }
func (n *TryCatch) String() string {
	return fmt.Sprintf("try %s catch (%s) %s", n.Try, n.ErrName, n.Catch)
}

// Throw raises an error carrying the evaluated Value.
type Throw struct {
	Token token.Token
	Value Expression
}

func (n *Throw) statementNode()     {}
func (n *Throw) TokenLiteral() string { return n.Token.Literal }
func (n *Throw) Pos() token.Position  { return n.Token.Pos }
func (n *Throw) String() string       { return "throw " + n.Value.String() }

// FunctionDef declares a named function or, when Name contains '.', a
// method (Name is split as "Class.method" and the parser prepends a
// synthetic "self" parameter).
type FunctionDef struct {
	Token  token.Token
	Name   string
	Params []Param
	Body   *Block
}

func (n *FunctionDef) statementNode()     {}
func (n *FunctionDef) TokenLiteral() string { return n.Token.Literal }
func (n *FunctionDef) Pos() token.Position  { return n.Token.Pos }
func (n *FunctionDef) String() string {
	return fmt.Sprintf("def %s(%s) %s", n.Name, joinParams(n.Params), n.Body)
}

// FieldDecl is one field of a class: name, or name = default_expr.
type FieldDecl struct {
	Name    string
	Default Expression // nil if no default
}

// ClassDef declares a class: fields, methods, nested classes, and a
// parent list resolved in the class table at registration time.
type ClassDef struct {
	Token   token.Token
	Name    string
	Parents []string
	Fields  []FieldDecl
	Methods []*FunctionDef
	Nested  []*ClassDef
}

func (n *ClassDef) statementNode()     {}
func (n *ClassDef) TokenLiteral() string { return n.Token.Literal }
func (n *ClassDef) Pos() token.Position  { return n.Token.Pos }
func (n *ClassDef) String() string {
	return fmt.Sprintf("class %s(%s) { ... }", n.Name, strings.Join(n.Parents, ", "))
}

// Include loads and at-most-once-evaluates another module by path.
type Include struct {
	Token token.Token
	Path  string
}

func (n *Include) statementNode()     {}
func (n *Include) TokenLiteral() string { return n.Token.Literal }
func (n *Include) Pos() token.Position  { return n.Token.Pos }
func (n *Include) String() string       { return fmt.Sprintf("include %q", n.Path) }

// FFIStmt is a raw host-language payload, captured verbatim up to its
// matching closing brace; the core never interprets Raw, only the
// registered FFI sink does.
type FFIStmt struct {
	Token token.Token
	Raw   string
}

func (n *FFIStmt) statementNode()     {}
func (n *FFIStmt) TokenLiteral() string { return n.Token.Literal }
func (n *FFIStmt) Pos() token.Position  { return n.Token.Pos }
func (n *FFIStmt) String() string       { return "ffi { ... }" }
