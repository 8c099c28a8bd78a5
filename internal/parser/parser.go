// Package parser implements a recursive-descent parser for Nebula source,
// with a small precedence-climbing loop for the two arithmetic binding
// powers (+ - at 10, * / % at 20). Everything above arithmetic in the
// grammar — ternary, or, and, membership, compare — is a hand-written
// function per level rather than a generic Pratt table, since each level
// has its own associativity quirk (right-assoc ternary, non-chained
// compare and membership).
package parser

import (
	"strconv"
	"strings"

	"github.com/nebula-lang/nebula/internal/ast"
	"github.com/nebula-lang/nebula/internal/lexer"
	"github.com/nebula-lang/nebula/internal/nebulaerrors"
	"github.com/nebula-lang/nebula/pkg/token"
)

// Parser consumes a fully-tokenized source and produces an *ast.Program.
// The full token stream is buffered up front (Nebula programs are small
// scripts) so that block-vs-dict disambiguation can scan arbitrarily far
// ahead without a second lexer pass.
type Parser struct {
	toks   []token.Token
	pos    int
	errors []*nebulaerrors.Error
	source string
	file   string
}

// New tokenizes the lexer's full input and returns a Parser positioned at
// the first token.
func New(l *lexer.Lexer) *Parser {
	return &Parser{toks: l.Tokenize(), source: l.Stripped()}
}

// WithFile sets the file name attached to reported errors.
func (p *Parser) WithFile(file string) *Parser {
	p.file = file
	return p
}

// Errors returns every syntax error accumulated while parsing, in source
// order, each carrying source context for caret-style display.
func (p *Parser) Errors() []*nebulaerrors.Error { return p.errors }

// ParseProgram parses the entire token stream into a Program. It does not
// stop at the first error: it records errors and keeps parsing so that
// `nebula parse` can surface more than one mistake per run.
func (p *Parser) ParseProgram() *ast.Program {
	prog := &ast.Program{}
	for !p.curIs(token.EOF, "") {
		before := p.pos
		stmt := p.parseStatement()
		if stmt != nil {
			prog.Statements = append(prog.Statements, stmt)
		}
		p.consumeOptionalSemicolon()
		if p.pos == before {
			// parseStatement made no progress (e.g. on a token it
			// couldn't start anything with); force advance so the loop
			// terminates instead of spinning.
			p.advance()
		}
	}
	return prog
}

// ---------------------------------------------------------------------
// token stream helpers
// ---------------------------------------------------------------------

func (p *Parser) at(offset int) token.Token {
	i := p.pos + offset
	if i >= len(p.toks) {
		return p.toks[len(p.toks)-1] // EOF sentinel, always last
	}
	return p.toks[i]
}

func (p *Parser) cur() token.Token  { return p.at(0) }
func (p *Parser) peek() token.Token { return p.at(1) }

func (p *Parser) advance() token.Token {
	t := p.cur()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) curIs(kind token.Kind, lit string) bool {
	t := p.cur()
	return t.Kind == kind && (lit == "" || t.Literal == lit)
}

func (p *Parser) curKindIs(kind token.Kind) bool { return p.cur().Kind == kind }

func (p *Parser) peekIs(kind token.Kind, lit string) bool {
	t := p.peek()
	return t.Kind == kind && (lit == "" || t.Literal == lit)
}

func (p *Parser) peekKindIs(kind token.Kind) bool { return p.peek().Kind == kind }

// expect consumes the current token if it matches, else records a syntax
// error and consumes it anyway (best-effort recovery: the caller's shape
// is still attempted with whatever follows).
func (p *Parser) expect(kind token.Kind, lit string) token.Token {
	if p.curIs(kind, lit) {
		return p.advance()
	}
	p.errorf("expected %s, got %s", describe(kind, lit), describe(p.cur().Kind, p.cur().Literal))
	return p.advance()
}

func (p *Parser) expectKind(kind token.Kind) token.Token {
	if p.curKindIs(kind) {
		return p.advance()
	}
	p.errorf("expected %s, got %s", kind, describe(p.cur().Kind, p.cur().Literal))
	return p.advance()
}

func (p *Parser) expectIdentName() string {
	return p.expectKind(token.IDENT).Literal
}

func describe(kind token.Kind, lit string) string {
	if lit == "" {
		return kind.String()
	}
	return lit
}

func (p *Parser) errorf(format string, args ...any) {
	err := nebulaerrors.At(nebulaerrors.SyntaxError, p.cur().Pos, format, args...)
	err.WithSource(p.source, p.file)
	p.errors = append(p.errors, err)
}

func (p *Parser) consumeOptionalSemicolon() {
	if p.curIs(token.SYMBOL, ";") {
		p.advance()
	}
}

// ---------------------------------------------------------------------
// statements
// ---------------------------------------------------------------------

func (p *Parser) parseStatement() ast.Statement {
	tok := p.cur()
	if tok.Kind == token.KEYWORD {
		switch tok.Literal {
		case "def":
			return p.parseFunctionDef()
		case "if":
			return p.parseIfChain()
		case "for":
			return p.parseFor()
		case "while":
			return p.parseWhile()
		case "break":
			p.advance()
			return &ast.Break{Token: tok}
		case "continue":
			p.advance()
			return &ast.Continue{Token: tok}
		case "return":
			return p.parseReturn()
		case "global":
			return p.parseGlobal()
		case "try":
			return p.parseTryCatch()
		case "throw":
			return p.parseThrow()
		case "class":
			return p.parseClassDef()
		case "ffi":
			return p.parseFFIStmt()
		case "include":
			if p.peekKindIs(token.STRING) {
				return p.parseInclude()
			}
			return p.parseExpressionStatement()
		}
	}
	if tok.Kind == token.SYMBOL && tok.Literal == "{" && !p.isDictAhead() {
		return p.parseBlock()
	}
	return p.parseExpressionStatement()
}

func (p *Parser) parseBlock() *ast.Block {
	tok := p.expect(token.SYMBOL, "{")
	block := &ast.Block{Token: tok}
	for !p.curIs(token.SYMBOL, "}") && !p.curIs(token.EOF, "") {
		before := p.pos
		stmt := p.parseStatement()
		if stmt != nil {
			block.Statements = append(block.Statements, stmt)
		}
		p.consumeOptionalSemicolon()
		if p.pos == before {
			p.advance()
		}
	}
	p.expect(token.SYMBOL, "}")
	return block
}

func (p *Parser) parseExpressionStatement() ast.Statement {
	tok := p.cur()
	expr := p.parseExpression()
	if expr == nil {
		return nil
	}

	switch {
	case p.curIs(token.OP, "="):
		p.advance()
		rhs := p.parseExpression()
		return assignFor(tok, expr, rhs, p)

	case p.curKindIs(token.AUG_ASSIGN):
		op := p.advance().Literal
		var rhs ast.Expression
		switch op {
		case "++":
			rhs, op = &ast.IntLit{Token: tok, Value: 1}, "+="
		case "--":
			rhs, op = &ast.IntLit{Token: tok, Value: 1}, "-="
		default:
			rhs = p.parseExpression()
		}
		return augAssignFor(tok, expr, op, rhs, p)
	}

	return &ast.ExpressionStatement{Token: tok, Expr: expr}
}

func assignFor(tok token.Token, target, rhs ast.Expression, p *Parser) ast.Statement {
	switch t := target.(type) {
	case *ast.Ident:
		return &ast.ExpressionStatement{Token: tok, Expr: &ast.Assign{Token: tok, Name: t.Name, Value: rhs}}
	case *ast.GetAttr:
		return &ast.ExpressionStatement{Token: tok, Expr: &ast.SetAttr{Token: tok, Object: t.Object, Attr: t.Attr, Value: rhs}}
	case *ast.Index:
		return &ast.ExpressionStatement{Token: tok, Expr: &ast.SetIndex{Token: tok, Object: t.Object, Index: t.Key, Value: rhs}}
	default:
		p.errorf("invalid assignment target")
		return &ast.ExpressionStatement{Token: tok, Expr: target}
	}
}

func augAssignFor(tok token.Token, target ast.Expression, op string, rhs ast.Expression, p *Parser) ast.Statement {
	switch t := target.(type) {
	case *ast.Ident:
		return &ast.ExpressionStatement{Token: tok, Expr: &ast.AugAssign{Token: tok, Name: t.Name, Op: op, Value: rhs}}
	case *ast.GetAttr:
		return &ast.ExpressionStatement{Token: tok, Expr: &ast.AugAssignAttr{Token: tok, Object: t.Object, Attr: t.Attr, Op: op, Value: rhs}}
	case *ast.Index:
		return &ast.ExpressionStatement{Token: tok, Expr: &ast.AugAssignIndex{Token: tok, Object: t.Object, Index: t.Key, Op: op, Value: rhs}}
	default:
		p.errorf("invalid assignment target")
		return &ast.ExpressionStatement{Token: tok, Expr: target}
	}
}

func (p *Parser) parseIfChain() ast.Statement {
	tok := p.advance() // 'if'
	chain := &ast.IfChain{Token: tok}

	p.expect(token.SYMBOL, "(")
	chain.Conds = append(chain.Conds, p.parseExpression())
	p.expect(token.SYMBOL, ")")
	chain.Bodies = append(chain.Bodies, p.parseBlock())

	for p.curIs(token.KEYWORD, "elif") {
		p.advance()
		p.expect(token.SYMBOL, "(")
		chain.Conds = append(chain.Conds, p.parseExpression())
		p.expect(token.SYMBOL, ")")
		chain.Bodies = append(chain.Bodies, p.parseBlock())
	}

	if p.curIs(token.KEYWORD, "else") {
		p.advance()
		chain.Else = p.parseBlock()
	}
	return chain
}

func (p *Parser) parseFor() ast.Statement {
	tok := p.advance() // 'for'
	p.expect(token.SYMBOL, "(")
	varName := p.expectIdentName()
	p.expect(token.SYMBOL, ",")
	iterable := p.parseExpression()

	var step ast.Expression
	if p.curIs(token.SYMBOL, ",") {
		p.advance()
		step = p.parseExpression()
	}
	p.expect(token.SYMBOL, ")")
	body := p.parseBlock()
	return &ast.For{Token: tok, Var: varName, Iterable: iterable, Step: step, Body: body}
}

func (p *Parser) parseWhile() ast.Statement {
	tok := p.advance() // 'while'
	p.expect(token.SYMBOL, "(")
	cond := p.parseExpression()
	p.expect(token.SYMBOL, ")")
	body := p.parseBlock()
	return &ast.While{Token: tok, Cond: cond, Body: body}
}

func (p *Parser) parseReturn() ast.Statement {
	tok := p.advance() // 'return'
	var val ast.Expression
	if !p.curIs(token.SYMBOL, ";") && !p.curIs(token.SYMBOL, "}") && !p.curIs(token.EOF, "") {
		val = p.parseExpression()
	}
	return &ast.Return{Token: tok, Value: val}
}

func (p *Parser) parseGlobal() ast.Statement {
	tok := p.advance() // 'global'
	names := []string{p.expectIdentName()}
	for p.curIs(token.SYMBOL, ",") {
		p.advance()
		names = append(names, p.expectIdentName())
	}
	return &ast.Global{Token: tok, Names: names}
}

func (p *Parser) parseTryCatch() ast.Statement {
	tok := p.advance() // 'try'
	tryBlock := p.parseBlock()
	p.expect(token.KEYWORD, "catch")
	p.expect(token.SYMBOL, "(")
	errName := p.expectIdentName()
	p.expect(token.SYMBOL, ")")
	catchBlock := p.parseBlock()
	return &ast.TryCatch{Token: tok, Try: tryBlock, ErrName: errName, Catch: catchBlock}
}

func (p *Parser) parseThrow() ast.Statement {
	tok := p.advance() // 'throw'
	val := p.parseExpression()
	return &ast.Throw{Token: tok, Value: val}
}

func (p *Parser) parseInclude() ast.Statement {
	tok := p.advance() // 'include'
	pathTok := p.expectKind(token.STRING)
	return &ast.Include{Token: tok, Path: pathTok.Literal}
}

func (p *Parser) parseFFIStmt() ast.Statement {
	tok := p.advance() // 'ffi'
	raw := p.expectKind(token.STRING)
	return &ast.FFIStmt{Token: tok, Raw: raw.Literal}
}

func (p *Parser) parseFunctionDef() ast.Statement {
	tok := p.advance() // 'def'
	name := p.expectIdentName()
	for p.curIs(token.SYMBOL, ".") {
		p.advance()
		name += "." + p.expectIdentName()
	}
	params := p.parseParams()
	if strings.Contains(name, ".") {
		params = append([]ast.Param{{Name: "self"}}, params...)
	}
	body := p.parseBlock()
	return &ast.FunctionDef{Token: tok, Name: name, Params: params, Body: body}
}

func (p *Parser) parseParams() []ast.Param {
	p.expect(token.SYMBOL, "(")
	var params []ast.Param
	for !p.curIs(token.SYMBOL, ")") && !p.curIs(token.EOF, "") {
		switch {
		case p.curIs(token.OP, "**"):
			p.advance()
			params = append(params, ast.Param{Name: p.expectIdentName(), KwVariadic: true})
		case p.curIs(token.OP, "*"):
			p.advance()
			params = append(params, ast.Param{Name: p.expectIdentName(), Variadic: true})
		default:
			name := p.expectIdentName()
			var def ast.Expression
			if p.curIs(token.OP, "=") {
				p.advance()
				def = p.parseExpression()
			}
			params = append(params, ast.Param{Name: name, Default: def})
		}
		if p.curIs(token.SYMBOL, ",") {
			p.advance()
		}
	}
	p.expect(token.SYMBOL, ")")
	return params
}

func (p *Parser) parseClassDef() ast.Statement {
	tok := p.advance() // 'class'
	def := &ast.ClassDef{Token: tok, Name: p.expectIdentName()}

	if p.curIs(token.SYMBOL, "(") {
		p.advance()
		for !p.curIs(token.SYMBOL, ")") && !p.curIs(token.EOF, "") {
			def.Parents = append(def.Parents, p.expectIdentName())
			if p.curIs(token.SYMBOL, ",") {
				p.advance()
			}
		}
		p.expect(token.SYMBOL, ")")
	}

	p.expect(token.SYMBOL, "{")
	for !p.curIs(token.SYMBOL, "}") && !p.curIs(token.EOF, "") {
		switch {
		case p.curIs(token.KEYWORD, "def"):
			def.Methods = append(def.Methods, p.parseFunctionDef().(*ast.FunctionDef))
		case p.curIs(token.KEYWORD, "class"):
			def.Nested = append(def.Nested, p.parseClassDef().(*ast.ClassDef))
		default:
			name := p.expectIdentName()
			var dflt ast.Expression
			if p.curIs(token.OP, "=") {
				p.advance()
				dflt = p.parseExpression()
			}
			def.Fields = append(def.Fields, ast.FieldDecl{Name: name, Default: dflt})
			p.consumeOptionalSemicolon()
		}
	}
	p.expect(token.SYMBOL, "}")
	return def
}

// isDictAhead decides, with p.cur() on an unconsumed '{', whether it opens
// a dict literal rather than a block: scanning forward at brace-depth 1,
// a ':' or '|' before the matching '}' means dict; reaching the matching
// '}' first means block. An immediately-empty '{}' is a dict.
func (p *Parser) isDictAhead() bool {
	if p.peekIs(token.SYMBOL, "}") {
		return true
	}
	depth := 0
	for i := p.pos; i < len(p.toks); i++ {
		t := p.toks[i]
		if t.Kind == token.EOF {
			return false
		}
		if t.Kind == token.SYMBOL && t.Literal == "{" {
			depth++
			continue
		}
		if t.Kind == token.SYMBOL && t.Literal == "}" {
			depth--
			if depth == 0 {
				return false
			}
			continue
		}
		if depth == 1 && t.Kind == token.SYMBOL && (t.Literal == ":" || t.Literal == "|") {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------
// expressions — precedence climbs from parseExpression (ternary, lowest)
// down to parsePrimary (highest)
// ---------------------------------------------------------------------

func (p *Parser) parseExpression() ast.Expression {
	return p.parseTernary()
}

func (p *Parser) parseTernary() ast.Expression {
	cond := p.parseOr()
	if p.curIs(token.SYMBOL, "?") {
		tok := p.advance()
		thenExpr := p.parseTernary() // right-assoc
		p.expect(token.SYMBOL, ":")
		elseExpr := p.parseTernary()
		return &ast.Ternary{Token: tok, Cond: cond, Then: thenExpr, Else: elseExpr}
	}
	return cond
}

func (p *Parser) parseOr() ast.Expression {
	left := p.parseAnd()
	for p.curIs(token.KEYWORD, "or") {
		tok := p.advance()
		left = &ast.Or{Token: tok, Left: left, Right: p.parseAnd()}
	}
	return left
}

func (p *Parser) parseAnd() ast.Expression {
	left := p.parseMembership()
	for p.curIs(token.KEYWORD, "and") {
		tok := p.advance()
		left = &ast.And{Token: tok, Left: left, Right: p.parseMembership()}
	}
	return left
}

func (p *Parser) parseMembership() ast.Expression {
	left := p.parseCompare()
	for {
		if p.curIs(token.KEYWORD, "in") {
			tok := p.advance()
			left = &ast.In{Token: tok, Left: left, Right: p.parseCompare()}
			continue
		}
		if p.curIs(token.KEYWORD, "not") && p.peekIs(token.KEYWORD, "in") {
			tok := p.advance() // 'not'
			p.advance()        // 'in'
			left = &ast.In{Token: tok, Left: left, Right: p.parseCompare(), Negated: true}
			continue
		}
		break
	}
	return left
}

// parseCompare is non-chained: at most one comparison operator binds at
// this level, matching the distilled grammar's "E in E / E not in E are
// parsed as non-chained comparisons" note applied uniformly to ==, !=, <,
// >, <=, >= as well.
func (p *Parser) parseCompare() ast.Expression {
	left := p.parseArith(0)
	if p.curKindIs(token.COMPARE) {
		tok := p.advance()
		return &ast.Compare{Token: tok, Op: tok.Literal, Left: left, Right: p.parseArith(0)}
	}
	return left
}

func arithBindingPower(t token.Token) (int, bool) {
	if t.Kind != token.OP {
		return 0, false
	}
	switch t.Literal {
	case "+", "-":
		return 10, true
	case "*", "/", "%":
		return 20, true
	default:
		return 0, false
	}
}

// parseArith is a precedence-climbing loop over the two arithmetic
// binding powers; minBP is the binding power the caller requires an
// operator to exceed to be consumed at this level.
func (p *Parser) parseArith(minBP int) ast.Expression {
	left := p.parseUnary()
	for {
		bp, ok := arithBindingPower(p.cur())
		if !ok || bp <= minBP {
			return left
		}
		tok := p.advance()
		right := p.parseArith(bp)
		left = &ast.BinOp{Token: tok, Op: tok.Literal, Left: left, Right: right}
	}
}

func (p *Parser) parseUnary() ast.Expression {
	tok := p.cur()
	switch {
	case tok.Kind == token.OP && tok.Literal == "-":
		p.advance()
		return &ast.Neg{Token: tok, Right: p.parseUnary()}
	case tok.Kind == token.KEYWORD && tok.Literal == "not":
		p.advance()
		return &ast.Not{Token: tok, Right: p.parseUnary()}
	case tok.Kind == token.OP && tok.Literal == "**":
		p.advance()
		return &ast.KwUnpack{Token: tok, Value: p.parseUnary()}
	case tok.Kind == token.OP && tok.Literal == "*":
		p.advance()
		return &ast.Unpack{Token: tok, Value: p.parseUnary()}
	default:
		return p.parsePostfix()
	}
}

func (p *Parser) parsePostfix() ast.Expression {
	expr := p.parsePrimary()
	for {
		switch {
		case p.curIs(token.SYMBOL, "("):
			expr = p.parseCallSuffix(expr)
		case p.curIs(token.SYMBOL, "["):
			expr = p.parseIndexOrSlice(expr)
		case p.curIs(token.SYMBOL, "."):
			tok := p.advance()
			expr = &ast.GetAttr{Token: tok, Object: expr, Attr: p.expectIdentName()}
		default:
			return expr
		}
	}
}

func (p *Parser) parseCallSuffix(callee ast.Expression) ast.Expression {
	tok := p.advance() // '('
	call := &ast.Call{Token: tok, Callee: callee}
	for !p.curIs(token.SYMBOL, ")") && !p.curIs(token.EOF, "") {
		if p.curKindIs(token.IDENT) && p.peekIs(token.OP, "=") {
			name := p.advance().Literal
			p.advance() // '='
			call.KwArgs = append(call.KwArgs, ast.KwArg{Name: name, Value: p.parseExpression()})
		} else {
			call.Args = append(call.Args, p.parseExpression())
		}
		if p.curIs(token.SYMBOL, ",") {
			p.advance()
		}
	}
	p.expect(token.SYMBOL, ")")
	return call
}

func (p *Parser) parseIndexOrSlice(obj ast.Expression) ast.Expression {
	tok := p.advance() // '['
	var start, stop, step ast.Expression
	isSlice := false

	if !p.curIs(token.SYMBOL, ":") && !p.curIs(token.SYMBOL, "]") {
		start = p.parseExpression()
	}
	if p.curIs(token.SYMBOL, ":") {
		isSlice = true
		p.advance()
		if !p.curIs(token.SYMBOL, ":") && !p.curIs(token.SYMBOL, "]") {
			stop = p.parseExpression()
		}
		if p.curIs(token.SYMBOL, ":") {
			p.advance()
			if !p.curIs(token.SYMBOL, "]") {
				step = p.parseExpression()
			}
		}
	}
	p.expect(token.SYMBOL, "]")

	if isSlice {
		return &ast.Slice{Token: tok, Object: obj, Start: start, Stop: stop, Step: step}
	}
	return &ast.Index{Token: tok, Object: obj, Key: start}
}

func (p *Parser) parsePrimary() ast.Expression {
	tok := p.cur()
	switch tok.Kind {
	case token.NUMBER:
		return p.parseNumber()
	case token.STRING:
		p.advance()
		return &ast.StringLit{Token: tok, Value: tok.Literal}
	case token.IDENT:
		p.advance()
		return &ast.Ident{Token: tok, Name: tok.Literal}
	case token.KEYWORD:
		return p.parseKeywordPrimary()
	case token.SYMBOL:
		return p.parseSymbolPrimary()
	default:
		p.errorf("unexpected token %s", describe(tok.Kind, tok.Literal))
		p.advance()
		return nil
	}
}

// parseNumber also implements the ". followed by NUMBER" float reassembly
// rule: two adjacent NUMBER tokens split by a SYMBOL '.' are combined into
// one FloatLit, since the tokenizer always emits integer-looking digit
// runs as separate NUMBER tokens either side of the dot.
func (p *Parser) parseNumber() ast.Expression {
	tok := p.advance()
	if strings.Contains(tok.Literal, ".") {
		v, _ := strconv.ParseFloat(tok.Literal, 64)
		return &ast.FloatLit{Token: tok, Value: v}
	}
	if p.curIs(token.SYMBOL, ".") && p.peekKindIs(token.NUMBER) {
		p.advance() // '.'
		frac := p.advance()
		v, _ := strconv.ParseFloat(tok.Literal+"."+frac.Literal, 64)
		return &ast.FloatLit{Token: tok, Value: v}
	}
	v, _ := strconv.ParseInt(tok.Literal, 10, 64)
	return &ast.IntLit{Token: tok, Value: v}
}

func (p *Parser) parseKeywordPrimary() ast.Expression {
	tok := p.cur()
	switch tok.Literal {
	case "lambda":
		return p.parseLambda()
	case "match":
		return p.parseMatch()
	case "include":
		return p.parseIncludeCall()
	default:
		p.errorf("unexpected %q in expression", tok.Literal)
		p.advance()
		return nil
	}
}

func (p *Parser) parseSymbolPrimary() ast.Expression {
	tok := p.cur()
	switch tok.Literal {
	case "(":
		p.advance()
		expr := p.parseExpression()
		p.expect(token.SYMBOL, ")")
		return expr
	case "[":
		return p.parseListLiteralOrComp()
	case "{":
		return p.parseDictLiteralOrComp()
	default:
		p.errorf("unexpected %q in expression", tok.Literal)
		p.advance()
		return nil
	}
}

func (p *Parser) parseListLiteralOrComp() ast.Expression {
	tok := p.advance() // '['
	if p.curIs(token.SYMBOL, "]") {
		p.advance()
		return &ast.ListLit{Token: tok}
	}

	first := p.parseExpression()
	if p.curIs(token.SYMBOL, "|") {
		p.advance()
		varName := p.expectIdentName()
		p.expect(token.SYMBOL, ",")
		iterable := p.parseExpression()

		var step ast.Expression
		if p.curIs(token.SYMBOL, ",") {
			p.advance()
			step = p.parseExpression()
		}
		var conds []ast.Expression
		for p.curIs(token.SYMBOL, "|") {
			p.advance()
			conds = append(conds, p.parseExpression())
		}
		p.expect(token.SYMBOL, "]")
		return &ast.ListComp{Token: tok, Expr: first, Var: varName, Iterable: iterable, Step: step, Conds: conds}
	}

	elems := []ast.Expression{first}
	for p.curIs(token.SYMBOL, ",") {
		p.advance()
		if p.curIs(token.SYMBOL, "]") {
			break
		}
		elems = append(elems, p.parseExpression())
	}
	p.expect(token.SYMBOL, "]")
	return &ast.ListLit{Token: tok, Elements: elems}
}

func (p *Parser) parseDictLiteralOrComp() ast.Expression {
	tok := p.advance() // '{'
	if p.curIs(token.SYMBOL, "}") {
		p.advance()
		return &ast.DictLit{Token: tok}
	}

	firstKey := p.parseExpression()
	if p.curIs(token.SYMBOL, "|") {
		p.advance()
		valExpr := p.parseExpression()
		p.expect(token.SYMBOL, ",")
		varName := p.expectIdentName()
		p.expect(token.SYMBOL, ",")
		iterable := p.parseExpression()

		var cond ast.Expression
		if p.curIs(token.SYMBOL, "|") {
			p.advance()
			cond = p.parseExpression()
		}
		p.expect(token.SYMBOL, "}")
		return &ast.DictComp{Token: tok, KeyExpr: firstKey, ValExpr: valExpr, Var: varName, Iterable: iterable, Cond: cond}
	}

	p.expect(token.SYMBOL, ":")
	firstVal := p.parseExpression()
	dict := &ast.DictLit{Token: tok, Keys: []ast.Expression{firstKey}, Values: []ast.Expression{firstVal}}
	for p.curIs(token.SYMBOL, ",") {
		p.advance()
		if p.curIs(token.SYMBOL, "}") {
			break
		}
		k := p.parseExpression()
		p.expect(token.SYMBOL, ":")
		v := p.parseExpression()
		dict.Keys = append(dict.Keys, k)
		dict.Values = append(dict.Values, v)
	}
	p.expect(token.SYMBOL, "}")
	return dict
}

func (p *Parser) parseLambda() ast.Expression {
	tok := p.advance() // 'lambda'
	params := p.parseParams()
	body := p.parseBlock()
	return &ast.Lambda{Token: tok, Params: params, Body: body}
}

func (p *Parser) parseMatch() ast.Expression {
	tok := p.advance() // 'match'
	p.expect(token.SYMBOL, "(")
	subject := p.parseExpression()
	p.expect(token.SYMBOL, ")")
	p.expect(token.SYMBOL, "{")

	match := &ast.Match{Token: tok, Subject: subject}
	for !p.curIs(token.SYMBOL, "}") && !p.curIs(token.EOF, "") {
		switch {
		case p.curIs(token.KEYWORD, "case"):
			p.advance()
			patterns := []ast.Expression{p.parseExpression()}
			for p.curIs(token.SYMBOL, "|") {
				p.advance()
				patterns = append(patterns, p.parseExpression())
			}
			match.Cases = append(match.Cases, ast.MatchCase{Patterns: patterns, Body: p.parseBlock()})
		case p.curIs(token.KEYWORD, "else"):
			p.advance()
			match.Else = p.parseBlock()
		default:
			p.errorf("unexpected token in match: %s", describe(p.cur().Kind, p.cur().Literal))
			p.advance()
		}
	}
	p.expect(token.SYMBOL, "}")
	return match
}

func (p *Parser) parseIncludeCall() ast.Expression {
	tok := p.advance() // 'include'
	p.expect(token.SYMBOL, "(")
	pathExpr := p.parseExpression()
	p.expect(token.SYMBOL, ")")
	return &ast.Call{Token: tok, Callee: &ast.Ident{Token: tok, Name: "include"}, Args: []ast.Expression{pathExpr}}
}
