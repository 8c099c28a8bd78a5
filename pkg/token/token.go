// Package token defines the lexical token kinds shared by the lexer, parser,
// and error reporter.
package token

// Kind identifies the lexical category of a Token.
type Kind int

const (
	ILLEGAL Kind = iota
	EOF

	NUMBER     // 123 (3.14 lexes as NUMBER '.' NUMBER; the parser joins them)
	STRING     // "hello", 'hello'
	IDENT      // identifiers and bare names
	KEYWORD    // in, def, if, else, elif, or, and, not, for, while, break,
	           // continue, return, global, try, catch, throw, class, ffi,
	           // match, case, lambda, include
	OP         // + - * / % = ** (single-character / bare operators)
	COMPARE    // == != <= >= < >
	AUG_ASSIGN // += -= *= /= %= ++ --
	SYMBOL     // ; | ? : { } [ ] ( ) , .
)

var kindNames = [...]string{
	ILLEGAL:    "ILLEGAL",
	EOF:        "EOF",
	NUMBER:     "NUMBER",
	STRING:     "STRING",
	IDENT:      "IDENT",
	KEYWORD:    "KEYWORD",
	OP:         "OP",
	COMPARE:    "COMPARE",
	AUG_ASSIGN: "AUG_ASSIGN",
	SYMBOL:     "SYMBOL",
}

func (k Kind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "UNKNOWN"
}

// Keywords is the closed set of reserved words recognized by the tokenizer.
// Anything matching this set lexes as KEYWORD rather than IDENT.
var Keywords = map[string]bool{
	"in": true, "def": true, "if": true, "else": true, "elif": true,
	"or": true, "and": true, "not": true, "for": true, "while": true,
	"break": true, "continue": true, "return": true, "global": true,
	"try": true, "catch": true, "throw": true, "class": true, "ffi": true,
	"match": true, "case": true, "lambda": true, "include": true,
}

// Position locates a token in the original source by line and column
// (both 1-based) plus a 0-based byte offset into the comment-stripped source.
type Position struct {
	Line   int
	Column int
	Offset int
}

func (p Position) String() string {
	return itoa(p.Line) + ":" + itoa(p.Column)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// Token is a single lexeme produced by the tokenizer.
type Token struct {
	Kind    Kind
	Literal string
	Pos     Position
}

func (t Token) String() string {
	return t.Kind.String() + "(" + t.Literal + ")"
}

// Is reports whether the token has the given kind and literal.
func (t Token) Is(kind Kind, literal string) bool {
	return t.Kind == kind && t.Literal == literal
}
