// Package syntax implements lexical and syntactic analysis for lygos.
package syntax

import (
	"fmt"

	"github.com/you-not-fish/lygos/internal/src"
)

// Token represents the type of a lexical token.
type Token uint

const (
	// Special tokens
	_EOF Token = iota // end of file

	// Literals
	_Name    // identifier: foo, Point, self
	_Literal // literal value (used with LitKind)

	// Assignment
	_Assign // =

	// Logical operators
	_OrOr   // ||
	_AndAnd // &&

	// Comparison operators
	_Eql // ==
	_Neq // !=
	_Lss // <
	_Leq // <=
	_Gtr // >
	_Geq // >=

	// Additive operators
	_Add // +
	_Sub // -

	// Multiplicative operators
	_Mul // *
	_Div // /
	_Rem // %

	// Unary operators
	_And // &
	_Not // !

	// Delimiters
	_Lparen   // (
	_Rparen   // )
	_Lbrack   // [
	_Rbrack   // ]
	_Lbrace   // {
	_Rbrace   // }
	_Comma    // ,
	_Semi     // ;
	_Colon    // :
	_Dot      // .
	_Arrow    // ->
	_Scope    // ::
	_Dollar   // $
	_Hash     // #
	_Ellipsis // ...

	// Keywords
	_Break
	_Else
	_Enum
	_Fn
	_For
	_If
	_Impl
	_In
	_Let
	_Macro
	_Match
	_Mut
	_Return
	_Static
	_Struct
	_Trait
	_Type
	_While

	tokenCount
)

// tokenNames maps tokens to their string representation.
var tokenNames = [...]string{
	_EOF: "EOF",

	_Name:    "NAME",
	_Literal: "LITERAL",

	_Assign: "=",

	_OrOr:   "||",
	_AndAnd: "&&",

	_Eql: "==",
	_Neq: "!=",
	_Lss: "<",
	_Leq: "<=",
	_Gtr: ">",
	_Geq: ">=",

	_Add: "+",
	_Sub: "-",

	_Mul: "*",
	_Div: "/",
	_Rem: "%",

	_And: "&",
	_Not: "!",

	_Lparen:   "(",
	_Rparen:   ")",
	_Lbrack:   "[",
	_Rbrack:   "]",
	_Lbrace:   "{",
	_Rbrace:   "}",
	_Comma:    ",",
	_Semi:     ";",
	_Colon:    ":",
	_Dot:      ".",
	_Arrow:    "->",
	_Scope:    "::",
	_Dollar:   "$",
	_Hash:     "#",
	_Ellipsis: "...",

	_Break:  "break",
	_Else:   "else",
	_Enum:   "enum",
	_Fn:     "fn",
	_For:    "for",
	_If:     "if",
	_Impl:   "impl",
	_In:     "in",
	_Let:    "let",
	_Macro:  "macro",
	_Match:  "match",
	_Mut:    "mut",
	_Return: "return",
	_Static: "static",
	_Struct: "struct",
	_Trait:  "trait",
	_Type:   "type",
	_While:  "while",
}

// String returns the string representation of the token.
func (t Token) String() string {
	if t < tokenCount {
		return tokenNames[t]
	}
	return fmt.Sprintf("token(%d)", t)
}

// Precedence returns the operator precedence for binary operators.
// Returns 0 for non-operators.
// Precedence levels (higher = binds tighter):
//
//	1: ||
//	2: &&
//	3: == != < <= > >=
//	4: + -
//	5: * / %
func (t Token) Precedence() int {
	switch t {
	case _OrOr:
		return 1
	case _AndAnd:
		return 2
	case _Eql, _Neq, _Lss, _Leq, _Gtr, _Geq:
		return 3
	case _Add, _Sub:
		return 4
	case _Mul, _Div, _Rem:
		return 5
	}
	return 0
}

// IsKeyword reports whether t is a keyword token.
func (t Token) IsKeyword() bool {
	return t >= _Break && t <= _While
}

// IsComparison reports whether t is a comparison operator.
func (t Token) IsComparison() bool {
	return t >= _Eql && t <= _Geq
}

// IsEOF reports whether t is the EOF token.
func (t Token) IsEOF() bool {
	return t == _EOF
}

// Exported tokens for the macro engine and code generation.
const (
	EOF     Token = _EOF
	Ident   Token = _Name
	Lit     Token = _Literal
	Comma   Token = _Comma
	Dollar  Token = _Dollar
	Hash    Token = _Hash
	Lparen  Token = _Lparen
	Rparen  Token = _Rparen
	Lbrack  Token = _Lbrack
	Rbrack  Token = _Rbrack
	Lbrace  Token = _Lbrace
	Rbrace  Token = _Rbrace
	Semi    Token = _Semi
	Assign  Token = _Assign
	OrOr    Token = _OrOr
	AndAnd  Token = _AndAnd
	Eql     Token = _Eql
	Neq     Token = _Neq
	Lss     Token = _Lss
	Leq     Token = _Leq
	Gtr     Token = _Gtr
	Geq     Token = _Geq
	Add     Token = _Add
	Sub     Token = _Sub
	Mul     Token = _Mul
	Div     Token = _Div
	Rem     Token = _Rem
	And     Token = _And
	Not     Token = _Not
)

// LitKind represents the kind of a literal token.
type LitKind uint8

const (
	IntLit    LitKind = iota // 123, 0x1F, 0b1010
	FloatLit                 // 3.14, 1e10
	StringLit                // "hello"
	CharLit                  // 'c'
	BoolLit                  // true, false
)

// litKindNames maps literal kinds to their string representation.
var litKindNames = [...]string{
	IntLit:    "int",
	FloatLit:  "float",
	StringLit: "string",
	CharLit:   "char",
	BoolLit:   "bool",
}

// String returns the string representation of the literal kind.
func (k LitKind) String() string {
	if k <= BoolLit {
		return litKindNames[k]
	}
	return fmt.Sprintf("LitKind(%d)", k)
}

// keywords maps keyword strings to their token type.
// Type names (i32, str, ...) and self are NOT keywords; they are scanned
// as _Name and resolved through scopes.
var keywords = map[string]Token{
	"break":  _Break,
	"else":   _Else,
	"enum":   _Enum,
	"fn":     _Fn,
	"for":    _For,
	"if":     _If,
	"impl":   _Impl,
	"in":     _In,
	"let":    _Let,
	"macro":  _Macro,
	"match":  _Match,
	"mut":    _Mut,
	"return": _Return,
	"static": _Static,
	"struct": _Struct,
	"trait":  _Trait,
	"type":   _Type,
	"while":  _While,
}

// LookupKeyword returns the token for the given identifier string.
// If the identifier is a keyword, returns the keyword token.
// Otherwise, returns _Name.
func LookupKeyword(ident string) Token {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return _Name
}

// Lexeme is a scanned token together with its literal and position.
// Token streams are []Lexeme; the macro engine operates on them.
type Lexeme struct {
	Tok  Token
	Lit  string  // identifier name, decoded literal, or operator text
	Kind LitKind // only valid when Tok == _Literal
	Pos  src.Pos
}

// String renders the lexeme as source text.
func (l Lexeme) String() string {
	switch l.Tok {
	case _Name:
		return l.Lit
	case _Literal:
		switch l.Kind {
		case StringLit:
			return fmt.Sprintf("%q", l.Lit)
		case CharLit:
			return fmt.Sprintf("%q", rune(l.Lit[0]))
		}
		return l.Lit
	}
	return l.Tok.String()
}
