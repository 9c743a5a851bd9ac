package syntax

import (
	"fmt"
	"strconv"

	"github.com/you-not-fish/lygos/internal/rtabi"
	"github.com/you-not-fish/lygos/internal/src"
	"github.com/you-not-fish/lygos/internal/types"
)

// Upper bound on macro expansions and includes per parse; recursive
// macros stop here instead of growing the token buffer forever.
const maxExpansions = 1 << 16

// SyntaxError represents a syntax error.
type SyntaxError struct {
	Pos src.Pos
	Msg string
}

func (e *SyntaxError) Error() string {
	return e.Pos.String() + ": " + e.Msg
}

// Expander performs token-level preprocessing on behalf of the parser.
// It is implemented by the macro package.
type Expander interface {
	// Define registers a user macro.
	Define(m *MacroDecl) error

	// Expand expands a macro call name$(args...). It returns ok=false
	// for intrinsics, which the parser turns into IntrinsicCall nodes.
	Expand(name string, pos src.Pos, args [][]Lexeme) (toks []Lexeme, ok bool, err error)

	// Include returns the tokens of the file at path, included from the
	// file named from. Files already included yield no tokens.
	Include(from, path string, pos src.Pos) ([]Lexeme, error)
}

// Parser performs syntax analysis on a lygos token stream.
// Macro calls and #include directives are expanded in place in the
// token buffer as the parser reaches them.
type Parser struct {
	toks []Lexeme // token buffer, always terminated by an EOF lexeme
	idx  int      // index of the current token

	// Current token info (cached from toks[idx])
	tok  Token
	lit  string
	kind LitKind
	pos  src.Pos

	exp        Expander
	expansions int

	// Error handling. Parsing stops at the first error.
	errh  func(pos src.Pos, msg string)
	first error
}

// NewParser creates a Parser over toks. exp may be nil, in which case
// only intrinsic macros are accepted.
func NewParser(toks []Lexeme, exp Expander, errh func(pos src.Pos, msg string)) *Parser {
	p := &Parser{toks: terminate(toks, src.NoPos), exp: exp, errh: errh}
	p.load()
	return p
}

// Parse scans and parses a complete source file.
func Parse(filename string, content []byte, exp Expander) (*File, error) {
	toks, err := ScanAll(filename, content)
	if err != nil {
		return nil, err
	}
	p := NewParser(toks, exp, nil)
	f := p.Parse()
	if err := p.FirstError(); err != nil {
		return nil, err
	}
	return f, nil
}

// terminate returns toks with a trailing EOF lexeme.
func terminate(toks []Lexeme, end src.Pos) []Lexeme {
	if n := len(toks); n > 0 && toks[n-1].Tok == _EOF {
		return toks
	}
	if n := len(toks); n > 0 {
		end = toks[n-1].Pos
	}
	out := make([]Lexeme, len(toks), len(toks)+1)
	copy(out, toks)
	return append(out, Lexeme{Tok: _EOF, Pos: end})
}

// ----------------------------------------------------------------------------
// Token navigation

// next advances to the next token.
func (p *Parser) next() {
	if p.tok == _EOF {
		return
	}
	p.idx++
	p.load()
}

// load expands the token at idx if it starts a macro call or include,
// then caches it as the current token.
func (p *Parser) load() {
	for p.first == nil && p.expandAt() {
	}
	if p.first != nil {
		p.tok = _EOF
		return
	}
	l := p.toks[p.idx]
	p.tok, p.lit, p.kind, p.pos = l.Tok, l.Lit, l.Kind, l.Pos
}

// peek returns the token n positions after the current one without
// expanding it.
func (p *Parser) peek(n int) Lexeme {
	if i := p.idx + n; i < len(p.toks) {
		return p.toks[i]
	}
	return p.toks[len(p.toks)-1]
}

// expandAt splices the expansion of a macro call or #include directive
// starting at idx into the buffer. It reports whether anything changed.
func (p *Parser) expandAt() bool {
	l := p.toks[p.idx]
	switch {
	case l.Tok == _Hash && p.peek(1).Tok == _Name && p.peek(1).Lit == "include":
		path := p.peek(2)
		if path.Tok != _Literal || path.Kind != StringLit {
			p.syntaxErrorAt(path.Pos, "expected file path after `#include`")
			return false
		}
		if !p.countExpansion(l.Pos) {
			return false
		}
		if p.exp == nil {
			p.syntaxErrorAt(l.Pos, fmt.Sprintf("could not read file `%s`", path.Lit))
			return false
		}
		toks, err := p.exp.Include(l.Pos.Filename(), path.Lit, path.Pos)
		if err != nil {
			p.fail(err)
			return false
		}
		p.splice(p.idx, p.idx+3, stripEOF(toks))
		return true

	case l.Tok == _Name && p.peek(1).Tok == _Dollar && p.peek(2).Tok == _Lparen:
		end := p.matchParen(p.idx + 2)
		if end < 0 {
			p.syntaxErrorAt(p.peek(2).Pos, "unclosed `(` in macro call")
			return false
		}
		if p.exp == nil {
			if rtabi.IsIntrinsic(l.Lit) {
				return false
			}
			p.syntaxErrorAt(l.Pos, fmt.Sprintf("could not resolve macro `%s`", l.Lit))
			return false
		}
		args := SplitArgs(p.toks[p.idx+3 : end])
		toks, ok, err := p.exp.Expand(l.Lit, l.Pos, args)
		if err != nil {
			p.fail(err)
			return false
		}
		if !ok || !p.countExpansion(l.Pos) {
			return false
		}
		p.splice(p.idx, end+1, stripEOF(toks))
		return true
	}
	return false
}

func (p *Parser) countExpansion(pos src.Pos) bool {
	p.expansions++
	if p.expansions > maxExpansions {
		p.syntaxErrorAt(pos, "macro expansion limit exceeded")
		return false
	}
	return true
}

// matchParen returns the index of the parenthesis closing the one at
// open, or -1.
func (p *Parser) matchParen(open int) int {
	depth := 0
	for i := open; i < len(p.toks); i++ {
		switch p.toks[i].Tok {
		case _Lparen:
			depth++
		case _Rparen:
			depth--
			if depth == 0 {
				return i
			}
		case _EOF:
			return -1
		}
	}
	return -1
}

// splice replaces toks[from:to] with repl.
func (p *Parser) splice(from, to int, repl []Lexeme) {
	out := make([]Lexeme, 0, len(p.toks)-(to-from)+len(repl))
	out = append(out, p.toks[:from]...)
	out = append(out, repl...)
	out = append(out, p.toks[to:]...)
	p.toks = out
}

func stripEOF(toks []Lexeme) []Lexeme {
	if n := len(toks); n > 0 && toks[n-1].Tok == _EOF {
		return toks[:n-1]
	}
	return toks
}

// SplitArgs splits the raw tokens of a macro call's argument list into
// groups on top-level commas. Parentheses, brackets and braces nest.
// An empty list yields no groups; otherwise every comma separates two
// groups, so a trailing comma leaves an empty last group.
func SplitArgs(toks []Lexeme) [][]Lexeme {
	if len(toks) == 0 {
		return nil
	}
	var groups [][]Lexeme
	depth, start := 0, 0
	for i, l := range toks {
		switch l.Tok {
		case _Lparen, _Lbrack, _Lbrace:
			depth++
		case _Rparen, _Rbrack, _Rbrace:
			depth--
		case _Comma:
			if depth == 0 {
				groups = append(groups, toks[start:i])
				start = i + 1
			}
		}
	}
	return append(groups, toks[start:])
}

// got reports whether the current token is tok.
// If so, it consumes the token and returns true.
func (p *Parser) got(tok Token) bool {
	if p.tok == tok {
		p.next()
		return true
	}
	return false
}

// want consumes the current token if it matches tok.
// Otherwise, reports an error.
func (p *Parser) want(tok Token) {
	if !p.got(tok) {
		p.syntaxError(fmt.Sprintf("expected `%s`, found %s", tok, p.describe()))
	}
}

// describe renders the current token for diagnostics.
func (p *Parser) describe() string {
	switch p.tok {
	case _EOF:
		return "EOF"
	case _Name, _Literal:
		return "`" + p.toks[p.idx].String() + "`"
	}
	return "`" + p.tok.String() + "`"
}

// ----------------------------------------------------------------------------
// Error handling

// syntaxError reports a syntax error at the current position.
func (p *Parser) syntaxError(msg string) {
	p.syntaxErrorAt(p.pos, msg)
}

// syntaxErrorAt reports a syntax error at a specific position.
func (p *Parser) syntaxErrorAt(pos src.Pos, msg string) {
	if p.first != nil {
		return
	}
	if p.errh != nil {
		p.errh(pos, msg)
	}
	p.fail(&SyntaxError{Pos: pos, Msg: msg})
}

// fail records err as the parse result and stops parsing.
func (p *Parser) fail(err error) {
	if p.first == nil {
		p.first = err
	}
	p.tok = _EOF
}

// FirstError returns the first error encountered, or nil if none.
func (p *Parser) FirstError() error {
	return p.first
}

// ----------------------------------------------------------------------------
// Parsing entry point

// Parse parses a complete token stream and returns the AST.
func (p *Parser) Parse() *File {
	f := &File{}
	f.pos = p.pos

	for p.tok != _EOF {
		if p.got(_Semi) {
			continue
		}
		if d := p.decl(); d != nil {
			f.Decls = append(f.Decls, d)
		}
	}
	return f
}

// ----------------------------------------------------------------------------
// Helper methods

// name parses an identifier and returns a Name node.
func (p *Parser) name() *Name {
	n := &Name{Value: p.lit}
	n.pos = p.pos
	if p.tok != _Name {
		p.syntaxError(fmt.Sprintf("expected identifier, found %s", p.describe()))
		n.Value = "_"
		return n
	}
	p.next()
	return n
}

// ----------------------------------------------------------------------------
// Declarations

// decl parses a top-level declaration.
func (p *Parser) decl() Decl {
	switch p.tok {
	case _Fn:
		return p.funcDecl(false)
	case _Struct:
		return p.structDecl()
	case _Enum:
		return p.enumDecl()
	case _Type:
		return p.typeAliasDecl()
	case _Static:
		return p.staticDecl()
	case _Impl:
		return p.implDecl()
	case _Trait:
		return p.traitDecl()
	case _Macro:
		return p.macroDecl()
	case _Name:
		if p.peek(1).Tok == _Dollar {
			d := &IntrinsicDecl{}
			d.pos = p.pos
			d.Call = p.intrinsicCall()
			p.want(_Semi)
			return d
		}
	}
	p.syntaxError(fmt.Sprintf("expected declaration, found %s", p.describe()))
	return nil
}

// funcDecl parses: fn Name(Params) [-> Result] (; | Body)
// Receivers are accepted only inside impl and trait blocks.
func (p *Parser) funcDecl(method bool) *FuncDecl {
	d := &FuncDecl{}
	d.pos = p.pos

	p.want(_Fn)
	d.Name = p.name()
	p.signature(d, method)

	if p.got(_Semi) {
		return d
	}
	d.Body = p.blockStmt()
	return d
}

// signature parses (Params) [-> Result] into d.
func (p *Parser) signature(d *FuncDecl, method bool) {
	p.want(_Lparen)
	for p.tok != _Rparen && p.tok != _EOF {
		if p.got(_Ellipsis) {
			d.Variadic = true
			break
		}
		if recv, param := p.receiver(); param != nil {
			if !method || len(d.Params) > 0 {
				p.syntaxErrorAt(param.pos, "`self` parameter is only allowed first in a method")
			}
			d.Recv = recv
			d.Params = append(d.Params, param)
		} else {
			d.Params = append(d.Params, p.param())
		}
		if !p.got(_Comma) {
			break
		}
	}
	p.want(_Rparen)

	if p.got(_Arrow) {
		d.Result = p.type_()
	}
}

// receiver parses self, &self or &mut self. It returns a nil param when
// the current tokens do not start a receiver.
func (p *Parser) receiver() (RecvKind, *Param) {
	pos := p.pos
	kind := RecvValue
	switch {
	case p.tok == _Name && p.lit == "self" && p.peek(1).Tok != _Colon:
	case p.tok == _And && p.peek(1).Tok == _Name && p.peek(1).Lit == "self":
		kind = RecvRef
		p.next()
	case p.tok == _And && p.peek(1).Tok == _Mut && p.peek(2).Lit == "self":
		kind = RecvMutRef
		p.next()
		p.next()
	default:
		return RecvNone, nil
	}

	param := &Param{}
	param.pos = pos
	param.Name = p.name()
	var self types.Type = types.NewPath(pos, types.SelfName)
	if kind != RecvValue {
		self = types.NewRef(pos, self, kind == RecvMutRef)
	}
	param.Type = self
	return kind, param
}

// param parses name: Type
func (p *Parser) param() *Param {
	f := &Param{}
	f.pos = p.pos
	f.Name = p.name()
	p.want(_Colon)
	f.Type = p.type_()
	return f
}

// structDecl parses: struct Name { name: Type; ... } [;]
func (p *Parser) structDecl() *StructDecl {
	d := &StructDecl{}
	d.pos = p.pos

	p.want(_Struct)
	d.Name = p.name()
	p.want(_Lbrace)
	for p.tok != _Rbrace && p.tok != _EOF {
		f := &Field{}
		f.pos = p.pos
		f.Name = p.name()
		p.want(_Colon)
		f.Type = p.type_()
		p.want(_Semi)
		d.Fields = append(d.Fields, f)
	}
	p.want(_Rbrace)
	p.got(_Semi)
	return d
}

// enumDecl parses: enum Name [: Type] { A, B, ... }
func (p *Parser) enumDecl() *EnumDecl {
	d := &EnumDecl{}
	d.pos = p.pos

	p.want(_Enum)
	d.Name = p.name()
	if p.got(_Colon) {
		d.Underlying = p.type_()
	} else {
		d.Underlying = types.NewPath(d.pos, "u32")
	}
	p.want(_Lbrace)
	for p.tok != _Rbrace && p.tok != _EOF {
		d.Variants = append(d.Variants, p.name())
		if !p.got(_Comma) {
			break
		}
	}
	p.want(_Rbrace)
	p.got(_Semi)
	return d
}

// typeAliasDecl parses: type Name = Type;
func (p *Parser) typeAliasDecl() *TypeAliasDecl {
	d := &TypeAliasDecl{}
	d.pos = p.pos

	p.want(_Type)
	d.Name = p.name()
	p.want(_Assign)
	d.Type = p.type_()
	p.want(_Semi)
	return d
}

// staticDecl parses: static Name: Type [= Value];
func (p *Parser) staticDecl() *StaticDecl {
	d := &StaticDecl{}
	d.pos = p.pos

	p.want(_Static)
	d.Name = p.name()
	p.want(_Colon)
	d.Type = p.type_()
	if p.got(_Assign) {
		d.Value = p.expr()
	}
	p.want(_Semi)
	return d
}

// implDecl parses: impl [Trait for] Type { fn ... }
func (p *Parser) implDecl() *ImplDecl {
	d := &ImplDecl{}
	d.pos = p.pos

	p.want(_Impl)
	d.Type = p.name()
	if p.got(_For) {
		d.Trait = d.Type
		d.Type = p.name()
	}
	p.want(_Lbrace)
	for p.tok == _Fn {
		d.Methods = append(d.Methods, p.funcDecl(true))
	}
	p.want(_Rbrace)
	return d
}

// traitDecl parses: trait Name { fn ...; }
func (p *Parser) traitDecl() *TraitDecl {
	d := &TraitDecl{}
	d.pos = p.pos

	p.want(_Trait)
	d.Name = p.name()
	p.want(_Lbrace)
	for p.tok == _Fn {
		d.Methods = append(d.Methods, p.funcDecl(true))
	}
	p.want(_Rbrace)
	return d
}

// macroDecl parses: macro Name { (a: $, rest: []) -> { tokens } ... }
// Arm bodies are kept as raw tokens; nothing inside them is expanded.
// The macro is defined before the token after it is loaded, so it can
// be used immediately.
func (p *Parser) macroDecl() *MacroDecl {
	d := &MacroDecl{}
	d.pos = p.pos

	p.want(_Macro)
	d.Name = p.name()
	p.want(_Lbrace)
	for p.tok == _Lparen {
		arm := &MacroArm{}
		arm.pos = p.pos
		p.next()
		for p.tok != _Rparen && p.tok != _EOF {
			mp := &MacroParam{}
			mp.pos = p.pos
			mp.Name = p.name().Value
			p.want(_Colon)
			switch {
			case p.got(_Dollar):
			case p.got(_Lbrack):
				mp.Variadic = true
				p.want(_Rbrack)
			default:
				p.syntaxError(fmt.Sprintf("expected `$` or `[]` after macro parameter `%s`", mp.Name))
			}
			for _, prev := range arm.Params {
				if prev.Name == mp.Name {
					p.syntaxErrorAt(mp.pos, fmt.Sprintf("duplicate macro parameter `%s`", mp.Name))
				}
			}
			arm.Params = append(arm.Params, mp)
			if !p.got(_Comma) {
				break
			}
		}
		p.want(_Rparen)
		p.want(_Arrow)
		if p.tok != _Lbrace {
			p.syntaxError("expected `{` after `->` in macro arm")
			return d
		}
		arm.Body = p.rawBlock()
		d.Arms = append(d.Arms, arm)
	}
	if p.tok != _Rbrace {
		p.syntaxError(fmt.Sprintf("expected `(` or `}` in macro `%s`, found %s", d.Name.Value, p.describe()))
		return d
	}
	if p.exp == nil {
		p.syntaxErrorAt(d.pos, "macros are not supported here")
		return d
	}
	if err := p.exp.Define(d); err != nil {
		p.fail(err)
		return d
	}
	p.next()
	return d
}

// rawBlock consumes a brace-delimited token group without expanding
// it and returns the tokens between the braces. On return the current
// token is the one after the closing brace.
func (p *Parser) rawBlock() []Lexeme {
	open := p.idx
	depth := 0
	for i := open; i < len(p.toks); i++ {
		switch p.toks[i].Tok {
		case _Lbrace:
			depth++
		case _Rbrace:
			depth--
			if depth == 0 {
				body := append([]Lexeme(nil), p.toks[open+1:i]...)
				p.idx = i
				p.load()
				p.next()
				return body
			}
		case _EOF:
			p.syntaxErrorAt(p.toks[open].Pos, "unclosed `{`")
			return nil
		}
	}
	return nil
}

// ----------------------------------------------------------------------------
// Types

// type_ parses a type.
func (p *Parser) type_() types.Type {
	pos := p.pos
	switch p.tok {
	case _Name:
		name := p.lit
		p.next()
		return types.NewPath(pos, name)

	case _Mul: // *T, *mut T
		p.next()
		mut := p.got(_Mut)
		return types.NewPointer(pos, p.type_(), mut)

	case _And: // &T, &mut T
		p.next()
		mut := p.got(_Mut)
		return types.NewRef(pos, p.type_(), mut)

	case _AndAnd: // &&T
		p.next()
		mut := p.got(_Mut)
		return types.NewRef(pos, types.NewRef(pos, p.type_(), mut), false)

	case _Lbrack: // [T; N] or [T]
		p.next()
		elem := p.type_()
		if p.got(_Rbrack) {
			return types.NewSlice(pos, elem)
		}
		p.want(_Semi)
		n := p.arrayLen()
		p.want(_Rbrack)
		return types.NewArray(pos, elem, n)

	case _Fn: // fn(A, B) -> R
		p.next()
		p.want(_Lparen)
		var params []types.Type
		variadic := false
		for p.tok != _Rparen && p.tok != _EOF {
			if p.got(_Ellipsis) {
				variadic = true
				break
			}
			params = append(params, p.type_())
			if !p.got(_Comma) {
				break
			}
		}
		p.want(_Rparen)
		var result types.Type
		if p.got(_Arrow) {
			result = p.type_()
		}
		return types.NewFuncPointer(pos, params, result, variadic)
	}

	p.syntaxError(fmt.Sprintf("expected type, found %s", p.describe()))
	return types.NewPath(pos, "_")
}

// arrayLen parses a constant array length.
func (p *Parser) arrayLen() uint64 {
	if p.tok != _Literal || p.kind != IntLit {
		p.syntaxError(fmt.Sprintf("expected constant array length, found %s", p.describe()))
		return 0
	}
	n, err := strconv.ParseUint(p.lit, 0, 64)
	if err != nil {
		p.syntaxError(fmt.Sprintf("invalid array length `%s`", p.lit))
		return 0
	}
	p.next()
	return n
}

// ----------------------------------------------------------------------------
// Statements

// stmt parses a statement.
func (p *Parser) stmt() Stmt {
	switch p.tok {
	case _Lbrace:
		return p.blockStmt()

	case _Let:
		s := p.letStmt()
		p.want(_Semi)
		return s

	case _If:
		return p.ifStmt()

	case _For:
		return p.forStmt()

	case _While:
		return p.whileStmt()

	case _Match:
		return p.matchStmt()

	case _Return:
		return p.returnStmt()

	case _Break:
		s := &BreakStmt{}
		s.pos = p.pos
		p.next()
		p.want(_Semi)
		return s

	case _Semi:
		s := &EmptyStmt{}
		s.pos = p.pos
		p.next()
		return s

	default:
		return p.simpleStmt()
	}
}

// simpleStmt parses an expression statement or assignment.
func (p *Parser) simpleStmt() Stmt {
	pos := p.pos
	x := p.expr()

	if p.got(_Assign) {
		s := &AssignStmt{LHS: x}
		s.pos = pos
		s.RHS = p.expr()
		p.want(_Semi)
		return s
	}

	s := &ExprStmt{X: x}
	s.pos = pos
	p.want(_Semi)
	return s
}

// letStmt parses: let [mut] Name [: Type] [= Value]
func (p *Parser) letStmt() *LetStmt {
	s := &LetStmt{}
	s.pos = p.pos

	p.want(_Let)
	s.Mut = p.got(_Mut)
	s.Name = p.name()
	if p.got(_Colon) {
		s.Type = p.type_()
	}
	if p.got(_Assign) {
		s.Value = p.expr()
	}
	if s.Type == nil && s.Value == nil {
		p.syntaxErrorAt(s.pos, fmt.Sprintf("`%s` needs a type or a value", s.Name.Value))
	}
	return s
}

// blockStmt parses { stmts... }
func (p *Parser) blockStmt() *BlockStmt {
	b := &BlockStmt{}
	b.pos = p.pos

	p.want(_Lbrace)
	for p.tok != _Rbrace && p.tok != _EOF {
		b.Stmts = append(b.Stmts, p.stmt())
	}
	b.Rbrace = p.pos
	p.want(_Rbrace)
	return b
}

// ifStmt parses: if cond { then } [else { else } | else if ...]
func (p *Parser) ifStmt() Stmt {
	s := &IfStmt{}
	s.pos = p.pos

	p.want(_If)
	s.Cond = p.expr()
	s.Then = p.blockStmt()

	if p.got(_Else) {
		if p.tok == _If {
			s.Else = p.ifStmt()
		} else {
			s.Else = p.blockStmt()
		}
	}
	return s
}

// forStmt parses: for [let init in] cond { body }
func (p *Parser) forStmt() Stmt {
	s := &ForStmt{}
	s.pos = p.pos

	p.want(_For)
	if p.tok == _Let {
		s.Init = p.letStmt()
		p.want(_In)
	}
	s.Cond = p.expr()
	s.Body = p.blockStmt()
	return s
}

// whileStmt parses: while cond { body }
func (p *Parser) whileStmt() Stmt {
	s := &ForStmt{}
	s.pos = p.pos

	p.want(_While)
	s.Cond = p.expr()
	s.Body = p.blockStmt()
	return s
}

// matchStmt parses: match x { value -> { body } ... }
func (p *Parser) matchStmt() Stmt {
	s := &MatchStmt{}
	s.pos = p.pos

	p.want(_Match)
	s.X = p.expr()
	p.want(_Lbrace)
	for p.tok != _Rbrace && p.tok != _EOF {
		c := &CaseClause{}
		c.pos = p.pos
		c.Value = p.caseValue()
		p.want(_Arrow)
		c.Body = p.blockStmt()
		s.Cases = append(s.Cases, c)
	}
	p.want(_Rbrace)
	return s
}

// caseValue parses a match case: a literal, a name, a negated literal
// or an enum variant. Postfix operators are not allowed because `->`
// separates the value from the case body.
func (p *Parser) caseValue() Expr {
	if p.tok == _Sub {
		op := &Operation{Op: _Sub}
		op.pos = p.pos
		p.next()
		op.X = p.operand()
		return op
	}
	x := p.operand()
	if n, ok := x.(*Name); ok && p.tok == _Scope {
		return p.resolution(n)
	}
	return x
}

// returnStmt parses: return [expr];
func (p *Parser) returnStmt() Stmt {
	s := &ReturnStmt{}
	s.pos = p.pos

	p.want(_Return)
	if p.tok != _Semi {
		s.Result = p.expr()
	}
	p.want(_Semi)
	return s
}

// ----------------------------------------------------------------------------
// Expressions

// expr parses an expression.
func (p *Parser) expr() Expr {
	return p.binaryExpr(0)
}

// binaryExpr parses a binary expression with minimum precedence prec.
// Implements Pratt parsing / precedence climbing.
func (p *Parser) binaryExpr(prec int) Expr {
	x := p.unaryExpr()

	for {
		oprec := p.tok.Precedence()
		if oprec <= prec {
			return x
		}

		// Binary expression position starts at the left operand.
		op := &Operation{Op: p.tok, X: x}
		op.pos = x.Pos()
		p.next()

		// Parse right operand with higher precedence (left associative)
		op.Y = p.binaryExpr(oprec)
		x = op
	}
}

// unaryExpr parses a unary expression or a cast.
func (p *Parser) unaryExpr() Expr {
	switch p.tok {
	case _Not, _Sub, _Mul, _And:
		op := &Operation{Op: p.tok}
		op.pos = p.pos
		p.next()
		op.X = p.unaryExpr()
		return op

	case _AndAnd: // &&x is &(&x)
		pos := p.pos
		p.next()
		inner := &Operation{Op: _And, X: p.unaryExpr()}
		inner.pos = pos
		op := &Operation{Op: _And, X: inner}
		op.pos = pos
		return op

	case _Lparen:
		if p.peek(1).Tok == _Colon {
			c := &CastExpr{}
			c.pos = p.pos
			p.next()
			p.next()
			c.Type = p.type_()
			p.want(_Rparen)
			c.X = p.unaryExpr()
			return c
		}
	}
	return p.primaryExpr()
}

// primaryExpr parses primary expressions and postfix operations.
func (p *Parser) primaryExpr() Expr {
	x := p.operand()

	for {
		switch p.tok {
		case _Lparen:
			x = p.callExpr(x)

		case _Lbrack:
			idx := &IndexExpr{X: x}
			idx.pos = x.Pos()
			p.next()
			idx.Index = p.expr()
			p.want(_Rbrack)
			x = idx

		case _Dot, _Arrow:
			sel := &SelectorExpr{X: x, Arrow: p.tok == _Arrow}
			sel.pos = x.Pos()
			p.next()
			sel.Sel = p.name()
			x = sel

		case _Scope:
			n, ok := x.(*Name)
			if !ok {
				p.syntaxError("expected type or enum name before `::`")
				return x
			}
			x = p.resolution(n)

		default:
			return x
		}
	}
}

// resolution parses ::Sel after X.
func (p *Parser) resolution(x *Name) Expr {
	r := &ResolutionExpr{X: x}
	r.pos = x.Pos()
	p.want(_Scope)
	r.Sel = p.name()
	return r
}

// operand parses an operand (the base of primary expressions).
func (p *Parser) operand() Expr {
	switch p.tok {
	case _Name:
		if p.peek(1).Tok == _Dollar {
			return p.intrinsicCall()
		}
		n := &Name{Value: p.lit}
		n.pos = p.pos
		p.next()
		return n

	case _Literal:
		lit := &BasicLit{Value: p.lit, Kind: p.kind}
		lit.pos = p.pos
		p.next()
		return lit

	case _Lparen:
		paren := &ParenExpr{}
		paren.pos = p.pos
		p.next()
		paren.X = p.expr()
		p.want(_Rparen)
		return paren

	case _Lbrace:
		return p.initList()

	case _Fn:
		c := &ClosureExpr{Func: &FuncDecl{}}
		c.pos = p.pos
		c.Func.pos = p.pos
		c.Func.Name = &Name{Value: "closure"}
		c.Func.Name.pos = p.pos
		p.next()
		p.signature(c.Func, false)
		c.Func.Body = p.blockStmt()
		return c
	}

	p.syntaxError(fmt.Sprintf("expected expression, found %s", p.describe()))
	n := &Name{Value: "_"}
	n.pos = p.pos
	return n
}

// callExpr parses Fun(args...)
func (p *Parser) callExpr(fun Expr) Expr {
	call := &CallExpr{Fun: fun}
	call.pos = fun.Pos()

	p.want(_Lparen)
	for p.tok != _Rparen && p.tok != _EOF {
		call.Args = append(call.Args, p.expr())
		if !p.got(_Comma) {
			break
		}
	}
	p.want(_Rparen)
	return call
}

// initList parses { [.name =] value, ... }
func (p *Parser) initList() Expr {
	lit := &InitList{}
	lit.pos = p.pos

	p.want(_Lbrace)
	for p.tok != _Rbrace && p.tok != _EOF {
		e := &InitElem{}
		e.pos = p.pos
		if p.got(_Dot) {
			e.Name = p.name()
			p.want(_Assign)
		}
		e.Value = p.expr()
		lit.Elems = append(lit.Elems, e)
		if !p.got(_Comma) {
			break
		}
	}
	p.want(_Rbrace)
	return lit
}

// intrinsicCall parses name$(args) for a compiler intrinsic. User
// macros never reach here: they are expanded when their name is loaded.
func (p *Parser) intrinsicCall() *IntrinsicCall {
	call := &IntrinsicCall{}
	call.pos = p.pos
	call.Name = p.name()
	if !rtabi.IsIntrinsic(call.Name.Value) {
		p.syntaxErrorAt(call.pos, fmt.Sprintf("could not resolve macro `%s`", call.Name.Value))
		return call
	}
	p.want(_Dollar)
	if p.tok != _Lparen {
		p.syntaxError("expected `(` after `$`")
		return call
	}
	end := p.matchParen(p.idx)
	if end < 0 {
		p.syntaxError("unclosed `(` in macro call")
		return call
	}
	args := SplitArgs(p.toks[p.idx+1 : end])
	closing := p.toks[end].Pos
	p.idx = end
	p.load()
	p.next()

	name := call.Name.Value
	switch name {
	case rtabi.IntrinsicSizeof:
		if len(args) != 1 {
			p.syntaxErrorAt(call.pos, "macro `sizeof` expected exactly 1 argument")
			return call
		}
		q := p.subParser(args[0], closing)
		call.Type = q.type_()
		q.done()
		p.adopt(q)

	case rtabi.IntrinsicFile, rtabi.IntrinsicLine:
		if len(args) != 0 {
			p.syntaxErrorAt(call.pos, fmt.Sprintf("macro `%s` expects no arguments", name))
		}

	case rtabi.IntrinsicImplDebug:
		if len(args) != 1 {
			p.syntaxErrorAt(call.pos, fmt.Sprintf("incorrect number of arguments supplied to `%s`: expected `1`, got `%d`", name, len(args)))
			return call
		}
		q := p.subParser(args[0], closing)
		call.Args = []Expr{q.name()}
		q.done()
		p.adopt(q)

	case rtabi.IntrinsicFormatArgs:
		for _, arg := range args {
			q := p.subParser(arg, closing)
			call.Args = append(call.Args, q.expr())
			q.done()
			if !p.adopt(q) {
				break
			}
		}
	}
	return call
}

// subParser returns a parser over one macro argument group.
func (p *Parser) subParser(toks []Lexeme, end src.Pos) *Parser {
	buf := make([]Lexeme, len(toks), len(toks)+1)
	copy(buf, toks)
	q := &Parser{
		toks:       append(buf, Lexeme{Tok: _EOF, Pos: end}),
		exp:        p.exp,
		errh:       p.errh,
		expansions: p.expansions,
	}
	q.load()
	return q
}

// done reports trailing tokens in a sub-parser.
func (p *Parser) done() {
	if p.tok != _EOF {
		p.syntaxError(fmt.Sprintf("unexpected %s in macro argument", p.describe()))
	}
}

// adopt takes over the state of a finished sub-parser and reports
// whether parsing can continue.
func (p *Parser) adopt(q *Parser) bool {
	p.expansions = q.expansions
	if q.first != nil {
		p.fail(q.first)
		return false
	}
	return true
}
