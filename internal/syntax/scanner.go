package syntax

import (
	"fmt"
	"io"
	"strings"

	"github.com/you-not-fish/lygos/internal/src"
)

// Scanner performs lexical analysis on lygos source code.
type Scanner struct {
	source // embedded character reader

	// Current token info
	tok    Token   // token type
	lit    string  // token literal (identifier name, number, decoded string)
	kind   LitKind // literal kind (only valid when tok == _Literal)
	tokPos src.Pos // token start position

	// Literal accumulation
	litBuf strings.Builder
}

// NewScanner creates a new Scanner for the given source.
// The errh function is called for each lexical error; if nil, errors are silently ignored.
func NewScanner(filename string, r io.Reader, errh func(line, col uint32, msg string)) *Scanner {
	buf, err := io.ReadAll(r)
	if err != nil && errh != nil {
		errh(1, 1, "error reading source file: "+err.Error())
	}
	return newScanner(filename, buf, errh)
}

func newScanner(filename string, buf []byte, errh func(line, col uint32, msg string)) *Scanner {
	return &Scanner{source: *newSource(filename, buf, errh)}
}

// Next advances to the next token.
func (s *Scanner) Next() {
redo:
	for isWhitespace(s.ch) {
		s.nextch()
	}

	s.tokPos = s.pos()

	switch {
	case s.ch < 0:
		s.tok = _EOF
		s.lit = ""

	case isLetter(s.ch):
		s.scanIdent()

	case isDigit(s.ch):
		s.scanNumber()

	case s.ch == '"':
		s.scanString()

	case s.ch == '\'':
		s.scanChar()

	case isOperatorStart(s.ch):
		if s.scanOperator() {
			// a comment was skipped
			goto redo
		}

	default:
		s.error(fmt.Sprintf("unexpected character %q", s.ch))
		s.nextch()
		goto redo
	}
}

// Token returns the current token type.
func (s *Scanner) Token() Token {
	return s.tok
}

// Literal returns the current token's literal value.
func (s *Scanner) Literal() string {
	return s.lit
}

// LitKind returns the current literal's kind (only valid when Token() == _Literal).
func (s *Scanner) LitKind() LitKind {
	return s.kind
}

// Pos returns the current token's start position.
func (s *Scanner) Pos() src.Pos {
	return s.tokPos
}

// Lexeme returns the current token as a Lexeme.
func (s *Scanner) Lexeme() Lexeme {
	return Lexeme{Tok: s.tok, Lit: s.lit, Kind: s.kind, Pos: s.tokPos}
}

// ScanAll scans content into a token stream terminated by an EOF lexeme.
// It stops at the first lexical error.
func ScanAll(filename string, content []byte) ([]Lexeme, error) {
	var first error
	errh := func(line, col uint32, msg string) {
		if first == nil {
			first = &SyntaxError{Pos: src.NewPos(filename, line, col), Msg: msg}
		}
	}
	s := newScanner(filename, content, errh)

	var toks []Lexeme
	for {
		s.Next()
		if first != nil {
			return nil, first
		}
		toks = append(toks, s.Lexeme())
		if s.tok == _EOF {
			return toks, nil
		}
	}
}

// startLit begins accumulating a literal.
func (s *Scanner) startLit() {
	s.litBuf.Reset()
	s.litBuf.WriteRune(s.ch)
}

// continueLit adds the current character to the literal being accumulated.
func (s *Scanner) continueLit() {
	s.litBuf.WriteRune(s.ch)
}

// scanIdent scans an identifier, keyword or boolean literal.
func (s *Scanner) scanIdent() {
	s.startLit()
	s.nextch()

	for isLetter(s.ch) || isDigit(s.ch) {
		s.continueLit()
		s.nextch()
	}

	s.lit = s.litBuf.String()
	if s.lit == "true" || s.lit == "false" {
		s.tok = _Literal
		s.kind = BoolLit
		return
	}
	s.tok = LookupKeyword(s.lit)
}

// radixPrefixes maps the letter after a leading 0 to the digits it
// admits.
var radixPrefixes = map[rune]struct {
	ok  func(rune) bool
	msg string
}{
	'x': {isHexDigit, "invalid hex digit"},
	'o': {isOctalDigit, "invalid octal digit"},
	'b': {isBinaryDigit, "invalid binary digit"},
}

// scanNumber scans an integer or float literal. The literal keeps its
// source spelling; conversion happens during code generation.
func (s *Scanner) scanNumber() {
	s.litBuf.Reset()
	s.kind = IntLit
	s.tok = _Literal
	defer func() { s.lit = s.litBuf.String() }()

	if s.ch == '0' {
		s.continueLit()
		s.nextch()
		if radix, ok := radixPrefixes[lower(s.ch)]; ok && isLetter(s.ch) {
			s.continueLit()
			s.nextch()
			s.scanDigits(radix.ok, radix.msg)
			if isDigit(s.ch) || isLetter(s.ch) {
				s.error(radix.msg)
			}
			return
		}
	}
	s.scanDecimal()
}

// scanDecimal scans decimal digits and an optional fraction or exponent.
func (s *Scanner) scanDecimal() {
	for isDigit(s.ch) {
		s.continueLit()
		s.nextch()
	}
	if s.ch == '.' || lower(s.ch) == 'e' {
		s.scanFraction()
	}
}

// scanDigits scans a non-empty run of digits accepted by ok.
func (s *Scanner) scanDigits(ok func(rune) bool, msg string) {
	if !ok(s.ch) {
		s.error(msg)
		return
	}
	for ok(s.ch) {
		s.continueLit()
		s.nextch()
	}
}

// scanFraction scans the fractional part of a float (. and/or exponent).
func (s *Scanner) scanFraction() {
	if s.ch == '.' {
		// "1..." is an integer followed by an ellipsis
		if s.peek() == '.' {
			return
		}
		s.kind = FloatLit
		s.continueLit()
		s.nextch()
		for isDigit(s.ch) {
			s.continueLit()
			s.nextch()
		}
	}

	if lower(s.ch) == 'e' {
		s.kind = FloatLit
		s.continueLit()
		s.nextch()

		if s.ch == '+' || s.ch == '-' {
			s.continueLit()
			s.nextch()
		}

		if !isDigit(s.ch) {
			s.error("exponent has no digits")
			return
		}
		for isDigit(s.ch) {
			s.continueLit()
			s.nextch()
		}
	}
}

// scanString scans a string literal.
// The resulting literal is the decoded string content (escape sequences are interpreted).
func (s *Scanner) scanString() {
	s.nextch() // skip opening "
	var b strings.Builder

	s.tok = _Literal
	s.kind = StringLit
	for {
		switch {
		case s.ch == '"':
			s.nextch()
			s.lit = b.String()
			return

		case s.ch == '\\':
			if r, ok := s.scanEscape('"'); ok {
				b.WriteRune(r)
			}

		case s.ch == '\n' || s.ch < 0:
			s.error("string not terminated")
			s.lit = b.String()
			return

		default:
			b.WriteRune(s.ch)
			s.nextch()
		}
	}
}

// scanChar scans a character literal. The literal holds the single
// decoded byte.
func (s *Scanner) scanChar() {
	s.nextch() // skip opening '
	s.tok = _Literal
	s.kind = CharLit
	s.lit = "\x00"

	var r rune
	switch {
	case s.ch == '\\':
		var ok bool
		if r, ok = s.scanEscape('\''); !ok {
			return
		}
	case s.ch == '\'' || s.ch == '\n' || s.ch < 0:
		s.error("empty character literal")
		return
	default:
		r = s.ch
		s.nextch()
	}

	if r > 0xff {
		s.error(fmt.Sprintf("character literal %q does not fit in a byte", r))
		return
	}
	if s.ch != '\'' {
		s.error("character literal not terminated")
		return
	}
	s.nextch()
	s.lit = string([]byte{byte(r)})
}

// simpleEscapes maps the character after a backslash to its value.
var simpleEscapes = map[rune]rune{
	'n':  '\n',
	't':  '\t',
	'r':  '\r',
	'0':  0,
	'\\': '\\',
	'\'': '\'',
	'"':  '"',
}

// scanEscape scans an escape sequence and returns the decoded rune.
// A quote only escapes inside literals delimited by it.
func (s *Scanner) scanEscape(quote rune) (rune, bool) {
	s.nextch() // skip \
	ch := s.ch
	if ch == 'x' {
		s.nextch()
		return s.scanHexEscape()
	}
	r, ok := simpleEscapes[ch]
	if !ok || (ch == '\'' || ch == '"') && ch != quote {
		s.error(fmt.Sprintf("unknown escape sequence: \\%c", ch))
		s.nextch()
		return 0, false
	}
	s.nextch()
	return r, true
}

// scanHexEscape scans a \xNN escape sequence.
func (s *Scanner) scanHexEscape() (rune, bool) {
	var val rune
	for i := 0; i < 2; i++ {
		if !isHexDigit(s.ch) {
			s.error("invalid hex escape")
			return 0, false
		}
		val = val*16 + hexValue(s.ch)
		s.nextch()
	}
	return val, true
}

// hexValue returns the numeric value of a hex digit.
func hexValue(r rune) rune {
	switch {
	case '0' <= r && r <= '9':
		return r - '0'
	case 'a' <= lower(r) && lower(r) <= 'f':
		return lower(r) - 'a' + 10
	}
	return 0
}

// operator describes the tokens an operator character starts: one
// alone, or two when followed by next.
type operator struct {
	one  Token
	next rune
	two  Token
}

var operators = map[rune]operator{
	'+': {one: _Add},
	'-': {_Sub, '>', _Arrow},
	'*': {one: _Mul},
	'/': {one: _Div},
	'%': {one: _Rem},
	'&': {_And, '&', _AndAnd},
	'|': {0, '|', _OrOr},
	'<': {_Lss, '=', _Leq},
	'>': {_Gtr, '=', _Geq},
	'=': {_Assign, '=', _Eql},
	'!': {_Not, '=', _Neq},
	':': {_Colon, ':', _Scope},
	'.': {one: _Dot},
	'(': {one: _Lparen},
	')': {one: _Rparen},
	'[': {one: _Lbrack},
	']': {one: _Rbrack},
	'{': {one: _Lbrace},
	'}': {one: _Rbrace},
	',': {one: _Comma},
	';': {one: _Semi},
	'$': {one: _Dollar},
	'#': {one: _Hash},
}

// scanOperator scans an operator or delimiter. It returns true if a
// comment or a bad character was skipped and the caller must rescan.
func (s *Scanner) scanOperator() bool {
	ch := s.ch
	s.nextch()

	switch {
	case ch == '/' && s.ch == '/':
		s.skipLineComment()
		return true
	case ch == '/' && s.ch == '*':
		s.skipBlockComment()
		return true
	case ch == '.' && s.ch == '.' && s.peek() == '.':
		s.nextch()
		s.nextch()
		s.tok = _Ellipsis
		s.lit = s.tok.String()
		return false
	}

	op := operators[ch]
	switch {
	case op.next != 0 && s.ch == op.next:
		s.nextch()
		s.tok = op.two
	case op.one == 0:
		s.error(fmt.Sprintf("unexpected character %q", ch))
		return true
	default:
		s.tok = op.one
	}
	s.lit = s.tok.String()
	return false
}

// skipLineComment skips a line comment (from // to end of line).
func (s *Scanner) skipLineComment() {
	for s.ch != '\n' && s.ch >= 0 {
		s.nextch()
	}
}

// skipBlockComment skips a /* ... */ comment.
func (s *Scanner) skipBlockComment() {
	s.nextch() // skip *
	for s.ch >= 0 {
		if s.ch == '*' {
			s.nextch()
			if s.ch == '/' {
				s.nextch()
				return
			}
			continue
		}
		s.nextch()
	}
	s.error("comment not terminated")
}
