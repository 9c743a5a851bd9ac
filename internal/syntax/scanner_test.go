package syntax

import (
	"strings"
	"testing"
)

func TestScanTokens(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		tokens []Token
		lits   []string
	}{
		// Identifiers
		{"ident", "foo", []Token{_Name}, []string{"foo"}},
		{"ident_underscore", "_bar", []Token{_Name}, []string{"_bar"}},
		{"ident_mixed", "foo123", []Token{_Name}, []string{"foo123"}},

		// Base type names and self are plain identifiers
		{"type_i32", "i32", []Token{_Name}, []string{"i32"}},
		{"type_str", "str", []Token{_Name}, []string{"str"}},
		{"self", "self", []Token{_Name}, []string{"self"}},
		{"Self", "Self", []Token{_Name}, []string{"Self"}},

		// Integer literals
		{"int_dec", "123", []Token{_Literal}, []string{"123"}},
		{"int_zero", "0", []Token{_Literal}, []string{"0"}},
		{"int_hex", "0x1f", []Token{_Literal}, []string{"0x1f"}},
		{"int_oct", "0o77", []Token{_Literal}, []string{"0o77"}},
		{"int_bin", "0b1010", []Token{_Literal}, []string{"0b1010"}},
		{"int_leading_zero", "007", []Token{_Literal}, []string{"007"}},

		// Float literals
		{"float_simple", "3.14", []Token{_Literal}, []string{"3.14"}},
		{"float_exp", "1e10", []Token{_Literal}, []string{"1e10"}},
		{"float_exp_neg", "2.5e-3", []Token{_Literal}, []string{"2.5e-3"}},

		// String and char literals (decoded content)
		{"string_simple", `"hello"`, []Token{_Literal}, []string{"hello"}},
		{"string_empty", `""`, []Token{_Literal}, []string{""}},
		{"string_escape_n", `"a\nb"`, []Token{_Literal}, []string{"a\nb"}},
		{"string_escape_quote", `"a\"b"`, []Token{_Literal}, []string{"a\"b"}},
		{"string_escape_hex", `"\x41\x42"`, []Token{_Literal}, []string{"AB"}},
		{"char_simple", "'a'", []Token{_Literal}, []string{"a"}},
		{"char_escape", `'\n'`, []Token{_Literal}, []string{"\n"}},
		{"char_quote", `'\''`, []Token{_Literal}, []string{"'"}},
		{"char_zero", `'\0'`, []Token{_Literal}, []string{"\x00"}},

		// Bool literals
		{"true", "true", []Token{_Literal}, []string{"true"}},
		{"false", "false", []Token{_Literal}, []string{"false"}},

		// Operators and delimiters
		{"op_add", "+", []Token{_Add}, []string{"+"}},
		{"op_sub", "-", []Token{_Sub}, []string{"-"}},
		{"op_arrow", "->", []Token{_Arrow}, []string{"->"}},
		{"op_colon", ":", []Token{_Colon}, []string{":"}},
		{"op_scope", "::", []Token{_Scope}, []string{"::"}},
		{"op_andand", "&&", []Token{_AndAnd}, []string{"&&"}},
		{"op_oror", "||", []Token{_OrOr}, []string{"||"}},
		{"op_eql", "==", []Token{_Eql}, []string{"=="}},
		{"op_neq", "!=", []Token{_Neq}, []string{"!="}},
		{"op_leq", "<=", []Token{_Leq}, []string{"<="}},
		{"op_geq", ">=", []Token{_Geq}, []string{">="}},
		{"dot", ".", []Token{_Dot}, []string{"."}},
		{"ellipsis", "...", []Token{_Ellipsis}, []string{"..."}},
		{"dot_dot", "..", []Token{_Dot, _Dot}, []string{".", "."}},
		{"dollar", "$", []Token{_Dollar}, []string{"$"}},
		{"hash", "#", []Token{_Hash}, []string{"#"}},
		{"macro_call", "m$(a)", []Token{_Name, _Dollar, _Lparen, _Name, _Rparen}, []string{"m", "$", "(", "a", ")"}},
		{"concat", "a ## b", []Token{_Name, _Hash, _Hash, _Name}, []string{"a", "#", "#", "b"}},

		// Keywords
		{"kw_fn", "fn", []Token{_Fn}, []string{"fn"}},
		{"kw_let_mut", "let mut", []Token{_Let, _Mut}, []string{"let", "mut"}},
		{"kw_impl", "impl", []Token{_Impl}, []string{"impl"}},
		{"kw_macro", "macro", []Token{_Macro}, []string{"macro"}},

		// Newlines are plain whitespace
		{"newlines", "a\n\nb\n", []Token{_Name, _Name}, []string{"a", "b"}},

		// Comments
		{"line_comment", "a // comment\nb", []Token{_Name, _Name}, []string{"a", "b"}},
		{"block_comment", "a /* x\ny */ b", []Token{_Name, _Name}, []string{"a", "b"}},

		// Integer followed by ellipsis stays an integer
		{"int_ellipsis", "1...", []Token{_Literal, _Ellipsis}, []string{"1", "..."}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScanner("test", strings.NewReader(tt.src), nil)
			for i, want := range tt.tokens {
				s.Next()
				if s.Token() != want {
					t.Fatalf("token %d: got %v, want %v", i, s.Token(), want)
				}
				if s.Literal() != tt.lits[i] {
					t.Errorf("token %d: literal = %q, want %q", i, s.Literal(), tt.lits[i])
				}
			}
			s.Next()
			if !s.Token().IsEOF() {
				t.Errorf("expected EOF, got %v", s.Token())
			}
		})
	}
}

func TestScanLitKind(t *testing.T) {
	tests := []struct {
		src  string
		kind LitKind
	}{
		{"42", IntLit},
		{"0xff", IntLit},
		{"1.5", FloatLit},
		{"1e3", FloatLit},
		{`"s"`, StringLit},
		{"'c'", CharLit},
		{"true", BoolLit},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			s := NewScanner("test", strings.NewReader(tt.src), nil)
			s.Next()
			if s.Token() != _Literal {
				t.Fatalf("Token() = %v, want LITERAL", s.Token())
			}
			if s.LitKind() != tt.kind {
				t.Errorf("LitKind() = %v, want %v", s.LitKind(), tt.kind)
			}
		})
	}
}

func TestPosition(t *testing.T) {
	src := `fn foo() {
    let x: i32 = 1;
}`
	expected := []struct {
		tok       Token
		line, col uint32
	}{
		{_Fn, 1, 1},
		{_Name, 1, 4},
		{_Lparen, 1, 7},
		{_Rparen, 1, 8},
		{_Lbrace, 1, 10},
		{_Let, 2, 5},
		{_Name, 2, 9},
		{_Colon, 2, 10},
		{_Name, 2, 12},
		{_Assign, 2, 16},
		{_Literal, 2, 18},
		{_Semi, 2, 19},
		{_Rbrace, 3, 1},
	}

	s := NewScanner("test.ly", strings.NewReader(src), nil)
	for i, exp := range expected {
		s.Next()
		pos := s.Pos()
		if s.Token() != exp.tok {
			t.Errorf("token %d: got %v, want %v", i, s.Token(), exp.tok)
		}
		if pos.Line() != exp.line || pos.Col() != exp.col {
			t.Errorf("token %d (%v): pos = %d:%d, want %d:%d",
				i, s.Token(), pos.Line(), pos.Col(), exp.line, exp.col)
		}
	}
}

func TestScanErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr string
	}{
		{"unterminated_string", `"hello`, "string not terminated"},
		{"bad_escape", `"\q"`, "unknown escape sequence"},
		{"bad_hex_escape", `"\xGG"`, "invalid hex escape"},
		{"bad_hex_literal", "0xGG", "invalid hex digit"},
		{"bad_octal_literal", "0o99", "invalid octal digit"},
		{"bad_binary_literal", "0b123", "invalid binary digit"},
		{"empty_exponent", "1e", "exponent has no digits"},
		{"empty_char", "''", "empty character literal"},
		{"long_char", "'ab'", "character literal not terminated"},
		{"wide_char", "'中'", "does not fit in a byte"},
		{"single_pipe", "a | b", "unexpected character"},
		{"bad_char", "@", "unexpected character"},
		{"open_comment", "/* never closed", "comment not terminated"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var errMsg string
			errh := func(line, col uint32, msg string) {
				if errMsg == "" {
					errMsg = msg
				}
			}
			s := NewScanner("test", strings.NewReader(tt.src), errh)
			for i := 0; i < 100; i++ {
				s.Next()
				if s.Token().IsEOF() {
					break
				}
			}
			if errMsg == "" {
				t.Errorf("expected error containing %q, got no error", tt.wantErr)
			} else if !strings.Contains(errMsg, tt.wantErr) {
				t.Errorf("expected error containing %q, got %q", tt.wantErr, errMsg)
			}
		})
	}
}

func TestScanAll(t *testing.T) {
	toks, err := ScanAll("main.ly", []byte(`#include "std.ly"
fn main() -> i32 { return 0; }`))
	if err != nil {
		t.Fatalf("ScanAll() error = %v", err)
	}
	want := []Token{
		_Hash, _Name, _Literal,
		_Fn, _Name, _Lparen, _Rparen, _Arrow, _Name, _Lbrace,
		_Return, _Literal, _Semi, _Rbrace, _EOF,
	}
	if len(toks) != len(want) {
		t.Fatalf("ScanAll() returned %d tokens, want %d", len(toks), len(want))
	}
	for i, tok := range want {
		if toks[i].Tok != tok {
			t.Errorf("token %d = %v, want %v", i, toks[i].Tok, tok)
		}
	}
	if toks[2].Lit != "std.ly" || toks[2].Kind != StringLit {
		t.Errorf("include path = %+v", toks[2])
	}
	if toks[3].Pos.Line() != 2 || toks[3].Pos.Filename() != "main.ly" {
		t.Errorf("fn position = %v, want main.ly:2:1", toks[3].Pos)
	}
}

func TestScanAllError(t *testing.T) {
	_, err := ScanAll("bad.ly", []byte("let x = \"open"))
	if err == nil {
		t.Fatal("ScanAll() error = nil, want error")
	}
	if got := err.Error(); !strings.HasPrefix(got, "bad.ly:1:") || !strings.Contains(got, "string not terminated") {
		t.Errorf("ScanAll() error = %q", got)
	}
}

func TestLexemeString(t *testing.T) {
	tests := []struct {
		lex  Lexeme
		want string
	}{
		{Lexeme{Tok: _Name, Lit: "foo"}, "foo"},
		{Lexeme{Tok: _Literal, Lit: "12", Kind: IntLit}, "12"},
		{Lexeme{Tok: _Literal, Lit: "a\"b", Kind: StringLit}, `"a\"b"`},
		{Lexeme{Tok: _Literal, Lit: "x", Kind: CharLit}, "'x'"},
		{Lexeme{Tok: _Scope, Lit: "::"}, "::"},
	}
	for _, tt := range tests {
		if got := tt.lex.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func FuzzScanner(f *testing.F) {
	seeds := []string{
		"fn foo() -> i32 { return 123; }",
		`let s: str = "hello\nworld";`,
		"let x = 0x1F + 0b1010;",
		"if a && b || c { }",
		"for let mut i: u32 = 0 in i < 10 { i = i + 1; }",
		"struct Point { x: i32; };",
		"macro m { (a: $, b: []) -> { $a ## $b } }",
		"E::A",
		"'c'",
		"/* comment */ foo",
	}
	for _, seed := range seeds {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, src string) {
		errh := func(line, col uint32, msg string) {}
		s := NewScanner("fuzz", strings.NewReader(src), errh)
		for i := 0; i < 10000; i++ {
			s.Next()
			if s.Token().IsEOF() {
				break
			}
		}
	})
}
