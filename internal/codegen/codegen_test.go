package codegen

import (
	"errors"
	"strings"
	"testing"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	irtypes "github.com/llir/llvm/ir/types"

	"github.com/you-not-fish/lygos/internal/diag"
	"github.com/you-not-fish/lygos/internal/src"
	"github.com/you-not-fish/lygos/internal/syntax"
)

// prelude declares the part of the std library that formatting needs.
const prelude = `
struct Formatter { buf: *mut i8; }
struct FormattingError { code: i32; }
struct Argument { value: *i8; fmt: fn(*i8, *mut Formatter) -> FormattingError; }
struct Arguments { args: *Argument; n: i32; pieces: *str; m: i32; }
struct DebugStruct { fmt: *mut Formatter; has_fields: bool; }
fn Arguments_new(args: *Argument, n: i32, pieces: *str, m: i32) -> Arguments;
impl Formatter {
	fn debug_struct(&mut self, name: str) -> DebugStruct;
	fn write_str(&mut self, s: str) -> FormattingError;
}
trait Debug {
	fn fmt_debug(&self, fmt: &mut Formatter) -> FormattingError;
}
trait Display {
	fn fmt(&self, fmt: &mut Formatter) -> FormattingError;
}
impl DebugStruct {
	fn field(&mut self, name: str, value: Arguments) -> FormattingError;
	fn finish(&mut self) -> FormattingError;
}
`

// generate parses and generates src, failing the test on any error.
// Every defined function is verified.
func generate(t *testing.T, src string) *ir.Module {
	t.Helper()
	m, err := generateErr(src)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	for _, fn := range m.Funcs {
		if len(fn.Blocks) == 0 {
			continue
		}
		if err := fn.AssignIDs(); err != nil {
			t.Fatalf("AssignIDs(%s): %v", fn.Name(), err)
		}
		if err := Verify(fn); err != nil {
			t.Fatalf("Verify(%s): %v\n%s", fn.Name(), err, fn.LLString())
		}
	}
	return m
}

func generateErr(src string) (*ir.Module, error) {
	file, err := syntax.Parse("test.ly", []byte(src), nil)
	if err != nil {
		return nil, err
	}
	return Generate(file, nil)
}

// getFunc returns the function with the given name, or calls t.Fatal.
func getFunc(t *testing.T, m *ir.Module, name string) *ir.Func {
	t.Helper()
	for _, fn := range m.Funcs {
		if fn.Name() == name {
			return fn
		}
	}
	t.Fatalf("function %q not found", name)
	return nil
}

func hasBlock(fn *ir.Func, prefix string) bool {
	for _, b := range fn.Blocks {
		if strings.HasPrefix(b.LocalName, prefix) {
			return true
		}
	}
	return false
}

// retConst returns the constant returned by the last block of fn.
func retConst(t *testing.T, fn *ir.Func) constant.Constant {
	t.Helper()
	ret, ok := fn.Blocks[len(fn.Blocks)-1].Term.(*ir.TermRet)
	if !ok || ret.X == nil {
		t.Fatalf("%s does not return a value", fn.Name())
	}
	c, ok := ret.X.(constant.Constant)
	if !ok {
		t.Fatalf("%s returns %T, want a constant", fn.Name(), ret.X)
	}
	return c
}

// --- Load discipline ---

func TestShouldLoad(t *testing.T) {
	name := &syntax.Name{Value: "x"}
	lit := &syntax.BasicLit{Value: "1", Kind: syntax.IntLit}
	tests := []struct {
		e    syntax.Expr
		want bool
	}{
		{name, true},
		{&syntax.SelectorExpr{X: name, Sel: &syntax.Name{Value: "f"}}, true},
		{&syntax.IndexExpr{X: name, Index: lit}, true},
		{&syntax.InitList{}, true},
		{&syntax.Operation{Op: syntax.Mul, X: name}, true},
		{&syntax.Operation{Op: syntax.Not, X: name}, true},
		{&syntax.Operation{Op: syntax.Sub, X: name}, true},
		{&syntax.Operation{Op: syntax.And, X: name}, false},
		{&syntax.Operation{Op: syntax.Add, X: name, Y: lit}, false},
		{&syntax.ParenExpr{X: name}, true},
		{&syntax.ParenExpr{X: lit}, false},
		{lit, false},
		{&syntax.CallExpr{Fun: name}, false},
		{&syntax.CastExpr{X: name}, false},
		{&syntax.ResolutionExpr{X: name, Sel: name}, false},
	}
	for _, tt := range tests {
		if got := ShouldLoad(tt.e); got != tt.want {
			t.Errorf("ShouldLoad(%s) = %v, want %v", syntax.ExprString(tt.e), got, tt.want)
		}
	}
}

func TestParamsLiveInStackSlots(t *testing.T) {
	m := generate(t, `fn add(a: i32, b: i32) -> i32 { return a + b; }`)
	fn := getFunc(t, m, "add")
	if len(fn.Blocks) != 1 {
		t.Fatalf("blocks = %d, want 1", len(fn.Blocks))
	}
	allocas := 0
	for _, inst := range fn.Blocks[0].Insts {
		if _, ok := inst.(*ir.InstAlloca); ok {
			allocas++
		}
	}
	if allocas != 2 {
		t.Errorf("allocas = %d, want 2", allocas)
	}
}

// --- Control flow ---

func TestIfBothBranchesReturn(t *testing.T) {
	m := generate(t, `
fn f(c: bool) -> i32 {
	if c {
		return 1;
	} else {
		return 2;
	}
}
`)
	fn := getFunc(t, m, "f")
	if hasBlock(fn, "if.end") {
		t.Errorf("unreachable merge block kept:\n%s", fn.LLString())
	}
	returns := 0
	for _, b := range fn.Blocks {
		if strings.HasPrefix(b.LocalName, "return") {
			returns++
		}
	}
	if returns != 1 {
		t.Errorf("return blocks = %d, want 1:\n%s", returns, fn.LLString())
	}
}

func TestIfFallsThrough(t *testing.T) {
	m := generate(t, `
fn f(c: bool) -> i32 {
	let mut x = 0;
	if c {
		x = 1;
	}
	return x;
}
`)
	fn := getFunc(t, m, "f")
	if !hasBlock(fn, "if.end") {
		t.Errorf("missing merge block:\n%s", fn.LLString())
	}
	if hasBlock(fn, "if.else") {
		t.Errorf("else block without else branch:\n%s", fn.LLString())
	}
}

func TestStatementsAfterReturnDropped(t *testing.T) {
	m := generate(t, `
fn f() -> i32 {
	return 1;
	return 2;
}
`)
	fn := getFunc(t, m, "f")
	if len(fn.Blocks) != 1 {
		t.Fatalf("blocks = %d, want 1:\n%s", len(fn.Blocks), fn.LLString())
	}
	c := retConst(t, fn).(*constant.Int)
	if c.X.Int64() != 1 {
		t.Errorf("returns %v, want 1", c.X)
	}
}

func TestLoops(t *testing.T) {
	m := generate(t, `
fn sum(n: i32) -> i32 {
	let mut s = 0;
	for let mut i = 0 in i < n {
		if i == 10 {
			break;
		}
		s = s + i;
		i = i + 1;
	}
	while s > 100 {
		s = s - 1;
	}
	return s;
}
`)
	fn := getFunc(t, m, "sum")
	for _, b := range []string{"for.cond", "for.body", "for.end"} {
		if !hasBlock(fn, b) {
			t.Errorf("missing %s block:\n%s", b, fn.LLString())
		}
	}
}

func TestMatch(t *testing.T) {
	m := generate(t, `
enum Color: u8 { Red, Green, Blue }
fn code(c: Color) -> i32 {
	match c {
		Color::Red -> { return 1; }
		Color::Green -> { return 2; }
	}
	return 0;
}
`)
	fn := getFunc(t, m, "code")
	if !hasBlock(fn, "match.case") || !hasBlock(fn, "match.end") {
		t.Errorf("missing match blocks:\n%s", fn.LLString())
	}
}

func TestShortCircuit(t *testing.T) {
	m := generate(t, `fn both(a: bool, b: bool) -> bool { return a && b || !a; }`)
	fn := getFunc(t, m, "both")
	phis := 0
	for _, b := range fn.Blocks {
		for _, inst := range b.Insts {
			if _, ok := inst.(*ir.InstPhi); ok {
				phis++
			}
		}
	}
	if phis != 2 {
		t.Errorf("phis = %d, want 2:\n%s", phis, fn.LLString())
	}
}

// --- Literals and constants ---

func TestLiteralTakesExpectedType(t *testing.T) {
	m := generate(t, `
fn small() -> u8 { return 7; }
fn wide() -> f64 { return 1; }
fn letter() -> i8 { return 'a'; }
fn def() -> i32 { let x = 3; return x; }
`)
	tests := []struct {
		fn   string
		want irtypes.Type
	}{
		{"small", irtypes.I8},
		{"wide", irtypes.Double},
		{"letter", irtypes.I8},
	}
	for _, tt := range tests {
		c := retConst(t, getFunc(t, m, tt.fn))
		if !c.Type().Equal(tt.want) {
			t.Errorf("%s returns %s, want %s", tt.fn, c.Type(), tt.want)
		}
	}
	if got := getFunc(t, m, "def").Sig.RetType; !got.Equal(irtypes.I32) {
		t.Errorf("def returns %s, want i32", got)
	}
}

func TestEnumVariantValue(t *testing.T) {
	m := generate(t, `
enum Color: u8 { Red, Green, Blue }
fn green() -> Color { return Color::Green; }
`)
	c := retConst(t, getFunc(t, m, "green")).(*constant.Int)
	if c.X.Int64() != 1 || !c.Type().Equal(irtypes.I8) {
		t.Errorf("Color::Green = %s %v, want i8 1", c.Type(), c.X)
	}
}

func TestStatics(t *testing.T) {
	m := generate(t, `
struct P { x: i32; y: i32; }
static LIMIT: i32 = -5;
static ORIGIN: P = { .y = 2 };
static COUNT: u64;
fn limit() -> i32 { return LIMIT; }
`)
	globals := make(map[string]*ir.Global)
	for _, g := range m.Globals {
		globals[g.Name()] = g
	}
	for _, name := range []string{"LIMIT", "ORIGIN", "COUNT"} {
		if globals[name] == nil {
			t.Errorf("missing global %s", name)
		}
	}
	if c, ok := globals["LIMIT"].Init.(*constant.Int); !ok || c.X.Int64() != -5 {
		t.Errorf("LIMIT = %v, want -5", globals["LIMIT"].Init)
	}
	if _, ok := globals["COUNT"].Init.(*constant.ZeroInitializer); !ok {
		t.Errorf("COUNT = %v, want zeroinitializer", globals["COUNT"].Init)
	}
}

func TestSizeof(t *testing.T) {
	m := generate(t, `
struct S { a: i8; b: i64; c: i16; }
fn size() -> u64 { return sizeof$(S); }
fn ptr() -> u64 { return sizeof$(*S); }
fn local() -> u64 { let v: [i32; 5] = {}; return sizeof$(v); }
`)
	tests := []struct {
		fn   string
		want int64
	}{
		{"size", 24},
		{"ptr", 8},
		{"local", 20},
	}
	for _, tt := range tests {
		c := retConst(t, getFunc(t, m, tt.fn)).(*constant.Int)
		if c.X.Int64() != tt.want {
			t.Errorf("%s = %v, want %d", tt.fn, c.X, tt.want)
		}
	}
}

func TestStringLiteralsPooled(t *testing.T) {
	m := generate(t, `
fn a() -> str { return "hi"; }
fn b() -> str { return "hi"; }
fn c() -> str { return file$(); }
`)
	strs := 0
	for _, g := range m.Globals {
		if strings.HasPrefix(g.Name(), ".str.") {
			strs++
		}
	}
	if strs != 2 {
		t.Errorf("string globals = %d, want 2", strs)
	}
}

// --- Casts ---

func TestCasts(t *testing.T) {
	m := generate(t, `
struct A { x: i32; y: i32; }
struct B { a: i32; b: i32; }
fn widen(x: i8) -> i64 { return (:i64)x; }
fn narrow(x: u64) -> u8 { return (:u8)x; }
fn tofloat(x: i32) -> f64 { return (:f64)x; }
fn addr(p: *i32) -> u64 { return (:u64)p; }
fn reinterpret(a: A) -> B { return (:B)a; }
`)
	want := map[string]string{
		"widen":       "sext",
		"narrow":      "trunc",
		"tofloat":     "sitofp",
		"addr":        "ptrtoint",
		"reinterpret": "bitcast",
	}
	for name, inst := range want {
		if fn := getFunc(t, m, name); !strings.Contains(fn.LLString(), inst) {
			t.Errorf("%s does not use %s:\n%s", name, inst, fn.LLString())
		}
	}
}

// --- Structs, methods and traits ---

func TestMethods(t *testing.T) {
	m := generate(t, `
struct Counter { n: i32; }
impl Counter {
	fn new() -> Counter { return { .n = 0 }; }
	fn get(&self) -> i32 { return self.n; }
	fn bump(&mut self) { self.n = self.n + 1; }
	fn value(self) -> i32 { return self.n; }
}
fn run() -> i32 {
	let mut c = Counter::new();
	c.bump();
	let p = &c;
	p->bump();
	return c.get() + c.value();
}
`)
	for _, name := range []string{"Counter_new", "Counter_get", "Counter_bump", "Counter_value"} {
		getFunc(t, m, name)
	}
}

func TestImplBeforeStruct(t *testing.T) {
	m := generate(t, `
impl Late {
	fn get(&self) -> i32 { return self.v; }
}
struct Late { v: i32; }
`)
	getFunc(t, m, "Late_get")
}

func TestTraitImpl(t *testing.T) {
	generate(t, `
trait Shape {
	fn area(&self) -> f64;
	fn scaled(&self, by: f64) -> Self;
}
struct Square { side: f64; }
impl Shape for Square {
	fn area(&self) -> f64 { return self.side * self.side; }
	fn scaled(&self, by: f64) -> Square { return { .side = self.side * by }; }
}
`)
}

func TestClosure(t *testing.T) {
	m := generate(t, `
fn apply(f: fn(i32) -> i32, x: i32) -> i32 { return f(x); }
fn run() -> i32 {
	let double = fn(a: i32) -> i32 { return a * 2; };
	return apply(double, 4);
}
`)
	fn := getFunc(t, m, "run.closure.1")
	if len(fn.Blocks) == 0 {
		t.Errorf("closure has no body")
	}
}

func TestFormatArgs(t *testing.T) {
	m := generate(t, prelude+`
fn show(x: i32, p: *i8) -> Arguments {
	return format_args$("x = {}, p = {:?}!", x, p);
}
`)
	getFunc(t, m, "i32_fmt")
	getFunc(t, m, "ptr_fmt")
	fn := getFunc(t, m, "show")
	if !strings.Contains(fn.LLString(), "@Arguments_new") {
		t.Errorf("show does not call Arguments_new:\n%s", fn.LLString())
	}
}

func TestImplDebug(t *testing.T) {
	m := generate(t, prelude+`
struct Node { value: i32; next: *Node; }
impl_debug$(Node);
fn show(n: Node) -> Arguments { return format_args$("{:?}", n); }
`)
	fn := getFunc(t, m, "Node_fmt_debug")
	if len(fn.Blocks) == 0 {
		t.Fatalf("Node_fmt_debug has no body")
	}
}

func TestSplitFormat(t *testing.T) {
	tests := []struct {
		in     string
		pieces []string
		debug  []bool
	}{
		{"plain", []string{"plain"}, nil},
		{"{}", []string{""}, []bool{false}},
		{"a {} b {:?}", []string{"a ", " b "}, []bool{false, true}},
		{"{{}} {}!", []string{"{} ", "!"}, []bool{false}},
	}
	for _, tt := range tests {
		pieces, specs, err := splitFormat(tt.in, src.NoPos)
		if err != nil {
			t.Errorf("splitFormat(%q): %v", tt.in, err)
			continue
		}
		if strings.Join(pieces, "|") != strings.Join(tt.pieces, "|") {
			t.Errorf("splitFormat(%q) pieces = %q, want %q", tt.in, pieces, tt.pieces)
		}
		if len(specs) != len(tt.debug) {
			t.Errorf("splitFormat(%q) specs = %d, want %d", tt.in, len(specs), len(tt.debug))
			continue
		}
		for i, s := range specs {
			if s.debug != tt.debug[i] {
				t.Errorf("splitFormat(%q) spec %d debug = %v", tt.in, i, s.debug)
			}
		}
	}
}

// --- Verification ---

func TestVerifyRejectsMissingTerminator(t *testing.T) {
	m := ir.NewModule()
	fn := m.NewFunc("bad", irtypes.Void)
	fn.NewBlock("")
	err := Verify(fn)
	if err == nil || !strings.Contains(err.Error(), "block has no terminator") {
		t.Errorf("Verify = %v, want missing terminator", err)
	}
}

func TestVerifyRejectsForeignSuccessor(t *testing.T) {
	m := ir.NewModule()
	other := m.NewFunc("other", irtypes.Void)
	target := other.NewBlock("target")
	target.NewRet(nil)

	fn := m.NewFunc("bad", irtypes.Void)
	fn.NewBlock("").NewBr(target)
	err := Verify(fn)
	if err == nil || !strings.Contains(err.Error(), "not in function") {
		t.Errorf("Verify = %v, want foreign successor", err)
	}
}

func TestVerifyRejectsEntryPredecessor(t *testing.T) {
	m := ir.NewModule()
	fn := m.NewFunc("loop", irtypes.Void)
	entry := fn.NewBlock("")
	entry.NewBr(entry)
	err := Verify(fn)
	if err == nil || !strings.Contains(err.Error(), "entry block has 1 predecessors") {
		t.Errorf("Verify = %v, want entry predecessor", err)
	}
}

func TestIndexThroughReference(t *testing.T) {
	m := generate(t, `
fn second(r: &[i32; 4]) -> i32 {
	return r[1];
}
fn call() -> i32 {
	let a: [i32; 4] = { 1, 2, 3, 4 };
	return second(&a);
}
`)
	fn := getFunc(t, m, "second")
	var gep *ir.InstGetElementPtr
	for _, b := range fn.Blocks {
		for _, inst := range b.Insts {
			if g, ok := inst.(*ir.InstGetElementPtr); ok {
				gep = g
			}
		}
	}
	if gep == nil {
		t.Fatalf("no getelementptr:\n%s", fn.LLString())
	}
	if !gep.ElemType.Equal(irtypes.NewArray(4, irtypes.I32)) || len(gep.Indices) != 2 {
		t.Errorf("element address = %s, want an index into [4 x i32]", gep.LLString())
	}
}

func TestDeadCodeDiscarded(t *testing.T) {
	m := generate(t, `
fn f(c: bool) -> i32 {
	while c {
		break;
		if c { return 3; }
	}
	return 1;
	let y: i32 = 2;
	if c { return y; }
}
`)
	fn := getFunc(t, m, "f")
	if hasBlock(fn, "dead") {
		t.Errorf("dead block kept:\n%s", fn.LLString())
	}
	for _, b := range fn.Blocks {
		if strings.HasPrefix(b.LocalName, "if.") {
			t.Errorf("block %s of unreachable if kept:\n%s", b.LocalName, fn.LLString())
		}
	}
	if _, ok := retConst(t, fn).(*constant.Int); !ok {
		t.Errorf("last block does not return a constant:\n%s", fn.LLString())
	}
}

func TestLiteralRange(t *testing.T) {
	m := generate(t, `
static LOW: i8 = -128;
static TOP: u64 = 18446744073709551615;
fn f() -> u8 {
	let a: i8 = -128;
	let b: i8 = 127;
	let c: u16 = 65535;
	let d: f64 = -3;
	return 255;
}
`)
	if c, ok := retConst(t, getFunc(t, m, "f")).(*constant.Int); !ok || c.X.Uint64() != 255 {
		t.Errorf("f returns %v, want 255", c)
	}
	for _, g := range m.Globals {
		if g.Name() == "LOW" {
			if c, ok := g.Init.(*constant.Int); !ok || c.X.Int64() != -128 {
				t.Errorf("LOW = %v, want -128", g.Init)
			}
		}
	}
}

func TestStructCastLabels(t *testing.T) {
	_, err := generateErr(`struct A { x: i32; } struct B { y: f64; } fn f(a: A) { let b = (:B)a; }`)
	var d *diag.Error
	if !errors.As(err, &d) {
		t.Fatalf("error = %v, want a diagnostic", err)
	}
	if !d.HasLabel("from `A`") || !d.HasLabel("to `B`") {
		t.Errorf("labels = %v, want both from `A` and to `B`", d.Labels)
	}
	if len(d.Labels) != 2 || d.Labels[0].Pos == d.Labels[1].Pos {
		t.Errorf("labels = %v, want two distinct positions", d.Labels)
	}
}

// --- Diagnostics ---

func TestErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"arity", `fn g(a: i32) -> i32 { return a; } fn f() { g(1, 2); }`,
			"function `g` expected `1` args, but `2` were supplied"},
		{"arity_missing", `fn g(a: i32) -> i32 { return a; } fn f() { g(); }`,
			"function `g` expected `1` args, but `0` were supplied"},
		{"dead_unknown", `fn f() -> i32 { return 1; let y: i32 = nope; }`,
			"unknown identifier `nope`"},
		{"dead_after_break", `fn f() { while true { break; g(); } }`,
			"unknown identifier `g`"},
		{"dead_after_if", `fn f(c: bool) -> i32 { if c { return 1; } else { return 2; } return true; }`,
			"invalid return type `bool` for function with return type `i32`"},
		{"literal_u8", `fn f() { let x: u8 = 300; }`, "literal out of range for `u8`"},
		{"literal_i8", `fn f() { let x: i8 = 128; }`, "literal out of range for `i8`"},
		{"literal_negative_unsigned", `fn f() { let x: u32 = -1; }`, "literal out of range for `u32`"},
		{"literal_default_i32", `fn f() { let x = 4294967296; }`, "literal out of range for `i32`"},
		{"literal_static", `static X: i8 = -129;`, "literal out of range for `i8`"},
		{"literal_argument", `fn g(a: u8) {} fn f() { g(256); }`, "literal out of range for `u8`"},
		{"arg_type", `fn g(a: i32) {} fn f() { g(true); }`,
			"invalid argument type for function `g`"},
		{"break", `fn f() { break; }`, "invalid break point"},
		{"void_return_value", `fn f() { return 1; }`,
			"invalid return type `i32` for function with return type `void`"},
		{"missing_return_value", `fn f() -> i32 { return; }`,
			"missing return value in function with return type `i32`"},
		{"wrong_return_type", `fn f() -> i32 { return true; }`,
			"invalid return type `bool` for function with return type `i32`"},
		{"immutable", `fn f() { let x = 1; x = 2; }`,
			"cannot assign twice to immutable variable `x`"},
		{"assign_type", `fn f() { let mut x: i32 = 0; x = true; }`, "missmatched types"},
		{"condition", `fn f() { if 1 { } }`, "expected condition of type `bool`"},
		{"void_let", `fn g() {} fn f() { let x = g(); }`, "cannot bind a void value to `x`"},
		{"unknown_variant", `enum E { A } fn f() { let x = E::B; }`,
			"unknown enum variant `B` in enum `E`"},
		{"binary_mismatch", `fn f(a: i32, b: f32) { let c = a + b; }`,
			"invalid operant to binary operator `+`"},
		{"deref_value", `fn f(a: i32) { let b = *a; }`, "cannot deref value type `i32`"},
		{"not_callable", `fn f(a: i32) { a(); }`, "`a` is not a function"},
		{"struct_cast", `struct A { x: i32; } struct B { y: f64; } fn f(a: A) { let b = (:B)a; }`,
			"unable to convert types"},
		{"no_receiver", `struct S { x: i32; } impl S { fn make() -> i32 { return 1; } } fn f(s: S) { s.make(); }`,
			"function `make` of struct `S` takes no receiver"},
		{"unknown_field", `struct S { x: i32; } fn f(s: S) -> i32 { return s.y; }`, "`y`"},
		{"missing_trait_method", `trait T { fn a(&self); } struct S { x: i32; } impl T for S { }`,
			"missing method `a` of trait `T`"},
		{"trait_signature", `trait T { fn a(&self) -> i32; } struct S { x: i32; } impl T for S { fn a(&self) -> u8 { return 1; } }`,
			"does not match its declaration in trait `T`"},
		{"extra_trait_method", `trait T { } struct S { x: i32; } impl T for S { fn b(&self) { } }`,
			"method `b` is not a member of trait `T`"},
		{"self_outside_impl", `fn f(a: Self) {}`, "cannot resolve `Self` here"},
		{"duplicate_field", `struct S { x: i32; x: u8; }`, "duplicate field `x` in struct `S`"},
		{"duplicate_variant", `enum E { A, A }`, "duplicate variant `A` in enum `E`"},
		{"float_enum", `enum E: f32 { A }`, "enum `E` must have an integer type"},
		{"static_not_const", `fn g() -> i32 { return 1; } static X: i32 = g();`,
			"static initializer must be a constant expression"},
		{"init_list_untyped", `fn f() { let x = { 1 }; }`, "cannot infer the type of an initializer list"},
		{"format_literal", `fn f() { let a = format_args$(1); }`,
			"expected string literal as first argument to `format_args`"},
		{"format_count", `fn f() { let a = format_args$("{} {}", 1); }`,
			"macro `format_args` expected `2` args, but `1` were provided"},
		{"format_spec", `fn f() { let a = format_args$("{:x}", 1); }`, "unknown format"},
		{"format_display", prelude + `struct P { x: i32; } fn f(p: P) { let a = format_args$("{}", p); }`,
			"type `P` does not implement trait `Display`"},
		{"format_array", prelude + `fn f(a: [i32; 2]) { let b = format_args$("{}", a); }`,
			"cannot format type `[i32; 2]` with the default formatter"},
		{"debug_unknown", `impl_debug$(Nope);`, "`Nope`"},
		{"intrinsic_stmt", `fn f() { let a = impl_debug$(S); }`, "cannot be used as an expression"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := generateErr(tt.src)
			if err == nil {
				t.Fatalf("no error, want %q", tt.want)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want %q", err, tt.want)
			}
		})
	}
}
