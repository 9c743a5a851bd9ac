package types

import (
	"testing"

	"github.com/you-not-fish/lygos/internal/src"
)

func path(name string) Type { return NewPath(src.NoPos, name) }

func TestTypeString(t *testing.T) {
	pos := src.NoPos
	tests := []struct {
		typ  Type
		want string
	}{
		{path("i32"), "i32"},
		{NewPointer(pos, path("i8"), false), "*i8"},
		{NewPointer(pos, path("i8"), true), "*mut i8"},
		{NewRef(pos, path("Point"), false), "&Point"},
		{NewRef(pos, path("Point"), true), "&mut Point"},
		{NewArray(pos, path("u8"), 16), "[u8; 16]"},
		{NewSlice(pos, path("u8")), "[u8]"},
		{NewFuncPointer(pos, []Type{path("i32"), path("i32")}, path("bool"), false), "fn(i32, i32) -> bool"},
		{NewFuncPointer(pos, nil, nil, false), "fn()"},
		{NewFuncPointer(pos, []Type{NewPointer(pos, path("i8"), false)}, path("i32"), true), "fn(*i8, ...) -> i32"},
		{NewPointer(pos, NewArray(pos, NewRef(pos, path("S"), false), 2), false), "*[&S; 2]"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.typ.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMatches(t *testing.T) {
	pos := src.NoPos
	tests := []struct {
		name string
		a, b Type
		want bool
	}{
		{"same path", path("i32"), path("i32"), true},
		{"different path", path("i32"), path("u32"), false},
		{"ref vs raw pointer", NewRef(pos, path("S"), false), NewPointer(pos, path("S"), false), true},
		{"mut vs immutable pointer", NewPointer(pos, path("S"), true), NewPointer(pos, path("S"), false), true},
		{"pointer to pointer", NewPointer(pos, NewRef(pos, path("i8"), false), false), NewPointer(pos, NewPointer(pos, path("i8"), true), false), true},
		{"different pointee", NewPointer(pos, path("i8"), false), NewPointer(pos, path("i16"), false), false},
		{"pointer vs value", NewPointer(pos, path("S"), false), path("S"), false},
		{"same array", NewArray(pos, path("i32"), 4), NewArray(pos, path("i32"), 4), true},
		{"different array len", NewArray(pos, path("i32"), 4), NewArray(pos, path("i32"), 5), false},
		{"same func pointer", NewFuncPointer(pos, []Type{path("i32")}, nil, false), NewFuncPointer(pos, []Type{path("i32")}, path("void"), false), true},
		{"nil and void", nil, path("void"), true},
		{"nil and i32", nil, path("i32"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Matches(tt.a, tt.b); got != tt.want {
				t.Errorf("Matches(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestMatchesIgnoresPosition(t *testing.T) {
	a := NewPath(src.NewPos("a.ly", 1, 1), "Point")
	b := NewPath(src.NewPos("b.ly", 9, 9), "Point")
	if !Matches(a, b) {
		t.Errorf("Matches() should ignore positions")
	}
}

func TestBasicPredicates(t *testing.T) {
	tests := []struct {
		name                             string
		integer, signed, unsigned, float bool
		void                             bool
	}{
		{"i8", true, true, false, false, false},
		{"i64", true, true, false, false, false},
		{"u16", true, false, true, false, false},
		{"f32", false, false, false, true, false},
		{"f64", false, false, false, true, false},
		{"bool", false, false, false, false, false},
		{"void", false, false, false, false, true},
		{"Point", false, false, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			typ := path(tt.name)
			if got := IsIntegerType(typ); got != tt.integer {
				t.Errorf("IsIntegerType = %v", got)
			}
			if got := IsSignedType(typ); got != tt.signed {
				t.Errorf("IsSignedType = %v", got)
			}
			if got := IsUnsignedType(typ); got != tt.unsigned {
				t.Errorf("IsUnsignedType = %v", got)
			}
			if got := IsFloatType(typ); got != tt.float {
				t.Errorf("IsFloatType = %v", got)
			}
			if got := IsVoidType(typ); got != tt.void {
				t.Errorf("IsVoidType = %v", got)
			}
		})
	}
}

func TestSubstitute(t *testing.T) {
	pos := src.NoPos
	self := NewRef(pos, path(SelfName), true)
	got := Substitute(self, SelfName, "Point")
	if got.String() != "&mut Point" {
		t.Errorf("Substitute() = %s, want &mut Point", got)
	}
	if self.String() != "&mut Self" {
		t.Errorf("Substitute() modified its input: %s", self)
	}

	fp := NewFuncPointer(pos, []Type{self}, path(SelfName), false)
	if got := Substitute(fp, SelfName, "Point").String(); got != "fn(&mut Point) -> Point" {
		t.Errorf("Substitute(func) = %s", got)
	}
}

func TestElem(t *testing.T) {
	pos := src.NoPos
	if Elem(NewPointer(pos, path("i8"), false)).String() != "i8" {
		t.Errorf("Elem(pointer) wrong")
	}
	if Elem(NewArray(pos, path("u8"), 3)).String() != "u8" {
		t.Errorf("Elem(array) wrong")
	}
	if Elem(path("i32")) != nil {
		t.Errorf("Elem(path) should be nil")
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		typ  Type
		want string
	}{
		{Void(), "void"},
		{Bool(), "bool"},
		{I8(), "i8"},
		{I32(), "i32"},
		{I64(), "i64"},
		{U32(), "u32"},
		{U64(), "u64"},
		{F32(), "f32"},
		{F64(), "f64"},
		{Str(), StrName},
	}
	for _, tt := range tests {
		if got := tt.typ.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
		if !Matches(tt.typ, path(tt.want)) {
			t.Errorf("%s does not match its own name", tt.want)
		}
	}
}
