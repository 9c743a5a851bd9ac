package types

import "github.com/you-not-fish/lygos/internal/src"

// BasicInfo describes properties of a base type.
type BasicInfo int

const (
	IsBoolean BasicInfo = 1 << iota
	IsSigned
	IsUnsigned
	IsFloat
	IsVoid
	IsInteger = IsSigned | IsUnsigned
	IsNumeric = IsInteger | IsFloat
)

// Basic describes a base type name.
type Basic struct {
	Name string
	Bits int
	Info BasicInfo
}

// Base holds the base type names, keyed by name. The built-in `str` is
// not a base type; it is a struct registered at module collection.
var Base = map[string]Basic{
	"i8":   {"i8", 8, IsSigned},
	"i16":  {"i16", 16, IsSigned},
	"i32":  {"i32", 32, IsSigned},
	"i64":  {"i64", 64, IsSigned},
	"u8":   {"u8", 8, IsUnsigned},
	"u16":  {"u16", 16, IsUnsigned},
	"u32":  {"u32", 32, IsUnsigned},
	"u64":  {"u64", 64, IsUnsigned},
	"f32":  {"f32", 32, IsFloat},
	"f64":  {"f64", 64, IsFloat},
	"bool": {"bool", 1, IsBoolean},
	"void": {"void", 0, IsVoid},
}

// Well-known type names.
const (
	StrName  = "str"
	SelfName = "Self"
)

// LookupBasic returns the base type information of t, if t is a path
// naming a base type.
func LookupBasic(t Type) (Basic, bool) {
	p, ok := t.(*Path)
	if !ok {
		return Basic{}, false
	}
	b, ok := Base[p.Name]
	return b, ok
}

func hasInfo(t Type, info BasicInfo) bool {
	b, ok := LookupBasic(t)
	return ok && b.Info&info != 0
}

// IsVoidType reports whether t is the void type. A nil type counts as void.
func IsVoidType(t Type) bool {
	return t == nil || hasInfo(t, IsVoid)
}

// IsIntegerType reports whether t is a signed or unsigned integer base type.
func IsIntegerType(t Type) bool { return hasInfo(t, IsInteger) }

// IsSignedType reports whether t is a signed integer base type.
func IsSignedType(t Type) bool { return hasInfo(t, IsSigned) }

// IsUnsignedType reports whether t is an unsigned integer base type.
func IsUnsignedType(t Type) bool { return hasInfo(t, IsUnsigned) }

// IsFloatType reports whether t is f32 or f64.
func IsFloatType(t Type) bool { return hasInfo(t, IsFloat) }

// IsBoolType reports whether t is bool.
func IsBoolType(t Type) bool { return hasInfo(t, IsBoolean) }

// Constructors for compiler-synthesized types.

func Void() Type { return NewPath(src.NoPos, "void") }
func Bool() Type { return NewPath(src.NoPos, "bool") }
func I8() Type   { return NewPath(src.NoPos, "i8") }
func I32() Type  { return NewPath(src.NoPos, "i32") }
func I64() Type  { return NewPath(src.NoPos, "i64") }
func U32() Type  { return NewPath(src.NoPos, "u32") }
func U64() Type  { return NewPath(src.NoPos, "u64") }
func F32() Type  { return NewPath(src.NoPos, "f32") }
func F64() Type  { return NewPath(src.NoPos, "f64") }
func Str() Type  { return NewPath(src.NoPos, StrName) }
