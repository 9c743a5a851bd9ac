package types

import (
	"fmt"
	"strings"

	"github.com/you-not-fish/lygos/internal/src"
)

// Path represents a named type: a base type, struct, enum, alias or Self.
type Path struct {
	typ
	Name string
}

// NewPath creates a named type.
func NewPath(pos src.Pos, name string) *Path {
	return &Path{typ: typ{pos}, Name: name}
}

// String implements Type.
func (p *Path) String() string {
	return p.Name
}

// Pointer represents a raw pointer (*T, *mut T) or a reference (&T, &mut T).
type Pointer struct {
	typ
	Elem  Type
	IsRef bool
	IsMut bool
}

// NewPointer creates a raw pointer type.
func NewPointer(pos src.Pos, elem Type, mut bool) *Pointer {
	return &Pointer{typ: typ{pos}, Elem: elem, IsMut: mut}
}

// NewRef creates a reference type.
func NewRef(pos src.Pos, elem Type, mut bool) *Pointer {
	return &Pointer{typ: typ{pos}, Elem: elem, IsRef: true, IsMut: mut}
}

// String implements Type.
func (p *Pointer) String() string {
	var b strings.Builder
	if p.IsRef {
		b.WriteByte('&')
	} else {
		b.WriteByte('*')
	}
	if p.IsMut {
		b.WriteString("mut ")
	}
	b.WriteString(p.Elem.String())
	return b.String()
}

// Array represents a fixed-length array type [T; N].
type Array struct {
	typ
	Elem Type
	Len  uint64
}

// NewArray creates an array type.
func NewArray(pos src.Pos, elem Type, n uint64) *Array {
	return &Array{typ: typ{pos}, Elem: elem, Len: n}
}

// String implements Type.
func (a *Array) String() string {
	return fmt.Sprintf("[%s; %d]", a.Elem, a.Len)
}

// Slice represents a pointer/length view [T].
type Slice struct {
	typ
	Elem Type
}

// NewSlice creates a slice type.
func NewSlice(pos src.Pos, elem Type) *Slice {
	return &Slice{typ: typ{pos}, Elem: elem}
}

// String implements Type.
func (s *Slice) String() string {
	return "[" + s.Elem.String() + "]"
}

// FuncPointer represents a function pointer type fn(A, B) -> R.
type FuncPointer struct {
	typ
	Params   []Type
	Result   Type // nil for void
	Variadic bool
}

// NewFuncPointer creates a function pointer type.
func NewFuncPointer(pos src.Pos, params []Type, result Type, variadic bool) *FuncPointer {
	return &FuncPointer{typ: typ{pos}, Params: params, Result: result, Variadic: variadic}
}

// String implements Type.
func (f *FuncPointer) String() string {
	var b strings.Builder
	b.WriteString("fn(")
	for i, p := range f.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.String())
	}
	if f.Variadic {
		if len(f.Params) > 0 {
			b.WriteString(", ")
		}
		b.WriteString("...")
	}
	b.WriteByte(')')
	if !IsVoidType(f.Result) {
		b.WriteString(" -> ")
		b.WriteString(f.Result.String())
	}
	return b.String()
}
