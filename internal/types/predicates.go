package types

import "github.com/you-not-fish/lygos/internal/src"

// Matches reports whether x and y denote the same type. Two pointers match
// when their pointees match, regardless of reference-ness or mutability.
// Everything else compares the full rendered name.
func Matches(x, y Type) bool {
	if x == nil || y == nil {
		return IsVoidType(x) && IsVoidType(y)
	}
	xp, xok := x.(*Pointer)
	yp, yok := y.(*Pointer)
	if xok && yok {
		return Matches(xp.Elem, yp.Elem)
	}
	return x.String() == y.String()
}

// IsPointer reports whether t is a raw pointer or a reference.
func IsPointer(t Type) bool {
	_, ok := t.(*Pointer)
	return ok
}

// IsReference reports whether t is a reference (&T or &mut T).
func IsReference(t Type) bool {
	p, ok := t.(*Pointer)
	return ok && p.IsRef
}

// Elem returns the element type of a pointer, array or slice, or nil.
func Elem(t Type) Type {
	switch t := t.(type) {
	case *Pointer:
		return t.Elem
	case *Array:
		return t.Elem
	case *Slice:
		return t.Elem
	}
	return nil
}

// Substitute returns t with every path named from replaced by a path named
// to. It is used to resolve Self inside impl blocks.
func Substitute(t Type, from, to string) Type {
	switch t := t.(type) {
	case *Path:
		if t.Name == from {
			return NewPath(t.pos, to)
		}
		return t
	case *Pointer:
		return &Pointer{typ: t.typ, Elem: Substitute(t.Elem, from, to), IsRef: t.IsRef, IsMut: t.IsMut}
	case *Array:
		return NewArray(t.pos, Substitute(t.Elem, from, to), t.Len)
	case *Slice:
		return NewSlice(t.pos, Substitute(t.Elem, from, to))
	case *FuncPointer:
		params := make([]Type, len(t.Params))
		for i, p := range t.Params {
			params[i] = Substitute(p, from, to)
		}
		var result Type
		if t.Result != nil {
			result = Substitute(t.Result, from, to)
		}
		return NewFuncPointer(t.pos, params, result, t.Variadic)
	}
	return t
}

// WithPos returns a copy of t positioned at pos.
func WithPos(t Type, pos src.Pos) Type {
	switch t := t.(type) {
	case *Path:
		return NewPath(pos, t.Name)
	case *Pointer:
		return &Pointer{typ: typ{pos}, Elem: t.Elem, IsRef: t.IsRef, IsMut: t.IsMut}
	case *Array:
		return NewArray(pos, t.Elem, t.Len)
	case *Slice:
		return NewSlice(pos, t.Elem)
	case *FuncPointer:
		return NewFuncPointer(pos, t.Params, t.Result, t.Variadic)
	}
	return t
}
