package codegen

import (
	"github.com/you-not-fish/lygos/internal/diag"
	"github.com/you-not-fish/lygos/internal/rtabi"
	"github.com/you-not-fish/lygos/internal/scope"
	"github.com/you-not-fish/lygos/internal/src"
	"github.com/you-not-fish/lygos/internal/types"
)

// Sizes computes sizes and alignments of source types with the x86-64
// layout rules of the target data layout.
type Sizes struct {
	scopes *scope.Table
	id     scope.ID
}

// Sizeof returns the size of t in bytes.
func (s *Sizes) Sizeof(t types.Type, pos src.Pos) (int64, error) {
	size, _, err := s.layout(t, pos)
	return size, err
}

// Alignof returns the alignment of t in bytes.
func (s *Sizes) Alignof(t types.Type, pos src.Pos) (int64, error) {
	_, a, err := s.layout(t, pos)
	return a, err
}

func (s *Sizes) layout(t types.Type, pos src.Pos) (size, alignment int64, err error) {
	switch t := t.(type) {
	case nil:
		return 0, 1, nil

	case *types.Pointer, *types.FuncPointer:
		return rtabi.SizePtr, rtabi.AlignPtr, nil

	case *types.Slice:
		return rtabi.SizePtr + 8, rtabi.AlignPtr, nil

	case *types.Array:
		size, a, err := s.layout(t.Elem, pos)
		if err != nil {
			return 0, 0, err
		}
		return size * int64(t.Len), a, nil

	case *types.Path:
		if b, ok := types.Base[t.Name]; ok {
			n := int64((b.Bits + 7) / 8)
			if n == 0 {
				return 0, 1, nil
			}
			return n, n, nil
		}
		sym, err := s.scopes.ResolveSymbol(s.id, t.Name, pos)
		if err != nil {
			return 0, 0, err
		}
		switch sym := sym.(type) {
		case *scope.Struct:
			return s.structLayout(sym, pos)
		case *scope.Enum:
			return s.layout(sym.Underlying, pos)
		case *scope.TypeAlias:
			return s.layout(sym.Target, pos)
		}
		return 0, 0, diag.At(pos, "not a type", "`%s` is a %s, not a type", t.Name, sym.Kind())
	}
	diag.Internal("unexpected type %T", t)
	return 0, 0, nil
}

// structLayout lays the fields out in order, each at its alignment,
// and pads the struct to its largest field alignment.
func (s *Sizes) structLayout(st *scope.Struct, pos src.Pos) (int64, int64, error) {
	// Recursive structs are rejected by type resolution first.
	if _, err := s.scopes.StructType(st); err != nil {
		return 0, 0, err
	}
	var offset int64
	var maxAlign int64 = 1
	for _, f := range st.Fields() {
		size, a, err := s.layout(f.Type, pos)
		if err != nil {
			return 0, 0, err
		}
		offset = align(offset, a)
		offset += size
		if a > maxAlign {
			maxAlign = a
		}
	}
	return align(offset, maxAlign), maxAlign, nil
}

// align returns x rounded up to a multiple of a.
func align(x, a int64) int64 {
	return (x + a - 1) &^ (a - 1)
}
