package codegen

import (
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	irtypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/you-not-fish/lygos/internal/diag"
	"github.com/you-not-fish/lygos/internal/src"
	"github.com/you-not-fish/lygos/internal/syntax"
	"github.com/you-not-fish/lygos/internal/types"
)

func (g *Generator) castExpr(e *syntax.CastExpr) (operand, error) {
	x, err := g.value(e.X, e.Type)
	if err != nil {
		return operand{}, err
	}
	return g.convert(x, e.Type, e.X.Pos(), e.Type.Pos())
}

// convert casts x to type to. The conversion is chosen by the first
// rule that applies, in order: identity, int to int, pointer to
// pointer, pointer to int, float to float, int to float, float to int,
// int to pointer, and struct to struct when both structs have the same
// field layout.
func (g *Generator) convert(x operand, to types.Type, fromPos, toPos src.Pos) (operand, error) {
	if g.matches(x.typ, to) {
		return operand{x.v, to}, nil
	}
	dst, err := g.irType(to)
	if err != nil {
		return operand{}, err
	}
	from, into := g.underlying(x.typ), g.underlying(to)
	srcT := x.v.Type()
	b := g.f.b

	var v value.Value
	switch {
	case isInt(from) && isInt(into):
		v = g.intToInt(x.v, from, into, dst)

	case isPtr(from, srcT) && isPtr(into, dst):
		v = b.NewBitCast(x.v, dst)

	case isPtr(from, srcT) && isInt(into):
		v = b.NewPtrToInt(x.v, dst)

	case types.IsFloatType(from) && types.IsFloatType(into):
		if floatBits(srcT) < floatBits(dst) {
			v = b.NewFPExt(x.v, dst)
		} else {
			v = b.NewFPTrunc(x.v, dst)
		}

	case isInt(from) && types.IsFloatType(into):
		if types.IsSignedType(from) {
			v = b.NewSIToFP(x.v, dst)
		} else {
			v = b.NewUIToFP(x.v, dst)
		}

	case types.IsFloatType(from) && isInt(into):
		switch {
		case types.IsBoolType(into):
			v = b.NewFCmp(enum.FPredUNE, x.v, constant.NewFloat(srcT.(*irtypes.FloatType), 0))
		case types.IsSignedType(into):
			v = b.NewFPToSI(x.v, dst)
		default:
			v = b.NewFPToUI(x.v, dst)
		}

	case isInt(from) && isPtr(into, dst):
		v = b.NewIntToPtr(x.v, dst)

	default:
		if ok, err := g.sameLayout(from, into); err != nil {
			return operand{}, err
		} else if ok {
			slot, err := g.spill(x)
			if err != nil {
				return operand{}, err
			}
			p := b.NewBitCast(slot.v, irtypes.NewPointer(dst))
			v = b.NewLoad(dst, p)
			break
		}
		return operand{}, diag.At(fromPos, "from `"+x.typ.String()+"`", "unable to convert types").
			WithLabel(toPos, "to `%s`", to)
	}
	return operand{v, to}, nil
}

// intToInt truncates or extends by the source's signedness. bool
// targets compare against zero; bool sources zero-extend.
func (g *Generator) intToInt(v value.Value, from, into types.Type, dst irtypes.Type) value.Value {
	b := g.f.b
	if types.IsBoolType(into) && !types.IsBoolType(from) {
		return b.NewICmp(enum.IPredNE, v, constant.NewInt(v.Type().(*irtypes.IntType), 0))
	}
	fromBits := v.Type().(*irtypes.IntType).BitSize
	toBits := dst.(*irtypes.IntType).BitSize
	switch {
	case fromBits > toBits:
		return b.NewTrunc(v, dst)
	case fromBits < toBits:
		if types.IsSignedType(from) {
			return b.NewSExt(v, dst)
		}
		return b.NewZExt(v, dst)
	}
	// Same width: the backend type carries no signedness.
	return v
}

// sameLayout reports whether two struct types have the same field
// backend types in the same order.
func (g *Generator) sameLayout(from, into types.Type) (bool, error) {
	fs, ok := g.structOf(from)
	if !ok {
		return false, nil
	}
	is, ok := g.structOf(into)
	if !ok {
		return false, nil
	}
	ft, err := g.scopes.StructType(fs)
	if err != nil {
		return false, err
	}
	it, err := g.scopes.StructType(is)
	if err != nil {
		return false, err
	}
	if len(ft.Fields) != len(it.Fields) {
		return false, nil
	}
	for i := range ft.Fields {
		if !ft.Fields[i].Equal(it.Fields[i]) {
			return false, nil
		}
	}
	return true, nil
}

func isInt(t types.Type) bool {
	return types.IsIntegerType(t) || types.IsBoolType(t)
}

// isPtr reports whether t is a pointer; function pointers count by
// their backend type.
func isPtr(t types.Type, ir irtypes.Type) bool {
	if types.IsPointer(t) {
		return true
	}
	_, ok := ir.(*irtypes.PointerType)
	return ok
}

func floatBits(t irtypes.Type) int {
	if ft, ok := t.(*irtypes.FloatType); ok && ft.Kind == irtypes.FloatKindDouble {
		return 64
	}
	return 32
}
