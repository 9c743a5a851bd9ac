package codegen

import (
	"fmt"
	"strconv"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	irtypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/you-not-fish/lygos/internal/diag"
	"github.com/you-not-fish/lygos/internal/scope"
	"github.com/you-not-fish/lygos/internal/src"
	"github.com/you-not-fish/lygos/internal/syntax"
	"github.com/you-not-fish/lygos/internal/types"
)

// gen generates e. The result is an address if ShouldLoad(e), and a
// value otherwise.
func (g *Generator) gen(e syntax.Expr, want types.Type) (operand, error) {
	switch e := e.(type) {
	case *syntax.Name:
		return g.name(e, want)

	case *syntax.BasicLit:
		return g.basicLit(e, want)

	case *syntax.Operation:
		switch {
		case e.Y == nil:
			return g.unary(e, want)
		case e.Op == syntax.AndAnd || e.Op == syntax.OrOr:
			return g.shortCircuit(e)
		}
		return g.binary(e, want)

	case *syntax.CallExpr:
		return g.call(e)

	case *syntax.SelectorExpr:
		return g.selector(e)

	case *syntax.IndexExpr:
		return g.index(e)

	case *syntax.ResolutionExpr:
		return g.resolution(e)

	case *syntax.CastExpr:
		return g.castExpr(e)

	case *syntax.InitList:
		return g.initList(e, want)

	case *syntax.ParenExpr:
		return g.gen(e.X, want)

	case *syntax.ClosureExpr:
		return g.closure(e)

	case *syntax.IntrinsicCall:
		return g.intrinsic(e)
	}
	diag.Internal("unexpected expression %T", e)
	return operand{}, nil
}

// name yields the address of a variable. A reference variable is
// dereferenced unless the consumer expects a pointer.
func (g *Generator) name(e *syntax.Name, want types.Type) (operand, error) {
	sym, err := g.scopes.ResolveSymbol(g.current(), e.Value, e.Pos())
	if err != nil {
		return operand{}, err
	}
	switch sym := sym.(type) {
	case *scope.Variable:
		x := operand{sym.Addr, sym.Type}
		if types.IsReference(sym.Type) && !types.IsPointer(g.underlying(want)) {
			ref, err := g.load(x)
			if err != nil {
				return operand{}, err
			}
			return operand{ref.v, types.Elem(sym.Type)}, nil
		}
		return x, nil

	case *scope.Function:
		fn, err := g.funcIR(sym)
		if err != nil {
			return operand{}, err
		}
		return g.spill(operand{fn, funcType(sym)})
	}
	return operand{}, diag.At(e.Pos(), "not a value", "`%s` is a %s, not a value", e.Value, sym.Kind()).
		WithLabel(sym.Pos(), "`%s` declared here", e.Value)
}

// basicLit generates a literal. Numeric literals take the expected
// type when it is numeric: integers default to i32, floats to f32 and
// chars to i8.
func (g *Generator) basicLit(e *syntax.BasicLit, want types.Type) (operand, error) {
	w := g.underlying(want)
	switch e.Kind {
	case syntax.IntLit:
		return g.intLit(e, want, false)

	case syntax.FloatLit:
		f, err := strconv.ParseFloat(e.Value, 64)
		if err != nil {
			return operand{}, diag.At(e.Pos(), "invalid literal", "invalid float literal `%s`", e.Value)
		}
		typ := types.F32()
		if types.IsFloatType(w) {
			typ = want
		}
		return g.floatConst(f, typ)

	case syntax.CharLit:
		var n int64
		if len(e.Value) > 0 {
			n = int64(e.Value[0])
		}
		typ := types.I8()
		if types.IsIntegerType(w) {
			typ = want
		}
		return g.intConst(n, typ)

	case syntax.BoolLit:
		return operand{constant.NewBool(e.Value == "true"), types.Bool()}, nil

	case syntax.StringLit:
		c, err := g.strConst(e.Value)
		if err != nil {
			return operand{}, err
		}
		return operand{c, types.Str()}, nil
	}
	diag.Internal("unexpected literal kind %v", e.Kind)
	return operand{}, nil
}

var zero32 = constant.NewInt(irtypes.I32, 0)

func int32Const(i int) constant.Constant {
	return constant.NewInt(irtypes.I32, int64(i))
}

// intLit generates an integer literal, negated if neg. The value must
// fit the literal's type.
func (g *Generator) intLit(e *syntax.BasicLit, want types.Type, neg bool) (operand, error) {
	u, err := strconv.ParseUint(e.Value, 0, 64)
	if err != nil {
		return operand{}, diag.At(e.Pos(), "invalid literal", "invalid integer literal `%s`", e.Value)
	}
	w := g.underlying(want)
	if types.IsFloatType(w) {
		f := float64(u)
		if neg {
			f = -f
		}
		return g.floatConst(f, want)
	}
	typ := types.I32()
	if types.IsIntegerType(w) {
		typ = want
	}
	t, err := g.irType(typ)
	if err != nil {
		return operand{}, err
	}
	if !fitsInt(u, neg, t.(*irtypes.IntType).BitSize, types.IsSignedType(g.underlying(typ))) {
		label := e.Value
		if neg {
			label = "-" + label
		}
		return operand{}, diag.At(e.Pos(), fmt.Sprintf("`%s` does not fit", label), "literal out of range for `%s`", typ)
	}
	n := int64(u)
	if neg {
		n = -n
	}
	return operand{constant.NewInt(t.(*irtypes.IntType), n), typ}, nil
}

// fitsInt reports whether u, negated if neg, is representable in an
// integer of the given width and signedness.
func fitsInt(u uint64, neg bool, bits uint64, signed bool) bool {
	switch {
	case !signed && neg:
		return u == 0
	case !signed:
		return bits >= 64 || u < 1<<bits
	case neg:
		return u <= 1<<(bits-1)
	default:
		return u <= 1<<(bits-1)-1
	}
}

func (g *Generator) intConst(n int64, typ types.Type) (operand, error) {
	t, err := g.irType(typ)
	if err != nil {
		return operand{}, err
	}
	return operand{constant.NewInt(t.(*irtypes.IntType), n), typ}, nil
}

func (g *Generator) floatConst(f float64, typ types.Type) (operand, error) {
	t, err := g.irType(typ)
	if err != nil {
		return operand{}, err
	}
	ft := t.(*irtypes.FloatType)
	if ft.Kind == irtypes.FloatKindFloat {
		f = float64(float32(f))
	}
	return operand{constant.NewFloat(ft, f), typ}, nil
}

// strConst returns a str constant over a private global holding s. The
// global is NUL-terminated for C consumers; the length excludes it.
func (g *Generator) strConst(s string) (constant.Constant, error) {
	st, err := g.strType()
	if err != nil {
		return nil, err
	}
	glob, ok := g.strs[s]
	if !ok {
		glob = g.m.NewGlobalDef(fmt.Sprintf(".str.%d", len(g.strs)), constant.NewCharArrayFromString(s+"\x00"))
		glob.Linkage = enum.LinkagePrivate
		glob.Immutable = true
		g.strs[s] = glob
	}
	zero := constant.NewInt(irtypes.I64, 0)
	ptr := constant.NewGetElementPtr(glob.ContentType, glob, zero, zero)
	return constant.NewStruct(st, ptr, constant.NewInt(irtypes.I64, int64(len(s)))), nil
}

func (g *Generator) strType() (*irtypes.StructType, error) {
	s, err := g.scopes.ResolveStruct(g.scopes.Root(), types.StrName, src.NoPos)
	if err != nil {
		return nil, err
	}
	return g.scopes.StructType(s)
}

// unary generates ! - * and &. Only & yields a value; the others yield
// an address, so ! and - spill their result.
func (g *Generator) unary(e *syntax.Operation, want types.Type) (operand, error) {
	switch e.Op {
	case syntax.And:
		x, err := g.addressOf(e.X, nil)
		if err != nil {
			return operand{}, err
		}
		return operand{x.v, types.NewPointer(e.Pos(), x.typ, false)}, nil

	case syntax.Mul:
		x, err := g.value(e.X, anyPointer)
		if err != nil {
			return operand{}, err
		}
		elem, ok := g.elemOf(x.typ)
		if !ok {
			return operand{}, cannotDeref(e.X.Pos(), x.typ)
		}
		return operand{x.v, elem}, nil

	case syntax.Not:
		x, err := g.value(e.X, types.Bool())
		if err != nil {
			return operand{}, err
		}
		u := g.underlying(x.typ)
		var v value.Value
		switch {
		case types.IsBoolType(u):
			v = g.f.b.NewXor(x.v, constant.NewBool(true))
		case types.IsIntegerType(u):
			t, err := g.irType(u)
			if err != nil {
				return operand{}, err
			}
			v = g.f.b.NewXor(x.v, constant.NewInt(t.(*irtypes.IntType), -1))
		default:
			return operand{}, unknownUnary(e, x.typ)
		}
		return g.spill(operand{v, x.typ})

	case syntax.Sub:
		if lit, ok := e.X.(*syntax.BasicLit); ok && lit.Kind == syntax.IntLit {
			x, err := g.intLit(lit, want, true)
			if err != nil {
				return operand{}, err
			}
			return g.spill(x)
		}
		x, err := g.value(e.X, want)
		if err != nil {
			return operand{}, err
		}
		u := g.underlying(x.typ)
		var v value.Value
		switch {
		case types.IsIntegerType(u):
			t, err := g.irType(u)
			if err != nil {
				return operand{}, err
			}
			v = g.f.b.NewSub(constant.NewInt(t.(*irtypes.IntType), 0), x.v)
		case types.IsFloatType(u):
			v = g.f.b.NewFNeg(x.v)
		default:
			return operand{}, unknownUnary(e, x.typ)
		}
		return g.spill(operand{v, x.typ})
	}
	return operand{}, unknownUnary(e, nil)
}

func unknownUnary(e *syntax.Operation, t types.Type) *diag.Error {
	err := diag.Errorf("unknown unary operator `%s`", e.Op)
	if t != nil {
		return err.WithLabel(e.Pos(), "operand has type `%s`", t)
	}
	return err.WithLabel(e.Pos(), "unknown operator")
}

func cannotDeref(pos src.Pos, t types.Type) *diag.Error {
	return diag.At(pos, "not a pointer", "cannot deref value type `%s`", t)
}

// elemOf returns the pointee of a pointer type.
func (g *Generator) elemOf(t types.Type) (types.Type, bool) {
	if types.IsPointer(t) {
		return types.Elem(t), true
	}
	if u := g.underlying(t); types.IsPointer(u) {
		return types.Elem(u), true
	}
	return nil, false
}

// untyped reports whether e is a numeric literal whose type comes from
// its context.
func untyped(e syntax.Expr) bool {
	switch e := e.(type) {
	case *syntax.BasicLit:
		return e.Kind == syntax.IntLit || e.Kind == syntax.FloatLit
	case *syntax.Operation:
		return e.Y == nil && e.Op == syntax.Sub && untyped(e.X)
	case *syntax.ParenExpr:
		return untyped(e.X)
	}
	return false
}

// binary generates arithmetic and comparisons. Both operands must have
// the same type; a literal operand takes the type of the other one.
func (g *Generator) binary(e *syntax.Operation, want types.Type) (operand, error) {
	if e.Op.IsComparison() {
		want = nil
	}
	var x, y operand
	var err error
	if untyped(e.X) && !untyped(e.Y) {
		if y, err = g.value(e.Y, want); err != nil {
			return operand{}, err
		}
		if x, err = g.value(e.X, y.typ); err != nil {
			return operand{}, err
		}
	} else {
		if x, err = g.value(e.X, want); err != nil {
			return operand{}, err
		}
		if y, err = g.value(e.Y, x.typ); err != nil {
			return operand{}, err
		}
	}

	xt, yt := g.underlying(x.typ), g.underlying(y.typ)
	if types.IsPointer(xt) && types.IsIntegerType(yt) && (e.Op == syntax.Add || e.Op == syntax.Sub) {
		return g.pointerArith(e, x, y)
	}
	if !types.Matches(xt, yt) {
		return operand{}, diag.At(e.X.Pos(), fmt.Sprintf("left hand side has type `%s`", x.typ),
			"invalid operant to binary operator `%s`", e.Op).
			WithLabel(e.Y.Pos(), "right hand side has type `%s`", y.typ)
	}

	b := g.f.b
	if e.Op.IsComparison() {
		var v value.Value
		switch {
		case types.IsFloatType(xt):
			v = b.NewFCmp(floatPred(e.Op), x.v, y.v)
		case types.IsIntegerType(xt):
			v = b.NewICmp(intPred(e.Op, types.IsSignedType(xt)), x.v, y.v)
		case types.IsPointer(xt), types.IsBoolType(xt):
			v = b.NewICmp(intPred(e.Op, false), x.v, y.v)
		default:
			return operand{}, invalidOperand(e, x.typ)
		}
		return operand{v, types.Bool()}, nil
	}

	var v value.Value
	switch {
	case types.IsIntegerType(xt):
		signed := types.IsSignedType(xt)
		switch e.Op {
		case syntax.Add:
			v = b.NewAdd(x.v, y.v)
		case syntax.Sub:
			v = b.NewSub(x.v, y.v)
		case syntax.Mul:
			v = b.NewMul(x.v, y.v)
		case syntax.Div:
			if signed {
				v = b.NewSDiv(x.v, y.v)
			} else {
				v = b.NewUDiv(x.v, y.v)
			}
		case syntax.Rem:
			if signed {
				v = b.NewSRem(x.v, y.v)
			} else {
				v = b.NewURem(x.v, y.v)
			}
		}
	case types.IsFloatType(xt):
		switch e.Op {
		case syntax.Add:
			v = b.NewFAdd(x.v, y.v)
		case syntax.Sub:
			v = b.NewFSub(x.v, y.v)
		case syntax.Mul:
			v = b.NewFMul(x.v, y.v)
		case syntax.Div:
			v = b.NewFDiv(x.v, y.v)
		case syntax.Rem:
			v = b.NewFRem(x.v, y.v)
		}
	}
	if v == nil {
		return operand{}, invalidOperand(e, x.typ)
	}
	return operand{v, x.typ}, nil
}

func invalidOperand(e *syntax.Operation, t types.Type) *diag.Error {
	return diag.At(e.Pos(), fmt.Sprintf("operator not defined on type `%s`", t),
		"invalid operant to binary operator `%s`", e.Op)
}

func intPred(op syntax.Token, signed bool) enum.IPred {
	switch op {
	case syntax.Eql:
		return enum.IPredEQ
	case syntax.Neq:
		return enum.IPredNE
	case syntax.Lss:
		if signed {
			return enum.IPredSLT
		}
		return enum.IPredULT
	case syntax.Leq:
		if signed {
			return enum.IPredSLE
		}
		return enum.IPredULE
	case syntax.Gtr:
		if signed {
			return enum.IPredSGT
		}
		return enum.IPredUGT
	case syntax.Geq:
		if signed {
			return enum.IPredSGE
		}
		return enum.IPredUGE
	}
	diag.Internal("not a comparison: %s", op)
	return 0
}

func floatPred(op syntax.Token) enum.FPred {
	switch op {
	case syntax.Eql:
		return enum.FPredOEQ
	case syntax.Neq:
		return enum.FPredUNE
	case syntax.Lss:
		return enum.FPredOLT
	case syntax.Leq:
		return enum.FPredOLE
	case syntax.Gtr:
		return enum.FPredOGT
	case syntax.Geq:
		return enum.FPredOGE
	}
	diag.Internal("not a comparison: %s", op)
	return 0
}

// pointerArith offsets a pointer by an integer number of elements.
func (g *Generator) pointerArith(e *syntax.Operation, p, n operand) (operand, error) {
	elem, _ := g.elemOf(p.typ)
	t, err := g.irType(elem)
	if err != nil {
		return operand{}, err
	}
	if t.Equal(irtypes.Void) {
		t = irtypes.I8
	}
	idx := n.v
	if e.Op == syntax.Sub {
		it, err := g.irType(n.typ)
		if err != nil {
			return operand{}, err
		}
		idx = g.f.b.NewSub(constant.NewInt(it.(*irtypes.IntType), 0), n.v)
	}
	return operand{g.f.b.NewGetElementPtr(t, p.v, idx), p.typ}, nil
}

// shortCircuit generates && and ||; the right operand is evaluated
// only when it decides the result.
func (g *Generator) shortCircuit(e *syntax.Operation) (operand, error) {
	x, err := g.value(e.X, types.Bool())
	if err != nil {
		return operand{}, err
	}
	if !types.IsBoolType(g.underlying(x.typ)) {
		return operand{}, invalidOperand(e, x.typ)
	}

	isAnd := e.Op == syntax.AndAnd
	bRight := g.newBlock("sc.rhs")
	bMerge := g.newBlock("sc.end")
	bLeft := g.f.b
	if isAnd {
		bLeft.NewCondBr(x.v, bRight, bMerge)
	} else {
		bLeft.NewCondBr(x.v, bMerge, bRight)
	}

	g.startBlock(bRight)
	y, err := g.value(e.Y, types.Bool())
	if err != nil {
		return operand{}, err
	}
	if !types.IsBoolType(g.underlying(y.typ)) {
		return operand{}, invalidOperand(e, y.typ)
	}
	// The right operand may itself have split the block.
	bRightEnd := g.f.b
	bRightEnd.NewBr(bMerge)

	g.startBlock(bMerge)
	phi := bMerge.NewPhi(
		ir.NewIncoming(constant.NewBool(!isAnd), bLeft),
		ir.NewIncoming(y.v, bRightEnd),
	)
	return operand{phi, types.Bool()}, nil
}

// selector yields the address of a struct field.
func (g *Generator) selector(e *syntax.SelectorExpr) (operand, error) {
	base, err := g.selectorBase(e)
	if err != nil {
		return operand{}, err
	}
	s, ok := g.structOf(base.typ)
	if !ok {
		return operand{}, diag.At(e.Sel.Pos(), "unknown field", "unknown field `%s` in type `%s`", e.Sel.Value, base.typ)
	}
	return g.fieldAddr(base, s, e.Sel)
}

// selectorBase returns the address of the value e selects from. x.f
// reads through a reference, x->f through any pointer.
func (g *Generator) selectorBase(e *syntax.SelectorExpr) (operand, error) {
	if e.Arrow {
		x, err := g.value(e.X, anyPointer)
		if err != nil {
			return operand{}, err
		}
		elem, ok := g.elemOf(x.typ)
		if !ok {
			return operand{}, cannotDeref(e.X.Pos(), x.typ)
		}
		return operand{x.v, elem}, nil
	}
	x, err := g.addressOf(e.X, nil)
	if err != nil {
		return operand{}, err
	}
	if types.IsReference(x.typ) {
		ref, err := g.load(x)
		if err != nil {
			return operand{}, err
		}
		return operand{ref.v, types.Elem(x.typ)}, nil
	}
	return x, nil
}

// index yields the address of an array, pointer or slice element. A
// reference base indexes its referent.
func (g *Generator) index(e *syntax.IndexExpr) (operand, error) {
	x, err := g.addressOf(e.X, anyPointer)
	if err != nil {
		return operand{}, err
	}
	if types.IsReference(x.typ) {
		ref, err := g.load(x)
		if err != nil {
			return operand{}, err
		}
		x = operand{ref.v, types.Elem(x.typ)}
	}
	i, err := g.value(e.Index, nil)
	if err != nil {
		return operand{}, err
	}
	if !types.IsIntegerType(g.underlying(i.typ)) {
		return operand{}, diag.At(e.Index.Pos(), fmt.Sprintf("index has type `%s`", i.typ), "index must be an integer")
	}

	b := g.f.b
	switch u := g.underlying(x.typ).(type) {
	case *types.Array:
		t, err := g.irType(x.typ)
		if err != nil {
			return operand{}, err
		}
		return operand{b.NewGetElementPtr(t, x.v, constant.NewInt(irtypes.I64, 0), i.v), u.Elem}, nil

	case *types.Pointer:
		p, err := g.load(x)
		if err != nil {
			return operand{}, err
		}
		return g.elemAddr(p.v, u.Elem, i.v)

	case *types.Slice:
		t, err := g.irType(x.typ)
		if err != nil {
			return operand{}, err
		}
		field := b.NewGetElementPtr(t, x.v, zero32, zero32)
		data := b.NewLoad(t.(*irtypes.StructType).Fields[0], field)
		return g.elemAddr(data, u.Elem, i.v)
	}
	return operand{}, cannotDeref(e.X.Pos(), x.typ)
}

func (g *Generator) elemAddr(p value.Value, elem types.Type, i value.Value) (operand, error) {
	t, err := g.irType(elem)
	if err != nil {
		return operand{}, err
	}
	if t.Equal(irtypes.Void) {
		t = irtypes.I8
	}
	return operand{g.f.b.NewGetElementPtr(t, p, i), elem}, nil
}

// resolution generates E::A as an enum constant and S::m as a function
// pointer.
func (g *Generator) resolution(e *syntax.ResolutionExpr) (operand, error) {
	sym, err := g.scopes.ResolveSymbol(g.current(), e.X.Value, e.X.Pos())
	if err != nil {
		return operand{}, err
	}
	switch sym := sym.(type) {
	case *scope.Enum:
		n, ok := sym.Variant(e.Sel.Value)
		if !ok {
			return operand{}, diag.At(e.Sel.Pos(), "unknown variant", "unknown enum variant `%s` in enum `%s`", e.Sel.Value, sym.Name).
				WithLabel(sym.Pos(), "enum declared here")
		}
		return g.intConst(n, types.NewPath(e.X.Pos(), sym.Name))

	case *scope.Struct:
		m, err := sym.Method(e.Sel.Value, e.Sel.Pos())
		if err != nil {
			return operand{}, err
		}
		fn, err := g.funcIR(m)
		if err != nil {
			return operand{}, err
		}
		return operand{fn, funcType(m)}, nil
	}
	return operand{}, diag.At(e.X.Pos(), "not an enum or struct", "`%s` is a %s, not an enum or struct", e.X.Value, sym.Kind())
}

// initList fills a fresh slot of the expected struct or array type.
// Fields left out are zero.
func (g *Generator) initList(e *syntax.InitList, want types.Type) (operand, error) {
	if want == nil {
		return operand{}, diag.At(e.Pos(), "type annotation needed", "cannot infer the type of an initializer list")
	}
	t, err := g.irType(want)
	if err != nil {
		return operand{}, err
	}
	slot := g.alloca(t)
	b := g.f.b
	b.NewStore(constant.NewZeroInitializer(t), slot)

	if arr, ok := g.underlying(want).(*types.Array); ok {
		if uint64(len(e.Elems)) > arr.Len {
			return operand{}, diag.At(e.Pos(), "too many elements", "too many elements for type `%s`", want)
		}
		for i, el := range e.Elems {
			if el.Name != nil {
				return operand{}, diag.At(el.Pos(), "named element", "array initializer elements cannot be named")
			}
			v, err := g.value(el.Value, arr.Elem)
			if err != nil {
				return operand{}, err
			}
			if !g.matches(v.typ, arr.Elem) {
				return operand{}, typeError("missmatched types", e.Pos(), arr.Elem, el.Value.Pos(), v.typ)
			}
			b = g.f.b
			b.NewStore(v.v, b.NewGetElementPtr(t, slot, zero32, int32Const(i)))
		}
		return operand{slot, want}, nil
	}

	s, ok := g.structOf(want)
	if !ok {
		return operand{}, diag.At(e.Pos(), "initializer list", "cannot initialize type `%s` with an initializer list", want)
	}
	st, err := g.scopes.StructType(s)
	if err != nil {
		return operand{}, err
	}
	fields := s.Fields()
	for i, el := range e.Elems {
		var f scope.Field
		idx := i
		if el.Name != nil {
			var ok bool
			if f, idx, ok = s.Field(el.Name.Value); !ok {
				return operand{}, s.UnknownField(el.Name.Pos(), el.Name.Value)
			}
		} else {
			if i >= len(fields) {
				return operand{}, diag.At(el.Pos(), "too many elements", "too many elements for type `%s`", want)
			}
			f = fields[i]
		}
		v, err := g.value(el.Value, f.Type)
		if err != nil {
			return operand{}, err
		}
		if !g.matches(v.typ, f.Type) {
			return operand{}, typeError("missmatched types", f.Pos, f.Type, el.Value.Pos(), v.typ)
		}
		b = g.f.b
		b.NewStore(v.v, b.NewGetElementPtr(st, slot, zero32, int32Const(idx)))
	}
	return operand{slot, want}, nil
}
