package codegen

import (
	"fmt"

	"github.com/llir/llvm/ir"
	irtypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/you-not-fish/lygos/internal/diag"
	"github.com/you-not-fish/lygos/internal/scope"
	"github.com/you-not-fish/lygos/internal/syntax"
	"github.com/you-not-fish/lygos/internal/types"
)

// call generates a free call f(...), a member call x.m(...) or
// x->m(...), a static call S::m(...), or a call through a function
// pointer.
func (g *Generator) call(e *syntax.CallExpr) (operand, error) {
	switch fun := e.Fun.(type) {
	case *syntax.Name:
		sym, err := g.scopes.ResolveSymbol(g.current(), fun.Value, fun.Pos())
		if err != nil {
			return operand{}, err
		}
		if f, ok := sym.(*scope.Function); ok {
			callee, err := g.funcIR(f)
			if err != nil {
				return operand{}, err
			}
			return g.emitCall(e, f.Name, callee, f.Params, f.Result, f.Variadic, nil)
		}

	case *syntax.SelectorExpr:
		return g.memberCall(e, fun)

	case *syntax.ResolutionExpr:
		sym, err := g.scopes.ResolveSymbol(g.current(), fun.X.Value, fun.X.Pos())
		if err != nil {
			return operand{}, err
		}
		if s, ok := sym.(*scope.Struct); ok {
			m, err := s.Method(fun.Sel.Value, fun.Sel.Pos())
			if err != nil {
				return operand{}, err
			}
			callee, err := g.funcIR(m)
			if err != nil {
				return operand{}, err
			}
			return g.emitCall(e, m.Name, callee, m.Params, m.Result, m.Variadic, nil)
		}
	}

	fp, err := g.value(e.Fun, nil)
	if err != nil {
		return operand{}, err
	}
	return g.pointerCall(e, syntax.ExprString(e.Fun), fp, nil)
}

// pointerCall calls through a value of function pointer type.
func (g *Generator) pointerCall(e *syntax.CallExpr, name string, fp operand, recv value.Value) (operand, error) {
	ft, ok := g.underlying(fp.typ).(*types.FuncPointer)
	if !ok {
		return operand{}, diag.At(e.Fun.Pos(), fmt.Sprintf("has type `%s`", fp.typ), "`%s` is not a function", name)
	}
	params := make([]scope.Param, len(ft.Params))
	for i, p := range ft.Params {
		params[i] = scope.Param{Type: p, Pos: p.Pos()}
	}
	return g.emitCall(e, name, fp.v, params, ft.Result, ft.Variadic, recv)
}

// memberCall calls a method through its receiver. Without a method of
// that name, a field of function pointer type is called instead.
func (g *Generator) memberCall(e *syntax.CallExpr, sel *syntax.SelectorExpr) (operand, error) {
	base, err := g.selectorBase(sel)
	if err != nil {
		return operand{}, err
	}
	name := sel.Sel.Value
	s, ok := g.structOf(base.typ)
	if !ok {
		return operand{}, diag.At(sel.Sel.Pos(), "unknown method", "unknown function `%s` in type `%s`", name, base.typ)
	}

	m, ok := s.LookupMethod(name)
	if !ok {
		if _, _, isField := s.Field(name); isField {
			addr, err := g.fieldAddr(base, s, sel.Sel)
			if err != nil {
				return operand{}, err
			}
			fp, err := g.load(addr)
			if err != nil {
				return operand{}, err
			}
			return g.pointerCall(e, syntax.ExprString(sel), fp, nil)
		}
		_, err := s.Method(name, sel.Sel.Pos())
		return operand{}, err
	}
	if m.Recv == syntax.RecvNone {
		return operand{}, diag.At(sel.Sel.Pos(), "no receiver", "function `%s` of struct `%s` takes no receiver", name, s.Name).
			WithHelp("call it as `%s::%s(...)`", s.Name, name)
	}

	callee, err := g.funcIR(m)
	if err != nil {
		return operand{}, err
	}
	recv := base.v
	if m.Recv == syntax.RecvValue {
		x, err := g.load(base)
		if err != nil {
			return operand{}, err
		}
		recv = x.v
	}
	return g.emitCall(e, m.Name, callee, m.Params[1:], m.Result, m.Variadic, recv)
}

// emitCall checks the arguments of e against params and emits the
// call. recv, when set, is passed before the arguments.
func (g *Generator) emitCall(e *syntax.CallExpr, name string, callee value.Value, params []scope.Param, result types.Type, variadic bool, recv value.Value) (operand, error) {
	if len(e.Args) < len(params) || !variadic && len(e.Args) > len(params) {
		return operand{}, diag.At(e.Pos(), "incorrect number of arguments supplied",
			"function `%s` expected `%d` args, but `%d` were supplied", name, len(params), len(e.Args))
	}

	var args []value.Value
	if recv != nil {
		args = append(args, recv)
	}
	for i, a := range e.Args {
		if i >= len(params) {
			x, err := g.value(a, nil)
			if err != nil {
				return operand{}, err
			}
			args = append(args, g.promote(x))
			continue
		}
		p := params[i]
		x, err := g.value(a, p.Type)
		if err != nil {
			return operand{}, err
		}
		if !g.matches(x.typ, p.Type) {
			return operand{}, diag.At(a.Pos(), fmt.Sprintf("provided value has type `%s`", x.typ),
				"invalid argument type for function `%s`", name).
				WithLabel(p.Pos, "expected type is `%s`", p.Type)
		}
		args = append(args, x.v)
	}

	if result == nil {
		result = types.Void()
	}
	return operand{g.f.b.NewCall(callee, args...), result}, nil
}

// promote applies the C default argument promotions to a variadic
// extra: f32 becomes double, integers narrower than 32 bits widen.
func (g *Generator) promote(x operand) value.Value {
	switch t := x.v.Type().(type) {
	case *irtypes.FloatType:
		if t.Kind == irtypes.FloatKindFloat {
			return g.f.b.NewFPExt(x.v, irtypes.Double)
		}
	case *irtypes.IntType:
		if t.BitSize < 32 {
			if types.IsSignedType(g.underlying(x.typ)) {
				return g.f.b.NewSExt(x.v, irtypes.I32)
			}
			return g.f.b.NewZExt(x.v, irtypes.I32)
		}
	}
	return x.v
}

// fieldAddr returns the address of field sel of the struct at base.
func (g *Generator) fieldAddr(base operand, s *scope.Struct, sel *syntax.Name) (operand, error) {
	f, i, ok := s.Field(sel.Value)
	if !ok {
		return operand{}, s.UnknownField(sel.Pos(), sel.Value)
	}
	st, err := g.scopes.StructType(s)
	if err != nil {
		return operand{}, err
	}
	addr := g.f.b.NewGetElementPtr(st, base.v, zero32, int32Const(i))
	return operand{addr, f.Type}, nil
}

// funcIR returns the backend function of f, declaring it on first use.
// Signatures are resolved in the module scope.
func (g *Generator) funcIR(f *scope.Function) (*ir.Func, error) {
	if f.IR != nil {
		return f.IR, nil
	}
	root := g.scopes.Root()
	ret, err := g.scopes.ResolveType(root, f.Result)
	if err != nil {
		return nil, err
	}
	params := make([]*ir.Param, len(f.Params))
	for i, p := range f.Params {
		t, err := g.scopes.ResolveType(root, p.Type)
		if err != nil {
			return nil, err
		}
		params[i] = ir.NewParam(p.Name, t)
	}
	fn := g.m.NewFunc(f.Mangled, ret, params...)
	fn.Sig.Variadic = f.Variadic
	f.IR = fn
	return fn, nil
}

// funcType returns the function pointer type of f.
func funcType(f *scope.Function) *types.FuncPointer {
	params := make([]types.Type, len(f.Params))
	for i, p := range f.Params {
		params[i] = p.Type
	}
	return types.NewFuncPointer(f.Pos(), params, f.Result, f.Variadic)
}
