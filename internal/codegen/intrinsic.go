package codegen

import (
	"fmt"
	"strings"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	irtypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/you-not-fish/lygos/internal/diag"
	"github.com/you-not-fish/lygos/internal/rtabi"
	"github.com/you-not-fish/lygos/internal/scope"
	"github.com/you-not-fish/lygos/internal/src"
	"github.com/you-not-fish/lygos/internal/syntax"
	"github.com/you-not-fish/lygos/internal/types"
)

// intrinsic generates a compiler intrinsic used as an expression.
func (g *Generator) intrinsic(e *syntax.IntrinsicCall) (operand, error) {
	switch e.Name.Value {
	case rtabi.IntrinsicSizeof:
		t := e.Type
		if p, ok := t.(*types.Path); ok {
			if sym, ok := g.scopes.TryResolveSymbol(g.current(), p.Name); ok {
				if v, ok := sym.(*scope.Variable); ok {
					t = v.Type
				}
			}
		}
		sizes := &Sizes{scopes: g.scopes, id: g.current()}
		n, err := sizes.Sizeof(t, e.Type.Pos())
		if err != nil {
			return operand{}, err
		}
		return operand{constant.NewInt(irtypes.I64, n), types.U64()}, nil

	case rtabi.IntrinsicFile:
		name := g.conf.Filename
		if name == "" {
			name = e.Pos().Filename()
		}
		c, err := g.strConst(name)
		if err != nil {
			return operand{}, err
		}
		return operand{c, types.Str()}, nil

	case rtabi.IntrinsicLine:
		return operand{constant.NewInt(irtypes.I32, int64(e.Pos().Line())), types.U32()}, nil

	case rtabi.IntrinsicFormatArgs:
		return g.formatArgs(e)
	}
	return operand{}, diag.At(e.Pos(), "not an expression", "intrinsic `%s` cannot be used as an expression", e.Name.Value)
}

// formatSpec is one {} or {:?} placeholder of a format string.
type formatSpec struct {
	debug bool
}

// splitFormat splits a format string into the literal pieces between
// placeholders. {{ and }} stand for literal braces. A trailing empty
// piece is dropped.
func splitFormat(s string, pos src.Pos) (pieces []string, specs []formatSpec, err error) {
	var cur strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '{' && strings.HasPrefix(s[i:], "{{"):
			cur.WriteByte('{')
			i++
		case c == '}' && strings.HasPrefix(s[i:], "}}"):
			cur.WriteByte('}')
			i++
		case c == '{':
			end := strings.IndexByte(s[i:], '}')
			if end < 0 {
				return nil, nil, diag.At(pos, "unclosed `{`", "invalid format string: expected `}`")
			}
			var spec formatSpec
			switch s[i+1 : i+end] {
			case "":
			case ":?":
				spec.debug = true
			default:
				return nil, nil, diag.At(pos, "unknown format", "invalid format string: unknown format `{%s}`", s[i+1:i+end]).
					WithHelp("use `{}` or `{:?}`")
			}
			pieces = append(pieces, cur.String())
			cur.Reset()
			specs = append(specs, spec)
			i += end
		case c == '}':
			return nil, nil, diag.At(pos, "unmatched `}`", "invalid format string: unmatched `}`").
				WithHelp("use `}}` for a literal brace")
		default:
			cur.WriteByte(c)
		}
	}
	if cur.Len() > 0 {
		pieces = append(pieces, cur.String())
	}
	return pieces, specs, nil
}

// formatArgs lowers format_args$("...", args...) to a call of
// Arguments_new over an array of Argument values and an array of str
// pieces. Each Argument pairs the address of a value with the function
// that formats it.
func (g *Generator) formatArgs(e *syntax.IntrinsicCall) (operand, error) {
	var lit *syntax.BasicLit
	if len(e.Args) > 0 {
		lit, _ = e.Args[0].(*syntax.BasicLit)
	}
	if lit == nil || lit.Kind != syntax.StringLit {
		pos := e.Pos()
		if len(e.Args) > 0 {
			pos = e.Args[0].Pos()
		}
		return operand{}, diag.At(pos, "unexpected token found", "expected string literal as first argument to `%s`", rtabi.IntrinsicFormatArgs)
	}
	pieces, specs, err := splitFormat(lit.Value, lit.Pos())
	if err != nil {
		return operand{}, err
	}
	args := e.Args[1:]
	if len(args) != len(specs) {
		return operand{}, diag.At(e.Pos(), "incorrect number of arguments",
			"macro `%s` expected `%d` args, but `%d` were provided", rtabi.IntrinsicFormatArgs, len(specs), len(args))
	}

	root := g.scopes.Root()
	argStruct, err := g.scopes.ResolveStruct(root, rtabi.ArgumentType, e.Pos())
	if err != nil {
		return operand{}, missingStd(err, rtabi.ArgumentType)
	}
	argT, err := g.scopes.StructType(argStruct)
	if err != nil {
		return operand{}, err
	}
	if len(argT.Fields) != 2 {
		return operand{}, diag.At(argStruct.Pos(), "unexpected layout", "struct `%s` must have a value and a formatter field", rtabi.ArgumentType)
	}
	newFn, err := g.scopes.ResolveFunction(root, rtabi.ArgumentsNew, e.Pos())
	if err != nil {
		return operand{}, missingStd(err, rtabi.ArgumentsNew)
	}
	bytePtr := irtypes.NewPointer(irtypes.I8)

	argsArr := g.alloca(irtypes.NewArray(uint64(len(args)), argT))
	for i, a := range args {
		x, err := g.addressOf(a, nil)
		if err != nil {
			return operand{}, err
		}
		fn, err := g.formatter(e.Pos(), x.typ, specs[i].debug, argT.Fields[1])
		if err != nil {
			return operand{}, err
		}
		slot := g.f.b.NewGetElementPtr(argsArr.ElemType, argsArr, zero32, int32Const(i))
		g.f.b.NewStore(g.f.b.NewBitCast(x.v, bytePtr), g.f.b.NewGetElementPtr(argT, slot, zero32, int32Const(0)))
		g.f.b.NewStore(g.f.b.NewBitCast(fn, argT.Fields[1]), g.f.b.NewGetElementPtr(argT, slot, zero32, int32Const(1)))
	}

	strT, err := g.strType()
	if err != nil {
		return operand{}, err
	}
	piecesArr := g.alloca(irtypes.NewArray(uint64(len(pieces)), strT))
	for i, p := range pieces {
		c, err := g.strConst(p)
		if err != nil {
			return operand{}, err
		}
		g.f.b.NewStore(c, g.f.b.NewGetElementPtr(piecesArr.ElemType, piecesArr, zero32, int32Const(i)))
	}

	callee, err := g.funcIR(newFn)
	if err != nil {
		return operand{}, err
	}
	if len(callee.Params) != 4 {
		return operand{}, diag.At(newFn.Pos(), "unexpected signature", "function `%s` must take 4 parameters", rtabi.ArgumentsNew)
	}
	vals := []value.Value{
		g.f.b.NewGetElementPtr(argsArr.ElemType, argsArr, zero32, zero32),
		int32Const(len(args)),
		g.f.b.NewGetElementPtr(piecesArr.ElemType, piecesArr, zero32, zero32),
		int32Const(len(pieces)),
	}
	for i, v := range vals {
		if want := callee.Params[i].Type(); !v.Type().Equal(want) {
			if _, ok := want.(*irtypes.PointerType); !ok {
				return operand{}, diag.At(newFn.Pos(), "unexpected signature", "parameter %d of `%s` has an unexpected type", i+1, rtabi.ArgumentsNew)
			}
			vals[i] = g.f.b.NewBitCast(v, want)
		}
	}
	result := newFn.Result
	if result == nil {
		result = types.NewPath(e.Pos(), rtabi.ArgumentsType)
	}
	return operand{g.f.b.NewCall(callee, vals...), result}, nil
}

// formatter returns the function formatting values of type t. Base
// type formatters not yet declared are declared with the signature of
// the Argument formatter field.
func (g *Generator) formatter(pos src.Pos, t types.Type, debug bool, fnT irtypes.Type) (value.Value, error) {
	u := g.underlying(t)
	var name string
	switch u := u.(type) {
	case *types.Pointer, *types.FuncPointer:
		name = rtabi.PtrFormat

	case *types.Path:
		if _, ok := types.Base[u.Name]; ok && !types.IsVoidType(u) || u.Name == types.StrName {
			name = rtabi.BaseFormatter(u.Name)
			break
		}
		s, ok := g.structOf(u)
		if !ok {
			return nil, cannotFormat(pos, t)
		}
		trait, method := rtabi.DisplayTrait, rtabi.DisplayMethod
		if debug {
			trait, method = rtabi.DebugTrait, rtabi.DebugMethod
		}
		if !s.ImplementsTrait(trait) {
			return nil, diag.At(pos, "not formattable", "type `%s` does not implement trait `%s`", s.Name, trait)
		}
		m, err := s.Method(method, pos)
		if err != nil {
			return nil, err
		}
		return g.funcIR(m)

	default:
		return nil, cannotFormat(pos, t)
	}

	if sym, ok := g.scopes.TryResolveSymbol(g.scopes.Root(), name); ok {
		if f, ok := sym.(*scope.Function); ok {
			return g.funcIR(f)
		}
	}
	for _, f := range g.m.Funcs {
		if f.Name() == name {
			return f, nil
		}
	}
	sig, ok := fnT.(*irtypes.PointerType)
	if !ok {
		return nil, diag.At(pos, "unexpected layout", "formatter field of `%s` must be a function pointer", rtabi.ArgumentType)
	}
	ft, ok := sig.ElemType.(*irtypes.FuncType)
	if !ok {
		return nil, diag.At(pos, "unexpected layout", "formatter field of `%s` must be a function pointer", rtabi.ArgumentType)
	}
	params := make([]*ir.Param, len(ft.Params))
	for i, p := range ft.Params {
		params[i] = ir.NewParam("", p)
	}
	return g.m.NewFunc(name, ft.RetType, params...), nil
}

func cannotFormat(pos src.Pos, t types.Type) *diag.Error {
	return diag.At(pos, "not formattable", "cannot format type `%s` with the default formatter", t)
}

// missingStd adds a hint to a failed lookup of a std library symbol.
func missingStd(err error, name string) error {
	if d, ok := err.(*diag.Error); ok {
		return d.WithHelp("`%s` is provided by the std library; include it before formatting", name)
	}
	return fmt.Errorf("%s: %w", name, err)
}
