package codegen

import (
	"github.com/llir/llvm/ir"
	irtypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/you-not-fish/lygos/internal/diag"
	"github.com/you-not-fish/lygos/internal/scope"
	"github.com/you-not-fish/lygos/internal/src"
	"github.com/you-not-fish/lygos/internal/syntax"
	"github.com/you-not-fish/lygos/internal/types"
)

// operand is the result of generating an expression. For expressions
// where ShouldLoad reports true, v is the address of a typ; otherwise
// v is a value of typ.
type operand struct {
	v   value.Value
	typ types.Type
}

// ShouldLoad reports whether e generates an address that consumers
// must load to obtain its value. It depends only on the node kind.
func ShouldLoad(e syntax.Expr) bool {
	switch e := e.(type) {
	case *syntax.Name, *syntax.SelectorExpr, *syntax.IndexExpr, *syntax.InitList:
		return true
	case *syntax.Operation:
		return e.Y == nil && e.Op != syntax.And
	case *syntax.ParenExpr:
		return ShouldLoad(e.X)
	}
	return false
}

// anyPointer is passed as the expected type where an expression must
// stay a pointer; it keeps references from being dereferenced.
var anyPointer types.Type = types.NewPointer(src.NoPos, types.Void(), false)

// value generates e and loads it when e yields an address. want is the
// type expected by the consumer, or nil.
func (g *Generator) value(e syntax.Expr, want types.Type) (operand, error) {
	x, err := g.gen(e, want)
	if err != nil {
		return operand{}, err
	}
	if ShouldLoad(e) {
		return g.load(x)
	}
	return x, nil
}

// addressOf generates e as an address, spilling immediates to a fresh
// stack slot.
func (g *Generator) addressOf(e syntax.Expr, want types.Type) (operand, error) {
	x, err := g.gen(e, want)
	if err != nil {
		return operand{}, err
	}
	if ShouldLoad(e) {
		return x, nil
	}
	return g.spill(x)
}

// load reads the typ stored at x.v.
func (g *Generator) load(x operand) (operand, error) {
	t, err := g.irType(x.typ)
	if err != nil {
		return operand{}, err
	}
	return operand{g.f.b.NewLoad(t, x.v), x.typ}, nil
}

// spill stores the value x into a new stack slot and returns the slot.
func (g *Generator) spill(x operand) (operand, error) {
	t, err := g.irType(x.typ)
	if err != nil {
		return operand{}, err
	}
	slot := g.alloca(t)
	g.f.b.NewStore(x.v, slot)
	return operand{slot, x.typ}, nil
}

// alloca reserves a stack slot in the entry block, ahead of the entry
// block's other instructions, so that every slot dominates its uses.
func (g *Generator) alloca(t irtypes.Type) *ir.InstAlloca {
	a := ir.NewAlloca(t)
	entry := g.f.entry
	i := g.f.allocas
	entry.Insts = append(entry.Insts, nil)
	copy(entry.Insts[i+1:], entry.Insts[i:])
	entry.Insts[i] = a
	g.f.allocas++
	return a
}

// irType lowers t as seen from the current scope.
func (g *Generator) irType(t types.Type) (irtypes.Type, error) {
	return g.scopes.ResolveType(g.current(), t)
}

// underlying resolves aliases and enums to the type they stand for,
// recursively below pointers, arrays and slices.
func (g *Generator) underlying(t types.Type) types.Type {
	return g.underlyingN(t, 0)
}

// maxAliasDepth bounds alias chains; cyclic aliases are reported when
// the type is lowered.
const maxAliasDepth = 100

func (g *Generator) underlyingN(t types.Type, depth int) types.Type {
	if depth > maxAliasDepth {
		return t
	}
	depth++
	switch u := t.(type) {
	case *types.Path:
		if types.IsVoidType(u) {
			return u
		}
		if _, ok := types.Base[u.Name]; ok {
			return u
		}
		sym, ok := g.scopes.TryResolveSymbol(g.current(), u.Name)
		if !ok {
			return u
		}
		switch sym := sym.(type) {
		case *scope.Enum:
			return g.underlyingN(sym.Underlying, depth)
		case *scope.TypeAlias:
			return g.underlyingN(sym.Target, depth)
		}
		return u
	case *types.Pointer:
		if u.IsRef {
			return types.NewRef(u.Pos(), g.underlyingN(u.Elem, depth), u.IsMut)
		}
		return types.NewPointer(u.Pos(), g.underlyingN(u.Elem, depth), u.IsMut)
	case *types.Array:
		return types.NewArray(u.Pos(), g.underlyingN(u.Elem, depth), u.Len)
	case *types.Slice:
		return types.NewSlice(u.Pos(), g.underlyingN(u.Elem, depth))
	}
	return t
}

// matches reports whether x and y denote the same type once aliases
// and enums are resolved.
func (g *Generator) matches(x, y types.Type) bool {
	return types.Matches(g.underlying(x), g.underlying(y))
}

// structOf returns the struct named by t, if any.
func (g *Generator) structOf(t types.Type) (*scope.Struct, bool) {
	p, ok := g.underlying(t).(*types.Path)
	if !ok {
		return nil, false
	}
	sym, ok := g.scopes.TryResolveSymbol(g.current(), p.Name)
	if !ok {
		return nil, false
	}
	s, ok := sym.(*scope.Struct)
	return s, ok
}

// typeError reports a value of type got where want was expected.
func typeError(msg string, wantPos src.Pos, want types.Type, gotPos src.Pos, got types.Type) *diag.Error {
	return diag.At(wantPos, "expected type `"+want.String()+"`", "%s", msg).
		WithLabel(gotPos, "but value has type `%s`", got.String())
}
