package codegen

import (
	"github.com/llir/llvm/ir/enum"

	"github.com/you-not-fish/lygos/internal/rtabi"
	"github.com/you-not-fish/lygos/internal/scope"
	"github.com/you-not-fish/lygos/internal/syntax"
	"github.com/you-not-fish/lygos/internal/types"
)

// signature builds the function symbol for d. Inside an impl block,
// owner names the struct: Self is substituted and the name mangled.
func signature(d *syntax.FuncDecl, name, owner string) *scope.Function {
	f := scope.NewFunction(d.Pos(), name)
	f.Variadic = d.Variadic
	f.IsDef = d.Body != nil
	f.Recv = d.Recv

	subst := func(t types.Type) types.Type {
		if owner == "" {
			return t
		}
		return types.Substitute(t, types.SelfName, owner)
	}
	for _, p := range d.Params {
		f.Params = append(f.Params, scope.Param{Name: p.Name.Value, Type: subst(p.Type), Pos: p.Pos()})
	}
	if !types.IsVoidType(d.Result) {
		f.Result = subst(d.Result)
	}
	if owner != "" {
		f.Owner = owner
		f.Mangled = rtabi.MethodSymbol(owner, name)
	}
	return f
}

// funcDef generates the body of a function. Parameters are copied into
// stack slots so that they are addressable like any other variable.
func (g *Generator) funcDef(w *body) error {
	fn, err := g.funcIR(w.sym)
	if err != nil {
		return err
	}

	prev := g.f
	defer func() { g.f = prev }()

	top := g.scopes.Open(g.scopes.Root(), "fn "+w.sym.Mangled)
	entry := fn.NewBlock("")
	g.f = &funcState{
		sym:   w.sym,
		fn:    fn,
		entry: entry,
		b:     entry,
		sc:    top,
		top:   top,
	}

	if owner := w.sym.Owner; owner != "" {
		g.scopes.Declare(top, types.SelfName, scope.NewTypeAlias(w.decl.Pos(), types.SelfName, types.NewPath(w.decl.Pos(), owner)))
	}
	for i, p := range w.sym.Params {
		param := fn.Params[i]
		slot := g.alloca(param.Type())
		entry.NewStore(param, slot)
		g.scopes.Declare(top, p.Name, scope.NewVariable(p.Pos, p.Type, slot, false))
	}

	if err := g.stmts(w.decl.Body.Stmts); err != nil {
		return err
	}
	if err := g.finishFunc(); err != nil {
		return err
	}
	g.scopes.Close(top)
	return Verify(fn)
}

// finishFunc terminates a body that falls off its end and appends the
// shared return block.
func (g *Generator) finishFunc() error {
	void := types.IsVoidType(g.f.sym.Result)
	if g.f.b != nil {
		if void && g.f.ret == nil {
			g.f.b.NewRet(nil)
		} else {
			ret, err := g.retBlock()
			if err != nil {
				return err
			}
			g.f.b.NewBr(ret)
		}
		g.f.b = nil
	}

	if g.f.ret == nil {
		return nil
	}
	g.startBlock(g.f.ret)
	if void {
		g.f.b.NewRet(nil)
		return nil
	}
	x, err := g.load(operand{g.scopes.ReturnSlot(g.f.top), g.f.sym.Result})
	if err != nil {
		return err
	}
	g.f.b.NewRet(x.v)
	return nil
}

// closure generates an anonymous function as an internal function of
// the module. Its scope is nested in the module scope, so it sees
// globals but not the locals of the enclosing function.
func (g *Generator) closure(e *syntax.ClosureExpr) (operand, error) {
	g.f.closures++
	name := rtabi.ClosureSymbol(g.f.sym.Mangled, g.f.closures)
	f := signature(e.Func, name, "")
	f.IsDef = true
	fn, err := g.funcIR(f)
	if err != nil {
		return operand{}, err
	}
	fn.Linkage = enum.LinkageInternal
	if err := g.funcDef(&body{sym: f, decl: e.Func}); err != nil {
		return operand{}, err
	}
	return operand{fn, funcType(f)}, nil
}
