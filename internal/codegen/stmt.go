package codegen

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/value"

	"github.com/you-not-fish/lygos/internal/diag"
	"github.com/you-not-fish/lygos/internal/scope"
	"github.com/you-not-fish/lygos/internal/syntax"
	"github.com/you-not-fish/lygos/internal/types"
)

// stmts generates a list of statements. Statements after a terminator
// are still checked, see deadStmts.
func (g *Generator) stmts(list []syntax.Stmt) error {
	for i, s := range list {
		if g.f.b == nil {
			return g.deadStmts(list[i:])
		}
		if err := g.stmt(s); err != nil {
			return err
		}
	}
	return nil
}

// deadStmts generates unreachable statements into a detached block, so
// that they report the same errors as live code, and then discards
// every block they created. A return block first created here is
// discarded too.
func (g *Generator) deadStmts(list []syntax.Stmt) error {
	fn := g.f.fn
	n, ret := len(fn.Blocks), g.f.ret
	defer func() {
		fn.Blocks = fn.Blocks[:n]
		g.f.ret = ret
		g.f.b = nil
	}()
	for _, s := range list {
		if g.f.b == nil {
			g.f.b = g.newBlock("dead")
		}
		if err := g.stmt(s); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) stmt(s syntax.Stmt) error {
	switch s := s.(type) {
	case *syntax.EmptyStmt:
		return nil

	case *syntax.ExprStmt:
		_, err := g.gen(s.X, nil)
		return err

	case *syntax.LetStmt:
		return g.letStmt(s)

	case *syntax.AssignStmt:
		return g.assignStmt(s)

	case *syntax.BlockStmt:
		g.openScope("block")
		err := g.stmts(s.Stmts)
		g.closeScope()
		return err

	case *syntax.IfStmt:
		return g.ifStmt(s)

	case *syntax.ForStmt:
		return g.forStmt(s)

	case *syntax.MatchStmt:
		return g.matchStmt(s)

	case *syntax.ReturnStmt:
		return g.returnStmt(s)

	case *syntax.BreakStmt:
		if len(g.f.breaks) == 0 {
			return diag.At(s.Pos(), "not inside a loop", "invalid break point")
		}
		g.f.b.NewBr(g.f.breaks[len(g.f.breaks)-1])
		g.f.b = nil
		return nil
	}
	diag.Internal("unexpected statement %T", s)
	return nil
}

// letStmt binds a new variable. With a declared type, a value of
// another type is converted to it.
func (g *Generator) letStmt(s *syntax.LetStmt) error {
	name := s.Name.Value
	typ := s.Type
	var x operand
	if s.Value != nil {
		var err error
		if x, err = g.value(s.Value, typ); err != nil {
			return err
		}
		if types.IsVoidType(x.typ) {
			return diag.At(s.Value.Pos(), "expression has type `void`", "cannot bind a void value to `%s`", name)
		}
		if typ == nil {
			typ = x.typ
		} else if !g.matches(x.typ, typ) {
			if x, err = g.convert(x, typ, s.Value.Pos(), typ.Pos()); err != nil {
				return err
			}
		}
	} else if typ == nil {
		return diag.At(s.Name.Pos(), "type annotation needed", "cannot infer the type of `%s`", name)
	}

	t, err := g.irType(typ)
	if err != nil {
		return err
	}
	slot := g.alloca(t)
	if s.Value != nil {
		g.f.b.NewStore(x.v, slot)
	}
	g.scopes.Declare(g.f.sc, name, scope.NewVariable(s.Name.Pos(), typ, slot, !s.Mut && s.Value != nil))
	return nil
}

func (g *Generator) assignStmt(s *syntax.AssignStmt) error {
	if !ShouldLoad(s.LHS) {
		return diag.At(s.LHS.Pos(), "cannot be assigned", "cannot assign to `%s`", syntax.ExprString(s.LHS))
	}
	if n, ok := s.LHS.(*syntax.Name); ok {
		sym, err := g.scopes.ResolveSymbol(g.f.sc, n.Value, n.Pos())
		if err != nil {
			return err
		}
		if v, ok := sym.(*scope.Variable); ok && v.Const {
			return diag.At(s.Pos(), "cannot assign twice", "cannot assign twice to immutable variable `%s`", n.Value).
				WithLabel(v.Pos(), "first assignment here").
				WithHelp("declare it with `let mut %s`", n.Value)
		}
	}

	lhs, err := g.gen(s.LHS, nil)
	if err != nil {
		return err
	}
	rhs, err := g.value(s.RHS, lhs.typ)
	if err != nil {
		return err
	}
	if !g.matches(rhs.typ, lhs.typ) {
		return typeError("missmatched types", s.LHS.Pos(), lhs.typ, s.RHS.Pos(), rhs.typ)
	}
	g.f.b.NewStore(rhs.v, lhs.v)
	return nil
}

// condition generates a bool-typed branch condition.
func (g *Generator) condition(e syntax.Expr) (value.Value, error) {
	x, err := g.value(e, types.Bool())
	if err != nil {
		return nil, err
	}
	if !types.IsBoolType(g.underlying(x.typ)) {
		return nil, diag.At(e.Pos(), fmt.Sprintf("condition has type `%s`", x.typ), "expected condition of type `bool`")
	}
	return x.v, nil
}

// ifStmt lowers if/else. The merge block is only kept when a branch
// falls through to it.
func (g *Generator) ifStmt(s *syntax.IfStmt) error {
	cond, err := g.condition(s.Cond)
	if err != nil {
		return err
	}
	bThen := g.newBlock("if.then")
	bMerge := g.newBlock("if.end")
	bElse := bMerge
	if s.Else != nil {
		bElse = g.newBlock("if.else")
	}
	g.f.b.NewCondBr(cond, bThen, bElse)

	g.f.nested++
	defer func() { g.f.nested-- }()

	g.startBlock(bThen)
	if err := g.stmt(s.Then); err != nil {
		return err
	}
	if g.f.b != nil {
		g.f.b.NewBr(bMerge)
	}

	if s.Else != nil {
		g.startBlock(bElse)
		if err := g.stmt(s.Else); err != nil {
			return err
		}
		if g.f.b != nil {
			g.f.b.NewBr(bMerge)
		}
	}

	g.merge(bMerge)
	return nil
}

// merge continues at b if any edge reaches it. Otherwise b is dropped
// and the code that follows is unreachable.
func (g *Generator) merge(b *ir.Block) {
	if preds(g.f.fn, b) == 0 {
		g.f.b = nil
		return
	}
	g.startBlock(b)
}

// forStmt lowers for [let init in] cond { body } and while loops.
func (g *Generator) forStmt(s *syntax.ForStmt) error {
	g.openScope("for")
	defer g.closeScope()
	if s.Init != nil {
		if err := g.letStmt(s.Init); err != nil {
			return err
		}
	}

	bCond := g.newBlock("for.cond")
	bBody := g.newBlock("for.body")
	bExit := g.newBlock("for.end")
	g.f.b.NewBr(bCond)

	g.startBlock(bCond)
	cond, err := g.condition(s.Cond)
	if err != nil {
		return err
	}
	g.f.b.NewCondBr(cond, bBody, bExit)

	g.f.nested++
	g.f.breaks = append(g.f.breaks, bExit)
	g.startBlock(bBody)
	err = g.stmt(s.Body)
	g.f.breaks = g.f.breaks[:len(g.f.breaks)-1]
	g.f.nested--
	if err != nil {
		return err
	}
	if g.f.b != nil {
		g.f.b.NewBr(bCond)
	}

	g.merge(bExit)
	return nil
}

// matchStmt lowers a match into a chain of equality tests that share
// one exit block.
func (g *Generator) matchStmt(s *syntax.MatchStmt) error {
	x, err := g.value(s.X, nil)
	if err != nil {
		return err
	}
	u := g.underlying(x.typ)
	if !isInt(u) && !types.IsFloatType(u) && !types.IsPointer(u) {
		return diag.At(s.X.Pos(), fmt.Sprintf("has type `%s`", x.typ), "cannot match on a value of type `%s`", x.typ)
	}

	g.f.nested++
	defer func() { g.f.nested-- }()

	bExit := g.newBlock("match.end")
	for _, c := range s.Cases {
		v, err := g.value(c.Value, x.typ)
		if err != nil {
			return err
		}
		if !g.matches(v.typ, x.typ) {
			return typeError("missmatched types", s.X.Pos(), x.typ, c.Value.Pos(), v.typ)
		}
		var cmp value.Value
		if types.IsFloatType(u) {
			cmp = g.f.b.NewFCmp(enum.FPredOEQ, x.v, v.v)
		} else {
			cmp = g.f.b.NewICmp(enum.IPredEQ, x.v, v.v)
		}
		bCase := g.newBlock("match.case")
		bNext := g.newBlock("match.next")
		g.f.b.NewCondBr(cmp, bCase, bNext)

		g.startBlock(bCase)
		if err := g.stmt(c.Body); err != nil {
			return err
		}
		if g.f.b != nil {
			g.f.b.NewBr(bExit)
		}
		g.startBlock(bNext)
	}
	g.f.b.NewBr(bExit)

	g.merge(bExit)
	return nil
}

// returnStmt returns directly at the top level of a function body.
// Inside a nested statement, or once the shared return block exists, it
// stores the result in the return slot and branches to that block.
func (g *Generator) returnStmt(s *syntax.ReturnStmt) error {
	result := g.f.sym.Result
	viaBlock := g.f.nested > 0 || g.f.ret != nil

	if s.Result == nil {
		if !types.IsVoidType(result) {
			return diag.At(s.Pos(), fmt.Sprintf("expected a value of type `%s`", result),
				"missing return value in function with return type `%s`", result)
		}
		if viaBlock {
			ret, err := g.retBlock()
			if err != nil {
				return err
			}
			g.f.b.NewBr(ret)
		} else {
			g.f.b.NewRet(nil)
		}
		g.f.b = nil
		return nil
	}

	x, err := g.value(s.Result, result)
	if err != nil {
		return err
	}
	if types.IsVoidType(result) {
		return diag.At(s.Result.Pos(), "invalid return type",
			"invalid return type `%s` for function with return type `void`", x.typ)
	}
	if !g.matches(x.typ, result) {
		return diag.At(s.Result.Pos(), "invalid return type",
			"invalid return type `%s` for function with return type `%s`", x.typ, result).
			WithLabel(result.Pos(), "return type declared here")
	}

	if viaBlock {
		ret, err := g.retBlock()
		if err != nil {
			return err
		}
		g.f.b.NewStore(x.v, g.scopes.ReturnSlot(g.f.sc))
		g.f.b.NewBr(ret)
	} else {
		g.f.b.NewRet(x.v)
	}
	g.f.b = nil
	return nil
}

// retBlock returns the function's shared return block, creating it and
// the return slot on first use. It is appended when the body is done.
func (g *Generator) retBlock() (*ir.Block, error) {
	if g.f.ret != nil {
		return g.f.ret, nil
	}
	if !types.IsVoidType(g.f.sym.Result) {
		t, err := g.irType(g.f.sym.Result)
		if err != nil {
			return nil, err
		}
		g.scopes.SetReturnSlot(g.f.top, g.alloca(t))
	}
	g.f.ret = g.newBlock("return")
	return g.f.ret, nil
}
