package syntax

import (
	"fmt"
	"io"
	"strings"

	"github.com/you-not-fish/lygos/internal/types"
)

// Fprint writes a textual representation of the AST to w.
func Fprint(w io.Writer, node Node) {
	p := &printer{w: w}
	p.print(node)
}

type printer struct {
	w      io.Writer
	indent int
}

func (p *printer) printf(format string, args ...interface{}) {
	fmt.Fprintf(p.w, "%s%s", strings.Repeat("  ", p.indent), fmt.Sprintf(format, args...))
}

// child prints n one level deeper, under an optional label.
func (p *printer) child(label string, n Node) {
	if label != "" {
		p.printf("%s:\n", label)
	}
	p.indent++
	p.print(n)
	p.indent--
}

func (p *printer) print(node Node) {
	if node == nil {
		return
	}

	switch n := node.(type) {
	case *File:
		p.printf("File %s\n", n.pos)
		p.indent++
		for _, d := range n.Decls {
			p.print(d)
		}
		p.indent--

	case *FuncDecl:
		p.printf("FuncDecl %s\n", n.pos)
		p.indent++
		p.printf("Name: %s\n", n.Name.Value)
		if n.Recv != RecvNone {
			p.printf("Recv: %s\n", n.Recv)
		}
		if len(n.Params) > 0 {
			p.printf("Params:\n")
			p.indent++
			for _, f := range n.Params {
				p.printf("%s %s\n", f.Name.Value, typeString(f.Type))
			}
			p.indent--
		}
		if n.Variadic {
			p.printf("Variadic: true\n")
		}
		if n.Result != nil {
			p.printf("Result: %s\n", typeString(n.Result))
		}
		if n.Body != nil {
			p.child("Body", n.Body)
		}
		p.indent--

	case *StructDecl:
		p.printf("StructDecl %s\n", n.pos)
		p.indent++
		p.printf("Name: %s\n", n.Name.Value)
		for _, f := range n.Fields {
			p.printf("Field: %s %s\n", f.Name.Value, typeString(f.Type))
		}
		p.indent--

	case *EnumDecl:
		p.printf("EnumDecl %s\n", n.pos)
		p.indent++
		p.printf("Name: %s\n", n.Name.Value)
		p.printf("Underlying: %s\n", typeString(n.Underlying))
		for _, v := range n.Variants {
			p.printf("Variant: %s\n", v.Value)
		}
		p.indent--

	case *TypeAliasDecl:
		p.printf("TypeAliasDecl %s\n", n.pos)
		p.indent++
		p.printf("Name: %s\n", n.Name.Value)
		p.printf("Type: %s\n", typeString(n.Type))
		p.indent--

	case *StaticDecl:
		p.printf("StaticDecl %s\n", n.pos)
		p.indent++
		p.printf("Name: %s\n", n.Name.Value)
		p.printf("Type: %s\n", typeString(n.Type))
		if n.Value != nil {
			p.child("Value", n.Value)
		}
		p.indent--

	case *ImplDecl:
		p.printf("ImplDecl %s\n", n.pos)
		p.indent++
		if n.Trait != nil {
			p.printf("Trait: %s\n", n.Trait.Value)
		}
		p.printf("Type: %s\n", n.Type.Value)
		for _, m := range n.Methods {
			p.print(m)
		}
		p.indent--

	case *TraitDecl:
		p.printf("TraitDecl %s\n", n.pos)
		p.indent++
		p.printf("Name: %s\n", n.Name.Value)
		for _, m := range n.Methods {
			p.print(m)
		}
		p.indent--

	case *MacroDecl:
		p.printf("MacroDecl %s\n", n.pos)
		p.indent++
		p.printf("Name: %s\n", n.Name.Value)
		for _, arm := range n.Arms {
			params := make([]string, len(arm.Params))
			for i, mp := range arm.Params {
				params[i] = mp.Name + ": $"
				if mp.Variadic {
					params[i] = mp.Name + ": []"
				}
			}
			p.printf("Arm (%s) -> %d tokens\n", strings.Join(params, ", "), len(arm.Body))
		}
		p.indent--

	case *IntrinsicDecl:
		p.printf("IntrinsicDecl %s\n", n.pos)
		p.child("", n.Call)

	case *BlockStmt:
		p.printf("BlockStmt %s\n", n.pos)
		p.indent++
		for _, s := range n.Stmts {
			p.print(s)
		}
		p.indent--

	case *LetStmt:
		p.printf("LetStmt %s\n", n.pos)
		p.indent++
		p.printf("Name: %s\n", n.Name.Value)
		if n.Mut {
			p.printf("Mut: true\n")
		}
		if n.Type != nil {
			p.printf("Type: %s\n", typeString(n.Type))
		}
		if n.Value != nil {
			p.child("Value", n.Value)
		}
		p.indent--

	case *IfStmt:
		p.printf("IfStmt %s\n", n.pos)
		p.indent++
		p.child("Cond", n.Cond)
		p.child("Then", n.Then)
		if n.Else != nil {
			p.child("Else", n.Else)
		}
		p.indent--

	case *ForStmt:
		p.printf("ForStmt %s\n", n.pos)
		p.indent++
		if n.Init != nil {
			p.child("Init", n.Init)
		}
		p.child("Cond", n.Cond)
		p.child("Body", n.Body)
		p.indent--

	case *MatchStmt:
		p.printf("MatchStmt %s\n", n.pos)
		p.indent++
		p.child("X", n.X)
		for _, c := range n.Cases {
			p.printf("Case %s\n", c.pos)
			p.indent++
			p.child("Value", c.Value)
			p.child("Body", c.Body)
			p.indent--
		}
		p.indent--

	case *ReturnStmt:
		p.printf("ReturnStmt %s\n", n.pos)
		if n.Result != nil {
			p.child("", n.Result)
		}

	case *BreakStmt:
		p.printf("BreakStmt %s\n", n.pos)

	case *AssignStmt:
		p.printf("AssignStmt %s\n", n.pos)
		p.indent++
		p.child("LHS", n.LHS)
		p.child("RHS", n.RHS)
		p.indent--

	case *ExprStmt:
		p.printf("ExprStmt %s\n", n.pos)
		p.child("", n.X)

	case *EmptyStmt:
		p.printf("EmptyStmt %s\n", n.pos)

	case *Name:
		p.printf("Name %s %q\n", n.pos, n.Value)

	case *BasicLit:
		p.printf("BasicLit %s %s %q\n", n.pos, n.Kind, n.Value)

	case *Operation:
		if n.Y == nil {
			p.printf("UnaryOp %s %s\n", n.pos, n.Op)
			p.child("", n.X)
		} else {
			p.printf("BinaryOp %s %s\n", n.pos, n.Op)
			p.indent++
			p.child("X", n.X)
			p.child("Y", n.Y)
			p.indent--
		}

	case *CallExpr:
		p.printf("CallExpr %s\n", n.pos)
		p.indent++
		p.child("Fun", n.Fun)
		if len(n.Args) > 0 {
			p.printf("Args:\n")
			p.indent++
			for _, a := range n.Args {
				p.print(a)
			}
			p.indent--
		}
		p.indent--

	case *IndexExpr:
		p.printf("IndexExpr %s\n", n.pos)
		p.indent++
		p.child("X", n.X)
		p.child("Index", n.Index)
		p.indent--

	case *SelectorExpr:
		op := "."
		if n.Arrow {
			op = "->"
		}
		p.printf("SelectorExpr %s %s\n", n.pos, op)
		p.indent++
		p.child("X", n.X)
		p.printf("Sel: %s\n", n.Sel.Value)
		p.indent--

	case *ResolutionExpr:
		p.printf("ResolutionExpr %s %s::%s\n", n.pos, n.X.Value, n.Sel.Value)

	case *CastExpr:
		p.printf("CastExpr %s\n", n.pos)
		p.indent++
		p.printf("Type: %s\n", typeString(n.Type))
		p.child("X", n.X)
		p.indent--

	case *ParenExpr:
		p.printf("ParenExpr %s\n", n.pos)
		p.child("", n.X)

	case *InitList:
		p.printf("InitList %s\n", n.pos)
		p.indent++
		for _, e := range n.Elems {
			if e.Name != nil {
				p.printf("Elem .%s\n", e.Name.Value)
			} else {
				p.printf("Elem\n")
			}
			p.child("", e.Value)
		}
		p.indent--

	case *ClosureExpr:
		p.printf("ClosureExpr %s\n", n.pos)
		p.child("", n.Func)

	case *IntrinsicCall:
		p.printf("IntrinsicCall %s %s\n", n.pos, n.Name.Value)
		p.indent++
		if n.Type != nil {
			p.printf("Type: %s\n", typeString(n.Type))
		}
		for _, a := range n.Args {
			p.print(a)
		}
		p.indent--

	default:
		p.printf("<%T>\n", node)
	}
}

// typeString returns a string representation of a source type.
func typeString(t types.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}

// ExprString returns a short source-like rendering of an expression,
// used in diagnostics.
func ExprString(e Expr) string {
	if e == nil {
		return "<nil>"
	}
	switch x := e.(type) {
	case *Name:
		return x.Value
	case *BasicLit:
		if x.Kind == StringLit {
			return fmt.Sprintf("%q", x.Value)
		}
		return x.Value
	case *SelectorExpr:
		if x.Arrow {
			return ExprString(x.X) + "->" + x.Sel.Value
		}
		return ExprString(x.X) + "." + x.Sel.Value
	case *ResolutionExpr:
		return x.X.Value + "::" + x.Sel.Value
	case *IndexExpr:
		return ExprString(x.X) + "[" + ExprString(x.Index) + "]"
	case *ParenExpr:
		return "(" + ExprString(x.X) + ")"
	case *Operation:
		if x.Y == nil {
			return x.Op.String() + ExprString(x.X)
		}
		return ExprString(x.X) + " " + x.Op.String() + " " + ExprString(x.Y)
	case *CallExpr:
		args := make([]string, len(x.Args))
		for i, a := range x.Args {
			args[i] = ExprString(a)
		}
		return ExprString(x.Fun) + "(" + strings.Join(args, ", ") + ")"
	case *CastExpr:
		return "(:" + typeString(x.Type) + ") " + ExprString(x.X)
	case *IntrinsicCall:
		return x.Name.Value + "$(...)"
	default:
		return fmt.Sprintf("<%T>", e)
	}
}
