package syntax

// Visitor is called for each node during Walk.
// If it returns false, the children of the node are not visited.
type Visitor func(node Node) bool

// Walk traverses an AST in depth-first order.
// If visitor returns false, children are not visited.
// Types are not nodes and are not visited.
func Walk(node Node, v Visitor) {
	if node == nil || !v(node) {
		return
	}

	switch n := node.(type) {
	case *File:
		for _, d := range n.Decls {
			Walk(d, v)
		}

	case *FuncDecl:
		Walk(n.Name, v)
		for _, p := range n.Params {
			Walk(p, v)
		}
		if n.Body != nil {
			Walk(n.Body, v)
		}

	case *Param:
		Walk(n.Name, v)

	case *Field:
		Walk(n.Name, v)

	case *StructDecl:
		Walk(n.Name, v)
		for _, f := range n.Fields {
			Walk(f, v)
		}

	case *EnumDecl:
		Walk(n.Name, v)
		for _, e := range n.Variants {
			Walk(e, v)
		}

	case *TypeAliasDecl:
		Walk(n.Name, v)

	case *StaticDecl:
		Walk(n.Name, v)
		if n.Value != nil {
			Walk(n.Value, v)
		}

	case *ImplDecl:
		if n.Trait != nil {
			Walk(n.Trait, v)
		}
		Walk(n.Type, v)
		for _, m := range n.Methods {
			Walk(m, v)
		}

	case *TraitDecl:
		Walk(n.Name, v)
		for _, m := range n.Methods {
			Walk(m, v)
		}

	case *MacroDecl:
		Walk(n.Name, v)

	case *IntrinsicDecl:
		Walk(n.Call, v)

	case *BlockStmt:
		for _, s := range n.Stmts {
			Walk(s, v)
		}

	case *LetStmt:
		Walk(n.Name, v)
		if n.Value != nil {
			Walk(n.Value, v)
		}

	case *IfStmt:
		Walk(n.Cond, v)
		Walk(n.Then, v)
		if n.Else != nil {
			Walk(n.Else, v)
		}

	case *ForStmt:
		if n.Init != nil {
			Walk(n.Init, v)
		}
		Walk(n.Cond, v)
		Walk(n.Body, v)

	case *MatchStmt:
		Walk(n.X, v)
		for _, c := range n.Cases {
			Walk(c, v)
		}

	case *CaseClause:
		Walk(n.Value, v)
		Walk(n.Body, v)

	case *ReturnStmt:
		if n.Result != nil {
			Walk(n.Result, v)
		}

	case *AssignStmt:
		Walk(n.LHS, v)
		Walk(n.RHS, v)

	case *ExprStmt:
		Walk(n.X, v)

	case *Operation:
		Walk(n.X, v)
		if n.Y != nil {
			Walk(n.Y, v)
		}

	case *CallExpr:
		Walk(n.Fun, v)
		for _, a := range n.Args {
			Walk(a, v)
		}

	case *IndexExpr:
		Walk(n.X, v)
		Walk(n.Index, v)

	case *SelectorExpr:
		Walk(n.X, v)
		Walk(n.Sel, v)

	case *ResolutionExpr:
		Walk(n.X, v)
		Walk(n.Sel, v)

	case *CastExpr:
		Walk(n.X, v)

	case *ParenExpr:
		Walk(n.X, v)

	case *InitList:
		for _, e := range n.Elems {
			Walk(e, v)
		}

	case *InitElem:
		if n.Name != nil {
			Walk(n.Name, v)
		}
		Walk(n.Value, v)

	case *ClosureExpr:
		Walk(n.Func, v)

	case *IntrinsicCall:
		Walk(n.Name, v)
		for _, a := range n.Args {
			Walk(a, v)
		}

	// Leaf nodes: Name, BasicLit, EmptyStmt, BreakStmt
	// No children to visit
	}
}

// Inspect traverses an AST and calls f for each node.
// Convenience wrapper around Walk.
func Inspect(node Node, f func(Node) bool) {
	Walk(node, Visitor(f))
}
