package syntax

import (
	"encoding/json"
	"io"
)

// FprintJSON writes a JSON representation of the AST to w.
func FprintJSON(w io.Writer, node Node) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(toJSON(node))
}

type object map[string]interface{}

// obj starts the JSON object for n.
func obj(kind string, n Node) object {
	return object{"type": kind, "pos": n.Pos().String()}
}

// optional sets key to the JSON of n unless n is nil.
func (m object) optional(key string, n Node) {
	if n != nil {
		m[key] = toJSON(n)
	}
}

func toJSON(node Node) interface{} {
	if node == nil {
		return nil
	}

	switch n := node.(type) {
	case *File:
		m := obj("File", n)
		m["decls"] = mapSlice(n.Decls, toJSONDecl)
		return m

	case *FuncDecl:
		m := obj("FuncDecl", n)
		m["name"] = n.Name.Value
		if n.Recv != RecvNone {
			m["recv"] = n.Recv.String()
		}
		m["params"] = mapSlice(n.Params, func(p *Param) interface{} {
			return object{"name": p.Name.Value, "ptype": typeString(p.Type)}
		})
		if n.Variadic {
			m["variadic"] = true
		}
		if n.Result != nil {
			m["result"] = typeString(n.Result)
		}
		if n.Body != nil {
			m["body"] = toJSON(n.Body)
		}
		return m

	case *StructDecl:
		m := obj("StructDecl", n)
		m["name"] = n.Name.Value
		m["fields"] = mapSlice(n.Fields, func(f *Field) interface{} {
			return object{"name": f.Name.Value, "ftype": typeString(f.Type)}
		})
		return m

	case *EnumDecl:
		m := obj("EnumDecl", n)
		m["name"] = n.Name.Value
		m["underlying"] = typeString(n.Underlying)
		m["variants"] = mapSlice(n.Variants, func(v *Name) interface{} { return v.Value })
		return m

	case *TypeAliasDecl:
		m := obj("TypeAliasDecl", n)
		m["name"] = n.Name.Value
		m["aliased"] = typeString(n.Type)
		return m

	case *StaticDecl:
		m := obj("StaticDecl", n)
		m["name"] = n.Name.Value
		m["stype"] = typeString(n.Type)
		m.optional("value", n.Value)
		return m

	case *ImplDecl:
		m := obj("ImplDecl", n)
		if n.Trait != nil {
			m["trait"] = n.Trait.Value
		}
		m["for"] = n.Type.Value
		m["methods"] = mapSlice(n.Methods, func(f *FuncDecl) interface{} { return toJSON(f) })
		return m

	case *TraitDecl:
		m := obj("TraitDecl", n)
		m["name"] = n.Name.Value
		m["methods"] = mapSlice(n.Methods, func(f *FuncDecl) interface{} { return toJSON(f) })
		return m

	case *MacroDecl:
		m := obj("MacroDecl", n)
		m["name"] = n.Name.Value
		m["arms"] = len(n.Arms)
		return m

	case *IntrinsicDecl:
		m := obj("IntrinsicDecl", n)
		m["call"] = toJSON(n.Call)
		return m

	case *BlockStmt:
		m := obj("BlockStmt", n)
		m["stmts"] = mapSlice(n.Stmts, toJSONStmt)
		return m

	case *LetStmt:
		m := obj("LetStmt", n)
		m["name"] = n.Name.Value
		m["mut"] = n.Mut
		if n.Type != nil {
			m["ltype"] = typeString(n.Type)
		}
		m.optional("value", n.Value)
		return m

	case *IfStmt:
		m := obj("IfStmt", n)
		m["cond"] = toJSON(n.Cond)
		m["then"] = toJSON(n.Then)
		m.optional("else", n.Else)
		return m

	case *ForStmt:
		m := obj("ForStmt", n)
		if n.Init != nil {
			m["init"] = toJSON(n.Init)
		}
		m["cond"] = toJSON(n.Cond)
		m["body"] = toJSON(n.Body)
		return m

	case *MatchStmt:
		m := obj("MatchStmt", n)
		m["x"] = toJSON(n.X)
		m["cases"] = mapSlice(n.Cases, func(c *CaseClause) interface{} {
			return object{"value": toJSON(c.Value), "body": toJSON(c.Body)}
		})
		return m

	case *ReturnStmt:
		m := obj("ReturnStmt", n)
		m.optional("result", n.Result)
		return m

	case *BreakStmt:
		return obj("BreakStmt", n)

	case *AssignStmt:
		m := obj("AssignStmt", n)
		m["lhs"] = toJSON(n.LHS)
		m["rhs"] = toJSON(n.RHS)
		return m

	case *ExprStmt:
		m := obj("ExprStmt", n)
		m["x"] = toJSON(n.X)
		return m

	case *EmptyStmt:
		return obj("EmptyStmt", n)

	case *Name:
		m := obj("Name", n)
		m["value"] = n.Value
		return m

	case *BasicLit:
		m := obj("BasicLit", n)
		m["kind"] = n.Kind.String()
		m["value"] = n.Value
		return m

	case *Operation:
		m := obj("Operation", n)
		m["op"] = n.Op.String()
		m["x"] = toJSON(n.X)
		m.optional("y", n.Y)
		return m

	case *CallExpr:
		m := obj("CallExpr", n)
		m["fun"] = toJSON(n.Fun)
		m["args"] = mapSlice(n.Args, toJSONExpr)
		return m

	case *IndexExpr:
		m := obj("IndexExpr", n)
		m["x"] = toJSON(n.X)
		m["index"] = toJSON(n.Index)
		return m

	case *SelectorExpr:
		m := obj("SelectorExpr", n)
		m["x"] = toJSON(n.X)
		m["sel"] = n.Sel.Value
		m["arrow"] = n.Arrow
		return m

	case *ResolutionExpr:
		m := obj("ResolutionExpr", n)
		m["x"] = n.X.Value
		m["sel"] = n.Sel.Value
		return m

	case *CastExpr:
		m := obj("CastExpr", n)
		m["to"] = typeString(n.Type)
		m["x"] = toJSON(n.X)
		return m

	case *ParenExpr:
		m := obj("ParenExpr", n)
		m["x"] = toJSON(n.X)
		return m

	case *InitList:
		m := obj("InitList", n)
		m["elems"] = mapSlice(n.Elems, func(e *InitElem) interface{} {
			el := object{"value": toJSON(e.Value)}
			if e.Name != nil {
				el["name"] = e.Name.Value
			}
			return el
		})
		return m

	case *ClosureExpr:
		m := obj("ClosureExpr", n)
		m["func"] = toJSON(n.Func)
		return m

	case *IntrinsicCall:
		m := obj("IntrinsicCall", n)
		m["name"] = n.Name.Value
		if n.Type != nil {
			m["operand"] = typeString(n.Type)
		}
		m["args"] = mapSlice(n.Args, toJSONExpr)
		return m

	default:
		return object{"type": "Unknown"}
	}
}

func toJSONDecl(d Decl) interface{} { return toJSON(d) }
func toJSONStmt(s Stmt) interface{} { return toJSON(s) }
func toJSONExpr(e Expr) interface{} { return toJSON(e) }

func mapSlice[T any](s []T, f func(T) interface{}) []interface{} {
	result := make([]interface{}, len(s))
	for i, v := range s {
		result[i] = f(v)
	}
	return result
}
