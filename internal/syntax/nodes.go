package syntax

import (
	"github.com/you-not-fish/lygos/internal/src"
	"github.com/you-not-fish/lygos/internal/types"
)

// ----------------------------------------------------------------------------
// Interfaces
//
// There are 3 main classes of nodes: Expressions, Statements, and Declarations.
// All nodes implement the Node interface. The set of node types is closed:
// code generation switches over it exhaustively.

// Node is the interface implemented by all AST nodes.
type Node interface {
	Pos() src.Pos // position of first character belonging to the node
	aNode()       // marker method to restrict implementations to this package
}

// Expr is the interface for all expression nodes.
type Expr interface {
	Node
	aExpr()
}

// Stmt is the interface for all statement nodes.
type Stmt interface {
	Node
	aStmt()
}

// Decl is the interface for all declaration nodes.
type Decl interface {
	Node
	aDecl()
}

// ----------------------------------------------------------------------------
// Base node types

// node is the base struct embedded in all AST nodes.
type node struct {
	pos src.Pos
}

func (n *node) Pos() src.Pos { return n.pos }
func (n *node) aNode()       {}

// expr is embedded in all expression nodes.
type expr struct{ node }

func (*expr) aExpr() {}

// stmt is embedded in all statement nodes.
type stmt struct{ node }

func (*stmt) aStmt() {}

// decl is embedded in all declaration nodes.
type decl struct{ node }

func (*decl) aDecl() {}

// ----------------------------------------------------------------------------
// Files and Declarations

// File represents a source file after macro expansion and includes.
type File struct {
	node
	Decls []Decl
}

// RecvKind describes how a method receives self.
type RecvKind uint8

const (
	RecvNone   RecvKind = iota // free function or static method
	RecvValue                  // self
	RecvRef                    // &self
	RecvMutRef                 // &mut self
)

func (k RecvKind) String() string {
	switch k {
	case RecvValue:
		return "self"
	case RecvRef:
		return "&self"
	case RecvMutRef:
		return "&mut self"
	}
	return "none"
}

// FuncDecl represents a function, method or closure signature with an
// optional body: fn Name(Params) -> Result { Body }
type FuncDecl struct {
	decl
	Name     *Name
	Recv     RecvKind   // receiver kind; the receiver is Params[0]
	Params   []*Param   // parameters, including self
	Variadic bool       // trailing `...`
	Result   types.Type // nil for void
	Body     *BlockStmt // nil for a declaration
}

// Param represents a function parameter: name: Type
type Param struct {
	node
	Name *Name
	Type types.Type
}

// Field represents a struct field: name: Type;
type Field struct {
	node
	Name *Name
	Type types.Type
}

// StructDecl represents struct Name { Fields };
type StructDecl struct {
	decl
	Name   *Name
	Fields []*Field
}

// EnumDecl represents enum Name: Underlying { Variants }
type EnumDecl struct {
	decl
	Name       *Name
	Underlying types.Type // defaults to u32
	Variants   []*Name
}

// TypeAliasDecl represents type Name = Type;
type TypeAliasDecl struct {
	decl
	Name *Name
	Type types.Type
}

// StaticDecl represents static Name: Type [= Value];
type StaticDecl struct {
	decl
	Name  *Name
	Type  types.Type
	Value Expr // nil for a zero-initialized static
}

// ImplDecl represents impl [Trait for] Type { Methods }
type ImplDecl struct {
	decl
	Trait   *Name // nil for an inherent impl
	Type    *Name
	Methods []*FuncDecl
}

// TraitDecl represents trait Name { method signatures }
type TraitDecl struct {
	decl
	Name    *Name
	Methods []*FuncDecl
}

// MacroDecl represents macro Name { (params) -> { body } ... }
type MacroDecl struct {
	decl
	Name *Name
	Arms []*MacroArm
}

// MacroArm is one parameter pattern and its token template.
type MacroArm struct {
	node
	Params []*MacroParam
	Body   []Lexeme // template tokens, excluding the outer braces
}

// MacroParam is a macro arm parameter: name: $ or name: []
type MacroParam struct {
	node
	Name     string
	Variadic bool
}

// IntrinsicDecl is an intrinsic call at module level, such as
// impl_debug$(Point);
type IntrinsicDecl struct {
	decl
	Call *IntrinsicCall
}

// ----------------------------------------------------------------------------
// Expressions

// Name represents an identifier.
type Name struct {
	expr
	Value string
}

// BasicLit represents a literal value.
type BasicLit struct {
	expr
	Value string  // literal text (decoded for strings and chars)
	Kind  LitKind // IntLit, FloatLit, StringLit, CharLit, BoolLit
}

// Operation represents a unary or binary operation.
// For unary operations, Y is nil.
type Operation struct {
	expr
	Op Token
	X  Expr
	Y  Expr
}

// CallExpr represents a call: Fun(Args...). Fun is a Name (free function
// or function pointer variable), a SelectorExpr (member call), a
// ResolutionExpr (static method) or any expression of function pointer type.
type CallExpr struct {
	expr
	Fun  Expr
	Args []Expr
}

// SelectorExpr represents X.Sel, or X->Sel when Arrow is set.
type SelectorExpr struct {
	expr
	X     Expr
	Sel   *Name
	Arrow bool
}

// IndexExpr represents X[Index].
type IndexExpr struct {
	expr
	X     Expr
	Index Expr
}

// ResolutionExpr represents X::Sel, an enum variant or a static method.
type ResolutionExpr struct {
	expr
	X   *Name
	Sel *Name
}

// CastExpr represents (:Type) X.
type CastExpr struct {
	expr
	Type types.Type
	X    Expr
}

// InitList represents { .name = value, value, ... }.
type InitList struct {
	expr
	Elems []*InitElem
}

// InitElem is one element of an initializer list.
type InitElem struct {
	node
	Name  *Name // nil for a positional element
	Value Expr
}

// ParenExpr represents (X).
type ParenExpr struct {
	expr
	X Expr
}

// ClosureExpr represents an anonymous function: fn(Params) -> Result { Body }
type ClosureExpr struct {
	expr
	Func *FuncDecl
}

// IntrinsicCall represents a compiler builtin invoked with macro syntax,
// such as sizeof$(T) or format_args$("{}", x).
type IntrinsicCall struct {
	expr
	Name *Name
	Type types.Type // sizeof operand
	Args []Expr     // format_args and impl_debug operands
}

// ----------------------------------------------------------------------------
// Statements

// EmptyStmt represents an empty statement (just a semicolon).
type EmptyStmt struct {
	stmt
}

// ExprStmt represents an expression used as a statement.
type ExprStmt struct {
	stmt
	X Expr
}

// LetStmt represents let [mut] Name[: Type] [= Value];
type LetStmt struct {
	stmt
	Name  *Name
	Mut   bool
	Type  types.Type // nil when inferred
	Value Expr       // nil when declared without a value
}

// AssignStmt represents LHS = RHS;
type AssignStmt struct {
	stmt
	LHS Expr
	RHS Expr
}

// BlockStmt represents a block statement: { Stmts... }
type BlockStmt struct {
	stmt
	Stmts  []Stmt
	Rbrace src.Pos
}

// IfStmt represents if Cond Then [else Else]
type IfStmt struct {
	stmt
	Cond Expr
	Then *BlockStmt
	Else Stmt // nil, *IfStmt, or *BlockStmt
}

// ForStmt represents for [let init in] Cond { Body }, and while Cond { Body }.
type ForStmt struct {
	stmt
	Init *LetStmt // nil for while loops
	Cond Expr
	Body *BlockStmt
}

// MatchStmt represents match X { Cases }
type MatchStmt struct {
	stmt
	X     Expr
	Cases []*CaseClause
}

// CaseClause represents Value -> { Body }
type CaseClause struct {
	node
	Value Expr
	Body  *BlockStmt
}

// ReturnStmt represents return [Result];
type ReturnStmt struct {
	stmt
	Result Expr // nil for bare return
}

// BreakStmt represents break;
type BreakStmt struct {
	stmt
}
