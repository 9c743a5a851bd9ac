package scope

import (
	"fmt"
	"sort"
	"strings"

	"github.com/llir/llvm/ir"
	irtypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/you-not-fish/lygos/internal/diag"
	"github.com/you-not-fish/lygos/internal/src"
	"github.com/you-not-fish/lygos/internal/syntax"
	"github.com/you-not-fish/lygos/internal/types"
)

// Symbol is a named entity bound in a scope: a variable, function,
// struct, enum, type alias or trait.
type Symbol interface {
	Pos() src.Pos // declaration position
	Kind() string // symbol kind, for diagnostics
	aSymbol()     // marker method to restrict implementations
}

// symbol is the base struct for all symbols.
type symbol struct {
	pos src.Pos
}

func (s *symbol) Pos() src.Pos { return s.pos }
func (*symbol) aSymbol()       {}

// Variable is a local variable, parameter or static. Addr is the
// backend address of its storage.
type Variable struct {
	symbol
	Type  types.Type
	Addr  value.Value
	Const bool
}

// NewVariable creates a variable symbol.
func NewVariable(pos src.Pos, typ types.Type, addr value.Value, isConst bool) *Variable {
	return &Variable{symbol: symbol{pos}, Type: typ, Addr: addr, Const: isConst}
}

func (*Variable) Kind() string { return "variable" }

// Param is a function parameter.
type Param struct {
	Name string
	Type types.Type
	Pos  src.Pos
}

// Function is a free function, method or closure signature. Self has
// already been substituted in Params and Result of methods.
type Function struct {
	symbol
	Name     string // source name
	Mangled  string // backend name: Struct_method for methods
	Params   []Param
	Result   types.Type // nil for void
	Variadic bool
	IsDef    bool            // has a body
	Recv     syntax.RecvKind // receiver kind; the receiver is Params[0]
	Owner    string          // struct name for methods

	// IR is the backend function, created on definition or first call.
	IR *ir.Func
}

// NewFunction creates a function symbol. Mangled defaults to name.
func NewFunction(pos src.Pos, name string) *Function {
	return &Function{symbol: symbol{pos}, Name: name, Mangled: name}
}

func (*Function) Kind() string { return "function" }

// ResultType returns the result type, void when none was declared.
func (f *Function) ResultType() types.Type {
	if f.Result == nil {
		return types.Void()
	}
	return f.Result
}

// Signature renders the function type, e.g. fn(i32, *i8) -> i32.
func (f *Function) Signature() string {
	params := make([]types.Type, len(f.Params))
	for i, p := range f.Params {
		params[i] = p.Type
	}
	return types.NewFuncPointer(f.pos, params, f.Result, f.Variadic).String()
}

// StructDecl is the declaration state of a struct: *Forward until the
// struct declaration is collected, *Declared afterwards.
type StructDecl interface {
	aStructDecl()
}

// Forward marks a struct referenced by an impl block before its
// declaration was seen.
type Forward struct {
	Ref src.Pos // first reference
}

// Declared holds the fields of a declared struct.
type Declared struct {
	Fields []Field
}

func (*Forward) aStructDecl()  {}
func (*Declared) aStructDecl() {}

// Field is a struct field.
type Field struct {
	Name string
	Type types.Type
	Pos  src.Pos
}

// layout tracks how far the backend type of a struct is materialized.
type layout uint8

const (
	layoutNone    layout = iota // no backend type yet
	layoutPending               // named shell created, fields not yet resolved
	layoutBusy                  // fields being resolved
	layoutDone
)

// Struct is a struct type with its methods and implemented traits.
type Struct struct {
	symbol
	Name string
	Decl StructDecl

	methods map[string]*Function
	order   []string // method names in registration order
	traits  map[string]src.Pos

	// Memoized backend type, see Table.ResolveType.
	ir     *irtypes.StructType
	layout layout
}

// NewStruct creates a declared struct.
func NewStruct(pos src.Pos, name string, fields []Field) *Struct {
	s := newStruct(pos, name)
	s.Decl = &Declared{Fields: fields}
	return s
}

// NewForwardStruct creates a struct known only by reference.
func NewForwardStruct(pos src.Pos, name string) *Struct {
	s := newStruct(pos, name)
	s.Decl = &Forward{Ref: pos}
	return s
}

func newStruct(pos src.Pos, name string) *Struct {
	return &Struct{
		symbol:  symbol{pos},
		Name:    name,
		methods: make(map[string]*Function),
		traits:  make(map[string]src.Pos),
	}
}

func (*Struct) Kind() string { return "struct" }

// IsForward reports whether the struct has not been declared yet.
func (s *Struct) IsForward() bool {
	_, ok := s.Decl.(*Forward)
	return ok
}

// Resolve replaces a forward declaration with the declared fields,
// keeping the methods and traits registered so far.
func (s *Struct) Resolve(pos src.Pos, fields []Field) {
	s.pos = pos
	s.Decl = &Declared{Fields: fields}
}

// Fields returns the declared fields; a forward struct has none.
func (s *Struct) Fields() []Field {
	if d, ok := s.Decl.(*Declared); ok {
		return d.Fields
	}
	return nil
}

// Field returns the field named name and its index.
func (s *Struct) Field(name string) (Field, int, bool) {
	for i, f := range s.Fields() {
		if f.Name == name {
			return f, i, true
		}
	}
	return Field{}, -1, false
}

// FieldIndex returns the index of the field named name, or -1.
func (s *Struct) FieldIndex(name string) int {
	_, i, _ := s.Field(name)
	return i
}

// UnknownField reports a missing field, listing the available ones.
func (s *Struct) UnknownField(pos src.Pos, name string) *diag.Error {
	names := make([]string, len(s.Fields()))
	for i, f := range s.Fields() {
		names[i] = "`" + f.Name + "`"
	}
	return diag.At(pos, "unknown field", "unknown field `%s` in type `%s`", name, s.Name).
		WithNote("available fields are: %s", strings.Join(names, ", "))
}

// AddMethod registers f as a method. Redefining a method that already
// has a body is an error; a declaration after a definition is ignored.
func (s *Struct) AddMethod(f *Function) error {
	if prev, ok := s.methods[f.Name]; ok {
		if prev.IsDef && f.IsDef {
			return duplicate(f.Name, f.Pos(), prev.Pos())
		}
		if prev.IsDef {
			return nil
		}
		if f.IR == nil {
			f.IR = prev.IR
		}
	} else {
		s.order = append(s.order, f.Name)
	}
	s.methods[f.Name] = f
	return nil
}

// Method returns the method named name.
func (s *Struct) Method(name string, pos src.Pos) (*Function, error) {
	if f, ok := s.methods[name]; ok {
		return f, nil
	}
	return nil, diag.At(pos, "unknown method", "unknown function `%s` in struct `%s`", name, s.Name)
}

// LookupMethod returns the method named name, if any.
func (s *Struct) LookupMethod(name string) (*Function, bool) {
	f, ok := s.methods[name]
	return f, ok
}

// Methods returns the methods in registration order.
func (s *Struct) Methods() []*Function {
	out := make([]*Function, len(s.order))
	for i, name := range s.order {
		out[i] = s.methods[name]
	}
	return out
}

// RegisterTraitImpl records that the struct implements trait.
func (s *Struct) RegisterTraitImpl(trait string, pos src.Pos) error {
	if prev, ok := s.traits[trait]; ok {
		return diag.At(pos, "duplicate implementation", "trait `%s` is already implemented for type `%s`", trait, s.Name).
			WithLabel(prev, "first implementation here")
	}
	s.traits[trait] = pos
	return nil
}

// ImplementsTrait reports whether the struct implements trait.
func (s *Struct) ImplementsTrait(trait string) bool {
	_, ok := s.traits[trait]
	return ok
}

// Traits returns the implemented traits in sorted order.
func (s *Struct) Traits() []string {
	out := make([]string, 0, len(s.traits))
	for t := range s.traits {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Enum is an enumeration over an integer type. Variants number from 0
// in declaration order.
type Enum struct {
	symbol
	Name       string
	Underlying types.Type
	Variants   []string
}

// NewEnum creates an enum symbol.
func NewEnum(pos src.Pos, name string, underlying types.Type, variants []string) *Enum {
	return &Enum{symbol: symbol{pos}, Name: name, Underlying: underlying, Variants: variants}
}

func (*Enum) Kind() string { return "enum" }

// Variant returns the value of the variant named name.
func (e *Enum) Variant(name string) (int64, bool) {
	for i, v := range e.Variants {
		if v == name {
			return int64(i), true
		}
	}
	return 0, false
}

// TypeAlias is a named alias for another type.
type TypeAlias struct {
	symbol
	Name   string
	Target types.Type

	resolving bool
}

// NewTypeAlias creates an alias symbol.
func NewTypeAlias(pos src.Pos, name string, target types.Type) *TypeAlias {
	return &TypeAlias{symbol: symbol{pos}, Name: name, Target: target}
}

func (*TypeAlias) Kind() string { return "type alias" }

// Trait is a set of method signatures. Self is left unsubstituted.
type Trait struct {
	symbol
	Name    string
	Methods []*Function
}

// NewTrait creates a trait symbol.
func NewTrait(pos src.Pos, name string, methods []*Function) *Trait {
	return &Trait{symbol: symbol{pos}, Name: name, Methods: methods}
}

func (*Trait) Kind() string { return "trait" }

// duplicate reports a redefinition of name.
func duplicate(name string, pos, prev src.Pos) *diag.Error {
	return diag.At(pos, "redefined here", "duplicate definition of `%s`", name).
		WithLabel(prev, "previous definition here")
}

// kindMismatch reports a symbol of the wrong kind.
func kindMismatch(pos src.Pos, name string, sym Symbol, want string) *diag.Error {
	return diag.At(pos, fmt.Sprintf("not a %s", want), "`%s` is a %s, not a %s", name, sym.Kind(), want).
		WithLabel(sym.Pos(), "`%s` declared here", name)
}
