// Package scope implements the lexical scopes of a lygos compilation
// unit and the symbols bound in them.
//
// Scopes live in an arena (Table) and are addressed by ID. Each scope
// records its parent's ID, so lookups walk outward without the scopes
// holding pointers to each other. The Table also lowers source types to
// backend types, because struct and alias resolution needs the symbols.
package scope

import (
	"fmt"
	"sort"
	"strings"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/value"

	"github.com/you-not-fish/lygos/internal/diag"
	"github.com/you-not-fish/lygos/internal/rtabi"
	"github.com/you-not-fish/lygos/internal/src"
	"github.com/you-not-fish/lygos/internal/types"
)

// ID addresses a scope in a Table.
type ID int32

// NoScope is the parent of the root scope.
const NoScope ID = -1

type scopeData struct {
	parent   ID
	children []ID
	comment  string
	syms     map[string]Symbol
	ret      value.Value // return value slot of a function scope
}

// Table is the arena of every scope in one compilation unit.
type Table struct {
	scopes []scopeData

	// Module receives the named struct types created by ResolveType.
	Module *ir.Module

	pending []*Struct // structs with a named shell awaiting their fields
}

// NewTable creates a Table with a root scope holding the built-in str
// struct. Struct types are defined in m.
func NewTable(m *ir.Module) *Table {
	t := &Table{Module: m}
	root := t.Open(NoScope, "module")
	str := NewStruct(src.NoPos, types.StrName, []Field{
		{Name: rtabi.StrPtrField, Type: types.NewPointer(src.NoPos, types.I8(), false)},
		{Name: rtabi.StrLenField, Type: types.U64()},
	})
	t.scopes[root].syms[types.StrName] = str
	return t
}

// Root returns the module scope.
func (t *Table) Root() ID { return 0 }

// Open creates a new scope nested in parent.
func (t *Table) Open(parent ID, comment string) ID {
	id := ID(len(t.scopes))
	t.scopes = append(t.scopes, scopeData{
		parent:  parent,
		comment: comment,
		syms:    make(map[string]Symbol),
	})
	if parent != NoScope {
		p := t.get(parent)
		p.children = append(p.children, id)
	}
	return id
}

// Close drops the bindings of id. Backend values created for them stay
// valid.
func (t *Table) Close(id ID) {
	t.get(id).syms = nil
}

// Parent returns the parent of id, or NoScope for the root.
func (t *Table) Parent(id ID) ID { return t.get(id).parent }

// Comment returns the description id was opened with.
func (t *Table) Comment(id ID) string { return t.get(id).comment }

func (t *Table) get(id ID) *scopeData {
	if id < 0 || int(id) >= len(t.scopes) {
		diag.Internal("scope %d out of range", id)
	}
	return &t.scopes[id]
}

// Lookup returns the symbol bound to name in id itself.
func (t *Table) Lookup(id ID, name string) Symbol {
	return t.get(id).syms[name]
}

// lookupParent walks outward from id and returns the innermost scope
// binding name together with the symbol.
func (t *Table) lookupParent(id ID, name string) (ID, Symbol) {
	for ; id != NoScope; id = t.get(id).parent {
		if sym, ok := t.get(id).syms[name]; ok {
			return id, sym
		}
	}
	return NoScope, nil
}

// AddSymbol binds name to sym in the nearest scope that already binds
// name, or in id when no enclosing scope does. It returns the symbol
// that ends up bound, which differs from sym when an existing binding
// absorbs it:
//
//   - a function declaration after a definition keeps the definition;
//   - a definition after a declaration replaces it and inherits its
//     backend function;
//   - a struct declaration resolves an earlier forward struct in place,
//     and a forward struct after a declaration keeps the declaration.
//
// Two definitions of the same function or struct, or two symbols of
// different kinds, are a duplicate definition.
func (t *Table) AddSymbol(id ID, name string, sym Symbol) (Symbol, error) {
	owner, prev := t.lookupParent(id, name)
	if prev == nil {
		t.get(id).syms[name] = sym
		return sym, nil
	}

	switch prev := prev.(type) {
	case *Function:
		f, ok := sym.(*Function)
		if !ok {
			break
		}
		if prev.IsDef && f.IsDef {
			return nil, duplicate(name, f.Pos(), prev.Pos())
		}
		if prev.IsDef {
			return prev, nil
		}
		if f.IR == nil {
			f.IR = prev.IR
		}
		t.get(owner).syms[name] = f
		return f, nil

	case *Struct:
		s, ok := sym.(*Struct)
		if !ok {
			break
		}
		switch {
		case s.IsForward():
			return prev, nil
		case prev.IsForward():
			prev.Resolve(s.Pos(), s.Fields())
			return prev, nil
		}
		return nil, duplicate(name, s.Pos(), prev.Pos())

	case *Variable:
		if _, ok := sym.(*Variable); ok {
			t.get(owner).syms[name] = sym
			return sym, nil
		}
	}
	return nil, duplicate(name, sym.Pos(), prev.Pos())
}

// Declare binds name to sym in id, shadowing any outer binding.
func (t *Table) Declare(id ID, name string, sym Symbol) {
	t.get(id).syms[name] = sym
}

// TryResolveSymbol looks name up from id outward.
func (t *Table) TryResolveSymbol(id ID, name string) (Symbol, bool) {
	_, sym := t.lookupParent(id, name)
	return sym, sym != nil
}

// ResolveSymbol looks name up from id outward and fails when it is not
// bound.
func (t *Table) ResolveSymbol(id ID, name string, pos src.Pos) (Symbol, error) {
	if sym, ok := t.TryResolveSymbol(id, name); ok {
		return sym, nil
	}
	return nil, diag.At(pos, "not found in this scope", "unknown identifier `%s`", name)
}

// ResolveStruct resolves name to a struct.
func (t *Table) ResolveStruct(id ID, name string, pos src.Pos) (*Struct, error) {
	sym, err := t.ResolveSymbol(id, name, pos)
	if err != nil {
		return nil, err
	}
	s, ok := sym.(*Struct)
	if !ok {
		return nil, kindMismatch(pos, name, sym, "struct")
	}
	return s, nil
}

// ResolveFunction resolves name to a function.
func (t *Table) ResolveFunction(id ID, name string, pos src.Pos) (*Function, error) {
	sym, err := t.ResolveSymbol(id, name, pos)
	if err != nil {
		return nil, err
	}
	f, ok := sym.(*Function)
	if !ok {
		return nil, kindMismatch(pos, name, sym, "function")
	}
	return f, nil
}

// ReturnSlot returns the return value slot of the function enclosing
// id, or nil if none was created.
func (t *Table) ReturnSlot(id ID) value.Value {
	for ; id != NoScope; id = t.get(id).parent {
		if r := t.get(id).ret; r != nil {
			return r
		}
	}
	return nil
}

// SetReturnSlot records v as the return value slot of id.
func (t *Table) SetReturnSlot(id ID, v value.Value) {
	t.get(id).ret = v
}

// Names returns the names bound in id, sorted.
func (t *Table) Names(id ID) []string {
	syms := t.get(id).syms
	names := make([]string, 0, len(syms))
	for name := range syms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Structs returns every struct of the root scope, sorted by name.
func (t *Table) Structs() []*Struct {
	var out []*Struct
	root := t.get(t.Root())
	for _, name := range t.Names(t.Root()) {
		if s, ok := root.syms[name].(*Struct); ok {
			out = append(out, s)
		}
	}
	return out
}

// String dumps the scope tree.
func (t *Table) String() string {
	var buf strings.Builder
	t.writeTo(&buf, t.Root(), 0)
	return buf.String()
}

func (t *Table) writeTo(buf *strings.Builder, id ID, indent int) {
	prefix := strings.Repeat("  ", indent)
	s := t.get(id)
	fmt.Fprintf(buf, "%sscope %s {\n", prefix, s.comment)
	for _, name := range t.Names(id) {
		fmt.Fprintf(buf, "%s  %s: %s\n", prefix, name, describe(s.syms[name]))
	}
	for _, child := range s.children {
		t.writeTo(buf, child, indent+1)
	}
	fmt.Fprintf(buf, "%s}\n", prefix)
}

func describe(sym Symbol) string {
	switch sym := sym.(type) {
	case *Variable:
		return "var " + sym.Type.String()
	case *Function:
		return sym.Signature()
	case *Struct:
		if sym.IsForward() {
			return "struct (forward)"
		}
		return "struct"
	case *Enum:
		return "enum " + sym.Underlying.String()
	case *TypeAlias:
		return "type " + sym.Target.String()
	}
	return sym.Kind()
}
