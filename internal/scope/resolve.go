package scope

import (
	irtypes "github.com/llir/llvm/ir/types"

	"github.com/you-not-fish/lygos/internal/diag"
	"github.com/you-not-fish/lygos/internal/src"
	"github.com/you-not-fish/lygos/internal/types"
)

// baseTypes maps base type names to backend types. Signedness lives in
// the source type; the backend integer types carry only the width.
var baseTypes = map[string]irtypes.Type{
	"i8":   irtypes.I8,
	"i16":  irtypes.I16,
	"i32":  irtypes.I32,
	"i64":  irtypes.I64,
	"u8":   irtypes.I8,
	"u16":  irtypes.I16,
	"u32":  irtypes.I32,
	"u64":  irtypes.I64,
	"f32":  irtypes.Float,
	"f64":  irtypes.Double,
	"bool": irtypes.I1,
	"void": irtypes.Void,
}

// ResolveType lowers t, as seen from scope id, to its backend type.
//
// Struct types are created once as named types of the module and
// memoized on the symbol, so every resolution of a struct yields the
// same handle. The named type exists before its fields are resolved:
// a struct may refer to itself through a pointer, but not by value.
func (t *Table) ResolveType(id ID, typ types.Type) (irtypes.Type, error) {
	out, err := t.resolve(id, typ, false)
	if err != nil {
		return nil, err
	}
	if err := t.completePending(); err != nil {
		return nil, err
	}
	return out, nil
}

// StructType returns the backend type of s.
func (t *Table) StructType(s *Struct) (*irtypes.StructType, error) {
	if _, err := t.ResolveType(t.Root(), types.NewPath(s.Pos(), s.Name)); err != nil {
		return nil, err
	}
	return s.ir, nil
}

// ResolveFuncType lowers a function signature.
func (t *Table) ResolveFuncType(id ID, params []types.Type, result types.Type, variadic bool) (*irtypes.FuncType, error) {
	fp := types.NewFuncPointer(src.NoPos, params, result, variadic)
	out, err := t.ResolveType(id, fp)
	if err != nil {
		return nil, err
	}
	return out.(*irtypes.PointerType).ElemType.(*irtypes.FuncType), nil
}

// resolve lowers typ. indirect is set below a pointer, where a struct
// only needs its named shell.
func (t *Table) resolve(id ID, typ types.Type, indirect bool) (irtypes.Type, error) {
	switch typ := typ.(type) {
	case nil:
		return irtypes.Void, nil

	case *types.Path:
		return t.resolvePath(id, typ, indirect)

	case *types.Pointer:
		if types.IsVoidType(typ.Elem) {
			return irtypes.NewPointer(irtypes.I8), nil
		}
		elem, err := t.resolve(id, typ.Elem, true)
		if err != nil {
			return nil, err
		}
		return irtypes.NewPointer(elem), nil

	case *types.Array:
		elem, err := t.resolve(id, typ.Elem, indirect)
		if err != nil {
			return nil, err
		}
		return irtypes.NewArray(typ.Len, elem), nil

	case *types.Slice:
		elem, err := t.resolve(id, typ.Elem, true)
		if err != nil {
			return nil, err
		}
		if elem.Equal(irtypes.Void) {
			elem = irtypes.I8
		}
		return irtypes.NewStruct(irtypes.NewPointer(elem), irtypes.I64), nil

	case *types.FuncPointer:
		params := make([]irtypes.Type, len(typ.Params))
		for i, p := range typ.Params {
			pt, err := t.resolve(id, p, true)
			if err != nil {
				return nil, err
			}
			params[i] = pt
		}
		result, err := t.resolve(id, typ.Result, true)
		if err != nil {
			return nil, err
		}
		sig := irtypes.NewFunc(result, params...)
		sig.Variadic = typ.Variadic
		return irtypes.NewPointer(sig), nil
	}
	diag.Internal("unexpected type %T", typ)
	return nil, nil
}

func (t *Table) resolvePath(id ID, p *types.Path, indirect bool) (irtypes.Type, error) {
	if b, ok := baseTypes[p.Name]; ok {
		return b, nil
	}
	sym, ok := t.TryResolveSymbol(id, p.Name)
	if !ok {
		if p.Name == types.SelfName {
			return nil, diag.At(p.Pos(), "`Self` outside of an impl block", "cannot resolve `Self` here").
				WithHelp("`Self` is only available inside `impl` and `trait` blocks")
		}
		return nil, diag.At(p.Pos(), "not found in this scope", "unknown type `%s`", p.Name)
	}
	switch sym := sym.(type) {
	case *Struct:
		return t.structType(sym, p.Pos(), indirect)

	case *Enum:
		return t.resolve(id, sym.Underlying, indirect)

	case *TypeAlias:
		if sym.resolving {
			return nil, diag.At(p.Pos(), "cycle detected here", "type alias `%s` refers to itself", sym.Name).
				WithLabel(sym.Pos(), "`%s` declared here", sym.Name)
		}
		sym.resolving = true
		defer func() { sym.resolving = false }()
		return t.resolve(id, sym.Target, indirect)
	}
	return nil, kindMismatch(p.Pos(), p.Name, sym, "type")
}

// structType returns the named backend type of s, creating it on first
// use. Below a pointer only the shell is needed and the fields are
// completed by completePending.
func (t *Table) structType(s *Struct, pos src.Pos, indirect bool) (irtypes.Type, error) {
	if f, ok := s.Decl.(*Forward); ok {
		return nil, unresolved(s, f)
	}

	switch s.layout {
	case layoutDone:
		return s.ir, nil
	case layoutBusy:
		if indirect {
			return s.ir, nil
		}
		return nil, diag.At(pos, "recursive without indirection", "recursive type `%s` has infinite size", s.Name).
			WithLabel(s.Pos(), "`%s` declared here", s.Name).
			WithHelp("insert some indirection (e.g. a pointer) to break the cycle")
	case layoutPending:
		if indirect {
			return s.ir, nil
		}
	case layoutNone:
		st := &irtypes.StructType{}
		t.Module.NewTypeDef(s.Name, st)
		s.ir = st
		if indirect {
			s.layout = layoutPending
			t.pending = append(t.pending, s)
			return st, nil
		}
	}

	if err := t.completeStruct(s); err != nil {
		return nil, err
	}
	return s.ir, nil
}

// completeStruct resolves the fields of s into its named shell.
func (t *Table) completeStruct(s *Struct) error {
	s.layout = layoutBusy
	fields := make([]irtypes.Type, len(s.Fields()))
	for i, f := range s.Fields() {
		ft, err := t.resolve(t.Root(), f.Type, false)
		if err != nil {
			return err
		}
		fields[i] = ft
	}
	s.ir.Fields = fields
	s.layout = layoutDone
	return nil
}

// completePending completes every struct only reached through pointers
// so far.
func (t *Table) completePending() error {
	for len(t.pending) > 0 {
		s := t.pending[0]
		t.pending = t.pending[1:]
		if s.layout != layoutPending {
			continue
		}
		if err := t.completeStruct(s); err != nil {
			return err
		}
	}
	return nil
}

// CheckStructs reports the first struct, by name, that was referenced
// by an impl block but never declared.
func (t *Table) CheckStructs() error {
	for _, s := range t.Structs() {
		if f, ok := s.Decl.(*Forward); ok {
			return unresolved(s, f)
		}
	}
	return nil
}

func unresolved(s *Struct, f *Forward) *diag.Error {
	return diag.At(f.Ref, "referenced here", "unresolved struct `%s`", s.Name).
		WithHelp("declare it with `struct %s { ... }`", s.Name)
}
