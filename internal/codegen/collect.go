package codegen

import (
	"fmt"
	"strings"

	"github.com/llir/llvm/ir/constant"
	irtypes "github.com/llir/llvm/ir/types"

	"github.com/you-not-fish/lygos/internal/diag"
	"github.com/you-not-fish/lygos/internal/rtabi"
	"github.com/you-not-fish/lygos/internal/scope"
	"github.com/you-not-fish/lygos/internal/src"
	"github.com/you-not-fish/lygos/internal/syntax"
	"github.com/you-not-fish/lygos/internal/types"
)

// implCheck is a trait implementation to check against its trait once
// every declaration is collected.
type implCheck struct {
	trait   *syntax.Name
	s       *scope.Struct
	pos     src.Pos
	methods []*scope.Function
}

// Collect binds the declarations of file in the module scope and queues
// function bodies and statics for Emit. It also expands impl_debug$
// and checks trait implementations.
func (g *Generator) Collect(file *syntax.File) error {
	for _, d := range file.Decls {
		if err := g.collectDecl(d); err != nil {
			return err
		}
	}
	for _, call := range g.debugs {
		if err := g.implDebug(call); err != nil {
			return err
		}
	}
	g.debugs = nil
	return g.checkImpls()
}

func (g *Generator) collectDecl(d syntax.Decl) error {
	root := g.scopes.Root()
	switch d := d.(type) {
	case *syntax.StructDecl:
		fields := make([]scope.Field, len(d.Fields))
		seen := make(map[string]src.Pos)
		for i, f := range d.Fields {
			if prev, ok := seen[f.Name.Value]; ok {
				return diag.At(f.Pos(), "redefined here", "duplicate field `%s` in struct `%s`", f.Name.Value, d.Name.Value).
					WithLabel(prev, "first declared here")
			}
			seen[f.Name.Value] = f.Pos()
			fields[i] = scope.Field{Name: f.Name.Value, Type: f.Type, Pos: f.Pos()}
		}
		_, err := g.scopes.AddSymbol(root, d.Name.Value, scope.NewStruct(d.Pos(), d.Name.Value, fields))
		return err

	case *syntax.EnumDecl:
		u := d.Underlying
		if u == nil {
			u = types.U32()
		}
		if !types.IsIntegerType(u) {
			return diag.At(u.Pos(), "not an integer type", "enum `%s` must have an integer type, found `%s`", d.Name.Value, u)
		}
		variants := make([]string, len(d.Variants))
		for i, v := range d.Variants {
			for _, prev := range d.Variants[:i] {
				if prev.Value == v.Value {
					return diag.At(v.Pos(), "redefined here", "duplicate variant `%s` in enum `%s`", v.Value, d.Name.Value).
						WithLabel(prev.Pos(), "first declared here")
				}
			}
			variants[i] = v.Value
		}
		_, err := g.scopes.AddSymbol(root, d.Name.Value, scope.NewEnum(d.Pos(), d.Name.Value, u, variants))
		return err

	case *syntax.TypeAliasDecl:
		_, err := g.scopes.AddSymbol(root, d.Name.Value, scope.NewTypeAlias(d.Pos(), d.Name.Value, d.Type))
		return err

	case *syntax.StaticDecl:
		v := scope.NewVariable(d.Pos(), d.Type, nil, false)
		if _, err := g.scopes.AddSymbol(root, d.Name.Value, v); err != nil {
			return err
		}
		g.statics = append(g.statics, &static{sym: v, decl: d})
		return nil

	case *syntax.FuncDecl:
		sym, err := g.scopes.AddSymbol(root, d.Name.Value, signature(d, d.Name.Value, ""))
		if err != nil {
			return err
		}
		if d.Body != nil {
			g.bodies = append(g.bodies, &body{sym: sym.(*scope.Function), decl: d})
		}
		return nil

	case *syntax.ImplDecl:
		return g.collectImpl(d)

	case *syntax.TraitDecl:
		methods := make([]*scope.Function, len(d.Methods))
		for i, m := range d.Methods {
			methods[i] = signature(m, m.Name.Value, "")
		}
		_, err := g.scopes.AddSymbol(root, d.Name.Value, scope.NewTrait(d.Pos(), d.Name.Value, methods))
		return err

	case *syntax.MacroDecl:
		// Expanded by the parser.
		return nil

	case *syntax.IntrinsicDecl:
		if d.Call.Name.Value != rtabi.IntrinsicImplDebug {
			return diag.At(d.Pos(), "not allowed here", "intrinsic `%s` cannot be used at module level", d.Call.Name.Value)
		}
		g.debugs = append(g.debugs, d.Call)
		return nil
	}
	diag.Internal("unexpected declaration %T", d)
	return nil
}

// collectImpl registers the methods of an impl block. The struct may
// be declared later in the file; until then it is a forward struct.
func (g *Generator) collectImpl(d *syntax.ImplDecl) error {
	root := g.scopes.Root()
	name := d.Type.Value
	if sym, ok := g.scopes.TryResolveSymbol(root, name); ok {
		if _, ok := sym.(*scope.Struct); !ok {
			return diag.At(d.Type.Pos(), "not a struct", "`%s` is a %s, not a struct", name, sym.Kind()).
				WithLabel(sym.Pos(), "`%s` declared here", name)
		}
	}
	sym, err := g.scopes.AddSymbol(root, name, scope.NewForwardStruct(d.Type.Pos(), name))
	if err != nil {
		return err
	}
	s := sym.(*scope.Struct)

	if d.Trait != nil {
		if err := s.RegisterTraitImpl(d.Trait.Value, d.Pos()); err != nil {
			return err
		}
	}

	var methods []*scope.Function
	for _, m := range d.Methods {
		f := signature(m, m.Name.Value, name)
		if err := s.AddMethod(f); err != nil {
			return err
		}
		methods = append(methods, f)
		if m.Body != nil {
			g.bodies = append(g.bodies, &body{sym: f, decl: m})
		}
	}
	if d.Trait != nil {
		g.impls = append(g.impls, &implCheck{trait: d.Trait, s: s, pos: d.Pos(), methods: methods})
	}
	return nil
}

// checkImpls checks every trait implementation against its trait: each
// trait method must be provided with the trait's signature, Self
// replaced by the implementing struct, and nothing else may be added.
func (g *Generator) checkImpls() error {
	for _, c := range g.impls {
		sym, err := g.scopes.ResolveSymbol(g.scopes.Root(), c.trait.Value, c.trait.Pos())
		if err != nil {
			return err
		}
		t, ok := sym.(*scope.Trait)
		if !ok {
			return diag.At(c.trait.Pos(), "not a trait", "`%s` is a %s, not a trait", c.trait.Value, sym.Kind()).
				WithLabel(sym.Pos(), "`%s` declared here", c.trait.Value)
		}

		provided := make(map[string]*scope.Function, len(c.methods))
		for _, m := range c.methods {
			provided[m.Name] = m
		}
		declared := make(map[string]bool, len(t.Methods))
		for _, tm := range t.Methods {
			declared[tm.Name] = true
			m, ok := provided[tm.Name]
			if !ok {
				return diag.At(c.pos, fmt.Sprintf("missing `%s` in implementation", tm.Name),
					"missing method `%s` of trait `%s`", tm.Name, t.Name).
					WithLabel(tm.Pos(), "`%s` declared in the trait here", tm.Name)
			}
			want := traitSignature(tm, c.s.Name)
			if m.Recv != tm.Recv || m.Signature() != want {
				return diag.At(m.Pos(), "signature differs from the trait",
					"method `%s` does not match its declaration in trait `%s`", m.Name, t.Name).
					WithLabel(tm.Pos(), "trait declares `%s`", want)
			}
		}
		for _, m := range c.methods {
			if !declared[m.Name] {
				return diag.At(m.Pos(), "not a member of the trait", "method `%s` is not a member of trait `%s`", m.Name, t.Name)
			}
		}
	}
	return nil
}

// traitSignature renders a trait method's signature with Self replaced.
func traitSignature(tm *scope.Function, owner string) string {
	f := *tm
	f.Params = make([]scope.Param, len(tm.Params))
	for i, p := range tm.Params {
		f.Params[i] = scope.Param{Name: p.Name, Type: types.Substitute(p.Type, types.SelfName, owner), Pos: p.Pos}
	}
	if tm.Result != nil {
		f.Result = types.Substitute(tm.Result, types.SelfName, owner)
	}
	return f.Signature()
}

// implDebug expands impl_debug$(S) into an `impl Debug for S` written
// in lygos and collects it like any other impl block.
func (g *Generator) implDebug(call *syntax.IntrinsicCall) error {
	if len(call.Args) != 1 {
		return diag.At(call.Pos(), "expected a struct name", "incorrect number of arguments supplied to `%s`", rtabi.IntrinsicImplDebug)
	}
	n, ok := call.Args[0].(*syntax.Name)
	if !ok {
		return diag.At(call.Args[0].Pos(), "expected a struct name", "`%s` expects a struct name", rtabi.IntrinsicImplDebug)
	}
	s, err := g.scopes.ResolveStruct(g.scopes.Root(), n.Value, n.Pos())
	if err != nil {
		return err
	}
	if s.IsForward() {
		return diag.At(n.Pos(), "not declared", "cannot implement `%s` for undeclared struct `%s`", rtabi.DebugTrait, s.Name)
	}
	text, err := debugSource(s)
	if err != nil {
		return err
	}
	file, err := syntax.Parse(fmt.Sprintf("%s$(%s)", rtabi.IntrinsicImplDebug, s.Name), []byte(text), nil)
	if err != nil {
		return err
	}
	for _, d := range file.Decls {
		if err := g.collectDecl(d); err != nil {
			return err
		}
	}
	return nil
}

// debugSource writes the Debug implementation of s. Fields are
// formatted with format_args$("{:?}", ...); a null pointer prints as
// NULL and arrays print element by element.
func debugSource(s *scope.Struct) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "impl %s for %s {\n", rtabi.DebugTrait, s.Name)
	fmt.Fprintf(&b, "\tfn %s(&self, fmt: &mut Formatter) -> FormattingError {\n", rtabi.DebugMethod)
	fmt.Fprintf(&b, "\t\tlet mut debug = fmt.debug_struct(%q);\n", s.Name)
	for _, f := range s.Fields() {
		switch t := f.Type.(type) {
		case *types.Path:
			fmt.Fprintf(&b, "\t\tdebug.field(%q, format_args$(\"{:?}\", self.%s));\n", f.Name, f.Name)
		case *types.Pointer:
			if t.IsRef {
				fmt.Fprintf(&b, "\t\tdebug.field(%q, format_args$(\"{:?}\", *self.%s));\n", f.Name, f.Name)
				break
			}
			fmt.Fprintf(&b, "\t\tif self.%s != (:%s)0 {\n", f.Name, t)
			fmt.Fprintf(&b, "\t\t\tdebug.field(%q, format_args$(\"{:?}\", *self.%s));\n", f.Name, f.Name)
			b.WriteString("\t\t} else {\n")
			fmt.Fprintf(&b, "\t\t\tdebug.field(%q, format_args$(\"{}\", \"NULL\"));\n", f.Name)
			b.WriteString("\t\t}\n")
		case *types.Array:
			fmt.Fprintf(&b, "\t\tif debug.has_fields {\n\t\t\tfmt.write_str(\", \");\n\t\t}\n")
			fmt.Fprintf(&b, "\t\tfmt.write_str(\"%s: [\");\n", f.Name)
			fmt.Fprintf(&b, "\t\tfor let mut i: u64 = 0 in i < %d {\n", t.Len)
			fmt.Fprintf(&b, "\t\t\tlet s = format_(format_args$(\"{:?}\", self.%s[i]));\n", f.Name)
			b.WriteString("\t\t\tfmt.write_str(s.as_str());\n")
			fmt.Fprintf(&b, "\t\t\tif i + 1 < %d {\n\t\t\t\tfmt.write_str(\", \");\n\t\t\t}\n", t.Len)
			b.WriteString("\t\t\ts.drop();\n\t\t\ti = i + 1;\n\t\t}\n")
			b.WriteString("\t\tfmt.write_str(\"]\");\n")
		default:
			return "", diag.At(f.Pos, "cannot format type", "cannot format `%s`", f.Name).
				WithNote("%s$ supports fields of named, pointer and array types", rtabi.IntrinsicImplDebug)
		}
	}
	b.WriteString("\t\treturn debug.finish();\n\t}\n}\n")
	return b.String(), nil
}

// staticDef defines a static as a module global with a constant
// initializer.
func (g *Generator) staticDef(s *static) error {
	t, err := g.scopes.ResolveType(g.scopes.Root(), s.decl.Type)
	if err != nil {
		return err
	}
	var init constant.Constant = constant.NewZeroInitializer(t)
	if s.decl.Value != nil {
		if init, err = g.constExpr(s.decl.Value, s.decl.Type); err != nil {
			return err
		}
	}
	s.sym.Addr = g.m.NewGlobalDef(s.decl.Name.Value, init)
	return nil
}

// constExpr evaluates a static initializer: literals, negated numeric
// literals, enum variants and initializer lists of those.
func (g *Generator) constExpr(e syntax.Expr, typ types.Type) (constant.Constant, error) {
	t, err := g.scopes.ResolveType(g.scopes.Root(), typ)
	if err != nil {
		return nil, err
	}
	switch e := e.(type) {
	case *syntax.ParenExpr:
		return g.constExpr(e.X, typ)

	case *syntax.BasicLit, *syntax.ResolutionExpr:
		var x operand
		if lit, ok := e.(*syntax.BasicLit); ok {
			x, err = g.basicLit(lit, typ)
		} else {
			x, err = g.resolution(e.(*syntax.ResolutionExpr))
		}
		if err != nil {
			return nil, err
		}
		if !g.matches(x.typ, typ) {
			return nil, typeError("missmatched types", typ.Pos(), typ, e.Pos(), x.typ)
		}
		c, ok := x.v.(constant.Constant)
		if !ok {
			return nil, notConstant(e)
		}
		return c, nil

	case *syntax.Operation:
		lit, ok := e.X.(*syntax.BasicLit)
		if e.Y != nil || e.Op != syntax.Sub || !ok {
			return nil, notConstant(e)
		}
		u := g.underlying(typ)
		switch {
		case lit.Kind == syntax.IntLit && types.IsIntegerType(u):
			x, err := g.intLit(lit, typ, true)
			if err != nil {
				return nil, err
			}
			return x.v.(constant.Constant), nil
		case types.IsFloatType(u):
			x, err := g.basicLit(lit, typ)
			if err != nil {
				return nil, err
			}
			f := x.v.(*constant.Float)
			return constant.NewFloat(f.Typ, -floatValue(f)), nil
		}
		return nil, notConstant(e)

	case *syntax.InitList:
		return g.constInitList(e, typ, t)
	}
	return nil, notConstant(e)
}

func (g *Generator) constInitList(e *syntax.InitList, typ types.Type, t irtypes.Type) (constant.Constant, error) {
	if arr, ok := g.underlying(typ).(*types.Array); ok {
		at := t.(*irtypes.ArrayType)
		if uint64(len(e.Elems)) > arr.Len {
			return nil, diag.At(e.Pos(), "too many elements", "too many elements for type `%s`", typ)
		}
		elems := make([]constant.Constant, arr.Len)
		for i := range elems {
			elems[i] = constant.NewZeroInitializer(at.ElemType)
		}
		for i, el := range e.Elems {
			c, err := g.constExpr(el.Value, arr.Elem)
			if err != nil {
				return nil, err
			}
			elems[i] = c
		}
		return constant.NewArray(at, elems...), nil
	}

	s, ok := g.structOf(typ)
	if !ok {
		return nil, diag.At(e.Pos(), "initializer list", "cannot initialize type `%s` with an initializer list", typ)
	}
	st, err := g.scopes.StructType(s)
	if err != nil {
		return nil, err
	}
	fields := s.Fields()
	vals := make([]constant.Constant, len(fields))
	for i, ft := range st.Fields {
		vals[i] = constant.NewZeroInitializer(ft)
	}
	for i, el := range e.Elems {
		idx := i
		if el.Name != nil {
			if idx = s.FieldIndex(el.Name.Value); idx < 0 {
				return nil, s.UnknownField(el.Name.Pos(), el.Name.Value)
			}
		} else if i >= len(fields) {
			return nil, diag.At(el.Pos(), "too many elements", "too many elements for type `%s`", typ)
		}
		c, err := g.constExpr(el.Value, fields[idx].Type)
		if err != nil {
			return nil, err
		}
		vals[idx] = c
	}
	return constant.NewStruct(st, vals...), nil
}

func floatValue(f *constant.Float) float64 {
	v, _ := f.X.Float64()
	return v
}

func notConstant(e syntax.Expr) *diag.Error {
	return diag.At(e.Pos(), "not a constant", "static initializer must be a constant expression")
}
