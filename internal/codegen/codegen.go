// Package codegen lowers a parsed lygos file to an LLVM IR module.
//
// Generation runs in two passes. Collect binds every top-level
// declaration in the module scope, so declaration order does not
// matter. Emit then generates the statics and every function body,
// verifying each function's control-flow graph as it is finished.
//
// All diagnostics are fatal: the first error stops generation and is
// returned to the caller.
package codegen

import (
	"fmt"

	"github.com/llir/llvm/ir"

	"github.com/you-not-fish/lygos/internal/rtabi"
	"github.com/you-not-fish/lygos/internal/scope"
	"github.com/you-not-fish/lygos/internal/syntax"
)

// Config specifies the target of code generation.
type Config struct {
	// TargetTriple and DataLayout are written to the module. Empty
	// values select the x86-64 Linux defaults.
	TargetTriple string
	DataLayout   string

	// Filename is the value of file$(). When empty, the file of the
	// call position is used.
	Filename string
}

// Generator holds the state of one compilation unit.
type Generator struct {
	conf   *Config
	m      *ir.Module
	scopes *scope.Table

	strs map[string]*ir.Global // string literal pool

	// Work queued by Collect.
	bodies  []*body
	statics []*static
	impls   []*implCheck
	debugs  []*syntax.IntrinsicCall

	f *funcState // function being generated, nil at module level
}

// body is a function definition awaiting generation.
type body struct {
	sym  *scope.Function
	decl *syntax.FuncDecl
}

// static is a module-level variable awaiting its initializer.
type static struct {
	sym  *scope.Variable
	decl *syntax.StaticDecl
}

// New creates a generator with an empty module.
func New(conf *Config) *Generator {
	if conf == nil {
		conf = &Config{}
	}
	m := ir.NewModule()
	m.TargetTriple = conf.TargetTriple
	if m.TargetTriple == "" {
		m.TargetTriple = rtabi.TargetTriple
	}
	m.DataLayout = conf.DataLayout
	if m.DataLayout == "" {
		m.DataLayout = rtabi.DataLayout
	}
	if conf.Filename != "" {
		m.SourceFilename = conf.Filename
	}
	return &Generator{
		conf:   conf,
		m:      m,
		scopes: scope.NewTable(m),
		strs:   make(map[string]*ir.Global),
	}
}

// Generate collects and generates file.
func Generate(file *syntax.File, conf *Config) (*ir.Module, error) {
	g := New(conf)
	if err := g.Collect(file); err != nil {
		return nil, err
	}
	if err := g.scopes.CheckStructs(); err != nil {
		return nil, err
	}
	if err := g.Emit(); err != nil {
		return nil, err
	}
	return g.m, nil
}

// Module returns the module being generated.
func (g *Generator) Module() *ir.Module { return g.m }

// Scopes returns the scope tree.
func (g *Generator) Scopes() *scope.Table { return g.scopes }

// Emit generates the statics and the queued function bodies.
func (g *Generator) Emit() error {
	for _, s := range g.statics {
		if err := g.staticDef(s); err != nil {
			return err
		}
	}
	// Bodies may queue more bodies (impl_debug output is collected late).
	for i := 0; i < len(g.bodies); i++ {
		if err := g.funcDef(g.bodies[i]); err != nil {
			return err
		}
	}
	return nil
}

// funcState is the state of the function being generated.
type funcState struct {
	sym   *scope.Function
	fn    *ir.Func
	entry *ir.Block
	b     *ir.Block // current block; nil when unreachable

	sc  scope.ID // innermost open scope
	top scope.ID // function scope, holds the return slot

	ret    *ir.Block   // shared return block, created on demand
	breaks []*ir.Block // exits of the enclosing loops

	allocas  int // allocas at the head of the entry block
	nested   int // depth of enclosing if, for and match statements
	closures int
	blocks   int
}

// newBlock creates a detached block; startBlock appends it.
func (g *Generator) newBlock(kind string) *ir.Block {
	g.f.blocks++
	b := ir.NewBlock(fmt.Sprintf("%s.%d", kind, g.f.blocks))
	b.Parent = g.f.fn
	return b
}

// startBlock appends b to the function and makes it current.
func (g *Generator) startBlock(b *ir.Block) {
	g.f.fn.Blocks = append(g.f.fn.Blocks, b)
	g.f.b = b
}

// openScope opens a scope nested in the current one.
func (g *Generator) openScope(comment string) scope.ID {
	g.f.sc = g.scopes.Open(g.f.sc, comment)
	return g.f.sc
}

// closeScope closes the current scope and returns to its parent.
func (g *Generator) closeScope() {
	id := g.f.sc
	g.f.sc = g.scopes.Parent(id)
	g.scopes.Close(id)
}

// current returns the innermost scope: the function's, or the root at
// module level.
func (g *Generator) current() scope.ID {
	if g.f == nil {
		return g.scopes.Root()
	}
	return g.f.sc
}
