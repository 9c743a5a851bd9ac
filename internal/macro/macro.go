// Package macro implements the lygos preprocessor: user macro definition
// and expansion, token concatenation and the #include file set.
//
// The preprocessor works on tokens. The parser hands it macro calls and
// include directives as it reaches them and splices the returned tokens
// back into its own buffer.
package macro

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/you-not-fish/lygos/internal/diag"
	"github.com/you-not-fish/lygos/internal/rtabi"
	"github.com/you-not-fish/lygos/internal/src"
	"github.com/you-not-fish/lygos/internal/syntax"
)

// Preprocessor holds the macros defined so far and the set of files
// already included. It implements syntax.Expander.
type Preprocessor struct {
	macros   map[string]*syntax.MacroDecl
	included map[string]bool
}

var _ syntax.Expander = (*Preprocessor)(nil)

// New creates a Preprocessor for the compilation rooted at root. The root
// file counts as included, so a file that includes itself is a no-op.
func New(root string) *Preprocessor {
	p := &Preprocessor{
		macros:   make(map[string]*syntax.MacroDecl),
		included: make(map[string]bool),
	}
	if root != "" {
		if abs, err := filepath.Abs(root); err == nil {
			p.included[abs] = true
		}
	}
	return p
}

// Define registers m. A later definition with the same name replaces an
// earlier one. Intrinsic names cannot be redefined.
func (p *Preprocessor) Define(m *syntax.MacroDecl) error {
	name := m.Name.Value
	if rtabi.IsIntrinsic(name) {
		return diag.At(m.Name.Pos(), "intrinsic macro", "cannot redefine intrinsic macro `%s`", name)
	}
	p.macros[name] = m
	return nil
}

// Lookup returns the macro named name.
func (p *Preprocessor) Lookup(name string) (*syntax.MacroDecl, bool) {
	m, ok := p.macros[name]
	return m, ok
}

// Expand expands the call name$(args...). Intrinsics are left to the
// parser and code generator and return ok=false.
func (p *Preprocessor) Expand(name string, pos src.Pos, args [][]syntax.Lexeme) ([]syntax.Lexeme, bool, error) {
	if rtabi.IsIntrinsic(name) {
		return nil, false, nil
	}
	m, ok := p.macros[name]
	if !ok {
		return nil, false, diag.At(pos, "unknown macro", "could not resolve macro `%s`", name)
	}

	arm, err := selectArm(m, pos, len(args))
	if err != nil {
		return nil, false, err
	}
	toks, err := substitute(m, arm, args)
	if err != nil {
		return nil, false, err
	}
	toks, err = concat(toks)
	if err != nil {
		return nil, false, err
	}
	return toks, true, nil
}

// accepts reports whether arm can take n argument groups. A trailing
// variadic parameter takes zero or more of the remaining groups.
func accepts(arm *syntax.MacroArm, n int) bool {
	k := len(arm.Params)
	if k > 0 && arm.Params[k-1].Variadic {
		return n >= k-1
	}
	return n == k
}

// minArgs returns the fewest argument groups arm accepts.
func minArgs(arm *syntax.MacroArm) int {
	k := len(arm.Params)
	if k > 0 && arm.Params[k-1].Variadic {
		return k - 1
	}
	return k
}

// selectArm picks the first arm of m that accepts n groups.
func selectArm(m *syntax.MacroDecl, pos src.Pos, n int) (*syntax.MacroArm, error) {
	insufficient := len(m.Arms) > 0
	for _, arm := range m.Arms {
		if accepts(arm, n) {
			return arm, nil
		}
		if minArgs(arm) <= n {
			insufficient = false
		}
	}

	name := m.Name.Value
	if insufficient {
		return nil, diag.At(pos, "insufficient number of args", "insufficient args supplied to macro `%s`", name).
			WithLabel(m.Pos(), "macro defined here")
	}
	return nil, diag.At(pos, fmt.Sprintf("%d args supplied", n), "no rule of macro `%s` accepts %d args", name, n).
		WithLabel(m.Pos(), "macro defined here")
}

// substitute replaces every $param in the arm body with its argument
// group. A variadic param expands to the remaining groups joined by
// commas.
func substitute(m *syntax.MacroDecl, arm *syntax.MacroArm, args [][]syntax.Lexeme) ([]syntax.Lexeme, error) {
	var out []syntax.Lexeme
	body := arm.Body
	for i := 0; i < len(body); i++ {
		l := body[i]
		if l.Tok != syntax.Dollar || i+1 >= len(body) || body[i+1].Tok != syntax.Ident {
			out = append(out, l)
			continue
		}

		name := body[i+1]
		j := paramIndex(arm, name.Lit)
		if j < 0 {
			return nil, diag.At(name.Pos, "not a parameter of this rule",
				"unknown parameter `$%s` in macro `%s`", name.Lit, m.Name.Value)
		}
		i++

		if !arm.Params[j].Variadic {
			out = append(out, args[j]...)
			continue
		}
		for k := j; k < len(args); k++ {
			if k > j {
				out = append(out, syntax.Lexeme{Tok: syntax.Comma, Lit: ",", Pos: l.Pos})
			}
			out = append(out, args[k]...)
		}
	}
	return out, nil
}

func paramIndex(arm *syntax.MacroArm, name string) int {
	for i, p := range arm.Params {
		if p.Name == name {
			return i
		}
	}
	return -1
}

// concat joins the identifiers on both sides of every `##`.
func concat(toks []syntax.Lexeme) ([]syntax.Lexeme, error) {
	var out []syntax.Lexeme
	for i := 0; i < len(toks); i++ {
		l := toks[i]
		if l.Tok != syntax.Hash || i+1 >= len(toks) || toks[i+1].Tok != syntax.Hash {
			out = append(out, l)
			continue
		}

		if len(out) == 0 || i+2 >= len(toks) {
			return nil, diag.At(l.Pos, "`##` needs an operand on both sides", "cannot concatenate at the edge of a macro body")
		}
		lhs, rhs := out[len(out)-1], toks[i+2]
		if lhs.Tok != syntax.Ident || rhs.Tok != syntax.Ident {
			return nil, diag.At(l.Pos, "both operands must be identifiers",
				"cannot concatenate `%s` with `%s`", lhs, rhs)
		}
		lit := lhs.Lit + rhs.Lit
		out[len(out)-1] = syntax.Lexeme{Tok: syntax.LookupKeyword(lit), Lit: lit, Pos: lhs.Pos}
		i += 2
	}
	return out, nil
}

// Include returns the tokens of path, resolved relative to the directory
// of the including file from. A file already included yields no tokens.
func (p *Preprocessor) Include(from, path string, pos src.Pos) ([]syntax.Lexeme, error) {
	name := path
	if !filepath.IsAbs(path) {
		name = filepath.Join(filepath.Dir(from), path)
	}
	abs, err := filepath.Abs(name)
	if err != nil {
		return nil, diag.At(pos, "could not read file", "could not read file `%s`", path)
	}
	if p.included[abs] {
		return nil, nil
	}

	content, err := os.ReadFile(abs)
	if err != nil {
		return nil, diag.At(pos, "could not read file", "could not read file `%s`", path).
			WithNote("%v", err)
	}
	p.included[abs] = true
	return syntax.ScanAll(filepath.Clean(name), content)
}

// Included returns the absolute paths of every file included so far,
// including the root, in sorted order.
func (p *Preprocessor) Included() []string {
	files := make([]string, 0, len(p.included))
	for f := range p.included {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}
