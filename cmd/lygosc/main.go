// Package main implements the lygos compiler entry point.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/llir/llvm/ir"

	"github.com/you-not-fish/lygos/internal/codegen"
	"github.com/you-not-fish/lygos/internal/diag"
	"github.com/you-not-fish/lygos/internal/macro"
	"github.com/you-not-fish/lygos/internal/rtabi"
	"github.com/you-not-fish/lygos/internal/syntax"
)

// Compiler flags
var (
	emitTokens  = flag.Bool("emit-tokens", false, "Output token stream")
	emitAST     = flag.Bool("emit-ast", false, "Output AST")
	emitASTJSON = flag.Bool("emit-ast-json", false, "Output AST as JSON")
	emitLL      = flag.Bool("emit-ll", false, "Output LLVM IR")
	emitObj     = flag.Bool("emit-obj", false, "Compile to an object file with clang")
	link        = flag.Bool("link", false, "Compile and link an executable with clang")
	output      = flag.String("o", "", "Output file")
	target      = flag.String("target", rtabi.TargetTriple, "Target triple")
	doctor      = flag.Bool("doctor", false, "Check toolchain")
	version     = flag.Bool("version", false, "Print version")
	trace       = flag.Bool("trace", false, "Output timing trace")
)

// Version information
const Version = "0.1.0-dev"

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Lygos Compiler %s\n\n", Version)
		fmt.Fprintf(os.Stderr, "Usage: lygosc [options] <file.ly> [file.c ...]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if *version {
		fmt.Printf("lygosc version %s\n", Version)
		fmt.Printf("go version %s\n", runtime.Version())
		os.Exit(0)
	}

	if *doctor {
		os.Exit(runDoctor())
	}

	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "error: no input file")
		fmt.Fprintln(os.Stderr, "usage: lygosc [options] <file.ly> [file.c ...]")
		os.Exit(1)
	}

	filename := args[0]

	switch {
	case *emitTokens:
		os.Exit(runEmitTokens(filename))
	case *emitAST || *emitASTJSON:
		os.Exit(runEmitAST(filename, *emitASTJSON))
	case *emitObj:
		os.Exit(runEmitObj(filename))
	case *link:
		os.Exit(runLink(filename, args[1:]))
	default:
		os.Exit(runEmitLL(filename, *emitLL))
	}
}

// tracer records the duration of each compilation phase.
type tracer struct {
	w     io.Writer
	start time.Time
}

func newTracer() *tracer {
	if !*trace {
		return nil
	}
	return &tracer{w: os.Stderr, start: time.Now()}
}

// phase reports the time since the previous phase, followed by detail
// if it is not empty.
func (t *tracer) phase(name, detail string) {
	if t == nil {
		return
	}
	now := time.Now()
	fmt.Fprintf(t.w, "trace: %-10s %v", name, now.Sub(t.start))
	if detail != "" {
		fmt.Fprintf(t.w, " (%s)", detail)
	}
	fmt.Fprintln(t.w)
	t.start = now
}

// countNodes returns the number of syntax nodes in f.
func countNodes(f *syntax.File) int {
	n := 0
	syntax.Inspect(f, func(syntax.Node) bool {
		n++
		return true
	})
	return n
}

// compile runs the front and middle end on filename. Errors are
// reported to stderr with source excerpts.
func compile(filename string) (*ir.Module, bool) {
	tr := newTracer()
	cache := diag.NewSourceCache()
	report := func(err error) (*ir.Module, bool) {
		diag.NewEmitter(os.Stderr, cache).Emit(err)
		return nil, false
	}

	content, err := os.ReadFile(filename)
	if err != nil {
		return report(err)
	}
	cache.Add(filename, content)
	tr.phase("read", fmt.Sprintf("%d bytes", len(content)))

	pp := macro.New(filename)
	file, err := syntax.Parse(filename, content, pp)
	cacheIncluded(cache, pp.Included())
	if err != nil {
		return report(err)
	}
	if tr != nil {
		tr.phase("parse", fmt.Sprintf("%d nodes", countNodes(file)))
		for _, inc := range pp.Included() {
			fmt.Fprintf(tr.w, "trace: included %s\n", inc)
		}
	}

	m, err := codegen.Generate(file, &codegen.Config{
		TargetTriple: *target,
		Filename:     filename,
	})
	if err != nil {
		return report(err)
	}
	tr.phase("codegen", fmt.Sprintf("%d functions", len(m.Funcs)))
	return m, true
}

// cacheIncluded adds the included files to cache under the names their
// positions carry, which are relative to the working directory.
func cacheIncluded(cache *diag.SourceCache, files []string) {
	wd, err := os.Getwd()
	if err != nil {
		return
	}
	for _, abs := range files {
		content, err := os.ReadFile(abs)
		if err != nil {
			continue
		}
		cache.Add(abs, content)
		if rel, err := filepath.Rel(wd, abs); err == nil {
			cache.Add(rel, content)
		}
	}
}

// outputName returns -o or the input file name with its extension
// replaced by ext.
func outputName(filename, ext string) string {
	if *output != "" {
		return *output
	}
	return strings.TrimSuffix(filename, filepath.Ext(filename)) + ext
}

// runEmitLL compiles the input file to LLVM IR. With toStdout and no
// -o, the IR is printed instead of written next to the input.
func runEmitLL(filename string, toStdout bool) int {
	m, ok := compile(filename)
	if !ok {
		return 1
	}
	if toStdout && *output == "" {
		fmt.Print(m.String())
		return 0
	}
	if err := os.WriteFile(outputName(filename, ".ll"), []byte(m.String()), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

// writeTempLL writes the module to a temporary .ll file and returns its
// path and a cleanup function.
func writeTempLL(m *ir.Module) (string, func(), error) {
	dir, err := os.MkdirTemp("", "lygosc")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { os.RemoveAll(dir) }
	path := filepath.Join(dir, "module.ll")
	if err := os.WriteFile(path, []byte(m.String()), 0o644); err != nil {
		cleanup()
		return "", nil, err
	}
	return path, cleanup, nil
}

// runEmitObj compiles the input file to an object file with clang.
func runEmitObj(filename string) int {
	m, ok := compile(filename)
	if !ok {
		return 1
	}
	ll, cleanup, err := writeTempLL(m)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	defer cleanup()
	return runClang("-target", *target, "-c", ll, "-o", outputName(filename, ".o"))
}

// runLink compiles the input file and links it with the extra sources
// into an executable.
func runLink(filename string, extra []string) int {
	m, ok := compile(filename)
	if !ok {
		return 1
	}
	ll, cleanup, err := writeTempLL(m)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	defer cleanup()
	args := []string{"-target", *target, ll}
	args = append(args, extra...)
	args = append(args, "-o", outputName(filename, ""))
	return runClang(args...)
}

func runClang(args ...string) int {
	cmd := exec.Command("clang", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: clang: %v\n", err)
		return 1
	}
	return 0
}

// runEmitAST parses the input file and outputs the AST.
func runEmitAST(filename string, asJSON bool) int {
	content, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	cache := diag.NewSourceCache()
	cache.Add(filename, content)

	pp := macro.New(filename)
	ast, err := syntax.Parse(filename, content, pp)
	if err != nil {
		cacheIncluded(cache, pp.Included())
		diag.NewEmitter(os.Stderr, cache).Emit(err)
		return 1
	}

	if asJSON {
		if err := syntax.FprintJSON(os.Stdout, ast); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}
		return 0
	}
	syntax.Fprint(os.Stdout, ast)
	return 0
}

// runEmitTokens scans the input file and prints all tokens with positions.
// Macros are not expanded.
func runEmitTokens(filename string) int {
	content, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	toks, err := syntax.ScanAll(filename, content)

	fmt.Printf("%-20s %-12s %s\n", "POSITION", "TOKEN", "LITERAL")
	fmt.Printf("%-20s %-12s %s\n", strings.Repeat("-", 20), strings.Repeat("-", 12), strings.Repeat("-", 20))
	for _, l := range toks {
		fmt.Printf("%-20s %-12s %s\n", l.Pos, l.Tok, formatLiteral(l.Lit))
	}

	if err != nil {
		fmt.Println()
		fmt.Println("Errors:")
		fmt.Printf("  %v\n", err)
		return 1
	}
	return 0
}

// formatLiteral formats a literal for display, escaping special characters.
func formatLiteral(lit string) string {
	if lit == "" {
		return "\"\""
	}

	var b strings.Builder
	b.WriteRune('"')
	for _, r := range lit {
		switch r {
		case '\n':
			b.WriteString("\\n")
		case '\t':
			b.WriteString("\\t")
		case '\r':
			b.WriteString("\\r")
		case '\\':
			b.WriteString("\\\\")
		case '"':
			b.WriteString("\\\"")
		case 0:
			b.WriteString("\\0")
		default:
			b.WriteRune(r)
		}
	}
	b.WriteRune('"')
	return b.String()
}

// runDoctor checks the toolchain and returns an exit code.
func runDoctor() int {
	fmt.Println("Lygos Toolchain Doctor")
	fmt.Println("======================")
	fmt.Println()

	allOk := true

	goVersion := runtime.Version()
	fmt.Printf("Go:      %s", goVersion)
	if checkGoVersion(goVersion) {
		fmt.Println(" ✓")
	} else {
		fmt.Println(" ✗ (need 1.21+)")
		allOk = false
	}

	// clang assembles and links the emitted IR
	clangVersion, clangOk := checkTool("clang", "--version")
	fmt.Printf("clang:   %s", clangVersion)
	if clangOk {
		fmt.Println(" ✓")
	} else {
		fmt.Println(" ✗ (not found)")
		allOk = false
	}

	llcVersion, llcOk := checkTool("llc", "--version")
	fmt.Printf("llc:     %s", llcVersion)
	if llcOk {
		fmt.Println(" ✓")
	} else {
		fmt.Println(" (optional, not found)")
	}

	fmt.Println()
	if allOk {
		fmt.Println("All required tools available!")
		return 0
	}

	fmt.Println("Some required tools are missing.")
	return 1
}

// checkGoVersion returns true if the Go version is 1.21 or higher.
func checkGoVersion(v string) bool {
	if !strings.HasPrefix(v, "go") {
		return false
	}
	parts := strings.Split(strings.TrimPrefix(v, "go"), ".")
	if len(parts) < 2 {
		return false
	}

	major, minor := parts[0], parts[1]
	if major == "1" {
		var minorNum int
		fmt.Sscanf(minor, "%d", &minorNum)
		return minorNum >= 21
	}
	return major >= "2"
}

// checkTool runs a tool with the given arguments and returns the first line of output.
func checkTool(name string, args ...string) (string, bool) {
	out, err := exec.Command(name, args...).Output()
	if err != nil {
		return "", false
	}

	line, _, _ := strings.Cut(string(out), "\n")
	line = strings.TrimSpace(line)
	if len(line) > 60 {
		line = line[:57] + "..."
	}
	return line, true
}
