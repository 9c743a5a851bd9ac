package e2e

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/you-not-fish/lygos/internal/codegen"
	"github.com/you-not-fish/lygos/internal/macro"
	"github.com/you-not-fish/lygos/internal/syntax"
)

// TestE2E runs end-to-end tests for all .ly files in testdata/.
// Each test:
//  1. Runs the full pipeline: preprocess and parse, then codegen
//  2. Writes the LLVM IR to a temp .ll file
//  3. Compiles it with clang against libc
//  4. Runs the binary and captures stdout
//  5. Compares output against the .golden file
//
// Compilation runs even without clang, so every program is at least
// checked to produce a module.
func TestE2E(t *testing.T) {
	testFiles, err := filepath.Glob("testdata/*.ly")
	if err != nil {
		t.Fatal(err)
	}
	if len(testFiles) == 0 {
		t.Fatal("no .ly test files found in testdata/")
	}

	_, clangErr := exec.LookPath("clang")

	for _, testFile := range testFiles {
		name := strings.TrimSuffix(filepath.Base(testFile), ".ly")
		t.Run(name, func(t *testing.T) {
			llFile := filepath.Join(t.TempDir(), "output.ll")
			compileTo(t, testFile, llFile)
			if clangErr != nil {
				t.Skip("clang not found, skipping execution")
			}
			runE2ETest(t, testFile, llFile)
		})
	}
}

// runE2ETest links and runs a compiled test program.
func runE2ETest(t *testing.T, lyFile, llFile string) {
	t.Helper()

	goldenFile := strings.TrimSuffix(lyFile, ".ly") + ".golden"
	expected, err := os.ReadFile(goldenFile)
	if err != nil {
		t.Fatalf("reading golden file: %v", err)
	}

	binFile := filepath.Join(filepath.Dir(llFile), "output")
	cmd := exec.Command("clang", "-Wno-override-module", llFile, "-o", binFile)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("clang failed:\n%s\n%v", out, err)
	}

	out, err := exec.Command(binFile).Output()
	if err != nil {
		t.Fatalf("binary execution failed: %v", err)
	}

	got := string(out)
	want := string(expected)
	if got != want {
		t.Errorf("output mismatch:\ngot:  %q\nwant: %q", got, want)
	}
}

// compileTo runs the compilation pipeline in-process and writes LLVM IR to llFile.
func compileTo(t *testing.T, lyFile, llFile string) {
	t.Helper()

	content, err := os.ReadFile(lyFile)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	file, err := syntax.Parse(lyFile, content, macro.New(lyFile))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	m, err := codegen.Generate(file, &codegen.Config{Filename: filepath.Base(lyFile)})
	if err != nil {
		t.Fatalf("codegen: %v", err)
	}

	if err := os.WriteFile(llFile, []byte(m.String()), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}
