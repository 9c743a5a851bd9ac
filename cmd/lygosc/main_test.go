package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunEmitLLPrintsModule(t *testing.T) {
	src := `
struct Point { x: i32; y: i32; }

impl Point {
	fn sum(&self) -> i32 { return self.x + self.y; }
}

fn main() -> i32 {
	let p: Point = { .x = 1, .y = 2 };
	return p.sum();
}
`
	filename := writeTempLygosFile(t, "input.ly", src)
	code, out, errOut := captureOutput(t, func() int {
		return runEmitLL(filename, true)
	})

	if code != 0 {
		t.Fatalf("runEmitLL exit=%d\nstderr:\n%s\nstdout:\n%s", code, errOut, out)
	}
	if errOut != "" {
		t.Fatalf("unexpected stderr:\n%s", errOut)
	}
	for _, want := range []string{
		`target triple = "x86_64-unknown-linux-gnu"`,
		"%Point = type { i32, i32 }",
		"define i32 @Point_sum(",
		"define i32 @main()",
		"call i32 @Point_sum(",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("IR missing %q:\n%s", want, out)
		}
	}
}

func TestRunEmitLLWritesNextToInput(t *testing.T) {
	filename := writeTempLygosFile(t, "prog.ly", "fn main() -> i32 { return 0; }\n")
	code, out, errOut := captureOutput(t, func() int {
		return runEmitLL(filename, false)
	})
	if code != 0 {
		t.Fatalf("runEmitLL exit=%d\nstderr:\n%s", code, errOut)
	}
	if out != "" {
		t.Errorf("unexpected stdout:\n%s", out)
	}
	ll, err := os.ReadFile(filepath.Join(filepath.Dir(filename), "prog.ll"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(ll), "ret i32 0") {
		t.Errorf("prog.ll missing return:\n%s", ll)
	}
}

func TestRunEmitLLFollowsIncludes(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "lib.ly"), []byte(`
macro square { (x: $) -> { $x * $x } }
fn helper() -> i32 { return 7; }
`), 0o600); err != nil {
		t.Fatal(err)
	}
	filename := filepath.Join(dir, "main.ly")
	if err := os.WriteFile(filename, []byte(`
#include "lib.ly"
#include "lib.ly"
fn main() -> i32 { return square$(helper()); }
`), 0o600); err != nil {
		t.Fatal(err)
	}

	code, out, errOut := captureOutput(t, func() int {
		return runEmitLL(filename, true)
	})
	if code != 0 {
		t.Fatalf("runEmitLL exit=%d\nstderr:\n%s", code, errOut)
	}
	if n := strings.Count(out, "define i32 @helper()"); n != 1 {
		t.Errorf("helper defined %d times, want 1:\n%s", n, out)
	}
	if !strings.Contains(out, "mul i32") {
		t.Errorf("square$ not expanded:\n%s", out)
	}
}

func TestRunEmitLLReportsDiagnostic(t *testing.T) {
	src := `fn main() -> i32 {
	return y;
}
`
	filename := writeTempLygosFile(t, "bad.ly", src)
	code, out, errOut := captureOutput(t, func() int {
		return runEmitLL(filename, true)
	})

	if code != 1 {
		t.Fatalf("runEmitLL exit=%d, want 1\nstdout:\n%s", code, out)
	}
	if out != "" {
		t.Errorf("unexpected stdout:\n%s", out)
	}
	for _, want := range []string{
		"error: unknown identifier `y`",
		"--> " + filename + ":2:",
		"return y;",
	} {
		if !strings.Contains(errOut, want) {
			t.Errorf("stderr missing %q:\n%s", want, errOut)
		}
	}
}

func TestRunEmitLLTrace(t *testing.T) {
	*trace = true
	defer func() { *trace = false }()

	filename := writeTempLygosFile(t, "input.ly", "fn main() {}\n")
	code, _, errOut := captureOutput(t, func() int {
		return runEmitLL(filename, true)
	})
	if code != 0 {
		t.Fatalf("runEmitLL exit=%d\nstderr:\n%s", code, errOut)
	}
	for _, phase := range []string{"read", "parse", "codegen", "included"} {
		if !strings.Contains(errOut, "trace: "+phase) {
			t.Errorf("trace missing %s:\n%s", phase, errOut)
		}
	}
}

func TestRunEmitAST(t *testing.T) {
	filename := writeTempLygosFile(t, "input.ly", "fn main() -> i32 { return 0; }\n")

	code, out, errOut := captureOutput(t, func() int {
		return runEmitAST(filename, false)
	})
	if code != 0 {
		t.Fatalf("runEmitAST exit=%d\nstderr:\n%s", code, errOut)
	}
	if !strings.Contains(out, "FuncDecl") || !strings.Contains(out, "Name: main") {
		t.Errorf("AST output missing main:\n%s", out)
	}

	code, out, errOut = captureOutput(t, func() int {
		return runEmitAST(filename, true)
	})
	if code != 0 {
		t.Fatalf("runEmitAST json exit=%d\nstderr:\n%s", code, errOut)
	}
	if !strings.Contains(out, `"type": "FuncDecl"`) || !strings.Contains(out, `"name": "main"`) {
		t.Errorf("JSON output missing main:\n%s", out)
	}
}

func TestRunEmitTokens(t *testing.T) {
	filename := writeTempLygosFile(t, "input.ly", `let s = "a\tb";`)
	code, out, errOut := captureOutput(t, func() int {
		return runEmitTokens(filename)
	})
	if code != 0 {
		t.Fatalf("runEmitTokens exit=%d\nstderr:\n%s", code, errOut)
	}
	for _, want := range []string{"POSITION", "NAME", `"s"`, "LITERAL", `"a\tb"`} {
		if !strings.Contains(out, want) {
			t.Errorf("token output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatLiteral(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", `""`},
		{"abc", `"abc"`},
		{"a\nb", `"a\nb"`},
		{"q\"", `"q\""`},
		{"\x00", `"\0"`},
	}
	for _, tt := range tests {
		if got := formatLiteral(tt.in); got != tt.want {
			t.Errorf("formatLiteral(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestCheckGoVersion(t *testing.T) {
	tests := []struct {
		v    string
		want bool
	}{
		{"go1.23.3", true},
		{"go1.21", true},
		{"go1.20.5", false},
		{"devel", false},
		{"go2.0", true},
	}
	for _, tt := range tests {
		if got := checkGoVersion(tt.v); got != tt.want {
			t.Errorf("checkGoVersion(%q) = %v, want %v", tt.v, got, tt.want)
		}
	}
}

func writeTempLygosFile(t *testing.T, name, src string) string {
	t.Helper()
	dir := t.TempDir()
	filename := filepath.Join(dir, name)
	if err := os.WriteFile(filename, []byte(src), 0o600); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return filename
}

func captureOutput(t *testing.T, fn func() int) (code int, stdout string, stderr string) {
	t.Helper()

	oldStdout := os.Stdout
	oldStderr := os.Stderr

	rOut, wOut, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe stdout: %v", err)
	}
	rErr, wErr, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe stderr: %v", err)
	}

	os.Stdout = wOut
	os.Stderr = wErr

	code = fn()

	_ = wOut.Close()
	_ = wErr.Close()
	os.Stdout = oldStdout
	os.Stderr = oldStderr

	outBytes, _ := io.ReadAll(rOut)
	errBytes, _ := io.ReadAll(rErr)
	_ = rOut.Close()
	_ = rErr.Close()

	return code, string(outBytes), string(errBytes)
}
