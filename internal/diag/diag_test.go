package diag

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/you-not-fish/lygos/internal/src"
)

func TestErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "labelled",
			err:  At(src.NewPos("a.ly", 3, 7), "here", "unknown identifier `%s`", "x"),
			want: "a.ly:3:7: unknown identifier `x`",
		},
		{
			name: "unlabelled",
			err:  Errorf("invalid break point"),
			want: "invalid break point",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorBuilders(t *testing.T) {
	first := src.NewPos("a.ly", 1, 1)
	second := src.NewPos("a.ly", 9, 4)
	d := At(first, "provided value has type `i8`", "invalid argument type for function `f`").
		WithLabel(second, "expected type is `%s`", "i32").
		WithHelp("cast the value").
		WithNote("note text")

	if d.Pos() != first {
		t.Errorf("Pos() = %s, want %s", d.Pos(), first)
	}
	if len(d.Labels) != 2 {
		t.Fatalf("len(Labels) = %d, want 2", len(d.Labels))
	}
	if !d.HasLabel("expected type is `i32`") {
		t.Errorf("HasLabel() missed the second label: %+v", d.Labels)
	}
	if d.Help != "cast the value" || d.Note != "note text" {
		t.Errorf("help/note = %q/%q", d.Help, d.Note)
	}
}

func TestErrorsAs(t *testing.T) {
	var err error = fmt.Errorf("wrapped: %w", Errorf("boom"))
	var d *Error
	if !errors.As(err, &d) {
		t.Fatalf("errors.As failed")
	}
	if d.Msg != "boom" {
		t.Errorf("Msg = %q, want boom", d.Msg)
	}
}

func TestEmitterExcerpt(t *testing.T) {
	cache := NewSourceCache()
	cache.Add("m.ly", []byte("fn main() {\n    let y = x;\n}\n"))

	var b strings.Builder
	NewEmitter(&b, cache).Emit(
		At(src.NewPos("m.ly", 2, 13), "not found in this scope", "unknown identifier `x`").
			WithHelp("declare `x` before use"),
	)

	out := b.String()
	for _, want := range []string{
		"error: unknown identifier `x`",
		"--> m.ly:2:13",
		"2 |     let y = x;",
		"^ not found in this scope",
		"= help: declare `x` before use",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestEmitterPlainError(t *testing.T) {
	var b strings.Builder
	NewEmitter(&b, nil).Emit(errors.New("disk full"))
	if got := b.String(); got != "error: disk full\n" {
		t.Errorf("Emit() = %q", got)
	}
}

func TestInternalPanics(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("Internal() did not panic")
		}
		if !strings.HasPrefix(fmt.Sprint(r), "internal error: ") {
			t.Errorf("panic value = %v", r)
		}
	}()
	Internal("symbol %s is not a struct", "S")
}
