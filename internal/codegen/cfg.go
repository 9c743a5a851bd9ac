package codegen

import (
	"fmt"
	"strings"

	"github.com/llir/llvm/ir"
)

// preds returns the number of edges from blocks of fn into b.
func preds(fn *ir.Func, b *ir.Block) int {
	n := 0
	for _, p := range fn.Blocks {
		if p.Term == nil {
			continue
		}
		for _, s := range p.Term.Succs() {
			if s == b {
				n++
			}
		}
	}
	return n
}

// Verify checks the structural integrity of a generated function.
// It returns an error describing all violations found, or nil if valid.
func Verify(fn *ir.Func) error {
	var errs []string

	add := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Sprintf(format, args...))
	}

	if len(fn.Blocks) == 0 {
		// A declaration.
		return nil
	}

	blockSet := make(map[*ir.Block]bool, len(fn.Blocks))
	for _, b := range fn.Blocks {
		if blockSet[b] {
			add("func %s, %s: block appears twice", fn.Name(), blockName(b))
		}
		blockSet[b] = true
	}

	// 1. Entry block has no predecessors
	if n := preds(fn, fn.Blocks[0]); n != 0 {
		add("func %s: entry block has %d predecessors, want 0", fn.Name(), n)
	}

	for _, b := range fn.Blocks {
		// 2. Every block ends in exactly one terminator
		if b.Term == nil {
			add("func %s, %s: block has no terminator", fn.Name(), blockName(b))
			continue
		}

		// 3. Block's Func pointer matches
		if b.Parent != nil && b.Parent != fn {
			add("func %s, %s: block Parent pointer mismatch", fn.Name(), blockName(b))
		}

		// 4. Branch targets belong to the function
		for _, succ := range b.Term.Succs() {
			if !blockSet[succ] {
				add("func %s, %s: successor %s not in function", fn.Name(), blockName(b), blockName(succ))
			}
		}
	}

	// 5. Every use of a value is dominated by its definition
	if len(errs) == 0 {
		checkDominance(fn, add)
	}

	return combineErrors(errs)
}

func blockName(b *ir.Block) string {
	if b.LocalName != "" {
		return b.LocalName
	}
	return "block"
}

func combineErrors(errs []string) error {
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("cfg verification failed:\n  %s", strings.Join(errs, "\n  "))
}
