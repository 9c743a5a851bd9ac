package codegen

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/value"
)

// domTree is the immediate dominator tree of a generated function.
// Blocks unreachable from the entry have no entry in idom.
type domTree struct {
	entry *ir.Block
	idom  map[*ir.Block]*ir.Block
	num   map[*ir.Block]int // reverse post-order number
}

// reversePostOrder returns the blocks of fn in reverse post-order,
// starting from the entry block. Unreachable blocks are excluded, as
// are successors outside fn.
func reversePostOrder(fn *ir.Func) []*ir.Block {
	if len(fn.Blocks) == 0 {
		return nil
	}
	own := make(map[*ir.Block]bool, len(fn.Blocks))
	for _, b := range fn.Blocks {
		own[b] = true
	}

	visited := make(map[*ir.Block]bool, len(fn.Blocks))
	var order []*ir.Block
	var dfs func(b *ir.Block)
	dfs = func(b *ir.Block) {
		if visited[b] || !own[b] {
			return
		}
		visited[b] = true
		if b.Term != nil {
			for _, s := range b.Term.Succs() {
				dfs(s)
			}
		}
		order = append(order, b)
	}
	dfs(fn.Blocks[0])

	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order
}

// computeDom computes the dominator tree of fn with Cooper, Harvey and
// Kennedy's "A Simple, Fast Dominance Algorithm".
func computeDom(fn *ir.Func) *domTree {
	rpo := reversePostOrder(fn)
	d := &domTree{
		idom: make(map[*ir.Block]*ir.Block, len(rpo)),
		num:  make(map[*ir.Block]int, len(rpo)),
	}
	if len(rpo) == 0 {
		return d
	}
	for i, b := range rpo {
		d.num[b] = i
	}

	predList := make(map[*ir.Block][]*ir.Block, len(rpo))
	for _, b := range rpo {
		for _, s := range b.Term.Succs() {
			if _, ok := d.num[s]; ok {
				predList[s] = append(predList[s], b)
			}
		}
	}

	intersect := func(b1, b2 *ir.Block) *ir.Block {
		for b1 != b2 {
			for d.num[b1] > d.num[b2] {
				b1 = d.idom[b1]
			}
			for d.num[b2] > d.num[b1] {
				b2 = d.idom[b2]
			}
		}
		return b1
	}

	// The entry is its own dominator while iterating.
	d.entry = rpo[0]
	d.idom[d.entry] = d.entry

	for changed := true; changed; {
		changed = false
		for _, b := range rpo[1:] {
			var newIdom *ir.Block
			for _, p := range predList[b] {
				if _, ok := d.idom[p]; !ok {
					continue
				}
				if newIdom == nil {
					newIdom = p
				} else {
					newIdom = intersect(p, newIdom)
				}
			}
			if newIdom != nil && d.idom[b] != newIdom {
				d.idom[b] = newIdom
				changed = true
			}
		}
	}

	d.idom[d.entry] = nil
	return d
}

// reachable reports whether b is reachable from the entry block.
func (d *domTree) reachable(b *ir.Block) bool {
	_, ok := d.num[b]
	return ok
}

// dominates reports whether a dominates b. Every block dominates itself.
func (d *domTree) dominates(a, b *ir.Block) bool {
	for b != nil {
		if a == b {
			return true
		}
		b = d.idom[b]
	}
	return false
}

// operands is implemented by llir instructions and terminators.
type operands interface {
	Operands() []*value.Value
}

// checkDominance reports every use of an instruction result in fn that
// is not dominated by its definition. An incoming value of a phi is
// used at the end of its predecessor block. Uses in unreachable blocks
// are not checked.
func checkDominance(fn *ir.Func, add func(format string, args ...interface{})) {
	d := computeDom(fn)

	type site struct {
		b   *ir.Block
		idx int
	}
	defs := make(map[value.Value]site)
	for _, b := range fn.Blocks {
		for i, inst := range b.Insts {
			if v, ok := inst.(value.Value); ok {
				defs[v] = site{b, i}
			}
		}
	}

	check := func(user *ir.Block, at int, v value.Value) {
		if _, ok := v.(ir.Instruction); !ok {
			return
		}
		def, ok := defs[v]
		if !ok {
			return
		}
		if def.b == user {
			if def.idx >= at {
				add("func %s, %s: value %s used before its definition", fn.Name(), blockName(user), v.Ident())
			}
			return
		}
		if !d.dominates(def.b, user) {
			add("func %s, %s: value %s defined in %s does not dominate its use", fn.Name(), blockName(user), v.Ident(), blockName(def.b))
		}
	}

	for _, b := range fn.Blocks {
		if !d.reachable(b) {
			continue
		}
		for i, inst := range b.Insts {
			if phi, ok := inst.(*ir.InstPhi); ok {
				for _, inc := range phi.Incs {
					var pv interface{} = inc.Pred
					if pred, ok := pv.(*ir.Block); ok && d.reachable(pred) {
						check(pred, len(pred.Insts), inc.X)
					}
				}
				continue
			}
			if u, ok := inst.(operands); ok {
				for _, op := range u.Operands() {
					check(b, i, *op)
				}
			}
		}
		if u, ok := b.Term.(operands); ok {
			for _, op := range u.Operands() {
				check(b, len(b.Insts), *op)
			}
		}
	}
}
