package codegen

import (
	"strings"
	"testing"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	irtypes "github.com/llir/llvm/ir/types"
)

// diamond builds:
//
//	b0
//	├→ b1 ─┐
//	└→ b2 ─┘
//	   b3
func diamond() (fn *ir.Func, b0, b1, b2, b3 *ir.Block) {
	m := ir.NewModule()
	fn = m.NewFunc("f", irtypes.Void)
	b0 = fn.NewBlock("")
	b1 = fn.NewBlock("b1")
	b2 = fn.NewBlock("b2")
	b3 = fn.NewBlock("b3")
	b0.NewCondBr(constant.True, b1, b2)
	b1.NewBr(b3)
	b2.NewBr(b3)
	b3.NewRet(nil)
	return
}

func TestDomLinearChain(t *testing.T) {
	m := ir.NewModule()
	fn := m.NewFunc("f", irtypes.Void)
	b0 := fn.NewBlock("")
	b1 := fn.NewBlock("b1")
	b2 := fn.NewBlock("b2")
	b0.NewBr(b1)
	b1.NewBr(b2)
	b2.NewRet(nil)

	d := computeDom(fn)
	if d.idom[b0] != nil {
		t.Errorf("idom(b0) = %v, want nil", d.idom[b0])
	}
	if d.idom[b1] != b0 {
		t.Errorf("idom(b1) != b0")
	}
	if d.idom[b2] != b1 {
		t.Errorf("idom(b2) != b1")
	}
	if !d.dominates(b0, b2) || d.dominates(b2, b0) {
		t.Errorf("b0 must dominate b2 and not the reverse")
	}
}

func TestDomDiamond(t *testing.T) {
	fn, b0, b1, b2, b3 := diamond()
	d := computeDom(fn)
	for _, b := range []*ir.Block{b1, b2, b3} {
		if d.idom[b] != b0 {
			t.Errorf("idom(%s) != entry", blockName(b))
		}
	}
	if d.dominates(b1, b3) || d.dominates(b2, b3) {
		t.Errorf("neither branch may dominate the merge block")
	}
}

func TestDomLoop(t *testing.T) {
	// b0 → b1 ⇄ b2, b1 → b3
	m := ir.NewModule()
	fn := m.NewFunc("f", irtypes.Void)
	b0 := fn.NewBlock("")
	b1 := fn.NewBlock("b1")
	b2 := fn.NewBlock("b2")
	b3 := fn.NewBlock("b3")
	b0.NewBr(b1)
	b1.NewCondBr(constant.True, b2, b3)
	b2.NewBr(b1)
	b3.NewRet(nil)

	d := computeDom(fn)
	if d.idom[b2] != b1 || d.idom[b3] != b1 {
		t.Errorf("loop header must dominate body and exit")
	}
}

func TestDomUnreachable(t *testing.T) {
	m := ir.NewModule()
	fn := m.NewFunc("f", irtypes.Void)
	b0 := fn.NewBlock("")
	dead := fn.NewBlock("dead")
	b0.NewRet(nil)
	dead.NewRet(nil)

	d := computeDom(fn)
	if d.reachable(dead) {
		t.Errorf("dead block reported reachable")
	}
	if got := len(reversePostOrder(fn)); got != 1 {
		t.Errorf("reverse post-order has %d blocks, want 1", got)
	}
}

func TestVerifyRejectsUndominatedUse(t *testing.T) {
	fn, _, b1, _, b3 := diamond()
	x := b1.NewAdd(constant.NewInt(irtypes.I32, 1), constant.NewInt(irtypes.I32, 2))
	b3.NewAdd(x, x)

	err := Verify(fn)
	if err == nil || !strings.Contains(err.Error(), "does not dominate its use") {
		t.Errorf("Verify = %v, want dominance violation", err)
	}
}

func TestVerifyAcceptsPhiOfBranchValues(t *testing.T) {
	fn, _, b1, b2, b3 := diamond()
	x := b1.NewAdd(constant.NewInt(irtypes.I32, 1), constant.NewInt(irtypes.I32, 2))
	y := b2.NewAdd(constant.NewInt(irtypes.I32, 3), constant.NewInt(irtypes.I32, 4))
	b3.NewPhi(ir.NewIncoming(x, b1), ir.NewIncoming(y, b2))

	if err := Verify(fn); err != nil {
		t.Errorf("Verify = %v, want nil", err)
	}
}
