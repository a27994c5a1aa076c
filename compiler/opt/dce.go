package opt

import (
	"context"

	"github.com/slowlang/tjit/compiler/ir"
	"github.com/slowlang/tjit/compiler/set"
	"tlog.app/go/tlog"
)

type (
	dce struct {
		tr   *ir.Trace
		mark set.Bits[ir.Ref]

		// pchain[op] is the link that currently feeds op's chain:
		// RefNone is the chain head itself, anything else is the Prev of that ref.
		pchain [ir.OpMax]ir.Ref
	}
)

// DCE replaces instructions not used by any snapshot with NOPs.
// Guards and side-effecting instructions are always kept.
// The buffer is not compacted, refs stay valid.
// It returns the number of instructions removed.
func DCE(ctx context.Context, t *ir.Trace) (removed int) {
	if !t.Config().DCE {
		return 0
	}

	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "opt: dce", "nins", t.NIns()-ir.RefBase, "snaps", len(t.Snaps))
	defer tr.Finish("removed", &removed)

	d := &dce{
		tr:   t,
		mark: set.MakeBitsCap(ir.RefBase, int(t.NIns()-ir.RefBase)),
	}

	d.markSnap()

	if tr.If("dump_dce") {
		tr.Printw("roots", "marks", d.mark)
	}

	removed = d.propagate(tr)

	return removed
}

// markSnap marks all instructions referenced by snapshots.
func (d *dce) markSnap() {
	for i, s := range d.tr.Snaps {
		for _, ref := range s.Refs {
			if ref.IsK() {
				continue
			}

			if ref >= d.tr.NIns() {
				ir.Fatalf("snapshot %d: ref %#x beyond trace end %#x", i, ref, d.tr.NIns())
			}

			d.mark.Set(ref)
		}
	}
}

// propagate walks instructions backwards, propagating marks to operands
// and replacing unmarked ones with NOPs.
func (d *dce) propagate(tr tlog.Span) (removed int) {
	t := d.tr

	for ref := t.NIns() - 1; ref >= ir.RefFirst; ref-- {
		x := t.Ins(ref)
		op := x.Op

		switch {
		case d.mark.IsSet(ref):
			d.mark.Clear(ref)
		case x.T.IsGuard() || op.Mode().SideEffect():
		default:
			d.relink(op, x.Prev) // unlink from its opcode chain
			d.relink(ir.NOP, ref) // and thread the NOP chain through here

			*x = ir.Ins{Op: ir.NOP, T: ir.TNil}

			d.pchain[ir.NOP] = ref

			if op == ir.NOP {
				continue
			}

			removed++

			if tr.If("dump_dce") {
				tr.Printw("dead", "ref", ref, "op", op)
			}

			continue
		}

		d.pchain[op] = ref

		m := op.Mode()
		d.markOperand(m.Op1(), x.Op1)
		d.markOperand(m.Op2(), x.Op2)
	}

	d.relink(ir.NOP, ir.RefNone)

	return removed
}

func (d *dce) markOperand(m ir.OperandMode, ref ir.Ref) {
	if m != ir.ModeRef || ref.IsK() {
		return
	}

	d.mark.Set(ref)
}

// relink writes ref through the tracked link of op.
func (d *dce) relink(op ir.Op, ref ir.Ref) {
	l := d.pchain[op]

	if l == ir.RefNone {
		d.tr.SetHead(op, ref)
		return
	}

	d.tr.Ins(l).Prev = ref
}
