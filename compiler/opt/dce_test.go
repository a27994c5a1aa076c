package opt

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/tjit/compiler/ir"
)

func emit(t testing.TB, tr *ir.Trace, op ir.Op, tp ir.Type, a, b ir.Ref) ir.Ref {
	t.Helper()

	r, err := tr.EmitRaw(ir.Ins{Op: op, T: tp, Op1: a, Op2: b})
	require.NoError(t, err)

	return r.Ref()
}

// checkChains verifies every opcode chain holds exactly the instructions
// and constants of that opcode, newest first.
func checkChains(t testing.TB, tr *ir.Trace) {
	t.Helper()

	seen := map[ir.Ref]bool{}

	for op := ir.Op(0); op < ir.OpMax; op++ {
		var last ir.Ref
		first := true

		tr.Range(op, func(ref ir.Ref, x *ir.Ins) bool {
			assert.Equal(t, op, x.Op, "ref %#x in %v chain", ref, op)

			// Constants grow down, so their chains go up.
			switch {
			case first:
			case op.IsK():
				assert.Greater(t, ref, last, "%v chain order", op)
			default:
				assert.Less(t, ref, last, "%v chain order", op)
			}
			assert.False(t, seen[ref], "ref %#x chained twice", ref)

			seen[ref] = true
			last = ref
			first = false

			return true
		})
	}

	for ref := ir.RefBase; ref < tr.NIns(); ref++ {
		assert.True(t, seen[ref], "ins %#x (%v) is not chained", ref, tr.Ins(ref).Op)
	}
}

func TestDCEScenario(t *testing.T) {
	ctx := context.Background()

	build := func(useB bool) (tr *ir.Trace, a, b, c ir.Ref) {
		tr = ir.New(ir.Config{DCE: true}, nil)

		a = emit(t, tr, ir.TNEW, ir.TTab, 0, 0)
		b = emit(t, tr, ir.TLEN, ir.TInt, a, 0)
		c = emit(t, tr, ir.TBAR, ir.TNil, a, 0)

		if useB {
			tr.AddSnapshot(b)
		} else {
			tr.AddSnapshot()
		}

		return
	}

	tr, a, b, c := build(true)

	removed := DCE(ctx, tr)
	assert.Equal(t, 0, removed)

	assert.Equal(t, ir.TNEW, tr.Ins(a).Op)
	assert.Equal(t, ir.TLEN, tr.Ins(b).Op)
	assert.Equal(t, ir.TBAR, tr.Ins(c).Op)
	checkChains(t, tr)

	tr, a, b, c = build(false)

	removed = DCE(ctx, tr)
	assert.Equal(t, 1, removed)

	assert.Equal(t, ir.NOP, tr.Ins(b).Op)
	assert.Equal(t, ir.TBAR, tr.Ins(c).Op)
	assert.Equal(t, ir.TNEW, tr.Ins(a).Op, "kept alive by the side-effecting TBAR")
	assert.Equal(t, b, tr.Head(ir.NOP))
	assert.Equal(t, ir.RefNone, tr.Head(ir.TLEN))
	checkChains(t, tr)
}

func TestDCEUnused(t *testing.T) {
	tr := ir.New(ir.Config{DCE: true}, nil)

	k, err := tr.KInt(3)
	require.NoError(t, err)

	x := emit(t, tr, ir.SLOAD, ir.TInt.Guarded(), 1, 0)
	y := emit(t, tr, ir.ADD, ir.TInt, x, k.Ref())
	z := emit(t, tr, ir.MUL, ir.TInt, y, y)
	w := emit(t, tr, ir.ADD, ir.TInt, z, k.Ref())
	s := emit(t, tr, ir.ASTORE, ir.TInt, y, x)
	u := emit(t, tr, ir.SUB, ir.TInt, x, k.Ref())

	removed := DCE(context.Background(), tr)
	assert.Equal(t, 3, removed)

	for _, ref := range []ir.Ref{z, w, u} {
		assert.Equal(t, ir.NOP, tr.Ins(ref).Op)
		assert.Equal(t, ir.RefNone, tr.Ins(ref).Op1)
		assert.Equal(t, ir.TNil, tr.Ins(ref).T)
	}

	for _, ref := range []ir.Ref{x, y, s} {
		assert.NotEqual(t, ir.NOP, tr.Ins(ref).Op)
	}

	assert.Equal(t, y, tr.Head(ir.ADD))
	assert.Equal(t, ir.RefNone, tr.Head(ir.MUL))
	assert.Equal(t, u, tr.Head(ir.NOP))
	assert.Equal(t, w, tr.Ins(u).Prev)
	assert.Equal(t, z, tr.Ins(w).Prev)
	assert.Equal(t, ir.RefNone, tr.Ins(z).Prev)

	assert.Equal(t, k.Ref(), tr.Head(ir.KINT), "constants are untouched")
	checkChains(t, tr)
}

func TestDCEDisabled(t *testing.T) {
	tr := ir.New(ir.Config{DCE: false}, nil)

	x := emit(t, tr, ir.TNEW, ir.TTab, 0, 0)

	assert.Equal(t, 0, DCE(context.Background(), tr))
	assert.Equal(t, ir.TNEW, tr.Ins(x).Op)
}

func TestDCEBadSnapshot(t *testing.T) {
	tr := ir.New(ir.Config{DCE: true}, nil)

	emit(t, tr, ir.TNEW, ir.TTab, 0, 0)
	tr.AddSnapshot(tr.NIns() + 5)

	assert.Panics(t, func() { DCE(context.Background(), tr) })
}

func TestDCERandom(t *testing.T) {
	pure := []ir.Op{ir.ADD, ir.SUB, ir.MUL, ir.BAND, ir.BXOR, ir.NEG, ir.TONUM, ir.AREF, ir.FLOAD}
	side := []ir.Op{ir.ASTORE, ir.HSTORE, ir.FSTORE, ir.TBAR, ir.EQ, ir.LT, ir.ABC}

	r := rand.New(rand.NewSource(1))

	for iter := 0; iter < 50; iter++ {
		tr := ir.New(ir.Config{DCE: true}, nil)

		var ks []ir.Ref

		for i := 0; i < 5; i++ {
			k, err := tr.KInt(int32(i))
			require.NoError(t, err)

			ks = append(ks, k.Ref())
		}

		refs := []ir.Ref{emit(t, tr, ir.SLOAD, ir.TInt, 1, 0)}

		operand := func() ir.Ref {
			if r.Intn(4) == 0 {
				return ks[r.Intn(len(ks))]
			}

			return refs[r.Intn(len(refs))]
		}

		for i := 0; i < 100; i++ {
			op := pure[r.Intn(len(pure))]
			tp := ir.TInt

			switch r.Intn(8) {
			case 0:
				op = side[r.Intn(len(side))]
			case 1:
				tp = tp.Guarded()
			}

			a, b := operand(), operand()
			if op == ir.FLOAD {
				b = ir.Ref(r.Intn(10))
			}

			refs = append(refs, emit(t, tr, op, tp, a, b))

			if r.Intn(20) == 0 {
				var snap []ir.Ref

				for j := 0; j < 3; j++ {
					snap = append(snap, operand())
				}

				tr.AddSnapshot(snap...)
			}
		}

		orig := map[ir.Ref]ir.Ins{}
		for ref := ir.RefFirst; ref < tr.NIns(); ref++ {
			orig[ref] = *tr.Ins(ref)
		}

		DCE(context.Background(), tr)

		live := map[ir.Ref]bool{}
		for _, s := range tr.Snaps {
			for _, ref := range s.Refs {
				live[ref] = true
			}
		}

		for ref := tr.NIns() - 1; ref >= ir.RefFirst; ref-- {
			o := orig[ref]
			x := tr.Ins(ref)

			keep := live[ref] || o.T.IsGuard() || o.Op.Mode().SideEffect()

			if !keep {
				assert.Equal(t, ir.NOP, x.Op, "iter %d ref %#x %v", iter, ref, o.Op)
				continue
			}

			assert.Equal(t, o.Op, x.Op, "iter %d ref %#x", iter, ref)

			m := o.Op.Mode()

			if m.Op1() == ir.ModeRef {
				live[o.Op1] = true
			}

			if m.Op2() == ir.ModeRef {
				live[o.Op2] = true
			}
		}

		// liveness is closed over operand edges
		for ref := ir.RefFirst; ref < tr.NIns(); ref++ {
			x := tr.Ins(ref)
			if x.Op == ir.NOP {
				continue
			}

			for _, o := range []ir.Ref{x.Op1, x.Op2} {
				if o.IsK() || o < ir.RefFirst {
					continue
				}

				if m := x.Op.Mode(); o == x.Op1 && m.Op1() != ir.ModeRef || o == x.Op2 && m.Op2() != ir.ModeRef {
					continue
				}

				assert.NotEqual(t, ir.NOP, tr.Ins(o).Op, "iter %d: %#x uses removed %#x", iter, ref, o)
			}
		}

		checkChains(t, tr)
	}
}
