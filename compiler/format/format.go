package format

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/nikandfor/hacked/hfmt"
	"nikand.dev/go/heap"
	"tlog.app/go/tlog"

	"github.com/slowlang/tjit/compiler/ir"
)

type (
	opCount struct {
		op ir.Op
		n  int
	}
)

// Trace dumps constants, instructions and snapshots of tr.
//
// Instructions are numbered from BASE: 0000, 0001, ...
// Constants are numbered down from the bias: K001 is nil, K002 false, K003 true,
// interned constants start at K004.
func Trace(ctx context.Context, b []byte, tr *ir.Trace) []byte {
	tlog.SpanFromContext(ctx).V("format").Printw("format trace", "nins", tr.NIns()-ir.RefBase, "nk", ir.RefBias-tr.NK(), "snaps", len(tr.Snaps))

	b = append(b, "---- constants\n"...)

	for ref := ir.RefTrue - 1; ref >= tr.NK(); ref-- {
		b = Ins(b, tr, ref)
	}

	b = append(b, "---- IR\n"...)

	for ref := ir.RefBase; ref < tr.NIns(); ref++ {
		b = Ins(b, tr, ref)
	}

	b = append(b, "---- snapshots\n"...)

	for i, s := range tr.Snaps {
		b = hfmt.Appendf(b, "#%d", i)

		for _, ref := range s.Refs {
			b = append(b, ' ')
			b = RefName(b, ref)
		}

		b = append(b, '\n')
	}

	return b
}

// Ins formats one instruction or constant line.
func Ins(b []byte, tr *ir.Trace, ref ir.Ref) []byte {
	x := tr.Ins(ref)

	g := byte(' ')
	if x.T.IsGuard() {
		g = '>'
	}

	st := len(b)

	b = RefName(b, ref)
	b = append(b, ' ', g, ' ')
	b = append(b, x.T.String()...)
	b = append(b, ' ')
	b = pad(b, x.Op.String(), 6)

	if x.Op.IsK() {
		b = append(b, ' ')
		b = kvalue(b, x)
	} else if x.Op != ir.NOP {
		m := x.Op.Mode()

		b = operand(b, m.Op1(), x.Op1)
		b = operand(b, m.Op2(), x.Op2)
	}

	b = trimRight(b, st)
	b = append(b, '\n')

	return b
}

// RefName appends the printable name of ref.
func RefName(b []byte, ref ir.Ref) []byte {
	if ref.IsK() {
		return hfmt.Appendf(b, "K%03d", ir.RefBias-ref)
	}

	return hfmt.Appendf(b, "%04d", ref-ir.RefBias)
}

// Stats appends the opcode histogram of the trace instructions,
// most frequent first.
func Stats(b []byte, tr *ir.Trace) []byte {
	var cnt [ir.OpMax]int

	for ref := ir.RefFirst; ref < tr.NIns(); ref++ {
		cnt[tr.Ins(ref).Op]++
	}

	h := heap.Heap[opCount]{Less: opCountLess}

	for op, n := range cnt {
		if n != 0 {
			h.Push(opCount{op: ir.Op(op), n: n})
		}
	}

	b = hfmt.Appendf(b, "---- stats: %d ins %d consts\n", tr.NIns()-ir.RefFirst, ir.RefTrue-tr.NK())

	for h.Len() != 0 {
		c := h.Pop()

		b = pad(b, c.op.String(), 6)
		b = hfmt.Appendf(b, " %d\n", c.n)
	}

	return b
}

func opCountLess(d []opCount, i, j int) bool {
	if d[i].n != d[j].n {
		return d[i].n > d[j].n
	}

	return d[i].op < d[j].op
}

func operand(b []byte, m ir.OperandMode, ref ir.Ref) []byte {
	switch m {
	case ir.ModeRef:
		b = append(b, ' ')
		b = RefName(b, ref)
	case ir.ModeLit:
		b = hfmt.Appendf(b, " #%d", ref)
	}

	return b
}

func kvalue(b []byte, x *ir.Ins) []byte {
	switch x.Op {
	case ir.KINT:
		return strconv.AppendInt(b, int64(x.I), 10)
	case ir.KNUM:
		if f := x.Num.Float(); !math.IsNaN(f) {
			return strconv.AppendFloat(b, f, 'g', -1, 64)
		}

		b = append(b, "nan(0x"...)
		b = strconv.AppendUint(b, x.Num.U64, 16)

		return append(b, ')')
	case ir.KGC:
		if s, ok := x.GC.(fmt.Stringer); ok {
			return strconv.AppendQuote(b, s.String())
		}

		return append(b, "object"...)
	case ir.KPTR:
		b = append(b, "0x"...)
		return strconv.AppendUint(b, uint64(x.Ptr), 16)
	case ir.KNULL:
		return append(b, "NULL"...)
	case ir.KSLOT:
		b = RefName(b, x.Op1)
		return hfmt.Appendf(b, " @%d", x.Op2)
	case ir.KPRI:
		return append(b, x.T.String()...)
	}

	return b
}

func pad(b []byte, s string, w int) []byte {
	b = append(b, s...)

	for i := len(s); i < w; i++ {
		b = append(b, ' ')
	}

	return b
}

func trimRight(b []byte, st int) []byte {
	for len(b) > st && b[len(b)-1] == ' ' {
		b = b[:len(b)-1]
	}

	return b
}
