package opt

import (
	"fmt"

	"github.com/slowlang/tjit/compiler/ir"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"
)

type (
	// Folder is the ir.Folder doing constant comparison folding and CSE.
	Folder struct {
		Folding bool
		CSE     bool
	}
)

func NewFolder(cfg ir.Config) *Folder {
	return &Folder{
		Folding: cfg.Fold,
		CSE:     cfg.CSE,
	}
}

func (f *Folder) Fold(t *ir.Trace, ins ir.Ins) (ir.TRef, error) {
	m := ins.Op.Mode()

	if f.Folding {
		// Constants have lower refs, keep them on the right.
		if m.Commutative() && ins.Op1 < ins.Op2 {
			ins.Op1, ins.Op2 = ins.Op2, ins.Op1
		}

		if ins.Op.IsCmp() && ins.Op1.IsK() && ins.Op2.IsK() {
			res, ok, err := foldCmp(t, ins)
			if err != nil || ok {
				return res, err
			}
		}
	}

	if f.CSE && m.Normal() {
		return cse(t, ins)
	}

	return t.EmitRaw(ins)
}

// foldCmp evaluates a comparison of two constants.
// A guard that always holds is dropped, one that always fails aborts the trace.
func foldCmp(t *ir.Trace, ins ir.Ins) (_ ir.TRef, ok bool, err error) {
	var res bool

	a, err := t.KValue(ins.Op1)
	if err != nil {
		return 0, false, nil
	}

	b, err := t.KValue(ins.Op2)
	if err != nil {
		return 0, false, nil
	}

	an, aok := number(a)
	bn, bok := number(b)
	as, asok := str(t, ins.Op1, a)
	bs, bsok := str(t, ins.Op2, b)

	// NaN is not equal to itself, so numbers never take the same-ref shortcut.
	switch {
	case aok && bok:
		res = ir.NumCmp(an, bn, ins.Op)
	case ins.Op1 == ins.Op2 && (ins.Op == ir.EQ || ins.Op == ir.NE):
		res = ins.Op == ir.EQ
	case asok && bsok && ins.Op >= ir.LT && ins.Op <= ir.GT:
		res = ir.StrCmp(as, bs, ins.Op)
	default:
		return 0, false, nil
	}

	tlog.V("fold").Printw("fold cmp", "op", ins.Op, "a", a, "b", b, "res", res)

	if !res {
		return 0, true, errors.Wrap(ir.ErrGuardFail, "%v %v %v", ins.Op, a, b)
	}

	return t.KPri(ir.TTrue), true, nil
}

// cse returns an existing identical instruction or emits a new one.
// Only instructions newer than both operands can match.
func cse(t *ir.Trace, ins ir.Ins) (ir.TRef, error) {
	lim := max(ins.Op1, ins.Op2)
	found := ir.RefNone

	t.Range(ins.Op, func(ref ir.Ref, x *ir.Ins) bool {
		if ref <= lim {
			return false
		}

		if x.Op1 == ins.Op1 && x.Op2 == ins.Op2 && x.T.Tag() == ins.T.Tag() {
			found = ref
			return false
		}

		return true
	})

	if found != ir.RefNone {
		return ir.MakeTRef(found, ins.T), nil
	}

	return t.EmitRaw(ins)
}

func number(v any) (float64, bool) {
	switch v := v.(type) {
	case int32:
		return float64(v), true
	case float64:
		return v, true
	}

	return 0, false
}

func str(t *ir.Trace, ref ir.Ref, v any) (string, bool) {
	if !t.Ins(ref).T.IsStr() {
		return "", false
	}

	s, ok := v.(fmt.Stringer)
	if !ok {
		return "", false
	}

	return s.String(), true
}
