package ir

import (
	"math"

	"tlog.app/go/errors"
)

// Constants live below RefBias and grow down.
// They are interned: the same constant always gets the same reference,
// so constants can be compared by reference.
// Interning never goes through the Folder.

func (tr *Trace) KInt(k int32) (TRef, error) {
	ref := tr.find(KINT, func(x *Ins) bool { return x.I == k })
	if ref != RefNone {
		return MakeTRef(ref, TInt), nil
	}

	return tr.newK(Ins{Op: KINT, T: TInt, I: k})
}

// KNum interns an FP constant by its exact bit pattern.
func (tr *Trace) KNum(n float64) (TRef, error) {
	return tr.KNumBits(math.Float64bits(n))
}

func (tr *Trace) KNumBits(u uint64) (TRef, error) {
	return tr.KNumAddr(tr.pool.Find(u))
}

// KNumAddr interns an FP constant given by its stable address.
func (tr *Trace) KNumAddr(k *KNum) (TRef, error) {
	ref := tr.find(KNUM, func(x *Ins) bool { return x.Num == k })
	if ref != RefNone {
		return MakeTRef(ref, TNum), nil
	}

	return tr.newK(Ins{Op: KNUM, T: TNum, Num: k})
}

// KNumInt interns n as KINT if it's a true integer, as KNUM otherwise.
func (tr *Trace) KNumInt(n float64) (TRef, error) {
	if k, ok := IsTrueInt(n); ok {
		return tr.KInt(k)
	}

	return tr.KNum(n)
}

// KNumTobit is the 2^52+2^51 bias TOBIT adds to get the integer bits of a number.
func (tr *Trace) KNumTobit() (TRef, error) {
	return tr.KNum(6755399441055744.0)
}

func (tr *Trace) KNumAbs() (TRef, error) { return tr.KNumAddr(&knumMask[0]) }
func (tr *Trace) KNumNeg() (TRef, error) { return tr.KNumAddr(&knumMask[1]) }

// KGC interns a garbage-collected object by identity.
func (tr *Trace) KGC(o Object, t Type) (TRef, error) {
	if o == nil {
		Fatalf("kgc: nil object")
	}

	ref := tr.find(KGC, func(x *Ins) bool { return x.GC == o })
	if ref != RefNone {
		return MakeTRef(ref, t.Tag()), nil
	}

	return tr.newK(Ins{Op: KGC, T: t.Tag(), GC: o})
}

func (tr *Trace) KPtr(p uintptr) (TRef, error) {
	ref := tr.find(KPTR, func(x *Ins) bool { return x.Ptr == p })
	if ref != RefNone {
		return MakeTRef(ref, TPtr), nil
	}

	return tr.newK(Ins{Op: KPTR, T: TPtr, Ptr: p})
}

// KNull interns a typed NULL. Nulls of different types are different constants.
func (tr *Trace) KNull(t Type) (TRef, error) {
	ref := tr.find(KNULL, func(x *Ins) bool { return x.T.Tag() == t.Tag() })
	if ref != RefNone {
		return MakeTRef(ref, t), nil
	}

	return tr.newK(Ins{Op: KNULL, T: t.Tag()})
}

// KSlot interns a key constant paired with a slot index.
func (tr *Trace) KSlot(key TRef, slot Ref) (TRef, error) {
	if !key.IsK() || slot > RefMax {
		Fatalf("kslot: key %#x slot %d", key.Ref(), slot)
	}

	k := key.Ref()

	ref := tr.find(KSLOT, func(x *Ins) bool { return x.Op1 == k && x.Op2 == slot })
	if ref != RefNone {
		return MakeTRef(ref, TPtr), nil
	}

	return tr.newK(Ins{Op: KSLOT, T: TPtr, Op1: k, Op2: slot})
}

// KPri returns one of the fixed nil, false and true constants.
func (tr *Trace) KPri(t Type) TRef {
	if !t.IsPri() {
		Fatalf("kpri: %v is not primitive", t)
	}

	return MakeTRef(RefNil-Ref(t.Tag()), t)
}

// KValue returns the value of a constant:
// nil, bool, int32, float64, Object or uintptr.
func (tr *Trace) KValue(ref Ref) (any, error) {
	if !ref.IsK() {
		return nil, errors.New("not a constant: %#x", ref)
	}

	x := tr.Ins(ref)

	switch x.Op {
	case KPRI:
		switch x.T.Tag() {
		case TFalse:
			return false, nil
		case TTrue:
			return true, nil
		}

		return nil, nil
	case KINT:
		return x.I, nil
	case KNUM:
		return x.Num.Float(), nil
	case KGC:
		return x.GC, nil
	case KPTR, KNULL:
		return x.Ptr, nil
	default:
		return nil, errors.New("no value for %v constant", x.Op)
	}
}

// IsTrueInt checks whether n is an int32 and returns it.
// -0 is NOT an integer.
func IsTrueInt(n float64) (int32, bool) {
	if !(n >= math.MinInt32 && n <= math.MaxInt32) {
		return 0, false
	}

	k := int32(n)

	if float64(k) != n {
		return 0, false
	}

	if k == 0 && math.Signbit(n) {
		return 0, false
	}

	return k, true
}

func (tr *Trace) newK(ins Ins) (TRef, error) {
	ref, err := tr.nextK()
	if err != nil {
		return 0, err
	}

	x := tr.at(ref)

	*x = ins
	x.Prev = tr.chain[ins.Op]

	tr.chain[ins.Op] = ref

	return MakeTRef(ref, ins.T), nil
}
