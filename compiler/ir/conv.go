package ir

import "tlog.app/go/errors"

// ToNum converts an integer or a string to a number.
func (tr *Trace) ToNum(x TRef) (TRef, error) {
	t := x.Type()

	switch {
	case t.IsNum():
		return x, nil
	case t.IsInteger():
		return tr.Emit(TONUM, TNum, x.Ref(), RefNone)
	case t.IsStr():
		return tr.Emit(STRTO, TNum.Guarded(), x.Ref(), RefNone)
	}

	return 0, errors.Wrap(ErrBadType, "tonum: %v", t)
}

// ToStr converts an integer or a number to a string.
func (tr *Trace) ToStr(x TRef) (TRef, error) {
	t := x.Type()

	if t.IsStr() {
		return x, nil
	}

	if !t.IsNumber() {
		return 0, errors.Wrap(ErrBadType, "tostr: %v", t)
	}

	return tr.Emit(TOSTR, TStr, x.Ref(), RefNone)
}

// ToBit converts a number or a string to a bit operation operand.
// Overflow wraps around.
func (tr *Trace) ToBit(x TRef) (_ TRef, err error) {
	if x.Type().IsInteger() {
		return x, nil
	}

	x, err = tr.strToNum(x, "tobit")
	if err != nil {
		return 0, err
	}

	k, err := tr.KNumTobit()
	if err != nil {
		return 0, err
	}

	return tr.Emit(TOBIT, TInt, x.Ref(), k.Ref())
}

// ToInt converts a number or a string to an integer.
// The result for numbers outside of int32 range is undefined,
// as it is for the truncating conversion itself.
func (tr *Trace) ToInt(x TRef) (_ TRef, err error) {
	if x.Type().IsInteger() {
		return x, nil
	}

	x, err = tr.strToNum(x, "toint")
	if err != nil {
		return 0, err
	}

	return tr.Emit(TOINT, TInt, x.Ref(), ToIntAny)
}

func (tr *Trace) strToNum(x TRef, name string) (TRef, error) {
	t := x.Type()

	switch {
	case t.IsStr():
		return tr.Emit(STRTO, TNum.Guarded(), x.Ref(), RefNone)
	case t.IsNum():
		return x, nil
	}

	return 0, errors.Wrap(ErrBadType, "%s: %v", name, t)
}
