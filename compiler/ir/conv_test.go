package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToNum(t *testing.T) {
	tr := New(Config{}, nil)

	i := emit(t, tr, SLOAD, TInt, 1, 0)
	n := emit(t, tr, SLOAD, TNum, 2, 0)
	s := emit(t, tr, SLOAD, TStr, 3, 0)
	tab := emit(t, tr, SLOAD, TTab, 4, 0)

	r, err := tr.ToNum(n)
	require.NoError(t, err)
	assert.Equal(t, n, r)

	r, err = tr.ToNum(i)
	require.NoError(t, err)
	assert.Equal(t, TONUM, tr.Ins(r.Ref()).Op)
	assert.Equal(t, i.Ref(), tr.Ins(r.Ref()).Op1)
	assert.Equal(t, TNum, r.Type())

	r, err = tr.ToNum(s)
	require.NoError(t, err)
	assert.Equal(t, STRTO, tr.Ins(r.Ref()).Op)
	assert.True(t, tr.Ins(r.Ref()).T.IsGuard())
	assert.Equal(t, TNum, r.Type())

	nins := tr.NIns()

	_, err = tr.ToNum(tab)
	assert.ErrorIs(t, err, ErrBadType)
	assert.Equal(t, nins, tr.NIns())
}

func TestToStr(t *testing.T) {
	tr := New(Config{}, nil)

	i := emit(t, tr, SLOAD, TInt, 1, 0)
	s := emit(t, tr, SLOAD, TStr, 2, 0)

	r, err := tr.ToStr(s)
	require.NoError(t, err)
	assert.Equal(t, s, r)

	r, err = tr.ToStr(i)
	require.NoError(t, err)
	assert.Equal(t, TOSTR, tr.Ins(r.Ref()).Op)
	assert.Equal(t, TStr, r.Type())

	k, err := tr.KNum(1.5)
	require.NoError(t, err)

	r, err = tr.ToStr(k)
	require.NoError(t, err)
	assert.Equal(t, k.Ref(), tr.Ins(r.Ref()).Op1)

	_, err = tr.ToStr(tr.KPri(TTrue))
	assert.ErrorIs(t, err, ErrBadType)
}

func TestToBit(t *testing.T) {
	tr := New(Config{}, nil)

	i := emit(t, tr, SLOAD, TInt, 1, 0)
	n := emit(t, tr, SLOAD, TNum, 2, 0)
	s := emit(t, tr, SLOAD, TStr, 3, 0)

	r, err := tr.ToBit(i)
	require.NoError(t, err)
	assert.Equal(t, i, r)

	bias, err := tr.KNumTobit()
	require.NoError(t, err)

	r, err = tr.ToBit(n)
	require.NoError(t, err)

	x := tr.Ins(r.Ref())
	assert.Equal(t, TOBIT, x.Op)
	assert.Equal(t, n.Ref(), x.Op1)
	assert.Equal(t, bias.Ref(), x.Op2)
	assert.Equal(t, TInt, r.Type())

	nins := tr.NIns()

	r, err = tr.ToBit(s)
	require.NoError(t, err)
	assert.Equal(t, nins+2, tr.NIns(), "STRTO + TOBIT")

	x = tr.Ins(r.Ref())
	assert.Equal(t, TOBIT, x.Op)
	assert.Equal(t, STRTO, tr.Ins(x.Op1).Op)

	_, err = tr.ToBit(tr.KPri(TNil))
	assert.ErrorIs(t, err, ErrBadType)
}

func TestToInt(t *testing.T) {
	tr := New(Config{}, nil)

	u8 := emit(t, tr, XLOAD, TU8, 1, 0)
	n := emit(t, tr, SLOAD, TNum, 2, 0)

	r, err := tr.ToInt(u8)
	require.NoError(t, err)
	assert.Equal(t, u8, r)

	r, err = tr.ToInt(n)
	require.NoError(t, err)

	x := tr.Ins(r.Ref())
	assert.Equal(t, TOINT, x.Op)
	assert.Equal(t, ToIntAny, x.Op2)

	tab, err := tr.KNull(TTab)
	require.NoError(t, err)

	_, err = tr.ToInt(tab)
	assert.ErrorIs(t, err, ErrBadType)
}
