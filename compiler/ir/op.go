package ir

import "strings"

type (
	Op uint8

	// Mode is the static property set of an opcode:
	// two operand modes, kind, commutativity and guard bits.
	Mode uint8

	OperandMode uint8

	Effect uint8

	opInfo struct {
		name string
		mode Mode
	}
)

const (
	ModeRef OperandMode = iota
	ModeLit
	ModeCst
	ModeNone
)

const (
	mC Mode = 0x10

	mN Mode = 0x00
	mR      = mN
	mA Mode = 0x20
	mL Mode = 0x40
	mS Mode = 0x60

	mG Mode = 0x80

	mGC = mG | mC
	mRG = mR | mG
	mLG = mL | mG
)

const (
	EffectPure Effect = iota
	EffectSide
	EffectGuard
)

const (
	NOP Op = iota
	BASE
	LOOP
	PHI
	RENAME

	KPRI
	KINT
	KGC
	KPTR
	KNULL
	KNUM
	KSLOT

	EQ
	NE
	ABC
	FRAME
	LT
	GE
	LE
	GT
	ULT
	UGE
	ULE
	UGT

	BNOT
	BSWAP
	BAND
	BOR
	BXOR
	BSHL
	BSHR
	BSAR
	BROL
	BROR

	ADD
	SUB
	MUL
	DIV
	FPMATH
	POWI
	NEG
	ABS
	ATAN2
	LDEXP
	MIN
	MAX

	ADDOV
	SUBOV

	AREF
	HREFK
	HREF
	NEWREF
	UREFO
	UREFC
	FREF
	STRREF

	ALOAD
	HLOAD
	ULOAD
	FLOAD
	SLOAD
	XLOAD

	ASTORE
	HSTORE
	USTORE
	FSTORE

	SNEW

	TNEW
	TDUP
	TLEN
	TBAR
	OBAR

	TONUM
	TOINT
	TOBIT
	TOSTR
	STRTO

	OpMax
)

const (
	oref = ModeRef
	olit = ModeLit
	ocst = ModeCst
	o___ = ModeNone
)

// TOINT literal operand.
const (
	ToIntCheck Ref = iota
	ToIntIndex
	ToIntAny
)

var ops = [OpMax]opInfo{
	NOP:    op("NOP", mN, o___, o___),
	BASE:   op("BASE", mN, olit, olit),
	LOOP:   op("LOOP", mG, o___, o___),
	PHI:    op("PHI", mS, oref, oref),
	RENAME: op("RENAME", mS, oref, olit),

	KPRI:  op("KPRI", mN, o___, o___),
	KINT:  op("KINT", mN, ocst, o___),
	KGC:   op("KGC", mN, ocst, o___),
	KPTR:  op("KPTR", mN, ocst, o___),
	KNULL: op("KNULL", mN, ocst, o___),
	KNUM:  op("KNUM", mN, ocst, o___),
	KSLOT: op("KSLOT", mN, oref, olit),

	EQ:    op("EQ", mGC, oref, oref),
	NE:    op("NE", mGC, oref, oref),
	ABC:   op("ABC", mG, oref, oref),
	FRAME: op("FRAME", mG, oref, oref),
	LT:    op("LT", mG, oref, oref),
	GE:    op("GE", mG, oref, oref),
	LE:    op("LE", mG, oref, oref),
	GT:    op("GT", mG, oref, oref),
	ULT:   op("ULT", mG, oref, oref),
	UGE:   op("UGE", mG, oref, oref),
	ULE:   op("ULE", mG, oref, oref),
	UGT:   op("UGT", mG, oref, oref),

	BNOT:  op("BNOT", mN, oref, o___),
	BSWAP: op("BSWAP", mN, oref, o___),
	BAND:  op("BAND", mC, oref, oref),
	BOR:   op("BOR", mC, oref, oref),
	BXOR:  op("BXOR", mC, oref, oref),
	BSHL:  op("BSHL", mN, oref, oref),
	BSHR:  op("BSHR", mN, oref, oref),
	BSAR:  op("BSAR", mN, oref, oref),
	BROL:  op("BROL", mN, oref, oref),
	BROR:  op("BROR", mN, oref, oref),

	ADD:    op("ADD", mC, oref, oref),
	SUB:    op("SUB", mN, oref, oref),
	MUL:    op("MUL", mC, oref, oref),
	DIV:    op("DIV", mN, oref, oref),
	FPMATH: op("FPMATH", mN, oref, olit),
	POWI:   op("POWI", mN, oref, oref),
	NEG:    op("NEG", mN, oref, oref),
	ABS:    op("ABS", mN, oref, oref),
	ATAN2:  op("ATAN2", mN, oref, oref),
	LDEXP:  op("LDEXP", mN, oref, oref),
	MIN:    op("MIN", mC, oref, oref),
	MAX:    op("MAX", mC, oref, oref),

	ADDOV: op("ADDOV", mGC, oref, oref),
	SUBOV: op("SUBOV", mG, oref, oref),

	AREF:   op("AREF", mR, oref, oref),
	HREFK:  op("HREFK", mRG, oref, oref),
	HREF:   op("HREF", mL, oref, oref),
	NEWREF: op("NEWREF", mS, oref, oref),
	UREFO:  op("UREFO", mLG, oref, olit),
	UREFC:  op("UREFC", mLG, oref, olit),
	FREF:   op("FREF", mR, oref, olit),
	STRREF: op("STRREF", mN, oref, oref),

	ALOAD: op("ALOAD", mLG, oref, o___),
	HLOAD: op("HLOAD", mLG, oref, o___),
	ULOAD: op("ULOAD", mLG, oref, o___),
	FLOAD: op("FLOAD", mL, oref, olit),
	SLOAD: op("SLOAD", mLG, olit, olit),
	XLOAD: op("XLOAD", mL, oref, olit),

	ASTORE: op("ASTORE", mS, oref, oref),
	HSTORE: op("HSTORE", mS, oref, oref),
	USTORE: op("USTORE", mS, oref, oref),
	FSTORE: op("FSTORE", mS, oref, oref),

	SNEW: op("SNEW", mN, oref, oref),

	TNEW: op("TNEW", mA, olit, olit),
	TDUP: op("TDUP", mA, oref, o___),
	TLEN: op("TLEN", mL, oref, o___),
	TBAR: op("TBAR", mS, oref, o___),
	OBAR: op("OBAR", mS, oref, oref),

	TONUM: op("TONUM", mN, oref, o___),
	TOINT: op("TOINT", mN, oref, olit),
	TOBIT: op("TOBIT", mN, oref, oref),
	TOSTR: op("TOSTR", mN, oref, o___),
	STRTO: op("STRTO", mG, oref, o___),
}

func op(name string, m Mode, a, b OperandMode) opInfo {
	return opInfo{
		name: name,
		mode: m | Mode(a) | Mode(b)<<2,
	}
}

func OpByName(name string) (Op, bool) {
	name = strings.ToUpper(name)

	for o := Op(0); o < OpMax; o++ {
		if ops[o].name == name {
			return o, true
		}
	}

	return 0, false
}

func (o Op) String() string {
	if o >= OpMax {
		return "op?"
	}

	return ops[o].name
}

func (o Op) Mode() Mode {
	return ops[o].mode
}

func (o Op) Effect() Effect {
	m := o.Mode()

	switch {
	case m.Guard():
		return EffectGuard
	case m.SideEffect():
		return EffectSide
	default:
		return EffectPure
	}
}

// IsK reports whether o is one of the constant opcodes.
func (o Op) IsK() bool { return o >= KPRI && o <= KSLOT }

// IsCmp reports whether o is an ordered or equality comparison.
func (o Op) IsCmp() bool { return o == EQ || o == NE || o >= LT && o <= UGT }

func (m Mode) Op1() OperandMode { return OperandMode(m & 3) }
func (m Mode) Op2() OperandMode { return OperandMode(m >> 2 & 3) }

func (m Mode) Commutative() bool { return m&mC != 0 }
func (m Mode) Guard() bool       { return m&mG != 0 }

func (m Mode) Normal() bool { return m&mS == mN }
func (m Mode) Alloc() bool  { return m&mS == mA }
func (m Mode) Load() bool   { return m&mS == mL }
func (m Mode) Store() bool  { return m&mS == mS }

// SideEffect is true for stores and for any guarded opcode.
func (m Mode) SideEffect() bool { return m >= mS }

func (e Effect) String() string {
	switch e {
	case EffectPure:
		return "pure"
	case EffectSide:
		return "side"
	case EffectGuard:
		return "guard"
	default:
		return "effect?"
	}
}
