package ir

import "strings"

type (
	// Type is a primitive type tag plus flag bits.
	Type uint8

	// Ref is an index into the trace IR buffer.
	// Refs below RefBias are constants, growing down.
	// Refs at or above it are instructions, growing up.
	Ref uint32

	// TRef is a Ref tagged with its static Type.
	TRef uint32
)

const (
	TNil Type = iota
	TFalse
	TTrue
	TLightUD
	TStr
	TPtr
	TThread
	TProto
	TFunc
	T9
	TTab
	TUData
	TNum
	TInt
	TI8
	TU8
	TI16
	TU16

	tMax
)

const (
	TTypeMask Type = 0x1f

	TGuard Type = 0x80
)

const (
	RefNone Ref = 0

	RefBias  Ref = 0x8000
	RefTrue      = RefBias - 3
	RefFalse     = RefBias - 2
	RefNil       = RefBias - 1
	RefBase      = RefBias
	RefFirst     = RefBias + 1

	RefMax Ref = 0xffff
)

var typeNames = [tMax]string{"nil", "fal", "tru", "lud", "str", "p32", "thr", "pro", "fun", "t09", "tab", "udt", "num", "int", "i8 ", "u8 ", "i16", "u16"}

func TypeByName(name string) (Type, bool) {
	name = strings.ToLower(name)

	for t := Type(0); t < tMax; t++ {
		if strings.TrimSpace(typeNames[t]) == name {
			return t, true
		}
	}

	switch name {
	case "false":
		return TFalse, true
	case "true":
		return TTrue, true
	case "ptr":
		return TPtr, true
	}

	return 0, false
}

func (t Type) Tag() Type       { return t & TTypeMask }
func (t Type) Guarded() Type   { return t | TGuard }
func (t Type) IsGuard() bool   { return t&TGuard != 0 }
func (t Type) Is(x Type) bool  { return t.Tag() == x }
func (t Type) IsPri() bool     { return t.Tag() <= TTrue }
func (t Type) IsStr() bool     { return t.Tag() == TStr }
func (t Type) IsNum() bool     { return t.Tag() == TNum }
func (t Type) IsInteger() bool { return t.Tag() >= TInt && t.Tag() <= TU16 }
func (t Type) IsNumber() bool  { return t.Tag() >= TNum && t.Tag() <= TU16 }

// IsGCV reports whether values of the type are garbage-collected objects.
func (t Type) IsGCV() bool {
	switch t.Tag() {
	case TStr, TThread, TProto, TFunc, TTab, TUData:
		return true
	}

	return false
}

func (t Type) String() string {
	if t.Tag() >= tMax {
		return "t??"
	}

	return typeNames[t.Tag()]
}

func (r Ref) IsK() bool { return r < RefBias }

func MakeTRef(r Ref, t Type) TRef {
	return TRef(r) | TRef(t.Tag())<<24
}

func (tr TRef) Ref() Ref   { return Ref(tr & 0xffff) }
func (tr TRef) Type() Type { return Type(tr >> 24) }
func (tr TRef) IsK() bool  { return tr.Ref().IsK() }
