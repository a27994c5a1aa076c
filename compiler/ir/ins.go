package ir

import "tlog.app/go/tlog/tlwire"

type (
	// Ins is one IR instruction or constant.
	//
	// Constants keep their payload in I, Num, GC or Ptr depending on Op.
	// KSLOT packs the key constant and the slot index into Op1 and Op2.
	Ins struct {
		Op   Op
		T    Type
		Op1  Ref
		Op2  Ref
		Prev Ref

		I   int32
		Num *KNum
		GC  Object
		Ptr uintptr
	}

	// Object is a garbage-collected object interned by identity.
	// Values must be comparable, normally pointers.
	Object interface{}

	Snapshot struct {
		Refs []Ref
	}
)

func (x Ins) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	b = e.AppendMap(b, 5)

	b = e.AppendString(b, "op")
	b = e.AppendString(b, x.Op.String())
	b = e.AppendString(b, "t")
	b = e.AppendString(b, x.T.String())
	b = e.AppendString(b, "op1")
	b = e.AppendInt(b, int(x.Op1))
	b = e.AppendString(b, "op2")
	b = e.AppendInt(b, int(x.Op2))
	b = e.AppendString(b, "prev")
	b = e.AppendInt(b, int(x.Prev))

	return b
}
