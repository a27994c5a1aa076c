package ir

// Every opcode has its own chain of instructions linked through Ins.Prev,
// newest first and ending with RefNone. The chains replace a hash table
// for CSE and constant interning: traces are short and there are few
// instructions of each opcode.

func (tr *Trace) Head(op Op) Ref {
	return tr.chain[op]
}

// SetHead overwrites the chain head. Used by passes relinking chains in place.
func (tr *Trace) SetHead(op Op, ref Ref) {
	tr.chain[op] = ref
}

// Range walks the op chain from the newest instruction to the oldest.
func (tr *Trace) Range(op Op, f func(ref Ref, x *Ins) bool) {
	for ref := tr.chain[op]; ref != RefNone; {
		x := tr.at(ref)

		if !f(ref, x) {
			return
		}

		ref = x.Prev
	}
}

// find returns the newest instruction in the op chain satisfying eq.
func (tr *Trace) find(op Op, eq func(x *Ins) bool) Ref {
	for ref := tr.chain[op]; ref != RefNone; {
		x := tr.at(ref)

		if eq(x) {
			return ref
		}

		ref = x.Prev
	}

	return RefNone
}
