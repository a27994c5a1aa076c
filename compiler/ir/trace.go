package ir

import (
	"tlog.app/go/tlog"
	"tlog.app/go/tlog/tlwire"
)

type (
	// Folder is the optimization engine instructions are routed through
	// after recording decided to emit them. It must end up calling
	// EmitRaw or return an existing reference.
	Folder interface {
		Fold(tr *Trace, ins Ins) (TRef, error)
	}

	// Trace owns the IR buffer of the trace being recorded.
	//
	// The buffer is a single slice addressed by ref - botlim.
	// Constants grow down from RefBias, instructions grow up.
	// Any call that may grow the buffer invalidates *Ins pointers,
	// only Refs survive.
	Trace struct {
		cfg  Config
		pool *Pool

		Folder Folder

		ins    []Ins
		botlim Ref
		toplim Ref

		nins Ref
		nk   Ref

		chain [OpMax]Ref

		guardemit Type

		Snaps []Snapshot
	}

	Checkpoint struct {
		Ins   Ref
		K     Ref
		Snaps int
	}
)

// New creates a trace ready for recording.
// pool may be shared between sequentially compiled traces, nil creates a new one.
func New(cfg Config, pool *Pool) *Trace {
	if pool == nil {
		pool = NewPool()
	}

	tr := &Trace{
		cfg:  cfg.withDefaults(),
		pool: pool,
	}

	tr.Setup()

	return tr
}

// Setup starts a new trace reusing the buffer memory.
// Everything recorded before is discarded, the FP pool is kept.
func (tr *Trace) Setup() {
	clear(tr.ins)

	tr.nins = RefBase
	tr.nk = RefBase
	tr.chain = [OpMax]Ref{}
	tr.guardemit = 0
	tr.Snaps = tr.Snaps[:0]

	_, err := tr.EmitRaw(Ins{Op: BASE, T: TPtr})
	if err != nil {
		Fatalf("setup: %v", err)
	}

	for t := TNil; t <= TTrue; t++ {
		*tr.at(RefNil - Ref(t)) = Ins{Op: KPRI, T: t}
	}

	tr.nk = RefTrue
}

func (tr *Trace) Config() Config { return tr.cfg }
func (tr *Trace) Pool() *Pool     { return tr.pool }

// NIns is the next instruction ref. Instructions are [RefBase, NIns).
func (tr *Trace) NIns() Ref { return tr.nins }

// NK is the lowest constant ref. Constants are [NK, RefBias).
func (tr *Trace) NK() Ref { return tr.nk }

// Bounds are the refs the current allocation can hold: [bot, top).
func (tr *Trace) Bounds() (bot, top Ref) { return tr.botlim, tr.toplim }

// Len is the number of used slots: constants and instructions.
func (tr *Trace) Len() int { return int(tr.nins - tr.nk) }

func (tr *Trace) Cap() int { return len(tr.ins) }

// GuardEmitted reports whether any guard was emitted since the last reset.
func (tr *Trace) GuardEmitted() bool { return tr.guardemit.IsGuard() }

func (tr *Trace) ResetGuardEmitted() { tr.guardemit = 0 }

// Ins returns the record for ref.
// The pointer is valid until the next call that can grow the buffer.
func (tr *Trace) Ins(ref Ref) *Ins {
	if ref < tr.nk || ref >= tr.nins {
		Fatalf("ref %#x out of trace [%#x, %#x)", ref, tr.nk, tr.nins)
	}

	return tr.at(ref)
}

// Emit passes the instruction to the Folder.
func (tr *Trace) Emit(op Op, t Type, a, b Ref) (TRef, error) {
	ins := Ins{
		Op:  op,
		T:   t,
		Op1: a,
		Op2: b,
	}

	if tr.Folder == nil {
		return tr.EmitRaw(ins)
	}

	return tr.Folder.Fold(tr, ins)
}

// EmitRaw appends the instruction without any optimizations.
func (tr *Trace) EmitRaw(ins Ins) (TRef, error) {
	ref, err := tr.nextIns()
	if err != nil {
		return 0, err
	}

	x := tr.at(ref)

	*x = Ins{
		Op:   ins.Op,
		T:    ins.T,
		Op1:  ins.Op1,
		Op2:  ins.Op2,
		Prev: tr.chain[ins.Op],
	}

	tr.chain[ins.Op] = ref
	tr.guardemit |= ins.T

	return MakeTRef(ref, ins.T), nil
}

func (tr *Trace) Checkpoint() Checkpoint {
	return Checkpoint{
		Ins:   tr.nins,
		K:     tr.nk,
		Snaps: len(tr.Snaps),
	}
}

// Rollback removes everything emitted, interned or snapshotted after cp was taken.
// Chain heads are restored from the Prev links, newest first.
func (tr *Trace) Rollback(cp Checkpoint) {
	if cp.Ins > tr.nins || cp.Ins < RefFirst || cp.K < tr.nk || cp.K > RefTrue || cp.Snaps > len(tr.Snaps) {
		Fatalf("rollback to %v: trace is [%#x, %#x)", cp, tr.nk, tr.nins)
	}

	tlog.V("ir_rollback").Printw("rollback", "to", cp, "nins", tr.nins, "nk", tr.nk)

	tr.Snaps = tr.Snaps[:cp.Snaps]

	for tr.nins > cp.Ins {
		tr.nins--

		x := tr.at(tr.nins)
		tr.chain[x.Op] = x.Prev
	}

	for tr.nk < cp.K {
		x := tr.at(tr.nk)
		tr.chain[x.Op] = x.Prev

		*x = Ins{}
		tr.nk++
	}
}

func (tr *Trace) AddSnapshot(refs ...Ref) {
	tr.Snaps = append(tr.Snaps, Snapshot{Refs: refs})
}

func (cp Checkpoint) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	b = e.AppendMap(b, 3)
	b = e.AppendString(b, "ins")
	b = e.AppendInt(b, int(cp.Ins))
	b = e.AppendString(b, "k")
	b = e.AppendInt(b, int(cp.K))
	b = e.AppendString(b, "snaps")
	b = e.AppendInt(b, cp.Snaps)

	return b
}

func (tr *Trace) at(ref Ref) *Ins {
	return &tr.ins[ref-tr.botlim]
}

func (tr *Trace) nextIns() (Ref, error) {
	ref := tr.nins

	if ref >= RefBias+Ref(tr.cfg.MaxIR) || ref >= RefMax {
		return 0, ErrTraceOverflow
	}

	if ref >= tr.toplim {
		tr.growTop()
	}

	tr.nins = ref + 1

	return ref, nil
}

func (tr *Trace) nextK() (Ref, error) {
	ref := tr.nk

	if int(RefTrue-ref) >= tr.cfg.MaxConst || ref <= RefNone+1 {
		return 0, ErrConstOverflow
	}

	if ref <= tr.botlim {
		tr.growBot()
	}

	ref--
	tr.nk = ref

	return ref, nil
}

func (tr *Trace) growTop() {
	n := Ref(len(tr.ins))

	if n == 0 {
		n = Ref(tr.cfg.MinIRSize)

		tr.ins = make([]Ins, n)
		tr.botlim = RefBase - n/4
		tr.toplim = tr.botlim + n

		tlog.V("ir_grow").Printw("ir alloc", "size", n, "bot", tr.botlim, "top", tr.toplim)

		return
	}

	ins := make([]Ins, 2*n)
	copy(ins, tr.ins)

	tr.ins = ins
	tr.toplim = tr.botlim + 2*n

	tlog.V("ir_grow").Printw("ir grow top", "size", 2*n, "bot", tr.botlim, "top", tr.toplim)
}

func (tr *Trace) growBot() {
	n := Ref(len(tr.ins))

	if n == 0 || tr.nk != tr.botlim {
		Fatalf("grow bot: size %d nk %#x botlim %#x", n, tr.nk, tr.botlim)
	}

	live := tr.nins - tr.botlim

	if tr.nins+n/2 < tr.toplim {
		// More than half of the buffer is free on top: shift up by a quarter.
		ofs := n / 4

		if ofs >= tr.botlim {
			Fatalf("grow bot: shift %d below ref 0 (botlim %#x)", ofs, tr.botlim)
		}

		copy(tr.ins[ofs:], tr.ins[:live])

		tr.botlim -= ofs
		tr.toplim -= ofs

		tlog.V("ir_grow").Printw("ir shift up", "ofs", ofs, "bot", tr.botlim, "top", tr.toplim)

		return
	}

	ofs := n / 2
	if n >= 256 {
		ofs = 128
	}

	if ofs >= tr.botlim {
		Fatalf("grow bot: grow %d below ref 0 (botlim %#x)", ofs, tr.botlim)
	}

	ins := make([]Ins, 2*n)
	copy(ins[ofs:], tr.ins[:live])

	tr.ins = ins
	tr.botlim -= ofs
	tr.toplim = tr.botlim + 2*n

	tlog.V("ir_grow").Printw("ir grow bot", "ofs", ofs, "size", 2*n, "bot", tr.botlim, "top", tr.toplim)
}
