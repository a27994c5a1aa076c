package compiler

import (
	"context"
	"strconv"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/tjit/compiler/ast"
	"github.com/slowlang/tjit/compiler/ir"
	"github.com/slowlang/tjit/compiler/parse"
)

type (
	// Object is a script GC object.
	// Objects of the same type and text are the same object.
	Object struct {
		T ir.Type
		S string
	}

	objKey struct {
		t ir.Type
		s string
	}

	builder struct {
		tr *ir.Trace

		name string
		text []byte

		vars map[string]ir.TRef
		cps  map[string]ir.Checkpoint
		objs map[objKey]*Object
	}

	stmtFunc func(b *builder, s *ast.Stmt) (ir.TRef, error)
)

var stmts map[string]stmtFunc

func init() {
	stmts = map[string]stmtFunc{
		"kint":     (*builder).kint,
		"knum":     (*builder).knum,
		"knumint":  (*builder).knum,
		"knumbits": (*builder).knumbits,
		"kgc":      (*builder).kgc,
		"kptr":     (*builder).kptr,
		"knull":    (*builder).knull,
		"kslot":    (*builder).kslot,
		"kpri":     (*builder).kpri,
		"ktobit":   (*builder).kspecial,
		"kabs":     (*builder).kspecial,
		"kneg":     (*builder).kspecial,

		"tonum": (*builder).conv,
		"tostr": (*builder).conv,
		"tobit": (*builder).conv,
		"toint": (*builder).conv,

		"checkpoint": (*builder).checkpoint,
		"rollback":   (*builder).rollback,
		"snap":       (*builder).snap,
		"reset":      (*builder).reset,
	}
}

func (o *Object) String() string { return o.S }

func newBuilder(tr *ir.Trace, name string, text []byte) *builder {
	return &builder{
		tr:   tr,
		name: name,
		text: text,
		vars: map[string]ir.TRef{},
		cps:  map[string]ir.Checkpoint{},
		objs: map[objKey]*Object{},
	}
}

// build records the program statements into the trace.
func (b *builder) build(ctx context.Context, p *ast.Program) (err error) {
	tr := tlog.SpanFromContext(ctx)

	for _, s := range p.Stmts {
		r, err := b.stmt(s)
		if err != nil {
			return b.posError(s.Pos, err)
		}

		if s.Name != nil && r != 0 {
			b.vars[b.str(s.Name)] = r
		}

		if tr.If("dump_build") {
			tr.Printw("stmt", "op", b.str(&s.Op), "res", r.Ref(), "type", r.Type(), "nins", b.tr.NIns(), "nk", b.tr.NK())
		}
	}

	return nil
}

func (b *builder) stmt(s *ast.Stmt) (ir.TRef, error) {
	name := b.str(&s.Op)

	if f, ok := stmts[name]; ok {
		if s.Type != nil || s.Guard {
			return 0, errors.New("%v: type and guard are not allowed", name)
		}

		return f(b, s)
	}

	op, ok := ir.OpByName(name)
	if !ok {
		return 0, errors.New("unknown op: %v", name)
	}

	return b.emit(op, s)
}

// emit is the generic OP[.type][!] operands... statement.
func (b *builder) emit(op ir.Op, s *ast.Stmt) (_ ir.TRef, err error) {
	if op.IsK() {
		return 0, errors.New("%v: constants are interned by k* statements", op)
	}

	m := op.Mode()
	modes := []ir.OperandMode{m.Op1(), m.Op2()}

	var opnd [2]ir.Ref
	var t ir.Type
	tset := false

	args := s.Args

	for i, om := range modes {
		if om == ir.ModeNone {
			continue
		}

		if len(args) == 0 {
			return 0, errors.New("%v: operand %d expected", op, i+1)
		}

		a := args[0]
		args = args[1:]

		switch om {
		case ir.ModeRef:
			x, err := b.ref(a)
			if err != nil {
				return 0, errors.Wrap(err, "operand %d", i+1)
			}

			opnd[i] = x.Ref()

			if !tset {
				t, tset = x.Type(), true
			}
		case ir.ModeLit:
			v, err := b.intArg(a, 32)
			if err != nil {
				return 0, errors.Wrap(err, "operand %d", i+1)
			}

			if v < 0 || v > int64(ir.RefMax) {
				return 0, errors.New("operand %d: literal %d out of range", i+1, v)
			}

			opnd[i] = ir.Ref(v)
		default:
			return 0, errors.New("%v: operand %d: unsupported mode", op, i+1)
		}
	}

	if len(args) != 0 {
		return 0, errors.New("%v: too many operands", op)
	}

	if s.Type != nil {
		t, tset = ir.TypeByName(b.str(s.Type))
		if !tset {
			return 0, errors.New("unknown type: %v", b.str(s.Type))
		}
	}

	if !tset {
		return 0, errors.New("%v: result type expected", op)
	}

	t = t.Tag()

	if s.Guard {
		t = t.Guarded()
	}

	return b.tr.Emit(op, t, opnd[0], opnd[1])
}

func (b *builder) kint(s *ast.Stmt) (ir.TRef, error) {
	if err := b.nargs(s, 1); err != nil {
		return 0, err
	}

	v, err := b.intArg(s.Args[0], 32)
	if err != nil {
		return 0, err
	}

	return b.tr.KInt(int32(v))
}

func (b *builder) knum(s *ast.Stmt) (ir.TRef, error) {
	if err := b.nargs(s, 1); err != nil {
		return 0, err
	}

	v, err := b.floatArg(s.Args[0])
	if err != nil {
		return 0, err
	}

	if b.str(&s.Op) == "knumint" {
		return b.tr.KNumInt(v)
	}

	return b.tr.KNum(v)
}

func (b *builder) knumbits(s *ast.Stmt) (ir.TRef, error) {
	if err := b.nargs(s, 1); err != nil {
		return 0, err
	}

	a, ok := s.Args[0].(ast.Int)
	if !ok {
		return 0, errors.New("integer expected, got %T", s.Args[0])
	}

	v, err := strconv.ParseUint(a.Text(b.text), 0, 64)
	if err != nil {
		return 0, errors.Wrap(err, "bits")
	}

	return b.tr.KNumBits(v)
}

func (b *builder) kspecial(s *ast.Stmt) (ir.TRef, error) {
	if err := b.nargs(s, 0); err != nil {
		return 0, err
	}

	switch b.str(&s.Op) {
	case "ktobit":
		return b.tr.KNumTobit()
	case "kabs":
		return b.tr.KNumAbs()
	default:
		return b.tr.KNumNeg()
	}
}

// kgc "text" [type]
func (b *builder) kgc(s *ast.Stmt) (ir.TRef, error) {
	if len(s.Args) != 1 && len(s.Args) != 2 {
		return 0, errors.New("kgc: string and optional type expected")
	}

	a, ok := s.Args[0].(ast.String)
	if !ok {
		return 0, errors.New("string expected, got %T", s.Args[0])
	}

	text, err := strconv.Unquote(a.Text(b.text))
	if err != nil {
		return 0, errors.Wrap(err, "unquote")
	}

	t := ir.TStr

	if len(s.Args) == 2 {
		t, err = b.typ(s.Args[1])
		if err != nil {
			return 0, err
		}

		if !t.IsGCV() {
			return 0, errors.New("kgc: %v is not a gc type", t)
		}
	}

	return b.tr.KGC(b.object(t, text), t)
}

func (b *builder) kptr(s *ast.Stmt) (ir.TRef, error) {
	if err := b.nargs(s, 1); err != nil {
		return 0, err
	}

	v, err := b.intArg(s.Args[0], 64)
	if err != nil {
		return 0, err
	}

	return b.tr.KPtr(uintptr(v))
}

func (b *builder) knull(s *ast.Stmt) (ir.TRef, error) {
	if err := b.nargs(s, 1); err != nil {
		return 0, err
	}

	t, err := b.typ(s.Args[0])
	if err != nil {
		return 0, err
	}

	return b.tr.KNull(t)
}

// kslot key slot
func (b *builder) kslot(s *ast.Stmt) (ir.TRef, error) {
	if err := b.nargs(s, 2); err != nil {
		return 0, err
	}

	key, err := b.ref(s.Args[0])
	if err != nil {
		return 0, errors.Wrap(err, "key")
	}

	if !key.IsK() {
		return 0, errors.New("kslot: key is not a constant")
	}

	slot, err := b.intArg(s.Args[1], 17)
	if err != nil {
		return 0, errors.Wrap(err, "slot")
	}

	if slot < 0 || slot > int64(ir.RefMax) {
		return 0, errors.New("kslot: slot %d out of range", slot)
	}

	return b.tr.KSlot(key, ir.Ref(slot))
}

func (b *builder) kpri(s *ast.Stmt) (ir.TRef, error) {
	if err := b.nargs(s, 1); err != nil {
		return 0, err
	}

	t, err := b.typ(s.Args[0])
	if err != nil {
		return 0, err
	}

	if !t.IsPri() {
		return 0, errors.New("kpri: %v is not primitive", t)
	}

	return b.tr.KPri(t), nil
}

func (b *builder) conv(s *ast.Stmt) (ir.TRef, error) {
	if err := b.nargs(s, 1); err != nil {
		return 0, err
	}

	x, err := b.ref(s.Args[0])
	if err != nil {
		return 0, err
	}

	switch b.str(&s.Op) {
	case "tonum":
		return b.tr.ToNum(x)
	case "tostr":
		return b.tr.ToStr(x)
	case "tobit":
		return b.tr.ToBit(x)
	default:
		return b.tr.ToInt(x)
	}
}

func (b *builder) checkpoint(s *ast.Stmt) (ir.TRef, error) {
	if err := b.nargs(s, 0); err != nil {
		return 0, err
	}

	if s.Name == nil {
		return 0, errors.New("checkpoint must be named")
	}

	b.cps[b.str(s.Name)] = b.tr.Checkpoint()

	return 0, nil
}

func (b *builder) rollback(s *ast.Stmt) (ir.TRef, error) {
	if err := b.nargs(s, 1); err != nil {
		return 0, err
	}

	a, ok := s.Args[0].(ast.Ident)
	if !ok {
		return 0, errors.New("checkpoint name expected, got %T", s.Args[0])
	}

	cp, ok := b.cps[a.Text(b.text)]
	if !ok {
		return 0, errors.New("undefined checkpoint: %v", a.Text(b.text))
	}

	if cp.Ins > b.tr.NIns() || cp.K < b.tr.NK() || cp.Snaps > len(b.tr.Snaps) {
		return 0, errors.New("checkpoint %v is gone", a.Text(b.text))
	}

	b.tr.Rollback(cp)

	for name, r := range b.vars {
		ref := r.Ref()

		if ref.IsK() && ref < cp.K || !ref.IsK() && ref >= cp.Ins {
			delete(b.vars, name)
		}
	}

	return 0, nil
}

func (b *builder) snap(s *ast.Stmt) (ir.TRef, error) {
	refs := make([]ir.Ref, len(s.Args))

	for i, a := range s.Args {
		x, err := b.ref(a)
		if err != nil {
			return 0, errors.Wrap(err, "snap %d", i)
		}

		refs[i] = x.Ref()
	}

	b.tr.AddSnapshot(refs...)

	return 0, nil
}

func (b *builder) reset(s *ast.Stmt) (ir.TRef, error) {
	if err := b.nargs(s, 0); err != nil {
		return 0, err
	}

	b.tr.Setup()

	clear(b.vars)
	clear(b.cps)

	return 0, nil
}

func (b *builder) ref(a ast.Node) (ir.TRef, error) {
	id, ok := a.(ast.Ident)
	if !ok {
		return 0, errors.New("name expected, got %T", a)
	}

	r, ok := b.vars[id.Text(b.text)]
	if !ok {
		return 0, errors.New("undefined: %v", id.Text(b.text))
	}

	return r, nil
}

func (b *builder) intArg(a ast.Node, bits int) (int64, error) {
	if l, ok := a.(ast.Lit); ok {
		a = l.Val
	}

	x, ok := a.(ast.Int)
	if !ok {
		return 0, errors.New("integer expected, got %T", a)
	}

	v, err := strconv.ParseInt(x.Text(b.text), 0, bits)
	if err != nil {
		return 0, errors.Wrap(err, "parse int")
	}

	return v, nil
}

func (b *builder) floatArg(a ast.Node) (float64, error) {
	switch a := a.(type) {
	case ast.Int:
		v, err := b.intArg(a, 64)
		return float64(v), err
	case ast.Float:
		v, err := strconv.ParseFloat(a.Text(b.text), 64)
		if err != nil {
			return 0, errors.Wrap(err, "parse float")
		}

		return v, nil
	default:
		return 0, errors.New("number expected, got %T", a)
	}
}

func (b *builder) typ(a ast.Node) (ir.Type, error) {
	id, ok := a.(ast.Ident)
	if !ok {
		return 0, errors.New("type expected, got %T", a)
	}

	t, ok := ir.TypeByName(id.Text(b.text))
	if !ok {
		return 0, errors.New("unknown type: %v", id.Text(b.text))
	}

	return t, nil
}

func (b *builder) object(t ir.Type, s string) *Object {
	k := objKey{t: t, s: s}

	o, ok := b.objs[k]
	if !ok {
		o = &Object{T: t, S: s}
		b.objs[k] = o
	}

	return o
}

func (b *builder) nargs(s *ast.Stmt, n int) error {
	if len(s.Args) != n {
		return errors.New("%v: %d args expected, got %d", b.str(&s.Op), n, len(s.Args))
	}

	return nil
}

func (b *builder) str(id *ast.Ident) string {
	return id.Text(b.text)
}

func (b *builder) posError(pos int, err error) error {
	line, col := parse.Position(b.text, pos)

	return parse.PosError{
		Name: b.name,
		Line: line,
		Col:  col,
		Err:  err,
	}
}
