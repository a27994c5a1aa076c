package compiler

import (
	"context"
	"os"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/tjit/compiler/format"
	"github.com/slowlang/tjit/compiler/ir"
	"github.com/slowlang/tjit/compiler/opt"
	"github.com/slowlang/tjit/compiler/parse"
)

func CompileFile(ctx context.Context, cfg Config, name string) (obj []byte, err error) {
	text, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}

	tlog.SpanFromContext(ctx).Printw("read file", "size", len(text), "name", name)

	return Compile(ctx, cfg, name, text)
}

// Compile records the script into a trace, runs the optimizations
// and returns the trace dump.
func Compile(ctx context.Context, cfg Config, name string, text []byte) (obj []byte, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "compile", "name", name, "size", len(text))
	defer tr.Finish("err", &err)

	t, err := Build(ctx, cfg, name, text)
	if err != nil {
		return nil, err
	}

	removed := opt.DCE(ctx, t)

	obj = format.Trace(ctx, obj, t)

	if cfg.Stats {
		obj = format.Stats(obj, t)
	}

	tr.Printw("compiled", "nins", t.NIns()-ir.RefBase, "nk", ir.RefBias-t.NK(), "dce_removed", removed)

	if tr.If("dump_trace") {
		tr.Printw("trace", "dump", obj)
	}

	return obj, nil
}

// Build parses the script and records it into a new trace.
// Optimizations except DCE run as instructions are emitted.
func Build(ctx context.Context, cfg Config, name string, text []byte) (t *ir.Trace, err error) {
	p, err := parse.Parse(ctx, name, text)
	if err != nil {
		return nil, errors.Wrap(err, "parse")
	}

	t = ir.New(cfg.IR, nil)
	t.Folder = opt.NewFolder(t.Config())

	b := newBuilder(t, name, text)

	err = b.build(ctx, p)
	if err != nil {
		return nil, errors.Wrap(err, "build trace")
	}

	return t, nil
}
