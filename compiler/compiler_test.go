package compiler

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/tjit/compiler/ir"
	"github.com/slowlang/tjit/compiler/parse"
)

func TestGolden(t *testing.T) {
	files, err := filepath.Glob("testdata/*.tjs")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	for _, f := range files {
		name := strings.TrimSuffix(filepath.Base(f), ".tjs")

		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()

			if y := strings.TrimSuffix(f, ".tjs") + ".yaml"; exists(y) {
				c, err := LoadConfig(y)
				require.NoError(t, err)

				cfg = c
			}

			obj, err := CompileFile(context.Background(), cfg, f)
			require.NoError(t, err)

			g.Assert(t, name, obj)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig("testdata/rollback.yaml")
	require.NoError(t, err)

	exp := DefaultConfig()
	exp.Stats = true
	exp.IR.MaxConst = 100

	assert.Equal(t, exp, cfg)

	_, err = LoadConfig("testdata/nonexistent.yaml")
	assert.Error(t, err)
}

func TestNoDCE(t *testing.T) {
	cfg := DefaultConfig()
	cfg.IR.DCE = false

	tr, err := Build(context.Background(), cfg, "nodce", []byte("x = SLOAD.int #1 #0\ny = NEG x x\n"))
	require.NoError(t, err)

	obj, err := Compile(context.Background(), cfg, "nodce", []byte("x = SLOAD.int #1 #0\ny = NEG x x\n"))
	require.NoError(t, err)

	assert.Equal(t, ir.RefFirst+2, tr.NIns())
	assert.Contains(t, string(obj), "0002   int NEG    0001 0001\n")
}

func TestCompileErrors(t *testing.T) {
	for _, tc := range []struct {
		text string
		line int
		is   error
		msg  string
	}{
		{text: "x = ADD y y\n", line: 1, msg: "undefined: y"},
		{text: "a = kint 1\nb = kint 2\nc = GT.int! a b\n", line: 3, is: ir.ErrGuardFail},
		{text: "t = knull tab\nx = tonum t\n", line: 2, is: ir.ErrBadType},
		{text: "\n\nx = FOO #1\n", line: 3, msg: "unknown op"},
		{text: "x = SLOAD #1 #0\n", line: 1, msg: "result type expected"},
		{text: "k = KINT #1\n", line: 1, msg: "interned by k*"},
		{text: "rollback nope\n", line: 1, msg: "undefined checkpoint"},
		{text: "checkpoint\n", line: 1, msg: "must be named"},
		{text: "a = kint 1.5\n", line: 1, msg: "integer expected"},
		{text: "x = SLOAD.int #1 #0 #2\n", line: 1, msg: "too many operands"},
		{text: "x = SLOAD.int #70000 #0\n", line: 1, msg: "out of range"},
		{text: "a = kint 1\n  cp = checkpoint\nreset\nrollback cp\n", line: 4, msg: "undefined checkpoint"},
		{text: "a = kint 1 +\n", line: 1},
	} {
		_, err := Compile(context.Background(), DefaultConfig(), "err.tjs", []byte(tc.text))
		if !assert.Error(t, err, tc.text) {
			continue
		}

		var perr parse.PosError
		if assert.ErrorAs(t, err, &perr, tc.text) {
			assert.Equal(t, "err.tjs", perr.Name)
			assert.Equal(t, tc.line, perr.Line, "%q: %v", tc.text, err)
		}

		if tc.is != nil {
			assert.ErrorIs(t, err, tc.is, tc.text)
		}

		if tc.msg != "" {
			assert.ErrorContains(t, err, tc.msg, tc.text)
		}
	}
}

func TestRollbackVars(t *testing.T) {
	text := `
x = SLOAD.int! #1 #0
cp = checkpoint
k = kint 7
y = ADD x k
rollback cp
z = ADD x y
`

	_, err := Compile(context.Background(), DefaultConfig(), "vars.tjs", []byte(text))
	assert.ErrorContains(t, err, "undefined: y")

	var perr parse.PosError
	if assert.ErrorAs(t, err, &perr) {
		assert.Equal(t, 7, perr.Line)
	}
}

func TestRollbackSnapshots(t *testing.T) {
	obj, err := Compile(context.Background(), DefaultConfig(), "snaps", []byte(`
x = SLOAD.int! #1 #0
cp = checkpoint
y = ADD x x
snap y
rollback cp
`))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(obj), "---- snapshots\n"), "%s", obj)

	obj, err = Compile(context.Background(), DefaultConfig(), "snaps", []byte(`
x = SLOAD.int! #1 #0
cp = checkpoint
y = ADD x x
snap y
rollback cp
z = SUB x x
w = MUL x x
snap w
`))
	require.NoError(t, err)

	assert.Contains(t, string(obj), `---- IR
0000   p32 BASE   #0 #0
0001 > int SLOAD  #1 #0
0002   nil NOP
0003   int MUL    0001 0001
---- snapshots
#0 0003
`)
}

func TestObjectsInterned(t *testing.T) {
	tr, err := Build(context.Background(), DefaultConfig(), "obj", []byte(`
a = kgc "x"
b = kgc "x"
c = kgc "x" tab
snap
`))
	require.NoError(t, err)

	assert.Equal(t, ir.RefTrue-2, tr.NK(), "a and b are the same object")
}

func exists(name string) bool {
	_, err := os.Stat(name)
	return err == nil
}
