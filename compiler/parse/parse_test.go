package parse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slowlang/tjit/compiler/ast"
)

func TestProgram(t *testing.T) {
	text := []byte(`// header comment

a = kint 42
b = knum -0.5e3 // trailing
x = SLOAD.int! #1 #0
	ASTORE x a
s = kgc "q\"uote"
rollback cp
snap
`)

	p, err := Parse(context.Background(), "test", text)
	require.NoError(t, err)
	require.Len(t, p.Stmts, 7)

	s := p.Stmts[0]
	require.NotNil(t, s.Name)
	assert.Equal(t, "a", s.Name.Text(text))
	assert.Equal(t, "kint", s.Op.Text(text))
	assert.Nil(t, s.Type)
	assert.False(t, s.Guard)
	require.Len(t, s.Args, 1)
	assert.IsType(t, ast.Int{}, s.Args[0])
	assert.Equal(t, "42", s.Args[0].(ast.Int).Text(text))

	s = p.Stmts[1]
	require.Len(t, s.Args, 1)
	assert.Equal(t, "-0.5e3", s.Args[0].(ast.Float).Text(text))

	s = p.Stmts[2]
	assert.Equal(t, "SLOAD", s.Op.Text(text))
	require.NotNil(t, s.Type)
	assert.Equal(t, "int", s.Type.Text(text))
	assert.True(t, s.Guard)
	require.Len(t, s.Args, 2)
	assert.Equal(t, "1", s.Args[0].(ast.Lit).Val.Text(text))
	assert.Equal(t, "#0", s.Args[1].(ast.Lit).Text(text))

	s = p.Stmts[3]
	assert.Nil(t, s.Name)
	assert.Equal(t, "ASTORE", s.Op.Text(text))
	assert.Equal(t, []ast.Node{
		ast.Ident{Base: ast.Base{Pos: 88, End: 89}},
		ast.Ident{Base: ast.Base{Pos: 90, End: 91}},
	}, s.Args)

	s = p.Stmts[4]
	assert.Equal(t, `"q\"uote"`, s.Args[0].(ast.String).Text(text))

	s = p.Stmts[5]
	assert.Nil(t, s.Name)
	assert.Equal(t, "rollback", s.Op.Text(text))

	s = p.Stmts[6]
	assert.Empty(t, s.Args)
}

func TestNum(t *testing.T) {
	ctx := context.Background()

	for _, tc := range []struct {
		in  string
		end int
		tp  ast.Node
	}{
		{"123", 3, ast.Int{}},
		{"-7 ", 2, ast.Int{}},
		{"0x1f", 4, ast.Int{}},
		{"1.5", 3, ast.Float{}},
		{"-0.0", 4, ast.Float{}},
		{"1e-3", 4, ast.Float{}},
		{".5", 2, ast.Float{}},
	} {
		x, i, err := Num{}.Parse(ctx, []byte(tc.in), 0)
		if !assert.NoError(t, err, tc.in) {
			continue
		}

		assert.Equal(t, tc.end, i, tc.in)
		assert.IsType(t, tc.tp, x, tc.in)
	}

	for _, in := range []string{"", "-", "x", ".", "-x"} {
		_, i, err := Num{}.Parse(ctx, []byte(in), 0)
		assert.Error(t, err, in)
		assert.Equal(t, 0, i, in)
	}
}

func TestErrors(t *testing.T) {
	ctx := context.Background()

	for _, tc := range []struct {
		text string
		line int
		col  int
	}{
		{"a = kint 1\nb = \n", 2, 5},
		{"a = kint 1\n  x = SLOAD. #1\n", 2, 13},
		{"s = kgc \"abc\n", 1, 13},
		{"a = kint 1 )\n", 1, 12},
		{"x = ADD #y\n", 1, 10},
	} {
		_, err := Parse(ctx, "file.tjs", []byte(tc.text))
		if !assert.Error(t, err, tc.text) {
			continue
		}

		var perr PosError
		if assert.ErrorAs(t, err, &perr, tc.text) {
			assert.Equal(t, "file.tjs", perr.Name)
			assert.Equal(t, tc.line, perr.Line, "%q: %v", tc.text, err)
			assert.Equal(t, tc.col, perr.Col, "%q: %v", tc.text, err)
		}
	}
}

func TestPosition(t *testing.T) {
	text := []byte("ab\ncd\n\nef")

	for _, tc := range []struct {
		pos, line, col int
	}{
		{0, 1, 1},
		{2, 1, 3},
		{3, 2, 1},
		{7, 4, 1},
		{9, 4, 3},
		{100, 4, 3},
	} {
		line, col := Position(text, tc.pos)
		assert.Equal(t, tc.line, line, "pos %d", tc.pos)
		assert.Equal(t, tc.col, col, "pos %d", tc.pos)
	}
}

func TestSkipComments(t *testing.T) {
	b := []byte("  // one\n\t// two\n  x // three")

	i := SpaceAll.SkipComments(b, 0)
	assert.Equal(t, byte('x'), b[i])

	i = SpaceTab.SkipComments(b, 0)
	assert.Equal(t, 8, i, "stops at the line break")
	assert.True(t, EOL(b, i))

	i = SpaceTab.SkipComments(b, 20)
	assert.Equal(t, len(b), i)
	assert.True(t, EOL(b, i))

	assert.False(t, EOL(b, 2))
	assert.True(t, SpaceTab.Has('\t'))
	assert.False(t, SpaceTab.Has('\n'))
	assert.False(t, SpaceAll.Has('x'))
}
