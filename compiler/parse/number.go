package parse

import (
	"context"

	"tlog.app/go/errors"

	"github.com/slowlang/tjit/compiler/ast"
)

type (
	Num struct{}

	Int struct{}

	Float struct{}

	// Lit is #N.
	Lit struct{}
)

func (p Num) Parse(ctx context.Context, b []byte, st int) (x ast.Node, i int, err error) {
	i = skipSign(b, st)

	hex := false

	if i+1 < len(b) && b[i] == '0' && (b[i+1] == 'x' || b[i+1] == 'X') {
		hex = true
		i += 2
	}

	dst := i
	dot := false
	exp := false

loop:
	for ; i < len(b); i++ {
		switch c := b[i]; {
		case c >= '0' && c <= '9':
		case hex && (c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'):
		case !hex && !dot && !exp && c == '.':
			dot = true
		case !hex && !exp && i != dst && (c == 'e' || c == 'E'):
			exp = true

			if i+1 < len(b) && (b[i+1] == '-' || b[i+1] == '+') {
				i++
			}
		default:
			break loop
		}
	}

	if i == dst || i == dst+1 && b[dst] == '.' {
		return nil, st, errors.New("Num expected")
	}

	base := ast.Base{
		Pos: st,
		End: i,
	}

	if dot || exp {
		return ast.Float{Base: base}, i, nil
	}

	return ast.Int{Base: base}, i, nil
}

func (p Int) Parse(ctx context.Context, b []byte, st int) (x ast.Node, i int, err error) {
	x, i, err = Num{}.Parse(ctx, b, st)
	if err != nil {
		return nil, st, errors.New("Int expected")
	}

	if _, ok := x.(ast.Int); !ok {
		return nil, i, errors.New("Int expected, got Float")
	}

	return
}

func (p Float) Parse(ctx context.Context, b []byte, st int) (x ast.Node, i int, err error) {
	x, i, err = Num{}.Parse(ctx, b, st)
	if err != nil {
		return nil, st, errors.New("Float expected")
	}

	if y, ok := x.(ast.Int); ok {
		x = ast.Float(y)
	}

	return
}

func (p Lit) Parse(ctx context.Context, b []byte, st int) (x ast.Node, i int, err error) {
	if st == len(b) || b[st] != '#' {
		return nil, st, errors.New("Lit expected")
	}

	x, i, err = Int{}.Parse(ctx, b, st+1)
	if err != nil {
		return nil, i, errors.Wrap(err, "lit")
	}

	return ast.Lit{
		Base: ast.Base{
			Pos: st,
			End: i,
		},
		Val: x.(ast.Int),
	}, i, nil
}

func skipSign(b []byte, i int) int {
	if i < len(b) && (b[i] == '-' || b[i] == '+') {
		return i + 1
	}

	return i
}
