package parse

import (
	"bytes"
	"context"

	"tlog.app/go/errors"

	"github.com/slowlang/tjit/compiler/ast"
)

type (
	// Program is a sequence of statements, one per line.
	// Empty lines and // comments are skipped.
	Program struct{}

	// Stmt is [name =] OP[.type][!] args...
	Stmt struct{}

	// Arg is a statement argument.
	Arg struct{}
)

var arg = AnyOf{Lit{}, Num{}, String{}, Ident{}}

func (p Program) Parse(ctx context.Context, b []byte, st int) (x ast.Node, i int, err error) {
	res := &ast.Program{}

	i = st

	for {
		i = SpaceAll.SkipComments(b, i)
		if i == len(b) {
			break
		}

		x, i, err = Stmt{}.Parse(ctx, b, i)
		if err != nil {
			return nil, i, errors.Wrap(err, "stmt %d", len(res.Stmts))
		}

		res.Stmts = append(res.Stmts, x.(*ast.Stmt))

		i = SpaceTab.SkipComments(b, i)

		if !EOL(b, i) {
			return nil, i, errors.New("end of line expected")
		}
	}

	res.Base = ast.Base{
		Pos: st,
		End: i,
	}

	return res, i, nil
}

func (p Stmt) Parse(ctx context.Context, b []byte, st int) (x ast.Node, i int, err error) {
	s := &ast.Stmt{}

	head := AllOf{
		Ident{},
		Spaced(Const("="), SpaceTab),
	}

	x, i, err = head.Parse(ctx, b, st)
	if err == nil {
		name := x.([]ast.Node)[0].(ast.Ident)
		s.Name = &name
	} else {
		i = st
	}

	i = SpaceTab.Skip(b, i)

	x, i, err = Ident{}.Parse(ctx, b, i)
	if err != nil {
		return nil, i, errors.Wrap(err, "op")
	}

	s.Op = x.(ast.Ident)

	if i < len(b) && b[i] == '.' {
		x, i, err = Ident{}.Parse(ctx, b, i+1)
		if err != nil {
			return nil, i, errors.Wrap(err, "type")
		}

		tp := x.(ast.Ident)
		s.Type = &tp
	}

	if i < len(b) && b[i] == '!' {
		s.Guard = true
		i++
	}

	args := Many{
		Of:  Arg{},
		Sep: SpaceTab,
	}

	x, i, err = args.Parse(ctx, b, i)
	if err != nil {
		return nil, i, errors.Wrap(err, "args")
	}

	s.Args = x.([]ast.Node)

	s.Base = ast.Base{
		Pos: st,
		End: i,
	}

	return s, i, nil
}

func (p Arg) Parse(ctx context.Context, b []byte, st int) (x ast.Node, i int, err error) {
	if EOL(b, st) || bytes.HasPrefix(b[st:], comment) {
		return nil, st, errors.New("Arg expected")
	}

	return arg.Parse(ctx, b, st)
}
