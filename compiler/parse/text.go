package parse

import (
	"bytes"
	"context"
	"unicode/utf8"

	"tlog.app/go/errors"

	"github.com/slowlang/tjit/compiler/ast"
)

type (
	Const []byte

	Ident struct{}

	String struct{}
)

func (p Const) Parse(ctx context.Context, b []byte, st int) (x ast.Node, i int, err error) {
	if bytes.HasPrefix(b[st:], p) {
		return Const(b[st : st+len(p)]), st + len(p), nil
	}

	return nil, st, errors.New("%q expected", []byte(p))
}

func (p Ident) Parse(ctx context.Context, b []byte, st int) (x ast.Node, i int, err error) {
	if st == len(b) {
		return nil, st, errors.New("Ident expected")
	}

	i = st

	c := b[i]

	switch {
	case c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_':
		i++
	default:
		return nil, st, errors.New("Ident expected")
	}

loop:
	for i < len(b) {
		c := b[i]

		switch {
		case c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_':
			i++
		case c >= utf8.RuneSelf:
			if r, w := utf8.DecodeRune(b[i:]); r == utf8.RuneError {
				return nil, i, errors.New("bad rune")
			} else {
				i += w
			}
		default:
			break loop
		}
	}

	return ast.Ident{
		Base: ast.Base{
			Pos: st,
			End: i,
		},
	}, i, nil
}

func (p String) Parse(ctx context.Context, b []byte, st int) (x ast.Node, i int, err error) {
	if st == len(b) || b[st] != '"' {
		return nil, st, errors.New("String expected")
	}

	for i = st + 1; i < len(b); i++ {
		switch b[i] {
		case '\\':
			i++
		case '\n':
			return nil, i, errors.New("newline in string")
		case '"':
			i++

			return ast.String{
				Base: ast.Base{
					Pos: st,
					End: i,
				},
			}, i, nil
		}
	}

	return nil, i, errors.New("unterminated string")
}
