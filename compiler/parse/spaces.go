package parse

import (
	"bytes"
	"context"

	"tlog.app/go/errors"

	"github.com/slowlang/tjit/compiler/ast"
)

type (
	// Spaces is a set of bytes below 64 to skip.
	Spaces uint64

	Spacer struct {
		Spaces Spaces
		Of     Parser
	}
)

var (
	SpaceTab = NewSpaces(' ', '\t')
	SpaceAll = NewSpaces(' ', '\t', '\r', '\n')

	comment = []byte("//")
)

func NewSpaces(skip ...byte) (ss Spaces) {
	for _, q := range skip {
		if q >= 64 {
			panic("too high char code")
		}

		ss |= 1 << q
	}

	return
}

func (s Spaces) Has(c byte) bool {
	return c < 64 && s&(1<<c) != 0
}

func (s Spaces) Skip(b []byte, st int) (i int) {
	i = st

	for i < len(b) && s.Has(b[i]) {
		i++
	}

	return
}

// SkipComments skips spaces and // comments.
// A comment ends before the line break, which is only skipped if s has it.
func (s Spaces) SkipComments(b []byte, st int) (i int) {
	i = s.Skip(b, st)

	for bytes.HasPrefix(b[i:], comment) {
		for i < len(b) && b[i] != '\n' {
			i++
		}

		i = s.Skip(b, i)
	}

	return i
}

// EOL is true at a line break or at the end of text.
func EOL(b []byte, i int) bool {
	return i == len(b) || b[i] == '\n' || b[i] == '\r'
}

func Spaced(p Parser, ss Spaces) Spacer {
	return Spacer{
		Spaces: ss,
		Of:     p,
	}
}

func (p Spacer) Parse(ctx context.Context, b []byte, st int) (x ast.Node, i int, err error) {
	vst := p.Spaces.Skip(b, st)

	x, i, err = p.Of.Parse(ctx, b, vst)
	if err != nil {
		if i == vst {
			i = st
		}

		err = errors.Wrap(err, "%T", p.Of)
	}

	return
}
