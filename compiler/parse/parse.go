package parse

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/tjit/compiler/ast"
)

type (
	State struct {
		b []byte // all files concatenated

		Grammar Parser

		files []file
	}

	file struct {
		base int
		size int
		name string
	}

	Parser interface {
		Parse(ctx context.Context, b []byte, st int) (x ast.Node, i int, err error)
	}

	// PosError is a syntax error at a text position.
	PosError struct {
		Name string
		Line int
		Col  int
		Err  error
	}

	PartialReadError struct {
		End int
	}

	stateCtxKey struct{}
)

func ParseFile(ctx context.Context, name string) (*ast.Program, []byte, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, nil, errors.Wrap(err, "read file")
	}

	p, err := Parse(ctx, name, data)

	return p, data, err
}

func Parse(ctx context.Context, name string, text []byte) (p *ast.Program, err error) {
	s := New()

	s.AddFile(name, text)

	x, err := s.Parse(ctx)
	if err != nil {
		return nil, err
	}

	return x.(*ast.Program), nil
}

func New() *State {
	return &State{
		Grammar: Program{},
	}
}

func (s *State) Parse(ctx context.Context) (x ast.Node, err error) {
	ctx = context.WithValue(ctx, stateCtxKey{}, s)

	x, i, err := s.Grammar.Parse(ctx, s.b, 0)
	if err != nil {
		return nil, s.PosError(i, errors.Wrap(err, "parse as grammar"))
	}

	i = SpaceAll.Skip(s.b, i)

	if i != len(s.b) {
		return x, s.PosError(i, PartialReadError{End: i})
	}

	if tlog.If("dump_ast") {
		tlog.Printw("ast", "stmts", len(x.(*ast.Program).Stmts))
	}

	return x, nil
}

func (s *State) AddFile(name string, text []byte) {
	f := file{
		name: name,
		base: len(s.b),
		size: len(text),
	}

	s.b = append(s.b, text...)

	s.files = append(s.files, f)
}

func (s *State) Text(pos, end int) []byte {
	return s.b[pos:end]
}

// Position converts a text offset to the file name, line and column, both 1-based.
func (s *State) Position(pos int) (name string, line, col int) {
	for _, f := range s.files {
		if pos < f.base || pos > f.base+f.size {
			continue
		}

		name = f.name
		pos -= f.base

		line, col = Position(s.b[f.base:f.base+f.size], pos)

		return
	}

	return "", 0, 0
}

func (s *State) PosError(pos int, err error) PosError {
	name, line, col := s.Position(pos)

	return PosError{
		Name: name,
		Line: line,
		Col:  col,
		Err:  err,
	}
}

// Position converts an offset in text to 1-based line and column.
func Position(text []byte, pos int) (line, col int) {
	if pos > len(text) {
		pos = len(text)
	}

	line = 1 + bytes.Count(text[:pos], []byte{'\n'})
	col = 1 + pos - (bytes.LastIndexByte(text[:pos], '\n') + 1)

	return line, col
}

func StateFromContext(ctx context.Context) *State {
	s, _ := ctx.Value(stateCtxKey{}).(*State)
	return s
}

func (e PosError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %v", e.Name, e.Line, e.Col, e.Err)
}

func (e PosError) Unwrap() error { return e.Err }

func (e PartialReadError) Error() string {
	return "partial read"
}
