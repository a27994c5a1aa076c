package ast

type (
	Node interface {
	}

	// Base is the node position in the source text: [Pos, End).
	Base struct {
		Pos int
		End int
	}

	Ident struct {
		Base `tlog:",embed"`
	}

	Int struct {
		Base `tlog:",embed"`
	}

	Float struct {
		Base `tlog:",embed"`
	}

	// Lit is a literal operand: #N.
	Lit struct {
		Base `tlog:",embed"`

		Val Int
	}

	// String is a double quoted string, quotes included.
	String struct {
		Base `tlog:",embed"`
	}

	// Stmt is one script line.
	//
	//	[Name =] Op[.Type][!] Args...
	Stmt struct {
		Base `tlog:",embed"`

		Name  *Ident
		Op    Ident
		Type  *Ident
		Guard bool

		Args []Node
	}

	Program struct {
		Base `tlog:",embed"`

		Stmts []*Stmt
	}
)

func (b Base) Text(src []byte) string {
	return string(src[b.Pos:b.End])
}
