package ir

import "strings"

// NumCmp evaluates a numeric comparison opcode.
// The unordered variants are true if either operand is NaN.
func NumCmp(a, b float64, op Op) bool {
	switch op {
	case EQ:
		return a == b
	case NE:
		return a != b
	case LT:
		return a < b
	case GE:
		return a >= b
	case LE:
		return a <= b
	case GT:
		return a > b
	case ULT:
		return !(a >= b)
	case UGE:
		return !(a < b)
	case ULE:
		return !(a > b)
	case UGT:
		return !(a <= b)
	}

	Fatalf("numcmp: bad op %v", op)

	return false
}

// StrCmp evaluates an ordered string comparison opcode.
func StrCmp(a, b string, op Op) bool {
	r := strings.Compare(a, b)

	switch op {
	case LT:
		return r < 0
	case GE:
		return r >= 0
	case LE:
		return r <= 0
	case GT:
		return r > 0
	}

	Fatalf("strcmp: bad op %v", op)

	return false
}
