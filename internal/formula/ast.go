package formula

// Value is the result of evaluating a Node: one of float64, string, bool,
// types.ErrorValue, []Value (ranges and array results) or nil for an empty
// cell.
type Value = any

type Operator string

const (
	AddOperator          Operator = "+"
	SubtractOperator     Operator = "-"
	MultiplyOperator     Operator = "*"
	DivideOperator       Operator = "/"
	PowerOperator        Operator = "^"
	EqualOperator        Operator = "="
	NotEqualOperator     Operator = "<>"
	LessOperator         Operator = "<"
	LessEqualOperator    Operator = "<="
	GreaterOperator      Operator = ">"
	GreaterEqualOperator Operator = ">="
)

func (o Operator) isComparison() bool {
	switch o {
	case EqualOperator, NotEqualOperator, LessOperator, LessEqualOperator, GreaterOperator, GreaterEqualOperator:
		return true
	default:
		return false
	}
}

// Node is a formula AST node. The set of implementations is closed.
type Node interface {
	node()
}

type Literal struct {
	Value Value
}

// Reference is a single cell. Column and Row are zero-based.
type Reference struct {
	Column int
	Row    int
}

// Range is an inclusive rectangle of cells with Start <= End on both axes.
type Range struct {
	StartColumn int
	StartRow    int
	EndColumn   int
	EndRow      int
}

type BinaryOp struct {
	Operator Operator
	Left     Node
	Right    Node
}

type UnaryOp struct {
	Operator Operator
	Operand  Node
}

type Call struct {
	Name string
	Args []Node
}

func (*Literal) node()   {}
func (*Reference) node() {}
func (*Range) node()     {}
func (*BinaryOp) node()  {}
func (*UnaryOp) node()   {}
func (*Call) node()      {}

func newRange(startColumn, startRow, endColumn, endRow int) *Range {
	if startColumn > endColumn {
		startColumn, endColumn = endColumn, startColumn
	}
	if startRow > endRow {
		startRow, endRow = endRow, startRow
	}
	return &Range{
		StartColumn: startColumn,
		StartRow:    startRow,
		EndColumn:   endColumn,
		EndRow:      endRow,
	}
}

// Walk calls fn for node and each of its descendants in pre-order.
func Walk(node Node, fn func(Node)) {
	if node == nil {
		return
	}
	fn(node)

	switch n := node.(type) {
	case *BinaryOp:
		Walk(n.Left, fn)
		Walk(n.Right, fn)
	case *UnaryOp:
		Walk(n.Operand, fn)
	case *Call:
		for _, arg := range n.Args {
			Walk(arg, fn)
		}
	}
}
