package formula

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// MaxColumns is the number of columns addressable in A1 notation (A to ZZZ).
const MaxColumns = 26 + 26*26 + 26*26*26

var (
	a1ReferenceRegexp   = regexp.MustCompile(`^\$?([A-Za-z]{1,3})\$?([1-9][0-9]*)$`)
	r1c1ReferenceRegexp = regexp.MustCompile(`^[Rr]([1-9][0-9]*)[Cc]([1-9][0-9]*)$`)
)

// parseReference accepts "A1", "$A$1" and "R1C1" forms and returns zero-based
// coordinates. R1C1 columns beyond MaxColumns are rejected so that every
// reference can be rendered back in A1 notation.
func parseReference(text string) (column, row int, ok bool) {
	if m := a1ReferenceRegexp.FindStringSubmatch(text); m != nil {
		column, err := ColumnIndex(m[1])
		if err != nil {
			return 0, 0, false
		}
		row, err := strconv.Atoi(m[2])
		if err != nil {
			return 0, 0, false
		}
		return column, row - 1, true
	}

	if m := r1c1ReferenceRegexp.FindStringSubmatch(text); m != nil {
		row, err := strconv.Atoi(m[1])
		if err != nil {
			return 0, 0, false
		}
		column, err := strconv.Atoi(m[2])
		if err != nil || column > MaxColumns {
			return 0, 0, false
		}
		return column - 1, row - 1, true
	}

	return 0, 0, false
}

// ColumnName converts a zero-based column index into letters: 0 => "A",
// 25 => "Z", 26 => "AA".
func ColumnName(index int) string {
	if index < 0 {
		panic(fmt.Sprintf("negative column index: %d", index))
	}

	var name string
	for n := index + 1; n > 0; n = (n - 1) / 26 {
		name = string(rune('A'+(n-1)%26)) + name
	}
	return name
}

// ColumnIndex is the inverse of ColumnName and is case-insensitive.
func ColumnIndex(name string) (int, error) {
	if name == "" {
		return 0, fmt.Errorf("empty column name")
	}

	index := 0
	for _, c := range strings.ToUpper(name) {
		if c < 'A' || 'Z' < c {
			return 0, fmt.Errorf("invalid column name %q", name)
		}
		index = index*26 + int(c-'A') + 1
	}
	return index - 1, nil
}

// CellName renders zero-based coordinates in A1 notation.
func CellName(column, row int) string {
	return ColumnName(column) + strconv.Itoa(row+1)
}

// TranslateReferences returns a copy of node with every reference shifted by
// the given deltas, as happens when a formula is copied to another cell.
// Coordinates are clamped to zero and columns to the last A1 column.
func TranslateReferences(node Node, columnDelta, rowDelta int) Node {
	shift := func(v, delta, limit int) int {
		return min(max(v+delta, 0), limit)
	}

	switch n := node.(type) {
	case *Literal:
		return &Literal{Value: n.Value}
	case *Reference:
		return &Reference{
			Column: shift(n.Column, columnDelta, MaxColumns-1),
			Row:    shift(n.Row, rowDelta, math.MaxInt32),
		}
	case *Range:
		return newRange(
			shift(n.StartColumn, columnDelta, MaxColumns-1),
			shift(n.StartRow, rowDelta, math.MaxInt32),
			shift(n.EndColumn, columnDelta, MaxColumns-1),
			shift(n.EndRow, rowDelta, math.MaxInt32),
		)
	case *BinaryOp:
		return &BinaryOp{
			Operator: n.Operator,
			Left:     TranslateReferences(n.Left, columnDelta, rowDelta),
			Right:    TranslateReferences(n.Right, columnDelta, rowDelta),
		}
	case *UnaryOp:
		return &UnaryOp{
			Operator: n.Operator,
			Operand:  TranslateReferences(n.Operand, columnDelta, rowDelta),
		}
	case *Call:
		return &Call{
			Name: n.Name,
			Args: lo.Map(n.Args, func(arg Node, _ int) Node {
				return TranslateReferences(arg, columnDelta, rowDelta)
			}),
		}
	default:
		panic(fmt.Sprintf("unknown node type: %T", node))
	}
}

// References lists every *Reference and *Range in node, in pre-order.
func References(node Node) []Node {
	var refs []Node
	Walk(node, func(n Node) {
		switch n.(type) {
		case *Reference, *Range:
			refs = append(refs, n)
		}
	})
	return refs
}
