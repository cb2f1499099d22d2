package formula_test

import "github.com/karupanerura/formula-processor/internal/formula"

// grid is a row-major table; nil entries are empty cells.
type grid [][]formula.Value

func (g grid) CellValue(column, row int) (formula.Value, bool) {
	if row < 0 || row >= len(g) || column < 0 || column >= len(g[row]) {
		return nil, false
	}
	v := g[row][column]
	return v, v != nil
}

func (g grid) RowCount() int {
	return len(g)
}

func (g grid) ColumnCount() int {
	n := 0
	for _, row := range g {
		if len(row) > n {
			n = len(row)
		}
	}
	return n
}

// A1=1 B1="apple"  C1=TRUE
// A2=2 B2=         C2="5"
// A3=3 B3="Banana" C3=
var defaultGrid = grid{
	{1.0, "apple", true},
	{2.0, nil, "5"},
	{3.0, "Banana", nil},
}
