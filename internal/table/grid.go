// Package table holds spreadsheet-like data for formulas to run against:
// an in-memory grid, loaders for table documents and the recalculation
// engine that fills formula cells with their values.
package table

import (
	"fmt"

	"github.com/karupanerura/formula-processor/internal/formula"
	"github.com/samber/lo"
)

// Grid is a row-major table of cells. A nil cell is empty. Strings starting
// with "=" are formulas until the grid is recalculated.
//
// Grid is not safe for concurrent mutation; share a Snapshot instead.
type Grid struct {
	columns     []string
	rows        [][]formula.Value
	columnCount int
}

var _ formula.Table = (*Grid)(nil)

// NewGrid copies rows into a new grid.
func NewGrid(rows [][]formula.Value) *Grid {
	g := &Grid{}
	for row, values := range rows {
		for column, v := range values {
			g.Set(column, row, v)
		}
		g.ensureRow(row)
	}
	return g
}

// SetColumns names the columns, which may widen the grid.
func (g *Grid) SetColumns(names []string) {
	g.columns = append([]string(nil), names...)
	g.columnCount = max(g.columnCount, len(names))
}

// Columns returns the column names, defaulting to letters for unnamed ones.
func (g *Grid) Columns() []string {
	return lo.Times(g.columnCount, func(i int) string {
		if i < len(g.columns) && g.columns[i] != "" {
			return g.columns[i]
		}
		return formula.ColumnName(i)
	})
}

// Set stores v at the zero-based coordinates, growing the grid as needed.
func (g *Grid) Set(column, row int, v formula.Value) {
	if column < 0 || row < 0 {
		panic(fmt.Sprintf("negative cell position: column=%d, row=%d", column, row))
	}
	g.grow(column, row)
	g.rows[row][column] = v
}

func (g *Grid) ensureRow(row int) {
	for len(g.rows) <= row {
		g.rows = append(g.rows, nil)
	}
}

func (g *Grid) grow(column, row int) {
	g.ensureRow(row)
	if len(g.rows[row]) <= column {
		g.rows[row] = append(g.rows[row], make([]formula.Value, column+1-len(g.rows[row]))...)
	}
	g.columnCount = max(g.columnCount, column+1)
}

func (g *Grid) CellValue(column, row int) (formula.Value, bool) {
	if row < 0 || row >= len(g.rows) || column < 0 || column >= len(g.rows[row]) {
		return nil, false
	}
	v := g.rows[row][column]
	return v, v != nil
}

func (g *Grid) RowCount() int {
	return len(g.rows)
}

func (g *Grid) ColumnCount() int {
	return g.columnCount
}

// Rows returns a rectangular copy of the cells.
func (g *Grid) Rows() [][]formula.Value {
	return lo.Map(g.rows, func(values []formula.Value, _ int) []formula.Value {
		row := make([]formula.Value, g.columnCount)
		copy(row, values)
		return row
	})
}

// Snapshot returns an independent copy of the grid.
func (g *Grid) Snapshot() *Grid {
	return &Grid{
		columns:     append([]string(nil), g.columns...),
		rows:        g.Rows(),
		columnCount: g.columnCount,
	}
}

// Formulas lists the positions of formula cells in row-major order.
func (g *Grid) Formulas() []Cell {
	var cells []Cell
	for row, values := range g.rows {
		for column, v := range values {
			if s, ok := v.(string); ok && formula.IsFormula(s) {
				cells = append(cells, Cell{Column: column, Row: row})
			}
		}
	}
	return cells
}

// Cell is a zero-based cell position.
type Cell struct {
	Column int
	Row    int
}

func (c Cell) String() string {
	return formula.CellName(c.Column, c.Row)
}
