package table

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/karupanerura/formula-processor/internal/formula"
	"github.com/karupanerura/formula-processor/internal/types"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

const maxParallelRecalculations = 16

type formulaCell struct {
	Cell
	source string
	node   formula.Node
	err    error
	deps   []Cell
}

// Recalculate evaluates every formula cell and returns a grid holding the
// results in their place. Formulas run level by level in dependency order;
// the cells of one level are evaluated concurrently against the results of
// the previous levels. A cell on a reference cycle, or depending on one,
// gets #REF!. A raised evaluation error is stored as the matching error
// value, and a formula evaluating to a range gets #VALUE!.
func (g *Grid) Recalculate(ctx context.Context, registry *formula.Registry) (*Grid, error) {
	work := g.Snapshot()

	cells := lo.Map(g.Formulas(), func(c Cell, _ int) *formulaCell {
		source, _ := g.rows[c.Row][c.Column].(string)
		fc := &formulaCell{Cell: c, source: source}
		fc.node, fc.err = formula.Parse(source)
		return fc
	})
	byCell := lo.SliceToMap(cells, func(fc *formulaCell) (Cell, *formulaCell) {
		return fc.Cell, fc
	})

	// graph edges point from a dependency to the formulas reading it
	dependents := map[Cell][]*formulaCell{}
	inDegree := make(map[Cell]int, len(cells))
	for _, fc := range cells {
		if fc.err != nil {
			continue
		}
		fc.deps = lo.Uniq(lo.Filter(referencedCells(fc.node, work), func(c Cell, _ int) bool {
			_, isFormula := byCell[c]
			return isFormula
		}))
		inDegree[fc.Cell] = len(fc.deps)
		for _, dep := range fc.deps {
			dependents[dep] = append(dependents[dep], fc)
		}
	}

	level := lo.Filter(cells, func(fc *formulaCell, _ int) bool {
		return inDegree[fc.Cell] == 0
	})
	done := 0
	for depth := 0; len(level) != 0; depth++ {
		slog.DebugContext(ctx, "recalculate level", slog.Int("depth", depth), slog.Int("cells", len(level)))

		results, err := evaluateLevel(ctx, level, work, registry)
		if err != nil {
			return nil, err
		}

		var next []*formulaCell
		for i, fc := range level {
			work.Set(fc.Column, fc.Row, results[i])
			for _, dependent := range dependents[fc.Cell] {
				if inDegree[dependent.Cell]--; inDegree[dependent.Cell] == 0 {
					next = append(next, dependent)
				}
			}
		}
		done += len(level)
		level = next
	}

	if done != len(cells) {
		for _, fc := range cells {
			if inDegree[fc.Cell] > 0 {
				slog.WarnContext(ctx, "circular reference", slog.String("cell", fc.String()), slog.String("formula", fc.source))
				work.Set(fc.Column, fc.Row, types.ErrorValueRef)
			}
		}
	}
	return work, nil
}

func evaluateLevel(ctx context.Context, level []*formulaCell, work *Grid, registry *formula.Registry) ([]formula.Value, error) {
	results := make([]formula.Value, len(level))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(maxParallelRecalculations)
	for i, fc := range level {
		i, fc := i, fc
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = evaluateCell(ctx, fc, work, registry)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("recalculate: %w", err)
	}
	return results, nil
}

func evaluateCell(ctx context.Context, fc *formulaCell, work *Grid, registry *formula.Registry) formula.Value {
	err := fc.err
	if err == nil {
		e := formula.Evaluator{Table: work, Registry: registry}

		var v formula.Value
		if v, err = e.Evaluate(fc.node); err == nil {
			if _, isRange := v.([]formula.Value); isRange {
				return types.ErrorValueValue
			}
			return v
		}
	}

	errValue := types.ErrorValueFor(err)
	slog.DebugContext(ctx, "formula error",
		slog.String("cell", fc.String()),
		slog.String("formula", fc.source),
		slog.String("value", errValue.String()),
		slog.Any("error", err),
	)
	return errValue
}

// referencedCells expands the references of node into the cells they
// cover, clipped to the grid.
func referencedCells(node formula.Node, g *Grid) []Cell {
	var cells []Cell
	for _, ref := range formula.References(node) {
		switch ref := ref.(type) {
		case *formula.Reference:
			cells = append(cells, Cell{Column: ref.Column, Row: ref.Row})
		case *formula.Range:
			for row := ref.StartRow; row <= min(ref.EndRow, g.RowCount()-1); row++ {
				for column := ref.StartColumn; column <= min(ref.EndColumn, g.ColumnCount()-1); column++ {
					cells = append(cells, Cell{Column: column, Row: row})
				}
			}
		}
	}
	return cells
}
