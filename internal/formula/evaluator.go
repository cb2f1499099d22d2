package formula

import (
	"fmt"

	"github.com/karupanerura/formula-processor/internal/types"
)

// Table is the read contract the evaluator needs from a data table.
// Implementations are not required to be safe for concurrent mutation;
// callers must not mutate a table while formulas are evaluated against it.
type Table interface {
	CellValue(column, row int) (Value, bool)
	RowCount() int
	ColumnCount() int
}

// Evaluator walks an AST against a table. A zero Registry means
// DefaultRegistry, and a nil Table makes every reference a ReferenceError.
type Evaluator struct {
	Table    Table
	Registry *Registry
}

func (e *Evaluator) registry() *Registry {
	if e.Registry == nil {
		return DefaultRegistry
	}
	return e.Registry
}

// Evaluate parses source and evaluates it against table with DefaultRegistry.
func Evaluate(source string, table Table) (Value, error) {
	node, err := Parse(source)
	if err != nil {
		return nil, err
	}

	e := Evaluator{Table: table}
	return e.Evaluate(node)
}

func (e *Evaluator) Evaluate(node Node) (Value, error) {
	switch n := node.(type) {
	case *Literal:
		return n.Value, nil

	case *Reference:
		return e.cellValue(n.Column, n.Row)

	case *Range:
		return e.rangeValues(n)

	case *UnaryOp:
		return e.evaluateUnary(n)

	case *BinaryOp:
		return e.evaluateBinary(n)

	case *Call:
		f, ok := e.registry().Lookup(n.Name)
		if !ok {
			return nil, types.NewError(types.UnknownFunctionErrorTag, "unknown function: %s", n.Name)
		}

		ret, err := f.Call(e, n.Args)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", n.Name, err)
		}
		if x, ok := ret.(float64); ok {
			return numberResult(x), nil
		}
		return ret, nil

	default:
		panic(fmt.Sprintf("unknown node type: %T", node))
	}
}

func (e *Evaluator) checkBounds(column, row int) error {
	if e.Table == nil {
		return types.NewError(types.ReferenceErrorTag, "%s: no table to resolve references against", CellName(max(column, 0), max(row, 0)))
	}
	if column < 0 || row < 0 || column >= e.Table.ColumnCount() || row >= e.Table.RowCount() {
		return types.NewError(
			types.ReferenceErrorTag,
			"%s is out of table bounds (%d columns x %d rows)",
			CellName(max(column, 0), max(row, 0)), e.Table.ColumnCount(), e.Table.RowCount(),
		)
	}
	return nil
}

func (e *Evaluator) cellValue(column, row int) (Value, error) {
	if err := e.checkBounds(column, row); err != nil {
		return nil, err
	}

	v, ok := e.Table.CellValue(column, row)
	if !ok {
		return nil, nil
	}
	return v, nil
}

func (e *Evaluator) rangeValues(r *Range) (Value, error) {
	if err := e.checkBounds(r.StartColumn, r.StartRow); err != nil {
		return nil, err
	}
	if err := e.checkBounds(r.EndColumn, r.EndRow); err != nil {
		return nil, err
	}

	values := make([]Value, 0, (r.EndColumn-r.StartColumn+1)*(r.EndRow-r.StartRow+1))
	for row := r.StartRow; row <= r.EndRow; row++ {
		for column := r.StartColumn; column <= r.EndColumn; column++ {
			v, _ := e.Table.CellValue(column, row)
			values = append(values, v)
		}
	}
	return values, nil
}

// Flatten evaluates nodes and splices range results into a single list.
func (e *Evaluator) Flatten(nodes []Node) ([]Value, error) {
	var values []Value
	for i, node := range nodes {
		v, err := e.Evaluate(node)
		if err != nil {
			return nil, fmt.Errorf("args[%d]: %w", i, err)
		}

		if vs, ok := v.([]Value); ok {
			values = append(values, vs...)
		} else {
			values = append(values, v)
		}
	}
	return values, nil
}

// Numbers collects the numeric arguments of an aggregate function. Values
// inside ranges that are not numbers are skipped; direct arguments are
// coerced and fail with a TypeError when they cannot be. The first error
// value met is returned instead of the numbers.
func (e *Evaluator) Numbers(nodes []Node) ([]float64, types.ErrorValue, error) {
	var numbers []float64
	for i, node := range nodes {
		v, err := e.Evaluate(node)
		if err != nil {
			return nil, "", fmt.Errorf("args[%d]: %w", i, err)
		}

		switch vv := v.(type) {
		case []Value:
			for _, item := range vv {
				switch item := item.(type) {
				case types.ErrorValue:
					return nil, item, nil
				case float64:
					numbers = append(numbers, item)
				}
			}

		case types.ErrorValue:
			return nil, vv, nil

		case nil:
			// empty cell

		default:
			n, err := ToNumber(v)
			if err != nil {
				return nil, "", fmt.Errorf("args[%d]: %w", i, err)
			}
			numbers = append(numbers, n)
		}
	}
	return numbers, "", nil
}
