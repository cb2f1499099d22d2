package functions

import (
	"github.com/karupanerura/formula-processor/internal/formula"
	"github.com/karupanerura/formula-processor/internal/types"
)

var Logic = aggregateFunctions(
	// IF evaluates only the branch selected by the test.
	formula.NewRawFunction("IF", 2, 3, func(ev *formula.Evaluator, args []formula.Node) (formula.Value, error) {
		test, err := ev.Evaluate(args[0])
		if err != nil {
			return nil, err
		}
		if errValue, ok := formula.ErrorValueOf(test); ok {
			return errValue, nil
		}

		if formula.Truthy(test) {
			return ev.Evaluate(args[1])
		}
		if len(args) == 3 {
			return ev.Evaluate(args[2])
		}
		return false, nil
	}),
	formula.NewRawFunction("AND", 1, -1, func(ev *formula.Evaluator, args []formula.Node) (formula.Value, error) {
		conditions, errValue, err := logicalValues(ev, args)
		if err != nil {
			return nil, err
		}
		if errValue != "" {
			return errValue, nil
		}
		for _, c := range conditions {
			if !c {
				return false, nil
			}
		}
		return true, nil
	}),
	formula.NewRawFunction("OR", 1, -1, func(ev *formula.Evaluator, args []formula.Node) (formula.Value, error) {
		conditions, errValue, err := logicalValues(ev, args)
		if err != nil {
			return nil, err
		}
		if errValue != "" {
			return errValue, nil
		}
		for _, c := range conditions {
			if c {
				return true, nil
			}
		}
		return false, nil
	}),
	formula.NewRawFunction("XOR", 1, -1, func(ev *formula.Evaluator, args []formula.Node) (formula.Value, error) {
		conditions, errValue, err := logicalValues(ev, args)
		if err != nil {
			return nil, err
		}
		if errValue != "" {
			return errValue, nil
		}
		odd := false
		for _, c := range conditions {
			if c {
				odd = !odd
			}
		}
		return odd, nil
	}),
	formula.MustNewFunction("NOT", []formula.Argument{
		{Name: "logical"},
	}, func(v bool) (bool, error) {
		return !v, nil
	}),
	formula.MustNewFunction("ISNA", []formula.Argument{
		{Name: "value"},
	}, func(v formula.Value) (bool, error) {
		errValue, ok := v.(types.ErrorValue)
		return ok && errValue == types.ErrorValueNA, nil
	}),
)

// logicalValues evaluates the arguments of AND, OR and XOR. Empty cells and
// text are ignored; at least one logical value must remain.
func logicalValues(ev *formula.Evaluator, args []formula.Node) ([]bool, types.ErrorValue, error) {
	values, err := ev.Flatten(args)
	if err != nil {
		return nil, "", err
	}

	var conditions []bool
	for _, v := range values {
		switch v := v.(type) {
		case types.ErrorValue:
			return nil, v, nil
		case nil, string:
			continue
		default:
			conditions = append(conditions, formula.Truthy(v))
		}
	}
	if len(conditions) == 0 {
		return nil, types.ErrorValueValue, nil
	}
	return conditions, "", nil
}
