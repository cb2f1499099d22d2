package functions

import (
	"math"

	"github.com/karupanerura/formula-processor/internal/formula"
	"github.com/karupanerura/formula-processor/internal/types"
	"github.com/samber/lo"
)

var Math = aggregateFunctions(
	formula.NewRawFunction("SUM", 1, -1, func(ev *formula.Evaluator, args []formula.Node) (formula.Value, error) {
		numbers, errValue, err := ev.Numbers(args)
		if err != nil {
			return nil, err
		}
		if errValue != "" {
			return errValue, nil
		}
		return lo.Sum(numbers), nil
	}),
	formula.NewRawFunction("PRODUCT", 1, -1, func(ev *formula.Evaluator, args []formula.Node) (formula.Value, error) {
		numbers, errValue, err := ev.Numbers(args)
		if err != nil {
			return nil, err
		}
		if errValue != "" {
			return errValue, nil
		}
		if len(numbers) == 0 {
			return float64(0), nil
		}

		product := float64(1)
		for _, n := range numbers {
			product *= n
		}
		return product, nil
	}),
	formula.MustNewFunction("ABS", []formula.Argument{
		{Name: "number"},
	}, func(x float64) (float64, error) {
		return math.Abs(x), nil
	}),
	formula.MustNewFunction("MOD", []formula.Argument{
		{Name: "dividend"},
		{Name: "divisor"},
	}, func(x, y float64) (formula.Value, error) {
		if y == 0 {
			return types.ErrorValueDivZero, nil
		}
		// the result takes the sign of the divisor
		return x - y*math.Floor(x/y), nil
	}),
)
