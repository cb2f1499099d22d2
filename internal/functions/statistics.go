package functions

import (
	"sort"

	"github.com/karupanerura/formula-processor/internal/formula"
	"github.com/karupanerura/formula-processor/internal/types"
	"github.com/samber/lo"
)

var Statistics = aggregateFunctions(
	formula.NewRawFunction("AVERAGE", 1, -1, func(ev *formula.Evaluator, args []formula.Node) (formula.Value, error) {
		numbers, errValue, err := ev.Numbers(args)
		if err != nil {
			return nil, err
		}
		if errValue != "" {
			return errValue, nil
		}
		if len(numbers) == 0 {
			return types.ErrorValueDivZero, nil
		}
		return lo.Sum(numbers) / float64(len(numbers)), nil
	}),
	formula.NewRawFunction("AVERAGEA", 1, -1, func(ev *formula.Evaluator, args []formula.Node) (formula.Value, error) {
		values, err := ev.Flatten(args)
		if err != nil {
			return nil, err
		}

		var sum float64
		count := 0
		for _, v := range values {
			switch v := v.(type) {
			case nil:
				continue
			case types.ErrorValue:
				return v, nil
			case float64:
				sum += v
			case bool:
				if v {
					sum++
				}
			}
			// text counts as zero
			count++
		}
		if count == 0 {
			return types.ErrorValueDivZero, nil
		}
		return sum / float64(count), nil
	}),
	formula.NewRawFunction("COUNT", 1, -1, func(ev *formula.Evaluator, args []formula.Node) (formula.Value, error) {
		values, err := ev.Flatten(args)
		if err != nil {
			return nil, err
		}
		return float64(lo.CountBy(values, func(v formula.Value) bool {
			_, isNumber := v.(float64)
			return isNumber
		})), nil
	}),
	formula.NewRawFunction("COUNTA", 1, -1, func(ev *formula.Evaluator, args []formula.Node) (formula.Value, error) {
		values, err := ev.Flatten(args)
		if err != nil {
			return nil, err
		}
		return float64(lo.CountBy(values, func(v formula.Value) bool {
			return v != nil
		})), nil
	}),
	formula.NewRawFunction("MAX", 1, -1, func(ev *formula.Evaluator, args []formula.Node) (formula.Value, error) {
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
		return lo.Max(numbers), nil
	}),
	formula.NewRawFunction("MIN", 1, -1, func(ev *formula.Evaluator, args []formula.Node) (formula.Value, error) {
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
		return lo.Min(numbers), nil
	}),
	formula.NewRawFunction("MEDIAN", 1, -1, func(ev *formula.Evaluator, args []formula.Node) (formula.Value, error) {
		numbers, errValue, err := ev.Numbers(args)
		if err != nil {
			return nil, err
		}
		if errValue != "" {
			return errValue, nil
		}
		if len(numbers) == 0 {
			return types.ErrorValueNum, nil
		}

		sorted := append([]float64(nil), numbers...)
		sort.Float64s(sorted)
		mid := len(sorted) / 2
		if len(sorted)%2 == 1 {
			return sorted[mid], nil
		}
		return (sorted[mid-1] + sorted[mid]) / 2, nil
	}),
	formula.NewRawFunction("MODE", 1, -1, func(ev *formula.Evaluator, args []formula.Node) (formula.Value, error) {
		numbers, errValue, err := ev.Numbers(args)
		if err != nil {
			return nil, err
		}
		if errValue != "" {
			return errValue, nil
		}

		counts := lo.CountValues(numbers)
		mode, best := float64(0), 1
		for _, n := range numbers {
			if counts[n] > best {
				mode, best = n, counts[n]
			}
		}
		if best == 1 {
			return types.ErrorValueNA, nil
		}
		return mode, nil
	}),
)
