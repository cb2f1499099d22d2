package formula

import (
	"context"

	"golang.org/x/sync/errgroup"
)

type Result struct {
	Source string
	Value  Value
	Err    error
}

// EvaluateAll evaluates independent formulas concurrently against the same
// table. Per-formula failures are reported in the results; the returned
// error is only set when ctx is done before all formulas finish.
func EvaluateAll(ctx context.Context, sources []string, table Table, registry *Registry) ([]Result, error) {
	results := make([]Result, len(sources))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(maxParallelEvaluations)
	for i, source := range sources {
		i, source := i, source
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			results[i].Source = source
			node, err := Parse(source)
			if err != nil {
				results[i].Err = err
				return nil
			}

			e := Evaluator{Table: table, Registry: registry}
			results[i].Value, results[i].Err = e.Evaluate(node)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

const maxParallelEvaluations = 16
