package formula_test

import (
	"context"
	"errors"
	"testing"

	"github.com/karupanerura/formula-processor/internal/formula"
	"github.com/karupanerura/formula-processor/internal/functions"
	"github.com/karupanerura/formula-processor/internal/types"
)

func TestEvaluateAll(t *testing.T) {
	t.Parallel()

	sources := []string{
		"=SUM(A1:A3)",
		"=1+",
		"=B1*2",
		"=AVERAGE(A1:A3)",
		"=1/0",
	}
	results, err := formula.EvaluateAll(context.Background(), sources, defaultGrid, functions.NewRegistry())
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != len(sources) {
		t.Fatalf("expect %d results but got %d", len(sources), len(results))
	}

	for i, r := range results {
		if r.Source != sources[i] {
			t.Errorf("results[%d]: results must keep the input order but got %s", i, r.Source)
		}
	}
	if results[0].Err != nil || results[0].Value != 6.0 {
		t.Errorf("unexpected result: %+v", results[0])
	}
	if !types.HasTag(results[1].Err, types.SyntaxErrorTag) {
		t.Errorf("should be syntax error: %+v", results[1])
	}
	if !types.HasTag(results[2].Err, types.TypeErrorTag) {
		t.Errorf("should be type error: %+v", results[2])
	}
	if results[3].Err != nil || results[3].Value != 2.0 {
		t.Errorf("unexpected result: %+v", results[3])
	}
	if results[4].Err != nil || results[4].Value != types.ErrorValueDivZero {
		t.Errorf("unexpected result: %+v", results[4])
	}
}

func TestEvaluateAllCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := formula.EvaluateAll(ctx, []string{"=1"}, defaultGrid, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("should be canceled but got %v", err)
	}
}
