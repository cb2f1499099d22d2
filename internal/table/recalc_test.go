package table_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/karupanerura/formula-processor/internal/formula"
	"github.com/karupanerura/formula-processor/internal/functions"
	"github.com/karupanerura/formula-processor/internal/table"
	"github.com/karupanerura/formula-processor/internal/types"
)

func TestRecalculate(t *testing.T) {
	t.Parallel()

	for name, tt := range map[string]struct {
		rows     [][]formula.Value
		expected [][]formula.Value
	}{
		"Sales": {
			rows: salesRows,
			expected: [][]formula.Value{
				{"apple", 120.0, 3.0, 360.0},
				{"banana", 80.5, 2.0, 161.0},
				{"sum", nil, 5.0, 521.0},
			},
		},
		"ReverseOrder": {
			rows: [][]formula.Value{
				{"=B1+1", "=C1*2", "=D1-1", 5.0},
			},
			expected: [][]formula.Value{
				{9.0, 8.0, 4.0, 5.0},
			},
		},
		"Cycle": {
			rows: [][]formula.Value{
				{"=B1", "=A1", "=A1+1", 1.0, "=D1*2"},
				{"=A2"},
			},
			expected: [][]formula.Value{
				{types.ErrorValueRef, types.ErrorValueRef, types.ErrorValueRef, 1.0, 2.0},
				{types.ErrorValueRef, nil, nil, nil, nil},
			},
		},
		"Errors": {
			rows: [][]formula.Value{
				{"=1+", "=Z99", `="a"+1`, "=NOPE()", "=1/0", "=E1+1"},
				{"=A1", "=A1:B1", "=SUM(", "=MAX(1,2)", "=ABS(1,2)", "text"},
			},
			expected: [][]formula.Value{
				{types.ErrorValueNA, types.ErrorValueRef, types.ErrorValueValue, types.ErrorValueNA, types.ErrorValueDivZero, types.ErrorValueDivZero},
				{types.ErrorValueNA, types.ErrorValueValue, types.ErrorValueNA, 2.0, types.ErrorValueValue, "text"},
			},
		},
		"RangeDependency": {
			rows: [][]formula.Value{
				{1.0, "=A1*10"},
				{2.0, "=A2*10"},
				{"=SUM(B1:B2)", "=AVERAGE(A1:B2)"},
			},
			expected: [][]formula.Value{
				{1.0, 10.0},
				{2.0, 20.0},
				{30.0, 8.25},
			},
		},
	} {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			g := table.NewGrid(tt.rows)
			ret, err := g.Recalculate(context.Background(), functions.NewRegistry())
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.expected, ret.Rows()); diff != "" {
				t.Errorf("unexpected rows (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(table.NewGrid(tt.rows).Rows(), g.Rows()); diff != "" {
				t.Errorf("source grid should be left as is (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRecalculateCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := table.NewGrid([][]formula.Value{{"=1"}})
	if _, err := g.Recalculate(ctx, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("should be canceled but got %v", err)
	}
}
