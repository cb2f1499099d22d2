package formula_test

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/karupanerura/formula-processor/internal/formula"
	_ "github.com/karupanerura/formula-processor/internal/functions"
	"github.com/karupanerura/formula-processor/internal/types"
)

func TestEvaluate(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		table       formula.Table
		source      string
		expected    formula.Value
		expectedErr types.ErrorTag
	}{
		// precedence and associativity
		{source: "=1+2*3", expected: 7.0},
		{source: "=(1+2)*3", expected: 9.0},
		{source: "=2^3^2", expected: 512.0},
		{source: "=(2^3)^2", expected: 64.0},
		{source: "=-2^2", expected: 4.0},
		{source: "=2^-1", expected: 0.5},
		{source: "=10-4-3", expected: 3.0},
		{source: "=8/4/2", expected: 1.0},
		{source: "=--3", expected: 3.0},
		{source: "=1e3+.5", expected: 1000.5},
		{source: "=1+2=3", expected: true},

		// error values
		{source: "=1/0", expected: types.ErrorValueDivZero},
		{source: "=1/0+1", expected: types.ErrorValueDivZero},
		{source: "=-(1/0)", expected: types.ErrorValueDivZero},
		{source: "=1/0=1/0", expected: types.ErrorValueDivZero},
		{source: "=(-1)^0.5", expected: types.ErrorValueNum},
		{source: "=SUM(1/0,1)", expected: types.ErrorValueDivZero},
		{source: "=ABS(1/0)", expected: types.ErrorValueDivZero},
		{source: "=SUM(1E308,1E308)", expected: types.ErrorValueNum},
		{source: "=PRODUCT(1E308,10)", expected: types.ErrorValueNum},
		{source: "=AVERAGE(1E308,1E308)", expected: types.ErrorValueNum},
		{source: `=MAX("inf")`, expected: types.ErrorValueNum},
		{source: `=MIN("-inf")`, expected: types.ErrorValueNum},
		{source: `=ABS("-inf")`, expected: types.ErrorValueNum},
		{source: "=ISNA(SUM(1E308,1E308))", expected: false},
		{
			table:    grid{{1.0, types.ErrorValueDivZero}},
			source:   "=SUM(A1:B1)",
			expected: types.ErrorValueDivZero,
		},
		{
			table:    grid{{1.0, types.ErrorValueNA}},
			source:   "=A1+B1",
			expected: types.ErrorValueNA,
		},
		{
			table:    grid{{1.0, types.ErrorValueNA}},
			source:   "=COUNT(A1:B1)",
			expected: 1.0,
		},

		// IF evaluates only the taken branch
		{source: "=IF(0,1/0,42)", expected: 42.0},
		{source: "=IF(1,42,Z999)", expected: 42.0},
		{source: "=IF(0,Z999,7)", expected: 7.0},
		{source: `=IF("",1,2)`, expected: 2.0},
		{source: `=IF(A1,"yes","no")`, expected: "yes"},
		{source: "=IF(B2,1,2)", expected: 2.0},
		{source: "=IF(FALSE,1)", expected: false},
		{source: "=IF(1/0,1,2)", expected: types.ErrorValueDivZero},
		{source: "=IF(1)", expectedErr: types.ArgumentErrorTag},

		// references and ranges
		{source: "=A1", expected: 1.0},
		{source: "=B2", expected: nil},
		{source: "=B1", expected: "apple"},
		{source: "=$A$1+A$2", expected: 3.0},
		{source: "=R1C1+R3C1", expected: 4.0},
		{source: "=A1:A2", expected: []formula.Value{1.0, 2.0}},
		{source: "=A1:B2", expected: []formula.Value{1.0, "apple", 2.0, nil}},
		{source: "=A1:A3+1", expected: 7.0},
		{source: "=Z999", expectedErr: types.ReferenceErrorTag},
		{source: "=D1", expectedErr: types.ReferenceErrorTag},
		{source: "=A4", expectedErr: types.ReferenceErrorTag},
		{source: "=SUM(A1:A4)", expectedErr: types.ReferenceErrorTag},
		{table: grid{}, source: "=A1", expectedErr: types.ReferenceErrorTag},

		// coercion
		{source: "=C2+1", expected: 6.0},
		{source: "=C1+1", expected: 2.0},
		{source: "=B2+1", expected: 1.0},
		{source: "=B1+1", expectedErr: types.TypeErrorTag},
		{source: `=-"x"`, expectedErr: types.TypeErrorTag},

		// comparison
		{source: "=1=1", expected: true},
		{source: "=1<>1", expected: false},
		{source: `="a"<"b"`, expected: true},
		{source: `="b"<"a"`, expected: false},
		{source: `=1<"a"`, expected: true},
		{source: `="a"<TRUE`, expected: true},
		{source: `=TRUE>1`, expected: true},
		{source: `=1="1"`, expected: false},
		{source: `=1<>"1"`, expected: true},
		{source: "=FALSE<TRUE", expected: true},
		{source: "=B2=0", expected: true},
		{source: `=B2=""`, expected: true},
		{source: "=B2=FALSE", expected: true},
		{source: `=B1="apple"`, expected: true},
		{source: "=A1:A3>5", expected: true},

		// functions
		{source: "=SUM(A1:A3)", expected: 6.0},
		{source: "=sum(a1:a3)", expected: 6.0},
		{source: "=SUM(A1:C3)", expected: 6.0},
		{source: "=SUM(A1:A3,10)", expected: 16.0},
		{source: "=SUM(A2:B2)", expected: 2.0},
		{source: `=SUM("4",TRUE)`, expected: 5.0},
		{source: `=SUM("four")`, expectedErr: types.TypeErrorTag},
		{source: "=SUM()", expectedErr: types.ArgumentErrorTag},
		{source: "=AVERAGE(A1:A3)", expected: 2.0},
		{source: "=AVERAGE(B2)", expected: types.ErrorValueDivZero},
		{source: "=SUM(A1:A3)/COUNT(A1:A3)", expected: 2.0},
		{source: "=COUNT(A1:C3)", expected: 3.0},
		{source: "=COUNTA(A1:C3)", expected: 7.0},
		{source: "=MAX(A1:A3)", expected: 3.0},
		{source: "=MIN(A1:A3,-1)", expected: -1.0},
		{source: "=MAX(B1:B3)", expected: 0.0},
		{source: "=PRODUCT(A1:A3)", expected: 6.0},
		{source: "=MEDIAN(3,1,2,4)", expected: 2.5},
		{source: "=MEDIAN(3,1,2)", expected: 2.0},
		{source: "=MODE(1,2,2,3,3)", expected: 2.0},
		{source: "=MODE(1,2,3)", expected: types.ErrorValueNA},
		{source: "=ISNA(MODE(1,2,3))", expected: true},
		{source: "=ISNA(1/0)", expected: false},
		{source: "=MOD(-7,3)", expected: 2.0},
		{source: "=MOD(7,-3)", expected: -2.0},
		{source: "=MOD(1,0)", expected: types.ErrorValueDivZero},
		{source: "=ABS(-2.5)", expected: 2.5},
		{source: "=ABS(1,2)", expectedErr: types.ArgumentErrorTag},
		{source: "=ABS()", expectedErr: types.ArgumentErrorTag},
		{source: "=NOT(A1)", expected: false},
		{source: "=NOT(B2)", expected: true},
		{source: "=AND(1,TRUE)", expected: true},
		{source: "=AND(A1:C1)", expected: true},
		{source: "=AND(1,0)", expected: false},
		{source: "=OR(0,FALSE)", expected: false},
		{source: "=OR(B1:B3)", expected: types.ErrorValueValue},
		{source: "=XOR(1,1,1)", expected: true},
		{source: "=XOR(1,1)", expected: false},
		{source: "=FOOBAR(1)", expectedErr: types.UnknownFunctionErrorTag},
		{source: "=IF(0,FOOBAR(1),1)", expected: 1.0},

		// syntax
		{source: "=1+", expectedErr: types.SyntaxErrorTag},
		{source: `="say ""hi"""`, expected: `say "hi"`},
	} {
		tt := tt
		t.Run(tt.source, func(t *testing.T) {
			t.Parallel()

			table := tt.table
			if table == nil {
				table = defaultGrid
			}

			ret, err := formula.Evaluate(tt.source, table)
			if tt.expectedErr != "" {
				if err == nil {
					t.Fatalf("should be %s but got %v", tt.expectedErr, ret)
				}
				if !types.HasTag(err, tt.expectedErr) {
					t.Fatalf("should be %s but got %v", tt.expectedErr, err)
				}
				t.Logf("expected error: %v", err)
				return
			}
			if err != nil {
				t.Fatal(err)
			}

			if diff := cmp.Diff(tt.expected, ret); diff != "" {
				t.Errorf("unexpected result (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEvaluateApproximately(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		source   string
		expected float64
	}{
		{source: "=2^0.5", expected: math.Sqrt2},
		{source: "=AVERAGEA(A1:C1)", expected: 2.0 / 3.0},
		{source: "=0.1+0.2", expected: 0.3},
	} {
		ret, err := formula.Evaluate(tt.source, defaultGrid)
		if err != nil {
			t.Fatalf("%s: %v", tt.source, err)
		}
		v, ok := ret.(float64)
		if !ok {
			t.Fatalf("%s: expect float64 but got %T", tt.source, ret)
		}
		if math.Abs(v-tt.expected) > 0.0000001 {
			t.Errorf("%s: expect %v but got %v", tt.source, tt.expected, v)
		}
	}
}

func TestEvaluatorWithoutTable(t *testing.T) {
	t.Parallel()

	node, err := formula.Parse("=A1")
	if err != nil {
		t.Fatal(err)
	}

	e := formula.Evaluator{}
	if _, err := e.Evaluate(node); !types.HasTag(err, types.ReferenceErrorTag) {
		t.Errorf("should be reference error but got %v", err)
	}
}
