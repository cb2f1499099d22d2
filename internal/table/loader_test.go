package table_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/karupanerura/formula-processor/internal/formula"
	"github.com/karupanerura/formula-processor/internal/table"
	"github.com/karupanerura/formula-processor/internal/types"
)

var salesRows = [][]formula.Value{
	{"apple", 120.0, 3.0, "=B1*C1"},
	{"banana", 80.5, 2.0, "=B2*C2"},
	{"sum", nil, "=SUM(C1:C2)", "=SUM(D1:D2)"},
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		path    string
		columns []string
	}{
		{path: "testdata/sales.json", columns: []string{"item", "price", "quantity", "total"}},
		{path: "testdata/sales.yaml", columns: []string{"item", "price", "quantity", "total"}},
		{path: "testdata/sales.csv", columns: []string{"A", "B", "C", "D"}},
	} {
		tt := tt
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()

			g, err := table.LoadFile(tt.path)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(salesRows, g.Rows()); diff != "" {
				t.Errorf("unexpected rows (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.columns, g.Columns()); diff != "" {
				t.Errorf("unexpected columns (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadFileError(t *testing.T) {
	t.Parallel()

	if _, err := table.LoadFile("testdata/sales.toml"); !errors.Is(err, table.ErrUnsupportedFormat) {
		t.Errorf("should be unsupported format but got %v", err)
	}
	if _, err := table.LoadFile("testdata/missing.json"); err == nil {
		t.Error("should be error")
	}
}

func TestLoadJSON(t *testing.T) {
	t.Parallel()

	g, err := table.LoadJSON(strings.NewReader(`{"rows":[[1,"#DIV/0!",true],[],[null,"#FOO"]]}`))
	if err != nil {
		t.Fatal(err)
	}

	expected := [][]formula.Value{
		{1.0, types.ErrorValueDivZero, true},
		{nil, nil, nil},
		{nil, "#FOO", nil},
	}
	if diff := cmp.Diff(expected, g.Rows()); diff != "" {
		t.Errorf("unexpected rows (-want +got):\n%s", diff)
	}
}

func TestLoadJSONError(t *testing.T) {
	t.Parallel()

	for name, input := range map[string]string{
		"Malformed":   `{"rows":`,
		"UnknownKey":  `{"rows":[],"sheets":[]}`,
		"NotRows":     `{"rows":1}`,
		"NestedValue": `{"rows":[[{"a":1}]]}`,
	} {
		input := input
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			if _, err := table.LoadJSON(strings.NewReader(input)); err == nil {
				t.Error("should be error")
			} else {
				t.Log(err)
			}
		})
	}
}

func TestLoadCSV(t *testing.T) {
	t.Parallel()

	g, err := table.LoadCSV(strings.NewReader("1, 2 ,TRUE,false\n\"a,b\",,#N/A\nNaN\n"))
	if err != nil {
		t.Fatal(err)
	}

	expected := [][]formula.Value{
		{1.0, 2.0, true, false},
		{"a,b", nil, types.ErrorValueNA, nil},
		{"NaN", nil, nil, nil},
	}
	if diff := cmp.Diff(expected, g.Rows()); diff != "" {
		t.Errorf("unexpected rows (-want +got):\n%s", diff)
	}
}

func TestDocumentRoundTrip(t *testing.T) {
	t.Parallel()

	g, err := table.LoadFile("testdata/sales.json")
	if err != nil {
		t.Fatal(err)
	}

	restored, err := g.Document().Grid()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(g.Rows(), restored.Rows()); diff != "" {
		t.Errorf("unexpected rows (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(g.Columns(), restored.Columns()); diff != "" {
		t.Errorf("unexpected columns (-want +got):\n%s", diff)
	}
}
