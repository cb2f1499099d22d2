package table

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/goccy/go-yaml"
	"github.com/karupanerura/formula-processor/internal/formula"
	"github.com/karupanerura/formula-processor/internal/types"
	"github.com/mitchellh/mapstructure"
	"github.com/samber/lo"
)

// Document is the serialized form of a grid.
type Document struct {
	Columns []string `json:"columns,omitempty" mapstructure:"columns"`
	Rows    [][]any  `json:"rows" mapstructure:"rows"`
}

// Document converts the grid back into its serialized form.
func (g *Grid) Document() Document {
	return Document{
		Columns: g.Columns(),
		Rows: lo.Map(g.Rows(), func(row []formula.Value, _ int) []any {
			return row
		}),
	}
}

var ErrUnsupportedFormat = errors.New("unsupported table format")

// LoadFile picks a loader by the file extension.
func LoadFile(path string) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("os.Open: %w", err)
	}
	defer f.Close()

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return LoadJSON(f)
	case ".yaml", ".yml":
		return LoadYAML(f)
	case ".csv":
		return LoadCSV(f)
	default:
		return nil, fmt.Errorf("%s: %w", ext, ErrUnsupportedFormat)
	}
}

func LoadYAML(r io.Reader) (*Grid, error) {
	yamlBytes, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("io.ReadAll: %w", err)
	}

	jsonBytes, err := yaml.YAMLToJSON(yamlBytes)
	if err != nil {
		return nil, fmt.Errorf("yaml.YAMLToJSON: %w", err)
	}

	return LoadJSON(bytes.NewReader(jsonBytes))
}

func LoadJSON(r io.Reader) (*Grid, error) {
	decoder := json.NewDecoder(r)
	decoder.UseNumber()

	var raw map[string]any
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("json.Decode: %w", err)
	}

	var doc Document
	config := &mapstructure.DecoderConfig{
		ErrorUnused: true,
		Result:      &doc,
	}
	md, err := mapstructure.NewDecoder(config)
	if err != nil {
		return nil, fmt.Errorf("mapstructure.NewDecoder: %w", err)
	}
	if err := md.Decode(raw); err != nil {
		return nil, fmt.Errorf("mapstructure.Decode: %w", err)
	}

	return doc.Grid()
}

// Grid builds a grid from the document, normalizing cell values.
func (doc Document) Grid() (*Grid, error) {
	rows := make([][]formula.Value, len(doc.Rows))
	for i, row := range doc.Rows {
		rows[i] = make([]formula.Value, len(row))
		for j, v := range row {
			cell, err := cellValue(v)
			if err != nil {
				return nil, fmt.Errorf("rows[%d][%d]: %w", i, j, err)
			}
			rows[i][j] = cell
		}
	}

	g := NewGrid(rows)
	g.SetColumns(doc.Columns)
	return g, nil
}

func cellValue(v any) (formula.Value, error) {
	switch vv := v.(type) {
	case nil, bool, float64, types.ErrorValue:
		return vv, nil
	case string:
		if errValue, ok := types.ParseErrorValue(vv); ok {
			return errValue, nil
		}
		return vv, nil
	case json.Number:
		return vv.Float64()
	case int:
		return float64(vv), nil
	case int64:
		return float64(vv), nil
	case uint64:
		return float64(vv), nil
	default:
		return nil, fmt.Errorf("unsupported cell value %v (%T)", v, v)
	}
}

// LoadCSV reads a header-less CSV. Empty fields are empty cells, numeric
// fields become numbers and TRUE/FALSE become booleans.
func LoadCSV(r io.Reader) (*Grid, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csv.ReadAll: %w", err)
	}

	rows := make([][]formula.Value, len(records))
	for i, record := range records {
		rows[i] = make([]formula.Value, len(record))
		for j, field := range record {
			rows[i][j] = csvCellValue(field)
		}
	}
	return NewGrid(rows), nil
}

func csvCellValue(field string) formula.Value {
	if field == "" {
		return nil
	}
	if n, err := strconv.ParseFloat(strings.TrimSpace(field), 64); err == nil && !math.IsNaN(n) && !math.IsInf(n, 0) {
		return n
	}
	switch strings.ToUpper(field) {
	case "TRUE":
		return true
	case "FALSE":
		return false
	}
	if errValue, ok := types.ParseErrorValue(field); ok {
		return errValue
	}
	return field
}
