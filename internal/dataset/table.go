// Package dataset loads the four source tables (cases, citation edges,
// overrule records, fabricated cases), joins them into evaluation instances
// and reports coverage.
package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// Table is an in-memory tabular file: a header row mapped to column indexes
// plus the data rows. Cells are kept as strings; typed access goes through
// Row accessors.
type Table struct {
	columns map[string]int
	rows    [][]string
}

// ReadTable loads a CSV or XLSX file, dispatching on extension. The first
// row is the header.
func ReadTable(path string) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return readCSV(path)
	case ".xlsx":
		return readXLSX(path)
	default:
		return nil, eris.Errorf("dataset: unsupported table format %q", filepath.Ext(path))
	}
}

func readCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "dataset: open csv")
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var raw [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "dataset: read csv row")
		}
		raw = append(raw, record)
	}
	return newTable(raw)
}

func readXLSX(path string) (*Table, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "dataset: open xlsx")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("dataset: xlsx file has no sheets")
	}

	var raw [][]string
	for _, row := range f.Sheets[0].Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		raw = append(raw, cells)
	}
	return newTable(raw)
}

func newTable(raw [][]string) (*Table, error) {
	if len(raw) == 0 {
		return nil, eris.New("dataset: table is empty")
	}
	columns := make(map[string]int, len(raw[0]))
	for i, name := range raw[0] {
		columns[strings.TrimSpace(name)] = i
	}
	return &Table{columns: columns, rows: raw[1:]}, nil
}

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.rows) }

// HasColumns reports whether every named column is present.
func (t *Table) HasColumns(names ...string) bool {
	for _, name := range names {
		if _, ok := t.columns[name]; !ok {
			return false
		}
	}
	return true
}

// Row returns a typed view of one data row.
func (t *Table) Row(i int) Row { return Row{table: t, cells: t.rows[i]} }

// Row is one data row with column-name accessors. Missing columns and empty
// cells read as zero values.
type Row struct {
	table *Table
	cells []string
}

// Str returns the trimmed cell value for a column, "" when absent.
func (r Row) Str(column string) string {
	idx, ok := r.table.columns[column]
	if !ok || idx >= len(r.cells) {
		return ""
	}
	return strings.TrimSpace(r.cells[idx])
}

// Int parses a column as an integer, tolerating the float renderings
// spreadsheet exports produce ("3.0").
func (r Row) Int(column string) (int, bool) {
	s := r.Str(column)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return int(f), true
}

// IntPtr is Int with pointer semantics for optional columns.
func (r Row) IntPtr(column string) *int {
	n, ok := r.Int(column)
	if !ok {
		return nil
	}
	return &n
}

// FloatPtr parses an optional float column.
func (r Row) FloatPtr(column string) *float64 {
	s := r.Str(column)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

// Bool parses a column as a boolean. "true", "yes" and nonzero numbers count
// as true, case-insensitively.
func (r Row) Bool(column string) bool {
	switch strings.ToLower(r.Str(column)) {
	case "true", "yes", "t", "1", "1.0":
		return true
	}
	if f, err := strconv.ParseFloat(r.Str(column), 64); err == nil {
		return f != 0
	}
	return false
}
