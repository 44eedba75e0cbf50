package dataset

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Base names of the four source tables. Each may be present as .csv or
// .xlsx.
const (
	CasesTable     = "scdb_sample"
	ShepardsTable  = "scotus_shepards_sample"
	OverruledTable = "scotus_overruled_db"
	FakeCasesTable = "fake_cases"
)

// Bundle holds the four raw source tables.
type Bundle struct {
	Cases     *Table
	Shepards  *Table
	Overruled *Table
	FakeCases *Table
}

// Load reads all four tables from a directory, accepting .csv or .xlsx for
// each.
func Load(dir string) (*Bundle, error) {
	cases, err := loadTable(dir, CasesTable)
	if err != nil {
		return nil, err
	}
	shepards, err := loadTable(dir, ShepardsTable)
	if err != nil {
		return nil, err
	}
	overruled, err := loadTable(dir, OverruledTable)
	if err != nil {
		return nil, err
	}
	fakes, err := loadTable(dir, FakeCasesTable)
	if err != nil {
		return nil, err
	}

	bundle := &Bundle{Cases: cases, Shepards: shepards, Overruled: overruled, FakeCases: fakes}
	if err := bundle.Validate(); err != nil {
		return nil, err
	}

	zap.L().Info("dataset: loaded",
		zap.Int("cases", cases.Len()),
		zap.Int("edges", shepards.Len()),
		zap.Int("overruled", overruled.Len()),
		zap.Int("fake_cases", fakes.Len()))
	return bundle, nil
}

func loadTable(dir, base string) (*Table, error) {
	for _, ext := range []string{".csv", ".xlsx"} {
		path := filepath.Join(dir, base+ext)
		if _, err := os.Stat(path); err == nil {
			return ReadTable(path)
		}
	}
	return nil, eris.Errorf("dataset: table %q not found in %s (.csv or .xlsx)", base, dir)
}

// Validate checks every table for its required columns.
func (b *Bundle) Validate() error {
	checks := []struct {
		name     string
		table    *Table
		required []string
	}{
		{CasesTable, b.Cases, []string{"usCite", "caseName", "term", "majority_opinion"}},
		{ShepardsTable, b.Shepards, []string{"cited_case_us_cite", "citing_case_us_cite", "agree", "shepards"}},
		{OverruledTable, b.Overruled, []string{"overruled_case_us_id", "overruled_case_name", "overruling_case_name", "year_overruled"}},
		{FakeCasesTable, b.FakeCases, []string{"case_name", "us_citation"}},
	}
	var missing []string
	for _, c := range checks {
		if c.table == nil || !c.table.HasColumns(c.required...) {
			missing = append(missing, c.name)
		}
	}
	if len(missing) > 0 {
		return eris.Errorf("dataset: tables missing required columns: %s", strings.Join(missing, ", "))
	}
	return nil
}
