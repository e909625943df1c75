// Package dataset loads the historical mandi price table and answers the
// read-only queries the form and the reporter need.
//
// A Table is immutable once loaded and is safe to share across concurrent
// requests. Loader memoizes tables per location for the process lifetime.
package dataset

import (
	"github.com/KaranKumar0402/Commodity-price/internal/models"
)

// Table is the in-memory historical price table
type Table struct {
	records []models.Record
}

// NewTable wraps records in a Table. The slice must not be modified afterwards.
func NewTable(records []models.Record) *Table {
	return &Table{records: records}
}

// Len returns the number of records
func (t *Table) Len() int {
	return len(t.records)
}

// Records returns a copy of all records
func (t *Table) Records() []models.Record {
	out := make([]models.Record, len(t.records))
	copy(out, t.records)
	return out
}

// Commodities returns the unique commodities traded at the given market, in
// order of first appearance. An empty argument yields no commodities.
func (t *Table) Commodities(state, district, market string) []string {
	if state == "" || district == "" || market == "" {
		return nil
	}

	seen := make(map[string]bool)
	var out []string
	for i := range t.records {
		r := &t.records[i]
		if r.State != state || r.District != district || r.Market != market {
			continue
		}
		if !seen[r.Commodity] {
			seen[r.Commodity] = true
			out = append(out, r.Commodity)
		}
	}
	return out
}

// Matching returns the records for one commodity at one market, in table order
func (t *Table) Matching(state, district, market, commodity string) []models.Record {
	var out []models.Record
	for i := range t.records {
		if t.records[i].Matches(state, district, market, commodity) {
			out = append(out, t.records[i])
		}
	}
	return out
}
