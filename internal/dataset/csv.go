package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/KaranKumar0402/Commodity-price/internal/models"
)

// ErrMissingColumn is returned when the header lacks a required column
var ErrMissingColumn = errors.New("missing required column")

// Required columns and the header spellings accepted for each.
var columnAliases = map[string][]string{
	"state":       {"state"},
	"district":    {"district"},
	"market":      {"market"},
	"commodity":   {"commodity"},
	"variety":     {"variety"},
	"group":       {"group"},
	"date":        {"date"},
	"arrival":     {"arrival", "arrival_tonnes"},
	"min_price":   {"min_price", "min_rs"},
	"max_price":   {"max_price", "max_rs"},
	"modal_price": {"modal_price", "mod_rs", "modal_rs"},
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"02-01-2006",
	"01/02/2006",
	"2006/01/02",
}

// isIndexColumn reports whether a header is the pandas index artifact
func isIndexColumn(name string) bool {
	name = strings.TrimSpace(name)
	return name == "" || strings.HasPrefix(name, "Unnamed: ")
}

// ParseCSV reads the historical price table. The index artifact column is
// dropped; missing required columns and malformed rows are errors.
func ParseCSV(r io.Reader) ([]models.Record, error) {
	reader := csv.NewReader(r)
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		if isIndexColumn(name) {
			continue
		}
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}

	cols := make(map[string]int, len(columnAliases))
	for column, aliases := range columnAliases {
		found := false
		for _, alias := range aliases {
			if i, ok := index[alias]; ok {
				cols[column] = i
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, column)
		}
	}

	var records []models.Record
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		rec, err := parseRow(row, cols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, rec)
	}

	return records, nil
}

func parseRow(row []string, cols map[string]int) (models.Record, error) {
	get := func(column string) string {
		return strings.TrimSpace(row[cols[column]])
	}

	date, err := parseDate(get("date"))
	if err != nil {
		return models.Record{}, err
	}

	rec := models.Record{
		State:     get("state"),
		District:  get("district"),
		Market:    get("market"),
		Commodity: get("commodity"),
		Variety:   get("variety"),
		Group:     get("group"),
		Date:      date,
	}

	numbers := []struct {
		column string
		dst    *float64
	}{
		{"arrival", &rec.Arrival},
		{"min_price", &rec.MinPrice},
		{"max_price", &rec.MaxPrice},
		{"modal_price", &rec.ModalPrice},
	}
	for _, n := range numbers {
		v, err := strconv.ParseFloat(get(n.column), 64)
		if err != nil {
			return models.Record{}, fmt.Errorf("invalid %s %q", n.column, get(n.column))
		}
		*n.dst = v
	}

	if err := rec.Validate(); err != nil {
		return models.Record{}, err
	}
	return rec, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}
