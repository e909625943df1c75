// Package report builds the price history shown beside a forecast: the
// date-ordered modal price series, the trailing average arrival and the stock
// advisory derived from it.
package report

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/KaranKumar0402/Commodity-price/internal/models"
)

const (
	// TrailingWindow is the number of most recent rows averaged for arrival.
	TrailingWindow = 10
	// Band is the relative tolerance around the average that stays silent.
	Band = 0.05
)

// RecordSource returns the rows for one commodity at one market
type RecordSource interface {
	Matching(state, district, market, commodity string) []models.Record
}

// Point is one sample of the price history
type Point struct {
	Date       time.Time `json:"date"`
	ModalPrice float64   `json:"modal_price"`
	Arrival    float64   `json:"arrival"`
}

// Report is the history of one commodity at one market
type Report struct {
	State      string
	District   string
	Market     string
	Commodity  string
	Series     []Point // ascending by date
	AvgArrival float64 // mean arrival of the trailing window
	HasHistory bool
}

// Prepare filters the table to the given market and commodity, orders the
// rows by date and averages the arrival of the last TrailingWindow rows.
func Prepare(src RecordSource, state, district, market, commodity string) Report {
	rows := src.Matching(state, district, market, commodity)
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Date.Before(rows[j].Date)
	})

	r := Report{
		State:     state,
		District:  district,
		Market:    market,
		Commodity: commodity,
		Series:    make([]Point, len(rows)),
	}
	for i, row := range rows {
		r.Series[i] = Point{Date: row.Date, ModalPrice: row.ModalPrice, Arrival: row.Arrival}
	}
	if len(rows) == 0 {
		return r
	}

	tail := rows
	if len(tail) > TrailingWindow {
		tail = tail[len(tail)-TrailingWindow:]
	}
	arrivals := make([]float64, len(tail))
	for i, row := range tail {
		arrivals[i] = row.Arrival
	}
	r.AvgArrival = stat.Mean(arrivals, nil)
	r.HasHistory = true
	return r
}

// Classify compares an entered arrival with the trailing average. Arrivals
// inside [avg*0.95, avg*1.05] stay silent, as does a market with no history.
func Classify(arrival float64, r Report) models.Advisory {
	if !r.HasHistory {
		return models.AdvisoryNone
	}
	switch {
	case arrival > r.AvgArrival*(1+Band):
		return models.AdvisoryAbove
	case arrival < r.AvgArrival*(1-Band):
		return models.AdvisoryBelow
	default:
		return models.AdvisoryNone
	}
}
