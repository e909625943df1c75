// Package models defines the core domain entities for the pricecast application.
// These models represent historical mandi price records, the user's cascading
// selection, the model's feature vector and the resulting forecast.
// All models include built-in validation to ensure data integrity throughout the application.
//
// Terminology (matching the Agmarknet naming the dataset uses):
//   - Market: a wholesale mandi within a district.
//   - Arrival: tonnes of a commodity brought to a market on a given date.
//   - Modal price: the most representative traded price, in Rs per quintal.
package models

import (
	"errors"
	"time"
)

// Record is one row of the historical price table. Records are loaded once
// and never mutated.
type Record struct {
	State      string    `json:"state"`
	District   string    `json:"district"`
	Market     string    `json:"market"`
	Commodity  string    `json:"commodity"`
	Variety    string    `json:"variety"`
	Group      string    `json:"group"`
	Date       time.Time `json:"date"`
	Arrival    float64   `json:"arrival"`     // Tonnes
	MinPrice   float64   `json:"min_price"`   // Rs per quintal
	MaxPrice   float64   `json:"max_price"`   // Rs per quintal
	ModalPrice float64   `json:"modal_price"` // Rs per quintal
}

// Validate checks that all record fields are valid.
func (r *Record) Validate() error {
	if r.State == "" {
		return errors.New("state must not be empty")
	}
	if r.District == "" {
		return errors.New("district must not be empty")
	}
	if r.Market == "" {
		return errors.New("market must not be empty")
	}
	if r.Commodity == "" {
		return errors.New("commodity must not be empty")
	}
	if r.Date.IsZero() {
		return errors.New("date must be set")
	}
	if r.Arrival < 0 {
		return errors.New("arrival must not be negative")
	}
	if r.MinPrice < 0 || r.MaxPrice < 0 || r.ModalPrice < 0 {
		return errors.New("prices must not be negative")
	}
	return nil
}

// Matches reports whether the record belongs to the given market and commodity.
// Comparison is exact string equality.
func (r *Record) Matches(state, district, market, commodity string) bool {
	return r.State == state &&
		r.District == district &&
		r.Market == market &&
		r.Commodity == commodity
}
