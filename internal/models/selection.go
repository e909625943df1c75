package models

import (
	"errors"
	"fmt"
	"time"
)

// Input bounds for the numeric form fields.
const (
	MinArrival  = 0.01
	MaxArrival  = 25.0
	MinPriceLo  = 0.0
	MinPriceHi  = 3000.0
	MaxPriceLo  = 0.0
	MaxPriceHi  = 3500.0
	FeatureSize = 13
)

// Selection holds the display names chosen in the cascading form.
// An empty field means the stage has not been chosen yet.
type Selection struct {
	State     string    `json:"state"`
	District  string    `json:"district"`
	Market    string    `json:"market"`
	Commodity string    `json:"commodity"`
	Variety   string    `json:"variety"`
	Date      time.Time `json:"date"`
}

// Complete reports whether every stage of the selection has been chosen.
func (s Selection) Complete() bool {
	return s.State != "" && s.District != "" && s.Market != "" &&
		s.Commodity != "" && s.Variety != "" && !s.Date.IsZero()
}

// Missing returns the first stage that has not been chosen, or "" when complete.
func (s Selection) Missing() string {
	switch {
	case s.State == "":
		return "state"
	case s.District == "":
		return "district"
	case s.Market == "":
		return "market"
	case s.Commodity == "":
		return "commodity"
	case s.Variety == "":
		return "variety"
	case s.Date.IsZero():
		return "date"
	}
	return ""
}

// Inputs are the numeric fields entered alongside the selection.
type Inputs struct {
	Arrival  float64 `json:"arrival"`   // Tonnes
	MinPrice float64 `json:"min_price"` // Rs per quintal
	MaxPrice float64 `json:"max_price"` // Rs per quintal
}

// DefaultInputs mirrors the lower bound of each field.
func DefaultInputs() Inputs {
	return Inputs{Arrival: MinArrival, MinPrice: MinPriceLo, MaxPrice: MaxPriceLo}
}

// Validate checks that all inputs are inside their documented bounds.
// NaN fails every comparison and is rejected with the rest.
func (in *Inputs) Validate() error {
	if !(in.Arrival >= MinArrival && in.Arrival <= MaxArrival) {
		return fmt.Errorf("arrival must be between %.2f and %.1f tonnes", MinArrival, MaxArrival)
	}
	if !(in.MinPrice >= MinPriceLo && in.MinPrice <= MinPriceHi) {
		return fmt.Errorf("minimum price must be between %.0f and %.0f", MinPriceLo, MinPriceHi)
	}
	if !(in.MaxPrice >= MaxPriceLo && in.MaxPrice <= MaxPriceHi) {
		return fmt.Errorf("maximum price must be between %.0f and %.0f", MaxPriceLo, MaxPriceHi)
	}
	return nil
}

// Season is the coarse bucket a calendar month falls into.
type Season string

const (
	Winter  Season = "winter"
	Spring  Season = "spring"
	Summer  Season = "summer"
	Monsoon Season = "monsoon"
)

// FeatureVector is the ordered input row of the regression model.
// The slot order must match the column order the model was trained on:
//
//	state, district, market, variety, group, arrival, min_price, max_price,
//	commodity, season, month, day, year
type FeatureVector [FeatureSize]float64

// Feature slot indexes.
const (
	SlotState = iota
	SlotDistrict
	SlotMarket
	SlotVariety
	SlotGroup
	SlotArrival
	SlotMinPrice
	SlotMaxPrice
	SlotCommodity
	SlotSeason
	SlotMonth
	SlotDay
	SlotYear
)

// FeatureNames lists the slot names in model column order.
var FeatureNames = [FeatureSize]string{
	"state", "district", "market", "variety", "group", "arrival",
	"min_rs", "max_rs", "commodity", "season", "month", "day", "year",
}

var errEmptyVector = errors.New("feature vector has no date")

// Validate checks the calendar slots are populated. Category codes are not
// checked: out-of-range codes produce whatever the model produces.
func (v FeatureVector) Validate() error {
	if v[SlotMonth] < 1 || v[SlotMonth] > 12 || v[SlotDay] < 1 || v[SlotYear] < 1 {
		return errEmptyVector
	}
	return nil
}
