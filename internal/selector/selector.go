// Package selector implements the cascading form: the option set of every
// stage as a pure function of the current selection and the static maps, the
// month to season bucketing, and assembly of the model's feature vector.
package selector

import (
	"errors"
	"fmt"
	"time"

	"github.com/KaranKumar0402/Commodity-price/internal/labels"
	"github.com/KaranKumar0402/Commodity-price/internal/models"
)

// ErrIncomplete is returned when a stage of the selection has not been chosen
var ErrIncomplete = errors.New("selection incomplete")

// CommoditySource lists the commodities traded at a market
type CommoditySource interface {
	Commodities(state, district, market string) []string
}

// Stages holds the option set of every dropdown. Err is set when a chosen
// value has no entry in the containment map of the next stage; the stages
// below it are then empty.
type Stages struct {
	States      []string
	Districts   []string
	Markets     []string
	Commodities []string
	Varieties   []string
	Err         error
}

// Options computes every stage's option set for sel. A stage whose parent is
// unset, or not among its own options, has no options; no lookup is attempted
// for it.
func Options(sel models.Selection, set *labels.Set, table CommoditySource) Stages {
	_, st := Resolve(sel, set, table)
	return st
}

// Resolve computes the option sets and drops every choice that is not among
// its stage's options, together with everything downstream of it. A changed
// parent therefore never leaves a stale child selected.
func Resolve(sel models.Selection, set *labels.Set, table CommoditySource) (models.Selection, Stages) {
	out := models.Selection{Date: sel.Date}
	st := Stages{States: set.States()}

	if !contains(st.States, sel.State) {
		return out, st
	}
	out.State = sel.State
	st.Districts = set.Districts(out.State)

	if !contains(st.Districts, sel.District) {
		return out, st
	}
	out.District = sel.District
	if st.Markets, st.Err = set.Markets(out.District); st.Err != nil {
		return out, st
	}

	if !contains(st.Markets, sel.Market) {
		return out, st
	}
	out.Market = sel.Market
	st.Commodities = table.Commodities(out.State, out.District, out.Market)

	if !contains(st.Commodities, sel.Commodity) {
		return out, st
	}
	out.Commodity = sel.Commodity
	if st.Varieties, st.Err = set.Varieties(out.Commodity); st.Err != nil {
		return out, st
	}

	if contains(st.Varieties, sel.Variety) {
		out.Variety = sel.Variety
	}
	return out, st
}

func contains(list []string, v string) bool {
	if v == "" {
		return false
	}
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// SeasonOf buckets a calendar month. Every month maps to exactly one season.
func SeasonOf(month time.Month) models.Season {
	switch month {
	case time.December, time.January, time.February:
		return models.Winter
	case time.March, time.April, time.May:
		return models.Spring
	case time.June, time.July, time.August:
		return models.Summer
	default:
		return models.Monsoon
	}
}

// Assemble builds the model's feature vector from a complete selection.
func Assemble(sel models.Selection, in models.Inputs, set *labels.Set) (models.FeatureVector, error) {
	var v models.FeatureVector
	if missing := sel.Missing(); missing != "" {
		return v, fmt.Errorf("%w: %s not chosen", ErrIncomplete, missing)
	}

	group, err := set.Group(sel.Commodity)
	if err != nil {
		return v, err
	}

	codes := []struct {
		slot     int
		category string
		value    string
	}{
		{models.SlotState, labels.State, sel.State},
		{models.SlotDistrict, labels.District, sel.District},
		{models.SlotMarket, labels.Market, sel.Market},
		{models.SlotVariety, labels.Variety, sel.Variety},
		{models.SlotGroup, labels.Group, group},
		{models.SlotCommodity, labels.Commodity, sel.Commodity},
		{models.SlotSeason, labels.Season, string(SeasonOf(sel.Date.Month()))},
	}
	for _, c := range codes {
		code, err := set.Code(c.category, c.value)
		if err != nil {
			return v, err
		}
		v[c.slot] = float64(code)
	}

	v[models.SlotArrival] = in.Arrival
	v[models.SlotMinPrice] = in.MinPrice
	v[models.SlotMaxPrice] = in.MaxPrice
	v[models.SlotMonth] = float64(sel.Date.Month())
	v[models.SlotDay] = float64(sel.Date.Day())
	v[models.SlotYear] = float64(sel.Date.Year())

	if err := v.Validate(); err != nil {
		return v, err
	}
	return v, nil
}
