package server

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/KaranKumar0402/Commodity-price/internal/models"
)

const dateLayout = "2006-01-02"

// parseForm reads the selection and numeric inputs from a request. Blank
// numeric fields fall back to their lower bounds and a blank date to today.
func parseForm(r *http.Request, today time.Time) (models.Selection, models.Inputs, error) {
	if err := r.ParseForm(); err != nil {
		return models.Selection{}, models.Inputs{}, fmt.Errorf("malformed form: %w", err)
	}
	form := r.Form

	sel := models.Selection{
		State:     strings.TrimSpace(form.Get("state")),
		District:  strings.TrimSpace(form.Get("district")),
		Market:    strings.TrimSpace(form.Get("market")),
		Commodity: strings.TrimSpace(form.Get("commodity")),
		Variety:   strings.TrimSpace(form.Get("variety")),
		Date:      today,
	}
	if raw := strings.TrimSpace(form.Get("date")); raw != "" {
		d, err := time.Parse(dateLayout, raw)
		if err != nil {
			return sel, models.Inputs{}, fmt.Errorf("date %q must look like 2024-01-31", raw)
		}
		sel.Date = d
	}

	in := models.DefaultInputs()
	fields := []struct {
		name  string
		label string
		dst   *float64
	}{
		{"arrival", "arrival", &in.Arrival},
		{"min_price", "minimum price", &in.MinPrice},
		{"max_price", "maximum price", &in.MaxPrice},
	}
	for _, f := range fields {
		raw := strings.TrimSpace(form.Get(f.name))
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return sel, in, fmt.Errorf("%s %q is not a number", f.label, raw)
		}
		*f.dst = v
	}
	return sel, in, nil
}

// historyQuery encodes the market and commodity for the chart and export links
func historyQuery(sel models.Selection) string {
	q := url.Values{}
	q.Set("state", sel.State)
	q.Set("district", sel.District)
	q.Set("market", sel.Market)
	q.Set("commodity", sel.Commodity)
	return q.Encode()
}
