package models

import (
	"errors"
	"time"
)

// Advisory is the stock-level notice shown next to a forecast.
type Advisory string

const (
	AdvisoryNone  Advisory = ""
	AdvisoryAbove Advisory = "above" // more stock than the trailing average
	AdvisoryBelow Advisory = "below" // less stock than the trailing average
)

// Message returns the notice text for the advisory, or "" when silent.
func (a Advisory) Message() string {
	switch a {
	case AdvisoryAbove:
		return "More stock has arrived than the average of the last 10 days"
	case AdvisoryBelow:
		return "Less stock has arrived than the average of the last 10 days"
	}
	return ""
}

// Forecast is the result of one form submission.
type Forecast struct {
	ID         string    `json:"id"`
	Selection  Selection `json:"selection"`
	Inputs     Inputs    `json:"inputs"`
	Price      float64   `json:"price"` // Rs per quintal
	AvgArrival float64   `json:"avg_arrival"`
	HasHistory bool      `json:"has_history"`
	Advisory   Advisory  `json:"advisory,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Validate checks that all forecast fields are valid.
func (f *Forecast) Validate() error {
	if f.ID == "" {
		return errors.New("forecast ID must not be empty")
	}
	if !f.Selection.Complete() {
		return errors.New("forecast selection must be complete")
	}
	if f.AvgArrival < 0 {
		return errors.New("average arrival must not be negative")
	}
	switch f.Advisory {
	case AdvisoryNone, AdvisoryAbove, AdvisoryBelow:
	default:
		return errors.New("advisory must be 'above', 'below' or empty")
	}
	if f.CreatedAt.After(time.Now()) {
		return errors.New("created at must not be in the future")
	}
	return nil
}

// Session is the per-visitor form state. It is never shared between visitors.
type Session struct {
	ID        string    `json:"id"`
	Selection Selection `json:"selection"`
	Inputs    Inputs    `json:"inputs"`
	Last      *Forecast `json:"last,omitempty"`
	LastSeen  time.Time `json:"last_seen"`
}

// Validate checks that all session fields are valid.
func (s *Session) Validate() error {
	if s.ID == "" {
		return errors.New("session ID must not be empty")
	}
	if s.LastSeen.IsZero() {
		return errors.New("last seen must be set")
	}
	if s.Last != nil {
		if err := s.Last.Validate(); err != nil {
			return err
		}
	}
	return nil
}
