// Package storage provides thread-safe in-memory storage for per-visitor form
// state. Each session holds the visitor's in-flight selection and the forecasts
// they have requested; nothing here is shared between visitors.
//
// Storage is bounded: expired and excess sessions are dropped by
// RotateSessions and each session keeps only its most recent forecasts.
package storage

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/KaranKumar0402/Commodity-price/internal/models"
)

// Storage provides thread-safe in-memory session storage
type Storage struct {
	sessions  map[string]*models.Session
	forecasts map[string][]models.Forecast
	mu        sync.RWMutex

	// Configuration
	maxSessions            int
	maxForecastsPerSession int
	ttl                    time.Duration
	now                    func() time.Time
}

// New creates a new Storage instance
func New(maxSessions, maxForecastsPerSession int, ttl time.Duration) *Storage {
	return &Storage{
		sessions:               make(map[string]*models.Session),
		forecasts:              make(map[string][]models.Forecast),
		maxSessions:            maxSessions,
		maxForecastsPerSession: maxForecastsPerSession,
		ttl:                    ttl,
		now:                    time.Now,
	}
}

// PutSession adds or replaces a session, stamping its last-seen time
func (s *Storage) PutSession(session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *session
	stored.LastSeen = s.now()
	if err := stored.Validate(); err != nil {
		return fmt.Errorf("invalid session: %w", err)
	}

	s.sessions[stored.ID] = &stored
	return nil
}

// GetSession retrieves a copy of a session by ID
func (s *Storage) GetSession(id string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, exists := s.sessions[id]
	if !exists {
		return nil, fmt.Errorf("session not found: %s", id)
	}
	out := *session
	return &out, nil
}

// AddForecast records a forecast for a session. The oldest forecasts beyond
// the per-session limit are dropped.
func (s *Storage) AddForecast(sessionID string, forecast *models.Forecast) error {
	if err := forecast.Validate(); err != nil {
		return fmt.Errorf("invalid forecast: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[sessionID]; !exists {
		return fmt.Errorf("session not found: %s", sessionID)
	}

	list := append(s.forecasts[sessionID], *forecast)
	if len(list) > s.maxForecastsPerSession {
		list = list[len(list)-s.maxForecastsPerSession:]
	}
	s.forecasts[sessionID] = list
	return nil
}

// GetForecasts returns a session's forecasts, newest first
func (s *Storage) GetForecasts(sessionID string) []models.Forecast {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.forecasts[sessionID]
	out := make([]models.Forecast, len(list))
	for i := range list {
		out[len(list)-1-i] = list[i]
	}
	return out
}

// Len returns the number of live sessions
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// RotateSessions removes sessions idle longer than the TTL, then the least
// recently seen sessions beyond the max limit. It returns how many were removed.
func (s *Storage) RotateSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	cutoff := s.now().Add(-s.ttl)
	for id, session := range s.sessions {
		if session.LastSeen.Before(cutoff) {
			delete(s.sessions, id)
			delete(s.forecasts, id)
			removed++
		}
	}

	if len(s.sessions) <= s.maxSessions {
		return removed
	}

	type sessionWithTime struct {
		id       string
		lastSeen time.Time
	}

	var sessionList []sessionWithTime
	for id, session := range s.sessions {
		sessionList = append(sessionList, sessionWithTime{id: id, lastSeen: session.LastSeen})
	}

	// Sort by last seen (oldest first)
	sort.Slice(sessionList, func(i, j int) bool {
		return sessionList[i].lastSeen.Before(sessionList[j].lastSeen)
	})

	toRemove := len(s.sessions) - s.maxSessions
	for i := 0; i < toRemove; i++ {
		delete(s.sessions, sessionList[i].id)
		delete(s.forecasts, sessionList[i].id)
		removed++
	}

	return removed
}
