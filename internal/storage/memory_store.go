package storage

import (
	"sort"
	"sync"
	"time"
)

// SourceStatus is the outcome of the latest fetches of one sheet. Only the
// outcome is kept, never the fetched rows.
type SourceStatus struct {
	Sheet               string        `json:"sheet"`
	LastAttempt         time.Time     `json:"lastAttempt"`
	LastSuccess         time.Time     `json:"lastSuccess,omitempty"`
	Rows                int           `json:"rows"`
	LastError           string        `json:"lastError,omitempty"`
	ConsecutiveFailures int           `json:"consecutiveFailures"`
	Duration            time.Duration `json:"durationNs"`
}

func (s SourceStatus) Healthy() bool {
	return s.LastError == "" && !s.LastSuccess.IsZero()
}

type MemoryStore struct {
	mu        sync.RWMutex
	statuses  map[string]SourceStatus
	lastFetch time.Time
	now       func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		statuses: make(map[string]SourceStatus),
		now:      time.Now,
	}
}

// RecordFetch stores the outcome of one sheet fetch.
func (s *MemoryStore) RecordFetch(sheet string, rows int, err error, took time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	st := s.statuses[sheet]
	st.Sheet = sheet
	st.LastAttempt = now
	st.Duration = took
	if err != nil {
		st.LastError = err.Error()
		st.ConsecutiveFailures++
	} else {
		st.LastError = ""
		st.ConsecutiveFailures = 0
		st.LastSuccess = now
		st.Rows = rows
		s.lastFetch = now
	}
	s.statuses[sheet] = st
}

// Statuses returns every known sheet status sorted by sheet name.
func (s *MemoryStore) Statuses() []SourceStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]SourceStatus, 0, len(s.statuses))
	for _, st := range s.statuses {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sheet < out[j].Sheet })
	return out
}

func (s *MemoryStore) Status(sheet string) (SourceStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.statuses[sheet]
	return st, ok
}

// GetLastFetchTime is the time of the latest successful fetch of any sheet.
func (s *MemoryStore) GetLastFetchTime() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastFetch
}

// HasData reports whether any sheet has been fetched successfully.
func (s *MemoryStore) HasData() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.lastFetch.IsZero()
}
