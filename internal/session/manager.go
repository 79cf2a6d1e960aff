// Package session keeps one dashboard Session per browser session and expires idle ones.
package session

import (
	"context"
	"sync"
	"time"

	"shoptrends/domain/core"
	"shoptrends/internal"
	"shoptrends/internal/dashboard"
	"shoptrends/internal/errors"
)

// Manager maps session ids to sessions. The map is guarded by an RWMutex; each
// Session serialises its own events.
type Manager struct {
	board  *dashboard.Dashboard
	ttl    time.Duration
	logger *internal.Logger

	mu       sync.RWMutex
	sessions map[core.SessionID]*dashboard.Session
	onExpire []func(core.SessionID)

	now func() time.Time
}

// NewManager creates a manager; ttl <= 0 disables expiry
func NewManager(board *dashboard.Dashboard, ttl time.Duration, logger *internal.Logger) *Manager {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Manager{
		board:    board,
		ttl:      ttl,
		logger:   logger,
		sessions: make(map[core.SessionID]*dashboard.Session),
		now:      time.Now,
	}
}

// OnExpire registers a callback run for every session removed by Sweep or Delete
func (m *Manager) OnExpire(fn func(core.SessionID)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onExpire = append(m.onExpire, fn)
}

// Create starts a session at the default filter state
func (m *Manager) Create() *dashboard.Session {
	s := m.board.NewSession(core.NewSessionID())
	s.Touch(m.now())

	m.mu.Lock()
	m.sessions[s.ID] = s
	n := len(m.sessions)
	m.mu.Unlock()

	m.logger.Info("[Session] Created %s (%d active)", s.ID, n)
	return s
}

// Get returns a live session and records activity on it. Malformed, unknown and
// expired ids are NOT_FOUND.
func (m *Manager) Get(id string) (*dashboard.Session, error) {
	sid, err := core.ParseSessionID(id)
	if err != nil {
		return nil, errors.NotFound("session " + id)
	}

	m.mu.RLock()
	s, ok := m.sessions[sid]
	m.mu.RUnlock()
	if !ok {
		return nil, errors.NotFound("session " + id)
	}

	now := m.now()
	if m.expired(s, now) {
		m.remove(sid)
		return nil, errors.NotFound("session " + id)
	}
	s.Touch(now)
	return s, nil
}

// Delete ends a session
func (m *Manager) Delete(id core.SessionID) bool {
	return m.remove(id)
}

// Len returns the number of tracked sessions
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep removes every session idle for longer than the TTL and returns how many went
func (m *Manager) Sweep() int {
	if m.ttl <= 0 {
		return 0
	}
	now := m.now()

	m.mu.RLock()
	var stale []core.SessionID
	for id, s := range m.sessions {
		if m.expired(s, now) {
			stale = append(stale, id)
		}
	}
	m.mu.RUnlock()

	removed := 0
	for _, id := range stale {
		if m.remove(id) {
			removed++
		}
	}
	if removed > 0 {
		m.logger.Info("[Session] Expired %d idle sessions (%d active)", removed, m.Len())
	}
	return removed
}

// Run sweeps every interval until ctx is done
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	if m.ttl <= 0 {
		return
	}
	if interval <= 0 {
		interval = m.ttl / 2
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

func (m *Manager) expired(s *dashboard.Session, now time.Time) bool {
	return m.ttl > 0 && now.Sub(s.LastSeen()) > m.ttl
}

func (m *Manager) remove(id core.SessionID) bool {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	hooks := m.onExpire
	m.mu.Unlock()

	if ok {
		for _, fn := range hooks {
			fn(id)
		}
	}
	return ok
}
