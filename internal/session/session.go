// Package session keeps per-user state: one search controller, one shopping
// list and one weekly plan per session.
package session

import (
	"context"
	"sync"
	"time"

	"recipe-finder/internal/planner"
	"recipe-finder/internal/search"
	"recipe-finder/internal/shopping"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const DefaultTTL = 2 * time.Hour

// Session groups the state owners of one user.
type Session struct {
	ID       string
	Search   *search.Controller
	Shopping *shopping.List
	Plan     *planner.WeeklyPlan

	cancel context.CancelFunc

	mu       sync.Mutex
	lastSeen time.Time
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

// LastSeen returns the time of the last access.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) close() {
	s.cancel()
	s.Search.Close()
}

// Gauge receives the number of live sessions.
type Gauge interface {
	SetActiveSessions(n int)
}

// Manager creates, looks up and expires sessions.
type Manager struct {
	gateway  search.Gateway
	logger   *zap.Logger
	ttl      time.Duration
	observer search.Observer
	gauge    Gauge
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	sessions map[string]*Session
}

// Option configures a Manager.
type Option func(*Manager)

// WithTTL sets how long an idle session lives.
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// WithObserver is passed to every session's search controller.
func WithObserver(o search.Observer) Option {
	return func(m *Manager) { m.observer = o }
}

// WithGauge reports the session count after every change.
func WithGauge(g Gauge) Option {
	return func(m *Manager) { m.gauge = g }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a manager. Cancelling ctx aborts the fetches of every
// session.
func NewManager(ctx context.Context, gateway search.Gateway, logger *zap.Logger, opts ...Option) *Manager {
	m := &Manager{
		gateway:  gateway,
		logger:   logger,
		ttl:      DefaultTTL,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.ctx, m.cancel = context.WithCancel(ctx)
	return m
}

// Create starts a session with a random ID.
func (m *Manager) Create() *Session {
	return m.GetOrCreate(uuid.NewString())
}

// Get returns a live session and refreshes its idle timer.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	now := m.now()
	if m.expired(s, now) {
		m.remove(id, s)
		return nil, false
	}
	s.touch(now)
	return s, true
}

// GetOrCreate returns the session with the given ID, creating it if needed.
func (m *Manager) GetOrCreate(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if s, ok := m.sessions[id]; ok {
		if !m.expired(s, now) {
			s.touch(now)
			return s
		}
		m.remove(id, s)
	}

	ctx, cancel := context.WithCancel(m.ctx)
	var copts []search.Option
	if m.observer != nil {
		copts = append(copts, search.WithObserver(m.observer))
	}
	s := &Session{
		ID:       id,
		Search:   search.NewController(ctx, m.gateway, m.logger.With(zap.String("session", id)), copts...),
		Shopping: shopping.NewList(),
		Plan:     planner.NewWeeklyPlan(now),
		cancel:   cancel,
		lastSeen: now,
	}
	m.sessions[id] = s
	m.report()
	m.logger.Debug("session created", zap.String("session", id))
	return s
}

// Sweep drops sessions idle for longer than the TTL and returns how many.
func (m *Manager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	n := 0
	for id, s := range m.sessions {
		if m.expired(s, now) {
			m.remove(id, s)
			n++
		}
	}
	if n > 0 {
		m.logger.Info("expired sessions removed", zap.Int("count", n))
	}
	return n
}

// Run sweeps every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
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

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Close cancels every in-flight fetch and forgets all sessions.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, s := range m.sessions {
		m.remove(id, s)
	}
	m.cancel()
}

func (m *Manager) expired(s *Session, now time.Time) bool {
	return now.Sub(s.LastSeen()) > m.ttl
}

// remove must be called with mu held.
func (m *Manager) remove(id string, s *Session) {
	s.close()
	delete(m.sessions, id)
	m.report()
}

func (m *Manager) report() {
	if m.gauge != nil {
		m.gauge.SetActiveSessions(len(m.sessions))
	}
}
