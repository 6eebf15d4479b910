package web2pdf

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/alnah/go-web2pdf/internal/metrics"
)

// Session is one running headless browser owned by a SessionManager.
// Callers borrow it inside SessionManager.Do and must not retain it.
type Session struct {
	id      string
	conn    Conn
	created time.Time

	mu     sync.Mutex // guards target and alive for Status snapshots
	target string
	alive  bool
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Target returns the last URL the session navigated to.
func (s *Session) Target() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target
}

// Alive reports whether the control connection is still usable.
func (s *Session) Alive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alive
}

func (s *Session) setTarget(url string) {
	s.mu.Lock()
	s.target = url
	s.mu.Unlock()
}

func (s *Session) markLost() {
	s.mu.Lock()
	s.alive = false
	s.mu.Unlock()
}

// SessionStatus is a point-in-time snapshot of the managed session.
type SessionStatus struct {
	Active    bool      `json:"active"`
	ID        string    `json:"id,omitempty"`
	Target    string    `json:"target,omitempty"`
	Alive     bool      `json:"alive"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

// Launcher starts a browser and returns its control connection.
type Launcher interface {
	Launch(ctx context.Context) (Conn, error)
}

// DomainRegistry records domains with an established login session.
type DomainRegistry interface {
	Record(ctx context.Context, domain string) error
}

// SessionManager owns at most one browser session and serializes every
// operation against it. Waiters are admitted in FIFO order.
type SessionManager struct {
	launcher Launcher
	registry DomainRegistry
	channel  *Channel
	logger   *zap.Logger
	ready    readiness
	now      func() time.Time

	lock *semaphore.Weighted

	mu      sync.Mutex // guards session and closed for Status snapshots
	session *Session
	closed  bool
}

// readiness bounds the document-ready wait after a login navigation.
type readiness struct {
	timeout time.Duration
	poll    time.Duration
}

// NewSessionManager creates a manager that launches browsers with launcher
// and records established domains in registry (which may be nil).
func NewSessionManager(launcher Launcher, registry DomainRegistry, opts ...Option) *SessionManager {
	cfg := newServiceConfig(opts)
	return newSessionManager(launcher, registry, cfg)
}

func newSessionManager(launcher Launcher, registry DomainRegistry, cfg serviceConfig) *SessionManager {
	return &SessionManager{
		launcher: launcher,
		registry: registry,
		channel:  NewChannel(cfg.logger),
		logger:   cfg.logger.Named("session"),
		ready:    readiness{timeout: cfg.timeout, poll: cfg.pollInterval},
		now:      cfg.now,
		lock:     semaphore.NewWeighted(1),
	}
}

// Acquire returns the current session, creating an unauthenticated one if
// none exists or the existing one died. The handle must not be used
// concurrently with Do; prefer Do for issuing commands.
func (m *SessionManager) Acquire(ctx context.Context) (*Session, error) {
	if err := m.lock.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer m.lock.Release(1)
	return m.acquireLocked(ctx)
}

// Do runs fn with exclusive use of the shared session, creating it if
// needed. Operations queue until the session is free or ctx is done.
// An error wrapping ErrSessionLost retires the session so the next
// operation starts a fresh one.
func (m *SessionManager) Do(ctx context.Context, fn func(ctx context.Context, s *Session) error) error {
	if err := m.lock.Acquire(ctx, 1); err != nil {
		return err
	}
	defer m.lock.Release(1)

	s, err := m.acquireLocked(ctx)
	if err != nil {
		return err
	}

	err = fn(ctx, s)
	if errors.Is(err, ErrSessionLost) || !s.Alive() {
		m.logger.Warn("retiring lost session", zap.String("session_id", s.id), zap.Error(err))
		m.teardownLocked()
	}
	return err
}

// EstablishFor replaces the current session with a fresh one, navigates it
// to loginURL and records the login domain. On launch or navigation
// failure no session is left behind.
func (m *SessionManager) EstablishFor(ctx context.Context, loginURL string) error {
	domain, err := domainOf(loginURL)
	if err != nil {
		return err
	}

	if err := m.lock.Acquire(ctx, 1); err != nil {
		return err
	}
	defer m.lock.Release(1)

	if m.isClosed() {
		return ErrClosed
	}

	m.teardownLocked()

	s, err := m.startLocked(ctx)
	if err != nil {
		metrics.Establishments.WithLabelValues("startup_error").Inc()
		return err
	}

	lctx, cancel := context.WithTimeout(ctx, m.ready.timeout)
	defer cancel()

	if err := navigateWithin(ctx, lctx, m.channel, s, loginURL, m.ready.timeout); err != nil {
		m.teardownLocked()
		metrics.Establishments.WithLabelValues("navigation_error").Inc()
		return fmt.Errorf("%w: %s: %w", ErrNavigation, loginURL, err)
	}

	// Login pages often hold long-lived connections open; a slow ready
	// state does not invalidate the session.
	if err := waitReady(lctx, m.channel, s, m.ready.timeout, m.ready.poll); err != nil {
		if ctx.Err() != nil {
			m.teardownLocked()
			return err
		}
		if errors.Is(err, ErrSessionLost) {
			m.teardownLocked()
			metrics.Establishments.WithLabelValues("navigation_error").Inc()
			return fmt.Errorf("%w: %s: %w", ErrNavigation, loginURL, err)
		}
		m.logger.Warn("login page not ready", zap.String("url", loginURL), zap.Error(err))
	}

	if m.registry != nil {
		if err := m.registry.Record(ctx, domain); err != nil {
			metrics.Establishments.WithLabelValues("registry_error").Inc()
			return fmt.Errorf("%w: recording %s: %v", ErrRegistry, domain, err)
		}
	}

	metrics.Establishments.WithLabelValues("ok").Inc()
	m.logger.Info("session established",
		zap.String("session_id", s.id),
		zap.String("domain", domain))
	return nil
}

// Teardown releases the current session, if any. It waits for an in-flight
// operation to finish first.
func (m *SessionManager) Teardown() {
	_ = m.lock.Acquire(context.Background(), 1)
	defer m.lock.Release(1)
	m.teardownLocked()
}

// Close tears down the session and rejects further operations.
func (m *SessionManager) Close() error {
	_ = m.lock.Acquire(context.Background(), 1)
	defer m.lock.Release(1)

	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	m.teardownLocked()
	return nil
}

// Status returns a snapshot of the managed session without waiting for
// in-flight operations.
func (m *SessionManager) Status() SessionStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return SessionStatus{}
	}
	return SessionStatus{
		Active:    true,
		ID:        m.session.id,
		Target:    m.session.Target(),
		Alive:     m.session.Alive(),
		CreatedAt: m.session.created,
	}
}

// acquireLocked returns the live session or starts one. Requires the lock.
func (m *SessionManager) acquireLocked(ctx context.Context) (*Session, error) {
	if m.isClosed() {
		return nil, ErrClosed
	}

	m.mu.Lock()
	s := m.session
	m.mu.Unlock()

	if s != nil && s.Alive() {
		return s, nil
	}
	if s != nil {
		m.logger.Info("replacing dead session", zap.String("session_id", s.id))
		m.teardownLocked()
	}
	return m.startLocked(ctx)
}

// startLocked launches a browser and installs it as the current session.
func (m *SessionManager) startLocked(ctx context.Context) (*Session, error) {
	if m.launcher == nil {
		return nil, fmt.Errorf("%w: no launcher configured", ErrSessionStartup)
	}

	conn, err := m.launcher.Launch(ctx)
	if err != nil {
		m.logger.Error("browser launch failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrSessionStartup, err)
	}
	if conn == nil {
		return nil, fmt.Errorf("%w: launcher returned no connection", ErrSessionStartup)
	}

	s := &Session{
		id:      uuid.NewString(),
		conn:    conn,
		alive:   true,
		created: m.now(),
	}

	m.mu.Lock()
	m.session = s
	m.mu.Unlock()

	metrics.SessionsStarted.Inc()
	metrics.SessionActive.Set(1)
	m.logger.Info("session started", zap.String("session_id", s.id), zap.Int("pid", conn.PID()))
	return s, nil
}

// teardownLocked closes and forgets the current session. Idempotent.
func (m *SessionManager) teardownLocked() {
	m.mu.Lock()
	s := m.session
	m.session = nil
	m.mu.Unlock()

	if s == nil {
		return
	}

	s.markLost()
	if err := s.conn.Close(); err != nil {
		m.logger.Warn("closing session", zap.String("session_id", s.id), zap.Error(err))
	}
	metrics.SessionActive.Set(0)
	m.logger.Info("session torn down", zap.String("session_id", s.id))
}

func (m *SessionManager) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
