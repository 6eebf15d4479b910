package web2pdf

import (
	"context"
	"errors"
	"iter"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/alnah/go-web2pdf/internal/metrics"
)

// DefaultKeepAliveInterval is the delay between keep-alive passes.
const DefaultKeepAliveInterval = 6 * time.Hour

// DomainSource lists the domains the keep-alive job visits.
type DomainSource interface {
	All(ctx context.Context) iter.Seq2[string, error]
}

// Report summarizes one keep-alive pass.
type Report struct {
	Attempted int  `json:"attempted"`
	Failed    int  `json:"failed"`
	Skipped   bool `json:"skipped,omitempty"` // another pass was already running
}

// KeepAliveState is a snapshot of the scheduler.
type KeepAliveState struct {
	Interval time.Duration `json:"interval"`
	LastRun  time.Time     `json:"last_run,omitzero"`
	Last     Report        `json:"last"`
	Running  bool          `json:"running"`
}

// KeepAlive periodically re-visits every registered domain through the
// shared session so its cookies stay fresh. At most one pass runs at a time.
type KeepAlive struct {
	manager  *SessionManager
	source   DomainSource
	interval time.Duration
	timeout  time.Duration
	poll     time.Duration
	logger   *zap.Logger
	now      func() time.Time

	running atomic.Bool

	mu      sync.Mutex
	lastRun time.Time
	last    Report
}

// NewKeepAlive creates a scheduler visiting source's domains through
// manager every interval. A non-positive interval uses
// DefaultKeepAliveInterval.
func NewKeepAlive(manager *SessionManager, source DomainSource, interval time.Duration, opts ...Option) *KeepAlive {
	cfg := newServiceConfig(opts)
	if interval <= 0 {
		interval = DefaultKeepAliveInterval
	}
	return &KeepAlive{
		manager:  manager,
		source:   source,
		interval: interval,
		timeout:  cfg.timeout,
		poll:     cfg.pollInterval,
		logger:   cfg.logger.Named("keepalive"),
		now:      cfg.now,
	}
}

// Run executes a pass every interval until ctx is done. With immediate set,
// the first pass starts right away.
func (k *KeepAlive) Run(ctx context.Context, immediate bool) error {
	k.logger.Info("keep-alive started", zap.Duration("interval", k.interval))
	defer k.logger.Info("keep-alive stopped")

	if immediate {
		k.RunOnce(ctx)
	}

	ticker := time.NewTicker(k.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			k.RunOnce(ctx)
		}
	}
}

// RunOnce visits every registered domain once. A visit failure is logged and
// counted but does not stop the pass. If a pass is already running, RunOnce
// returns immediately with Skipped set.
func (k *KeepAlive) RunOnce(ctx context.Context) Report {
	if !k.running.CompareAndSwap(false, true) {
		k.logger.Debug("keep-alive pass already running")
		return Report{Skipped: true}
	}
	defer k.running.Store(false)

	var rep Report
	for domain, err := range k.source.All(ctx) {
		if err != nil {
			k.logger.Error("listing domains", zap.Error(err))
			break
		}
		if ctx.Err() != nil {
			break
		}

		rep.Attempted++
		if err := k.visit(ctx, domain); err != nil {
			rep.Failed++
			metrics.KeepAliveVisits.WithLabelValues("error").Inc()
			k.logger.Warn("keep-alive visit failed", zap.String("domain", domain), zap.Error(err))
			continue
		}
		metrics.KeepAliveVisits.WithLabelValues("ok").Inc()
		k.logger.Debug("keep-alive visit", zap.String("domain", domain))
	}

	finished := k.now()
	k.mu.Lock()
	k.lastRun = finished
	k.last = rep
	k.mu.Unlock()
	metrics.KeepAliveLastRun.Set(float64(finished.Unix()))

	k.logger.Info("keep-alive pass done",
		zap.Int("attempted", rep.Attempted),
		zap.Int("failed", rep.Failed))
	return rep
}

// visit navigates the shared session to https://{domain}. A panic inside the
// visit is turned into an error so the pass continues.
func (k *KeepAlive) visit(ctx context.Context, domain string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New("keep-alive visit panic")
			k.logger.Error("keep-alive visit panic", zap.String("domain", domain), zap.Any("panic", r))
		}
	}()

	url := "https://" + domain
	return k.manager.Do(ctx, func(ctx context.Context, s *Session) error {
		return loadPage(ctx, k.manager.channel, s, url, k.timeout, k.poll)
	})
}

// State returns a snapshot of the scheduler.
func (k *KeepAlive) State() KeepAliveState {
	k.mu.Lock()
	defer k.mu.Unlock()
	return KeepAliveState{
		Interval: k.interval,
		LastRun:  k.lastRun,
		Last:     k.last,
		Running:  k.running.Load(),
	}
}
