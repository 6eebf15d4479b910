package web2pdf

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Service captures web pages to PDF through one shared browser session.
// It is safe for concurrent use; browser work is serialized.
type Service struct {
	cfg      serviceConfig
	manager  *SessionManager
	capturer *Capturer
	logger   *zap.Logger
}

// New creates a Service that launches browsers with launcher and records
// login domains in registry (which may be nil).
func New(launcher Launcher, registry DomainRegistry, opts ...Option) *Service {
	cfg := newServiceConfig(opts)
	return &Service{
		cfg:      cfg,
		manager:  newSessionManager(launcher, registry, cfg),
		capturer: newCapturer(cfg),
		logger:   cfg.logger,
	}
}

// Capture renders url to a PDF in the output directory using the service
// defaults.
func (s *Service) Capture(ctx context.Context, url string) CaptureResult {
	return s.CaptureWith(ctx, CaptureRequest{URL: url})
}

// CaptureWith runs one capture on the shared session. The session is
// created if none exists; a session lost mid-capture is retired so the next
// call starts a fresh one.
func (s *Service) CaptureWith(ctx context.Context, req CaptureRequest) CaptureResult {
	if _, err := domainOf(req.URL); err != nil {
		s.logger.Warn("capture rejected", zap.String("url", req.URL), zap.Error(err))
		return CaptureResult{Err: err}
	}

	var res CaptureResult
	err := s.manager.Do(ctx, func(ctx context.Context, sess *Session) error {
		res = s.capturer.Capture(ctx, sess, req)
		return res.Err
	})
	if err != nil && res.Err == nil {
		s.logger.Error("capture failed", zap.String("url", req.URL), zap.Error(err))
		res = CaptureResult{Err: err}
	}
	return res
}

// EstablishSession replaces the shared session with one logged in at
// loginURL and records the login domain.
func (s *Service) EstablishSession(ctx context.Context, loginURL string) error {
	if err := s.manager.EstablishFor(ctx, loginURL); err != nil {
		return fmt.Errorf("establishing session: %w", err)
	}
	return nil
}

// Manager returns the session manager.
func (s *Service) Manager() *SessionManager { return s.manager }

// Status returns a snapshot of the shared session.
func (s *Service) Status() SessionStatus { return s.manager.Status() }

// OutputDir returns the directory captures are written to.
func (s *Service) OutputDir() string { return s.cfg.outputDir }

// Close tears down the browser session.
func (s *Service) Close() error {
	return s.manager.Close()
}
