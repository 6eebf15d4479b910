// Package server exposes the capture service over HTTP: a form to download a
// page as PDF, a form to sign the shared browser in, downloads of earlier
// captures, health and metrics.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	web2pdf "github.com/alnah/go-web2pdf"
	"github.com/alnah/go-web2pdf/internal/assets"
	"github.com/alnah/go-web2pdf/internal/metrics"
)

// BasicAuthUser is the user name expected when a secret is configured.
const BasicAuthUser = "web2pdf"

const defaultShutdownTimeout = 30 * time.Second

// Service is the capture backend.
type Service interface {
	Capture(ctx context.Context, url string) web2pdf.CaptureResult
	EstablishSession(ctx context.Context, loginURL string) error
	Status() web2pdf.SessionStatus
	OutputDir() string
}

// KeepAliveReporter exposes the keep-alive scheduler state.
type KeepAliveReporter interface {
	State() web2pdf.KeepAliveState
}

// Allower decides whether a URL's domain may be captured.
type Allower interface {
	Allows(rawURL string) bool
}

// Config wires the server's collaborators. Service is required.
type Config struct {
	Service   Service
	KeepAlive KeepAliveReporter // nil when the scheduler is disabled
	Whitelist Allower           // nil allows every domain
	Renderer  *assets.Renderer  // nil uses the embedded pages

	Secret          string  // Basic auth password; empty disables the gate
	RateLimit       float64 // captures per second; 0 disables
	RateBurst       int
	ShutdownTimeout time.Duration

	Logger *zap.Logger
}

// Server is the HTTP front end.
type Server struct {
	svc       Service
	keepAlive KeepAliveReporter
	allow     Allower
	renderer  *assets.Renderer
	limiter   *rate.Limiter
	logger    *zap.Logger
	shutdown  time.Duration
	handler   http.Handler
}

// New builds the server and its routes.
func New(cfg Config) (*Server, error) {
	if cfg.Service == nil {
		return nil, errors.New("server: nil service")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Renderer == nil {
		r, err := assets.NewRenderer(assets.NewEmbeddedLoader(), assets.DefaultStyleName)
		if err != nil {
			return nil, fmt.Errorf("loading pages: %w", err)
		}
		cfg.Renderer = r
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	s := &Server{
		svc:       cfg.Service,
		keepAlive: cfg.KeepAlive,
		allow:     cfg.Whitelist,
		renderer:  cfg.Renderer,
		logger:    cfg.Logger.Named("http"),
		shutdown:  cfg.ShutdownTimeout,
	}
	if cfg.RateLimit > 0 {
		burst := max(cfg.RateBurst, 1)
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	s.handler = s.routes(cfg.Secret)
	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) routes(secret string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	// Health and metrics stay reachable without credentials.
	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		if secret != "" {
			r.Use(middleware.BasicAuth("web2pdf", map[string]string{BasicAuthUser: secret}))
		}
		r.Get("/", s.handleIndex)
		r.With(s.rateLimit).Post("/", s.handleCapture)
		r.Get("/login", s.handleLoginPage)
		r.Post("/login", s.handleLogin)
		r.Get("/download/{name}", s.handleDownload)
	})
	return r
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done. In-flight requests get the
// configured shutdown timeout to finish.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          zap.NewStdLog(s.logger),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdown)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	<-errCh
	s.logger.Info("server stopped")
	return nil
}
