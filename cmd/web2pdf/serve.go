package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	web2pdf "github.com/alnah/go-web2pdf"
	"github.com/alnah/go-web2pdf/internal/assets"
	"github.com/alnah/go-web2pdf/internal/config"
	"github.com/alnah/go-web2pdf/internal/hints"
	"github.com/alnah/go-web2pdf/internal/logging"
	"github.com/alnah/go-web2pdf/internal/server"
	"github.com/alnah/go-web2pdf/internal/whitelist"
)

// runServe starts the HTTP server, the keep-alive scheduler and the
// whitelist watcher, and blocks until ctx is canceled or one of them fails.
func runServe(ctx context.Context, args []string, env *Environment) error {
	f, fs, err := parseServeFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("%w: unexpected argument %q", ErrBadFlag, fs.Arg(0))
	}

	cfg, err := loadConfig(&f.common)
	if err != nil {
		return err
	}
	applyServeFlags(fs, f, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(logLevel(&f.common, cfg.Log.Level), cfg.Log.Format)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	return serve(ctx, cfg, logger, env)
}

// serve wires the components for a validated cfg.
func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger, env *Environment) error {
	svc, store, err := openService(cfg, logger, env)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	defer func() {
		if err := svc.Close(); err != nil {
			logger.Warn("closing browser session", zap.Error(err))
		}
	}()

	var list *whitelist.List
	if cfg.Whitelist.Path != "" {
		list, err = whitelist.Load(cfg.Whitelist.Path, logger)
		if err != nil {
			return fmt.Errorf("%w%s", err, hints.ForWhitelist(cfg.Whitelist.Path))
		}
	}

	resolver, err := assets.NewResolver(cfg.Assets.BasePath)
	if err != nil {
		return err
	}
	if resolver.HasCustomLoader() {
		logger.Info("custom assets enabled", zap.String("dir", cfg.Assets.BasePath))
	}
	renderer, err := assets.NewRenderer(resolver, cfg.Assets.Style)
	if err != nil {
		return err
	}

	srvCfg := server.Config{
		Service:         svc,
		Renderer:        renderer,
		Secret:          cfg.Server.Secret,
		RateLimit:       cfg.Server.RateLimit,
		RateBurst:       cfg.Server.RateBurst,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		Logger:          logger,
	}
	if list != nil {
		srvCfg.Whitelist = list
	}

	var keepAlive *web2pdf.KeepAlive
	if cfg.KeepAlive.Enabled {
		keepAlive = web2pdf.NewKeepAlive(svc.Manager(), store, cfg.KeepAlive.Interval,
			serviceOptions(cfg, logger, env)...)
		srvCfg.KeepAlive = keepAlive
	}

	srv, err := server.New(srvCfg)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx, cfg.Server.Listen)
	})
	if keepAlive != nil {
		g.Go(func() error {
			return keepAlive.Run(gctx, cfg.KeepAlive.Immediate)
		})
	}
	if list != nil && cfg.Whitelist.Watch {
		g.Go(func() error {
			return list.Watch(gctx)
		})
	}

	// Establish the session eagerly; failures are retried by the first
	// request that needs a browser.
	g.Go(func() error {
		if _, err := svc.Manager().Acquire(gctx); err != nil && gctx.Err() == nil {
			logger.Warn("browser not ready", zap.Error(err))
		}
		return nil
	})

	return g.Wait()
}
