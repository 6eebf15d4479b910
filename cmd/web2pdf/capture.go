package main

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"

	web2pdf "github.com/alnah/go-web2pdf"
	"github.com/alnah/go-web2pdf/internal/fileutil"
	"github.com/alnah/go-web2pdf/internal/logging"
)

// runCapture captures each URL argument through one shared session and
// prints the written paths. With --login the session is signed in first.
func runCapture(ctx context.Context, args []string, env *Environment) error {
	f, fs, urls, err := parseCaptureFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	if len(urls) == 0 && f.login == "" {
		printCaptureUsage(env.Stderr)
		return ErrNoURL
	}
	for _, u := range slices.Concat(urls, []string{f.login}) {
		if u != "" && !fileutil.IsURL(u) {
			return fmt.Errorf("%w: %q", web2pdf.ErrInvalidURL, u)
		}
	}

	cfg, err := loadConfig(&f.common)
	if err != nil {
		return err
	}
	applyBrowserFlags(fs, &f.browser, cfg)
	applyOutputFlags(fs, &f.output, cfg)
	applyStoreFlags(fs, &f.store, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	// One-shot runs log to stderr in console form, warnings only by default.
	level := "warn"
	if f.common.verbose || f.common.quiet {
		level = logLevel(&f.common, level)
	}
	logger, err := logging.NewWriter(env.Stderr, level, logging.FormatConsole)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

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

	if f.login != "" {
		if err := svc.EstablishSession(ctx, f.login); err != nil {
			return fmt.Errorf("login %s: %w%s", f.login, err, hintFor(err))
		}
		if !f.common.quiet {
			fmt.Fprintf(env.Stderr, "session established for %s\n", f.login)
		}
	}

	var firstErr error
	failed := 0
	for _, u := range urls {
		res := svc.Capture(ctx, u)
		if res.Err != nil {
			failed++
			if firstErr == nil {
				firstErr = res.Err
			}
			fmt.Fprintf(env.Stderr, "%s: %v%s\n", u, res.Err, hintFor(res.Err))
			continue
		}
		fmt.Fprintln(env.Stdout, res.Path)
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d: %w", ErrCaptures, failed, len(urls), firstErr)
	}
	return nil
}
