package main

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	web2pdf "github.com/alnah/go-web2pdf"
	"github.com/alnah/go-web2pdf/internal/config"
	"github.com/alnah/go-web2pdf/internal/fileutil"
	"github.com/alnah/go-web2pdf/internal/hints"
	"github.com/alnah/go-web2pdf/internal/pdfcheck"
	"github.com/alnah/go-web2pdf/internal/registry"
)

// loadConfig resolves the config file and applies environment overrides.
// Without --config or WEB2PDF_CONFIG, a missing default file falls back to
// built-in defaults; a named file must exist.
func loadConfig(f *commonFlags) (*config.Config, error) {
	env := loadEnvConfig()

	name := f.config
	if name == "" {
		name = env.ConfigPath
	}
	explicit := name != ""
	if !explicit {
		name = config.DefaultName
	}

	cfg, err := config.LoadConfig(name)
	switch {
	case err == nil:
	case errors.Is(err, config.ErrConfigNotFound) && !explicit:
		cfg = config.DefaultConfig()
	case errors.Is(err, config.ErrConfigNotFound):
		return nil, fmt.Errorf("%w%s", err, hints.ForConfigNotFound(config.SearchPaths(name)))
	default:
		return nil, err
	}

	applyEnvConfig(env, cfg)
	return cfg, nil
}

// logLevel lets --verbose and --quiet override the configured level.
func logLevel(f *commonFlags, configured string) string {
	switch {
	case f.verbose:
		return "debug"
	case f.quiet:
		return "error"
	default:
		return configured
	}
}

// browserConfig maps the browser section onto the launcher settings.
func browserConfig(cfg *config.Config) web2pdf.BrowserConfig {
	return web2pdf.BrowserConfig{
		Bin:              cfg.Browser.Bin,
		ControlURL:       cfg.Browser.ControlURL,
		DebugPort:        cfg.Browser.DebugPort,
		UserDataDir:      cfg.Browser.UserDataDir,
		Stealth:          cfg.Browser.Stealth,
		IgnoreCertErrors: cfg.Browser.IgnoreCertErrors,
	}
}

// serviceOptions maps the capture section onto library options. cfg must be
// validated.
func serviceOptions(cfg *config.Config, logger *zap.Logger, env *Environment) []web2pdf.Option {
	opts := []web2pdf.Option{
		web2pdf.WithOutputDir(cfg.Capture.OutputDir),
		web2pdf.WithTimeout(cfg.Capture.Timeout),
		web2pdf.WithPollInterval(cfg.Capture.PollInterval),
		web2pdf.WithStampFormat(cfg.Capture.StampFormat),
		web2pdf.WithPageSettings(cfg.PageSettings()),
		web2pdf.WithLogger(logger),
		web2pdf.WithClock(env.Now),
	}
	if cfg.Capture.Verify {
		opts = append(opts, web2pdf.WithInspector(pdfcheck.New()))
	}
	return opts
}

// openService checks the output directory, opens the registry and builds
// the capture service. Close the returned store after the service.
func openService(cfg *config.Config, logger *zap.Logger, env *Environment) (*web2pdf.Service, registry.Store, error) {
	if err := fileutil.CheckWritableDir(cfg.Capture.OutputDir); err != nil {
		return nil, nil, fmt.Errorf("%w: %w%s", web2pdf.ErrPersist, err, hints.ForOutputDirectory())
	}

	store, err := registry.Open(cfg.Registry.Backend, cfg.Registry.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", web2pdf.ErrRegistry, err)
	}

	launcher := env.Launcher(browserConfig(cfg), logger)
	return web2pdf.New(launcher, store, serviceOptions(cfg, logger, env)...), store, nil
}

// hintFor returns an actionable hint for a capture or login failure.
func hintFor(err error) string {
	switch {
	case errors.Is(err, web2pdf.ErrSessionStartup):
		return hints.ForBrowserConnect()
	case errors.Is(err, web2pdf.ErrPageNotReady):
		return hints.ForTimeout()
	case errors.Is(err, web2pdf.ErrPersist):
		return hints.ForOutputDirectory()
	default:
		return ""
	}
}
