package web2pdf

import (
	"time"

	"go.uber.org/zap"
)

// Defaults for capture and session readiness.
const (
	DefaultTimeout      = 30 * time.Second
	DefaultPollInterval = 500 * time.Millisecond
	DefaultOutputDir    = "output"
	DefaultStampFormat  = "YYMMDD-HHmmss"
)

// Inspector verifies a written PDF and reports its page count.
type Inspector interface {
	PageCount(path string) (int, error)
}

// Option configures a Service, SessionManager or Capturer.
type Option func(*serviceConfig)

// serviceConfig holds the settings shared by the library components.
type serviceConfig struct {
	logger       *zap.Logger
	timeout      time.Duration
	pollInterval time.Duration
	outputDir    string
	stampFormat  string
	page         *PageSettings
	inspector    Inspector
	now          func() time.Time
}

func newServiceConfig(opts []Option) serviceConfig {
	cfg := serviceConfig{
		logger:       zap.NewNop(),
		timeout:      DefaultTimeout,
		pollInterval: DefaultPollInterval,
		outputDir:    DefaultOutputDir,
		stampFormat:  DefaultStampFormat,
		page:         DefaultPageSettings(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithTimeout sets the readiness budget for page loads.
// Panics if d is not positive.
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("web2pdf: timeout must be positive")
	}
	return func(c *serviceConfig) {
		c.timeout = d
	}
}

// WithPollInterval sets the delay between document readiness checks.
// Panics if d is not positive.
func WithPollInterval(d time.Duration) Option {
	if d <= 0 {
		panic("web2pdf: poll interval must be positive")
	}
	return func(c *serviceConfig) {
		c.pollInterval = d
	}
}

// WithOutputDir sets the directory PDFs are written to.
func WithOutputDir(dir string) Option {
	return func(c *serviceConfig) {
		if dir != "" {
			c.outputDir = dir
		}
	}
}

// WithStampFormat sets the timestamp layout appended to file names, using
// tokens such as YYYY, MM, DD, HH, mm and ss.
func WithStampFormat(format string) Option {
	return func(c *serviceConfig) {
		if format != "" {
			c.stampFormat = format
		}
	}
}

// WithPageSettings sets the default print layout.
func WithPageSettings(p *PageSettings) Option {
	return func(c *serviceConfig) {
		if p != nil {
			c.page = p
		}
	}
}

// WithInspector enables post-write verification of captured PDFs.
func WithInspector(i Inspector) Option {
	return func(c *serviceConfig) {
		c.inspector = i
	}
}

// WithLogger sets the logger. A nil logger keeps logging disabled.
func WithLogger(l *zap.Logger) Option {
	return func(c *serviceConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithClock overrides the time source used for stamps and session metadata.
func WithClock(now func() time.Time) Option {
	return func(c *serviceConfig) {
		if now != nil {
			c.now = now
		}
	}
}
