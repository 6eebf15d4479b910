package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	web2pdf "github.com/alnah/go-web2pdf"
	"github.com/alnah/go-web2pdf/internal/dateutil"
	"github.com/alnah/go-web2pdf/internal/fileutil"
	"github.com/alnah/go-web2pdf/internal/registry"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// DefaultName is the config name searched when none is given.
const DefaultName = "web2pdf"

// Field length limits.
const (
	MaxListenLength = 256
	MaxURLLength    = 2048 // Browser limit
	MaxPathLength   = 4096
	MaxSecretLength = 256
)

// Config holds all configuration for the web2pdf server and CLI.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Browser   BrowserConfig   `yaml:"browser"`
	Capture   CaptureConfig   `yaml:"capture"`
	KeepAlive KeepAliveConfig `yaml:"keepAlive"`
	Registry  RegistryConfig  `yaml:"registry"`
	Whitelist WhitelistConfig `yaml:"whitelist"`
	Assets    AssetsConfig    `yaml:"assets"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig defines the HTTP listener.
type ServerConfig struct {
	Listen          string        `yaml:"listen"`          // host:port (default ":5000")
	Secret          string        `yaml:"secret"`          // Basic auth password; empty disables the gate
	RateLimit       float64       `yaml:"rateLimit"`       // captures per second; 0 disables
	RateBurst       int           `yaml:"rateBurst"`       //
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"` // graceful shutdown bound
}

// BrowserConfig defines how the shared browser is started.
type BrowserConfig struct {
	Bin              string `yaml:"bin"`        // Chrome binary; empty lets rod find one
	ControlURL       string `yaml:"controlURL"` // attach instead of launching
	DebugPort        int    `yaml:"debugPort"`
	UserDataDir      string `yaml:"userDataDir"`
	Stealth          bool   `yaml:"stealth"`
	IgnoreCertErrors bool   `yaml:"ignoreCertErrors"`
}

// CaptureConfig defines capture timing and output.
type CaptureConfig struct {
	Timeout      time.Duration `yaml:"timeout"`
	PollInterval time.Duration `yaml:"pollInterval"`
	OutputDir    string        `yaml:"outputDir"`
	StampFormat  string        `yaml:"stampFormat"` // token layout or preset name
	Verify       bool          `yaml:"verify"`      // parse written PDFs with pdfcpu
	Page         PageConfig    `yaml:"page"`
}

// PageConfig defines PDF page settings.
type PageConfig struct {
	Size        string  `yaml:"size"`        // "letter", "a4", "legal" (default: "letter")
	Orientation string  `yaml:"orientation"` // "portrait", "landscape" (default: "portrait")
	Margin      float64 `yaml:"margin"`      // inches (default: 0.5)
}

// KeepAliveConfig defines the periodic revisit job.
type KeepAliveConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Interval  time.Duration `yaml:"interval"`
	Immediate bool          `yaml:"immediate"` // run a pass at startup
}

// RegistryConfig defines where login domains are recorded.
type RegistryConfig struct {
	Backend string `yaml:"backend"` // "file" or "sqlite"
	Path    string `yaml:"path"`
}

// WhitelistConfig defines the capture allow-list.
type WhitelistConfig struct {
	Path  string `yaml:"path"`  // empty allows every domain
	Watch bool   `yaml:"watch"` // reload on change
}

// AssetsConfig defines landing page asset loading.
type AssetsConfig struct {
	BasePath string `yaml:"basePath"` // Empty = use embedded assets
	Style    string `yaml:"style"`
}

// LogConfig defines logger output.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Listen:          ":5000",
			RateLimit:       1,
			RateBurst:       3,
			ShutdownTimeout: 30 * time.Second,
		},
		Browser: BrowserConfig{DebugPort: web2pdf.DefaultDebugPort},
		Capture: CaptureConfig{
			Timeout:      web2pdf.DefaultTimeout,
			PollInterval: web2pdf.DefaultPollInterval,
			OutputDir:    web2pdf.DefaultOutputDir,
			StampFormat:  dateutil.DefaultStampFormat,
			Page: PageConfig{
				Size:        web2pdf.PageSizeLetter,
				Orientation: web2pdf.OrientationPortrait,
				Margin:      web2pdf.DefaultMargin,
			},
		},
		KeepAlive: KeepAliveConfig{Enabled: true, Interval: web2pdf.DefaultKeepAliveInterval},
		Registry:  RegistryConfig{Backend: registry.BackendFile, Path: "domains.txt"},
		Whitelist: WhitelistConfig{Watch: true},
		Log:       LogConfig{Level: "info", Format: "json"},
	}
}

// PageSettings returns the capture page settings.
func (c *Config) PageSettings() *web2pdf.PageSettings {
	return &web2pdf.PageSettings{
		Size:        c.Capture.Page.Size,
		Orientation: c.Capture.Page.Orientation,
		Margin:      c.Capture.Page.Margin,
	}
}

// Validate checks ranges, enumerations and field lengths.
// Called automatically by LoadConfig.
func (c *Config) Validate() error {
	if err := validateFieldLength("server.listen", c.Server.Listen, MaxListenLength); err != nil {
		return err
	}
	if c.Server.Listen == "" {
		return fmt.Errorf("%w: server.listen: required", ErrInvalidValue)
	}
	if err := validateFieldLength("server.secret", c.Server.Secret, MaxSecretLength); err != nil {
		return err
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("%w: server.rateLimit: must be >= 0, got %g", ErrInvalidValue, c.Server.RateLimit)
	}
	if c.Server.RateLimit > 0 && c.Server.RateBurst < 1 {
		return fmt.Errorf("%w: server.rateBurst: must be >= 1 when rateLimit is set, got %d", ErrInvalidValue, c.Server.RateBurst)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("%w: server.shutdownTimeout: must be positive", ErrInvalidValue)
	}

	if err := validateFieldLength("browser.bin", c.Browser.Bin, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("browser.controlURL", c.Browser.ControlURL, MaxURLLength); err != nil {
		return err
	}
	if err := validateFieldLength("browser.userDataDir", c.Browser.UserDataDir, MaxPathLength); err != nil {
		return err
	}
	if c.Browser.DebugPort < 1 || c.Browser.DebugPort > 65535 {
		return fmt.Errorf("%w: browser.debugPort: must be between 1 and 65535, got %d", ErrInvalidValue, c.Browser.DebugPort)
	}

	if c.Capture.Timeout <= 0 {
		return fmt.Errorf("%w: capture.timeout: must be positive", ErrInvalidValue)
	}
	if c.Capture.PollInterval <= 0 {
		return fmt.Errorf("%w: capture.pollInterval: must be positive", ErrInvalidValue)
	}
	if c.Capture.PollInterval >= c.Capture.Timeout {
		return fmt.Errorf("%w: capture.pollInterval: must be shorter than capture.timeout (%v >= %v)",
			ErrInvalidValue, c.Capture.PollInterval, c.Capture.Timeout)
	}
	if err := validateFieldLength("capture.outputDir", c.Capture.OutputDir, MaxPathLength); err != nil {
		return err
	}
	if _, err := dateutil.Stamp(c.Capture.StampFormat, time.Time{}); err != nil {
		return fmt.Errorf("capture.stampFormat: %w", err)
	}
	if err := c.PageSettings().Validate(); err != nil {
		return fmt.Errorf("capture.page: %w", err)
	}

	if c.KeepAlive.Enabled && c.KeepAlive.Interval <= 0 {
		return fmt.Errorf("%w: keepAlive.interval: must be positive", ErrInvalidValue)
	}

	switch strings.ToLower(c.Registry.Backend) {
	case registry.BackendFile, registry.BackendSQLite:
	default:
		return fmt.Errorf("%w: registry.backend: invalid value %q (must be file or sqlite)", ErrInvalidValue, c.Registry.Backend)
	}
	if c.Registry.Path == "" {
		return fmt.Errorf("%w: registry.path: required", ErrInvalidValue)
	}
	if err := validateFieldLength("registry.path", c.Registry.Path, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("whitelist.path", c.Whitelist.Path, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("assets.basePath", c.Assets.BasePath, MaxPathLength); err != nil {
		return err
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log.level: invalid value %q (must be debug, info, warn or error)", ErrInvalidValue, c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("%w: log.format: invalid value %q (must be json or console)", ErrInvalidValue, c.Log.Format)
	}

	return nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Fields missing from the file keep their DefaultConfig values.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if fileutil.IsFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := decode(data, cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", configPath, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SearchPaths returns the files LoadConfig tries for name, in order.
func SearchPaths(name string) []string {
	extensions := []string{".yaml", ".yml"}
	paths := make([]string, 0, len(extensions)*2) // 2 locations

	for _, ext := range extensions {
		paths = append(paths, name+ext)
	}
	if userConfigDir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			paths = append(paths, filepath.Join(userConfigDir, "go-web2pdf", name+ext))
		}
	}
	return paths
}

// resolveConfigPath searches for a config file by name in standard locations:
// the current directory, then the user config directory (go-web2pdf/).
func resolveConfigPath(name string) (string, error) {
	tried := SearchPaths(name)
	for _, p := range tried {
		if fileutil.FileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(tried, ", "))
}
