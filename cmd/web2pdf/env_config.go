package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-web2pdf/internal/config"
)

// envConfig holds configuration from environment variables.
// Provides container-friendly overrides without requiring YAML files.
type envConfig struct {
	// Server
	ConfigPath string // WEB2PDF_CONFIG: config file path
	Listen     string // WEB2PDF_LISTEN: host:port, PORT as fallback
	Secret     string // WEB2PDF_SECRET: Basic auth password

	// Browser
	BrowserBin string // WEB2PDF_BROWSER_BIN, ROD_BROWSER_BIN as fallback
	ControlURL string // WEB2PDF_CONTROL_URL: attach to a running browser
	DebugPort  int    // WEB2PDF_DEBUG_PORT

	// Capture and scheduling
	Timeout           time.Duration // WEB2PDF_TIMEOUT
	PollInterval      time.Duration // WEB2PDF_POLL_INTERVAL
	KeepAliveInterval time.Duration // WEB2PDF_KEEPALIVE_INTERVAL
	OutputDir         string        // WEB2PDF_OUTPUT_DIR

	// Files and logging
	Registry  string // WEB2PDF_REGISTRY: registry path
	Whitelist string // WEB2PDF_WHITELIST: whitelist path
	LogLevel  string // WEB2PDF_LOG_LEVEL
}

// knownEnvVars lists valid WEB2PDF_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"WEB2PDF_CONFIG":             true,
	"WEB2PDF_LISTEN":             true,
	"WEB2PDF_SECRET":             true,
	"WEB2PDF_BROWSER_BIN":        true,
	"WEB2PDF_CONTROL_URL":        true,
	"WEB2PDF_DEBUG_PORT":         true,
	"WEB2PDF_TIMEOUT":            true,
	"WEB2PDF_POLL_INTERVAL":      true,
	"WEB2PDF_KEEPALIVE_INTERVAL": true,
	"WEB2PDF_OUTPUT_DIR":         true,
	"WEB2PDF_REGISTRY":           true,
	"WEB2PDF_WHITELIST":          true,
	"WEB2PDF_LOG_LEVEL":          true,
	"WEB2PDF_CONTAINER":          true, // read by doctor
}

// loadEnvConfig reads configuration from environment variables.
// Unparsable durations and ports are ignored.
func loadEnvConfig() *envConfig {
	cfg := &envConfig{
		ConfigPath: os.Getenv("WEB2PDF_CONFIG"),
		Listen:     os.Getenv("WEB2PDF_LISTEN"),
		Secret:     os.Getenv("WEB2PDF_SECRET"),
		BrowserBin: os.Getenv("WEB2PDF_BROWSER_BIN"),
		ControlURL: os.Getenv("WEB2PDF_CONTROL_URL"),
		OutputDir:  os.Getenv("WEB2PDF_OUTPUT_DIR"),
		Registry:   os.Getenv("WEB2PDF_REGISTRY"),
		Whitelist:  os.Getenv("WEB2PDF_WHITELIST"),
		LogLevel:   os.Getenv("WEB2PDF_LOG_LEVEL"),
	}

	if cfg.Listen == "" {
		if port := os.Getenv("PORT"); port != "" {
			cfg.Listen = ":" + port
		}
	}
	if cfg.BrowserBin == "" {
		cfg.BrowserBin = os.Getenv("ROD_BROWSER_BIN")
	}

	if port := os.Getenv("WEB2PDF_DEBUG_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil && p > 0 {
			cfg.DebugPort = p
		}
	}

	cfg.Timeout = envDuration("WEB2PDF_TIMEOUT")
	cfg.PollInterval = envDuration("WEB2PDF_POLL_INTERVAL")
	cfg.KeepAliveInterval = envDuration("WEB2PDF_KEEPALIVE_INTERVAL")

	return cfg
}

// envDuration parses a positive duration from the named variable, or 0.
func envDuration(name string) time.Duration {
	v := os.Getenv(name)
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0
	}
	return d
}

// warnUnknownEnvVars logs warnings for unrecognized WEB2PDF_* variables.
// Helps catch typos like WEB2PDF_TIMEOUTS instead of WEB2PDF_TIMEOUT.
func warnUnknownEnvVars(w io.Writer) {
	for _, env := range os.Environ() {
		name, _, _ := strings.Cut(env, "=")
		if strings.HasPrefix(name, "WEB2PDF_") && !knownEnvVars[name] {
			fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
		}
	}
}

// applyEnvConfig overrides config file values with the set variables.
// This ensures: CLI flags > env vars > config file > defaults
// (CLI flags are applied afterwards).
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	setString(&cfg.Server.Listen, env.Listen)
	setString(&cfg.Server.Secret, env.Secret)

	setString(&cfg.Browser.Bin, env.BrowserBin)
	setString(&cfg.Browser.ControlURL, env.ControlURL)
	if env.DebugPort > 0 {
		cfg.Browser.DebugPort = env.DebugPort
	}

	if env.Timeout > 0 {
		cfg.Capture.Timeout = env.Timeout
	}
	if env.PollInterval > 0 {
		cfg.Capture.PollInterval = env.PollInterval
	}
	if env.KeepAliveInterval > 0 {
		cfg.KeepAlive.Interval = env.KeepAliveInterval
	}
	setString(&cfg.Capture.OutputDir, env.OutputDir)

	setString(&cfg.Registry.Path, env.Registry)
	setString(&cfg.Whitelist.Path, env.Whitelist)
	setString(&cfg.Log.Level, env.LogLevel)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
