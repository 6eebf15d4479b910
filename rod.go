package web2pdf

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/cdp"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"go.uber.org/zap"

	"github.com/alnah/go-web2pdf/internal/process"
)

// DefaultDebugPort is the browser's remote debugging port.
const DefaultDebugPort = 9222

// BrowserConfig controls how sessions get their browser.
type BrowserConfig struct {
	// Bin is the Chrome/Chromium binary. Empty lets rod find or download one.
	Bin string

	// ControlURL attaches to an already running browser's DevTools endpoint
	// instead of launching one. Closing a session then only closes its page.
	ControlURL string

	// DebugPort is the fixed remote debugging port of launched browsers.
	DebugPort int

	// UserDataDir keeps the profile (cookies) in a fixed directory.
	// Empty uses a temporary profile removed on teardown.
	UserDataDir string

	// Stealth masks common headless fingerprints on the control page.
	Stealth bool

	// IgnoreCertErrors accepts invalid TLS certificates.
	IgnoreCertErrors bool
}

// RodLauncher starts headless Chrome sessions with go-rod.
type RodLauncher struct {
	cfg    BrowserConfig
	logger *zap.Logger
}

// NewRodLauncher creates a launcher. A nil logger disables logging.
func NewRodLauncher(cfg BrowserConfig, logger *zap.Logger) *RodLauncher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DebugPort == 0 {
		cfg.DebugPort = DefaultDebugPort
	}
	return &RodLauncher{cfg: cfg, logger: logger.Named("browser")}
}

// Launch starts (or attaches to) a browser and opens its control page.
// The browser outlives ctx; ctx only aborts the launch itself.
func (l *RodLauncher) Launch(ctx context.Context) (Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	conn := &rodConn{}
	controlURL := l.cfg.ControlURL

	if controlURL == "" {
		lnch := launcher.New().
			Headless(true).
			NoSandbox(true).
			Set(flags.Flag("disable-gpu")).
			Set(flags.Flag("disable-dev-shm-usage")).
			RemoteDebuggingPort(l.cfg.DebugPort)
		if l.cfg.Bin != "" {
			lnch = lnch.Bin(l.cfg.Bin)
		}
		if l.cfg.UserDataDir != "" {
			lnch = lnch.UserDataDir(l.cfg.UserDataDir)
		}

		u, err := lnch.Launch()
		if err != nil {
			lnch.Kill()
			return nil, fmt.Errorf("launching browser: %w", err)
		}
		controlURL = u
		conn.lnch = lnch
		conn.pid = lnch.PID()
		conn.keepDir = l.cfg.UserDataDir != ""
		l.logger.Info("browser launched", zap.Int("pid", conn.pid), zap.Int("port", l.cfg.DebugPort))
	} else {
		l.logger.Info("attaching to browser", zap.String("control_url", controlURL))
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		conn.release()
		return nil, fmt.Errorf("connecting to browser: %w", err)
	}
	conn.browser = browser

	if l.cfg.IgnoreCertErrors {
		if err := browser.IgnoreCertErrors(true); err != nil {
			l.logger.Warn("ignore cert errors failed", zap.Error(err))
		}
	}

	var page *rod.Page
	var err error
	if l.cfg.Stealth {
		page, err = stealth.Page(browser)
	} else {
		page, err = browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	}
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("opening control page: %w", err)
	}
	conn.page = page

	return conn, nil
}

// rodConn sends raw DevTools commands through one rod page.
type rodConn struct {
	browser *rod.Browser
	page    *rod.Page
	lnch    *launcher.Launcher // nil when attached
	pid     int
	keepDir bool // fixed profile directory, not removed on release

	once sync.Once
	err  error
}

// Exec maps DevTools errors to a non-zero Reply status; any other error is a
// transport failure.
func (c *rodConn) Exec(ctx context.Context, method string, params any) (Reply, error) {
	raw, err := c.page.Call(ctx, string(c.page.SessionID), method, params)
	if err != nil {
		var cdpErr *cdp.Error
		if errors.As(err, &cdpErr) {
			status := cdpErr.Code
			if status == 0 {
				status = -1
			}
			detail := cdpErr.Message
			if cdpErr.Data != "" {
				detail += ": " + cdpErr.Data
			}
			return Reply{Status: status, Detail: detail}, nil
		}
		return Reply{}, err
	}
	return Reply{Value: raw}, nil
}

func (c *rodConn) PID() int { return c.pid }

// Close closes the control page and, for launched browsers, the browser and
// its process tree. Safe to call more than once.
func (c *rodConn) Close() error {
	c.once.Do(func() {
		if c.page != nil {
			if err := c.page.Close(); err != nil && c.lnch == nil {
				c.err = err
			}
		}
		if c.lnch != nil && c.browser != nil {
			_ = c.browser.Close()
		}
		c.release()
	})
	return c.err
}

// release kills and cleans up a launched browser.
func (c *rodConn) release() {
	if c.lnch == nil {
		return
	}
	if c.pid > 0 {
		_ = process.KillTree(c.pid)
	}
	c.lnch.Kill()
	if !c.keepDir {
		c.lnch.Cleanup()
	}
}
