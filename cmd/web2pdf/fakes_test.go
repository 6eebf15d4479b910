package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	web2pdf "github.com/alnah/go-web2pdf"
)

// Shared helpers: a scripted browser and an isolated process environment.

const stubHTML = "<html><head><title>Report</title></head><body><p>quarterly numbers</p></body></html>"

// stubConn answers the handful of commands a capture issues. URLs containing
// "unreachable" fail navigation the way Chrome reports DNS errors.
type stubConn struct {
	mu      sync.Mutex
	current string
	visited []string
}

func (c *stubConn) Exec(ctx context.Context, method string, params any) (web2pdf.Reply, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch method {
	case "Page.navigate":
		url := params.(proto.PageNavigate).URL
		c.current = url
		c.visited = append(c.visited, url)
		res := map[string]string{"frameId": "F1"}
		if strings.Contains(url, "unreachable") {
			res["errorText"] = "net::ERR_NAME_NOT_RESOLVED"
		}
		return stubReply(res), nil

	case "Runtime.evaluate":
		expr := params.(proto.RuntimeEvaluate).Expression
		value := "Report"
		switch {
		case strings.Contains(expr, "readyState"):
			value = "complete"
		case strings.Contains(expr, "outerHTML"):
			value = stubHTML
		}
		return stubReply(map[string]any{"result": map[string]any{"type": "string", "value": value}}), nil

	case "Page.printToPDF":
		return stubReply(map[string]string{"data": base64.StdEncoding.EncodeToString([]byte("%PDF-1.4 stub"))}), nil
	}
	return web2pdf.Reply{Status: -32601, Detail: "'" + method + "' wasn't found"}, nil
}

func (c *stubConn) PID() int     { return 0 }
func (c *stubConn) Close() error { return nil }

func stubReply(v any) web2pdf.Reply {
	data, _ := json.Marshal(v)
	return web2pdf.Reply{Value: data}
}

// stubLauncher hands out stubConns and remembers the last browser config.
type stubLauncher struct {
	mu       sync.Mutex
	cfg      web2pdf.BrowserConfig
	launches int
	err      error
}

func (l *stubLauncher) Launch(ctx context.Context) (web2pdf.Conn, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	l.launches++
	return &stubConn{}, nil
}

func (l *stubLauncher) factory() LauncherFunc {
	return func(cfg web2pdf.BrowserConfig, _ *zap.Logger) web2pdf.Launcher {
		l.mu.Lock()
		l.cfg = cfg
		l.mu.Unlock()
		return l
	}
}

// newTestEnv returns an Environment writing to buffers with a frozen clock.
func newTestEnv(l *stubLauncher) (*Environment, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	now := time.Date(2024, 3, 15, 10, 30, 7, 0, time.UTC)
	return &Environment{
		Now:      func() time.Time { return now },
		Stdout:   &stdout,
		Stderr:   &stderr,
		Launcher: l.factory(),
	}, &stdout, &stderr
}

// isolate runs the test in a fresh working directory with no config file
// and no web2pdf variables set. Tests calling it cannot run in parallel.
func isolate(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, ".config"))

	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, "WEB2PDF_") {
			unsetenv(t, name)
		}
	}
	for _, name := range []string{"PORT", "ROD_BROWSER_BIN"} {
		unsetenv(t, name)
	}
	return dir
}

// unsetenv removes name for the duration of the test.
func unsetenv(t *testing.T, name string) {
	t.Helper()
	t.Setenv(name, "") // registers the restore
	_ = os.Unsetenv(name)
}
