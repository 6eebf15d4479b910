//go:build integration

package web2pdf

// Notes:
// - Requires Chrome/Chromium (rod downloads one when none is configured).
//   ROD_BROWSER_BIN selects a pre-installed binary as in CI containers.
// - Tests share one debug port and therefore run sequentially.
// - Pages are served by httptest on 127.0.0.1; the login "cookie" is a real
//   cookie the capture handler checks for.

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/alnah/go-web2pdf/internal/pdfcheck"
)

const integrationPort = 9333

func newRodService(t *testing.T, reg DomainRegistry) *Service {
	t.Helper()
	l := NewRodLauncher(BrowserConfig{
		Bin:       os.Getenv("ROD_BROWSER_BIN"),
		DebugPort: integrationPort,
	}, nil)
	svc := New(l, reg,
		WithOutputDir(t.TempDir()),
		WithTimeout(30*time.Second),
		WithInspector(pdfcheck.New()),
	)
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func newSite(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "sid", Value: "ok", Path: "/"})
		fmt.Fprint(w, "<html><head><title>Login</title></head><body>signed in</body></html>")
	})
	mux.HandleFunc("/secret", func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("sid"); err != nil || c.Value != "ok" {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		fmt.Fprint(w, "<html><head><title>Report: Q1/2024</title></head><body><h1>Numbers</h1></body></html>")
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRod_LoginThenCapture(t *testing.T) {
	site := newSite(t)
	reg := &fakeRegistry{}
	svc := newRodService(t, reg)
	ctx := context.Background()

	if err := svc.EstablishSession(ctx, site.URL+"/login"); err != nil {
		t.Fatalf("EstablishSession() error = %v", err)
	}
	res := svc.Capture(ctx, site.URL+"/secret")
	if res.Err != nil {
		t.Fatalf("Capture() error = %v", res.Err)
	}
	if res.Pages < 1 {
		t.Errorf("Pages = %d", res.Pages)
	}
	if !strings.HasPrefix(res.File, "Report Q12024_") {
		t.Errorf("File = %q", res.File)
	}
	if len(reg.list()) != 1 {
		t.Errorf("registry = %v", reg.list())
	}
}

func TestRod_UnresolvableHostFails(t *testing.T) {
	svc := newRodService(t, nil)

	res := svc.Capture(context.Background(), "http://does-not-exist.invalid/")
	if !errors.Is(res.Err, ErrPageLoad) {
		t.Errorf("Capture() error = %v, want ErrPageLoad", res.Err)
	}
}
