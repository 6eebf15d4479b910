package web2pdf

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// Notes:
// - The fake clock is frozen, so every capture in a test shares the stamp
//   240315-103007; this is how name collisions are provoked.
// - "No file produced" is checked by listing the output directory.

func newTestService(t *testing.T, extra ...Option) (*Service, *fakeLauncher, string) {
	t.Helper()
	dir := t.TempDir()
	l := newFakeLauncher()
	svc := New(l, &fakeRegistry{}, append(fastOptions(dir), extra...)...)
	t.Cleanup(func() { _ = svc.Close() })
	return svc, l, dir
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil && !os.IsNotExist(err) {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

type stubInspector struct {
	pages int
	err   error
}

func (i stubInspector) PageCount(string) (int, error) { return i.pages, i.err }

// ---- Capture

func TestCapture_Success(t *testing.T) {
	t.Parallel()

	svc, l, dir := newTestService(t)
	l.browser.setPage("https://example.com/r", fakePage{
		title: "Report: Q1/2024",
		html:  "<html><head><title>Report</title></head><body><h1>Q1</h1></body></html>",
	})

	res := svc.Capture(context.Background(), "https://example.com/r")
	if res.Err != nil {
		t.Fatalf("Capture() error = %v", res.Err)
	}
	if want := "Report Q12024_240315-103007.pdf"; res.File != want {
		t.Errorf("File = %q, want %q", res.File, want)
	}
	if res.Path != filepath.Join(dir, res.File) {
		t.Errorf("Path = %q", res.Path)
	}
	data, err := os.ReadFile(res.Path)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if string(data) != fakePDF || res.Size != int64(len(fakePDF)) {
		t.Errorf("output = %q (%d bytes)", data, res.Size)
	}
	if !res.OK() {
		t.Error("OK() = false")
	}
}

func TestCapture_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		url         string
		page        fakePage
		printStatus int
		wantErr     error
	}{
		{
			name:    "invalid URL",
			url:     "javascript:alert(1)",
			wantErr: ErrInvalidURL,
		},
		{
			name:    "empty document",
			url:     "https://blank.example/",
			page:    fakePage{html: "<html><head></head><body></body></html>"},
			wantErr: ErrPageLoad,
		},
		{
			name:    "navigation error text",
			url:     "https://nxdomain.example/",
			page:    fakePage{navError: "net::ERR_NAME_NOT_RESOLVED"},
			wantErr: ErrPageLoad,
		},
		{
			name:    "never ready",
			url:     "https://slow.example/",
			page:    fakePage{state: "loading", html: "<p>x</p>"},
			wantErr: ErrPageNotReady,
		},
		{
			name:        "print rejected",
			url:         "https://example.com/",
			page:        fakePage{title: "T", html: "<p>x</p>"},
			printStatus: -32000,
			wantErr:     ErrProtocol,
		},
		{
			name:    "lost connection",
			url:     "https://drop.example/",
			page:    fakePage{navDrop: true},
			wantErr: ErrSessionLost,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc, l, dir := newTestService(t)
			l.browser.printStatus = tt.printStatus
			l.browser.setPage(tt.url, tt.page)

			res := svc.Capture(context.Background(), tt.url)
			if !errors.Is(res.Err, tt.wantErr) {
				t.Fatalf("Capture() error = %v, want %v", res.Err, tt.wantErr)
			}
			if res.OK() || res.File != "" {
				t.Errorf("failed capture reported file %q", res.File)
			}
			if names := listDir(t, dir); len(names) != 0 {
				t.Errorf("output dir = %v, want empty", names)
			}
		})
	}
}

func TestCapture_TimeoutIsBounded(t *testing.T) {
	t.Parallel()

	const (
		timeout = 100 * time.Millisecond
		poll    = 20 * time.Millisecond
	)
	svc, l, _ := newTestService(t, WithTimeout(timeout), WithPollInterval(poll))
	l.browser.setPage("https://slow.example/", fakePage{state: "loading"})

	start := time.Now()
	res := svc.Capture(context.Background(), "https://slow.example/")
	elapsed := time.Since(start)

	if !errors.Is(res.Err, ErrPageNotReady) {
		t.Fatalf("Capture() error = %v, want ErrPageNotReady", res.Err)
	}
	// Generous slack for loaded CI machines.
	if elapsed > timeout+poll+200*time.Millisecond {
		t.Errorf("Capture() took %v, budget %v", elapsed, timeout)
	}
	if !svc.Manager().Status().Alive {
		t.Error("timeout must not retire the session")
	}
}

func TestCapture_UnansweredNavigationIsBounded(t *testing.T) {
	t.Parallel()

	const timeout = 100 * time.Millisecond
	svc, l, _ := newTestService(t, WithTimeout(timeout), WithPollInterval(10*time.Millisecond))
	l.browser.setPage("https://hang.example/", fakePage{navHang: true})

	done := make(chan CaptureResult, 1)
	go func() { done <- svc.Capture(context.Background(), "https://hang.example/") }()

	var res CaptureResult
	select {
	case res = <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Capture() still blocked on a navigation that never answers")
	}
	if !errors.Is(res.Err, ErrPageNotReady) {
		t.Fatalf("Capture() error = %v, want ErrPageNotReady", res.Err)
	}

	// The session is free again and still usable.
	next := make(chan CaptureResult, 1)
	go func() { next <- svc.Capture(context.Background(), "https://example.com/next") }()
	select {
	case res = <-next:
	case <-time.After(2 * time.Second):
		t.Fatal("second Capture() queued behind the hung one")
	}
	if res.Err != nil {
		t.Fatalf("second Capture() error = %v", res.Err)
	}
	if n := l.launches(); n != 1 {
		t.Errorf("launches = %d, want 1", n)
	}
}

func TestCapture_PerRequestTimeout(t *testing.T) {
	t.Parallel()

	svc, l, _ := newTestService(t, WithTimeout(10*time.Second))
	l.browser.setPage("https://slow.example/", fakePage{state: "loading"})

	start := time.Now()
	res := svc.CaptureWith(context.Background(), CaptureRequest{
		URL:          "https://slow.example/",
		Timeout:      50 * time.Millisecond,
		PollInterval: 10 * time.Millisecond,
	})
	if !errors.Is(res.Err, ErrPageNotReady) {
		t.Fatalf("CaptureWith() error = %v", res.Err)
	}
	if time.Since(start) > 2*time.Second {
		t.Error("request timeout ignored")
	}
}

func TestCapture_NameCollisionGetsSuffix(t *testing.T) {
	t.Parallel()

	svc, l, dir := newTestService(t)
	l.browser.setPage("https://example.com/a", fakePage{title: "Same", html: "<p>a</p>"})

	var files []string
	for range 3 {
		res := svc.Capture(context.Background(), "https://example.com/a")
		if res.Err != nil {
			t.Fatalf("Capture() error = %v", res.Err)
		}
		files = append(files, res.File)
	}

	want := []string{
		"Same_240315-103007.pdf",
		"Same_240315-103007-2.pdf",
		"Same_240315-103007-3.pdf",
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("capture %d file = %q, want %q", i, files[i], want[i])
		}
	}
	if n := len(listDir(t, dir)); n != 3 {
		t.Errorf("output dir has %d files, want 3", n)
	}
}

func TestCapture_EmptyTitleUsesPlaceholder(t *testing.T) {
	t.Parallel()

	svc, l, _ := newTestService(t)
	l.browser.setPage("https://example.com/", fakePage{title: "", html: "<p>x</p>"})

	res := svc.Capture(context.Background(), "https://example.com/")
	if res.Err != nil {
		t.Fatal(res.Err)
	}
	if !strings.HasPrefix(res.File, "untitled_") || !strings.HasSuffix(res.File, ".pdf") {
		t.Errorf("File = %q", res.File)
	}
}

func TestCapture_Inspector(t *testing.T) {
	t.Parallel()

	t.Run("page count reported", func(t *testing.T) {
		t.Parallel()

		svc, _, _ := newTestService(t, WithInspector(stubInspector{pages: 3}))
		res := svc.Capture(context.Background(), "https://example.com/")
		if res.Err != nil {
			t.Fatal(res.Err)
		}
		if res.Pages != 3 {
			t.Errorf("Pages = %d, want 3", res.Pages)
		}
	})

	t.Run("invalid PDF removed", func(t *testing.T) {
		t.Parallel()

		svc, _, dir := newTestService(t, WithInspector(stubInspector{err: errors.New("no xref")}))
		res := svc.Capture(context.Background(), "https://example.com/")
		if !errors.Is(res.Err, ErrPersist) {
			t.Fatalf("Capture() error = %v, want ErrPersist", res.Err)
		}
		if names := listDir(t, dir); len(names) != 0 {
			t.Errorf("output dir = %v, want empty", names)
		}
	})
}

func TestCapture_InvalidPageSettings(t *testing.T) {
	t.Parallel()

	svc, l, _ := newTestService(t)
	res := svc.CaptureWith(context.Background(), CaptureRequest{
		URL:  "https://example.com/",
		Page: &PageSettings{Size: "tabloid", Orientation: OrientationPortrait},
	})
	if !errors.Is(res.Err, ErrInvalidPageSize) {
		t.Errorf("CaptureWith() error = %v, want ErrInvalidPageSize", res.Err)
	}
	for _, c := range l.browser.callLog() {
		if strings.HasPrefix(c, "navigate") {
			t.Errorf("browser was driven: %v", l.browser.callLog())
			break
		}
	}
}

func TestCapture_RecoversPanic(t *testing.T) {
	t.Parallel()

	c := NewCapturer(fastOptions(t.TempDir())...)
	res := c.Capture(context.Background(), nil, CaptureRequest{URL: "https://example.com/"})
	if res.Err == nil || !strings.Contains(res.Err.Error(), "panic") {
		t.Errorf("Capture(nil session) error = %v, want recovered panic", res.Err)
	}
}

func TestCapture_ConcurrentCallsNeverInterleave(t *testing.T) {
	t.Parallel()

	svc, l, _ := newTestService(t)
	l.browser.delay = time.Millisecond

	done := make(chan CaptureResult)
	for _, u := range []string{"https://example.com/1", "https://example.com/2"} {
		go func() { done <- svc.Capture(context.Background(), u) }()
	}
	for range 2 {
		if res := <-done; res.Err != nil {
			t.Errorf("Capture() error = %v", res.Err)
		}
	}

	if got := l.browser.maxInFlight.Load(); got != 1 {
		t.Errorf("max in-flight commands = %d, want 1", got)
	}
	// Each capture's commands form one contiguous block.
	calls := l.browser.callLog()
	first := calls[0]
	seenOther := false
	for _, c := range calls[1:] {
		if strings.HasPrefix(c, "navigate") && c != first {
			seenOther = true
		}
		if seenOther && c == first {
			t.Errorf("commands interleaved: %v", calls)
		}
	}
}

// ---- Helpers

func TestSanitizeTitle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		title string
		want  string
	}{
		{title: "Report: Q1/2024", want: "Report Q12024"},
		{title: "", want: "untitled"},
		{title: `<>:"/\|?*`, want: "untitled"},
		{title: "Hello World  ", want: "Hello World"},
		{title: "  leading", want: "leading"},
		{title: "multi\nline\ttitle", want: "multilinetitle"},
		{title: "A\tB", want: "AB"},
		{title: " \t\n A", want: "A"},
		{title: "Café - Menü", want: "Café - Menü"},
		{title: "a.b,c;d", want: "abcd"},
		{title: strings.Repeat("x", 150), want: strings.Repeat("x", 100)},
		{title: strings.Repeat(" ", 10) + strings.Repeat("x", 150), want: strings.Repeat("x", 100)},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			t.Parallel()

			if got := SanitizeTitle(tt.title); got != tt.want {
				t.Errorf("SanitizeTitle(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

func TestIsEmptyDocument(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		html string
		want bool
	}{
		{name: "blank string", html: "", want: true},
		{name: "empty skeleton", html: "<html><head></head><body></body></html>", want: true},
		{name: "whitespace body", html: "<html><head></head><body>\n  </body></html>", want: true},
		{name: "title in head", html: "<html><head><title>x</title></head><body></body></html>", want: false},
		{name: "element in body", html: "<html><head></head><body><div></div></body></html>", want: false},
		{name: "text in body", html: "<html><head></head><body>hello</body></html>", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := isEmptyDocument(tt.html)
			if err != nil {
				t.Fatalf("isEmptyDocument() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("isEmptyDocument(%q) = %v, want %v", tt.html, got, tt.want)
			}
		})
	}
}

func TestPrintOptions(t *testing.T) {
	t.Parallel()

	def := printOptions(nil)
	if *def.PaperWidth != 8.5 || *def.PaperHeight != 11 || *def.MarginTop != 0.5 || def.Landscape {
		t.Errorf("default options = %+v", def)
	}
	if !def.PrintBackground {
		t.Error("backgrounds must print")
	}

	a4 := printOptions(&PageSettings{Size: "A4", Orientation: "Landscape", Margin: 1})
	if *a4.PaperWidth != 8.27 || *a4.PaperHeight != 11.69 || !a4.Landscape || *a4.MarginLeft != 1 {
		t.Errorf("a4 options = %+v", a4)
	}
}
