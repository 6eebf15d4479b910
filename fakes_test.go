package web2pdf

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod/lib/proto"
)

// Fakes for the browser connection, launcher and registry.

const fakePDF = "%PDF-1.4 fake"

// fakePage is what the fake browser renders for one URL.
type fakePage struct {
	title    string
	html     string
	state    string // readyState; "" means "complete"
	navError string // Page.navigate errorText
	navDrop  bool   // transport failure on navigate
	navHang  bool   // Page.navigate never answers; returns when ctx is done
}

// fakeBrowser is shared by every connection a fakeLauncher creates so tests
// can observe command overlap across sessions.
type fakeBrowser struct {
	mu    sync.Mutex
	pages map[string]fakePage
	calls []string

	delay       time.Duration
	printStatus int // non-zero fails Page.printToPDF with this status

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func newFakeBrowser() *fakeBrowser {
	return &fakeBrowser{pages: map[string]fakePage{}}
}

func (b *fakeBrowser) setPage(url string, p fakePage) {
	b.mu.Lock()
	b.pages[url] = p
	b.mu.Unlock()
}

func (b *fakeBrowser) page(url string) fakePage {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.pages[url]
	if !ok {
		return fakePage{title: "Default", html: "<html><head><title>Default</title></head><body><p>hi</p></body></html>"}
	}
	return p
}

func (b *fakeBrowser) record(call string) {
	b.mu.Lock()
	b.calls = append(b.calls, call)
	b.mu.Unlock()
}

func (b *fakeBrowser) callLog() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.calls)
}

type fakeConn struct {
	browser *fakeBrowser
	pid     int

	mu      sync.Mutex
	current string
	closed  bool
	dead    bool
}

func (c *fakeConn) Exec(ctx context.Context, method string, params any) (Reply, error) {
	b := c.browser
	n := b.inFlight.Add(1)
	defer b.inFlight.Add(-1)
	for {
		m := b.maxInFlight.Load()
		if n <= m || b.maxInFlight.CompareAndSwap(m, n) {
			break
		}
	}

	if b.delay > 0 {
		select {
		case <-ctx.Done():
			return Reply{}, ctx.Err()
		case <-time.After(b.delay):
		}
	}

	c.mu.Lock()
	dead := c.dead || c.closed
	c.mu.Unlock()
	if dead {
		return Reply{}, errors.New("websocket: close 1006")
	}

	switch method {
	case "Page.navigate":
		url := params.(proto.PageNavigate).URL
		b.record("navigate " + url)
		p := b.page(url)
		if p.navHang {
			<-ctx.Done()
			return Reply{}, ctx.Err()
		}
		if p.navDrop {
			c.mu.Lock()
			c.dead = true
			c.mu.Unlock()
			return Reply{}, errors.New("websocket: close 1006")
		}
		c.mu.Lock()
		c.current = url
		c.mu.Unlock()
		return jsonReply(map[string]string{"frameId": "F1", "errorText": p.navError}), nil

	case "Runtime.evaluate":
		expr := params.(proto.RuntimeEvaluate).Expression
		p := b.page(c.url())
		switch expr {
		case readyStateExpr:
			b.record("ready")
			state := p.state
			if state == "" {
				state = "complete"
			}
			return evalReply(state), nil
		case documentExpr:
			return evalReply(p.html), nil
		case titleExpr:
			return evalReply(p.title), nil
		}
		return Reply{}, fmt.Errorf("unexpected expression %q", expr)

	case "Page.printToPDF":
		b.record("print")
		if b.printStatus != 0 {
			return Reply{Status: b.printStatus, Detail: "Printing failed"}, nil
		}
		return jsonReply(map[string]string{"data": base64.StdEncoding.EncodeToString([]byte(fakePDF))}), nil
	}
	return Reply{Status: -32601, Detail: "'" + method + "' wasn't found"}, nil
}

func (c *fakeConn) url() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *fakeConn) PID() int { return c.pid }

func (c *fakeConn) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func jsonReply(v any) Reply {
	data, _ := json.Marshal(v)
	return Reply{Value: data}
}

func evalReply(value string) Reply {
	return jsonReply(map[string]any{"result": map[string]any{"type": "string", "value": value}})
}

type fakeLauncher struct {
	browser *fakeBrowser
	err     error

	mu    sync.Mutex
	conns []*fakeConn
}

func newFakeLauncher() *fakeLauncher {
	return &fakeLauncher{browser: newFakeBrowser()}
}

func (l *fakeLauncher) Launch(ctx context.Context) (Conn, error) {
	if l.err != nil {
		return nil, l.err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	c := &fakeConn{browser: l.browser, pid: 1000 + len(l.conns)}
	l.conns = append(l.conns, c)
	return c, nil
}

func (l *fakeLauncher) launches() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.conns)
}

func (l *fakeLauncher) last() *fakeConn {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.conns) == 0 {
		return nil
	}
	return l.conns[len(l.conns)-1]
}

// fakeRegistry is an in-memory DomainRegistry and DomainSource.
type fakeRegistry struct {
	mu      sync.Mutex
	domains []string
	err     error
}

func (r *fakeRegistry) Record(ctx context.Context, domain string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if !slices.Contains(r.domains, domain) {
		r.domains = append(r.domains, domain)
	}
	return nil
}

func (r *fakeRegistry) All(ctx context.Context) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		r.mu.Lock()
		domains := slices.Clone(r.domains)
		r.mu.Unlock()
		for _, d := range domains {
			if !yield(d, nil) {
				return
			}
		}
	}
}

func (r *fakeRegistry) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.domains)
}

// fixedClock returns a clock frozen at 2024-03-15 10:30:07 UTC.
func fixedClock() func() time.Time {
	t := time.Date(2024, 3, 15, 10, 30, 7, 0, time.UTC)
	return func() time.Time { return t }
}

// fastOptions keeps readiness waits short for unit tests.
func fastOptions(dir string) []Option {
	return []Option{
		WithOutputDir(dir),
		WithTimeout(200 * time.Millisecond),
		WithPollInterval(10 * time.Millisecond),
		WithClock(fixedClock()),
	}
}
