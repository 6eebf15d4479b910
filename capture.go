package web2pdf

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"github.com/alnah/go-web2pdf/internal/dateutil"
	"github.com/alnah/go-web2pdf/internal/metrics"
)

const (
	documentExpr = `document.documentElement ? document.documentElement.outerHTML : ""`
	titleExpr    = `document.title`

	// maxNameAttempts bounds the collision suffixes tried for one capture.
	maxNameAttempts = 100
)

// Capturer drives a session through one page capture and persists the PDF.
type Capturer struct {
	channel *Channel
	cfg     serviceConfig
	logger  *zap.Logger
}

// NewCapturer creates a Capturer. Options set the output directory, the
// default readiness budget, the page layout and an optional Inspector.
func NewCapturer(opts ...Option) *Capturer {
	return newCapturer(newServiceConfig(opts))
}

func newCapturer(cfg serviceConfig) *Capturer {
	return &Capturer{
		channel: NewChannel(cfg.logger),
		cfg:     cfg,
		logger:  cfg.logger.Named("capture"),
	}
}

// Capture navigates s to req.URL, waits for the document, prints it to PDF
// and writes the file to the output directory. Failures, including panics,
// are reported in the result's Err and logged; they never propagate.
func (c *Capturer) Capture(ctx context.Context, s *Session, req CaptureRequest) (res CaptureResult) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			res = CaptureResult{Err: fmt.Errorf("capture panic: %v", r)}
		}
		c.observe(s, req.URL, res, time.Since(start))
	}()

	if err := req.Page.Validate(); err != nil {
		return CaptureResult{Err: err}
	}

	pdf, title, err := c.render(ctx, s, req)
	if err != nil {
		return CaptureResult{Err: err}
	}

	return c.persist(title, pdf)
}

// render runs the browser side of a capture: navigate, wait, check the
// document, print.
func (c *Capturer) render(ctx context.Context, s *Session, req CaptureRequest) ([]byte, string, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = c.cfg.timeout
	}
	poll := req.PollInterval
	if poll <= 0 {
		poll = c.cfg.pollInterval
	}

	if err := loadPage(ctx, c.channel, s, req.URL, timeout, poll); err != nil {
		return nil, "", err
	}

	doc, err := c.channel.EvaluateString(ctx, s, documentExpr)
	if err != nil {
		return nil, "", err
	}
	empty, err := isEmptyDocument(doc)
	if err != nil {
		return nil, "", fmt.Errorf("%w: parsing document: %v", ErrPageLoad, err)
	}
	if empty {
		return nil, "", &PageLoadError{URL: req.URL, Reason: "empty document"}
	}

	title, err := c.channel.EvaluateString(ctx, s, titleExpr)
	if err != nil {
		return nil, "", err
	}

	page := req.Page
	if page == nil {
		page = c.cfg.page
	}
	pdf, err := c.channel.PrintToPDF(ctx, s, printOptions(page))
	if err != nil {
		return nil, "", err
	}
	if len(pdf) == 0 {
		return nil, "", &ProtocolError{Method: "Page.printToPDF", Detail: "empty payload"}
	}

	return pdf, title, nil
}

// persist writes pdf under a fresh name derived from title and verifies it.
func (c *Capturer) persist(title string, pdf []byte) CaptureResult {
	stamp, err := dateutil.Stamp(c.cfg.stampFormat, c.cfg.now())
	if err != nil {
		return CaptureResult{Err: fmt.Errorf("%w: %v", ErrPersist, err)}
	}

	if err := os.MkdirAll(c.cfg.outputDir, 0o750); err != nil {
		return CaptureResult{Err: fmt.Errorf("%w: creating output dir: %v", ErrPersist, err)}
	}

	stem := SanitizeTitle(title)
	name, path, err := writeExclusive(c.cfg.outputDir, stem, stamp, pdf)
	if err != nil {
		return CaptureResult{Err: err}
	}

	info, err := os.Stat(path)
	if err != nil {
		return CaptureResult{Err: fmt.Errorf("%w: %s not on disk: %v", ErrPersist, name, err)}
	}
	if info.Size() != int64(len(pdf)) {
		_ = os.Remove(path)
		return CaptureResult{Err: fmt.Errorf("%w: %s: wrote %d of %d bytes", ErrPersist, name, info.Size(), len(pdf))}
	}

	res := CaptureResult{File: name, Path: path, Size: info.Size()}
	if c.cfg.inspector != nil {
		pages, err := c.cfg.inspector.PageCount(path)
		if err != nil {
			_ = os.Remove(path)
			return CaptureResult{Err: fmt.Errorf("%w: %s is not a valid PDF: %v", ErrPersist, name, err)}
		}
		res.Pages = pages
	}
	return res
}

// writeExclusive creates a new file for data, appending -2, -3... to the
// stamp when a name is already taken.
func writeExclusive(dir, stem, stamp string, data []byte) (string, string, error) {
	for n := 1; n <= maxNameAttempts; n++ {
		name := pdfName(stem, stamp, n)
		path := filepath.Join(dir, name)

		// #nosec G302 G304 -- generated name inside the output directory; PDFs are meant to be readable
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", "", fmt.Errorf("%w: %v", ErrPersist, err)
		}

		if _, err := f.Write(data); err != nil {
			_ = f.Close()
			_ = os.Remove(path)
			return "", "", fmt.Errorf("%w: writing %s: %v", ErrPersist, name, err)
		}
		if err := f.Close(); err != nil {
			_ = os.Remove(path)
			return "", "", fmt.Errorf("%w: closing %s: %v", ErrPersist, name, err)
		}
		return name, path, nil
	}
	return "", "", fmt.Errorf("%w: no free name for %s_%s after %d attempts", ErrPersist, stem, stamp, maxNameAttempts)
}

// isEmptyDocument reports whether html is the blank skeleton a browser shows
// for a navigation that produced nothing: no elements in head or body and
// no visible body text.
func isEmptyDocument(html string) (bool, error) {
	if strings.TrimSpace(html) == "" {
		return true, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return false, err
	}

	if doc.Find("head").Children().Length() > 0 {
		return false, nil
	}
	body := doc.Find("body")
	if body.Children().Length() > 0 {
		return false, nil
	}
	return strings.TrimSpace(body.Text()) == "", nil
}

// printOptions maps page settings to print parameters.
func printOptions(p *PageSettings) *proto.PagePrintToPDF {
	if p == nil {
		p = DefaultPageSettings()
	}
	sheet := p.paper()

	return &proto.PagePrintToPDF{
		Landscape:       strings.EqualFold(p.Orientation, OrientationLandscape),
		PaperWidth:      floatPtr(sheet.width),
		PaperHeight:     floatPtr(sheet.height),
		MarginTop:       floatPtr(p.Margin),
		MarginBottom:    floatPtr(p.Margin),
		MarginLeft:      floatPtr(p.Margin),
		MarginRight:     floatPtr(p.Margin),
		PrintBackground: true,
	}
}

// floatPtr returns a pointer to a float64 value.
func floatPtr(v float64) *float64 {
	return &v
}

func (c *Capturer) observe(s *Session, url string, res CaptureResult, elapsed time.Duration) {
	sessionID := ""
	if s != nil {
		sessionID = s.id
	}

	metrics.Captures.WithLabelValues(captureLabel(res.Err)).Inc()
	if res.Err != nil {
		c.logger.Error("capture failed",
			zap.String("url", url),
			zap.String("session_id", sessionID),
			zap.Duration("elapsed", elapsed),
			zap.Error(res.Err))
		return
	}

	metrics.CaptureDuration.Observe(elapsed.Seconds())
	c.logger.Info("captured",
		zap.String("url", url),
		zap.String("session_id", sessionID),
		zap.String("file", res.File),
		zap.Int64("bytes", res.Size),
		zap.Int("pages", res.Pages),
		zap.Duration("elapsed", elapsed))
}

// captureLabel classifies a capture error for metrics.
func captureLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrPageNotReady):
		return "not_ready"
	case errors.Is(err, ErrPageLoad):
		return "page_load"
	case errors.Is(err, ErrSessionLost):
		return "session_lost"
	case errors.Is(err, ErrSessionStartup):
		return "startup"
	case errors.Is(err, ErrProtocol):
		return "protocol"
	case errors.Is(err, ErrPersist):
		return "persist"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}
