package web2pdf

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

// Reply is the decoded response envelope of one browser command.
// A non-zero Status means the browser rejected the command.
type Reply struct {
	Status int
	Detail string
	Value  json.RawMessage
}

// Conn is the control connection to one running headless browser.
// The remote protocol is serial: callers must not issue commands in parallel.
type Conn interface {
	// Exec sends a named command and returns its reply. A returned error
	// means the transport failed, not that the browser rejected the command.
	Exec(ctx context.Context, method string, params any) (Reply, error)

	// PID returns the browser process ID, or 0 when attached to a remote browser.
	PID() int

	// Close releases the connection and the browser process.
	Close() error
}

// Channel issues commands against a session's control connection.
type Channel struct {
	logger *zap.Logger
}

// NewChannel creates a Channel. A nil logger disables command logging.
func NewChannel(logger *zap.Logger) *Channel {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Channel{logger: logger}
}

// Send issues method with params and returns the reply value unchanged.
// A non-zero reply status is returned as *ProtocolError. A transport failure
// marks the session dead and wraps ErrSessionLost.
func (c *Channel) Send(ctx context.Context, s *Session, method string, params any) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reply, err := s.conn.Exec(ctx, method, params)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%s: %w", method, ctxErr)
		}
		s.markLost()
		c.logger.Warn("browser transport failed",
			zap.String("session_id", s.id),
			zap.String("method", method),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %s: %v", ErrSessionLost, method, err)
	}

	if reply.Status != 0 {
		return nil, &ProtocolError{Method: method, Status: reply.Status, Detail: reply.Detail}
	}

	c.logger.Debug("browser command",
		zap.String("session_id", s.id),
		zap.String("method", method),
		zap.Int("bytes", len(reply.Value)))
	return reply.Value, nil
}

// Navigate points the session's page at url. A navigation the browser
// reports as failed (unresolvable host, refused connection) is returned as
// *PageLoadError.
func (c *Channel) Navigate(ctx context.Context, s *Session, url string) error {
	value, err := c.Send(ctx, s, "Page.navigate", proto.PageNavigate{URL: url})
	if err != nil {
		return err
	}

	var res proto.PageNavigateResult
	if err := json.Unmarshal(value, &res); err != nil {
		return fmt.Errorf("%w: decoding Page.navigate result: %v", ErrProtocol, err)
	}

	s.setTarget(url)
	if res.ErrorText != "" {
		return &PageLoadError{URL: url, Reason: res.ErrorText}
	}
	return nil
}

// evaluateResult mirrors the subset of Runtime.evaluate's result used here.
type evaluateResult struct {
	Result struct {
		Type  string          `json:"type"`
		Value json.RawMessage `json:"value"`
	} `json:"result"`
	ExceptionDetails *struct {
		Text string `json:"text"`
	} `json:"exceptionDetails"`
}

// Evaluate runs a JavaScript expression in the page and returns its JSON value.
// A thrown exception is reported as *ProtocolError.
func (c *Channel) Evaluate(ctx context.Context, s *Session, expression string) (json.RawMessage, error) {
	value, err := c.Send(ctx, s, "Runtime.evaluate", proto.RuntimeEvaluate{
		Expression:    expression,
		ReturnByValue: true,
	})
	if err != nil {
		return nil, err
	}

	var res evaluateResult
	if err := json.Unmarshal(value, &res); err != nil {
		return nil, fmt.Errorf("%w: decoding Runtime.evaluate result: %v", ErrProtocol, err)
	}
	if res.ExceptionDetails != nil {
		return nil, &ProtocolError{Method: "Runtime.evaluate", Status: 1, Detail: res.ExceptionDetails.Text}
	}
	return res.Result.Value, nil
}

// EvaluateString runs expression and decodes its value as a string.
// An undefined or null result yields the empty string.
func (c *Channel) EvaluateString(ctx context.Context, s *Session, expression string) (string, error) {
	value, err := c.Evaluate(ctx, s, expression)
	if err != nil {
		return "", err
	}
	if len(value) == 0 || string(value) == "null" {
		return "", nil
	}

	var out string
	if err := json.Unmarshal(value, &out); err != nil {
		return "", fmt.Errorf("%w: %q is not a string: %v", ErrProtocol, expression, err)
	}
	return out, nil
}

// PrintToPDF renders the current page and returns the decoded PDF bytes.
func (c *Channel) PrintToPDF(ctx context.Context, s *Session, opts *proto.PagePrintToPDF) ([]byte, error) {
	value, err := c.Send(ctx, s, "Page.printToPDF", opts)
	if err != nil {
		return nil, err
	}

	var res struct {
		Data string `json:"data"`
	}
	if err := json.Unmarshal(value, &res); err != nil {
		return nil, fmt.Errorf("%w: decoding Page.printToPDF result: %v", ErrProtocol, err)
	}

	pdf, err := base64.StdEncoding.DecodeString(res.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding PDF payload: %v", ErrProtocol, err)
	}
	return pdf, nil
}
