package web2pdf

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const readyStateExpr = `document.readyState`

// loadPage navigates s to url and waits for the document, both within one
// timeout budget. Running out of that budget yields ErrPageNotReady, even
// when the browser never answered the navigation; cancellation of ctx
// itself is returned unchanged.
func loadPage(ctx context.Context, ch *Channel, s *Session, url string, timeout, poll time.Duration) error {
	lctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := navigateWithin(ctx, lctx, ch, s, url, timeout); err != nil {
		return err
	}
	err := waitReady(lctx, ch, s, timeout, poll)
	if err != nil && ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
		return notReady(timeout, "")
	}
	return err
}

// navigateWithin sends Page.navigate on lctx, a deadline-bound child of
// ctx, and reports an expired lctx as ErrPageNotReady.
func navigateWithin(ctx, lctx context.Context, ch *Channel, s *Session, url string, timeout time.Duration) error {
	err := ch.Navigate(lctx, s, url)
	if err != nil && ctx.Err() == nil && lctx.Err() != nil {
		return fmt.Errorf("%w: no answer to navigation within %s", ErrPageNotReady, timeout)
	}
	return err
}

// waitReady polls the page's load state every poll until it reports
// "complete". It gives up with ErrPageNotReady once timeout has elapsed.
// Protocol errors while polling are treated as "not ready yet": the page
// may be between documents.
func waitReady(ctx context.Context, ch *Channel, s *Session, timeout, poll time.Duration) error {
	wctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	timer := time.NewTimer(poll)
	defer timer.Stop()

	var last string
	for {
		state, err := ch.EvaluateString(wctx, s, readyStateExpr)
		switch {
		case err == nil:
			if state == "complete" {
				return nil
			}
			last = state
		case errors.Is(err, ErrSessionLost):
			return err
		case errors.Is(err, ErrProtocol):
			last = "error: " + err.Error()
		case ctx.Err() != nil:
			return ctx.Err()
		case wctx.Err() != nil:
			return notReady(timeout, last)
		default:
			return err
		}

		timer.Reset(poll)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-wctx.Done():
			return notReady(timeout, last)
		case <-timer.C:
		}
	}
}

func notReady(timeout time.Duration, last string) error {
	if last == "" {
		return fmt.Errorf("%w: after %s", ErrPageNotReady, timeout)
	}
	return fmt.Errorf("%w: after %s (last state %q)", ErrPageNotReady, timeout, last)
}
