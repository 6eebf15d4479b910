// Package web2pdf captures web pages to PDF with one shared headless Chrome
// session, so pages behind a login can be printed once the session has
// signed in.
//
// # Quick Start
//
// Create a service, optionally log in, capture, and close when done:
//
//	store := registry.NewFileStore("domains.txt")
//	svc := web2pdf.New(
//	    web2pdf.NewRodLauncher(web2pdf.BrowserConfig{}, logger),
//	    store,
//	    web2pdf.WithOutputDir("output"),
//	)
//	defer svc.Close()
//
//	if err := svc.EstablishSession(ctx, "https://example.com/login"); err != nil {
//	    log.Fatal(err)
//	}
//	res := svc.Capture(ctx, "https://example.com/report")
//	if res.Err != nil {
//	    log.Fatal(res.Err)
//	}
//	fmt.Println(res.Path)
//
// # Capture Steps
//
// Each capture runs on the shared session:
//
//  1. Navigate to the URL
//  2. Poll document.readyState until "complete" or the timeout elapses
//  3. Reject a blank document (how the browser renders DNS and connection failures)
//  4. Print to PDF (US Letter, 0.5in margins by default)
//  5. Name the file after the sanitized page title plus a timestamp
//  6. Write it to the output directory and verify it on disk
//
// Failures are returned in CaptureResult.Err and never crash the session.
//
// # Sessions
//
// A SessionManager owns at most one browser. Captures, logins and keep-alive
// visits are mutually exclusive and queue in FIFO order. EstablishFor
// replaces the session with a fresh one, so cookies from an older login do
// not leak into the new one. A session whose browser connection breaks is
// retired and recreated by the next operation.
//
// # Keep-Alive
//
// KeepAlive re-visits every recorded login domain on a fixed interval
// (six hours by default) to keep server-side sessions from expiring.
//
// # Browser Requirements
//
// Chrome/Chromium is launched through go-rod, which downloads a managed
// Chromium on first run when no binary is configured. Set
// BrowserConfig.ControlURL to attach to a browser that is already running.
package web2pdf
