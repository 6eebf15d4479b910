package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-web2pdf/internal/config"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// browserFlags holds browser launch flags.
type browserFlags struct {
	bin              string
	controlURL       string
	debugPort        int
	userDataDir      string
	stealth          bool
	ignoreCertErrors bool
}

// outputFlags holds capture timing and page layout flags.
type outputFlags struct {
	dir         string
	timeout     time.Duration
	poll        time.Duration
	stampFormat string
	verify      bool
	pageSize    string
	orientation string
	margin      float64
}

// storeFlags selects the domain registry.
type storeFlags struct {
	path    string
	backend string
}

// serveFlags holds all flags for the serve command.
type serveFlags struct {
	common    commonFlags
	browser   browserFlags
	output    outputFlags
	store     storeFlags
	listen    string
	secret    string
	whitelist string
	noWatch   bool
	interval  time.Duration
	noKeep    bool
	immediate bool
}

// captureFlags holds all flags for the capture command.
type captureFlags struct {
	common  commonFlags
	browser browserFlags
	output  outputFlags
	store   storeFlags
	login   string
}

// domainsFlags holds all flags for the domains command.
type domainsFlags struct {
	common     commonFlags
	store      storeFlags
	importPath string
	exportPath string
}

// newFlagSet creates a FlagSet that reports errors and usage to w.
func newFlagSet(name string, w io.Writer, usage func(io.Writer)) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(w)
	fs.Usage = func() { usage(w) }
	return fs
}

// parseArgs parses args, marking malformed input with ErrBadFlag.
// flag.ErrHelp is returned unwrapped.
func parseArgs(fs *flag.FlagSet, args []string) error {
	err := fs.Parse(args)
	if err == nil || errors.Is(err, flag.ErrHelp) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrBadFlag, err)
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show debug logs")
}

// addBrowserFlags adds browser flags to a FlagSet.
func addBrowserFlags(fs *flag.FlagSet, f *browserFlags) {
	fs.StringVar(&f.bin, "browser-bin", "", "Chrome/Chromium binary")
	fs.StringVar(&f.controlURL, "control-url", "", "attach to a running browser's DevTools URL")
	fs.IntVar(&f.debugPort, "debug-port", 0, "remote debugging port of launched browsers")
	fs.StringVar(&f.userDataDir, "user-data-dir", "", "keep the browser profile in this directory")
	fs.BoolVar(&f.stealth, "stealth", false, "mask headless fingerprints")
	fs.BoolVar(&f.ignoreCertErrors, "ignore-cert-errors", false, "accept invalid TLS certificates")
}

// addOutputFlags adds capture flags to a FlagSet.
func addOutputFlags(fs *flag.FlagSet, f *outputFlags) {
	fs.StringVarP(&f.dir, "output", "o", "", "directory PDFs are written to")
	fs.DurationVarP(&f.timeout, "timeout", "t", 0, "page readiness timeout (e.g. 30s, 1m)")
	fs.DurationVar(&f.poll, "poll", 0, "delay between readiness checks")
	fs.StringVar(&f.stampFormat, "stamp-format", "", "file name timestamp layout")
	fs.BoolVar(&f.verify, "verify", false, "parse written PDFs before reporting success")
	fs.StringVarP(&f.pageSize, "page-size", "p", "", "page size: letter, a4, legal")
	fs.StringVar(&f.orientation, "orientation", "", "page orientation: portrait, landscape")
	fs.Float64Var(&f.margin, "margin", 0, "page margin in inches")
}

// addStoreFlags adds registry flags to a FlagSet.
func addStoreFlags(fs *flag.FlagSet, f *storeFlags) {
	fs.StringVar(&f.path, "registry", "", "domain registry path")
	fs.StringVar(&f.backend, "backend", "", "domain registry backend: file, sqlite")
}

// parseServeFlags parses the serve command's flags.
func parseServeFlags(args []string, w io.Writer) (*serveFlags, *flag.FlagSet, error) {
	f := &serveFlags{}
	fs := newFlagSet("serve", w, printServeUsage)
	addCommonFlags(fs, &f.common)
	addBrowserFlags(fs, &f.browser)
	addOutputFlags(fs, &f.output)
	addStoreFlags(fs, &f.store)
	fs.StringVarP(&f.listen, "listen", "l", "", "HTTP listen address (host:port)")
	fs.StringVar(&f.secret, "secret", "", "Basic auth password")
	fs.StringVar(&f.whitelist, "whitelist", "", "whitelist file (one domain per line)")
	fs.BoolVar(&f.noWatch, "no-watch", false, "do not reload the whitelist on change")
	fs.DurationVar(&f.interval, "keepalive-interval", 0, "keep-alive pass interval")
	fs.BoolVar(&f.noKeep, "no-keepalive", false, "disable the keep-alive scheduler")
	fs.BoolVar(&f.immediate, "keepalive-now", false, "run a keep-alive pass at startup")
	if err := parseArgs(fs, args); err != nil {
		return nil, nil, err
	}
	return f, fs, nil
}

// parseCaptureFlags parses the capture command's flags and returns the URLs.
func parseCaptureFlags(args []string, w io.Writer) (*captureFlags, *flag.FlagSet, []string, error) {
	f := &captureFlags{}
	fs := newFlagSet("capture", w, printCaptureUsage)
	addCommonFlags(fs, &f.common)
	addBrowserFlags(fs, &f.browser)
	addOutputFlags(fs, &f.output)
	addStoreFlags(fs, &f.store)
	fs.StringVar(&f.login, "login", "", "sign the browser in at this URL first")
	if err := parseArgs(fs, args); err != nil {
		return nil, nil, nil, err
	}
	return f, fs, fs.Args(), nil
}

// parseDomainsFlags parses the domains command's flags.
func parseDomainsFlags(args []string, w io.Writer) (*domainsFlags, *flag.FlagSet, error) {
	f := &domainsFlags{}
	fs := newFlagSet("domains", w, printDomainsUsage)
	addCommonFlags(fs, &f.common)
	addStoreFlags(fs, &f.store)
	fs.StringVar(&f.importPath, "import", "", "record every line of this file first")
	fs.StringVar(&f.exportPath, "export", "", "write the recorded domains to this file")
	if err := parseArgs(fs, args); err != nil {
		return nil, nil, err
	}
	return f, fs, nil
}

// applyBrowserFlags copies explicitly set browser flags into cfg.
func applyBrowserFlags(fs *flag.FlagSet, f *browserFlags, cfg *config.Config) {
	if fs.Changed("browser-bin") {
		cfg.Browser.Bin = f.bin
	}
	if fs.Changed("control-url") {
		cfg.Browser.ControlURL = f.controlURL
	}
	if fs.Changed("debug-port") {
		cfg.Browser.DebugPort = f.debugPort
	}
	if fs.Changed("user-data-dir") {
		cfg.Browser.UserDataDir = f.userDataDir
	}
	if fs.Changed("stealth") {
		cfg.Browser.Stealth = f.stealth
	}
	if fs.Changed("ignore-cert-errors") {
		cfg.Browser.IgnoreCertErrors = f.ignoreCertErrors
	}
}

// applyOutputFlags copies explicitly set capture flags into cfg.
func applyOutputFlags(fs *flag.FlagSet, f *outputFlags, cfg *config.Config) {
	if fs.Changed("output") {
		cfg.Capture.OutputDir = f.dir
	}
	if fs.Changed("timeout") {
		cfg.Capture.Timeout = f.timeout
	}
	if fs.Changed("poll") {
		cfg.Capture.PollInterval = f.poll
	}
	if fs.Changed("stamp-format") {
		cfg.Capture.StampFormat = f.stampFormat
	}
	if fs.Changed("verify") {
		cfg.Capture.Verify = f.verify
	}
	if fs.Changed("page-size") {
		cfg.Capture.Page.Size = f.pageSize
	}
	if fs.Changed("orientation") {
		cfg.Capture.Page.Orientation = f.orientation
	}
	if fs.Changed("margin") {
		cfg.Capture.Page.Margin = f.margin
	}
}

// applyStoreFlags copies explicitly set registry flags into cfg.
func applyStoreFlags(fs *flag.FlagSet, f *storeFlags, cfg *config.Config) {
	if fs.Changed("registry") {
		cfg.Registry.Path = f.path
	}
	if fs.Changed("backend") {
		cfg.Registry.Backend = f.backend
	}
}

// applyServeFlags copies explicitly set serve flags into cfg.
func applyServeFlags(fs *flag.FlagSet, f *serveFlags, cfg *config.Config) {
	applyBrowserFlags(fs, &f.browser, cfg)
	applyOutputFlags(fs, &f.output, cfg)
	applyStoreFlags(fs, &f.store, cfg)
	if fs.Changed("listen") {
		cfg.Server.Listen = f.listen
	}
	if fs.Changed("secret") {
		cfg.Server.Secret = f.secret
	}
	if fs.Changed("whitelist") {
		cfg.Whitelist.Path = f.whitelist
	}
	if f.noWatch {
		cfg.Whitelist.Watch = false
	}
	if fs.Changed("keepalive-interval") {
		cfg.KeepAlive.Interval = f.interval
	}
	if f.noKeep {
		cfg.KeepAlive.Enabled = false
	}
	if f.immediate {
		cfg.KeepAlive.Immediate = true
	}
}
