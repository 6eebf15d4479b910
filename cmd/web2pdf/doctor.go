package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/go-rod/rod/lib/launcher"
	flag "github.com/spf13/pflag"

	"github.com/alnah/go-web2pdf/internal/config"
	"github.com/alnah/go-web2pdf/internal/fileutil"
	"github.com/alnah/go-web2pdf/internal/hints"
	"github.com/alnah/go-web2pdf/internal/registry"
)

// Doctor statuses, worst last.
const (
	statusReady    = "ready"
	statusWarnings = "warnings"
	statusErrors   = "errors"
)

const versionCheckTimeout = 10 * time.Second

type doctorResult struct {
	Status   string      `json:"status"`
	Chrome   chromeInfo  `json:"chrome"`
	Env      envInfo     `json:"environment"`
	Storage  storageInfo `json:"storage"`
	Warnings []string    `json:"warnings,omitempty"`
	Errors   []string    `json:"errors,omitempty"`
}

type chromeInfo struct {
	Found      bool   `json:"found"`
	Path       string `json:"path,omitempty"`
	Version    string `json:"version,omitempty"`
	ControlURL string `json:"control_url,omitempty"`
}

type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	CI            bool   `json:"ci"`
}

type storageInfo struct {
	OutputDir      string `json:"output_dir"`
	OutputWritable bool   `json:"output_writable"`
	Registry       string `json:"registry"`
	RegistryOK     bool   `json:"registry_readable"`
	Domains        int    `json:"domains"`
}

func (r *doctorResult) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func (r *doctorResult) failf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// runDoctorCmd reports whether this host can capture pages. Warnings still
// exit 0; any error exits 1.
func runDoctorCmd(args []string, env *Environment) int {
	var common commonFlags
	var asJSON bool
	fs := newFlagSet("doctor", env.Stderr, printDoctorUsage)
	addCommonFlags(fs, &common)
	fs.BoolVar(&asJSON, "json", false, "print results as JSON")
	if err := parseArgs(fs, args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		return exitCodeFor(err)
	}

	result := diagnose(&common)
	if asJSON {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		writeDoctorReport(env.Stdout, result)
	}

	if result.Status == statusErrors {
		return ExitGeneral
	}
	return ExitSuccess
}

func diagnose(common *commonFlags) *doctorResult {
	r := &doctorResult{Env: envInfo{OS: runtime.GOOS, Arch: runtime.GOARCH}}

	cfg, err := loadConfig(common)
	if err != nil {
		r.failf("Config: %v", err)
		cfg = config.DefaultConfig()
	}

	r.Chrome = checkBrowser(r, cfg.Browser)
	r.Env.Container, r.Env.ContainerHint = detectContainer()
	r.Env.CI = hints.IsInCI() || os.Getenv("CIRCLECI") != ""
	if (r.Env.Container || r.Env.CI) && !r.Chrome.Found {
		r.warnf("running in a container or CI without a browser; the downloaded Chromium may lack system libraries")
	}
	r.Storage = checkStorage(r, cfg)

	switch {
	case len(r.Errors) > 0:
		r.Status = statusErrors
	case len(r.Warnings) > 0:
		r.Status = statusWarnings
	default:
		r.Status = statusReady
	}
	return r
}

// checkBrowser resolves the browser a session would use, the same way
// RodLauncher does: control URL, then configured binary, then PATH.
func checkBrowser(r *doctorResult, b config.BrowserConfig) chromeInfo {
	if b.ControlURL != "" {
		return chromeInfo{Found: true, ControlURL: b.ControlURL}
	}

	bin := b.Bin
	if bin == "" {
		var ok bool
		if bin, ok = launcher.LookPath(); !ok {
			r.warnf("no Chrome/Chromium on PATH; go-rod downloads one on first launch (or set WEB2PDF_BROWSER_BIN)")
			return chromeInfo{}
		}
	}
	if _, err := os.Stat(bin); err != nil {
		r.failf("browser binary %s: %v", bin, err)
		return chromeInfo{}
	}

	info := chromeInfo{Found: true, Path: bin}
	ctx, cancel := context.WithTimeout(context.Background(), versionCheckTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, bin, "--version").Output() // #nosec G204 -- configured browser binary
	if err != nil {
		r.warnf("%s --version: %v", bin, err)
		return info
	}
	info.Version = strings.TrimSpace(string(out))
	return info
}

// detectContainer returns whether a container was detected and which signal
// gave it away.
func detectContainer() (bool, string) {
	switch {
	case os.Getenv("WEB2PDF_CONTAINER") == "1":
		return true, "WEB2PDF_CONTAINER=1"
	case hints.IsInContainer():
		return true, "/.dockerenv"
	case os.Getenv("container") != "":
		return true, "container=" + os.Getenv("container")
	case os.Getenv("KUBERNETES_SERVICE_HOST") != "":
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

func checkStorage(r *doctorResult, cfg *config.Config) storageInfo {
	info := storageInfo{
		OutputDir: cfg.Capture.OutputDir,
		Registry:  cfg.Registry.Backend + ":" + cfg.Registry.Path,
	}

	if err := fileutil.CheckWritableDir(info.OutputDir); err != nil {
		r.failf("output directory: %v", err)
	} else {
		info.OutputWritable = true
	}

	store, err := registry.Open(cfg.Registry.Backend, cfg.Registry.Path)
	if err != nil {
		r.failf("registry: %v", err)
		return info
	}
	defer func() { _ = store.Close() }()

	domains, err := registry.List(context.Background(), store)
	if err != nil {
		r.failf("registry %s: %v", info.Registry, err)
		return info
	}
	info.RegistryOK = true
	info.Domains = len(domains)
	return info
}

func mark(ok bool) string {
	if ok {
		return "[OK]   "
	}
	return "[ERROR]"
}

func writeDoctorReport(w io.Writer, r *doctorResult) {
	fmt.Fprint(w, "web2pdf doctor\n\nChrome/Chromium\n")
	c := r.Chrome
	switch {
	case c.ControlURL != "":
		fmt.Fprintf(w, "  [OK] Attaching to %s\n", c.ControlURL)
	case c.Found && c.Version != "":
		fmt.Fprintf(w, "  [OK] %s (%s)\n", c.Path, c.Version)
	case c.Found:
		fmt.Fprintf(w, "  [OK] %s\n", c.Path)
	default:
		fmt.Fprintln(w, "  [WARN] none installed")
	}

	fmt.Fprintf(w, "\nEnvironment\n  %s/%s", r.Env.OS, r.Env.Arch)
	if r.Env.Container {
		fmt.Fprintf(w, ", container (%s)", r.Env.ContainerHint)
	}
	if r.Env.CI {
		fmt.Fprint(w, ", CI")
	}
	fmt.Fprintln(w)

	s := r.Storage
	fmt.Fprintf(w, "\nStorage\n  %s output  %s\n", mark(s.OutputWritable), s.OutputDir)
	if s.RegistryOK {
		fmt.Fprintf(w, "  %s domains %s, %d recorded\n", mark(true), s.Registry, s.Domains)
	} else {
		fmt.Fprintf(w, "  %s domains %s\n", mark(false), s.Registry)
	}

	for _, msg := range r.Warnings {
		fmt.Fprintf(w, "\nwarning: %s", msg)
	}
	for _, msg := range r.Errors {
		fmt.Fprintf(w, "\nerror: %s", msg)
	}
	if len(r.Warnings)+len(r.Errors) > 0 {
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "\nStatus: %s\n", r.Status)
}
