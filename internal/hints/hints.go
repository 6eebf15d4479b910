// Package hints appends short remedies to error messages shown by the CLI.
// Every hint renders as "\n  hint: <text>" so it lines up under the error.
package hints

import (
	"os"
	"slices"
	"strings"

	"github.com/alnah/go-web2pdf/internal/fileutil"
)

const prefix = "\n  hint: "

// IsInContainer reports whether /.dockerenv exists. Tests replace it.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

var ciVars = []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL"}

// IsInCI reports whether a known CI environment variable is set.
func IsInCI() bool {
	return slices.ContainsFunc(ciVars, func(k string) bool { return os.Getenv(k) != "" })
}

// ForBrowserConnect suggests the environment variables that point the
// service at a usable browser, skipping the ones already set.
func ForBrowserConnect() string {
	var parts []string
	if os.Getenv("WEB2PDF_BROWSER_BIN") == "" && os.Getenv("ROD_BROWSER_BIN") == "" {
		if IsInCI() || IsInContainer() {
			parts = append(parts, "install chromium in the image and set WEB2PDF_BROWSER_BIN to its path")
		} else {
			parts = append(parts, "set WEB2PDF_BROWSER_BIN to use a custom Chrome")
		}
	}
	if os.Getenv("WEB2PDF_CONTROL_URL") == "" {
		parts = append(parts, "or set WEB2PDF_CONTROL_URL to attach to a running browser")
	}
	return hint(parts...)
}

// ForTimeout is shown when a page never reached readyState "complete".
func ForTimeout() string {
	return hint("for slow pages, use --timeout or WEB2PDF_TIMEOUT")
}

// ForLogin is shown when no login domain has been recorded yet.
func ForLogin() string {
	return hint("sign the browser in first with --login URL")
}

// ForConfigNotFound points at --config and, when one of the searched paths
// is the per-user config directory, offers it as the place to create one.
func ForConfigNotFound(searched []string) string {
	text := "use --config /path/to/file.yaml"
	if i := slices.IndexFunc(searched, func(p string) bool {
		return strings.Contains(p, "go-web2pdf")
	}); i >= 0 {
		text += " or create " + searched[i]
	}
	return hint(text)
}

// ForOutputDirectory is shown when PDFs cannot be written.
func ForOutputDirectory() string {
	return hint("check that the output directory's parent exists and is writable")
}

// ForWhitelist names the file a rejected domain should be added to.
func ForWhitelist(path string) string {
	if path == "" {
		return ""
	}
	return hint("add the domain to " + path)
}

// hint joins parts with "; " behind the hint prefix. No parts, no hint.
func hint(parts ...string) string {
	if len(parts) == 0 {
		return ""
	}
	return prefix + strings.Join(parts, "; ")
}
