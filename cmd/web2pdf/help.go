package main

import (
	"fmt"
	"io"
)

const mainUsage = `Usage: web2pdf [command] [flags] [args]

Commands:
  serve      Run the HTTP service (default)
  capture    Save web pages as PDF from the command line
  domains    List domains with a recorded login
  doctor     Check the browser, output directory and registry
  version    Show version information
  help       Show help for a command

Run 'web2pdf help <command>' for details on a specific command.
`

const commonHelp = `
Common:
  -c, --config <name>       Config file name or path
  -q, --quiet               Only show errors
  -v, --verbose             Show debug logs
`

const browserHelp = `
Browser:
      --browser-bin <path>  Chrome/Chromium binary
      --control-url <url>   Attach to a running browser instead of launching
      --debug-port <n>      Remote debugging port (default 9222)
      --user-data-dir <dir> Keep the browser profile between runs
      --stealth             Mask headless fingerprints
      --ignore-cert-errors  Accept invalid TLS certificates
`

const outputHelp = `
Capture:
  -o, --output <dir>        Directory PDFs are written to
  -t, --timeout <d>         Page readiness timeout (e.g. 30s, 1m)
      --poll <d>            Delay between readiness checks
      --stamp-format <s>    File name timestamp: YYMMDD-HHmmss, iso, ...
      --verify              Parse written PDFs before reporting success
  -p, --page-size <s>       letter, a4 or legal
      --orientation <s>     portrait or landscape
      --margin <f>          Margin in inches
`

const storeHelp = `
Registry:
      --registry <path>     Domain registry path
      --backend <s>         Registry backend: file, sqlite
`

// commandHelp holds the per-command text; sections are appended in order.
var commandHelp = map[string][]string{
	"serve": {`Usage: web2pdf serve [flags]

Serve the capture and login forms over HTTP.

Server:
  -l, --listen <addr>       Listen address (default :5000)
      --secret <s>          Basic auth password (user "web2pdf")
      --whitelist <path>    Only capture domains listed in this file
      --no-watch            Do not reload the whitelist on change

Keep-alive:
      --keepalive-interval <d> Revisit interval (default 6h)
      --keepalive-now       Run a pass at startup
      --no-keepalive        Disable the scheduler
`, browserHelp, outputHelp, storeHelp, commonHelp},

	"capture": {`Usage: web2pdf capture [--login URL] [flags] URL...

Save each URL as PDF through one browser session and print the paths.

      --login <url>         Sign the browser in at this URL first
`, browserHelp, outputHelp, storeHelp, commonHelp},

	"domains": {`Usage: web2pdf domains [--import FILE] [--export FILE] [flags]

List domains with a recorded login, one per line.

      --import <path>       Record every line of this file first
      --export <path>       Write the recorded domains to this file
`, storeHelp, commonHelp},

	"doctor": {`Usage: web2pdf doctor [--json] [flags]

Check the browser, output directory and domain registry.

      --json                Print results as JSON
`, commonHelp},

	"version": {"Usage: web2pdf version\n\nShow version information.\n"},
	"help":    {"Usage: web2pdf help [command]\n\nShow help for a command.\n"},
}

func printUsage(w io.Writer) { fmt.Fprint(w, mainUsage) }

func printCommandUsage(w io.Writer, cmd string) {
	for _, section := range commandHelp[cmd] {
		fmt.Fprint(w, section)
	}
}

func printServeUsage(w io.Writer)   { printCommandUsage(w, "serve") }
func printCaptureUsage(w io.Writer) { printCommandUsage(w, "capture") }
func printDomainsUsage(w io.Writer) { printCommandUsage(w, "domains") }
func printDoctorUsage(w io.Writer)  { printCommandUsage(w, "doctor") }

// runHelp prints the usage of args[0], or the command list without args.
func runHelp(args []string, env *Environment) {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return
	}
	if _, ok := commandHelp[args[0]]; !ok {
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
		return
	}
	printCommandUsage(env.Stdout, args[0])
}
