package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"

	flag "github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"
)

// Version is set at build time via ldflags.
var Version = "dev"

// commands lists the subcommands; serve runs when none is given.
var commands = []string{"serve", "capture", "domains", "doctor", "version", "help"}

func main() {
	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply.
	if slices.Contains(os.Args[1:], "-v") || slices.Contains(os.Args[1:], "--verbose") {
		_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
			fmt.Fprintf(os.Stderr, format+"\n", args...)
		}))
	} else {
		_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...any) {}))
	}

	ctx, stop := notifyContext(context.Background())
	code := run(ctx, os.Args[1:], DefaultEnv())
	stop()
	os.Exit(code)
}

// isCommand reports whether arg names a subcommand.
func isCommand(arg string) bool {
	return slices.Contains(commands, arg)
}

// run dispatches args to a subcommand and returns the process exit code.
func run(ctx context.Context, args []string, env *Environment) int {
	warnUnknownEnvVars(env.Stderr)

	cmd := "serve"
	if len(args) > 0 && len(args[0]) > 0 && args[0][0] != '-' {
		if !isCommand(args[0]) {
			fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
			printUsage(env.Stderr)
			return ExitUsage
		}
		cmd, args = args[0], args[1:]
	}

	var err error
	switch cmd {
	case "serve":
		err = runServe(ctx, args, env)
	case "capture":
		err = runCapture(ctx, args, env)
	case "domains":
		err = runDomains(ctx, args, env)
	case "doctor":
		return runDoctorCmd(args, env)
	case "version":
		fmt.Fprintf(env.Stdout, "go-web2pdf %s\n", Version)
		return ExitSuccess
	case "help":
		runHelp(args, env)
		return ExitSuccess
	}

	if errors.Is(err, flag.ErrHelp) {
		return ExitSuccess
	}
	if err != nil {
		fmt.Fprintln(env.Stderr, "error:", err)
	}
	return exitCodeFor(err)
}
