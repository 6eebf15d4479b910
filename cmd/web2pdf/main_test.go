package main

import (
	"context"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// TestIsCommand - Command name detection
// ---------------------------------------------------------------------------

func TestIsCommand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  bool
	}{
		{"serve", true},
		{"capture", true},
		{"domains", true},
		{"doctor", true},
		{"version", true},
		{"help", true},
		{"foo", false},
		{"", false},
		{"https://example.com", false},
		{"Capture", false}, // case sensitive
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			if got := isCommand(tt.input); got != tt.want {
				t.Errorf("isCommand(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestRun - Dispatch and exit codes
// ---------------------------------------------------------------------------

func TestRun_Version(t *testing.T) {
	isolate(t)
	env, stdout, _ := newTestEnv(&stubLauncher{})

	if code := run(context.Background(), []string{"version"}, env); code != ExitSuccess {
		t.Fatalf("exit code = %d, want %d", code, ExitSuccess)
	}
	if got, want := stdout.String(), "go-web2pdf "+Version+"\n"; got != want {
		t.Errorf("stdout = %q, want %q", got, want)
	}
}

func TestRun_UnknownCommand(t *testing.T) {
	isolate(t)
	env, _, stderr := newTestEnv(&stubLauncher{})

	if code := run(context.Background(), []string{"convert"}, env); code != ExitUsage {
		t.Errorf("exit code = %d, want %d", code, ExitUsage)
	}
	if !strings.Contains(stderr.String(), "Unknown command: convert") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestRun_HelpFlagSucceeds(t *testing.T) {
	isolate(t)
	env, _, stderr := newTestEnv(&stubLauncher{})

	if code := run(context.Background(), []string{"capture", "--help"}, env); code != ExitSuccess {
		t.Errorf("exit code = %d, want %d", code, ExitSuccess)
	}
	if !strings.Contains(stderr.String(), "Usage: web2pdf capture") {
		t.Errorf("stderr = %q, want capture usage", stderr)
	}
}

func TestRun_BadFlag(t *testing.T) {
	isolate(t)
	env, _, _ := newTestEnv(&stubLauncher{})

	if code := run(context.Background(), []string{"capture", "--no-such-flag"}, env); code != ExitUsage {
		t.Errorf("exit code = %d, want %d", code, ExitUsage)
	}
}

func TestRun_CaptureErrorPrinted(t *testing.T) {
	isolate(t)
	env, _, stderr := newTestEnv(&stubLauncher{})

	code := run(context.Background(), []string{"capture", "example.com"}, env)
	if code != ExitUsage {
		t.Errorf("exit code = %d, want %d", code, ExitUsage)
	}
	if !strings.Contains(stderr.String(), "error: invalid URL") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestRun_WarnsUnknownEnvVars(t *testing.T) {
	isolate(t)
	t.Setenv("WEB2PDF_TIMEOUTS", "1m")
	env, _, stderr := newTestEnv(&stubLauncher{})

	run(context.Background(), []string{"version"}, env)

	if !strings.Contains(stderr.String(), "unknown environment variable WEB2PDF_TIMEOUTS") {
		t.Errorf("stderr = %q, want typo warning", stderr)
	}
}

// ---------------------------------------------------------------------------
// TestRunHelp - Per-command help
// ---------------------------------------------------------------------------

func TestRunHelp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		args       []string
		wantStdout string
		wantStderr string
	}{
		{args: nil, wantStdout: "Commands:"},
		{args: []string{"serve"}, wantStdout: "--keepalive-interval"},
		{args: []string{"capture"}, wantStdout: "--login"},
		{args: []string{"domains"}, wantStdout: "--import"},
		{args: []string{"doctor"}, wantStdout: "--json"},
		{args: []string{"version"}, wantStdout: "Show version information."},
		{args: []string{"help"}, wantStdout: "Usage: web2pdf help"},
		{args: []string{"nope"}, wantStderr: "Unknown command: nope"},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			t.Parallel()

			env, stdout, stderr := newTestEnv(&stubLauncher{})
			runHelp(tt.args, env)

			if tt.wantStdout != "" && !strings.Contains(stdout.String(), tt.wantStdout) {
				t.Errorf("stdout missing %q:\n%s", tt.wantStdout, stdout)
			}
			if tt.wantStderr != "" && !strings.Contains(stderr.String(), tt.wantStderr) {
				t.Errorf("stderr missing %q:\n%s", tt.wantStderr, stderr)
			}
		})
	}
}
