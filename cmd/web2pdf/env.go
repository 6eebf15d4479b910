package main

import (
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	web2pdf "github.com/alnah/go-web2pdf"
)

// LauncherFunc builds the browser launcher for a session manager.
type LauncherFunc func(cfg web2pdf.BrowserConfig, logger *zap.Logger) web2pdf.Launcher

// Environment holds injectable dependencies for testability.
type Environment struct {
	Now      func() time.Time
	Stdout   io.Writer
	Stderr   io.Writer
	Launcher LauncherFunc
}

// DefaultEnv returns the production environment backed by go-rod.
func DefaultEnv() *Environment {
	return &Environment{
		Now:    time.Now,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Launcher: func(cfg web2pdf.BrowserConfig, logger *zap.Logger) web2pdf.Launcher {
			return web2pdf.NewRodLauncher(cfg, logger)
		},
	}
}
