package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alnah/go-web2pdf/internal/hints"
	"github.com/alnah/go-web2pdf/internal/registry"
)

// runDomains prints every recorded login domain, one per line. With
// --import the lines of a text file are recorded first; --export writes the
// result to a file in the same format.
func runDomains(ctx context.Context, args []string, env *Environment) error {
	f, fs, err := parseDomainsFlags(args, env.Stderr)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(&f.common)
	if err != nil {
		return err
	}
	applyStoreFlags(fs, &f.store, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	store, err := registry.Open(cfg.Registry.Backend, cfg.Registry.Path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if f.importPath != "" {
		if err := importDomains(ctx, store, f.importPath, env, f.common.quiet); err != nil {
			return err
		}
	}

	if f.exportPath != "" {
		if err := exportDomains(ctx, store, f.exportPath); err != nil {
			return err
		}
	}

	domains, err := registry.List(ctx, store)
	if err != nil {
		return err
	}
	if len(domains) == 0 && !f.common.quiet {
		fmt.Fprintf(env.Stderr, "no domains recorded in %s%s\n", cfg.Registry.Path, hints.ForLogin())
		return nil
	}
	for _, d := range domains {
		fmt.Fprintln(env.Stdout, d)
	}
	return nil
}

func importDomains(ctx context.Context, store registry.Store, path string, env *Environment, quiet bool) error {
	file, err := os.Open(path) // #nosec G304 -- path is user-provided CLI input
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	n, err := registry.Import(ctx, store, file)
	if err != nil {
		return fmt.Errorf("importing %s: %w", path, err)
	}
	if !quiet {
		fmt.Fprintf(env.Stderr, "imported %d lines from %s\n", n, path)
	}
	return nil
}

func exportDomains(ctx context.Context, store registry.Store, path string) (err error) {
	file, err := os.Create(path) // #nosec G304 -- path is user-provided CLI input
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if cerr := file.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("closing %s: %w", path, cerr)
		}
	}()

	if err := registry.Export(ctx, store, file); err != nil {
		return fmt.Errorf("exporting to %s: %w", path, err)
	}
	return nil
}
