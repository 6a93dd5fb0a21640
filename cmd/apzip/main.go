// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/apzip

/*
apzip inspects ZIP archives the way the game loads them.

Usage:

	apzip [-v] list <zip>
	apzip [-v] cat <zip> <member>
	apzip [-v] check <zip>
	apzip [-v] extract [-include pattern]... [-workers n] [-raw] <zip> <dir>
	apzip [-v] worlds [dir]
	apzip [-v] assets [-config file] [-embedded zip]
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"github.com/woozymasta/pathrules"

	"github.com/woozymasta/apzip"
	"github.com/woozymasta/apzip/bundle"
	"github.com/woozymasta/apzip/world"
)

// errUsage reports bad command-line arguments.
var errUsage = errors.New("usage")

const usage = `usage:
  apzip [-v] list <zip>
  apzip [-v] cat <zip> <member>
  apzip [-v] check <zip>
  apzip [-v] extract [-include pattern]... [-workers n] [-raw] <zip> <dir>
  apzip [-v] worlds [dir]
  apzip [-v] assets [-config file] [-embedded zip]
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one command and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("apzip", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { _, _ = fmt.Fprint(stderr, usage) }
	verbose := fs.Bool("v", false, "verbose logging")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := &command{stdout: stdout, stderr: stderr, logger: logger}

	var err error
	switch rest[0] {
	case "list":
		err = cmd.list(rest[1:])
	case "cat":
		err = cmd.cat(rest[1:])
	case "check":
		err = cmd.check(rest[1:])
	case "extract":
		err = cmd.extract(ctx, rest[1:])
	case "worlds":
		err = cmd.worlds(rest[1:])
	case "assets":
		err = cmd.assets(rest[1:])
	default:
		err = fmt.Errorf("%w: unknown command %q", errUsage, rest[0])
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage):
		_, _ = fmt.Fprintf(stderr, "%v\n%s", err, usage)
		return 2
	default:
		logger.Error("command failed", "command", rest[0], "error", err)
		return 1
	}
}

// command carries shared output and logging for subcommands.
type command struct {
	stdout io.Writer
	stderr io.Writer
	logger *slog.Logger
}

// open opens an archive with the command logger attached.
func (c *command) open(path string) (*apzip.Reader, error) {
	return apzip.OpenWithOptions(path, apzip.ReaderOptions{Logger: c.logger})
}

// list prints every central directory entry with its local header offset.
func (c *command) list(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: list takes one archive", errUsage)
	}

	entries, err := apzip.ListEntries(args[0])
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
	for _, e := range entries {
		_, _ = fmt.Fprintf(tw, "%d\t%s\n", e.LocalHeaderOffset, e.Name)
	}

	return tw.Flush()
}

// cat writes one decoded member to stdout.
func (c *command) cat(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: cat takes an archive and a member", errUsage)
	}

	r, err := c.open(args[0])
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	data, err := r.ReadFile(args[1])
	if err != nil {
		return err
	}

	_, err = c.stdout.Write(data)
	return err
}

// check decodes every entry and reports the ones that fail.
func (c *command) check(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: check takes one archive", errUsage)
	}

	r, err := c.open(args[0])
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	bad := 0
	for _, e := range r.Entries() {
		if _, ok := r.GetFile(e.Name); !ok {
			bad++
			_, _ = fmt.Fprintf(c.stdout, "BAD  %s\n", e.Name)
			continue
		}

		c.logger.Debug("entry ok", "name", e.Name)
	}

	_, _ = fmt.Fprintf(c.stdout, "%d entries, %d bad\n", r.Len(), bad)
	if bad > 0 {
		return fmt.Errorf("%d of %d entries can not be decoded", bad, r.Len())
	}

	return nil
}

// multiFlag collects repeated string flags.
type multiFlag []string

// String implements flag.Value.
func (m *multiFlag) String() string {
	return strings.Join(*m, ",")
}

// Set implements flag.Value.
func (m *multiFlag) Set(v string) error {
	*m = append(*m, v)
	return nil
}

// extract writes selected members under an output directory.
func (c *command) extract(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("extract", flag.ContinueOnError)
	fs.SetOutput(c.stderr)

	var include multiFlag
	fs.Var(&include, "include", "include pattern (repeatable)")
	workers := fs.Int("workers", 0, "parallel workers (0 means GOMAXPROCS)")
	raw := fs.Bool("raw", false, "keep entry names without sanitizing")
	skip := fs.Bool("skip-invalid", false, "skip entries that fail to decode")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}

	if fs.NArg() != 2 {
		return fmt.Errorf("%w: extract takes an archive and an output directory", errUsage)
	}

	r, err := c.open(fs.Arg(0))
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	rules := make([]pathrules.Rule, 0, len(include))
	for _, pattern := range include {
		rules = append(rules, pathrules.Rule{Action: pathrules.ActionInclude, Pattern: pattern})
	}

	return r.Extract(ctx, fs.Arg(1), apzip.ExtractOptions{
		Include:     rules,
		MaxWorkers:  *workers,
		RawNames:    *raw,
		SkipInvalid: *skip,
		OnEntryDone: func(entry apzip.EntryInfo, written int64, outputPath string) {
			c.logger.Debug("extracted", "name", entry.Name, "bytes", written, "path", outputPath)
		},
	})
}

// worlds lists world archives discovered under a directory.
func (c *command) worlds(args []string) error {
	if len(args) > 1 {
		return fmt.Errorf("%w: worlds takes at most one directory", errUsage)
	}

	root := world.DefaultRoot
	if len(args) == 1 {
		root = args[0]
	}

	catalog, err := world.NewCatalog(world.CatalogOptions{Logger: c.logger})
	if err != nil {
		return err
	}

	if err := catalog.Discover(root, nil); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "SHORT\tNAME\tIWAD\tPATH")
	for _, w := range catalog.Worlds() {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", w.ShortName, w.FullName, w.IWAD, w.Path)
	}

	return tw.Flush()
}

// assets loads the asset bundle and reports its entry count.
func (c *command) assets(args []string) error {
	fs := flag.NewFlagSet("assets", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	configPath := fs.String("config", "", "YAML bundle config")
	embeddedPath := fs.String("embedded", "", "archive to treat as the embedded bundle")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}

	cfg := bundle.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = bundle.LoadConfig(*configPath); err != nil {
			return err
		}
	}

	var embedded []byte
	if *embeddedPath != "" {
		var err error
		if embedded, err = os.ReadFile(*embeddedPath); err != nil {
			return fmt.Errorf("read embedded bundle: %w", err)
		}
	}

	r, err := bundle.Load(nil, cfg, embedded, c.logger)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	_, _ = fmt.Fprintf(c.stdout, "%s: %d entries\n", cfg.Tag, r.Len())
	return nil
}
