// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/apzip

// Package bundle locates, validates and registers the base asset archive.
package bundle

import (
	"fmt"
	"log/slog"

	"github.com/woozymasta/apzip"
)

// embeddedSource names the compiled-in archive in logs.
const embeddedSource = "<embedded>"

// Load opens the asset bundle, checks its required members and registers it
// under cfg.Tag in reg (nil means the default registry).
//
// The embedded archive is tried first when present; an unreadable embedded
// archive is logged and the search paths are tried next. The returned reader
// stays open and registered until the caller closes it.
func Load(reg *apzip.Registry, cfg Config, embedded []byte, logger *slog.Logger) (*apzip.Reader, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if reg == nil {
		reg = apzip.DefaultRegistry()
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	opts := cfg.Reader
	if opts.Logger == nil {
		opts.Logger = logger
	}

	r, source := open(cfg, embedded, opts, logger)
	if r == nil {
		return nil, fmt.Errorf("%w: tried %d search paths", ErrBundleNotFound, len(cfg.SearchPaths))
	}

	for _, name := range cfg.Required {
		if !r.FileExists(name) {
			_ = r.Close()
			return nil, fmt.Errorf("%w: %s in %s", ErrBundleIncomplete, name, source)
		}
	}

	if !reg.Register(r, cfg.Tag) {
		_ = r.Close()
		return nil, fmt.Errorf("%w: tag %s", ErrBundleRegister, cfg.Tag)
	}

	logger.Info("asset bundle loaded", "source", source, "tag", cfg.Tag, "entries", r.Len())
	return r, nil
}

// open returns the first archive that parses, with a description of where it came from.
func open(cfg Config, embedded []byte, opts apzip.ReaderOptions, logger *slog.Logger) (*apzip.Reader, string) {
	if len(embedded) > 0 {
		r, err := apzip.OpenMemoryWithOptions(embedded, opts)
		if err == nil {
			return r, embeddedSource
		}

		logger.Warn("embedded asset bundle can not be loaded", "error", err)
	}

	for _, path := range cfg.SearchPaths {
		r, err := apzip.OpenWithOptions(path, opts)
		if err == nil {
			return r, path
		}

		logger.Debug("asset bundle candidate skipped", "path", path, "error", err)
	}

	return nil, ""
}
