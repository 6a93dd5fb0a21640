// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/apzip

// Package world discovers world archives (.apworld) and loads one of them
// into an apzip registry.
package world

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/woozymasta/pathrules"

	"github.com/woozymasta/apzip"
)

// WorldTag is the registry tag of the loaded world archive.
const WorldTag = ":world:"

// DefaultRoot is the directory scanned for world files.
const DefaultRoot = "./games"

// Embedded is a world archive compiled into the program.
type Embedded struct {
	Name string
	Data []byte
}

// CatalogOptions configures world discovery.
type CatalogOptions struct {
	// Logger receives discovery diagnostics. Nil means discard.
	Logger *slog.Logger
	// Include selects world files by path relative to the root.
	// Empty means every "*.apworld" file.
	Include []pathrules.Rule
	// MatcherOptions control include rule matching.
	MatcherOptions pathrules.MatcherOptions
}

// Catalog holds discovered worlds sorted by full name.
type Catalog struct {
	logger  *slog.Logger
	matcher *pathrules.Matcher
	worlds  []Info
	loaded  *Info
	mu      sync.RWMutex
}

// applyDefaults fills zero-valued options.
func (opts *CatalogOptions) applyDefaults() {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	if len(opts.Include) == 0 {
		opts.Include = []pathrules.Rule{{Action: pathrules.ActionInclude, Pattern: "*.apworld"}}
	}

	if opts.MatcherOptions.DefaultAction == pathrules.ActionUnknown {
		opts.MatcherOptions.DefaultAction = pathrules.ActionExclude
	}
}

// NewCatalog returns an empty catalog.
func NewCatalog(opts CatalogOptions) (*Catalog, error) {
	opts.applyDefaults()

	matcher, err := pathrules.NewMatcher(opts.Include, opts.MatcherOptions)
	if err != nil {
		return nil, fmt.Errorf("compile world rules: %w", err)
	}

	return &Catalog{logger: opts.Logger, matcher: matcher}, nil
}

// Discover replaces the catalog with worlds found under root and in embedded.
//
// Files are parsed before embedded archives, so a file world shadows an
// embedded world with the same short name. A missing root is not an error.
// Archives without a valid manifest are skipped.
func (c *Catalog) Discover(root string, embedded []Embedded) error {
	var worlds []Info
	seen := make(map[string]struct{})

	add := func(info *Info) {
		if _, dup := seen[info.ShortName]; dup {
			c.logger.Debug("duplicate world skipped", "short_name", info.ShortName)
			return
		}

		seen[info.ShortName] = struct{}{}
		worlds = append(worlds, *info)
	}

	paths, err := c.findFiles(root)
	if err != nil {
		return err
	}

	for _, path := range paths {
		info, err := c.parseFile(path)
		if err != nil {
			c.logger.Warn("world skipped", "path", path, "error", err)
			continue
		}

		info.Path = path
		add(info)
	}

	for _, e := range embedded {
		info, err := parseArchive(apzip.OpenMemory(e.Data))
		if err != nil {
			c.logger.Warn("embedded world skipped", "name", e.Name, "error", err)
			continue
		}

		info.Embedded = e.Name
		info.embeddedData = e.Data
		add(info)
	}

	slices.SortStableFunc(worlds, func(a, b Info) int {
		return strings.Compare(a.FullName, b.FullName)
	})

	c.mu.Lock()
	c.worlds = worlds
	c.mu.Unlock()

	c.logger.Debug("worlds discovered", "root", root, "count", len(worlds))
	return nil
}

// findFiles walks root and returns regular files selected by the include rules.
func (c *Catalog) findFiles(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root && errors.Is(err, fs.ErrNotExist) {
				return filepath.SkipAll
			}

			c.logger.Debug("world path skipped", "path", path, "error", err)
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}

		if c.matcher.Included(filepath.ToSlash(rel), false) {
			paths = append(paths, path)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	return paths, nil
}

// parseFile opens a world archive from disk and reads its manifest.
func (c *Catalog) parseFile(path string) (*Info, error) {
	return parseArchive(apzip.OpenWithOptions(path, apzip.ReaderOptions{Logger: c.logger}))
}

// parseArchive reads the manifest of a freshly opened archive and closes it.
func parseArchive(r *apzip.Reader, err error) (*Info, error) {
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()

	return ParseManifest(r)
}

// Worlds returns a copy of discovered worlds sorted by full name.
func (c *Catalog) Worlds() []Info {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return slices.Clone(c.worlds)
}

// Get returns the world with the given short name.
func (c *Catalog) Get(shortName string) (*Info, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for i := range c.worlds {
		if c.worlds[i].ShortName == shortName {
			info := c.worlds[i]
			return &info, true
		}
	}

	return nil, false
}

// Load opens the named world and registers it under WorldTag in reg
// (nil means the default registry). The caller owns the returned reader.
func (c *Catalog) Load(reg *apzip.Registry, shortName string) (*apzip.Reader, error) {
	if reg == nil {
		reg = apzip.DefaultRegistry()
	}

	info, ok := c.Get(shortName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrWorldNotFound, shortName)
	}

	opts := apzip.ReaderOptions{Logger: c.logger}

	var (
		r   *apzip.Reader
		err error
	)
	if info.Path != "" {
		r, err = apzip.OpenWithOptions(info.Path, opts)
	} else {
		r, err = apzip.OpenMemoryWithOptions(info.embeddedData, opts)
	}
	if err != nil {
		return nil, fmt.Errorf("open world %s: %w", shortName, err)
	}

	if !reg.Register(r, WorldTag) {
		_ = r.Close()
		return nil, fmt.Errorf("%w: %s", ErrWorldRegister, shortName)
	}

	c.mu.Lock()
	c.loaded = info
	c.mu.Unlock()

	c.logger.Info("world loaded", "short_name", shortName, "tag", WorldTag)
	return r, nil
}

// ReadDefinitions returns the definitions member of the world registered
// under WorldTag in reg (nil means the default registry).
func (c *Catalog) ReadDefinitions(reg *apzip.Registry) ([]byte, error) {
	if reg == nil {
		reg = apzip.DefaultRegistry()
	}

	c.mu.RLock()
	loaded := c.loaded
	c.mu.RUnlock()

	r := reg.Fetch(WorldTag)
	if r == nil || loaded == nil {
		return nil, ErrWorldNotLoaded
	}

	data, err := r.ReadFile(loaded.Definitions)
	if err != nil {
		return nil, fmt.Errorf("read definitions of %s: %w", loaded.ShortName, err)
	}

	return data, nil
}

// OpenIncluded opens every WAD listed in the loaded world's wads_included
// through the WorldTag archive in reg (nil means the default registry).
// A missing WAD fails the whole call with an error wrapping
// apzip.ErrEntryNotFound.
func (c *Catalog) OpenIncluded(reg *apzip.Registry) ([]*apzip.VirtualFile, error) {
	c.mu.RLock()
	loaded := c.loaded
	c.mu.RUnlock()

	if loaded == nil {
		return nil, ErrWorldNotLoaded
	}

	files := make([]*apzip.VirtualFile, 0, len(loaded.IncludedWADs))
	for _, name := range loaded.IncludedWADs {
		f, err := apzip.OpenVirtual(reg, WorldTag+"/"+name)
		if err != nil {
			for _, opened := range files {
				_ = opened.Close()
			}

			if errors.Is(err, apzip.ErrTagNotRegistered) {
				return nil, fmt.Errorf("%w: %w", ErrWorldNotLoaded, err)
			}

			return nil, fmt.Errorf("open included wad of %s: %w", loaded.ShortName, err)
		}

		files = append(files, f)
	}

	c.logger.Debug("included wads opened", "short_name", loaded.ShortName, "count", len(files))
	return files, nil
}
