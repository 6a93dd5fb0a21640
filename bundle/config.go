// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/apzip

package bundle

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/woozymasta/apzip"
)

// DefaultTag is the registry tag of the base asset bundle.
const DefaultTag = ":assets:"

// Config describes where the asset bundle lives and what it must contain.
type Config struct {
	// Tag is the registry tag the bundle is published under.
	Tag string `json:"tag" yaml:"tag"`
	// SearchPaths are tried in order after the embedded archive.
	SearchPaths []string `json:"search_paths" yaml:"search_paths"`
	// Required lists members that must exist for the bundle to be accepted.
	Required []string `json:"required" yaml:"required"`
	// Reader configures the archive reader.
	Reader apzip.ReaderOptions `json:"reader,omitzero" yaml:"reader,omitempty"`
}

// DefaultConfig returns the stock bundle layout.
func DefaultConfig() Config {
	return Config{
		Tag: DefaultTag,
		SearchPaths: []string{
			"./BaseAssets.zip",
			"./embed/BaseAssets.zip",
			"./data/BaseAssets.zip",
		},
		Required: []string{
			"ArchipelagoDoom.wad",
			"ArchipelagoHeretic.wad",
			"Launcher.wad",
		},
	}
}

// LoadConfig reads a YAML bundle config. Keys absent from the file keep their defaults.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read bundle config: %w", err)
	}

	return ParseConfig(data)
}

// ParseConfig decodes YAML bundle config over DefaultConfig. Unknown keys are rejected.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// validate checks values that would make Load fail unconditionally.
func (c *Config) validate() error {
	if c.Tag == "" || len(c.Tag) > apzip.MaxTagLength {
		return fmt.Errorf("%w: tag %q must be 1..%d bytes", ErrInvalidConfig, c.Tag, apzip.MaxTagLength)
	}

	return nil
}

// applyDefaults fills zero-valued fields from DefaultConfig.
func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.Tag == "" {
		c.Tag = def.Tag
	}

	if c.SearchPaths == nil {
		c.SearchPaths = def.SearchPaths
	}

	if c.Required == nil {
		c.Required = def.Required
	}
}
