// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/apzip

package world

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/woozymasta/apzip"
)

const (
	// ManifestName is the manifest member inside every world archive.
	ManifestName = "archipelago.json"
	// MinCompatibleVersion is the oldest accepted manifest compatible_version.
	MinCompatibleVersion = 7
)

var (
	// ErrInvalidManifest means the world manifest is missing, malformed or incompatible.
	ErrInvalidManifest = errors.New("invalid world manifest")
	// ErrWorldNotFound means no discovered world has the requested short name.
	ErrWorldNotFound = errors.New("world not found")
	// ErrWorldRegister means the world archive could not be published in the registry.
	ErrWorldRegister = errors.New("can not register world")
	// ErrWorldNotLoaded means no world archive is registered under WorldTag.
	ErrWorldNotLoaded = errors.New("no world loaded")
)

// Info describes one playable world.
type Info struct {
	// ShortName is the unique command-line name, e.g. "doom2".
	ShortName string `json:"short_name"`
	// FullName is shown to players; defaults to APName.
	FullName string `json:"full_name"`
	// APName is the game name used to connect to a multiworld slot.
	APName string `json:"game"`
	// IWAD is the base game data file the world builds on.
	IWAD string `json:"iwad"`
	// Definitions is the archive member holding game definitions.
	Definitions string `json:"definitions"`
	// IncludedWADs are PWADs shipped inside the world archive.
	IncludedWADs []string `json:"wads_included,omitempty"`
	// RequiredWADs must be present to play.
	RequiredWADs []string `json:"wads_required,omitempty"`
	// OptionalWADs are loaded automatically when available.
	OptionalWADs []string `json:"wads_optional,omitempty"`
	// Path is the archive file; empty for embedded worlds.
	Path string `json:"path,omitempty"`
	// Embedded names the compiled-in archive; empty for file worlds.
	Embedded string `json:"embedded,omitempty"`

	embeddedData []byte
}

// manifest mirrors archipelago.json. Loosely typed fields are checked by hand.
type manifest struct {
	CompatibleVersion json.RawMessage `json:"compatible_version"`
	Game              json.RawMessage `json:"game"`
	APDoom            json.RawMessage `json:"__apdoom"`
}

// apdoomSection mirrors the "__apdoom" object.
type apdoomSection struct {
	Definitions  json.RawMessage `json:"definitions"`
	IWAD         json.RawMessage `json:"iwad"`
	ShortName    json.RawMessage `json:"short_name"`
	FullName     json.RawMessage `json:"full_name"`
	WADsRequired json.RawMessage `json:"wads_required"`
	WADsOptional json.RawMessage `json:"wads_optional"`
	WADsIncluded json.RawMessage `json:"wads_included"`
}

// ParseManifest reads and validates the world manifest of r.
func ParseManifest(r *apzip.Reader) (*Info, error) {
	data, err := r.ReadFile(ManifestName)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}

	return parseManifestData(data)
}

// parseManifestData validates manifest JSON and builds Info from it.
func parseManifestData(data []byte) (*Info, error) {
	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}

	var version float64
	if len(m.CompatibleVersion) > 0 {
		if err := json.Unmarshal(m.CompatibleVersion, &version); err != nil {
			return nil, fmt.Errorf("%w: compatible_version is not a number", ErrInvalidManifest)
		}
	}

	if version < MinCompatibleVersion {
		return nil, fmt.Errorf("%w: compatible_version %v below %d", ErrInvalidManifest, version, MinCompatibleVersion)
	}

	game, ok := jsonString(m.Game)
	if !ok {
		return nil, fmt.Errorf("%w: missing game name", ErrInvalidManifest)
	}

	var section apdoomSection
	if !isJSONObject(m.APDoom) || json.Unmarshal(m.APDoom, &section) != nil {
		return nil, fmt.Errorf("%w: missing __apdoom section", ErrInvalidManifest)
	}

	info := &Info{APName: game}
	required := []struct {
		key string
		raw json.RawMessage
		dst *string
	}{
		{key: "definitions", raw: section.Definitions, dst: &info.Definitions},
		{key: "iwad", raw: section.IWAD, dst: &info.IWAD},
		{key: "short_name", raw: section.ShortName, dst: &info.ShortName},
	}
	for _, field := range required {
		value, ok := jsonString(field.raw)
		if !ok {
			return nil, fmt.Errorf("%w: __apdoom.%s must be a string", ErrInvalidManifest, field.key)
		}

		*field.dst = value
	}

	info.FullName = game
	if fullName, ok := jsonString(section.FullName); ok {
		info.FullName = fullName
	}

	info.RequiredWADs = jsonStrings(section.WADsRequired)
	info.OptionalWADs = jsonStrings(section.WADsOptional)
	info.IncludedWADs = jsonStrings(section.WADsIncluded)

	return info, nil
}

// jsonString decodes raw when it holds a JSON string.
func jsonString(raw json.RawMessage) (string, bool) {
	var s string
	if len(raw) == 0 || raw[0] != '"' {
		return "", false
	}

	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}

	return s, true
}

// jsonStrings returns the string elements of a JSON array, ignoring other element types.
func jsonStrings(raw json.RawMessage) []string {
	var items []json.RawMessage
	if len(raw) == 0 || raw[0] != '[' || json.Unmarshal(raw, &items) != nil {
		return nil
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := jsonString(item); ok {
			out = append(out, s)
		}
	}

	return out
}

// isJSONObject reports whether raw starts a JSON object.
func isJSONObject(raw json.RawMessage) bool {
	return len(raw) > 0 && raw[0] == '{'
}
