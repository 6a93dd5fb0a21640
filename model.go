// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/apzip

package apzip

import (
	"log/slog"
	"strings"

	"github.com/woozymasta/pathrules"
)

// Internal binary layout and format limits.
const (
	eocdMinSize       = 22     // fixed EOCD size without comment
	maxCommentLen     = 0xFFFF // max EOCD comment length
	signatureSize     = 4      // size of every record signature
	centralSkipFields = 24     // version made by .. uncompressed size
	centralSkipAttrs  = 8      // internal + external attributes
	localSkipVersion  = 2      // version needed to extract
	localSkipModTime  = 4      // last modification time + date
	allowedFlagBits   = 0x0002 // only general purpose flag bit accepted
)

// Record signatures.
const (
	sigEOCD          = "PK\x05\x06"
	sigCentralHeader = "PK\x01\x02"
	sigLocalHeader   = "PK\x03\x04"
)

// Compression methods understood by the reader.
const (
	// MethodStored marks an uncompressed entry.
	MethodStored uint16 = 0
	// MethodDeflate marks a raw DEFLATE compressed entry.
	MethodDeflate uint16 = 8
)

// DefaultMaxEntrySize is the default limit for one decoded entry (256 MiB).
const DefaultMaxEntrySize = 256 << 20

// EntryInfo describes one central directory record.
type EntryInfo struct {
	// Name is the archive path exactly as stored in the central directory.
	Name string `json:"name" yaml:"name"`
	// LocalHeaderOffset is byte offset of the entry local file header.
	LocalHeaderOffset uint32 `json:"local_header_offset" yaml:"local_header_offset"`
}

// IsDir reports whether the entry name denotes a directory marker.
func (e EntryInfo) IsDir() bool {
	return strings.HasSuffix(e.Name, "/")
}

// File is the decoded content of one entry.
// Data is nil for zero-length entries; callers must not modify it.
type File struct {
	// Name is the archive path of the entry.
	Name string `json:"name" yaml:"name"`
	// Data is the decompressed content.
	Data []byte `json:"-" yaml:"-"`
	// Size is the uncompressed size declared by the local header.
	Size uint32 `json:"size" yaml:"size"`
	// CRC32 is the checksum declared by the local header.
	CRC32 uint32 `json:"crc32" yaml:"crc32"`
}

// ReaderOptions configures reader behavior.
type ReaderOptions struct {
	// Logger receives per-entry diagnostics. Nil means discard.
	Logger *slog.Logger `json:"-" yaml:"-"`
	// MaxEntrySize rejects entries declaring a larger uncompressed size.
	// Zero means DefaultMaxEntrySize. Larger entries are reported as absent.
	MaxEntrySize uint32 `json:"max_entry_size,omitempty" yaml:"max_entry_size,omitempty"`
	// DisableDeflate accepts stored entries only and trusts them without CRC check.
	// A stored payload running past the end of the source is still rejected
	// as ErrCorruptEntry rather than zero-filled.
	DisableDeflate bool `json:"disable_deflate,omitempty" yaml:"disable_deflate,omitempty"`
}

// ExtractOptions configures Extract behavior.
type ExtractOptions struct {
	// OnEntryDone is called after one entry is fully written to disk.
	OnEntryDone func(entry EntryInfo, written int64, outputPath string) `json:"-" yaml:"-"`
	// FileMode controls output file creation policy.
	FileMode ExtractFileMode `json:"file_mode,omitempty" yaml:"file_mode,omitempty"`
	// Include defines ordered path rules selecting entries; empty means all entries.
	Include []pathrules.Rule `json:"include,omitempty" yaml:"include,omitempty"`
	// IncludeMatcherOptions control include rule matching.
	IncludeMatcherOptions pathrules.MatcherOptions `json:"include_matcher_options,omitzero" yaml:"include_matcher_options,omitzero"`
	// MaxWorkers is number of extraction workers (zero means GOMAXPROCS).
	MaxWorkers int `json:"max_workers,omitempty" yaml:"max_workers,omitempty"`
	// RawNames disables default path sanitization during extract.
	RawNames bool `json:"raw_names,omitempty" yaml:"raw_names,omitempty"`
	// SkipInvalid skips entries that fail to decode instead of failing extraction.
	SkipInvalid bool `json:"skip_invalid,omitempty" yaml:"skip_invalid,omitempty"`
}

// ExtractFileMode controls output file open behavior during extraction.
type ExtractFileMode string

// Output file creation policies for extraction.
const (
	// ExtractFileModeAuto first tries create-only, then falls back to truncate for existing files.
	ExtractFileModeAuto ExtractFileMode = "auto"
	// ExtractFileModeTruncate opens existing files with truncate and creates missing files.
	ExtractFileModeTruncate ExtractFileMode = "truncate"
	// ExtractFileModeCreateOnly creates files only when absent and fails on existing files.
	ExtractFileModeCreateOnly ExtractFileMode = "create_only"
)

// applyDefaults fills zero-valued reader options with defaults.
func (opts *ReaderOptions) applyDefaults() {
	if opts.MaxEntrySize == 0 {
		opts.MaxEntrySize = DefaultMaxEntrySize
	}

	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
}

// applyDefaults fills zero-valued extract options with defaults.
func (opts *ExtractOptions) applyDefaults() {
	if opts.FileMode == "" {
		opts.FileMode = ExtractFileModeAuto
	}

	if opts.IncludeMatcherOptions == (pathrules.MatcherOptions{}) {
		opts.IncludeMatcherOptions = pathrules.MatcherOptions{
			DefaultAction: pathrules.ActionExclude,
		}
	}

	if opts.IncludeMatcherOptions.DefaultAction == pathrules.ActionUnknown {
		opts.IncludeMatcherOptions.DefaultAction = pathrules.ActionExclude
	}
}
