// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/apzip

package apzip

import "errors"

// Sentinel errors for archive operations. Use errors.Is in callers.
var (
	// ErrInvalidArchive means the source is not a readable ZIP archive.
	ErrInvalidArchive = errors.New("invalid ZIP archive")
	// ErrNotZip means no end of central directory record or a central directory signature is missing.
	ErrNotZip = errors.New("unsupported file: not a zip file")
	// ErrMultipartArchive means the archive spans several volumes.
	ErrMultipartArchive = errors.New("unsupported file: multipart zip file")
	// ErrNilSource means the byte source is nil.
	ErrNilSource = errors.New("byte source is nil")
	// ErrEntryNotFound means the entry is absent or could not be decoded.
	ErrEntryNotFound = errors.New("entry not found")
	// ErrInvalidLocalHeader means the local file header signature is missing.
	ErrInvalidLocalHeader = errors.New("invalid local file header")
	// ErrUnsupportedCompression means the entry flags or compression method are not supported.
	ErrUnsupportedCompression = errors.New("unsupported compression")
	// ErrChecksumMismatch means decoded entry content does not match its declared CRC-32.
	ErrChecksumMismatch = errors.New("crc32 mismatch")
	// ErrCorruptEntry means entry payload is truncated or fails to inflate.
	ErrCorruptEntry = errors.New("corrupt entry payload")
	// ErrEntryTooLarge means declared entry size exceeds the configured limit.
	ErrEntryTooLarge = errors.New("entry exceeds maximum size")
	// ErrClosed means the reader is already closed.
	ErrClosed = errors.New("reader already closed")
	// ErrInvalidVirtualPath means a virtual path is not of the "<tag>/<path>" form.
	ErrInvalidVirtualPath = errors.New("invalid virtual path")
	// ErrTagNotRegistered means no reader is registered under the tag.
	ErrTagNotRegistered = errors.New("tag not registered")
	// ErrInvalidExtractPath means archive entry path is invalid for extraction destination.
	ErrInvalidExtractPath = errors.New("invalid extract path")
	// ErrInvalidFilterRules means one or more include rules are invalid.
	ErrInvalidFilterRules = errors.New("invalid filter rules")
)
