// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/apzip

package apzip

import (
	"io"
)

// ListEntries opens a ZIP file and returns its central directory without payload reads.
func ListEntries(path string) ([]EntryInfo, error) {
	src, err := OpenFileSource(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = src.Close() }()

	return listEntries(src)
}

// ListEntriesFromReaderAt parses the central directory from a random-access source.
func ListEntriesFromReaderAt(ra io.ReaderAt, size int64) ([]EntryInfo, error) {
	if ra == nil {
		return nil, ErrNilSource
	}

	return listEntries(NewReaderAtSource(ra, size))
}

// listEntries parses src without building a reader.
func listEntries(src ByteSource) ([]EntryInfo, error) {
	r := &Reader{src: src}
	if err := r.parse(); err != nil {
		return nil, err
	}

	return r.Entries(), nil
}
