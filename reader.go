// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/apzip

package apzip

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// decodeState tracks the at-most-once decode of one entry.
type decodeState uint8

const (
	decodeNotAttempted decodeState = iota
	decodeValid
	decodeInvalid
)

// entry is one central directory record plus its memoized decode result.
type entry struct {
	// file is set when state is decodeValid.
	file *File
	// name is the archive path as stored.
	name string
	// offset is the local header offset.
	offset uint32
	// state is guarded by Reader.mu.
	state decodeState
}

// Reader provides read-only access to a parsed ZIP archive.
type Reader struct {
	// src is the byte source; access is serialized by srcMu.
	src ByteSource
	// logger receives per-entry diagnostics.
	logger *slog.Logger
	// registries holds every registry this reader was published in.
	registries map[*Registry]struct{}
	// entries stores parsed central directory records in archive order.
	entries []entry
	// opts are the applied reader options.
	opts ReaderOptions
	// decodeGroup shares one in-flight decode between concurrent callers.
	decodeGroup singleflight.Group
	// decodes counts payload decode attempts.
	decodes atomic.Int64
	// dirOffset is the central directory offset within src.
	dirOffset uint32
	// mu guards closed, registries and entry decode state.
	mu sync.Mutex
	// srcMu serializes source cursor use.
	srcMu sync.Mutex
	// closed reports whether Close was already called.
	closed bool
}

// Open opens a ZIP file by path and parses its central directory.
func Open(path string) (*Reader, error) {
	return OpenWithOptions(path, ReaderOptions{})
}

// OpenWithOptions opens a ZIP file by path using explicit reader options.
func OpenWithOptions(path string, opts ReaderOptions) (*Reader, error) {
	src, err := OpenFileSource(path)
	if err != nil {
		return nil, err
	}

	return NewReader(src, opts)
}

// OpenMemory parses a ZIP archive held in data. The slice must not be modified while the reader is open.
func OpenMemory(data []byte) (*Reader, error) {
	return OpenMemoryWithOptions(data, ReaderOptions{})
}

// OpenMemoryWithOptions parses an in-memory ZIP archive using explicit reader options.
func OpenMemoryWithOptions(data []byte, opts ReaderOptions) (*Reader, error) {
	return NewReader(NewMemorySource(data), opts)
}

// NewReaderFromReaderAt parses a ZIP archive from ReaderAt and known size.
func NewReaderFromReaderAt(ra io.ReaderAt, size int64) (*Reader, error) {
	return NewReaderFromReaderAtWithOptions(ra, size, ReaderOptions{})
}

// NewReaderFromReaderAtWithOptions parses a ZIP archive from ReaderAt using explicit reader options.
func NewReaderFromReaderAtWithOptions(ra io.ReaderAt, size int64, opts ReaderOptions) (*Reader, error) {
	if ra == nil {
		return nil, ErrNilSource
	}

	return NewReader(NewReaderAtSource(ra, size), opts)
}

// NewReader parses the central directory from src and takes ownership of it.
// The source is closed when parsing fails or when the reader is closed.
func NewReader(src ByteSource, opts ReaderOptions) (*Reader, error) {
	if src == nil {
		return nil, ErrNilSource
	}

	opts.applyDefaults()

	r := &Reader{src: src, opts: opts, logger: opts.Logger}
	if err := r.parse(); err != nil {
		_ = src.Close()
		return nil, err
	}

	return r, nil
}

// Len returns the number of central directory records.
func (r *Reader) Len() int {
	if r == nil {
		return 0
	}

	return len(r.entries)
}

// DirectoryOffset returns the central directory offset within the source.
func (r *Reader) DirectoryOffset() uint32 {
	if r == nil {
		return 0
	}

	return r.dirOffset
}

// Entries returns a copy of parsed entries in central directory order.
func (r *Reader) Entries() []EntryInfo {
	if r == nil {
		return nil
	}

	out := make([]EntryInfo, len(r.entries))
	for i := range r.entries {
		out[i] = EntryInfo{Name: r.entries[i].name, LocalHeaderOffset: r.entries[i].offset}
	}

	return out
}

// Close releases the source and decoded data and removes the reader from every registry.
// Close accepts a nil reader and may be called more than once.
func (r *Reader) Close() error {
	if r == nil {
		return nil
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}

	r.closed = true
	registries := r.registries
	r.registries = nil
	for i := range r.entries {
		r.entries[i].file = nil
	}
	r.mu.Unlock()

	for reg := range registries {
		reg.evict(r)
	}

	r.srcMu.Lock()
	defer r.srcMu.Unlock()
	return r.src.Close()
}

// isClosed reports whether Close was called.
func (r *Reader) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.closed
}

// attach records reg as holding a reference to r. It fails once r is closed.
func (r *Reader) attach(reg *Registry) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return false
	}

	if r.registries == nil {
		r.registries = make(map[*Registry]struct{}, 1)
	}

	r.registries[reg] = struct{}{}
	return true
}

// parse locates the end of central directory record and reads all directory entries.
func (r *Reader) parse() error {
	eocd, err := findEOCD(r.src)
	if err != nil {
		return err
	}

	src := r.src
	src.SeekTo(eocd+signatureSize+4, io.SeekStart) // skip disk numbers

	count := readUint16(src)
	if total := readUint16(src); total != count {
		return fmt.Errorf("%w: %w: %d entries on disk, %d total", ErrInvalidArchive, ErrMultipartArchive, count, total)
	}

	src.SeekTo(4, io.SeekCurrent) // central directory size
	r.dirOffset = readUint32(src)

	entries, err := readCentralDirectory(src, int64(r.dirOffset), int(count))
	if err != nil {
		return err
	}

	r.entries = entries
	return nil
}

// findEOCD returns the absolute offset of the last EOCD signature within the allowed trailing window.
func findEOCD(src ByteSource) (int64, error) {
	start := src.Size() - eocdMinSize
	if start < 0 {
		return 0, fmt.Errorf("%w: %w: source shorter than EOCD", ErrInvalidArchive, ErrNotZip)
	}

	low := max(start-maxCommentLen, 0)

	// Buffer the whole window once instead of re-reading per candidate offset.
	window := make([]byte, start-low+signatureSize)
	src.SeekTo(low, io.SeekStart)
	src.ReadRaw(window)

	idx := bytes.LastIndex(window, []byte(sigEOCD))
	if idx < 0 {
		return 0, fmt.Errorf("%w: %w", ErrInvalidArchive, ErrNotZip)
	}

	return low + int64(idx), nil
}

// readCentralDirectory reads count central directory records starting at offset.
func readCentralDirectory(src ByteSource, offset int64, count int) ([]entry, error) {
	entries := make([]entry, count)
	src.SeekTo(offset, io.SeekStart)

	for i := range entries {
		if !checkSignature(src, sigCentralHeader) {
			return nil, fmt.Errorf("%w: %w: bad central directory record %d", ErrInvalidArchive, ErrNotZip, i)
		}

		// Sizes and CRC are read canonically from the local header at decode time.
		src.SeekTo(centralSkipFields, io.SeekCurrent)

		nameLen := readUint16(src)
		extraLen := readUint16(src)
		commentLen := readUint16(src)
		src.SeekTo(centralSkipAttrs, io.SeekCurrent)

		entries[i].offset = readUint32(src)

		name := make([]byte, nameLen)
		src.ReadRaw(name)
		entries[i].name = string(name)

		src.SeekTo(int64(extraLen)+int64(commentLen), io.SeekCurrent)
	}

	return entries, nil
}
