// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/apzip

package apzip

import (
	"fmt"
	"hash/crc32"
	"io"
	"strconv"
)

// decodeResult is the shared value returned from one decode flight.
type decodeResult struct {
	file *File
	ok   bool
}

// findEntry returns index of the entry with exactly matching name, or -1.
func (r *Reader) findEntry(name string) int {
	for i := range r.entries {
		if r.entries[i].name == name {
			return i
		}
	}

	return -1
}

// FileExists reports whether the archive directory lists name. It never decodes the entry.
func (r *Reader) FileExists(name string) bool {
	if r == nil || r.isClosed() {
		return false
	}

	return r.findEntry(name) >= 0
}

// GetFile returns the decoded entry named name.
//
// The first call decodes and validates the entry; every later call returns the
// memoized outcome. A zero-length entry yields a File with nil Data and true.
// Missing, unsupported and corrupt entries all yield nil and false.
func (r *Reader) GetFile(name string) (*File, bool) {
	if r == nil {
		return nil, false
	}

	idx := r.findEntry(name)
	if idx < 0 {
		return nil, false
	}

	if res, done := r.cachedResult(idx); done {
		return res.file, res.ok
	}

	v, _, _ := r.decodeGroup.Do(strconv.Itoa(idx), func() (any, error) {
		// Another flight may have finished between the first check and this one.
		if res, done := r.cachedResult(idx); done {
			return res, nil
		}

		return r.decodeAndStore(idx), nil
	})

	res := v.(decodeResult) //nolint:forcetypeassert // group only stores decodeResult
	return res.file, res.ok
}

// ReadFile returns decoded content of the named entry.
// The error wraps ErrEntryNotFound both for missing and for undecodable entries.
func (r *Reader) ReadFile(name string) ([]byte, error) {
	f, ok := r.GetFile(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, name)
	}

	return f.Data, nil
}

// cachedResult returns memoized decode outcome; done is false when no decode was attempted yet.
func (r *Reader) cachedResult(idx int) (decodeResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return decodeResult{}, true
	}

	e := &r.entries[idx]
	switch e.state {
	case decodeValid:
		return decodeResult{file: e.file, ok: true}, true
	case decodeInvalid:
		return decodeResult{}, true
	default:
		return decodeResult{}, false
	}
}

// decodeAndStore decodes entry idx and memoizes the outcome.
func (r *Reader) decodeAndStore(idx int) decodeResult {
	e := &r.entries[idx]
	file, err := r.decodeEntry(e)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return decodeResult{}
	}

	if err != nil {
		r.logger.Warn("can not read entry", "name", e.name, "error", err)
		e.state = decodeInvalid
		return decodeResult{}
	}

	e.state = decodeValid
	e.file = file
	return decodeResult{file: file, ok: true}
}

// decodeEntry reads the local header of e, extracts its payload and validates the checksum.
func (r *Reader) decodeEntry(e *entry) (*File, error) {
	r.srcMu.Lock()
	defer r.srcMu.Unlock()

	r.decodes.Add(1)
	src := r.src

	src.SeekTo(int64(e.offset), io.SeekStart)
	if !checkSignature(src, sigLocalHeader) {
		return nil, ErrInvalidLocalHeader
	}

	src.SeekTo(localSkipVersion, io.SeekCurrent)
	flags := readUint16(src)
	method := readUint16(src)
	if err := r.checkCompression(flags, method); err != nil {
		return nil, err
	}

	src.SeekTo(localSkipModTime, io.SeekCurrent)
	file := &File{Name: e.name}
	file.CRC32 = readUint32(src)
	compressedSize := readUint32(src)
	file.Size = readUint32(src)

	// Empty file, usually a directory marker: valid with no data.
	if file.Size == 0 {
		return file, nil
	}

	if file.Size > r.opts.MaxEntrySize {
		return nil, fmt.Errorf("%w: %d bytes", ErrEntryTooLarge, file.Size)
	}

	nameLen := readUint16(src)
	extraLen := readUint16(src)
	src.SeekTo(int64(nameLen)+int64(extraLen), io.SeekCurrent)

	payloadSize := file.Size
	if method == MethodDeflate {
		payloadSize = compressedSize
	}

	if remaining := src.Size() - src.Tell(); int64(payloadSize) > remaining {
		return nil, fmt.Errorf("%w: payload of %d bytes exceeds remaining %d", ErrCorruptEntry, payloadSize, remaining)
	}

	payload := make([]byte, payloadSize)
	src.ReadRaw(payload)

	data := payload
	if method == MethodDeflate {
		inflated, err := inflateRaw(payload, file.Size)
		if err != nil {
			return nil, err
		}

		data = inflated
	}

	if !r.opts.DisableDeflate {
		if sum := crc32.ChecksumIEEE(data); sum != file.CRC32 {
			return nil, fmt.Errorf("%w: got %08x, want %08x", ErrChecksumMismatch, sum, file.CRC32)
		}
	}

	file.Data = data
	return file, nil
}
