// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/apzip

package apzip

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// ByteSource is a cursor over a fixed-size block of archive bytes.
//
// Reads past the end never fail: ReadRaw zero-fills the missing tail and
// ReadUint8 returns 0. SeekTo clamps the resulting position to [0, Size].
type ByteSource interface {
	// ReadRaw fills buf from the current position and advances past the bytes read.
	ReadRaw(buf []byte)
	// ReadUint8 returns the next byte, or 0 at the end of the source.
	ReadUint8() uint8
	// SeekTo moves the cursor relative to io.SeekStart, io.SeekCurrent or io.SeekEnd.
	SeekTo(offset int64, whence int)
	// Tell returns the absolute cursor position.
	Tell() int64
	// Size returns the total source length in bytes.
	Size() int64
	// Close releases resources held by the source.
	Close() error
}

// memorySource reads from a contiguous caller-owned byte slice.
type memorySource struct {
	data []byte
	cur  int64
}

// NewMemorySource returns a ByteSource over data. The slice must not be modified while in use.
func NewMemorySource(data []byte) ByteSource {
	return &memorySource{data: data}
}

// ReadRaw copies bytes from the current position, zero-filling past the end.
func (s *memorySource) ReadRaw(buf []byte) {
	n := 0
	if s.cur < int64(len(s.data)) {
		n = copy(buf, s.data[s.cur:])
	}

	clear(buf[n:])
	s.cur += int64(n)
}

// ReadUint8 returns the next byte or 0 at the end.
func (s *memorySource) ReadUint8() uint8 {
	if s.cur >= int64(len(s.data)) {
		return 0
	}

	b := s.data[s.cur]
	s.cur++
	return b
}

// SeekTo moves the cursor and clamps it to the slice bounds.
func (s *memorySource) SeekTo(offset int64, whence int) {
	s.cur = clampSeek(s.cur, int64(len(s.data)), offset, whence)
}

// Tell returns the cursor position.
func (s *memorySource) Tell() int64 {
	return s.cur
}

// Size returns the slice length.
func (s *memorySource) Size() int64 {
	return int64(len(s.data))
}

// Close is a no-op; the slice is owned by the caller.
func (s *memorySource) Close() error {
	return nil
}

// readerAtSource reads through positioned io.ReaderAt calls.
type readerAtSource struct {
	ra     io.ReaderAt
	closer io.Closer
	size   int64
	pos    int64
}

// NewReaderAtSource returns a ByteSource over ra limited to size bytes.
// Close of the returned source does not close ra.
func NewReaderAtSource(ra io.ReaderAt, size int64) ByteSource {
	return &readerAtSource{ra: ra, size: max(size, 0)}
}

// OpenFileSource opens path for reading. Close of the returned source closes the file.
func OpenFileSource(path string) (ByteSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open zip: %w", err)
	}

	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat: %w", err)
	}

	return &readerAtSource{ra: f, closer: f, size: fi.Size()}, nil
}

// ReadRaw reads at the current position; short reads leave the tail zero-filled.
func (s *readerAtSource) ReadRaw(buf []byte) {
	clear(buf)
	if s.pos >= s.size || len(buf) == 0 {
		return
	}

	want := min(int64(len(buf)), s.size-s.pos)
	n, _ := s.ra.ReadAt(buf[:want], s.pos)
	s.pos += int64(n)
}

// ReadUint8 returns the next byte or 0 at the end.
func (s *readerAtSource) ReadUint8() uint8 {
	var b [1]byte
	s.ReadRaw(b[:])
	return b[0]
}

// SeekTo moves the cursor and clamps it to the source bounds.
func (s *readerAtSource) SeekTo(offset int64, whence int) {
	s.pos = clampSeek(s.pos, s.size, offset, whence)
}

// Tell returns the cursor position.
func (s *readerAtSource) Tell() int64 {
	return s.pos
}

// Size returns the source length.
func (s *readerAtSource) Size() int64 {
	return s.size
}

// Close closes the owned file, if any.
func (s *readerAtSource) Close() error {
	if s.closer == nil {
		return nil
	}

	err := s.closer.Close()
	s.closer = nil
	return err
}

// clampSeek resolves a seek request against cur and size and clamps it to [0, size].
func clampSeek(cur, size, offset int64, whence int) int64 {
	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekEnd:
		pos = size + offset
	default:
		pos = cur + offset
	}

	return min(max(pos, 0), size)
}

// readUint16 reads a little-endian uint16 from src.
func readUint16(src ByteSource) uint16 {
	var b [2]byte
	src.ReadRaw(b[:])
	return binary.LittleEndian.Uint16(b[:])
}

// readUint32 reads a little-endian uint32 from src.
func readUint32(src ByteSource) uint32 {
	var b [4]byte
	src.ReadRaw(b[:])
	return binary.LittleEndian.Uint32(b[:])
}

// checkSignature reads four bytes and reports whether they equal want.
func checkSignature(src ByteSource, want string) bool {
	var b [signatureSize]byte
	src.ReadRaw(b[:])
	return string(b[:]) == want
}
