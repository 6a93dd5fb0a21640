// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/apzip

package apzip

import (
	"fmt"
	"io"
	"strings"
)

// VirtualFile is a read-only view of one decoded entry of a registered archive.
// It implements io.ReaderAt. Closing it never closes the archive.
type VirtualFile struct {
	path string
	data []byte
}

// OpenVirtual resolves a "<tag>/<entry path>" path against reg.
// A nil reg means the default registry.
func OpenVirtual(reg *Registry, virtualPath string) (*VirtualFile, error) {
	if reg == nil {
		reg = defaultRegistry
	}

	tag, name, err := SplitVirtualPath(virtualPath)
	if err != nil {
		return nil, err
	}

	zr := reg.Fetch(tag)
	if zr == nil {
		return nil, fmt.Errorf("%w: %s", ErrTagNotRegistered, tag)
	}

	f, ok := zr.GetFile(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, virtualPath)
	}

	return &VirtualFile{path: virtualPath, data: f.Data}, nil
}

// SplitVirtualPath splits "<tag>/<entry path>" at the first slash.
// The tag must be 1..MaxTagLength bytes and the entry path non-empty.
func SplitVirtualPath(virtualPath string) (string, string, error) {
	tag, name, found := strings.Cut(virtualPath, "/")
	if !found || tag == "" || len(tag) > MaxTagLength || name == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidVirtualPath, virtualPath)
	}

	return tag, name, nil
}

// Path returns the virtual path used to open the file.
func (f *VirtualFile) Path() string {
	return f.path
}

// Size returns content length in bytes.
func (f *VirtualFile) Size() int64 {
	return int64(len(f.data))
}

// Bytes returns the shared decoded content. Callers must not modify it.
func (f *VirtualFile) Bytes() []byte {
	return f.data
}

// ReadAt implements io.ReaderAt.
func (f *VirtualFile) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("read %s: negative offset", f.path)
	}

	if off >= int64(len(f.data)) {
		return 0, io.EOF
	}

	n := copy(p, f.data[off:])
	if n < len(p) {
		return n, io.EOF
	}

	return n, nil
}

// Close releases the view. The underlying archive stays open and registered.
func (f *VirtualFile) Close() error {
	f.data = nil
	return nil
}
