// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/apzip

// Package testutil builds ZIP fixtures for package tests.
package testutil

import (
	"archive/zip"
	"bytes"
	"hash/crc32"
	"os"
	"path/filepath"
	"testing"
)

// ZipFile is one member of a test archive.
type ZipFile struct {
	Name string
	Data []byte
}

// BuildZip writes files as stored entries with sizes and CRC in the local headers.
// archive/zip streaming writes use data descriptors, which apzip does not accept,
// so every member goes through CreateRaw.
func BuildZip(tb testing.TB, files ...ZipFile) []byte {
	tb.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range files {
		w, err := zw.CreateRaw(&zip.FileHeader{
			Name:               f.Name,
			Method:             zip.Store,
			CRC32:              crc32.ChecksumIEEE(f.Data),
			CompressedSize64:   uint64(len(f.Data)),
			UncompressedSize64: uint64(len(f.Data)),
		})
		if err != nil {
			tb.Fatalf("create %s: %v", f.Name, err)
		}

		if _, err := w.Write(f.Data); err != nil {
			tb.Fatalf("write %s: %v", f.Name, err)
		}
	}

	if err := zw.Close(); err != nil {
		tb.Fatalf("close zip: %v", err)
	}

	return buf.Bytes()
}

// WriteZip builds an archive and writes it to path, creating parent directories.
func WriteZip(tb testing.TB, path string, files ...ZipFile) {
	tb.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		tb.Fatalf("mkdir: %v", err)
	}

	if err := os.WriteFile(path, BuildZip(tb, files...), 0o600); err != nil {
		tb.Fatalf("write %s: %v", path, err)
	}
}
