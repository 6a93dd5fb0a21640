package apzip

import (
	"archive/zip"
	"bytes"
	"errors"
	"hash/crc32"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestOpen_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.zip")
	if err := os.WriteFile(path, []byte(strings.Repeat("not a zip archive ", 10)), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Open(path)
	if err == nil {
		t.Fatal("expected error for invalid archive")
	}
	if !errors.Is(err, ErrNotZip) {
		t.Errorf("expected ErrNotZip, got %v", err)
	}
}

func TestOpen_MissingFile(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "missing.zip")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestNewReader_NilSource(t *testing.T) {
	t.Parallel()

	if _, err := NewReader(nil, ReaderOptions{}); !errors.Is(err, ErrNilSource) {
		t.Fatalf("expected ErrNilSource, got %v", err)
	}
	if _, err := NewReaderFromReaderAt(nil, 0); !errors.Is(err, ErrNilSource) {
		t.Fatalf("expected ErrNilSource, got %v", err)
	}
}

// closeCounter wraps a ByteSource and counts Close calls.
type closeCounter struct {
	ByteSource
	closes int
}

func (c *closeCounter) Close() error {
	c.closes++
	return c.ByteSource.Close()
}

func TestNewReader_ClosesSourceOnFailure(t *testing.T) {
	t.Parallel()

	src := &closeCounter{ByteSource: NewMemorySource([]byte("garbage"))}
	if _, err := NewReader(src, ReaderOptions{}); err == nil {
		t.Fatal("expected error")
	}
	if src.closes != 1 {
		t.Fatalf("closes=%d, want 1", src.closes)
	}
}

func TestReader_CloseIdempotent(t *testing.T) {
	t.Parallel()

	src := &closeCounter{ByteSource: NewMemorySource(helloArchive(t))}
	r, err := NewReader(src, ReaderOptions{})
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}

	if _, ok := r.GetFile("a.txt"); !ok {
		t.Fatal("GetFile failed")
	}

	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if src.closes != 1 {
		t.Fatalf("closes=%d, want 1", src.closes)
	}

	if r.FileExists("a.txt") {
		t.Fatal("FileExists after Close=true")
	}
	if _, ok := r.GetFile("a.txt"); ok {
		t.Fatal("GetFile after Close succeeded")
	}

	var nilReader *Reader
	if err := nilReader.Close(); err != nil {
		t.Fatalf("nil Close: %v", err)
	}
	if nilReader.Len() != 0 || nilReader.Entries() != nil {
		t.Fatal("nil reader reports entries")
	}
}

func TestReader_EntriesAreCopies(t *testing.T) {
	t.Parallel()

	r, err := OpenMemory(helloArchive(t))
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer func() { _ = r.Close() }()

	entries := r.Entries()
	entries[0].Name = "changed"

	if r.Entries()[0].Name != "a.txt" {
		t.Fatal("Entries exposed internal state")
	}
	if r.Len() != 2 {
		t.Fatalf("Len=%d, want 2", r.Len())
	}
}

func TestReader_LogsDecodeFailures(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	data := createManualZip(t, manualArchive{entries: []manualEntry{
		{name: "a.txt", data: []byte("hello"), crcXor: 1},
	}})

	r, err := OpenMemoryWithOptions(data, ReaderOptions{Logger: logger})
	if err != nil {
		t.Fatalf("OpenMemoryWithOptions: %v", err)
	}
	defer func() { _ = r.Close() }()

	if _, ok := r.GetFile("a.txt"); ok {
		t.Fatal("corrupt entry accepted")
	}

	out := logs.String()
	if !strings.Contains(out, "a.txt") || !strings.Contains(out, "crc32 mismatch") {
		t.Fatalf("unexpected log output: %s", out)
	}
}

func TestReader_StdlibArchive(t *testing.T) {
	t.Parallel()

	stored := []byte("stored content")
	deflated := bytes.Repeat([]byte("deflated content "), 64)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	w, err := zw.CreateRaw(&zip.FileHeader{
		Name:               "stored.txt",
		Method:             zip.Store,
		CRC32:              crc32.ChecksumIEEE(stored),
		CompressedSize64:   uint64(len(stored)),
		UncompressedSize64: uint64(len(stored)),
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write(stored); err != nil {
		t.Fatal(err)
	}

	compressed := deflateBytes(t, deflated)
	w, err = zw.CreateRaw(&zip.FileHeader{
		Name:               "deflated.txt",
		Method:             zip.Deflate,
		CRC32:              crc32.ChecksumIEEE(deflated),
		CompressedSize64:   uint64(len(compressed)),
		UncompressedSize64: uint64(len(deflated)),
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write(compressed); err != nil {
		t.Fatal(err)
	}

	if _, err := zw.Create("maps/"); err != nil {
		t.Fatal(err)
	}

	// Streamed entries carry a data descriptor and zero sizes in the local header.
	w, err = zw.Create("streamed.txt")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte("streamed")); err != nil {
		t.Fatal(err)
	}

	if err := zw.SetComment("built by archive/zip"); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	data := buf.Bytes()
	r, err := NewReaderFromReaderAt(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("NewReaderFromReaderAt: %v", err)
	}
	defer func() { _ = r.Close() }()

	if r.Len() != 4 {
		t.Fatalf("Len=%d, want 4", r.Len())
	}

	got, err := r.ReadFile("stored.txt")
	if err != nil || !bytes.Equal(got, stored) {
		t.Fatalf("stored.txt=%q, %v", got, err)
	}

	got, err = r.ReadFile("deflated.txt")
	if err != nil || !bytes.Equal(got, deflated) {
		t.Fatalf("deflated.txt mismatch: %v", err)
	}

	if f, ok := r.GetFile("maps/"); !ok || f.Data != nil {
		t.Fatalf("maps/=%+v, %v", f, ok)
	}

	if _, ok := r.GetFile("streamed.txt"); ok {
		t.Fatal("data descriptor entry accepted")
	}
}
