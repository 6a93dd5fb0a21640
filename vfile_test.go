package apzip

import (
	"errors"
	"io"
	"testing"
)

func TestSplitVirtualPath(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		in      string
		tag     string
		path    string
		wantErr bool
	}{
		{name: "simple", in: ":assets:/Launcher.wad", tag: ":assets:", path: "Launcher.wad"},
		{name: "nested", in: "world/maps/e1m1.txt", tag: "world", path: "maps/e1m1.txt"},
		{name: "no slash", in: ":assets:", wantErr: true},
		{name: "empty tag", in: "/a.txt", wantErr: true},
		{name: "empty path", in: "tag/", wantErr: true},
		{name: "long tag", in: "0123456789abcdef/a.txt", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			tag, path, err := SplitVirtualPath(tc.in)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidVirtualPath) {
					t.Fatalf("expected ErrInvalidVirtualPath, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("SplitVirtualPath(%q): %v", tc.in, err)
			}
			if tag != tc.tag || path != tc.path {
				t.Fatalf("SplitVirtualPath(%q)=(%q, %q), want (%q, %q)", tc.in, tag, path, tc.tag, tc.path)
			}
		})
	}
}

func TestOpenVirtual(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	r := openHello(t)
	if !reg.Register(r, ":assets:") {
		t.Fatal("Register failed")
	}

	vf, err := OpenVirtual(reg, ":assets:/a.txt")
	if err != nil {
		t.Fatalf("OpenVirtual: %v", err)
	}
	if vf.Path() != ":assets:/a.txt" || vf.Size() != 5 || string(vf.Bytes()) != "hello" {
		t.Fatalf("unexpected virtual file: %s %d %q", vf.Path(), vf.Size(), vf.Bytes())
	}

	buf := make([]byte, 3)
	n, err := vf.ReadAt(buf, 1)
	if err != nil || n != 3 || string(buf) != "ell" {
		t.Fatalf("ReadAt(1)=%d %q %v", n, buf, err)
	}

	n, err = vf.ReadAt(buf, 3)
	if !errors.Is(err, io.EOF) || n != 2 || string(buf[:n]) != "lo" {
		t.Fatalf("ReadAt(3)=%d %q %v", n, buf[:n], err)
	}

	if _, err := vf.ReadAt(buf, 5); !errors.Is(err, io.EOF) {
		t.Fatalf("ReadAt(5) err=%v, want EOF", err)
	}
	if _, err := vf.ReadAt(buf, -1); err == nil {
		t.Fatal("negative offset accepted")
	}

	section := io.NewSectionReader(vf, 0, vf.Size())
	all, err := io.ReadAll(section)
	if err != nil || string(all) != "hello" {
		t.Fatalf("SectionReader=%q %v", all, err)
	}

	if err := vf.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if reg.Fetch(":assets:") != r {
		t.Fatal("closing a virtual file unregistered the archive")
	}

	dir, err := OpenVirtual(reg, ":assets:/dir/")
	if err != nil {
		t.Fatalf("OpenVirtual(dir/): %v", err)
	}
	if dir.Size() != 0 {
		t.Fatalf("dir size=%d, want 0", dir.Size())
	}
}

func TestOpenVirtual_Errors(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	if !reg.Register(openHello(t), "zip") {
		t.Fatal("Register failed")
	}

	if _, err := OpenVirtual(reg, "nope/a.txt"); !errors.Is(err, ErrTagNotRegistered) {
		t.Fatalf("expected ErrTagNotRegistered, got %v", err)
	}
	if _, err := OpenVirtual(reg, "zip/missing.txt"); !errors.Is(err, ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound, got %v", err)
	}
	if _, err := OpenVirtual(reg, "zip"); !errors.Is(err, ErrInvalidVirtualPath) {
		t.Fatalf("expected ErrInvalidVirtualPath, got %v", err)
	}
}
