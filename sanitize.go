// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/apzip

package apzip

import (
	"fmt"
	"hash/fnv"
	"path"
	"strings"
	"unicode"
)

// maxSanitizedSegmentLen caps one output path segment.
const maxSanitizedSegmentLen = 240

// unsafeNameRunes are replaced with '_' in every segment.
const unsafeNameRunes = `<>:"/\|?*`

// deviceNames holds Windows device names that can not be used as file bases.
var deviceNames = func() map[string]bool {
	set := make(map[string]bool)
	for _, name := range strings.Fields("aux con nul prn clock$") {
		set[name] = true
	}

	for i := 1; i <= 9; i++ {
		set[fmt.Sprintf("com%d", i)] = true
		set[fmt.Sprintf("lpt%d", i)] = true
	}

	return set
}()

// SanitizePath rewrites one entry name into a safe relative slash path.
// An empty or root-only name yields "".
func SanitizePath(name string) (string, error) {
	clean := NormalizePath(name)
	if clean == "" {
		return "", nil
	}

	out := sanitizeSegments(clean)
	if _, err := normalizeExtractEntryPath(out); err != nil {
		return "", err
	}

	return out, nil
}

// nameTable hands out case-insensitively unique output paths.
type nameTable struct {
	taken map[string]bool
	// next remembers the next suffix to try per colliding key.
	next map[string]int
}

// claim returns p, or p with the lowest free "~N" suffix when p is taken.
func (t *nameTable) claim(p string) (string, error) {
	key := strings.ToLower(p)
	if !t.taken[key] {
		t.taken[key] = true
		return p, nil
	}

	dir, base := path.Split(p)
	ext := path.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	for n := max(t.next[key], 2); n < 1_000_000; n++ {
		suffix := fmt.Sprintf("~%d", n)
		keep := max(maxSanitizedSegmentLen-len(ext)-len(suffix), 1)

		candidate := dir + hashShorten(stem, keep) + suffix + ext
		if ck := strings.ToLower(candidate); !t.taken[ck] {
			t.taken[ck] = true
			t.next[key] = n + 1
			return candidate, nil
		}
	}

	return "", ErrInvalidExtractPath
}

// sanitizeEntryNames maps entry names to unique safe relative paths, index-aligned with entries.
// Directory markers do not claim their path, so files below them never collide with it.
func sanitizeEntryNames(entries []EntryInfo) ([]string, error) {
	names := &nameTable{
		taken: make(map[string]bool, len(entries)),
		next:  make(map[string]int),
	}

	out := make([]string, len(entries))
	for i, e := range entries {
		rel, err := normalizeExtractEntryPath(e.Name)
		if err != nil {
			// Traversal segments are kept and neutralized per segment below.
			rel = strings.ReplaceAll(e.Name, `\`, "/")
		}

		p := sanitizeSegments(rel)
		if !e.IsDir() {
			if p, err = names.claim(p); err != nil {
				return nil, fmt.Errorf("sanitize path %s: %w", e.Name, err)
			}
		}

		if _, err := normalizeExtractEntryPath(p); err != nil {
			return nil, fmt.Errorf("sanitize path %s: %w", e.Name, err)
		}

		out[i] = p
	}

	return out, nil
}

// sanitizeSegments cleans every segment of a slash path and drops empty and "." ones.
// A path with nothing left becomes "_".
func sanitizeSegments(rel string) string {
	var kept []string
	for part := range strings.SplitSeq(rel, "/") {
		part = strings.TrimSpace(part)
		if part == "" || part == "." {
			continue
		}

		seg, _ := sanitizePathSegment(part)
		kept = append(kept, seg)
	}

	if len(kept) == 0 {
		return "_"
	}

	return strings.Join(kept, "/")
}

// sanitizePathSegment makes one segment safe on common filesystems.
func sanitizePathSegment(segment string) (string, error) {
	segment = strings.TrimSpace(segment)
	if segment == "" || segment == ".." {
		return "_", nil
	}

	cleaned := strings.Map(func(r rune) rune {
		if unsafeNameRune(r) {
			return '_'
		}

		return r
	}, segment)

	cleaned = strings.TrimRight(cleaned, ". ")
	switch {
	case cleaned == "":
		cleaned = "_"
	case isReservedDeviceName(cleaned):
		cleaned = "_" + cleaned
	}

	return hashShorten(cleaned, maxSanitizedSegmentLen), nil
}

// unsafeNameRune reports control, format and replacement runes and reserved punctuation.
func unsafeNameRune(r rune) bool {
	return unicode.IsControl(r) || unicode.Is(unicode.Cf, r) || r == unicode.ReplacementChar ||
		strings.ContainsRune(unsafeNameRunes, r)
}

// isReservedDeviceName reports whether the part before the first dot is a device name.
func isReservedDeviceName(name string) bool {
	base, _, _ := strings.Cut(strings.ToLower(name), ".")
	return deviceNames[base]
}

// hashShorten trims s to limit bytes, ending in an FNV-1a tag of the full value.
func hashShorten(s string, limit int) string {
	if len(s) <= limit {
		return s
	}

	if limit <= 10 {
		return s[:limit]
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	tag := fmt.Sprintf("~%08x", h.Sum32())

	return s[:max(limit-len(tag), 1)] + tag
}
