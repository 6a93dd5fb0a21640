package apzip

import (
	"errors"
	"strings"
	"testing"

	"github.com/woozymasta/pathrules"
)

// includeRules builds include rules from patterns.
func includeRules(patterns ...string) []pathrules.Rule {
	rules := make([]pathrules.Rule, 0, len(patterns))
	for _, pattern := range patterns {
		rules = append(rules, pathrules.Rule{
			Action:  pathrules.ActionInclude,
			Pattern: pattern,
		})
	}

	return rules
}

// assetsArchive opens an archive shaped like a game asset bundle.
func assetsArchive(t *testing.T) *Reader {
	t.Helper()

	r, err := OpenMemory(createManualZip(t, manualArchive{entries: []manualEntry{
		{name: "ArchipelagoDoom.wad", data: []byte("doom")},
		{name: "Launcher.wad", data: []byte("launcher")},
		{name: "maps/"},
		{name: "maps/e1m1.json", data: []byte("{}")},
		{name: "maps/legacy/e1m1.json", data: []byte("{}")},
		{name: "README.txt", data: []byte("readme")},
	}}))
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })

	return r
}

func entryNames(entries []EntryInfo) string {
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}

	return strings.Join(names, ",")
}

func TestSelectEntries(t *testing.T) {
	t.Parallel()

	r := assetsArchive(t)

	testCases := []struct {
		name  string
		rules []pathrules.Rule
		opts  pathrules.MatcherOptions
		want  string
	}{
		{
			name: "no rules",
			want: "ArchipelagoDoom.wad,Launcher.wad,maps/,maps/e1m1.json,maps/legacy/e1m1.json,README.txt",
		},
		{
			name:  "extension",
			rules: includeRules("*.wad"),
			want:  "ArchipelagoDoom.wad,Launcher.wad",
		},
		{
			name: "include then exclude",
			rules: []pathrules.Rule{
				{Action: pathrules.ActionInclude, Pattern: "*.json"},
				{Action: pathrules.ActionExclude, Pattern: "legacy/"},
			},
			want: "maps/e1m1.json",
		},
		{
			name:  "case insensitive",
			rules: includeRules("*.TXT"),
			opts:  pathrules.MatcherOptions{CaseInsensitive: true},
			want:  "README.txt",
		},
		{
			name:  "windows pattern",
			rules: includeRules(`.\maps\legacy\*.json`),
			want:  "maps/legacy/e1m1.json",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := r.SelectEntries(tc.rules, tc.opts)
			if err != nil {
				t.Fatalf("SelectEntries: %v", err)
			}
			if names := entryNames(got); names != tc.want {
				t.Fatalf("SelectEntries=%s, want %s", names, tc.want)
			}
		})
	}
}

func TestSelectEntries_InvalidRules(t *testing.T) {
	t.Parallel()

	r := assetsArchive(t)
	_, err := r.SelectEntries([]pathrules.Rule{
		{Action: pathrules.ActionUnknown, Pattern: "*.wad"},
	}, pathrules.MatcherOptions{})
	if !errors.Is(err, ErrInvalidFilterRules) {
		t.Fatalf("expected ErrInvalidFilterRules, got %v", err)
	}
}

func TestEntriesUnder(t *testing.T) {
	t.Parallel()

	r := assetsArchive(t)

	testCases := []struct {
		prefix string
		want   string
	}{
		{prefix: "maps", want: "maps/,maps/e1m1.json,maps/legacy/e1m1.json"},
		{prefix: `maps\legacy\`, want: "maps/legacy/e1m1.json"},
		{prefix: "Launcher.wad", want: "Launcher.wad"},
		{prefix: "map", want: ""},
	}

	for _, tc := range testCases {
		if names := entryNames(r.EntriesUnder(tc.prefix)); names != tc.want {
			t.Fatalf("EntriesUnder(%q)=%s, want %s", tc.prefix, names, tc.want)
		}
	}

	if got := len(r.EntriesUnder("")); got != r.Len() {
		t.Fatalf("EntriesUnder(\"\") returned %d entries, want %d", got, r.Len())
	}
}
