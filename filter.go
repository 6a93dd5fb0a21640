// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/apzip

package apzip

import (
	"fmt"
	"strings"

	"github.com/woozymasta/pathrules"
)

// entryMatcher holds compiled include rules for entry selection.
type entryMatcher struct {
	matcher *pathrules.Matcher
}

// newEntryMatcher compiles include rules. It returns nil when no usable rule is given.
func newEntryMatcher(rules []pathrules.Rule, opts pathrules.MatcherOptions) (*entryMatcher, error) {
	rules = normalizeRules(rules)
	if len(rules) == 0 {
		return nil, nil
	}

	matcher, err := pathrules.NewMatcher(rules, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: compile rules: %w", ErrInvalidFilterRules, err)
	}

	return &entryMatcher{matcher: matcher}, nil
}

// normalizeRules normalizes rule patterns and drops empty patterns.
func normalizeRules(rules []pathrules.Rule) []pathrules.Rule {
	normalized := make([]pathrules.Rule, 0, len(rules))
	for _, rule := range rules {
		pattern := normalizePathForMatching(rule.Pattern)
		if pattern == "" {
			continue
		}

		normalized = append(normalized, pathrules.Rule{
			Action:  rule.Action,
			Pattern: pattern,
		})
	}

	return normalized
}

// Match reports whether entry is selected. A nil matcher selects everything.
func (m *entryMatcher) Match(entry EntryInfo) bool {
	if m == nil || m.matcher == nil {
		return true
	}

	candidate := NormalizePath(entry.Name)
	if candidate == "" {
		return false
	}

	return m.matcher.Included(candidate, entry.IsDir())
}

// filterEntriesByMatcher keeps entries selected by m.
func filterEntriesByMatcher(entries []EntryInfo, m *entryMatcher) []EntryInfo {
	if m == nil {
		return entries
	}

	out := make([]EntryInfo, 0, len(entries))
	for _, entry := range entries {
		if m.Match(entry) {
			out = append(out, entry)
		}
	}

	return out
}

// filterEntriesByPrefix keeps entries under prefix (or exact match if it points to a file).
func filterEntriesByPrefix(entries []EntryInfo, prefix string) []EntryInfo {
	prefix = NormalizePath(prefix)
	if prefix == "" {
		return entries
	}

	normalizedPrefix := prefix + "/"
	out := make([]EntryInfo, 0, len(entries))
	for _, entry := range entries {
		entryPath := NormalizePath(entry.Name)
		if entryPath == prefix || strings.HasPrefix(entryPath, normalizedPrefix) {
			out = append(out, entry)
		}
	}

	return out
}

// EntriesUnder returns entries whose normalized name is prefix or lies below it.
func (r *Reader) EntriesUnder(prefix string) []EntryInfo {
	return filterEntriesByPrefix(r.Entries(), prefix)
}

// SelectEntries returns entries included by rules. Empty rules select every entry.
func (r *Reader) SelectEntries(rules []pathrules.Rule, opts pathrules.MatcherOptions) ([]EntryInfo, error) {
	if opts.DefaultAction == pathrules.ActionUnknown {
		opts.DefaultAction = pathrules.ActionExclude
	}

	m, err := newEntryMatcher(rules, opts)
	if err != nil {
		return nil, err
	}

	return filterEntriesByMatcher(r.Entries(), m), nil
}
