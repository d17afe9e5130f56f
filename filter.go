// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/img

package img

import (
	"fmt"
	"strings"

	"github.com/woozymasta/pathrules"
)

// nameMatcher holds compiled shell-style include patterns for entry names.
type nameMatcher struct {
	matcher *pathrules.Matcher
}

// newNameMatcher compiles glob patterns into a matcher. Empty patterns are
// dropped; an empty rule set yields a nil matcher that matches nothing.
func newNameMatcher(patterns []string) (*nameMatcher, error) {
	rules := make([]pathrules.Rule, 0, len(patterns))
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}

		rules = append(rules, pathrules.Rule{
			Action:  pathrules.ActionInclude,
			Pattern: pattern,
		})
	}

	if len(rules) == 0 {
		return nil, nil
	}

	matcher, err := pathrules.NewMatcher(rules, pathrules.MatcherOptions{
		DefaultAction: pathrules.ActionExclude,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: compile patterns: %w", ErrInvalidPattern, err)
	}

	return &nameMatcher{matcher: matcher}, nil
}

// Match reports whether name is included by at least one pattern.
func (m *nameMatcher) Match(name string) bool {
	if m == nil || m.matcher == nil {
		return false
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}

	return m.matcher.Included(name, false)
}

// filterEntriesByPattern keeps entries whose name matches the glob pattern.
// An empty pattern keeps everything.
func filterEntriesByPattern(entries []EntryInfo, pattern string) ([]EntryInfo, error) {
	matcher, err := newNameMatcher([]string{pattern})
	if err != nil {
		return nil, err
	}

	if matcher == nil {
		return entries, nil
	}

	out := make([]EntryInfo, 0, len(entries))
	for _, entry := range entries {
		if !matcher.Match(entry.Name) {
			continue
		}

		out = append(out, entry)
	}

	return out, nil
}
