// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/img

package img

import (
	"fmt"
	"strings"
)

// Entry names are flat: the directory stores a single 24-byte field with no
// directory structure, so separators and dot segments are rejected outright.

// normalizeEntryName trims surrounding spaces and validates that the name is
// usable both as a directory field and as a loose file in the working set.
func normalizeEntryName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", fmt.Errorf("%w: empty name", ErrInvalidEntryName)
	}

	if strings.ContainsRune(name, 0) {
		return "", fmt.Errorf("%w: %q contains NUL", ErrInvalidEntryName, raw)
	}

	if strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %q contains path separator", ErrInvalidEntryName, raw)
	}

	if name == "." || name == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidEntryName, raw)
	}

	return name, nil
}

// truncateEntryName cuts a name to the fixed directory field width and reports
// whether truncation happened.
func truncateEntryName(name string) (string, bool) {
	if len(name) <= maxNameLen {
		return name, false
	}

	return name[:maxNameLen], true
}

// validateStoredName checks a name that must fit the directory field as-is,
// used by rename where silent truncation is not acceptable.
func validateStoredName(raw string) (string, error) {
	name, err := normalizeEntryName(raw)
	if err != nil {
		return "", err
	}

	if len(name) > maxNameLen {
		return "", fmt.Errorf("%w: %q is %d bytes", ErrNameTooLong, name, len(name))
	}

	return name, nil
}
