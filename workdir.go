// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/img

package img

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// workingSet is the scoped loose-file staging directory used as the mutable
// intermediate form during edit operations. It owns a temporary directory for
// its whole lifetime; Close removes it on every exit path so repeated edits
// never leak disk.
type workingSet struct {
	dir string
}

// newWorkingSet creates a fresh temporary staging directory.
func newWorkingSet() (*workingSet, error) {
	dir, err := os.MkdirTemp("", "img-work-*")
	if err != nil {
		return nil, fmt.Errorf("create working set: %w", err)
	}

	return &workingSet{dir: dir}, nil
}

// Close removes the staging directory and everything in it.
func (ws *workingSet) Close() error {
	if ws == nil || ws.dir == "" {
		return nil
	}

	dir := ws.dir
	ws.dir = ""
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove working set: %w", err)
	}

	return nil
}

// Path returns the staging directory path.
func (ws *workingSet) Path() string {
	return ws.dir
}

// stage copies one source file into the working set under its base name,
// overwriting a same-named staged file.
func (ws *workingSet) stage(srcPath string) (string, error) {
	name, err := normalizeEntryName(filepath.Base(srcPath))
	if err != nil {
		return "", err
	}

	src, err := os.Open(srcPath)
	if err != nil {
		return "", fmt.Errorf("open source %s: %w", srcPath, err)
	}
	defer func() { _ = src.Close() }()

	dstPath := filepath.Join(ws.dir, name)
	dst, err := os.OpenFile(dstPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return "", fmt.Errorf("stage %s: %w", name, err)
	}

	_, copyErr := io.Copy(dst, src)
	closeErr := dst.Close()
	if copyErr != nil {
		return "", fmt.Errorf("stage %s: %w", name, copyErr)
	}

	if closeErr != nil {
		return "", fmt.Errorf("stage %s: %w", name, closeErr)
	}

	return name, nil
}

// names lists staged file names in sorted order.
func (ws *workingSet) names() ([]string, error) {
	dirEntries, err := os.ReadDir(ws.dir)
	if err != nil {
		return nil, fmt.Errorf("read working set: %w", err)
	}

	out := make([]string, 0, len(dirEntries))
	for _, de := range dirEntries {
		if !de.Type().IsRegular() {
			continue
		}

		out = append(out, de.Name())
	}

	sort.Strings(out)
	return out, nil
}

// removeMatching deletes staged files matching the glob pattern and returns
// the removed names in sorted order.
func (ws *workingSet) removeMatching(pattern string) ([]string, error) {
	matcher, err := newNameMatcher([]string{pattern})
	if err != nil {
		return nil, err
	}

	staged, err := ws.names()
	if err != nil {
		return nil, err
	}

	removed := make([]string, 0, len(staged))
	for _, name := range staged {
		if !matcher.Match(name) {
			continue
		}

		if err := os.Remove(filepath.Join(ws.dir, name)); err != nil {
			return removed, fmt.Errorf("remove %s: %w", name, err)
		}

		removed = append(removed, name)
	}

	return removed, nil
}

// contains reports whether a staged file with the exact name exists.
func (ws *workingSet) contains(name string) bool {
	fi, err := os.Stat(filepath.Join(ws.dir, name))
	return err == nil && fi.Mode().IsRegular()
}

// rename moves one staged file to a new name.
func (ws *workingSet) rename(oldName string, newName string) error {
	if err := os.Rename(filepath.Join(ws.dir, oldName), filepath.Join(ws.dir, newName)); err != nil {
		return fmt.Errorf("rename %s to %s: %w", oldName, newName, err)
	}

	return nil
}
