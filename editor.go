// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/img

package img

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"
)

// Every mutation follows one shape: extract the archive into a scoped working
// set, apply file-level changes there, then rebuild a brand-new archive and
// atomically replace the original. The archive itself is never patched in
// place, so any failure before the final rename leaves it byte-identical.

// Add copies the given source files into the archive under their base names,
// overwriting same-named entries. Missing source files are skipped and
// reported; the operation fails only when zero files could be staged.
func Add(ctx context.Context, archivePath string, files []string, opts EditOptions) (*AddResult, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no files to add", ErrEmptyInputs)
	}

	opts.applyDefaults()

	ws, format, err := extractToWorkingSet(ctx, archivePath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = ws.Close() }()

	res := &AddResult{}
	for _, file := range files {
		fi, err := os.Stat(file)
		if err != nil || !fi.Mode().IsRegular() {
			res.Missing = append(res.Missing, file)
			continue
		}

		name, err := ws.stage(file)
		if err != nil {
			return nil, err
		}

		res.Staged = append(res.Staged, name)
	}

	if len(res.Staged) == 0 {
		return nil, ErrNothingAdded
	}

	if _, err := BuildFromDir(ctx, archivePath, format, ws.Path(), opts.PackOptions); err != nil {
		return nil, err
	}

	return res, nil
}

// Remove deletes entries whose names match any of the glob patterns. Patterns
// that match nothing are reported; the operation fails, with the archive left
// untouched, when zero entries matched across all patterns.
func Remove(ctx context.Context, archivePath string, patterns []string, opts EditOptions) (*RemoveResult, error) {
	if len(patterns) == 0 {
		return nil, fmt.Errorf("%w: no patterns to remove", ErrInvalidPattern)
	}

	opts.applyDefaults()

	ws, format, err := extractToWorkingSet(ctx, archivePath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = ws.Close() }()

	res := &RemoveResult{}
	for _, pattern := range patterns {
		removed, err := ws.removeMatching(pattern)
		if err != nil {
			return nil, err
		}

		if len(removed) == 0 {
			res.Unmatched = append(res.Unmatched, pattern)
			continue
		}

		res.Removed = append(res.Removed, removed...)
	}

	if len(res.Removed) == 0 {
		return nil, ErrNothingRemoved
	}

	if _, err := BuildFromDir(ctx, archivePath, format, ws.Path(), opts.PackOptions); err != nil {
		return nil, err
	}

	return res, nil
}

// Rename changes one entry name. It fails before any write when the old name
// is absent, the new name is already taken, or the new name does not fit the
// 24-byte directory field.
func Rename(ctx context.Context, archivePath string, oldName string, newName string, opts EditOptions) error {
	oldStored, err := normalizeEntryName(oldName)
	if err != nil {
		return err
	}

	newStored, err := validateStoredName(newName)
	if err != nil {
		return err
	}

	opts.applyDefaults()

	ws, format, err := extractToWorkingSet(ctx, archivePath)
	if err != nil {
		return err
	}
	defer func() { _ = ws.Close() }()

	if !ws.contains(oldStored) {
		return fmt.Errorf("%w: %s", ErrEntryNotFound, oldStored)
	}

	if ws.contains(newStored) {
		return fmt.Errorf("%w: %s", ErrDuplicateEntryName, newStored)
	}

	if err := ws.rename(oldStored, newStored); err != nil {
		return err
	}

	_, err = BuildFromDir(ctx, archivePath, format, ws.Path(), opts.PackOptions)
	return err
}

// Rebuild regenerates the archive from its own contents, packing entries
// back-to-back to reclaim layout slack. The original file is copied to a
// timestamped backup first unless disabled.
func Rebuild(ctx context.Context, archivePath string, opts RebuildOptions) (*RebuildResult, error) {
	opts.applyDefaults()

	oldInfo, err := os.Stat(archivePath)
	if err != nil {
		return nil, fmt.Errorf("stat archive: %w", err)
	}

	res := &RebuildResult{OldSize: oldInfo.Size()}
	if !opts.SkipBackup {
		res.BackupPath = fmt.Sprintf("%s.backup.%d", archivePath, time.Now().Unix())
		if err := copyFile(archivePath, res.BackupPath); err != nil {
			return nil, fmt.Errorf("create backup: %w", err)
		}
	}

	ws, format, err := extractToWorkingSet(ctx, archivePath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = ws.Close() }()

	res.Format = format
	buildRes, err := BuildFromDir(ctx, archivePath, format, ws.Path(), opts.PackOptions)
	if err != nil {
		return nil, err
	}

	res.NewSize = buildRes.TotalSize
	return res, nil
}

// extractToWorkingSet parses the archive and unpacks it into a fresh working
// set. A per-entry extraction failure is fatal here: rebuilding from a
// partially extracted working set would silently drop the failed entries.
func extractToWorkingSet(ctx context.Context, archivePath string) (*workingSet, Format, error) {
	r, err := Open(archivePath)
	if err != nil {
		return nil, FormatInvalid, err
	}
	defer func() { _ = r.Close() }()

	format := r.Format()

	ws, err := newWorkingSet()
	if err != nil {
		return nil, format, err
	}

	var entryErr error
	extractOpts := ExtractOptions{
		OnEntryError: func(entry EntryInfo, err error) {
			if entryErr == nil {
				entryErr = fmt.Errorf("extract entry %s: %w", entry.Name, err)
			}
		},
	}

	if err := r.Extract(ctx, ws.Path(), extractOpts); err != nil {
		_ = ws.Close()
		return nil, format, err
	}

	if entryErr != nil {
		_ = ws.Close()
		return nil, format, entryErr
	}

	return ws, format, nil
}

// copyFile duplicates one regular file preserving nothing but content.
func copyFile(srcPath string, dstPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	dst, err := os.OpenFile(dstPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}

	_, copyErr := io.Copy(dst, src)
	closeErr := dst.Close()
	if copyErr != nil {
		return copyErr
	}

	return closeErr
}
