// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/img

package img

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// extractCopyBufferSize is the buffer size for file copy during extraction.
const extractCopyBufferSize = 64 * 1024

// Extract writes archive entries as loose files into dstDir, creating it when
// absent. Entries with an empty name or zero size are directory padding and
// are skipped. A failure on one entry is reported through OnEntryError and
// does not abort the rest; only destination setup and context errors are fatal.
// Extraction never modifies the source archive.
func (r *Reader) Extract(ctx context.Context, dstDir string, opts ExtractOptions) error {
	if r == nil || r.ra == nil {
		return ErrNilReader
	}

	r.mu.Lock()
	closed := r.closed
	r.mu.Unlock()
	if closed {
		return ErrClosed
	}

	if ctx == nil {
		ctx = context.Background()
	}

	entries := r.entries
	if opts.Entries != nil {
		entries = opts.Entries
	}

	dstRootAbs, err := filepath.Abs(dstDir)
	if err != nil {
		return fmt.Errorf("resolve output dir: %w", err)
	}

	if err := os.MkdirAll(dstRootAbs, 0o750); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	copyBuf := make([]byte, extractCopyBufferSize)
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		if entry.Name == "" || entry.Size == 0 {
			continue
		}

		outPath, err := r.extractEntry(dstRootAbs, entry, copyBuf)
		if err != nil {
			if opts.OnEntryError != nil {
				opts.OnEntryError(entry, err)
			}

			continue
		}

		if opts.OnEntryDone != nil {
			opts.OnEntryDone(entry, outPath)
		}
	}

	return nil
}

// extractEntry writes one entry payload to a file under dstRootAbs.
func (r *Reader) extractEntry(dstRootAbs string, entry EntryInfo, copyBuf []byte) (string, error) {
	name, err := normalizeEntryName(entry.Name)
	if err != nil {
		return "", err
	}

	outPath := filepath.Join(dstRootAbs, name)

	src := io.NewSectionReader(r.ra, entry.Offset(), int64(entry.Size))
	file, err := os.OpenFile(outPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", name, err)
	}

	written, copyErr := io.CopyBuffer(file, src, copyBuf)
	closeErr := file.Close()
	if copyErr != nil {
		return "", fmt.Errorf("write %s: %w", name, copyErr)
	}

	if closeErr != nil {
		return "", fmt.Errorf("close %s: %w", name, closeErr)
	}

	if written != int64(entry.Size) {
		return "", fmt.Errorf("write %s: short read (%d/%d)", name, written, entry.Size)
	}

	return outPath, nil
}

// ExtractArchive opens the archive at path and extracts everything to dstDir.
func ExtractArchive(ctx context.Context, path string, dstDir string, opts ExtractOptions) error {
	r, err := Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	return r.Extract(ctx, dstDir, opts)
}
