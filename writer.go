// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/img

package img

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// packCopyBufferSize is the per-pack temporary buffer used by payload copy.
const packCopyBufferSize = 64 * 1024

// packPlanItem is one normalized, ordered pack input.
type packPlanItem struct {
	input     Input
	name      string
	truncated bool
}

// Pack writes an IMG archive to out from the given inputs.
// Inputs are sorted by stored name for deterministic output: the directory is
// reserved as zeros first, payloads are written sector-aligned, then the
// directory region is patched with final records.
func Pack(ctx context.Context, out io.WriteSeeker, format Format, inputs []Input, opts PackOptions) (*PackResult, error) {
	startedAt := time.Now()

	if out == nil {
		return nil, ErrNilWriter
	}

	if ctx == nil {
		ctx = context.Background()
	}

	if format != FormatV1 && format != FormatV2 {
		return nil, fmt.Errorf("%w: cannot build %s archive", ErrInvalidFormat, format)
	}

	if len(inputs) == 0 {
		return nil, ErrEmptyInputs
	}

	opts.applyDefaults()

	plan, err := preparePackPlan(inputs)
	if err != nil {
		return nil, err
	}

	dirSize := directorySize(format, len(plan))
	dataStartSector := sectorCount(dirSize)
	dataStart := int64(dataStartSector) * sectorSize

	w := bufio.NewWriterSize(out, opts.WriterBufferSize)

	// Reserve directory plus alignment slack up to the first data sector.
	if err := writeZeros(w, dataStart); err != nil {
		return nil, fmt.Errorf("reserve directory region: %w", err)
	}

	entries := make([]EntryInfo, 0, len(plan))
	copyBuf := make([]byte, packCopyBufferSize)
	currentSector := dataStartSector
	var dataSize int64
	var paddingBytes int64

	for _, item := range plan {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		size, err := writePackPayload(w, item, copyBuf)
		if err != nil {
			return nil, err
		}

		pad := paddedSize(size) - int64(size)
		if err := writeZeros(w, pad); err != nil {
			return nil, fmt.Errorf("pad entry %s: %w", item.name, err)
		}

		entry := EntryInfo{
			Name:        item.name,
			StartSector: currentSector,
			Size:        size,
		}
		entries = append(entries, entry)

		if opts.OnEntryDone != nil {
			opts.OnEntryDone(PackEntryProgress{
				Name:        item.name,
				StartSector: currentSector,
				Size:        size,
				Truncated:   item.truncated,
			})
		}

		dataSize += int64(size)
		paddingBytes += pad
		currentSector += entry.Sectors()
	}

	if err := w.Flush(); err != nil {
		return nil, fmt.Errorf("flush payloads: %w", err)
	}

	totalSize, err := out.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("seek end: %w", err)
	}

	if _, err := out.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek to directory: %w", err)
	}

	if _, err := out.Write(encodeDirectory(format, entries)); err != nil {
		return nil, fmt.Errorf("patch directory: %w", err)
	}

	return &PackResult{
		WrittenEntries: len(entries),
		DirectorySize:  dirSize,
		DataSize:       dataSize,
		PaddingBytes:   paddingBytes + (dataStart - dirSize),
		TotalSize:      totalSize,
		Duration:       time.Since(startedAt),
	}, nil
}

// PackFile writes an IMG archive to a temporary file next to outPath and
// atomically replaces outPath only after all writes and sync succeed, so a
// failed build never truncates an existing good archive.
func PackFile(ctx context.Context, outPath string, format Format, inputs []Input, opts PackOptions) (*PackResult, error) {
	dir := filepath.Dir(outPath)
	tmp, err := os.CreateTemp(dir, ".img-build-*")
	if err != nil {
		return nil, fmt.Errorf("create temp archive: %w", err)
	}

	tmpPath := tmp.Name()
	defer func() {
		if tmp != nil {
			_ = tmp.Close()
		}
		if tmpPath != "" {
			_ = os.Remove(tmpPath)
		}
	}()

	res, err := Pack(ctx, tmp, format, inputs, opts)
	if err != nil {
		return nil, err
	}

	if err := tmp.Sync(); err != nil {
		return nil, fmt.Errorf("sync temp archive: %w", err)
	}

	if err := tmp.Close(); err != nil {
		tmp = nil
		return nil, fmt.Errorf("close temp archive: %w", err)
	}
	tmp = nil

	if err := os.Rename(tmpPath, outPath); err != nil {
		return nil, fmt.Errorf("replace archive: %w", err)
	}
	tmpPath = ""

	return res, nil
}

// BuildFromDir packs every regular file in srcDir (sorted by name) into a new
// archive at outPath. Entry names are the file base names.
func BuildFromDir(ctx context.Context, outPath string, format Format, srcDir string, opts PackOptions) (*PackResult, error) {
	inputs, err := dirInputs(srcDir)
	if err != nil {
		return nil, err
	}

	return PackFile(ctx, outPath, format, inputs, opts)
}

// dirInputs lists regular files of a directory as pack inputs.
func dirInputs(srcDir string) ([]Input, error) {
	dirEntries, err := os.ReadDir(srcDir)
	if err != nil {
		return nil, fmt.Errorf("read source dir: %w", err)
	}

	inputs := make([]Input, 0, len(dirEntries))
	for _, de := range dirEntries {
		if !de.Type().IsRegular() {
			continue
		}

		srcPath := filepath.Join(srcDir, de.Name())
		var sizeHint int64
		if fi, err := de.Info(); err == nil {
			sizeHint = fi.Size()
		}

		inputs = append(inputs, Input{
			Name:     de.Name(),
			SizeHint: sizeHint,
			Open: func() (io.ReadCloser, error) {
				return os.Open(srcPath)
			},
		})
	}

	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: no files in %s", ErrEmptyInputs, srcDir)
	}

	return inputs, nil
}

// preparePackPlan normalizes names, truncates over-length ones to the fixed
// directory field, sorts by stored name, and rejects duplicates. Rejecting a
// truncation collision keeps the name-uniqueness invariant instead of
// silently writing two identical directory records.
func preparePackPlan(inputs []Input) ([]packPlanItem, error) {
	plan := make([]packPlanItem, 0, len(inputs))
	for i := range inputs {
		name, err := normalizeEntryName(inputs[i].Name)
		if err != nil {
			return nil, err
		}

		stored, truncated := truncateEntryName(name)
		plan = append(plan, packPlanItem{
			input:     inputs[i],
			name:      stored,
			truncated: truncated,
		})
	}

	sort.Slice(plan, func(i, j int) bool { return plan[i].name < plan[j].name })

	seen := make(map[string]string, len(plan))
	for _, item := range plan {
		if prev, ok := seen[item.name]; ok {
			return nil, fmt.Errorf("%w: %q conflicts with %q", ErrDuplicateEntryName, item.input.Name, prev)
		}

		seen[item.name] = item.input.Name
	}

	return plan, nil
}

// writePackPayload streams one input into the archive and returns its exact size.
func writePackPayload(dst io.Writer, item packPlanItem, copyBuf []byte) (uint32, error) {
	if item.input.Open == nil {
		return 0, fmt.Errorf("input %s: Open is nil", item.name)
	}

	rc, err := item.input.Open()
	if err != nil {
		return 0, fmt.Errorf("open input %s: %w", item.name, err)
	}

	// Limit one byte past uint32 so an oversized source is detected, not wrapped.
	written, copyErr := io.CopyBuffer(dst, io.LimitReader(rc, int64(^uint32(0))+1), copyBuf)
	closeErr := rc.Close()
	if copyErr != nil {
		return 0, fmt.Errorf("stream input %s: %w", item.name, copyErr)
	}

	if closeErr != nil {
		return 0, fmt.Errorf("close input %s: %w", item.name, closeErr)
	}

	if written > int64(^uint32(0)) {
		return 0, fmt.Errorf("%w: entry %s", ErrSizeOverflow, item.name)
	}

	return uint32(written), nil
}

// paddedSize returns size rounded up to the next sector boundary.
func paddedSize(size uint32) int64 {
	return int64(sectorCount(int64(size))) * sectorSize
}

// writeZeros writes n zero bytes to dst.
func writeZeros(dst io.Writer, n int64) error {
	if n <= 0 {
		return nil
	}

	var zeros [4096]byte
	for n > 0 {
		chunk := int64(len(zeros))
		if chunk > n {
			chunk = n
		}

		if _, err := dst.Write(zeros[:chunk]); err != nil {
			return err
		}

		n -= chunk
	}

	return nil
}
