// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/img

package img

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"
)

const (
	// readerDirBufferSize is a sequential read buffer for directory parsing.
	readerDirBufferSize = 64 * 1024
)

var (
	// directoryReaderPool reuses buffered readers for sequential directory parsing.
	directoryReaderPool = sync.Pool{
		New: func() any {
			return bufio.NewReaderSize(bytes.NewReader(nil), readerDirBufferSize)
		},
	}
)

// Reader provides read-only access to a parsed IMG archive.
type Reader struct {
	// ra is the underlying random-access reader used for payload reads.
	ra io.ReaderAt
	// file is set when Reader owns an *os.File opened via Open.
	file *os.File
	// entries stores parsed immutable entry metadata in directory order.
	entries []EntryInfo
	// size is total source size in bytes.
	size int64
	// mu guards closed state and close operation.
	mu sync.Mutex
	// format is the detected archive variant.
	format Format
	// closed reports whether Close was already called.
	closed bool
}

// Open opens an IMG file by path, detects the variant, and parses the directory.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open IMG: %w", err)
	}

	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat: %w", err)
	}

	r, err := NewReaderFromReaderAt(f, fi.Size())
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	r.file = f
	return r, nil
}

// NewReaderFromReaderAt parses an IMG archive from an existing ReaderAt and known size.
func NewReaderFromReaderAt(ra io.ReaderAt, size int64) (*Reader, error) {
	if ra == nil {
		return nil, ErrNilReader
	}

	r := &Reader{ra: ra, size: size}
	if err := r.parse(ra, size); err != nil {
		return nil, err
	}

	return r, nil
}

// Format returns the detected archive variant.
func (r *Reader) Format() Format {
	if r == nil {
		return FormatInvalid
	}

	return r.format
}

// Size returns the total archive size in bytes.
func (r *Reader) Size() int64 {
	if r == nil {
		return 0
	}

	return r.size
}

// Entries returns a copy of parsed entries in directory order.
func (r *Reader) Entries() []EntryInfo {
	if r == nil {
		return nil
	}

	entries := make([]EntryInfo, len(r.entries))
	copy(entries, r.entries)
	return entries
}

// Close closes the underlying file if reader owns one.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}

	r.closed = true
	if r.file != nil {
		return r.file.Close()
	}

	return nil
}

// parse detects the variant and decodes the directory table.
func (r *Reader) parse(ra io.ReaderAt, size int64) error {
	r.format = DetectFormatFromReaderAt(ra, size)

	switch r.format {
	case FormatV2:
		return r.parseV2Directory(ra, size)
	case FormatV1:
		return r.parseV1Directory(ra, size)
	default:
		return ErrInvalidFormat
	}
}

// parseV2Directory reads the stored entry count and that many fixed records.
func (r *Reader) parseV2Directory(ra io.ReaderAt, size int64) error {
	var head [v2HeaderSize]byte
	if _, err := ra.ReadAt(head[:], 0); err != nil {
		if err == io.EOF {
			return fmt.Errorf("%w: short header", ErrInvalidFormat)
		}

		return fmt.Errorf("read header: %w", err)
	}

	count, err := parseV2Header(head[:])
	if err != nil {
		return err
	}

	if dirEnd := directorySize(FormatV2, int(count)); dirEnd > size {
		return fmt.Errorf("%w: directory of %d entries exceeds file size", ErrInvalidFormat, count)
	}

	br, release := acquireDirectoryReader(ra, v2HeaderSize, size)
	defer release()

	r.entries = make([]EntryInfo, 0, count)
	var record [dirRecordSize]byte
	for i := uint32(0); i < count; i++ {
		if _, err := io.ReadFull(br, record[:]); err != nil {
			return fmt.Errorf("read directory record %d: %w", i, err)
		}

		r.entries = append(r.entries, parseDirRecord(record[:]))
	}

	return validateEntryBounds(r.entries, size)
}

// parseV1Directory scans fixed records from byte 0 until one fails the
// plausibility check or the record cap is reached. The format stores no
// terminator, so the inferred count is best-effort on malformed input.
func (r *Reader) parseV1Directory(ra io.ReaderAt, size int64) error {
	br, release := acquireDirectoryReader(ra, 0, size)
	defer release()

	r.entries = make([]EntryInfo, 0, 128)
	var record [dirRecordSize]byte
	for i := 0; i < maxV1Records; i++ {
		if _, err := io.ReadFull(br, record[:]); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				break
			}

			return fmt.Errorf("read directory record %d: %w", i, err)
		}

		entry := parseDirRecord(record[:])
		if !plausibleV1Record(entry, size) {
			break
		}

		r.entries = append(r.entries, entry)
	}

	if len(r.entries) == 0 {
		return fmt.Errorf("%w: empty VER1 directory", ErrInvalidFormat)
	}

	return validateEntryBounds(r.entries, size)
}

// plausibleV1Record applies the same sanity check as V1 detection to one record.
func plausibleV1Record(entry EntryInfo, size int64) bool {
	return entry.StartSector > 0 && entry.Size > 0 && int64(entry.Size) < size
}

// validateEntryBounds rejects entries whose payload region escapes the file.
// Zero-size records are directory padding and carry no payload to check.
func validateEntryBounds(entries []EntryInfo, size int64) error {
	for i := range entries {
		if entries[i].Size == 0 {
			continue
		}

		end := entries[i].Offset() + int64(entries[i].Size)
		if end > size {
			return fmt.Errorf("%w: entry %s payload out of file bounds", ErrInvalidFormat, entries[i].Name)
		}
	}

	return nil
}

// acquireDirectoryReader returns a pooled buffered reader over the directory region.
func acquireDirectoryReader(ra io.ReaderAt, offset int64, size int64) (*bufio.Reader, func()) {
	sr := io.NewSectionReader(ra, offset, size-offset)
	br := directoryReaderPool.Get().(*bufio.Reader) //nolint:forcetypeassert // pool contains only *bufio.Reader
	br.Reset(sr)

	return br, func() {
		br.Reset(bytes.NewReader(nil))
		directoryReaderPool.Put(br)
	}
}
