// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/img

package img

import (
	"fmt"
	"io"
	"os"
)

// ArchiveInfo summarizes one parsed archive for reporting.
type ArchiveInfo struct {
	// Format is the detected archive variant.
	Format Format `json:"format" yaml:"format"`
	// EntryCount is the number of directory records.
	EntryCount int `json:"entry_count" yaml:"entry_count"`
	// HeaderSize is the fixed header size in bytes (zero for V1).
	HeaderSize int64 `json:"header_size" yaml:"header_size"`
	// DirectorySize is header plus directory bytes.
	DirectorySize int64 `json:"directory_size" yaml:"directory_size"`
	// DataStartSector is the first payload sector.
	DataStartSector uint32 `json:"data_start_sector" yaml:"data_start_sector"`
	// DataStartByte is DataStartSector in bytes.
	DataStartByte int64 `json:"data_start_byte" yaml:"data_start_byte"`
	// TotalSize is the archive file size in bytes.
	TotalSize int64 `json:"total_size" yaml:"total_size"`
	// DataSize is the sum of unpadded entry payload sizes.
	DataSize int64 `json:"data_size" yaml:"data_size"`
	// Overhead is TotalSize minus DataSize: directory, alignment, and slack.
	Overhead int64 `json:"overhead" yaml:"overhead"`
}

// Efficiency returns the payload share of the file as a whole percentage.
func (i *ArchiveInfo) Efficiency() int64 {
	if i == nil || i.TotalSize <= 0 {
		return 0
	}

	return i.DataSize * 100 / i.TotalSize
}

// ListEntries opens an archive and returns entry metadata without payload reads.
func ListEntries(path string) ([]EntryInfo, error) {
	return ListEntriesWithPattern(path, "")
}

// ListEntriesWithPattern opens an archive and returns entry metadata filtered
// by a shell-style glob pattern. An empty pattern keeps every entry.
func ListEntriesWithPattern(path string, pattern string) ([]EntryInfo, error) {
	f, size, err := openFileWithSize(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	return listEntriesFromReaderAt(f, size, pattern)
}

// listEntriesFromReaderAt parses entry metadata from a random-access source.
func listEntriesFromReaderAt(ra io.ReaderAt, size int64, pattern string) ([]EntryInfo, error) {
	r, err := NewReaderFromReaderAt(ra, size)
	if err != nil {
		return nil, err
	}

	return filterEntriesByPattern(r.Entries(), pattern)
}

// Info opens an archive and returns layout statistics. Read-only.
func Info(path string) (*ArchiveInfo, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()

	return infoFromReader(r), nil
}

// infoFromReader derives layout statistics from a parsed reader.
func infoFromReader(r *Reader) *ArchiveInfo {
	dirSize := directorySize(r.Format(), len(r.entries))
	dataStartSector := sectorCount(dirSize)

	var dataSize int64
	for i := range r.entries {
		dataSize += int64(r.entries[i].Size)
	}

	return &ArchiveInfo{
		Format:          r.Format(),
		EntryCount:      len(r.entries),
		HeaderSize:      directoryStart(r.Format()),
		DirectorySize:   dirSize,
		DataStartSector: dataStartSector,
		DataStartByte:   int64(dataStartSector) * sectorSize,
		TotalSize:       r.Size(),
		DataSize:        dataSize,
		Overhead:        r.Size() - dataSize,
	}
}

// openFileWithSize opens a file and returns a handle plus current size.
func openFileWithSize(path string) (*os.File, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open IMG: %w", err)
	}

	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, fmt.Errorf("stat: %w", err)
	}

	return f, fi.Size(), nil
}
