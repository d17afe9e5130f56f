// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/img

package img

import (
	"io"
	"time"
)

// Internal binary layout and format limits.
const (
	// sectorSize is the fixed placement/alignment unit for payload data.
	sectorSize = 2048
	// dirRecordSize is the size of one directory record in bytes.
	dirRecordSize = 32
	// maxNameLen is the fixed width of the name field inside a directory record.
	maxNameLen = 24
	// v2HeaderSize covers the "VER2" signature plus uint32 entry count.
	v2HeaderSize = 8
	// maxV1Records bounds the headerless V1 directory scan on malformed input.
	maxV1Records = 10000
)

// Default packer tuning values.
const (
	DefaultWriteBuffer = 4 * 1024 * 1024
)

// v2Signature is the ASCII magic at offset 0 of a V2 archive.
var v2Signature = [4]byte{'V', 'E', 'R', '2'}

// Format identifies the on-disk archive layout variant.
type Format uint8

// Archive format variants. FormatInvalid means the file is not an IMG archive.
const (
	FormatInvalid Format = iota
	// FormatV1 is the headerless layout: the directory starts at byte 0 and
	// its length is not stored, so it must be inferred by scanning records.
	FormatV1
	// FormatV2 carries a "VER2" signature and an explicit entry count.
	FormatV2
)

// String returns the canonical format name.
func (f Format) String() string {
	switch f {
	case FormatV1:
		return "VER1"
	case FormatV2:
		return "VER2"
	default:
		return "INVALID"
	}
}

// ParseFormat converts a user-supplied format name ("ver1"/"ver2", any case)
// to a Format value. Unknown names map to FormatInvalid.
func ParseFormat(name string) Format {
	switch name {
	case "ver1", "VER1", "Ver1", "v1", "V1":
		return FormatV1
	case "ver2", "VER2", "Ver2", "v2", "V2":
		return FormatV2
	default:
		return FormatInvalid
	}
}

// EntryInfo describes a single parsed directory entry.
type EntryInfo struct {
	// Name is the entry name as stored in the directory, NUL padding stripped.
	Name string `json:"name" yaml:"name"`
	// StartSector is the payload position in 2048-byte sector units.
	StartSector uint32 `json:"start_sector" yaml:"start_sector"`
	// Size is the exact unpadded payload length in bytes.
	Size uint32 `json:"size" yaml:"size"`
}

// Offset returns the payload byte offset of the entry.
func (e *EntryInfo) Offset() int64 {
	return int64(e.StartSector) * sectorSize
}

// Sectors returns the number of sectors the padded payload occupies.
func (e *EntryInfo) Sectors() uint32 {
	return sectorCount(int64(e.Size))
}

// sectorCount returns ceil(n/sectorSize) for non-negative n.
func sectorCount(n int64) uint32 {
	return uint32((n + sectorSize - 1) / sectorSize) //nolint:gosec // callers bound n by uint32 payload sizes
}

// Input describes one source stream to be packed into an archive entry.
type Input struct {
	// Open returns raw source stream for this entry.
	Open func() (io.ReadCloser, error) `json:"-" yaml:"-"`
	// Name is the entry name inside the archive.
	Name string `json:"name" yaml:"name"`
	// SizeHint is expected size in bytes (zero when unknown).
	SizeHint int64 `json:"size_hint,omitempty" yaml:"size_hint,omitempty"`
}

// PackEntryProgress contains one completed entry write event from pack flow.
type PackEntryProgress struct {
	// Name is the entry name written to the directory.
	Name string `json:"name" yaml:"name"`
	// StartSector is the assigned payload position in sector units.
	StartSector uint32 `json:"start_sector" yaml:"start_sector"`
	// Size is the unpadded payload size in bytes.
	Size uint32 `json:"size" yaml:"size"`
	// Truncated reports whether the source name was cut to the 24-byte field.
	Truncated bool `json:"truncated,omitempty" yaml:"truncated,omitempty"`
}

// PackOptions configures pack behavior.
type PackOptions struct {
	// OnEntryDone is called after one entry payload is fully written.
	OnEntryDone func(entry PackEntryProgress) `json:"-" yaml:"-"`
	// WriterBufferSize is buffered writer size in bytes.
	WriterBufferSize int `json:"writer_buffer_size,omitempty" yaml:"writer_buffer_size,omitempty"`
}

// PackResult contains pack output statistics.
type PackResult struct {
	// WrittenEntries is number of entries written to the directory.
	WrittenEntries int `json:"written_entries" yaml:"written_entries"`
	// DirectorySize is header plus directory bytes.
	DirectorySize int64 `json:"directory_size" yaml:"directory_size"`
	// DataSize is total unpadded payload bytes written.
	DataSize int64 `json:"data_size" yaml:"data_size"`
	// PaddingBytes is total alignment padding written around payloads.
	PaddingBytes int64 `json:"padding_bytes,omitempty" yaml:"padding_bytes,omitempty"`
	// TotalSize is the final archive size in bytes.
	TotalSize int64 `json:"total_size" yaml:"total_size"`
	// Duration is end-to-end pack core duration.
	Duration time.Duration `json:"duration,omitempty" yaml:"duration,omitempty"`
}

// ExtractOptions configures Extract behavior.
type ExtractOptions struct {
	// OnEntryDone is called after one entry is fully written to disk.
	OnEntryDone func(entry EntryInfo, outputPath string) `json:"-" yaml:"-"`
	// OnEntryError is called when one entry fails; extraction continues.
	OnEntryError func(entry EntryInfo, err error) `json:"-" yaml:"-"`
	// Entries limits extraction to selected metadata list; nil means all parsed entries.
	Entries []EntryInfo `json:"-" yaml:"-"`
}

// EditOptions configures file-based archive edit flow (add/remove/rename).
type EditOptions struct {
	// PackOptions are applied to the rebuild step of the edit.
	PackOptions PackOptions `json:"pack_options,omitzero" yaml:"pack_options,omitzero"`
}

// RebuildOptions configures the rebuild/defragmentation flow.
type RebuildOptions struct {
	// PackOptions are applied to the rebuild step.
	PackOptions PackOptions `json:"pack_options,omitzero" yaml:"pack_options,omitzero"`
	// SkipBackup disables the timestamped pre-rebuild backup copy.
	SkipBackup bool `json:"skip_backup,omitempty" yaml:"skip_backup,omitempty"`
}

// AddResult reports one Add batch outcome.
type AddResult struct {
	// Staged lists source files copied into the archive.
	Staged []string `json:"staged" yaml:"staged"`
	// Missing lists source files that were skipped because they do not exist.
	Missing []string `json:"missing,omitempty" yaml:"missing,omitempty"`
}

// RemoveResult reports one Remove batch outcome.
type RemoveResult struct {
	// Removed lists entry names deleted from the archive.
	Removed []string `json:"removed" yaml:"removed"`
	// Unmatched lists patterns that matched no entry.
	Unmatched []string `json:"unmatched,omitempty" yaml:"unmatched,omitempty"`
}

// RebuildResult reports archive size change after defragmentation.
type RebuildResult struct {
	// BackupPath is the timestamped copy of the original archive, empty when skipped.
	BackupPath string `json:"backup_path,omitempty" yaml:"backup_path,omitempty"`
	// Format is the preserved archive variant.
	Format Format `json:"format" yaml:"format"`
	// OldSize is the archive size before rebuild.
	OldSize int64 `json:"old_size" yaml:"old_size"`
	// NewSize is the archive size after rebuild.
	NewSize int64 `json:"new_size" yaml:"new_size"`
}

// SavedBytes returns how many bytes the rebuild reclaimed; negative means growth.
func (r *RebuildResult) SavedBytes() int64 {
	return r.OldSize - r.NewSize
}

// applyDefaults fills zero-valued pack options with defaults.
func (opts *PackOptions) applyDefaults() {
	if opts.WriterBufferSize < 4096 {
		opts.WriterBufferSize = DefaultWriteBuffer
	}
}

// applyDefaults fills zero-valued edit options with defaults.
func (opts *EditOptions) applyDefaults() {
	opts.PackOptions.applyDefaults()
}

// applyDefaults fills zero-valued rebuild options with defaults.
func (opts *RebuildOptions) applyDefaults() {
	opts.PackOptions.applyDefaults()
}
