// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/img

package img

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Directory record layout, repeated per entry:
//
//	+0  uint32 LE  start sector (unit = 2048 bytes)
//	+4  uint32 LE  payload size in bytes
//	+8  [24]byte   name, NUL padded, not necessarily NUL terminated
//
// V2 archives prepend an 8-byte header: "VER2" at 0, uint32 LE entry count at 4.

// putDirRecord encodes one directory record into a 32-byte buffer.
func putDirRecord(buf []byte, entry EntryInfo) {
	_ = buf[dirRecordSize-1]

	binary.LittleEndian.PutUint32(buf[0:4], entry.StartSector)
	binary.LittleEndian.PutUint32(buf[4:8], entry.Size)
	putFixedName(buf[8:dirRecordSize], entry.Name)
}

// parseDirRecord decodes one 32-byte directory record.
func parseDirRecord(buf []byte) EntryInfo {
	_ = buf[dirRecordSize-1]

	return EntryInfo{
		StartSector: binary.LittleEndian.Uint32(buf[0:4]),
		Size:        binary.LittleEndian.Uint32(buf[4:8]),
		Name:        parseFixedName(buf[8:dirRecordSize]),
	}
}

// putFixedName writes name into a fixed-width field with NUL padding.
// Callers must have validated length against the field width.
func putFixedName(field []byte, name string) {
	n := copy(field, name)
	for i := n; i < len(field); i++ {
		field[i] = 0
	}
}

// parseFixedName reads a NUL-padded fixed-width name field. Bytes after the
// first NUL are padding; a field without NUL uses the full width.
func parseFixedName(field []byte) string {
	if idx := bytes.IndexByte(field, 0); idx >= 0 {
		field = field[:idx]
	}

	return string(bytes.TrimSpace(field))
}

// putV2Header encodes the "VER2" signature and entry count into an 8-byte buffer.
func putV2Header(buf []byte, count uint32) {
	_ = buf[v2HeaderSize-1]

	copy(buf[0:4], v2Signature[:])
	binary.LittleEndian.PutUint32(buf[4:8], count)
}

// parseV2Header validates the signature and returns the stored entry count.
func parseV2Header(buf []byte) (uint32, error) {
	if len(buf) < v2HeaderSize {
		return 0, fmt.Errorf("%w: short header", ErrInvalidFormat)
	}

	if !bytes.Equal(buf[0:4], v2Signature[:]) {
		return 0, fmt.Errorf("%w: missing VER2 signature", ErrInvalidFormat)
	}

	return binary.LittleEndian.Uint32(buf[4:8]), nil
}

// directorySize returns header plus directory bytes for n entries.
func directorySize(format Format, n int) int64 {
	size := int64(n) * dirRecordSize
	if format == FormatV2 {
		size += v2HeaderSize
	}

	return size
}

// directoryStart returns the byte offset of the first directory record.
func directoryStart(format Format) int64 {
	if format == FormatV2 {
		return v2HeaderSize
	}

	return 0
}

// encodeDirectory lays out the header (V2 only) and one record per entry in order.
func encodeDirectory(format Format, entries []EntryInfo) []byte {
	buf := make([]byte, directorySize(format, len(entries)))

	off := 0
	if format == FormatV2 {
		putV2Header(buf[:v2HeaderSize], uint32(len(entries))) //nolint:gosec // entry count bounded by directory size
		off = v2HeaderSize
	}

	for i := range entries {
		putDirRecord(buf[off:off+dirRecordSize], entries[i])
		off += dirRecordSize
	}

	return buf
}
