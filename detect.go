// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/img

package img

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// DetectFormat classifies the file at path as FormatV1, FormatV2, or
// FormatInvalid. The returned error covers I/O problems only; a readable file
// that is not an IMG archive yields FormatInvalid with a nil error.
func DetectFormat(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return FormatInvalid, fmt.Errorf("open IMG: %w", err)
	}
	defer func() { _ = f.Close() }()

	fi, err := f.Stat()
	if err != nil {
		return FormatInvalid, fmt.Errorf("stat: %w", err)
	}

	return DetectFormatFromReaderAt(f, fi.Size()), nil
}

// DetectFormatFromReaderAt classifies an archive from a random-access source.
//
// V2 is authoritative: the first four bytes equal "VER2". V1 has no signature,
// so classification is a best-effort plausibility check on the first directory
// record: the file must be at least one record long and the leading
// (sector, size) pair must be non-zero with size smaller than the file.
// A corrupt or foreign file can pass the V1 heuristic; callers that need
// certainty must treat V1 as a guess, not a guarantee.
func DetectFormatFromReaderAt(ra io.ReaderAt, size int64) Format {
	if ra == nil || size < 4 {
		return FormatInvalid
	}

	var head [v2HeaderSize]byte
	n, err := ra.ReadAt(head[:], 0)
	if err != nil && err != io.EOF {
		return FormatInvalid
	}

	if n >= 4 && bytes.Equal(head[0:4], v2Signature[:]) {
		return FormatV2
	}

	if size < dirRecordSize || n < 8 {
		return FormatInvalid
	}

	firstSector := binary.LittleEndian.Uint32(head[0:4])
	firstSize := binary.LittleEndian.Uint32(head[4:8])
	if firstSector > 0 && firstSize > 0 && int64(firstSize) < size {
		return FormatV1
	}

	return FormatInvalid
}
