// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/img

package img

import "errors"

// Sentinel errors for IMG operations. Use errors.Is in callers.
var (
	// ErrInvalidFormat means the file is not a recognizable IMG archive.
	ErrInvalidFormat = errors.New("invalid IMG file: unrecognized format")
	// ErrNameTooLong means the entry name exceeds the 24-byte directory field.
	ErrNameTooLong = errors.New("entry name exceeds 24 byte limit")
	// ErrInvalidEntryName means the entry name is empty or unusable.
	ErrInvalidEntryName = errors.New("invalid entry name")
	// ErrDuplicateEntryName means two entries resolve to the same stored name.
	ErrDuplicateEntryName = errors.New("duplicate entry name")
	// ErrEntryNotFound means the entry is not found.
	ErrEntryNotFound = errors.New("entry not found")
	// ErrNilReader means the reader is nil.
	ErrNilReader = errors.New("reader is nil")
	// ErrNilWriter means the writer is nil.
	ErrNilWriter = errors.New("writer is nil")
	// ErrClosed means the reader or resource is already closed.
	ErrClosed = errors.New("reader or resource already closed")
	// ErrEmptyInputs means no inputs provided for pack.
	ErrEmptyInputs = errors.New("no inputs provided for pack")
	// ErrSizeOverflow means a size or offset exceeds the uint32 directory fields.
	ErrSizeOverflow = errors.New("size exceeds uint32 directory field limit")
	// ErrInvalidPattern means one or more name patterns failed to compile.
	ErrInvalidPattern = errors.New("invalid name pattern")
	// ErrNothingAdded means an add batch staged zero files.
	ErrNothingAdded = errors.New("no valid files were added")
	// ErrNothingRemoved means a remove batch matched zero entries.
	ErrNothingRemoved = errors.New("no entries were removed")
)
