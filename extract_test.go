package img

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestExtract_WritesAllEntries(t *testing.T) {
	t.Parallel()

	path := createManualIMG(t, FormatV2, []manualEntry{
		{name: "one.dff", data: []byte("first")},
		{name: "two.txd", data: bytes.Repeat([]byte("2"), 2100)},
	})

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = r.Close() }()

	outDir := filepath.Join(t.TempDir(), "out")
	var done []string
	err = r.Extract(context.Background(), outDir, ExtractOptions{
		OnEntryDone: func(entry EntryInfo, _ string) {
			done = append(done, entry.Name)
		},
	})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if len(done) != 2 {
		t.Fatalf("done=%v, want 2 entries", done)
	}

	got, err := os.ReadFile(filepath.Join(outDir, "two.txd"))
	if err != nil {
		t.Fatal(err)
	}

	if len(got) != 2100 {
		t.Fatalf("len(got)=%d, want 2100 (sector padding must not leak)", len(got))
	}
}

func TestExtract_SkipsPaddingEntries(t *testing.T) {
	t.Parallel()

	path := createManualIMG(t, FormatV2, []manualEntry{
		{name: "real.dff", data: []byte("data")},
		{name: "", data: nil},
		{name: "empty.dff", data: nil},
	})

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = r.Close() }()

	outDir := filepath.Join(t.TempDir(), "out")
	if err := r.Extract(context.Background(), outDir, ExtractOptions{}); err != nil {
		t.Fatalf("Extract: %v", err)
	}

	names, err := os.ReadDir(outDir)
	if err != nil {
		t.Fatal(err)
	}

	if len(names) != 1 || names[0].Name() != "real.dff" {
		t.Fatalf("extracted %v, want only real.dff", names)
	}
}

func TestExtract_EntryFailureDoesNotAbort(t *testing.T) {
	t.Parallel()

	// A name with a path separator is rejected per entry, not fatally.
	path := createManualIMG(t, FormatV2, []manualEntry{
		{name: "bad/name.dff", data: []byte("evil")},
		{name: "good.dff", data: []byte("fine")},
	})

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = r.Close() }()

	outDir := filepath.Join(t.TempDir(), "out")
	var failed []string
	err = r.Extract(context.Background(), outDir, ExtractOptions{
		OnEntryError: func(entry EntryInfo, err error) {
			if !errors.Is(err, ErrInvalidEntryName) {
				t.Errorf("unexpected entry error: %v", err)
			}

			failed = append(failed, entry.Name)
		},
	})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if len(failed) != 1 || failed[0] != "bad/name.dff" {
		t.Fatalf("failed=%v", failed)
	}

	if _, err := os.Stat(filepath.Join(outDir, "good.dff")); err != nil {
		t.Fatalf("good entry missing: %v", err)
	}
}

func TestExtract_CanceledContext(t *testing.T) {
	t.Parallel()

	path := createManualIMG(t, FormatV2, []manualEntry{
		{name: "a.dff", data: []byte("x")},
	})

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = r.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = r.Extract(ctx, filepath.Join(t.TempDir(), "out"), ExtractOptions{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestExtract_SelectedEntries(t *testing.T) {
	t.Parallel()

	path := createManualIMG(t, FormatV2, []manualEntry{
		{name: "keep.dff", data: []byte("keep")},
		{name: "skip.txd", data: []byte("skip")},
	})

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = r.Close() }()

	selected, err := filterEntriesByPattern(r.Entries(), "*.dff")
	if err != nil {
		t.Fatalf("filterEntriesByPattern: %v", err)
	}

	outDir := filepath.Join(t.TempDir(), "out")
	if err := r.Extract(context.Background(), outDir, ExtractOptions{Entries: selected}); err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if _, err := os.Stat(filepath.Join(outDir, "keep.dff")); err != nil {
		t.Fatalf("keep.dff missing: %v", err)
	}

	if _, err := os.Stat(filepath.Join(outDir, "skip.txd")); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("skip.txd must not be extracted")
	}
}
