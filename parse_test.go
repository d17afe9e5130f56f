package img

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// manualEntry is one named payload for hand-built test archives.
type manualEntry struct {
	name string
	data []byte
}

// createManualIMG writes an archive by hand, without the builder, placing
// payloads back-to-back in the given order; returns the path.
func createManualIMG(t *testing.T, format Format, entries []manualEntry) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "manual.img")

	dirSize := directorySize(format, len(entries))
	dataSector := sectorCount(dirSize)

	total := uint32(0)
	for _, e := range entries {
		total += sectorCount(int64(len(e.data)))
	}

	raw := make([]byte, (int(dataSector)+int(total))*sectorSize)
	dirOff := int(directoryStart(format))

	if format == FormatV2 {
		putV2Header(raw[:v2HeaderSize], uint32(len(entries)))
	}

	current := dataSector
	for _, e := range entries {
		putDirRecord(raw[dirOff:dirOff+dirRecordSize], EntryInfo{
			Name:        e.name,
			StartSector: current,
			Size:        uint32(len(e.data)),
		})
		dirOff += dirRecordSize

		copy(raw[int(current)*sectorSize:], e.data)
		current += sectorCount(int64(len(e.data)))
	}

	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatal(err)
	}

	return path
}

func TestOpen_ManualV2(t *testing.T) {
	t.Parallel()

	path := createManualIMG(t, FormatV2, []manualEntry{
		{name: "car.dff", data: []byte("model-bytes")},
		{name: "car.txd", data: bytes.Repeat([]byte("x"), 3000)},
	})

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = r.Close() }()

	if r.Format() != FormatV2 {
		t.Fatalf("Format=%s, want VER2", r.Format())
	}

	entries := r.Entries()
	if len(entries) != 2 {
		t.Fatalf("len(entries)=%d, want 2", len(entries))
	}

	if entries[0].Name != "car.dff" || entries[0].Size != 11 || entries[0].StartSector != 1 {
		t.Fatalf("entries[0]=%+v", entries[0])
	}

	if entries[1].Name != "car.txd" || entries[1].Size != 3000 || entries[1].StartSector != 2 {
		t.Fatalf("entries[1]=%+v", entries[1])
	}

	data, err := r.ReadEntry("car.dff")
	if err != nil {
		t.Fatalf("ReadEntry: %v", err)
	}

	if string(data) != "model-bytes" {
		t.Fatalf("data=%q", data)
	}
}

func TestOpen_ManualV1(t *testing.T) {
	t.Parallel()

	path := createManualIMG(t, FormatV1, []manualEntry{
		{name: "a.col", data: []byte("collision")},
		{name: "b.col", data: []byte("more-collision")},
	})

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = r.Close() }()

	if r.Format() != FormatV1 {
		t.Fatalf("Format=%s, want VER1", r.Format())
	}

	entries := r.Entries()
	if len(entries) != 2 {
		t.Fatalf("len(entries)=%d, want 2", len(entries))
	}

	data, err := r.ReadEntry("b.col")
	if err != nil {
		t.Fatalf("ReadEntry: %v", err)
	}

	if string(data) != "more-collision" {
		t.Fatalf("data=%q", data)
	}
}

func TestOpen_InvalidFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "garbage.img")
	if err := os.WriteFile(path, make([]byte, 64), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := Open(path)
	if !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("expected ErrInvalidFormat, got %v", err)
	}
}

func TestOpen_V2DirectoryExceedsFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "short.img")

	head := make([]byte, v2HeaderSize)
	putV2Header(head, 1000)
	if err := os.WriteFile(path, head, 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := Open(path)
	if !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("expected ErrInvalidFormat, got %v", err)
	}
}

func TestOpen_EntryOutOfBounds(t *testing.T) {
	t.Parallel()

	path := createManualIMG(t, FormatV2, []manualEntry{
		{name: "a.dff", data: []byte("payload")},
	})

	// Corrupt the stored size so the payload region escapes the file.
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	binary.LittleEndian.PutUint32(raw[v2HeaderSize+4:v2HeaderSize+8], 1<<30)
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatal(err)
	}

	_, err = Open(path)
	if !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("expected ErrInvalidFormat, got %v", err)
	}
}

func TestOpen_V1ScanStopsAtZeroRecord(t *testing.T) {
	t.Parallel()

	// Two plausible records, then an all-zero record, then junk payload.
	var buf bytes.Buffer
	record := make([]byte, dirRecordSize)

	putDirRecord(record, EntryInfo{Name: "first.dff", StartSector: 1, Size: 10})
	buf.Write(record)
	putDirRecord(record, EntryInfo{Name: "second.dff", StartSector: 2, Size: 20})
	buf.Write(record)
	buf.Write(make([]byte, dirRecordSize))

	buf.Write(make([]byte, 5*sectorSize-buf.Len()))

	path := filepath.Join(t.TempDir(), "v1.img")
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		t.Fatal(err)
	}

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = r.Close() }()

	if r.Format() != FormatV1 {
		t.Fatalf("Format=%s, want VER1", r.Format())
	}

	entries := r.Entries()
	if len(entries) != 2 {
		t.Fatalf("len(entries)=%d, want 2", len(entries))
	}

	if entries[1].Name != "second.dff" {
		t.Fatalf("entries[1].Name=%q, want second.dff", entries[1].Name)
	}
}

func TestReadEntry_NotFound(t *testing.T) {
	t.Parallel()

	path := createManualIMG(t, FormatV2, []manualEntry{
		{name: "present.dff", data: []byte("x")},
	})

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = r.Close() }()

	if _, err := r.ReadEntry("absent.dff"); !errors.Is(err, ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound, got %v", err)
	}

	// Lookup is case-sensitive, as stored.
	if _, err := r.ReadEntry("PRESENT.DFF"); !errors.Is(err, ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound for case mismatch, got %v", err)
	}
}

func TestReader_ClosedReads(t *testing.T) {
	t.Parallel()

	path := createManualIMG(t, FormatV2, []manualEntry{
		{name: "a.dff", data: []byte("x")},
	})

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if _, err := r.OpenEntry("a.dff"); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}

	if err := r.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
