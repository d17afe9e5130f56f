// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/img

/*
Package img provides read, extract, pack, and edit operations for RenderWare
IMG archives: flat container files packing named binary resources into
2048-byte sector-aligned regions addressed by a directory table.

Two historical layouts exist. VER2 carries a "VER2" signature and an explicit
entry count; VER1 has neither, so its directory length is inferred by scanning
records until one fails a plausibility check. VER1 detection is therefore
best-effort and reported as a tri-state Format, never a boolean.

# Reading

Open an archive and list or read entries:

	r, err := img.Open("models.img")
	if err != nil {
	    return err
	}
	defer r.Close()
	for _, e := range r.Entries() {
	    data, _ := r.ReadEntry(e.Name)
	    // use data
	}

For metadata-only scans, use fast helpers without creating a full reader:

	entries, err := img.ListEntriesWithPattern("textures.img", "*.txd")
	if err != nil {
	    return err
	}
	info, err := img.Info("textures.img")
	if err != nil {
	    return err
	}
	_, _ = entries, info

# Extracting

Extract all entries to a directory:

	if err := r.Extract(ctx, "out/", img.ExtractOptions{}); err != nil {
	    return err
	}

Per-entry failures are reported through ExtractOptions.OnEntryError and do not
abort the rest of the extraction.

# Packing

Pack sorts inputs by stored name, reserves the directory region, writes each
payload padded to the next sector boundary, then patches the directory:

	inputs := []img.Input{
	    {Name: "car.dff", Open: func() (io.ReadCloser, error) { return os.Open("src/car.dff") }},
	}
	res, err := img.PackFile(ctx, "custom.img", img.FormatV2, inputs, img.PackOptions{})

PackFile builds into a temporary file and atomically replaces the target only
after every write succeeds, so a failed build never corrupts an existing
archive.

# Editing

Add, Remove, Rename, and Rebuild all share one transaction shape: extract into
a scoped temporary working set, apply file-level changes there, rebuild, and
atomically replace the original:

	res, err := img.Remove(ctx, "models.img", []string{"*.col"}, img.EditOptions{})
	if err != nil {
	    return err
	}
	_ = res.Removed

Rebuild additionally writes a timestamped backup copy first and reports the
size delta of the defragmented archive.
*/
package img
