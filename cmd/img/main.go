// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/img

// Command img manipulates RenderWare IMG archives: extract, create, add,
// remove, rename, rebuild, list, and info.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/woozymasta/img"
)

// version is set via -ldflags at release build.
var version = "2.0.0"

// Exit codes: 0 success, 1 general failure, 2 invalid arguments.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run dispatches one subcommand and maps errors to exit codes.
func run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return exitUsage
	}

	switch args[0] {
	case "--help", "-h", "help":
		printUsage()
		return exitOK
	case "--version", "-v", "version":
		fmt.Printf("img version %s\n", version)
		return exitOK
	}

	ctx := context.Background()

	var err error
	switch args[0] {
	case "extract", "e":
		err = cmdExtract(ctx, args[1:])
	case "create", "c":
		err = cmdCreate(ctx, args[1:])
	case "add", "a":
		err = cmdAdd(ctx, args[1:])
	case "remove", "del", "d":
		err = cmdRemove(ctx, args[1:])
	case "rename", "r":
		err = cmdRename(ctx, args[1:])
	case "rebuild", "R":
		err = cmdRebuild(ctx, args[1:])
	case "list", "l":
		err = cmdList(args[1:])
	case "info", "i":
		err = cmdInfo(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
		printUsage()
		return exitUsage
	}

	if err != nil {
		if _, ok := err.(usageError); ok {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return exitUsage
		}

		fmt.Fprintln(os.Stderr, "Error:", err)
		return exitFailure
	}

	return exitOK
}

// usageError marks argument validation failures for exit code 2.
type usageError string

func (e usageError) Error() string { return string(e) }

// printUsage prints the command-line usage information.
func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  img extract <img> <dir>            Extract all entries to a directory")
	fmt.Println("  img create <ver1|ver2> <img> <dir> Create an archive from a directory")
	fmt.Println("  img add <img> <file>...            Add files to an archive")
	fmt.Println("  img remove <img> <pattern>...      Remove entries matching glob patterns")
	fmt.Println("  img rename <img> <old> <new>       Rename one entry")
	fmt.Println("  img rebuild <img>                  Defragment an archive (with backup)")
	fmt.Println("  img list <img> [pattern]           List entries, optionally filtered")
	fmt.Println("  img info <img>                     Show archive layout details")
	fmt.Println("  img --help | --version")
}

// cmdExtract handles `img extract <img> <dir>`.
func cmdExtract(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return usageError("extract requires <img> <dir>")
	}

	archivePath, dstDir := args[0], args[1]

	r, err := img.Open(archivePath)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	fmt.Printf("Detected format: %s\n", r.Format())
	fmt.Printf("Extracting %d files from %s\n", len(r.Entries()), archivePath)

	err = r.Extract(ctx, dstDir, img.ExtractOptions{
		OnEntryDone: func(entry img.EntryInfo, _ string) {
			fmt.Printf("Extracted: %s (size: %d bytes)\n", entry.Name, entry.Size)
		},
		OnEntryError: func(entry img.EntryInfo, err error) {
			fmt.Fprintf(os.Stderr, "Warning: entry %s: %v\n", entry.Name, err)
		},
	})
	if err != nil {
		return err
	}

	fmt.Println("Extraction complete")
	return nil
}

// cmdCreate handles `img create <ver1|ver2> <img> <dir>`.
func cmdCreate(ctx context.Context, args []string) error {
	if len(args) != 3 {
		return usageError("create requires <ver1|ver2> <img> <dir>")
	}

	format := img.ParseFormat(args[0])
	if format == img.FormatInvalid {
		return usageError(fmt.Sprintf("invalid format %q, use ver1 or ver2", args[0]))
	}

	archivePath, srcDir := args[1], args[2]

	res, err := img.BuildFromDir(ctx, archivePath, format, srcDir, img.PackOptions{
		OnEntryDone: func(entry img.PackEntryProgress) {
			if entry.Truncated {
				fmt.Fprintf(os.Stderr, "Warning: name truncated to %q\n", entry.Name)
			}

			fmt.Printf("Added: %s (sector: %d, size: %d)\n", entry.Name, entry.StartSector, entry.Size)
		},
	})
	if err != nil {
		return err
	}

	fmt.Printf("%s IMG file created: %s (%d entries, %d bytes)\n",
		format, archivePath, res.WrittenEntries, res.TotalSize)
	return nil
}

// cmdAdd handles `img add <img> <file>...`.
func cmdAdd(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return usageError("add requires <img> <file>...")
	}

	res, err := img.Add(ctx, args[0], args[1:], img.EditOptions{})
	if err != nil {
		return err
	}

	for _, name := range res.Staged {
		fmt.Printf("Added: %s\n", name)
	}

	for _, file := range res.Missing {
		fmt.Fprintf(os.Stderr, "Warning: file not found: %s\n", file)
	}

	fmt.Printf("Successfully added %d file(s) to %s\n", len(res.Staged), args[0])
	return nil
}

// cmdRemove handles `img remove <img> <pattern>...`.
func cmdRemove(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return usageError("remove requires <img> <pattern>...")
	}

	res, err := img.Remove(ctx, args[0], args[1:], img.EditOptions{})
	if err != nil {
		return err
	}

	for _, name := range res.Removed {
		fmt.Printf("Removed: %s\n", name)
	}

	for _, pattern := range res.Unmatched {
		fmt.Fprintf(os.Stderr, "Warning: no entries match: %s\n", pattern)
	}

	fmt.Printf("Successfully removed %d file(s) from %s\n", len(res.Removed), args[0])
	return nil
}

// cmdRename handles `img rename <img> <old> <new>`.
func cmdRename(ctx context.Context, args []string) error {
	if len(args) != 3 {
		return usageError("rename requires <img> <old> <new>")
	}

	if err := img.Rename(ctx, args[0], args[1], args[2], img.EditOptions{}); err != nil {
		return err
	}

	fmt.Printf("Renamed: %s -> %s\n", args[1], args[2])
	return nil
}

// cmdRebuild handles `img rebuild <img>`.
func cmdRebuild(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("rebuild requires <img>")
	}

	res, err := img.Rebuild(ctx, args[0], img.RebuildOptions{})
	if err != nil {
		return err
	}

	if res.BackupPath != "" {
		fmt.Printf("Backup created: %s\n", res.BackupPath)
	}

	fmt.Println("Rebuild complete")
	fmt.Printf("Original size: %d bytes\n", res.OldSize)
	fmt.Printf("New size: %d bytes\n", res.NewSize)

	switch saved := res.SavedBytes(); {
	case saved > 0:
		fmt.Printf("Space saved: %d bytes\n", saved)
	case saved < 0:
		fmt.Printf("Size increased: %d bytes\n", -saved)
	default:
		fmt.Println("Size unchanged")
	}

	return nil
}

// cmdList handles `img list <img> [pattern]`.
func cmdList(args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return usageError("list requires <img> [pattern]")
	}

	pattern := ""
	if len(args) == 2 {
		pattern = args[1]
	}

	info, err := img.Info(args[0])
	if err != nil {
		return err
	}

	entries, err := img.ListEntriesWithPattern(args[0], pattern)
	if err != nil {
		return err
	}

	fmt.Printf("IMG File: %s (Format: %s)\n", args[0], info.Format)
	fmt.Printf("Files: %d\n", info.EntryCount)
	if pattern != "" {
		fmt.Printf("Filter: %s\n", pattern)
	}

	divider := strings.Repeat("-", 46)
	fmt.Println(divider)
	fmt.Printf("%-24s %10s %10s\n", "Filename", "Size", "Sector")
	fmt.Println(divider)

	for _, entry := range entries {
		if entry.Name == "" || entry.Size == 0 {
			continue
		}

		fmt.Printf("%-24s %10d %10d\n", entry.Name, entry.Size, entry.StartSector)
	}

	if pattern != "" {
		fmt.Println(divider)
		fmt.Printf("Displayed: %d files (filtered)\n", len(entries))
	}

	return nil
}

// cmdInfo handles `img info <img>`.
func cmdInfo(args []string) error {
	if len(args) != 1 {
		return usageError("info requires <img>")
	}

	info, err := img.Info(args[0])
	if err != nil {
		return err
	}

	fmt.Println("IMG File Information")
	fmt.Println("====================")
	fmt.Printf("File: %s\n", args[0])
	fmt.Printf("Size: %d bytes (%d KB)\n", info.TotalSize, info.TotalSize/1024)
	fmt.Printf("Format: %s\n", info.Format)
	fmt.Printf("Entries: %d\n", info.EntryCount)
	fmt.Printf("Header size: %d bytes\n", info.HeaderSize)
	fmt.Printf("Directory size: %d bytes\n", info.DirectorySize)
	fmt.Printf("Data starts at: sector %d (byte %d)\n", info.DataStartSector, info.DataStartByte)
	fmt.Printf("Total data size: %d bytes\n", info.DataSize)
	fmt.Printf("Overhead: %d bytes\n", info.Overhead)
	fmt.Printf("Efficiency: %d%%\n", info.Efficiency())

	return nil
}
