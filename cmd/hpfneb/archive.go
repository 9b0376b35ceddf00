package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/Azeezakinyemi999/Hindered-Partition-Function-NEB/internal/archive"
	"github.com/Azeezakinyemi999/Hindered-Partition-Function-NEB/internal/config"
)

func runArchive(args []string) error {
	if len(args) == 0 {
		printArchiveUsage()
		return nil
	}

	switch args[0] {
	case "pack":
		return archivePack(args[1:])
	case "unpack":
		return archiveUnpack(args[1:])
	default:
		printArchiveUsage()
		return fmt.Errorf("unknown archive command: %s", args[0])
	}
}

func printArchiveUsage() {
	fmt.Fprintf(os.Stderr, `Usage: hpfneb archive <command>

Commands:
  pack [-item <name>] [-o <file>]   Archive the workspace, or one item's directory
  unpack -f <file> [-d <dir>]       Restore an archive
`)
}

func archivePack(args []string) error {
	fs := flag.NewFlagSet("pack", flag.ContinueOnError)
	item := fs.String("item", "", "archive a single adsorbate's workspace")
	out := fs.String("o", "", "output path (default derived from the source)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	stamp := time.Now().Format("20060102-150405")

	var size int64
	path := *out
	if *item != "" {
		if path == "" {
			path = fmt.Sprintf("%s-%s.tar.zst", *item, stamp)
		}
		size, err = archive.PackItem(cfg.Batch.BaseDir, *item, path)
	} else {
		if path == "" {
			path = fmt.Sprintf("workspace-%s.tar.zst", stamp)
		}
		size, err = archive.Pack(cfg.Batch.BaseDir, path)
	}
	if err != nil {
		return err
	}

	fmt.Printf("Wrote %s (%.1f KiB)\n", path, float64(size)/1024)
	return nil
}

func archiveUnpack(args []string) error {
	fs := flag.NewFlagSet("unpack", flag.ContinueOnError)
	file := fs.String("f", "", "archive file to restore")
	dest := fs.String("d", ".", "destination directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return fmt.Errorf("usage: hpfneb archive unpack -f <file> [-d <dir>]")
	}

	if err := archive.Unpack(*file, *dest); err != nil {
		return err
	}
	fmt.Printf("Restored %s into %s\n", *file, *dest)
	return nil
}
