// Package archive packs workspace trees into zstd-compressed tarballs so a
// finished batch's artifacts can be shipped off the scratch filesystem.
package archive

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	mobyarchive "github.com/moby/go-archive"
	"github.com/moby/go-archive/compression"
)

// Pack writes srcDir's contents into a .tar.zst file at outPath.
func Pack(srcDir, outPath string) (int64, error) {
	info, err := os.Stat(srcDir)
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", srcDir, err)
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("%s is not a directory", srcDir)
	}

	reader, err := mobyarchive.TarWithOptions(srcDir, &mobyarchive.TarOptions{
		Compression: compression.None,
	})
	if err != nil {
		return 0, fmt.Errorf("tar %s: %w", srcDir, err)
	}
	defer reader.Close()

	f, err := os.Create(outPath)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", outPath, err)
	}
	defer f.Close()

	zw, err := zstd.NewWriter(f)
	if err != nil {
		return 0, fmt.Errorf("create zstd writer: %w", err)
	}

	if _, err := io.Copy(zw, reader); err != nil {
		zw.Close()
		return 0, fmt.Errorf("compress archive: %w", err)
	}

	// Close everything explicitly to catch write errors.
	if err := zw.Close(); err != nil {
		return 0, fmt.Errorf("close zstd: %w", err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("close file: %w", err)
	}

	stat, err := os.Stat(outPath)
	if err != nil {
		return 0, err
	}
	return stat.Size(), nil
}

// PackItem archives one adsorbate's workspace under baseDir.
func PackItem(baseDir, item, outPath string) (int64, error) {
	return Pack(filepath.Join(baseDir, item), outPath)
}

// Unpack extracts a .tar.zst archive into destDir.
func Unpack(archivePath, destDir string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open %s: %w", archivePath, err)
	}
	defer f.Close()

	zr, err := zstd.NewReader(f)
	if err != nil {
		return fmt.Errorf("create zstd reader: %w", err)
	}
	defer zr.Close()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", destDir, err)
	}

	if err := mobyarchive.Untar(zr, destDir, &mobyarchive.TarOptions{}); err != nil {
		return fmt.Errorf("untar into %s: %w", destDir, err)
	}
	return nil
}
