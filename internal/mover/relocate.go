package mover

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"

	"tonearm/internal/fileutil"
)

var errDestinationExists = errors.New("destination already exists")

// relocate moves the folder at src to dst. The outcome is atomic from the
// library's point of view: on any failure the source stays untouched and no
// partial destination is left behind.
func relocate(src, dst string) error {
	if _, err := os.Lstat(dst); err == nil {
		return fmt.Errorf("%w: %s", errDestinationExists, dst)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat destination: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create artist directory: %w", err)
	}

	renameErr := os.Rename(src, dst)
	if renameErr == nil {
		return nil
	}
	var linkErr *os.LinkError
	if errors.As(renameErr, &linkErr) && errors.Is(linkErr.Err, syscall.EXDEV) {
		return crossDeviceMove(src, dst)
	}
	return fmt.Errorf("rename folder: %w", renameErr)
}

// crossDeviceMove copies src into a hidden .partial sibling of dst, verifies
// every file, renames the finished copy into place, then removes the source.
func crossDeviceMove(src, dst string) error {
	partial := filepath.Join(filepath.Dir(dst), "."+filepath.Base(dst)+".partial")
	if err := os.RemoveAll(partial); err != nil {
		return fmt.Errorf("clear stale partial copy: %w", err)
	}
	if err := fileutil.CopyTreeVerified(src, partial); err != nil {
		_ = os.RemoveAll(partial)
		return fmt.Errorf("copy across devices: %w", err)
	}
	if err := os.Rename(partial, dst); err != nil {
		_ = os.RemoveAll(partial)
		return fmt.Errorf("publish copied folder: %w", err)
	}
	if err := os.RemoveAll(src); err != nil {
		return fmt.Errorf("remove source after copy (library copy is complete at %s, remove the source manually): %w", dst, err)
	}
	return nil
}
