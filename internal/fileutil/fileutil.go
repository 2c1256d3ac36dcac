// Package fileutil holds small file helpers shared by the pipeline stages.
package fileutil

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// CopyFile streams src to dst with default permissions (0o644).
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	_, err = WriteAtomic(dst, in, -1)
	return err
}

// WriteAtomic streams r into dst through a sibling ".part" file that is
// renamed into place once complete, so dst never holds a truncated file.
// When expected is non-negative the written size must match it. On any
// failure the partial file is removed.
func WriteAtomic(dst string, r io.Reader, expected int64) (int64, error) {
	tmp := dst + ".part"
	out, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, err
	}

	written, copyErr := io.Copy(out, r)
	closeErr := out.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = os.Remove(tmp)
		return written, err
	}
	if expected >= 0 && written != expected {
		_ = os.Remove(tmp)
		return written, fmt.Errorf("size mismatch: expected %d bytes, wrote %d bytes", expected, written)
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return written, err
	}
	return written, nil
}
