// Package fileutil holds the small filesystem primitives gopsplice relies on
// for crash safety: cached sidecars are replaced atomically and the finished
// output is moved into place in one step.
package fileutil

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"
)

// Exists reports whether path names an existing regular file. Directories and
// other special files report false.
func Exists(path string) (bool, error) {
	info, err := os.Stat(path)
	switch {
	case err == nil:
		return info.Mode().IsRegular(), nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

// WriteFileAtomic replaces path with data. The bytes go to a hidden sibling
// that is synced and renamed over path, so a crash leaves either the old file
// or the new one.
func WriteFileAtomic(path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	name := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(name)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Chmod(0o644); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(name, path)
}

// MoveFile renames src to dst. When the work directory and destination sit on
// different filesystems it copies instead, checks the copy against the source
// digest, and only then removes src.
func MoveFile(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil || !errors.Is(err, syscall.EXDEV) {
		return err
	}
	if err := copyChecked(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}

func copyChecked(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	want := sha256.New()
	written, err := io.Copy(out, io.TeeReader(in, want))
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err == nil && written != info.Size() {
		err = fmt.Errorf("copy %s: wrote %d of %d bytes", src, written, info.Size())
	}
	if err == nil {
		err = verifyDigest(dst, want.Sum(nil))
	}
	if err != nil {
		_ = os.Remove(dst)
		return err
	}
	return nil
}

// verifyDigest re-reads path from disk so a short or corrupted write is caught
// before the source is removed.
func verifyDigest(path string, want []byte) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	got := sha256.New()
	if _, err := io.Copy(got, f); err != nil {
		return err
	}
	if !bytes.Equal(got.Sum(nil), want) {
		return fmt.Errorf("copy %s: digest mismatch", path)
	}
	return nil
}
