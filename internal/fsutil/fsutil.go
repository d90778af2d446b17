// Package fsutil provides the manifest store's on-disk write path, adapted
// from golang-dep's fs.go (IsRegular/renameWithFallback/CopyFile): lock,
// write to a temp file, rename into place. spec.md §5 calls the manifest
// file "written only by bootstrap, pass commit, and recovery-restore" —
// WriteManifest is the single choke point all three go through, guarded by
// an advisory github.com/theckman/go-flock lock so two concurrent tool
// invocations can't interleave writes to the same file.
package fsutil

import (
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/pkg/errors"
	flock "github.com/theckman/go-flock"
	shutil "github.com/termie/go-shutil"
)

// lockTimeout bounds how long WriteManifest waits for the advisory lock
// before giving up; a held lock past this almost certainly means a wedged
// prior invocation, not ordinary contention.
const lockTimeout = 30 * time.Second

// WriteManifest atomically replaces path's contents with lines, one per
// line, newline-terminated. The write is lock-then-write-temp-then-rename:
// the rename is atomic on POSIX filesystems, so a reader never observes a
// partially written manifest.
func WriteManifest(path string, lines []string) error {
	lock := flock.NewFlock(path + ".lock")
	locked, err := tryLockWithTimeout(lock, lockTimeout)
	if err != nil {
		return errors.Wrapf(err, "locking %s", path)
	}
	if !locked {
		return errors.Errorf("timed out waiting for lock on %s", path)
	}
	defer lock.Unlock()

	dir := filepath.Dir(path)
	tmp, err := ioutil.TempFile(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.Wrapf(err, "creating temp file in %s", dir)
	}
	tmpPath := tmp.Name()

	for _, l := range lines {
		if _, err := tmp.WriteString(l + "\n"); err != nil {
			tmp.Close()
			os.Remove(tmpPath)
			return errors.Wrap(err, "writing temp manifest")
		}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.Wrap(err, "closing temp manifest")
	}

	if err := renameWithFallback(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return errors.Wrapf(err, "renaming temp manifest into place at %s", path)
	}
	return nil
}

func tryLockWithTimeout(l *flock.Flock, timeout time.Duration) (bool, error) {
	deadline := time.Now().Add(timeout)
	for {
		ok, err := l.TryLock()
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
		if time.Now().After(deadline) {
			return false, nil
		}
		time.Sleep(50 * time.Millisecond)
	}
}

// SnapshotFile copies src aside to dst, replacing any prior snapshot. Used
// for the per-pass baseline snapshot taken at pass entry and deleted at
// pass exit.
func SnapshotFile(src, dst string) error {
	if err := os.RemoveAll(dst); err != nil {
		return errors.Wrapf(err, "clearing prior snapshot at %s", dst)
	}
	if _, err := shutil.Copy(src, dst, false); err != nil {
		return errors.Wrapf(err, "snapshotting %s to %s", src, dst)
	}
	return nil
}

// IsRegular is true if name is a regular file. Adapted from golang-dep's
// fs.go helper of the same name.
func IsRegular(name string) (bool, error) {
	fi, err := os.Stat(name)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if fi.IsDir() {
		return false, errors.Errorf("%q is a directory, should be a file", name)
	}
	return true, nil
}

// renameWithFallback attempts to rename a file, falling back to a copy in
// the event of a cross-device link error, the same fallback golang-dep's
// fs.go applies for directories.
func renameWithFallback(src, dest string) error {
	fi, err := os.Lstat(src)
	if err != nil {
		return err
	}

	if runtime.GOOS == "windows" && fi.IsDir() {
		return errors.New("renameWithFallback: directories are not supported on windows")
	}

	err = os.Rename(src, dest)
	if err == nil {
		return nil
	}

	terr, ok := err.(*os.LinkError)
	if !ok {
		return err
	}

	if terr.Err == syscall.EXDEV {
		if err := copyFile(src, dest); err != nil {
			return err
		}
		return os.Remove(src)
	}

	return terr
}

func copyFile(src, dest string) error {
	srcfile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcfile.Close()

	destfile, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer destfile.Close()

	if _, err := io.Copy(destfile, srcfile); err != nil {
		return err
	}
	return destfile.Close()
}
