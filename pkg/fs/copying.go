package fs

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// CopyFile copies the file at sourcePath to destPath, overwriting any file which already exists
// at destPath. If destPerms is zero, the source file's permissions are preserved.
// Both paths must use the host OS's path separators.
func CopyFile(sourcePath, destPath string, destPerms fs.FileMode) error {
	sourceFile, err := os.Open(sourcePath)
	if err != nil {
		return errors.Wrapf(err, "couldn't open source file %s for copying", sourcePath)
	}
	defer func() {
		// FIXME: handle this error more rigorously
		if err := sourceFile.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: couldn't close source file %s\n", sourcePath)
		}
	}()
	sourceInfo, err := sourceFile.Stat()
	if err != nil {
		return errors.Wrapf(err, "couldn't stat source file %s for copying", sourcePath)
	}
	if sourceInfo.IsDir() {
		return errors.Errorf("source %s is a directory, not a file", sourcePath)
	}

	if destPerms == 0 {
		destPerms = sourceInfo.Mode().Perm()
	}
	destFile, err := os.OpenFile(destPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, destPerms)
	if err != nil {
		return errors.Wrapf(err, "couldn't open dest file %s for copying", destPath)
	}
	defer func() {
		// FIXME: handle this error more rigorously
		if err := destFile.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: couldn't close dest file %s\n", destPath)
		}
	}()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return errors.Wrapf(err, "couldn't copy %s to %s", sourcePath, destPath)
	}
	return nil
}

// ResolvePath makes the provided path absolute and resolves any symlinks along it, so that two
// paths referring to the same file resolve to the same string. Path components which don't exist
// on the filesystem are left unresolved.
func ResolvePath(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", errors.Wrapf(err, "couldn't make path %s absolute", p)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err == nil {
		return resolved, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return abs, nil
	}
	return "", errors.Wrapf(err, "couldn't resolve symlinks in path %s", abs)
}
