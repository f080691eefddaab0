package fs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCopyFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	sourcePath := filepath.Join(dir, "source.txt")
	content := []byte("copy me")
	if err := os.WriteFile(sourcePath, content, 0o600); err != nil {
		t.Fatalf("couldn't make source file: %s", err)
	}

	destPath := filepath.Join(dir, "dest.txt")
	if err := CopyFile(sourcePath, destPath, 0); err != nil {
		t.Fatalf("couldn't copy %s to %s: %s", sourcePath, destPath, err)
	}

	copied, err := os.ReadFile(destPath)
	if err != nil {
		t.Fatalf("couldn't read copied file: %s", err)
	}
	if diff := cmp.Diff(content, copied); diff != "" {
		t.Errorf("copied content differs (-want +got):\n%s", diff)
	}
	info, err := os.Stat(destPath)
	if err != nil {
		t.Fatalf("couldn't stat copied file: %s", err)
	}
	if got, want := info.Mode().Perm(), os.FileMode(0o600); got != want {
		t.Errorf("got copied permissions %v, want %v", got, want)
	}
}

func TestCopyFileRejectsDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := CopyFile(dir, filepath.Join(dir, "dest"), 0); err == nil {
		t.Errorf("expected an error copying a directory as a file")
	}
}

func TestResolvePath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	filePath := filepath.Join(dir, "file.txt")
	if err := os.WriteFile(filePath, []byte("x"), 0o644); err != nil {
		t.Fatalf("couldn't make file: %s", err)
	}

	indirect := filepath.Join(dir, "sub", "..", "file.txt")
	resolvedIndirect, err := ResolvePath(indirect)
	if err != nil {
		t.Fatalf("couldn't resolve %s: %s", indirect, err)
	}
	resolvedDirect, err := ResolvePath(filePath)
	if err != nil {
		t.Fatalf("couldn't resolve %s: %s", filePath, err)
	}
	if resolvedIndirect != resolvedDirect {
		t.Errorf(
			"paths for the same file resolved differently: %s vs %s",
			resolvedIndirect, resolvedDirect,
		)
	}

	// Nonexistent paths still resolve, to support resolving a destination before it's created.
	missing := filepath.Join(dir, "missing", "file.txt")
	if _, err := ResolvePath(missing); err != nil {
		t.Errorf("couldn't resolve nonexistent path %s: %s", missing, err)
	}
}
