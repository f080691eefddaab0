// Package fs provides a layer over [io/fs] for filesystems which know their own locations in the
// host OS's filesystem.
package fs

import (
	"io/fs"
)

// Pather is something with a path.
type Pather interface {
	// Path returns the path of the instance.
	Path() string
}

// A PathedFS provides access to a hierarchical file system locatable at some path.
type PathedFS interface {
	fs.FS
	Pather
	// Sub returns a PathedFS corresponding to the subtree rooted at dir.
	Sub(dir string) (PathedFS, error)
}

// ReadLinkFS is the interface implemented by a file system that supports symbolic links.
// This is a stopgap until https://github.com/golang/go/issues/49580 is implemented.
type ReadLinkFS interface {
	PathedFS

	// ReadLink returns the destination of the named symbolic link.
	ReadLink(name string) (string, error)

	// StatLink returns a [fs.FileInfo] describing the file without following any symbolic links.
	// If there is an error, it should be of type [*fs.PathError].
	StatLink(name string) (fs.FileInfo, error)
}
