package dockhand

import (
	ffs "github.com/dockhand-run/dockhand/pkg/fs"
)

// FSWorkspace is the user directory which Dockhand keeps its staging store under.
type FSWorkspace struct {
	FS ffs.PathedFS
}

const (
	// dataDirPath is the path of the Dockhand data directory under the workspace, organized with
	// the same structure as the default structure described by the
	// [XDG base directory spec](https://specifications.freedesktop.org/basedir-spec/basedir-spec-latest.html).
	dataDirPath        = ".local/share/dockhand"
	dataStagingDirName = "staging"
)
