// Package dockhand provides the application logic shared by the dockhand CLI's commands.
package dockhand

import (
	"path"

	"github.com/pkg/errors"

	ffs "github.com/dockhand-run/dockhand/pkg/fs"
	"github.com/dockhand-run/dockhand/pkg/staging"
)

// FSWorkspace

// LoadWorkspace loads the workspace at the specified path.
// The workspace is usually just a home directory, e.g. $HOME.
// The provided path must use the host OS's path separators.
func LoadWorkspace(dirPath string) (*FSWorkspace, error) {
	if !ffs.DirExists(dirPath) {
		return nil, errors.Errorf("couldn't find workspace at %s", dirPath)
	}
	return &FSWorkspace{
		FS: ffs.DirFS(dirPath),
	}, nil
}

// Data

func (w *FSWorkspace) GetDataPath() string {
	return path.Join(w.FS.Path(), dataDirPath)
}

func (w *FSWorkspace) getDataFS() (ffs.PathedFS, error) {
	if err := ffs.EnsureExists(w.GetDataPath()); err != nil {
		return nil, errors.Wrapf(err, "couldn't ensure the existence of %s", w.GetDataPath())
	}

	fsys, err := w.FS.Sub(dataDirPath)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't get data directory from workspace")
	}
	return fsys, nil
}

// Data: Staging (i.e. the store of content staged to be packaged/uploaded)

func (w *FSWorkspace) GetContentStorePath() string {
	return path.Join(w.GetDataPath(), dataStagingDirName)
}

// GetContentStore loads the workspace's content store from its path, initializing a session
// manifest (which declares the specified Dockhand tool version) if one does not already exist.
func (w *FSWorkspace) GetContentStore(newSessionVersion string) (*staging.FSContentStore, error) {
	fsys, err := w.getDataFS()
	if err != nil {
		return nil, err
	}
	if err = staging.EnsureFSContentStore(fsys, dataStagingDirName, newSessionVersion); err != nil {
		return nil, err
	}
	return staging.LoadFSContentStore(fsys, dataStagingDirName)
}
