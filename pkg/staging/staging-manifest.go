package staging

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	ffs "github.com/dockhand-run/dockhand/pkg/fs"
)

// SessionManifest

// loadSessionManifest loads a SessionManifest from the specified file path in the provided base
// filesystem.
func loadSessionManifest(fsys ffs.PathedFS, filePath string) (SessionManifest, error) {
	bytes, err := fs.ReadFile(fsys, filePath)
	if err != nil {
		return SessionManifest{}, errors.Wrapf(
			err, "couldn't read session manifest file %s/%s", fsys.Path(), filePath,
		)
	}
	manifest := SessionManifest{}
	if err = yaml.Unmarshal(bytes, &manifest); err != nil {
		return SessionManifest{}, errors.Wrap(err, "couldn't parse packaging session state")
	}
	if manifest.Session.Labels == nil {
		manifest.Session.Labels = make(map[string]string)
	}
	return manifest, nil
}

func (m SessionManifest) Write(outputPath string) error {
	marshaled, err := yaml.Marshal(m)
	if err != nil {
		return errors.Wrapf(err, "couldn't marshal packaging session state")
	}
	const perm = 0o644 // owner rw, group r, public r
	if err = os.WriteFile(filepath.FromSlash(outputPath), marshaled, perm); err != nil {
		return errors.Wrapf(err, "couldn't save session manifest to %s", outputPath)
	}
	return nil
}

// Session state

// RecordUpload records that the session's staged content has been handed off for upload.
func (s *FSContentStore) RecordUpload() {
	s.Manifest.Session.Uploaded = true
}

// Uploaded returns whether the session's staged content has been handed off for upload since the
// last time content was staged.
func (s *FSContentStore) Uploaded() bool {
	return s.Manifest.Session.Uploaded
}

// SetLabel assigns the specified label to the specified content item; if the label was already
// assigned, it's reassigned.
func (s *FSContentStore) SetLabel(label, name string) {
	s.Manifest.Session.Labels[label] = name
}

// RemoveLabel unsets the specified label.
func (s *FSContentStore) RemoveLabel(label string) {
	delete(s.Manifest.Session.Labels, label)
}

// GetLabeled returns the name of the content item with the specified label. It returns not-`ok`
// if the label isn't assigned.
func (s *FSContentStore) GetLabeled(label string) (name string, ok bool) {
	name, ok = s.Manifest.Session.Labels[label]
	return name, ok
}

// CommitState atomically updates the store's session manifest file.
// Warning: on non-Unix platforms, the update is not entirely atomic!
func (s *FSContentStore) CommitState() error {
	swapPath := path.Join(s.FS.Path(), SessionManifestSwapFile)
	if ffs.FileExists(filepath.FromSlash(swapPath)) {
		return errors.Errorf(
			"session manifest swap file %s already exists, so either another operation is currently "+
				"running or the previous operation failed or was interrupted before it could finish; "+
				"please ensure that no other operations are currently running and delete the swap file "+
				"before retrying",
			swapPath,
		)
	}
	if err := s.Manifest.Write(swapPath); err != nil {
		return errors.Wrapf(err, "couldn't save packaging session state to swap file %s", swapPath)
	}
	outputPath := path.Join(s.FS.Path(), SessionManifestFile)
	// Warning: on non-Unix platforms, os.Rename is not an atomic operation! So if the program dies
	// during the os.Rename call, we could end up breaking the state of the session manifest.
	if err := os.Rename(filepath.FromSlash(swapPath), filepath.FromSlash(outputPath)); err != nil {
		return errors.Wrapf(
			err, "couldn't commit session manifest update from %s to %s", swapPath, outputPath,
		)
	}
	return nil
}
