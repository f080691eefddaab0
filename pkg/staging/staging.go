package staging

import (
	"context"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"

	ffs "github.com/dockhand-run/dockhand/pkg/fs"
)

// FSContentStore

// EnsureFSContentStore initializes an FSContentStore at the specified directory path in the
// provided base filesystem, if a content store is not already initialized there.
func EnsureFSContentStore(fsys ffs.PathedFS, subdirPath, newSessionVersion string) error {
	storePath := path.Join(fsys.Path(), subdirPath)
	if err := ffs.EnsureExists(filepath.FromSlash(storePath)); err != nil {
		return errors.Wrapf(
			err, "couldn't ensure the existence of the content store at %s", storePath,
		)
	}
	if _, err := fs.Stat(
		fsys, path.Join(subdirPath, SessionManifestFile),
	); errors.Is(err, fs.ErrNotExist) {
		manifest := SessionManifest{
			DockhandVersion: newSessionVersion,
		}
		manifestPath := path.Join(storePath, SessionManifestFile)
		if err = manifest.Write(manifestPath); err != nil {
			return errors.Wrapf(err, "couldn't initialize session manifest file at %s", manifestPath)
		}
	}
	return nil
}

// LoadFSContentStore loads an FSContentStore from the specified directory path in the provided
// base filesystem.
func LoadFSContentStore(fsys ffs.PathedFS, subdirPath string) (s *FSContentStore, err error) {
	s = &FSContentStore{}
	if s.FS, err = fsys.Sub(subdirPath); err != nil {
		return nil, errors.Wrapf(
			err, "couldn't enter directory %s from fs at %s", subdirPath, fsys.Path(),
		)
	}
	if s.Manifest, err = loadSessionManifest(s.FS, SessionManifestFile); err != nil {
		return nil, errors.Wrap(err, "couldn't load packaging session state")
	}
	return s, nil
}

// NewFSContentStore initializes (if needed) and loads an FSContentStore at the directory named by
// the provided config. It returns an error before touching the filesystem if the config doesn't
// specify a store path.
func NewFSContentStore(config Config, newSessionVersion string) (*FSContentStore, error) {
	if config.StorePath == "" {
		return nil, errors.New("content store config doesn't specify a store path")
	}
	storePath, err := filepath.Abs(filepath.FromSlash(config.StorePath))
	if err != nil {
		return nil, errors.Wrapf(err, "couldn't resolve store path %s", config.StorePath)
	}
	fsys := ffs.DirFS(filepath.Dir(storePath))
	subdirPath := filepath.Base(storePath)
	if err = EnsureFSContentStore(fsys, subdirPath, newSessionVersion); err != nil {
		return nil, err
	}
	return LoadFSContentStore(fsys, subdirPath)
}

// Exists checks whether the store actually exists on the OS's filesystem.
func (s *FSContentStore) Exists() bool {
	return ffs.DirExists(filepath.FromSlash(s.FS.Path()))
}

// Remove deletes the store from the OS's filesystem, if it exists.
func (s *FSContentStore) Remove() error {
	return os.RemoveAll(filepath.FromSlash(s.FS.Path()))
}

// Path returns the path of the store's filesystem.
func (s *FSContentStore) Path() string {
	return s.FS.Path()
}

// GetContentPath returns the full filesystem path of the content item with the specified name,
// whether or not an item actually exists on the filesystem with that name.
func (s *FSContentStore) GetContentPath(name string) string {
	return path.Join(s.FS.Path(), name)
}

// checkContentName returns an error if the provided name can't be used as the name of a content
// item, i.e. if it's not a valid slash-separated relative path or if it's reserved for the
// session manifest.
func checkContentName(name string) error {
	if !fs.ValidPath(name) || name == "." {
		return errors.Errorf("invalid content name %s", name)
	}
	if name == SessionManifestFile || name == SessionManifestSwapFile {
		return errors.Errorf("content name %s is reserved for the session manifest", name)
	}
	return nil
}

// StatContent describes the content item with the specified name. It fails with an error
// satisfying `errors.Is(err, fs.ErrNotExist)` if no item has been staged with that name.
func (s *FSContentStore) StatContent(name string) (fs.FileInfo, error) {
	if err := checkContentName(name); err != nil {
		return nil, err
	}
	info, err := fs.Stat(s.FS, name)
	if err != nil {
		return nil, errors.Wrapf(err, "couldn't stat staged content %s/%s", s.FS.Path(), name)
	}
	return info, nil
}

// ReadContentBytes returns the raw bytes of the content item with the specified name.
func (s *FSContentStore) ReadContentBytes(name string) ([]byte, error) {
	if err := checkContentName(name); err != nil {
		return nil, err
	}
	bytes, err := fs.ReadFile(s.FS, name)
	if err != nil {
		return nil, errors.Wrapf(err, "couldn't read staged content %s/%s", s.FS.Path(), name)
	}
	return bytes, nil
}

// ReadContent returns the content item with the specified name, decoded as UTF-8 text. It fails
// on items whose bytes aren't valid UTF-8; such items can still be read with
// [FSContentStore.ReadContentBytes].
func (s *FSContentStore) ReadContent(name string) (string, error) {
	bytes, err := s.ReadContentBytes(name)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(bytes) {
		return "", errors.Errorf(
			"staged content %s/%s isn't valid UTF-8 text", s.FS.Path(), name,
		)
	}
	return string(bytes), nil
}

// ListContents returns the names of the immediate entries under the store's root directory,
// excluding the session manifest. The order of names is whatever the underlying filesystem
// reports; callers shouldn't rely on it.
func (s *FSContentStore) ListContents() (names []string, err error) {
	dirEntries, err := fs.ReadDir(s.FS, ".")
	if err != nil {
		return nil, errors.Wrapf(err, "couldn't list staged content in %s", s.FS.Path())
	}
	names = make([]string, 0, len(dirEntries))
	for _, dirEntry := range dirEntries {
		name := dirEntry.Name()
		if name == SessionManifestFile || name == SessionManifestSwapFile {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

// SearchContents returns the names of all content files in the store's subtree matching the
// provided glob pattern (which may include `**` wildcards). An empty pattern matches everything.
func (s *FSContentStore) SearchContents(pattern string) ([]string, error) {
	if pattern == "" {
		pattern = "**"
	}

	paths, err := doublestar.Glob(s.FS, pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, errors.Wrapf(
			err, "couldn't list content files matching pattern %s in %s", pattern, s.FS.Path(),
		)
	}

	if len(paths) == 0 {
		if pattern != "**" {
			pattern = path.Join(pattern, "**")
		}
		subPaths, err := doublestar.Glob(s.FS, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return paths, errors.Wrapf(
				err, "couldn't list content files matching pattern %s in %s", pattern, s.FS.Path(),
			)
		}
		paths = append(paths, subPaths...)
	}

	names := make([]string, 0, len(paths))
	for _, p := range paths {
		if p == SessionManifestFile || p == SessionManifestSwapFile {
			continue
		}
		names = append(names, p)
	}
	return names, nil
}

// AddContent stages a content item with the specified name, from the specified origin. Any
// filesystem errors propagate to the caller unchanged in cause; nothing is retried or rolled
// back. If two calls race on the same name, the last write wins.
func (s *FSContentStore) AddContent(ctx context.Context, name string, origin ContentOrigin) error {
	if err := checkContentName(name); err != nil {
		return err
	}
	switch o := origin.(type) {
	case FileOrigin:
		if err := s.stageFile(name, o); err != nil {
			return err
		}
	case BufferOrigin:
		if err := s.stageBuffer(name, o); err != nil {
			return err
		}
	case DownloadOrigin:
		if err := s.stageDownload(ctx, name, o); err != nil {
			return err
		}
	default:
		return errors.Errorf("unknown content origin type %T", origin)
	}
	// Newly-staged content hasn't been handed off for upload yet.
	s.Manifest.Session.Uploaded = false
	return nil
}

func (s *FSContentStore) stageFile(name string, origin FileOrigin) error {
	sourcePath, err := ffs.ResolvePath(origin.SourcePath)
	if err != nil {
		return errors.Wrapf(err, "couldn't resolve source file path %s", origin.SourcePath)
	}
	destPath, err := ffs.ResolvePath(filepath.FromSlash(s.GetContentPath(name)))
	if err != nil {
		return errors.Wrapf(err, "couldn't resolve staging path for content %s", name)
	}
	if sourcePath == destPath {
		// The source is already staged in place, so copying it onto itself would truncate it.
		return nil
	}

	if err := ffs.EnsureExists(filepath.Dir(destPath)); err != nil {
		return errors.Wrapf(
			err, "couldn't ensure the existence of the parent directory for content %s", name,
		)
	}
	if err := ffs.CopyFile(sourcePath, destPath, 0); err != nil {
		return errors.Wrapf(err, "couldn't stage %s as content %s", sourcePath, name)
	}
	return nil
}

func (s *FSContentStore) stageBuffer(name string, origin BufferOrigin) error {
	const perm = 0o644 // owner rw, group r, public r
	outputPath := filepath.FromSlash(s.GetContentPath(name))
	if err := os.WriteFile(outputPath, origin.Bytes, perm); err != nil {
		return errors.Wrapf(err, "couldn't stage buffer as content %s at %s", name, outputPath)
	}
	return nil
}

func (s *FSContentStore) stageDownload(ctx context.Context, name string, origin DownloadOrigin) error {
	outputPath := filepath.FromSlash(s.GetContentPath(name))
	hc := origin.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	if err := downloadFile(ctx, origin.URL, outputPath, hc); err != nil {
		return errors.Wrapf(err, "couldn't stage download of %s as content %s", origin.URL, name)
	}
	return nil
}

// RemoveContent deletes the content item with the specified name from the store.
func (s *FSContentStore) RemoveContent(name string) error {
	if err := checkContentName(name); err != nil {
		return err
	}
	contentPath := filepath.FromSlash(s.GetContentPath(name))
	if err := os.Remove(contentPath); err != nil {
		return errors.Wrapf(err, "couldn't remove staged content %s", contentPath)
	}
	return nil
}

// PruneContents deletes every staged content file which no label points at, returning the names of
// the deleted files. An empty label set prunes everything.
func (s *FSContentStore) PruneContents() (removed []string, err error) {
	names, err := s.SearchContents("")
	if err != nil {
		return nil, errors.Wrapf(err, "couldn't enumerate staged content in %s for pruning", s.FS.Path())
	}
	labeled := make(map[string]struct{}, len(s.Manifest.Session.Labels))
	for _, name := range s.Manifest.Session.Labels {
		labeled[name] = struct{}{}
	}
	for _, name := range names {
		if _, ok := labeled[name]; ok {
			continue
		}
		if err = s.RemoveContent(name); err != nil {
			return removed, err
		}
		removed = append(removed, name)
	}
	return removed, nil
}

// Save marks the completion of a batch of staging operations. Every write to the store is already
// persisted synchronously to disk, so there's nothing to flush; the store is always "saved".
func (s *FSContentStore) Save() error {
	return nil
}
