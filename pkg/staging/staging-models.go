// Package staging provides a file-backed store of named content items, used as a temporary
// holding area for package contents before they're uploaded.
package staging

import (
	ffs "github.com/dockhand-run/dockhand/pkg/fs"
)

// Content Store

const (
	SessionManifestFile     = "dockhand-session.yml"
	SessionManifestSwapFile = "dockhand-session-swap.yml"
)

// FSContentStore is a store of named content items rooted at a single path, with each item stored
// as a file at the item's name within a [ffs.PathedFS] filesystem. The root path is fixed when the
// store is loaded and never changes afterwards.
type FSContentStore struct {
	// Manifest is the manifest of the packaging session which the store belongs to.
	Manifest SessionManifest
	// FS is the filesystem which corresponds to the store of staged content.
	FS ffs.PathedFS
}

// Config configures the construction of a content store.
type Config struct {
	// StorePath is the path of the directory which will hold staged content items. It's required.
	StorePath string `yaml:"store-path"`
}

// A SessionManifest holds the state of the packaging session which a content store belongs to.
// Content items themselves are not tracked here; the files under the store's root directory are
// the only record of staged content.
type SessionManifest struct {
	// DockhandVersion indicates that the session manifest was written assuming the semantics of a
	// given version of Dockhand. The version must be a valid Dockhand version, and it sets the
	// minimum version of Dockhand required to use the content store. The Dockhand tool refuses to
	// use content stores declaring newer Dockhand versions for any operations beyond printing
	// information.
	DockhandVersion string `yaml:"dockhand-version"`
	// Session keeps track of the state of the packaging session.
	Session SessionSpec `yaml:"session"`
}

// SessionSpec describes the state of a packaging session.
type SessionSpec struct {
	// Uploaded records whether the session's staged content has been handed off for upload. Staging
	// more content resets it.
	Uploaded bool `yaml:"uploaded,omitempty"`
	// Labels is a list of aliases for staged content items, as a mapping from each alias to the
	// name of a content item.
	Labels map[string]string `yaml:"labels,omitempty"`
}
