// Package versioning handles parsing and compatibility-checking of Dockhand tool versions.
package versioning

import (
	"strings"

	"github.com/blang/semver/v4"
	"github.com/pkg/errors"
	modsemver "golang.org/x/mod/semver"
)

// ParseVersion parses a `v`-prefixed semantic version string, such as a Dockhand tool version or
// the version declared by a session manifest.
func ParseVersion(v string) (semver.Version, error) {
	if !strings.HasPrefix(v, "v") {
		return semver.Version{}, errors.Errorf("invalid version `%s` doesn't start with `v`", v)
	}
	version, err := semver.Parse(strings.TrimPrefix(v, "v"))
	if err != nil {
		return semver.Version{}, errors.Errorf(
			"version `%s` couldn't be parsed as a semantic version", v,
		)
	}
	return version, nil
}

// CheckCompatibility determines whether the version of Dockhand required by a content store, as
// declared by its session manifest, is compatible with the actual version of the Dockhand tool,
// and whether the store's declared version is at least the tool's minimum supported version for
// stores. The tool version check is skipped when the ignoreTool flag is set.
func CheckCompatibility(storeVersion, toolVersion, minStoreVersion, storePath string, ignoreTool bool) error {
	if storeVersion == "" {
		return errors.Errorf(
			"content store %s doesn't declare a Dockhand version", storePath,
		)
	}

	if !ignoreTool && modsemver.Compare(toolVersion, storeVersion) < 0 {
		return errors.Errorf(
			"the tool's version is %s, but content store %s requires at least %s",
			toolVersion, storePath, storeVersion,
		)
	}
	if modsemver.Compare(storeVersion, minStoreVersion) < 0 {
		return errors.Errorf(
			"content store %s declares Dockhand version %s, but the tool requires at least %s",
			storePath, storeVersion, minStoreVersion,
		)
	}
	return nil
}
