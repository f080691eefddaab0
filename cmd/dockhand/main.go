package main

import (
	"log"
	"os"
	"runtime/debug"

	"github.com/carlmjohnson/versioninfo"
	"github.com/urfave/cli/v2"

	"github.com/dockhand-run/dockhand/cmd/dockhand/store"
)

func main() {
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

var defaultWorkspaceBase, _ = os.UserHomeDir()

var app = &cli.App{
	Name:    "dockhand",
	Version: toolVersion,
	Usage:   "Stages package contents in a local store before they're packaged & uploaded",
	Commands: []*cli.Command{
		store.MakeCmd(store.Versions{
			Tool:              toolVersion,
			MinSupportedStore: storeMinVersion,
			NewSession:        newSessionVersion,
		}),
	},
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "workspace",
			Aliases: []string{"ws"},
			Value:   defaultWorkspaceBase,
			Usage:   "Path of the dockhand workspace",
			EnvVars: []string{"DOCKHAND_WORKSPACE"},
		},
		&cli.StringFlag{
			Name:    "store",
			Usage:   "Path of the content store, overriding the workspace's default store",
			EnvVars: []string{"DOCKHAND_STORE"},
		},
		&cli.BoolFlag{
			Name:    "ignore-tool-version",
			Value:   false,
			Usage:   "Ignore the version of the dockhand tool in version compatibility checks",
			EnvVars: []string{"DOCKHAND_IGNORE_TOOL_VERSION"},
		},
	},
	Suggest: true,
}

// Versioning

const (
	// storeMinVersion is the minimum supported Dockhand version among content stores. A store
	// whose session manifest declares a lower Dockhand version cannot be used.
	storeMinVersion = "v0.1.0"
	// newSessionVersion is the Dockhand version reported in a session manifest initialized by
	// Dockhand. Older versions of the Dockhand tool cannot use such stores.
	newSessionVersion = "v0.2.0-dev"
	// fallbackVersion is the version which the Dockhand tool reports itself as if its actual
	// version is unknown.
	fallbackVersion = "v0.2.0-dev"
)

var (
	toolVersion = determineVersion(buildSummary, fallbackVersion)
	// buildSummary should be overridden by ldflags, such as with GoReleaser's "Summary".
	buildSummary = ""
)

// determineVersion returns either a semver, a pseudoversion, or a Git hash based on information
// available from Go's `debug.ReadBuildInfo()`.
func determineVersion(override, fallback string) string {
	if override != "" {
		return override
	}

	const dirtySuffix = "-dirty"
	// Determine any version tags, if available
	if info, ok := debug.ReadBuildInfo(); ok &&
		info.Main.Version != "" && info.Main.Version != "(devel)" {
		v := info.Main.Version
		if versioninfo.DirtyBuild {
			v += dirtySuffix
		}
		return v
	}
	if v := versioninfo.Version; v != "unknown" && v != "(devel)" {
		if versioninfo.DirtyBuild {
			v += dirtySuffix
		}
		return v
	}

	// Fall back to whatever is available
	if r := versioninfo.Revision; r != "unknown" && r != "" {
		if versioninfo.DirtyBuild {
			r += dirtySuffix
		}
		return r
	}
	return fallback
}
