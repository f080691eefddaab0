package cli

import (
	"context"
	"fmt"
	"os"
	"slices"
	"unicode/utf8"

	units "github.com/docker/go-units"
	"github.com/h2non/filetype"
	ftt "github.com/h2non/filetype/types"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/dockhand-run/dockhand/internal/app/dockhand"
	clients "github.com/dockhand-run/dockhand/internal/clients/cli"
	"github.com/dockhand-run/dockhand/pkg/staging"
	"github.com/dockhand-run/dockhand/pkg/versioning"
)

// GetContentStore loads the content store at the explicitly-specified path, if one was provided;
// otherwise it loads the store kept under the workspace at wpath. Either way, the store is
// initialized with the specified session version if it doesn't exist yet.
func GetContentStore(
	wpath, storePath, newSessionVersion string,
) (*staging.FSContentStore, error) {
	if storePath != "" {
		return staging.NewFSContentStore(
			staging.Config{StorePath: storePath}, newSessionVersion,
		)
	}

	workspace, err := dockhand.LoadWorkspace(wpath)
	if err != nil {
		return nil, errors.Wrap(
			err, "couldn't load workspace to load the content store, since no explicit path was "+
				"provided for the content store",
		)
	}
	return workspace.GetContentStore(newSessionVersion)
}

// CheckStoreCompat returns an error upon any version compatibility errors between the content
// store's session manifest and - unless the ignoreTool flag is set - the Dockhand tool.
func CheckStoreCompat(
	store *staging.FSContentStore, toolVersion, minStoreVersion string, ignoreTool bool,
) error {
	if ignoreTool {
		fmt.Printf(
			"Warning: ignoring the tool's version (%s) for version compatibility checking!\n",
			toolVersion,
		)
	}
	return versioning.CheckCompatibility(
		store.Manifest.DockhandVersion, toolVersion, minStoreVersion, store.Path(), ignoreTool,
	)
}

// Staging

// A ContentAddition pairs the name a content item should be staged under with the origin its
// content should come from.
type ContentAddition struct {
	Name   string
	Origin staging.ContentOrigin
}

// AddContents stages all of the specified additions into the store, optionally in parallel.
// Additions must have distinct names; with parallel staging there'd be no way to tell which of
// two same-name additions wins.
func AddContents(
	ctx context.Context, indent int, store *staging.FSContentStore,
	additions []ContentAddition, parallel bool,
) error {
	seen := make(map[string]struct{}, len(additions))
	for _, addition := range additions {
		if _, ok := seen[addition.Name]; ok {
			return errors.Errorf("multiple additions target content name %s", addition.Name)
		}
		seen[addition.Name] = struct{}{}
	}

	if parallel {
		return addContentsParallel(ctx, indent, store, additions)
	}
	return addContentsSerial(ctx, indent, store, additions)
}

func addContentsSerial(
	ctx context.Context, indent int, store *staging.FSContentStore, additions []ContentAddition,
) error {
	for _, addition := range additions {
		IndentedPrintf(indent, "Staging %s from %s...\n", addition.Name, addition.Origin)
		if err := store.AddContent(ctx, addition.Name, addition.Origin); err != nil {
			return errors.Wrapf(err, "couldn't stage content %s", addition.Name)
		}
	}
	return nil
}

func addContentsParallel(
	ctx context.Context, indent int, store *staging.FSContentStore, additions []ContentAddition,
) error {
	eg, egctx := errgroup.WithContext(ctx)
	for _, addition := range additions {
		eg.Go(func() error {
			IndentedPrintf(indent, "Staging %s from %s...\n", addition.Name, addition.Origin)
			if err := store.AddContent(egctx, addition.Name, addition.Origin); err != nil {
				return errors.Wrapf(err, "couldn't stage content %s", addition.Name)
			}
			return nil
		})
	}
	return eg.Wait()
}

// Printing

// PrintStoreSummary describes the state of the content store and its packaging session.
func PrintStoreSummary(indent int, store *staging.FSContentStore) error {
	IndentedPrintf(indent, "Content store %s:\n", store.Path())
	indent++

	IndentedPrintf(indent, "Dockhand version: %s\n", store.Manifest.DockhandVersion)
	IndentedPrint(indent, "Uploaded: ")
	if store.Uploaded() {
		fmt.Println("yes")
	} else {
		fmt.Println("no")
	}

	IndentedPrint(indent, "Labels:")
	if len(store.Manifest.Session.Labels) == 0 {
		fmt.Println(" (none)")
	} else {
		fmt.Println()
		labels := make([]string, 0, len(store.Manifest.Session.Labels))
		for label := range store.Manifest.Session.Labels {
			labels = append(labels, label)
		}
		slices.Sort(labels)
		for _, label := range labels {
			BulletedPrintf(indent+1, "%s: %s\n", label, store.Manifest.Session.Labels[label])
		}
	}

	IndentedPrintln(indent, "Staged content:")
	return PrintContentList(indent+1, store, "")
}

// PrintContentList prints the staged content files matching the provided glob pattern (all of
// them, for an empty pattern), with human-readable sizes.
func PrintContentList(indent int, store *staging.FSContentStore, pattern string) error {
	names, err := store.SearchContents(pattern)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		IndentedPrintln(indent, "(none)")
		return nil
	}
	slices.Sort(names)
	for _, name := range names {
		info, err := store.StatContent(name)
		if err != nil {
			return err
		}
		BulletedPrintf(indent, "%s (%s)\n", name, units.HumanSize(float64(info.Size())))
	}
	return nil
}

// PrintContentInfo describes the staged content item with the specified name.
func PrintContentInfo(indent int, store *staging.FSContentStore, name string) error {
	info, err := store.StatContent(name)
	if err != nil {
		return err
	}
	IndentedPrintf(indent, "Staged content %s:\n", name)
	indent++
	IndentedPrintf(indent, "Location: %s\n", store.GetContentPath(name))
	IndentedPrintf(indent, "Size: %s\n", units.HumanSize(float64(info.Size())))
	IndentedPrintf(indent, "Modified: %s\n", info.ModTime().Local())

	kind, bytes, err := sniffContentType(store, name)
	if err != nil {
		return err
	}
	switch {
	case kind != filetype.Unknown:
		IndentedPrintf(indent, "Type: %s (.%s)\n", kind.MIME.Value, kind.Extension)
	case isText(bytes):
		IndentedPrintln(indent, "Type: text")
	default:
		IndentedPrintln(indent, "Type: unrecognized binary data")
	}
	return nil
}

// PrintContentPreview prints the staged content item with the specified name, indented under the
// current output. Content which sniffs as a binary format is summarized rather than dumped to the
// terminal.
func PrintContentPreview(indent int, store *staging.FSContentStore, name string) error {
	kind, bytes, err := sniffContentType(store, name)
	if err != nil {
		return err
	}
	if kind != filetype.Unknown || !isText(bytes) {
		IndentedPrintf(
			indent, "(binary content, %s; use `dockhand store cat --binary %s` to dump it)\n",
			units.HumanSize(float64(len(bytes))), name,
		)
		return nil
	}

	w := clients.NewIndentedWriter(indent, os.Stdout)
	if _, err := w.Write(bytes); err != nil {
		return errors.Wrapf(err, "couldn't print staged content %s", name)
	}
	if len(bytes) > 0 && bytes[len(bytes)-1] != '\n' {
		fmt.Println()
	}
	return nil
}

// DumpContent writes the staged content item's raw bytes to stdout, refusing to dump content
// which sniffs as a binary format unless the force flag is set.
func DumpContent(store *staging.FSContentStore, name string, force bool) error {
	kind, bytes, err := sniffContentType(store, name)
	if err != nil {
		return err
	}
	if !force && (kind != filetype.Unknown || !isText(bytes)) {
		return errors.Errorf(
			"staged content %s looks like binary data; pass --binary to dump it anyways", name,
		)
	}
	if _, err := os.Stdout.Write(bytes); err != nil {
		return errors.Wrapf(err, "couldn't write staged content %s to stdout", name)
	}
	return nil
}

func sniffContentType(
	store *staging.FSContentStore, name string,
) (kind ftt.Type, bytes []byte, err error) {
	bytes, err = store.ReadContentBytes(name)
	if err != nil {
		return filetype.Unknown, nil, err
	}
	kind, err = filetype.Match(bytes)
	if err != nil {
		return filetype.Unknown, bytes, errors.Wrapf(
			err, "couldn't determine file type of staged content %s", name,
		)
	}
	return kind, bytes, nil
}

func isText(bytes []byte) bool {
	return utf8.Valid(bytes)
}
