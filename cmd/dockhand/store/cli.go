// Package store provides subcommands for working with the local content store.
package store

import (
	"slices"

	"github.com/urfave/cli/v2"
)

type Versions struct {
	Tool              string
	MinSupportedStore string
	NewSession        string
}

func MakeCmd(versions Versions) *cli.Command {
	return &cli.Command{
		Name:  "store",
		Usage: "Manages the local content store",
		Subcommands: slices.Concat(
			makeQuerySubcmds(versions),
			makeModifySubcmds(versions),
		),
	}
}

func makeQuerySubcmds(versions Versions) []*cli.Command {
	const category = "Query the store"
	return []*cli.Command{
		{
			Name:     "show",
			Category: category,
			Usage:    "Describes the state of the content store",
			Action:   showAction(versions),
		},
		{
			Name:     "ls",
			Aliases:  []string{"list-contents"},
			Category: category,
			Usage:    "Lists the names of staged content items",
			Action:   lsAction(versions),
		},
		{
			Name:      "search",
			Category:  category,
			Usage:     "Lists staged content files matching a glob pattern, with sizes",
			ArgsUsage: "[pattern]",
			Action:    searchAction(versions),
		},
		{
			Name:      "stat",
			Category:  category,
			Usage:     "Describes a staged content item",
			ArgsUsage: "content_name",
			Action:    statAction(versions),
		},
		{
			Name:      "preview",
			Category:  category,
			Usage:     "Prints a staged content item, indented, summarizing binary content",
			ArgsUsage: "content_name",
			Action:    previewAction(versions),
		},
		{
			Name:      "cat",
			Category:  category,
			Usage:     "Writes a staged content item's raw bytes to stdout",
			ArgsUsage: "content_name",
			Action:    catAction(versions),
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "binary",
					Usage: "dump content even if it looks like binary data",
				},
			},
		},
		{
			Name:      "locate",
			Category:  category,
			Usage:     "Prints the absolute filesystem path of a staged content item",
			ArgsUsage: "content_name",
			Action:    locateAction(versions),
		},
		{
			Name:     "ls-labels",
			Aliases:  []string{"list-labels"},
			Category: category,
			Usage:    "Lists all labels assigned to staged content items",
			Action:   lsLabelsAction(versions),
		},
	}
}

func makeModifySubcmds(versions Versions) []*cli.Command {
	const category = "Modify the store"
	return []*cli.Command{
		{
			Name:      "add",
			Category:  category,
			Usage:     "Stages files from the host filesystem as content items",
			ArgsUsage: "source_file...",
			Action:    addAction(versions),
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "as",
					Usage: "stage a single source file under this content name",
				},
				&cli.BoolFlag{
					Name:  "parallel",
					Usage: "parallelize staging of source files",
				},
			},
		},
		{
			Name:      "put",
			Category:  category,
			Usage:     "Stages content read from stdin under the specified name",
			ArgsUsage: "content_name",
			Action:    putAction(versions),
		},
		{
			Name:      "fetch",
			Category:  category,
			Usage:     "Downloads a file over HTTP and stages it under the specified name",
			ArgsUsage: "url content_name",
			Action:    fetchAction(versions),
		},
		{
			Name:      "rm",
			Aliases:   []string{"remove-content"},
			Category:  category,
			Usage:     "Removes a staged content item from the store",
			ArgsUsage: "content_name",
			Action:    rmAction(versions),
		},
		{
			Name:      "set-label",
			Category:  category,
			Usage:     "Assigns a label to a staged content item; an already-assigned label is reassigned",
			ArgsUsage: "label content_name",
			Action:    setLabelAction(versions),
		},
		{
			Name:      "rm-label",
			Aliases:   []string{"remove-label"},
			Category:  category,
			Usage:     "Unsets a label",
			ArgsUsage: "label",
			Action:    rmLabelAction(versions),
		},
		{
			Name:     "mark-uploaded",
			Category: category,
			Usage:    "Records that the session's staged content has been handed off for upload",
			Action:   markUploadedAction(versions),
		},
		{
			Name:     "prune",
			Category: category,
			Usage:    "Deletes staged content not referenced by any label",
			Action:   pruneAction(versions),
		},
		{
			Name:     "save",
			Category: category,
			Usage:    "Confirms that all staged content is persisted to disk",
			Action:   saveAction(versions),
		},
	}
}
