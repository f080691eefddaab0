package store

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	fcli "github.com/dockhand-run/dockhand/internal/app/dockhand/cli"
	"github.com/dockhand-run/dockhand/pkg/staging"
)

func getStore(c *cli.Context, versions Versions) (*staging.FSContentStore, error) {
	return fcli.GetContentStore(c.String("workspace"), c.String("store"), versions.NewSession)
}

// getCompatStore loads the content store and refuses to return it for modification if its session
// manifest declares an incompatible Dockhand version.
func getCompatStore(c *cli.Context, versions Versions) (*staging.FSContentStore, error) {
	store, err := getStore(c, versions)
	if err != nil {
		return nil, err
	}
	if err = fcli.CheckStoreCompat(
		store, versions.Tool, versions.MinSupportedStore, c.Bool("ignore-tool-version"),
	); err != nil {
		return nil, err
	}
	return store, nil
}

func requireContentName(c *cli.Context) (string, error) {
	name := c.Args().First()
	if name == "" {
		return "", errors.New("a content name must be specified")
	}
	return name, nil
}

// show

func showAction(versions Versions) cli.ActionFunc {
	return func(c *cli.Context) error {
		store, err := getStore(c, versions)
		if err != nil {
			return err
		}
		return fcli.PrintStoreSummary(0, store)
	}
}

// ls

func lsAction(versions Versions) cli.ActionFunc {
	return func(c *cli.Context) error {
		store, err := getStore(c, versions)
		if err != nil {
			return err
		}
		names, err := store.ListContents()
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	}
}

// search

func searchAction(versions Versions) cli.ActionFunc {
	return func(c *cli.Context) error {
		store, err := getStore(c, versions)
		if err != nil {
			return err
		}
		return fcli.PrintContentList(0, store, c.Args().First())
	}
}

// stat

func statAction(versions Versions) cli.ActionFunc {
	return func(c *cli.Context) error {
		store, err := getStore(c, versions)
		if err != nil {
			return err
		}
		name, err := requireContentName(c)
		if err != nil {
			return err
		}
		return fcli.PrintContentInfo(0, store, name)
	}
}

// preview

func previewAction(versions Versions) cli.ActionFunc {
	return func(c *cli.Context) error {
		store, err := getStore(c, versions)
		if err != nil {
			return err
		}
		name, err := requireContentName(c)
		if err != nil {
			return err
		}
		if _, err = store.StatContent(name); err != nil {
			return err
		}
		fcli.IndentedPrintf(0, "Staged content %s:\n", name)
		return fcli.PrintContentPreview(1, store, name)
	}
}

// cat

func catAction(versions Versions) cli.ActionFunc {
	return func(c *cli.Context) error {
		store, err := getStore(c, versions)
		if err != nil {
			return err
		}
		name, err := requireContentName(c)
		if err != nil {
			return err
		}
		return fcli.DumpContent(store, name, c.Bool("binary"))
	}
}

// locate

func locateAction(versions Versions) cli.ActionFunc {
	return func(c *cli.Context) error {
		store, err := getStore(c, versions)
		if err != nil {
			return err
		}
		name, err := requireContentName(c)
		if err != nil {
			return err
		}
		if _, err = store.StatContent(name); err != nil {
			return err
		}
		fmt.Println(filepath.FromSlash(store.GetContentPath(name)))
		return nil
	}
}

// ls-labels

func lsLabelsAction(versions Versions) cli.ActionFunc {
	return func(c *cli.Context) error {
		store, err := getStore(c, versions)
		if err != nil {
			return err
		}
		return fcli.IndentedPrintYaml(0, store.Manifest.Session.Labels)
	}
}

// add

func addAction(versions Versions) cli.ActionFunc {
	return func(c *cli.Context) error {
		store, err := getCompatStore(c, versions)
		if err != nil {
			return err
		}
		sources := c.Args().Slice()
		if len(sources) == 0 {
			return errors.New("at least one source file must be specified")
		}
		if c.String("as") != "" && len(sources) > 1 {
			return errors.New("--as can only be used when staging a single source file")
		}

		additions := make([]fcli.ContentAddition, 0, len(sources))
		for _, source := range sources {
			name := c.String("as")
			if name == "" {
				name = path.Base(filepath.ToSlash(source))
			}
			additions = append(additions, fcli.ContentAddition{
				Name:   name,
				Origin: staging.FileOrigin{SourcePath: source},
			})
		}
		if err = fcli.AddContents(c.Context, 0, store, additions, c.Bool("parallel")); err != nil {
			return err
		}
		if err = store.CommitState(); err != nil {
			return errors.Wrap(err, "couldn't commit updated packaging session state")
		}
		fmt.Println("Done!")
		return nil
	}
}

// put

func putAction(versions Versions) cli.ActionFunc {
	return func(c *cli.Context) error {
		store, err := getCompatStore(c, versions)
		if err != nil {
			return err
		}
		name, err := requireContentName(c)
		if err != nil {
			return err
		}
		buffer, err := io.ReadAll(os.Stdin)
		if err != nil {
			return errors.Wrap(err, "couldn't read content from stdin")
		}

		if err = fcli.AddContents(c.Context, 0, store, []fcli.ContentAddition{{
			Name:   name,
			Origin: staging.BufferOrigin{Bytes: buffer},
		}}, false); err != nil {
			return err
		}
		if err = store.CommitState(); err != nil {
			return errors.Wrap(err, "couldn't commit updated packaging session state")
		}
		fmt.Println("Done!")
		return nil
	}
}

// fetch

func fetchAction(versions Versions) cli.ActionFunc {
	return func(c *cli.Context) error {
		store, err := getCompatStore(c, versions)
		if err != nil {
			return err
		}
		url := c.Args().First()
		if url == "" {
			return errors.New("a url must be specified")
		}
		name := c.Args().Get(1)
		if name == "" {
			return errors.New("a content name must be specified")
		}

		if err = fcli.AddContents(c.Context, 0, store, []fcli.ContentAddition{{
			Name:   name,
			Origin: staging.DownloadOrigin{URL: url},
		}}, false); err != nil {
			return err
		}
		if err = store.CommitState(); err != nil {
			return errors.Wrap(err, "couldn't commit updated packaging session state")
		}
		fmt.Println("Done!")
		return nil
	}
}

// rm

func rmAction(versions Versions) cli.ActionFunc {
	return func(c *cli.Context) error {
		store, err := getCompatStore(c, versions)
		if err != nil {
			return err
		}
		name, err := requireContentName(c)
		if err != nil {
			return err
		}
		return store.RemoveContent(name)
	}
}

// set-label

func setLabelAction(versions Versions) cli.ActionFunc {
	return func(c *cli.Context) error {
		store, err := getCompatStore(c, versions)
		if err != nil {
			return err
		}
		label := c.Args().First()
		if label == "" {
			return errors.New("a label must be specified")
		}
		name := c.Args().Get(1)
		if name == "" {
			return errors.New("a content name must be specified")
		}
		if _, err = store.StatContent(name); err != nil {
			return errors.Wrapf(err, "couldn't label content %s, which isn't staged", name)
		}

		store.SetLabel(label, name)
		fmt.Println("Committing update to the session manifest...")
		if err = store.CommitState(); err != nil {
			return errors.Wrap(err, "couldn't commit updated packaging session state")
		}
		return nil
	}
}

// rm-label

func rmLabelAction(versions Versions) cli.ActionFunc {
	return func(c *cli.Context) error {
		store, err := getCompatStore(c, versions)
		if err != nil {
			return err
		}
		label := c.Args().First()
		if label == "" {
			return errors.New("a label must be specified")
		}

		store.RemoveLabel(label)
		fmt.Println("Committing update to the session manifest...")
		if err = store.CommitState(); err != nil {
			return errors.Wrap(err, "couldn't commit updated packaging session state")
		}
		return nil
	}
}

// prune

func pruneAction(versions Versions) cli.ActionFunc {
	return func(c *cli.Context) error {
		store, err := getCompatStore(c, versions)
		if err != nil {
			return err
		}

		removed, err := store.PruneContents()
		if err != nil {
			return err
		}
		if len(removed) == 0 {
			fmt.Println("No unlabeled content to prune!")
			return nil
		}
		for _, name := range removed {
			fmt.Printf("Removed %s\n", name)
		}
		fmt.Println("Done!")
		return nil
	}
}

// mark-uploaded

func markUploadedAction(versions Versions) cli.ActionFunc {
	return func(c *cli.Context) error {
		store, err := getCompatStore(c, versions)
		if err != nil {
			return err
		}

		store.RecordUpload()
		fmt.Println("Committing upload record to the session manifest...")
		if err = store.CommitState(); err != nil {
			return errors.Wrap(err, "couldn't commit updated packaging session state")
		}
		fmt.Println("Done!")
		return nil
	}
}

// save

func saveAction(versions Versions) cli.ActionFunc {
	return func(c *cli.Context) error {
		store, err := getStore(c, versions)
		if err != nil {
			return err
		}
		if err = store.Save(); err != nil {
			return err
		}
		fmt.Println("Done! All staged content is already persisted to disk.")
		return nil
	}
}
