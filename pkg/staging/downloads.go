package staging

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"

	"github.com/pkg/errors"

	ffs "github.com/dockhand-run/dockhand/pkg/fs"
)

// downloadFile downloads the file at the provided URL to the provided output path, creating any
// missing parent directories. The download lands in a temporary file next to the output path and
// is only renamed into place once it's complete, so an interrupted download won't be mistaken for
// staged content.
func downloadFile(ctx context.Context, url, outputPath string, hc *http.Client) error {
	if err := ffs.EnsureExists(filepath.FromSlash(path.Dir(outputPath))); err != nil {
		return err
	}
	tmpPath := outputPath + ".dhdownload"
	file, err := os.Create(filepath.FromSlash(tmpPath))
	if err != nil {
		return errors.Wrapf(err, "couldn't create temporary download file at %s", tmpPath)
	}
	committed := false
	defer func() {
		if err := file.Close(); err != nil {
			// FIXME: handle this error better
			fmt.Fprintf(os.Stderr, "Error: couldn't close temporary download file %s\n", tmpPath)
		}
		if committed {
			return
		}
		// A leftover temporary file would show up as a staged content item.
		if err := os.Remove(filepath.FromSlash(tmpPath)); err != nil {
			fmt.Fprintf(os.Stderr, "Error: couldn't clean up temporary download file %s\n", tmpPath)
		}
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Wrapf(err, "couldn't make http get request for %s", url)
	}
	res, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			// FIXME: handle this error better
			fmt.Fprintf(os.Stderr, "Error: couldn't close http response for %s\n", url)
		}
	}()
	if res.StatusCode != http.StatusOK {
		return errors.Errorf("http get request for %s failed with status %s", url, res.Status)
	}

	_, err = io.Copy(file, res.Body)
	if err != nil {
		return errors.Wrapf(err, "couldn't download %s to %s", url, tmpPath)
	}

	if err = os.Rename(filepath.FromSlash(tmpPath), filepath.FromSlash(outputPath)); err != nil {
		return errors.Wrapf(
			err, "couldn't commit completed download from %s to %s", tmpPath, outputPath,
		)
	}
	committed = true
	return nil
}
