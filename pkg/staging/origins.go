package staging

import (
	"fmt"
	"net/http"
)

// A ContentOrigin describes where the content for a staged item comes from. It's a closed set of
// variants: [FileOrigin] for an existing file on the host filesystem, [BufferOrigin] for an
// in-memory byte buffer, and [DownloadOrigin] for a file to download over HTTP. Origins are only
// ever used as arguments; they're never persisted.
type ContentOrigin interface {
	fmt.Stringer
	isContentOrigin()
}

// FileOrigin stages content by copying an existing file from the host filesystem.
type FileOrigin struct {
	// SourcePath is the path of the file to copy into the store, using the host OS's path
	// separators.
	SourcePath string
}

func (o FileOrigin) isContentOrigin() {}

func (o FileOrigin) String() string {
	return fmt.Sprintf("file %s", o.SourcePath)
}

// BufferOrigin stages content by writing an in-memory byte buffer verbatim.
type BufferOrigin struct {
	// Bytes is the content to write.
	Bytes []byte
}

func (o BufferOrigin) isContentOrigin() {}

func (o BufferOrigin) String() string {
	return fmt.Sprintf("buffer of %d bytes", len(o.Bytes))
}

// DownloadOrigin stages content by downloading it over HTTP. The download lands in the store as a
// local file; the store never manages the remote source afterwards.
type DownloadOrigin struct {
	// URL is the URL of the file to download into the store.
	URL string
	// HTTPClient, if set, overrides [http.DefaultClient] for the download.
	HTTPClient *http.Client
}

func (o DownloadOrigin) isContentOrigin() {}

func (o DownloadOrigin) String() string {
	return fmt.Sprintf("download %s", o.URL)
}
