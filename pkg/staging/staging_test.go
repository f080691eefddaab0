package staging

import (
	"context"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/pkg/errors"
)

const testSessionVersion = "v0.1.0"

func newTestStore(t *testing.T) *FSContentStore {
	t.Helper()
	store, err := NewFSContentStore(
		Config{StorePath: filepath.Join(t.TempDir(), "staging")}, testSessionVersion,
	)
	if err != nil {
		t.Fatalf("couldn't make a content store for testing: %s", err)
	}
	return store
}

func TestNewFSContentStoreWithoutPath(t *testing.T) {
	t.Parallel()

	if _, err := NewFSContentStore(Config{}, testSessionVersion); err == nil {
		t.Errorf("expected an error from a config without a store path")
	}
}

func TestNewFSContentStoreInitializesManifest(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	if got, want := store.Manifest.DockhandVersion, testSessionVersion; got != want {
		t.Errorf("got session version %s, want %s", got, want)
	}
	if !store.Exists() {
		t.Errorf("store at %s doesn't exist on the filesystem", store.Path())
	}

	// Reloading the same directory must not reinitialize the manifest.
	store.RecordUpload()
	if err := store.CommitState(); err != nil {
		t.Fatalf("couldn't commit session state: %s", err)
	}
	reloaded, err := NewFSContentStore(Config{StorePath: store.Path()}, "v99.0.0")
	if err != nil {
		t.Fatalf("couldn't reload content store: %s", err)
	}
	if got, want := reloaded.Manifest.DockhandVersion, testSessionVersion; got != want {
		t.Errorf("reload reinitialized the manifest: got session version %s, want %s", got, want)
	}
	if !reloaded.Uploaded() {
		t.Errorf("reload dropped the committed uploaded flag")
	}
}

var checkBufferRoundTripTests = map[string]struct {
	name    string
	content string
}{
	"ascii":   {name: "a.txt", content: "hello"},
	"empty":   {name: "empty.txt", content: ""},
	"unicode": {name: "unicode.txt", content: "héllo wörld → 🚢"},
	"multiline": {
		name:    "conf/settings.xml",
		content: "<settings>\n  <option name=\"a\" value=\"1\"/>\n</settings>\n",
	},
}

func TestBufferRoundTrip(t *testing.T) {
	t.Parallel()
	for name, test := range checkBufferRoundTripTests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			store := newTestStore(t)
			ctx := context.Background()
			if dir := filepath.Dir(test.name); dir != "." {
				// Buffer staging assumes the parent directory already exists.
				if err := os.MkdirAll(filepath.Join(
					filepath.FromSlash(store.Path()), dir,
				), 0o755); err != nil {
					t.Fatalf("couldn't make parent directory for %s: %s", test.name, err)
				}
			}

			if err := store.AddContent(
				ctx, test.name, BufferOrigin{Bytes: []byte(test.content)},
			); err != nil {
				t.Fatalf("couldn't stage buffer as %s: %s", test.name, err)
			}
			got, err := store.ReadContent(test.name)
			if err != nil {
				t.Fatalf("couldn't read staged content %s: %s", test.name, err)
			}
			if want := test.content; got != want {
				t.Errorf("round trip changed content: got %q, want %q", got, want)
			}
		})
	}
}

func TestAddContentFromFile(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	sourceContent := []byte("file origin content")
	sourcePath := filepath.Join(t.TempDir(), "source.txt")
	if err := os.WriteFile(sourcePath, sourceContent, 0o644); err != nil {
		t.Fatalf("couldn't make source file: %s", err)
	}

	// A nested name must get its parent directories created by the copy.
	const name = "package/docs/readme.txt"
	if err := store.AddContent(ctx, name, FileOrigin{SourcePath: sourcePath}); err != nil {
		t.Fatalf("couldn't stage file as %s: %s", name, err)
	}

	got, err := store.ReadContentBytes(name)
	if err != nil {
		t.Fatalf("couldn't read staged content %s: %s", name, err)
	}
	if diff := cmp.Diff(sourceContent, got); diff != "" {
		t.Errorf("staged content differs from source (-want +got):\n%s", diff)
	}

	// The source file must be left alone.
	source, err := os.ReadFile(sourcePath)
	if err != nil {
		t.Fatalf("couldn't re-read source file: %s", err)
	}
	if diff := cmp.Diff(sourceContent, source); diff != "" {
		t.Errorf("staging changed the source file (-want +got):\n%s", diff)
	}
}

func TestAddContentSelfCopy(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	const name = "a.txt"
	const content = "already staged"
	if err := store.AddContent(ctx, name, BufferOrigin{Bytes: []byte(content)}); err != nil {
		t.Fatalf("couldn't stage buffer as %s: %s", name, err)
	}

	// Staging a file onto itself must succeed without touching the file; a naive copy would
	// truncate it.
	if err := store.AddContent(ctx, name, FileOrigin{
		SourcePath: filepath.FromSlash(store.GetContentPath(name)),
	}); err != nil {
		t.Errorf("self-copy of %s failed: %s", name, err)
	}
	got, err := store.ReadContent(name)
	if err != nil {
		t.Fatalf("couldn't read staged content %s: %s", name, err)
	}
	if got != content {
		t.Errorf("self-copy changed content: got %q, want %q", got, content)
	}
}

func TestAddContentFromDownload(t *testing.T) {
	t.Parallel()

	const remoteContent = "downloaded content"
	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/artifact.bin" {
				http.NotFound(w, r)
				return
			}
			_, _ = w.Write([]byte(remoteContent))
		},
	))
	defer server.Close()

	store := newTestStore(t)
	ctx := context.Background()
	const name = "artifact.bin"
	if err := store.AddContent(ctx, name, DownloadOrigin{
		URL:        server.URL + "/artifact.bin",
		HTTPClient: server.Client(),
	}); err != nil {
		t.Fatalf("couldn't stage download as %s: %s", name, err)
	}
	got, err := store.ReadContent(name)
	if err != nil {
		t.Fatalf("couldn't read staged content %s: %s", name, err)
	}
	if got != remoteContent {
		t.Errorf("got downloaded content %q, want %q", got, remoteContent)
	}

	// A failed download must not leave a content item behind, not even its temporary download
	// file.
	if err := store.AddContent(ctx, "missing.bin", DownloadOrigin{
		URL:        server.URL + "/missing.bin",
		HTTPClient: server.Client(),
	}); err == nil {
		t.Errorf("expected an error staging a download which doesn't exist")
	}
	if _, err := store.StatContent("missing.bin"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("failed download left content behind (stat error: %v)", err)
	}
	names, err := store.ListContents()
	if err != nil {
		t.Fatalf("couldn't list staged content: %s", err)
	}
	if diff := cmp.Diff([]string{name}, names); diff != "" {
		t.Errorf("failed download polluted the listing (-want +got):\n%s", diff)
	}
}

func TestStatContent(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	const name = "a.txt"
	const content = "hello"
	if err := store.AddContent(ctx, name, BufferOrigin{Bytes: []byte(content)}); err != nil {
		t.Fatalf("couldn't stage buffer as %s: %s", name, err)
	}

	info, err := store.StatContent(name)
	if err != nil {
		t.Fatalf("couldn't stat staged content %s: %s", name, err)
	}
	if got, want := info.Size(), int64(len(content)); got != want {
		t.Errorf("got size %d, want %d", got, want)
	}
	if info.IsDir() {
		t.Errorf("staged content %s was reported as a directory", name)
	}

	if _, err := store.StatContent("never-written.txt"); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("stat of a never-written name returned %v, want a not-found error", err)
	}
}

var checkInvalidContentNames = []string{
	"",
	".",
	"/abs.txt",
	"../escape.txt",
	"a/../../escape.txt",
	SessionManifestFile,
	SessionManifestSwapFile,
}

func TestAddContentRejectsInvalidNames(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	for _, name := range checkInvalidContentNames {
		if err := store.AddContent(ctx, name, BufferOrigin{Bytes: []byte("x")}); err == nil {
			t.Errorf("expected an error staging content with name %q", name)
		}
	}
}

func TestListContents(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	staged := []string{"a.txt", "b.txt", "c.bin"}
	for _, name := range staged {
		if err := store.AddContent(ctx, name, BufferOrigin{Bytes: []byte(name)}); err != nil {
			t.Fatalf("couldn't stage buffer as %s: %s", name, err)
		}
	}
	// The session manifest lives in the same directory but is not a content item.
	if err := store.CommitState(); err != nil {
		t.Fatalf("couldn't commit session state: %s", err)
	}

	names, err := store.ListContents()
	if err != nil {
		t.Fatalf("couldn't list staged content: %s", err)
	}
	if diff := cmp.Diff(
		staged, names, cmpopts.SortSlices(func(a, b string) bool { return a < b }),
	); diff != "" {
		t.Errorf("listing doesn't match staged names (-want +got):\n%s", diff)
	}
}

func TestSearchContents(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	if err := store.AddContent(ctx, "a.txt", BufferOrigin{Bytes: []byte("a")}); err != nil {
		t.Fatalf("couldn't stage a.txt: %s", err)
	}
	sourcePath := filepath.Join(t.TempDir(), "nested.txt")
	if err := os.WriteFile(sourcePath, []byte("n"), 0o644); err != nil {
		t.Fatalf("couldn't make source file: %s", err)
	}
	if err := store.AddContent(
		ctx, "docs/nested.txt", FileOrigin{SourcePath: sourcePath},
	); err != nil {
		t.Fatalf("couldn't stage docs/nested.txt: %s", err)
	}

	all, err := store.SearchContents("")
	if err != nil {
		t.Fatalf("couldn't search staged content: %s", err)
	}
	if diff := cmp.Diff(
		[]string{"a.txt", "docs/nested.txt"}, all,
		cmpopts.SortSlices(func(a, b string) bool { return a < b }),
	); diff != "" {
		t.Errorf("search results don't match staged files (-want +got):\n%s", diff)
	}

	nested, err := store.SearchContents("docs")
	if err != nil {
		t.Fatalf("couldn't search staged content under docs: %s", err)
	}
	if diff := cmp.Diff([]string{"docs/nested.txt"}, nested); diff != "" {
		t.Errorf("search results for docs don't match (-want +got):\n%s", diff)
	}
}

func TestReadContentRejectsBinary(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	const name = "blob.bin"
	blob := []byte{0xff, 0xfe, 0x00, 0x80, 0x81}
	if err := store.AddContent(ctx, name, BufferOrigin{Bytes: blob}); err != nil {
		t.Fatalf("couldn't stage buffer as %s: %s", name, err)
	}

	if _, err := store.ReadContent(name); err == nil {
		t.Errorf("expected a decode error reading %s as text", name)
	}
	got, err := store.ReadContentBytes(name)
	if err != nil {
		t.Fatalf("couldn't read raw bytes of %s: %s", name, err)
	}
	if diff := cmp.Diff(blob, got); diff != "" {
		t.Errorf("raw bytes differ (-want +got):\n%s", diff)
	}
}

func TestRemoveContent(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	const name = "a.txt"
	if err := store.AddContent(ctx, name, BufferOrigin{Bytes: []byte("x")}); err != nil {
		t.Fatalf("couldn't stage buffer as %s: %s", name, err)
	}
	if err := store.RemoveContent(name); err != nil {
		t.Fatalf("couldn't remove staged content %s: %s", name, err)
	}
	if _, err := store.StatContent(name); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("removed content %s still stats as %v", name, err)
	}
	if err := store.RemoveContent(name); err == nil {
		t.Errorf("expected an error removing already-removed content %s", name)
	}
}

func TestPruneContents(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	for _, name := range []string{"keep.txt", "stale.txt", "also-stale.bin"} {
		if err := store.AddContent(ctx, name, BufferOrigin{Bytes: []byte(name)}); err != nil {
			t.Fatalf("couldn't stage buffer as %s: %s", name, err)
		}
	}
	store.SetLabel("release", "keep.txt")

	removed, err := store.PruneContents()
	if err != nil {
		t.Fatalf("couldn't prune staged content: %s", err)
	}
	if diff := cmp.Diff(
		[]string{"also-stale.bin", "stale.txt"}, removed,
		cmpopts.SortSlices(func(a, b string) bool { return a < b }),
	); diff != "" {
		t.Errorf("pruned names don't match unlabeled content (-want +got):\n%s", diff)
	}

	names, err := store.ListContents()
	if err != nil {
		t.Fatalf("couldn't list staged content: %s", err)
	}
	if diff := cmp.Diff([]string{"keep.txt"}, names); diff != "" {
		t.Errorf("pruning didn't leave only labeled content (-want +got):\n%s", diff)
	}
}

func TestCommitStateSwapCollision(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	swapPath := filepath.Join(filepath.FromSlash(store.Path()), SessionManifestSwapFile)
	if err := os.WriteFile(swapPath, []byte("leftover"), 0o644); err != nil {
		t.Fatalf("couldn't make swap file: %s", err)
	}
	if err := store.CommitState(); err == nil {
		t.Errorf("expected an error committing while a swap file already exists")
	}

	// Once the stale swap file is cleared, commits work again and label updates survive a reload.
	if err := os.Remove(swapPath); err != nil {
		t.Fatalf("couldn't remove swap file: %s", err)
	}
	store.SetLabel("release", "a.txt")
	if err := store.CommitState(); err != nil {
		t.Fatalf("couldn't commit session state: %s", err)
	}
	reloaded, err := NewFSContentStore(Config{StorePath: store.Path()}, testSessionVersion)
	if err != nil {
		t.Fatalf("couldn't reload content store: %s", err)
	}
	if name, ok := reloaded.GetLabeled("release"); !ok || name != "a.txt" {
		t.Errorf("reloaded labeled content is (%s, %t), want (a.txt, true)", name, ok)
	}
}

func TestSessionLabels(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	store.SetLabel("manifest", "conf/settings.xml")
	if name, ok := store.GetLabeled("manifest"); !ok || name != "conf/settings.xml" {
		t.Errorf("got labeled content (%s, %t), want (conf/settings.xml, true)", name, ok)
	}
	store.SetLabel("manifest", "other.xml")
	if name, _ := store.GetLabeled("manifest"); name != "other.xml" {
		t.Errorf("reassigned label points at %s, want other.xml", name)
	}
	store.RemoveLabel("manifest")
	if _, ok := store.GetLabeled("manifest"); ok {
		t.Errorf("removed label is still assigned")
	}
}

func TestUploadedResetOnStaging(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	store.RecordUpload()
	if !store.Uploaded() {
		t.Fatalf("recording an upload didn't mark the session as uploaded")
	}
	if err := store.AddContent(ctx, "late.txt", BufferOrigin{Bytes: []byte("x")}); err != nil {
		t.Fatalf("couldn't stage buffer: %s", err)
	}
	if store.Uploaded() {
		t.Errorf("staging content didn't reset the uploaded flag")
	}
}

// TestStagingWorkflow covers a whole staging session end-to-end: stage a buffer, read it back,
// and enumerate the store.
func TestStagingWorkflow(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	if err := store.AddContent(ctx, "a.txt", BufferOrigin{Bytes: []byte("hello")}); err != nil {
		t.Fatalf("couldn't stage a.txt: %s", err)
	}
	content, err := store.ReadContent("a.txt")
	if err != nil {
		t.Fatalf("couldn't read a.txt: %s", err)
	}
	if content != "hello" {
		t.Errorf("got content %q, want %q", content, "hello")
	}
	names, err := store.ListContents()
	if err != nil {
		t.Fatalf("couldn't list staged content: %s", err)
	}
	if diff := cmp.Diff([]string{"a.txt"}, names); diff != "" {
		t.Errorf("listing doesn't match (-want +got):\n%s", diff)
	}
	if err := store.Save(); err != nil {
		t.Errorf("save of an always-persisted store failed: %s", err)
	}
}
