package gallery

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"evalgallery/internal/blobstore"
	"evalgallery/internal/models"
	"evalgallery/internal/store"
)

var photos = models.Scope{OfficeID: 1, MissionID: 2, BienID: 3, Gallery: models.GalleryPhotos}

type fixture struct {
	attachments *AttachmentStore
	meta        *store.Store
	blobs       *blobstore.Memory
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWith(t, nil, nil, Options{})
}

// newFixtureWith builds an AttachmentStore over a temp SQLite database and an
// in-memory blob store. wrapBlobs and wrapMeta may decorate the backends.
func newFixtureWith(t *testing.T, wrapBlobs func(blobstore.BlobStore) blobstore.BlobStore, wrapMeta func(store.GalleryStore) store.GalleryStore, opts Options) *fixture {
	t.Helper()
	meta, err := store.Open(filepath.Join(t.TempDir(), "gallery.db"))
	require.NoError(t, err)
	t.Cleanup(func() { meta.Close() })

	mem := blobstore.NewMemory()
	var blobs blobstore.BlobStore = mem
	if wrapBlobs != nil {
		blobs = wrapBlobs(mem)
	}
	var gs store.GalleryStore = meta
	if wrapMeta != nil {
		gs = wrapMeta(meta)
	}

	attachments, err := NewAttachmentStore(gs, blobs, opts)
	require.NoError(t, err)
	return &fixture{attachments: attachments, meta: meta, blobs: mem}
}

func files(formats ...models.Format) map[models.Format]Source {
	out := make(map[models.Format]Source, len(formats))
	for _, f := range formats {
		out[f] = FromBytes([]byte("content of " + string(f)))
	}
	return out
}

// create adds one attachment and returns it as found in the resulting grid.
func (f *fixture) create(t *testing.T, scope models.Scope, label string, column, row int) models.Attachment {
	t.Helper()
	grid, err := f.attachments.Create(context.Background(), files(models.FormatFullsize), scope, label, column, row)
	require.NoError(t, err)
	a, ok := grid.At(column, row)
	require.True(t, ok)
	return a
}

func labelsRowMajor(grid models.Grid) []string {
	out := []string{}
	for _, a := range grid.Entries() {
		out = append(out, a.Label)
	}
	return out
}

func requireNoSharedSlots(t *testing.T, grid models.Grid) {
	t.Helper()
	seen := map[models.Position]string{}
	for _, a := range grid.Entries() {
		if other, ok := seen[a.Position()]; ok {
			t.Fatalf("slot (%d,%d) shared by %s and %s", a.Column, a.Row, other, a.ID)
		}
		seen[a.Position()] = a.ID
	}
}

var errInjected = errors.New("injected failure")

// failingBlobs fails the nth Put (1-based) after consuming its input.
type failingBlobs struct {
	blobstore.BlobStore
	failOn int

	mu    sync.Mutex
	puts  int
	calls []string
}

func (f *failingBlobs) Put(ctx context.Context, key string, r io.Reader) (blobstore.BlobPutResult, error) {
	f.mu.Lock()
	f.puts++
	n := f.puts
	f.calls = append(f.calls, key)
	f.mu.Unlock()
	if n == f.failOn {
		_, _ = io.Copy(io.Discard, r)
		return blobstore.BlobPutResult{}, errInjected
	}
	return f.BlobStore.Put(ctx, key, r)
}

// failingMeta fails CreateAttachment, UpdatePositions and PutFormatVariant
// on demand.
type failingMeta struct {
	store.GalleryStore
	failCreate     bool
	failUpdate     bool
	failPutVariant bool
}

func (f *failingMeta) CreateAttachment(ctx context.Context, attachment *models.Attachment, variants []models.FormatVariant) error {
	if f.failCreate {
		return errInjected
	}
	return f.GalleryStore.CreateAttachment(ctx, attachment, variants)
}

func (f *failingMeta) UpdatePositions(ctx context.Context, scope models.Scope, updates []store.PositionUpdate, updatedAt time.Time) error {
	if f.failUpdate {
		return errInjected
	}
	return f.GalleryStore.UpdatePositions(ctx, scope, updates, updatedAt)
}

func (f *failingMeta) PutFormatVariant(ctx context.Context, variant models.FormatVariant, updatedAt time.Time) error {
	if f.failPutVariant {
		return errInjected
	}
	return f.GalleryStore.PutFormatVariant(ctx, variant, updatedAt)
}

func readContent(t *testing.T, content *Content) string {
	t.Helper()
	defer content.Close()
	data, err := io.ReadAll(content)
	require.NoError(t, err)
	return string(data)
}
