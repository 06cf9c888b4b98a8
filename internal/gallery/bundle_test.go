package gallery

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evalgallery/internal/blobstore"
	"evalgallery/internal/models"
)

func TestFormatBundlePutGetRemoveAll(t *testing.T) {
	mem := blobstore.NewMemory()
	bundle := NewFormatBundle(mem, nil)
	ctx := context.Background()

	variants, err := bundle.Put(ctx, photos, "at-bundle01", files(models.FormatThumbnail, models.FormatFullsize))
	require.NoError(t, err)
	require.Len(t, variants, 2)
	assert.Equal(t, models.FormatFullsize, variants[0].Format)
	assert.Equal(t, "1/2/3/photos/at-bundle01/fullsize", variants[0].BlobKey)
	assert.Equal(t, int64(len("content of FULLSIZE")), variants[0].SizeBytes)

	content, err := bundle.Get(ctx, photos, "at-bundle01", models.FormatThumbnail)
	require.NoError(t, err)
	data, err := io.ReadAll(content)
	require.NoError(t, err)
	require.NoError(t, content.Close())
	assert.Equal(t, "content of THUMBNAIL", string(data))

	_, err = bundle.Get(ctx, photos, "at-bundle01", models.FormatPreview)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, bundle.RemoveAll(ctx, photos, "at-bundle01"))
	assert.Empty(t, mem.Keys())
	require.NoError(t, bundle.RemoveAll(ctx, photos, "at-bundle01"))
}

func TestFormatBundlePutRefusesStoredFormat(t *testing.T) {
	mem := blobstore.NewMemory()
	bundle := NewFormatBundle(mem, nil)
	ctx := context.Background()

	_, err := bundle.Put(ctx, photos, "at-bundle02", files(models.FormatFullsize))
	require.NoError(t, err)

	_, err = bundle.Put(ctx, photos, "at-bundle02", files(models.FormatFullsize, models.FormatPreview))
	require.ErrorIs(t, err, ErrAttachmentPersistence)
	assert.Equal(t, CodeFormatAlreadyStored, CodeOf(err))
	assert.Equal(t, []string{"1/2/3/photos/at-bundle02/fullsize"}, mem.Keys())
}

func TestFormatBundleReplaceWritesRevision(t *testing.T) {
	mem := blobstore.NewMemory()
	bundle := NewFormatBundle(mem, nil)
	ctx := context.Background()

	_, err := bundle.Put(ctx, photos, "at-bundle03", files(models.FormatFullsize))
	require.NoError(t, err)

	variant, err := bundle.Replace(ctx, photos, "at-bundle03", models.FormatFullsize, FromBytes([]byte("v2")))
	require.NoError(t, err)
	assert.Equal(t, int64(2), variant.SizeBytes)
	assert.True(t, strings.HasPrefix(variant.BlobKey, "1/2/3/photos/at-bundle03/fullsize.r"), variant.BlobKey)

	current, err := bundle.Get(ctx, photos, "at-bundle03", models.FormatFullsize)
	require.NoError(t, err)
	defer current.Close()
	data, err := io.ReadAll(current)
	require.NoError(t, err)
	assert.Equal(t, "content of FULLSIZE", string(data))

	revision, err := bundle.Open(ctx, variant)
	require.NoError(t, err)
	defer revision.Close()
	data, err = io.ReadAll(revision)
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))
	assert.Equal(t, variant.SHA256, revision.SHA256)

	require.NoError(t, bundle.RemoveAll(ctx, photos, "at-bundle03", variant.BlobKey))
	assert.Empty(t, mem.Keys())

	_, err = bundle.Replace(ctx, photos, "at-bundle03", "RAW", FromBytes(nil))
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestFormatBundleRollbackOnLocalFS(t *testing.T) {
	local, err := blobstore.NewLocalFS(t.TempDir())
	require.NoError(t, err)
	failing := &failingBlobs{BlobStore: local, failOn: 3}
	bundle := NewFormatBundle(failing, nil)
	ctx := context.Background()

	_, err = bundle.Put(ctx, photos, "at-bundle04", files(models.FormatFullsize, models.FormatPreview, models.FormatThumbnail))
	require.ErrorIs(t, err, ErrAttachmentPersistence)

	for _, f := range models.AllFormats() {
		exists, err := local.Exists(ctx, BlobKey(photos, "at-bundle04", f))
		require.NoError(t, err)
		assert.False(t, exists, "format %s left behind", f)
	}
}
