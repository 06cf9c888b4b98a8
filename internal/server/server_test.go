package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"evalgallery/internal/api"
	"evalgallery/internal/blobstore"
	"evalgallery/internal/gallery"
	"evalgallery/internal/models"
	"evalgallery/internal/store"
)

var photos = models.Scope{OfficeID: 1, MissionID: 2, BienID: 3, Gallery: models.GalleryPhotos}

type testEnv struct {
	attachments *gallery.AttachmentStore
	client      *api.Client
	httpServer  *httptest.Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	meta, err := store.Open(filepath.Join(t.TempDir(), "gallery.db"))
	require.NoError(t, err)
	t.Cleanup(func() { meta.Close() })

	attachments, err := gallery.NewAttachmentStore(meta, blobstore.NewMemory(), gallery.Options{
		Paths: gallery.ServletPaths{Prefix: gallery.DefaultServletPrefix},
	})
	require.NoError(t, err)

	srv := New("127.0.0.1:0", attachments, gallery.DefaultServletPrefix, nil)
	httpServer := httptest.NewServer(srv.Handler())
	t.Cleanup(httpServer.Close)

	return &testEnv{attachments: attachments, client: api.NewClient(httpServer.URL), httpServer: httpServer}
}

func (e *testEnv) create(t *testing.T, scope models.Scope, label string, column, row int, formats ...models.Format) models.Attachment {
	t.Helper()
	if len(formats) == 0 {
		formats = []models.Format{models.FormatFullsize}
	}
	files := make(map[models.Format]gallery.Source, len(formats))
	for _, f := range formats {
		files[f] = gallery.FromBytes([]byte(label + " " + string(f)))
	}
	grid, err := e.attachments.Create(context.Background(), files, scope, label, column, row)
	require.NoError(t, err)
	a, ok := grid.At(column, row)
	require.True(t, ok)
	return a
}

func scopeOf(scope models.Scope) api.ScopeResponse {
	return toScopeResponse(scope)
}

func requireAPIError(t *testing.T, err error, status, errorCode int) {
	t.Helper()
	var apiErr *api.APIError
	require.True(t, errors.As(err, &apiErr), "expected api error, got %v", err)
	require.Equal(t, status, apiErr.Status)
	require.Equal(t, errorCode, apiErr.ErrorCode)
}

func TestListenAddrRemoteGuard(t *testing.T) {
	t.Run("allows loopback", func(t *testing.T) {
		t.Setenv(allowRemoteEnvKey, "")
		addr, err := ListenAddr("http://127.0.0.1:7444")
		if err != nil {
			t.Fatalf("expected loopback to be allowed, got error: %v", err)
		}
		if addr != "127.0.0.1:7444" {
			t.Fatalf("unexpected addr: %s", addr)
		}
	})

	t.Run("blocks non-loopback by default", func(t *testing.T) {
		t.Setenv(allowRemoteEnvKey, "")
		_, err := ListenAddr("http://0.0.0.0:7444")
		if err == nil {
			t.Fatal("expected error for non-loopback listen host")
		}
	})

	t.Run("allows non-loopback when explicitly enabled", func(t *testing.T) {
		t.Setenv(allowRemoteEnvKey, "true")
		addr, err := ListenAddr("http://0.0.0.0:7444")
		if err != nil {
			t.Fatalf("expected allow-remote to permit host, got error: %v", err)
		}
		if addr != "0.0.0.0:7444" {
			t.Fatalf("unexpected addr: %s", addr)
		}
	})
}

func TestNormalizePrefix(t *testing.T) {
	require.Equal(t, gallery.DefaultServletPrefix, normalizePrefix(""))
	require.Equal(t, "/files", normalizePrefix("files/"))
	require.Equal(t, "/a/b", normalizePrefix(" /a/b/ "))
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.client.Ping(context.Background()))
}

func TestGetGrid(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.create(t, photos, "facade", 0, 0, models.FormatFullsize, models.FormatThumbnail)
	env.create(t, photos, "garden", 1, 0)
	env.create(t, models.Scope{OfficeID: 1, MissionID: 2, BienID: 4, Gallery: models.GalleryPhotos}, "other bien", 0, 0)

	grid, err := env.client.GetGrid(ctx, scopeOf(photos))
	require.NoError(t, err)
	require.Equal(t, 2, grid.Count)
	require.Equal(t, "facade", grid.Attachments[0].Label)
	require.Equal(t, "garden", grid.Attachments[1].Label)

	first := grid.Attachments[0]
	require.Equal(t, a.ID, first.ID)
	require.Equal(t, []string{"FULLSIZE", "THUMBNAIL"}, first.Formats)
	require.Equal(t, "/servlet/attachments/1/2/3/photos/"+a.ID+"/thumbnail", first.Paths["THUMBNAIL"])

	empty, err := env.client.GetGrid(ctx, scopeOf(models.Scope{OfficeID: 9, Gallery: models.GalleryPlans}))
	require.NoError(t, err)
	require.Equal(t, 0, empty.Count)
	require.Empty(t, empty.Attachments)
}

func TestRenameAttachment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.create(t, photos, "facade", 0, 0)

	renamed, err := env.client.RenameAttachment(ctx, a.ID, "front facade")
	require.NoError(t, err)
	require.Equal(t, "front facade", renamed.Label)

	got, err := env.client.GetAttachment(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, "front facade", got.Label)

	_, err = env.client.RenameAttachment(ctx, a.ID, "   ")
	requireAPIError(t, err, http.StatusBadRequest, gallery.CodeInvalidLabel)
}

func TestMoveAttachment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.create(t, photos, "A", 0, 0)
	env.create(t, photos, "B", 1, 0)

	grid, err := env.client.MoveAttachment(ctx, a.ID, 2, 3)
	require.NoError(t, err)
	require.Equal(t, 2, grid.Count)
	moved := grid.Attachments[1]
	require.Equal(t, a.ID, moved.ID)
	require.Equal(t, 2, moved.Column)
	require.Equal(t, 3, moved.Row)

	_, err = env.client.MoveAttachment(ctx, a.ID, -1, 0)
	requireAPIError(t, err, http.StatusBadRequest, gallery.CodeInvalidPosition)
}

func TestMoveRequiresColumnAndRow(t *testing.T) {
	env := newTestEnv(t)
	a := env.create(t, photos, "A", 0, 0)

	resp, err := http.Post(env.httpServer.URL+"/v1/attachments/"+a.ID+"/move", "application/json", strings.NewReader(`{"column":1}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDeleteAttachment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.create(t, photos, "A", 0, 0)
	b := env.create(t, photos, "B", 1, 0)

	grid, err := env.client.DeleteAttachment(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, 1, grid.Count)
	require.Equal(t, b.ID, grid.Attachments[0].ID)

	_, err = env.client.GetAttachment(ctx, a.ID)
	requireAPIError(t, err, http.StatusNotFound, gallery.CodeAttachmentNotFound)
	require.True(t, api.IsNotFound(err))
}

func TestCompactGrid(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.create(t, photos, "A", 0, 0)
	env.create(t, photos, "B", 3, 0)
	env.create(t, photos, "C", 0, 4)

	grid, err := env.client.CompactGrid(ctx, scopeOf(photos), 2)
	require.NoError(t, err)
	require.Equal(t, 3, grid.Count)
	got := []string{}
	for _, a := range grid.Attachments {
		got = append(got, a.Label)
	}
	require.Equal(t, []string{"A", "B", "C"}, got)
	require.Equal(t, 1, grid.Attachments[1].Column)
	require.Equal(t, 0, grid.Attachments[1].Row)
	require.Equal(t, 0, grid.Attachments[2].Column)
	require.Equal(t, 1, grid.Attachments[2].Row)

	_, err = env.client.CompactGrid(ctx, scopeOf(photos), 0)
	requireAPIError(t, err, http.StatusBadRequest, gallery.CodeInvalidColumns)
}

func TestCoverLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.create(t, photos, "facade", 0, 0)

	cover, err := env.client.GetCover(ctx, scopeOf(photos))
	require.NoError(t, err)
	require.False(t, cover.Set)
	require.Equal(t, "bien", cover.Granularity)

	cover, err = env.client.SetCover(ctx, scopeOf(photos), a.ID)
	require.NoError(t, err)
	require.True(t, cover.Set)
	require.Equal(t, a.ID, cover.Attachment.ID)

	// Per-bien covers are shared by every gallery of the bien.
	plans := photos
	plans.Gallery = models.GalleryPlans
	cover, err = env.client.GetCover(ctx, scopeOf(plans))
	require.NoError(t, err)
	require.True(t, cover.Set)

	cover, err = env.client.ClearCover(ctx, scopeOf(photos))
	require.NoError(t, err)
	require.False(t, cover.Set)
	require.Nil(t, cover.Attachment)
}

func TestSetCoverOutsideScope(t *testing.T) {
	env := newTestEnv(t)
	other := photos
	other.BienID = 99
	a := env.create(t, other, "elsewhere", 0, 0)

	_, err := env.client.SetCover(context.Background(), scopeOf(photos), a.ID)
	requireAPIError(t, err, http.StatusBadRequest, gallery.CodeCoverScope)
}

func TestCoverClearedWhenAttachmentDeleted(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.create(t, photos, "facade", 0, 0)

	_, err := env.client.SetCover(ctx, scopeOf(photos), a.ID)
	require.NoError(t, err)
	_, err = env.client.DeleteAttachment(ctx, a.ID)
	require.NoError(t, err)

	cover, err := env.client.GetCover(ctx, scopeOf(photos))
	require.NoError(t, err)
	require.False(t, cover.Set)
}

func TestContentStreaming(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.create(t, photos, "facade", 0, 0, models.FormatFullsize, models.FormatPreview)

	paths, err := env.client.AttachmentPaths(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, paths.Paths, 2)

	body, err := env.client.OpenContent(ctx, paths.Paths["PREVIEW"])
	require.NoError(t, err)
	defer body.Close()
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	require.Equal(t, "facade PREVIEW", string(data))

	resp, err := http.Get(env.httpServer.URL + paths.Paths["FULLSIZE"])
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/plain; charset=utf-8", resp.Header.Get("Content-Type"))
	require.Equal(t, "15", resp.Header.Get("Content-Length"))
	require.NotEmpty(t, resp.Header.Get("ETag"))
}

func TestContentNotFound(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.create(t, photos, "facade", 0, 0)

	_, err := env.client.OpenContent(ctx, "/servlet/attachments/1/2/3/photos/"+a.ID+"/thumbnail")
	requireAPIError(t, err, http.StatusNotFound, gallery.CodeFormatNotFound)

	_, err = env.client.OpenContent(ctx, "/servlet/attachments/1/2/99/photos/"+a.ID+"/fullsize")
	requireAPIError(t, err, http.StatusNotFound, ErrCodeAttachmentNotFound)

	_, err = env.client.OpenContent(ctx, "/servlet/attachments/1/2/3/photos/"+a.ID+"/original")
	requireAPIError(t, err, http.StatusBadRequest, gallery.CodeInvalidFormat)
}

func TestContentServedAfterMove(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.create(t, photos, "facade", 0, 0)

	_, err := env.attachments.Move(ctx, a, 3, 1)
	require.NoError(t, err)

	body, err := env.client.OpenContent(ctx, "/servlet/attachments/1/2/3/photos/"+a.ID+"/fullsize")
	require.NoError(t, err)
	defer body.Close()
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	require.Equal(t, "facade FULLSIZE", string(data))
}

func TestRetryStaleReloadsMovedAttachment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.create(t, photos, "A", 0, 0)
	env.create(t, photos, "B", 1, 0)

	// The handler loaded a before another writer moved it.
	_, err := env.attachments.Move(ctx, a, 2, 2)
	require.NoError(t, err)

	srv := New("127.0.0.1:0", env.attachments, gallery.DefaultServletPrefix, nil)
	req := httptest.NewRequest(http.MethodDelete, "/v1/attachments/"+a.ID, nil)
	calls := 0
	err = srv.retryStale(req, a, func(current models.Attachment) error {
		calls++
		_, err := env.attachments.Delete(ctx, current)
		return err
	})
	require.NoError(t, err)
	require.Equal(t, 2, calls)

	grid, err := env.attachments.Find(ctx, photos)
	require.NoError(t, err)
	require.Equal(t, 1, grid.Count())
}

func TestRequestValidationErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	t.Run("unknown gallery", func(t *testing.T) {
		_, err := env.client.GetGrid(ctx, api.ScopeResponse{OfficeID: 1, Gallery: "videos"})
		requireAPIError(t, err, http.StatusBadRequest, gallery.CodeInvalidGallery)
	})

	t.Run("non numeric scope id", func(t *testing.T) {
		resp, err := http.Get(env.httpServer.URL + "/v1/offices/x/missions/2/biens/3/galleries/photos")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("negative scope id", func(t *testing.T) {
		_, err := env.client.GetGrid(ctx, api.ScopeResponse{OfficeID: -1, Gallery: "PHOTOS"})
		requireAPIError(t, err, http.StatusBadRequest, gallery.CodeInvalidScope)
	})

	t.Run("malformed attachment id", func(t *testing.T) {
		_, err := env.client.GetAttachment(ctx, "nope")
		requireAPIError(t, err, http.StatusBadRequest, ErrCodeInvalidID)
	})

	t.Run("unknown attachment id", func(t *testing.T) {
		_, err := env.client.GetAttachment(ctx, "at-00000000")
		requireAPIError(t, err, http.StatusNotFound, gallery.CodeAttachmentNotFound)
	})

	t.Run("unknown json field", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPost, env.httpServer.URL+galleryPathFor(photos)+"/compact", strings.NewReader(`{"columns":2,"extra":true}`))
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestContentLimiterRejectsWhenFull(t *testing.T) {
	env := newTestEnv(t)
	srv := New("", env.attachments, "", nil)
	for i := 0; i < contentConcurrencyLimit; i++ {
		srv.contentLimiter <- struct{}{}
	}
	a := env.create(t, photos, "facade", 0, 0)

	req := httptest.NewRequest(http.MethodGet, "/servlet/attachments/1/2/3/photos/"+a.ID+"/fullsize", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
}

func galleryPathFor(scope models.Scope) string {
	return "/v1/offices/1/missions/2/biens/3/galleries/" + strings.ToLower(string(scope.Gallery))
}

func TestRequestScopeAttrs(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/servlet/attachments/1/2/3/photos/at-abcd1234/preview", nil)
	req.SetPathValue("office", "1")
	req.SetPathValue("gallery", "photos")
	req.SetPathValue("id", "at-abcd1234")

	require.Equal(t, []any{"office", "1", "gallery", "photos", "attachment_id", "at-abcd1234"}, requestScopeAttrs(req))
	require.Empty(t, requestScopeAttrs(httptest.NewRequest(http.MethodGet, "/health", nil)))
}
