package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"evalgallery/internal/models"
)

func TestCreateGetListDeleteAttachment_RoundTrip(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	first := createTestAttachment(t, st, "at-aaaa0001", testScope, 0, 0, models.FormatThumbnail, models.FormatFullsize)
	createTestAttachment(t, st, "at-aaaa0002", testScope, 1, 0)
	createTestAttachment(t, st, "at-aaaa0003", testScope, 0, 1)

	other := testScope
	other.Gallery = models.GalleryDocuments
	createTestAttachment(t, st, "at-bbbb0001", other, 0, 0)

	if len(first.Formats) != 2 || first.Formats[0] != models.FormatFullsize {
		t.Fatalf("expected canonical formats on create, got %v", first.Formats)
	}

	got, err := st.GetAttachment(ctx, first.ID)
	if err != nil {
		t.Fatalf("get attachment: %v", err)
	}
	if got == nil {
		t.Fatal("expected attachment")
	}
	if got.Scope != testScope || got.Label != first.Label || got.Column != 0 || got.Row != 0 {
		t.Fatalf("unexpected attachment: %+v", got)
	}
	if len(got.Formats) != 2 || got.Formats[1] != models.FormatThumbnail {
		t.Fatalf("unexpected formats: %v", got.Formats)
	}

	list, err := st.ListAttachmentsByScope(ctx, testScope)
	if err != nil {
		t.Fatalf("list attachments: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 attachments in scope, got %d", len(list))
	}
	wantOrder := []string{"at-aaaa0001", "at-aaaa0002", "at-aaaa0003"}
	for i, id := range wantOrder {
		if list[i].ID != id {
			t.Fatalf("expected row-major order %v, got %s at %d", wantOrder, list[i].ID, i)
		}
	}
	if len(list[0].Formats) != 2 {
		t.Fatalf("expected formats on listed attachment, got %v", list[0].Formats)
	}

	if err := st.DeleteAttachment(ctx, first.ID); err != nil {
		t.Fatalf("delete attachment: %v", err)
	}
	gone, err := st.GetAttachment(ctx, first.ID)
	if err != nil {
		t.Fatalf("get deleted attachment: %v", err)
	}
	if gone != nil {
		t.Fatal("expected deleted attachment to be gone")
	}
	variants, err := st.ListFormatVariants(ctx, first.ID)
	if err != nil {
		t.Fatalf("list variants: %v", err)
	}
	if len(variants) != 0 {
		t.Fatalf("expected variants removed, got %d", len(variants))
	}

	if err := st.DeleteAttachment(ctx, first.ID); !errors.Is(err, ErrAttachmentNotFound) {
		t.Fatalf("expected ErrAttachmentNotFound on second delete, got %v", err)
	}
}

func TestCreateAttachment_RejectsOccupiedPosition(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	createTestAttachment(t, st, "at-cccc0001", testScope, 2, 3)

	dup := &models.Attachment{ID: "at-cccc0002", Scope: testScope, Label: "dup", Column: 2, Row: 3}
	err := st.CreateAttachment(ctx, dup, []models.FormatVariant{{Format: models.FormatFullsize, BlobKey: "k", SHA256: "0"}})
	if !errors.Is(err, ErrPositionTaken) {
		t.Fatalf("expected ErrPositionTaken, got %v", err)
	}
	exists, err := st.AttachmentIDExists(ctx, dup.ID)
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if exists {
		t.Fatal("expected rolled back attachment row")
	}
}

func TestUpdatePositions_ShiftsWithoutCollisions(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	createTestAttachment(t, st, "at-dddd0001", testScope, 0, 0)
	createTestAttachment(t, st, "at-dddd0002", testScope, 1, 0)
	createTestAttachment(t, st, "at-dddd0003", testScope, 2, 0)

	// Rotate all three slots; a naive row-by-row update would collide.
	updates := []PositionUpdate{
		{ID: "at-dddd0001", Column: 2, Row: 0},
		{ID: "at-dddd0002", Column: 0, Row: 0},
		{ID: "at-dddd0003", Column: 1, Row: 0},
	}
	if err := st.UpdatePositions(ctx, testScope, updates, time.Now()); err != nil {
		t.Fatalf("update positions: %v", err)
	}

	list, err := st.ListAttachmentsByScope(ctx, testScope)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	got := map[string]int{}
	for _, a := range list {
		got[a.ID] = a.Column
	}
	if got["at-dddd0001"] != 2 || got["at-dddd0002"] != 0 || got["at-dddd0003"] != 1 {
		t.Fatalf("unexpected columns after rotate: %v", got)
	}
}

func TestUpdatePositions_RollsBackOnCollision(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	createTestAttachment(t, st, "at-eeee0001", testScope, 0, 0)
	createTestAttachment(t, st, "at-eeee0002", testScope, 1, 0)
	createTestAttachment(t, st, "at-eeee0003", testScope, 2, 0)

	updates := []PositionUpdate{
		{ID: "at-eeee0001", Column: 5, Row: 5},
		{ID: "at-eeee0002", Column: 2, Row: 0}, // occupied by eeee0003, which is not moving
	}
	err := st.UpdatePositions(ctx, testScope, updates, time.Now())
	if !errors.Is(err, ErrPositionTaken) {
		t.Fatalf("expected ErrPositionTaken, got %v", err)
	}

	first, err := st.GetAttachment(ctx, "at-eeee0001")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if first.Column != 0 || first.Row != 0 {
		t.Fatalf("expected first attachment untouched, got (%d,%d)", first.Column, first.Row)
	}
}

func TestUpdatePositions_RejectsForeignScope(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	createTestAttachment(t, st, "at-ffff0001", testScope, 0, 0)

	other := testScope
	other.BienID = 99
	err := st.UpdatePositions(ctx, other, []PositionUpdate{{ID: "at-ffff0001", Column: 1, Row: 1}}, time.Now())
	if !errors.Is(err, ErrAttachmentNotFound) {
		t.Fatalf("expected ErrAttachmentNotFound, got %v", err)
	}
}

func TestRenameAttachment(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	created := createTestAttachment(t, st, "at-gggg0001", testScope, 0, 0)

	later := created.UpdatedAt.Add(time.Minute)
	if err := st.RenameAttachment(ctx, created.ID, "Jardin", later); err != nil {
		t.Fatalf("rename: %v", err)
	}
	got, err := st.GetAttachment(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Label != "Jardin" {
		t.Fatalf("expected label Jardin, got %q", got.Label)
	}
	if !got.UpdatedAt.Equal(later) {
		t.Fatalf("expected updated_at %v, got %v", later, got.UpdatedAt)
	}

	if err := st.RenameAttachment(ctx, "at-missing1", "x", time.Now()); !errors.Is(err, ErrAttachmentNotFound) {
		t.Fatalf("expected ErrAttachmentNotFound, got %v", err)
	}
}

func TestPutFormatVariant_InsertsAndReplaces(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	created := createTestAttachment(t, st, "at-kkkk0001", testScope, 0, 0)

	thumb := models.FormatVariant{AttachmentID: created.ID, Format: models.FormatThumbnail, BlobKey: "k/thumb", SHA256: "aa", SizeBytes: 4}
	if err := st.PutFormatVariant(ctx, thumb, time.Now()); err != nil {
		t.Fatalf("put variant: %v", err)
	}
	thumb.SHA256 = "bb"
	thumb.SizeBytes = 8
	if err := st.PutFormatVariant(ctx, thumb, time.Now()); err != nil {
		t.Fatalf("replace variant: %v", err)
	}

	variants, err := st.ListFormatVariants(ctx, created.ID)
	if err != nil {
		t.Fatalf("list variants: %v", err)
	}
	if len(variants) != 2 {
		t.Fatalf("expected 2 variants, got %d", len(variants))
	}
	if variants[1].Format != models.FormatThumbnail || variants[1].SHA256 != "bb" || variants[1].SizeBytes != 8 {
		t.Fatalf("unexpected replaced variant: %+v", variants[1])
	}

	missing := models.FormatVariant{AttachmentID: "at-missing1", Format: models.FormatFullsize, BlobKey: "x"}
	if err := st.PutFormatVariant(ctx, missing, time.Now()); !errors.Is(err, ErrAttachmentNotFound) {
		t.Fatalf("expected ErrAttachmentNotFound, got %v", err)
	}
}
