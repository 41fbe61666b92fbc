package db_test

import (
	"errors"
	"testing"
	"time"

	"github.com/ScrubLabs/scrub-web/internal/db"
	"github.com/ScrubLabs/scrub-web/internal/testutil"
)

func TestUploadLifecycle_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := testutil.SetupTestEnvironment(t)

	t.Run("create, get, list, delete", func(t *testing.T) {
		env.CleanDB(t)

		upload := &db.Upload{
			DonorID:      "abcd1234",
			Platform:     "TikTok",
			FileName:     "abcd1234_TikTok_export.json",
			ObjectKey:    "research_donations/abcd1234/TikTok/redacted/abcd1234_TikTok_export.json",
			Donated:      true,
			RedactedKeys: []string{"userName", "username"},
			SizeBytes:    42,
		}
		if err := env.DB.CreateUpload(env.Ctx, upload); err != nil {
			t.Fatalf("CreateUpload: %v", err)
		}
		if upload.ID == "" {
			t.Fatal("expected CreateUpload to fill in ID")
		}
		if upload.CreatedAt.IsZero() {
			t.Fatal("expected CreateUpload to fill in CreatedAt")
		}

		got, err := env.DB.GetUpload(env.Ctx, upload.ID)
		if err != nil {
			t.Fatalf("GetUpload: %v", err)
		}
		if got.DonorID != upload.DonorID || got.ObjectKey != upload.ObjectKey {
			t.Errorf("GetUpload returned wrong row: %+v", got)
		}
		if len(got.RedactedKeys) != 2 || got.RedactedKeys[0] != "userName" {
			t.Errorf("redacted keys not round-tripped: %v", got.RedactedKeys)
		}

		uploads, err := env.DB.ListUploads(env.Ctx, "abcd1234")
		if err != nil {
			t.Fatalf("ListUploads: %v", err)
		}
		if len(uploads) != 1 {
			t.Fatalf("expected 1 upload, got %d", len(uploads))
		}

		if err := env.DB.DeleteUpload(env.Ctx, upload.ID, "abcd1234"); err != nil {
			t.Fatalf("DeleteUpload: %v", err)
		}
		if _, err := env.DB.GetUpload(env.Ctx, upload.ID); !errors.Is(err, db.ErrUploadNotFound) {
			t.Errorf("expected ErrUploadNotFound after delete, got %v", err)
		}
	})

	t.Run("list orders newest first", func(t *testing.T) {
		env.CleanDB(t)

		first := testutil.CreateTestUpload(t, env, "abcd1234", "Reddit", false, []byte("{}"))
		testutil.BackdateUpload(t, env, first.ID, time.Now().Add(-48*time.Hour))
		second := testutil.CreateTestUpload(t, env, "abcd1234", "Twitter", false, []byte("{}"))

		uploads, err := env.DB.ListUploads(env.Ctx, "abcd1234")
		if err != nil {
			t.Fatalf("ListUploads: %v", err)
		}
		if len(uploads) != 2 {
			t.Fatalf("expected 2 uploads, got %d", len(uploads))
		}
		if uploads[0].ID != second.ID || uploads[1].ID != first.ID {
			t.Errorf("uploads not ordered newest first: %v then %v", uploads[0].ID, uploads[1].ID)
		}
	})

	t.Run("delete requires matching donor", func(t *testing.T) {
		env.CleanDB(t)

		upload := testutil.CreateTestUpload(t, env, "abcd1234", "Facebook", false, []byte("{}"))

		err := env.DB.DeleteUpload(env.Ctx, upload.ID, "ffff0000")
		if !errors.Is(err, db.ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}

		if _, err := env.DB.GetUpload(env.Ctx, upload.ID); err != nil {
			t.Errorf("upload should still exist: %v", err)
		}
	})

	t.Run("counts only uploads inside the window", func(t *testing.T) {
		env.CleanDB(t)

		old := testutil.CreateTestUpload(t, env, "abcd1234", "Instagram", true, []byte("{}"))
		testutil.BackdateUpload(t, env, old.ID, time.Now().Add(-8*24*time.Hour))
		testutil.CreateTestUpload(t, env, "abcd1234", "Instagram", true, []byte("{}"))

		count, err := env.DB.CountRecentUploads(env.Ctx, "abcd1234", time.Now().Add(-7*24*time.Hour))
		if err != nil {
			t.Fatalf("CountRecentUploads: %v", err)
		}
		if count != 1 {
			t.Errorf("expected 1 recent upload, got %d", count)
		}
	})
}
