package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ScrubLabs/scrub-web/internal/analytics"
	"github.com/ScrubLabs/scrub-web/internal/db"
	"github.com/ScrubLabs/scrub-web/internal/platform"
	"github.com/ScrubLabs/scrub-web/internal/testutil"
)

func newIntegrationServer(t *testing.T, env *testutil.TestEnvironment, uploadsPerWeek int) http.Handler {
	t.Helper()
	server, err := NewServer(env.DB, env.Storage, platform.Default(), Config{
		UploadsPerWeek: uploadsPerWeek,
		RateLimitRPS:   1000,
		RateLimitBurst: 1000,
	}, "test")
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return server.SetupRoutes()
}

func TestUploadFlow_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := testutil.SetupTestEnvironment(t)
	handler := newIntegrationServer(t, env, 10)

	t.Run("finalize, fetch, download, analytics, delete", func(t *testing.T) {
		env.CleanDB(t)

		body := map[string]any{
			"platform":  "reddit",
			"file_name": "comments.json",
			"donate":    true,
			"document":  `{"username": "bob", "subreddit": "golang", "score": 12}`,
		}
		req := testutil.JSONRequest(t, "POST", "/api/v1/uploads", body)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		testutil.AssertStatus(t, w, http.StatusCreated)

		var created struct {
			Upload    *db.Upload        `json:"upload"`
			Analytics *analytics.Report `json:"analytics"`
		}
		testutil.ParseJSONResponse(t, w, &created)

		if created.Upload == nil || created.Upload.ID == "" {
			t.Fatal("expected created upload with ID")
		}
		donorID := created.Upload.DonorID
		if len(donorID) != 8 {
			t.Fatalf("expected generated 8-char donor ID, got %q", donorID)
		}
		if !strings.HasPrefix(created.Upload.ObjectKey, "research_donations/"+donorID+"/Reddit/redacted/") {
			t.Errorf("unexpected object key: %s", created.Upload.ObjectKey)
		}
		if created.Analytics == nil {
			t.Fatal("expected analytics report in response")
		}

		// Metadata
		req = testutil.JSONRequest(t, "GET", "/api/v1/uploads/"+created.Upload.ID+"?donor_id="+donorID, nil)
		w = httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		testutil.AssertStatus(t, w, http.StatusOK)

		// Redacted content
		req = testutil.JSONRequest(t, "GET", "/api/v1/uploads/"+created.Upload.ID+"/content?donor_id="+donorID, nil)
		w = httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		testutil.AssertStatus(t, w, http.StatusOK)
		if !strings.Contains(w.Body.String(), `"username": "REDACTED"`) {
			t.Errorf("stored document not redacted: %s", w.Body.String())
		}
		if !strings.Contains(w.Body.String(), `"score": 12`) {
			t.Errorf("non-PII value lost: %s", w.Body.String())
		}

		// Stored analytics
		req = testutil.JSONRequest(t, "GET", "/api/v1/uploads/"+created.Upload.ID+"/analytics?donor_id="+donorID, nil)
		w = httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		testutil.AssertStatus(t, w, http.StatusOK)

		// Wrong donor handle looks like a missing upload
		req = testutil.JSONRequest(t, "GET", "/api/v1/uploads/"+created.Upload.ID+"?donor_id=ffff0000", nil)
		w = httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		testutil.AssertStatus(t, w, http.StatusNotFound)

		// Delete
		req = testutil.JSONRequest(t, "DELETE", "/api/v1/uploads/"+created.Upload.ID+"?donor_id="+donorID, nil)
		w = httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		testutil.AssertStatus(t, w, http.StatusNoContent)

		req = testutil.JSONRequest(t, "GET", "/api/v1/uploads/"+created.Upload.ID+"?donor_id="+donorID, nil)
		w = httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		testutil.AssertStatus(t, w, http.StatusNotFound)
	})

	t.Run("list uploads for donor", func(t *testing.T) {
		env.CleanDB(t)

		testutil.CreateTestUpload(t, env, "abcd1234", "Twitter", false, []byte("{}"))
		testutil.CreateTestUpload(t, env, "abcd1234", "Reddit", true, []byte("{}"))

		req := testutil.JSONRequest(t, "GET", "/api/v1/uploads?donor_id=abcd1234", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		testutil.AssertStatus(t, w, http.StatusOK)

		var resp struct {
			Uploads []db.Upload `json:"uploads"`
		}
		testutil.ParseJSONResponse(t, w, &resp)
		if len(resp.Uploads) != 2 {
			t.Fatalf("expected 2 uploads, got %d", len(resp.Uploads))
		}
	})
}

func TestUploadQuota_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	env := testutil.SetupTestEnvironment(t)
	handler := newIntegrationServer(t, env, 2)

	env.CleanDB(t)

	body := map[string]any{
		"donor_id":  "abcd1234",
		"platform":  "tiktok",
		"file_name": "export.json",
		"document":  `{"userName": "bob"}`,
	}

	for i := 0; i < 2; i++ {
		req := testutil.JSONRequest(t, "POST", "/api/v1/uploads", body)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		testutil.AssertStatus(t, w, http.StatusCreated)
	}

	req := testutil.JSONRequest(t, "POST", "/api/v1/uploads", body)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	testutil.AssertStatus(t, w, http.StatusTooManyRequests)
}
