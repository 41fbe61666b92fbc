package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ScrubLabs/scrub-web/internal/db"
	"github.com/ScrubLabs/scrub-web/internal/storage"
)

// JSONRequest builds a POST/GET request with a JSON-marshaled body.
func JSONRequest(t *testing.T, method, url string, body any) *http.Request {
	t.Helper()

	var bodyReader *bytes.Reader
	if body != nil {
		bodyJSON, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		bodyReader = bytes.NewReader(bodyJSON)
	} else {
		bodyReader = bytes.NewReader([]byte{})
	}

	req := httptest.NewRequest(method, url, bodyReader)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// ParseJSONResponse decodes a JSON response body into v.
func ParseJSONResponse(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()

	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response: %v. Body: %s", err, w.Body.String())
	}
}

// AssertStatus checks the HTTP status code.
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()

	if w.Code != expected {
		t.Errorf("expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertErrorResponse checks error response format and message.
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedMessage string) {
	t.Helper()

	AssertStatus(t, w, expectedStatus)

	var resp map[string]string
	ParseJSONResponse(t, w, &resp)

	if resp["error"] != expectedMessage {
		t.Errorf("expected error message %q, got %q", expectedMessage, resp["error"])
	}
}

// CreateTestUpload inserts an upload row directly, with a matching object in
// storage so download paths work.
func CreateTestUpload(t *testing.T, env *TestEnvironment, donorID, platform string, donated bool, content []byte) *db.Upload {
	t.Helper()

	fileName := donorID + "_" + platform + "_export.json"
	objectKey := storage.ObjectKey(donated, donorID, platform, fileName)

	if err := env.Storage.Upload(env.Ctx, objectKey, content); err != nil {
		t.Fatalf("failed to store test object: %v", err)
	}

	upload := &db.Upload{
		DonorID:      donorID,
		Platform:     platform,
		FileName:     fileName,
		ObjectKey:    objectKey,
		Donated:      donated,
		RedactedKeys: []string{"username"},
		SizeBytes:    int64(len(content)),
	}
	if err := env.DB.CreateUpload(env.Ctx, upload); err != nil {
		t.Fatalf("failed to create test upload: %v", err)
	}
	return upload
}

// BackdateUpload rewrites an upload's created_at, for quota-window tests.
func BackdateUpload(t *testing.T, env *TestEnvironment, uploadID string, createdAt time.Time) {
	t.Helper()

	_, err := env.DB.Exec(env.Ctx,
		"UPDATE uploads SET created_at = $1 WHERE id = $2", createdAt.UTC(), uploadID)
	if err != nil {
		t.Fatalf("failed to backdate upload: %v", err)
	}
}
