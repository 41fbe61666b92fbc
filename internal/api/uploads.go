package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ScrubLabs/scrub-web/internal/analytics"
	"github.com/ScrubLabs/scrub-web/internal/db"
	"github.com/ScrubLabs/scrub-web/internal/logger"
	"github.com/ScrubLabs/scrub-web/internal/platform"
	"github.com/ScrubLabs/scrub-web/internal/redact"
	"github.com/ScrubLabs/scrub-web/internal/storage"
	"github.com/ScrubLabs/scrub-web/internal/validation"
)

const quotaWindow = 7 * 24 * time.Hour

type finalizeRequest struct {
	redactRequest
	DonorID string `json:"donor_id"`
	Donate  bool   `json:"donate"`
}

type finalizeResponse struct {
	Upload    *db.Upload        `json:"upload"`
	Analytics *analytics.Report `json:"analytics"`
}

// handleFinalizeUpload redacts a document, stores the redacted copy, records
// the upload, and computes its analytics report. A missing donor_id means a
// first-time donor; a fresh anonymous handle is minted for them.
func (s *Server) handleFinalizeUpload(w http.ResponseWriter, r *http.Request) {
	var req finalizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := platform.Parse(req.Platform)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.FileName == "" {
		respondError(w, http.StatusBadRequest, "file_name is required")
		return
	}
	if err := validation.ValidateFileName(req.FileName); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validation.ValidateExtraKeys(req.ExtraKeys); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Document == "" {
		respondError(w, http.StatusBadRequest, "document is required")
		return
	}

	donorID := req.DonorID
	if donorID == "" {
		donorID = newDonorID()
	} else if err := validation.ValidateDonorID(donorID); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	dbCtx, cancel := context.WithTimeout(r.Context(), DatabaseTimeout)
	defer cancel()

	recent, err := s.db.CountRecentUploads(dbCtx, donorID, time.Now().Add(-quotaWindow))
	if err != nil {
		logger.Ctx(r.Context()).Error("failed to check upload quota", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to check upload quota")
		return
	}
	if recent >= s.cfg.UploadsPerWeek {
		respondError(w, http.StatusTooManyRequests, db.ErrRateLimitExceeded.Error())
		return
	}

	doc, err := redact.Parse([]byte(req.Document))
	if err != nil {
		respondParseError(w, r, err)
		return
	}

	set := s.tables.RedactionSet(p, req.ExtraKeys)
	redacted := s.sanitizer.Redact(doc, set)
	encoded := redact.Encode(redacted)

	fileName := redactedFileName(donorID, p, req.FileName)
	objectKey := storage.ObjectKey(req.Donate, donorID, string(p), fileName)

	storageCtx, cancel := context.WithTimeout(r.Context(), StorageTimeout)
	defer cancel()

	if err := s.storage.Upload(storageCtx, objectKey, encoded); err != nil {
		logger.Ctx(r.Context()).Error("failed to store redacted document", "error", err, "object_key", objectKey)
		respondError(w, http.StatusInternalServerError, "failed to store redacted document")
		return
	}

	upload := &db.Upload{
		DonorID:      donorID,
		Platform:     string(p),
		FileName:     fileName,
		ObjectKey:    objectKey,
		Donated:      req.Donate,
		RedactedKeys: set.Sorted(),
		SizeBytes:    int64(len(encoded)),
	}
	if err := s.db.CreateUpload(dbCtx, upload); err != nil {
		logger.Ctx(r.Context()).Error("failed to record upload", "error", err, "object_key", objectKey)
		// Best effort: do not leave an orphaned object behind.
		if delErr := s.storage.Delete(storageCtx, objectKey); delErr != nil {
			logger.Ctx(r.Context()).Error("failed to clean up stored object", "error", delErr, "object_key", objectKey)
		}
		respondError(w, http.StatusInternalServerError, "failed to record upload")
		return
	}

	report := analytics.Compute(redacted, p, s.stopwords)
	if err := s.reports.SaveReport(dbCtx, upload.ID, report); err != nil {
		// The upload itself succeeded; analytics can be recomputed later.
		logger.Ctx(r.Context()).Error("failed to save analytics report", "error", err, "upload_id", upload.ID)
	}

	respondJSON(w, http.StatusCreated, finalizeResponse{
		Upload:    upload,
		Analytics: report,
	})
}

// handleListUploads returns a donor's uploads, newest first.
func (s *Server) handleListUploads(w http.ResponseWriter, r *http.Request) {
	donorID := r.URL.Query().Get("donor_id")
	if err := validation.ValidateDonorID(donorID); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), DatabaseTimeout)
	defer cancel()

	uploads, err := s.db.ListUploads(ctx, donorID)
	if err != nil {
		logger.Ctx(r.Context()).Error("failed to list uploads", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to list uploads")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"uploads": uploads,
	})
}

// handleGetUpload returns a single upload's metadata.
func (s *Server) handleGetUpload(w http.ResponseWriter, r *http.Request) {
	upload, ok := s.requireUpload(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, upload)
}

// handleDownloadUpload serves the stored redacted document as an attachment.
func (s *Server) handleDownloadUpload(w http.ResponseWriter, r *http.Request) {
	upload, ok := s.requireUpload(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), StorageTimeout)
	defer cancel()

	data, err := s.storage.Download(ctx, upload.ObjectKey)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrObjectNotFound):
			respondError(w, http.StatusNotFound, "stored document not found")
		case errors.Is(err, storage.ErrAccessDenied):
			logger.Ctx(r.Context()).Error("storage access denied", "error", err, "object_key", upload.ObjectKey)
			respondError(w, http.StatusInternalServerError, "failed to retrieve document")
		default:
			logger.Ctx(r.Context()).Error("failed to download document", "error", err, "object_key", upload.ObjectKey)
			respondError(w, http.StatusInternalServerError, "failed to retrieve document")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+upload.FileName+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// handleGetAnalytics returns the stored analytics report for an upload.
func (s *Server) handleGetAnalytics(w http.ResponseWriter, r *http.Request) {
	upload, ok := s.requireUpload(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), DatabaseTimeout)
	defer cancel()

	report, err := s.reports.GetReport(ctx, upload.ID)
	if err != nil {
		if errors.Is(err, db.ErrReportNotFound) {
			respondError(w, http.StatusNotFound, "no analytics report for this upload")
			return
		}
		logger.Ctx(r.Context()).Error("failed to load analytics report", "error", err, "upload_id", upload.ID)
		respondError(w, http.StatusInternalServerError, "failed to load analytics report")
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// handleDeleteUpload removes both the stored object and the upload record.
// The analytics report is removed by cascade.
func (s *Server) handleDeleteUpload(w http.ResponseWriter, r *http.Request) {
	upload, ok := s.requireUpload(w, r)
	if !ok {
		return
	}

	storageCtx, cancel := context.WithTimeout(r.Context(), StorageTimeout)
	defer cancel()

	if err := s.storage.Delete(storageCtx, upload.ObjectKey); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
		logger.Ctx(r.Context()).Error("failed to delete stored document", "error", err, "object_key", upload.ObjectKey)
		respondError(w, http.StatusInternalServerError, "failed to delete document")
		return
	}

	dbCtx, cancel := context.WithTimeout(r.Context(), DatabaseTimeout)
	defer cancel()

	if err := s.db.DeleteUpload(dbCtx, upload.ID, upload.DonorID); err != nil {
		if errors.Is(err, db.ErrUploadNotFound) {
			respondError(w, http.StatusNotFound, "upload not found")
			return
		}
		logger.Ctx(r.Context()).Error("failed to delete upload record", "error", err, "upload_id", upload.ID)
		respondError(w, http.StatusInternalServerError, "failed to delete upload")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// requireUpload loads the upload named in the URL and checks that the caller
// presented the matching donor handle. The handle is the only credential an
// anonymous donor has, so a mismatch looks identical to a missing upload.
func (s *Server) requireUpload(w http.ResponseWriter, r *http.Request) (*db.Upload, bool) {
	uploadID := chi.URLParam(r, "uploadID")
	if _, err := uuid.Parse(uploadID); err != nil {
		respondError(w, http.StatusBadRequest, "invalid upload ID")
		return nil, false
	}

	donorID := r.URL.Query().Get("donor_id")
	if err := validation.ValidateDonorID(donorID); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), DatabaseTimeout)
	defer cancel()

	upload, err := s.db.GetUpload(ctx, uploadID)
	if err != nil {
		if errors.Is(err, db.ErrUploadNotFound) {
			respondError(w, http.StatusNotFound, "upload not found")
			return nil, false
		}
		logger.Ctx(r.Context()).Error("failed to load upload", "error", err, "upload_id", uploadID)
		respondError(w, http.StatusInternalServerError, "failed to load upload")
		return nil, false
	}
	if upload.DonorID != donorID {
		respondError(w, http.StatusNotFound, "upload not found")
		return nil, false
	}

	return upload, true
}

// newDonorID mints a short anonymous handle for a first-time donor.
func newDonorID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:validation.DonorIDLength]
}

// redactedFileName builds the stored file name. A leading donor handle keeps
// names unique within a platform folder; the doubled extension from naive
// concatenation is collapsed.
func redactedFileName(donorID string, p platform.Platform, original string) string {
	parts := make([]string, 0, 3)
	if donorID != "" {
		parts = append(parts, donorID)
	}
	parts = append(parts, string(p), original)

	name := strings.Join(parts, "_")
	for strings.HasSuffix(name, ".json.json") {
		name = strings.TrimSuffix(name, ".json")
	}
	if !strings.HasSuffix(name, ".json") {
		name += ".json"
	}
	return name
}
