package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/ScrubLabs/scrub-web/internal/logger"
	"github.com/ScrubLabs/scrub-web/internal/platform"
	"github.com/ScrubLabs/scrub-web/internal/redact"
	"github.com/ScrubLabs/scrub-web/internal/validation"
)

type platformInfo struct {
	Name    string   `json:"name"`
	PIIKeys []string `json:"pii_keys"`
}

// handleListPlatforms returns the supported platforms with the key names
// redacted by default for each.
func (s *Server) handleListPlatforms(w http.ResponseWriter, r *http.Request) {
	out := make([]platformInfo, 0, len(platform.All()))
	for _, p := range platform.All() {
		set := s.tables.RedactionSet(p, nil)
		out = append(out, platformInfo{
			Name:    string(p),
			PIIKeys: set.Sorted(),
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"platforms": out,
	})
}

type inspectResponse struct {
	Keys      []string `json:"keys"`
	KeyCount  int      `json:"key_count"`
	SizeBytes int      `json:"size_bytes"`
	Documents int      `json:"documents"`
}

// handleInspectDocument parses a raw export from the request body and returns
// the canonical key names found in it, without modifying anything.
func (s *Server) handleInspectDocument(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	if len(body) == 0 {
		respondError(w, http.StatusBadRequest, "request body is empty")
		return
	}

	doc, err := redact.Parse(body)
	if err != nil {
		respondParseError(w, r, err)
		return
	}

	keys := s.sanitizer.DiscoverKeys(doc)
	docs := 1
	if doc.Kind == redact.Array {
		docs = len(doc.Arr)
	}

	respondJSON(w, http.StatusOK, inspectResponse{
		Keys:      keys.Sorted(),
		KeyCount:  len(keys),
		SizeBytes: len(body),
		Documents: docs,
	})
}

// redactRequest is the envelope for redaction and upload requests. Document
// is the raw export text; NDJSON travels fine inside a JSON string.
type redactRequest struct {
	Platform  string   `json:"platform"`
	FileName  string   `json:"file_name"`
	ExtraKeys []string `json:"extra_keys"`
	Document  string   `json:"document"`
}

type redactResponse struct {
	Platform     string   `json:"platform"`
	RedactedKeys []string `json:"redacted_keys"`
	Document     string   `json:"document"`
}

// handleRedactDocument redacts a document and returns the result without
// persisting anything. With ?download=true the body is the redacted file
// itself, served as an attachment.
func (s *Server) handleRedactDocument(w http.ResponseWriter, r *http.Request) {
	req, p, ok := s.decodeRedactRequest(w, r)
	if !ok {
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

	if r.URL.Query().Get("download") == "true" {
		name := redactedFileName("", p, req.FileName)
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
		w.WriteHeader(http.StatusOK)
		w.Write(encoded)
		return
	}

	respondJSON(w, http.StatusOK, redactResponse{
		Platform:     string(p),
		RedactedKeys: set.Sorted(),
		Document:     string(encoded),
	})
}

// decodeRedactRequest reads and validates the shared request envelope. On
// failure it writes the error response and returns ok=false.
func (s *Server) decodeRedactRequest(w http.ResponseWriter, r *http.Request) (redactRequest, platform.Platform, bool) {
	var req redactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return req, "", false
	}

	p, err := platform.Parse(req.Platform)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return req, "", false
	}
	if req.FileName != "" {
		if err := validation.ValidateFileName(req.FileName); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return req, "", false
		}
	}
	if err := validation.ValidateExtraKeys(req.ExtraKeys); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return req, "", false
	}
	if req.Document == "" {
		respondError(w, http.StatusBadRequest, "document is required")
		return req, "", false
	}

	return req, p, true
}

// respondParseError maps document parse failures onto HTTP statuses.
func respondParseError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, redact.ErrTooDeep):
		respondError(w, http.StatusUnprocessableEntity, "document nesting exceeds the supported depth")
	case errors.Is(err, redact.ErrMalformed):
		respondError(w, http.StatusBadRequest, "document is not valid JSON or NDJSON")
	default:
		logger.Ctx(r.Context()).Error("unexpected parse failure", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to parse document")
	}
}
