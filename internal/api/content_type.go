package api

import (
	"mime"
	"net/http"
)

// Body-bearing requests must declare one of these media types. Raw exports
// arrive as JSON or NDJSON; some browsers label NDJSON text/plain.
var allowedContentTypes = map[string]bool{
	"application/json":      true,
	"application/x-ndjson":  true,
	"application/jsonlines": true,
	"text/plain":            true,
}

// validateContentType rejects POST requests whose Content-Type is not an
// accepted document media type. Requests without a body pass through.
func validateContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.ContentLength == 0 {
			next.ServeHTTP(w, r)
			return
		}

		ct := r.Header.Get("Content-Type")
		if ct == "" {
			respondError(w, http.StatusUnsupportedMediaType, "Content-Type header is required")
			return
		}

		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil || !allowedContentTypes[mediaType] {
			respondError(w, http.StatusUnsupportedMediaType, "unsupported Content-Type: "+ct)
			return
		}

		next.ServeHTTP(w, r)
	})
}
