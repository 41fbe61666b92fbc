package api

import (
	"io"
	"net/http"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// decompressMiddleware transparently inflates zstd-compressed request bodies.
// Export archives compress extremely well, so clients are encouraged to send
// Content-Encoding: zstd. Requests without the header pass through untouched.
func decompressMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			encoding := r.Header.Get("Content-Encoding")

			switch {
			case encoding == "" || strings.EqualFold(encoding, "identity"):
				next.ServeHTTP(w, r)

			case strings.EqualFold(encoding, "zstd"):
				decoder, err := zstd.NewReader(r.Body)
				if err != nil {
					respondError(w, http.StatusBadRequest, "failed to create zstd decoder")
					return
				}
				defer decoder.Close()

				// Downstream handlers see the plain body; the declared length
				// no longer applies.
				r.Body = io.NopCloser(decoder)
				r.Header.Del("Content-Encoding")
				r.Header.Del("Content-Length")
				r.ContentLength = -1

				next.ServeHTTP(w, r)

			default:
				respondError(w, http.StatusUnsupportedMediaType,
					"unsupported Content-Encoding: "+encoding)
			}
		})
	}
}
