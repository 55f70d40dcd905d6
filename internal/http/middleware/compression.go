package middleware

import (
	"net/http"
	"strings"
)

// SkipCompressionForSSE routes event-stream requests around a compression
// middleware. Compressed responses are buffered, which breaks the
// per-frame flushing the event stream depends on. A request is treated
// as a stream when it accepts text/event-stream or targets /events.
func SkipCompressionForSSE(compress func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		compressed := compress(next)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.Contains(r.Header.Get("Accept"), "text/event-stream") ||
				strings.HasSuffix(r.URL.Path, "/events") {
				next.ServeHTTP(w, r)
				return
			}
			compressed.ServeHTTP(w, r)
		})
	}
}
