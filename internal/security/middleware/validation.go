package middleware

import (
	"log/slog"
	"mime"
	"net/http"
	"slices"
	"strings"

	"github.com/aryan0dhankhar/tenantcms/internal/domain"
)

// RequireContentType ensures POST/PUT/PATCH requests with a body declare one
// of the accepted media types.
func RequireContentType(respond ErrorResponder, log *slog.Logger, accepted ...string) func(http.Handler) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost && r.Method != http.MethodPut && r.Method != http.MethodPatch {
				next.ServeHTTP(w, r)
				return
			}
			// Body-less actions such as publish.
			if r.ContentLength == 0 {
				next.ServeHTTP(w, r)
				return
			}

			contentType := r.Header.Get("Content-Type")
			mediaType, _, err := mime.ParseMediaType(contentType)
			if err != nil || !slices.Contains(accepted, mediaType) {
				log.Warn("invalid content type",
					slog.String("path", r.URL.Path),
					slog.String("content_type", contentType),
					slog.String("method", r.Method),
				)
				respond(w, r, ErrUnsupportedMediaType)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// LimitBody caps the request body. Declared oversized bodies are refused up
// front, streamed ones fail with *http.MaxBytesError once they pass the limit.
func LimitBody(limit int64, respond ErrorResponder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				respond(w, r, &http.MaxBytesError{Limit: limit})
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}

// SanitizeInputs rejects traversal sequences in the path and control
// characters in query parameters.
func SanitizeInputs(respond ErrorResponder, log *slog.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for key, values := range r.URL.Query() {
				for _, val := range values {
					if strings.IndexFunc(val, isControl) >= 0 {
						log.Warn("suspicious input detected",
							slog.String("path", r.URL.Path),
							slog.String("param", key),
						)
						respond(w, r, domain.Invalid("Invalid input", key+" contains control characters"))
						return
					}
				}
			}

			if strings.Contains(r.URL.Path, "..") || strings.Contains(r.URL.Path, "//") {
				log.Warn("suspicious path pattern detected",
					slog.String("path", r.URL.Path),
				)
				respond(w, r, domain.Invalid("Invalid path"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func isControl(r rune) bool {
	return r < 0x20 || r == 0x7F
}
