package middleware

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/aryan0dhankhar/tenantcms/internal/domain"
	"github.com/aryan0dhankhar/tenantcms/internal/security/audit"
	"github.com/aryan0dhankhar/tenantcms/internal/security/auth"
	"github.com/aryan0dhankhar/tenantcms/internal/security/ratelimit"
)

var (
	ErrRateLimited          = errors.New("rate limit exceeded")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
)

// ErrorResponder writes err to the client in the API's error envelope.
type ErrorResponder func(w http.ResponseWriter, r *http.Request, err error)

// Authenticator resolves a bearer token into the calling principal.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (domain.Principal, error)
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the authenticated caller stored by Authenticate.
func PrincipalFrom(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(domain.Principal)
	return p, ok
}

// Authenticate requires a valid bearer token. WebSocket handshakes may pass
// the token as the "token" query parameter since browsers cannot set headers there.
func Authenticate(a Authenticator, respond ErrorResponder, log *slog.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := auth.ExtractToken(r.Header.Get("Authorization"))
			if err != nil && isWebSocket(r) {
				token, err = r.URL.Query().Get("token"), nil
			}
			if err != nil || token == "" {
				respond(w, r, domain.Unauthorized("missing bearer token"))
				return
			}

			p, err := a.Authenticate(r.Context(), token)
			if err != nil {
				log.DebugContext(r.Context(), "authentication failed",
					slog.String("path", r.URL.Path),
					slog.String("error", err.Error()),
				)
				respond(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

func isWebSocket(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}

// KeyFunc picks the rate limit bucket for a request.
type KeyFunc func(r *http.Request) string

// KeyByIP buckets by client address. Run after chi's RealIP.
func KeyByIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}

// KeyByOrganization buckets authenticated callers by organization and
// everyone else by client address.
func KeyByOrganization(r *http.Request) string {
	if p, ok := PrincipalFrom(r.Context()); ok {
		return "org:" + p.OrganizationID
	}
	return KeyByIP(r)
}

// RateLimit rejects requests once key's window is full. A nil limiter disables it.
func RateLimit(limiter *ratelimit.Limiter, key KeyFunc, respond ErrorResponder, auditLog *audit.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := key(r)
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limiter.Limit()))
			ok, retryAfter := limiter.Allow(k)
			if !ok {
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
				if auditLog != nil {
					p, _ := PrincipalFrom(r.Context())
					auditLog.LogDenied(r.Context(), p.OrganizationID, p.UserID, "rate limit exceeded for "+k)
				}
				respond(w, r, ErrRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Audit records every mutating request once the handler has answered.
func Audit(auditLog *audit.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !mutating(r.Method) {
				next.ServeHTTP(w, r)
				return
			}
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			resource, action := describe(r)
			p, _ := PrincipalFrom(r.Context())
			auditLog.Record(r.Context(), audit.Entry{
				Action:         action,
				Resource:       resource,
				ResourceID:     chi.URLParam(r, "id"),
				OrganizationID: p.OrganizationID,
				UserID:         p.UserID,
				Status:         strconv.Itoa(status),
			})
		})
	}
}

func mutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// describe derives resource and action from the matched route, e.g.
// "/api/content/{id}/publish" is content/publish and DELETE "/api/tags/{id}" is tags/delete.
func describe(r *http.Request) (resource, action string) {
	pattern := r.URL.Path
	if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
		pattern = rctx.RoutePattern()
	}
	var segments []string
	for _, s := range strings.Split(strings.TrimPrefix(pattern, "/api/"), "/") {
		if s != "" && s != "*" {
			segments = append(segments, s)
		}
	}
	if len(segments) == 0 {
		return "api", strings.ToLower(r.Method)
	}
	resource = segments[0]
	if last := segments[len(segments)-1]; len(segments) > 1 && !strings.HasPrefix(last, "{") {
		return resource, last
	}
	switch r.Method {
	case http.MethodPost:
		return resource, "create"
	case http.MethodDelete:
		return resource, "delete"
	default:
		return resource, "update"
	}
}

// RequestLogger logs one line per request with the matched route and outcome.
func RequestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			level := slog.LevelInfo
			switch {
			case status >= 500:
				level = slog.LevelError
			case status >= 400:
				level = slog.LevelWarn
			}
			log.LogAttrs(r.Context(), level, "http request",
				slog.String("method", r.Method),
				slog.String("route", route),
				slog.Int("status", status),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", time.Since(start)),
				slog.String("remote_ip", r.RemoteAddr),
				slog.String("request_id", chimw.GetReqID(r.Context())),
			)
		})
	}
}
