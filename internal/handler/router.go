package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aryan0dhankhar/tenantcms/internal/domain"
	"github.com/aryan0dhankhar/tenantcms/internal/observability/metrics"
	"github.com/aryan0dhankhar/tenantcms/internal/security/audit"
	"github.com/aryan0dhankhar/tenantcms/internal/security/middleware"
	"github.com/aryan0dhankhar/tenantcms/internal/security/ratelimit"
	"github.com/aryan0dhankhar/tenantcms/internal/service"
)

// multipartOverhead is the allowance for multipart boundaries and form fields
// on top of the largest accepted file.
const multipartOverhead = 1 << 20

// Services are the operations the API exposes.
type Services struct {
	Auth          *service.AuthService
	Organizations *service.OrganizationService
	Users         *service.UserService
	ContentTypes  *service.ContentTypeService
	Contents      *service.ContentService
	Categories    *service.TaxonomyService
	Tags          *service.TaxonomyService
	Media         *service.MediaService
	Public        *service.PublicService
}

// RouterConfig wires the API. Nil limiters disable rate limiting. A nil
// Uploads handler, Events subscriber or Services.Public leaves that route
// unmounted.
type RouterConfig struct {
	Services       Services
	Events         Subscriber
	Health         map[string]Pinger
	Uploads        http.Handler
	Limiter        *ratelimit.Limiter
	StrictLimiter  *ratelimit.Limiter
	AllowedOrigins []string
	Production     bool
	MaxBodyBytes   int64
	Logger         *slog.Logger
	Audit          *audit.Logger
}

// NewRouter builds the HTTP API.
func NewRouter(cfg RouterConfig) chi.Router {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	auditLog := cfg.Audit
	if auditLog == nil {
		auditLog = audit.NewLogger(logger)
	}
	fail := ErrorResponder(logger)
	svc := cfg.Services

	authn := middleware.Authenticate(svc.Auth, fail, logger)
	jsonOnly := middleware.RequireContentType(fail, logger, "application/json")
	jsonBody := middleware.LimitBody(cfg.MaxBodyBytes, fail)
	perIP := middleware.RateLimit(cfg.Limiter, middleware.KeyByIP, fail, auditLog)
	perOrg := middleware.RateLimit(cfg.Limiter, middleware.KeyByOrganization, fail, auditLog)
	strict := middleware.RateLimit(cfg.StrictLimiter, middleware.KeyByIP, fail, auditLog)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger(logger))
	r.Use(metrics.HTTPMetricsMiddleware)
	r.Use(middleware.SecurityHeaders(cfg.Production))
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.SanitizeInputs(fail, logger))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		fail(w, r, domain.NotFound("route"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		render.Status(r, http.StatusMethodNotAllowed)
		render.JSON(w, r, Envelope{
			Message:   "Method not allowed",
			ErrorCode: ErrorCode(http.StatusMethodNotAllowed),
		})
	})

	health := NewHealthHandler(cfg.Health, logger)
	r.Get("/healthz", health.Health)
	r.Get("/readyz", health.Ready)
	r.Handle("/metrics", promhttp.Handler())
	if cfg.Uploads != nil {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", noListing(cfg.Uploads)))
	}

	authH := NewAuthHandler(svc.Auth, fail, logger)
	r.Route("/api", func(api chi.Router) {
		api.Route("/auth", func(ar chi.Router) {
			ar.Group(func(pub chi.Router) {
				pub.Use(strict, jsonBody, jsonOnly)
				pub.Post("/login", authH.Login)
				pub.Post("/register", authH.Register)
			})
			ar.Group(func(priv chi.Router) {
				priv.Use(authn, perOrg, middleware.Audit(auditLog), jsonBody, jsonOnly)
				priv.Get("/me", authH.Me)
				priv.Post("/change-password", authH.ChangePassword)
				priv.Post("/refresh", authH.Refresh)
			})
		})

		if svc.Public != nil {
			api.With(perIP).Mount("/public", NewPublicHandler(svc.Public, fail).Routes())
		}

		api.Group(func(g chi.Router) {
			g.Use(authn, perOrg, middleware.Audit(auditLog))
			if cfg.Events != nil {
				g.Get("/events", NewEventsHandler(cfg.Events, cfg.AllowedOrigins, fail, logger).ServeHTTP)
			}

			g.Group(func(j chi.Router) {
				j.Use(jsonBody, jsonOnly)
				j.Mount("/organizations", NewOrganizationHandler(svc.Organizations, fail).Routes())
				j.Mount("/users", NewUserHandler(svc.Users, fail).Routes())
				j.Mount("/content-types", NewContentTypeHandler(svc.ContentTypes, fail).Routes())
				j.Mount("/content", NewContentHandler(svc.Contents, fail).Routes())
				j.Mount("/categories", NewTaxonomyHandler(svc.Categories, fail).Routes())
				j.Mount("/tags", NewTaxonomyHandler(svc.Tags, fail).Routes())
			})

			g.With(
				middleware.LimitBody(svc.Media.MaxBytes()+multipartOverhead, fail),
				middleware.RequireContentType(fail, logger, "application/json", "multipart/form-data"),
			).Mount("/media", NewMediaHandler(svc.Media, fail).Routes())
		})
	})
	return r
}

// noListing hides directory indexes of the static file server.
func noListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
