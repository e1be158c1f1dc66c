package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aryan0dhankhar/tenantcms/internal/domain"
	"github.com/aryan0dhankhar/tenantcms/internal/events"
	"github.com/aryan0dhankhar/tenantcms/internal/featureflags"
	"github.com/aryan0dhankhar/tenantcms/internal/handler"
	"github.com/aryan0dhankhar/tenantcms/internal/infrastructure/logger"
	"github.com/aryan0dhankhar/tenantcms/internal/infrastructure/redis"
	"github.com/aryan0dhankhar/tenantcms/internal/observability/tracing"
	"github.com/aryan0dhankhar/tenantcms/internal/reliability/circuitbreaker"
	"github.com/aryan0dhankhar/tenantcms/internal/repository"
	"github.com/aryan0dhankhar/tenantcms/internal/repository/memory"
	"github.com/aryan0dhankhar/tenantcms/internal/security"
	"github.com/aryan0dhankhar/tenantcms/internal/security/audit"
	"github.com/aryan0dhankhar/tenantcms/internal/security/auth"
	"github.com/aryan0dhankhar/tenantcms/internal/security/ratelimit"
	"github.com/aryan0dhankhar/tenantcms/internal/security/strength"
	"github.com/aryan0dhankhar/tenantcms/internal/service"
	"github.com/aryan0dhankhar/tenantcms/internal/storage"
	"github.com/aryan0dhankhar/tenantcms/internal/upload"
	"github.com/aryan0dhankhar/tenantcms/internal/worker"
	"github.com/aryan0dhankhar/tenantcms/pkg/cache"
	"github.com/aryan0dhankhar/tenantcms/pkg/config"
	"github.com/aryan0dhankhar/tenantcms/pkg/database"
)

type repositories struct {
	orgs       domain.OrganizationRepository
	users      domain.UserRepository
	types      domain.ContentTypeRepository
	contents   domain.ContentRepository
	categories domain.TermRepository
	tags       domain.TermRepository
	media      domain.MediaRepository
}

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize structured logger
	log := logger.NewLogger(cfg.LogLevel, cfg.IsProduction())
	slog.SetDefault(log)
	log.Info("starting tenantcms server", slog.String("environment", cfg.Environment))

	if err := run(cfg, log); err != nil {
		log.Error("server failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. Refuse to sign tokens with a weak secret in production
	if err := checkSecret(cfg, log); err != nil {
		return err
	}

	shutdownTracing, err := tracing.Init(ctx, log, cfg.Telemetry, cfg.Environment)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Warn("tracing shutdown failed", slog.String("error", err.Error()))
		}
	}()

	checks := make(map[string]handler.Pinger)

	// 4. Repositories
	repos, closeDB, err := openRepositories(ctx, cfg, log, checks)
	if err != nil {
		return err
	}
	defer closeDB()

	// 5. Cache
	store, memCache, closeCache, err := openCache(ctx, cfg, log, checks)
	if err != nil {
		return err
	}
	defer closeCache()

	// 6. File storage
	files, uploads, err := openStorage(ctx, cfg, log)
	if err != nil {
		return err
	}

	// 7. Services
	hub := events.NewHub(log)
	authz := security.NewAuthorizationService(log)
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	validator := upload.NewValidator(
		upload.WithAbsoluteMax(cfg.Upload.MaxBytes),
		upload.WithLimit(upload.KindImage, cfg.Upload.ImageMaxBytes),
		upload.WithLimit(upload.KindDocument, cfg.Upload.DocumentMaxBytes),
		upload.WithLimit(upload.KindVideo, cfg.Upload.VideoMaxBytes),
		upload.WithLimit(upload.KindAudio, cfg.Upload.AudioMaxBytes),
	)

	services := handler.Services{
		Auth:          service.NewAuthService(repos.users, repos.orgs, tokens, cfg.Auth.AllowRegistration, log),
		Organizations: service.NewOrganizationService(repos.orgs, repos.users, authz, hub, log),
		Users:         service.NewUserService(repos.users, repos.orgs, authz, hub, log),
		ContentTypes:  service.NewContentTypeService(repos.types, repos.contents, authz, store, hub, log),
		Contents:      service.NewContentService(repos.contents, repos.types, repos.categories, repos.tags, authz, store, cfg.Cache.TTL, hub, log),
		Categories:    service.NewTaxonomyService(repos.categories, repos.contents, authz, store, hub, log),
		Tags:          service.NewTaxonomyService(repos.tags, repos.contents, authz, store, hub, log),
		Media:         service.NewMediaService(repos.media, files, validator, authz, hub, log),
	}
	if featureflags.Enabled(featureflags.PublicAPI, true) {
		services.Public = service.NewPublicService(repos.orgs, repos.types, repos.contents, repos.categories, repos.tags, store, cfg.Cache.TTL, log)
	}

	// 8. Rate limiting and housekeeping
	sweeper := worker.NewSweeper(cfg.Cache.SweepInterval, log)
	var limiter, strict *ratelimit.Limiter
	if cfg.RateLimit.Enabled {
		limiter = ratelimit.NewLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
		strict = ratelimit.NewLimiter(cfg.RateLimit.StrictRequests, cfg.RateLimit.StrictWindow)
		sweeper.Register("ratelimit", func(context.Context) (int, error) { return limiter.Prune(), nil })
		sweeper.Register("ratelimit_strict", func(context.Context) (int, error) { return strict.Prune(), nil })
	}
	if memCache != nil {
		sweeper.Register("cache", memCache.Sweep)
	}

	routerCfg := handler.RouterConfig{
		Services:       services,
		Health:         checks,
		Uploads:        uploads,
		Limiter:        limiter,
		StrictLimiter:  strict,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Production:     cfg.IsProduction(),
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		Logger:         log,
		Audit:          audit.NewLogger(log),
	}
	if featureflags.Enabled(featureflags.Events, true) {
		routerCfg.Events = hub
	}
	router := handler.NewRouter(routerCfg)

	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()
	go sweeper.Start(workerCtx)

	// 9. HTTP server
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           tracing.Handler(router, cfg.Telemetry.ServiceName),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	log.Info("server starting",
		slog.Int("port", cfg.Server.Port),
		slog.String("db_driver", cfg.Database.Driver),
		slog.String("cache_driver", cfg.Cache.Driver),
		slog.String("storage_driver", cfg.Storage.Driver),
		slog.Bool("rate_limit", cfg.RateLimit.Enabled),
	)

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	cancelWorkers()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func checkSecret(cfg *config.Config, log *slog.Logger) error {
	res := strength.JWTSecret(cfg.Auth.JWTSecret)
	if res.Valid {
		for _, w := range res.Warnings {
			log.Warn("jwt secret warning", slog.String("warning", w))
		}
		return nil
	}
	if cfg.IsProduction() {
		return fmt.Errorf("JWT_SECRET rejected: %v", res.Errors)
	}
	for _, e := range res.Errors {
		log.Warn("weak jwt secret, refusing this in production", slog.String("problem", e))
	}
	return nil
}

func openRepositories(ctx context.Context, cfg *config.Config, log *slog.Logger, checks map[string]handler.Pinger) (repositories, func(), error) {
	if cfg.Database.Driver == "memory" {
		log.Warn("using in-memory repositories, data is lost on restart")
		s := memory.New()
		return repositories{
			orgs:       s.Organizations(),
			users:      s.Users(),
			types:      s.ContentTypes(),
			contents:   s.Contents(),
			categories: s.Categories(),
			tags:       s.Tags(),
			media:      s.Media(),
		}, func() {}, nil
	}

	pool, err := database.NewConnectionPool(ctx, cfg.Database, log)
	if err != nil {
		return repositories{}, nil, err
	}
	closeDB := func() {
		if err := pool.Close(); err != nil {
			log.Warn("database close failed", slog.String("error", err.Error()))
		}
	}

	db := pool.GetDB()
	if cfg.Database.AutoMigrate {
		applied, err := database.Migrate(ctx, db, log)
		if err != nil {
			closeDB()
			return repositories{}, nil, fmt.Errorf("migrate: %w", err)
		}
		log.Info("migrations checked", slog.Int("applied", len(applied)))
	}
	checks["database"] = handler.PingFunc(pool.Health)

	return repositories{
		orgs:       repository.NewPostgresOrganizationRepository(db, log),
		users:      repository.NewPostgresUserRepository(db, log),
		types:      repository.NewPostgresContentTypeRepository(db, log),
		contents:   repository.NewPostgresContentRepository(db, log),
		categories: repository.NewPostgresCategoryRepository(db, log),
		tags:       repository.NewPostgresTagRepository(db, log),
		media:      repository.NewPostgresMediaRepository(db, log),
	}, closeDB, nil
}

// openCache returns the query cache. The in-memory cache is also returned on
// its own so the sweeper can expire entries; redis expires keys itself.
func openCache(ctx context.Context, cfg *config.Config, log *slog.Logger, checks map[string]handler.Pinger) (cache.Store, *cache.Cache, func(), error) {
	if cfg.Cache.Driver != "redis" {
		c := cache.New()
		return c, c, func() {}, nil
	}
	client, err := redis.NewClient(ctx, cfg.Redis.URL, log)
	if err != nil {
		return nil, nil, nil, err
	}
	checks["redis"] = handler.PingFunc(client.Ping)
	closeCache := func() {
		if err := client.Close(); err != nil {
			log.Warn("redis close failed", slog.String("error", err.Error()))
		}
	}
	return redis.NewCacheStore(client, cfg.Cache.KeyPrefix, log), nil, closeCache, nil
}

// openStorage returns the media file store and, for the local driver, the
// handler serving stored files under /uploads.
func openStorage(ctx context.Context, cfg *config.Config, log *slog.Logger) (domain.FileStore, http.Handler, error) {
	switch cfg.Storage.Driver {
	case "s3":
		s3Store, err := storage.NewS3Store(ctx, cfg.Storage.S3, log)
		if err != nil {
			return nil, nil, fmt.Errorf("init s3 storage: %w", err)
		}
		return storage.NewBreakerStore(s3Store, circuitbreaker.Settings{
			Name:             "s3",
			FailureThreshold: cfg.Storage.S3.BreakerFailures,
			SuccessThreshold: 2,
			Cooldown:         cfg.Storage.S3.BreakerCooldown,
		}, log), nil, nil
	case "memory":
		log.Warn("using in-memory file storage, uploads are lost on restart")
		return storage.NewMemoryStore(cfg.Storage.Local.PublicURL), nil, nil
	default:
		local, err := storage.NewLocalStore(cfg.Storage.Local.Root, cfg.Storage.Local.PublicURL, log)
		if err != nil {
			return nil, nil, fmt.Errorf("init local storage: %w", err)
		}
		return local, http.FileServer(http.Dir(local.Root())), nil
	}
}
