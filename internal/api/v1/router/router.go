package router

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	_ "formation/docs"
	"formation/internal/api/v1/dto"
	"formation/internal/api/v1/handler"
	"formation/internal/apiclient"
	"formation/internal/config"
	"formation/internal/database"
	"formation/internal/enrollment"
	"formation/internal/landing"
	"formation/internal/locale"
	"formation/internal/middleware"
	"formation/internal/pgmq"
	"formation/internal/pubsub"
	"formation/internal/repository"
	"formation/internal/repository/inmem"
	"formation/internal/service"
	"formation/internal/storage"

	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/swaggo/swag"
)

// pingFunc adapts a plain function to handler.Pinger.
type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

// New wires every dependency and returns the root handler. The returned
// cleanup releases pools and clients and must be called after the server
// stopped accepting requests.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (http.Handler, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	logger.Info().Str("environment", cfg.Environment).Msg("App environment loaded")

	checks := map[string]handler.Pinger{}

	// 1. Postgres: enrollments, quiz attempts and the progress sync queue.
	var (
		pool         *pgxpool.Pool
		enrollRepo   repository.EnrollmentRepository
		attemptsRepo repository.QuizAttemptRepository
		queue        enrollment.Queue
	)
	if cfg.DBConnectionString != "" {
		var err error
		pool, err = database.Open(ctx, cfg, logger)
		if err != nil {
			return nil, cleanup, err
		}
		closers = append(closers, pool.Close)
		checks["database"] = pool

		enrollRepo = repository.NewEnrollmentRepo(pool)
		attemptsRepo = repository.NewQuizAttemptRepo(pool)
		queue = pgmq.New(pool)
	} else {
		logger.Warn().Msg("DB_CONNECTION_STRING is empty, enrollments are kept in memory and progress sync is disabled")
		enrollRepo = inmem.NewEnrollmentRepo()
		attemptsRepo = inmem.NewQuizAttemptRepo()
	}

	// 2. Landing page cache store.
	var store landing.Store
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, cleanup, fmt.Errorf("failed to parse REDIS_URL: %w", err)
		}
		rdb := redis.NewClient(opts)
		closers = append(closers, func() { _ = rdb.Close() })
		checks["redis"] = pingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
		// Entries outlive the TTL so a stale page can be served during a refetch.
		store = landing.NewRedisStore(rdb, 10*cfg.LandingCacheTTL())
	} else {
		store = landing.NewMemoryStore()
	}

	// 3. Media storage.
	s3Client, err := storage.NewS3Client(ctx, cfg)
	if err != nil {
		return nil, cleanup, err
	}
	if s3Client == nil {
		logger.Warn().Msg("S3 credentials are empty, media uploads are disabled")
	}

	// 4. Pub/Sub publisher.
	var publisher pubsub.Publisher = pubsub.NopPublisher{}
	if cfg.GCPProjectID != "" {
		p, err := pubsub.NewPublisher(ctx, cfg)
		if err != nil {
			return nil, cleanup, err
		}
		closers = append(closers, func() { _ = p.Close() })
		publisher = p
	}

	// 5. Upstream API, caches and services.
	client := apiclient.New(cfg.APIBaseURL, cfg.APITimeout(), logger)
	locales := locale.NewMatcher(cfg.SupportedLocales)
	validate := dto.NewValidator()

	landingSvc := landing.NewService(client, store, landing.Options{
		TTL:          cfg.LandingCacheTTL(),
		Cooldown:     cfg.LandingRefetchCooldown(),
		CourseLimit:  cfg.LandingCourseLimit,
		FetchTimeout: cfg.APITimeout(),
		Locales:      locales.Supported(),
	}, logger)
	closers = append(closers, landingSvc.Wait)

	tracker := enrollment.NewTracker(enrollRepo, attemptsRepo, queue, publisher, enrollment.Config{
		QueueName: cfg.ProgressSyncQueueName,
		Topic:     cfg.EnrollmentTopic,
	}, logger)

	mediaSvc := service.NewMediaService(s3Client, cfg.S3Bucket, cfg.S3URLTTL(), logger)
	authSvc := service.NewAuthService(client, logger)
	catalogSvc := service.NewCatalogService(client)
	studentSvc := service.NewStudentService(client, tracker, logger)
	certificateSvc := service.NewCertificateService(client, mediaSvc)
	contactSvc := service.NewContactService(client, publisher, cfg.ContactTopic, logger)
	adminSvc := service.NewAdminService(client, landingSvc, logger)
	exportSvc := service.NewExportService(client, enrollRepo, logger)

	// 6. Handlers.
	handlers := []interface {
		RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler)
	}{
		handler.NewLandingHandler(landingSvc, locales, logger),
		handler.NewAuthHandler(authSvc, validate, logger),
		handler.NewCourseHandler(catalogSvc, locales, logger),
		handler.NewEnrollmentHandler(studentSvc, validate, logger),
		handler.NewCertificateHandler(certificateSvc, logger),
		handler.NewContactHandler(contactSvc, validate, logger),
		handler.NewAdminHandler(adminSvc, mediaSvc, exportSvc, validate, logger),
		handler.NewHealthHandler(checks),
	}

	// 7. Authentication.
	var resolver middleware.IdentityResolver
	if cfg.JWTSecret != "" {
		resolver = middleware.JWTResolver{KeyMaterial: cfg.JWTSecret}
	} else {
		resolver = middleware.NewUpstreamResolver(client.Me, time.Minute)
	}
	authMiddleware := middleware.AuthMiddleware(resolver, logger)

	// 8. Routes.
	apiV1Mux := http.NewServeMux()
	for _, h := range handlers {
		h.RegisterRoutes(apiV1Mux, authMiddleware)
	}

	mux := http.NewServeMux()
	mux.Handle("/v1/", http.StripPrefix("/v1", apiV1Mux))

	mux.HandleFunc("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		doc, err := swag.ReadDoc()
		if err != nil {
			http.Error(w, "Failed to read API documentation: "+err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(doc))
	})

	// Redirect /api/* to /v1/* for older clients
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/api/")
		rest = strings.TrimPrefix(rest, "v1/")
		target := "/v1/" + rest
		if r.URL.RawQuery != "" {
			target += "?" + r.URL.RawQuery
		}
		http.Redirect(w, r, target, http.StatusMovedPermanently)
	})

	corsOpts := corsOptions(cfg.CORSAllowedOrigins)
	if !corsOpts.AllowCredentials {
		logger.Warn().Msg("CORS allows any origin; credentials are disabled")
	}
	c := cors.New(corsOpts)

	logger.Info().Msg("Router initialized")
	return middleware.LoggerMiddleware(logger)(c.Handler(mux)), cleanup, nil
}

// corsOptions allows credentials only for an explicit origin list. A
// wildcard origin is served without them.
func corsOptions(origins []string) cors.Options {
	wildcard := false
	for _, o := range origins {
		if o == "*" {
			wildcard = true
		}
	}
	return cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "Accept-Language"},
		ExposedHeaders:   []string{"Content-Language", "Content-Disposition"},
		AllowCredentials: !wildcard,
	}
}
