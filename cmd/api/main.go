package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oftalmo/records/internal/auth"
	"github.com/oftalmo/records/internal/config"
	"github.com/oftalmo/records/internal/db"
	"github.com/oftalmo/records/internal/domain/user"
	httpx "github.com/oftalmo/records/internal/http"
	"github.com/oftalmo/records/internal/observability"
	"github.com/oftalmo/records/internal/ratelimit"
	"github.com/oftalmo/records/internal/redisclient"
	"github.com/oftalmo/records/internal/repo/postgres"
	"github.com/oftalmo/records/internal/security"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	shutdownTracer, err := observability.InitTracer(context.Background(), "oftalmo-records", cfg.Env, cfg.OTLPEndpoint)
	if err != nil {
		log.Error("tracer init failed", "err", err)
		os.Exit(1)
	}

	pool, err := db.NewPool(cfg.DBURL, cfg.DBMaxConns)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if cfg.RunMigrations {
		ctx, cancel := config.WithTimeout(30 * time.Second)
		err := db.Migrate(ctx, pool)
		cancel()
		if err != nil {
			log.Error("migrations failed", "err", err)
			os.Exit(1)
		}
	}

	prom := observability.NewProm(prometheus.DefaultRegisterer)

	// wire up repositories
	usersRepo := postgres.NewUsersRepo(pool, prom)
	patientsRepo := postgres.NewPatientsRepo(pool, prom)
	recordsRepo := postgres.NewClinicalRecordsRepo(pool, prom)

	hasher := security.NewHasher(cfg.BcryptCost)

	seedCtx, seedCancel := config.WithTimeout(10 * time.Second)
	created, err := db.EnsureUser(seedCtx, usersRepo, hasher, db.SeedUser{
		Username: cfg.AdminUsername,
		Password: cfg.AdminPassword,
		Name:     cfg.AdminName,
		Role:     user.RoleAdmin,
	})
	seedCancel()
	if err != nil {
		log.Error("admin seed failed", "err", err)
		os.Exit(1)
	}
	if created {
		log.Info("admin user created", "username", cfg.AdminUsername)
	}

	limiter, closeLimiter := loginLimiter(cfg, log)
	defer closeLimiter()

	tokens := auth.NewManager(cfg.JWTSecret, cfg.JWTExpiresIn)
	authService := auth.NewService(usersRepo, hasher, tokens, prom.ObserveLogin)

	// set up routers with the deps
	router := httpx.NewRouter(httpx.Deps{
		Config:   cfg,
		Log:      log,
		Prom:     prom,
		DB:       pool,
		Auth:     authService,
		Patients: patientsRepo,
		Records:  recordsRepo,
		Limiter:  limiter,
	})

	// server set up
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}

		if err := shutdownTracer(ctx); err != nil {
			log.Error("tracer shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}

// loginLimiter prefers a shared redis window and falls back to process memory.
func loginLimiter(cfg config.Config, log *slog.Logger) (ratelimit.Limiter, func()) {
	memoryLimiter := ratelimit.NewMemory(cfg.LoginRateLimit, cfg.LoginRateWindow)
	if cfg.RedisAddr == "" {
		return memoryLimiter, func() {}
	}

	rdb := redisclient.New(redisclient.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	if err := rdb.Ping(ctx); err != nil {
		log.Warn("redis unavailable, using in-memory login limiter", "addr", cfg.RedisAddr, "err", err)
		_ = rdb.Close()
		return memoryLimiter, func() {}
	}

	limiter := ratelimit.NewRedis(rdb.Raw(), "oftalmo:login", cfg.LoginRateLimit, cfg.LoginRateWindow)
	return limiter, func() { _ = rdb.Close() }
}
