// Package main is the entry point for the LLMAware API server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"llmaware/internal/cache"
	"llmaware/internal/cms"
	"llmaware/internal/config"
	"llmaware/internal/database"
	"llmaware/internal/handlers"
	"llmaware/internal/logger"
	"llmaware/internal/middleware"
	"llmaware/internal/router"
	"llmaware/internal/session"
	"llmaware/internal/storage"
	"llmaware/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// No logger yet; fall back to a production one for this single line.
		zap.Must(zap.NewProduction()).Fatal("failed to load configuration", zap.Error(err))
	}

	log, err := logger.New(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile})
	if err != nil {
		zap.Must(zap.NewProduction()).Fatal("failed to build logger", zap.Error(err))
	}
	defer log.Sync()
	zap.ReplaceGlobals(log)

	log.Info("configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("addr", cfg.Addr()),
		zap.Bool("storage", cfg.StorageEnabled()),
	)

	ctx := context.Background()

	db, err := database.Connect(ctx, cfg.DSN())
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Seed development data (no-op if data already exists).
	if cfg.IsDev() {
		if err := database.Seed(ctx, db); err != nil {
			log.Fatal("failed to seed database", zap.Error(err))
		}
	}

	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		log.Fatal("failed to connect to valkey", zap.Error(err))
	}
	defer valkeyClient.Close()

	secureCookies := !cfg.IsDev()
	sessionStore := session.NewStore(valkeyClient, secureCookies)

	opts := cms.Options{
		Clock:  time.Now,
		Logger: log,
		Fanout: cfg.ListingFanout,
	}
	if cfg.ListingCacheTTL > 0 {
		opts.Cache = cache.NewListingCache(valkeyClient, cfg.ListingCacheTTL)
	} else {
		log.Info("listing cache disabled")
	}

	// Object storage is optional; without it author pictures are rejected.
	storageClient, err := storage.New(
		cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey,
		cfg.S3Bucket, cfg.S3PublicURL,
	)
	if err != nil {
		log.Fatal("failed to initialize S3 storage", zap.Error(err))
	}
	if storageClient != nil {
		opts.Storage = storageClient
		log.Info("s3 storage connected",
			zap.String("endpoint", cfg.S3Endpoint),
			zap.String("bucket", storageClient.Bucket()),
		)
	} else {
		log.Warn("s3 storage not configured, author pictures disabled")
	}

	userStore := store.NewUserStore(db)
	repos := cms.Repositories{
		Posts:      store.NewPostStore(db),
		Categories: store.NewCategoryStore(db),
		Tags:       store.NewTagStore(db),
		Authors:    store.NewAuthorStore(db),
		Featured:   store.NewFeaturedStore(db),
		Views:      store.NewViewStore(db),
	}

	listing := cms.NewListing(repos, opts)
	svc := handlers.Services{
		Posts:    cms.NewPosts(repos, opts),
		Taxonomy: cms.NewTaxonomy(repos, opts),
		Authors:  cms.NewAuthors(repos, opts),
		Featured: cms.NewFeatured(repos, opts, listing),
		Listing:  listing,
		Views:    cms.NewViews(repos, opts),
	}

	loginLimiter := middleware.NewRateLimiter(cfg.LoginRatePerMinute, time.Minute)
	defer loginLimiter.Stop()

	r := router.New(router.Deps{
		Sessions:      sessionStore,
		Admins:        userStore,
		Auth:          handlers.NewAuth(userStore, sessionStore, log),
		Admin:         handlers.NewAdmin(svc, log),
		Public:        handlers.NewPublic(svc, log),
		LoginLimiter:  loginLimiter,
		CORSOrigins:   cfg.CORSOrigins,
		SecureCookies: secureCookies,
		Logger:        log,
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("server starting", zap.String("addr", cfg.Addr()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed to start", zap.Error(err))
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutdown signal received", zap.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
		return
	}

	log.Info("server stopped gracefully")
}
