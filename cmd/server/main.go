// Package main runs the booking API server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/brightpath-tutoring/backend/config"
	"github.com/brightpath-tutoring/backend/internal/admin"
	"github.com/brightpath-tutoring/backend/internal/adminsession"
	"github.com/brightpath-tutoring/backend/internal/availability"
	"github.com/brightpath-tutoring/backend/internal/blocks"
	"github.com/brightpath-tutoring/backend/internal/bookings"
	"github.com/brightpath-tutoring/backend/internal/content"
	"github.com/brightpath-tutoring/backend/internal/discounts"
	"github.com/brightpath-tutoring/backend/internal/middleware"
	"github.com/brightpath-tutoring/backend/internal/ratelimit"
	"github.com/brightpath-tutoring/backend/pkg/database"
	"github.com/brightpath-tutoring/backend/pkg/queue"
	"github.com/brightpath-tutoring/backend/pkg/redis"
	"github.com/brightpath-tutoring/backend/pkg/response"
	"github.com/brightpath-tutoring/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	if cfg.Server.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), database.PoolOptions{}, logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, logger); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	// Redis is optional: without it the login limiter counts in-process and
	// booking notifications are not queued.
	var rdb *redis.Client
	if cfg.Redis.Enabled() {
		rdb, err = redis.NewClient(ctx, redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Timeout:  cfg.Redis.Timeout(),
		}, logger)
		if err != nil {
			logger.Warn("redis unavailable, using in-memory login limiter", zap.Error(err))
			rdb = nil
		} else {
			defer rdb.Close()
		}
	} else {
		logger.Info("REDIS_ADDR not set, using in-memory login limiter")
	}

	var objects content.ObjectStore
	if cfg.AWS.ContentBucket != "" {
		s3Client, err := storage.NewS3(ctx, storage.S3Config{
			Region:          cfg.AWS.Region,
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
			Bucket:          cfg.AWS.ContentBucket,
		}, logger)
		if err != nil {
			logger.Warn("s3 disabled, settings are read-only", zap.Error(err))
		} else {
			objects = s3Client
		}
	}

	// Login limiter
	policy := ratelimit.Policy{Window: cfg.RateLimit.Window(), MaxAttempts: cfg.RateLimit.MaxAttempts}
	var stores []ratelimit.Store
	if rdb != nil {
		stores = append(stores, ratelimit.NewRedisStore(rdb.Client, policy, cfg.Redis.Timeout(), logger))
	}
	stores = append(stores, ratelimit.NewMemoryStore(policy, nil))
	limiter := ratelimit.NewLimiter(logger, stores...)

	// Admin session
	secret, err := adminsession.ResolveSecret(cfg.Admin.SessionSecret, cfg.Admin.Password, cfg.Server.Production())
	if err != nil {
		logger.Error("admin session secret missing, admin login disabled", zap.Error(err))
	}
	sessions := adminsession.NewService(secret, cfg.Admin.SessionTTL(), nil)
	cookies := adminsession.NewCookies(sessions, cfg.Server.Production())
	creds := admin.Credentials{Password: cfg.Admin.Password, PasswordHash: cfg.Admin.PasswordHash}
	if !creds.Configured() {
		logger.Error("ADMIN_PASSWORD / ADMIN_PASSWORD_HASH not set, admin login disabled")
	}

	// Repositories and services
	blockRepo := blocks.NewRepository(pool)
	discountRepo := discounts.NewRepository(pool)
	bookingRepo := bookings.NewRepository(pool)
	evaluator := discounts.NewEvaluator(discountRepo, nil)
	checker := availability.NewChecker(blockRepo)
	settings := content.NewReader(content.ReaderConfig{
		Objects:  objects,
		Key:      cfg.AWS.SettingsKey,
		File:     cfg.Content.SettingsFile,
		CacheTTL: time.Duration(cfg.Content.CacheTTLSeconds) * time.Second,
	}, logger)

	var notifier bookings.Notifier
	if rdb != nil {
		notifier = queue.NewQueue(rdb.Client, logger)
	} else {
		logger.Info("booking notifications disabled (no redis)")
	}
	bookingService := bookings.NewService(bookingRepo, checker, evaluator, settings, notifier, logger)

	// Handlers
	adminHandler := admin.NewHandler(creds, limiter, sessions, cookies, logger)
	blockHandler := blocks.NewHandler(blockRepo, evaluator, logger)
	discountHandler := discounts.NewHandler(discountRepo, logger)
	bookingHandler := bookings.NewHandler(bookingService, logger)
	settingsHandler := content.NewHandler(settings, logger)

	router := gin.New()
	// ClientIP keys the login limiter, so forwarded headers count only from configured proxies.
	if err := router.SetTrustedProxies(cfg.Server.TrustedProxyList()); err != nil {
		logger.Fatal("trusted proxies", zap.Error(err))
	}
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger, "/health"))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Public
	router.GET("/settings", settingsHandler.Get)
	router.GET("/blocks", blockHandler.List)
	router.GET("/blocks/:id", blockHandler.Get)
	router.GET("/blocks/:id/availability", blockHandler.Availability)
	router.POST("/blocks/:id/quote", blockHandler.Quote)
	router.POST("/bookings", bookingHandler.Create)

	// Admin auth (public)
	router.POST("/admin/login", adminHandler.Login)
	router.POST("/admin/logout", adminHandler.Logout)
	router.GET("/admin/session", adminHandler.Session)

	// Admin API (session cookie required)
	api := router.Group("/admin")
	api.Use(middleware.RequireAdmin(cookies))
	{
		api.GET("/blocks", blockHandler.AdminList)
		api.POST("/blocks", blockHandler.Create)
		api.PUT("/blocks/:id", blockHandler.Update)

		api.GET("/discounts", discountHandler.List)
		api.POST("/discounts", discountHandler.Create)
		api.PATCH("/discounts/:id", discountHandler.SetStatus)

		api.GET("/bookings", bookingHandler.List)
		api.GET("/bookings/:id", bookingHandler.Get)
		api.POST("/bookings/:id/payments", bookingHandler.RecordPayment)
		api.POST("/bookings/:id/cancel", bookingHandler.Cancel)
		api.POST("/bookings/:id/refund", bookingHandler.Refund)

		api.PUT("/settings", settingsHandler.Update)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
