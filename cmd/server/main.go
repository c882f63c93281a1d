package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mdhaarishussain/Yuvshiksha/internal/config"
	"github.com/mdhaarishussain/Yuvshiksha/internal/database"
	"github.com/mdhaarishussain/Yuvshiksha/internal/handlers"
	"github.com/mdhaarishussain/Yuvshiksha/internal/location"
	"github.com/mdhaarishussain/Yuvshiksha/internal/middleware"
	"github.com/mdhaarishussain/Yuvshiksha/internal/migrations"
	"github.com/mdhaarishussain/Yuvshiksha/internal/realtime"
	"github.com/mdhaarishussain/Yuvshiksha/internal/routes"
	"github.com/mdhaarishussain/Yuvshiksha/internal/services"
	"github.com/mdhaarishussain/Yuvshiksha/pkg/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// 0. Load Config & Initialize Logger
	config.LoadConfig()
	cfg := config.AppConfig

	logger.Init(cfg.Env)
	logger.Info().Str("environment", cfg.Env).Msg("Starting Yuvshiksha messaging backend...")

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
		if cfg.JWTSecret == "" {
			logger.Fatal().Msg("JWT_SECRET must be set in production")
		}
	}

	// 1. Connect Database & Redis
	database.Connect()
	database.InitRedis()

	logger.Info().Msg("Running database migrations...")
	if err := database.AutoMigrate(database.DB); err != nil {
		logger.Fatal().Err(err).Msg("Failed to migrate tables")
	}
	if err := migrations.NewMigrator(database.DB).Run(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// 2. Locale for address parsing
	if cfg.LocaleFile != "" {
		locale, err := location.LoadLocale(cfg.LocaleFile)
		if err != nil {
			logger.Fatal().Err(err).Str("file", cfg.LocaleFile).Msg("Failed to load locale")
		}
		location.SetDefault(locale)
		logger.Info().Str("file", cfg.LocaleFile).Msg("Loaded custom locale")
	}

	// 3. Services
	messageService := services.NewMessageService(database.DB)
	teacherService := services.NewTeacherService(database.DB)
	if database.Redis != nil && cfg.RecommendationCacheTTL > 0 {
		teacherService.WithCache(database.NewRedisCache(database.Redis, "yuvshiksha:"), cfg.RecommendationCacheTTL)
	}
	notificationService := services.NewNotificationService(database.DB, nil)

	// 4. Realtime
	socketServer := handlers.NewSocketServer(cfg.AllowedOrigins(), cfg.SocketRequireToken)

	var presenceStore realtime.PresenceStore = realtime.NewMemoryPresence()
	var sendLimiter realtime.Limiter = middleware.ChatLimiter
	if cfg.PresenceBackend == "redis" {
		if database.Redis == nil {
			logger.Fatal().Msg("PRESENCE_BACKEND=redis requires a reachable Redis")
		}
		presenceStore = realtime.NewRedisPresence(database.Redis, "")
		sendLimiter = database.NewRedisLimiter(database.Redis, 30, time.Minute)
	}
	presence := realtime.NewPresence(presenceStore, socketServer)
	notificationService.SetPusher(presence)

	socketHandler := realtime.NewHandler(messageService, presence, socketServer,
		realtime.WithNotifier(notificationService),
		realtime.WithLimiter(sendLimiter),
	)
	socketServer.Bind(socketHandler)
	go socketServer.Serve()
	defer socketServer.Close()

	// 5. Retention of soft-deleted messages
	rootCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()
	if cfg.RetentionEnabled {
		sweeper, err := services.NewRetentionSweeper(messageService, cfg.RetentionCron, cfg.RetentionPeriod)
		if err != nil {
			logger.Fatal().Err(err).Msg("Invalid message retention settings")
		}
		sweeper.Start(rootCtx)
	}

	// 6. Setup Router
	r := gin.New()
	r.Use(middleware.LoggingMiddleware())
	r.Use(middleware.ErrorHandlerMiddleware())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins()))

	// Exempt /socket.io from rate limiting
	r.Use(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/socket.io/") {
			c.Next()
			return
		}
		middleware.GeneralRateLimit()(c)
	})

	api := r.Group("/api")
	{
		routes.RegisterMessageRoutes(api, handlers.NewMessageHandler(messageService))
		routes.RegisterTeacherRoutes(api, handlers.NewTeacherHandler(teacherService))
		routes.RegisterNotificationRoutes(api, handlers.NewNotificationHandler(notificationService))
	}

	// Health check with DB and Redis status
	r.GET("/health", func(c *gin.Context) {
		dbStatus := "ok"
		redisStatus := "ok"

		if err := database.Ping(database.DB); err != nil {
			dbStatus = "error"
		}

		if database.Redis != nil {
			if _, err := database.Redis.Ping(c.Request.Context()).Result(); err != nil {
				redisStatus = "error"
			}
		} else {
			redisStatus = "not configured"
		}

		status := "ok"
		if dbStatus != "ok" || redisStatus == "error" {
			status = "degraded"
		}

		c.JSON(http.StatusOK, gin.H{
			"status": status,
			"checks": gin.H{
				"database": dbStatus,
				"redis":    redisStatus,
			},
		})
	})

	if cfg.MetricsEnabled {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	r.GET("/socket.io/*any", socketServer.Handler())
	r.POST("/socket.io/*any", socketServer.Handler())

	// 7. Start Server with graceful shutdown
	port := cfg.Port
	if port == "" {
		port = "5000"
	}

	// No WriteTimeout: polling requests are held open by socket.io
	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		logger.Info().Str("port", port).Str("env", cfg.Env).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server gracefully...")
	stopBackground()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited gracefully")
}
