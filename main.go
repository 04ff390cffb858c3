package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"restaurant-platform-api/cache"
	"restaurant-platform-api/config"
	"restaurant-platform-api/events"
	"restaurant-platform-api/filestore"
	"restaurant-platform-api/handlers"
	"restaurant-platform-api/logger"
	"restaurant-platform-api/metrics"
	"restaurant-platform-api/middleware"
	"restaurant-platform-api/routes"
	"restaurant-platform-api/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	serviceName = "restaurant-platform-api"
	version     = "1.0.0"
)

func main() {
	cfg, err := config.Load(serviceName)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLog, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Environment: cfg.Server.Env,
		ServiceName: serviceName,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = zapLog.Sync() }()
	zap.ReplaceGlobals(zapLog)
	zapLog.Info("Starting service", cfg.LogFields()...)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database
	db, err := config.OpenDB(&cfg.DB)
	if err != nil {
		zapLog.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := config.Migrate(db); err != nil {
		zapLog.Fatal("Failed to migrate database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		zapLog.Fatal("Failed to get database handle", zap.Error(err))
	}
	defer sqlDB.Close()

	// Optional listing cache and event stream
	var listing cache.ListingCache = cache.NopListingCache{}
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := client.Ping(pingCtx).Err(); err != nil {
			zapLog.Warn("Redis unreachable, listing cache will miss until it recovers", zap.Error(err))
		}
		cancel()
		redisCache := cache.NewRedisListingCache(client, cfg.Redis.ListingTTL)
		defer redisCache.Close()
		listing = redisCache
	}

	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	}
	defer publisher.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(serviceName, reg)

	deps := services.Deps{
		DB:      db,
		Log:     zapLog,
		Events:  publisher,
		Listing: listing,
		Metrics: m,
		Files:   filestore.NewLocalStore(cfg.Media.Root),
	}
	if cfg.Admin.Email != "" {
		seedAdmin(deps, cfg.Admin, zapLog)
	}

	jwt := middleware.NewJWT(cfg.JWT.Secret, cfg.JWT.TTL)
	h := handlers.New(deps, jwt, cfg.Server.BaseURL, cfg.Media.MaxUploadBytes)

	r := gin.New()
	r.Use(logger.Middleware(zapLog), gin.Recovery(), m.Middleware())
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization", logger.RequestIDHeader},
		ExposeHeaders:   []string{logger.RequestIDHeader},
		MaxAge:          12 * time.Hour,
	}))

	r.GET("/health", handlers.Health(sqlDB, serviceName, version))
	r.GET("/metrics", metrics.Handler(reg))

	// Welcome
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Welcome to the Restaurant Onboarding & Ordering API",
			"docs":    "/api/state-machine",
			"health":  "/health",
			"roles":   []string{"CUSTOMER", "OWNER", "MANAGER", "RIDER", "ADMIN"},
		})
	})

	// Register all routes
	routes.SetupRoutes(r, h)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zapLog.Info("Server running", zap.String("addr", "http://localhost:"+cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLog.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zapLog.Error("Server forced to shutdown", zap.Error(err))
	}
}

func seedAdmin(deps services.Deps, seed config.AdminSeed, zapLog *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	user, created, err := services.NewUserService(deps).EnsureSuperuser(ctx, services.CreateUserInput{
		Name:     seed.Name,
		Email:    seed.Email,
		Password: seed.Password,
	})
	if err != nil {
		zapLog.Fatal("Failed to seed admin user", zap.Error(err))
	}
	if created {
		zapLog.Info("Admin user created", zap.Uint("user_id", user.ID), zap.String("email", user.Email))
	}
}
