package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"panchakarma/config"
	_ "panchakarma/docs"
	"panchakarma/internal/repository"
	"panchakarma/internal/repository/memory"
	"panchakarma/internal/scheduler"
	"panchakarma/internal/service"
	"panchakarma/internal/storage"
	"panchakarma/internal/transport/rest"
	"panchakarma/internal/transport/websocket"
	"panchakarma/migrations"
	"panchakarma/pkg/cache"
	"panchakarma/pkg/database"
	"panchakarma/pkg/logger"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title Panchakarma Chat API
// @version 1.0
// @description Chat and call sessions between patients and doctors.

// @BasePath /api/v1

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		panic(err)
	}

	log, err := logger.NewLogger(cfg.Environment, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx := context.Background()

	var repos *repository.Repositories
	switch cfg.Storage.Driver {
	case config.StorageDriverPostgres:
		db, err := database.NewPostgresDB(ctx, cfg.Postgres)
		if err != nil {
			log.Fatal("failed to connect to postgres", zap.Error(err))
		}
		defer db.Close()

		if cfg.Postgres.MigrateOnStart {
			log.Info("running database migrations")
			if err := database.RunMigrations(cfg.Postgres.URL(), migrations.FS, log); err != nil {
				log.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		repos = repository.NewRepositories(db)
	case config.StorageDriverMemory:
		log.Warn("using in-memory storage, data is lost on restart")
		store := memory.NewStore()
		if err := store.SeedUsers(cfg.Storage.SeedUsers); err != nil {
			log.Fatal("failed to seed users", zap.Error(err))
		}
		repos = store.Repositories()
	}

	var fileStorage storage.FileStorage
	if cfg.S3.Endpoint != "" {
		s3Storage, err := storage.NewS3Storage(ctx, cfg.S3, log)
		if err != nil {
			log.Fatal("failed to init s3 storage", zap.Error(err))
		}
		fileStorage = s3Storage
		log.Info("s3 storage ready", zap.String("endpoint", cfg.S3.Endpoint), zap.String("bucket", cfg.S3.Bucket))
	} else {
		log.Warn("s3 is not configured, attachments are kept in memory")
		fileStorage = storage.NewMemoryStorage()
	}

	services := service.NewServices(service.Deps{
		Repos:  repos,
		Logger: log,
		Config: cfg,
	})

	hub := websocket.NewHub(services, cfg.HTTP.AllowedOrigins, log)
	services.SetBroadcaster(hub)

	var sweeper *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		var lease scheduler.Lease
		if cfg.Redis.URL != "" {
			redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
			if err != nil {
				log.Fatal("failed to connect to redis", zap.Error(err))
			}
			defer redisCache.Close()
			lease = redisCache
		} else {
			log.Warn("redis is not configured, expiry sweep is not coordinated across replicas")
		}

		sweeper = scheduler.New(services.Session, lease, cfg.Scheduler, log)
		if err := sweeper.Start(); err != nil {
			log.Fatal("failed to start scheduler", zap.Error(err))
		}
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	handler := rest.NewHandler(services, hub, fileStorage, log, cfg)
	handler.InitRoutes(router)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/swagger", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": cfg.Version})
	})

	srv := &http.Server{
		Addr:           ":" + cfg.HTTP.Port,
		Handler:        router,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderMB << 20,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	log.Info("server started", zap.String("addr", srv.Addr), zap.String("storage", cfg.Storage.Driver))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	if sweeper != nil {
		sweeper.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
		return
	}

	log.Info("server stopped")
}
