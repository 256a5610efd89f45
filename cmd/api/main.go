package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/launchblock/amm-api/internal/auth"
	"github.com/launchblock/amm-api/internal/cache"
	"github.com/launchblock/amm-api/internal/config"
	"github.com/launchblock/amm-api/internal/liquidity"
	"github.com/launchblock/amm-api/internal/pool"
	"github.com/launchblock/amm-api/internal/swap"
	"github.com/launchblock/amm-api/internal/token"
	"github.com/launchblock/amm-api/internal/ws"
)

func main() {
	cfg := config.Load()

	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetLevel(cfg.ParseLogLevel())

	db := openDatabase(cfg)
	if err := db.AutoMigrate(&pool.Record{}, &swap.Trade{}, &liquidity.Position{}, &token.Token{}); err != nil {
		logrus.WithError(err).Fatal("Failed to run migrations")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})

	var cacheClient *cache.Client
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		logrus.WithError(err).Warn("Failed to connect to Redis, caching disabled")
	} else {
		cacheClient = cache.New(rdb)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(auth.SecurityHeaders())

	adminGuard := auth.NewAdminMiddleware(cfg.AdminAddresses).RequireAdmin()

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Unix(),
			"service":   "amm-api",
		})
	})

	wsServer := ws.NewServer()
	wsServer.Start()

	v1 := router.Group("/api/v1")
	{
		poolRepo := pool.NewRepository(db)
		poolService := pool.NewService(poolRepo, cacheClient)
		pool.NewHandler(poolService).RegisterRoutes(v1, adminGuard)

		tradeRepo := swap.NewRepository(db)
		swapService := swap.NewService(poolService, tradeRepo, wsServer.Hub)
		swap.NewHandler(swapService).RegisterRoutes(v1)

		positionRepo := liquidity.NewRepository(db)
		liquidityService := liquidity.NewService(poolService, positionRepo, wsServer.Hub)
		liquidity.NewHandler(liquidityService).RegisterRoutes(v1)

		tokenRepo := token.NewRepository(db)
		tokenService := token.NewService(tokenRepo, poolService)
		token.NewHandler(tokenService).RegisterRoutes(v1, adminGuard)

		wsServer.RegisterRoutes(v1)
	}

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: router,
	}

	go func() {
		logrus.WithField("addr", cfg.ListenAddr).Info("Starting AMM API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Fatal("Server forced to shutdown")
	}

	wsServer.Stop()

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	rdb.Close()

	logrus.Info("Server exited")
}

// openDatabase connects to Postgres when a DSN is configured and falls back
// to a local sqlite file otherwise.
func openDatabase(cfg *config.Config) *gorm.DB {
	if cfg.DatabaseDSN != "" {
		db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
		if err != nil {
			logrus.WithError(err).Fatal("Failed to connect to database")
		}
		return db
	}

	logrus.WithField("path", cfg.SQLitePath).Warn("DATABASE_DSN not set, using sqlite")
	db, err := gorm.Open(sqlite.Open(cfg.SQLitePath), &gorm.Config{})
	if err != nil {
		logrus.WithError(err).Fatal("Failed to open sqlite database")
	}
	return db
}
