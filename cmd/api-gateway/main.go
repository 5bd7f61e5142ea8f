// Package main 是应用程序入口
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/romsreu/hotel-premier/internal/common/cache"
	"github.com/romsreu/hotel-premier/internal/common/config"
	"github.com/romsreu/hotel-premier/internal/common/database"
	"github.com/romsreu/hotel-premier/internal/common/lock"
	"github.com/romsreu/hotel-premier/internal/common/logger"
	"github.com/romsreu/hotel-premier/internal/common/metrics"
	"github.com/romsreu/hotel-premier/internal/common/tracing"
	"github.com/romsreu/hotel-premier/internal/scheduler"
)

const version = "1.0.0"

func main() {
	configPath := flag.String("config", "", "配置文件路径")
	flag.Parse()

	// 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	if err := logger.Init(&cfg.Logger); err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	log := logger.GetLogger()

	log.Info("Starting Hotel Premier",
		zap.String("version", version),
		zap.String("env", cfg.Server.Mode),
		zap.String("lock_driver", cfg.Business.Hotel.LockDriver),
	)

	// 初始化数据库连接
	db, err := database.Init(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connected successfully", zap.String("driver", cfg.Database.Driver))

	// Redis 仅用于分布式房间锁
	var redisClient *redis.Client
	if cfg.Business.Hotel.LockDriver == lock.DriverRedis {
		redisClient, err = cache.Init(&cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer cache.Close()
		log.Info("Redis connected successfully")
	}

	// 初始化链路追踪
	tracer, err := tracing.Init(&tracing.Config{
		ServiceName:    cfg.Tracing.ServiceName,
		ServiceVersion: version,
		Environment:    cfg.Server.Mode,
		Endpoint:       cfg.Tracing.Endpoint,
		SampleRate:     cfg.Tracing.SampleRate,
		Enabled:        cfg.Tracing.Enabled,
	})
	if err != nil {
		log.Fatal("Failed to init tracing", zap.Error(err))
	}

	// 初始化指标
	m := metrics.Init(cfg.Metrics.Namespace)

	svc, err := buildServices(cfg, db, redisClient, m, tracer)
	if err != nil {
		log.Fatal("Failed to build services", zap.Error(err))
	}

	// 初始化房型、房间与台账
	if cfg.Business.Hotel.SeedOnStart {
		result, err := svc.seeder.Seed(context.Background())
		if err != nil {
			log.Fatal("Failed to seed hotel data", zap.Error(err))
		}
		log.Info("Hotel data seeded",
			zap.Int("room_types", result.RoomTypesCreated),
			zap.Int("rooms", result.RoomsCreated),
			zap.Int("guests", result.GuestsCreated),
		)
	}

	// 启动定时任务
	sched := scheduler.NewScheduler()
	if err := svc.tasks.Register(sched, cfg.Business.Hotel.AuditSpec); err != nil {
		log.Fatal("Failed to register scheduled tasks", zap.Error(err))
	}
	sched.Start()

	// 设置 Gin 模式
	switch cfg.Server.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	engine := gin.New()
	setupRouter(engine, cfg, log, db, redisClient, svc, m)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	sched.Stop()

	if err := tracer.Shutdown(ctx); err != nil {
		log.Error("Failed to flush traces", zap.Error(err))
	}

	if err := database.Close(); err != nil {
		log.Error("Failed to close database", zap.Error(err))
	}

	log.Info("Server exited")
}
