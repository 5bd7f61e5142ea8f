// Package main 是应用程序入口
package main

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/romsreu/hotel-premier/internal/common/config"
	"github.com/romsreu/hotel-premier/internal/common/lock"
	"github.com/romsreu/hotel-premier/internal/common/metrics"
	"github.com/romsreu/hotel-premier/internal/common/response"
	"github.com/romsreu/hotel-premier/internal/common/tracing"
	"github.com/romsreu/hotel-premier/internal/common/utils"
	hotelHandler "github.com/romsreu/hotel-premier/internal/handler/hotel"
	"github.com/romsreu/hotel-premier/internal/middleware"
	"github.com/romsreu/hotel-premier/internal/repository"
	"github.com/romsreu/hotel-premier/internal/scheduler"
	hotelService "github.com/romsreu/hotel-premier/internal/service/hotel"
	"github.com/romsreu/hotel-premier/internal/service/ledger"
)

// maxRequestBody 请求体上限，批量预订最多 50 条
const maxRequestBody = 1 << 20

// services 装配完成的业务组件
type services struct {
	clock        utils.Clock
	ledger       *ledger.Ledger
	rooms        *hotelService.RoomService
	reservations *hotelService.ReservationService
	queries      *hotelService.QueryService
	seeder       *hotelService.Seeder
	tasks        *scheduler.TaskHandler
}

// buildServices 初始化仓储与服务
func buildServices(
	cfg *config.Config,
	db *gorm.DB,
	redisClient *redis.Client,
	m *metrics.Metrics,
	tracer *tracing.Tracer,
) (*services, error) {
	hotelCfg := &cfg.Business.Hotel

	locker, err := lock.New(hotelCfg, redisClient)
	if err != nil {
		return nil, err
	}

	clock := utils.SystemClock{Location: hotelCfg.Location()}
	stateLedger := ledger.NewLedger(db, clock, tracer)

	// 初始化仓储
	roomRepo := repository.NewRoomRepository(db)
	guestRepo := repository.NewGuestRepository(db)

	// 初始化服务
	roomSvc := hotelService.NewRoomService(db, roomRepo, stateLedger, locker, clock, m)
	reservationSvc := hotelService.NewReservationService(
		db, stateLedger, roomSvc, roomSvc,
		hotelService.GuestDirectoryFunc(guestRepo.Exists),
		locker, clock, m, tracer,
	)

	return &services{
		clock:        clock,
		ledger:       stateLedger,
		rooms:        roomSvc,
		reservations: reservationSvc,
		queries:      hotelService.NewQueryService(stateLedger, roomRepo, hotelCfg.MaxQueryDays),
		seeder:       hotelService.NewSeeder(db, stateLedger, clock, nil),
		tasks:        scheduler.NewTaskHandler(stateLedger, roomSvc, m),
	}, nil
}

// setupRouter 设置路由
func setupRouter(
	r *gin.Engine,
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	redisClient *redis.Client,
	svc *services,
	m *metrics.Metrics,
) {
	// 初始化处理器
	reservationH := hotelHandler.NewReservationHandler(svc.reservations)
	roomH := hotelHandler.NewRoomHandler(svc.rooms, svc.queries, svc.clock)

	// 全局中间件
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.CORS(&cfg.CORS))
	r.Use(middleware.RequestSizeLimiter(maxRequestBody))
	if cfg.Tracing.Enabled {
		r.Use(middleware.Tracing(&middleware.TracingConfig{
			ServiceName: cfg.Tracing.ServiceName,
			SkipPaths:   []string{"/health", "/ping", "/ready", cfg.Metrics.Path},
		}))
	}
	if cfg.Metrics.Enabled {
		r.Use(m.Middleware(cfg.Metrics.Path))
	}
	r.Use(middleware.AccessLog(logger, cfg.Metrics.Path))

	// 健康检查
	r.GET("/health", healthHandler)
	r.GET("/ping", pingHandler)
	r.GET("/ready", readyHandler(db, redisClient))
	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, m.Handler())
	}

	// API v1 路由组
	v1 := r.Group("/api/v1")
	hotelHandler.RegisterRoutes(v1, reservationH, roomH)

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c, "接口不存在")
	})
}
