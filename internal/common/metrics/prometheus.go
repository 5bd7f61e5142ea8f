// Package metrics 提供 Prometheus 指标收集
package metrics

import (
	stderrors "errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/romsreu/hotel-premier/internal/common/errors"
)

// 操作结果标签
const (
	ResultSuccess   = "success"
	ResultRejected  = "rejected"
	ResultBusy      = "busy"
	ResultInvariant = "invariant"
	ResultError     = "error"
)

// Metrics 指标收集器
type Metrics struct {
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge
	reservationOpsTotal  *prometheus.CounterVec
	reservationDuration  *prometheus.HistogramVec
	roomLockWait         *prometheus.HistogramVec
	invariantViolations  prometheus.Counter
	quarantinedRooms     prometheus.Gauge
	gatherer             prometheus.Gatherer
}

var defaultMetrics *Metrics

// Init 在默认注册表上初始化指标收集器
func Init(namespace string) *Metrics {
	m := New(namespace, prometheus.DefaultRegisterer)
	m.gatherer = prometheus.DefaultGatherer
	defaultMetrics = m
	return m
}

// New 在指定注册表上创建指标收集器，测试中传入 prometheus.NewRegistry()
func New(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "hotel_premier"
	}
	factory := promauto.With(reg)

	m := &Metrics{
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		httpRequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),
		reservationOpsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reservation_operations_total",
				Help:      "Total number of reservation lifecycle operations",
			},
			[]string{"operation", "result"},
		),
		reservationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "reservation_operation_duration_seconds",
				Help:      "Reservation lifecycle operation duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"operation"},
		),
		roomLockWait: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "room_lock_wait_seconds",
				Help:      "Time spent waiting for a room lock",
				Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 3, 5},
			},
			[]string{"outcome"},
		),
		invariantViolations: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ledger_invariant_violations_total",
				Help:      "Total number of room state ledger invariant violations detected",
			},
		),
		quarantinedRooms: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "quarantined_rooms",
				Help:      "Number of rooms currently quarantined for manual reconciliation",
			},
		),
	}

	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	}
	return m
}

// GetMetrics 获取默认指标收集器
func GetMetrics() *Metrics {
	if defaultMetrics == nil {
		return Init("")
	}
	return defaultMetrics
}

// Middleware 返回 Gin 中间件，metricsPath 为抓取端点路径，不计入统计
func (m *Metrics) Middleware(metricsPath string) gin.HandlerFunc {
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	return func(c *gin.Context) {
		if c.Request.URL.Path == metricsPath {
			c.Next()
			return
		}

		start := time.Now()
		m.httpRequestsInFlight.Inc()

		c.Next()

		m.httpRequestsInFlight.Dec()
		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		path := c.FullPath()
		if path == "" {
			path = "unknown"
		}

		m.httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		m.httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(duration)
	}
}

// Handler 返回 Prometheus HTTP 处理器
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	if m != nil && m.gatherer != nil && m.gatherer != prometheus.DefaultGatherer {
		h = promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
	}
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// ResultOf 将业务错误归类为结果标签
func ResultOf(err error) string {
	switch {
	case err == nil:
		return ResultSuccess
	case stderrors.Is(err, errors.ErrBusy):
		return ResultBusy
	case stderrors.Is(err, errors.ErrInvariantViolation):
		return ResultInvariant
	case stderrors.Is(err, errors.ErrDatabaseError), stderrors.Is(err, errors.ErrCacheError),
		stderrors.Is(err, errors.ErrInternalError), !errors.IsAppError(err):
		return ResultError
	default:
		return ResultRejected
	}
}

// RecordReservationOp 记录预订生命周期操作
func (m *Metrics) RecordReservationOp(operation string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	m.reservationOpsTotal.WithLabelValues(operation, ResultOf(err)).Inc()
	m.reservationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// ObserveLockWait 记录房间锁等待时间
func (m *Metrics) ObserveLockWait(wait time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "acquired"
	if err != nil {
		outcome = ResultBusy
	}
	m.roomLockWait.WithLabelValues(outcome).Observe(wait.Seconds())
}

// RecordInvariantViolation 记录台账不变量被破坏
func (m *Metrics) RecordInvariantViolation() {
	if m == nil {
		return
	}
	m.invariantViolations.Inc()
}

// SetQuarantinedRooms 设置隔离中的房间数
func (m *Metrics) SetQuarantinedRooms(count int) {
	if m == nil {
		return
	}
	m.quarantinedRooms.Set(float64(count))
}
