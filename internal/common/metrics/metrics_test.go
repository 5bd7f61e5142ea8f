// Package metrics 提供 Prometheus 指标收集单元测试
package metrics

import (
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/romsreu/hotel-premier/internal/common/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestMetrics 使用独立注册表，避免重复注册
func newTestMetrics(t *testing.T) *Metrics {
	t.Helper()
	return New("test", prometheus.NewRegistry())
}

func TestNew(t *testing.T) {
	m := newTestMetrics(t)
	require.NotNil(t, m)
	assert.NotNil(t, m.httpRequestsTotal)
	assert.NotNil(t, m.reservationOpsTotal)
	assert.NotNil(t, m.roomLockWait)
	assert.NotNil(t, m.invariantViolations)
	assert.NotNil(t, m.quarantinedRooms)
	assert.NotNil(t, m.gatherer)
}

func TestGetMetrics(t *testing.T) {
	m := GetMetrics()
	require.NotNil(t, m)
	assert.Equal(t, m, GetMetrics())
}

func TestResultOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"成功", nil, ResultSuccess},
		{"繁忙", errors.ErrBusy.WithMessage("房间 101 正忙"), ResultBusy},
		{"台账异常", errors.ErrInvariantViolation, ResultInvariant},
		{"业务拒绝", errors.ErrRoomNotAvailable, ResultRejected},
		{"参数错误", errors.ErrInvalidParams, ResultRejected},
		{"数据库错误", errors.ErrDatabaseError.WithError(stderrors.New("io")), ResultError},
		{"普通错误", stderrors.New("boom"), ResultError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResultOf(tt.err))
		})
	}
}

func TestMetrics_RecordReservationOp(t *testing.T) {
	m := newTestMetrics(t)

	m.RecordReservationOp("create", nil, 10*time.Millisecond)
	m.RecordReservationOp("create", nil, 12*time.Millisecond)
	m.RecordReservationOp("create", errors.ErrRoomNotAvailable, time.Millisecond)
	m.RecordReservationOp("cancel", errors.ErrBusy, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.reservationOpsTotal.WithLabelValues("create", ResultSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reservationOpsTotal.WithLabelValues("create", ResultRejected)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reservationOpsTotal.WithLabelValues("cancel", ResultBusy)))
}

func TestMetrics_LockAndInvariant(t *testing.T) {
	m := newTestMetrics(t)

	m.ObserveLockWait(time.Millisecond, nil)
	m.ObserveLockWait(3*time.Second, errors.ErrBusy)
	m.RecordInvariantViolation()
	m.SetQuarantinedRooms(2)

	assert.Equal(t, 2, testutil.CollectAndCount(m.roomLockWait))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.invariantViolations))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.quarantinedRooms))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordReservationOp("create", nil, time.Millisecond)
		m.ObserveLockWait(time.Millisecond, nil)
		m.RecordInvariantViolation()
		m.SetQuarantinedRooms(1)
	})
}

func TestMetrics_Middleware(t *testing.T) {
	m := newTestMetrics(t)

	r := gin.New()
	r.Use(m.Middleware("/internal/metrics"))
	r.GET("/api/v1/rooms/:number/state", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	r.GET("/internal/metrics", m.Handler())

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/rooms/101/state", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(
		m.httpRequestsTotal.WithLabelValues("GET", "/api/v1/rooms/:number/state", "200")))

	t.Run("未匹配路由", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/nope", nil)
		r.ServeHTTP(w, req)
		assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "unknown", "404")))
	})

	t.Run("metrics 端点输出自定义注册表", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/internal/metrics", nil)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, strings.Contains(w.Body.String(), "test_http_requests_total"))
	})

	t.Run("配置的抓取路径不计入统计", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/internal/metrics", nil)
		r.ServeHTTP(w, req)
		// 仅有前面两次业务请求的序列
		assert.Equal(t, 2, testutil.CollectAndCount(m.httpRequestsTotal))
	})
}

func TestMetrics_MiddlewareDefaultPath(t *testing.T) {
	m := newTestMetrics(t)

	r := gin.New()
	r.Use(m.Middleware(""))
	r.GET("/metrics", m.Handler())

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/metrics", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "/metrics", "200")))
}
