package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/romsreu/hotel-premier/internal/common/config"
	"github.com/romsreu/hotel-premier/internal/common/response"
	"github.com/romsreu/hotel-premier/internal/common/tracing"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/rooms", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c))
	})

	t.Run("生成新ID", func(t *testing.T) {
		w := serve(r, httptest.NewRequest(http.MethodGet, "/rooms", nil))
		id := w.Header().Get("X-Request-ID")
		assert.Len(t, id, 36)
		assert.Equal(t, id, w.Body.String())
	})

	t.Run("沿用请求头", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/rooms", nil)
		req.Header.Set("X-Request-ID", "req-101")
		w := serve(r, req)
		assert.Equal(t, "req-101", w.Header().Get("X-Request-ID"))
		assert.Equal(t, "req-101", w.Body.String())
	})
}

func TestRecovery(t *testing.T) {
	core, recorded := observer.New(zapcore.ErrorLevel)
	r := gin.New()
	r.Use(RequestID(), Recovery(zap.New(core)))
	r.POST("/rooms/:number/maintenance", func(c *gin.Context) { panic("ledger exploded") })

	w := serve(r, httptest.NewRequest(http.MethodPost, "/rooms/101/maintenance", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "服务器内部错误")
	require.Equal(t, 1, recorded.Len())
	fields := recorded.All()[0].ContextMap()
	assert.Equal(t, "/rooms/101/maintenance", fields["path"])
	assert.Equal(t, int64(101), fields["room_number"])
	assert.Equal(t, "ledger exploded", fields["panic"])
}

func TestRequestSizeLimiter(t *testing.T) {
	r := gin.New()
	r.Use(RequestSizeLimiter(16))
	r.POST("/reservations/batch", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, httptest.NewRequest(http.MethodPost, "/reservations/batch", strings.NewReader(`{"a":1}`)))
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(r, httptest.NewRequest(http.MethodPost, "/reservations/batch", strings.NewReader(strings.Repeat("x", 64))))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCORS(t *testing.T) {
	t.Run("允许全部来源", func(t *testing.T) {
		r := gin.New()
		r.Use(CORS(&config.CORSConfig{AllowedOrigins: []string{"*"}, AllowCredentials: true, MaxAge: 600}))
		r.GET("/rooms", func(c *gin.Context) { c.Status(http.StatusOK) })

		req := httptest.NewRequest(http.MethodGet, "/rooms", nil)
		req.Header.Set("Origin", "http://front.example")
		w := serve(r, req)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("指定来源", func(t *testing.T) {
		r := gin.New()
		r.Use(CORS(&config.CORSConfig{
			AllowedOrigins: []string{"http://front.example"},
			AllowedMethods: []string{"GET", "POST"},
			AllowedHeaders: []string{"Content-Type"},
		}))
		r.GET("/rooms", func(c *gin.Context) { c.Status(http.StatusOK) })

		req := httptest.NewRequest(http.MethodGet, "/rooms", nil)
		req.Header.Set("Origin", "http://front.example")
		w := serve(r, req)
		assert.Equal(t, "http://front.example", w.Header().Get("Access-Control-Allow-Origin"))

		req = httptest.NewRequest(http.MethodGet, "/rooms", nil)
		req.Header.Set("Origin", "http://evil.example")
		w = serve(r, req)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestAccessLog(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	r := gin.New()
	r.Use(RequestID(), AccessLog(zap.New(core), "/metrics"))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/rooms/:number/state", func(c *gin.Context) { response.Success(c, "AVAILABLE") })
	r.POST("/reservations/:id/check-in", func(c *gin.Context) { response.Error(c, 8007, "预订已入住") })
	r.POST("/reservations", func(c *gin.Context) { response.InternalError(c, "") })

	serve(r, httptest.NewRequest(http.MethodGet, "/health", nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, 0, recorded.Len())

	serve(r, httptest.NewRequest(http.MethodGet, "/rooms/101/state?date=2024-06-01", nil))
	serve(r, httptest.NewRequest(http.MethodPost, "/reservations/5/check-in", nil))
	serve(r, httptest.NewRequest(http.MethodPost, "/reservations", nil))

	entries := recorded.All()
	require.Len(t, entries, 3)

	t.Run("房间路由", func(t *testing.T) {
		fields := entries[0].ContextMap()
		assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
		assert.Equal(t, "/rooms/:number/state", fields["route"])
		assert.Equal(t, "date=2024-06-01", fields["query"])
		assert.Equal(t, int64(101), fields["room_number"])
		assert.Equal(t, int64(0), fields["code"])
		assert.NotEmpty(t, fields["request_id"])
		assert.NotContains(t, fields, "reservation_id")
	})

	t.Run("业务错误记为warn", func(t *testing.T) {
		fields := entries[1].ContextMap()
		assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
		assert.Equal(t, int64(5), fields["reservation_id"])
		assert.Equal(t, int64(8007), fields["code"])
		assert.Equal(t, int64(http.StatusOK), fields["status"])
	})

	t.Run("5xx记为error", func(t *testing.T) {
		assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
		assert.NotContains(t, entries[2].ContextMap(), "room_number")
	})
}

func TestTargetOf_InvalidParams(t *testing.T) {
	var got routeTarget
	r := gin.New()
	r.GET("/rooms/:number", func(c *gin.Context) { got = targetOf(c) })

	serve(r, httptest.NewRequest(http.MethodGet, "/rooms/abc", nil))
	assert.Equal(t, routeTarget{}, got)

	serve(r, httptest.NewRequest(http.MethodGet, "/rooms/-1", nil))
	assert.Equal(t, routeTarget{}, got)

	serve(r, httptest.NewRequest(http.MethodGet, "/rooms/204", nil))
	assert.Equal(t, routeTarget{Room: 204}, got)
}

func TestTracing(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	r := gin.New()
	r.Use(Tracing(&TracingConfig{ServiceName: "hotel-test", SkipPaths: []string{"/metrics"}}))
	var traceID string
	r.GET("/rooms/:number/state", func(c *gin.Context) {
		traceID = GetTraceID(c)
		c.Status(http.StatusOK)
	})
	r.GET("/metrics", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(r, httptest.NewRequest(http.MethodGet, "/rooms/101/state", nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /rooms/:number/state", spans[0].Name())
	assert.Equal(t, spans[0].SpanContext().TraceID().String(), traceID)

	attrs := make(map[attribute.Key]attribute.Value)
	for _, kv := range spans[0].Attributes() {
		attrs[kv.Key] = kv.Value
	}
	assert.Equal(t, int64(101), attrs[tracing.AttrRoomNumber].AsInt64())
	assert.Equal(t, "/rooms/:number/state", attrs["http.route"].AsString())
	assert.Equal(t, int64(http.StatusOK), attrs["http.response.status_code"].AsInt64())
}
