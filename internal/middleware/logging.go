package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/romsreu/hotel-premier/internal/common/logger"
	"github.com/romsreu/hotel-premier/internal/common/response"
)

// 探活路径不写访问日志
var healthPaths = map[string]struct{}{
	"/health": {},
	"/ping":   {},
	"/ready":  {},
}

// AccessLog 访问日志中间件
//
// 每个请求一行，除 HTTP 信息外记录涉及的房间号、预订 ID 与业务码。
// 业务错误以 HTTP 200 返回，因此按业务码而不是只按状态码决定级别。
func AccessLog(log *zap.Logger, skipPaths ...string) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(healthPaths)+len(skipPaths))
	for path := range healthPaths {
		skip[path] = struct{}{}
	}
	for _, path := range skipPaths {
		skip[path] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			logger.RequestID(GetRequestID(c)),
			logger.Method(c.Request.Method),
			logger.Path(c.Request.URL.Path),
			logger.StatusCode(status),
			logger.Latency(time.Since(start)),
			logger.IP(c.ClientIP()),
		}
		if route := c.FullPath(); route != "" {
			fields = append(fields, logger.Route(route))
		}
		if query := c.Request.URL.RawQuery; query != "" {
			fields = append(fields, logger.String("query", query))
		}

		target := targetOf(c)
		if target.Room != 0 {
			fields = append(fields, logger.RoomNumber(target.Room))
		}
		if target.Reservation != 0 {
			fields = append(fields, logger.ReservationID(target.Reservation))
		}

		code, hasCode := response.CodeOf(c)
		if hasCode {
			fields = append(fields, logger.Int("code", code))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, logger.String("errors", c.Errors.String()))
		}

		log.Log(accessLevel(status, code, hasCode), "HTTP Request", fields...)
	}
}

// accessLevel 5xx 为 error，4xx 与业务错误为 warn，其余为 info
func accessLevel(status, code int, hasCode bool) zapcore.Level {
	switch {
	case status >= 500:
		return zapcore.ErrorLevel
	case status >= 400, hasCode && code != response.CodeSuccess:
		return zapcore.WarnLevel
	default:
		return zapcore.InfoLevel
	}
}
