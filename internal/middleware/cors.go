package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/romsreu/hotel-premier/internal/common/config"
)

// CORS 跨域中间件，未配置来源时允许全部
func CORS(cfg *config.CORSConfig) gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()
	if cfg == nil {
		corsConfig.AllowAllOrigins = true
		return cors.New(corsConfig)
	}

	if len(cfg.AllowedOrigins) == 0 || (len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	}
	if len(cfg.AllowedMethods) > 0 {
		corsConfig.AllowMethods = cfg.AllowedMethods
	}
	if len(cfg.AllowedHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.AllowedHeaders
	}
	corsConfig.ExposeHeaders = cfg.ExposedHeaders
	// 允许全部来源时不能携带凭证
	corsConfig.AllowCredentials = cfg.AllowCredentials && !corsConfig.AllowAllOrigins
	if cfg.MaxAge > 0 {
		corsConfig.MaxAge = time.Duration(cfg.MaxAge) * time.Second
	}

	return cors.New(corsConfig)
}
