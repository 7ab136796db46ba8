package logger

import (
	log "log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// SetupGin 访问日志 + panic 恢复，访问日志走 slog 以便带上 trace_id
func SetupGin(r *gin.Engine) {
	r.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()

		level := log.LevelInfo
		if c.Writer.Status() >= 500 {
			level = log.LevelError
		}
		log.Log(c.Request.Context(), level, "GIN_ACCESS",
			log.String("method", c.Request.Method),
			log.String("path", c.FullPath()),
			log.Int("status", c.Writer.Status()),
			log.String("client_ip", c.ClientIP()),
			log.Duration("latency", time.Since(start)),
		)
	})

	r.Use(gin.CustomRecoveryWithWriter(LogWriter, func(c *gin.Context, err any) {
		log.ErrorContext(c.Request.Context(), "GIN_PANIC", "err", err)
		c.AbortWithStatus(500)
	}))
}
