package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/infrahq/trustlist/internal/logging"
)

func loggingMiddleware(enableSampling bool) gin.HandlerFunc {
	sampled := logging.L.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewSamplerWithOptions(core, 7*time.Second, 1, 0)
	}))

	return func(c *gin.Context) {
		begin := time.Now()
		c.Next()

		method := c.Request.Method
		status := c.Writer.Status()

		logger := logging.L
		if enableSampling && status < 400 && method == http.MethodGet {
			logger = sampled
		}

		logger.Info(method+" "+c.FullPath(),
			zap.String("path", c.Request.URL.Path),
			zap.Int("statusCode", status),
			zap.String("remoteAddr", c.ClientIP()),
			zap.Duration("elapsed", time.Since(begin)))
	}
}
