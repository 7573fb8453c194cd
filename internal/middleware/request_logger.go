package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rentwheels/car-rental-backend/internal/utils"
	"github.com/sirupsen/logrus"
)

// RequestLogger logs one structured line per request with the caller's device
func RequestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		device := utils.ParseUserAgent(c.Request.UserAgent())

		entry := logger.WithFields(logrus.Fields{
			"method":      c.Request.Method,
			"path":        path,
			"route":       c.FullPath(),
			"status":      status,
			"latency_ms":  time.Since(start).Milliseconds(),
			"client_ip":   utils.GetRealIP(c),
			"device_type": device.DeviceType,
			"platform":    device.Platform,
			"browser":     device.Browser,
			"is_bot":      device.IsBot,
		})
		if len(c.Errors) > 0 {
			entry = entry.WithField("errors", c.Errors.String())
		}

		switch {
		case status >= 500:
			entry.Error("Request failed")
		case status >= 400:
			entry.Warn("Request rejected")
		case path == "/health":
			entry.Debug("Health check")
		default:
			entry.Info("Request handled")
		}
	}
}
