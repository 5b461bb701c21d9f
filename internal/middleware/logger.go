package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Context keys handlers set so the request log line carries the outcome.
const (
	MemberIDKey    = "member_id"
	ImageStatusKey = "image_status"
)

func Logger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		event := log.Info()
		if status >= 500 {
			event = log.Error()
		} else if status >= 400 {
			event = log.Warn()
		}

		event = event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("route", c.FullPath()).
			Str("client_ip", c.ClientIP()).
			Int("status", status).
			Dur("latency", latency).
			Int("bytes_out", c.Writer.Size()).
			Str("request_id", c.Writer.Header().Get(requestIDHeader))

		if id := c.GetString(MemberIDKey); id != "" {
			event = event.Str("member_id", id)
		}
		if s := c.GetString(ImageStatusKey); s != "" {
			event = event.Str("image_status", s)
		}
		if errs := c.Errors.ByType(gin.ErrorTypePrivate); len(errs) > 0 {
			event = event.Strs("errors", errs.Errors())
		}

		event.Msg("http request")
	}
}
