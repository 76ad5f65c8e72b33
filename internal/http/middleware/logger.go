package middleware

import (
	"time"

	"travelatlas/internal/logging"
	"travelatlas/internal/observability"

	"github.com/gin-gonic/gin"
)

// Logger writes one line per request and records the request metrics.
// The route label is the matched pattern so ids do not blow up cardinality.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()

		observability.RecordHTTPRequest(c.Request.Method, c.FullPath(), status, latency)

		ev := logging.Info()
		switch {
		case status >= 500:
			ev = logging.Error()
		case status >= 400:
			ev = logging.Warn()
		}
		if len(c.Errors) > 0 {
			ev = ev.Str("errors", c.Errors.String())
		}
		ev.Str("request_id", GetRequestID(c)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Float64("latency_ms", float64(latency.Microseconds())/1000.0).
			Str("ip", c.ClientIP()).
			Msg("http request")
	}
}
