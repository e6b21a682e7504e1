package logging

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// Middleware logs every request once it has been handled. Client errors log
// at warn level and server errors at error level.
func Middleware(logger *slog.Logger) gin.HandlerFunc {
	logger = logger.With(FieldComponent, ComponentHTTP)
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		level := slog.LevelInfo
		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		}

		attrs := []any{
			FieldMethod, c.Request.Method,
			FieldPath, c.Request.URL.Path,
			FieldStatusCode, status,
			FieldDuration, time.Since(start).Milliseconds(),
			FieldClientIP, c.ClientIP(),
		}
		if q := c.Request.URL.RawQuery; q != "" {
			attrs = append(attrs, FieldQuery, q)
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, FieldError, c.Errors.String())
		}
		logger.Log(c.Request.Context(), level, "HTTP request completed", attrs...)
	}
}
