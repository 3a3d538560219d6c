package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
)

// RequestLogger logs every request once it has been handled.
func RequestLogger(logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		keyvals := []interface{}{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", fmt.Sprintf("%d %s", status, http.StatusText(status)),
			"bytes", humanize.Bytes(uint64(max(c.Writer.Size(), 0))),
			"addr", c.ClientIP(),
			"time", time.Since(start),
		}

		switch {
		case status >= http.StatusInternalServerError:
			logger.Error("request", append(keyvals, "errors", c.Errors.String())...)
		case status >= http.StatusBadRequest:
			logger.Warn("request", keyvals...)
		default:
			logger.Debug("request", keyvals...)
		}
	}
}
