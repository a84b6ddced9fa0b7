package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"typingspeed/internal/pkg/response"
	"typingspeed/internal/pkg/security"
)

// RequestLogger writes one line per request. Client IPs are hashed.
func RequestLogger(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := requestFields(c, start)
		status := c.Writer.Status()
		entry := log.WithFields(fields)
		switch {
		case status >= http.StatusInternalServerError:
			entry.Error("request")
		case status >= http.StatusBadRequest:
			entry.Warn("request")
		default:
			entry.Info("request")
		}
	}
}

// ErrorLogger logs detailed error information and recovers from panics.
func ErrorLogger(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		defer func() {
			if recovered := recover(); recovered != nil {
				err := fmt.Errorf("%v", recovered)
				logRequestError(log, c, start, "panic", err.Error(), debug.Stack())
				response.Internal(c, "INTERNAL_SERVER_ERROR", "Internal server error", err)
				return
			}

			if len(c.Errors) == 0 {
				if c.Writer.Status() >= http.StatusInternalServerError {
					logRequestError(log, c, start, "http_error", fmt.Sprintf("status=%d", c.Writer.Status()), nil)
				}
				return
			}

			for _, err := range c.Errors {
				logRequestError(log, c, start, fmt.Sprintf("%v", err.Type), err.Error(), nil)
			}
		}()

		c.Next()
	}
}

func logRequestError(log logrus.FieldLogger, c *gin.Context, start time.Time, errType string, message string, stack []byte) {
	fields := requestFields(c, start)
	fields["type"] = errType
	fields["query"] = c.Request.URL.RawQuery
	if stack != nil {
		fields["stack"] = string(stack)
	}
	log.WithFields(fields).Error("request_error: " + message)
}

func requestFields(c *gin.Context, start time.Time) logrus.Fields {
	fields := logrus.Fields{
		"status":     c.Writer.Status(),
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
		"ip":         security.HashForLogging(c.ClientIP()),
		"latency":    time.Since(start).String(),
		"request_id": requestID(c),
	}
	if id := UserID(c); id != 0 {
		fields["user_id"] = id
	}
	if code := response.ErrorCode(c); code != "" {
		fields["code"] = code
	}
	return fields
}

func requestID(c *gin.Context) string {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = c.GetHeader("X-Request-Id")
	}
	return requestID
}
