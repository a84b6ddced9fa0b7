package response

import (
	"net/http"
	"runtime/debug"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

const errorCodeKey = "error_code"

// exposeErrors controls whether 5xx responses carry details and a stack.
// It is switched off in production.
var exposeErrors atomic.Bool

func init() {
	exposeErrors.Store(true)
}

func SetExposeErrors(v bool) {
	exposeErrors.Store(v)
}

func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, gin.H{
		"success": true,
		"data":    data,
	})
}

func SuccessMessage(c *gin.Context, statusCode int, data interface{}, message string) {
	body := gin.H{
		"success": true,
		"message": message,
	}
	if data != nil {
		body["data"] = data
	}
	c.JSON(statusCode, body)
}

func Error(c *gin.Context, statusCode int, code string, message string) {
	c.Set(errorCodeKey, code)
	c.JSON(statusCode, errorBody(code, message, nil))
}

func ErrorWithDetails(c *gin.Context, statusCode int, code string, message string, details any) {
	c.Set(errorCodeKey, code)
	c.JSON(statusCode, errorBody(code, message, details))
}

// Abort writes the error envelope and stops the handler chain.
func Abort(c *gin.Context, statusCode int, code string, message string) {
	AbortWithFields(c, statusCode, code, message, nil)
}

// AbortWithFields is Abort with extra top-level fields in the envelope.
func AbortWithFields(c *gin.Context, statusCode int, code string, message string, fields gin.H) {
	body := errorBody(code, message, nil)
	for k, v := range fields {
		body[k] = v
	}
	c.Set(errorCodeKey, code)
	c.AbortWithStatusJSON(statusCode, body)
}

// Internal answers 500 with a generic message. The underlying error and a
// stack are attached only when errors are exposed.
func Internal(c *gin.Context, code string, message string, err error) {
	body := errorBody(code, message, nil)
	if exposeErrors.Load() && err != nil {
		body["details"] = err.Error()
		body["stack"] = string(debug.Stack())
	}
	if err != nil {
		_ = c.Error(err)
	}
	c.Set(errorCodeKey, code)
	c.AbortWithStatusJSON(http.StatusInternalServerError, body)
}

// ErrorCode returns the code of the error envelope written for this request.
func ErrorCode(c *gin.Context) string {
	return c.GetString(errorCodeKey)
}

func errorBody(code, message string, details any) gin.H {
	body := gin.H{
		"success": false,
		"error":   message,
		"code":    code,
	}
	if details != nil {
		body["details"] = details
	}
	return body
}
