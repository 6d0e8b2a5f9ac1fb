package gateway

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type errorBody struct {
	Timestamp string `json:"timestamp"`
	Status    int    `json:"status"`
	Message   string `json:"message"`
	Path      string `json:"path"`
	RequestID string `json:"request_id,omitempty"`
}

// Recovery turns panics into a structured 500 instead of a dropped
// connection.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logutil.GetLogger(c.Request.Context()).Error("panic recovered",
					zap.Any("panic", r),
					zap.String("path", c.Request.URL.Path))
				c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody{
					Timestamp: time.Now().UTC().Format(time.RFC3339),
					Status:    http.StatusInternalServerError,
					Message:   "internal error",
					Path:      c.Request.URL.Path,
					RequestID: c.GetHeader("X-Request-Id"),
				})
			}
		}()
		c.Next()
	}
}

// StatusRecorder lets the metrics middleware observe the final status code
// after the proxy has written the response.
func StatusRecorder(record func(status int)) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		record(c.Writer.Status())
	}
}
