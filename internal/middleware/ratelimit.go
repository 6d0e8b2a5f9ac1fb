package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/superauth/internal/pkg/response"
)

const rateLimitCacheSize = 65536

type rateLimiter struct {
	window time.Duration
	seen   *expirable.LRU[string, struct{}]
}

// RateLimit allows one request per client+path within the window. Entries
// age out of the backing cache on their own, so there is no sweep goroutine.
func RateLimit(window time.Duration) gin.HandlerFunc {
	limiter := &rateLimiter{
		window: window,
		seen:   expirable.NewLRU[string, struct{}](rateLimitCacheSize, nil, window),
	}
	return limiter.handle
}

func (l *rateLimiter) handle(c *gin.Context) {
	if l.window <= 0 {
		c.Next()
		return
	}
	ip := c.ClientIP()
	path := c.FullPath()
	if path == "" {
		path = c.Request.URL.Path
	}
	key := strings.Join([]string{ip, path}, "|")
	if _, exists := l.seen.Get(key); exists {
		logutil.GetLogger(c.Request.Context()).Warn("rate limit hit",
			zap.String("ip", ip),
			zap.String("path", path),
		)
		response.Error(c, http.StatusTooManyRequests, http.StatusText(http.StatusTooManyRequests))
		c.Abort()
		return
	}
	l.seen.Add(key, struct{}{})
	c.Next()
}
