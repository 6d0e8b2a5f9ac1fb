package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/superauth/internal/config"
	"github.com/xxxsen/superauth/internal/metrics"
	"github.com/xxxsen/superauth/internal/pkg/response"
)

// SessionFilter authenticates every non-public request against the auth
// service before it reaches an upstream. Any doubt, including a validation
// timeout, fails closed with 401.
type SessionFilter struct {
	authURL     string
	publicPaths []string
	timeout     time.Duration
	client      *http.Client
	collector   *metrics.GatewayCollector
}

func NewSessionFilter(cfg *config.GatewayConfig, collector *metrics.GatewayCollector) *SessionFilter {
	timeout := time.Duration(cfg.ValidateTimeoutMS) * time.Millisecond
	return &SessionFilter{
		authURL:     strings.TrimRight(cfg.AuthServiceURL, "/"),
		publicPaths: cfg.PublicPaths,
		timeout:     timeout,
		client:      &http.Client{Timeout: timeout},
		collector:   collector,
	}
}

func (f *SessionFilter) Handle(c *gin.Context) {
	path := c.Request.URL.Path
	if f.isPublic(path) {
		c.Next()
		return
	}
	username, sessionID := f.credentials(c)
	if username == "" || sessionID == "" {
		f.reject(c, "missing session credentials")
		return
	}
	if !f.validate(c.Request.Context(), username, sessionID) {
		f.reject(c, "session invalid")
		return
	}
	c.Request.Header.Set("X-Username", username)
	c.Request.Header.Set("X-Session-ID", sessionID)
	c.Next()
}

func (f *SessionFilter) isPublic(path string) bool {
	for _, prefix := range f.publicPaths {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// credentials reads the session pair from cookies first, headers second.
func (f *SessionFilter) credentials(c *gin.Context) (string, string) {
	username, _ := c.Cookie("username")
	sessionID, _ := c.Cookie("sessionId")
	if username == "" {
		username = c.GetHeader("X-Username")
	}
	if sessionID == "" {
		sessionID = c.GetHeader("X-Session-ID")
	}
	return strings.TrimSpace(username), strings.TrimSpace(sessionID)
}

type validateBody struct {
	Username  string `json:"username"`
	SessionID string `json:"session_id"`
}

type validateResult struct {
	Success bool `json:"success"`
	Data    struct {
		Valid bool `json:"valid"`
	} `json:"data"`
}

func (f *SessionFilter) validate(ctx context.Context, username, sessionID string) bool {
	payload, err := json.Marshal(validateBody{Username: username, SessionID: sessionID})
	if err != nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.authURL+"/api/session/validate", bytes.NewReader(payload))
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", "application/json")
	start := time.Now()
	resp, err := f.client.Do(req)
	f.collector.RecordValidateLatency(time.Since(start))
	if err != nil {
		logutil.GetLogger(ctx).Warn("session validation call failed", zap.Error(err))
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return false
	}
	var result validateResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false
	}
	return result.Success && result.Data.Valid
}

func (f *SessionFilter) reject(c *gin.Context, message string) {
	response.Error(c, http.StatusUnauthorized, message)
	c.Abort()
}
