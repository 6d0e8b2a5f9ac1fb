package gateway

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/xxxsen/superauth/internal/config"
	"github.com/xxxsen/superauth/internal/metrics"
)

func newFilterEngine(t *testing.T, authURL string, timeoutMS int) (*gin.Engine, *http.Header) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.GatewayConfig{
		AuthServiceURL:    authURL,
		PublicPaths:       []string{"/api/register/start", "/api/login/send-otp"},
		ValidateTimeoutMS: timeoutMS,
	}
	collector := metrics.NewGatewayCollector(prometheus.NewRegistry())
	filter := NewSessionFilter(cfg, collector)

	var forwarded http.Header
	engine := gin.New()
	engine.Use(filter.Handle)
	engine.NoRoute(func(c *gin.Context) {
		forwardedCopy := c.Request.Header.Clone()
		forwarded = forwardedCopy
		c.Status(http.StatusOK)
	})
	return engine, &forwarded
}

func validateStub(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/session/validate", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestSessionFilter_PublicPathBypassesValidation(t *testing.T) {
	engine, _ := newFilterEngine(t, "http://127.0.0.1:1", 1000)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/register/start", nil)
	engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestSessionFilter_MissingCredentials(t *testing.T) {
	engine, _ := newFilterEngine(t, "http://127.0.0.1:1", 1000)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/listings", nil)
	engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionFilter_ValidSessionForwardsIdentity(t *testing.T) {
	auth := validateStub(t, http.StatusOK, `{"success":true,"message":"session valid","data":{"valid":true}}`)
	engine, forwarded := newFilterEngine(t, auth.URL, 1000)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/listings", nil)
	req.Header.Set("X-Username", "ABC123")
	req.Header.Set("X-Session-ID", "deadbeef")
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "ABC123", forwarded.Get("X-Username"))
	require.Equal(t, "deadbeef", forwarded.Get("X-Session-ID"))
}

func TestSessionFilter_CookiesAccepted(t *testing.T) {
	auth := validateStub(t, http.StatusOK, `{"success":true,"data":{"valid":true}}`)
	engine, forwarded := newFilterEngine(t, auth.URL, 1000)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/listings", nil)
	req.AddCookie(&http.Cookie{Name: "username", Value: "ABC123"})
	req.AddCookie(&http.Cookie{Name: "sessionId", Value: "deadbeef"})
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "ABC123", forwarded.Get("X-Username"))
}

func TestSessionFilter_RejectedSession(t *testing.T) {
	auth := validateStub(t, http.StatusUnauthorized, `{"success":false,"message":"unauthorized"}`)
	engine, _ := newFilterEngine(t, auth.URL, 1000)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/listings", nil)
	req.Header.Set("X-Username", "ABC123")
	req.Header.Set("X-Session-ID", "deadbeef")
	engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionFilter_TimeoutFailsClosed(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		_, _ = w.Write([]byte(`{"success":true,"data":{"valid":true}}`))
	}))
	t.Cleanup(slow.Close)
	engine, _ := newFilterEngine(t, slow.URL, 50)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/listings", nil)
	req.Header.Set("X-Username", "ABC123")
	req.Header.Set("X-Session-ID", "deadbeef")
	engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionFilter_AuthServiceDownFailsClosed(t *testing.T) {
	engine, _ := newFilterEngine(t, "http://127.0.0.1:1", 200)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/listings", nil)
	req.Header.Set("X-Username", "ABC123")
	req.Header.Set("X-Session-ID", "deadbeef")
	engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
