package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/superauth/internal/metrics"
	appErr "github.com/xxxsen/superauth/internal/pkg/errors"
	"github.com/xxxsen/superauth/internal/pkg/response"
	"github.com/xxxsen/superauth/internal/service"
)

const sessionCookieMaxAge = 48 * 3600

type LoginHandler struct {
	login     *service.LoginService
	collector *metrics.Collector
}

func NewLoginHandler(login *service.LoginService, collector *metrics.Collector) *LoginHandler {
	return &LoginHandler{login: login, collector: collector}
}

type sendOtpRequest struct {
	Username string `json:"username"`
}

func (h *LoginHandler) SendOtp(c *gin.Context) {
	var req sendOtpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request")
		return
	}
	err := h.login.SendOtp(c.Request.Context(), req.Username)
	if err == appErr.ErrQuotaExceeded {
		// the cap is an expected outcome with actionable choices, not a failure
		h.collector.RecordLogin("quota")
		payload := h.login.QuotaPayload()
		response.Success(c, payload.Message, payload)
		return
	}
	if err != nil {
		handleError(c, err)
		return
	}
	h.collector.RecordOtpIssued("login")
	response.Success(c, "login code sent", nil)
}

type loginVerifyRequest struct {
	Username string `json:"username"`
	Code     string `json:"code"`
}

func (h *LoginHandler) Verify(c *gin.Context) {
	var req loginVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request")
		return
	}
	session, err := h.login.Verify(c.Request.Context(), req.Username, req.Code)
	if err == appErr.ErrQuotaExceeded {
		h.collector.RecordLogin("quota")
		payload := h.login.QuotaPayload()
		response.Success(c, payload.Message, payload)
		return
	}
	if err != nil {
		h.collector.RecordLogin("fail")
		handleError(c, err)
		return
	}
	h.collector.RecordLogin("success")
	c.SetCookie("sessionId", session.SessionID, sessionCookieMaxAge, "/", "", false, true)
	c.SetCookie("username", session.Username, sessionCookieMaxAge, "/", "", false, true)
	response.Success(c, "login successful", gin.H{
		"username":   session.Username,
		"session_id": session.SessionID,
		"expires_at": session.ExpiresAt,
	})
}

type continueLoginRequest struct {
	Username string `json:"username"`
}

func (h *LoginHandler) ContinueWithOldestLogout(c *gin.Context) {
	var req continueLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request")
		return
	}
	if err := h.login.ContinueWithOldestLogout(c.Request.Context(), req.Username); err != nil {
		handleError(c, err)
		return
	}
	h.collector.RecordSessionEvicted()
	h.collector.RecordOtpIssued("login")
	response.Success(c, "oldest session logged out, login code sent", nil)
}

type logoutRequest struct {
	Username  string `json:"username"`
	SessionID string `json:"session_id"`
}

func (h *LoginHandler) Logout(c *gin.Context) {
	var req logoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request")
		return
	}
	if req.Username == "" {
		req.Username = c.GetHeader("X-Username")
	}
	if req.SessionID == "" {
		req.SessionID = c.GetHeader("X-Session-ID")
	}
	if err := h.login.Logout(c.Request.Context(), req.Username, req.SessionID); err != nil {
		handleError(c, err)
		return
	}
	c.SetCookie("sessionId", "", -1, "/", "", false, true)
	c.SetCookie("username", "", -1, "/", "", false, true)
	response.Success(c, "logged out", nil)
}
