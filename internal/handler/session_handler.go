package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/superauth/internal/metrics"
	"github.com/xxxsen/superauth/internal/pkg/response"
	"github.com/xxxsen/superauth/internal/service"
)

type SessionHandler struct {
	login     *service.LoginService
	collector *metrics.Collector
}

func NewSessionHandler(login *service.LoginService, collector *metrics.Collector) *SessionHandler {
	return &SessionHandler{login: login, collector: collector}
}

type validateRequest struct {
	Username  string `json:"username"`
	SessionID string `json:"session_id"`
}

// Validate is called by the gateway for every protected request. A valid
// session gets its expiry window slid forward as a side effect.
func (h *SessionHandler) Validate(c *gin.Context) {
	var req validateRequest
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
	if err := h.login.Validate(c.Request.Context(), req.Username, req.SessionID); err != nil {
		h.collector.RecordValidation("invalid")
		handleError(c, err)
		return
	}
	h.collector.RecordValidation("valid")
	response.Success(c, "session valid", gin.H{"valid": true})
}
