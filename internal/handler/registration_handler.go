package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/superauth/internal/metrics"
	"github.com/xxxsen/superauth/internal/pkg/response"
	"github.com/xxxsen/superauth/internal/service"
)

type RegistrationHandler struct {
	registration *service.RegistrationService
	collector    *metrics.Collector
}

func NewRegistrationHandler(registration *service.RegistrationService, collector *metrics.Collector) *RegistrationHandler {
	return &RegistrationHandler{registration: registration, collector: collector}
}

type registrationStartRequest struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

func (h *RegistrationHandler) Start(c *gin.Context) {
	var req registrationStartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request")
		return
	}
	if err := h.registration.Start(c.Request.Context(), req.Email, req.Phone); err != nil {
		handleError(c, err)
		return
	}
	h.collector.RecordOtpIssued("registration")
	response.Success(c, "verification codes sent", nil)
}

type verifyOtpRequest struct {
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	EmailCode string `json:"email_code"`
	PhoneCode string `json:"phone_code"`
}

func (h *RegistrationHandler) VerifyOtp(c *gin.Context) {
	var req verifyOtpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request")
		return
	}
	if err := h.registration.VerifyOtp(c.Request.Context(), req.Email, req.Phone, req.EmailCode, req.PhoneCode); err != nil {
		h.collector.RecordOtpVerify("registration", "fail")
		handleError(c, err)
		return
	}
	h.collector.RecordOtpVerify("registration", "ok")
	response.Success(c, "identity verified", nil)
}

type validateUsernameRequest struct {
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Username string `json:"username"`
}

func (h *RegistrationHandler) ValidateUsername(c *gin.Context) {
	var req validateUsernameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request")
		return
	}
	quote, err := h.registration.ValidateUsername(c.Request.Context(), req.Email, req.Phone, req.Username)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, "username quoted", quote)
}

type initiatePaymentRequest struct {
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Username string `json:"username"`
}

func (h *RegistrationHandler) InitiatePayment(c *gin.Context) {
	var req initiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request")
		return
	}
	init, err := h.registration.InitiatePayment(c.Request.Context(), req.Email, req.Phone, req.Username)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, "payment link created", init)
}

type completeRequest struct {
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Username string `json:"username"`
}

func (h *RegistrationHandler) Complete(c *gin.Context) {
	var req completeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request")
		return
	}
	user, err := h.registration.Complete(c.Request.Context(), req.Email, req.Phone, req.Username)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, "registration complete", gin.H{
		"username": user.Username,
		"status":   user.Status,
	})
}
