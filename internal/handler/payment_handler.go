package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/superauth/internal/config"
	"github.com/xxxsen/superauth/internal/metrics"
	"github.com/xxxsen/superauth/internal/pkg/response"
	"github.com/xxxsen/superauth/internal/service"
)

type PaymentHandler struct {
	payments  *service.PaymentService
	cfg       config.RazorpayConfig
	collector *metrics.Collector
}

func NewPaymentHandler(payments *service.PaymentService, cfg config.RazorpayConfig, collector *metrics.Collector) *PaymentHandler {
	return &PaymentHandler{payments: payments, cfg: cfg, collector: collector}
}

// Webhook receives provider events. The signature covers the raw body, so it
// is read before any binding.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request")
		return
	}
	signature := c.GetHeader("X-Razorpay-Signature")
	if err := h.payments.HandleWebhook(c.Request.Context(), body, signature); err != nil {
		h.collector.RecordWebhook("rejected")
		handleError(c, err)
		return
	}
	h.collector.RecordWebhook("accepted")
	response.Success(c, "ok", nil)
}

// Callback lands the user's browser after checkout and forwards it to the
// configured success or error page.
func (h *PaymentHandler) Callback(c *gin.Context) {
	linkID := c.Query("razorpay_payment_link_id")
	paymentID := c.Query("razorpay_payment_id")
	signature := c.Query("razorpay_signature")
	if err := h.payments.VerifyCallback(linkID, paymentID, signature); err != nil {
		if h.cfg.ErrorURL != "" {
			c.Redirect(http.StatusFound, h.cfg.ErrorURL)
			return
		}
		handleError(c, err)
		return
	}
	if h.cfg.SuccessURL != "" {
		c.Redirect(http.StatusFound, h.cfg.SuccessURL)
		return
	}
	response.Success(c, "payment verified", nil)
}

func (h *PaymentHandler) Status(c *gin.Context) {
	txn, err := h.payments.Status(c.Request.Context(), c.Param("reference_id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, "payment status", gin.H{
		"reference_id": txn.ReferenceID,
		"username":     txn.Username,
		"status":       txn.Status,
		"total_price":  txn.TotalPrice,
	})
}
