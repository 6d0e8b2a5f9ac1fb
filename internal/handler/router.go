package handler

import (
	"github.com/gin-gonic/gin"
)

type RouterDeps struct {
	Registration *RegistrationHandler
	Login        *LoginHandler
	Session      *SessionHandler
	Payment      *PaymentHandler
	// OtpRateLimit guards the code-sending endpoints; nil disables it.
	OtpRateLimit gin.HandlerFunc
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	limited := api.Group("")
	if deps.OtpRateLimit != nil {
		limited.Use(deps.OtpRateLimit)
	}
	limited.POST("/register/start", deps.Registration.Start)
	limited.POST("/login/send-otp", deps.Login.SendOtp)
	limited.POST("/login/continue-with-oldest-logout", deps.Login.ContinueWithOldestLogout)

	api.POST("/register/verify-otp", deps.Registration.VerifyOtp)
	api.POST("/register/validate-username", deps.Registration.ValidateUsername)
	api.POST("/register/initiate-payment", deps.Registration.InitiatePayment)
	api.POST("/register/complete", deps.Registration.Complete)

	api.POST("/login/verify", deps.Login.Verify)
	api.POST("/login/logout", deps.Login.Logout)

	api.POST("/session/validate", deps.Session.Validate)

	api.POST("/payment/webhook", deps.Payment.Webhook)
	api.GET("/payment/callback", deps.Payment.Callback)
	api.GET("/payment/status/:reference_id", deps.Payment.Status)
}
