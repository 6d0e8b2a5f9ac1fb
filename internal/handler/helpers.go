package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/xxxsen/common/logutil"

	appErr "github.com/xxxsen/superauth/internal/pkg/errors"
	"github.com/xxxsen/superauth/internal/pkg/response"
)

func handleError(c *gin.Context, err error) {
	if err != nil {
		logutil.GetLogger(c.Request.Context()).Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
	}
	switch {
	case err == nil:
		return
	case err == appErr.ErrUnauthorized:
		response.Error(c, http.StatusUnauthorized, "unauthorized")
	case err == appErr.ErrForbidden:
		response.Error(c, http.StatusForbidden, "forbidden")
	case err == appErr.ErrNotFound:
		response.Error(c, http.StatusNotFound, "not found")
	case err == appErr.ErrInvalid:
		response.Error(c, http.StatusBadRequest, "invalid request")
	case err == appErr.ErrExpired:
		response.Error(c, http.StatusBadRequest, "code expired")
	case err == appErr.ErrConflict:
		response.Error(c, http.StatusConflict, "conflict")
	case err == appErr.ErrQuotaExceeded:
		response.Error(c, http.StatusConflict, "quota exceeded")
	case err == appErr.ErrPaymentRequired:
		response.Error(c, http.StatusPaymentRequired, "payment required")
	case err == appErr.ErrTooMany:
		response.Error(c, http.StatusTooManyRequests, "too many requests")
	case err == appErr.ErrDownstream:
		response.Error(c, http.StatusBadGateway, "downstream unavailable")
	default:
		response.Error(c, http.StatusInternalServerError, "internal error")
	}
}
