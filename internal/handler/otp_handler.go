package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/homenest/homenest-api/internal/apperr"
	"github.com/homenest/homenest-api/internal/model"
	"github.com/homenest/homenest-api/internal/service"
	"github.com/homenest/homenest-api/pkg/logger"
	"github.com/homenest/homenest-api/pkg/mailer"
	"go.uber.org/zap"
)

// OTPHandler exposes the passcode lifecycle at /api/OTP
type OTPHandler struct {
	otpService *service.OTPService
}

func NewOTPHandler(otpService *service.OTPService) *OTPHandler {
	return &OTPHandler{otpService: otpService}
}

// Generate godoc
// @Summary Send a verification code to an email address
// @Tags OTP
// @Accept json
// @Produce json
// @Param body body model.GenerateOTPRequest true "Email"
// @Success 200 {object} model.OTPResponse
// @Failure 400 {object} model.OTPResponse
// @Failure 429 {object} model.OTPResponse
// @Router /OTP/generate [post]
func (h *OTPHandler) Generate(c *gin.Context) {
	var req model.GenerateOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.OTPResponse{Message: validationMessage(err)})
		return
	}

	expiresAt, err := h.otpService.Generate(c.Request.Context(), req.Email, mailer.OTPKindVerification)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, model.OTPResponse{
		Success:   true,
		Message:   "A verification code has been sent to your email",
		ExpiresAt: &expiresAt,
	})
}

// Verify godoc
// @Summary Verify a code
// @Tags OTP
// @Accept json
// @Produce json
// @Param body body model.VerifyOTPRequest true "Email and code"
// @Success 200 {object} model.OTPResponse
// @Failure 400 {object} model.OTPResponse
// @Failure 404 {object} model.OTPResponse
// @Router /OTP/verify [post]
func (h *OTPHandler) Verify(c *gin.Context) {
	var req model.VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.OTPResponse{Message: validationMessage(err)})
		return
	}

	if err := h.otpService.Verify(c.Request.Context(), req.Email, req.OTPCode, false); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, model.OTPResponse{Success: true, Message: "Code verified"})
}

// Resend godoc
// @Summary Send a fresh code, invalidating the previous one
// @Tags OTP
// @Accept json
// @Produce json
// @Param body body model.GenerateOTPRequest true "Email"
// @Success 200 {object} model.OTPResponse
// @Failure 429 {object} model.OTPResponse
// @Router /OTP/resend [post]
func (h *OTPHandler) Resend(c *gin.Context) {
	var req model.GenerateOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.OTPResponse{Message: validationMessage(err)})
		return
	}

	expiresAt, err := h.otpService.Resend(c.Request.Context(), req.Email, mailer.OTPKindVerification)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, model.OTPResponse{
		Success:   true,
		Message:   "A new verification code has been sent to your email",
		ExpiresAt: &expiresAt,
	})
}

func (h *OTPHandler) fail(c *gin.Context, err error) {
	status := apperr.StatusOf(err)
	if status >= http.StatusInternalServerError {
		logger.Error(c.Request.Context(), "OTP request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, model.OTPResponse{Message: apperr.MessageOf(err)})
}
