// controllers/otp_controller.go
package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dushop/dushop_backend/models"
	"github.com/dushop/dushop_backend/services"
	"github.com/dushop/dushop_backend/utils"
)

// OTPController handles OTP issuance and verification endpoints.
type OTPController struct {
	OTP *services.OTPService
	// StrictErrors collapses all verification failures to one reason so a
	// caller cannot probe which emails have active codes.
	StrictErrors bool
}

// NewOTPController creates a new OTP controller.
func NewOTPController(otp *services.OTPService, strictErrors bool) *OTPController {
	return &OTPController{OTP: otp, StrictErrors: strictErrors}
}

// SendOTP issues a one-time password and emails it to the requested address.
func (oc *OTPController) SendOTP(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	var req models.SendOTPRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	email, err := utils.SanitizeEmail(req.Email)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid email format",
		})
	}

	err = oc.OTP.Send(ctx, email)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, map[string]string{
			"message": "OTP sent!",
		})
	case errors.Is(err, models.ErrNotRegistered):
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "No account associated with this email",
		})
	case errors.Is(err, models.ErrUpstream):
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: err.Error(),
		})
	case errors.Is(err, models.ErrDeliveryFailed):
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to send OTP.",
		})
	default:
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate OTP",
		})
	}
}

// VerifyOTP checks a submitted code. A successful verification consumes the
// code; it cannot be replayed.
func (oc *OTPController) VerifyOTP(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	var req models.VerifyOTPRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if req.Code == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Code is required",
		})
	}

	email, err := utils.SanitizeEmail(req.Email)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid email format",
		})
	}

	if err := oc.OTP.Verify(ctx, email, req.Code); err != nil {
		if !models.IsVerifyFailure(err) {
			return c.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: "Failed to verify OTP",
			})
		}
		reason := models.VerifyReason(err)
		if oc.StrictErrors {
			reason = "InvalidCode"
		}
		return c.JSON(http.StatusBadRequest, models.VerifyOTPResponse{
			Success: false,
			Error:   reason,
		})
	}

	return c.JSON(http.StatusOK, models.VerifyOTPResponse{Success: true})
}
