// routes/routes.go
package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/dushop/dushop_backend/controllers"
)

// RegisterRoutes sets up all public routes.
func RegisterRoutes(e *echo.Echo, otpController *controllers.OTPController, authController *controllers.AuthController) {
	e.POST("/send-otp", otpController.SendOTP)
	e.POST("/verify-otp", otpController.VerifyOTP)

	e.POST("/sign-up", authController.Signup)
	e.POST("/login", authController.Login)
}
