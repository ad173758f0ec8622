// controllers/auth_controller.go
package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dushop/dushop_backend/models"
	"github.com/dushop/dushop_backend/services"
	"github.com/dushop/dushop_backend/utils"
)

// AuthController delegates signup and login to the hosted auth provider.
type AuthController struct {
	Accounts services.AccountGateway
}

// NewAuthController creates a new auth controller.
func NewAuthController(accounts services.AccountGateway) *AuthController {
	return &AuthController{Accounts: accounts}
}

// Signup registers a new user with the auth provider.
func (ac *AuthController) Signup(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	var req models.SignupRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Email, password (min 8 characters) and full name are required",
		})
	}

	email, err := utils.SanitizeEmail(req.Email)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid email format",
		})
	}
	req.Email = email
	req.FullName = utils.SanitizeInput(req.FullName)

	result, err := ac.Accounts.SignUp(ctx, req)
	if err != nil {
		// Provider errors propagate with their message, matching the
		// provider-facing contract.
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: err.Error(),
		})
	}

	return c.JSON(http.StatusOK, result)
}

// Login authenticates a user against the auth provider. Rejected credentials
// come back as success=false with the provider's message, not as an HTTP
// error.
func (ac *AuthController) Login(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Email and password are required",
		})
	}

	email, err := utils.SanitizeEmail(req.Email)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid email format",
		})
	}
	req.Email = email

	result, err := ac.Accounts.Login(ctx, req)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: err.Error(),
		})
	}

	return c.JSON(http.StatusOK, result)
}
