package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/dushop/dushop_backend/config"
	"github.com/dushop/dushop_backend/controllers"
	"github.com/dushop/dushop_backend/middleware"
	"github.com/dushop/dushop_backend/repositories"
	"github.com/dushop/dushop_backend/routes"
	"github.com/dushop/dushop_backend/services"
)

// CustomValidator is a custom validator for Echo
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates the request body
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func main() {
	// Load .env file
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: .env file not found")
	}

	cfg := config.Load()

	// Connect to database
	client := config.ConnectDB(cfg)

	// Pick the OTP store backend
	var store repositories.OTPStore
	var memStore *repositories.MemoryOTPStore
	if cfg.OTPStore == "redis" {
		redisClient := config.ConnectRedis(cfg)
		if redisClient == nil {
			log.Fatal("OTP_STORE=redis but Redis is unreachable")
		}
		store = repositories.NewRedisOTPStore(redisClient, cfg.OTPCodeLength, cfg.OTPTTL, cfg.OTPMaxAttempts)
	} else {
		memStore = repositories.NewMemoryOTPStore(cfg.OTPCodeLength, cfg.OTPTTL, cfg.OTPMaxAttempts)
		memStore.StartSweeper(cfg.OTPSweepInterval)
		store = memStore
	}

	mailer := services.NewSMTPMailer(cfg)
	accounts := services.NewAuthProvider(cfg, client)
	otpService := services.NewOTPService(store, mailer, accounts, cfg.OTPMaxAttempts, cfg.RequireRegistered)

	// Create a new Echo instance
	e := echo.New()

	// Initialize custom validator
	e.Validator = &CustomValidator{validator: validator.New()}

	// Middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORSWithConfig(echoMiddleware.CORSConfig{
		AllowOrigins:     []string{cfg.CORSOrigin},
		AllowCredentials: true,
	}))
	e.Use(echoMiddleware.Secure())
	if cfg.RateLimitEnabled {
		e.Use(middleware.NewRateLimiter().RateLimit())
	}

	e.Match([]string{"GET", "HEAD"}, "/", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":  "OK",
			"message": "Welcome to DU-Shop API",
			"version": "1.0",
		})
	})

	e.Match([]string{"GET", "HEAD"}, "/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":   "healthy",
			"database": "connected",
		})
	})

	// Initialize controllers
	otpController := controllers.NewOTPController(otpService, cfg.StrictErrors)
	authController := controllers.NewAuthController(accounts)

	routes.RegisterRoutes(e, otpController, authController)

	// Start server
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			e.Logger.Fatal(err)
		}
	}()

	// Wait for interrupt, then drain in-flight requests before exit
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if memStore != nil {
		memStore.StopSweeper()
	}
	if err := e.Shutdown(ctx); err != nil {
		e.Logger.Fatal(err)
	}
	if err := client.Disconnect(ctx); err != nil {
		log.Printf("Error disconnecting MongoDB: %v", err)
	}
}
