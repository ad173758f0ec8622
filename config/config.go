// config/config.go
package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds all externally configurable settings. Values come from the
// environment (godotenv loads .env in main); nothing here is hard-coded
// beyond development defaults.
type Config struct {
	Port string

	MongoURI string
	DBName   string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SMTPHost  string
	SMTPPort  int
	SMTPUser  string
	SMTPPass  string
	FromEmail string

	AuthAPIURL string
	AuthAPIKey string

	CORSOrigin string

	OTPTTL            time.Duration
	OTPMaxAttempts    int
	OTPCodeLength     int
	OTPStore          string // "memory" or "redis"
	OTPSweepInterval  time.Duration
	RequireRegistered bool
	StrictErrors      bool
	RateLimitEnabled  bool
}

// Load reads the configuration from environment variables.
func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "5000"),

		MongoURI: os.Getenv("MONGO_URI"),
		DBName:   getEnv("DB_NAME", "dushop"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		SMTPHost:  getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:  getEnvInt("SMTP_PORT", 587),
		SMTPUser:  os.Getenv("SMTP_USER"),
		SMTPPass:  os.Getenv("SMTP_PASS"),
		FromEmail: getEnv("FROM_EMAIL", os.Getenv("SMTP_USER")),

		AuthAPIURL: os.Getenv("AUTH_API_URL"),
		AuthAPIKey: os.Getenv("AUTH_API_KEY"),

		CORSOrigin: getEnv("CORS_ORIGIN", "http://localhost:5173"),

		OTPTTL:            getEnvDuration("OTP_TTL", 5*time.Minute),
		OTPMaxAttempts:    getEnvInt("OTP_MAX_ATTEMPTS", 5),
		OTPCodeLength:     getEnvInt("OTP_CODE_LENGTH", 6),
		OTPStore:          getEnv("OTP_STORE", "memory"),
		OTPSweepInterval:  getEnvDuration("OTP_SWEEP_INTERVAL", time.Minute),
		RequireRegistered: getEnvBool("OTP_REQUIRE_REGISTERED", false),
		StrictErrors:      getEnvBool("OTP_STRICT_ERRORS", false),
		RateLimitEnabled:  getEnvBool("RATE_LIMIT_ENABLED", true),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Warning: invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("Warning: invalid %s=%q, using %t", key, v, fallback)
		return fallback
	}
	return b
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("Warning: invalid %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}
