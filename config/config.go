// Package config loads runtime configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds every runtime knob the API reads at startup. Only the database
// DSN and JWT secret are mandatory; everything else has a usable default so a
// bare dev environment boots.
type Config struct {
	Port        string
	DatabaseURL string
	JWTSecret   string

	// Email delivery. Service is "log" (default) or "sendgrid".
	EmailService   string
	EmailFrom      string
	SendGridAPIKey string

	// Optional infrastructure. Empty values disable the feature.
	RedisAddr string
	AMQPURL   string

	// Rate limiting (requests per window per caller).
	RateLimitBurst       int
	RateLimitRefill      time.Duration
	AuthLimitBurst       int
	GenerationLimitBurst int
}

// Load reads configuration from the environment. Missing required variables
// are reported as an error rather than a fatal log so callers control exit
// behavior.
func Load() (Config, error) {
	cfg := Config{
		Port:                 envStr("PORT", "8080"),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		JWTSecret:            os.Getenv("JWT_SECRET"),
		EmailService:         envStr("EMAIL_SERVICE", "log"),
		EmailFrom:            envStr("EMAIL_FROM", "noreply@draftflow.local"),
		SendGridAPIKey:       os.Getenv("SENDGRID_API_KEY"),
		RedisAddr:            os.Getenv("REDIS_ADDR"),
		AMQPURL:              os.Getenv("AMQP_URL"),
		RateLimitBurst:       envInt("RATE_LIMIT_BURST", 100),
		RateLimitRefill:      envDur("RATE_LIMIT_REFILL", time.Second),
		AuthLimitBurst:       envInt("AUTH_LIMIT_BURST", 5),
		GenerationLimitBurst: envInt("GENERATION_LIMIT_BURST", 10),
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("config: DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("config: JWT_SECRET is required")
	}

	return cfg, nil
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func envDur(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
