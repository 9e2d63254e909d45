package config

import (
	"os"
	"time"
)

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

type SMTPConfig struct {
	Host string
	Port string
	User string
	Pass string
	From string
}

type AppConfig struct {
	Environment string

	// AppBaseURL is the public origin embedded in password-reset links.
	AppBaseURL string

	RateLimitEnabled bool
	RateLimitConfigs map[string]RateLimitConfig
	RateLimitRedis   string

	EnforceHTTPS bool

	SMTP SMTPConfig
}

func (c *AppConfig) IsProduction() bool {
	return c.Environment == "production"
}

func GetDefaultConfig() *AppConfig {
	return &AppConfig{
		Environment: "development",
		AppBaseURL:  "http://localhost:8080",
		RateLimitEnabled: true,
		RateLimitConfigs: map[string]RateLimitConfig{
			"/auth/register": {
				Requests: 5,
				Window:   time.Minute,
			},
			"/auth/login": {
				Requests: 10,
				Window:   time.Minute,
			},
			"/auth/forgot-password": {
				Requests: 5,
				Window:   time.Minute,
			},
			"/tasks": {
				Requests: 100,
				Window:   time.Minute,
			},
		},
		EnforceHTTPS: false,
	}
}

// FromEnv layers environment overrides on top of the defaults.
func FromEnv() *AppConfig {
	cfg := GetDefaultConfig()

	if env := os.Getenv("APP_ENV"); env != "" {
		cfg.Environment = env
	}

	if os.Getenv("GIN_MODE") == "release" {
		cfg.Environment = "production"
		cfg.EnforceHTTPS = true
	}

	if base := os.Getenv("APP_BASE_URL"); base != "" {
		cfg.AppBaseURL = base
	}

	if redis := os.Getenv("RATE_LIMIT_REDIS_URL"); redis != "" {
		cfg.RateLimitRedis = redis
	}

	cfg.SMTP = SMTPConfig{
		Host: os.Getenv("SMTP_HOST"),
		Port: getenv("SMTP_PORT", "587"),
		User: os.Getenv("SMTP_USER"),
		Pass: os.Getenv("SMTP_PASS"),
		From: getenv("SMTP_FROM", "no-reply@timely.local"),
	}

	return cfg
}

func GetServerPort() string {
	return getenv("PORT", "8080")
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}
