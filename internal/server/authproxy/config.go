package authproxy

import (
	"os"
	"time"
)

// Config holds runtime settings for the auth proxy, sourced from the
// environment with development defaults.
type Config struct {
	Addr           string
	FrontendOrigin string
	RedisAddr      string
	JWTSecret      string
	TokenTTL       time.Duration
	CSRFTokenTTL   time.Duration

	MailjetBaseURL   string
	MailjetAPIKey    string
	MailjetSecretKey string
	MailjetListID    string
}

func LoadConfig() *Config {
	return &Config{
		Addr:           envOr("AUTH_ADDR", ":3001"),
		FrontendOrigin: envOr("FRONTEND_URL", "http://localhost:3000"),
		RedisAddr:      envOr("REDIS_ADDR", "localhost:6379"),
		JWTSecret:      envOr("JWT_SECRET", "dev-secret-change-me"),
		TokenTTL:       durationOr("TOKEN_TTL", time.Hour),
		CSRFTokenTTL:   durationOr("CSRF_TOKEN_TTL", 10*time.Minute),

		MailjetBaseURL:   envOr("MAILJET_BASE_URL", "https://api.mailjet.com"),
		MailjetAPIKey:    os.Getenv("MAILJET_API_KEY"),
		MailjetSecretKey: os.Getenv("MAILJET_SECRET_KEY"),
		MailjetListID:    os.Getenv("MAILJET_LIST_ID"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
