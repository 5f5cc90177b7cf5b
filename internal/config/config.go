package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	PublicBaseURL string

	// Scheduling
	CalendarEmail         string
	ServiceAccountKeyPath string
	Timezone              string
	SlotDurationMinutes   int
	PaidDurationMinutes   int
	BusinessHoursStart    int
	BusinessHoursEnd      int
	DaysAhead             int

	// Stripe
	StripeSecretKey     string
	StripeWebhookSecret string
	PriceCents          int64
	PriceCurrency       string
	CheckoutSuccessURL  string
	CheckoutCancelURL   string

	// Webhook dedup
	RedisAddr          string
	RedisPassword      string
	ProcessedRetention time.Duration

	// Email
	EmailProvider     string
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	NotificationCC    string
	AWSRegion         string

	// Chat assistant
	AnthropicAPIKey    string
	AnthropicModel     string
	AnthropicMaxTokens int

	// Doctor directory
	DoctorAPIKey  string
	DoctorBaseURL string

	// Auth
	GoogleClientID string
	JWTSecret      string
	TokenTTL       time.Duration

	// Conversations store
	DatabaseURL string

	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", "https://doctors.sirish.world"),

		CalendarEmail:         getEnv("SCHEDULING_CALENDAR_EMAIL", ""),
		ServiceAccountKeyPath: getEnv("SCHEDULING_SERVICE_ACCOUNT_KEY_PATH", ""),
		Timezone:              getEnv("SCHEDULING_TIMEZONE", "America/Los_Angeles"),
		SlotDurationMinutes:   getEnvAsInt("SCHEDULING_SLOT_DURATION_MINUTES", 20),
		PaidDurationMinutes:   getEnvAsInt("SCHEDULING_PAID_DURATION_MINUTES", 60),
		BusinessHoursStart:    getEnvAsInt("SCHEDULING_BUSINESS_HOURS_START", 9),
		BusinessHoursEnd:      getEnvAsInt("SCHEDULING_BUSINESS_HOURS_END", 17),
		DaysAhead:             getEnvAsInt("SCHEDULING_DAYS_AHEAD", 14),

		StripeSecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
		PriceCents:          getEnvAsInt64("STRIPE_PRICE_CENTS", 1999),
		PriceCurrency:       getEnv("STRIPE_PRICE_CURRENCY", "usd"),
		CheckoutSuccessURL:  getEnv("STRIPE_SUCCESS_URL", "https://doctors.sirish.world?payment=success&session_id={CHECKOUT_SESSION_ID}"),
		CheckoutCancelURL:   getEnv("STRIPE_CANCEL_URL", "https://doctors.sirish.world?payment=cancelled"),

		RedisAddr:          getEnv("REDIS_ADDR", ""),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		ProcessedRetention: getEnvAsDuration("WEBHOOK_PROCESSED_RETENTION", 24*time.Hour),

		EmailProvider:     strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", "sendgrid"))),
		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", "zumanely0@gmail.com"),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "Zumanely"),
		NotificationCC:    getEnv("SCHEDULING_NOTIFICATION_CC", "zumanely0@gmail.com"),
		AWSRegion:         getEnv("AWS_REGION", "us-east-1"),

		AnthropicAPIKey:    getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicModel:     getEnv("ANTHROPIC_MODEL", "claude-3-5-sonnet-20241022"),
		AnthropicMaxTokens: getEnvAsInt("ANTHROPIC_MAX_TOKENS", 1024),

		DoctorAPIKey:  getEnv("ZOCDOC_API_KEY", ""),
		DoctorBaseURL: getEnv("ZOCDOC_BASE_URL", "https://api.zocdoc.com/v1"),

		GoogleClientID: getEnv("GOOGLE_CLIENT_ID", ""),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		TokenTTL:       getEnvAsDuration("JWT_TOKEN_TTL", 168*time.Hour),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
	}
}

// getEnv reads an environment variable with a fallback default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt reads an environment variable as an integer
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvAsInt64 reads an environment variable as a 64-bit integer
func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvAsDuration reads an environment variable as a duration
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvAsSlice reads a comma-separated environment variable
func getEnvAsSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
