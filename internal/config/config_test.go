package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("SCHEDULING_TIMEZONE", "")
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.Timezone != "America/Los_Angeles" {
		t.Fatalf("expected default timezone, got %s", cfg.Timezone)
	}
	if cfg.SlotDurationMinutes != 20 {
		t.Fatalf("expected 20-minute slots by default, got %d", cfg.SlotDurationMinutes)
	}
	if cfg.PaidDurationMinutes != 60 {
		t.Fatalf("expected 60-minute paid sessions by default, got %d", cfg.PaidDurationMinutes)
	}
	if cfg.BusinessHoursStart != 9 || cfg.BusinessHoursEnd != 17 {
		t.Fatalf("expected 9-17 business hours, got %d-%d", cfg.BusinessHoursStart, cfg.BusinessHoursEnd)
	}
	if cfg.PriceCents != 1999 {
		t.Fatalf("expected default price of 1999 cents, got %d", cfg.PriceCents)
	}
	if cfg.ProcessedRetention != 24*time.Hour {
		t.Fatalf("expected 24h processed retention, got %s", cfg.ProcessedRetention)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("SCHEDULING_BUSINESS_HOURS_START", "8")
	t.Setenv("SCHEDULING_BUSINESS_HOURS_END", "18")
	t.Setenv("SCHEDULING_DAYS_AHEAD", "7")
	t.Setenv("STRIPE_PRICE_CENTS", "2999")
	t.Setenv("WEBHOOK_PROCESSED_RETENTION", "48h")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://doctors.sirish.world, https://sirish.world")

	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected overridden port, got %s", cfg.Port)
	}
	if cfg.BusinessHoursStart != 8 || cfg.BusinessHoursEnd != 18 {
		t.Fatalf("expected 8-18 business hours, got %d-%d", cfg.BusinessHoursStart, cfg.BusinessHoursEnd)
	}
	if cfg.DaysAhead != 7 {
		t.Fatalf("expected 7 days ahead, got %d", cfg.DaysAhead)
	}
	if cfg.PriceCents != 2999 {
		t.Fatalf("expected 2999 cents, got %d", cfg.PriceCents)
	}
	if cfg.ProcessedRetention != 48*time.Hour {
		t.Fatalf("expected 48h retention, got %s", cfg.ProcessedRetention)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://sirish.world" {
		t.Fatalf("unexpected CORS origins: %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadInvalidIntFallsBack(t *testing.T) {
	t.Setenv("SCHEDULING_SLOT_DURATION_MINUTES", "not-a-number")
	cfg := Load()
	if cfg.SlotDurationMinutes != 20 {
		t.Fatalf("expected fallback to 20, got %d", cfg.SlotDurationMinutes)
	}
}
