package config

import (
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/treeleads")
	t.Setenv("JWT_ACCESS_SECRET", "secret")
	t.Setenv("CORS_ORIGINS", "http://localhost:3000")
	t.Setenv("SMTP_HOST", "")
	t.Setenv("STRIPE_SECRET_KEY", "")
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	setRequired(t)
	t.Setenv("DATABASE_URL", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when DATABASE_URL is empty")
	}
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.EmailEnabled {
		t.Fatal("expected email to be disabled without SMTP_HOST")
	}
	if cfg.IsStripeEnabled() {
		t.Fatal("expected stripe to be disabled without a secret key")
	}
	if cfg.StripeCurrency != "usd" {
		t.Fatalf("expected usd currency, got %q", cfg.StripeCurrency)
	}
	if cfg.PendingSaleTTL != 14*24*time.Hour {
		t.Fatalf("expected 14 day pending sale TTL, got %s", cfg.PendingSaleTTL)
	}
	if cfg.DefaultPhoneRegion != "US" {
		t.Fatalf("expected US phone region, got %q", cfg.DefaultPhoneRegion)
	}
}

func TestLoadRejectsStripeWithoutWebhookSecret(t *testing.T) {
	setRequired(t)
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_123")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when webhook secret is missing")
	}
}

func TestLoadRejectsWildcardCORSWithCredentials(t *testing.T) {
	setRequired(t)
	t.Setenv("CORS_ORIGINS", "*")
	t.Setenv("CORS_ALLOW_CREDENTIALS", "true")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for wildcard origins with credentials")
	}
}
