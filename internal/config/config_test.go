package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/cabride_test")
	t.Setenv("APP_JWT_SECRET", "test-secret")
	t.Setenv("PORT", "")
	t.Setenv("ADMIN_EMAIL", "")
	t.Setenv("ADMIN_PASSWORD", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		t.Error("admin bootstrap credentials must default")
	}
	if cfg.FCMCredentialsFile == "" {
		t.Error("FCM credentials file must default")
	}
}

func TestLoadMissingDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("APP_JWT_SECRET", "test-secret")

	if _, err := Load(); err == nil {
		t.Error("expected error for missing DATABASE_URL")
	}
}

func TestLoadMissingJWTSecret(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/cabride_test")
	t.Setenv("APP_JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Error("expected error for missing APP_JWT_SECRET")
	}
}

func TestLoadExplicitValues(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/cabride_test")
	t.Setenv("APP_JWT_SECRET", "test-secret")
	t.Setenv("PORT", "9090")
	t.Setenv("ADMIN_EMAIL", "ops@example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}
	if cfg.AdminEmail != "ops@example.com" {
		t.Errorf("AdminEmail = %q", cfg.AdminEmail)
	}
}
