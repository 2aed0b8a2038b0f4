package config

import (
	"fmt"
	"os"
)

// Config holds process-wide settings. It is read once at startup and treated
// as immutable for the process lifetime.
type Config struct {
	DatabaseURL string
	JWTSecret   string
	Port        string

	// Bootstrap admin account, seeded on first start.
	AdminEmail    string
	AdminPassword string

	// Firebase credentials for push notifications. Either may be empty,
	// in which case FCM is disabled.
	FCMCredentialsFile   string
	FCMCredentialsBase64 string
}

func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		JWTSecret:            os.Getenv("APP_JWT_SECRET"),
		Port:                 os.Getenv("PORT"),
		AdminEmail:           os.Getenv("ADMIN_EMAIL"),
		AdminPassword:        os.Getenv("ADMIN_PASSWORD"),
		FCMCredentialsFile:   os.Getenv("FIREBASE_CREDENTIALS_FILE"),
		FCMCredentialsBase64: os.Getenv("FIREBASE_CREDENTIALS_BASE64"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("APP_JWT_SECRET environment variable is required")
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.AdminEmail == "" {
		cfg.AdminEmail = "admin@cabride.local"
	}
	if cfg.AdminPassword == "" {
		cfg.AdminPassword = "admin123"
	}
	if cfg.FCMCredentialsFile == "" {
		cfg.FCMCredentialsFile = "./firebase-service-account.json"
	}
	return cfg, nil
}
