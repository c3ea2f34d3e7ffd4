package config

import (
	"os"

	"github.com/joho/godotenv"
)

var loaded bool

// Config returns the value of an environment variable, loading .env once.
func Config(key string) string {
	if !loaded {
		godotenv.Load(".env")
		loaded = true
	}
	return os.Getenv(key)
}

// ConfigDefault returns the value of an environment variable or a fallback
// when the variable is unset or empty.
func ConfigDefault(key string, fallback string) string {
	if value := Config(key); value != "" {
		return value
	}
	return fallback
}
