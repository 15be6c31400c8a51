// Package config builds service configuration from environment variables so
// main stays lean. Every knob has a default that works for local development.
package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
	MaxUploadBytes  int64
	CORSOrigin      string
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	return Server{
		Addr:            envOr("SIGNA_ADDR", ":8080"),
		LogLevel:        envOr("SIGNA_LOG_LEVEL", "info"),
		LogFormat:       envOr("SIGNA_LOG_FORMAT", "json"),
		ShutdownTimeout: envDuration("SIGNA_SHUTDOWN_TIMEOUT", 10*time.Second),
		MaxUploadBytes:  envInt64("SIGNA_MAX_UPLOAD_BYTES", 256<<20),
		CORSOrigin:      envOr("SIGNA_CORS_ORIGIN", "*"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
