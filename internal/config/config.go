package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Env      string
	LogLevel string
	Face     FaceConfig
	Audit    AuditConfig
	Database DatabaseConfig
	Server   ServerConfig
}

type FaceConfig struct {
	DetectorURL    string  // learned face detector service (empty disables the stage)
	CascadeURL     string  // classical cascade detector service (empty disables the stage)
	EmbedderURL    string  // embedding service, defaults to http://localhost:8000
	EmbeddingDim   int     // defaults to 512
	MinFaceSize    int     // pixels, detections smaller than this are discarded (default 60)
	MatchThreshold float64 // minimum cosine similarity to accept a match (default 0.35)
}

type AuditConfig struct {
	SigningKey    []byte // required for serving, no default
	EncryptionKey []byte // optional 32-byte hex key; absence disables field sealing
	DeviceKey     string // shared secret expected in X-Device-Key (empty trusts no device)
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

type ServerConfig struct {
	Host string
	Port int
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a float.
// Returns the default value if the env var is unset, empty, or invalid.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return defaultVal
}

func Load() (*Config, error) {
	cfg := &Config{
		Env:      os.Getenv("FACEGATE_ENV"),
		LogLevel: os.Getenv("FACEGATE_LOG_LEVEL"),
		Face: FaceConfig{
			DetectorURL:    os.Getenv("FACEGATE_DETECTOR_URL"),
			CascadeURL:     os.Getenv("FACEGATE_CASCADE_URL"),
			EmbedderURL:    os.Getenv("FACEGATE_EMBEDDER_URL"),
			EmbeddingDim:   envInt("FACEGATE_EMBEDDING_DIM", 512),
			MinFaceSize:    envInt("FACEGATE_MIN_FACE_SIZE", 60),
			MatchThreshold: envFloat("FACEGATE_MATCH_THRESHOLD", 0.35),
		},
		Audit: AuditConfig{
			SigningKey: []byte(os.Getenv("FACEGATE_SIGNING_KEY")),
			DeviceKey:  os.Getenv("FACEGATE_DEVICE_KEY"),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("FACEGATE_DATABASE_URL"),
			MaxOpenConns: envInt("FACEGATE_DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("FACEGATE_DATABASE_MAX_IDLE_CONNS", 5),
		},
		Server: ServerConfig{
			Host: os.Getenv("FACEGATE_HOST"),
			Port: envInt("FACEGATE_PORT", 8080),
		},
	}

	if len(cfg.Audit.SigningKey) == 0 {
		cfg.Audit.SigningKey = nil
	}

	if enc := os.Getenv("FACEGATE_ENCRYPTION_KEY"); enc != "" {
		key, err := hex.DecodeString(enc)
		if err != nil {
			return nil, fmt.Errorf("FACEGATE_ENCRYPTION_KEY must be hex: %w", err)
		}
		if len(key) != 32 {
			return nil, fmt.Errorf("FACEGATE_ENCRYPTION_KEY must decode to 32 bytes, got %d", len(key))
		}
		cfg.Audit.EncryptionKey = key
	}

	return cfg, nil
}
