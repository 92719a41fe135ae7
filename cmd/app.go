package cmd

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"

	// Decoders for enrollment and verification images given on the command line.
	_ "image/jpeg"
	_ "image/png"

	"go.uber.org/zap"

	"github.com/facegate/facegate/internal/audit"
	"github.com/facegate/facegate/internal/authz"
	"github.com/facegate/facegate/internal/config"
	"github.com/facegate/facegate/internal/database"
	"github.com/facegate/facegate/internal/database/postgres"
	"github.com/facegate/facegate/internal/embedding"
	"github.com/facegate/facegate/internal/gate"
	"github.com/facegate/facegate/internal/logger"
	"github.com/facegate/facegate/internal/secrets"
)

// newLogger builds the process logger from the loaded configuration.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.LogLevel != "" {
		return logger.New(cfg.Env, cfg.LogLevel)
	}
	return logger.New(cfg.Env)
}

// openStore connects to PostgreSQL and applies pending migrations.
// The caller owns the returned pool and must close it.
func openStore(ctx context.Context, cfg *config.Config) (*postgres.Pool, database.Store, error) {
	if cfg.Database.URL == "" {
		return nil, nil, errors.New("FACEGATE_DATABASE_URL environment variable is required")
	}

	pool, err := postgres.NewPool(&cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	if err := pool.Migrate(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return pool, pool.NewStore(), nil
}

// buildVectorizer assembles the detector chain from configuration. Remote
// stages with no configured URL are skipped; the center-crop fallback stays
// enabled so a gate never refuses to produce a vector.
func buildVectorizer(cfg *config.Config) *embedding.Vectorizer {
	var detectors []embedding.Detector
	if cfg.Face.DetectorURL != "" {
		detectors = append(detectors, embedding.NewModelDetector(cfg.Face.DetectorURL))
	}
	if cfg.Face.CascadeURL != "" {
		detectors = append(detectors, embedding.NewCascadeDetector(cfg.Face.CascadeURL))
	}

	return embedding.NewVectorizer(
		embedding.NewClient(cfg.Face.EmbedderURL),
		cfg.Face.EmbeddingDim,
		embedding.WithDetectors(detectors...),
		embedding.WithMinFaceSize(cfg.Face.MinFaceSize),
	)
}

// buildService wires the full verification pipeline on top of a store.
func buildService(cfg *config.Config, store database.Store, log *zap.Logger) (*gate.Service, error) {
	signer, err := audit.NewSigner(cfg.Audit.SigningKey)
	if err != nil {
		return nil, fmt.Errorf("FACEGATE_SIGNING_KEY must be set: %w", err)
	}

	codec, err := secrets.NewCodec(cfg.Audit.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("invalid FACEGATE_ENCRYPTION_KEY: %w", err)
	}

	return gate.New(gate.Config{
		Vectorizer: buildVectorizer(cfg),
		Authorizer: &authz.Authorizer{},
		Signer:     signer,
		Codec:      codec,
		Store:      store,
		Threshold:  cfg.Face.MatchThreshold,
		Logger:     log,
	})
}

// loadImage opens and decodes an image file from disk.
func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}
	return img, nil
}
