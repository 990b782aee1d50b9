package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dukex/leadflow/pkg/persistence"
	"github.com/dukex/leadflow/pkg/persistence/cache"
	"github.com/dukex/leadflow/pkg/persistence/file"
	"github.com/dukex/leadflow/pkg/persistence/postgresql"
)

var supportedPersistenceProviders = []string{"file", "postgres", "postgresql"}

// NewPersistence opens the record store named by databaseURL. postgres://
// and postgresql:// URLs select PostgreSQL; anything else is a directory for
// file persistence, with an optional file:// prefix.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	switch provider := parsePersistenceProvider(databaseURL); provider {
	case "postgres", "postgresql":
		p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgresql persistence: %w", err)
		}

		return p, nil
	default:
		root := strings.TrimPrefix(databaseURL, "file://")
		if root == "" {
			return nil, fmt.Errorf("database url is required")
		}

		return file.NewPersistence(root), nil
	}
}

// WithCache puts the Redis definition cache in front of p when redisURL is set.
func WithCache(
	ctx context.Context,
	logger *slog.Logger,
	p persistence.Persistence,
	redisURL string,
	ttl time.Duration,
) (persistence.Persistence, error) {
	if redisURL == "" {
		return p, nil
	}

	client, err := cache.NewClient(ctx, redisURL)
	if err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "Workflow definition cache enabled", "ttl", ttl)

	return cache.NewPersistence(logger, p, client, ttl), nil
}

func parsePersistenceProvider(databaseURL string) string {
	parts := strings.Split(databaseURL, "://")
	if len(parts) < 2 {
		return "file"
	}

	provider := parts[0]
	for _, supported := range supportedPersistenceProviders {
		if provider == supported {
			return provider
		}
	}

	return "file"
}
