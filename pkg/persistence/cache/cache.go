// Package cache keeps active workflow lookups in Redis in front of another
// persistence implementation.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/leadflow/pkg/models"
	"github.com/dukex/leadflow/pkg/persistence"
	"github.com/redis/go-redis/v9"
)

const (
	// DefaultTTL bounds how long a cached lookup is served.
	DefaultTTL = 5 * time.Minute

	generationKey = "leadflow:workflows:generation"
	entryPrefix   = "leadflow:workflows:active"
)

// NewClient parses a redis:// URL and checks the server is reachable.
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	options, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(options)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = client.Ping(ctx).Err()
	if err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}

// WorkflowRepository caches List calls that select the active definitions of
// one trigger event. Entries are keyed by a generation counter that every
// Save and Delete increments, so a write makes all earlier entries
// unreachable. Redis failures fall through to the wrapped repository.
type WorkflowRepository struct {
	next   persistence.WorkflowRepository
	client redis.UniversalClient
	ttl    time.Duration
	logger *slog.Logger
}

func NewWorkflowRepository(
	logger *slog.Logger,
	next persistence.WorkflowRepository,
	client redis.UniversalClient,
	ttl time.Duration,
) *WorkflowRepository {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &WorkflowRepository{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: logger.With("module", "workflow_cache"),
	}
}

func cacheable(filter persistence.WorkflowFilter) bool {
	return filter.TriggerEvent != "" && filter.IsActive != nil && *filter.IsActive
}

func entryKey(generation int64, event models.TriggerEvent) string {
	return fmt.Sprintf("%s:%d:%s", entryPrefix, generation, event)
}

func (r *WorkflowRepository) generation(ctx context.Context) (int64, error) {
	generation, err := r.client.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}

	return generation, err
}

func (r *WorkflowRepository) List(ctx context.Context, filter persistence.WorkflowFilter) ([]*models.Workflow, error) {
	if !cacheable(filter) {
		return r.next.List(ctx, filter)
	}

	generation, err := r.generation(ctx)
	if err != nil {
		r.logger.WarnContext(ctx, "Failed to read cache generation", "error", err)

		return r.next.List(ctx, filter)
	}

	key := entryKey(generation, filter.TriggerEvent)

	cached, err := r.client.Get(ctx, key).Bytes()
	if err == nil {
		var workflows []*models.Workflow

		err = json.Unmarshal(cached, &workflows)
		if err == nil {
			return workflows, nil
		}

		r.logger.WarnContext(ctx, "Discarding unreadable cache entry", "key", key, "error", err)
	} else if !errors.Is(err, redis.Nil) {
		r.logger.WarnContext(ctx, "Failed to read cache entry", "key", key, "error", err)
	}

	workflows, err := r.next.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(workflows)
	if err != nil {
		r.logger.WarnContext(ctx, "Failed to encode cache entry", "key", key, "error", err)

		return workflows, nil
	}

	err = r.client.Set(ctx, key, encoded, r.ttl).Err()
	if err != nil {
		r.logger.WarnContext(ctx, "Failed to write cache entry", "key", key, "error", err)
	}

	return workflows, nil
}

func (r *WorkflowRepository) GetByID(ctx context.Context, id string) (*models.Workflow, error) {
	return r.next.GetByID(ctx, id)
}

func (r *WorkflowRepository) Save(ctx context.Context, workflow *models.Workflow) error {
	err := r.next.Save(ctx, workflow)
	if err != nil {
		return err
	}

	r.invalidate(ctx)

	return nil
}

func (r *WorkflowRepository) Delete(ctx context.Context, id string) error {
	err := r.next.Delete(ctx, id)
	if err != nil {
		return err
	}

	r.invalidate(ctx)

	return nil
}

// invalidate runs after the write has been committed. If it fails, stale
// entries are served until their TTL expires.
func (r *WorkflowRepository) invalidate(ctx context.Context) {
	err := r.client.Incr(ctx, generationKey).Err()
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to invalidate workflow cache", "error", err, "ttl", r.ttl)
	}
}

// Persistence replaces the workflow repository of base with a cached one.
type Persistence struct {
	persistence.Persistence

	client    redis.UniversalClient
	workflows *WorkflowRepository
}

func NewPersistence(
	logger *slog.Logger,
	base persistence.Persistence,
	client redis.UniversalClient,
	ttl time.Duration,
) *Persistence {
	return &Persistence{
		Persistence: base,
		client:      client,
		workflows:   NewWorkflowRepository(logger, base.WorkflowRepository(), client, ttl),
	}
}

func (p *Persistence) WorkflowRepository() persistence.WorkflowRepository {
	return p.workflows
}

func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.Persistence.HealthCheck(ctx)
	if err != nil {
		return err
	}

	err = p.client.Ping(ctx).Err()
	if err != nil {
		return fmt.Errorf("redis is unhealthy: %w", err)
	}

	return nil
}

func (p *Persistence) Close(ctx context.Context) error {
	return errors.Join(p.client.Close(), p.Persistence.Close(ctx))
}
