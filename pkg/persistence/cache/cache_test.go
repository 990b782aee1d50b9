package cache_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/dukex/leadflow/pkg/mocks"
	"github.com/dukex/leadflow/pkg/models"
	"github.com/dukex/leadflow/pkg/persistence"
	"github.com/dukex/leadflow/pkg/persistence/cache"
	"github.com/dukex/leadflow/pkg/persistence/file"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var redisContainer testcontainers.Container

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping redis integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	if redisContainer == nil || !redisContainer.IsRunning() {
		var err error

		redisContainer, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        "redis:7-alpine",
				ExposedPorts: []string{"6379/tcp"},
				WaitingFor:   wait.ForLog("Ready to accept connections"),
			},
			Started: true,
		})
		require.NoError(t, err)
	}

	endpoint, err := redisContainer.Endpoint(ctx, "")
	require.NoError(t, err)

	client, err := cache.NewClient(ctx, "redis://"+endpoint)
	require.NoError(t, err)

	require.NoError(t, client.FlushAll(ctx).Err())

	t.Cleanup(func() {
		_ = client.Close()
	})

	return client
}

func activeFilter(event models.TriggerEvent) persistence.WorkflowFilter {
	active := true

	return persistence.WorkflowFilter{TriggerEvent: event, IsActive: &active}
}

func TestWorkflowRepository_CachesActiveLookups(t *testing.T) {
	client := setupRedis(t)
	ctx := t.Context()

	definitions := []*models.Workflow{{
		ID:           "wf-1",
		TriggerEvent: models.TriggerLeadCreated,
		Actions:      models.Actions{models.UpdateStatus{Status: "contacted"}},
		IsActive:     true,
	}}

	next := &mocks.MockWorkflowRepository{}
	next.On("List", mock.Anything, activeFilter(models.TriggerLeadCreated)).Return(definitions, nil).Twice()
	next.On("Save", mock.Anything, mock.Anything).Return(nil).Once()

	repo := cache.NewWorkflowRepository(testLogger(), next, client, time.Minute)

	first, err := repo.List(ctx, activeFilter(models.TriggerLeadCreated))
	require.NoError(t, err)

	second, err := repo.List(ctx, activeFilter(models.TriggerLeadCreated))
	require.NoError(t, err)

	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Equal(t, models.UpdateStatus{Status: "contacted"}, second[0].Actions[0])
	next.AssertNumberOfCalls(t, "List", 1)

	require.NoError(t, repo.Save(ctx, definitions[0]))

	_, err = repo.List(ctx, activeFilter(models.TriggerLeadCreated))
	require.NoError(t, err)

	next.AssertNumberOfCalls(t, "List", 2)
	next.AssertExpectations(t)
}

func TestWorkflowRepository_FailedWriteKeepsCache(t *testing.T) {
	client := setupRedis(t)
	ctx := t.Context()

	next := &mocks.MockWorkflowRepository{}
	next.On("List", mock.Anything, mock.Anything).Return([]*models.Workflow{}, nil).Once()
	next.On("Delete", mock.Anything, "wf-1").Return(persistence.ErrWorkflowNotFound).Once()

	repo := cache.NewWorkflowRepository(testLogger(), next, client, time.Minute)

	_, err := repo.List(ctx, activeFilter(models.TriggerLeadConverted))
	require.NoError(t, err)

	assert.ErrorIs(t, repo.Delete(ctx, "wf-1"), persistence.ErrWorkflowNotFound)

	_, err = repo.List(ctx, activeFilter(models.TriggerLeadConverted))
	require.NoError(t, err)

	next.AssertNumberOfCalls(t, "List", 1)
}

func TestWorkflowRepository_BypassesUncacheableFilters(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	t.Cleanup(func() { _ = client.Close() })

	next := &mocks.MockWorkflowRepository{}
	next.On("List", mock.Anything, persistence.WorkflowFilter{}).Return([]*models.Workflow{}, nil).Twice()

	repo := cache.NewWorkflowRepository(testLogger(), next, client, 0)

	for range 2 {
		_, err := repo.List(t.Context(), persistence.WorkflowFilter{})
		require.NoError(t, err)
	}

	next.AssertExpectations(t)
}

func TestWorkflowRepository_FallsBackWhenRedisIsDown(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
	t.Cleanup(func() { _ = client.Close() })

	store := file.NewPersistence(t.TempDir())
	repo := cache.NewWorkflowRepository(testLogger(), store.WorkflowRepository(), client, time.Minute)

	workflow := &models.Workflow{
		TriggerEvent: models.TriggerLeadCreated,
		Actions:      models.Actions{models.AutoConvert{}},
		IsActive:     true,
	}
	require.NoError(t, repo.Save(t.Context(), workflow))

	workflows, err := repo.List(t.Context(), activeFilter(models.TriggerLeadCreated))
	require.NoError(t, err)
	require.Len(t, workflows, 1)
	assert.Equal(t, workflow.ID, workflows[0].ID)

	fetched, err := repo.GetByID(t.Context(), workflow.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.ID, fetched.ID)
}

func TestPersistence_HealthCheck(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})

	p := cache.NewPersistence(testLogger(), file.NewPersistence(t.TempDir()), client, time.Minute)

	err := p.HealthCheck(t.Context())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis is unhealthy")

	_, isCached := p.WorkflowRepository().(*cache.WorkflowRepository)
	assert.True(t, isCached)

	assert.NoError(t, p.Close(t.Context()))
}
