package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingScanner struct {
	calls atomic.Int32
	err   error
}

func (s *countingScanner) ScanAndFire(ctx context.Context) (int, error) {
	s.calls.Add(1)

	return 1, s.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestInactivityJob_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		schedule string
		valid    bool
	}{
		{"", true},
		{"@daily", true},
		{"0 3 * * *", true},
		{"@every 1h", true},
		{"every day", false},
		{"* * *", false},
	}

	for _, tt := range tests {
		job := NewInactivityJob(testLogger(), &countingScanner{}, tt.schedule)

		err := job.Validate()
		if tt.valid {
			assert.NoError(t, err, tt.schedule)
		} else {
			assert.Error(t, err, tt.schedule)
		}
	}
}

func TestInactivityJob_StartRejectsBadSchedule(t *testing.T) {
	t.Parallel()

	job := NewInactivityJob(testLogger(), &countingScanner{}, "not cron")

	assert.Error(t, job.Start(t.Context()))
	assert.NoError(t, job.Stop(t.Context()))
	assert.True(t, job.Next().IsZero())
}

func TestInactivityJob_RunsOnSchedule(t *testing.T) {
	t.Parallel()

	scanner := &countingScanner{err: errors.New("store offline")}
	job := NewInactivityJob(testLogger(), scanner, "@every 1s")

	require.NoError(t, job.Start(t.Context()))
	assert.False(t, job.Next().IsZero())

	assert.Eventually(t, func() bool {
		return scanner.calls.Load() >= 1
	}, 3*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, job.Stop(ctx))
}
