package queue

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func startQueue(t *testing.T, workers, maxAttempts int, backoff time.Duration) *Queue {
	t.Helper()
	q := New(workers, maxAttempts, backoff, zap.NewNop())
	q.Start(context.Background())
	t.Cleanup(q.Stop)
	return q
}

func TestScheduleRunsJob(t *testing.T) {
	q := startQueue(t, 2, 1, 0)

	var runs atomic.Int32
	q.Schedule(Job{
		Name: "tick",
		Run: func(context.Context) error {
			runs.Add(1)
			return nil
		},
	}, time.Now().Add(20*time.Millisecond))

	require.Eventually(t, func() bool {
		return runs.Load() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestSchedulePastDueRunsImmediately(t *testing.T) {
	q := startQueue(t, 1, 1, 0)

	var runs atomic.Int32
	q.Schedule(Job{
		Name: "late",
		Run: func(context.Context) error {
			runs.Add(1)
			return nil
		},
	}, time.Now().Add(-time.Hour))

	require.Eventually(t, func() bool {
		return runs.Load() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestRetriesWithBackoff(t *testing.T) {
	q := startQueue(t, 1, 3, 10*time.Millisecond)

	var runs atomic.Int32
	q.Schedule(Job{
		Name: "flaky",
		Run: func(context.Context) error {
			if runs.Add(1) < 3 {
				return errors.New("transient")
			}
			return nil
		},
	}, time.Now())

	require.Eventually(t, func() bool {
		return runs.Load() == 3
	}, 2*time.Second, 5*time.Millisecond)

	// No further attempts after success.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(3), runs.Load())
}

func TestOnExhaustedAfterFinalFailure(t *testing.T) {
	q := startQueue(t, 1, 2, 5*time.Millisecond)

	var runs, exhausted atomic.Int32
	q.Schedule(Job{
		Name: "doomed",
		Run: func(context.Context) error {
			runs.Add(1)
			return errors.New("permanent")
		},
		OnExhausted: func(context.Context) {
			exhausted.Add(1)
		},
	}, time.Now())

	require.Eventually(t, func() bool {
		return exhausted.Load() == 1
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(2), runs.Load())
}

func TestRunNowDoesNotRetry(t *testing.T) {
	q := startQueue(t, 1, 3, time.Millisecond)

	var runs atomic.Int32
	err := q.RunNow(context.Background(), Job{
		Name: "sync",
		Run: func(context.Context) error {
			runs.Add(1)
			return errors.New("boom")
		},
	})

	require.Error(t, err)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(1), runs.Load())
}

func TestStopDropsPendingTimers(t *testing.T) {
	q := New(1, 1, 0, zap.NewNop())
	q.Start(context.Background())

	var runs atomic.Int32
	q.Schedule(Job{
		Name: "far",
		Run: func(context.Context) error {
			runs.Add(1)
			return nil
		},
	}, time.Now().Add(time.Hour))

	q.Stop()
	assert.Zero(t, runs.Load())
}
