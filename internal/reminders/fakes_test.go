package reminders

import (
	"context"
	"errors"
	"sync"
	"time"

	"appointment-app-server/internal/models"
	"appointment-app-server/internal/queue"
)

// fakeNotifier records deliveries and can be told to fail a number of times
// before succeeding, or to always fail.
type fakeNotifier struct {
	mu        sync.Mutex
	sent      []string // client emails in delivery order
	calls     int
	failFirst int // fail this many calls, then succeed
	alwaysErr bool
}

func (n *fakeNotifier) Send(_ context.Context, client *models.Client, _ *models.Appointment) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls++
	if n.alwaysErr || n.calls <= n.failFirst {
		return errors.New("smtp unavailable")
	}
	n.sent = append(n.sent, client.Email)
	return nil
}

func (n *fakeNotifier) callCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls
}

func (n *fakeNotifier) delivered() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.sent...)
}

// recordingExec captures Schedule calls without running anything; RunNow
// executes inline like the real queue.
type recordingExec struct {
	mu     sync.Mutex
	jobs   []queue.Job
	runAts []time.Time
}

func (e *recordingExec) Schedule(job queue.Job, runAt time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.jobs = append(e.jobs, job)
	e.runAts = append(e.runAts, runAt)
}

func (e *recordingExec) RunNow(ctx context.Context, job queue.Job) error {
	return job.Run(ctx)
}

func (e *recordingExec) scheduledCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.jobs)
}
