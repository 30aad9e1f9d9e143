package jobs

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job is one periodic task registration: a name, a cron spec and the run
// function. The registration table replaces ad-hoc global timers.
type Job struct {
	Name string
	Spec string
	Run  func(ctx context.Context)
}

// Scheduler drives the registered periodic jobs with a single cron runner.
type Scheduler struct {
	cron *cron.Cron
	log  *zap.Logger
}

// NewScheduler creates an empty Scheduler.
func NewScheduler(log *zap.Logger) *Scheduler {
	return &Scheduler{cron: cron.New(), log: log}
}

// Register adds a job to the schedule. Call before Start.
func (s *Scheduler) Register(job Job) error {
	_, err := s.cron.AddFunc(job.Spec, func() {
		s.log.Info("running scheduled job", zap.String("job", job.Name))
		job.Run(context.Background())
	})
	if err != nil {
		return fmt.Errorf("register job %s: %w", job.Name, err)
	}
	s.log.Info("registered scheduled job",
		zap.String("job", job.Name), zap.String("spec", job.Spec))
	return nil
}

// Start begins running registered jobs on their cadences.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("job scheduler started", zap.Int("jobs", len(s.cron.Entries())))
}

// Stop halts scheduling and waits for any running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("job scheduler stopped")
}
