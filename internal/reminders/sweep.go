package reminders

import (
	"context"
	"time"

	"go.uber.org/zap"

	"appointment-app-server/internal/queue"
	"appointment-app-server/internal/store"
)

// DefaultSweepLimit bounds one sweep batch when no limit is configured.
const DefaultSweepLimit = 100

// Sweep is the periodic catch-up pass: it finds reminders whose trigger time
// passed without a dispatch (worker downtime, dropped timers) and dispatches
// them synchronously, isolating failures per item.
type Sweep struct {
	appointments store.AppointmentStore
	clients      store.ClientStore
	reminders    store.ReminderStore
	dispatcher   *Dispatcher
	exec         queue.Executor
	limit        int
	log          *zap.Logger
}

// NewSweep creates a Sweep processing at most limit entries per run.
func NewSweep(appointments store.AppointmentStore, clients store.ClientStore, reminders store.ReminderStore, dispatcher *Dispatcher, exec queue.Executor, limit int, log *zap.Logger) *Sweep {
	if limit <= 0 {
		limit = DefaultSweepLimit
	}
	return &Sweep{
		appointments: appointments,
		clients:      clients,
		reminders:    reminders,
		dispatcher:   dispatcher,
		exec:         exec,
		limit:        limit,
		log:          log,
	}
}

// Run processes one batch of due reminders and returns the processed and
// errored counts. A failing item never aborts the rest of the batch.
func (s *Sweep) Run(ctx context.Context) (processed, errored int) {
	due, err := s.reminders.Due(ctx, time.Now(), s.limit)
	if err != nil {
		s.log.Error("failed to load due reminders", zap.Error(err))
		return 0, 0
	}

	for i := range due {
		entry := &due[i]

		appointment, err := s.appointments.FindByID(ctx, entry.AppointmentID)
		if err != nil {
			s.failEntry(ctx, entry.ID, "missing appointment")
			errored++
			continue
		}
		if _, err := s.clients.FindByID(ctx, appointment.ClientID); err != nil {
			s.failEntry(ctx, entry.ID, "missing client")
			errored++
			continue
		}

		// The dispatcher records the failure on the entry; the sweep only
		// counts it and moves on. No queue-level retry on this path.
		if err := s.exec.RunNow(ctx, s.dispatcher.Job(entry.AppointmentID, entry.ID)); err != nil {
			s.log.Error("failed to process due reminder",
				zap.String("reminder_id", entry.ID),
				zap.String("appointment_id", entry.AppointmentID),
				zap.Error(err))
			errored++
			continue
		}
		processed++
	}

	if len(due) > 0 {
		s.log.Info("due reminders processing completed",
			zap.Int("processed", processed),
			zap.Int("errors", errored),
			zap.Int("total_found", len(due)))
	}
	return processed, errored
}

func (s *Sweep) failEntry(ctx context.Context, reminderID, reason string) {
	s.log.Warn("skipping due reminder",
		zap.String("reminder_id", reminderID),
		zap.String("reason", reason))
	if err := s.reminders.MarkFailed(ctx, reminderID, time.Now().UTC()); err != nil {
		s.log.Error("failed to mark due reminder as failed",
			zap.String("reminder_id", reminderID), zap.Error(err))
	}
}
