package reminders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"appointment-app-server/internal/queue"
	"appointment-app-server/internal/store"
)

// Dispatcher executes planned reminders: it validates that the appointment
// and client still exist, invokes the notifier, and records the terminal
// outcome on the reminder entry.
type Dispatcher struct {
	appointments store.AppointmentStore
	clients      store.ClientStore
	reminders    store.ReminderStore
	notifier     Notifier
	log          *zap.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(appointments store.AppointmentStore, clients store.ClientStore, reminders store.ReminderStore, notifier Notifier, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		appointments: appointments,
		clients:      clients,
		reminders:    reminders,
		notifier:     notifier,
		log:          log,
	}
}

// Job wraps a dispatch into a queue job. The exhausted-retries hook pins the
// entry in the failed state even if the last attempt died before its own
// failure-marking step ran.
func (d *Dispatcher) Job(appointmentID, reminderID string) queue.Job {
	return queue.Job{
		Name: "send-reminder",
		Run: func(ctx context.Context) error {
			return d.Dispatch(ctx, appointmentID, reminderID)
		},
		OnExhausted: func(ctx context.Context) {
			d.markFailed(ctx, reminderID)
		},
	}
}

// Dispatch executes one planned reminder. At least one of appointmentID and
// reminderID must be given. A vanished appointment is a logged no-op; a
// vanished client marks the entry failed with no retry; a notifier error
// marks the entry failed and propagates so the async retry policy applies.
func (d *Dispatcher) Dispatch(ctx context.Context, appointmentID, reminderID string) error {
	if appointmentID == "" && reminderID == "" {
		return errors.New("dispatch requires an appointment or reminder reference")
	}

	if appointmentID == "" {
		entry, err := d.reminders.FindByID(ctx, reminderID)
		if errors.Is(err, store.ErrNotFound) {
			d.log.Info("reminder entry no longer exists, skipping",
				zap.String("reminder_id", reminderID))
			return nil
		}
		if err != nil {
			return fmt.Errorf("load reminder entry: %w", err)
		}
		appointmentID = entry.AppointmentID
	}

	appointment, err := d.appointments.FindByID(ctx, appointmentID)
	if errors.Is(err, store.ErrNotFound) {
		// Deleted after planning; queued dispatches become no-ops.
		d.log.Info("appointment no longer exists, skipping reminder",
			zap.String("appointment_id", appointmentID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("load appointment: %w", err)
	}

	client, err := d.clients.FindByID(ctx, appointment.ClientID)
	if errors.Is(err, store.ErrNotFound) {
		// Permanent precondition failure, not transient: no retry.
		d.log.Error("client not found for appointment",
			zap.String("appointment_id", appointment.ID),
			zap.String("client_id", appointment.ClientID))
		d.markFailed(ctx, reminderID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load client: %w", err)
	}

	if err := d.notifier.Send(ctx, client, appointment); err != nil {
		d.log.Error("failed to send appointment reminder",
			zap.String("appointment_id", appointment.ID),
			zap.Error(err))
		d.markFailed(ctx, reminderID)
		return fmt.Errorf("send reminder: %w", err)
	}

	d.markSent(ctx, reminderID)
	d.log.Info("appointment reminder sent",
		zap.String("appointment_id", appointment.ID),
		zap.String("client_id", client.ID),
		zap.String("client_email", client.Email))
	return nil
}

func (d *Dispatcher) markSent(ctx context.Context, reminderID string) {
	if reminderID == "" {
		return
	}
	if err := d.reminders.MarkSent(ctx, reminderID, time.Now().UTC()); err != nil {
		d.log.Error("failed to mark reminder as sent",
			zap.String("reminder_id", reminderID), zap.Error(err))
	}
}

func (d *Dispatcher) markFailed(ctx context.Context, reminderID string) {
	if reminderID == "" {
		return
	}
	if err := d.reminders.MarkFailed(ctx, reminderID, time.Now().UTC()); err != nil {
		d.log.Error("failed to mark reminder as failed",
			zap.String("reminder_id", reminderID), zap.Error(err))
	}
}
