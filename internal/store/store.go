package store

import (
	"context"
	"errors"
	"time"

	"appointment-app-server/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// AppointmentStore persists appointments and their recurring structure.
type AppointmentStore interface {
	Create(ctx context.Context, appointment *models.Appointment) error
	Save(ctx context.Context, appointment *models.Appointment) error
	FindByID(ctx context.Context, id string) (*models.Appointment, error)
	ListByUser(ctx context.Context, userID string) ([]models.Appointment, error)
	// MasterRecurring returns recurring appointments with no parent; only
	// these are expanded into instances.
	MasterRecurring(ctx context.Context) ([]models.Appointment, error)
	// InstanceExists reports whether an instance of the given master already
	// exists at startTime. The (parent, start time) pair is the dedup key.
	InstanceExists(ctx context.Context, parentID string, startTime time.Time) (bool, error)
	// Delete removes the appointment together with all of its reminder
	// entries so queued dispatch tasks become no-ops.
	Delete(ctx context.Context, id string) error
}

// ClientStore persists reminder recipients.
type ClientStore interface {
	Create(ctx context.Context, client *models.Client) error
	Save(ctx context.Context, client *models.Client) error
	FindByID(ctx context.Context, id string) (*models.Client, error)
	ListByUser(ctx context.Context, userID string) ([]models.Client, error)
	Delete(ctx context.Context, id string) error
}

// ReminderStore persists planned reminder entries.
type ReminderStore interface {
	Create(ctx context.Context, reminder *models.AppointmentReminder) error
	FindByID(ctx context.Context, id string) (*models.AppointmentReminder, error)
	ListByAppointment(ctx context.Context, appointmentID string) ([]models.AppointmentReminder, error)
	// DeleteScheduled removes only entries still in the scheduled state;
	// sent and failed entries survive as an audit trail.
	DeleteScheduled(ctx context.Context, appointmentID string) error
	// DeleteByAppointment removes every entry for the appointment, used by
	// the cascade when the appointment itself is deleted.
	DeleteByAppointment(ctx context.Context, appointmentID string) error
	// Due returns up to limit scheduled entries whose trigger time is at or
	// before now, ordered by trigger time ascending.
	Due(ctx context.Context, now time.Time, limit int) ([]models.AppointmentReminder, error)
	MarkSent(ctx context.Context, id string, at time.Time) error
	MarkFailed(ctx context.Context, id string, at time.Time) error
}
