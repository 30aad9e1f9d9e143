package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"appointment-app-server/internal/models"
)

func TestInstanceExistsMatchesParentAndStart(t *testing.T) {
	appointments := NewMemoryAppointments(nil)
	ctx := context.Background()

	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	parentID := "master-1"
	instance := &models.Appointment{
		UserID:              "user-1",
		StartTime:           start,
		ParentAppointmentID: &parentID,
	}
	require.NoError(t, appointments.Create(ctx, instance))

	exists, err := appointments.InstanceExists(ctx, "master-1", start)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = appointments.InstanceExists(ctx, "master-1", start.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = appointments.InstanceExists(ctx, "master-2", start)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDeleteCascadesReminders(t *testing.T) {
	reminders := NewMemoryReminders()
	appointments := NewMemoryAppointments(reminders)
	ctx := context.Background()

	appointment := &models.Appointment{UserID: "user-1", StartTime: time.Now()}
	require.NoError(t, appointments.Create(ctx, appointment))
	require.NoError(t, reminders.Create(ctx, &models.AppointmentReminder{
		AppointmentID: appointment.ID,
		TriggerAt:     time.Now(),
		Status:        models.ReminderScheduled,
	}))

	require.NoError(t, appointments.Delete(ctx, appointment.ID))

	entries, err := reminders.ListByAppointment(ctx, appointment.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDeleteScheduledKeepsHistory(t *testing.T) {
	reminders := NewMemoryReminders()
	ctx := context.Background()

	for _, status := range []models.ReminderStatus{models.ReminderScheduled, models.ReminderSent, models.ReminderFailed} {
		require.NoError(t, reminders.Create(ctx, &models.AppointmentReminder{
			AppointmentID: "appt-1",
			TriggerAt:     time.Now(),
			Status:        status,
		}))
	}

	require.NoError(t, reminders.DeleteScheduled(ctx, "appt-1"))

	entries, err := reminders.ListByAppointment(ctx, "appt-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, entry := range entries {
		assert.NotEqual(t, models.ReminderScheduled, entry.Status)
	}
}

func TestDueOrderingAndLimit(t *testing.T) {
	reminders := NewMemoryReminders()
	ctx := context.Background()
	now := time.Now()

	for _, offset := range []time.Duration{-3 * time.Minute, -time.Minute, -2 * time.Minute, time.Minute} {
		require.NoError(t, reminders.Create(ctx, &models.AppointmentReminder{
			AppointmentID: "appt-1",
			TriggerAt:     now.Add(offset),
			Status:        models.ReminderScheduled,
		}))
	}

	due, err := reminders.Due(ctx, now, 2)
	require.NoError(t, err)
	require.Len(t, due, 2)

	// Oldest first; the future entry is excluded entirely.
	assert.Equal(t, now.Add(-3*time.Minute).Unix(), due[0].TriggerAt.Unix())
	assert.Equal(t, now.Add(-2*time.Minute).Unix(), due[1].TriggerAt.Unix())
}

func TestMarkSentAndFailed(t *testing.T) {
	reminders := NewMemoryReminders()
	ctx := context.Background()

	entry := &models.AppointmentReminder{
		AppointmentID: "appt-1",
		TriggerAt:     time.Now(),
		Status:        models.ReminderScheduled,
	}
	require.NoError(t, reminders.Create(ctx, entry))

	at := time.Now().UTC()
	require.NoError(t, reminders.MarkSent(ctx, entry.ID, at))

	got, err := reminders.FindByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReminderSent, got.Status)
	require.NotNil(t, got.SentAt)

	assert.ErrorIs(t, reminders.MarkFailed(ctx, "missing", at), ErrNotFound)
}
