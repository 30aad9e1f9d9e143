package reminders

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"appointment-app-server/internal/models"
	"appointment-app-server/internal/store"
)

func TestParseOffset(t *testing.T) {
	cases := map[string]time.Duration{
		"15 minutes": 15 * time.Minute,
		"1 minute":   time.Minute,
		"2 hours":    2 * time.Hour,
		"1 hour":     time.Hour,
		"1 day":      24 * time.Hour,
		"3 days":     72 * time.Hour,
		"1 week":     7 * 24 * time.Hour,
		"2 weeks":    14 * 24 * time.Hour,
		"  1 Day  ":  24 * time.Hour, // trimmed and lowercased
	}
	for raw, want := range cases {
		got, err := ParseOffset(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}
}

func TestParseOffsetRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "soon", "1h", "one hour", "1 fortnight", "-1 hour", "1  hours  ago"} {
		_, err := ParseOffset(raw)
		assert.ErrorIs(t, err, ErrInvalidOffset, raw)
	}
}

func newPlannerFixture() (*Planner, *store.MemoryReminders, *recordingExec) {
	appointments := store.NewMemoryAppointments(nil)
	clients := store.NewMemoryClients()
	reminderStore := store.NewMemoryReminders()
	dispatcher := NewDispatcher(appointments, clients, reminderStore, &fakeNotifier{}, zap.NewNop())
	exec := &recordingExec{}
	planner := NewPlanner(reminderStore, dispatcher, exec, zap.NewNop())
	return planner, reminderStore, exec
}

func TestReplanCustomOffsets(t *testing.T) {
	planner, reminderStore, exec := newPlannerFixture()

	start := time.Now().Add(48 * time.Hour)
	appointment := &models.Appointment{
		BaseModel:       models.BaseModel{ID: "appt-1"},
		StartTime:       start,
		ReminderOffsets: models.OffsetList{"24 hours", "2 hours", "15 minutes"},
	}

	require.NoError(t, planner.Replan(context.Background(), appointment))

	entries, err := reminderStore.ListByAppointment(context.Background(), "appt-1")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, 3, exec.scheduledCount())

	// Ordered by trigger time: furthest offset first.
	assert.Equal(t, "24 hours", entries[0].OffsetLabel)
	assert.Equal(t, "2 hours", entries[1].OffsetLabel)
	assert.Equal(t, "15 minutes", entries[2].OffsetLabel)

	assert.WithinDuration(t, start.Add(-24*time.Hour), entries[0].TriggerAt, time.Second)
	assert.WithinDuration(t, start.Add(-2*time.Hour), entries[1].TriggerAt, time.Second)
	assert.WithinDuration(t, start.Add(-15*time.Minute), entries[2].TriggerAt, time.Second)

	for _, entry := range entries {
		assert.Equal(t, models.ReminderScheduled, entry.Status)
		assert.Equal(t, models.MethodEmail, entry.Method)
	}
}

func TestReplanReplacesScheduledKeepsHistory(t *testing.T) {
	planner, reminderStore, _ := newPlannerFixture()
	ctx := context.Background()

	sentAt := time.Now().Add(-time.Hour)
	require.NoError(t, reminderStore.Create(ctx, &models.AppointmentReminder{
		AppointmentID: "appt-1",
		TriggerAt:     sentAt,
		OffsetLabel:   "1 day",
		Method:        models.MethodEmail,
		Status:        models.ReminderSent,
		SentAt:        &sentAt,
	}))

	appointment := &models.Appointment{
		BaseModel:       models.BaseModel{ID: "appt-1"},
		StartTime:       time.Now().Add(48 * time.Hour),
		ReminderOffsets: models.OffsetList{"2 hours"},
	}

	require.NoError(t, planner.Replan(ctx, appointment))
	require.NoError(t, planner.Replan(ctx, appointment))

	entries, err := reminderStore.ListByAppointment(ctx, "appt-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	var sent, scheduled int
	for _, entry := range entries {
		switch entry.Status {
		case models.ReminderSent:
			sent++
		case models.ReminderScheduled:
			scheduled++
		}
	}
	assert.Equal(t, 1, sent)
	assert.Equal(t, 1, scheduled)
}

func TestReplanInvalidOffsetFallsBackToHour(t *testing.T) {
	planner, reminderStore, exec := newPlannerFixture()

	start := time.Now().Add(3 * time.Hour)
	appointment := &models.Appointment{
		BaseModel:       models.BaseModel{ID: "appt-1"},
		StartTime:       start,
		ReminderOffsets: models.OffsetList{"soonish"},
	}

	require.NoError(t, planner.Replan(context.Background(), appointment))

	entries, err := reminderStore.ListByAppointment(context.Background(), "appt-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)

	// The raw label survives even though the default duration was used.
	assert.Equal(t, "soonish", entries[0].OffsetLabel)
	assert.WithinDuration(t, start.Add(-DefaultOffset), entries[0].TriggerAt, time.Second)
	assert.Equal(t, 1, exec.scheduledCount())
}

func TestReplanSkipsPastCustomOffset(t *testing.T) {
	planner, reminderStore, exec := newPlannerFixture()

	// Start is one hour out, so a 2-hour offset already passed.
	appointment := &models.Appointment{
		BaseModel:       models.BaseModel{ID: "appt-1"},
		StartTime:       time.Now().Add(time.Hour),
		ReminderOffsets: models.OffsetList{"2 hours"},
	}

	require.NoError(t, planner.Replan(context.Background(), appointment))

	entries, err := reminderStore.ListByAppointment(context.Background(), "appt-1")
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Zero(t, exec.scheduledCount())
}

func TestReplanDefaultFuture(t *testing.T) {
	planner, reminderStore, exec := newPlannerFixture()

	start := time.Now().Add(4 * time.Hour)
	appointment := &models.Appointment{
		BaseModel: models.BaseModel{ID: "appt-1"},
		StartTime: start,
	}

	require.NoError(t, planner.Replan(context.Background(), appointment))

	entries, err := reminderStore.ListByAppointment(context.Background(), "appt-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)

	assert.Equal(t, DefaultOffsetLabel, entries[0].OffsetLabel)
	assert.Equal(t, models.ReminderScheduled, entries[0].Status)
	assert.WithinDuration(t, start.Add(-time.Hour), entries[0].TriggerAt, time.Second)
	assert.Equal(t, 1, exec.scheduledCount())
}

func TestReplanDefaultPastDueRecordsFailure(t *testing.T) {
	planner, reminderStore, exec := newPlannerFixture()

	// Within the hour: the implicit reminder time already passed. Unlike a
	// past custom offset, this leaves a failed entry behind.
	appointment := &models.Appointment{
		BaseModel: models.BaseModel{ID: "appt-1"},
		StartTime: time.Now().Add(30 * time.Minute),
	}

	require.NoError(t, planner.Replan(context.Background(), appointment))

	entries, err := reminderStore.ListByAppointment(context.Background(), "appt-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)

	assert.Equal(t, models.ReminderFailed, entries[0].Status)
	assert.Equal(t, DefaultOffsetLabel, entries[0].OffsetLabel)
	assert.Zero(t, exec.scheduledCount())
}

func TestCancelScheduledDropsPendingOnly(t *testing.T) {
	planner, reminderStore, _ := newPlannerFixture()
	ctx := context.Background()

	sentAt := time.Now().Add(-time.Hour)
	require.NoError(t, reminderStore.Create(ctx, &models.AppointmentReminder{
		AppointmentID: "appt-1",
		TriggerAt:     sentAt,
		OffsetLabel:   "1 day",
		Method:        models.MethodEmail,
		Status:        models.ReminderSent,
		SentAt:        &sentAt,
	}))

	appointment := &models.Appointment{
		BaseModel:       models.BaseModel{ID: "appt-1"},
		StartTime:       time.Now().Add(48 * time.Hour),
		ReminderOffsets: models.OffsetList{"2 hours"},
	}
	require.NoError(t, planner.Replan(ctx, appointment))

	require.NoError(t, planner.CancelScheduled(ctx, "appt-1"))

	entries, err := reminderStore.ListByAppointment(ctx, "appt-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.ReminderSent, entries[0].Status)
}

func TestDeleteRemindersRemovesEverything(t *testing.T) {
	planner, reminderStore, _ := newPlannerFixture()
	ctx := context.Background()

	appointment := &models.Appointment{
		BaseModel:       models.BaseModel{ID: "appt-1"},
		StartTime:       time.Now().Add(48 * time.Hour),
		ReminderOffsets: models.OffsetList{"2 hours", "15 minutes"},
	}
	require.NoError(t, planner.Replan(ctx, appointment))

	require.NoError(t, planner.DeleteReminders(ctx, "appt-1"))

	entries, err := reminderStore.ListByAppointment(ctx, "appt-1")
	require.NoError(t, err)
	assert.Empty(t, entries)
}
