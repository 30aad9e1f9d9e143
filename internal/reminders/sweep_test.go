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

type sweepFixture struct {
	appointments *store.MemoryAppointments
	clients      *store.MemoryClients
	reminders    *store.MemoryReminders
	notifier     *fakeNotifier
	sweep        *Sweep
}

func newSweepFixture(notifier *fakeNotifier, limit int) *sweepFixture {
	f := &sweepFixture{
		appointments: store.NewMemoryAppointments(nil),
		clients:      store.NewMemoryClients(),
		reminders:    store.NewMemoryReminders(),
		notifier:     notifier,
	}
	dispatcher := NewDispatcher(f.appointments, f.clients, f.reminders, f.notifier, zap.NewNop())
	f.sweep = NewSweep(f.appointments, f.clients, f.reminders, dispatcher, &recordingExec{}, limit, zap.NewNop())
	return f
}

// seedDue creates a client, appointment and an overdue scheduled entry.
func (f *sweepFixture) seedDue(t *testing.T, email string, overdueBy time.Duration) string {
	t.Helper()
	ctx := context.Background()

	client := &models.Client{UserID: "user-1", Name: "Client", Email: email}
	require.NoError(t, f.clients.Create(ctx, client))

	appointment := &models.Appointment{
		UserID:    "user-1",
		ClientID:  client.ID,
		Title:     "Session",
		StartTime: time.Now().Add(time.Hour),
	}
	require.NoError(t, f.appointments.Create(ctx, appointment))

	entry := &models.AppointmentReminder{
		AppointmentID: appointment.ID,
		TriggerAt:     time.Now().Add(-overdueBy),
		Method:        models.MethodEmail,
		Status:        models.ReminderScheduled,
	}
	require.NoError(t, f.reminders.Create(ctx, entry))
	return entry.ID
}

func TestSweepProcessesDueReminders(t *testing.T) {
	f := newSweepFixture(&fakeNotifier{}, 10)
	firstID := f.seedDue(t, "a@example.com", 10*time.Minute)
	secondID := f.seedDue(t, "b@example.com", 5*time.Minute)

	processed, errored := f.sweep.Run(context.Background())

	assert.Equal(t, 2, processed)
	assert.Zero(t, errored)
	assert.ElementsMatch(t, []string{"a@example.com", "b@example.com"}, f.notifier.delivered())

	for _, id := range []string{firstID, secondID} {
		entry, err := f.reminders.FindByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, models.ReminderSent, entry.Status)
	}
}

func TestSweepIgnoresFutureReminders(t *testing.T) {
	f := newSweepFixture(&fakeNotifier{}, 10)
	f.seedDue(t, "a@example.com", -time.Hour) // one hour in the future

	processed, errored := f.sweep.Run(context.Background())

	assert.Zero(t, processed)
	assert.Zero(t, errored)
	assert.Zero(t, f.notifier.callCount())
}

func TestSweepRespectsLimit(t *testing.T) {
	f := newSweepFixture(&fakeNotifier{}, 2)
	for i := 0; i < 5; i++ {
		f.seedDue(t, "c@example.com", time.Duration(i+1)*time.Minute)
	}

	processed, errored := f.sweep.Run(context.Background())

	assert.Equal(t, 2, processed)
	assert.Zero(t, errored)
}

func TestSweepMissingAppointmentMarksFailed(t *testing.T) {
	f := newSweepFixture(&fakeNotifier{}, 10)
	okID := f.seedDue(t, "a@example.com", 5*time.Minute)

	orphan := &models.AppointmentReminder{
		AppointmentID: "gone",
		TriggerAt:     time.Now().Add(-10 * time.Minute),
		Method:        models.MethodEmail,
		Status:        models.ReminderScheduled,
	}
	require.NoError(t, f.reminders.Create(context.Background(), orphan))

	processed, errored := f.sweep.Run(context.Background())

	// The orphan fails in isolation; the healthy entry still goes out.
	assert.Equal(t, 1, processed)
	assert.Equal(t, 1, errored)

	entry, err := f.reminders.FindByID(context.Background(), orphan.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReminderFailed, entry.Status)

	entry, err = f.reminders.FindByID(context.Background(), okID)
	require.NoError(t, err)
	assert.Equal(t, models.ReminderSent, entry.Status)
}

func TestSweepMissingClientMarksFailed(t *testing.T) {
	f := newSweepFixture(&fakeNotifier{}, 10)
	ctx := context.Background()

	appointment := &models.Appointment{
		UserID:    "user-1",
		ClientID:  "gone",
		Title:     "Session",
		StartTime: time.Now().Add(time.Hour),
	}
	require.NoError(t, f.appointments.Create(ctx, appointment))

	entry := &models.AppointmentReminder{
		AppointmentID: appointment.ID,
		TriggerAt:     time.Now().Add(-time.Minute),
		Method:        models.MethodEmail,
		Status:        models.ReminderScheduled,
	}
	require.NoError(t, f.reminders.Create(ctx, entry))

	processed, errored := f.sweep.Run(ctx)

	assert.Zero(t, processed)
	assert.Equal(t, 1, errored)

	got, err := f.reminders.FindByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReminderFailed, got.Status)
}

func TestSweepNotifierErrorCountsAsErrored(t *testing.T) {
	f := newSweepFixture(&fakeNotifier{alwaysErr: true}, 10)
	id := f.seedDue(t, "a@example.com", time.Minute)

	processed, errored := f.sweep.Run(context.Background())

	assert.Zero(t, processed)
	assert.Equal(t, 1, errored)

	entry, err := f.reminders.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.ReminderFailed, entry.Status)
}
