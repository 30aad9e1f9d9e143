package reminders

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"appointment-app-server/internal/models"
	"appointment-app-server/internal/queue"
	"appointment-app-server/internal/store"
)

// DefaultOffset is the implicit reminder offset used when an appointment
// carries no custom offsets, and the fallback for unparseable ones.
const DefaultOffset = time.Hour

// DefaultOffsetLabel marks entries produced by the implicit 1-hour reminder.
const DefaultOffsetLabel = "default"

// ErrInvalidOffset is returned for offset strings that do not match the
// "<amount> <unit>" grammar.
var ErrInvalidOffset = errors.New("invalid reminder offset")

var offsetPattern = regexp.MustCompile(`^(\d+)\s+(minute|minutes|hour|hours|day|days|week|weeks)$`)

// ParseOffset parses a reminder offset string such as "1 day", "2 hours" or
// "15 minutes" into a duration measured backward from the appointment start.
// Input is trimmed and lowercased first.
func ParseOffset(raw string) (time.Duration, error) {
	matches := offsetPattern.FindStringSubmatch(strings.ToLower(strings.TrimSpace(raw)))
	if matches == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidOffset, raw)
	}
	amount, err := strconv.Atoi(matches[1])
	if err != nil || amount <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidOffset, raw)
	}
	switch strings.TrimSuffix(matches[2], "s") {
	case "minute":
		return time.Duration(amount) * time.Minute, nil
	case "hour":
		return time.Duration(amount) * time.Hour, nil
	case "day":
		return time.Duration(amount) * 24 * time.Hour, nil
	case "week":
		return time.Duration(amount) * 7 * 24 * time.Hour, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidOffset, raw)
}

// Planner computes and persists the pending reminder plan for appointments.
// Re-planning is serialized per appointment so concurrent updates cannot
// race the delete-stale/create-new sequence into duplicates or orphans.
type Planner struct {
	reminders  store.ReminderStore
	dispatcher *Dispatcher
	exec       queue.Executor
	log        *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewPlanner creates a Planner that registers dispatch jobs on exec.
func NewPlanner(reminders store.ReminderStore, dispatcher *Dispatcher, exec queue.Executor, log *zap.Logger) *Planner {
	return &Planner{
		reminders:  reminders,
		dispatcher: dispatcher,
		exec:       exec,
		log:        log,
		locks:      map[string]*sync.Mutex{},
	}
}

func (p *Planner) lockFor(appointmentID string) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.locks[appointmentID]
	if !ok {
		l = &sync.Mutex{}
		p.locks[appointmentID] = l
	}
	return l
}

// Replan recomputes the reminder plan for an appointment. Call it after
// every create or update. Previously scheduled entries are deleted first;
// sent and failed entries survive as an audit trail.
func (p *Planner) Replan(ctx context.Context, appointment *models.Appointment) error {
	l := p.lockFor(appointment.ID)
	l.Lock()
	defer l.Unlock()

	if err := p.reminders.DeleteScheduled(ctx, appointment.ID); err != nil {
		return fmt.Errorf("delete stale reminders: %w", err)
	}

	if len(appointment.ReminderOffsets) > 0 {
		for _, offset := range appointment.ReminderOffsets {
			p.planCustom(ctx, appointment, offset)
		}
		return nil
	}
	return p.planDefault(ctx, appointment)
}

// planCustom creates one scheduled entry for a custom offset. An offset
// whose trigger time has already passed is dropped without an entry.
func (p *Planner) planCustom(ctx context.Context, appointment *models.Appointment, offset string) {
	duration, err := ParseOffset(offset)
	if err != nil {
		// Unparseable offsets fall back to the 1-hour default computation
		// but keep the raw string as the entry label.
		p.log.Warn("invalid reminder offset format, using 1 hour default",
			zap.String("appointment_id", appointment.ID),
			zap.String("offset", offset))
		duration = DefaultOffset
	}

	triggerAt := appointment.StartTime.Add(-duration)
	if !triggerAt.After(time.Now()) {
		p.log.Warn("custom reminder time has passed",
			zap.String("appointment_id", appointment.ID),
			zap.String("offset", offset),
			zap.Time("trigger_at", triggerAt))
		return
	}

	entry := &models.AppointmentReminder{
		AppointmentID: appointment.ID,
		TriggerAt:     triggerAt.UTC(),
		OffsetLabel:   offset,
		Method:        models.MethodEmail,
		Status:        models.ReminderScheduled,
	}
	if err := p.reminders.Create(ctx, entry); err != nil {
		p.log.Error("failed to create reminder entry",
			zap.String("appointment_id", appointment.ID),
			zap.String("offset", offset),
			zap.Error(err))
		return
	}

	p.exec.Schedule(p.dispatcher.Job(appointment.ID, entry.ID), triggerAt)
	p.log.Info("scheduled custom appointment reminder",
		zap.String("appointment_id", appointment.ID),
		zap.String("offset", offset),
		zap.Time("trigger_at", triggerAt),
		zap.String("timezone", appointment.Timezone))
}

// planDefault creates the single implicit 1-hour reminder. Unlike custom
// offsets, a past-due default records a failed entry rather than skipping.
func (p *Planner) planDefault(ctx context.Context, appointment *models.Appointment) error {
	triggerAt := appointment.StartTime.Add(-DefaultOffset)

	if triggerAt.After(time.Now()) {
		entry := &models.AppointmentReminder{
			AppointmentID: appointment.ID,
			TriggerAt:     triggerAt.UTC(),
			OffsetLabel:   DefaultOffsetLabel,
			Method:        models.MethodEmail,
			Status:        models.ReminderScheduled,
		}
		if err := p.reminders.Create(ctx, entry); err != nil {
			return fmt.Errorf("create default reminder: %w", err)
		}
		p.exec.Schedule(p.dispatcher.Job(appointment.ID, entry.ID), triggerAt)
		p.log.Info("scheduled default appointment reminder",
			zap.String("appointment_id", appointment.ID),
			zap.Time("trigger_at", triggerAt),
			zap.String("timezone", appointment.Timezone))
		return nil
	}

	entry := &models.AppointmentReminder{
		AppointmentID: appointment.ID,
		TriggerAt:     triggerAt.UTC(),
		OffsetLabel:   DefaultOffsetLabel,
		Method:        models.MethodEmail,
		Status:        models.ReminderFailed,
	}
	if err := p.reminders.Create(ctx, entry); err != nil {
		return fmt.Errorf("create past-due default reminder: %w", err)
	}
	p.log.Warn("default reminder time has passed",
		zap.String("appointment_id", appointment.ID),
		zap.Time("trigger_at", triggerAt))
	return nil
}

// CancelScheduled drops the pending entries for an appointment without
// recreating them, used when the appointment is cancelled or completed. Sent
// and failed entries survive.
func (p *Planner) CancelScheduled(ctx context.Context, appointmentID string) error {
	l := p.lockFor(appointmentID)
	l.Lock()
	defer l.Unlock()

	if err := p.reminders.DeleteScheduled(ctx, appointmentID); err != nil {
		return fmt.Errorf("delete scheduled reminders: %w", err)
	}
	p.log.Info("cancelled scheduled reminders", zap.String("appointment_id", appointmentID))
	return nil
}

// DeleteReminders removes every reminder entry for an appointment. Call it
// before deleting the appointment itself; any dispatch job already queued
// becomes a no-op through the existence check at execution time.
func (p *Planner) DeleteReminders(ctx context.Context, appointmentID string) error {
	l := p.lockFor(appointmentID)
	l.Lock()
	defer l.Unlock()

	if err := p.reminders.DeleteByAppointment(ctx, appointmentID); err != nil {
		return fmt.Errorf("delete reminders: %w", err)
	}
	p.log.Info("deleted reminders for appointment", zap.String("appointment_id", appointmentID))
	return nil
}
