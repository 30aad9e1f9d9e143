package recurrence

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"appointment-app-server/internal/models"
	"appointment-app-server/internal/store"
)

// InstancePlanner is the hook invoked for every materialized instance. It is
// the same hook the API layer calls for manually created appointments.
type InstancePlanner interface {
	Replan(ctx context.Context, appointment *models.Appointment) error
}

// Expander materializes concrete appointment instances from master recurring
// appointments over a rolling look-ahead window.
type Expander struct {
	appointments store.AppointmentStore
	planner      InstancePlanner
	horizon      time.Duration
	log          *zap.Logger
}

// NewExpander creates an Expander generating instances horizonDays ahead.
func NewExpander(appointments store.AppointmentStore, planner InstancePlanner, horizonDays int, log *zap.Logger) *Expander {
	if horizonDays <= 0 {
		horizonDays = 30
	}
	return &Expander{
		appointments: appointments,
		planner:      planner,
		horizon:      time.Duration(horizonDays) * 24 * time.Hour,
		log:          log,
	}
}

// ExpandAll runs one expansion pass over every master recurring appointment,
// sequentially, and returns the total number of instances created. A failure
// on one master is logged and does not block the others.
func (e *Expander) ExpandAll(ctx context.Context) (int, error) {
	masters, err := e.appointments.MasterRecurring(ctx)
	if err != nil {
		return 0, fmt.Errorf("load master recurring appointments: %w", err)
	}

	total := 0
	for i := range masters {
		created, err := e.ExpandMaster(ctx, &masters[i])
		if err != nil {
			e.log.Error("failed to expand recurring appointment",
				zap.String("appointment_id", masters[i].ID),
				zap.Error(err))
			continue
		}
		total += created
	}
	return total, nil
}

// ExpandMaster generates the missing instances for one master appointment.
// An invalid recurrence rule skips the master entirely with a warning and
// creates nothing.
func (e *Expander) ExpandMaster(ctx context.Context, master *models.Appointment) (int, error) {
	rule, err := ParseRule(master.RecurrenceRule)
	if err != nil {
		e.log.Warn("skipping master with invalid recurrence rule",
			zap.String("appointment_id", master.ID),
			zap.String("rule", master.RecurrenceRule),
			zap.Error(err))
		return 0, nil
	}

	horizon := time.Now().Add(e.horizon)
	it := rule.Iterate(master.StartTime, horizon)

	created := 0
	for {
		occurrence, ok := it.Next()
		if !ok {
			break
		}

		exists, err := e.appointments.InstanceExists(ctx, master.ID, occurrence)
		if err != nil {
			return created, fmt.Errorf("check existing instance: %w", err)
		}
		if exists {
			continue
		}

		instance := &models.Appointment{
			UserID:              master.UserID,
			ClientID:            master.ClientID,
			Title:               master.Title,
			Description:         master.Description,
			StartTime:           occurrence,
			Timezone:            master.Timezone,
			Status:              models.StatusScheduled,
			IsRecurring:         false,
			ParentAppointmentID: &master.ID,
			ReminderOffsets:     master.ReminderOffsets,
		}
		if err := e.appointments.Create(ctx, instance); err != nil {
			return created, fmt.Errorf("create appointment instance: %w", err)
		}
		created++

		if err := e.planner.Replan(ctx, instance); err != nil {
			e.log.Error("failed to plan reminders for new instance",
				zap.String("appointment_id", instance.ID),
				zap.Error(err))
		}
	}

	if it.CapReached() {
		e.log.Warn("occurrence safety cap reached, stopping generation early",
			zap.String("appointment_id", master.ID),
			zap.Int("cap", MaxOccurrencesPerRun))
	}
	return created, nil
}
