package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"appointment-app-server/internal/models"
)

// In-memory store implementations, used by the engine tests and as a
// stand-in while the database is not provisioned. Records are copied on the
// way in and out so callers never alias store state.

// MemoryAppointments is a mutex-guarded map-backed AppointmentStore.
type MemoryAppointments struct {
	mu           sync.RWMutex
	appointments map[string]models.Appointment
	reminders    *MemoryReminders // for cascade delete, may be nil
}

// NewMemoryAppointments creates an empty in-memory appointment store.
// reminders may be nil when cascade behavior is not needed.
func NewMemoryAppointments(reminders *MemoryReminders) *MemoryAppointments {
	return &MemoryAppointments{
		appointments: map[string]models.Appointment{},
		reminders:    reminders,
	}
}

func (s *MemoryAppointments) Create(_ context.Context, appointment *models.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if appointment.ID == "" {
		appointment.ID = uuid.New().String()
	}
	appointment.CreatedAt = time.Now()
	appointment.UpdatedAt = appointment.CreatedAt
	s.appointments[appointment.ID] = *appointment
	return nil
}

func (s *MemoryAppointments) Save(_ context.Context, appointment *models.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.appointments[appointment.ID]; !ok {
		return ErrNotFound
	}
	appointment.UpdatedAt = time.Now()
	s.appointments[appointment.ID] = *appointment
	return nil
}

func (s *MemoryAppointments) FindByID(_ context.Context, id string) (*models.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	appointment, ok := s.appointments[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &appointment, nil
}

func (s *MemoryAppointments) ListByUser(_ context.Context, userID string) ([]models.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Appointment
	for _, a := range s.appointments {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (s *MemoryAppointments) MasterRecurring(_ context.Context) ([]models.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Appointment
	for _, a := range s.appointments {
		if a.IsRecurring && a.ParentAppointmentID == nil {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryAppointments) InstanceExists(_ context.Context, parentID string, startTime time.Time) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.appointments {
		if a.ParentAppointmentID != nil && *a.ParentAppointmentID == parentID && a.StartTime.Equal(startTime) {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryAppointments) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	delete(s.appointments, id)
	s.mu.Unlock()
	if s.reminders != nil {
		return s.reminders.DeleteByAppointment(ctx, id)
	}
	return nil
}

// MemoryClients is a mutex-guarded map-backed ClientStore.
type MemoryClients struct {
	mu      sync.RWMutex
	clients map[string]models.Client
}

// NewMemoryClients creates an empty in-memory client store.
func NewMemoryClients() *MemoryClients {
	return &MemoryClients{clients: map[string]models.Client{}}
}

func (s *MemoryClients) Create(_ context.Context, client *models.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if client.ID == "" {
		client.ID = uuid.New().String()
	}
	client.CreatedAt = time.Now()
	client.UpdatedAt = client.CreatedAt
	s.clients[client.ID] = *client
	return nil
}

func (s *MemoryClients) Save(_ context.Context, client *models.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[client.ID]; !ok {
		return ErrNotFound
	}
	client.UpdatedAt = time.Now()
	s.clients[client.ID] = *client
	return nil
}

func (s *MemoryClients) FindByID(_ context.Context, id string) (*models.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	client, ok := s.clients[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &client, nil
}

func (s *MemoryClients) ListByUser(_ context.Context, userID string) ([]models.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Client
	for _, c := range s.clients {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *MemoryClients) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, id)
	return nil
}

// MemoryReminders is a mutex-guarded map-backed ReminderStore.
type MemoryReminders struct {
	mu        sync.RWMutex
	reminders map[string]models.AppointmentReminder
}

// NewMemoryReminders creates an empty in-memory reminder store.
func NewMemoryReminders() *MemoryReminders {
	return &MemoryReminders{reminders: map[string]models.AppointmentReminder{}}
}

func (s *MemoryReminders) Create(_ context.Context, reminder *models.AppointmentReminder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if reminder.ID == "" {
		reminder.ID = uuid.New().String()
	}
	reminder.CreatedAt = time.Now()
	reminder.UpdatedAt = reminder.CreatedAt
	s.reminders[reminder.ID] = *reminder
	return nil
}

func (s *MemoryReminders) FindByID(_ context.Context, id string) (*models.AppointmentReminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	reminder, ok := s.reminders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &reminder, nil
}

func (s *MemoryReminders) ListByAppointment(_ context.Context, appointmentID string) ([]models.AppointmentReminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.AppointmentReminder
	for _, r := range s.reminders {
		if r.AppointmentID == appointmentID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TriggerAt.Before(out[j].TriggerAt) })
	return out, nil
}

func (s *MemoryReminders) DeleteScheduled(_ context.Context, appointmentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, r := range s.reminders {
		if r.AppointmentID == appointmentID && r.Status == models.ReminderScheduled {
			delete(s.reminders, id)
		}
	}
	return nil
}

func (s *MemoryReminders) DeleteByAppointment(_ context.Context, appointmentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, r := range s.reminders {
		if r.AppointmentID == appointmentID {
			delete(s.reminders, id)
		}
	}
	return nil
}

func (s *MemoryReminders) Due(_ context.Context, now time.Time, limit int) ([]models.AppointmentReminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.AppointmentReminder
	for _, r := range s.reminders {
		if r.Status == models.ReminderScheduled && !r.TriggerAt.After(now) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TriggerAt.Before(out[j].TriggerAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryReminders) MarkSent(_ context.Context, id string, at time.Time) error {
	return s.updateStatus(id, models.ReminderSent, at)
}

func (s *MemoryReminders) MarkFailed(_ context.Context, id string, at time.Time) error {
	return s.updateStatus(id, models.ReminderFailed, at)
}

func (s *MemoryReminders) updateStatus(id string, status models.ReminderStatus, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	reminder, ok := s.reminders[id]
	if !ok {
		return ErrNotFound
	}
	reminder.Status = status
	reminder.SentAt = &at
	reminder.UpdatedAt = time.Now()
	s.reminders[id] = reminder
	return nil
}
