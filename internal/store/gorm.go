package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"appointment-app-server/internal/models"
)

// GormAppointments is the MySQL-backed AppointmentStore.
type GormAppointments struct {
	DB *gorm.DB
}

// NewGormAppointments creates a GORM-backed appointment store.
func NewGormAppointments(db *gorm.DB) *GormAppointments {
	return &GormAppointments{DB: db}
}

func (s *GormAppointments) Create(ctx context.Context, appointment *models.Appointment) error {
	return s.DB.WithContext(ctx).Create(appointment).Error
}

func (s *GormAppointments) Save(ctx context.Context, appointment *models.Appointment) error {
	return s.DB.WithContext(ctx).Save(appointment).Error
}

func (s *GormAppointments) FindByID(ctx context.Context, id string) (*models.Appointment, error) {
	var appointment models.Appointment
	err := s.DB.WithContext(ctx).First(&appointment, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &appointment, nil
}

func (s *GormAppointments) ListByUser(ctx context.Context, userID string) ([]models.Appointment, error) {
	var appointments []models.Appointment
	err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("start_time asc").
		Find(&appointments).Error
	return appointments, err
}

func (s *GormAppointments) MasterRecurring(ctx context.Context) ([]models.Appointment, error) {
	var appointments []models.Appointment
	err := s.DB.WithContext(ctx).
		Where("is_recurring = ? AND parent_appointment_id IS NULL", true).
		Find(&appointments).Error
	return appointments, err
}

func (s *GormAppointments) InstanceExists(ctx context.Context, parentID string, startTime time.Time) (bool, error) {
	var count int64
	err := s.DB.WithContext(ctx).
		Model(&models.Appointment{}).
		Where("parent_appointment_id = ? AND start_time = ?", parentID, startTime.UTC()).
		Count(&count).Error
	return count > 0, err
}

// Delete removes the appointment and cascades to its reminder entries in one
// transaction, so a queued dispatch for the appointment becomes a no-op.
func (s *GormAppointments) Delete(ctx context.Context, id string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("appointment_id = ?", id).Delete(&models.AppointmentReminder{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Appointment{}, "id = ?", id).Error
	})
}

// GormClients is the MySQL-backed ClientStore.
type GormClients struct {
	DB *gorm.DB
}

// NewGormClients creates a GORM-backed client store.
func NewGormClients(db *gorm.DB) *GormClients {
	return &GormClients{DB: db}
}

func (s *GormClients) Create(ctx context.Context, client *models.Client) error {
	return s.DB.WithContext(ctx).Create(client).Error
}

func (s *GormClients) Save(ctx context.Context, client *models.Client) error {
	return s.DB.WithContext(ctx).Save(client).Error
}

func (s *GormClients) FindByID(ctx context.Context, id string) (*models.Client, error) {
	var client models.Client
	err := s.DB.WithContext(ctx).First(&client, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &client, nil
}

func (s *GormClients) ListByUser(ctx context.Context, userID string) ([]models.Client, error) {
	var clients []models.Client
	err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("name asc").
		Find(&clients).Error
	return clients, err
}

func (s *GormClients) Delete(ctx context.Context, id string) error {
	return s.DB.WithContext(ctx).Delete(&models.Client{}, "id = ?", id).Error
}

// GormReminders is the MySQL-backed ReminderStore.
type GormReminders struct {
	DB *gorm.DB
}

// NewGormReminders creates a GORM-backed reminder store.
func NewGormReminders(db *gorm.DB) *GormReminders {
	return &GormReminders{DB: db}
}

func (s *GormReminders) Create(ctx context.Context, reminder *models.AppointmentReminder) error {
	return s.DB.WithContext(ctx).Create(reminder).Error
}

func (s *GormReminders) FindByID(ctx context.Context, id string) (*models.AppointmentReminder, error) {
	var reminder models.AppointmentReminder
	err := s.DB.WithContext(ctx).First(&reminder, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &reminder, nil
}

func (s *GormReminders) ListByAppointment(ctx context.Context, appointmentID string) ([]models.AppointmentReminder, error) {
	var reminders []models.AppointmentReminder
	err := s.DB.WithContext(ctx).
		Where("appointment_id = ?", appointmentID).
		Order("trigger_at asc").
		Find(&reminders).Error
	return reminders, err
}

func (s *GormReminders) DeleteScheduled(ctx context.Context, appointmentID string) error {
	return s.DB.WithContext(ctx).
		Where("appointment_id = ? AND status = ?", appointmentID, models.ReminderScheduled).
		Delete(&models.AppointmentReminder{}).Error
}

func (s *GormReminders) DeleteByAppointment(ctx context.Context, appointmentID string) error {
	return s.DB.WithContext(ctx).
		Where("appointment_id = ?", appointmentID).
		Delete(&models.AppointmentReminder{}).Error
}

func (s *GormReminders) Due(ctx context.Context, now time.Time, limit int) ([]models.AppointmentReminder, error) {
	var reminders []models.AppointmentReminder
	err := s.DB.WithContext(ctx).
		Where("status = ? AND trigger_at <= ?", models.ReminderScheduled, now.UTC()).
		Order("trigger_at asc").
		Limit(limit).
		Find(&reminders).Error
	return reminders, err
}

func (s *GormReminders) MarkSent(ctx context.Context, id string, at time.Time) error {
	return s.updateStatus(ctx, id, models.ReminderSent, at)
}

func (s *GormReminders) MarkFailed(ctx context.Context, id string, at time.Time) error {
	return s.updateStatus(ctx, id, models.ReminderFailed, at)
}

func (s *GormReminders) updateStatus(ctx context.Context, id string, status models.ReminderStatus, at time.Time) error {
	return s.DB.WithContext(ctx).
		Model(&models.AppointmentReminder{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":  status,
			"sent_at": at.UTC(),
		}).Error
}
