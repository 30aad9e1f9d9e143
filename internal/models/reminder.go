package models

import (
	"time"
)

// ReminderStatus represents the lifecycle state of a reminder entry.
// Valid transitions are scheduled -> sent and scheduled -> failed; both
// terminal states are kept as an audit trail and never mutated again.
type ReminderStatus string

const (
	ReminderScheduled ReminderStatus = "scheduled"
	ReminderSent      ReminderStatus = "sent"
	ReminderFailed    ReminderStatus = "failed"
)

// ReminderMethod represents the delivery channel for a reminder
type ReminderMethod string

const (
	MethodEmail ReminderMethod = "email"
	MethodSMS   ReminderMethod = "sms"
)

// AppointmentReminder is a single planned reminder for an appointment.
// OffsetLabel records which offset produced the entry ("1 day", "2 hours",
// ... or "default" for the implicit 1-hour reminder).
type AppointmentReminder struct {
	BaseModel
	AppointmentID string         `gorm:"size:36;index" json:"appointmentId"`
	TriggerAt     time.Time      `gorm:"index" json:"triggerAt"`
	OffsetLabel   string         `gorm:"size:50" json:"offsetLabel"`
	Method        ReminderMethod `gorm:"size:10;default:'email'" json:"method"`
	Status        ReminderStatus `gorm:"size:20;default:'scheduled';index" json:"status"`
	SentAt        *time.Time     `json:"sentAt,omitempty"`

	// Relations
	Appointment Appointment `gorm:"foreignKey:AppointmentID" json:"-"`
}
