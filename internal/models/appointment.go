package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusMissed    AppointmentStatus = "missed"
)

// OffsetList is an ordered list of reminder offset strings ("1 day", "2 hours", ...)
// persisted as a JSON column, mirroring how the offsets arrive on the API.
type OffsetList []string

// Value implements driver.Valuer for JSON column storage.
func (o OffsetList) Value() (driver.Value, error) {
	if len(o) == 0 {
		return nil, nil
	}
	return json.Marshal(o)
}

// Scan implements sql.Scanner for JSON column storage.
func (o *OffsetList) Scan(value interface{}) error {
	if value == nil {
		*o = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, o)
	case string:
		return json.Unmarshal([]byte(v), o)
	default:
		return fmt.Errorf("unsupported type for OffsetList: %T", value)
	}
}

// Appointment represents a scheduled appointment with a client.
// A master recurring appointment carries a recurrence rule and no parent;
// instances materialized from it carry ParentAppointmentID and never recur
// themselves.
type Appointment struct {
	BaseModel
	UserID              string            `gorm:"size:36;index" json:"userId"`
	ClientID            string            `gorm:"size:36;index" json:"clientId"`
	Title               string            `gorm:"size:255;not null" json:"title"`
	Description         string            `gorm:"type:text" json:"description"`
	StartTime           time.Time         `gorm:"index;uniqueIndex:idx_parent_start,priority:2" json:"startTime"`
	Timezone            string            `gorm:"size:64;default:'UTC'" json:"timezone"`
	Status              AppointmentStatus `gorm:"size:20;default:'scheduled'" json:"status"`
	IsRecurring         bool              `gorm:"default:false" json:"isRecurring"`
	RecurrenceRule      string            `gorm:"size:255" json:"recurrenceRule,omitempty"`
	ParentAppointmentID *string           `gorm:"size:36;uniqueIndex:idx_parent_start,priority:1" json:"parentAppointmentId,omitempty"`
	ReminderOffsets     OffsetList        `gorm:"type:json" json:"reminderOffsets,omitempty"`

	// Relations
	User              User                  `gorm:"foreignKey:UserID" json:"-"`
	Client            Client                `gorm:"foreignKey:ClientID" json:"-"`
	ParentAppointment *Appointment          `gorm:"foreignKey:ParentAppointmentID" json:"-"`
	ChildAppointments []Appointment         `gorm:"foreignKey:ParentAppointmentID" json:"-"`
	Reminders         []AppointmentReminder `gorm:"foreignKey:AppointmentID" json:"-"`
}

// IsMaster reports whether the appointment is a master recurring definition,
// i.e. recurring with no parent. Only masters are expanded into instances.
func (a *Appointment) IsMaster() bool {
	return a.IsRecurring && a.ParentAppointmentID == nil
}
