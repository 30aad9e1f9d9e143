package models

// Client represents a person who receives appointment reminders
type Client struct {
	BaseModel
	UserID      string `gorm:"size:36;index" json:"userId"`
	Name        string `gorm:"size:255;not null" json:"name"`
	Email       string `gorm:"size:255;not null" json:"email"`
	PhoneNumber string `gorm:"size:30" json:"phoneNumber,omitempty"`
	Notes       string `gorm:"type:text" json:"notes,omitempty"`

	// Relations
	User         User          `gorm:"foreignKey:UserID" json:"-"`
	Appointments []Appointment `gorm:"foreignKey:ClientID" json:"-"`
}
