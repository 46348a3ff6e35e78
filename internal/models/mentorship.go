package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type MentorshipClass struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	Title           string          `gorm:"size:255;not null" json:"title"`
	Description     string          `gorm:"type:text" json:"description"`
	MentorName      string          `gorm:"size:255" json:"mentor_name"`
	ScheduledAt     time.Time       `gorm:"not null;index" json:"scheduled_at"`
	DurationMinutes int             `gorm:"not null;default:60" json:"duration_minutes"`
	MaxParticipants int             `gorm:"not null" json:"max_participants"`
	Price           decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0" json:"price"`
	MeetingLink     string          `gorm:"size:512" json:"-"` // only returned to PAID registrants
	Status          string          `gorm:"size:20;not null;default:'SCHEDULED';index" json:"status"`
	IsActive        bool            `gorm:"not null;default:true" json:"is_active"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	DeletedAt       gorm.DeletedAt  `gorm:"index" json:"-"`

	RegisteredCount int64 `gorm:"-" json:"registered_count"`
	SpotsLeft       int64 `gorm:"-" json:"spots_left"`
}

func (MentorshipClass) TableName() string { return "mentorship_classes" }

// IsFree reports whether registrations are PAID on creation.
func (c *MentorshipClass) IsFree() bool { return !c.Price.IsPositive() }

// SetCounts fills the derived registration counters.
func (c *MentorshipClass) SetCounts(registered int64) {
	c.RegisteredCount = registered
	c.SpotsLeft = int64(c.MaxParticipants) - registered
	if c.SpotsLeft < 0 {
		c.SpotsLeft = 0
	}
}

// ClassRegistration is unique per (class, user).
type ClassRegistration struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	ClassID       uint           `gorm:"not null;uniqueIndex:idx_class_user" json:"class_id"`
	UserID        uint           `gorm:"not null;uniqueIndex:idx_class_user;index" json:"user_id"`
	PaymentStatus string         `gorm:"size:20;not null;default:'PENDING'" json:"payment_status"` // PENDING | PAID
	Attended      bool           `gorm:"not null;default:false" json:"attended"`
	RegisteredAt  time.Time      `gorm:"not null" json:"registered_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	Class *MentorshipClass `gorm:"foreignKey:ClassID" json:"class,omitempty"`
	User  *User            `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (ClassRegistration) TableName() string { return "class_registrations" }
