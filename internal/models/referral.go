package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Referral tracks the relationship between a referrer and a referred user.
// A user can only be referred once. Commission is recorded but not accrued anywhere yet.
type Referral struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	ReferrerID     uint            `gorm:"not null;index" json:"referrer_id"`
	ReferredUserID uint            `gorm:"uniqueIndex;not null" json:"referred_user_id"` // each user can only be referred once
	Status         string          `gorm:"size:20;not null;default:'ACTIVE'" json:"status"`
	Commission     decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0" json:"commission"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	DeletedAt      gorm.DeletedAt  `gorm:"index" json:"-"`

	Referrer     User `gorm:"foreignKey:ReferrerID" json:"referrer,omitempty"`
	ReferredUser User `gorm:"foreignKey:ReferredUserID" json:"referred_user,omitempty"`
}

func (Referral) TableName() string { return "referrals" }
