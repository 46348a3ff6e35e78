package models

import (
	"time"

	"gorm.io/gorm"
)

type Watchlist struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"not null;uniqueIndex:idx_user_symbol" json:"user_id"`
	Symbol    string         `gorm:"size:20;not null;uniqueIndex:idx_user_symbol" json:"symbol"`
	Note      string         `gorm:"size:255" json:"note"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Watchlist) TableName() string { return "watchlists" }
