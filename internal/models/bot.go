package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TradingBot struct {
	ID                    uint            `gorm:"primaryKey" json:"id"`
	Name                  string          `gorm:"size:100;not null" json:"name"`
	Description           string          `gorm:"type:text" json:"description"`
	Strategy              string          `gorm:"size:100" json:"strategy"`
	RiskLevel             string          `gorm:"size:10;not null;default:'MEDIUM'" json:"risk_level"` // LOW, MEDIUM, HIGH
	MinInvestment         decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0" json:"min_investment"`
	ExpectedMonthlyReturn decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0" json:"expected_monthly_return"`
	IsActive              bool            `gorm:"not null;default:true" json:"is_active"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
	DeletedAt             gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (TradingBot) TableName() string { return "trading_bots" }

type BotRequest struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	UserID     uint            `gorm:"not null;index" json:"user_id"`
	BotID      uint            `gorm:"not null;index" json:"bot_id"`
	Amount     decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"amount"`
	Status     string          `gorm:"size:20;not null;index" json:"status"` // PENDING, APPROVED, REJECTED, STOPPED
	AdminNotes string          `gorm:"type:text" json:"admin_notes"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	DeletedAt  gorm.DeletedAt  `gorm:"index" json:"-"`

	Bot  TradingBot `gorm:"foreignKey:BotID" json:"bot"`
	User *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (BotRequest) TableName() string { return "bot_requests" }

type BotTrade struct {
	ID           uint             `gorm:"primaryKey" json:"id"`
	BotRequestID uint             `gorm:"not null;index" json:"bot_request_id"`
	UserID       uint             `gorm:"not null;index" json:"user_id"`
	Symbol       string           `gorm:"size:20;not null" json:"symbol"`
	Side         string           `gorm:"size:4;not null" json:"side"` // BUY | SELL
	EntryPrice   decimal.Decimal  `gorm:"type:decimal(20,8);not null" json:"entry_price"`
	ExitPrice    *decimal.Decimal `gorm:"type:decimal(20,8)" json:"exit_price"`
	Quantity     decimal.Decimal  `gorm:"type:decimal(20,8);not null" json:"quantity"`
	Profit       decimal.Decimal  `gorm:"type:decimal(20,8);not null;default:0" json:"profit"`
	OpenedAt     time.Time        `gorm:"not null" json:"opened_at"`
	ClosedAt     *time.Time       `json:"closed_at"`
	CreatedAt    time.Time        `json:"created_at"`
	DeletedAt    gorm.DeletedAt   `gorm:"index" json:"-"`
}

func (BotTrade) TableName() string { return "bot_trades" }
