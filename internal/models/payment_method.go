package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentMethod is an admin-configured deposit/withdrawal channel (wallet address, bank account, gateway).
type PaymentMethod struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	Name      string          `gorm:"size:100;not null" json:"name"`
	Type      string          `gorm:"size:20;not null;index" json:"type"` // CRYPTO, BANK, GATEWAY
	Currency  string          `gorm:"size:16;not null" json:"currency"`
	Network   string          `gorm:"size:32" json:"network"`
	Address   string          `gorm:"size:255" json:"address"`
	Details   string          `gorm:"type:text" json:"details"`
	QRCodeURL string          `gorm:"size:512" json:"qr_code_url"`
	MinAmount decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0" json:"min_amount"`
	MaxAmount decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0" json:"max_amount"` // 0 = no upper bound
	IsActive  bool            `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	DeletedAt gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (PaymentMethod) TableName() string { return "payment_methods" }

// Accepts reports whether amount is within the method's bounds.
func (m *PaymentMethod) Accepts(amount decimal.Decimal) bool {
	if amount.LessThan(m.MinAmount) {
		return false
	}
	if m.MaxAmount.IsPositive() && amount.GreaterThan(m.MaxAmount) {
		return false
	}
	return true
}
