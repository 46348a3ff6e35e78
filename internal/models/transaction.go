package models

import (
	"time"

	"coinvest/internal/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Transaction is a deposit or withdrawal request. It is created PENDING and settled by an admin
// (or the payment gateway callback).
type Transaction struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	Reference       string          `gorm:"size:64;uniqueIndex;not null" json:"reference"`
	UserID          uint            `gorm:"not null;index" json:"user_id"`
	Type            string          `gorm:"size:20;not null;index" json:"type"` // DEPOSIT | WITHDRAWAL
	Amount          decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"amount"`
	Status          string          `gorm:"size:20;not null;index" json:"status"` // PENDING, COMPLETED, FAILED, CANCELLED
	PaymentMethodID *uint           `gorm:"index" json:"payment_method_id"`
	WalletAddress   string          `gorm:"size:255" json:"wallet_address"`
	TxHash          string          `gorm:"size:255" json:"tx_hash"`
	ProofURL        string          `gorm:"size:512" json:"proof_url"`
	Notes           string          `gorm:"type:text" json:"notes"`
	Provider        string          `gorm:"size:20;not null;default:'MANUAL'" json:"provider"`
	ProviderRef     string          `gorm:"size:128;index" json:"provider_ref"`
	PaymentURL      string          `gorm:"size:512" json:"payment_url,omitempty"`
	ProcessedBy     *uint           `json:"processed_by"`
	ProcessedAt     *time.Time      `json:"processed_at"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	DeletedAt       gorm.DeletedAt  `gorm:"index" json:"-"`

	User          *User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	PaymentMethod *PaymentMethod `gorm:"foreignKey:PaymentMethodID" json:"payment_method,omitempty"`
}

func (Transaction) TableName() string {
	return "transactions"
}

func (t *Transaction) IsPending() bool { return t.Status == domain.TxStatusPending }

// CompletionEffect is the change completing t applies to its owner's balance and totals.
func (t *Transaction) CompletionEffect() BalanceAdjustment {
	switch t.Type {
	case domain.TxTypeDeposit:
		return BalanceAdjustment{Balance: t.Amount, TotalDeposits: t.Amount}
	case domain.TxTypeWithdrawal:
		return BalanceAdjustment{Balance: t.Amount.Neg(), TotalWithdrawals: t.Amount}
	}
	return BalanceAdjustment{}
}

// IsTerminalStatus reports whether s is a valid settlement target.
func IsTerminalStatus(s string) bool {
	switch s {
	case domain.TxStatusCompleted, domain.TxStatusFailed, domain.TxStatusCancelled:
		return true
	}
	return false
}
