package models

import (
	"time"

	"coinvest/internal/domain"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type User struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	Email            string          `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash     string          `gorm:"size:255" json:"-"`
	FirstName        string          `gorm:"size:100" json:"first_name"`
	LastName         string          `gorm:"size:100" json:"last_name"`
	Phone            string          `gorm:"size:32" json:"phone"`
	Country          string          `gorm:"size:64" json:"country"`
	Role             string          `gorm:"size:20;not null;default:'USER';index" json:"role"` // USER | ADMIN
	IsActive         bool            `gorm:"not null;default:true" json:"is_active"`
	Balance          decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0" json:"balance"`
	TotalDeposits    decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0" json:"total_deposits"`
	TotalWithdrawals decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0" json:"total_withdrawals"`
	TotalProfit      decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0" json:"total_profit"`
	ReferralCode     string          `gorm:"uniqueIndex;size:20;not null" json:"referral_code"`
	ReferredBy       *uint           `gorm:"index" json:"referred_by"`
	GoogleID         *string         `gorm:"uniqueIndex;size:255" json:"-"` // nil for email signups (avoids duplicate '' on unique index)
	TwoFactorSecret  string          `gorm:"size:64" json:"-"`
	TwoFactorEnabled bool            `gorm:"not null;default:false" json:"two_factor_enabled"`
	FCMToken         string          `gorm:"size:512" json:"-"`
	LastLoginAt      *time.Time      `json:"last_login_at"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	DeletedAt        gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (User) TableName() string { return "users" }

func (u *User) IsAdmin() bool { return u.Role == domain.RoleAdmin }

func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// BalanceAdjustment is a set of deltas applied to a user's running totals in one statement.
type BalanceAdjustment struct {
	Balance          decimal.Decimal
	TotalDeposits    decimal.Decimal
	TotalWithdrawals decimal.Decimal
	TotalProfit      decimal.Decimal
}

func (a BalanceAdjustment) IsZero() bool {
	return a.Balance.IsZero() && a.TotalDeposits.IsZero() && a.TotalWithdrawals.IsZero() && a.TotalProfit.IsZero()
}

// Apply adds the deltas to u in memory.
func (a BalanceAdjustment) Apply(u *User) {
	u.Balance = u.Balance.Add(a.Balance)
	u.TotalDeposits = u.TotalDeposits.Add(a.TotalDeposits)
	u.TotalWithdrawals = u.TotalWithdrawals.Add(a.TotalWithdrawals)
	u.TotalProfit = u.TotalProfit.Add(a.TotalProfit)
}
