package models

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type InvestmentPlan struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	Name            string          `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Description     string          `gorm:"type:text" json:"description"`
	MinAmount       decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"min_amount"`
	MaxAmount       decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"max_amount"`
	DailyReturnRate decimal.Decimal `gorm:"type:decimal(10,4);not null" json:"daily_return_rate"` // percent per day
	DurationDays    int             `gorm:"not null" json:"duration_days"`
	IsActive        bool            `gorm:"not null;default:true" json:"is_active"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	DeletedAt       gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (InvestmentPlan) TableName() string { return "investment_plans" }

// DailyReturnFor returns amount × rate / 100 rounded to 8 decimal places.
func (p *InvestmentPlan) DailyReturnFor(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(p.DailyReturnRate).Div(decimal.NewFromInt(100)).Round(8)
}

// Accepts reports whether amount lies within [MinAmount, MaxAmount].
func (p *InvestmentPlan) Accepts(amount decimal.Decimal) bool {
	return amount.GreaterThanOrEqual(p.MinAmount) && amount.LessThanOrEqual(p.MaxAmount)
}

type Investment struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	UserID      uint            `gorm:"not null;index" json:"user_id"`
	PlanID      uint            `gorm:"not null;index" json:"plan_id"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"amount"`
	DailyReturn decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"daily_return"`
	StartDate   time.Time       `gorm:"not null" json:"start_date"`
	EndDate     time.Time       `gorm:"not null;index" json:"end_date"`
	Status      string          `gorm:"size:20;not null;index" json:"status"` // ACTIVE, COMPLETED, CANCELLED
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`

	User *User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Plan InvestmentPlan `gorm:"foreignKey:PlanID" json:"plan"`

	Accrual *Accrual `gorm:"-" json:"accrual,omitempty"`
}

func (Investment) TableName() string { return "investments" }

// Accrual is derived at read time and never persisted.
type Accrual struct {
	DaysElapsed         int             `json:"days_elapsed"`
	TotalDays           int             `json:"total_days"`
	DaysLeft            int             `json:"days_left"`
	Progress            int             `json:"progress"`
	ExpectedTotalReturn decimal.Decimal `json:"expected_total_return"`
	AccruedReturn       decimal.Decimal `json:"accrued_return"`
	IsMatured           bool            `json:"is_matured"`
}

const day = 24 * time.Hour

// ComputeAccrual derives elapsed/remaining days and progress for inv as of now.
func ComputeAccrual(inv *Investment, now time.Time) Accrual {
	elapsed := int(now.Sub(inv.StartDate) / day)
	if elapsed < 0 {
		elapsed = 0
	}
	total := int(inv.EndDate.Sub(inv.StartDate) / day)
	if total < 0 {
		total = 0
	}
	left := total - elapsed
	if left < 0 {
		left = 0
	}
	progress := 0
	if total > 0 {
		progress = int(math.Round(math.Min(float64(elapsed)/float64(total)*100, 100)))
	}
	paidDays := elapsed
	if paidDays > total {
		paidDays = total
	}
	return Accrual{
		DaysElapsed:         elapsed,
		TotalDays:           total,
		DaysLeft:            left,
		Progress:            progress,
		ExpectedTotalReturn: inv.DailyReturn.Mul(decimal.NewFromInt(int64(total))),
		AccruedReturn:       inv.DailyReturn.Mul(decimal.NewFromInt(int64(paidDays))),
		IsMatured:           !now.Before(inv.EndDate),
	}
}

// WithAccrual attaches the read-time accrual to inv and returns it.
func (inv *Investment) WithAccrual(now time.Time) *Investment {
	a := ComputeAccrual(inv, now)
	inv.Accrual = &a
	return inv
}
