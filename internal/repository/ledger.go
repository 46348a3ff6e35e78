package repository

import (
	"context"

	"coinvest/internal/models"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Ledger is the set of writes that move money: balance changes, transaction settlement and
// investment creation. Callers group them with WithinTx so they commit or roll back together.
type Ledger interface {
	WithinTx(ctx context.Context, fn func(Ledger) error) error
	LockUser(ctx context.Context, id uint) (*models.User, error)
	AdjustBalance(ctx context.Context, userID uint, adj models.BalanceAdjustment) error
	SetBalance(ctx context.Context, userID uint, balance decimal.Decimal) error
	CreateTransaction(ctx context.Context, t *models.Transaction) error
	LockTransaction(ctx context.Context, id uint) (*models.Transaction, error)
	SaveTransaction(ctx context.Context, t *models.Transaction) error
	GetPlan(ctx context.Context, id uint) (*models.InvestmentPlan, error)
	CreateInvestment(ctx context.Context, inv *models.Investment) error
}

type GormLedger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *GormLedger {
	return &GormLedger{db: db}
}

func (l *GormLedger) WithinTx(ctx context.Context, fn func(Ledger) error) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormLedger{db: tx})
	})
}

// LockUser reads the user row with SELECT ... FOR UPDATE. Only meaningful inside WithinTx.
func (l *GormLedger) LockUser(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	err := l.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&u, id).Error
	if err != nil {
		return nil, errors.Wrapf(err, "lock user %d", id)
	}
	return &u, nil
}

// AdjustBalance applies the deltas in a single UPDATE so concurrent writers never lose an update.
func (l *GormLedger) AdjustBalance(ctx context.Context, userID uint, adj models.BalanceAdjustment) error {
	if adj.IsZero() {
		return nil
	}
	err := l.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"balance":           gorm.Expr("balance + ?", adj.Balance),
		"total_deposits":    gorm.Expr("total_deposits + ?", adj.TotalDeposits),
		"total_withdrawals": gorm.Expr("total_withdrawals + ?", adj.TotalWithdrawals),
		"total_profit":      gorm.Expr("total_profit + ?", adj.TotalProfit),
	}).Error
	return errors.Wrapf(err, "adjust balance of user %d", userID)
}

func (l *GormLedger) SetBalance(ctx context.Context, userID uint, balance decimal.Decimal) error {
	err := l.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("balance", balance).Error
	return errors.Wrapf(err, "set balance of user %d", userID)
}

func (l *GormLedger) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	return errors.Wrap(l.db.WithContext(ctx).Create(t).Error, "create transaction")
}

func (l *GormLedger) LockTransaction(ctx context.Context, id uint) (*models.Transaction, error) {
	var t models.Transaction
	err := l.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&t, id).Error
	if err != nil {
		return nil, errors.Wrapf(err, "lock transaction %d", id)
	}
	return &t, nil
}

// SaveTransaction persists the settlement columns only.
func (l *GormLedger) SaveTransaction(ctx context.Context, t *models.Transaction) error {
	err := l.db.WithContext(ctx).Model(t).
		Select("status", "notes", "processed_by", "processed_at", "provider_ref").
		Updates(t).Error
	return errors.Wrapf(err, "save transaction %d", t.ID)
}

func (l *GormLedger) GetPlan(ctx context.Context, id uint) (*models.InvestmentPlan, error) {
	var p models.InvestmentPlan
	if err := l.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, errors.Wrapf(err, "get plan %d", id)
	}
	return &p, nil
}

func (l *GormLedger) CreateInvestment(ctx context.Context, inv *models.Investment) error {
	return errors.Wrap(l.db.WithContext(ctx).Omit("Plan", "User").Create(inv).Error, "create investment")
}
