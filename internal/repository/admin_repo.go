package repository

import (
	"context"
	"time"

	"coinvest/internal/domain"
	"coinvest/internal/models"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type DashboardStats struct {
	TotalUsers         int64           `json:"total_users"`
	ActiveUsers        int64           `json:"active_users"`
	TotalDeposits      decimal.Decimal `json:"total_deposits"`
	TotalWithdrawals   decimal.Decimal `json:"total_withdrawals"`
	PendingDeposits    int64           `json:"pending_deposits"`
	PendingWithdrawals int64           `json:"pending_withdrawals"`
	TotalInvested      decimal.Decimal `json:"total_invested"`
	ActiveInvestments  int64           `json:"active_investments"`
	TotalReferrals     int64           `json:"total_referrals"`
	TotalBalance       decimal.Decimal `json:"total_balance"`
}

type TimeSeriesPoint struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type UserFilter struct {
	Search   string
	Role     string
	IsActive *bool
	Page     int
	Limit    int
}

// UserCounts are the per-user aggregates shown on the admin user detail page.
type UserCounts struct {
	Transactions int64 `json:"transactions"`
	Investments  int64 `json:"investments"`
	Referrals    int64 `json:"referrals"`
}

type AdminRepository struct {
	db *gorm.DB
}

func NewAdminRepository(db *gorm.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

func (r *AdminRepository) sum(ctx context.Context, model interface{}, column string, where string, args ...interface{}) (decimal.Decimal, error) {
	var row struct{ Total decimal.Decimal }
	err := r.db.WithContext(ctx).Model(model).
		Select("COALESCE(SUM("+column+"), 0) as total").
		Where(where, args...).
		Scan(&row).Error
	return row.Total, err
}

func (r *AdminRepository) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	var s DashboardStats
	db := r.db.WithContext(ctx)
	counts := []struct {
		dst   *int64
		model interface{}
		where string
		args  []interface{}
	}{
		{&s.TotalUsers, &models.User{}, "role = ?", []interface{}{domain.RoleUser}},
		{&s.ActiveUsers, &models.User{}, "role = ? AND is_active = ?", []interface{}{domain.RoleUser, true}},
		{&s.PendingDeposits, &models.Transaction{}, "type = ? AND status = ?", []interface{}{domain.TxTypeDeposit, domain.TxStatusPending}},
		{&s.PendingWithdrawals, &models.Transaction{}, "type = ? AND status = ?", []interface{}{domain.TxTypeWithdrawal, domain.TxStatusPending}},
		{&s.ActiveInvestments, &models.Investment{}, "status = ?", []interface{}{domain.InvestmentStatusActive}},
		{&s.TotalReferrals, &models.Referral{}, "1 = 1", nil},
	}
	for _, c := range counts {
		if err := db.Model(c.model).Where(c.where, c.args...).Count(c.dst).Error; err != nil {
			return nil, errors.Wrap(err, "dashboard stats")
		}
	}

	var err error
	if s.TotalDeposits, err = r.sum(ctx, &models.Transaction{}, "amount", "type = ? AND status = ?", domain.TxTypeDeposit, domain.TxStatusCompleted); err != nil {
		return nil, errors.Wrap(err, "sum deposits")
	}
	if s.TotalWithdrawals, err = r.sum(ctx, &models.Transaction{}, "amount", "type = ? AND status = ?", domain.TxTypeWithdrawal, domain.TxStatusCompleted); err != nil {
		return nil, errors.Wrap(err, "sum withdrawals")
	}
	if s.TotalInvested, err = r.sum(ctx, &models.Investment{}, "amount", "status = ?", domain.InvestmentStatusActive); err != nil {
		return nil, errors.Wrap(err, "sum invested")
	}
	if s.TotalBalance, err = r.sum(ctx, &models.User{}, "balance", "role = ?", domain.RoleUser); err != nil {
		return nil, errors.Wrap(err, "sum balances")
	}
	return &s, nil
}

// ListUsers returns users with search, role and active filters, and pagination.
func (r *AdminRepository) ListUsers(ctx context.Context, f UserFilter) ([]models.User, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.User{})
	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Where("email LIKE ? OR first_name LIKE ? OR last_name LIKE ?", like, like, like)
	}
	if f.Role != "" {
		q = q.Where("role = ?", f.Role)
	}
	if f.IsActive != nil {
		q = q.Where("is_active = ?", *f.IsActive)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count users")
	}
	var users []models.User
	err := q.Order("created_at DESC").Limit(f.Limit).Offset(offset(f.Page, f.Limit)).Find(&users).Error
	return users, total, errors.Wrap(err, "list users")
}

func (r *AdminRepository) UserCounts(ctx context.Context, userID uint) (*UserCounts, error) {
	var c UserCounts
	db := r.db.WithContext(ctx)
	if err := db.Model(&models.Transaction{}).Where("user_id = ?", userID).Count(&c.Transactions).Error; err != nil {
		return nil, errors.Wrap(err, "count user transactions")
	}
	if err := db.Model(&models.Investment{}).Where("user_id = ?", userID).Count(&c.Investments).Error; err != nil {
		return nil, errors.Wrap(err, "count user investments")
	}
	if err := db.Model(&models.Referral{}).Where("referrer_id = ?", userID).Count(&c.Referrals).Error; err != nil {
		return nil, errors.Wrap(err, "count user referrals")
	}
	return &c, nil
}

// UserSignupsByDay returns daily signup counts for the last N days.
func (r *AdminRepository) UserSignupsByDay(ctx context.Context, days int) ([]TimeSeriesPoint, error) {
	since := time.Now().AddDate(0, 0, -days)
	var points []TimeSeriesPoint
	err := r.db.WithContext(ctx).Model(&models.User{}).
		Select("DATE(created_at) as date, COUNT(*) as count").
		Where("created_at >= ?", since).
		Group("DATE(created_at)").
		Order("date ASC").
		Scan(&points).Error
	return points, errors.Wrap(err, "signups by day")
}
