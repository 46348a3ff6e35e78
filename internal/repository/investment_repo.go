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

type InvestmentFilter struct {
	UserID uint
	Status string
	Page   int
	Limit  int
}

type InvestmentSummary struct {
	ActiveCount   int64           `json:"active_count"`
	TotalInvested decimal.Decimal `json:"total_invested"`
}

type InvestmentRepository struct {
	db *gorm.DB
}

func NewInvestmentRepository(db *gorm.DB) *InvestmentRepository {
	return &InvestmentRepository{db: db}
}

func (r *InvestmentRepository) ListPlans(ctx context.Context, activeOnly bool) ([]models.InvestmentPlan, error) {
	q := r.db.WithContext(ctx).Model(&models.InvestmentPlan{})
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var list []models.InvestmentPlan
	err := q.Order("min_amount ASC").Find(&list).Error
	return list, errors.Wrap(err, "list plans")
}

func (r *InvestmentRepository) GetPlan(ctx context.Context, id uint) (*models.InvestmentPlan, error) {
	var p models.InvestmentPlan
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, errors.Wrapf(err, "get plan %d", id)
	}
	return &p, nil
}

func (r *InvestmentRepository) CreatePlan(ctx context.Context, p *models.InvestmentPlan) error {
	return errors.Wrap(r.db.WithContext(ctx).Create(p).Error, "create plan")
}

func (r *InvestmentRepository) UpdatePlan(ctx context.Context, p *models.InvestmentPlan) error {
	return errors.Wrapf(r.db.WithContext(ctx).Save(p).Error, "update plan %d", p.ID)
}

func (r *InvestmentRepository) DeletePlan(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.InvestmentPlan{}, id)
	if res.Error != nil {
		return errors.Wrapf(res.Error, "delete plan %d", id)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *InvestmentRepository) GetByID(ctx context.Context, id uint) (*models.Investment, error) {
	var inv models.Investment
	if err := r.db.WithContext(ctx).Preload("Plan").First(&inv, id).Error; err != nil {
		return nil, errors.Wrapf(err, "get investment %d", id)
	}
	return &inv, nil
}

func (r *InvestmentRepository) List(ctx context.Context, f InvestmentFilter) ([]models.Investment, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Investment{})
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count investments")
	}
	q = q.Preload("Plan").Order("created_at DESC")
	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(offset(f.Page, f.Limit))
	}
	var list []models.Investment
	if f.UserID == 0 {
		q = q.Preload("User")
	}
	err := q.Find(&list).Error
	return list, total, errors.Wrap(err, "list investments")
}

// Summary aggregates the user's ACTIVE investments.
func (r *InvestmentRepository) Summary(ctx context.Context, userID uint) (*InvestmentSummary, error) {
	var row struct {
		Count int64
		Total decimal.Decimal
	}
	err := r.db.WithContext(ctx).Model(&models.Investment{}).
		Select("COUNT(*) as count, COALESCE(SUM(amount), 0) as total").
		Where("user_id = ? AND status = ?", userID, domain.InvestmentStatusActive).
		Scan(&row).Error
	if err != nil {
		return nil, errors.Wrap(err, "investment summary")
	}
	return &InvestmentSummary{ActiveCount: row.Count, TotalInvested: row.Total}, nil
}

// CountMatured counts ACTIVE investments whose end date is not after now.
func (r *InvestmentRepository) CountMatured(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Investment{}).
		Where("status = ? AND end_date <= ?", domain.InvestmentStatusActive, now).
		Count(&count).Error
	return count, errors.Wrap(err, "count matured investments")
}
