package repository

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"

	"coinvest/internal/domain"
	"coinvest/internal/models"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ReferralStats struct {
	TotalReferrals  int64           `json:"total_referrals"`
	ActiveReferrals int64           `json:"active_referrals"`
	TotalCommission decimal.Decimal `json:"total_commission"`
}

type ReferralRepository struct {
	db *gorm.DB
}

func NewReferralRepository(db *gorm.DB) *ReferralRepository {
	return &ReferralRepository{db: db}
}

// GenerateReferralCode returns an 8-character uppercase hex referral code.
func GenerateReferralCode() (string, error) {
	b := make([]byte, domain.ReferralCodeLength/2)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(b)), nil // e.g. "A3F2C1B0"
}

// ListByReferrerID returns all referrals created by the given referrer, with referred user preloaded.
func (r *ReferralRepository) ListByReferrerID(ctx context.Context, referrerID uint, limit, offset int) ([]models.Referral, error) {
	var list []models.Referral
	err := r.db.WithContext(ctx).Where("referrer_id = ?", referrerID).
		Preload("ReferredUser").
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&list).Error
	return list, errors.Wrap(err, "list referrals")
}

func (r *ReferralRepository) Stats(ctx context.Context, referrerID uint) (*ReferralStats, error) {
	var row struct {
		Total      int64
		Active     int64
		Commission decimal.Decimal
	}
	err := r.db.WithContext(ctx).Model(&models.Referral{}).
		Select("COUNT(*) as total, COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) as active, COALESCE(SUM(commission), 0) as commission", domain.ReferralStatusActive).
		Where("referrer_id = ?", referrerID).
		Scan(&row).Error
	if err != nil {
		return nil, errors.Wrap(err, "referral stats")
	}
	return &ReferralStats{TotalReferrals: row.Total, ActiveReferrals: row.Active, TotalCommission: row.Commission}, nil
}

// ListAll returns all referrals with preloaded users.
func (r *ReferralRepository) ListAll(ctx context.Context, page, limit int) ([]models.Referral, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Referral{}).Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count referrals")
	}
	var list []models.Referral
	err := r.db.WithContext(ctx).Preload("Referrer").Preload("ReferredUser").
		Order("created_at DESC").Limit(limit).Offset(offset(page, limit)).
		Find(&list).Error
	return list, total, errors.Wrap(err, "list referrals")
}
