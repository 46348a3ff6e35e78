package repository

import (
	"context"

	"coinvest/internal/domain"
	"coinvest/internal/models"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	return errors.Wrap(r.db.WithContext(ctx).Create(u).Error, "create user")
}

// CreateWithReferral inserts u and, when referrerID is set, the Referral linking it to the referrer,
// in one transaction.
func (r *UserRepository) CreateWithReferral(ctx context.Context, u *models.User, referrerID *uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u.ReferredBy = referrerID
		if err := tx.Create(u).Error; err != nil {
			return errors.Wrap(err, "create user")
		}
		if referrerID == nil {
			return nil
		}
		ref := models.Referral{
			ReferrerID:     *referrerID,
			ReferredUserID: u.ID,
			Status:         domain.ReferralStatusActive,
			Commission:     decimal.Zero,
		}
		return errors.Wrap(tx.Omit("Referrer", "ReferredUser").Create(&ref).Error, "create referral")
	})
}

func (r *UserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, errors.Wrapf(err, "get user %d", id)
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, errors.Wrap(err, "get user by email")
	}
	return &u, nil
}

func (r *UserRepository) GetByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).Where("google_id = ?", googleID).First(&u).Error; err != nil {
		return nil, errors.Wrap(err, "get user by google id")
	}
	return &u, nil
}

func (r *UserRepository) GetByReferralCode(ctx context.Context, code string) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).Where("referral_code = ?", code).First(&u).Error; err != nil {
		return nil, errors.Wrap(err, "get user by referral code")
	}
	return &u, nil
}

func (r *UserRepository) ReferralCodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Unscoped().Model(&models.User{}).Where("referral_code = ?", code).Count(&count).Error
	return count > 0, errors.Wrap(err, "check referral code")
}

func (r *UserRepository) Update(ctx context.Context, u *models.User) error {
	return errors.Wrapf(r.db.WithContext(ctx).Save(u).Error, "update user %d", u.ID)
}

// UpdateFields updates only the given columns.
func (r *UserRepository) UpdateFields(ctx context.Context, id uint, updates map[string]interface{}) error {
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates).Error
	return errors.Wrapf(err, "update user %d", id)
}

func (r *UserRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.User{}, id)
	if res.Error != nil {
		return errors.Wrapf(res.Error, "delete user %d", id)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
