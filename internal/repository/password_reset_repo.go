package repository

import (
	"context"
	"time"

	"coinvest/internal/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type PasswordResetRepository struct {
	db *gorm.DB
}

func NewPasswordResetRepository(db *gorm.DB) *PasswordResetRepository {
	return &PasswordResetRepository{db: db}
}

func (r *PasswordResetRepository) Create(ctx context.Context, p *models.PasswordReset) error {
	return errors.Wrap(r.db.WithContext(ctx).Create(p).Error, "create password reset")
}

func (r *PasswordResetRepository) GetByToken(ctx context.Context, token string) (*models.PasswordReset, error) {
	var p models.PasswordReset
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&p).Error; err != nil {
		return nil, errors.Wrap(err, "get password reset")
	}
	return &p, nil
}

// Consume marks the token used and stores the new password hash in one transaction.
func (r *PasswordResetRepository) Consume(ctx context.Context, p *models.PasswordReset, passwordHash string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		res := tx.Model(&models.PasswordReset{}).Where("id = ? AND used_at IS NULL", p.ID).Update("used_at", now)
		if res.Error != nil {
			return errors.Wrap(res.Error, "mark reset used")
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		p.UsedAt = &now
		err := tx.Model(&models.User{}).Where("id = ?", p.UserID).Update("password_hash", passwordHash).Error
		return errors.Wrap(err, "update password")
	})
}

// PurgeExpired deletes tokens that expired before the given time.
func (r *PasswordResetRepository) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at < ?", before).Delete(&models.PasswordReset{})
	return res.RowsAffected, errors.Wrap(res.Error, "purge password resets")
}
