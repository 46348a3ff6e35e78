package repository

import (
	"context"

	"coinvest/internal/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type PaymentMethodRepository struct {
	db *gorm.DB
}

func NewPaymentMethodRepository(db *gorm.DB) *PaymentMethodRepository {
	return &PaymentMethodRepository{db: db}
}

func (r *PaymentMethodRepository) List(ctx context.Context, activeOnly bool) ([]models.PaymentMethod, error) {
	q := r.db.WithContext(ctx).Model(&models.PaymentMethod{})
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var list []models.PaymentMethod
	err := q.Order("name ASC").Find(&list).Error
	return list, errors.Wrap(err, "list payment methods")
}

func (r *PaymentMethodRepository) GetByID(ctx context.Context, id uint) (*models.PaymentMethod, error) {
	var m models.PaymentMethod
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, errors.Wrapf(err, "get payment method %d", id)
	}
	return &m, nil
}

func (r *PaymentMethodRepository) Create(ctx context.Context, m *models.PaymentMethod) error {
	return errors.Wrap(r.db.WithContext(ctx).Create(m).Error, "create payment method")
}

func (r *PaymentMethodRepository) Update(ctx context.Context, m *models.PaymentMethod) error {
	return errors.Wrapf(r.db.WithContext(ctx).Save(m).Error, "update payment method %d", m.ID)
}

func (r *PaymentMethodRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.PaymentMethod{}, id)
	if res.Error != nil {
		return errors.Wrapf(res.Error, "delete payment method %d", id)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
