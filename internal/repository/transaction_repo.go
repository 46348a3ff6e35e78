package repository

import (
	"context"

	"coinvest/internal/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type TransactionFilter struct {
	UserID uint
	Type   string
	Status string
	Page   int
	Limit  int
}

type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) GetByID(ctx context.Context, id uint) (*models.Transaction, error) {
	var t models.Transaction
	err := r.db.WithContext(ctx).Preload("PaymentMethod").First(&t, id).Error
	if err != nil {
		return nil, errors.Wrapf(err, "get transaction %d", id)
	}
	return &t, nil
}

func (r *TransactionRepository) GetByReference(ctx context.Context, ref string) (*models.Transaction, error) {
	var t models.Transaction
	if err := r.db.WithContext(ctx).Where("reference = ?", ref).First(&t).Error; err != nil {
		return nil, errors.Wrap(err, "get transaction by reference")
	}
	return &t, nil
}

// UpdateProvider stores the gateway reference and payment page after the provider accepted the order.
func (r *TransactionRepository) UpdateProvider(ctx context.Context, id uint, providerRef, paymentURL string) error {
	err := r.db.WithContext(ctx).Model(&models.Transaction{}).Where("id = ?", id).
		Updates(map[string]interface{}{"provider_ref": providerRef, "payment_url": paymentURL}).Error
	return errors.Wrapf(err, "update provider of transaction %d", id)
}

// List returns transactions matching f, newest first, and the total count before pagination.
func (r *TransactionRepository) List(ctx context.Context, f TransactionFilter) ([]models.Transaction, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Transaction{})
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count transactions")
	}
	var list []models.Transaction
	err := q.Preload("User").Preload("PaymentMethod").
		Order("created_at DESC").Limit(f.Limit).Offset(offset(f.Page, f.Limit)).
		Find(&list).Error
	return list, total, errors.Wrap(err, "list transactions")
}

func (r *TransactionRepository) Recent(ctx context.Context, userID uint, limit int) ([]models.Transaction, error) {
	var list []models.Transaction
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Limit(limit).Find(&list).Error
	return list, errors.Wrap(err, "recent transactions")
}
