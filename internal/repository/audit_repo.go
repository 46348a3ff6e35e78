package repository

import (
	"context"

	"coinvest/internal/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	return errors.Wrap(r.db.WithContext(ctx).Create(entry).Error, "create audit log")
}

func (r *AuditRepository) List(ctx context.Context, action string, page, limit int) ([]models.AuditLog, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.AuditLog{})
	if action != "" {
		q = q.Where("action = ?", action)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count audit logs")
	}
	var list []models.AuditLog
	err := q.Order("created_at DESC").Limit(limit).Offset(offset(page, limit)).Find(&list).Error
	return list, total, errors.Wrap(err, "list audit logs")
}
