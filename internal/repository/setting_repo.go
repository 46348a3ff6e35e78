package repository

import (
	"context"

	"coinvest/internal/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingRepository struct {
	db *gorm.DB
}

func NewSettingRepository(db *gorm.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

func (r *SettingRepository) Get(ctx context.Context, key string) (string, error) {
	var s models.SystemSetting
	if err := r.db.WithContext(ctx).Where(&models.SystemSetting{Key: key}).First(&s).Error; err != nil {
		return "", errors.Wrapf(err, "get setting %s", key)
	}
	return s.Value, nil
}

func (r *SettingRepository) Set(ctx context.Context, key, value string) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&models.SystemSetting{Key: key, Value: value}).Error
	return errors.Wrapf(err, "set setting %s", key)
}

func (r *SettingRepository) GetAll(ctx context.Context) ([]models.SystemSetting, error) {
	var list []models.SystemSetting
	err := r.db.WithContext(ctx).Order(clause.OrderByColumn{Column: clause.Column{Name: "key"}}).Find(&list).Error
	return list, errors.Wrap(err, "list settings")
}

// SeedDefaults inserts default settings if they don't already exist.
func (r *SettingRepository) SeedDefaults(ctx context.Context, defaults map[string]string) error {
	for k, v := range defaults {
		s := models.SystemSetting{Key: k, Value: v}
		if err := r.db.WithContext(ctx).Where(&models.SystemSetting{Key: k}).FirstOrCreate(&s).Error; err != nil {
			return errors.Wrapf(err, "seed setting %s", k)
		}
	}
	return nil
}
