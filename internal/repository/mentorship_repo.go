package repository

import (
	"context"

	"coinvest/internal/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Bookings is the registration path: the class row is locked so capacity checks and the insert
// happen under one lock.
type Bookings interface {
	WithinTx(ctx context.Context, fn func(Bookings) error) error
	LockClass(ctx context.Context, id uint) (*models.MentorshipClass, error)
	CountRegistrations(ctx context.Context, classID uint) (int64, error)
	FindRegistration(ctx context.Context, classID, userID uint) (*models.ClassRegistration, error)
	CreateRegistration(ctx context.Context, reg *models.ClassRegistration) error
}

type MentorshipRepository struct {
	db *gorm.DB
}

func NewMentorshipRepository(db *gorm.DB) *MentorshipRepository {
	return &MentorshipRepository{db: db}
}

func (r *MentorshipRepository) WithinTx(ctx context.Context, fn func(Bookings) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&MentorshipRepository{db: tx})
	})
}

func (r *MentorshipRepository) LockClass(ctx context.Context, id uint) (*models.MentorshipClass, error) {
	var c models.MentorshipClass
	err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&c, id).Error
	if err != nil {
		return nil, errors.Wrapf(err, "lock class %d", id)
	}
	return &c, nil
}

func (r *MentorshipRepository) CountRegistrations(ctx context.Context, classID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ClassRegistration{}).Where("class_id = ?", classID).Count(&count).Error
	return count, errors.Wrap(err, "count registrations")
}

func (r *MentorshipRepository) FindRegistration(ctx context.Context, classID, userID uint) (*models.ClassRegistration, error) {
	var reg models.ClassRegistration
	err := r.db.WithContext(ctx).Where("class_id = ? AND user_id = ?", classID, userID).First(&reg).Error
	if err != nil {
		return nil, errors.Wrap(err, "find registration")
	}
	return &reg, nil
}

func (r *MentorshipRepository) CreateRegistration(ctx context.Context, reg *models.ClassRegistration) error {
	return errors.Wrap(r.db.WithContext(ctx).Omit("Class", "User").Create(reg).Error, "create registration")
}

func (r *MentorshipRepository) ListClasses(ctx context.Context, activeOnly bool) ([]models.MentorshipClass, error) {
	q := r.db.WithContext(ctx).Model(&models.MentorshipClass{})
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var list []models.MentorshipClass
	if err := q.Order("scheduled_at ASC").Find(&list).Error; err != nil {
		return nil, errors.Wrap(err, "list classes")
	}
	if len(list) == 0 {
		return list, nil
	}
	ids := make([]uint, len(list))
	for i := range list {
		ids[i] = list[i].ID
	}
	var counts []struct {
		ClassID uint
		Count   int64
	}
	err := r.db.WithContext(ctx).Model(&models.ClassRegistration{}).
		Select("class_id, COUNT(*) as count").
		Where("class_id IN ?", ids).
		Group("class_id").
		Scan(&counts).Error
	if err != nil {
		return nil, errors.Wrap(err, "count registrations")
	}
	byClass := make(map[uint]int64, len(counts))
	for _, c := range counts {
		byClass[c.ClassID] = c.Count
	}
	for i := range list {
		list[i].SetCounts(byClass[list[i].ID])
	}
	return list, nil
}

func (r *MentorshipRepository) GetClass(ctx context.Context, id uint) (*models.MentorshipClass, error) {
	var c models.MentorshipClass
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, errors.Wrapf(err, "get class %d", id)
	}
	count, err := r.CountRegistrations(ctx, id)
	if err != nil {
		return nil, err
	}
	c.SetCounts(count)
	return &c, nil
}

func (r *MentorshipRepository) CreateClass(ctx context.Context, c *models.MentorshipClass) error {
	return errors.Wrap(r.db.WithContext(ctx).Create(c).Error, "create class")
}

func (r *MentorshipRepository) UpdateClass(ctx context.Context, c *models.MentorshipClass) error {
	return errors.Wrapf(r.db.WithContext(ctx).Save(c).Error, "update class %d", c.ID)
}

func (r *MentorshipRepository) DeleteClass(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.MentorshipClass{}, id)
	if res.Error != nil {
		return errors.Wrapf(res.Error, "delete class %d", id)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *MentorshipRepository) GetRegistration(ctx context.Context, id uint) (*models.ClassRegistration, error) {
	var reg models.ClassRegistration
	if err := r.db.WithContext(ctx).Preload("Class").First(&reg, id).Error; err != nil {
		return nil, errors.Wrapf(err, "get registration %d", id)
	}
	return &reg, nil
}

func (r *MentorshipRepository) UpdateRegistration(ctx context.Context, id uint, updates map[string]interface{}) error {
	err := r.db.WithContext(ctx).Model(&models.ClassRegistration{}).Where("id = ?", id).Updates(updates).Error
	return errors.Wrapf(err, "update registration %d", id)
}

func (r *MentorshipRepository) ListRegistrationsByUser(ctx context.Context, userID uint) ([]models.ClassRegistration, error) {
	var list []models.ClassRegistration
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Preload("Class").Order("registered_at DESC").Find(&list).Error
	return list, errors.Wrap(err, "list registrations")
}

func (r *MentorshipRepository) ListRegistrationsByClass(ctx context.Context, classID uint) ([]models.ClassRegistration, error) {
	var list []models.ClassRegistration
	err := r.db.WithContext(ctx).Where("class_id = ?", classID).Preload("User").Order("registered_at ASC").Find(&list).Error
	return list, errors.Wrap(err, "list registrations")
}
