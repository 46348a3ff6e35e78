package repository

import (
	"context"

	"coinvest/internal/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type WatchlistRepository struct {
	db *gorm.DB
}

func NewWatchlistRepository(db *gorm.DB) *WatchlistRepository {
	return &WatchlistRepository{db: db}
}

func (r *WatchlistRepository) ListByUser(ctx context.Context, userID uint) ([]models.Watchlist, error) {
	var list []models.Watchlist
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at ASC").Find(&list).Error
	return list, errors.Wrap(err, "list watchlist")
}

// Find looks up the (user, symbol) pair including soft-deleted rows, which still hold the unique index.
func (r *WatchlistRepository) Find(ctx context.Context, userID uint, symbol string) (*models.Watchlist, error) {
	var w models.Watchlist
	err := r.db.WithContext(ctx).Unscoped().Where("user_id = ? AND symbol = ?", userID, symbol).First(&w).Error
	if err != nil {
		return nil, errors.Wrap(err, "find watchlist entry")
	}
	return &w, nil
}

func (r *WatchlistRepository) GetByID(ctx context.Context, userID, id uint) (*models.Watchlist, error) {
	var w models.Watchlist
	if err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&w).Error; err != nil {
		return nil, errors.Wrapf(err, "get watchlist entry %d", id)
	}
	return &w, nil
}

func (r *WatchlistRepository) Create(ctx context.Context, w *models.Watchlist) error {
	return errors.Wrap(r.db.WithContext(ctx).Create(w).Error, "create watchlist entry")
}

// Restore revives a soft-deleted entry with a new note.
func (r *WatchlistRepository) Restore(ctx context.Context, w *models.Watchlist, note string) error {
	err := r.db.WithContext(ctx).Unscoped().Model(w).
		Updates(map[string]interface{}{"deleted_at": nil, "note": note}).Error
	if err != nil {
		return errors.Wrapf(err, "restore watchlist entry %d", w.ID)
	}
	w.DeletedAt = gorm.DeletedAt{}
	w.Note = note
	return nil
}

func (r *WatchlistRepository) UpdateNote(ctx context.Context, w *models.Watchlist) error {
	err := r.db.WithContext(ctx).Model(w).Update("note", w.Note).Error
	return errors.Wrapf(err, "update watchlist entry %d", w.ID)
}

func (r *WatchlistRepository) Delete(ctx context.Context, userID, id uint) error {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Watchlist{})
	if res.Error != nil {
		return errors.Wrapf(res.Error, "delete watchlist entry %d", id)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
