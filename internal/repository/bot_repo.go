package repository

import (
	"context"

	"coinvest/internal/domain"
	"coinvest/internal/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type BotRepository struct {
	db *gorm.DB
}

func NewBotRepository(db *gorm.DB) *BotRepository {
	return &BotRepository{db: db}
}

func (r *BotRepository) ListBots(ctx context.Context, activeOnly bool) ([]models.TradingBot, error) {
	q := r.db.WithContext(ctx).Model(&models.TradingBot{})
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var list []models.TradingBot
	err := q.Order("name ASC").Find(&list).Error
	return list, errors.Wrap(err, "list bots")
}

func (r *BotRepository) GetBot(ctx context.Context, id uint) (*models.TradingBot, error) {
	var b models.TradingBot
	if err := r.db.WithContext(ctx).First(&b, id).Error; err != nil {
		return nil, errors.Wrapf(err, "get bot %d", id)
	}
	return &b, nil
}

func (r *BotRepository) CreateBot(ctx context.Context, b *models.TradingBot) error {
	return errors.Wrap(r.db.WithContext(ctx).Create(b).Error, "create bot")
}

func (r *BotRepository) UpdateBot(ctx context.Context, b *models.TradingBot) error {
	return errors.Wrapf(r.db.WithContext(ctx).Save(b).Error, "update bot %d", b.ID)
}

func (r *BotRepository) DeleteBot(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.TradingBot{}, id)
	if res.Error != nil {
		return errors.Wrapf(res.Error, "delete bot %d", id)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// HasOpenRequest reports whether the user already has a PENDING or APPROVED request for the bot.
func (r *BotRepository) HasOpenRequest(ctx context.Context, userID, botID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.BotRequest{}).
		Where("user_id = ? AND bot_id = ? AND status IN ?", userID, botID,
			[]string{domain.BotRequestPending, domain.BotRequestApproved}).
		Count(&count).Error
	return count > 0, errors.Wrap(err, "check open bot request")
}

func (r *BotRepository) CreateRequest(ctx context.Context, req *models.BotRequest) error {
	return errors.Wrap(r.db.WithContext(ctx).Omit("Bot", "User").Create(req).Error, "create bot request")
}

func (r *BotRepository) GetRequest(ctx context.Context, id uint) (*models.BotRequest, error) {
	var req models.BotRequest
	if err := r.db.WithContext(ctx).Preload("Bot").First(&req, id).Error; err != nil {
		return nil, errors.Wrapf(err, "get bot request %d", id)
	}
	return &req, nil
}

func (r *BotRepository) UpdateRequestStatus(ctx context.Context, id uint, status, notes string) error {
	err := r.db.WithContext(ctx).Model(&models.BotRequest{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "admin_notes": notes}).Error
	return errors.Wrapf(err, "update bot request %d", id)
}

// ListRequests lists requests for one user (userID != 0) or all users, optionally by status.
func (r *BotRepository) ListRequests(ctx context.Context, userID uint, status string, page, limit int) ([]models.BotRequest, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.BotRequest{})
	if userID != 0 {
		q = q.Where("user_id = ?", userID)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count bot requests")
	}
	q = q.Preload("Bot").Order("created_at DESC")
	if userID == 0 {
		q = q.Preload("User")
	}
	var list []models.BotRequest
	err := q.Limit(limit).Offset(offset(page, limit)).Find(&list).Error
	return list, total, errors.Wrap(err, "list bot requests")
}

func (r *BotRepository) CreateTrade(ctx context.Context, t *models.BotTrade) error {
	return errors.Wrap(r.db.WithContext(ctx).Create(t).Error, "create bot trade")
}

func (r *BotRepository) ListTradesByUser(ctx context.Context, userID uint, page, limit int) ([]models.BotTrade, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.BotTrade{}).Where("user_id = ?", userID)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "count bot trades")
	}
	var list []models.BotTrade
	err := q.Order("opened_at DESC").Limit(limit).Offset(offset(page, limit)).Find(&list).Error
	return list, total, errors.Wrap(err, "list bot trades")
}
