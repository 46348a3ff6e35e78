package service

import (
	"context"
	"net/url"
	"strings"
	"time"

	"coinvest/internal/domain"
	"coinvest/internal/models"
	"coinvest/internal/repository"

	"github.com/shopspring/decimal"
)

type ReferralService struct {
	repo        referralStore
	users       userReader
	settings    settingReader
	frontendURL string
}

func NewReferralService(repo referralStore, users userReader, settings settingReader, frontendURL string) *ReferralService {
	return &ReferralService{repo: repo, users: users, settings: settings, frontendURL: frontendURL}
}

// ReferredUser is what a referrer sees about the people they brought in.
type ReferredUser struct {
	ID         uint            `json:"id"`
	UserID     uint            `json:"user_id"`
	Name       string          `json:"name"`
	Status     string          `json:"status"`
	Commission decimal.Decimal `json:"commission"`
	JoinedAt   time.Time       `json:"joined_at"`
}

func (s *ReferralService) List(ctx context.Context, referrerID uint, page, limit int) ([]ReferredUser, error) {
	page, limit = normalizePage(page, limit)
	list, err := s.repo.ListByReferrerID(ctx, referrerID, limit, (page-1)*limit)
	if err != nil {
		return nil, internal(err)
	}
	out := make([]ReferredUser, 0, len(list))
	for _, r := range list {
		out = append(out, ReferredUser{
			ID:         r.ID,
			UserID:     r.ReferredUserID,
			Name:       r.ReferredUser.FullName(),
			Status:     r.Status,
			Commission: r.Commission,
			JoinedAt:   r.CreatedAt,
		})
	}
	return out, nil
}

type ReferralSummary struct {
	ReferralCode string `json:"referral_code"`
	ReferralLink string `json:"referral_link"`
	repository.ReferralStats
}

func (s *ReferralService) Stats(ctx context.Context, userID uint) (*ReferralSummary, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, ErrUserNotFound)
	}
	stats, err := s.repo.Stats(ctx, userID)
	if err != nil {
		return nil, internal(err)
	}
	return &ReferralSummary{
		ReferralCode:  u.ReferralCode,
		ReferralLink:  s.link(ctx, u.ReferralCode),
		ReferralStats: *stats,
	}, nil
}

// link builds the signup link. The referral_base_url setting overrides the frontend URL.
func (s *ReferralService) link(ctx context.Context, code string) string {
	base := s.frontendURL
	if s.settings != nil {
		if v, err := s.settings.Get(ctx, domain.SettingReferralBaseURL); err == nil && v != "" {
			base = v
		}
	}
	return strings.TrimRight(base, "/") + "/register?ref=" + url.QueryEscape(code)
}

func (s *ReferralService) ListAll(ctx context.Context, page, limit int) (*Page[models.Referral], error) {
	page, limit = normalizePage(page, limit)
	list, total, err := s.repo.ListAll(ctx, page, limit)
	if err != nil {
		return nil, internal(err)
	}
	return &Page[models.Referral]{Items: list, Total: total, Page: page, Limit: limit}, nil
}
