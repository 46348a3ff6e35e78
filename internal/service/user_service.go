package service

import (
	"context"
	"strings"

	"coinvest/internal/apperr"
	"coinvest/internal/models"
	"coinvest/internal/repository"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

type investmentSummarizer interface {
	Summary(ctx context.Context, userID uint) (*repository.InvestmentSummary, error)
}

type referralCounter interface {
	Stats(ctx context.Context, referrerID uint) (*repository.ReferralStats, error)
}

type UserService struct {
	users       userStore
	investments investmentSummarizer
	referrals   referralCounter
	audit       auditStore
	hashCost    int
}

func NewUserService(users userStore, investments investmentSummarizer, referrals referralCounter, audit auditStore) *UserService {
	return &UserService{users: users, investments: investments, referrals: referrals, audit: audit, hashCost: bcrypt.DefaultCost}
}

func (s *UserService) Profile(ctx context.Context, userID uint) (*models.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFoundOr(err, ErrUserNotFound)
	}
	return u, nil
}

// ProfileInput holds the self-editable fields; nil leaves a field unchanged.
type ProfileInput struct {
	FirstName *string
	LastName  *string
	Phone     *string
	Country   *string
}

func (in ProfileInput) updates() map[string]interface{} {
	updates := map[string]interface{}{}
	set := func(col string, v *string) {
		if v != nil {
			updates[col] = strings.TrimSpace(*v)
		}
	}
	set("first_name", in.FirstName)
	set("last_name", in.LastName)
	set("phone", in.Phone)
	set("country", in.Country)
	return updates
}

func (s *UserService) UpdateProfile(ctx context.Context, userID uint, in ProfileInput) (*models.User, error) {
	if in.FirstName != nil && strings.TrimSpace(*in.FirstName) == "" {
		return nil, apperr.Validation("First name cannot be empty")
	}
	if updates := in.updates(); len(updates) > 0 {
		if err := s.users.UpdateFields(ctx, userID, updates); err != nil {
			return nil, internal(err)
		}
	}
	return s.Profile(ctx, userID)
}

func (s *UserService) ChangePassword(ctx context.Context, userID uint, current, next string) error {
	if len(next) < minPasswordLength {
		return ErrPasswordTooShort
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return notFoundOr(err, ErrUserNotFound)
	}
	// Google-only accounts have no password yet and may set one without the current password.
	if u.PasswordHash != "" && bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(current)) != nil {
		return apperr.Validation("Current password is incorrect")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), s.hashCost)
	if err != nil {
		return internal(err)
	}
	if err := s.users.UpdateFields(ctx, userID, map[string]interface{}{"password_hash": string(hash)}); err != nil {
		return internal(err)
	}
	recordAudit(ctx, s.audit, Actor{ID: userID}, "user.password_change", "user", userID, nil)
	return nil
}

func (s *UserService) SetFCMToken(ctx context.Context, userID uint, token string) error {
	if err := s.users.UpdateFields(ctx, userID, map[string]interface{}{"fcm_token": strings.TrimSpace(token)}); err != nil {
		return internal(err)
	}
	return nil
}

type UserStats struct {
	Balance           decimal.Decimal `json:"balance"`
	TotalDeposits     decimal.Decimal `json:"total_deposits"`
	TotalWithdrawals  decimal.Decimal `json:"total_withdrawals"`
	TotalProfit       decimal.Decimal `json:"total_profit"`
	ActiveInvestments int64           `json:"active_investments"`
	TotalInvested     decimal.Decimal `json:"total_invested"`
	TotalReferrals    int64           `json:"total_referrals"`
}

func (s *UserService) Stats(ctx context.Context, userID uint) (*UserStats, error) {
	u, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	inv, err := s.investments.Summary(ctx, userID)
	if err != nil {
		return nil, internal(err)
	}
	refs, err := s.referrals.Stats(ctx, userID)
	if err != nil {
		return nil, internal(err)
	}
	return &UserStats{
		Balance:           u.Balance,
		TotalDeposits:     u.TotalDeposits,
		TotalWithdrawals:  u.TotalWithdrawals,
		TotalProfit:       u.TotalProfit,
		ActiveInvestments: inv.ActiveCount,
		TotalInvested:     inv.TotalInvested,
		TotalReferrals:    refs.TotalReferrals,
	}, nil
}
