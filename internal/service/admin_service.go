package service

import (
	"context"
	"net/url"
	"strings"

	"coinvest/internal/apperr"
	"coinvest/internal/domain"
	"coinvest/internal/logging"
	"coinvest/internal/models"
	"coinvest/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AdminService covers the back-office operations that are not owned by a domain service.
type AdminService struct {
	repo     adminStore
	users    userStore
	ledger   repository.Ledger
	settings settingStore
	audit    auditStore
	log      *zap.Logger
}

func NewAdminService(repo adminStore, users userStore, ledger repository.Ledger, settings settingStore, audit auditStore) *AdminService {
	return &AdminService{repo: repo, users: users, ledger: ledger, settings: settings, audit: audit, log: logging.Named("admin")}
}

func (s *AdminService) Stats(ctx context.Context) (*repository.DashboardStats, error) {
	stats, err := s.repo.GetDashboardStats(ctx)
	if err != nil {
		return nil, internal(err)
	}
	return stats, nil
}

func (s *AdminService) Signups(ctx context.Context, days int) ([]repository.TimeSeriesPoint, error) {
	if days < 1 || days > 365 {
		days = 30
	}
	points, err := s.repo.UserSignupsByDay(ctx, days)
	if err != nil {
		return nil, internal(err)
	}
	return points, nil
}

func (s *AdminService) ListUsers(ctx context.Context, f repository.UserFilter) (*Page[models.User], error) {
	f.Page, f.Limit = normalizePage(f.Page, f.Limit)
	f.Search = strings.TrimSpace(f.Search)
	f.Role = strings.ToUpper(f.Role)
	users, total, err := s.repo.ListUsers(ctx, f)
	if err != nil {
		return nil, internal(err)
	}
	return &Page[models.User]{Items: users, Total: total, Page: f.Page, Limit: f.Limit}, nil
}

type AdminUserDetail struct {
	*models.User
	Counts *repository.UserCounts `json:"counts"`
}

func (s *AdminService) GetUser(ctx context.Context, id uint) (*AdminUserDetail, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ErrUserNotFound)
	}
	counts, err := s.repo.UserCounts(ctx, id)
	if err != nil {
		return nil, internal(err)
	}
	return &AdminUserDetail{User: u, Counts: counts}, nil
}

type AdminUserInput struct {
	ProfileInput
	Role     *string
	IsActive *bool
}

func (s *AdminService) UpdateUser(ctx context.Context, actor Actor, id uint, in AdminUserInput) (*models.User, error) {
	updates := in.updates()
	if in.Role != nil {
		role := strings.ToUpper(*in.Role)
		if role != domain.RoleUser && role != domain.RoleAdmin {
			return nil, apperr.Validation("Role must be USER or ADMIN")
		}
		if id == actor.ID && role != domain.RoleAdmin {
			return nil, apperr.Validation("You cannot remove your own admin role")
		}
		updates["role"] = role
	}
	if in.IsActive != nil {
		if id == actor.ID && !*in.IsActive {
			return nil, apperr.Validation("You cannot disable your own account")
		}
		updates["is_active"] = *in.IsActive
	}
	if _, err := s.users.GetByID(ctx, id); err != nil {
		return nil, notFoundOr(err, ErrUserNotFound)
	}
	if len(updates) > 0 {
		if err := s.users.UpdateFields(ctx, id, updates); err != nil {
			return nil, internal(err)
		}
		recordAudit(ctx, s.audit, actor, "user.update", "user", id, updates)
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ErrUserNotFound)
	}
	return u, nil
}

// SetBalance overwrites a user's balance. Totals are left alone; the change is audit-logged with
// the previous value.
func (s *AdminService) SetBalance(ctx context.Context, actor Actor, id uint, balance decimal.Decimal) (*models.User, error) {
	if balance.IsNegative() {
		return nil, apperr.Validation("Balance cannot be negative")
	}
	var previous decimal.Decimal
	err := s.ledger.WithinTx(ctx, func(l repository.Ledger) error {
		u, err := l.LockUser(ctx, id)
		if err != nil {
			return notFoundOr(err, ErrUserNotFound)
		}
		previous = u.Balance
		return l.SetBalance(ctx, id, balance)
	})
	if err != nil {
		return nil, internal(err)
	}
	s.log.Info("balance set", zap.Uint("user_id", id), zap.String("from", previous.String()), zap.String("to", balance.String()), zap.Uint("actor_id", actor.ID))
	recordAudit(ctx, s.audit, actor, "user.balance_set", "user", id, map[string]interface{}{
		"from": previous.String(),
		"to":   balance.String(),
	})
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ErrUserNotFound)
	}
	return u, nil
}

func (s *AdminService) DeleteUser(ctx context.Context, actor Actor, id uint) error {
	if id == actor.ID {
		return apperr.Validation("You cannot delete your own account")
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return notFoundOr(err, ErrUserNotFound)
	}
	recordAudit(ctx, s.audit, actor, "user.delete", "user", id, nil)
	return nil
}

func (s *AdminService) Settings(ctx context.Context) ([]models.SystemSetting, error) {
	list, err := s.settings.GetAll(ctx)
	if err != nil {
		return nil, internal(err)
	}
	return list, nil
}

func validateSetting(key, value string) error {
	switch key {
	case domain.SettingDepositMinAmount, domain.SettingWithdrawalMinAmount:
		d, err := decimal.NewFromString(value)
		if err != nil || d.IsNegative() {
			return apperr.Validationf("%s must be a non-negative number", key)
		}
	case domain.SettingReferralBaseURL:
		if value == "" {
			return nil
		}
		u, err := url.Parse(value)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return apperr.Validationf("%s must be an absolute URL", key)
		}
	default:
		return apperr.Validationf("Unknown setting %s", key)
	}
	return nil
}

// UpdateSettings validates every value before writing any of them.
func (s *AdminService) UpdateSettings(ctx context.Context, actor Actor, values map[string]string) ([]models.SystemSetting, error) {
	if len(values) == 0 {
		return nil, apperr.Validation("No settings provided")
	}
	for k, v := range values {
		if err := validateSetting(k, strings.TrimSpace(v)); err != nil {
			return nil, err
		}
	}
	meta := make(map[string]interface{}, len(values))
	for k, v := range values {
		v = strings.TrimSpace(v)
		if err := s.settings.Set(ctx, k, v); err != nil {
			return nil, internal(err)
		}
		meta[k] = v
	}
	recordAudit(ctx, s.audit, actor, "settings.update", "system_setting", 0, meta)
	return s.Settings(ctx)
}

func (s *AdminService) AuditLogs(ctx context.Context, action string, page, limit int) (*Page[models.AuditLog], error) {
	page, limit = normalizePage(page, limit)
	list, total, err := s.audit.List(ctx, action, page, limit)
	if err != nil {
		return nil, internal(err)
	}
	return &Page[models.AuditLog]{Items: list, Total: total, Page: page, Limit: limit}, nil
}
