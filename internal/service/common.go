package service

import (
	"context"
	"encoding/json"
	"fmt"

	"coinvest/internal/apperr"
	"coinvest/internal/logging"
	"coinvest/internal/models"
	"coinvest/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrInsufficientBalance   = apperr.Validation("Insufficient balance")
	ErrTransactionNotFound   = apperr.NotFound("Transaction not found")
	ErrUserNotFound          = apperr.NotFound("User not found")
	ErrPlanNotFound          = apperr.NotFound("Investment plan not found")
	ErrInvestmentNotFound    = apperr.NotFound("Investment not found")
	ErrPaymentMethodNotFound = apperr.NotFound("Payment method not found")
	ErrAmountNotPositive     = apperr.Validation("Amount must be greater than zero")
)

// Actor identifies who triggered a change, for processedBy and the audit log.
// A zero ID means the system (e.g. a gateway callback).
type Actor struct {
	ID        uint
	IP        string
	UserAgent string
}

func (a Actor) idPtr() *uint {
	if a.ID == 0 {
		return nil
	}
	id := a.ID
	return &id
}

// Page is a list result with its pagination.
type Page[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

// internal hides non-domain errors behind apperr.Internal and passes *apperr.Error through.
func internal(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*apperr.Error); ok {
		return err
	}
	return apperr.Internal(err)
}

// notFoundOr maps a repository not-found error to nf and wraps anything else as internal.
func notFoundOr(err error, nf *apperr.Error) error {
	if repository.IsNotFound(err) {
		return nf
	}
	return internal(err)
}

// recordAudit writes an audit entry; failures are logged, never returned.
func recordAudit(ctx context.Context, store auditStore, actor Actor, action, resource string, resourceID uint, meta map[string]interface{}) {
	if store == nil {
		return
	}
	var metaJSON string
	if meta != nil {
		b, _ := json.Marshal(meta)
		metaJSON = string(b)
	}
	err := store.Create(ctx, &models.AuditLog{
		UserID:     actor.idPtr(),
		Action:     action,
		Resource:   resource,
		ResourceID: fmt.Sprintf("%d", resourceID),
		IP:         actor.IP,
		UserAgent:  actor.UserAgent,
		Metadata:   metaJSON,
	})
	if err != nil {
		logging.Named("audit").Warn("failed to write audit log", zap.String("action", action), zap.Error(err))
	}
}

// settingDecimal reads a decimal setting, falling back when missing or malformed.
func settingDecimal(ctx context.Context, settings settingReader, key string, fallback decimal.Decimal) decimal.Decimal {
	if settings == nil {
		return fallback
	}
	val, err := settings.Get(ctx, key)
	if err != nil || val == "" {
		return fallback
	}
	d, err := decimal.NewFromString(val)
	if err != nil {
		return fallback
	}
	return d
}
