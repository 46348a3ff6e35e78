package service

import (
	"context"
	"strings"
	"time"

	"coinvest/internal/apperr"
	"coinvest/internal/domain"
	"coinvest/internal/logging"
	"coinvest/internal/metrics"
	"coinvest/internal/models"
	"coinvest/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type InvestmentService struct {
	ledger   repository.Ledger
	repo     investmentStore
	audit    auditStore
	notifier Notifier
	log      *zap.Logger
	now      func() time.Time
}

func NewInvestmentService(ledger repository.Ledger, repo investmentStore, audit auditStore, notifier Notifier) *InvestmentService {
	return &InvestmentService{
		ledger:   ledger,
		repo:     repo,
		audit:    audit,
		notifier: notifier,
		log:      logging.Named("investments"),
		now:      time.Now,
	}
}

// Create debits the user's balance and opens an ACTIVE investment in one database transaction.
func (s *InvestmentService) Create(ctx context.Context, userID, planID uint, amount decimal.Decimal) (*models.Investment, error) {
	if !amount.IsPositive() {
		return nil, ErrAmountNotPositive
	}
	var inv *models.Investment
	err := s.ledger.WithinTx(ctx, func(l repository.Ledger) error {
		plan, err := l.GetPlan(ctx, planID)
		if err != nil {
			return notFoundOr(err, ErrPlanNotFound)
		}
		if !plan.IsActive {
			return apperr.Validation("Investment plan is not active")
		}
		if !plan.Accepts(amount) {
			return apperr.Validationf("Amount must be between %s and %s", plan.MinAmount.String(), plan.MaxAmount.String())
		}
		u, err := l.LockUser(ctx, userID)
		if err != nil {
			return notFoundOr(err, ErrUserNotFound)
		}
		if u.Balance.LessThan(amount) {
			return ErrInsufficientBalance
		}
		if err := l.AdjustBalance(ctx, userID, models.BalanceAdjustment{Balance: amount.Neg()}); err != nil {
			return err
		}
		start := s.now()
		inv = &models.Investment{
			UserID:      userID,
			PlanID:      plan.ID,
			Amount:      amount,
			DailyReturn: plan.DailyReturnFor(amount),
			StartDate:   start,
			EndDate:     start.AddDate(0, 0, plan.DurationDays),
			Status:      domain.InvestmentStatusActive,
		}
		if err := l.CreateInvestment(ctx, inv); err != nil {
			return err
		}
		inv.Plan = *plan
		return nil
	})
	if err != nil {
		return nil, internal(err)
	}

	metrics.InvestmentsCreated.Inc()
	s.log.Info("investment created",
		zap.Uint("investment_id", inv.ID),
		zap.Uint("user_id", userID),
		zap.Uint("plan_id", planID),
		zap.String("amount", amount.String()),
	)
	notifyQuietly(ctx, s.notifier, userID, domain.NotifyInvestmentCreated, "Investment started",
		"Your "+inv.Plan.Name+" investment of "+amount.String()+" is now active.",
		map[string]interface{}{"investment_id": inv.ID, "plan_id": planID})
	return inv.WithAccrual(s.now()), nil
}

// List returns a user's investments with read-time accrual; userID 0 lists every user (admin).
func (s *InvestmentService) List(ctx context.Context, f repository.InvestmentFilter) (*Page[models.Investment], error) {
	f.Page, f.Limit = normalizePage(f.Page, f.Limit)
	f.Status = strings.ToUpper(f.Status)
	items, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, internal(err)
	}
	now := s.now()
	for i := range items {
		items[i].WithAccrual(now)
	}
	return &Page[models.Investment]{Items: items, Total: total, Page: f.Page, Limit: f.Limit}, nil
}

func (s *InvestmentService) Get(ctx context.Context, userID, id uint) (*models.Investment, error) {
	inv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ErrInvestmentNotFound)
	}
	if inv.UserID != userID {
		return nil, ErrInvestmentNotFound
	}
	return inv.WithAccrual(s.now()), nil
}

// Active returns the user's ACTIVE investments for the dashboard.
func (s *InvestmentService) Active(ctx context.Context, userID uint) ([]models.Investment, error) {
	page, err := s.List(ctx, repository.InvestmentFilter{UserID: userID, Status: domain.InvestmentStatusActive, Page: 1, Limit: 100})
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

func (s *InvestmentService) Summary(ctx context.Context, userID uint) (*repository.InvestmentSummary, error) {
	sum, err := s.repo.Summary(ctx, userID)
	if err != nil {
		return nil, internal(err)
	}
	return sum, nil
}

// CountMatured reports ACTIVE investments past their end date. Nothing is paid out automatically.
func (s *InvestmentService) CountMatured(ctx context.Context) (int64, error) {
	n, err := s.repo.CountMatured(ctx, s.now())
	if err != nil {
		return 0, internal(err)
	}
	return n, nil
}

func (s *InvestmentService) ListPlans(ctx context.Context, activeOnly bool) ([]models.InvestmentPlan, error) {
	plans, err := s.repo.ListPlans(ctx, activeOnly)
	if err != nil {
		return nil, internal(err)
	}
	return plans, nil
}

type PlanInput struct {
	Name            string
	Description     string
	MinAmount       decimal.Decimal
	MaxAmount       decimal.Decimal
	DailyReturnRate decimal.Decimal
	DurationDays    int
	IsActive        *bool
}

func (in PlanInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return apperr.Validation("Name is required")
	}
	if !in.MinAmount.IsPositive() {
		return apperr.Validation("Minimum amount must be greater than zero")
	}
	if in.MaxAmount.LessThan(in.MinAmount) {
		return apperr.Validation("Maximum amount must not be less than minimum amount")
	}
	if !in.DailyReturnRate.IsPositive() {
		return apperr.Validation("Daily return rate must be greater than zero")
	}
	if in.DurationDays <= 0 {
		return apperr.Validation("Duration must be at least one day")
	}
	return nil
}

func (in PlanInput) apply(p *models.InvestmentPlan) {
	p.Name = strings.TrimSpace(in.Name)
	p.Description = in.Description
	p.MinAmount = in.MinAmount
	p.MaxAmount = in.MaxAmount
	p.DailyReturnRate = in.DailyReturnRate
	p.DurationDays = in.DurationDays
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
}

func (s *InvestmentService) CreatePlan(ctx context.Context, actor Actor, in PlanInput) (*models.InvestmentPlan, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	p := &models.InvestmentPlan{IsActive: true}
	in.apply(p)
	if err := s.repo.CreatePlan(ctx, p); err != nil {
		return nil, internal(err)
	}
	recordAudit(ctx, s.audit, actor, "plan.create", "investment_plan", p.ID, map[string]interface{}{"name": p.Name})
	return p, nil
}

func (s *InvestmentService) UpdatePlan(ctx context.Context, actor Actor, id uint, in PlanInput) (*models.InvestmentPlan, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	p, err := s.repo.GetPlan(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ErrPlanNotFound)
	}
	in.apply(p)
	if err := s.repo.UpdatePlan(ctx, p); err != nil {
		return nil, internal(err)
	}
	recordAudit(ctx, s.audit, actor, "plan.update", "investment_plan", p.ID, map[string]interface{}{"name": p.Name})
	return p, nil
}

// DeletePlan soft-deletes a plan; existing investments keep referencing it.
func (s *InvestmentService) DeletePlan(ctx context.Context, actor Actor, id uint) error {
	if err := s.repo.DeletePlan(ctx, id); err != nil {
		return notFoundOr(err, ErrPlanNotFound)
	}
	recordAudit(ctx, s.audit, actor, "plan.delete", "investment_plan", id, nil)
	return nil
}
