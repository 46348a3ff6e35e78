package service

import (
	"context"
	"strings"
	"time"

	"coinvest/internal/apperr"
	"coinvest/internal/domain"
	"coinvest/internal/models"

	"github.com/shopspring/decimal"
)

var (
	ErrBotNotFound        = apperr.NotFound("Bot not found")
	ErrBotRequestNotFound = apperr.NotFound("Bot request not found")
)

// BotService manages bot subscriptions. Bots do not trade and never touch balances; admins record
// trades by hand.
type BotService struct {
	repo     botStore
	audit    auditStore
	notifier Notifier
	now      func() time.Time
}

func NewBotService(repo botStore, audit auditStore, notifier Notifier) *BotService {
	return &BotService{repo: repo, audit: audit, notifier: notifier, now: time.Now}
}

func (s *BotService) ListBots(ctx context.Context, activeOnly bool) ([]models.TradingBot, error) {
	list, err := s.repo.ListBots(ctx, activeOnly)
	if err != nil {
		return nil, internal(err)
	}
	return list, nil
}

func (s *BotService) GetBot(ctx context.Context, id uint) (*models.TradingBot, error) {
	b, err := s.repo.GetBot(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, ErrBotNotFound)
	}
	return b, nil
}

// Request asks for a bot subscription. Only one PENDING or APPROVED request per user and bot.
func (s *BotService) Request(ctx context.Context, userID, botID uint, amount decimal.Decimal) (*models.BotRequest, error) {
	bot, err := s.GetBot(ctx, botID)
	if err != nil {
		return nil, err
	}
	if !bot.IsActive {
		return nil, apperr.Validation("Bot is not active")
	}
	if !amount.IsPositive() {
		return nil, ErrAmountNotPositive
	}
	if amount.LessThan(bot.MinInvestment) {
		return nil, apperr.Validationf("Minimum investment for this bot is %s", bot.MinInvestment.String())
	}
	open, err := s.repo.HasOpenRequest(ctx, userID, botID)
	if err != nil {
		return nil, internal(err)
	}
	if open {
		return nil, apperr.Conflict("You already have an active request for this bot")
	}
	req := &models.BotRequest{UserID: userID, BotID: botID, Amount: amount, Status: domain.BotRequestPending}
	if err := s.repo.CreateRequest(ctx, req); err != nil {
		return nil, internal(err)
	}
	req.Bot = *bot
	return req, nil
}

func (s *BotService) ListRequests(ctx context.Context, userID uint, status string, page, limit int) (*Page[models.BotRequest], error) {
	page, limit = normalizePage(page, limit)
	list, total, err := s.repo.ListRequests(ctx, userID, strings.ToUpper(status), page, limit)
	if err != nil {
		return nil, internal(err)
	}
	return &Page[models.BotRequest]{Items: list, Total: total, Page: page, Limit: limit}, nil
}

func (s *BotService) ListTrades(ctx context.Context, userID uint, page, limit int) (*Page[models.BotTrade], error) {
	page, limit = normalizePage(page, limit)
	list, total, err := s.repo.ListTradesByUser(ctx, userID, page, limit)
	if err != nil {
		return nil, internal(err)
	}
	return &Page[models.BotTrade]{Items: list, Total: total, Page: page, Limit: limit}, nil
}

// Stop ends the user's own APPROVED request.
func (s *BotService) Stop(ctx context.Context, userID, requestID uint) (*models.BotRequest, error) {
	req, err := s.repo.GetRequest(ctx, requestID)
	if err != nil {
		return nil, notFoundOr(err, ErrBotRequestNotFound)
	}
	if req.UserID != userID {
		return nil, ErrBotRequestNotFound
	}
	if req.Status != domain.BotRequestApproved {
		return nil, apperr.Conflict("Only approved requests can be stopped")
	}
	if err := s.repo.UpdateRequestStatus(ctx, requestID, domain.BotRequestStopped, req.AdminNotes); err != nil {
		return nil, internal(err)
	}
	req.Status = domain.BotRequestStopped
	return req, nil
}

// Decide approves or rejects a PENDING request and tells the user.
func (s *BotService) Decide(ctx context.Context, actor Actor, requestID uint, approve bool, notes string) (*models.BotRequest, error) {
	req, err := s.repo.GetRequest(ctx, requestID)
	if err != nil {
		return nil, notFoundOr(err, ErrBotRequestNotFound)
	}
	if req.Status != domain.BotRequestPending {
		return nil, apperr.Conflictf("Bot request already %s", strings.ToLower(req.Status))
	}
	status := domain.BotRequestRejected
	if approve {
		status = domain.BotRequestApproved
	}
	if err := s.repo.UpdateRequestStatus(ctx, requestID, status, notes); err != nil {
		return nil, internal(err)
	}
	req.Status = status
	req.AdminNotes = notes
	recordAudit(ctx, s.audit, actor, "bot.request_"+strings.ToLower(status), "bot_request", req.ID, map[string]interface{}{"bot_id": req.BotID, "user_id": req.UserID})
	notifyQuietly(ctx, s.notifier, req.UserID, domain.NotifyBotRequestDecided, "Bot request "+strings.ToLower(status),
		"Your request for "+req.Bot.Name+" was "+strings.ToLower(status)+".",
		map[string]interface{}{"bot_request_id": req.ID, "status": status})
	return req, nil
}

type TradeInput struct {
	Symbol     string
	Side       string
	EntryPrice decimal.Decimal
	ExitPrice  *decimal.Decimal
	Quantity   decimal.Decimal
	Profit     decimal.Decimal
	OpenedAt   time.Time
	ClosedAt   *time.Time
}

// RecordTrade logs a trade against an APPROVED request.
func (s *BotService) RecordTrade(ctx context.Context, actor Actor, requestID uint, in TradeInput) (*models.BotTrade, error) {
	req, err := s.repo.GetRequest(ctx, requestID)
	if err != nil {
		return nil, notFoundOr(err, ErrBotRequestNotFound)
	}
	if req.Status != domain.BotRequestApproved {
		return nil, apperr.Validation("Trades can only be recorded for approved requests")
	}
	side := strings.ToUpper(in.Side)
	if side != domain.TradeSideBuy && side != domain.TradeSideSell {
		return nil, apperr.Validation("Side must be BUY or SELL")
	}
	if strings.TrimSpace(in.Symbol) == "" || !in.EntryPrice.IsPositive() || !in.Quantity.IsPositive() {
		return nil, apperr.Validation("Symbol, entry price and quantity are required")
	}
	opened := in.OpenedAt
	if opened.IsZero() {
		opened = s.now()
	}
	t := &models.BotTrade{
		BotRequestID: req.ID,
		UserID:       req.UserID,
		Symbol:       strings.ToUpper(strings.TrimSpace(in.Symbol)),
		Side:         side,
		EntryPrice:   in.EntryPrice,
		ExitPrice:    in.ExitPrice,
		Quantity:     in.Quantity,
		Profit:       in.Profit,
		OpenedAt:     opened,
		ClosedAt:     in.ClosedAt,
	}
	if err := s.repo.CreateTrade(ctx, t); err != nil {
		return nil, internal(err)
	}
	recordAudit(ctx, s.audit, actor, "bot.trade_record", "bot_trade", t.ID, map[string]interface{}{"bot_request_id": req.ID})
	return t, nil
}

type BotInput struct {
	Name                  string
	Description           string
	Strategy              string
	RiskLevel             string
	MinInvestment         decimal.Decimal
	ExpectedMonthlyReturn decimal.Decimal
	IsActive              *bool
}

func (in BotInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return apperr.Validation("Name is required")
	}
	switch strings.ToUpper(in.RiskLevel) {
	case "", domain.RiskLow, domain.RiskMedium, domain.RiskHigh:
	default:
		return apperr.Validation("Risk level must be LOW, MEDIUM or HIGH")
	}
	if in.MinInvestment.IsNegative() {
		return apperr.Validation("Minimum investment cannot be negative")
	}
	return nil
}

func (in BotInput) apply(b *models.TradingBot) {
	b.Name = strings.TrimSpace(in.Name)
	b.Description = in.Description
	b.Strategy = in.Strategy
	if in.RiskLevel != "" {
		b.RiskLevel = strings.ToUpper(in.RiskLevel)
	}
	b.MinInvestment = in.MinInvestment
	b.ExpectedMonthlyReturn = in.ExpectedMonthlyReturn
	if in.IsActive != nil {
		b.IsActive = *in.IsActive
	}
}

func (s *BotService) CreateBot(ctx context.Context, actor Actor, in BotInput) (*models.TradingBot, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	b := &models.TradingBot{RiskLevel: domain.RiskMedium, IsActive: true}
	in.apply(b)
	if err := s.repo.CreateBot(ctx, b); err != nil {
		return nil, internal(err)
	}
	recordAudit(ctx, s.audit, actor, "bot.create", "trading_bot", b.ID, map[string]interface{}{"name": b.Name})
	return b, nil
}

func (s *BotService) UpdateBot(ctx context.Context, actor Actor, id uint, in BotInput) (*models.TradingBot, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	b, err := s.GetBot(ctx, id)
	if err != nil {
		return nil, err
	}
	in.apply(b)
	if err := s.repo.UpdateBot(ctx, b); err != nil {
		return nil, internal(err)
	}
	recordAudit(ctx, s.audit, actor, "bot.update", "trading_bot", b.ID, nil)
	return b, nil
}

func (s *BotService) DeleteBot(ctx context.Context, actor Actor, id uint) error {
	if err := s.repo.DeleteBot(ctx, id); err != nil {
		return notFoundOr(err, ErrBotNotFound)
	}
	recordAudit(ctx, s.audit, actor, "bot.delete", "trading_bot", id, nil)
	return nil
}
