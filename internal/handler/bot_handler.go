package handler

import (
	"net/http"
	"time"

	"coinvest/internal/middleware"
	"coinvest/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type BotHandler struct {
	svc *service.BotService
}

func NewBotHandler(svc *service.BotService) *BotHandler {
	return &BotHandler{svc: svc}
}

type BotRequestRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type BotDecisionRequest struct {
	Notes string `json:"notes" binding:"max=1000"`
}

type BotTradeRequest struct {
	Symbol     string           `json:"symbol" binding:"required,max=20"`
	Side       string           `json:"side" binding:"required"`
	EntryPrice decimal.Decimal  `json:"entry_price"`
	ExitPrice  *decimal.Decimal `json:"exit_price"`
	Quantity   decimal.Decimal  `json:"quantity"`
	Profit     decimal.Decimal  `json:"profit"`
	OpenedAt   time.Time        `json:"opened_at"`
	ClosedAt   *time.Time       `json:"closed_at"`
}

type BotConfigRequest struct {
	Name                  string          `json:"name" binding:"required,max=100"`
	Description           string          `json:"description" binding:"max=2000"`
	Strategy              string          `json:"strategy" binding:"max=100"`
	RiskLevel             string          `json:"risk_level"`
	MinInvestment         decimal.Decimal `json:"min_investment"`
	ExpectedMonthlyReturn decimal.Decimal `json:"expected_monthly_return"`
	IsActive              *bool           `json:"is_active"`
}

func (r BotConfigRequest) input() service.BotInput {
	return service.BotInput{
		Name:                  r.Name,
		Description:           r.Description,
		Strategy:              r.Strategy,
		RiskLevel:             r.RiskLevel,
		MinInvestment:         r.MinInvestment,
		ExpectedMonthlyReturn: r.ExpectedMonthlyReturn,
		IsActive:              r.IsActive,
	}
}

func (h *BotHandler) List(c *gin.Context) {
	list, err := h.svc.ListBots(c.Request.Context(), true)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, list)
}

func (h *BotHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	bot, err := h.svc.GetBot(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, bot)
}

func (h *BotHandler) Request(c *gin.Context) {
	botID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req BotRequestRequest
	if !bindJSON(c, &req) {
		return
	}
	r, err := h.svc.Request(c.Request.Context(), middleware.GetUserID(c), botID, req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusCreated, r, "Bot request submitted")
}

func (h *BotHandler) MyRequests(c *gin.Context) {
	page, limit := pagination(c)
	out, err := h.svc.ListRequests(c.Request.Context(), middleware.GetUserID(c), c.Query("status"), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, out)
}

func (h *BotHandler) MyTrades(c *gin.Context) {
	page, limit := pagination(c)
	out, err := h.svc.ListTrades(c.Request.Context(), middleware.GetUserID(c), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, out)
}

func (h *BotHandler) Stop(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	r, err := h.svc.Stop(c.Request.Context(), middleware.GetUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, r, "Bot stopped")
}

func (h *BotHandler) AdminList(c *gin.Context) {
	list, err := h.svc.ListBots(c.Request.Context(), false)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, list)
}

func (h *BotHandler) AdminRequests(c *gin.Context) {
	page, limit := pagination(c)
	out, err := h.svc.ListRequests(c.Request.Context(), queryUint(c, "user_id"), c.Query("status"), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, out)
}

func (h *BotHandler) Approve(c *gin.Context) { h.decide(c, true) }

func (h *BotHandler) Reject(c *gin.Context) { h.decide(c, false) }

// decide accepts an empty body; notes are optional.
func (h *BotHandler) decide(c *gin.Context, approve bool) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req BotDecisionRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	r, err := h.svc.Decide(c.Request.Context(), actorFrom(c), id, approve, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, r)
}

func (h *BotHandler) RecordTrade(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req BotTradeRequest
	if !bindJSON(c, &req) {
		return
	}
	trade, err := h.svc.RecordTrade(c.Request.Context(), actorFrom(c), id, service.TradeInput{
		Symbol:     req.Symbol,
		Side:       req.Side,
		EntryPrice: req.EntryPrice,
		ExitPrice:  req.ExitPrice,
		Quantity:   req.Quantity,
		Profit:     req.Profit,
		OpenedAt:   req.OpenedAt,
		ClosedAt:   req.ClosedAt,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, trade)
}

func (h *BotHandler) Create(c *gin.Context) {
	var req BotConfigRequest
	if !bindJSON(c, &req) {
		return
	}
	bot, err := h.svc.CreateBot(c.Request.Context(), actorFrom(c), req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, bot)
}

func (h *BotHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req BotConfigRequest
	if !bindJSON(c, &req) {
		return
	}
	bot, err := h.svc.UpdateBot(c.Request.Context(), actorFrom(c), id, req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, bot)
}

func (h *BotHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteBot(c.Request.Context(), actorFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, nil, "Bot deleted")
}
