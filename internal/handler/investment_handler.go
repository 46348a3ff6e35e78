package handler

import (
	"net/http"

	"coinvest/internal/middleware"
	"coinvest/internal/repository"
	"coinvest/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type InvestmentHandler struct {
	svc *service.InvestmentService
}

func NewInvestmentHandler(svc *service.InvestmentService) *InvestmentHandler {
	return &InvestmentHandler{svc: svc}
}

type CreateInvestmentRequest struct {
	PlanID uint            `json:"plan_id" binding:"required"`
	Amount decimal.Decimal `json:"amount"`
}

// Plans lists active plans to users.
func (h *InvestmentHandler) Plans(c *gin.Context) {
	plans, err := h.svc.ListPlans(c.Request.Context(), true)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, plans)
}

func (h *InvestmentHandler) Create(c *gin.Context) {
	var req CreateInvestmentRequest
	if !bindJSON(c, &req) {
		return
	}
	inv, err := h.svc.Create(c.Request.Context(), middleware.GetUserID(c), req.PlanID, req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusCreated, inv, "Investment created")
}

func (h *InvestmentHandler) List(c *gin.Context) {
	page, limit := pagination(c)
	out, err := h.svc.List(c.Request.Context(), repository.InvestmentFilter{
		UserID: middleware.GetUserID(c),
		Status: c.Query("status"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, out)
}

func (h *InvestmentHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	inv, err := h.svc.Get(c.Request.Context(), middleware.GetUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, inv)
}
