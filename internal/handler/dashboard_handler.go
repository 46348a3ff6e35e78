package handler

import (
	"coinvest/internal/middleware"
	"coinvest/internal/service"

	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	svc *service.DashboardService
}

func NewDashboardHandler(svc *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{svc: svc}
}

func (h *DashboardHandler) Stats(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, stats)
}

func (h *DashboardHandler) RecentTransactions(c *gin.Context) {
	list, err := h.svc.RecentTransactions(c.Request.Context(), middleware.GetUserID(c), queryInt(c, "limit", 10))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, list)
}

func (h *DashboardHandler) ActiveInvestments(c *gin.Context) {
	list, err := h.svc.ActiveInvestments(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, list)
}
