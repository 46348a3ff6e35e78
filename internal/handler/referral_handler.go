package handler

import (
	"coinvest/internal/middleware"
	"coinvest/internal/service"

	"github.com/gin-gonic/gin"
)

type ReferralHandler struct {
	svc *service.ReferralService
}

func NewReferralHandler(svc *service.ReferralService) *ReferralHandler {
	return &ReferralHandler{svc: svc}
}

// List returns the users the caller referred.
func (h *ReferralHandler) List(c *gin.Context) {
	page, limit := pagination(c)
	list, err := h.svc.List(c.Request.Context(), middleware.GetUserID(c), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, list)
}

func (h *ReferralHandler) Stats(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, stats)
}

func (h *ReferralHandler) AdminList(c *gin.Context) {
	page, limit := pagination(c)
	out, err := h.svc.ListAll(c.Request.Context(), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, out)
}
