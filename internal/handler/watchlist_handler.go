package handler

import (
	"net/http"

	"coinvest/internal/middleware"
	"coinvest/internal/service"

	"github.com/gin-gonic/gin"
)

type WatchlistHandler struct {
	svc *service.WatchlistService
}

func NewWatchlistHandler(svc *service.WatchlistService) *WatchlistHandler {
	return &WatchlistHandler{svc: svc}
}

type AddWatchlistRequest struct {
	Symbol string `json:"symbol" binding:"required,max=20"`
	Note   string `json:"note" binding:"max=500"`
}

type UpdateWatchlistRequest struct {
	Note string `json:"note" binding:"max=500"`
}

func (h *WatchlistHandler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, list)
}

func (h *WatchlistHandler) Prices(c *gin.Context) {
	list, err := h.svc.Prices(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, list)
}

func (h *WatchlistHandler) Add(c *gin.Context) {
	var req AddWatchlistRequest
	if !bindJSON(c, &req) {
		return
	}
	w, err := h.svc.Add(c.Request.Context(), middleware.GetUserID(c), req.Symbol, req.Note)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, w)
}

func (h *WatchlistHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req UpdateWatchlistRequest
	if !bindJSON(c, &req) {
		return
	}
	w, err := h.svc.UpdateNote(c.Request.Context(), middleware.GetUserID(c), id, req.Note)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, w)
}

func (h *WatchlistHandler) Remove(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Remove(c.Request.Context(), middleware.GetUserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, nil, "Removed from watchlist")
}
