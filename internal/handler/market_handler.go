package handler

import (
	"coinvest/internal/service"

	"github.com/gin-gonic/gin"
)

// MarketHandler is public; responses are served from the market cache.
type MarketHandler struct {
	svc *service.MarketService
}

func NewMarketHandler(svc *service.MarketService) *MarketHandler {
	return &MarketHandler{svc: svc}
}

// Prices reads ?symbols=BTCUSDT,ETHUSDT and falls back to the configured defaults.
func (h *MarketHandler) Prices(c *gin.Context) {
	prices, err := h.svc.Prices(c.Request.Context(), service.ParseSymbols(c.Query("symbols")))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, prices)
}

func (h *MarketHandler) Tickers(c *gin.Context) {
	tickers, err := h.svc.Tickers(c.Request.Context(), service.ParseSymbols(c.Query("symbols")))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, tickers)
}

func (h *MarketHandler) Klines(c *gin.Context) {
	klines, err := h.svc.Klines(c.Request.Context(), c.Param("symbol"), c.Query("interval"), queryInt(c, "limit", 0))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, klines)
}

func (h *MarketHandler) Overview(c *gin.Context) {
	overview, err := h.svc.Overview(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, overview)
}

func (h *MarketHandler) Trending(c *gin.Context) {
	coins, err := h.svc.Trending(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, coins)
}
