package handler

import (
	"net/http"

	"coinvest/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const maxQRImageSize = 2 << 20

type PaymentMethodHandler struct {
	svc *service.PaymentMethodService
}

func NewPaymentMethodHandler(svc *service.PaymentMethodService) *PaymentMethodHandler {
	return &PaymentMethodHandler{svc: svc}
}

type PaymentMethodRequest struct {
	Name      string          `json:"name" binding:"required,max=100"`
	Type      string          `json:"type" binding:"max=50"`
	Currency  string          `json:"currency" binding:"required,max=20"`
	Network   string          `json:"network" binding:"max=50"`
	Address   string          `json:"address" binding:"max=255"`
	Details   string          `json:"details" binding:"max=2000"`
	MinAmount decimal.Decimal `json:"min_amount"`
	MaxAmount decimal.Decimal `json:"max_amount"`
	IsActive  *bool           `json:"is_active"`
}

func (r PaymentMethodRequest) input() service.PaymentMethodInput {
	return service.PaymentMethodInput{
		Name:      r.Name,
		Type:      r.Type,
		Currency:  r.Currency,
		Network:   r.Network,
		Address:   r.Address,
		Details:   r.Details,
		MinAmount: r.MinAmount,
		MaxAmount: r.MaxAmount,
		IsActive:  r.IsActive,
	}
}

// List returns the active methods.
func (h *PaymentMethodHandler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context(), true)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, list)
}

// AdminList includes inactive methods with ?all=true.
func (h *PaymentMethodHandler) AdminList(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context(), c.Query("all") != "true")
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, list)
}

func (h *PaymentMethodHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	m, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, m)
}

// QRCode renders the deposit address as a PNG.
func (h *PaymentMethodHandler) QRCode(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	png, err := h.svc.QRCode(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Cache-Control", "public, max-age=300")
	c.Data(http.StatusOK, "image/png", png)
}

func (h *PaymentMethodHandler) Create(c *gin.Context) {
	var req PaymentMethodRequest
	if !bindJSON(c, &req) {
		return
	}
	m, err := h.svc.Create(c.Request.Context(), actorFrom(c), req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, m)
}

func (h *PaymentMethodHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req PaymentMethodRequest
	if !bindJSON(c, &req) {
		return
	}
	m, err := h.svc.Update(c.Request.Context(), actorFrom(c), id, req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, m)
}

func (h *PaymentMethodHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), actorFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, nil, "Payment method deleted")
}

// UploadQRImage replaces the generated QR with an uploaded image (multipart field "file").
func (h *PaymentMethodHandler) UploadQRImage(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "file is required")
		return
	}
	if file.Size > maxQRImageSize {
		badRequest(c, "File must be 2MB or smaller")
		return
	}
	f, err := file.Open()
	if err != nil {
		badRequest(c, "Could not read file")
		return
	}
	defer f.Close()
	m, err := h.svc.UploadQRImage(c.Request.Context(), actorFrom(c), id, f)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, m)
}
