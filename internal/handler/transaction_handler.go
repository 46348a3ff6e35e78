package handler

import (
	"net/http"

	"coinvest/internal/middleware"
	"coinvest/internal/repository"
	"coinvest/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const maxProofSize = 5 << 20

type TransactionHandler struct {
	svc *service.TransactionService
}

func NewTransactionHandler(svc *service.TransactionService) *TransactionHandler {
	return &TransactionHandler{svc: svc}
}

type DepositRequest struct {
	Amount          decimal.Decimal `json:"amount"`
	PaymentMethodID *uint           `json:"payment_method_id"`
	TxHash          string          `json:"tx_hash" binding:"max=255"`
	ProofURL        string          `json:"proof_url" binding:"omitempty,url"`
	Notes           string          `json:"notes" binding:"max=1000"`
}

type GatewayDepositRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type WithdrawalRequest struct {
	Amount          decimal.Decimal `json:"amount"`
	WalletAddress   string          `json:"wallet_address" binding:"max=255"`
	PaymentMethodID *uint           `json:"payment_method_id"`
	Notes           string          `json:"notes" binding:"max=1000"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Notes  string `json:"notes" binding:"max=1000"`
}

func (h *TransactionHandler) Deposit(c *gin.Context) {
	var req DepositRequest
	if !bindJSON(c, &req) {
		return
	}
	t, err := h.svc.CreateDeposit(c.Request.Context(), middleware.GetUserID(c), service.DepositInput{
		Amount:          req.Amount,
		PaymentMethodID: req.PaymentMethodID,
		TxHash:          req.TxHash,
		ProofURL:        req.ProofURL,
		Notes:           req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusCreated, t, "Deposit request submitted")
}

// GatewayDeposit starts an automatic USDT deposit and returns the payment URL.
func (h *TransactionHandler) GatewayDeposit(c *gin.Context) {
	var req GatewayDepositRequest
	if !bindJSON(c, &req) {
		return
	}
	t, err := h.svc.InitiateGatewayDeposit(c.Request.Context(), middleware.GetUserID(c), req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusCreated, t, "Complete the payment to credit your balance")
}

// UploadProof stores a deposit screenshot (multipart field "file") and returns its URL for
// the deposit request.
func (h *TransactionHandler) UploadProof(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "file is required")
		return
	}
	if file.Size > maxProofSize {
		badRequest(c, "File must be 5MB or smaller")
		return
	}
	f, err := file.Open()
	if err != nil {
		badRequest(c, "Could not read file")
		return
	}
	defer f.Close()
	url, err := h.svc.UploadProof(c.Request.Context(), middleware.GetUserID(c), f)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, gin.H{"url": url})
}

func (h *TransactionHandler) Withdraw(c *gin.Context) {
	var req WithdrawalRequest
	if !bindJSON(c, &req) {
		return
	}
	t, err := h.svc.CreateWithdrawal(c.Request.Context(), middleware.GetUserID(c), service.WithdrawalInput{
		Amount:          req.Amount,
		WalletAddress:   req.WalletAddress,
		PaymentMethodID: req.PaymentMethodID,
		Notes:           req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusCreated, t, "Withdrawal request submitted")
}

func (h *TransactionHandler) List(c *gin.Context) {
	page, limit := pagination(c)
	out, err := h.svc.List(c.Request.Context(), repository.TransactionFilter{
		UserID: middleware.GetUserID(c),
		Type:   c.Query("type"),
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

func (h *TransactionHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	t, err := h.svc.Get(c.Request.Context(), middleware.GetUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, t)
}

func (h *TransactionHandler) Cancel(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	t, err := h.svc.Cancel(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, t, "Transaction cancelled")
}

// AdminList lists every user's transactions; ?user_id= narrows to one user.
func (h *TransactionHandler) AdminList(c *gin.Context) {
	page, limit := pagination(c)
	out, err := h.svc.List(c.Request.Context(), repository.TransactionFilter{
		UserID: queryUint(c, "user_id"),
		Type:   c.Query("type"),
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

func (h *TransactionHandler) AdminGet(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	t, err := h.svc.AdminGet(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, t)
}

// UpdateStatus settles a transaction. Completing a deposit credits the user; completing a
// withdrawal debits them.
func (h *TransactionHandler) UpdateStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req UpdateStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	t, err := h.svc.UpdateStatus(c.Request.Context(), actorFrom(c), id, req.Status, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, t, "Transaction status updated")
}
