package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"

	"coinvest/internal/logging"
	"coinvest/internal/service"
	"coinvest/pkg/payment"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxWebhookBody = 64 << 10

type WebhookHandler struct {
	txs    *service.TransactionService
	secret string
}

func NewWebhookHandler(txs *service.TransactionService, secret string) *WebhookHandler {
	return &WebhookHandler{txs: txs, secret: secret}
}

// Swapuzi settles gateway deposits. Callbacks for unknown or settled transactions are
// acknowledged so the gateway stops retrying them.
func (h *WebhookHandler) Swapuzi(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		badRequest(c, "invalid body")
		return
	}
	if h.secret != "" && !verifySignature(h.secret, body, c.GetHeader("X-Webhook-Signature")) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}
	cb, err := payment.ParseSwapuziCallback(body)
	if err != nil {
		badRequest(c, "invalid json")
		return
	}
	if cb.Reference == "" {
		badRequest(c, "reference required")
		return
	}
	if err := h.txs.HandleGatewayCallback(c.Request.Context(), cb); err != nil {
		logging.L().Error("swapuzi callback failed", zap.String("reference", cb.Reference), zap.Error(err))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

func verifySignature(secret string, body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
