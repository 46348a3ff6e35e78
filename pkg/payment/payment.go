package payment

import (
	"context"

	"github.com/shopspring/decimal"
)

// DepositRequest asks a gateway to open a payment page for a pending deposit.
type DepositRequest struct {
	Reference  string // our transaction reference; echoed back in callbacks
	Amount     decimal.Decimal
	Currency   string
	WebhookURL string
	Notes      string
}

type DepositResponse struct {
	ProviderRef string
	Status      string
	PageURL     string
	ExpiresAt   string
}

// Gateway is an automatic deposit provider.
type Gateway interface {
	Name() string
	InitiateDeposit(ctx context.Context, req DepositRequest) (*DepositResponse, error)
}

// Callback is a provider-neutral deposit status update.
type Callback struct {
	Event          string
	Reference      string
	ProviderRef    string
	Status         string // completed | expired | failed | cancelled | ...
	ReceivedAmount decimal.Decimal
	ExpectedAmount decimal.Decimal
}

const (
	CallbackCompleted = "completed"
	CallbackExpired   = "expired"
	CallbackFailed    = "failed"
	CallbackCancelled = "cancelled"
)

// IsFailure reports whether the callback status ends the deposit unsuccessfully.
func (c *Callback) IsFailure() bool {
	switch c.Status {
	case CallbackExpired, CallbackFailed, CallbackCancelled:
		return true
	}
	return false
}
