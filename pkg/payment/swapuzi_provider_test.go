package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSwapuziInitiateDeposit(t *testing.T) {
	var got swapuziDepositReq
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/merchants/login":
			_, _ = w.Write([]byte(`{"token":"tkn"}`))
		case "/merchants/solana/deposit/initiate":
			assert.Equal(t, "Bearer tkn", r.Header.Get("Authorization"))
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"deposit_id":991,"status":"pending","page_url":"https://pay.example/991","expires_at":"2030-01-01T00:00:00Z"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	p := NewSwapuziProvider(srv.URL, "m@example.com", "secret", nil)
	resp, err := p.InitiateDeposit(context.Background(), DepositRequest{
		Reference:  "DEP-1",
		Amount:     decimal.RequireFromString("125.5"),
		WebhookURL: "https://api.example/api/webhooks/swapuzi",
	})

	require.NoError(t, err)
	assert.Equal(t, "991", resp.ProviderRef)
	assert.Equal(t, "https://pay.example/991", resp.PageURL)
	assert.Equal(t, "DEP-1", got.DepositID)
	assert.Equal(t, 125.5, got.ExpectedAmount)
}

func TestSwapuziLoginFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	p := NewSwapuziProvider(srv.URL, "m@example.com", "wrong", nil)
	_, err := p.InitiateDeposit(context.Background(), DepositRequest{Reference: "DEP-2", Amount: decimal.NewFromInt(10)})
	assert.Error(t, err)
}

func TestParseSwapuziCallback(t *testing.T) {
	cb, err := ParseSwapuziCallback([]byte(`{"event":"deposit.completed","merchant_deposit_id":"DEP-1","deposit_id":991,"status":"completed","received_amount":125.5,"expected_amount":125.5}`))
	require.NoError(t, err)
	assert.Equal(t, "DEP-1", cb.Reference)
	assert.Equal(t, "991", cb.ProviderRef)
	assert.Equal(t, CallbackCompleted, cb.Status)
	assert.False(t, cb.IsFailure())
	assert.True(t, cb.ReceivedAmount.Equal(decimal.RequireFromString("125.5")))

	cb, err = ParseSwapuziCallback([]byte(`{"merchant_deposit_id":"DEP-2","status":"expired"}`))
	require.NoError(t, err)
	assert.True(t, cb.IsFailure())

	_, err = ParseSwapuziCallback([]byte(`not json`))
	assert.Error(t, err)
}
