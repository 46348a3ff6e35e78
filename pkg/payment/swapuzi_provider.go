package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// SwapuziProvider handles Solana/USDT deposits via the Swapuzi merchant API.
type SwapuziProvider struct {
	BaseURL  string
	Email    string
	Password string
	client   *http.Client
	log      *zap.Logger
}

func NewSwapuziProvider(baseURL, email, password string, log *zap.Logger) *SwapuziProvider {
	if baseURL == "" {
		baseURL = "https://api.swapuzi.com"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &SwapuziProvider{
		BaseURL:  baseURL,
		Email:    email,
		Password: password,
		client:   &http.Client{Timeout: 30 * time.Second},
		log:      log,
	}
}

func (p *SwapuziProvider) Name() string { return "SWAPUZI" }

type swapuziLoginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// getToken authenticates with the Swapuzi merchant API and returns a fresh token.
func (p *SwapuziProvider) getToken(ctx context.Context) (string, error) {
	body, _ := json.Marshal(swapuziLoginReq{Email: p.Email, Password: p.Password})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/merchants/login", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("swapuzi login failed: %d %s", resp.StatusCode, string(respBody))
	}
	token := gjson.GetBytes(respBody, "token").String()
	if token == "" {
		return "", fmt.Errorf("swapuzi: login returned empty token")
	}
	return token, nil
}

type swapuziDepositReq struct {
	ExpectedAmount float64 `json:"expected_amount"`
	WebhookURL     string  `json:"webhook_url"`
	Notes          string  `json:"notes"`
	DepositID      string  `json:"deposit_id"`
}

// InitiateDeposit creates a Solana USDT deposit and returns the page URL for the user.
// req.Reference is stored as merchant_deposit_id at Swapuzi.
func (p *SwapuziProvider) InitiateDeposit(ctx context.Context, req DepositRequest) (*DepositResponse, error) {
	token, err := p.getToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("swapuzi deposit auth: %w", err)
	}
	amount, _ := req.Amount.Float64()
	body, _ := json.Marshal(swapuziDepositReq{
		ExpectedAmount: amount,
		WebhookURL:     req.WebhookURL,
		Notes:          req.Notes,
		DepositID:      req.Reference,
	})
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/merchants/solana/deposit/initiate", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+token)
	p.log.Info("initiating deposit",
		zap.String("reference", req.Reference),
		zap.String("amount", req.Amount.String()),
		zap.String("webhook", req.WebhookURL))
	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("swapuzi deposit: %d %s", resp.StatusCode, string(respBody))
	}
	res := gjson.ParseBytes(respBody)
	return &DepositResponse{
		ProviderRef: res.Get("deposit_id").String(),
		Status:      res.Get("status").String(),
		PageURL:     res.Get("page_url").String(),
		ExpiresAt:   res.Get("expires_at").String(),
	}, nil
}

// ParseSwapuziCallback decodes the webhook body sent by Swapuzi.
func ParseSwapuziCallback(body []byte) (*Callback, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("swapuzi callback: invalid json")
	}
	res := gjson.ParseBytes(body)
	return &Callback{
		Event:          res.Get("event").String(),
		Reference:      res.Get("merchant_deposit_id").String(),
		ProviderRef:    res.Get("deposit_id").String(),
		Status:         res.Get("status").String(),
		ReceivedAmount: decimal.NewFromFloat(res.Get("received_amount").Float()),
		ExpectedAmount: decimal.NewFromFloat(res.Get("expected_amount").Float()),
	}, nil
}
