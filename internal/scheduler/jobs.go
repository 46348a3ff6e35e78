package scheduler

import (
	"context"
	"time"

	"coinvest/internal/domain"
	"coinvest/internal/logging"
	"coinvest/internal/metrics"
	"coinvest/pkg/market"

	"go.uber.org/zap"
)

type tickerSource interface {
	Tickers(ctx context.Context, symbols []string) ([]market.Ticker, error)
}

type broadcaster interface {
	Broadcast(payload interface{})
}

// TickerEvent is the websocket payload pushed to every connected client.
type TickerEvent struct {
	Type    string          `json:"type"`
	Tickers []market.Ticker `json:"tickers"`
	At      time.Time       `json:"at"`
}

// MarketTicker broadcasts the default symbols' 24h tickers. Lookups go through the market cache,
// so clients never trigger more upstream calls than the cache TTL allows.
func MarketTicker(markets tickerSource, hub broadcaster) Job {
	return func(ctx context.Context) error {
		tickers, err := markets.Tickers(ctx, nil)
		if err != nil {
			return err
		}
		hub.Broadcast(TickerEvent{Type: domain.NotifyMarketTicker, Tickers: tickers, At: time.Now().UTC()})
		return nil
	}
}

type resetPurger interface {
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}

// PurgeResetTokens deletes password-reset tokens that expired more than a day ago.
func PurgeResetTokens(store resetPurger) Job {
	return func(ctx context.Context) error {
		n, err := store.PurgeExpired(ctx, time.Now().Add(-24*time.Hour))
		if err != nil {
			return err
		}
		if n > 0 {
			logging.Named("scheduler").Info("purged reset tokens", zap.Int64("count", n))
		}
		return nil
	}
}

type maturityCounter interface {
	CountMatured(ctx context.Context) (int64, error)
}

// MaturedInvestments publishes how many ACTIVE investments are past their end date. Payout stays
// manual; the gauge is for alerting.
func MaturedInvestments(investments maturityCounter) Job {
	return func(ctx context.Context) error {
		n, err := investments.CountMatured(ctx)
		if err != nil {
			return err
		}
		metrics.MaturedInvestmentsPending.Set(float64(n))
		return nil
	}
}
