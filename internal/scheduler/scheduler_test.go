package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"coinvest/internal/metrics"
	"coinvest/pkg/market"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTickers struct {
	err error
}

func (s stubTickers) Tickers(ctx context.Context, symbols []string) ([]market.Ticker, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []market.Ticker{{Symbol: "BTCUSDT", LastPrice: decimal.NewFromInt(64000)}}, nil
}

type recordingHub struct {
	got []interface{}
}

func (h *recordingHub) Broadcast(payload interface{}) { h.got = append(h.got, payload) }

func TestMarketTickerBroadcasts(t *testing.T) {
	hub := &recordingHub{}
	require.NoError(t, MarketTicker(stubTickers{}, hub)(context.Background()))
	require.Len(t, hub.got, 1)
	ev := hub.got[0].(TickerEvent)
	assert.Equal(t, "MARKET_TICKER", ev.Type)
	assert.Equal(t, "BTCUSDT", ev.Tickers[0].Symbol)

	err := MarketTicker(stubTickers{err: errors.New("down")}, hub)(context.Background())
	assert.Error(t, err)
	assert.Len(t, hub.got, 1)
}

type purger struct {
	before time.Time
}

func (p *purger) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	p.before = before
	return 3, nil
}

func TestPurgeResetTokensKeepsLastDay(t *testing.T) {
	p := &purger{}
	require.NoError(t, PurgeResetTokens(p)(context.Background()))
	assert.WithinDuration(t, time.Now().Add(-24*time.Hour), p.before, time.Minute)
}

type counter int64

func (c counter) CountMatured(ctx context.Context) (int64, error) { return int64(c), nil }

func TestMaturedInvestmentsSetsGauge(t *testing.T) {
	require.NoError(t, MaturedInvestments(counter(4))(context.Background()))
	assert.Equal(t, 4.0, testutil.ToFloat64(metrics.MaturedInvestmentsPending))
}

func TestAddRejectsBadSpec(t *testing.T) {
	s := New()
	assert.Error(t, s.Add("bad", "every minute", func(context.Context) error { return nil }))
	assert.NoError(t, s.Add("ok", "@every 1h", func(context.Context) error { return nil }))
	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
