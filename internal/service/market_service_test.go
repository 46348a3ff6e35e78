package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"coinvest/internal/apperr"
	"coinvest/internal/cache"
	"coinvest/pkg/market"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingExchange struct {
	calls   map[string]int
	lastSym []string
	fail    error
}

func newCountingExchange() *countingExchange {
	return &countingExchange{calls: map[string]int{}}
}

func (e *countingExchange) Prices(ctx context.Context, symbols []string) ([]market.Price, error) {
	e.calls["prices"]++
	e.lastSym = symbols
	if e.fail != nil {
		return nil, e.fail
	}
	out := make([]market.Price, len(symbols))
	for i, s := range symbols {
		out[i] = market.Price{Symbol: s, Price: decimal.NewFromInt(int64(100 * (i + 1)))}
	}
	return out, nil
}

func (e *countingExchange) Tickers(ctx context.Context, symbols []string) ([]market.Ticker, error) {
	e.calls["tickers"]++
	return []market.Ticker{{Symbol: symbols[0], LastPrice: decimal.NewFromInt(1)}}, nil
}

func (e *countingExchange) Klines(ctx context.Context, symbol, interval string, limit int) ([]market.Kline, error) {
	e.calls["klines"]++
	return []market.Kline{{OpenTime: 1, Close: decimal.NewFromInt(2)}}, nil
}

func (e *countingExchange) Overview(ctx context.Context) (*market.Overview, error) {
	e.calls["overview"]++
	return &market.Overview{ActiveCryptocurrencies: 10000, BTCDominance: 52.1}, nil
}

func (e *countingExchange) Trending(ctx context.Context) ([]market.TrendingCoin, error) {
	e.calls["trending"]++
	return []market.TrendingCoin{{ID: "bitcoin", Symbol: "BTC"}}, nil
}

func newMarketFixture() (*countingExchange, *MarketService) {
	ex := newCountingExchange()
	return ex, NewMarketService(ex, ex, cache.NewMemory(64, time.Minute), []string{"ethusdt", "BTCUSDT"})
}

func TestParseSymbols(t *testing.T) {
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, ParseSymbols(" ethusdt,BTCUSDT,,btcusdt "))
	assert.Empty(t, ParseSymbols(""))
}

func TestPricesServedFromCache(t *testing.T) {
	ex, svc := newMarketFixture()
	ctx := context.Background()

	first, err := svc.Prices(ctx, []string{"BTCUSDT"})
	require.NoError(t, err)
	second, err := svc.Prices(ctx, []string{"BTCUSDT"})
	require.NoError(t, err)

	assert.Equal(t, 1, ex.calls["prices"])
	require.Len(t, second, 1)
	assert.True(t, first[0].Price.Equal(second[0].Price))

	_, err = svc.Prices(ctx, []string{"ETHUSDT"})
	require.NoError(t, err)
	assert.Equal(t, 2, ex.calls["prices"])
}

func TestPricesDefaultSymbols(t *testing.T) {
	ex, svc := newMarketFixture()
	_, err := svc.Prices(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, ex.lastSym)
}

func TestUpstreamFailureIsNotCached(t *testing.T) {
	ex, svc := newMarketFixture()
	ex.fail = errors.New("binance down")

	_, err := svc.Prices(context.Background(), []string{"BTCUSDT"})
	require.Error(t, err)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
	assert.Equal(t, "Market data unavailable", apperr.Message(err))

	ex.fail = nil
	_, err = svc.Prices(context.Background(), []string{"BTCUSDT"})
	require.NoError(t, err)
	assert.Equal(t, 2, ex.calls["prices"])
}

func TestKlinesValidation(t *testing.T) {
	ex, svc := newMarketFixture()
	ctx := context.Background()

	_, err := svc.Klines(ctx, "BTCUSDT", "7m", 0)
	assert.Equal(t, "Invalid interval", apperr.Message(err))
	_, err = svc.Klines(ctx, "", "1h", 0)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	_, err = svc.Klines(ctx, "BTCUSDT", "1h", 5000)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = svc.Klines(ctx, "btcusdt", "", 0)
	require.NoError(t, err)
	_, err = svc.Klines(ctx, "BTCUSDT", "1h", 100)
	require.NoError(t, err)
	assert.Equal(t, 1, ex.calls["klines"])
}

func TestOverviewAndTrendingCached(t *testing.T) {
	ex, svc := newMarketFixture()
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		o, err := svc.Overview(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(10000), o.ActiveCryptocurrencies)
		_, err = svc.Trending(ctx)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, ex.calls["overview"])
	assert.Equal(t, 1, ex.calls["trending"])
}
