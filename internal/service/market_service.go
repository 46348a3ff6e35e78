package service

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"coinvest/internal/apperr"
	"coinvest/internal/cache"
	"coinvest/pkg/market"
)

var klineIntervals = map[string]bool{
	"1m": true, "3m": true, "5m": true, "15m": true, "30m": true,
	"1h": true, "2h": true, "4h": true, "6h": true, "8h": true, "12h": true,
	"1d": true, "3d": true, "1w": true, "1M": true,
}

const (
	defaultKlineLimit = 100
	maxKlineLimit     = 1000
	maxSymbols        = 50
)

// MarketService proxies Binance and CoinGecko. Every lookup goes through the cache, keyed by
// endpoint and parameters.
type MarketService struct {
	exchange       market.Exchange
	aggregator     market.Aggregator
	cache          cache.Cache
	defaultSymbols []string
}

func NewMarketService(exchange market.Exchange, aggregator market.Aggregator, c cache.Cache, defaultSymbols []string) *MarketService {
	return &MarketService{exchange: exchange, aggregator: aggregator, cache: c, defaultSymbols: defaultSymbols}
}

// ParseSymbols splits a comma separated query value into upper-case, de-duplicated, sorted symbols.
func ParseSymbols(raw string) []string {
	seen := map[string]bool{}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		sym := strings.ToUpper(strings.TrimSpace(part))
		if sym == "" || seen[sym] {
			continue
		}
		seen[sym] = true
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

func (s *MarketService) symbols(in []string) ([]string, error) {
	if len(in) == 0 {
		in = ParseSymbols(strings.Join(s.defaultSymbols, ","))
	}
	if len(in) > maxSymbols {
		return nil, apperr.Validationf("At most %d symbols per request", maxSymbols)
	}
	return in, nil
}

func upstreamError(err error) error {
	return apperr.Wrap(apperr.KindInternal, "Market data unavailable", err)
}

func (s *MarketService) Prices(ctx context.Context, symbols []string) ([]market.Price, error) {
	symbols, err := s.symbols(symbols)
	if err != nil {
		return nil, err
	}
	key := cache.Key("prices", map[string]string{"symbols": strings.Join(symbols, ",")})
	out, err := cache.Fetch(ctx, s.cache, key, func(ctx context.Context) ([]market.Price, error) {
		return s.exchange.Prices(ctx, symbols)
	})
	if err != nil {
		return nil, upstreamError(err)
	}
	return out, nil
}

func (s *MarketService) Tickers(ctx context.Context, symbols []string) ([]market.Ticker, error) {
	symbols, err := s.symbols(symbols)
	if err != nil {
		return nil, err
	}
	key := cache.Key("tickers", map[string]string{"symbols": strings.Join(symbols, ",")})
	out, err := cache.Fetch(ctx, s.cache, key, func(ctx context.Context) ([]market.Ticker, error) {
		return s.exchange.Tickers(ctx, symbols)
	})
	if err != nil {
		return nil, upstreamError(err)
	}
	return out, nil
}

func (s *MarketService) Klines(ctx context.Context, symbol, interval string, limit int) ([]market.Kline, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, apperr.Validation("Symbol is required")
	}
	if interval == "" {
		interval = "1h"
	}
	if !klineIntervals[interval] {
		return nil, apperr.Validation("Invalid interval")
	}
	if limit == 0 {
		limit = defaultKlineLimit
	}
	if limit < 1 || limit > maxKlineLimit {
		return nil, apperr.Validationf("Limit must be between 1 and %d", maxKlineLimit)
	}
	key := cache.Key("klines", map[string]string{"symbol": symbol, "interval": interval, "limit": strconv.Itoa(limit)})
	out, err := cache.Fetch(ctx, s.cache, key, func(ctx context.Context) ([]market.Kline, error) {
		return s.exchange.Klines(ctx, symbol, interval, limit)
	})
	if err != nil {
		return nil, upstreamError(err)
	}
	return out, nil
}

func (s *MarketService) Overview(ctx context.Context) (*market.Overview, error) {
	out, err := cache.Fetch(ctx, s.cache, cache.Key("overview", nil), s.aggregator.Overview)
	if err != nil {
		return nil, upstreamError(err)
	}
	return out, nil
}

func (s *MarketService) Trending(ctx context.Context) ([]market.TrendingCoin, error) {
	out, err := cache.Fetch(ctx, s.cache, cache.Key("trending", nil), s.aggregator.Trending)
	if err != nil {
		return nil, upstreamError(err)
	}
	return out, nil
}
