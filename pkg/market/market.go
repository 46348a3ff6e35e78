// Package market fetches prices and market statistics from Binance and CoinGecko.
package market

import (
	"context"

	"github.com/shopspring/decimal"
)

type Price struct {
	Symbol string          `json:"symbol"`
	Price  decimal.Decimal `json:"price"`
}

// Ticker is a 24h rolling window summary.
type Ticker struct {
	Symbol             string          `json:"symbol"`
	LastPrice          decimal.Decimal `json:"last_price"`
	PriceChange        decimal.Decimal `json:"price_change"`
	PriceChangePercent decimal.Decimal `json:"price_change_percent"`
	HighPrice          decimal.Decimal `json:"high_price"`
	LowPrice           decimal.Decimal `json:"low_price"`
	Volume             decimal.Decimal `json:"volume"`
	QuoteVolume        decimal.Decimal `json:"quote_volume"`
}

type Kline struct {
	OpenTime  int64           `json:"open_time"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	Volume    decimal.Decimal `json:"volume"`
	CloseTime int64           `json:"close_time"`
}

type Overview struct {
	ActiveCryptocurrencies int64   `json:"active_cryptocurrencies"`
	Markets                int64   `json:"markets"`
	TotalMarketCapUSD      float64 `json:"total_market_cap_usd"`
	TotalVolumeUSD         float64 `json:"total_volume_usd"`
	MarketCapChange24h     float64 `json:"market_cap_change_percentage_24h"`
	BTCDominance           float64 `json:"btc_dominance"`
	ETHDominance           float64 `json:"eth_dominance"`
	UpdatedAt              int64   `json:"updated_at"`
}

type TrendingCoin struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Symbol        string  `json:"symbol"`
	MarketCapRank int64   `json:"market_cap_rank"`
	Thumb         string  `json:"thumb"`
	PriceBTC      float64 `json:"price_btc"`
}

// Exchange serves symbol-level data.
type Exchange interface {
	Prices(ctx context.Context, symbols []string) ([]Price, error)
	Tickers(ctx context.Context, symbols []string) ([]Ticker, error)
	Klines(ctx context.Context, symbol, interval string, limit int) ([]Kline, error)
}

// Aggregator serves market-wide data.
type Aggregator interface {
	Overview(ctx context.Context) (*Overview, error)
	Trending(ctx context.Context) ([]TrendingCoin, error)
}

// parseDecimal tolerates empty or malformed upstream strings.
func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
