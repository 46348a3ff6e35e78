package market

import (
	"context"

	"github.com/adshao/go-binance/v2"
	"github.com/pkg/errors"
)

// Binance reads public spot market data. API keys are optional for these endpoints.
type Binance struct {
	client *binance.Client
}

func NewBinance(apiKey, secretKey string) *Binance {
	return &Binance{client: binance.NewClient(apiKey, secretKey)}
}

// WithBaseURL points the client at another host (testnet or a test server).
func (b *Binance) WithBaseURL(url string) *Binance {
	b.client.BaseURL = url
	return b
}

func (b *Binance) Prices(ctx context.Context, symbols []string) ([]Price, error) {
	svc := b.client.NewListPricesService()
	if len(symbols) > 0 {
		svc = svc.Symbols(symbols)
	}
	res, err := svc.Do(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "binance prices")
	}
	out := make([]Price, 0, len(res))
	for _, p := range res {
		out = append(out, Price{Symbol: p.Symbol, Price: parseDecimal(p.Price)})
	}
	return out, nil
}

func (b *Binance) Tickers(ctx context.Context, symbols []string) ([]Ticker, error) {
	svc := b.client.NewListPriceChangeStatsService()
	if len(symbols) > 0 {
		svc = svc.Symbols(symbols)
	}
	res, err := svc.Do(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "binance 24h tickers")
	}
	out := make([]Ticker, 0, len(res))
	for _, s := range res {
		out = append(out, Ticker{
			Symbol:             s.Symbol,
			LastPrice:          parseDecimal(s.LastPrice),
			PriceChange:        parseDecimal(s.PriceChange),
			PriceChangePercent: parseDecimal(s.PriceChangePercent),
			HighPrice:          parseDecimal(s.HighPrice),
			LowPrice:           parseDecimal(s.LowPrice),
			Volume:             parseDecimal(s.Volume),
			QuoteVolume:        parseDecimal(s.QuoteVolume),
		})
	}
	return out, nil
}

func (b *Binance) Klines(ctx context.Context, symbol, interval string, limit int) ([]Kline, error) {
	res, err := b.client.NewKlinesService().Symbol(symbol).Interval(interval).Limit(limit).Do(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "binance klines %s", symbol)
	}
	out := make([]Kline, 0, len(res))
	for _, k := range res {
		out = append(out, Kline{
			OpenTime:  k.OpenTime,
			Open:      parseDecimal(k.Open),
			High:      parseDecimal(k.High),
			Low:       parseDecimal(k.Low),
			Close:     parseDecimal(k.Close),
			Volume:    parseDecimal(k.Volume),
			CloseTime: k.CloseTime,
		})
	}
	return out, nil
}
