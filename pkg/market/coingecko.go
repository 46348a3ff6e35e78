package market

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
)

// CoinGecko reads the public /global and /search/trending endpoints.
type CoinGecko struct {
	baseURL string
	client  *http.Client
}

func NewCoinGecko(baseURL string) *CoinGecko {
	if baseURL == "" {
		baseURL = "https://api.coingecko.com/api/v3"
	}
	return &CoinGecko{baseURL: baseURL, client: &http.Client{Timeout: 15 * time.Second}}
}

func (g *CoinGecko) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("coingecko %s: %d %s", path, resp.StatusCode, string(body))
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("coingecko %s: invalid json", path)
	}
	return body, nil
}

func (g *CoinGecko) Overview(ctx context.Context) (*Overview, error) {
	body, err := g.get(ctx, "/global")
	if err != nil {
		return nil, err
	}
	data := gjson.GetBytes(body, "data")
	return &Overview{
		ActiveCryptocurrencies: data.Get("active_cryptocurrencies").Int(),
		Markets:                data.Get("markets").Int(),
		TotalMarketCapUSD:      data.Get("total_market_cap.usd").Float(),
		TotalVolumeUSD:         data.Get("total_volume.usd").Float(),
		MarketCapChange24h:     data.Get("market_cap_change_percentage_24h_usd").Float(),
		BTCDominance:           data.Get("market_cap_percentage.btc").Float(),
		ETHDominance:           data.Get("market_cap_percentage.eth").Float(),
		UpdatedAt:              data.Get("updated_at").Int(),
	}, nil
}

func (g *CoinGecko) Trending(ctx context.Context) ([]TrendingCoin, error) {
	body, err := g.get(ctx, "/search/trending")
	if err != nil {
		return nil, err
	}
	var out []TrendingCoin
	gjson.GetBytes(body, "coins.#.item").ForEach(func(_, item gjson.Result) bool {
		out = append(out, TrendingCoin{
			ID:            item.Get("id").String(),
			Name:          item.Get("name").String(),
			Symbol:        item.Get("symbol").String(),
			MarketCapRank: item.Get("market_cap_rank").Int(),
			Thumb:         item.Get("thumb").String(),
			PriceBTC:      item.Get("price_btc").Float(),
		})
		return true
	})
	return out, nil
}
