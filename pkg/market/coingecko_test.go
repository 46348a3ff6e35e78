package market

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGeckoServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/global":
			_, _ = w.Write([]byte(`{"data":{"active_cryptocurrencies":12000,"markets":900,
				"total_market_cap":{"usd":2500000000000.5},"total_volume":{"usd":90000000000},
				"market_cap_percentage":{"btc":52.1,"eth":16.4},
				"market_cap_change_percentage_24h_usd":-1.25,"updated_at":1700000000}}`))
		case "/search/trending":
			_, _ = w.Write([]byte(`{"coins":[
				{"item":{"id":"pepe","name":"Pepe","symbol":"PEPE","market_cap_rank":30,"thumb":"t1","price_btc":0.0000001}},
				{"item":{"id":"solana","name":"Solana","symbol":"SOL","market_cap_rank":5,"thumb":"t2","price_btc":0.002}}]}`))
		default:
			w.WriteHeader(http.StatusTooManyRequests)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCoinGeckoOverview(t *testing.T) {
	g := NewCoinGecko(newGeckoServer(t).URL)

	o, err := g.Overview(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(12000), o.ActiveCryptocurrencies)
	assert.Equal(t, 2500000000000.5, o.TotalMarketCapUSD)
	assert.Equal(t, 52.1, o.BTCDominance)
	assert.Equal(t, -1.25, o.MarketCapChange24h)
}

func TestCoinGeckoTrending(t *testing.T) {
	g := NewCoinGecko(newGeckoServer(t).URL)

	coins, err := g.Trending(context.Background())

	require.NoError(t, err)
	require.Len(t, coins, 2)
	assert.Equal(t, "pepe", coins[0].ID)
	assert.Equal(t, "SOL", coins[1].Symbol)
	assert.Equal(t, int64(5), coins[1].MarketCapRank)
}

func TestCoinGeckoUpstreamError(t *testing.T) {
	g := NewCoinGecko(newGeckoServer(t).URL + "/missing")

	_, err := g.Overview(context.Background())

	assert.Error(t, err)
}
