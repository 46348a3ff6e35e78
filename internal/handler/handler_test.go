package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"coinvest/internal/apperr"
	"coinvest/internal/cache"
	"coinvest/internal/service"
	"coinvest/pkg/market"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func request(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestRespondErrorMapsKinds(t *testing.T) {
	cases := []struct {
		err    error
		status int
		msg    string
	}{
		{apperr.Validation("Amount must be positive"), http.StatusBadRequest, "Amount must be positive"},
		{apperr.NotFound("Transaction not found"), http.StatusNotFound, "Transaction not found"},
		{apperr.Conflict("Insufficient balance"), http.StatusConflict, "Insufficient balance"},
		{apperr.Forbidden("Admin access required"), http.StatusForbidden, "Admin access required"},
		{errors.New("dial tcp: connection refused"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tc := range cases {
		r := gin.New()
		r.GET("/", func(c *gin.Context) { respondError(c, tc.err) })
		w := request(r, http.MethodGet, "/", "")
		assert.Equal(t, tc.status, w.Code)
		assert.Equal(t, tc.msg, decode(t, w)["error"])
	}
}

func TestBindJSONMessages(t *testing.T) {
	type body struct {
		Symbol       string `json:"symbol" binding:"required,max=5"`
		DurationDays int    `json:"duration_days" binding:"min=1"`
	}
	r := gin.New()
	r.POST("/", func(c *gin.Context) {
		var b body
		if bindJSON(c, &b) {
			respondOK(c, b)
		}
	})

	w := request(r, http.MethodPost, "/", `{"duration_days":3}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "symbol is required", decode(t, w)["error"])

	w = request(r, http.MethodPost, "/", `{"symbol":"BTCUSDT","duration_days":3}`)
	assert.Equal(t, "symbol must be at most 5 characters", decode(t, w)["error"])

	w = request(r, http.MethodPost, "/", `{"symbol":"BTC","duration_days":0}`)
	assert.Equal(t, "duration_days must be at least 1", decode(t, w)["error"])

	w = request(r, http.MethodPost, "/", `{"symbol":`)
	assert.Equal(t, "Invalid request body", decode(t, w)["error"])

	w = request(r, http.MethodPost, "/", `{"symbol":"BTC","duration_days":3}`)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestParseIDRejectsZeroAndGarbage(t *testing.T) {
	r := gin.New()
	r.GET("/items/:id", func(c *gin.Context) {
		id, ok := parseID(c, "id")
		if ok {
			respondOK(c, id)
		}
	})
	for _, p := range []string{"/items/0", "/items/abc", "/items/-4"} {
		w := request(r, http.MethodGet, p, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, p)
	}
	w := request(r, http.MethodGet, "/items/42", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 42, decode(t, w)["data"])
}

type stubExchange struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (e *stubExchange) Prices(_ context.Context, symbols []string) ([]market.Price, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	out := make([]market.Price, len(symbols))
	for i, s := range symbols {
		out[i] = market.Price{Symbol: s, Price: decimal.NewFromInt(int64(100 * (i + 1)))}
	}
	return out, nil
}

func (e *stubExchange) Tickers(context.Context, []string) ([]market.Ticker, error) {
	return nil, nil
}

func (e *stubExchange) Klines(_ context.Context, symbol, _ string, limit int) ([]market.Kline, error) {
	return make([]market.Kline, limit), nil
}

type stubAggregator struct{}

func (stubAggregator) Overview(context.Context) (*market.Overview, error) {
	return &market.Overview{ActiveCryptocurrencies: 10000, BTCDominance: 52.1}, nil
}

func (stubAggregator) Trending(context.Context) ([]market.TrendingCoin, error) {
	return []market.TrendingCoin{{ID: "bitcoin", Symbol: "BTC"}}, nil
}

func marketRouter(ex *stubExchange) *gin.Engine {
	svc := service.NewMarketService(ex, stubAggregator{}, cache.NewMemory(64, time.Minute), []string{"BTCUSDT"})
	h := NewMarketHandler(svc)
	r := gin.New()
	r.GET("/markets/prices", h.Prices)
	r.GET("/markets/klines/:symbol", h.Klines)
	r.GET("/markets/overview", h.Overview)
	return r
}

func TestMarketPricesServedFromCache(t *testing.T) {
	ex := &stubExchange{}
	r := marketRouter(ex)

	w := request(r, http.MethodGet, "/markets/prices?symbols=ethusdt,BTCUSDT", "")
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].([]interface{})
	require.Len(t, data, 2)
	assert.Equal(t, "BTCUSDT", data[0].(map[string]interface{})["symbol"])

	w = request(r, http.MethodGet, "/markets/prices?symbols=BTCUSDT,ETHUSDT", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, ex.calls)
}

func TestMarketUpstreamFailure(t *testing.T) {
	r := marketRouter(&stubExchange{err: errors.New("binance: 503")})
	w := request(r, http.MethodGet, "/markets/prices", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Market data unavailable", decode(t, w)["error"])
}

func TestMarketKlinesValidation(t *testing.T) {
	r := marketRouter(&stubExchange{})
	w := request(r, http.MethodGet, "/markets/klines/btcusdt?interval=7m", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = request(r, http.MethodGet, "/markets/klines/btcusdt?interval=4h&limit=3", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["data"], 3)
}

func TestMarketOverview(t *testing.T) {
	w := request(marketRouter(&stubExchange{}), http.MethodGet, "/markets/overview", "")
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]interface{})
	assert.EqualValues(t, 10000, data["active_cryptocurrencies"])
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	h := NewWebhookHandler(nil, "whsec")
	r := gin.New()
	r.POST("/webhooks/swapuzi", h.Swapuzi)

	body := `{"merchant_deposit_id":"DEP-1","status":"completed"}`
	req := httptest.NewRequest(http.MethodPost, "/webhooks/swapuzi", strings.NewReader(body))
	req.Header.Set("X-Webhook-Signature", "deadbeef")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWebhookRejectsMalformedBody(t *testing.T) {
	h := NewWebhookHandler(nil, "")
	r := gin.New()
	r.POST("/webhooks/swapuzi", h.Swapuzi)

	w := request(r, http.MethodPost, "/webhooks/swapuzi", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = request(r, http.MethodPost, "/webhooks/swapuzi", `{"status":"completed"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "reference required", decode(t, w)["error"])
}

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"merchant_deposit_id":"DEP-1"}`)
	mac := hmac.New(sha256.New, []byte("whsec"))
	mac.Write(body)
	sig := hex.EncodeToString(mac.Sum(nil))

	assert.True(t, verifySignature("whsec", body, sig))
	assert.False(t, verifySignature("other", body, sig))
	assert.False(t, verifySignature("whsec", body, ""))
}

func newPingDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	db, err := gorm.Open(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), &gorm.Config{
		DisableAutomaticPing: true,
		Logger:               logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestHealth(t *testing.T) {
	db, mock := newPingDB(t)
	r := gin.New()
	r.GET("/health", NewHealthHandler(db).Health)

	mock.ExpectPing()
	w := request(r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])

	mock.ExpectPing().WillReturnError(errors.New("gone"))
	w = request(r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
