package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"coinvest/config"
	"coinvest/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var jwtCfg = &config.JWTConfig{
	AccessSecret:  "test-access",
	RefreshSecret: "test-refresh",
	AccessExpiry:  time.Minute,
	RefreshExpiry: time.Hour,
	Issuer:        "coinvest",
}

func protectedRouter() *gin.Engine {
	r := gin.New()
	r.GET("/me", AuthRequired(jwtCfg), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": GetUserID(c), "role": GetRole(c)})
	})
	r.GET("/admin", AuthRequired(jwtCfg), AdminRequired(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func do(r http.Handler, path, authz string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequiredRejectsBadHeaders(t *testing.T) {
	r := protectedRouter()
	cases := map[string]string{
		"missing":   "",
		"scheme":    "Token abc",
		"empty":     "Bearer ",
		"garbage":   "Bearer not-a-jwt",
		"wrong key": "Bearer " + mustToken(t, &config.JWTConfig{AccessSecret: "other", AccessExpiry: time.Minute}, "USER"),
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			w := do(r, "/me", header)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}
}

func TestAuthRequiredSetsIdentity(t *testing.T) {
	r := protectedRouter()
	w := do(r, "/me", "Bearer "+mustToken(t, jwtCfg, "USER"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":42,"role":"USER"}`, w.Body.String())
}

func TestAdminRequired(t *testing.T) {
	r := protectedRouter()
	assert.Equal(t, http.StatusForbidden, do(r, "/admin", "Bearer "+mustToken(t, jwtCfg, "USER")).Code)
	assert.Equal(t, http.StatusNoContent, do(r, "/admin", "Bearer "+mustToken(t, jwtCfg, "ADMIN")).Code)
}

func mustToken(t *testing.T, cfg *config.JWTConfig, role string) string {
	t.Helper()
	tok, err := auth.GenerateAccessToken(cfg, 42, "u@example.com", role)
	require.NoError(t, err)
	return tok
}

func TestRateLimitPerIP(t *testing.T) {
	limiter := NewIPRateLimiter(1, 2)
	r := gin.New()
	r.Use(RateLimit(limiter))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	hit := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}
	assert.Equal(t, http.StatusOK, hit("10.0.0.1"))
	assert.Equal(t, http.StatusOK, hit("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, hit("10.0.0.1"))
	assert.Equal(t, http.StatusOK, hit("10.0.0.2"))
}

func TestRateLimiterSweepsIdleVisitors(t *testing.T) {
	limiter := NewIPRateLimiter(1, 1)
	limiter.Allow("a")
	limiter.sweep(time.Now().Add(10 * time.Minute))
	assert.Empty(t, limiter.visitors)
}

func TestRequestIDEchoed(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("request_id")) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
	assert.Equal(t, "abc-123", w.Body.String())

	w = do(r, "/", "")
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)
}
