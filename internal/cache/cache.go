// Package cache stores upstream market-data responses for a fixed TTL.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"coinvest/internal/metrics"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache: miss")

// Cache is a byte-oriented TTL store. Values written with Set replace earlier ones.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Key builds a stable key from an endpoint name and its parameters.
func Key(endpoint string, params map[string]string) string {
	if len(params) == 0 {
		return endpoint
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(endpoint)
	for _, k := range keys {
		b.WriteByte('|')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(params[k])
	}
	return b.String()
}

// Fetch returns the cached JSON value for key, or calls load, stores its result and returns it.
func Fetch[T any](ctx context.Context, c Cache, key string, load func(context.Context) (T, error)) (T, error) {
	var out T
	if raw, err := c.Get(ctx, key); err == nil {
		if jsonErr := json.Unmarshal(raw, &out); jsonErr == nil {
			metrics.CacheLookups.WithLabelValues("hit").Inc()
			return out, nil
		}
	}
	metrics.CacheLookups.WithLabelValues("miss").Inc()

	out, err := load(ctx)
	if err != nil {
		return out, err
	}
	if raw, err := json.Marshal(out); err == nil {
		_ = c.Set(ctx, key, raw)
	}
	return out, nil
}

// DefaultTTL is used when the configured TTL is not positive.
const DefaultTTL = 5 * time.Minute
