package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latency of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// SettlementsTotal counts admin status changes by transaction type and resulting status.
	SettlementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transaction_settlements_total",
			Help: "Transaction status changes applied",
		},
		[]string{"type", "status", "balance_applied"},
	)

	TransactionsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transactions_created_total",
			Help: "Deposits and withdrawals requested",
		},
		[]string{"type", "provider"},
	)

	InvestmentsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "investments_created_total",
			Help: "Investments opened",
		},
	)

	MaturedInvestmentsPending = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "investments_matured_pending",
			Help: "ACTIVE investments whose end date has passed",
		},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "market_cache_lookups_total",
			Help: "Market data cache lookups by result",
		},
		[]string{"result"}, // hit|miss
	)

	WebsocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_clients",
			Help: "Connected notification websocket clients",
		},
	)
)

// Handler serves the /metrics endpoint.
var Handler = promhttp.Handler
