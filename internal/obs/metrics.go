// Package obs exposes Prometheus metrics for the trading engines,
// served at /metrics by cmd/trader.
package obs

import "github.com/prometheus/client_golang/prometheus"

var (
	Decisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "volbreak_decisions_total",
			Help: "Signal decisions per symbol and action",
		},
		[]string{"symbol", "action"},
	)

	Orders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "volbreak_orders_total",
			Help: "Market orders submitted per symbol, side and reduce-only flag",
		},
		[]string{"symbol", "side", "reduce_only"},
	)

	EngineFaults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "volbreak_engine_faults_total",
			Help: "Fatal engine faults per symbol",
		},
		[]string{"symbol"},
	)

	StaleFills = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "volbreak_stale_fills_total",
			Help: "Reconciliations that found no final fill after the fixed delay",
		},
		[]string{"symbol"},
	)

	WindowSize = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "volbreak_window_size",
			Help: "Retained volatility records per symbol",
		},
		[]string{"symbol"},
	)

	StdDev = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "volbreak_std_dev",
			Help: "Rolling sample standard deviation per symbol",
		},
		[]string{"symbol"},
	)

	PriceSlippage = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "volbreak_price_slippage",
			Help:    "Executed minus expected price per reconciled order",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
		},
		[]string{"symbol"},
	)
)

func init() {
	prometheus.MustRegister(Decisions, Orders, EngineFaults, StaleFills)
	prometheus.MustRegister(WindowSize, StdDev, PriceSlippage)
}
