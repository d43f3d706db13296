package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the live engine.
type Metrics struct {
	Ticks            prometheus.Counter
	TickErrors       *prometheus.CounterVec
	SnapshotsWritten prometheus.Counter
	Signals          *prometheus.CounterVec
	TradesOpened     prometheus.Counter
	TradesResolved   *prometheus.CounterVec
	MarketsResolved  prometheus.Counter
	EdgeUp           prometheus.Gauge
	ModelUp          prometheus.Gauge
}

// NewMetrics creates and registers all engine metrics on the default
// registry. Call once per process.
func NewMetrics() *Metrics {
	return newMetrics(prometheus.DefaultRegisterer)
}

func newMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Ticks: f.NewCounter(prometheus.CounterOpts{
			Name: "btc15m_ticks_total",
			Help: "Total engine ticks",
		}),

		TickErrors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "btc15m_tick_errors_total",
			Help: "Tick failures by component",
		}, []string{"component"}),

		SnapshotsWritten: f.NewCounter(prometheus.CounterOpts{
			Name: "btc15m_snapshots_total",
			Help: "Snapshots persisted to the store",
		}),

		Signals: f.NewCounterVec(prometheus.CounterOpts{
			Name: "btc15m_signals_total",
			Help: "Entry signals by side and strength",
		}, []string{"side", "strength"}),

		TradesOpened: f.NewCounter(prometheus.CounterOpts{
			Name: "btc15m_trades_opened_total",
			Help: "Paper trades opened",
		}),

		TradesResolved: f.NewCounterVec(prometheus.CounterOpts{
			Name: "btc15m_trades_resolved_total",
			Help: "Paper trades settled by result",
		}, []string{"result"}),

		MarketsResolved: f.NewCounter(prometheus.CounterOpts{
			Name: "btc15m_markets_resolved_total",
			Help: "Market outcomes recorded",
		}),

		EdgeUp: f.NewGauge(prometheus.GaugeOpts{
			Name: "btc15m_edge_up",
			Help: "Latest model-minus-market edge on the UP side",
		}),

		ModelUp: f.NewGauge(prometheus.GaugeOpts{
			Name: "btc15m_model_up_probability",
			Help: "Latest time-adjusted model UP probability",
		}),
	}
}
