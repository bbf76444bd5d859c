package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/radieske/sportsbook-ledger/internal/sportsbook"
)

// LedgerMetrics implementa sportsbook.Recorder com coletores Prometheus
type LedgerMetrics struct {
	ops       *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	volume    *prometheus.CounterVec
	liquidity *prometheus.GaugeVec
	price     prometheus.Gauge
}

// NewLedgerMetrics cria e registra os coletores em reg (prometheus.DefaultRegisterer no main)
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	m := &LedgerMetrics{
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sportsbook_operations_total",
			Help: "operações do ledger por resultado (ok ou código do erro)",
		}, []string{"op", "result"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sportsbook_operation_seconds",
			Help:    "duração das transações do ledger",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
		volume: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sportsbook_volume_tokens_total",
			Help: "tokens movimentados por tipo (bet, fee, payout, ...)",
		}, []string{"kind"}),
		liquidity: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sportsbook_lp_tokens",
			Help: "estado do pool de liquidez em tokens",
		}, []string{"field"}),
		price: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sportsbook_lp_share_price",
			Help: "valor de uma share do LP em tokens",
		}),
	}
	reg.MustRegister(m.ops, m.latency, m.volume, m.liquidity, m.price)
	return m
}

func (m *LedgerMetrics) Operation(op, result string, elapsed time.Duration) {
	m.ops.WithLabelValues(op, result).Inc()
	m.latency.WithLabelValues(op).Observe(elapsed.Seconds())
}

func (m *LedgerMetrics) Volume(kind string, amount uint64) {
	m.volume.WithLabelValues(kind).Add(tokens(amount))
}

func (m *LedgerMetrics) Liquidity(lp sportsbook.LiquidityPool) {
	m.liquidity.WithLabelValues("total").Set(tokens(lp.TotalLiquidity))
	m.liquidity.WithLabelValues("locked").Set(tokens(lp.LockedReserve))
	m.liquidity.WithLabelValues("available").Set(tokens(lp.AvailableLiquidity))
	m.liquidity.WithLabelValues("profit").Set(tokens(lp.TotalProfit))
	m.liquidity.WithLabelValues("loss").Set(tokens(lp.TotalLoss))
	m.price.Set(float64(lp.SharePrice()) / float64(sportsbook.OneX))
}

// tokens converte unidades base para float só para exposição
func tokens(units uint64) float64 { return float64(units) / float64(sportsbook.TokenUnit) }
